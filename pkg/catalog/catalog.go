// Package catalog loads and validates the skills.yaml / profiles.yaml
// configuration files described in spec.md §6. It is explicitly an
// out-of-core collaborator (spec.md §1): the resolver and session store
// consume plain []*skill.Skill / []*profile.Profile slices and never touch
// YAML directly.
package catalog

import (
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/chainkeeper/pkg/profile"
	"github.com/vanderheijden86/chainkeeper/pkg/skill"
)

// SkillsFile is the top-level shape of skills.yaml.
type SkillsFile struct {
	Version string         `yaml:"version"`
	Skills  []*skill.Skill `yaml:"skills"`
}

// ProfilesFile is the top-level shape of profiles.yaml.
type ProfilesFile struct {
	Version        string             `yaml:"version"`
	Profiles       []*profile.Profile `yaml:"profiles"`
	DefaultProfile string             `yaml:"default_profile,omitempty"`
}

// Catalog is the loaded, validated, default-applied pair of skill and
// profile lists a resolver run needs.
type Catalog struct {
	Skills         []*skill.Skill
	Profiles       []*profile.Profile
	DefaultProfile string
}

// LoadSkillsFile reads and validates a skills.yaml at path.
func LoadSkillsFile(path string) ([]*skill.Skill, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading skills catalog %s: %w", path, err)
	}
	var file SkillsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing skills catalog %s: %w", path, err)
	}
	seen := make(map[string]bool, len(file.Skills))
	for _, s := range file.Skills {
		s.ApplyDefaults()
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("skills catalog %s: %w", path, err)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("skills catalog %s: duplicate skill name %q", path, s.Name)
		}
		seen[s.Name] = true
	}
	return file.Skills, nil
}

// LoadProfilesFile reads and validates a profiles.yaml at path.
func LoadProfilesFile(path string) ([]*profile.Profile, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading profiles catalog %s: %w", path, err)
	}
	var file ProfilesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, "", fmt.Errorf("parsing profiles catalog %s: %w", path, err)
	}
	seen := make(map[string]bool, len(file.Profiles))
	for _, p := range file.Profiles {
		p.ApplyDefaults()
		if err := p.Validate(); err != nil {
			return nil, "", fmt.Errorf("profiles catalog %s: %w", path, err)
		}
		if seen[p.Name] {
			return nil, "", fmt.Errorf("profiles catalog %s: duplicate profile name %q", path, p.Name)
		}
		seen[p.Name] = true
	}
	return file.Profiles, file.DefaultProfile, nil
}

// Load reads both catalog files in parallel (errgroup, matching
// pkg/workspace.AggregateLoader's fan-out pattern) and returns the combined,
// validated Catalog. A malformed catalog is a ConfigInvalid fault per
// spec.md §7: the caller must refuse to operate on error.
func Load(skillsPath, profilesPath string) (*Catalog, error) {
	var skills []*skill.Skill
	var profiles []*profile.Profile
	var defaultProfile string

	g := new(errgroup.Group)
	g.Go(func() error {
		var err error
		skills, err = LoadSkillsFile(skillsPath)
		return err
	})
	g.Go(func() error {
		var err error
		profiles, defaultProfile, err = LoadProfilesFile(profilesPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Catalog{
		Skills:         skills,
		Profiles:       profiles,
		DefaultProfile: defaultProfile,
	}, nil
}

// FindSkill returns the skill named name, or nil.
func (c *Catalog) FindSkill(name string) *skill.Skill {
	for _, s := range c.Skills {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// FindProfile returns the profile named name, or nil.
func (c *Catalog) FindProfile(name string) *profile.Profile {
	for _, p := range c.Profiles {
		if p.Name == name {
			return p
		}
	}
	return nil
}
