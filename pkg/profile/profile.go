// Package profile defines the workflow-request data model: Profile, its
// strictness dial, and its ordered capability requirements.
package profile

import "fmt"

// Strictness modulates how much of the Gate's denial surface is active.
type Strictness string

const (
	StrictnessStrict     Strictness = "strict"
	StrictnessAdvisory   Strictness = "advisory"
	StrictnessPermissive Strictness = "permissive"
)

// IsValid reports whether s is a recognized strictness level.
func (s Strictness) IsValid() bool {
	switch s {
	case StrictnessStrict, StrictnessAdvisory, StrictnessPermissive:
		return true
	}
	return false
}

// CompletionRequirement is an opaque evidence descriptor checked externally
// to declare a workflow done. The core never interprets its fields.
type CompletionRequirement struct {
	Type string         `yaml:"type" json:"type"`
	Spec map[string]any `yaml:",inline" json:"spec,omitempty"`
}

// Profile is a workflow request: an ordered list of capabilities a chain
// must satisfy, plus the matcher/strictness knobs that modulate it.
type Profile struct {
	Name                   string                  `yaml:"name" json:"name"`
	Description            string                  `yaml:"description,omitempty" json:"description,omitempty"`
	Match                  []string                `yaml:"match,omitempty" json:"match,omitempty"`
	CapabilitiesRequired   []string                `yaml:"capabilities_required" json:"capabilities_required"`
	Strictness             Strictness              `yaml:"strictness,omitempty" json:"strictness,omitempty"`
	CompletionRequirements []CompletionRequirement `yaml:"completion_requirements,omitempty" json:"completion_requirements,omitempty"`
	Priority               int                     `yaml:"priority,omitempty" json:"priority,omitempty"`
}

// ApplyDefaults fills in the catalog schema's documented defaults
// (spec.md §6) for any field left at its zero value.
func (p *Profile) ApplyDefaults() {
	if p.Strictness == "" {
		p.Strictness = StrictnessAdvisory
	}
}

// Validate checks that a profile's declared fields are internally consistent.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile name cannot be empty")
	}
	if !p.Strictness.IsValid() {
		return fmt.Errorf("profile %q: invalid strictness %q", p.Name, p.Strictness)
	}
	return nil
}
