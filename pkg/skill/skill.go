// Package skill defines the capability-provisioning data model: Skill,
// its risk/cost/tier metadata, and its tool-gating policy.
package skill

import "fmt"

// Risk is a totally ordered severity level for a skill's work.
type Risk string

const (
	RiskLow      Risk = "low"
	RiskMedium   Risk = "medium"
	RiskHigh     Risk = "high"
	RiskCritical Risk = "critical"
)

var riskOrder = map[Risk]int{
	RiskLow:      0,
	RiskMedium:   1,
	RiskHigh:     2,
	RiskCritical: 3,
}

// IsValid reports whether r is a recognized risk level.
func (r Risk) IsValid() bool {
	_, ok := riskOrder[r]
	return ok
}

// Order returns the risk's position in the total order (low < ... < critical).
// Unrecognized values sort after every known risk.
func (r Risk) Order() int {
	if v, ok := riskOrder[r]; ok {
		return v
	}
	return len(riskOrder)
}

// Cost is a totally ordered resource-consumption level for a skill's work.
type Cost string

const (
	CostLow    Cost = "low"
	CostMedium Cost = "medium"
	CostHigh   Cost = "high"
)

var costOrder = map[Cost]int{
	CostLow:    0,
	CostMedium: 1,
	CostHigh:   2,
}

// IsValid reports whether c is a recognized cost level.
func (c Cost) IsValid() bool {
	_, ok := costOrder[c]
	return ok
}

// Order returns the cost's position in the total order (low < medium < high).
// Unrecognized values sort after every known cost.
func (c Cost) Order() int {
	if v, ok := costOrder[c]; ok {
		return v
	}
	return len(costOrder)
}

// Tier is the enforcement strength applied while a skill is the current
// skill of a session's chain.
type Tier string

const (
	TierHard Tier = "hard"
	TierSoft Tier = "soft"
	TierNone Tier = "none"
)

// IsValid reports whether t is a recognized tier.
func (t Tier) IsValid() bool {
	switch t {
	case TierHard, TierSoft, TierNone:
		return true
	}
	return false
}

// DenyRule gates a single intent behind a capability.
type DenyRule struct {
	Until  string `yaml:"until" json:"until"`
	Reason string `yaml:"reason" json:"reason"`
}

// ToolPolicy is a skill's tool-gating policy: which intents are blocked
// until which capability is satisfied.
type ToolPolicy struct {
	DenyUntil map[string]DenyRule `yaml:"deny_until,omitempty" json:"deny_until,omitempty"`
}

// ArtifactSpec is an opaque evidence descriptor, consumed only by external
// probes (pkg/evidence). The core never interprets its fields.
type ArtifactSpec struct {
	Type string         `yaml:"type" json:"type"`
	Spec map[string]any `yaml:",inline" json:"spec,omitempty"`
}

// Skill is a declared capability provider.
type Skill struct {
	Name       string         `yaml:"name" json:"name"`
	SkillPath  string         `yaml:"skill_path,omitempty" json:"skill_path,omitempty"`
	Provides   []string       `yaml:"provides,omitempty" json:"provides,omitempty"`
	Requires   []string       `yaml:"requires,omitempty" json:"requires,omitempty"`
	Conflicts  []string       `yaml:"conflicts,omitempty" json:"conflicts,omitempty"`
	Risk       Risk           `yaml:"risk,omitempty" json:"risk,omitempty"`
	Cost       Cost           `yaml:"cost,omitempty" json:"cost,omitempty"`
	Tier       Tier           `yaml:"tier,omitempty" json:"tier,omitempty"`
	Artifacts  []ArtifactSpec `yaml:"artifacts,omitempty" json:"artifacts,omitempty"`
	ToolPolicy ToolPolicy     `yaml:"tool_policy,omitempty" json:"tool_policy,omitempty"`
}

// ApplyDefaults fills in the catalog schema's documented defaults
// (spec.md §6) for any field left at its zero value.
func (s *Skill) ApplyDefaults() {
	if s.Risk == "" {
		s.Risk = RiskMedium
	}
	if s.Cost == "" {
		s.Cost = CostMedium
	}
	if s.Tier == "" {
		s.Tier = TierHard
	}
}

// Validate checks that a skill's declared fields are internally consistent.
func (s *Skill) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("skill name cannot be empty")
	}
	if !s.Risk.IsValid() {
		return fmt.Errorf("skill %q: invalid risk %q", s.Name, s.Risk)
	}
	if !s.Cost.IsValid() {
		return fmt.Errorf("skill %q: invalid cost %q", s.Name, s.Cost)
	}
	if !s.Tier.IsValid() {
		return fmt.Errorf("skill %q: invalid tier %q", s.Name, s.Tier)
	}
	for _, c := range s.Conflicts {
		if c == s.Name {
			return fmt.Errorf("skill %q: cannot conflict with itself", s.Name)
		}
	}
	return nil
}

// ConflictsWith reports whether s and other declare mutual incompatibility
// (spec.md §4.2 step 4: "bidirectional check via the conflicts set").
func (s *Skill) ConflictsWith(other *Skill) bool {
	if s == nil || other == nil {
		return false
	}
	for _, c := range s.Conflicts {
		if c == other.Name {
			return true
		}
	}
	for _, c := range other.Conflicts {
		if c == s.Name {
			return true
		}
	}
	return false
}

// HighImpact is the set of intents that remain enforced while a skill's
// tier is "soft" (spec.md §4.5 step 4).
var HighImpact = map[string]bool{
	"write_impl": true,
	"commit":     true,
	"push":       true,
	"deploy":     true,
	"delete":     true,
}
