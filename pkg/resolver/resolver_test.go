package resolver

import (
	"testing"

	"github.com/vanderheijden86/chainkeeper/pkg/profile"
	"github.com/vanderheijden86/chainkeeper/pkg/skill"
)

func mustSkill(t *testing.T, s *skill.Skill) *skill.Skill {
	t.Helper()
	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		t.Fatalf("invalid fixture skill %q: %v", s.Name, err)
	}
	return s
}

func mustProfile(t *testing.T, p *profile.Profile) *profile.Profile {
	t.Helper()
	p.ApplyDefaults()
	if err := p.Validate(); err != nil {
		t.Fatalf("invalid fixture profile %q: %v", p.Name, err)
	}
	return p
}

// Scenario B: two equal-risk, equal-cost providers of the same capability
// tie-break alphabetically by name.
func TestScenarioBTieBreakByName(t *testing.T) {
	alpha := mustSkill(t, &skill.Skill{Name: "alpha", Provides: []string{"a"}, Risk: skill.RiskLow, Cost: skill.CostLow})
	zebra := mustSkill(t, &skill.Skill{Name: "zebra", Provides: []string{"a"}, Risk: skill.RiskLow, Cost: skill.CostLow})
	p := mustProfile(t, &profile.Profile{Name: "p", CapabilitiesRequired: []string{"a"}})

	result, err := Resolve(p, []*skill.Skill{alpha, zebra}, DefaultOptions())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(result.Chain) != 1 || result.Chain[0] != "alpha" {
		t.Fatalf("expected chain=[alpha], got %v", result.Chain)
	}
}

// Scenario C: equal risk, unequal cost providers tie-break on lower cost.
func TestScenarioCTieBreakByCost(t *testing.T) {
	highCost := mustSkill(t, &skill.Skill{Name: "high-cost", Provides: []string{"a"}, Risk: skill.RiskLow, Cost: skill.CostHigh})
	lowCost := mustSkill(t, &skill.Skill{Name: "low-cost", Provides: []string{"a"}, Risk: skill.RiskLow, Cost: skill.CostLow})
	p := mustProfile(t, &profile.Profile{Name: "p", CapabilitiesRequired: []string{"a"}})

	result, err := Resolve(p, []*skill.Skill{highCost, lowCost}, DefaultOptions())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(result.Chain) != 1 || result.Chain[0] != "low-cost" {
		t.Fatalf("expected chain=[low-cost], got %v", result.Chain)
	}
}

// Scenario D: a required pair of capabilities is provided by mutually
// conflicting skills. FailFast=true returns a ConflictError; FailFast=false
// selects one and emits a warning instead of failing outright.
func TestScenarioDConflictFailFast(t *testing.T) {
	a := mustSkill(t, &skill.Skill{Name: "A", Provides: []string{"x"}, Conflicts: []string{"B"}})
	b := mustSkill(t, &skill.Skill{Name: "B", Provides: []string{"y"}})
	p := mustProfile(t, &profile.Profile{Name: "p", CapabilitiesRequired: []string{"x", "y"}})

	_, err := Resolve(p, []*skill.Skill{a, b}, Options{FailFast: true})
	if err == nil {
		t.Fatalf("expected a conflict error with FailFast=true")
	}
	if _, ok := err.(*ConflictError); !ok {
		t.Fatalf("expected *ConflictError, got %T: %v", err, err)
	}
}

func TestScenarioDConflictWarnAndSkip(t *testing.T) {
	a := mustSkill(t, &skill.Skill{Name: "A", Provides: []string{"x"}, Conflicts: []string{"B"}})
	b := mustSkill(t, &skill.Skill{Name: "B", Provides: []string{"y"}})
	p := mustProfile(t, &profile.Profile{Name: "p", CapabilitiesRequired: []string{"x", "y"}})

	result, err := Resolve(p, []*skill.Skill{a, b}, Options{FailFast: false})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(result.Chain) != 1 {
		t.Fatalf("expected exactly one skill selected from a conflicting pair, got %v", result.Chain)
	}
	if len(result.Warnings) == 0 {
		t.Fatalf("expected a warning describing the skipped conflicting skill")
	}
}

// A candidate conflicting with two already-selected skills must report the
// same conflict every time: conflictingSelected walks r.order (selection
// order), not the r.selected map, so which of the two is reported cannot
// depend on map iteration order.
func TestConflictWithMultipleSelectedReportsFirstBySelectionOrder(t *testing.T) {
	a := mustSkill(t, &skill.Skill{Name: "A", Provides: []string{"x"}})
	b := mustSkill(t, &skill.Skill{Name: "B", Provides: []string{"y"}})
	c := mustSkill(t, &skill.Skill{Name: "C", Provides: []string{"z"}, Conflicts: []string{"A", "B"}})
	p := mustProfile(t, &profile.Profile{Name: "p", CapabilitiesRequired: []string{"x", "y", "z"}})
	skills := []*skill.Skill{a, b, c}

	for i := 0; i < 5; i++ {
		_, err := Resolve(p, skills, Options{FailFast: true})
		conflictErr, ok := err.(*ConflictError)
		if !ok {
			t.Fatalf("iteration %d: expected *ConflictError, got %T: %v", i, err, err)
		}
		if conflictErr.A != "C" || conflictErr.B != "A" {
			t.Fatalf("iteration %d: expected conflict reported against A (first by selection order), got %+v", i, conflictErr)
		}
	}
}

// Scenario E: a require-cycle within the only candidates for a capability
// means it can never be satisfied; resolve emits a warning and selects
// nothing.
func TestScenarioECycleInChosenSubsetIsUnsatisfiable(t *testing.T) {
	a := mustSkill(t, &skill.Skill{Name: "A", Provides: []string{"a"}, Requires: []string{"b"}})
	b := mustSkill(t, &skill.Skill{Name: "B", Provides: []string{"b"}, Requires: []string{"a"}})
	p := mustProfile(t, &profile.Profile{Name: "p", CapabilitiesRequired: []string{"a"}})

	result, err := Resolve(p, []*skill.Skill{a, b}, DefaultOptions())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(result.Chain) != 0 {
		t.Fatalf("expected no skills selected for an unsatisfiable require cycle, got %v", result.Chain)
	}
	if len(result.Warnings) == 0 {
		t.Fatalf("expected an unsatisfiability warning for capability %q", "a")
	}
}
