package gate

import (
	"strings"
	"testing"
	"time"

	"github.com/vanderheijden86/chainkeeper/pkg/catalog"
	"github.com/vanderheijden86/chainkeeper/pkg/evidence"
	"github.com/vanderheijden86/chainkeeper/pkg/intent"
	"github.com/vanderheijden86/chainkeeper/pkg/profile"
	"github.com/vanderheijden86/chainkeeper/pkg/session"
	"github.com/vanderheijden86/chainkeeper/pkg/skill"
)

// Scenario A (spec.md §8): a TDD skill gates write_impl until test_written
// and commit until test_green; a doc-maintenance skill requires test_green
// but isn't needed to satisfy the bug-fix profile's required capabilities,
// so it never enters the chain.
func scenarioACatalog() *catalog.Catalog {
	tdd := &skill.Skill{
		Name:     "tdd",
		Provides: []string{"test_written", "test_green"},
		Risk:     skill.RiskLow,
		Cost:     skill.CostLow,
		ToolPolicy: skill.ToolPolicy{
			DenyUntil: map[string]skill.DenyRule{
				"write_impl": {Until: "test_written", Reason: "Write test first"},
				"commit":     {Until: "test_green", Reason: "Tests must pass"},
			},
		},
	}
	docMaintenance := &skill.Skill{
		Name:     "doc-maintenance",
		Provides: []string{"docs_updated"},
		Requires: []string{"test_green"},
		Risk:     skill.RiskLow,
		Cost:     skill.CostLow,
	}
	tdd.ApplyDefaults()
	docMaintenance.ApplyDefaults()

	bugFix := &profile.Profile{
		Name:                 "bug-fix",
		CapabilitiesRequired: []string{"test_written", "test_green"},
		Strictness:           profile.StrictnessStrict,
	}
	bugFix.ApplyDefaults()

	return &catalog.Catalog{
		Skills:   []*skill.Skill{tdd, docMaintenance},
		Profiles: []*profile.Profile{bugFix},
	}
}

func TestScenarioATDDLinearChain(t *testing.T) {
	store := session.New(t.TempDir())
	g := New(store, scenarioACatalog(), nil)
	g.Now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	activation, err := g.Activate("req-a", "bug-fix")
	if err != nil || activation.Error != "" {
		t.Fatalf("Activate: %v %+v", err, activation)
	}

	s, err := store.Load(activation.SessionID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.Chain) != 1 || s.Chain[0] != "tdd" {
		t.Fatalf("expected chain=[tdd], got %v", s.Chain)
	}
	if len(s.BlockedIntents) != 2 {
		t.Fatalf("expected 2 blocked intents, got %+v", s.BlockedIntents)
	}
	if s.BlockedIntents["write_impl"].Reason != "Write test first" {
		t.Fatalf("expected write_impl reason 'Write test first', got %+v", s.BlockedIntents["write_impl"])
	}
	if s.BlockedIntents["commit"].Reason != "Tests must pass" {
		t.Fatalf("expected commit reason 'Tests must pass', got %+v", s.BlockedIntents["commit"])
	}

	blocked, err := g.Check(intent.Invocation{Tool: "write", Path: "src/foo.ts"}, DefaultCheckOptions())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if blocked.Allowed {
		t.Fatalf("expected write to src/foo.ts to be blocked before test_written, got %+v", blocked)
	}

	ok, err := g.SatisfyCapability(activation.SessionID, evidence.CapabilityEvidence{
		Capability:   "test_written",
		SatisfiedBy:  "tdd",
		EvidenceType: evidence.TypeManual,
	})
	if err != nil || !ok {
		t.Fatalf("SatisfyCapability: ok=%v err=%v", ok, err)
	}

	allowed, err := g.Check(intent.Invocation{Tool: "write", Path: "src/foo.ts"}, DefaultCheckOptions())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !allowed.Allowed {
		t.Fatalf("expected write to src/foo.ts to be allowed after test_written, got %+v", allowed)
	}
	if !strings.Contains(allowed.Message, "CURRENT: tdd (need: test_green)") {
		t.Fatalf("expected guidance naming test_green as the next need, got %q", allowed.Message)
	}
}
