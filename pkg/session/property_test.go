package session

import (
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/chainkeeper/pkg/chaintest"
	"github.com/vanderheijden86/chainkeeper/pkg/evidence"
	"github.com/vanderheijden86/chainkeeper/pkg/profile"
	"github.com/vanderheijden86/chainkeeper/pkg/resolver"
	"github.com/vanderheijden86/chainkeeper/pkg/skill"
)

func buildFixture(seed int64, size int) (skills []*skill.Skill, skillsByName map[string]*skill.Skill, caps []string) {
	gen := chaintest.New(chaintest.Config{Seed: seed})
	skills = gen.ToSkills(gen.Chain(size))
	skillsByName = make(map[string]*skill.Skill, len(skills))
	for _, s := range skills {
		skillsByName[s.Name] = s
	}
	caps = chaintest.AllCapabilities(skills)
	return
}

// TestSatisfyIsIdempotent is spec.md §8 P6: recording the same capability
// evidence twice never changes state beyond the first call.
func TestSatisfyIsIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		size := rapid.IntRange(1, 8).Draw(t, "size")
		seed := rapid.Int64Range(0, 1<<30).Draw(t, "seed")
		idx := rapid.IntRange(0, size-1).Draw(t, "idx")

		skills, skillsByName, caps := buildFixture(seed, size)
		p := chaintest.ProfileRequiring("p", caps)
		result, err := resolver.Resolve(p, skills, resolver.DefaultOptions())
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}

		s := New("", "p", result, caps, profile.StrictnessStrict, time.Unix(0, 0).UTC())
		ev := evidence.CapabilityEvidence{Capability: caps[idx], SatisfiedBy: skills[idx].Name, EvidenceType: evidence.TypeManual}

		firstChanged := s.Satisfy(ev, skillsByName)
		snapshotCount := len(s.CapabilitiesSatisfied)
		snapshotIndex := s.CurrentSkillIndex

		secondChanged := s.Satisfy(ev, skillsByName)

		if !firstChanged {
			t.Fatalf("expected first Satisfy call to report a change")
		}
		if secondChanged {
			t.Fatalf("expected second Satisfy call on the same capability to report no change")
		}
		if len(s.CapabilitiesSatisfied) != snapshotCount {
			t.Fatalf("evidence count changed on idempotent replay: %d vs %d", len(s.CapabilitiesSatisfied), snapshotCount)
		}
		if s.CurrentSkillIndex != snapshotIndex {
			t.Fatalf("current_skill_index changed on idempotent replay: %d vs %d", s.CurrentSkillIndex, snapshotIndex)
		}
	})
}

// TestCurrentSkillIndexMonotonicallyAdvances is spec.md I6: as capabilities
// are satisfied in chain order, current_skill_index never decreases.
func TestCurrentSkillIndexMonotonicallyAdvances(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		size := rapid.IntRange(1, 8).Draw(t, "size")
		seed := rapid.Int64Range(0, 1<<30).Draw(t, "seed")

		skills, skillsByName, caps := buildFixture(seed, size)
		p := chaintest.ProfileRequiring("p", caps)
		result, err := resolver.Resolve(p, skills, resolver.DefaultOptions())
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}

		s := New("", "p", result, caps, profile.StrictnessStrict, time.Unix(0, 0).UTC())

		last := s.CurrentSkillIndex
		for i, name := range result.Chain {
			sk := skillsByName[name]
			if sk == nil || len(sk.Provides) == 0 {
				continue
			}
			s.Satisfy(evidence.CapabilityEvidence{
				Capability:   sk.Provides[0],
				SatisfiedBy:  name,
				EvidenceType: evidence.TypeManual,
			}, skillsByName)
			if s.CurrentSkillIndex < last {
				t.Fatalf("current_skill_index regressed at chain step %d: %d -> %d", i, last, s.CurrentSkillIndex)
			}
			last = s.CurrentSkillIndex
		}
		if !s.IsComplete() {
			t.Fatalf("expected session to be complete after satisfying every chain-provided capability")
		}
		if s.CurrentSkillIndex != len(result.Chain) {
			t.Fatalf("expected current_skill_index == len(chain) on completion, got %d", s.CurrentSkillIndex)
		}
	})
}

// TestPercentCompleteIsMonotonicAndBounded: PercentComplete never decreases
// as evidence accrues, and never leaves [0, 100].
func TestPercentCompleteIsMonotonicAndBounded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		size := rapid.IntRange(1, 8).Draw(t, "size")
		seed := rapid.Int64Range(0, 1<<30).Draw(t, "seed")

		skills, skillsByName, caps := buildFixture(seed, size)
		p := chaintest.ProfileRequiring("p", caps)
		result, err := resolver.Resolve(p, skills, resolver.DefaultOptions())
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}

		s := New("", "p", result, caps, profile.StrictnessStrict, time.Unix(0, 0).UTC())
		last := s.PercentComplete()
		if last < 0 || last > 100 {
			t.Fatalf("PercentComplete out of bounds: %d", last)
		}
		for _, c := range caps {
			s.Satisfy(evidence.CapabilityEvidence{Capability: c, SatisfiedBy: "x", EvidenceType: evidence.TypeManual}, skillsByName)
			pct := s.PercentComplete()
			if pct < last {
				t.Fatalf("PercentComplete regressed: %d -> %d", last, pct)
			}
			if pct < 0 || pct > 100 {
				t.Fatalf("PercentComplete out of bounds: %d", pct)
			}
			last = pct
		}
		if last != 100 {
			t.Fatalf("expected 100%% completion once every required capability is satisfied, got %d", last)
		}
	})
}
