// Package session implements the Session Store and its state machine
// (spec.md §4.3/§4.5, C3): persistent per-session state recording the
// chain, satisfied capabilities with evidence, current position, and
// blocked-intent set.
//
// Atomicity follows pkg/loader.SaveSprintsToFile's exact pattern from the
// teacher codebase: write to a temp file in the target directory, then
// rename over the destination, so load() never observes a partial write.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/vanderheijden86/chainkeeper/pkg/evidence"
	"github.com/vanderheijden86/chainkeeper/pkg/profile"
	"github.com/vanderheijden86/chainkeeper/pkg/resolver"
	"github.com/vanderheijden86/chainkeeper/pkg/skill"
)

// State is the persisted per-session record (spec.md §3 SessionState).
type State struct {
	SessionID             string                            `json:"session_id"`
	ProfileID             string                            `json:"profile_id"`
	ActivatedAt           time.Time                         `json:"activated_at"`
	Chain                 []string                          `json:"chain"`
	CapabilitiesRequired  []string                          `json:"capabilities_required"`
	CapabilitiesSatisfied []evidence.CapabilityEvidence     `json:"capabilities_satisfied"`
	CurrentSkillIndex     int                               `json:"current_skill_index"`
	Strictness            profile.Strictness                `json:"strictness"`
	BlockedIntents        map[string]resolver.BlockedIntent `json:"blocked_intents"`
}

// New builds the initial Active(0) state for a freshly resolved chain
// (spec.md §4.5: "Initial state: Active(0) at creation").
func New(sessionID, profileID string, result *resolver.Result, capabilitiesRequired []string, strictness profile.Strictness, activatedAt time.Time) *State {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	blocked := make(map[string]resolver.BlockedIntent, len(result.BlockedIntents))
	for k, v := range result.BlockedIntents {
		blocked[k] = v
	}
	s := &State{
		SessionID:             sessionID,
		ProfileID:             profileID,
		ActivatedAt:           activatedAt,
		Chain:                 append([]string{}, result.Chain...),
		CapabilitiesRequired:  append([]string{}, capabilitiesRequired...),
		CapabilitiesSatisfied: nil,
		CurrentSkillIndex:     0,
		Strictness:            strictness,
		BlockedIntents:        blocked,
	}
	s.recomputeCurrentSkillIndex(nil)
	return s
}

// IsSatisfied reports whether capability has already been recorded as
// satisfied (spec.md I5: a capability appears at most once).
func (s *State) IsSatisfied(capability string) bool {
	for _, e := range s.CapabilitiesSatisfied {
		if e.Capability == capability {
			return true
		}
	}
	return false
}

// Satisfy records ev as evidence for its capability. Idempotent: if the
// capability is already recorded, the existing entry (including its
// evidence payload) is kept and Satisfy reports no change (spec.md I4/I5,
// §4.3 satisfyCapability, §8 P6).
func (s *State) Satisfy(ev evidence.CapabilityEvidence, skillsByName map[string]*skill.Skill) (changed bool) {
	if s.IsSatisfied(ev.Capability) {
		return false
	}
	s.CapabilitiesSatisfied = append(s.CapabilitiesSatisfied, ev)
	s.recomputeCurrentSkillIndex(skillsByName)
	return true
}

// recomputeCurrentSkillIndex implements invariant I6: current_skill_index is
// the index of the first chain skill with an unsatisfied provided
// capability appearing in capabilities_required, or len(chain) once every
// required capability is satisfied.
func (s *State) recomputeCurrentSkillIndex(skillsByName map[string]*skill.Skill) {
	unsatisfied := s.unsatisfiedRequiredSet()
	if len(unsatisfied) == 0 {
		s.CurrentSkillIndex = len(s.Chain)
		return
	}
	if skillsByName == nil {
		// No catalog available: CurrentSkillIndex is left as it is (0 for a
		// fresh state); callers that need an exact index should call
		// RecomputeIndex with the catalog.
		return
	}
	for i, name := range s.Chain {
		sk := skillsByName[name]
		if sk == nil {
			continue
		}
		for _, p := range sk.Provides {
			if unsatisfied[p] {
				s.CurrentSkillIndex = i
				return
			}
		}
	}
	s.CurrentSkillIndex = len(s.Chain)
}

// RecomputeIndex recomputes current_skill_index using the given catalog
// (keyed by skill name). Callers that load a State without immediately
// having the catalog in scope (e.g. the Store) should call this once they
// do, before relying on CurrentSkillIndex.
func (s *State) RecomputeIndex(skillsByName map[string]*skill.Skill) {
	s.recomputeCurrentSkillIndex(skillsByName)
}

func (s *State) unsatisfiedRequiredSet() map[string]bool {
	out := make(map[string]bool, len(s.CapabilitiesRequired))
	for _, c := range s.CapabilitiesRequired {
		if !s.IsSatisfied(c) {
			out[c] = true
		}
	}
	return out
}

// UnsatisfiedCapabilities returns the capabilities_required entries not yet
// satisfied, preserving their declared order (spec.md §4.3
// getUnsatisfiedCapabilities).
func (s *State) UnsatisfiedCapabilities() []string {
	var out []string
	for _, c := range s.CapabilitiesRequired {
		if !s.IsSatisfied(c) {
			out = append(out, c)
		}
	}
	return out
}

// CurrentSkill implements spec.md §4.3 getCurrentSkill: the first capability
// in capabilities_required not yet satisfied, and the first chain skill
// whose Provides contains it.
func (s *State) CurrentSkill(skillsByName map[string]*skill.Skill) (sk *skill.Skill, capability string, ok bool) {
	unsatisfied := s.UnsatisfiedCapabilities()
	if len(unsatisfied) == 0 {
		return nil, "", false
	}
	cap := unsatisfied[0]
	for _, name := range s.Chain {
		candidate := skillsByName[name]
		if candidate == nil {
			continue
		}
		for _, p := range candidate.Provides {
			if p == cap {
				return candidate, cap, true
			}
		}
	}
	return nil, cap, false
}

// IsComplete reports whether every required capability has been satisfied
// (the state machine's Complete state, spec.md §4.5).
func (s *State) IsComplete() bool {
	return len(s.UnsatisfiedCapabilities()) == 0
}

// PercentComplete returns the 0-100 satisfied fraction of
// capabilities_required, for Gate guidance messages (spec.md §4.5 step 6).
func (s *State) PercentComplete() int {
	if len(s.CapabilitiesRequired) == 0 {
		return 100
	}
	satisfied := len(s.CapabilitiesRequired) - len(s.UnsatisfiedCapabilities())
	return satisfied * 100 / len(s.CapabilitiesRequired)
}
