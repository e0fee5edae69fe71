// Package gate implements the Enforcement Gate (spec.md §4.5, C5): the
// component that arbitrates a tool invocation against the active
// session's blocked-intent set, tier, and strictness, and (optionally)
// auto-activates a profile on first contact.
//
// Grounded on the shape of a capability-based tool approver: check an
// invocation against a policy, return allow/deny with a reason, and keep
// an audit trail — generalized here to chain state instead of a static
// capability→tool table.
package gate

import (
	"fmt"
	"strings"
	"time"

	"github.com/vanderheijden86/chainkeeper/pkg/catalog"
	"github.com/vanderheijden86/chainkeeper/pkg/evidence"
	"github.com/vanderheijden86/chainkeeper/pkg/intent"
	"github.com/vanderheijden86/chainkeeper/pkg/matcher"
	"github.com/vanderheijden86/chainkeeper/pkg/profile"
	"github.com/vanderheijden86/chainkeeper/pkg/resolver"
	"github.com/vanderheijden86/chainkeeper/pkg/session"
	"github.com/vanderheijden86/chainkeeper/pkg/sessionindex"
	"github.com/vanderheijden86/chainkeeper/pkg/skill"
	"github.com/vanderheijden86/chainkeeper/pkg/telemetry"
)

// CheckOptions configures a single Check call.
type CheckOptions struct {
	// Prompt is the user-facing request text, consulted for auto-activation
	// when no session is active.
	Prompt string
	// AutoSelect enables auto-activation (spec.md §4.5 step 1). Default true.
	AutoSelect bool
}

// DefaultCheckOptions returns the spec's documented default
// (AutoSelect: true).
func DefaultCheckOptions() CheckOptions {
	return CheckOptions{AutoSelect: true}
}

// BlockedEntry is one denial-message line item: the intent that would be
// blocked, why, which capability releases it, and the skill currently
// responsible for that capability.
type BlockedEntry struct {
	Intent               string `json:"intent"`
	Reason               string `json:"reason"`
	UnblockingCapability string `json:"unblocking_capability"`
	CurrentSkill         string `json:"current_skill"`
}

// Result is the Gate's verdict for a single Check call.
type Result struct {
	Allowed        bool           `json:"allowed"`
	Message        string         `json:"message,omitempty"`
	BlockedIntents []BlockedEntry `json:"blocked_intents,omitempty"`
	AutoActivated  bool           `json:"auto_activated,omitempty"`
	SessionID      string         `json:"session_id,omitempty"`
}

// ActivationResult is the outcome of an explicit or auto activation
// (spec.md §4.6, §7 "ActivationResult.error").
type ActivationResult struct {
	SessionID  string `json:"session_id"`
	IsNew      bool   `json:"is_new"`
	Idempotent bool   `json:"idempotent"`
	Error      string `json:"error,omitempty"`
}

// Gate composes the Resolver, Session Store, Intent Classifier, and an
// external Matcher into the tool-arbitration algorithm of spec.md §4.5.
type Gate struct {
	Store           *session.Store
	Catalog         *catalog.Catalog
	Matcher         matcher.Matcher
	ActivationCache *telemetry.ActivationCache
	Now             func() time.Time

	// ResolveCache memoizes Resolve results across Activate calls, when
	// set. Nil by default: Activate falls back to calling resolver.Resolve
	// directly.
	ResolveCache *catalog.ResolveCache
	// Index, when set, is kept in sync with every session the Gate
	// creates or updates, so a caller can answer "list all sessions"
	// without scanning the Session Store's directory.
	Index *sessionindex.Index
}

// New builds a Gate over store and cat, using m to pick profiles during
// auto-activation. If m is nil, matcher.NewKeywordMatcher() is used.
func New(store *session.Store, cat *catalog.Catalog, m matcher.Matcher) *Gate {
	if m == nil {
		m = matcher.NewKeywordMatcher()
	}
	return &Gate{
		Store:           store,
		Catalog:         cat,
		Matcher:         m,
		ActivationCache: telemetry.NewActivationCache(0),
		Now:             time.Now,
	}
}

// skillsByName indexes the catalog's skills by name for session-state
// lookups (getCurrentSkill, recomputeCurrentSkillIndex).
func (g *Gate) skillsByName() map[string]*skill.Skill {
	m := make(map[string]*skill.Skill, len(g.Catalog.Skills))
	for _, s := range g.Catalog.Skills {
		m[s.Name] = s
	}
	return m
}

// Activate resolves profileName into a fresh session, idempotent on
// requestID (spec.md §4.6). An empty requestID skips the replay cache
// (used by Check's internal auto-activation, which has no caller-supplied
// request id to key on).
func (g *Gate) Activate(requestID, profileName string) (*ActivationResult, error) {
	if requestID != "" {
		if sid, ok := g.ActivationCache.Lookup(requestID); ok {
			return &ActivationResult{SessionID: sid, IsNew: false, Idempotent: true}, nil
		}
	}

	p := g.Catalog.FindProfile(profileName)
	if p == nil {
		return &ActivationResult{Error: fmt.Sprintf("profile %q not found", profileName)}, nil
	}

	var result *resolver.Result
	var err error
	if g.ResolveCache != nil {
		result, err = g.ResolveCache.Resolve(p, g.Catalog.Skills, resolver.DefaultOptions())
	} else {
		result, err = resolver.Resolve(p, g.Catalog.Skills, resolver.DefaultOptions())
	}
	if err != nil {
		return &ActivationResult{Error: err.Error()}, nil
	}

	s := session.New("", p.Name, result, p.CapabilitiesRequired, p.Strictness, g.Now())
	if err := g.Store.Create(s); err != nil {
		return &ActivationResult{Error: err.Error()}, nil
	}
	g.indexUpsert(s)

	if requestID != "" {
		g.ActivationCache.Record(requestID, s.SessionID)
	}
	return &ActivationResult{SessionID: s.SessionID, IsNew: true, Idempotent: false}, nil
}

// indexUpsert refreshes s's row in Index, when one is attached. The index
// is a best-effort read cache (spec.md §3's Store remains the source of
// truth), so an Upsert failure here is not surfaced as an Activate/
// SatisfyCapability error.
func (g *Gate) indexUpsert(s *session.State) {
	if g.Index != nil {
		_ = g.Index.Upsert(s)
	}
}

// Check implements spec.md §4.5's algorithm end to end.
func (g *Gate) Check(inv intent.Invocation, opts CheckOptions) (*Result, error) {
	current, err := g.Store.LoadCurrent()
	if err != nil {
		return nil, err
	}

	autoActivated := false
	if current == nil && opts.AutoSelect && opts.Prompt != "" && len(g.Catalog.Profiles) > 0 {
		p, ok := g.Matcher.Match(opts.Prompt, g.Catalog.Profiles)
		if ok {
			activation, err := g.Activate("", p.Name)
			if err != nil {
				return nil, err
			}
			if activation.Error == "" {
				current, err = g.Store.Load(activation.SessionID)
				if err != nil {
					return nil, err
				}
				autoActivated = true
			}
		}
	}

	if current == nil {
		return &Result{Allowed: true}, nil
	}

	byName := g.skillsByName()
	current.RecomputeIndex(byName)

	intents := intent.Classify(inv)
	candidateBlocked := make(map[string]string) // intent -> capability it's gated on
	for _, in := range intents {
		rule, blocked := current.BlockedIntents[string(in)]
		if !blocked {
			continue
		}
		if current.IsSatisfied(rule.Until) {
			continue // released: evidence already satisfies the gating capability
		}
		candidateBlocked[string(in)] = rule.Until
	}

	currentSkill, currentCapability, hasCurrent := current.CurrentSkill(byName)
	candidateBlocked = filterByTier(candidateBlocked, tierOf(currentSkill))

	strictness := current.Strictness
	if p := g.Catalog.FindProfile(current.ProfileID); p != nil {
		strictness = p.Strictness
	}

	guidance := guidanceMessage(current, currentSkill, currentCapability, hasCurrent)

	switch strictness {
	case profile.StrictnessPermissive:
		return &Result{Allowed: true, Message: guidance, AutoActivated: autoActivated, SessionID: current.SessionID}, nil
	case profile.StrictnessAdvisory:
		return &Result{Allowed: true, Message: guidance, AutoActivated: autoActivated, SessionID: current.SessionID}, nil
	}

	if len(candidateBlocked) == 0 {
		return &Result{Allowed: true, Message: guidance, AutoActivated: autoActivated, SessionID: current.SessionID}, nil
	}

	skillName := ""
	if hasCurrent {
		skillName = currentSkill.Name
	}
	// Walk intents (the classifier's ordered return slice) rather than the
	// candidateBlocked map, so entry order is deterministic even when a
	// single invocation classifies to more than one simultaneously-blocked
	// intent (spec.md §9: "every set/map iteration the core exposes
	// externally must be through an explicitly sorted view").
	seen := make(map[string]bool, len(candidateBlocked))
	entries := make([]BlockedEntry, 0, len(candidateBlocked))
	for _, in := range intents {
		key := string(in)
		unblockingCap, blocked := candidateBlocked[key]
		if !blocked || seen[key] {
			continue
		}
		seen[key] = true
		rule := current.BlockedIntents[key]
		entries = append(entries, BlockedEntry{
			Intent:               key,
			Reason:               rule.Reason,
			UnblockingCapability: unblockingCap,
			CurrentSkill:         skillName,
		})
	}

	return &Result{
		Allowed:        false,
		Message:        denialMessage(entries, guidance),
		BlockedIntents: entries,
		AutoActivated:  autoActivated,
		SessionID:      current.SessionID,
	}, nil
}

func tierOf(s *skill.Skill) skill.Tier {
	if s == nil {
		return skill.TierNone
	}
	return s.Tier
}

// filterByTier applies spec.md §4.5 step 4's tier filtering to the
// candidate blocked-intent set.
func filterByTier(blocked map[string]string, tier skill.Tier) map[string]string {
	switch tier {
	case skill.TierNone:
		return map[string]string{}
	case skill.TierSoft:
		out := make(map[string]string, len(blocked))
		for in, cap := range blocked {
			if skill.HighImpact[in] {
				out[in] = cap
			}
		}
		return out
	default: // hard, or unrecognized: retain all
		return blocked
	}
}

// guidanceMessage builds the allow-path status line of spec.md §4.5 step 6.
func guidanceMessage(s *session.State, currentSkill *skill.Skill, capability string, hasCurrent bool) string {
	pct := s.PercentComplete()
	satisfied := len(s.CapabilitiesSatisfied)
	total := len(s.CapabilitiesRequired)

	if s.IsComplete() {
		return fmt.Sprintf("[chain] %s: %d/%d (%d%%) - COMPLETE", s.ProfileID, satisfied, total, pct)
	}

	skillName := "?"
	if hasCurrent {
		skillName = currentSkill.Name
	}
	head := fmt.Sprintf("[chain] %s: %d/%d (%d%%) - CURRENT: %s (need: %s)", s.ProfileID, satisfied, total, pct, skillName, capability)
	hint := fmt.Sprintf("→ Skill(skill: %q)", skillName)
	return head + "\n" + hint
}

// denialMessage implements spec.md §4.5 step 7: one line per blocked
// tuple, then the guidance appended.
func denialMessage(entries []BlockedEntry, guidance string) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "Blocked: %s (%s) - unlocks via %q, current skill %q\n", e.Intent, e.Reason, e.UnblockingCapability, e.CurrentSkill)
	}
	b.WriteString(guidance)
	return b.String()
}

// SatisfyCapability records ev against session sessionID through the
// Store and persists it, then refreshes that session's row in Index when
// one is attached.
func (g *Gate) SatisfyCapability(sessionID string, ev evidence.CapabilityEvidence) (bool, error) {
	changed, err := g.Store.SatisfyCapability(sessionID, ev, g.skillsByName())
	if err != nil || !changed {
		return changed, err
	}
	if g.Index != nil {
		if s, loadErr := g.Store.Load(sessionID); loadErr == nil && s != nil {
			g.indexUpsert(s)
		}
	}
	return changed, nil
}
