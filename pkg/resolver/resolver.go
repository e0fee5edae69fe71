// Package resolver implements the Resolver (spec.md §4.2, C2): given a
// profile and a skill catalog, it produces a deterministic ordered chain of
// skills, per-skill explanations, the initial blocked-intent set, and any
// warnings. It is a pure function of its inputs — no long-lived state, no
// I/O, no clock, no randomness (spec.md §9 "determinism guarantee").
package resolver

import (
	"fmt"

	"github.com/vanderheijden86/chainkeeper/pkg/graph"
	"github.com/vanderheijden86/chainkeeper/pkg/profile"
	"github.com/vanderheijden86/chainkeeper/pkg/skill"
)

// maxSatisfyDepth bounds the satisfy() recursion against pathological
// require-cycles in the input catalog (spec.md §4.2 step 1).
const maxSatisfyDepth = 100

// Explanation is the resolver's per-skill rationale for the chain.
type Explanation struct {
	Skill    string   `json:"skill"`
	Reason   string   `json:"reason"`
	Provides []string `json:"provides"`
	Requires []string `json:"requires"`
}

// BlockedIntent is one entry of the initial blocked-intent set.
type BlockedIntent struct {
	Until  string `json:"until"`
	Reason string `json:"reason"`
}

// Result is the resolver's output (spec.md §3 ResolutionResult).
type Result struct {
	Chain          []string                 `json:"chain"`
	Explanations   []Explanation            `json:"explanations"`
	BlockedIntents map[string]BlockedIntent `json:"blocked_intents"`
	Warnings       []string                 `json:"warnings"`
}

// Options configures a single Resolve call.
type Options struct {
	// FailFast aborts the whole resolution on the first skill conflict
	// when true (the default). When false, conflicting providers are
	// skipped with a warning and resolution continues.
	FailFast bool
}

// DefaultOptions returns the spec's documented default (FailFast: true).
func DefaultOptions() Options {
	return Options{FailFast: true}
}

// ConflictError is returned by Resolve when FailFast is true and two
// selected skills declare mutual incompatibility (spec.md §7 "Conflict").
type ConflictError struct {
	A, B string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("skill %q conflicts with already-selected skill %q", e.A, e.B)
}

// resolution carries the mutable state threaded through satisfy() calls.
type resolution struct {
	skills    map[string]*skill.Skill
	providers map[string][]*skill.Skill

	selected       map[string]bool
	order          []*skill.Skill // chain in selection order, pre-topo-sort
	satisfied      map[string]bool
	explanations   map[string]Explanation // keyed by skill name
	blockedIntents map[string]BlockedIntent
	warnings       []string

	failFast bool
	failed   error
}

// Resolve produces a ResolutionResult for profile against skills.
func Resolve(p *profile.Profile, skills []*skill.Skill, opts Options) (*Result, error) {
	providers := make(map[string][]*skill.Skill)
	byName := make(map[string]*skill.Skill, len(skills))
	for _, s := range skills {
		byName[s.Name] = s
		for _, cap := range s.Provides {
			providers[cap] = append(providers[cap], s)
		}
	}

	r := &resolution{
		skills:         byName,
		providers:      providers,
		selected:       make(map[string]bool),
		satisfied:      make(map[string]bool),
		explanations:   make(map[string]Explanation),
		blockedIntents: make(map[string]BlockedIntent),
		failFast:       opts.FailFast,
	}

	for _, cap := range p.CapabilitiesRequired {
		if !r.satisfy(cap, 0) && r.failed == nil {
			// satisfy() itself appends the warning on the root call.
		}
		if r.failed != nil {
			return nil, r.failed
		}
	}

	chain := make([]string, len(r.order))
	explanations := make([]Explanation, len(r.order))
	for i, s := range r.order {
		chain[i] = s.Name
		explanations[i] = r.explanations[s.Name]
	}

	// Reorder the chosen chain into a topologically valid order (spec.md
	// §4.2: "construct a Capability Graph over the chosen skills and run
	// topologicalSort(); reorder chain and explanations accordingly").
	g := graph.New(r.order)
	if sorted := g.TopologicalSort(); sorted != nil {
		chain = make([]string, len(sorted))
		explanations = make([]Explanation, len(sorted))
		for i, s := range sorted {
			chain[i] = s.Name
			explanations[i] = r.explanations[s.Name]
		}
	} else {
		r.warnings = append(r.warnings, "Cycle detected in resolved chain")
		// chain/explanations keep the pre-sort (selection) order.
	}

	return &Result{
		Chain:          chain,
		Explanations:   explanations,
		BlockedIntents: r.blockedIntents,
		Warnings:       r.warnings,
	}, nil
}

// satisfy ensures capability cap is satisfied, selecting a provider into
// the chain if needed. It returns false when cap cannot be satisfied; the
// "No skill provides" warning is appended on the root call only, while the
// depth-limit and conflict-skip warnings are appended at whatever depth
// they occur.
func (r *resolution) satisfy(cap string, depth int) bool {
	if r.failed != nil {
		return false
	}
	if depth > maxSatisfyDepth {
		r.warnings = append(r.warnings, fmt.Sprintf("capability %q: recursion depth exceeded (possible require cycle)", cap))
		return false
	}
	if r.satisfied[cap] {
		return true
	}

	candidates := r.providers[cap]
	if len(candidates) == 0 {
		if depth == 0 {
			r.warnings = append(r.warnings, fmt.Sprintf("No skill provides capability %q", cap))
		}
		return false
	}

	var surviving []*skill.Skill
	for _, p := range candidates {
		if r.selected[p.Name] {
			// Already in the chain: it already satisfies this capability
			// (its Provides is already unioned into r.satisfied once
			// selected), but if we reach here satisfied[cap] was false,
			// meaning a different already-selected skill provides cap too.
			surviving = append(surviving, p)
			continue
		}

		ok := true
		for _, req := range p.Requires {
			if !r.satisfy(req, depth+1) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}

		conflict := r.conflictingSelected(p)
		if conflict != nil {
			if r.failFast {
				r.failed = &ConflictError{A: p.Name, B: conflict.Name}
				return false
			}
			r.warnings = append(r.warnings, fmt.Sprintf("skill %q conflicts with already-selected skill %q: skipped", p.Name, conflict.Name))
			continue
		}

		surviving = append(surviving, p)
	}

	if len(surviving) == 0 {
		if depth == 0 {
			r.warnings = append(r.warnings, fmt.Sprintf("No skill provides capability %q", cap))
		}
		return false
	}

	best := surviving[0]
	for _, c := range surviving[1:] {
		if skill.Less(c, best) {
			best = c
		}
	}

	if !r.selected[best.Name] {
		r.selectSkill(cap, best)
	}
	r.satisfied[cap] = true
	return true
}

// conflictingSelected returns an already-selected skill that conflicts with
// candidate, or nil. Walks r.order (selection order) rather than the
// r.selected map so the reported conflict is deterministic even when
// candidate conflicts with more than one already-selected skill.
func (r *resolution) conflictingSelected(candidate *skill.Skill) *skill.Skill {
	for _, s := range r.order {
		if candidate.ConflictsWith(s) {
			return s
		}
	}
	return nil
}

// selectSkill adds a skill to the chain: records it as selected, appends its
// explanation, merges its tool_policy.deny_until (first-wins on key
// collision, per spec.md §9's open-question resolution), and unions its
// provides into the satisfied set.
func (r *resolution) selectSkill(cap string, s *skill.Skill) {
	r.selected[s.Name] = true
	r.order = append(r.order, s)
	r.explanations[s.Name] = Explanation{
		Skill:    s.Name,
		Reason:   fmt.Sprintf("Provides %q", cap),
		Provides: s.Provides,
		Requires: s.Requires,
	}
	for intent, rule := range s.ToolPolicy.DenyUntil {
		if _, exists := r.blockedIntents[intent]; !exists {
			r.blockedIntents[intent] = BlockedIntent{Until: rule.Until, Reason: rule.Reason}
		}
	}
	for _, p := range s.Provides {
		r.satisfied[p] = true
	}
}
