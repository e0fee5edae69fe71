// Package matcher selects a profile for an incoming prompt, the external
// collaborator the Enforcement Gate invokes during auto-activation
// (spec.md §4.5 step 1). Matcher is a pluggable interface so deployments
// can swap in an embedding-backed or model-driven strategy; KeywordMatcher
// is the default.
package matcher

import (
	"regexp"
	"sort"
	"strings"

	"github.com/vanderheijden86/chainkeeper/pkg/profile"
)

// Matcher chooses the best-fit profile for prompt, or reports none found.
type Matcher interface {
	Match(prompt string, profiles []*profile.Profile) (*profile.Profile, bool)
}

// KeywordMatcher matches a prompt against each profile's Match patterns.
// Patterns are treated as case-insensitive regular expressions; a plain
// word degrades to a literal substring match. Ties are broken by the
// highest Priority, then by profile name.
type KeywordMatcher struct {
	cache map[string]*regexp.Regexp
}

// NewKeywordMatcher returns a ready-to-use KeywordMatcher.
func NewKeywordMatcher() *KeywordMatcher {
	return &KeywordMatcher{cache: make(map[string]*regexp.Regexp)}
}

// Match implements Matcher.
func (m *KeywordMatcher) Match(prompt string, profiles []*profile.Profile) (*profile.Profile, bool) {
	var candidates []*profile.Profile
	for _, p := range profiles {
		if m.matches(prompt, p) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		return candidates[i].Name < candidates[j].Name
	})
	return candidates[0], true
}

func (m *KeywordMatcher) matches(prompt string, p *profile.Profile) bool {
	for _, pattern := range p.Match {
		re := m.compile(pattern)
		if re != nil {
			if re.MatchString(prompt) {
				return true
			}
			continue
		}
		if strings.Contains(strings.ToLower(prompt), strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// compile returns a cached case-insensitive regexp for pattern, or nil if
// pattern is not a valid regular expression (in which case the caller
// falls back to a literal substring match).
func (m *KeywordMatcher) compile(pattern string) *regexp.Regexp {
	if re, ok := m.cache[pattern]; ok {
		return re
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		m.cache[pattern] = nil
		return nil
	}
	m.cache[pattern] = re
	return re
}
