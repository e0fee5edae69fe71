package matcher

import (
	"testing"

	"github.com/vanderheijden86/chainkeeper/pkg/profile"
)

func TestMatchReturnsFalseOnNoCandidates(t *testing.T) {
	m := NewKeywordMatcher()
	profiles := []*profile.Profile{
		{Name: "deploy", Match: []string{"deploy", "release"}},
	}
	got, ok := m.Match("please review this pull request", profiles)
	if ok || got != nil {
		t.Fatalf("expected no match, got %+v", got)
	}
}

func TestMatchFindsLiteralSubstring(t *testing.T) {
	m := NewKeywordMatcher()
	profiles := []*profile.Profile{
		{Name: "deploy", Match: []string{"deploy"}},
	}
	got, ok := m.Match("let's deploy to staging", profiles)
	if !ok || got == nil || got.Name != "deploy" {
		t.Fatalf("expected deploy match, got %+v ok=%v", got, ok)
	}
}

func TestMatchIsCaseInsensitive(t *testing.T) {
	m := NewKeywordMatcher()
	profiles := []*profile.Profile{
		{Name: "deploy", Match: []string{"Deploy"}},
	}
	got, ok := m.Match("DEPLOY now", profiles)
	if !ok || got == nil {
		t.Fatalf("expected case-insensitive match")
	}
}

func TestMatchUsesRegexPatterns(t *testing.T) {
	m := NewKeywordMatcher()
	profiles := []*profile.Profile{
		{Name: "ship", Match: []string{"ship (it|this|that)"}},
	}
	if _, ok := m.Match("let's ship this feature", profiles); !ok {
		t.Fatalf("expected regex pattern to match")
	}
	if _, ok := m.Match("let's ship nothing here", profiles); ok {
		t.Fatalf("expected regex pattern not to match unrelated text")
	}
}

func TestMatchInvalidRegexFallsBackToLiteral(t *testing.T) {
	m := NewKeywordMatcher()
	profiles := []*profile.Profile{
		{Name: "broken", Match: []string{"ship("}}, // unbalanced paren: invalid regex
	}
	got, ok := m.Match("time to ship( this", profiles)
	if !ok || got == nil {
		t.Fatalf("expected literal substring fallback to match, got ok=%v", ok)
	}
}

func TestMatchBreaksTiesByPriorityThenName(t *testing.T) {
	m := NewKeywordMatcher()
	profiles := []*profile.Profile{
		{Name: "zebra", Match: []string{"ship"}, Priority: 1},
		{Name: "alpha", Match: []string{"ship"}, Priority: 5},
		{Name: "beta", Match: []string{"ship"}, Priority: 5},
	}
	got, ok := m.Match("ship it", profiles)
	if !ok || got == nil || got.Name != "alpha" {
		t.Fatalf("expected highest-priority, alphabetically-first profile 'alpha', got %+v", got)
	}
}

func TestMatchCachesCompiledPatterns(t *testing.T) {
	m := NewKeywordMatcher()
	profiles := []*profile.Profile{
		{Name: "ship", Match: []string{"ship.*feature"}},
	}
	m.Match("ship the feature", profiles)
	if _, ok := m.cache["ship.*feature"]; !ok {
		t.Fatalf("expected pattern to be cached after first match")
	}
	// second call should reuse the cached regex without recompiling
	if _, ok := m.Match("ship another feature", profiles); !ok {
		t.Fatalf("expected cached pattern to still match")
	}
}
