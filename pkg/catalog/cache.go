package catalog

import (
	"sync"

	"github.com/vanderheijden86/chainkeeper/pkg/profile"
	"github.com/vanderheijden86/chainkeeper/pkg/resolver"
	"github.com/vanderheijden86/chainkeeper/pkg/skill"
)

// ResolveCache memoizes Resolve results per profile name, so repeated
// Activate/Check calls against an unchanged catalog skip re-running the
// resolver. It is invalidated wholesale (not per profile) on any catalog
// file change: a changed skills.yaml can alter any profile's chain, so a
// targeted invalidation would risk serving a stale chain for an
// unrelated-looking profile.
type ResolveCache struct {
	mu      sync.Mutex
	entries map[string]*resolver.Result
}

// NewResolveCache returns an empty cache.
func NewResolveCache() *ResolveCache {
	return &ResolveCache{entries: make(map[string]*resolver.Result)}
}

// Resolve returns the memoized Result for p, computing and storing it via
// resolver.Resolve on first request.
func (c *ResolveCache) Resolve(p *profile.Profile, skills []*skill.Skill, opts resolver.Options) (*resolver.Result, error) {
	c.mu.Lock()
	if cached, ok := c.entries[p.Name]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	result, err := resolver.Resolve(p, skills, opts)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[p.Name] = result
	c.mu.Unlock()
	return result, nil
}

// Invalidate wipes every memoized entry. Called by the catalog file
// watcher (internal/watch) whenever skills.yaml or profiles.yaml changes.
func (c *ResolveCache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]*resolver.Result)
	c.mu.Unlock()
}

// Len reports the number of memoized entries.
func (c *ResolveCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
