package admission

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// dedupCache is the process-wide set of transaction ids currently "in
// flight" across any non-processed ticket. Ids are released only when they
// land in a finished ticket's accept/broadcast/invalid/excess buckets; an id
// recorded only in errors, or dropped silently by a handler, stays in the
// set. It is not a validity cache: membership never means "this id is
// admitted".
type dedupCache struct {
	mu  sync.Mutex
	ids mapset.Set[string]
}

func newDedupCache(capacityHint int) *dedupCache {
	return &dedupCache{ids: mapset.NewThreadUnsafeSetWithSize[string](capacityHint)}
}

func (c *dedupCache) has(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ids.Contains(id)
}

// insert is idempotent and reports whether the id was newly added.
func (c *dedupCache) insert(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ids.Add(id)
}

func (c *dedupCache) remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids.Remove(id)
}

func (c *dedupCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ids.Cardinality()
}
