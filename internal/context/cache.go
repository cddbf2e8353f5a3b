package ctxengine

import (
	"sync"
	"time"
)

// windowCacheEntry is a cached context-window value for one model.
type windowCacheEntry struct {
	window   int
	storedAt time.Time
}

// WindowCache caches resolved context windows per model name.
//
// Eviction is insertion-order (FIFO), not least-recently-used: when the
// cache is full, the entry inserted earliest is evicted regardless of how
// recently it was read. Refreshing an existing key updates its value and
// timestamp but keeps its insertion position. Expired entries are not
// purged eagerly; they simply stop being returned and are overwritten by
// the next resolution.
//
// The cache is safe for concurrent use, but concurrent lookups for the
// same uncached model are not deduplicated: both callers will miss and
// both will resolve. The results are idempotent, so this costs a
// duplicate introspection call, nothing more.
type WindowCache struct {
	mu      sync.Mutex
	max     int
	ttl     time.Duration
	entries map[string]windowCacheEntry
	order   []string

	// now is overridable for tests.
	now func() time.Time
}

// NewWindowCache creates a cache holding at most max entries, each valid
// for ttl after insertion or refresh. Non-positive max or ttl fall back
// to MaxCacheEntries and CacheTTL.
func NewWindowCache(max int, ttl time.Duration) *WindowCache {
	if max <= 0 {
		max = MaxCacheEntries
	}
	if ttl <= 0 {
		ttl = CacheTTL
	}
	return &WindowCache{
		max:     max,
		ttl:     ttl,
		entries: make(map[string]windowCacheEntry),
		now:     time.Now,
	}
}

// SetNow overrides the cache's clock. Intended for tests.
func (c *WindowCache) SetNow(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Get returns the cached window for model, if present and not expired.
func (c *WindowCache) Get(model string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[model]
	if !ok {
		return 0, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		return 0, false
	}
	return e.window, true
}

// Put stores or refreshes the window for model, evicting the oldest
// inserted entry if the cache is full.
func (c *WindowCache) Put(model string, window int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[model]; exists {
		c.entries[model] = windowCacheEntry{window: window, storedAt: c.now()}
		return
	}

	if len(c.entries) >= c.max && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[model] = windowCacheEntry{window: window, storedAt: c.now()}
	c.order = append(c.order, model)
}

// Len returns the number of entries currently held, expired or not.
func (c *WindowCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear empties the cache. Intended for test isolation.
func (c *WindowCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]windowCacheEntry)
	c.order = nil
}
