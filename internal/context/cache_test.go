package ctxengine_test

import (
	"fmt"
	"testing"
	"time"

	ctxengine "github.com/braidhq/braid/internal/context"
)

func TestWindowCache_GetPut(t *testing.T) {
	t.Parallel()

	c := ctxengine.NewWindowCache(10, time.Minute)

	if _, ok := c.Get("qwen3:14b"); ok {
		t.Fatal("Get on empty cache returned a hit")
	}

	c.Put("qwen3:14b", 32768)
	got, ok := c.Get("qwen3:14b")
	if !ok || got != 32768 {
		t.Errorf("Get = (%d, %v), want (32768, true)", got, ok)
	}
}

func TestWindowCache_MaxEntries(t *testing.T) {
	t.Parallel()

	c := ctxengine.NewWindowCache(ctxengine.MaxCacheEntries, time.Minute)

	for i := 0; i < 25; i++ {
		c.Put(fmt.Sprintf("model-%d", i), 4096+i)
	}

	if c.Len() > ctxengine.MaxCacheEntries {
		t.Errorf("Len() = %d, want <= %d", c.Len(), ctxengine.MaxCacheEntries)
	}
}

func TestWindowCache_FIFOEviction(t *testing.T) {
	t.Parallel()

	c := ctxengine.NewWindowCache(3, time.Minute)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	// Reading "a" must not protect it: eviction is insertion-order,
	// not least-recently-used.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a to be cached")
	}

	c.Put("d", 4)

	if _, ok := c.Get("a"); ok {
		t.Error("a should have been evicted (oldest insertion)")
	}
	for _, model := range []string{"b", "c", "d"} {
		if _, ok := c.Get(model); !ok {
			t.Errorf("%s should still be cached", model)
		}
	}
}

func TestWindowCache_RefreshKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	c := ctxengine.NewWindowCache(2, time.Minute)
	c.Put("a", 1)
	c.Put("b", 2)

	// Refreshing "a" updates its value but not its insertion position.
	c.Put("a", 10)
	c.Put("c", 3)

	if _, ok := c.Get("a"); ok {
		t.Error("a should have been evicted despite the refresh")
	}
	if got, ok := c.Get("c"); !ok || got != 3 {
		t.Errorf("Get(c) = (%d, %v), want (3, true)", got, ok)
	}
}

func TestWindowCache_TTLExpiry(t *testing.T) {
	t.Parallel()

	c := ctxengine.NewWindowCache(10, 10*time.Minute)
	now := time.Now()
	c.SetNow(func() time.Time { return now })

	c.Put("model", 8192)

	now = now.Add(9 * time.Minute)
	if _, ok := c.Get("model"); !ok {
		t.Error("entry expired before TTL")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("model"); ok {
		t.Error("entry still valid after TTL")
	}

	// Stale entries are overwritten, not purged: a re-Put refreshes.
	c.Put("model", 8192)
	if _, ok := c.Get("model"); !ok {
		t.Error("refreshed entry should be valid again")
	}
}

func TestWindowCache_Clear(t *testing.T) {
	t.Parallel()

	c := ctxengine.NewWindowCache(10, time.Minute)
	c.Put("a", 1)
	c.Put("b", 2)

	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("Get after Clear returned a hit")
	}
}
