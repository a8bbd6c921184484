package cache

import (
	"testing"
	"time"
)

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache[T any](size int, ttl time.Duration) (*LRUCache[T], *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, time.July, 1, 9, 0, 0, 0, time.UTC)}
	c := NewLRUCache[T](size, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUEviction(t *testing.T) {
	c, _ := newTestCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should be cached")
	}
	c.Set("c", 3) // evicts b, the least recently used

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("a = %v, %v", v, ok)
	}

	want := Stats{Entries: 2, Hits: 2, Misses: 1, Evictions: 1}
	if got := c.Stats(); got != want {
		t.Errorf("stats = %+v, want %+v", got, want)
	}
}

func TestLRUSetRefreshesExpiry(t *testing.T) {
	c, clock := newTestCache[string](4, time.Minute)
	c.Set("k", "old")
	clock.advance(50 * time.Second)
	c.Set("k", "new")
	clock.advance(50 * time.Second)

	if v, ok := c.Get("k"); !ok || v != "new" {
		t.Errorf("k = %q, %v", v, ok)
	}
	if c.Size() != 1 {
		t.Errorf("size = %d, want 1", c.Size())
	}
}

func TestLRUExpiryAndPurge(t *testing.T) {
	c, clock := newTestCache[string](10, time.Minute)
	c.Set("k", "v")
	clock.advance(time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry returned")
	}

	c.Set("k1", "v")
	c.Set("k2", "v")
	clock.advance(30 * time.Second)
	c.Set("k3", "v")
	clock.advance(45 * time.Second)

	m := NewManager()
	m.Register(c)
	if n := m.CleanNow(); n != 2 {
		t.Errorf("CleanNow removed %d entries, want 2", n)
	}
	if _, ok := c.Get("k3"); !ok {
		t.Error("k3 should still be live")
	}
	m.Stop()

	c.Purge()
	if c.Size() != 0 {
		t.Errorf("size after purge = %d", c.Size())
	}
	c.Set("x", "z")
	if v, _ := c.Get("x"); v != "z" {
		t.Errorf("cache unusable after purge, got %q", v)
	}
}

func TestManagerStartStop(t *testing.T) {
	m := NewManager()
	m.Register(NewLRUCache[int](1, time.Minute))
	m.StartCleanup(time.Millisecond)
	time.Sleep(3 * time.Millisecond)
	m.Stop()
	m.Stop()
}
