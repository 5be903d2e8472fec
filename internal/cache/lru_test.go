package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int64, string](2, 0)
	c.Set(1, "a")
	c.Set(2, "b")
	_, _ = c.Get(1)
	c.Set(3, "c")

	_, ok := c.Get(2)
	assert.False(t, ok, "2 should have been evicted")
	v, ok := c.Get(1)
	assert.True(t, ok)
	assert.Equal(t, "a", v)
	assert.Equal(t, 2, c.Size())
}

func TestLRUCacheTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string, int](10, time.Minute)
	c.now = clock.now

	c.Set("x", 1)
	c.Set("y", 2)
	clock.t = clock.t.Add(30 * time.Second)
	c.Set("y", 3)

	clock.t = clock.t.Add(45 * time.Second)
	_, ok := c.Get("x")
	assert.False(t, ok, "x expired")
	v, ok := c.Get("y")
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	clock.t = clock.t.Add(time.Hour)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Zero(t, c.Size())

	hits, misses := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestLRUCacheDeleteAndPurge(t *testing.T) {
	c := NewLRUCache[int64, string](10, 0)
	c.Set(1, "a")
	c.Set(2, "b")
	c.Delete(1)
	_, ok := c.Get(1)
	assert.False(t, ok)

	c.Purge()
	assert.Zero(t, c.Size())
	c.Set(3, "c")
	assert.Equal(t, 1, c.Size())
}

func TestManagerRunStopsWithContext(t *testing.T) {
	c := NewLRUCache[int64, string](10, time.Nanosecond)
	c.Set(1, "a")

	m := NewManager(nil)
	m.Register(c)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, time.Millisecond) }()

	assert.Eventually(t, func() bool { return c.Size() == 0 }, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("manager did not stop")
	}
}
