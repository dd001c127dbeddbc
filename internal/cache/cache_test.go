package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheHitBeforeExpiry(t *testing.T) {
	c := New[int]()
	c.Set("a", 42, time.Minute)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestCacheMissAfterExpiry(t *testing.T) {
	c := New[string]()
	now := time.Now()
	c.nowFn = func() time.Time { return now }
	c.Set("k", "v", MarketDataTTL)

	now = now.Add(MarketDataTTL + time.Second)
	_, ok := c.Get("k")
	assert.False(t, ok)
	// Evicted on read, not just hidden.
	c.mu.RLock()
	_, still := c.data["k"]
	c.mu.RUnlock()
	assert.False(t, still)
}

func TestCacheNonPositiveTTLIgnored(t *testing.T) {
	c := New[int]()
	c.Set("k", 1, 0)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCacheAge(t *testing.T) {
	c := New[int]()
	now := time.Now()
	c.nowFn = func() time.Time { return now }
	c.Set("k", 7, MetadataTTL)

	now = now.Add(90 * time.Second)
	age, ok := c.Age("k")
	assert.True(t, ok)
	assert.Equal(t, 90*time.Second, age)

	_, ok = c.Age("absent")
	assert.False(t, ok)
}

func TestCacheLenSkipsExpired(t *testing.T) {
	c := New[int]()
	now := time.Now()
	c.nowFn = func() time.Time { return now }
	c.Set("short", 1, time.Second)
	c.Set("long", 2, time.Hour)
	now = now.Add(2 * time.Second)
	assert.Equal(t, 1, c.Len())
}
