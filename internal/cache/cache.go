// Package cache provides the TTL key/value cache that decouples decision
// logic from raw provider latency. TTLs are per key class, not global:
// market-data snapshots age out quickly while token metadata lives longer.
package cache

import (
	"sync"
	"time"
)

// Default TTLs per key class.
const (
	MarketDataTTL = 60 * time.Second
	MetadataTTL   = 300 * time.Second
)

type entry[T any] struct {
	value    T
	storedAt time.Time
	expireAt time.Time
}

func (e entry[T]) expired(now time.Time) bool {
	return now.After(e.expireAt)
}

// Cache is a concurrency-safe TTL cache. Reads evict lazily: a Get past the
// entry's expiry removes it and reports a miss.
type Cache[T any] struct {
	mu    sync.RWMutex
	data  map[string]entry[T]
	nowFn func() time.Time
}

func New[T any]() *Cache[T] {
	return &Cache[T]{
		data:  make(map[string]entry[T]),
		nowFn: time.Now,
	}
}

// Set stores value under key for ttl. A non-positive ttl stores nothing,
// so callers cannot accidentally pin a value forever.
func (c *Cache[T]) Set(key string, value T, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	now := c.nowFn()
	c.mu.Lock()
	c.data[key] = entry[T]{value: value, storedAt: now, expireAt: now.Add(ttl)}
	c.mu.Unlock()
}

// Get returns the cached value and true, or the zero value and false when the
// key is absent or past its expiry. Expired entries are evicted on read.
func (c *Cache[T]) Get(key string) (T, bool) {
	now := c.nowFn()
	c.mu.RLock()
	e, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		var zero T
		return zero, false
	}
	if e.expired(now) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it.
		if cur, still := c.data[key]; still && cur.expired(now) {
			delete(c.data, key)
		}
		c.mu.Unlock()
		var zero T
		return zero, false
	}
	return e.value, true
}

// Age reports how long ago the entry for key was stored. The second return
// is false when the key is absent or expired.
func (c *Cache[T]) Age(key string) (time.Duration, bool) {
	now := c.nowFn()
	c.mu.RLock()
	e, ok := c.data[key]
	c.mu.RUnlock()
	if !ok || e.expired(now) {
		return 0, false
	}
	return now.Sub(e.storedAt), true
}

// Delete removes key if present.
func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	delete(c.data, key)
	c.mu.Unlock()
}

// Len counts live (unexpired) entries.
func (c *Cache[T]) Len() int {
	now := c.nowFn()
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, e := range c.data {
		if !e.expired(now) {
			n++
		}
	}
	return n
}
