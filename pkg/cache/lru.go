// Package cache serves repeated dashboard reads from memory so a burst of
// clients does not re-run the aggregation queries on every request.
package cache

import (
	"sync"
	"time"
)

const defaultTTL = 30 * time.Second

type cachedBody struct {
	data     []byte
	deadline time.Time
	storedAt time.Time
}

// LRUCache holds rendered response bodies keyed by request URI. Entries
// expire after the TTL and are dropped lazily on read; when the cache is
// full the entry stored longest ago is evicted.
type LRUCache struct {
	mu      sync.RWMutex
	entries map[string]*cachedBody
	maxSize int
	ttl     time.Duration
}

// NewLRUCache creates a cache holding at most maxSize bodies for ttl each.
// Non-positive arguments fall back to a single slot and the default TTL.
func NewLRUCache(maxSize int, ttl time.Duration) *LRUCache {
	if maxSize < 1 {
		maxSize = 1
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &LRUCache{
		entries: make(map[string]*cachedBody, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Get returns the body stored under key, or (nil, false) when the key is
// absent or past its deadline. An expired entry is removed on the spot.
func (c *LRUCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.deadline) {
		delete(c.entries, key)
		return nil, false
	}
	return e.data, true
}

// Set stores a body under key, evicting the oldest entry when at capacity.
// Overwriting an existing key resets its deadline without evicting.
func (c *LRUCache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[key] = &cachedBody{
		data:     data,
		deadline: now.Add(c.ttl),
		storedAt: now,
	}
}

// Invalidate drops a single key.
func (c *LRUCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// InvalidateAll drops every entry. Called after any mutating request so the
// next dashboard read reflects the write.
func (c *LRUCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cachedBody, c.maxSize)
}

// Size reports the number of stored entries, expired ones included until a
// Get touches them.
func (c *LRUCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// evictOldest removes the entry with the earliest storedAt. Caller holds mu.
func (c *LRUCache) evictOldest() {
	oldestKey := ""
	for k, e := range c.entries {
		if oldestKey == "" || e.storedAt.Before(c.entries[oldestKey].storedAt) {
			oldestKey = k
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
