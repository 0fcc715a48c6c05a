// Package cache implements the response cache keyed by item id
// (component 3's CacheEntry), backed by a bounded LRU so a high churn
// of distinct descriptors cannot grow memory without bound.
package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/reqflux/reqflux/internal/domain"
)

const defaultCapacity = 10000

// Cache stores the last successful result per item id, eligible for
// reuse only while its TTL has not expired.
type Cache struct {
	mu  sync.Mutex
	lru *lru.Cache[string, domain.CacheEntry]
	ttl time.Duration
}

// New builds a cache with the given capacity (0 uses the default) and
// TTL (cache_ttl configuration field, default 3600s).
func New(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	l, _ := lru.New[string, domain.CacheEntry](capacity)
	return &Cache{lru: l, ttl: ttl}
}

// Get returns the cached result for itemID if present and unexpired.
func (c *Cache) Get(itemID string) (domain.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lru.Get(itemID)
	if !ok {
		return domain.Result{}, false
	}
	if time.Since(entry.InsertedAt) > c.ttl {
		c.lru.Remove(itemID)
		return domain.Result{}, false
	}
	return entry.Result, true
}

// Set inserts or replaces the cached result for itemID.
func (c *Cache) Set(itemID string, result domain.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(itemID, domain.CacheEntry{Result: result, InsertedAt: time.Now()})
}

// Len returns the number of entries currently held, expired or not —
// the cache sweeper is responsible for reclaiming expired entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Sweep removes every entry whose TTL has elapsed. Run periodically by
// the orchestrator's cache-sweeper background task (every 300s).
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, key := range c.lru.Keys() {
		entry, ok := c.lru.Peek(key)
		if !ok {
			continue
		}
		if time.Since(entry.InsertedAt) > c.ttl {
			c.lru.Remove(key)
			removed++
		}
	}
	return removed
}
