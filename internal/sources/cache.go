package sources

import (
	"sync"
	"time"

	"research-assistant/internal/domain"
)

type cacheEntry struct {
	papers    []domain.Paper
	expiresAt time.Time
}

// Cache is an in-memory TTL cache for search results. It keeps repeated
// queries from hitting the upstream APIs.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	maxSize int
	ttl     time.Duration
}

// NewCache creates a cache holding at most maxSize entries for ttl each.
func NewCache(maxSize int, ttl time.Duration) *Cache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Cache{
		entries: make(map[string]cacheEntry),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Get returns the cached result for key, if present and fresh.
func (c *Cache) Get(key string) ([]domain.Paper, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.papers, true
}

// Set stores a result under key, evicting expired entries when full.
func (c *Cache) Set(key string, papers []domain.Paper) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxSize {
		now := time.Now()
		for k, e := range c.entries {
			if now.After(e.expiresAt) {
				delete(c.entries, k)
			}
		}
		// Still full of fresh entries: drop one arbitrarily.
		if len(c.entries) >= c.maxSize {
			for k := range c.entries {
				delete(c.entries, k)
				break
			}
		}
	}

	c.entries[key] = cacheEntry{
		papers:    papers,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Len reports the number of entries currently held.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
