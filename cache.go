package sidekick

import (
	"sync"
	"time"
)

// Expiry is the lifetime class of a cache entry.
type Expiry int

const (
	// ExpiryNone entries are never stored, setting one drops the key.
	ExpiryNone Expiry = iota
	// ExpiryShort entries last for a few minutes: listings and exchange rates.
	ExpiryShort
	// ExpiryLong entries last for a day: identifier to profile mappings.
	ExpiryLong
)

// Duration returns the lifetime of entries of that class.
func (e Expiry) Duration() time.Duration {
	switch e {
	case ExpiryShort:
		return 5 * time.Minute
	case ExpiryLong:
		return 24 * time.Hour
	default:
		return 0
	}
}

// Cache is a key-value store with per-entry expiry, shared by the services of a
// run. Implementations must be safe for concurrent use.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, expiry Expiry)
	// Purge drops every entry.
	Purge()
}

type cacheEntry struct {
	value   any
	expires time.Time
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]cacheEntry), now: time.Now}
}

func (c *MemoryCache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(e.expires) {
		c.mu.Lock()
		// re-check, another writer may have refreshed it
		if e2, ok := c.entries[key]; ok && c.now().After(e2.expires) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

func (c *MemoryCache) Set(key string, value any, expiry Expiry) {
	d := expiry.Duration()
	c.mu.Lock()
	defer c.mu.Unlock()
	if d <= 0 {
		delete(c.entries, key)
		return
	}
	c.entries[key] = cacheEntry{value: value, expires: c.now().Add(d)}
}

func (c *MemoryCache) Purge() {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
}

// NoCache is a Cache that stores nothing.
type NoCache struct{}

func (NoCache) Get(string) (any, bool)  { return nil, false }
func (NoCache) Set(string, any, Expiry) {}
func (NoCache) Purge()                  {}
