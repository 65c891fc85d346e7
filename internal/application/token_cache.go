package application

import (
	"sync"
	"time"
)

// tokenCache holds issued login tokens in memory. Tokens expire after a TTL
// and every restart starts from an empty cache.
type tokenCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]tokenCacheEntry
}

type tokenCacheEntry struct {
	principal Principal
	expiresAt time.Time
}

func newTokenCache(ttl time.Duration, maxEntries int, now func() time.Time) *tokenCache {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	if now == nil {
		now = time.Now
	}
	return &tokenCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]tokenCacheEntry),
	}
}

func (c *tokenCache) Get(token string) (Principal, bool) {
	if c == nil {
		return Principal{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[token]
	c.mu.RUnlock()
	if !ok {
		return Principal{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, token)
		c.mu.Unlock()
		return Principal{}, false
	}
	return entry.principal, true
}

func (c *tokenCache) Store(token string, principal Principal) {
	if c == nil {
		return
	}
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[token] = tokenCacheEntry{principal: principal, expiresAt: expiry}
}

func (c *tokenCache) Delete(token string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, token)
	c.mu.Unlock()
}

func (c *tokenCache) cleanupLocked() {
	now := c.now()
	for token, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, token)
		}
	}
}

func (c *tokenCache) evictOneLocked() {
	for token := range c.entries {
		delete(c.entries, token)
		return
	}
}
