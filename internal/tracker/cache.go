package tracker

import (
	"sync"
	"time"
)

// tokenCache is a bounded, time-expiring cache for short-lived tracker
// tokens, keyed by credential scope. It exists only to avoid re-minting
// installation tokens on every turn; entries expire well before the tokens
// they hold do.
type tokenCache struct {
	mu      sync.Mutex
	max     int
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	value   string
	expires time.Time
}

func newTokenCache(max int, ttl time.Duration) *tokenCache {
	return &tokenCache{
		max:     max,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *tokenCache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || c.now().After(e.expires) {
		delete(c.entries, key)
		return "", false
	}
	return e.value, true
}

func (c *tokenCache) put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.max {
		c.evictLocked()
	}
	c.entries[key] = cacheEntry{value: value, expires: c.now().Add(c.ttl)}
}

// evictLocked drops expired entries, then the soonest-to-expire one if the
// cache is still full.
func (c *tokenCache) evictLocked() {
	now := c.now()
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
		}
	}
	if len(c.entries) < c.max {
		return
	}
	var victim string
	var soonest time.Time
	for k, e := range c.entries {
		if victim == "" || e.expires.Before(soonest) {
			victim = k
			soonest = e.expires
		}
	}
	delete(c.entries, victim)
}
