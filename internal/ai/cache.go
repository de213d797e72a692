package ai

import (
	"sync"
	"time"
)

// rewriteCache keeps recent rewrites so a preview followed by a submission
// of the same text costs one model call.
type rewriteCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	max   int
	store map[string]cacheEntry
}

type cacheEntry struct {
	value string
	exp   time.Time
}

func newRewriteCache(ttl time.Duration, max int) *rewriteCache {
	return &rewriteCache{ttl: ttl, max: max, store: map[string]cacheEntry{}}
}

func (c *rewriteCache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.store[key]; ok {
		if time.Now().Before(e.exp) {
			return e.value, true
		}
		delete(c.store, key)
	}
	return "", false
}

func (c *rewriteCache) set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.store) >= c.max {
		now := time.Now()
		for k, e := range c.store {
			if now.After(e.exp) {
				delete(c.store, k)
			}
		}
		if len(c.store) >= c.max {
			c.store = map[string]cacheEntry{}
		}
	}
	c.store[key] = cacheEntry{value: value, exp: time.Now().Add(c.ttl)}
}
