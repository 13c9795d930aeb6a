// Package cache provides a small in-process TTL cache for read-heavy
// endpoints that can tolerate slightly stale data, such as the trainer
// directory and the admin dashboard counters.
package cache

import (
	"sync"
	"time"
)

type item struct {
	val       any
	expiresAt time.Time
}

type Cache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[string]item
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache{
		ttl:   ttl,
		items: make(map[string]item),
	}
}

// Get returns the cached value for key, or false when the key is
// missing or expired. Expired entries are dropped lazily on read.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if time.Now().After(it.expiresAt) {
		c.mu.Lock()
		// recheck under the write lock, Set may have raced us
		if cur, ok := c.items[key]; ok && time.Now().After(cur.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return it.val, true
}

func (c *Cache) Set(key string, val any) {
	c.mu.Lock()
	c.items[key] = item{val: val, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

func (c *Cache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]item)
	c.mu.Unlock()
}
