// Package adapters provides the default implementations of the engine ports.
package adapters

import (
	"context"
	"sync"
	"time"

	ports "github.com/furiousofnight/hybrid-ide/hybrid/engine/ports"
)

type cacheEntry struct {
	value   string
	created time.Time
	expires time.Time
}

// MemoryResponseCache is a capacity-bounded response cache. Entries are
// tracked in insertion order; when full, the oldest entry is evicted. TTL is
// enforced on read.
type MemoryResponseCache struct {
	mu       sync.Mutex
	entries  map[string]*cacheEntry
	order    []string
	capacity int
	now      func() time.Time
}

func NewMemoryResponseCache(capacity int) *MemoryResponseCache {
	if capacity <= 0 {
		capacity = 50
	}
	return &MemoryResponseCache{
		entries:  make(map[string]*cacheEntry),
		capacity: capacity,
		now:      time.Now,
	}
}

func (c *MemoryResponseCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().After(entry.expires) {
		c.removeLocked(key)
		return "", false
	}
	return entry.value, true
}

func (c *MemoryResponseCache) Set(_ context.Context, key, value string, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; exists {
		c.removeLocked(key)
	}
	for len(c.entries) >= c.capacity {
		c.removeLocked(c.order[0])
	}

	c.entries[key] = &cacheEntry{
		value:   value,
		created: now,
		expires: now.Add(time.Duration(ttlSeconds) * time.Second),
	}
	c.order = append(c.order, key)
	return nil
}

func (c *MemoryResponseCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key)
	return nil
}

// Len reports the number of live entries (expired ones included until read).
func (c *MemoryResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryResponseCache) removeLocked(key string) {
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

var _ ports.ResponseCache = (*MemoryResponseCache)(nil)
