package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

type memoryCache struct {
	mu    sync.RWMutex
	items map[string]entry
	now   func() time.Time
}

// NewMemory returns a process-local cache. Expired entries are dropped lazily.
func NewMemory() Cache {
	return &memoryCache{items: make(map[string]entry), now: time.Now}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrMiss
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, ErrMiss
	}
	return e.value, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.items[key] = e
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.items, k)
	}
	c.mu.Unlock()
	return nil
}
