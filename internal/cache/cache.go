package cache

import (
	"context"
	"sync"
	"time"
)

// Store is what the HTTP layer caches rendered responses in.
//
// Keys are built from the current generation of a scope. Writers bump the
// generation after they commit, so a reader that loaded stale data before the
// bump can only store it under a key nobody asks for anymore.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte)
	// Generation reports false when it cannot be read; callers skip the cache then.
	Generation(ctx context.Context, scope string) (int64, bool)
	Bump(ctx context.Context, scope string)
}

// Cache lives in one process. Use it only when a single instance serves the API.
type Cache struct {
	mu   sync.RWMutex
	ttl  time.Duration
	m    map[string]entry
	gens map[string]int64
}
type entry struct {
	val []byte
	exp time.Time
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache{
		ttl:  ttl,
		m:    make(map[string]entry),
		gens: make(map[string]int64),
	}
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool) {
	now := time.Now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if now.After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false
	}

	return e.val, true
}

func (c *Cache) Set(_ context.Context, key string, val []byte) {
	now := time.Now()

	c.mu.Lock()
	// superseded generations are never read again, so drop what has expired
	for k, e := range c.m {
		if now.After(e.exp) {
			delete(c.m, k)
		}
	}
	c.m[key] = entry{val: val, exp: now.Add(c.ttl)}
	c.mu.Unlock()
}

func (c *Cache) Generation(_ context.Context, scope string) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gens[scope], true
}

func (c *Cache) Bump(_ context.Context, scope string) {
	c.mu.Lock()
	c.gens[scope]++
	c.mu.Unlock()
}
