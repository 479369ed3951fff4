package cache

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryCache is a bounded in-process Cache.
type MemoryCache struct {
	entries *lru.Cache[string, *Entry]
}

// NewMemoryCache creates an LRU cache holding at most size entries.
func NewMemoryCache(size int) (*MemoryCache, error) {
	if size <= 0 {
		size = 256
	}
	entries, err := lru.New[string, *Entry](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &MemoryCache{entries: entries}, nil
}

// Get retrieves a cache entry by key.
func (c *MemoryCache) Get(_ context.Context, key Key) (*Entry, error) {
	cacheKey := key.String()
	entry, ok := c.entries.Get(cacheKey)
	if !ok {
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}
	if entry.IsExpired() {
		c.entries.Remove(cacheKey)
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}
	CacheHits.WithLabelValues("memory").Inc()
	return entry, nil
}

// Set stores a cache entry unless it is already expired.
func (c *MemoryCache) Set(_ context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}
	if entry.TTL() <= 0 {
		return nil
	}
	c.entries.Add(key.String(), entry)
	return nil
}

// Delete removes a cache entry.
func (c *MemoryCache) Delete(_ context.Context, key Key) error {
	c.entries.Remove(key.String())
	return nil
}

// Len returns the number of cached entries, expired ones included.
func (c *MemoryCache) Len() int {
	return c.entries.Len()
}

// Layered reads through an L1 cache into an L2 cache and back-fills L1 on L2 hits.
type Layered struct {
	l1 Cache
	l2 Cache
}

// NewLayered stacks l1 in front of l2.
func NewLayered(l1, l2 Cache) *Layered {
	return &Layered{l1: l1, l2: l2}
}

// Get checks L1, then L2.
func (c *Layered) Get(ctx context.Context, key Key) (*Entry, error) {
	entry, err := c.l1.Get(ctx, key)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		return nil, err
	}

	entry, err = c.l2.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := c.l1.Set(ctx, key, entry); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
	}
	return entry, nil
}

// Set writes both layers.
func (c *Layered) Set(ctx context.Context, key Key, entry *Entry) error {
	if err := c.l1.Set(ctx, key, entry); err != nil {
		return err
	}
	return c.l2.Set(ctx, key, entry)
}

// Delete removes the key from both layers.
func (c *Layered) Delete(ctx context.Context, key Key) error {
	if err := c.l1.Delete(ctx, key); err != nil {
		return err
	}
	return c.l2.Delete(ctx, key)
}
