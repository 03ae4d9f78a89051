// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"
)

// BackendMemory names the in-process cache in Stats.
const BackendMemory = "memory"

// MemoryCacheOptions configures NewMemoryCache.
type MemoryCacheOptions struct {
	DefaultTTL      time.Duration
	MaxSize         int           // entry limit, 0 means unbounded
	CleanupInterval time.Duration // 0 disables the sweeper
}

type lruEntry struct {
	key     string
	value   []byte
	expires time.Time
}

// MemoryCache keeps entries in a map and evicts the least recently used
// one once MaxSize is reached.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front is most recently used
	bytes   int64
	closed  bool
	done    chan struct{}

	ttl   time.Duration
	limit int

	hits, misses, sets int64
	resetAt            *time.Time
}

// NewMemoryCache builds a MemoryCache. A positive CleanupInterval starts a
// goroutine that drops expired entries until Close.
func NewMemoryCache(opts MemoryCacheOptions) *MemoryCache {
	ttl := opts.DefaultTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c := &MemoryCache{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		done:    make(chan struct{}),
		ttl:     ttl,
		limit:   opts.MaxSize,
	}
	if opts.CleanupInterval > 0 {
		go c.sweep(opts.CleanupInterval)
	}
	return c
}

// NewSimpleMemoryCache returns an unbounded cache swept once a minute.
func NewSimpleMemoryCache(ttl time.Duration) *MemoryCache {
	return NewMemoryCache(MemoryCacheOptions{DefaultTTL: ttl, CleanupInterval: time.Minute})
}

// lookup returns the live entry for key, dropping it if it has expired.
// The caller holds mu.
func (c *MemoryCache) lookup(key string, now time.Time) *list.Element {
	el, ok := c.entries[key]
	if !ok {
		return nil
	}
	if now.After(el.Value.(*lruEntry).expires) {
		c.remove(el)
		return nil
	}
	return el
}

func (c *MemoryCache) remove(el *list.Element) {
	e := c.order.Remove(el).(*lruEntry)
	delete(c.entries, e.key)
	c.bytes -= int64(len(e.value))
}

// Get returns a copy of the stored value.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrCacheClosed
	}
	el := c.lookup(key, time.Now())
	if el == nil {
		c.misses++
		return nil, ErrCacheMiss
	}
	c.hits++
	c.order.MoveToFront(el)
	return append([]byte(nil), el.Value.(*lruEntry).value...), nil
}

// Set stores a copy of value. A zero ttl uses the default.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	stored := append([]byte(nil), value...)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	c.sets++
	expires := time.Now().Add(ttl)

	if el, ok := c.entries[key]; ok {
		e := el.Value.(*lruEntry)
		c.bytes += int64(len(stored) - len(e.value))
		e.value, e.expires = stored, expires
		c.order.MoveToFront(el)
		return nil
	}

	c.entries[key] = c.order.PushFront(&lruEntry{key: key, value: stored, expires: expires})
	c.bytes += int64(len(stored))
	for c.limit > 0 && len(c.entries) > c.limit {
		c.remove(c.order.Back())
	}
	return nil
}

// Delete removes key if present.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	if el, ok := c.entries[key]; ok {
		c.remove(el)
	}
	return nil
}

// DeleteByPrefix removes every key starting with prefix.
func (c *MemoryCache) DeleteByPrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	for key, el := range c.entries {
		if strings.HasPrefix(key, prefix) {
			c.remove(el)
		}
	}
	return nil
}

// Clear drops all entries.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	c.entries = make(map[string]*list.Element)
	c.order.Init()
	c.bytes = 0
	return nil
}

// Has reports whether key holds a live entry. It does not touch recency.
func (c *MemoryCache) Has(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, ErrCacheClosed
	}
	return c.lookup(key, time.Now()) != nil, nil
}

// Close stops the sweeper. Later calls return ErrCacheClosed, except Close.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
	return nil
}

func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Backend: BackendMemory,
		Hits:    c.hits,
		Misses:  c.misses,
		Sets:    c.sets,
		Items:   len(c.entries),
		HitRate: hitRate(c.hits, c.misses),
		Size:    c.bytes,
		ResetAt: c.resetAt,
	}
}

func (c *MemoryCache) ResetStats() {
	now := time.Now()
	c.mu.Lock()
	c.hits, c.misses, c.sets = 0, 0, 0
	c.resetAt = &now
	c.mu.Unlock()
}

// purgeExpired walks from the least recently used end and drops dead entries.
func (c *MemoryCache) purgeExpired() int {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if now.After(el.Value.(*lruEntry).expires) {
			c.remove(el)
			n++
		}
		el = prev
	}
	return n
}

func (c *MemoryCache) sweep(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-t.C:
			c.purgeExpired()
		}
	}
}

var (
	_ Cacher        = (*MemoryCache)(nil)
	_ StatsProvider = (*MemoryCache)(nil)
)
