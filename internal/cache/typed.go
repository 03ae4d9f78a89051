// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"
)

// TypedCache stores JSON-encoded values of T under a namespace of a Cacher.
// Concurrent GetOrSet calls for the same key share one load.
type TypedCache[T any] struct {
	backend   Cacher
	namespace string
	ttl       time.Duration
	loads     singleflight.Group
}

func NewTypedCache[T any](backend Cacher, namespace string, ttl time.Duration) *TypedCache[T] {
	return &TypedCache[T]{backend: backend, namespace: namespace, ttl: ttl}
}

// Get reports false on a miss, a backend error, or a value that no longer
// decodes into T.
func (c *TypedCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	raw, err := c.backend.Get(ctx, c.namespace+key)
	if err != nil {
		return nil, false
	}
	v := new(T)
	if json.Unmarshal(raw, v) != nil {
		return nil, false
	}
	return v, true
}

func (c *TypedCache[T]) Set(ctx context.Context, key string, v *T) error {
	return c.SetWithTTL(ctx, key, v, c.ttl)
}

func (c *TypedCache[T]) SetWithTTL(ctx context.Context, key string, v *T, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.backend.Set(ctx, c.namespace+key, raw, ttl)
}

func (c *TypedCache[T]) Delete(ctx context.Context, key string) error {
	return c.backend.Delete(ctx, c.namespace+key)
}

// Invalidate drops the whole namespace.
func (c *TypedCache[T]) Invalidate(ctx context.Context) error {
	return c.backend.DeleteByPrefix(ctx, c.namespace)
}

// GetOrSet returns the cached value or stores the result of load. A failed
// cache write does not fail the call.
func (c *TypedCache[T]) GetOrSet(ctx context.Context, key string, load func() (*T, error)) (*T, error) {
	if v, ok := c.Get(ctx, key); ok {
		return v, nil
	}
	res, err, _ := c.loads.Do(key, func() (any, error) {
		v, err := load()
		if err != nil {
			return nil, err
		}
		_ = c.SetWithTTL(ctx, key, v, c.ttl)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*T), nil
}
