// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type testProduct struct {
	ID    int64    `json:"id"`
	Name  string   `json:"name"`
	Price string   `json:"price"`
	Sizes []string `json:"sizes"`
}

func newTestTyped(t *testing.T, namespace string) (*TypedCache[testProduct], *MemoryCache) {
	t.Helper()
	mem := newTestMemory(t, MemoryCacheOptions{DefaultTTL: time.Hour})
	return NewTypedCache[testProduct](mem, namespace, time.Hour), mem
}

func TestTypedCache_SetGetDelete(t *testing.T) {
	c, mem := newTestTyped(t, "products:")
	ctx := context.Background()

	p := &testProduct{ID: 1, Name: "Keten Elbise", Price: "899.90", Sizes: []string{"S", "M"}}
	if err := c.Set(ctx, "1", p); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, found := c.Get(ctx, "1")
	if !found {
		t.Fatal("expected to find product 1")
	}
	if got.Name != p.Name || got.Price != p.Price || len(got.Sizes) != 2 {
		t.Errorf("got %+v, want %+v", got, p)
	}

	if has, _ := mem.Has(ctx, "products:1"); !has {
		t.Error("key should be stored under the namespace")
	}

	if err := c.Delete(ctx, "1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found := c.Get(ctx, "1"); found {
		t.Error("expected product 1 to be deleted")
	}
}

func TestTypedCache_CorruptValueIsMiss(t *testing.T) {
	c, mem := newTestTyped(t, "products:")
	ctx := context.Background()

	_ = mem.Set(ctx, "products:bad", []byte("{not json"), 0)
	if _, found := c.Get(ctx, "bad"); found {
		t.Error("undecodable value should be treated as a miss")
	}
}

func TestTypedCache_GetOrSet(t *testing.T) {
	c, _ := newTestTyped(t, "products:")
	ctx := context.Background()

	calls := 0
	load := func() (*testProduct, error) {
		calls++
		return &testProduct{ID: 7, Name: "Şal"}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := c.GetOrSet(ctx, "7", load)
		if err != nil {
			t.Fatalf("GetOrSet failed: %v", err)
		}
		if got.Name != "Şal" {
			t.Errorf("Name = %q", got.Name)
		}
	}
	if calls != 1 {
		t.Errorf("loader called %d times, want 1", calls)
	}
}

func TestTypedCache_GetOrSetError(t *testing.T) {
	c, _ := newTestTyped(t, "products:")
	ctx := context.Background()

	wantErr := errors.New("db down")
	_, err := c.GetOrSet(ctx, "x", func() (*testProduct, error) { return nil, wantErr })
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
	if _, found := c.Get(ctx, "x"); found {
		t.Error("failed loads must not be cached")
	}
}

func TestTypedCache_Invalidate(t *testing.T) {
	mem := newTestMemory(t, MemoryCacheOptions{DefaultTTL: time.Hour})
	products := NewTypedCache[testProduct](mem, "products:", time.Hour)
	pages := NewTypedCache[testProduct](mem, "pages:", time.Hour)
	ctx := context.Background()

	_ = products.Set(ctx, "a", &testProduct{ID: 1})
	_ = pages.Set(ctx, "a", &testProduct{ID: 2})

	if err := products.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	if _, found := products.Get(ctx, "a"); found {
		t.Error("products namespace should be empty")
	}
	if got, found := pages.Get(ctx, "a"); !found || got.ID != 2 {
		t.Error("pages namespace should be untouched")
	}
}

func TestTypedCache_GetOrSetSharesConcurrentLoads(t *testing.T) {
	c, _ := newTestTyped(t, "products:")
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})
	load := func() (*testProduct, error) {
		calls.Add(1)
		<-release
		return &testProduct{ID: 9}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got, err := c.GetOrSet(ctx, "9", load); err != nil || got.ID != 9 {
				t.Errorf("GetOrSet = %+v, %v", got, err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	// Goroutines that arrive after the shared load finishes hit the cache.
	if n := calls.Load(); n != 1 {
		t.Errorf("loader called %d times, want 1", n)
	}
}
