// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Key namespaces.
const (
	NamespaceProducts   = "products:"
	NamespaceCategories = "categories:"
	NamespaceBanners    = "banners:"
	NamespacePages      = "pages:"
	NamespaceSitemap    = "sitemap:"
)

// Manager owns the cache backend and groups invalidation by domain.
type Manager struct {
	backend     Cacher
	backendType string
	fallback    bool
	ttl         time.Duration
}

// NewManager wraps an existing backend.
func NewManager(backend Cacher, backendType string, ttl time.Duration) *Manager {
	return &Manager{backend: backend, backendType: backendType, ttl: ttl}
}

// NewManagerFromConfig creates the backend described by cfg. Redis failures
// fall back to memory when cfg.FallbackToMemory is set.
func NewManagerFromConfig(cfg Config) (*Manager, error) {
	res, err := NewCacheWithInfo(cfg)
	if err != nil {
		return nil, err
	}
	m := NewManager(res.Cache, res.BackendType, cfg.DefaultTTL)
	m.fallback = res.IsFallback
	return m, nil
}

// For returns a typed view of the manager's backend under namespace.
func For[T any](m *Manager, namespace string) *TypedCache[T] {
	return NewTypedCache[T](m.backend, namespace, m.ttl)
}

// Backend returns the underlying cache.
func (m *Manager) Backend() Cacher {
	return m.backend
}

// IsFallback reports whether Redis was configured but unavailable.
func (m *Manager) IsFallback() bool {
	return m.fallback
}

// InvalidateCatalog drops cached product, category and sitemap entries.
func (m *Manager) InvalidateCatalog(ctx context.Context) {
	m.invalidate(ctx, NamespaceProducts, NamespaceCategories, NamespaceSitemap)
}

// InvalidateBanners drops cached banner lists.
func (m *Manager) InvalidateBanners(ctx context.Context) {
	m.invalidate(ctx, NamespaceBanners)
}

// InvalidatePages drops cached pages and the sitemap.
func (m *Manager) InvalidatePages(ctx context.Context) {
	m.invalidate(ctx, NamespacePages, NamespaceSitemap)
}

func (m *Manager) invalidate(ctx context.Context, namespaces ...string) {
	for _, ns := range namespaces {
		if err := m.backend.DeleteByPrefix(ctx, ns); err != nil {
			slog.Warn("cache invalidation failed", "namespace", ns, "error", err)
		}
	}
}

// ClearAll removes every entry and resets statistics.
func (m *Manager) ClearAll(ctx context.Context) error {
	if err := m.backend.Clear(ctx); err != nil {
		return err
	}
	if sp, ok := m.backend.(StatsProvider); ok {
		sp.ResetStats()
	}
	slog.Info("cache cleared", "backend", m.backendType)
	return nil
}

// Stats returns backend statistics.
func (m *Manager) Stats() Stats {
	if sp, ok := m.backend.(StatsProvider); ok {
		return sp.Stats()
	}
	return Stats{Backend: m.backendType}
}

// Ping checks the backend when it supports health checks.
func (m *Manager) Ping(ctx context.Context) error {
	if p, ok := m.backend.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases the backend.
func (m *Manager) Close() error {
	err := m.backend.Close()
	if errors.Is(err, ErrCacheClosed) {
		return nil
	}
	return err
}
