// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/olegiv/ocms-shop/internal/cache"
	"github.com/olegiv/ocms-shop/internal/seo"
	"github.com/olegiv/ocms-shop/internal/store"
)

const sitemapCacheKey = "xml"

// SEOHandler serves /sitemap.xml and /robots.txt for the storefront.
type SEOHandler struct {
	queries     *store.Queries
	siteURL     string
	disallowAll bool
	cache       *cache.TypedCache[string]
}

// NewSEOHandler creates a new SEO handler. disallowAll blocks crawlers,
// for staging deployments.
func NewSEOHandler(db *sql.DB, cm *cache.Manager, siteURL string, disallowAll bool) *SEOHandler {
	h := &SEOHandler{
		queries:     store.New(db),
		siteURL:     siteURL,
		disallowAll: disallowAll,
	}
	if cm != nil {
		h.cache = cache.For[string](cm, cache.NamespaceSitemap)
	}
	return h
}

// Sitemap handles GET /sitemap.xml.
func (h *SEOHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.cache != nil {
		if cached, ok := h.cache.Get(ctx, sitemapCacheKey); ok {
			writeSitemap(w, []byte(*cached))
			return
		}
	}

	data, err := h.buildSitemap(ctx)
	if err != nil {
		slog.Error("failed to build sitemap", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if h.cache != nil {
		s := string(data)
		if err := h.cache.Set(ctx, sitemapCacheKey, &s); err != nil {
			slog.Warn("failed to cache sitemap", "error", err)
		}
	}
	writeSitemap(w, data)
}

func writeSitemap(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(data)
}

func (h *SEOHandler) buildSitemap(ctx context.Context) ([]byte, error) {
	pages, err := h.queries.ListPages(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	categories, err := h.queries.ListActiveCategoriesWithCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	products, err := h.queries.ListProducts(ctx, store.ProductFilter{Sort: store.ProductSortName})
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	entries := make([]seo.Entry, 0, len(pages)+len(categories)+len(products))
	for _, p := range pages {
		entries = append(entries, seo.Entry{Kind: seo.KindPage, Slug: p.Slug, UpdatedAt: p.UpdatedAt})
	}
	for _, c := range categories {
		entries = append(entries, seo.Entry{Kind: seo.KindCategory, Slug: c.Slug, UpdatedAt: c.UpdatedAt})
	}
	for _, p := range products {
		entries = append(entries, seo.Entry{Kind: seo.KindProduct, Slug: p.Slug, UpdatedAt: p.UpdatedAt})
	}
	return seo.Sitemap(h.siteURL, entries)
}

// Robots handles GET /robots.txt.
func (h *SEOHandler) Robots(w http.ResponseWriter, _ *http.Request) {
	content := seo.Robots(h.siteURL, h.disallowAll)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write([]byte(content))
}
