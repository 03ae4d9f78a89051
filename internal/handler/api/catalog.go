// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-shop/internal/handler"
	"github.com/olegiv/ocms-shop/internal/middleware"
	"github.com/olegiv/ocms-shop/internal/service"
	"github.com/olegiv/ocms-shop/internal/store"
)

const (
	msgProductNotFound  = "Ürün bulunamadı"
	msgCategoryNotFound = "Kategori bulunamadı"
)

// Limits of the featured and new product strips.
const (
	defaultStripLimit = 8
	maxStripLimit     = 24
)

var productSorts = map[string]bool{
	store.ProductSortNewest:    true,
	store.ProductSortPriceAsc:  true,
	store.ProductSortPriceDesc: true,
	store.ProductSortName:      true,
}

// ListCategories handles GET /api/categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.Catalog.ListCategories(r.Context())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	out := make([]CategoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryWithCountToResponse(c))
	}
	WriteSuccess(w, out, nil)
}

// GetCategory handles GET /api/categories/{slug}.
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	cat, err := h.svc.Catalog.GetCategoryBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.fail(w, r, err, msgCategoryNotFound)
		return
	}
	WriteSuccess(w, categoryToResponse(cat), nil)
}

// productQuery reads listing filters from the query string.
func productQuery(r *http.Request) (service.ProductQuery, map[string]string) {
	q := r.URL.Query()
	pq := service.ProductQuery{
		CategorySlug: strings.TrimSpace(q.Get("category")),
		Search:       strings.TrimSpace(q.Get("search")),
		Featured:     handler.ParseBoolParam(r, "featured"),
		New:          handler.ParseBoolParam(r, "new"),
		InStock:      handler.ParseBoolParam(r, "in_stock"),
		Size:         strings.TrimSpace(q.Get("size")),
		Sort:         q.Get("sort"),
		Paging:       paging(r),
	}

	errs := make(map[string]string)
	if pq.Sort != "" && !productSorts[pq.Sort] {
		errs["sort"] = "Sıralama newest, price_asc, price_desc veya name olmalıdır"
	}
	var err error
	if pq.MinPrice, err = handler.ParseDecimalParam(r, "min_price"); err != nil {
		errs["min_price"] = "Geçersiz fiyat"
	}
	if pq.MaxPrice, err = handler.ParseDecimalParam(r, "max_price"); err != nil {
		errs["max_price"] = "Geçersiz fiyat"
	}
	if pq.MinPrice.Valid && pq.MaxPrice.Valid && pq.MinPrice.Decimal.GreaterThan(pq.MaxPrice.Decimal) {
		errs["max_price"] = "En yüksek fiyat en düşük fiyattan küçük olamaz"
	}
	return pq, errs
}

// ListProducts handles GET /api/products.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	pq, errs := productQuery(r)
	if len(errs) > 0 {
		WriteValidationError(w, errs)
		return
	}

	page, err := h.svc.Catalog.ListProducts(r.Context(), pq)
	if err != nil {
		h.fail(w, r, err, msgCategoryNotFound)
		return
	}
	WriteSuccess(w, productsToResponse(page.Products), &Meta{
		Total:   page.Total,
		Page:    page.Page,
		PerPage: page.PerPage,
		Pages:   page.Pages(),
	})
}

// FeaturedProducts handles GET /api/products/featured.
func (h *Handler) FeaturedProducts(w http.ResponseWriter, r *http.Request) {
	limit := handler.ParseIntParam(r, "limit", defaultStripLimit, 1, maxStripLimit)
	products, err := h.svc.Catalog.FeaturedProducts(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	WriteSuccess(w, productsToResponse(products), nil)
}

// NewProducts handles GET /api/products/new.
func (h *Handler) NewProducts(w http.ResponseWriter, r *http.Request) {
	limit := handler.ParseIntParam(r, "limit", defaultStripLimit, 1, maxStripLimit)
	products, err := h.svc.Catalog.NewProducts(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	WriteSuccess(w, productsToResponse(products), nil)
}

// GetProduct handles GET /api/products/{slug} and records a view.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	detail, err := h.svc.Catalog.GetProductDetail(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		h.fail(w, r, err, msgProductNotFound)
		return
	}

	if _, err := h.svc.Catalog.RecordView(ctx, detail.Product.ID, middleware.GetUserIDPtr(r), r.UserAgent()); err != nil {
		h.logger.Warn("failed to record product view", "error", err, "product_id", detail.Product.ID)
	}

	WriteSuccess(w, productDetailToResponse(detail), nil)
}
