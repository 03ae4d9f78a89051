// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-shop/internal/handler"
	"github.com/olegiv/ocms-shop/internal/store"
)

const (
	msgPageNotFound   = "Sayfa bulunamadı"
	msgBannerNotFound = "Banner bulunamadı"
)

// ListBanners handles GET /api/banners?position=.
func (h *Handler) ListBanners(w http.ResponseWriter, r *http.Request) {
	position := strings.TrimSpace(r.URL.Query().Get("position"))
	banners, err := h.svc.Content.ActiveBanners(r.Context(), position)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	WriteSuccess(w, bannersToResponse(banners), nil)
}

// ListPages handles GET /api/pages. footer=true limits the list to pages
// shown in the footer.
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	var (
		pages []store.Page
		err   error
	)
	if handler.ParseBoolParam(r, "footer") {
		pages, err = h.svc.Content.FooterPages(r.Context())
	} else {
		pages, err = h.svc.Content.PublishedPages(r.Context())
	}
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	WriteSuccess(w, pagesToSummary(pages), nil)
}

// GetPage handles GET /api/pages/{slug}.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Content.GetPublishedPage(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.fail(w, r, err, msgPageNotFound)
		return
	}
	WriteSuccess(w, pageViewToResponse(view), nil)
}
