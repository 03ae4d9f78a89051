// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/ocms-shop/internal/middleware"
)

// FavoriteRequest is the body of POST /api/favorites.
type FavoriteRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
}

// FavoriteStatus answers GET /api/favorites/check/{productId}.
type FavoriteStatus struct {
	ProductID  int64 `json:"product_id"`
	IsFavorite bool  `json:"is_favorite"`
}

// ListFavorites handles GET /api/favorites.
func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.Favorites.List(r.Context(), middleware.GetUserID(r))
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	WriteSuccess(w, productsToResponse(products), nil)
}

// AddFavorite handles POST /api/favorites. Adding twice is not an error.
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	var req FavoriteRequest
	if !h.decode(w, r, &req) {
		return
	}

	created, err := h.svc.Favorites.Add(r.Context(), middleware.GetUserID(r), req.ProductID)
	if err != nil {
		h.fail(w, r, err, msgProductNotFound)
		return
	}

	status := FavoriteStatus{ProductID: req.ProductID, IsFavorite: true}
	if created {
		WriteJSON(w, http.StatusCreated, Response{Data: status, Message: "Ürün favorilerinize eklendi"})
		return
	}
	WriteJSON(w, http.StatusOK, Response{Data: status, Message: "Ürün zaten favorilerinizde"})
}

// RemoveFavorite handles DELETE /api/favorites/{productId}.
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(w, r, "productId")
	if !ok {
		return
	}
	if err := h.svc.Favorites.Remove(r.Context(), middleware.GetUserID(r), productID); err != nil {
		h.fail(w, r, err, "Ürün favorilerinizde değil")
		return
	}
	WriteMessage(w, "Ürün favorilerinizden çıkarıldı")
}

// CheckFavorite handles GET /api/favorites/check/{productId}.
func (h *Handler) CheckFavorite(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(w, r, "productId")
	if !ok {
		return
	}
	fav, err := h.svc.Favorites.IsFavorite(r.Context(), middleware.GetUserID(r), productID)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	WriteSuccess(w, FavoriteStatus{ProductID: productID, IsFavorite: fav}, nil)
}
