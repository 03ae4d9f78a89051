// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/ocms-shop/internal/middleware"
	"github.com/olegiv/ocms-shop/internal/service"
)

const msgSizeRequestNotFound = "Özel ölçü talebi bulunamadı"

// SizeRequestRequest is the body of POST /api/special-size-requests.
type SizeRequestRequest struct {
	Name         string `json:"name" validate:"required,max=120"`
	Email        string `json:"email" validate:"required,email,max=254"`
	Phone        string `json:"phone" validate:"max=32"`
	ProductID    *int64 `json:"product_id" validate:"omitempty,gt=0"`
	Measurements string `json:"measurements" validate:"required,max=2000"`
	Notes        string `json:"notes" validate:"max=2000"`
}

// CreateSizeRequest handles POST /api/special-size-requests.
func (h *Handler) CreateSizeRequest(w http.ResponseWriter, r *http.Request) {
	var req SizeRequestRequest
	if !h.decode(w, r, &req) {
		return
	}

	sr, err := h.svc.SizeRequests.Create(r.Context(), service.SizeRequestInput{
		UserID:       middleware.GetUserIDPtr(r),
		ProductID:    req.ProductID,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Measurements: req.Measurements,
		Notes:        req.Notes,
	})
	if err != nil {
		h.fail(w, r, err, msgProductNotFound)
		return
	}
	WriteJSON(w, http.StatusCreated, Response{
		Data:    sizeRequestToResponse(sr),
		Message: "Talebiniz alındı, en kısa sürede sizinle iletişime geçeceğiz",
	})
}
