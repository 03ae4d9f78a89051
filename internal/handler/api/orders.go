// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-shop/internal/middleware"
	"github.com/olegiv/ocms-shop/internal/service"
)

const (
	msgOrderNotFound = "Sipariş bulunamadı"
	msgEmailRequired = "E-posta adresi zorunludur"
	msgOrderCanceled = "Siparişiniz iptal edildi"
)

// CheckoutRequest is the body of POST /api/orders.
type CheckoutRequest struct {
	CustomerName    string `json:"customer_name" validate:"max=120"`
	CustomerEmail   string `json:"customer_email" validate:"omitempty,email,max=254"`
	CustomerPhone   string `json:"customer_phone" validate:"max=32"`
	ShippingAddress string `json:"shipping_address" validate:"max=500"`
	City            string `json:"city" validate:"max=80"`
	PostalCode      string `json:"postal_code" validate:"max=16"`
	Notes           string `json:"notes" validate:"max=1000"`
}

// Checkout handles POST /api/orders. Authenticated customers may omit the
// contact fields stored on their profile.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if !h.decode(w, r, &req) {
		return
	}

	in := service.CheckoutInput{
		SessionID:       h.existingSessionID(r),
		UserID:          middleware.GetUserIDPtr(r),
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		ShippingAddress: req.ShippingAddress,
		City:            req.City,
		PostalCode:      req.PostalCode,
		Notes:           req.Notes,
	}

	if in.UserID != nil {
		user, ok := h.currentUser(w, r)
		if !ok {
			return
		}
		in.CustomerName = fallback(in.CustomerName, user.Name)
		in.CustomerEmail = fallback(in.CustomerEmail, user.Email)
		in.CustomerPhone = fallback(in.CustomerPhone, user.Phone)
		in.ShippingAddress = fallback(in.ShippingAddress, user.Address)
		in.City = fallback(in.City, user.City)
	}

	detail, err := h.svc.Orders.Checkout(r.Context(), in)
	if err != nil {
		h.fail(w, r, err, msgProductNotFound)
		return
	}
	WriteCreated(w, orderDetailToResponse(detail))
}

func fallback(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// ListMyOrders handles GET /api/orders.
func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	p := paging(r)
	orders, total, err := h.svc.Orders.ListForUser(r.Context(), middleware.GetUserID(r), p)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	WriteSuccess(w, ordersToResponse(orders), newMeta(total, p))
}

// GetOrder handles GET /api/orders/{id}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	claims := middleware.GetClaims(r)
	if claims == nil {
		WriteUnauthorized(w, msgAuthRequired)
		return
	}

	detail, err := h.svc.Orders.GetForUser(r.Context(), id, claims.UserID, claims.IsAdmin)
	if err != nil {
		h.fail(w, r, err, msgOrderNotFound)
		return
	}
	WriteSuccess(w, orderDetailToResponse(detail), nil)
}

// TrackOrder handles GET /api/orders/track/{orderNumber}?email=.
func (h *Handler) TrackOrder(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		WriteValidationError(w, map[string]string{"email": msgEmailRequired})
		return
	}

	detail, err := h.svc.Orders.Track(r.Context(), chi.URLParam(r, "orderNumber"), email)
	if err != nil {
		h.fail(w, r, err, msgOrderNotFound)
		return
	}
	WriteSuccess(w, orderDetailToResponse(detail), nil)
}

// CancelOrder handles POST /api/orders/{id}/cancel.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	detail, err := h.svc.Orders.Cancel(r.Context(), id, middleware.GetUserID(r))
	if err != nil {
		h.fail(w, r, err, msgOrderNotFound)
		return
	}
	WriteJSON(w, http.StatusOK, Response{Data: orderDetailToResponse(detail), Message: msgOrderCanceled})
}
