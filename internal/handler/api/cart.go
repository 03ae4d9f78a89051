// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/olegiv/ocms-shop/internal/middleware"
	"github.com/olegiv/ocms-shop/internal/service"
	"github.com/olegiv/ocms-shop/internal/session"
)

// SessionHeader carries the cart session id for clients that keep it
// themselves.
const SessionHeader = "X-Session-ID"

const (
	msgInvalidSession  = "Geçersiz sepet oturumu"
	msgCartItemMissing = "Sepette böyle bir ürün yok"
)

// AddCartItemRequest is the body of POST /api/cart/items.
type AddCartItemRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Quantity  *int64 `json:"quantity" validate:"omitempty,gte=1"`
	Size      string `json:"size" validate:"max=20"`
}

// UpdateCartItemRequest is the body of PUT /api/cart/items/{id}.
type UpdateCartItemRequest struct {
	Quantity *int64 `json:"quantity" validate:"required,gte=0"`
}

// existingSessionID returns the cart session of the request without
// creating one: the X-Session-ID header first, then the session cookie.
func (h *Handler) existingSessionID(r *http.Request) string {
	if sid := strings.TrimSpace(r.Header.Get(SessionHeader)); sid != "" {
		if service.ValidSessionID(sid) {
			return sid
		}
		return ""
	}
	if h.sessions != nil {
		return session.CartID(r.Context(), h.sessions)
	}
	return ""
}

// sessionIDForWrite returns the cart session of the request, creating one
// when the client has none. A malformed X-Session-ID is rejected.
func (h *Handler) sessionIDForWrite(w http.ResponseWriter, r *http.Request) (string, bool) {
	if sid := strings.TrimSpace(r.Header.Get(SessionHeader)); sid != "" {
		if !service.ValidSessionID(sid) {
			WriteValidationError(w, map[string]string{"session_id": msgInvalidSession})
			return "", false
		}
		return sid, true
	}

	if h.sessions != nil {
		if sid := session.CartID(r.Context(), h.sessions); sid != "" {
			return sid, true
		}
	}

	sid := uuid.NewString()
	if h.sessions != nil {
		session.SetCartID(r.Context(), h.sessions, sid)
	}
	return sid, true
}

func (h *Handler) writeCart(w http.ResponseWriter, cart *service.Cart) {
	if cart.SessionID != "" {
		w.Header().Set(SessionHeader, cart.SessionID)
	}
	WriteSuccess(w, cartToResponse(cart, h.svc.Cart.Pricing()), nil)
}

// GetCart handles GET /api/cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	if sid := strings.TrimSpace(r.Header.Get(SessionHeader)); sid != "" && !service.ValidSessionID(sid) {
		WriteValidationError(w, map[string]string{"session_id": msgInvalidSession})
		return
	}

	cart, err := h.svc.Cart.Get(r.Context(), h.existingSessionID(r))
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	h.writeCart(w, cart)
}

// AddCartItem handles POST /api/cart/items.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req AddCartItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	qty := int64(1)
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	sid, ok := h.sessionIDForWrite(w, r)
	if !ok {
		return
	}

	cart, err := h.svc.Cart.AddItem(r.Context(), sid, middleware.GetUserIDPtr(r), service.AddItemInput{
		ProductID: req.ProductID,
		Quantity:  qty,
		Size:      strings.TrimSpace(req.Size),
	})
	if err != nil {
		h.fail(w, r, err, msgProductNotFound)
		return
	}
	h.writeCart(w, cart)
}

// UpdateCartItem handles PUT /api/cart/items/{id}. A quantity of 0 removes
// the line.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req UpdateCartItemRequest
	if !h.decode(w, r, &req) {
		return
	}

	sid := h.existingSessionID(r)
	if sid == "" {
		WriteNotFound(w, msgCartItemMissing)
		return
	}

	cart, err := h.svc.Cart.UpdateItem(r.Context(), sid, itemID, *req.Quantity)
	if err != nil {
		h.fail(w, r, err, msgCartItemMissing)
		return
	}
	h.writeCart(w, cart)
}

// RemoveCartItem handles DELETE /api/cart/items/{id}.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	sid := h.existingSessionID(r)
	if sid == "" {
		WriteNotFound(w, msgCartItemMissing)
		return
	}

	cart, err := h.svc.Cart.RemoveItem(r.Context(), sid, itemID)
	if err != nil {
		h.fail(w, r, err, msgCartItemMissing)
		return
	}
	h.writeCart(w, cart)
}

// ClearCart handles DELETE /api/cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sid := h.existingSessionID(r)
	if sid != "" {
		if err := h.svc.Cart.Clear(r.Context(), sid); err != nil {
			h.fail(w, r, err, "")
			return
		}
	}
	cart, err := h.svc.Cart.Get(r.Context(), sid)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	h.writeCart(w, cart)
}
