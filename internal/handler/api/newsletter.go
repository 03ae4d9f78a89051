// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-shop/internal/service"
)

const (
	msgSubscribed        = "Bültenimize abone oldunuz"
	msgResubscribed      = "Bülten aboneliğiniz yeniden etkinleştirildi"
	msgAlreadySubscribed = "Bu e-posta adresi zaten abone"
	msgUnsubscribed      = "Bülten aboneliğiniz iptal edildi"
	msgSubNotFound       = "Abonelik bulunamadı"
)

// SubscribeRequest is the body of POST /api/newsletter/subscribe.
type SubscribeRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
	Name  string `json:"name" validate:"max=120"`
}

// UnsubscribeRequest is the body of POST /api/newsletter/unsubscribe.
type UnsubscribeRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

// Subscribe handles POST /api/newsletter/subscribe.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if !h.decode(w, r, &req) {
		return
	}

	sub, result, err := h.svc.Newsletter.Subscribe(r.Context(), req.Email, req.Name)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}

	resp := Response{Data: subscriptionToResponse(sub)}
	switch result {
	case service.Subscribed:
		resp.Message = msgSubscribed
		WriteJSON(w, http.StatusCreated, resp)
	case service.Resubscribed:
		resp.Message = msgResubscribed
		WriteJSON(w, http.StatusOK, resp)
	default:
		resp.Message = msgAlreadySubscribed
		WriteJSON(w, http.StatusOK, resp)
	}
}

// Unsubscribe handles POST /api/newsletter/unsubscribe.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req UnsubscribeRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.svc.Newsletter.UnsubscribeEmail(r.Context(), req.Email); err != nil {
		h.fail(w, r, err, msgSubNotFound)
		return
	}
	WriteMessage(w, msgUnsubscribed)
}

// UnsubscribeToken handles GET /api/newsletter/unsubscribe/{token}, the
// link sent in newsletter mails.
func (h *Handler) UnsubscribeToken(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Newsletter.UnsubscribeToken(r.Context(), chi.URLParam(r, "token")); err != nil {
		h.fail(w, r, err, msgSubNotFound)
		return
	}
	WriteMessage(w, msgUnsubscribed)
}
