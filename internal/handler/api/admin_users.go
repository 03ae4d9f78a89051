// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strings"

	"github.com/olegiv/ocms-shop/internal/middleware"
	"github.com/olegiv/ocms-shop/internal/service"
)

const msgUserNotFound = "Kullanıcı bulunamadı"

// AdminUserRequest is the body of PUT /api/admin/users/{id}.
type AdminUserRequest struct {
	Name    *string `json:"name" validate:"omitempty,max=120"`
	Phone   *string `json:"phone" validate:"omitempty,max=32"`
	Address *string `json:"address" validate:"omitempty,max=500"`
	City    *string `json:"city" validate:"omitempty,max=80"`
	IsAdmin *bool   `json:"is_admin"`
}

// AdminListUsers handles GET /api/admin/users?search=.
func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	p := paging(r)
	users, total, err := h.svc.Users.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("search")), p.Limit(), p.Offset())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = userToResponse(u)
	}
	WriteSuccess(w, out, newMeta(total, p))
}

// AdminGetUser handles GET /api/admin/users/{id}.
func (h *Handler) AdminGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	u, err := h.svc.Users.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, msgUserNotFound)
		return
	}
	WriteSuccess(w, userToResponse(u), nil)
}

// AdminUpdateUser handles PUT /api/admin/users/{id}.
func (h *Handler) AdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req AdminUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	u, err := h.svc.Users.AdminUpdate(r.Context(), middleware.GetUserID(r), id, service.AdminUpdateInput{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
		City:    req.City,
		IsAdmin: req.IsAdmin,
	})
	if err != nil {
		h.fail(w, r, err, msgUserNotFound)
		return
	}
	WriteSuccess(w, userToResponse(u), nil)
}

// AdminDeleteUser handles DELETE /api/admin/users/{id}.
func (h *Handler) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Users.Delete(r.Context(), middleware.GetUserID(r), id); err != nil {
		h.fail(w, r, err, msgUserNotFound)
		return
	}
	WriteMessage(w, "Kullanıcı silindi")
}
