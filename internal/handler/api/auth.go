// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/olegiv/ocms-shop/internal/middleware"
	"github.com/olegiv/ocms-shop/internal/service"
)

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Name     string `json:"name" validate:"required,max=120"`
	Phone    string `json:"phone" validate:"max=32"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileRequest is the body of PUT /api/auth/me.
type ProfileRequest struct {
	Name    string `json:"name" validate:"required,max=120"`
	Phone   string `json:"phone" validate:"max=32"`
	Address string `json:"address" validate:"max=500"`
	City    string `json:"city" validate:"max=80"`
}

// ChangePasswordRequest is the body of PUT /api/auth/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=128"`
}

// LoginGuard locks accounts after repeated failed logins.
type LoginGuard interface {
	IsAccountLocked(email string) (bool, time.Duration)
	RecordFailedAttempt(email string) (bool, time.Duration)
	RecordSuccessfulLogin(email string)
}

func writeLocked(w http.ResponseWriter, remaining time.Duration) {
	minutes := int(math.Ceil(remaining.Minutes()))
	w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(remaining.Seconds()))))
	WriteError(w, http.StatusTooManyRequests, middleware.CodeRateLimited,
		fmt.Sprintf("Çok fazla başarısız giriş denemesi. Lütfen %d dakika sonra tekrar deneyin.", max(minutes, 1)), nil)
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.svc.Users.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
	})
	if err != nil {
		h.fail(w, r, err, "")
		return
	}

	h.attachCart(r, res.User.ID)
	WriteCreated(w, authToResponse(res))
}

// Login returns a handler for POST /api/auth/login. When guard is set,
// locked accounts are refused before the password is checked.
func (h *Handler) Login(guard LoginGuard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if !h.decode(w, r, &req) {
			return
		}

		if guard != nil {
			if locked, remaining := guard.IsAccountLocked(req.Email); locked {
				writeLocked(w, remaining)
				return
			}
		}

		res, err := h.svc.Users.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) && guard != nil {
				if locked, remaining := guard.RecordFailedAttempt(req.Email); locked {
					writeLocked(w, remaining)
					return
				}
			}
			h.fail(w, r, err, "")
			return
		}
		if guard != nil {
			guard.RecordSuccessfulLogin(req.Email)
		}

		h.attachCart(r, res.User.ID)
		WriteSuccess(w, authToResponse(res), nil)
	}
}

// attachCart links the request's cart session to a user who just signed in.
func (h *Handler) attachCart(r *http.Request, userID int64) {
	sid := h.existingSessionID(r)
	if sid == "" {
		return
	}
	if err := h.svc.Cart.AttachUser(r.Context(), sid, userID); err != nil {
		h.logger.Warn("failed to attach cart to user", "error", err, "user_id", userID)
	}
}

// Me handles GET /api/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	WriteSuccess(w, userToResponse(user), nil)
}

// UpdateMe handles PUT /api/auth/me.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.svc.Users.UpdateProfile(r.Context(), middleware.GetUserID(r), service.ProfileInput{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
		City:    req.City,
	})
	if err != nil {
		h.fail(w, r, err, "Kullanıcı bulunamadı")
		return
	}
	WriteSuccess(w, userToResponse(user), nil)
}

// ChangePassword handles PUT /api/auth/password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.svc.Users.ChangePassword(r.Context(), middleware.GetUserID(r), req.CurrentPassword, req.NewPassword)
	if errors.Is(err, service.ErrInvalidCredentials) {
		WriteValidationError(w, map[string]string{"current_password": "Mevcut şifreniz hatalı"})
		return
	}
	if err != nil {
		h.fail(w, r, err, "Kullanıcı bulunamadı")
		return
	}
	WriteMessage(w, "Şifreniz güncellendi")
}
