// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/ocms-shop/internal/auth"
	"github.com/olegiv/ocms-shop/internal/logging"
	"github.com/olegiv/ocms-shop/internal/model"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for request data.
const (
	ContextKeyClaims ContextKey = "claims"
)

const (
	msgAuthRequired = "Bu işlem için giriş yapmanız gerekiyor"
	msgTokenInvalid = "Oturumunuz geçersiz, lütfen tekrar giriş yapın"
	msgTokenExpired = "Oturumunuzun süresi doldu, lütfen tekrar giriş yapın"
	msgAdminOnly    = "Bu işlem için yönetici yetkisi gerekiyor"
	msgServerError  = "Beklenmeyen bir hata oluştu"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// AdminChecker reports the stored admin flag of a user.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

// bearerToken extracts the token from the Authorization header.
// present is true when the header is set at all.
func bearerToken(r *http.Request) (token string, present bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, value, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", true
	}
	return strings.TrimSpace(value), true
}

func withClaims(r *http.Request, claims *auth.Claims) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ContextKeyClaims, claims))
}

// RequireAuth creates middleware that requires a valid bearer token.
func RequireAuth(tv TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, _ := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, msgAuthRequired)
				return
			}
			claims, err := tv.Verify(token)
			if err != nil {
				msg := msgTokenInvalid
				if errors.Is(err, auth.ErrExpiredToken) {
					msg = msgTokenExpired
				}
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, msg)
				return
			}
			next.ServeHTTP(w, withClaims(r, claims))
		})
	}
}

// OptionalAuth adds the claims of a valid bearer token to the context and
// otherwise serves the request anonymously. A malformed or expired token
// is rejected so clients notice a stale session.
func OptionalAuth(tv TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, present := bearerToken(r)
			if !present {
				next.ServeHTTP(w, r)
				return
			}
			if token == "" {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, msgTokenInvalid)
				return
			}
			claims, err := tv.Verify(token)
			if err != nil {
				msg := msgTokenInvalid
				if errors.Is(err, auth.ErrExpiredToken) {
					msg = msgTokenExpired
				}
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, msg)
				return
			}
			next.ServeHTTP(w, withClaims(r, claims))
		})
	}
}

// RequireAdmin creates middleware that requires an admin. It runs after
// RequireAuth and re-checks the admin flag in the database, so a revoked
// admin loses access before the token expires.
func RequireAdmin(checker AdminChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r)
			if claims == nil {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, msgAuthRequired)
				return
			}

			isAdmin := claims.IsAdmin
			if isAdmin && checker != nil {
				var err error
				isAdmin, err = checker.IsAdmin(r.Context(), claims.UserID)
				if err != nil {
					slog.Error("admin check failed", "error", err, logging.AttrUserID, claims.UserID)
					writeError(w, http.StatusInternalServerError, CodeInternal, msgServerError)
					return
				}
			}

			if !isAdmin {
				slog.Warn("access denied",
					logging.AttrCategory, model.EventCategorySecurity,
					logging.AttrUserID, claims.UserID,
					"method", r.Method,
					"path", r.URL.Path,
					"ip", GetClientIP(r),
				)
				writeError(w, http.StatusForbidden, CodeForbidden, msgAdminOnly)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetClaims retrieves the token claims from the request context.
// Returns nil for anonymous requests.
func GetClaims(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(ContextKeyClaims).(*auth.Claims)
	return claims
}

// GetUserID returns the authenticated user's ID, or 0.
func GetUserID(r *http.Request) int64 {
	if c := GetClaims(r); c != nil {
		return c.UserID
	}
	return 0
}

// GetUserIDPtr returns a pointer to the authenticated user's ID, or nil.
func GetUserIDPtr(r *http.Request) *int64 {
	if c := GetClaims(r); c != nil {
		id := c.UserID
		return &id
	}
	return nil
}
