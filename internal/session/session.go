// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session keeps the guest cart id in a cookie-backed session for
// clients that do not send X-Session-ID.
package session

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// Session cookie names. Production uses the __Host- prefix, which browsers
// only accept on secure, host-only cookies with path "/".
const (
	CookieName       = "cart_session"
	SecureCookieName = "__Host-cart_session"
)

// cartIDKey is the session key holding the cart id.
const cartIDKey = "cart_id"

// New creates a session manager backed by the sessions table. The lifetime
// follows the cart expiry.
func New(db *sql.DB, isDev bool, lifetime time.Duration) *scs.SessionManager {
	sm := scs.New()

	sm.Store = sqlite3store.New(db)

	sm.Lifetime = lifetime
	sm.IdleTimeout = lifetime
	sm.Cookie.Name = CookieName
	if !isDev {
		sm.Cookie.Name = SecureCookieName
	}
	sm.Cookie.HttpOnly = true
	sm.Cookie.Path = "/"
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev

	return sm
}

// CartID returns the cart id stored in the session, or "".
func CartID(ctx context.Context, sm *scs.SessionManager) string {
	return sm.GetString(ctx, cartIDKey)
}

// SetCartID stores the cart id in the session.
func SetCartID(ctx context.Context, sm *scs.SessionManager, id string) {
	sm.Put(ctx, cartIDKey, id)
}
