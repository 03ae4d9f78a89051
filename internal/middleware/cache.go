// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"fmt"
	"net/http"
	"time"
)

// CacheControl sets the Cache-Control header before the handler runs, so
// the handler may still override it.
func CacheControl(value string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", value)
			next.ServeHTTP(w, r)
		})
	}
}

// StaticCache lets browsers and proxies keep uploaded images for maxAge.
func StaticCache(maxAge time.Duration) func(http.Handler) http.Handler {
	return CacheControl(fmt.Sprintf("public, max-age=%d", int64(maxAge/time.Second)))
}

// NoStore keeps carts, accounts and admin data out of every cache.
var NoStore = CacheControl("no-store")
