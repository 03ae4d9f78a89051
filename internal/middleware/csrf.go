// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"net/url"

	"filippo.io/csrf/gorilla"

	"github.com/olegiv/ocms-shop/internal/logging"
	"github.com/olegiv/ocms-shop/internal/model"
)

const msgCSRFFailed = "İstek kaynağı doğrulanamadı"

// CSRF rejects cross-site browser requests that change state. The check
// relies on Sec-Fetch-Site and Origin, so clients need no token.
//
// Requests with an Authorization or X-Session-ID header pass: a browser
// cannot add either header cross-origin without a CORS preflight, which
// the CORS middleware already restricts to allowedOrigins.
func CSRF(key []byte, allowedOrigins []string) func(http.Handler) http.Handler {
	opts := []csrf.Option{csrf.ErrorHandler(http.HandlerFunc(rejectCrossSite))}
	if hosts := trustedHosts(allowedOrigins); len(hosts) > 0 {
		opts = append(opts, csrf.TrustedOrigins(hosts))
	}
	protect := csrf.Protect(key, opts...)

	return func(next http.Handler) http.Handler {
		guarded := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "" || r.Header.Get("X-Session-ID") != "" {
				r = csrf.UnsafeSkipCheck(r)
			}
			guarded.ServeHTTP(w, r)
		})
	}
}

// trustedHosts reduces CORS origins such as https://shop.example.com to the
// host[:port] form the protector compares against. The wildcard and
// unparsable entries are dropped.
func trustedHosts(origins []string) []string {
	var hosts []string
	for _, o := range origins {
		if o == "*" {
			continue
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			hosts = append(hosts, u.Host)
		}
	}
	return hosts
}

func rejectCrossSite(w http.ResponseWriter, r *http.Request) {
	reason := "unknown"
	if err := csrf.FailureReason(r); err != nil {
		reason = err.Error()
	}
	slog.Warn("cross-site request rejected",
		logging.AttrCategory, model.EventCategorySecurity,
		"reason", reason,
		"method", r.Method,
		"path", r.URL.Path,
		"origin", r.Header.Get("Origin"),
		"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"))
	writeError(w, http.StatusForbidden, CodeForbidden, msgCSRFFailed)
}
