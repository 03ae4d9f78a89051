// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// apiCSP forbids every resource type except images; API responses are
// never rendered as documents.
const apiCSP = "default-src 'none'; img-src 'self' data:; frame-ancestors 'none'; base-uri 'none'; form-action 'none'"

var disabledFeatures = []string{
	"accelerometer", "browsing-topics", "camera", "geolocation", "gyroscope",
	"magnetometer", "microphone", "payment", "usb",
}

// SecurityPolicy lists the response headers added to every request.
// An empty value leaves the header unset.
type SecurityPolicy struct {
	CSP               string
	FrameOptions      string
	ReferrerPolicy    string
	PermissionsPolicy string
	// HSTS is zero in development, where the server runs over plain HTTP.
	HSTS time.Duration
}

// DefaultSecurityPolicy returns the storefront API policy.
func DefaultSecurityPolicy(development bool) SecurityPolicy {
	p := SecurityPolicy{
		CSP:               apiCSP,
		FrameOptions:      "DENY",
		ReferrerPolicy:    "strict-origin-when-cross-origin",
		PermissionsPolicy: denyFeatures(disabledFeatures...),
	}
	if !development {
		p.HSTS = 365 * 24 * time.Hour
	}
	return p
}

func denyFeatures(names ...string) string {
	var b strings.Builder
	for i, n := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(n)
		b.WriteString("=()")
	}
	return b.String()
}

func (p SecurityPolicy) headers() http.Header {
	h := http.Header{"X-Content-Type-Options": {"nosniff"}}
	set := func(k, v string) {
		if v != "" {
			h.Set(k, v)
		}
	}
	set("Content-Security-Policy", p.CSP)
	set("X-Frame-Options", p.FrameOptions)
	set("Referrer-Policy", p.ReferrerPolicy)
	set("Permissions-Policy", p.PermissionsPolicy)
	if p.HSTS > 0 {
		h.Set("Strict-Transport-Security",
			fmt.Sprintf("max-age=%d; includeSubDomains", int64(p.HSTS/time.Second)))
	}
	return h
}

// SecurityHeaders adds the policy's headers before calling next.
func SecurityHeaders(p SecurityPolicy) func(http.Handler) http.Handler {
	fixed := p.headers()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for k := range fixed {
				h.Set(k, fixed.Get(k))
			}
			next.ServeHTTP(w, r)
		})
	}
}
