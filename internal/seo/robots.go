// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"fmt"
	"strings"
)

// privatePaths hold the API and per-visitor storefront pages.
var privatePaths = []string{"/api/", "/sepet", "/odeme", "/hesabim", "/uploads/*.csv"}

// Robots renders robots.txt. A closed site (staging, development) blocks
// every crawler and advertises no sitemap.
func Robots(siteURL string, closed bool) string {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	if closed {
		b.WriteString("Disallow: /\n")
		return b.String()
	}
	for _, p := range privatePaths {
		fmt.Fprintf(&b, "Disallow: %s\n", p)
	}
	b.WriteString("Allow: /\n")
	if siteURL != "" {
		fmt.Fprintf(&b, "\nSitemap: %s/sitemap.xml\n", strings.TrimRight(siteURL, "/"))
	}
	return b.String()
}
