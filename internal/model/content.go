// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Banner positions
const (
	BannerPositionHero    = "hero"
	BannerPositionTop     = "top"
	BannerPositionMiddle  = "middle"
	BannerPositionBottom  = "bottom"
	BannerPositionSidebar = "sidebar"
	BannerPositionPopup   = "popup"
)

// BannerPositions returns all valid banner positions.
func BannerPositions() []string {
	return []string{
		BannerPositionHero,
		BannerPositionTop,
		BannerPositionMiddle,
		BannerPositionBottom,
		BannerPositionSidebar,
		BannerPositionPopup,
	}
}

// IsValidBannerPosition reports whether p is a known banner position.
func IsValidBannerPosition(p string) bool {
	for _, v := range BannerPositions() {
		if v == p {
			return true
		}
	}
	return false
}

// Page content formats
const (
	ContentFormatHTML     = "html"
	ContentFormatMarkdown = "markdown"
)

// IsValidContentFormat reports whether f is a supported page content format.
func IsValidContentFormat(f string) bool {
	return f == ContentFormatHTML || f == ContentFormatMarkdown
}

// Special size request statuses
const (
	SizeRequestNew       = "new"
	SizeRequestContacted = "contacted"
	SizeRequestClosed    = "closed"
)

// IsValidSizeRequestStatus reports whether s is a known request status.
func IsValidSizeRequestStatus(s string) bool {
	switch s {
	case SizeRequestNew, SizeRequestContacted, SizeRequestClosed:
		return true
	}
	return false
}
