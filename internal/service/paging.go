// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

// Listing page sizes.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Paging is a 1-based page request.
type Paging struct {
	Page    int
	PerPage int
}

// Normalize clamps the page to >= 1 and the page size to 1..MaxPerPage.
func (p Paging) Normalize() Paging {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

// Limit returns the SQL LIMIT for the page.
func (p Paging) Limit() int64 {
	return int64(p.PerPage)
}

// Offset returns the SQL OFFSET for the page.
func (p Paging) Offset() int64 {
	return int64((p.Page - 1) * p.PerPage)
}

// TotalPages returns the number of pages needed for total items.
func TotalPages(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}
