// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package transfer imports and exports the product catalog as CSV.
package transfer

import (
	"errors"
	"strings"
)

// Column names of the product CSV format. Import matches them
// case-insensitively; export writes them in this order.
const (
	ColName          = "name"
	ColSlug          = "slug"
	ColDescription   = "description"
	ColPrice         = "price"
	ColSalePrice     = "sale_price"
	ColSku           = "sku"
	ColCategory      = "category"
	ColStockStatus   = "stock_status"
	ColStockQuantity = "stock_quantity"
	ColSizes         = "sizes"
	ColImages        = "images"
	ColIsFeatured    = "is_featured"
	ColIsNew         = "is_new"
	ColPreOrder      = "pre_order"
	ColIsActive      = "is_active"
)

// Columns lists every column in export order.
var Columns = []string{
	ColName, ColSlug, ColDescription, ColPrice, ColSalePrice, ColSku, ColCategory,
	ColStockStatus, ColStockQuantity, ColSizes, ColImages,
	ColIsFeatured, ColIsNew, ColPreOrder, ColIsActive,
}

// ListSeparator joins multi-valued cells (sizes, images).
const ListSeparator = "|"

// MaxImportRows bounds the data rows accepted in one import.
const MaxImportRows = 5000

// Import outcomes, also used as metric labels.
const (
	OutcomeCreated = "created"
	OutcomeUpdated = "updated"
	OutcomeSkipped = "skipped"
)

// Errors that reject a whole file.
var (
	ErrEmptyFile      = errors.New("csv file is empty")
	ErrMissingColumns = errors.New("csv header lacks required columns")
	ErrTooManyRows    = errors.New("csv file has too many rows")
)

// RowError describes a skipped row. Row is the 1-based line in the file,
// the header being row 1.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportOptions configures an import.
type ImportOptions struct {
	// DryRun validates and counts without writing.
	DryRun bool
}

// ImportResult summarizes an import.
type ImportResult struct {
	DryRun            bool       `json:"dry_run"`
	Created           int        `json:"created"`
	Updated           int        `json:"updated"`
	Skipped           int        `json:"skipped"`
	CategoriesCreated int        `json:"categories_created"`
	Errors            []RowError `json:"errors"`
}

func newImportResult(dryRun bool) *ImportResult {
	return &ImportResult{DryRun: dryRun, Errors: []RowError{}}
}

func (r *ImportResult) skip(row int, message string) {
	r.Skipped++
	r.Errors = append(r.Errors, RowError{Row: row, Message: message})
}

// Total returns the number of data rows processed.
func (r *ImportResult) Total() int {
	return r.Created + r.Updated + r.Skipped
}

// splitList splits a multi-valued cell, dropping blanks and duplicates.
func splitList(cell string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, v := range strings.Split(cell, ListSeparator) {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// parseBool accepts English and Turkish spellings. ok is false for
// unrecognized values.
func parseBool(cell string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "1", "true", "yes", "y", "evet", "e":
		return true, true
	case "0", "false", "no", "n", "hayir", "hayır", "h":
		return false, true
	}
	return false, false
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
