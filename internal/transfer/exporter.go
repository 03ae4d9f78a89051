// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/olegiv/ocms-shop/internal/store"
)

// ExportOptions configures a product export.
type ExportOptions struct {
	// IncludeInactive also exports hidden products.
	IncludeInactive bool
	// BOM prefixes the file with a UTF-8 byte order mark for spreadsheet apps.
	BOM bool
}

// Exporter writes the product catalog as CSV in the format Importer reads.
type Exporter struct {
	queries *store.Queries
	logger  *slog.Logger
}

// NewExporter creates a new Exporter instance.
func NewExporter(db *sql.DB, logger *slog.Logger) *Exporter {
	return &Exporter{
		queries: store.New(db),
		logger:  logger,
	}
}

// ExportProducts writes every product to w and returns the row count.
func (e *Exporter) ExportProducts(ctx context.Context, w io.Writer, opts ExportOptions) (int, error) {
	products, err := e.queries.ListProducts(ctx, store.ProductFilter{
		IncludeInactive: opts.IncludeInactive,
		Sort:            store.ProductSortName,
	})
	if err != nil {
		return 0, fmt.Errorf("listing products: %w", err)
	}
	cats, err := e.queries.ListCategories(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing categories: %w", err)
	}
	catSlugs := make(map[int64]string, len(cats))
	for _, c := range cats {
		catSlugs[c.ID] = c.Slug
	}

	if opts.BOM {
		if _, err := w.Write(utf8BOM); err != nil {
			return 0, err
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return 0, err
	}
	for _, p := range products {
		if err := cw.Write(productRecord(p, catSlugs)); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("writing csv: %w", err)
	}

	if e.logger != nil {
		e.logger.Info("products exported", "count", len(products))
	}
	return len(products), nil
}

func productRecord(p store.Product, catSlugs map[int64]string) []string {
	var category, salePrice, sku, quantity string
	if p.CategoryID.Valid {
		category = catSlugs[p.CategoryID.Int64]
	}
	if p.SalePrice.Valid {
		salePrice = p.SalePrice.Decimal.StringFixed(2)
	}
	if p.Sku.Valid {
		sku = p.Sku.String
	}
	if p.StockQuantity.Valid {
		quantity = strconv.FormatInt(p.StockQuantity.Int64, 10)
	}

	return []string{
		p.Name,
		p.Slug,
		p.Description,
		p.Price.StringFixed(2),
		salePrice,
		sku,
		category,
		p.StockStatus,
		quantity,
		strings.Join(p.Sizes, ListSeparator),
		strings.Join(p.Images, ListSeparator),
		formatBool(p.IsFeatured),
		formatBool(p.IsNew),
		formatBool(p.PreOrder),
		formatBool(p.IsActive),
	}
}
