// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/store"
	"github.com/olegiv/ocms-shop/internal/util"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CatalogInvalidator drops cached catalog listings after a write.
type CatalogInvalidator interface {
	InvalidateCatalog(ctx context.Context)
}

// RowRecorder counts imported rows by outcome.
type RowRecorder interface {
	ImportRows(outcome string, n int)
}

// Importer loads products from CSV.
//
// Rows are matched to existing products by sku, or by slug when the row
// has no sku. Matched products are updated: empty cells keep the stored
// value. Unmatched rows create products and need a name and a price.
// Categories are looked up by slug or name and created when missing.
// Invalid rows are skipped and reported; the rest of the file is applied
// in one transaction.
type Importer struct {
	db       *sql.DB
	queries  *store.Queries
	logger   *slog.Logger
	cache    CatalogInvalidator
	metrics  RowRecorder
	lowStock int64
}

// NewImporter creates a new Importer instance.
func NewImporter(db *sql.DB, logger *slog.Logger) *Importer {
	return &Importer{
		db:       db,
		queries:  store.New(db),
		logger:   logger,
		lowStock: model.DefaultLowStockThreshold,
	}
}

// SetCache sets the cache invalidated after a successful import.
func (i *Importer) SetCache(c CatalogInvalidator) {
	i.cache = c
}

// SetMetrics sets the row counter.
func (i *Importer) SetMetrics(m RowRecorder) {
	i.metrics = m
}

// SetLowStockThreshold sets the quantity at or below which tracked stock
// is reported as low.
func (i *Importer) SetLowStockThreshold(n int64) {
	if n > 0 {
		i.lowStock = n
	}
}

// Import reads a CSV product file and applies it.
func (i *Importer) Import(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols, err := indexHeader(header)
	if err != nil {
		return nil, err
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	run := &importRun{
		importer: i,
		q:        i.queries.WithTx(tx),
		result:   newImportResult(opts.DryRun),
	}
	if err := run.loadCategories(ctx); err != nil {
		return nil, err
	}

	rows := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if isBlank(rec) {
			continue
		}
		rows++
		if rows > MaxImportRows {
			return nil, ErrTooManyRows
		}

		row, msg := parseRow(rec, cols)
		if msg != "" {
			run.result.skip(line, msg)
			continue
		}
		if err := run.apply(ctx, row); err != nil {
			var re rowError
			if errors.As(err, &re) {
				run.result.skip(line, string(re))
				continue
			}
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
	}

	result := run.result
	if opts.DryRun {
		return result, nil
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing import: %w", err)
	}

	if i.cache != nil && result.Created+result.Updated+result.CategoriesCreated > 0 {
		i.cache.InvalidateCatalog(ctx)
	}
	if i.metrics != nil {
		i.metrics.ImportRows(OutcomeCreated, result.Created)
		i.metrics.ImportRows(OutcomeUpdated, result.Updated)
		i.metrics.ImportRows(OutcomeSkipped, result.Skipped)
	}
	if i.logger != nil {
		i.logger.Info("product import finished",
			"created", result.Created, "updated", result.Updated, "skipped", result.Skipped,
			"categories_created", result.CategoriesCreated)
	}
	return result, nil
}

// indexHeader maps lowercased column names to their position.
func indexHeader(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for idx, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if _, dup := cols[name]; name != "" && !dup {
			cols[name] = idx
		}
	}
	var missing []string
	for _, required := range []string{ColName, ColPrice} {
		if _, ok := cols[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return cols, nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// rowError rejects a single row; its text is the user-facing reason.
type rowError string

func (e rowError) Error() string { return string(e) }

// productRow holds the parsed cells of one row. Empty cells are zero
// values, or nil for flags.
type productRow struct {
	name          string
	slug          string
	description   string
	sku           string
	category      string
	price         decimal.NullDecimal
	salePrice     decimal.NullDecimal
	stockStatus   string
	stockQuantity sql.NullInt64
	sizes         []string
	images        []string
	hasSizes      bool
	hasImages     bool
	isFeatured    *bool
	isNew         *bool
	preOrder      *bool
	isActive      *bool
}

// parseRow converts a record. msg is non-empty when the row is invalid.
func parseRow(rec []string, cols map[string]int) (row productRow, msg string) {
	cell := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[idx])
	}

	row.name = cell(ColName)
	row.slug = strings.ToLower(cell(ColSlug))
	row.description = cell(ColDescription)
	row.sku = cell(ColSku)
	row.category = cell(ColCategory)

	if row.slug != "" && !util.IsValidSlug(row.slug) {
		return row, "Geçersiz kısa ad (slug): " + row.slug
	}

	var ok bool
	if row.price, ok = parseMoney(cell(ColPrice)); !ok || (row.price.Valid && !row.price.Decimal.IsPositive()) {
		return row, "Geçersiz fiyat: " + cell(ColPrice)
	}
	if row.salePrice, ok = parseMoney(cell(ColSalePrice)); !ok || (row.salePrice.Valid && !row.salePrice.Decimal.IsPositive()) {
		return row, "Geçersiz indirimli fiyat: " + cell(ColSalePrice)
	}

	if v := cell(ColStockStatus); v != "" {
		row.stockStatus = strings.ToLower(v)
		if !model.IsValidStockStatus(row.stockStatus) {
			return row, "Geçersiz stok durumu: " + v
		}
	}
	if v := cell(ColStockQuantity); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return row, "Geçersiz stok adedi: " + v
		}
		row.stockQuantity = sql.NullInt64{Int64: n, Valid: true}
	}

	if v := cell(ColSizes); v != "" {
		row.sizes, row.hasSizes = splitList(v), true
	}
	if v := cell(ColImages); v != "" {
		row.images, row.hasImages = splitList(v), true
	}

	flags := []struct {
		col string
		dst **bool
	}{
		{ColIsFeatured, &row.isFeatured},
		{ColIsNew, &row.isNew},
		{ColPreOrder, &row.preOrder},
		{ColIsActive, &row.isActive},
	}
	for _, f := range flags {
		v := cell(f.col)
		if v == "" {
			continue
		}
		b, ok := parseBool(v)
		if !ok {
			return row, fmt.Sprintf("Geçersiz evet/hayır değeri (%s): %s", f.col, v)
		}
		*f.dst = &b
	}
	return row, ""
}

// parseMoney parses a price cell. A lone comma is read as the decimal
// separator. An empty cell is a valid null.
func parseMoney(v string) (decimal.NullDecimal, bool) {
	if v == "" {
		return decimal.NullDecimal{}, true
	}
	if strings.Contains(v, ",") && !strings.Contains(v, ".") {
		v = strings.Replace(v, ",", ".", 1)
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.NullDecimal{}, false
	}
	return decimal.NewNullDecimal(d.Round(2)), true
}

// importRun is the state of one Import call.
type importRun struct {
	importer *Importer
	q        *store.Queries
	result   *ImportResult

	categoriesBySlug map[string]store.Category
	categoriesByName map[string]store.Category
}

func (r *importRun) loadCategories(ctx context.Context) error {
	cats, err := r.q.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("listing categories: %w", err)
	}
	r.categoriesBySlug = make(map[string]store.Category, len(cats))
	r.categoriesByName = make(map[string]store.Category, len(cats))
	for _, c := range cats {
		r.categoriesBySlug[c.Slug] = c
		r.categoriesByName[strings.ToLower(c.Name)] = c
	}
	return nil
}

// category resolves a category cell, creating the category when needed.
func (r *importRun) category(ctx context.Context, cell string) (store.Category, error) {
	if c, ok := r.categoriesBySlug[strings.ToLower(cell)]; ok {
		return c, nil
	}
	if c, ok := r.categoriesByName[strings.ToLower(cell)]; ok {
		return c, nil
	}
	base := util.Slugify(cell)
	if c, ok := r.categoriesBySlug[base]; ok {
		return c, nil
	}

	slug, err := util.UniqueSlug(base, func(s string) (bool, error) {
		_, ok := r.categoriesBySlug[s]
		return ok, nil
	})
	if err != nil {
		return store.Category{}, err
	}
	now := store.Now()
	c, err := r.q.CreateCategory(ctx, store.CreateCategoryParams{
		Name:      cell,
		Slug:      slug,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return store.Category{}, fmt.Errorf("creating category %q: %w", cell, err)
	}
	r.categoriesBySlug[c.Slug] = c
	r.categoriesByName[strings.ToLower(c.Name)] = c
	r.result.CategoriesCreated++
	return c, nil
}

// findExisting looks a row up by sku, or by slug when the row has no sku.
func (r *importRun) findExisting(ctx context.Context, row productRow) (store.Product, bool, error) {
	var (
		p   store.Product
		err error
	)
	switch {
	case row.sku != "":
		p, err = r.q.GetProductBySku(ctx, row.sku)
	case row.slug != "":
		p, err = r.q.GetProductBySlug(ctx, row.slug)
	case row.name != "":
		p, err = r.q.GetProductBySlug(ctx, util.Slugify(row.name))
	default:
		return store.Product{}, false, rowError("Ürün adı, kısa ad veya stok kodu gereklidir")
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.Product{}, false, nil
	}
	if err != nil {
		return store.Product{}, false, fmt.Errorf("looking up product: %w", err)
	}
	return p, true, nil
}

func (r *importRun) slugTaken(ctx context.Context, slug string, id int64) (bool, error) {
	other, err := r.q.GetProductBySlug(ctx, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking slug: %w", err)
	}
	return other.ID != id, nil
}

func (r *importRun) apply(ctx context.Context, row productRow) error {
	existing, found, err := r.findExisting(ctx, row)
	if err != nil {
		return err
	}

	// Start from the stored product, or from defaults for a new one.
	p := store.UpdateProductParams{
		StockStatus: model.StockInStock,
		Images:      store.StringList{},
		Sizes:       store.StringList{},
		IsActive:    true,
	}
	if found {
		p = store.UpdateProductParams{
			CategoryID:    existing.CategoryID,
			Name:          existing.Name,
			Slug:          existing.Slug,
			Description:   existing.Description,
			Price:         existing.Price,
			SalePrice:     existing.SalePrice,
			Sku:           existing.Sku,
			StockStatus:   existing.StockStatus,
			StockQuantity: existing.StockQuantity,
			Images:        existing.Images,
			Sizes:         existing.Sizes,
			IsFeatured:    existing.IsFeatured,
			IsNew:         existing.IsNew,
			PreOrder:      existing.PreOrder,
			IsActive:      existing.IsActive,
			ID:            existing.ID,
		}
	} else {
		if row.name == "" {
			return rowError("Ürün adı zorunludur")
		}
		if !row.price.Valid {
			return rowError("Fiyat zorunludur")
		}
	}

	if row.name != "" {
		p.Name = row.name
	}
	if row.description != "" {
		p.Description = row.description
	}
	if row.price.Valid {
		p.Price = row.price.Decimal
	}
	if row.salePrice.Valid {
		p.SalePrice = row.salePrice
	}
	if p.SalePrice.Valid && !p.SalePrice.Decimal.LessThan(p.Price) {
		return rowError("İndirimli fiyat normal fiyattan düşük olmalıdır")
	}
	if row.sku != "" {
		p.Sku = sql.NullString{String: row.sku, Valid: true}
	}
	if row.hasSizes {
		p.Sizes = store.StringList(row.sizes)
	}
	if row.hasImages {
		p.Images = store.StringList(row.images)
	}
	if row.isFeatured != nil {
		p.IsFeatured = *row.isFeatured
	}
	if row.isNew != nil {
		p.IsNew = *row.isNew
	}
	if row.preOrder != nil {
		p.PreOrder = *row.preOrder
	}
	if row.isActive != nil {
		p.IsActive = *row.isActive
	}

	if row.category != "" {
		c, err := r.category(ctx, row.category)
		if err != nil {
			return err
		}
		p.CategoryID = sql.NullInt64{Int64: c.ID, Valid: true}
	}

	switch {
	case row.stockStatus != "":
		p.StockStatus = row.stockStatus
	case !found && p.PreOrder:
		p.StockStatus = model.StockPreOrder
	}
	if row.stockQuantity.Valid {
		p.StockQuantity = row.stockQuantity
	}
	if p.StockQuantity.Valid {
		p.StockStatus = model.StockStatusForQuantity(p.StockStatus, p.StockQuantity.Int64, r.importer.lowStock)
	}

	switch {
	case row.slug != "" && row.slug != p.Slug:
		taken, err := r.slugTaken(ctx, row.slug, p.ID)
		if err != nil {
			return err
		}
		if taken {
			return rowError("Kısa ad başka bir ürün tarafından kullanılıyor: " + row.slug)
		}
		p.Slug = row.slug
	case p.Slug == "":
		slug, err := util.UniqueSlug(util.Slugify(p.Name), func(s string) (bool, error) {
			return r.slugTaken(ctx, s, 0)
		})
		if err != nil {
			return err
		}
		p.Slug = slug
	}

	now := store.Now()
	p.UpdatedAt = now
	if found {
		if _, err := r.q.UpdateProduct(ctx, p); err != nil {
			return writeError(err, "updating product")
		}
		r.result.Updated++
		return nil
	}

	if _, err := r.q.CreateProduct(ctx, store.CreateProductParams{
		CategoryID:    p.CategoryID,
		Name:          p.Name,
		Slug:          p.Slug,
		Description:   p.Description,
		Price:         p.Price,
		SalePrice:     p.SalePrice,
		Sku:           p.Sku,
		StockStatus:   p.StockStatus,
		StockQuantity: p.StockQuantity,
		Images:        p.Images,
		Sizes:         p.Sizes,
		IsFeatured:    p.IsFeatured,
		IsNew:         p.IsNew,
		PreOrder:      p.PreOrder,
		IsActive:      p.IsActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}); err != nil {
		return writeError(err, "creating product")
	}
	r.result.Created++
	return nil
}

// writeError turns constraint violations into row errors.
func writeError(err error, doing string) error {
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		if strings.Contains(msg, "sku") {
			return rowError("Stok kodu başka bir ürün tarafından kullanılıyor")
		}
		return rowError("Kısa ad başka bir ürün tarafından kullanılıyor")
	}
	return fmt.Errorf("%s: %w", doing, err)
}
