// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const productColumns = `id, category_id, name, slug, description, price, sale_price, sku,
stock_status, stock_quantity, images, sizes, is_featured, is_new, pre_order, is_active,
created_at, updated_at`

func scanProduct(row rowScanner) (Product, error) {
	var p Product
	err := row.Scan(
		&p.ID,
		&p.CategoryID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.Price,
		&p.SalePrice,
		&p.Sku,
		&p.StockStatus,
		&p.StockQuantity,
		&p.Images,
		&p.Sizes,
		&p.IsFeatured,
		&p.IsNew,
		&p.PreOrder,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

type CreateProductParams struct {
	CategoryID    sql.NullInt64
	Name          string
	Slug          string
	Description   string
	Price         decimal.Decimal
	SalePrice     decimal.NullDecimal
	Sku           sql.NullString
	StockStatus   string
	StockQuantity sql.NullInt64
	Images        StringList
	Sizes         StringList
	IsFeatured    bool
	IsNew         bool
	PreOrder      bool
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	row := q.db.QueryRowContext(ctx, `
INSERT INTO products (category_id, name, slug, description, price, sale_price, sku, stock_status,
    stock_quantity, images, sizes, is_featured, is_new, pre_order, is_active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING `+productColumns,
		arg.CategoryID, arg.Name, arg.Slug, arg.Description, arg.Price, arg.SalePrice, arg.Sku,
		arg.StockStatus, arg.StockQuantity, arg.Images, arg.Sizes, arg.IsFeatured, arg.IsNew,
		arg.PreOrder, arg.IsActive, DBTime(arg.CreatedAt), DBTime(arg.UpdatedAt))
	return scanProduct(row)
}

type UpdateProductParams struct {
	CategoryID    sql.NullInt64
	Name          string
	Slug          string
	Description   string
	Price         decimal.Decimal
	SalePrice     decimal.NullDecimal
	Sku           sql.NullString
	StockStatus   string
	StockQuantity sql.NullInt64
	Images        StringList
	Sizes         StringList
	IsFeatured    bool
	IsNew         bool
	PreOrder      bool
	IsActive      bool
	UpdatedAt     time.Time
	ID            int64
}

func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error) {
	row := q.db.QueryRowContext(ctx, `
UPDATE products
SET category_id = ?, name = ?, slug = ?, description = ?, price = ?, sale_price = ?, sku = ?,
    stock_status = ?, stock_quantity = ?, images = ?, sizes = ?, is_featured = ?, is_new = ?,
    pre_order = ?, is_active = ?, updated_at = ?
WHERE id = ?
RETURNING `+productColumns,
		arg.CategoryID, arg.Name, arg.Slug, arg.Description, arg.Price, arg.SalePrice, arg.Sku,
		arg.StockStatus, arg.StockQuantity, arg.Images, arg.Sizes, arg.IsFeatured, arg.IsNew,
		arg.PreOrder, arg.IsActive, DBTime(arg.UpdatedAt), arg.ID)
	return scanProduct(row)
}

func (q *Queries) GetProductByID(ctx context.Context, id int64) (Product, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products p WHERE p.id = ?`, id)
	return scanProduct(row)
}

func (q *Queries) GetProductBySlug(ctx context.Context, slug string) (Product, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products p WHERE p.slug = ?`, slug)
	return scanProduct(row)
}

func (q *Queries) GetProductBySku(ctx context.Context, sku string) (Product, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products p WHERE p.sku = ?`, sku)
	return scanProduct(row)
}

// Product list sort orders.
const (
	ProductSortNewest    = "newest"
	ProductSortPriceAsc  = "price_asc"
	ProductSortPriceDesc = "price_desc"
	ProductSortName      = "name"
)

// ProductFilter narrows product listings. Zero values mean "no constraint".
type ProductFilter struct {
	CategoryID      int64
	Search          string
	Featured        bool
	New             bool
	InStock         bool
	Size            string
	MinPrice        decimal.NullDecimal
	MaxPrice        decimal.NullDecimal
	IncludeInactive bool
	Sort            string
	Limit           int64
	Offset          int64
}

// where builds the WHERE clause and its arguments.
func (f ProductFilter) where() (string, []any) {
	var conds []string
	var args []any

	if !f.IncludeInactive {
		conds = append(conds, "p.is_active = 1")
	}
	if f.CategoryID > 0 {
		conds = append(conds, "p.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		conds = append(conds, "(p.name LIKE '%' || ? || '%' OR p.description LIKE '%' || ? || '%' OR p.sku = ?)")
		args = append(args, s, s, s)
	}
	if f.Featured {
		conds = append(conds, "p.is_featured = 1")
	}
	if f.New {
		conds = append(conds, "p.is_new = 1")
	}
	if f.InStock {
		conds = append(conds, "p.stock_status IN ('in_stock', 'low_stock')")
	}
	if f.Size != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM json_each(p.sizes) WHERE json_each.value = ?)")
		args = append(args, f.Size)
	}
	// Expressions carry no column affinity, so prices are bound as REAL.
	if f.MinPrice.Valid {
		conds = append(conds, "COALESCE(p.sale_price, p.price) >= ?")
		args = append(args, f.MinPrice.Decimal.InexactFloat64())
	}
	if f.MaxPrice.Valid {
		conds = append(conds, "COALESCE(p.sale_price, p.price) <= ?")
		args = append(args, f.MaxPrice.Decimal.InexactFloat64())
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (f ProductFilter) orderBy() string {
	switch f.Sort {
	case ProductSortPriceAsc:
		return " ORDER BY COALESCE(p.sale_price, p.price) ASC, p.id ASC"
	case ProductSortPriceDesc:
		return " ORDER BY COALESCE(p.sale_price, p.price) DESC, p.id DESC"
	case ProductSortName:
		return " ORDER BY p.name COLLATE NOCASE ASC, p.id ASC"
	default:
		return " ORDER BY p.created_at DESC, p.id DESC"
	}
}

func (q *Queries) ListProducts(ctx context.Context, f ProductFilter) ([]Product, error) {
	where, args := f.where()
	query := `SELECT ` + productColumns + ` FROM products p` + where + f.orderBy() + ` LIMIT ? OFFSET ?`
	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit, f.Offset)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanProduct)
}

func (q *Queries) CountProducts(ctx context.Context, f ProductFilter) (int64, error) {
	where, args := f.where()
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products p`+where, args...).Scan(&n)
	return n, err
}

type ListRelatedProductsParams struct {
	CategoryID int64
	ExcludeID  int64
	Limit      int64
}

func (q *Queries) ListRelatedProducts(ctx context.Context, arg ListRelatedProductsParams) ([]Product, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT `+productColumns+` FROM products p
WHERE p.category_id = ? AND p.id != ? AND p.is_active = 1
ORDER BY p.is_featured DESC, p.created_at DESC
LIMIT ?`, arg.CategoryID, arg.ExcludeID, arg.Limit)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanProduct)
}

type UpdateProductStockParams struct {
	StockStatus   string
	StockQuantity sql.NullInt64
	UpdatedAt     time.Time
	ID            int64
}

func (q *Queries) UpdateProductStock(ctx context.Context, arg UpdateProductStockParams) error {
	_, err := q.db.ExecContext(ctx, `UPDATE products SET stock_status = ?, stock_quantity = ?, updated_at = ? WHERE id = ?`,
		arg.StockStatus, arg.StockQuantity, DBTime(arg.UpdatedAt), arg.ID)
	return err
}

type UpdateProductImagesParams struct {
	Images    StringList
	UpdatedAt time.Time
	ID        int64
}

func (q *Queries) UpdateProductImages(ctx context.Context, arg UpdateProductImagesParams) (Product, error) {
	row := q.db.QueryRowContext(ctx, `
UPDATE products SET images = ?, updated_at = ? WHERE id = ?
RETURNING `+productColumns, arg.Images, DBTime(arg.UpdatedAt), arg.ID)
	return scanProduct(row)
}

type SetProductActiveParams struct {
	IsActive  bool
	UpdatedAt time.Time
	ID        int64
}

func (q *Queries) SetProductActive(ctx context.Context, arg SetProductActiveParams) error {
	_, err := q.db.ExecContext(ctx, `UPDATE products SET is_active = ?, updated_at = ? WHERE id = ?`,
		arg.IsActive, DBTime(arg.UpdatedAt), arg.ID)
	return err
}

func (q *Queries) CountOrderItemsForProduct(ctx context.Context, productID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM order_items WHERE product_id = ?`, productID).Scan(&n)
	return n, err
}

func (q *Queries) DeleteProduct(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	return err
}

// ListLowStockProducts returns active products whose tracked quantity is at or below threshold.
func (q *Queries) ListLowStockProducts(ctx context.Context, threshold int64, limit int64) ([]Product, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT `+productColumns+` FROM products p
WHERE p.is_active = 1 AND p.stock_quantity IS NOT NULL AND p.stock_quantity <= ?
ORDER BY p.stock_quantity ASC, p.name
LIMIT ?`, threshold, limit)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanProduct)
}

type CreateProductViewParams struct {
	ProductID  int64
	UserID     sql.NullInt64
	DeviceType string
	Browser    string
	Os         string
	CreatedAt  time.Time
}

func (q *Queries) CreateProductView(ctx context.Context, arg CreateProductViewParams) error {
	_, err := q.db.ExecContext(ctx, `
INSERT INTO product_views (product_id, user_id, device_type, browser, os, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		arg.ProductID, arg.UserID, arg.DeviceType, arg.Browser, arg.Os, DBTime(arg.CreatedAt))
	return err
}
