// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const categoryColumns = `id, name, slug, description, image_url, parent_id, display_order, is_active, created_at, updated_at`

func scanCategory(row rowScanner) (Category, error) {
	var c Category
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Slug,
		&c.Description,
		&c.ImageUrl,
		&c.ParentID,
		&c.DisplayOrder,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

type CreateCategoryParams struct {
	Name         string
	Slug         string
	Description  string
	ImageUrl     string
	ParentID     sql.NullInt64
	DisplayOrder int64
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	row := q.db.QueryRowContext(ctx, `
INSERT INTO categories (name, slug, description, image_url, parent_id, display_order, is_active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING `+categoryColumns,
		arg.Name, arg.Slug, arg.Description, arg.ImageUrl, arg.ParentID,
		arg.DisplayOrder, arg.IsActive, DBTime(arg.CreatedAt), DBTime(arg.UpdatedAt))
	return scanCategory(row)
}

type UpdateCategoryParams struct {
	Name         string
	Slug         string
	Description  string
	ImageUrl     string
	ParentID     sql.NullInt64
	DisplayOrder int64
	IsActive     bool
	UpdatedAt    time.Time
	ID           int64
}

func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	row := q.db.QueryRowContext(ctx, `
UPDATE categories
SET name = ?, slug = ?, description = ?, image_url = ?, parent_id = ?, display_order = ?, is_active = ?, updated_at = ?
WHERE id = ?
RETURNING `+categoryColumns,
		arg.Name, arg.Slug, arg.Description, arg.ImageUrl, arg.ParentID,
		arg.DisplayOrder, arg.IsActive, DBTime(arg.UpdatedAt), arg.ID)
	return scanCategory(row)
}

func (q *Queries) GetCategoryByID(ctx context.Context, id int64) (Category, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	return scanCategory(row)
}

func (q *Queries) GetCategoryBySlug(ctx context.Context, slug string) (Category, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE slug = ?`, slug)
	return scanCategory(row)
}

// GetCategoryByName matches case-insensitively; used by the CSV importer.
func (q *Queries) GetCategoryByName(ctx context.Context, name string) (Category, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE name = ? COLLATE NOCASE LIMIT 1`, name)
	return scanCategory(row)
}

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY display_order, name`)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanCategory)
}

// CategoryWithCount is a category row with its number of active products.
type CategoryWithCount struct {
	Category
	ProductCount int64
}

func (q *Queries) ListActiveCategoriesWithCounts(ctx context.Context) ([]CategoryWithCount, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT c.id, c.name, c.slug, c.description, c.image_url, c.parent_id, c.display_order, c.is_active, c.created_at, c.updated_at,
       (SELECT COUNT(*) FROM products p WHERE p.category_id = c.id AND p.is_active = 1) AS product_count
FROM categories c
WHERE c.is_active = 1
ORDER BY c.display_order, c.name`)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, func(row rowScanner) (CategoryWithCount, error) {
		var c CategoryWithCount
		err := row.Scan(
			&c.ID, &c.Name, &c.Slug, &c.Description, &c.ImageUrl, &c.ParentID,
			&c.DisplayOrder, &c.IsActive, &c.CreatedAt, &c.UpdatedAt, &c.ProductCount,
		)
		return c, err
	})
}

func (q *Queries) CountProductsInCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE category_id = ?`, categoryID).Scan(&n)
	return n, err
}

func (q *Queries) DeleteCategory(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	return err
}
