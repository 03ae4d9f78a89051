// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const bannerColumns = `id, title, subtitle, image_url, link_url, button_text, position, display_order, is_active,
starts_at, ends_at, created_at, updated_at`

func scanBanner(row rowScanner) (Banner, error) {
	var b Banner
	err := row.Scan(&b.ID, &b.Title, &b.Subtitle, &b.ImageUrl, &b.LinkUrl, &b.ButtonText, &b.Position,
		&b.DisplayOrder, &b.IsActive, &b.StartsAt, &b.EndsAt, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func nullDBTime(t sql.NullTime) sql.NullTime {
	if t.Valid {
		t.Time = DBTime(t.Time)
	}
	return t
}

type CreateBannerParams struct {
	Title        string
	Subtitle     string
	ImageUrl     string
	LinkUrl      string
	ButtonText   string
	Position     string
	DisplayOrder int64
	IsActive     bool
	StartsAt     sql.NullTime
	EndsAt       sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (q *Queries) CreateBanner(ctx context.Context, arg CreateBannerParams) (Banner, error) {
	row := q.db.QueryRowContext(ctx, `
INSERT INTO banners (title, subtitle, image_url, link_url, button_text, position, display_order, is_active,
    starts_at, ends_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING `+bannerColumns,
		arg.Title, arg.Subtitle, arg.ImageUrl, arg.LinkUrl, arg.ButtonText, arg.Position, arg.DisplayOrder,
		arg.IsActive, nullDBTime(arg.StartsAt), nullDBTime(arg.EndsAt), DBTime(arg.CreatedAt), DBTime(arg.UpdatedAt))
	return scanBanner(row)
}

type UpdateBannerParams struct {
	Title        string
	Subtitle     string
	ImageUrl     string
	LinkUrl      string
	ButtonText   string
	Position     string
	DisplayOrder int64
	IsActive     bool
	StartsAt     sql.NullTime
	EndsAt       sql.NullTime
	UpdatedAt    time.Time
	ID           int64
}

func (q *Queries) UpdateBanner(ctx context.Context, arg UpdateBannerParams) (Banner, error) {
	row := q.db.QueryRowContext(ctx, `
UPDATE banners
SET title = ?, subtitle = ?, image_url = ?, link_url = ?, button_text = ?, position = ?, display_order = ?,
    is_active = ?, starts_at = ?, ends_at = ?, updated_at = ?
WHERE id = ?
RETURNING `+bannerColumns,
		arg.Title, arg.Subtitle, arg.ImageUrl, arg.LinkUrl, arg.ButtonText, arg.Position, arg.DisplayOrder,
		arg.IsActive, nullDBTime(arg.StartsAt), nullDBTime(arg.EndsAt), DBTime(arg.UpdatedAt), arg.ID)
	return scanBanner(row)
}

func (q *Queries) GetBannerByID(ctx context.Context, id int64) (Banner, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+bannerColumns+` FROM banners WHERE id = ?`, id)
	return scanBanner(row)
}

func (q *Queries) ListBanners(ctx context.Context) ([]Banner, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+bannerColumns+` FROM banners ORDER BY position, display_order, id`)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanBanner)
}

type ListActiveBannersParams struct {
	Position string
	Now      time.Time
}

// ListActiveBanners returns active banners whose validity window contains Now.
// An empty Position matches all positions.
func (q *Queries) ListActiveBanners(ctx context.Context, arg ListActiveBannersParams) ([]Banner, error) {
	now := DBTime(arg.Now)
	rows, err := q.db.QueryContext(ctx, `
SELECT `+bannerColumns+` FROM banners
WHERE is_active = 1
  AND (? = '' OR position = ?)
  AND (starts_at IS NULL OR starts_at <= ?)
  AND (ends_at IS NULL OR ends_at > ?)
ORDER BY display_order, id`, arg.Position, arg.Position, now, now)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanBanner)
}

// DeactivateExpiredBanners switches off active banners whose window has ended.
func (q *Queries) DeactivateExpiredBanners(ctx context.Context, now time.Time) (int64, error) {
	t := DBTime(now)
	res, err := q.db.ExecContext(ctx, `
UPDATE banners SET is_active = 0, updated_at = ?
WHERE is_active = 1 AND ends_at IS NOT NULL AND ends_at <= ?`, t, t)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) DeleteBanner(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM banners WHERE id = ?`, id)
	return err
}

const pageColumns = `id, title, slug, content, content_format, meta_title, meta_description, is_published,
show_in_footer, created_at, updated_at`

func scanPage(row rowScanner) (Page, error) {
	var p Page
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.ContentFormat, &p.MetaTitle, &p.MetaDescription,
		&p.IsPublished, &p.ShowInFooter, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

type CreatePageParams struct {
	Title           string
	Slug            string
	Content         string
	ContentFormat   string
	MetaTitle       string
	MetaDescription string
	IsPublished     bool
	ShowInFooter    bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (q *Queries) CreatePage(ctx context.Context, arg CreatePageParams) (Page, error) {
	row := q.db.QueryRowContext(ctx, `
INSERT INTO pages (title, slug, content, content_format, meta_title, meta_description, is_published,
    show_in_footer, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING `+pageColumns,
		arg.Title, arg.Slug, arg.Content, arg.ContentFormat, arg.MetaTitle, arg.MetaDescription, arg.IsPublished,
		arg.ShowInFooter, DBTime(arg.CreatedAt), DBTime(arg.UpdatedAt))
	return scanPage(row)
}

type UpdatePageParams struct {
	Title           string
	Slug            string
	Content         string
	ContentFormat   string
	MetaTitle       string
	MetaDescription string
	IsPublished     bool
	ShowInFooter    bool
	UpdatedAt       time.Time
	ID              int64
}

func (q *Queries) UpdatePage(ctx context.Context, arg UpdatePageParams) (Page, error) {
	row := q.db.QueryRowContext(ctx, `
UPDATE pages
SET title = ?, slug = ?, content = ?, content_format = ?, meta_title = ?, meta_description = ?,
    is_published = ?, show_in_footer = ?, updated_at = ?
WHERE id = ?
RETURNING `+pageColumns,
		arg.Title, arg.Slug, arg.Content, arg.ContentFormat, arg.MetaTitle, arg.MetaDescription, arg.IsPublished,
		arg.ShowInFooter, DBTime(arg.UpdatedAt), arg.ID)
	return scanPage(row)
}

func (q *Queries) GetPageByID(ctx context.Context, id int64) (Page, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+pageColumns+` FROM pages WHERE id = ?`, id)
	return scanPage(row)
}

func (q *Queries) GetPageBySlug(ctx context.Context, slug string) (Page, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+pageColumns+` FROM pages WHERE slug = ?`, slug)
	return scanPage(row)
}

func (q *Queries) ListPages(ctx context.Context, publishedOnly bool) ([]Page, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT `+pageColumns+` FROM pages
WHERE (? = 0 OR is_published = 1)
ORDER BY title COLLATE NOCASE, id`, publishedOnly)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanPage)
}

func (q *Queries) ListFooterPages(ctx context.Context) ([]Page, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT `+pageColumns+` FROM pages
WHERE is_published = 1 AND show_in_footer = 1
ORDER BY title COLLATE NOCASE, id`)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanPage)
}

func (q *Queries) DeletePage(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id)
	return err
}
