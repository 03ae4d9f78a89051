// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

// Favorites

type AddFavoriteParams struct {
	UserID    int64
	ProductID int64
	CreatedAt time.Time
}

// AddFavorite is idempotent.
func (q *Queries) AddFavorite(ctx context.Context, arg AddFavoriteParams) error {
	_, err := q.db.ExecContext(ctx, `
INSERT INTO favorites (user_id, product_id, created_at) VALUES (?, ?, ?)
ON CONFLICT (user_id, product_id) DO NOTHING`,
		arg.UserID, arg.ProductID, DBTime(arg.CreatedAt))
	return err
}

type FavoriteKey struct {
	UserID    int64
	ProductID int64
}

func (q *Queries) RemoveFavorite(ctx context.Context, arg FavoriteKey) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = ? AND product_id = ?`, arg.UserID, arg.ProductID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) IsFavorite(ctx context.Context, arg FavoriteKey) (bool, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM favorites WHERE user_id = ? AND product_id = ?`,
		arg.UserID, arg.ProductID).Scan(&n)
	return n > 0, err
}

// ListFavoriteProducts returns the user's favorited products, most recent first.
func (q *Queries) ListFavoriteProducts(ctx context.Context, userID int64) ([]Product, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT p.id, p.category_id, p.name, p.slug, p.description, p.price, p.sale_price, p.sku,
       p.stock_status, p.stock_quantity, p.images, p.sizes, p.is_featured, p.is_new, p.pre_order, p.is_active,
       p.created_at, p.updated_at
FROM favorites f
JOIN products p ON p.id = f.product_id
WHERE f.user_id = ?
ORDER BY f.created_at DESC, p.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanProduct)
}

// Reviews

const reviewColumns = `id, product_id, user_id, author_name, rating, title, comment, is_approved, created_at, updated_at`

func scanReview(row rowScanner) (Review, error) {
	var r Review
	err := row.Scan(&r.ID, &r.ProductID, &r.UserID, &r.AuthorName, &r.Rating, &r.Title, &r.Comment,
		&r.IsApproved, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

type CreateReviewParams struct {
	ProductID  int64
	UserID     sql.NullInt64
	AuthorName string
	Rating     int64
	Title      string
	Comment    string
	IsApproved bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (q *Queries) CreateReview(ctx context.Context, arg CreateReviewParams) (Review, error) {
	row := q.db.QueryRowContext(ctx, `
INSERT INTO reviews (product_id, user_id, author_name, rating, title, comment, is_approved, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING `+reviewColumns,
		arg.ProductID, arg.UserID, arg.AuthorName, arg.Rating, arg.Title, arg.Comment, arg.IsApproved,
		DBTime(arg.CreatedAt), DBTime(arg.UpdatedAt))
	return scanReview(row)
}

func (q *Queries) GetReviewByID(ctx context.Context, id int64) (Review, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id)
	return scanReview(row)
}

type CountUserReviewsForProductParams struct {
	ProductID int64
	UserID    int64
}

func (q *Queries) CountUserReviewsForProduct(ctx context.Context, arg CountUserReviewsForProductParams) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews WHERE product_id = ? AND user_id = ?`,
		arg.ProductID, arg.UserID).Scan(&n)
	return n, err
}

type ListApprovedReviewsParams struct {
	ProductID int64
	Limit     int64
	Offset    int64
}

func (q *Queries) ListApprovedReviews(ctx context.Context, arg ListApprovedReviewsParams) ([]Review, error) {
	limit := arg.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := q.db.QueryContext(ctx, `
SELECT `+reviewColumns+` FROM reviews
WHERE product_id = ? AND is_approved = 1
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`, arg.ProductID, limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanReview)
}

// ReviewSummary is the approved-review aggregate for a product.
type ReviewSummary struct {
	Count   int64
	Average float64
}

func (q *Queries) GetReviewSummary(ctx context.Context, productID int64) (ReviewSummary, error) {
	var s ReviewSummary
	err := q.db.QueryRowContext(ctx, `
SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM reviews
WHERE product_id = ? AND is_approved = 1`, productID).Scan(&s.Count, &s.Average)
	return s, err
}

type ListReviewsParams struct {
	// Approved filters by approval state when Valid.
	Approved sql.NullBool
	Limit    int64
	Offset   int64
}

func (q *Queries) ListReviews(ctx context.Context, arg ListReviewsParams) ([]Review, error) {
	limit := arg.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := q.db.QueryContext(ctx, `
SELECT `+reviewColumns+` FROM reviews
WHERE (? IS NULL OR is_approved = ?)
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`, arg.Approved, arg.Approved, limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanReview)
}

func (q *Queries) CountReviews(ctx context.Context, approved sql.NullBool) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews WHERE (? IS NULL OR is_approved = ?)`,
		approved, approved).Scan(&n)
	return n, err
}

type SetReviewApprovedParams struct {
	IsApproved bool
	UpdatedAt  time.Time
	ID         int64
}

func (q *Queries) SetReviewApproved(ctx context.Context, arg SetReviewApprovedParams) (Review, error) {
	row := q.db.QueryRowContext(ctx, `
UPDATE reviews SET is_approved = ?, updated_at = ? WHERE id = ?
RETURNING `+reviewColumns, arg.IsApproved, DBTime(arg.UpdatedAt), arg.ID)
	return scanReview(row)
}

func (q *Queries) DeleteReview(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	return err
}

// Newsletter

const newsletterColumns = `id, email, name, is_active, unsubscribe_token, subscribed_at, unsubscribed_at`

func scanSubscription(row rowScanner) (NewsletterSubscription, error) {
	var s NewsletterSubscription
	err := row.Scan(&s.ID, &s.Email, &s.Name, &s.IsActive, &s.UnsubscribeToken, &s.SubscribedAt, &s.UnsubscribedAt)
	return s, err
}

type UpsertSubscriptionParams struct {
	Email            string
	Name             string
	UnsubscribeToken string
	SubscribedAt     time.Time
}

// UpsertSubscription subscribes email, reactivating a previous unsubscription.
// The original token is kept for existing rows.
func (q *Queries) UpsertSubscription(ctx context.Context, arg UpsertSubscriptionParams) (NewsletterSubscription, error) {
	row := q.db.QueryRowContext(ctx, `
INSERT INTO newsletter_subscriptions (email, name, is_active, unsubscribe_token, subscribed_at)
VALUES (?, ?, 1, ?, ?)
ON CONFLICT (email) DO UPDATE SET
    name = CASE WHEN excluded.name != '' THEN excluded.name ELSE newsletter_subscriptions.name END,
    is_active = 1,
    subscribed_at = CASE WHEN newsletter_subscriptions.is_active = 1
        THEN newsletter_subscriptions.subscribed_at ELSE excluded.subscribed_at END,
    unsubscribed_at = NULL
RETURNING `+newsletterColumns,
		arg.Email, arg.Name, arg.UnsubscribeToken, DBTime(arg.SubscribedAt))
	return scanSubscription(row)
}

func (q *Queries) GetSubscriptionByEmail(ctx context.Context, email string) (NewsletterSubscription, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+newsletterColumns+` FROM newsletter_subscriptions WHERE email = ?`, email)
	return scanSubscription(row)
}

type UnsubscribeParams struct {
	UnsubscribedAt time.Time
	Token          string
}

func (q *Queries) UnsubscribeByToken(ctx context.Context, arg UnsubscribeParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
UPDATE newsletter_subscriptions SET is_active = 0, unsubscribed_at = ?
WHERE unsubscribe_token = ? AND is_active = 1`, DBTime(arg.UnsubscribedAt), arg.Token)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type UnsubscribeEmailParams struct {
	UnsubscribedAt time.Time
	Email          string
}

func (q *Queries) UnsubscribeByEmail(ctx context.Context, arg UnsubscribeEmailParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
UPDATE newsletter_subscriptions SET is_active = 0, unsubscribed_at = ?
WHERE email = ? AND is_active = 1`, DBTime(arg.UnsubscribedAt), arg.Email)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type ListSubscriptionsParams struct {
	ActiveOnly bool
	Limit      int64
	Offset     int64
}

func (q *Queries) ListSubscriptions(ctx context.Context, arg ListSubscriptionsParams) ([]NewsletterSubscription, error) {
	limit := arg.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := q.db.QueryContext(ctx, `
SELECT `+newsletterColumns+` FROM newsletter_subscriptions
WHERE (? = 0 OR is_active = 1)
ORDER BY subscribed_at DESC, id DESC
LIMIT ? OFFSET ?`, arg.ActiveOnly, limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanSubscription)
}

func (q *Queries) CountSubscriptions(ctx context.Context, activeOnly bool) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM newsletter_subscriptions WHERE (? = 0 OR is_active = 1)`,
		activeOnly).Scan(&n)
	return n, err
}

func (q *Queries) DeleteSubscription(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM newsletter_subscriptions WHERE id = ?`, id)
	return err
}

// Special size requests

const specialSizeColumns = `id, user_id, product_id, name, email, phone, measurements, notes, status, admin_note, created_at, updated_at`

func scanSpecialSizeRequest(row rowScanner) (SpecialSizeRequest, error) {
	var r SpecialSizeRequest
	err := row.Scan(&r.ID, &r.UserID, &r.ProductID, &r.Name, &r.Email, &r.Phone, &r.Measurements, &r.Notes,
		&r.Status, &r.AdminNote, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

type CreateSpecialSizeRequestParams struct {
	UserID       sql.NullInt64
	ProductID    sql.NullInt64
	Name         string
	Email        string
	Phone        string
	Measurements string
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (q *Queries) CreateSpecialSizeRequest(ctx context.Context, arg CreateSpecialSizeRequestParams) (SpecialSizeRequest, error) {
	row := q.db.QueryRowContext(ctx, `
INSERT INTO special_size_requests (user_id, product_id, name, email, phone, measurements, notes, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING `+specialSizeColumns,
		arg.UserID, arg.ProductID, arg.Name, arg.Email, arg.Phone, arg.Measurements, arg.Notes,
		DBTime(arg.CreatedAt), DBTime(arg.UpdatedAt))
	return scanSpecialSizeRequest(row)
}

func (q *Queries) GetSpecialSizeRequest(ctx context.Context, id int64) (SpecialSizeRequest, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+specialSizeColumns+` FROM special_size_requests WHERE id = ?`, id)
	return scanSpecialSizeRequest(row)
}

type ListSpecialSizeRequestsParams struct {
	Status string
	Limit  int64
	Offset int64
}

func (q *Queries) ListSpecialSizeRequests(ctx context.Context, arg ListSpecialSizeRequestsParams) ([]SpecialSizeRequest, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT `+specialSizeColumns+` FROM special_size_requests
WHERE (? = '' OR status = ?)
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`, arg.Status, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanSpecialSizeRequest)
}

func (q *Queries) CountSpecialSizeRequests(ctx context.Context, status string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM special_size_requests WHERE (? = '' OR status = ?)`,
		status, status).Scan(&n)
	return n, err
}

type UpdateSpecialSizeRequestParams struct {
	Status    string
	AdminNote string
	UpdatedAt time.Time
	ID        int64
}

func (q *Queries) UpdateSpecialSizeRequest(ctx context.Context, arg UpdateSpecialSizeRequestParams) (SpecialSizeRequest, error) {
	row := q.db.QueryRowContext(ctx, `
UPDATE special_size_requests SET status = ?, admin_note = ?, updated_at = ? WHERE id = ?
RETURNING `+specialSizeColumns, arg.Status, arg.AdminNote, DBTime(arg.UpdatedAt), arg.ID)
	return scanSpecialSizeRequest(row)
}

func (q *Queries) DeleteSpecialSizeRequest(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM special_size_requests WHERE id = ?`, id)
	return err
}
