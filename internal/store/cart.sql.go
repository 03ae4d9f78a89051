// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const cartSessionColumns = `id, user_id, expires_at, created_at, updated_at`

func scanCartSession(row rowScanner) (CartSession, error) {
	var s CartSession
	err := row.Scan(&s.ID, &s.UserID, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

type UpsertCartSessionParams struct {
	ID        string
	UserID    sql.NullInt64
	ExpiresAt time.Time
	Now       time.Time
}

// UpsertCartSession creates the session or extends its expiry. A user id,
// once attached, is never cleared by a later anonymous write.
func (q *Queries) UpsertCartSession(ctx context.Context, arg UpsertCartSessionParams) (CartSession, error) {
	row := q.db.QueryRowContext(ctx, `
INSERT INTO cart_sessions (id, user_id, expires_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    user_id = COALESCE(cart_sessions.user_id, excluded.user_id),
    expires_at = excluded.expires_at,
    updated_at = excluded.updated_at
RETURNING `+cartSessionColumns,
		arg.ID, arg.UserID, DBTime(arg.ExpiresAt), DBTime(arg.Now), DBTime(arg.Now))
	return scanCartSession(row)
}

func (q *Queries) GetCartSession(ctx context.Context, id string) (CartSession, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+cartSessionColumns+` FROM cart_sessions WHERE id = ?`, id)
	return scanCartSession(row)
}

// DeleteExpiredCartSessions removes sessions past their expiry; items go with them.
func (q *Queries) DeleteExpiredCartSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM cart_sessions WHERE expires_at < ?`, DBTime(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) CountActiveCartSessions(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM cart_sessions s
WHERE s.expires_at >= ? AND EXISTS (SELECT 1 FROM cart_items i WHERE i.session_id = s.id)`,
		DBTime(now)).Scan(&n)
	return n, err
}

const cartItemColumns = `id, session_id, product_id, size, quantity, created_at, updated_at`

func scanCartItem(row rowScanner) (CartItem, error) {
	var i CartItem
	err := row.Scan(&i.ID, &i.SessionID, &i.ProductID, &i.Size, &i.Quantity, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

func (q *Queries) GetCartItem(ctx context.Context, id int64) (CartItem, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+cartItemColumns+` FROM cart_items WHERE id = ?`, id)
	return scanCartItem(row)
}

type GetCartItemByProductParams struct {
	SessionID string
	ProductID int64
	Size      string
}

func (q *Queries) GetCartItemByProduct(ctx context.Context, arg GetCartItemByProductParams) (CartItem, error) {
	row := q.db.QueryRowContext(ctx, `
SELECT `+cartItemColumns+` FROM cart_items
WHERE session_id = ? AND product_id = ? AND size = ?`,
		arg.SessionID, arg.ProductID, arg.Size)
	return scanCartItem(row)
}

type CreateCartItemParams struct {
	SessionID string
	ProductID int64
	Size      string
	Quantity  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (q *Queries) CreateCartItem(ctx context.Context, arg CreateCartItemParams) (CartItem, error) {
	row := q.db.QueryRowContext(ctx, `
INSERT INTO cart_items (session_id, product_id, size, quantity, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING `+cartItemColumns,
		arg.SessionID, arg.ProductID, arg.Size, arg.Quantity, DBTime(arg.CreatedAt), DBTime(arg.UpdatedAt))
	return scanCartItem(row)
}

type UpdateCartItemQuantityParams struct {
	Quantity  int64
	UpdatedAt time.Time
	ID        int64
}

func (q *Queries) UpdateCartItemQuantity(ctx context.Context, arg UpdateCartItemQuantityParams) (CartItem, error) {
	row := q.db.QueryRowContext(ctx, `
UPDATE cart_items SET quantity = ?, updated_at = ? WHERE id = ?
RETURNING `+cartItemColumns,
		arg.Quantity, DBTime(arg.UpdatedAt), arg.ID)
	return scanCartItem(row)
}

func (q *Queries) DeleteCartItem(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = ?`, id)
	return err
}

func (q *Queries) ClearCartItems(ctx context.Context, sessionID string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM cart_items WHERE session_id = ?`, sessionID)
	return err
}

// CartLine is a cart item joined with the product it refers to.
type CartLine struct {
	CartItem
	Product Product
}

func (q *Queries) ListCartLines(ctx context.Context, sessionID string) ([]CartLine, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT i.id, i.session_id, i.product_id, i.size, i.quantity, i.created_at, i.updated_at,
       p.id, p.category_id, p.name, p.slug, p.description, p.price, p.sale_price, p.sku,
       p.stock_status, p.stock_quantity, p.images, p.sizes, p.is_featured, p.is_new, p.pre_order, p.is_active,
       p.created_at, p.updated_at
FROM cart_items i
JOIN products p ON p.id = i.product_id
WHERE i.session_id = ?
ORDER BY i.created_at, i.id`, sessionID)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, func(row rowScanner) (CartLine, error) {
		var l CartLine
		p := &l.Product
		err := row.Scan(
			&l.ID, &l.SessionID, &l.ProductID, &l.Size, &l.Quantity, &l.CreatedAt, &l.UpdatedAt,
			&p.ID, &p.CategoryID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.SalePrice, &p.Sku,
			&p.StockStatus, &p.StockQuantity, &p.Images, &p.Sizes, &p.IsFeatured, &p.IsNew, &p.PreOrder, &p.IsActive,
			&p.CreatedAt, &p.UpdatedAt,
		)
		return l, err
	})
}
