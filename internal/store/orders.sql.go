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

const orderColumns = `id, order_number, user_id, session_id, status, subtotal, shipping_cost, total_amount,
customer_name, customer_email, customer_phone, shipping_address, city, postal_code, notes, tracking_number,
created_at, updated_at`

func scanOrder(row rowScanner) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.UserID,
		&o.SessionID,
		&o.Status,
		&o.Subtotal,
		&o.ShippingCost,
		&o.TotalAmount,
		&o.CustomerName,
		&o.CustomerEmail,
		&o.CustomerPhone,
		&o.ShippingAddress,
		&o.City,
		&o.PostalCode,
		&o.Notes,
		&o.TrackingNumber,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	return o, err
}

type CreateOrderParams struct {
	OrderNumber     string
	UserID          sql.NullInt64
	SessionID       string
	Status          string
	Subtotal        decimal.Decimal
	ShippingCost    decimal.Decimal
	TotalAmount     decimal.Decimal
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ShippingAddress string
	City            string
	PostalCode      string
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRowContext(ctx, `
INSERT INTO orders (order_number, user_id, session_id, status, subtotal, shipping_cost, total_amount,
    customer_name, customer_email, customer_phone, shipping_address, city, postal_code, notes, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING `+orderColumns,
		arg.OrderNumber, arg.UserID, arg.SessionID, arg.Status, arg.Subtotal, arg.ShippingCost, arg.TotalAmount,
		arg.CustomerName, arg.CustomerEmail, arg.CustomerPhone, arg.ShippingAddress, arg.City, arg.PostalCode,
		arg.Notes, DBTime(arg.CreatedAt), DBTime(arg.UpdatedAt))
	return scanOrder(row)
}

func (q *Queries) GetOrderByID(ctx context.Context, id int64) (Order, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	return scanOrder(row)
}

func (q *Queries) GetOrderByNumber(ctx context.Context, orderNumber string) (Order, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number = ?`, orderNumber)
	return scanOrder(row)
}

func (q *Queries) OrderNumberExists(ctx context.Context, orderNumber string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE order_number = ?`, orderNumber).Scan(&n)
	return n, err
}

// OrderFilter narrows order listings for customers and administrators.
type OrderFilter struct {
	UserID int64
	Status string
	Search string
	From   sql.NullTime
	To     sql.NullTime
	Limit  int64
	Offset int64
}

func (f OrderFilter) where() (string, []any) {
	var conds []string
	var args []any
	if f.UserID > 0 {
		conds = append(conds, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		conds = append(conds, "(order_number LIKE '%' || ? || '%' OR customer_name LIKE '%' || ? || '%' OR customer_email LIKE '%' || ? || '%')")
		args = append(args, s, s, s)
	}
	if f.From.Valid {
		conds = append(conds, "created_at >= ?")
		args = append(args, DBTime(f.From.Time))
	}
	if f.To.Valid {
		conds = append(conds, "created_at < ?")
		args = append(args, DBTime(f.To.Time))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (q *Queries) ListOrders(ctx context.Context, f OrderFilter) ([]Order, error) {
	where, args := f.where()
	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit, f.Offset)
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders`+where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanOrder)
}

func (q *Queries) CountOrders(ctx context.Context, f OrderFilter) (int64, error) {
	where, args := f.where()
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&n)
	return n, err
}

type UpdateOrderStatusParams struct {
	Status    string
	UpdatedAt time.Time
	ID        int64
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRowContext(ctx, `
UPDATE orders SET status = ?, updated_at = ? WHERE id = ?
RETURNING `+orderColumns,
		arg.Status, DBTime(arg.UpdatedAt), arg.ID)
	return scanOrder(row)
}

type UpdateOrderTrackingParams struct {
	TrackingNumber string
	UpdatedAt      time.Time
	ID             int64
}

func (q *Queries) UpdateOrderTracking(ctx context.Context, arg UpdateOrderTrackingParams) (Order, error) {
	row := q.db.QueryRowContext(ctx, `
UPDATE orders SET tracking_number = ?, updated_at = ? WHERE id = ?
RETURNING `+orderColumns,
		arg.TrackingNumber, DBTime(arg.UpdatedAt), arg.ID)
	return scanOrder(row)
}

const orderItemColumns = `id, order_id, product_id, product_name, size, quantity, unit_price, line_total, created_at`

func scanOrderItem(row rowScanner) (OrderItem, error) {
	var i OrderItem
	err := row.Scan(&i.ID, &i.OrderID, &i.ProductID, &i.ProductName, &i.Size, &i.Quantity,
		&i.UnitPrice, &i.LineTotal, &i.CreatedAt)
	return i, err
}

type CreateOrderItemParams struct {
	OrderID     int64
	ProductID   sql.NullInt64
	ProductName string
	Size        string
	Quantity    int64
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
	CreatedAt   time.Time
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRowContext(ctx, `
INSERT INTO order_items (order_id, product_id, product_name, size, quantity, unit_price, line_total, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING `+orderItemColumns,
		arg.OrderID, arg.ProductID, arg.ProductName, arg.Size, arg.Quantity, arg.UnitPrice, arg.LineTotal,
		DBTime(arg.CreatedAt))
	return scanOrderItem(row)
}

func (q *Queries) ListOrderItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+orderItemColumns+` FROM order_items WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanOrderItem)
}
