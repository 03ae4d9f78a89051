// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SalesTotals aggregates non-cancelled orders created at or after Since.
type SalesTotals struct {
	Revenue    decimal.Decimal
	OrderCount int64
	Customers  int64
}

func (q *Queries) GetSalesTotals(ctx context.Context, since time.Time) (SalesTotals, error) {
	var t SalesTotals
	err := q.db.QueryRowContext(ctx, `
SELECT COALESCE(SUM(total_amount), 0), COUNT(*), COUNT(DISTINCT lower(customer_email))
FROM orders
WHERE status != 'cancelled' AND created_at >= ?`, DBTime(since)).Scan(&t.Revenue, &t.OrderCount, &t.Customers)
	return t, err
}

// StatusCount is the number of orders in one status.
type StatusCount struct {
	Status string
	Count  int64
}

func (q *Queries) CountOrdersByStatus(ctx context.Context, since time.Time) ([]StatusCount, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT status, COUNT(*) FROM orders
WHERE created_at >= ?
GROUP BY status
ORDER BY status`, DBTime(since))
	if err != nil {
		return nil, err
	}
	return scanAll(rows, func(row rowScanner) (StatusCount, error) {
		var s StatusCount
		err := row.Scan(&s.Status, &s.Count)
		return s, err
	})
}

// DailyRevenue is one point of the revenue series. Day is YYYY-MM-DD (UTC).
type DailyRevenue struct {
	Day     string
	Revenue decimal.Decimal
	Orders  int64
}

func (q *Queries) ListDailyRevenue(ctx context.Context, since time.Time) ([]DailyRevenue, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT substr(created_at, 1, 10) AS day, COALESCE(SUM(total_amount), 0), COUNT(*)
FROM orders
WHERE status != 'cancelled' AND created_at >= ?
GROUP BY day
ORDER BY day`, DBTime(since))
	if err != nil {
		return nil, err
	}
	return scanAll(rows, func(row rowScanner) (DailyRevenue, error) {
		var d DailyRevenue
		err := row.Scan(&d.Day, &d.Revenue, &d.Orders)
		return d, err
	})
}

// TopProduct is a product ranked by quantity sold.
type TopProduct struct {
	ProductID   int64
	ProductName string
	Quantity    int64
	Revenue     decimal.Decimal
}

func (q *Queries) ListTopProducts(ctx context.Context, since time.Time, limit int64) ([]TopProduct, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT COALESCE(oi.product_id, 0), oi.product_name, SUM(oi.quantity) AS qty, COALESCE(SUM(oi.line_total), 0)
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
WHERE o.status != 'cancelled' AND o.created_at >= ?
GROUP BY oi.product_id, oi.product_name
ORDER BY qty DESC, oi.product_name
LIMIT ?`, DBTime(since), limit)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, func(row rowScanner) (TopProduct, error) {
		var p TopProduct
		err := row.Scan(&p.ProductID, &p.ProductName, &p.Quantity, &p.Revenue)
		return p, err
	})
}

// ViewedProduct is a product ranked by recorded views.
type ViewedProduct struct {
	ProductID int64
	Name      string
	Slug      string
	Views     int64
}

func (q *Queries) ListMostViewedProducts(ctx context.Context, since time.Time, limit int64) ([]ViewedProduct, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT p.id, p.name, p.slug, COUNT(v.id) AS views
FROM product_views v
JOIN products p ON p.id = v.product_id
WHERE v.created_at >= ?
GROUP BY p.id, p.name, p.slug
ORDER BY views DESC, p.id
LIMIT ?`, DBTime(since), limit)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, func(row rowScanner) (ViewedProduct, error) {
		var v ViewedProduct
		err := row.Scan(&v.ProductID, &v.Name, &v.Slug, &v.Views)
		return v, err
	})
}

// DeviceCount is the number of product views from one device type.
type DeviceCount struct {
	DeviceType string
	Views      int64
}

func (q *Queries) CountViewsByDevice(ctx context.Context, since time.Time) ([]DeviceCount, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT device_type, COUNT(*) AS views FROM product_views
WHERE created_at >= ?
GROUP BY device_type
ORDER BY views DESC, device_type`, DBTime(since))
	if err != nil {
		return nil, err
	}
	return scanAll(rows, func(row rowScanner) (DeviceCount, error) {
		var d DeviceCount
		err := row.Scan(&d.DeviceType, &d.Views)
		return d, err
	})
}

// CatalogCounts holds store-wide counters that do not depend on a period.
type CatalogCounts struct {
	Products       int64
	ActiveProducts int64
	Categories     int64
	Users          int64
	PendingOrders  int64
	Subscribers    int64
	PendingReviews int64
	OpenRequests   int64
}

func (q *Queries) GetCatalogCounts(ctx context.Context) (CatalogCounts, error) {
	var c CatalogCounts
	err := q.db.QueryRowContext(ctx, `
SELECT
    (SELECT COUNT(*) FROM products),
    (SELECT COUNT(*) FROM products WHERE is_active = 1),
    (SELECT COUNT(*) FROM categories),
    (SELECT COUNT(*) FROM users),
    (SELECT COUNT(*) FROM orders WHERE status = 'pending'),
    (SELECT COUNT(*) FROM newsletter_subscriptions WHERE is_active = 1),
    (SELECT COUNT(*) FROM reviews WHERE is_approved = 0),
    (SELECT COUNT(*) FROM special_size_requests WHERE status = 'new')`).Scan(
		&c.Products, &c.ActiveProducts, &c.Categories, &c.Users,
		&c.PendingOrders, &c.Subscribers, &c.PendingReviews, &c.OpenRequests,
	)
	return c, err
}
