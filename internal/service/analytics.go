// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/store"
)

// Analytics period bounds in days.
const (
	DefaultAnalyticsDays = 30
	MaxAnalyticsDays     = 365
	analyticsListLimit   = 10
)

// AnalyticsTotals are the headline numbers of the dashboard.
type AnalyticsTotals struct {
	Revenue           decimal.Decimal
	Orders            int64
	AverageOrderValue decimal.Decimal
	Customers         int64
	Products          int64
	ActiveProducts    int64
	Categories        int64
	Users             int64
	PendingOrders     int64
	Subscribers       int64
	PendingReviews    int64
	OpenSizeRequests  int64
	ActiveCarts       int64
}

// Dashboard is the admin analytics report for a period.
type Dashboard struct {
	Days           int
	Since          time.Time
	Totals         AnalyticsTotals
	OrdersByStatus map[string]int64
	DailyRevenue   []store.DailyRevenue
	TopProducts    []store.TopProduct
	LowStock       []store.Product
	MostViewed     []store.ViewedProduct
	ViewsByDevice  []store.DeviceCount
}

// AnalyticsService builds the admin dashboard from aggregate queries.
type AnalyticsService struct {
	queries  *store.Queries
	lowStock int64
}

// NewAnalyticsService creates an AnalyticsService.
func NewAnalyticsService(db *sql.DB, lowStock int64) *AnalyticsService {
	if lowStock <= 0 {
		lowStock = model.DefaultLowStockThreshold
	}
	return &AnalyticsService{queries: store.New(db), lowStock: lowStock}
}

// ClampDays bounds a requested period to [1, MaxAnalyticsDays].
func ClampDays(days int) int {
	switch {
	case days <= 0:
		return DefaultAnalyticsDays
	case days > MaxAnalyticsDays:
		return MaxAnalyticsDays
	default:
		return days
	}
}

// Dashboard returns the report for the last days days, today included.
func (s *AnalyticsService) Dashboard(ctx context.Context, days int) (*Dashboard, error) {
	days = ClampDays(days)
	today := store.Now().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(days - 1))

	d := &Dashboard{Days: days, Since: since, OrdersByStatus: make(map[string]int64)}

	sales, err := s.queries.GetSalesTotals(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("loading sales totals: %w", err)
	}
	counts, err := s.queries.GetCatalogCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog counts: %w", err)
	}
	d.Totals = AnalyticsTotals{
		Revenue:           sales.Revenue.Round(2),
		Orders:            sales.OrderCount,
		AverageOrderValue: decimal.Zero,
		Customers:         sales.Customers,
		Products:          counts.Products,
		ActiveProducts:    counts.ActiveProducts,
		Categories:        counts.Categories,
		Users:             counts.Users,
		PendingOrders:     counts.PendingOrders,
		Subscribers:       counts.Subscribers,
		PendingReviews:    counts.PendingReviews,
		OpenSizeRequests:  counts.OpenRequests,
	}
	if d.Totals.ActiveCarts, err = s.queries.CountActiveCartSessions(ctx, store.Now()); err != nil {
		return nil, fmt.Errorf("counting active carts: %w", err)
	}
	if sales.OrderCount > 0 {
		d.Totals.AverageOrderValue = sales.Revenue.Div(decimal.NewFromInt(sales.OrderCount)).Round(2)
	}

	for _, st := range model.OrderStatuses() {
		d.OrdersByStatus[st] = 0
	}
	byStatus, err := s.queries.CountOrdersByStatus(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("counting orders by status: %w", err)
	}
	for _, sc := range byStatus {
		d.OrdersByStatus[sc.Status] = sc.Count
	}

	daily, err := s.queries.ListDailyRevenue(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("loading daily revenue: %w", err)
	}
	d.DailyRevenue = fillDays(daily, since, days)

	if d.TopProducts, err = s.queries.ListTopProducts(ctx, since, analyticsListLimit); err != nil {
		return nil, fmt.Errorf("loading top products: %w", err)
	}
	if d.LowStock, err = s.queries.ListLowStockProducts(ctx, s.lowStock, analyticsListLimit); err != nil {
		return nil, fmt.Errorf("loading low stock products: %w", err)
	}
	if d.MostViewed, err = s.queries.ListMostViewedProducts(ctx, since, analyticsListLimit); err != nil {
		return nil, fmt.Errorf("loading most viewed products: %w", err)
	}
	if d.ViewsByDevice, err = s.queries.CountViewsByDevice(ctx, since); err != nil {
		return nil, fmt.Errorf("counting views by device: %w", err)
	}

	if d.TopProducts == nil {
		d.TopProducts = []store.TopProduct{}
	}
	if d.LowStock == nil {
		d.LowStock = []store.Product{}
	}
	if d.MostViewed == nil {
		d.MostViewed = []store.ViewedProduct{}
	}
	if d.ViewsByDevice == nil {
		d.ViewsByDevice = []store.DeviceCount{}
	}
	return d, nil
}

// fillDays returns one entry per day starting at since, with zero revenue
// for days without orders.
func fillDays(rows []store.DailyRevenue, since time.Time, days int) []store.DailyRevenue {
	byDay := make(map[string]store.DailyRevenue, len(rows))
	for _, r := range rows {
		byDay[r.Day] = r
	}
	out := make([]store.DailyRevenue, 0, days)
	for i := range days {
		day := since.AddDate(0, 0, i).Format(time.DateOnly)
		r, ok := byDay[day]
		if !ok {
			r = store.DailyRevenue{Day: day, Revenue: decimal.Zero}
		}
		r.Revenue = r.Revenue.Round(2)
		out = append(out, r)
	}
	return out
}
