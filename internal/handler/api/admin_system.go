// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/ocms-shop/internal/handler"
	"github.com/olegiv/ocms-shop/internal/middleware"
	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/service"
	"github.com/olegiv/ocms-shop/internal/store"
)

// AnalyticsTotalsResponse holds the headline numbers of the dashboard.
type AnalyticsTotalsResponse struct {
	Revenue           string `json:"revenue"`
	Orders            int64  `json:"orders"`
	AverageOrderValue string `json:"average_order_value"`
	Customers         int64  `json:"customers"`
	Products          int64  `json:"products"`
	ActiveProducts    int64  `json:"active_products"`
	Categories        int64  `json:"categories"`
	Users             int64  `json:"users"`
	PendingOrders     int64  `json:"pending_orders"`
	Subscribers       int64  `json:"newsletter_subscribers"`
	PendingReviews    int64  `json:"pending_reviews"`
	OpenSizeRequests  int64  `json:"open_size_requests"`
	ActiveCarts       int64  `json:"active_carts"`
}

// DailyRevenueResponse is one day of the revenue series.
type DailyRevenueResponse struct {
	Date    string `json:"date"`
	Revenue string `json:"revenue"`
	Orders  int64  `json:"orders"`
}

// TopProductResponse is a best seller of the period.
type TopProductResponse struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
	Revenue   string `json:"revenue"`
}

// ViewedProductResponse is a most viewed product of the period.
type ViewedProductResponse struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Views     int64  `json:"views"`
}

// DashboardResponse is the admin analytics report.
type DashboardResponse struct {
	Days           int                     `json:"days"`
	Since          time.Time               `json:"since"`
	Totals         AnalyticsTotalsResponse `json:"totals"`
	OrdersByStatus map[string]int64        `json:"orders_by_status"`
	DailyRevenue   []DailyRevenueResponse  `json:"daily_revenue"`
	TopProducts    []TopProductResponse    `json:"top_products"`
	LowStock       []ProductResponse       `json:"low_stock"`
	MostViewed     []ViewedProductResponse `json:"most_viewed"`
	ViewsByDevice  map[string]int64        `json:"views_by_device"`
}

func dashboardToResponse(d *service.Dashboard) DashboardResponse {
	t := d.Totals
	resp := DashboardResponse{
		Days:  d.Days,
		Since: d.Since,
		Totals: AnalyticsTotalsResponse{
			Revenue:           money(t.Revenue),
			Orders:            t.Orders,
			AverageOrderValue: money(t.AverageOrderValue),
			Customers:         t.Customers,
			Products:          t.Products,
			ActiveProducts:    t.ActiveProducts,
			Categories:        t.Categories,
			Users:             t.Users,
			PendingOrders:     t.PendingOrders,
			Subscribers:       t.Subscribers,
			PendingReviews:    t.PendingReviews,
			OpenSizeRequests:  t.OpenSizeRequests,
			ActiveCarts:       t.ActiveCarts,
		},
		OrdersByStatus: d.OrdersByStatus,
		DailyRevenue:   make([]DailyRevenueResponse, len(d.DailyRevenue)),
		TopProducts:    make([]TopProductResponse, len(d.TopProducts)),
		LowStock:       productsToResponse(d.LowStock),
		MostViewed:     make([]ViewedProductResponse, len(d.MostViewed)),
		ViewsByDevice:  make(map[string]int64, len(d.ViewsByDevice)),
	}
	for i, day := range d.DailyRevenue {
		resp.DailyRevenue[i] = DailyRevenueResponse{Date: day.Day, Revenue: money(day.Revenue), Orders: day.Orders}
	}
	for i, p := range d.TopProducts {
		resp.TopProducts[i] = TopProductResponse{
			ProductID: p.ProductID, Name: p.ProductName, Quantity: p.Quantity, Revenue: money(p.Revenue),
		}
	}
	for i, p := range d.MostViewed {
		resp.MostViewed[i] = ViewedProductResponse{ProductID: p.ProductID, Name: p.Name, Slug: p.Slug, Views: p.Views}
	}
	for _, dc := range d.ViewsByDevice {
		resp.ViewsByDevice[dc.DeviceType] = dc.Views
	}
	return resp
}

// AdminAnalytics handles GET /api/admin/analytics?days=30.
func (h *Handler) AdminAnalytics(w http.ResponseWriter, r *http.Request) {
	days := handler.ParseIntParam(r, "days", service.DefaultAnalyticsDays, 1, service.MaxAnalyticsDays)
	d, err := h.svc.Analytics.Dashboard(r.Context(), days)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	WriteSuccess(w, dashboardToResponse(d), nil)
}

// AdminListEvents handles GET /api/admin/events?level=&category=.
func (h *Handler) AdminListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := paging(r)
	events, total, err := h.svc.Events.List(r.Context(), service.EventFilter{
		Level:    strings.TrimSpace(q.Get("level")),
		Category: strings.TrimSpace(q.Get("category")),
		Limit:    p.Limit(),
		Offset:   p.Offset(),
	})
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	out := make([]EventResponse, len(events))
	for i, e := range events {
		out[i] = eventToResponse(e)
	}
	WriteSuccess(w, out, newMeta(total, p))
}

// AdminCacheStats handles GET /api/admin/cache/stats.
func (h *Handler) AdminCacheStats(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, h.svc.Cache.Stats(), nil)
}

// AdminClearCache handles POST /api/admin/cache/clear.
func (h *Handler) AdminClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Cache.ClearAll(r.Context()); err != nil {
		h.fail(w, r, err, "")
		return
	}
	userID := middleware.GetUserIDPtr(r)
	_ = h.svc.Events.LogCacheEvent(r.Context(), model.EventLevelInfo, "Cache cleared", userID, nil)
	WriteMessage(w, "Önbellek temizlendi")
}

// AdminListWebhookDeliveries handles GET /api/admin/webhooks/deliveries?status=.
func (h *Handler) AdminListWebhookDeliveries(w http.ResponseWriter, r *http.Request) {
	p := paging(r)
	deliveries, err := h.queries.ListWebhookDeliveries(r.Context(), store.ListWebhookDeliveriesParams{
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
		Limit:  p.Limit(),
		Offset: p.Offset(),
	})
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	out := make([]WebhookDeliveryResponse, len(deliveries))
	for i, d := range deliveries {
		out[i] = deliveryToResponse(d)
	}
	WriteSuccess(w, out, nil)
}
