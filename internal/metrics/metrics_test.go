// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// gathered returns the sum of all samples of the named metric family.
func gathered(t *testing.T, m *Metrics, name string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var sum float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, metric := range f.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				sum += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				sum += metric.GetGauge().GetValue()
			case metric.GetHistogram() != nil:
				sum += float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}
	return sum
}

func TestMiddleware_CountsRequests(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/products/{slug}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", m.Handler())

	for _, slug := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/"+slug, nil))
		if rec.Code != http.StatusTeapot {
			t.Fatalf("status = %d", rec.Code)
		}
	}

	if got := gathered(t, m, "shop_http_requests_total"); got != 3 {
		t.Errorf("requests_total = %v, want 3", got)
	}
	if got := gathered(t, m, "shop_http_request_duration_seconds"); got != 3 {
		t.Errorf("duration samples = %v, want 3", got)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `route="/api/products/{slug}"`) {
		t.Errorf("metrics output missing route label:\n%s", body)
	}
	if got := gathered(t, m, "shop_http_requests_total"); got != 3 {
		t.Errorf("/metrics should not be counted, got %v", got)
	}
}

func TestBusinessCounters(t *testing.T) {
	m := New()
	m.OrderCreated(decimal.RequireFromString("149.50"))
	m.OrderCreated(decimal.RequireFromString("50.50"))
	m.OrderStatusChanged("shipped")
	m.CartOperation("add")
	m.CartOperation("add")
	m.CartOperation("remove")
	m.WebhookDelivery(true)
	m.WebhookDelivery(false)
	m.ImportRows("created", 4)
	m.ImportRows("skipped", 0)

	tests := []struct {
		name string
		want float64
	}{
		{"shop_orders_created_total", 2},
		{"shop_orders_revenue_total", 200},
		{"shop_orders_status_changes_total", 1},
		{"shop_cart_operations_total", 3},
		{"shop_webhook_deliveries_total", 2},
		{"shop_import_rows_total", 4},
	}
	for _, tt := range tests {
		if got := gathered(t, m, tt.name); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRoutePattern_Unmatched(t *testing.T) {
	tests := map[string]string{
		"/":                  "/",
		"/uploads/a/b.jpg":   "/uploads",
		"/health/live":       "/health",
		"/api/unknown/thing": "/api",
	}
	for path, want := range tests {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if got := routePattern(req); got != want {
			t.Errorf("routePattern(%q) = %q, want %q", path, got, want)
		}
	}
}
