// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/olegiv/ocms-shop/internal/auth"
	"github.com/olegiv/ocms-shop/internal/cache"
	"github.com/olegiv/ocms-shop/internal/middleware"
	"github.com/olegiv/ocms-shop/internal/service"
	"github.com/olegiv/ocms-shop/internal/storage"
	"github.com/olegiv/ocms-shop/internal/store"
	"github.com/olegiv/ocms-shop/internal/testutil"
	"github.com/olegiv/ocms-shop/internal/transfer"
)

const testSecret = "test-secret-that-is-at-least-32-bytes-long"

var testPricing = service.Pricing{
	FlatShipping:          decimal.RequireFromString("49.90"),
	FreeShippingThreshold: decimal.NewFromInt(500),
}

// testAPI is the API router wired against a temporary database.
type testAPI struct {
	t      *testing.T
	db     *sql.DB
	q      *store.Queries
	tokens *auth.TokenManager
	h      *Handler
	router http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	tokens, err := auth.NewTokenManager(testSecret, time.Hour, "shop-test")
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	st, err := storage.NewLocalStorage(t.TempDir(), storage.LocalURLPrefix)
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	cm := cache.NewManager(cache.NewSimpleMemoryCache(time.Minute), cache.BackendMemory, time.Minute)
	logger := testutil.TestLoggerSilent()
	events := service.NewEventService(db)
	media := service.NewMediaService(st, events)

	importer := transfer.NewImporter(db, logger)
	importer.SetCache(cm)

	svc := Services{
		Users:        service.NewUserService(db, tokens, events),
		Catalog:      service.NewCatalogService(db, cm, media, events, 5),
		Cart:         service.NewCartService(db, testPricing, 24*time.Hour, nil),
		Orders:       service.NewOrderService(db, cm, testPricing, 5, events),
		Favorites:    service.NewFavoriteService(db),
		Reviews:      service.NewReviewService(db, events),
		Content:      service.NewContentService(db, cm, media, events),
		Newsletter:   service.NewNewsletterService(db),
		SizeRequests: service.NewSizeRequestService(db, events),
		Media:        media,
		Analytics:    service.NewAnalyticsService(db, 5),
		Events:       events,
		Importer:     importer,
		Exporter:     transfer.NewExporter(db, logger),
		Cache:        cm,
	}
	h := NewHandler(db, svc, nil, logger)

	return &testAPI{
		t:      t,
		db:     db,
		q:      store.New(db),
		tokens: tokens,
		h:      h,
		router: h.Routes(RouteConfig{
			Tokens: tokens,
			Admins: svc.Users,
			Login:  middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig()),
		}),
	}
}

// token issues a bearer token for u.
func (a *testAPI) token(u store.User) string {
	a.t.Helper()
	tok, _, err := a.tokens.Issue(u.ID, u.Email, u.IsAdmin)
	if err != nil {
		a.t.Fatalf("Issue: %v", err)
	}
	return tok
}

// request describes one call against the router.
type request struct {
	method  string
	path    string
	body    any
	token   string
	session string
}

func (a *testAPI) do(req request) *httptest.ResponseRecorder {
	a.t.Helper()
	var body io.Reader
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			a.t.Fatalf("marshal body: %v", err)
		}
		body = bytes.NewReader(b)
	}
	r := httptest.NewRequest(req.method, req.path, body)
	if req.body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		r.Header.Set("Authorization", "Bearer "+req.token)
	}
	if req.session != "" {
		r.Header.Set(SessionHeader, req.session)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, r)
	return w
}

// envelope is a decoded success response.
type envelope[T any] struct {
	Data    T      `json:"data"`
	Meta    *Meta  `json:"meta"`
	Message string `json:"message"`
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, w.Body.String())
	}
	return env
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v (body %s)", err, w.Body.String())
	}
	return resp.Error
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d; want %d (body %s)", w.Code, want, w.Body.String())
	}
}
