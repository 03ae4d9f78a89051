// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/scheduler"
	"github.com/olegiv/ocms-shop/internal/service"
	"github.com/olegiv/ocms-shop/internal/testutil"
	"github.com/olegiv/ocms-shop/internal/transfer"
)

// upload posts a multipart form with one file field.
func (a *testAPI) upload(path, token, field, filename string, data []byte, fields map[string]string) *httptest.ResponseRecorder {
	a.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			a.t.Fatalf("WriteField: %v", err)
		}
	}
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		if err != nil {
			a.t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := fw.Write(data); err != nil {
			a.t.Fatalf("write file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		a.t.Fatalf("close multipart: %v", err)
	}

	r := httptest.NewRequest(http.MethodPost, path, &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, r)
	return w
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x * 5), G: uint8(y * 5), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestAdminAccess(t *testing.T) {
	a := newTestAPI(t)
	customer := testutil.CreateUser(t, a.q, "musteri@example.com", "gizli123", false)
	admin := testutil.CreateUser(t, a.q, "admin@example.com", "gizli123", true)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"customer", a.token(customer), http.StatusForbidden},
		{"admin", a.token(admin), http.StatusOK},
		{"garbage token", "not-a-jwt", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(request{method: http.MethodGet, path: "/admin/products", token: tt.token})
			assertStatus(t, w, tt.want)
		})
	}
}

func TestAdminRevokedAdmin(t *testing.T) {
	a := newTestAPI(t)
	admin := testutil.CreateUser(t, a.q, "eski@example.com", "gizli123", true)
	tok := a.token(admin)

	if _, err := a.db.Exec("UPDATE users SET is_admin = 0 WHERE id = ?", admin.ID); err != nil {
		t.Fatalf("revoke admin: %v", err)
	}
	w := a.do(request{method: http.MethodGet, path: "/admin/users", token: tok})
	assertStatus(t, w, http.StatusForbidden)
}

func TestAdminProductLifecycle(t *testing.T) {
	a := newTestAPI(t)
	admin := testutil.CreateUser(t, a.q, "admin@example.com", "gizli123", true)
	cat := testutil.CreateCategory(t, a.q, "Kazaklar", "kazaklar")
	tok := a.token(admin)

	w := a.do(request{method: http.MethodPost, path: "/admin/products", token: tok, body: map[string]any{
		"name": "Yün Kazak", "price": "349.90", "sale_price": "299.90",
		"category_id": cat.ID, "stock_quantity": 12, "sizes": []string{"S", "M", "L"},
	}})
	assertStatus(t, w, http.StatusCreated)
	p := decodeData[ProductResponse](t, w).Data
	require.Equal(t, "yun-kazak", p.Slug)
	require.NotNil(t, p.SalePrice)
	assert.Equal(t, "299.90", *p.SalePrice)
	assert.Equal(t, "299.90", p.EffectivePrice)
	assert.True(t, p.IsActive)
	assert.Equal(t, model.StockInStock, p.StockStatus)

	w = a.do(request{method: http.MethodPost, path: "/admin/products", token: tok, body: map[string]any{
		"name": "Bedava", "price": "0",
	}})
	assertStatus(t, w, http.StatusUnprocessableEntity)
	assert.NotEmpty(t, decodeError(t, w).Details["price"])

	path := fmt.Sprintf("/admin/products/%d", p.ID)

	// null clears the sale price; absent fields are kept.
	w = a.do(request{method: http.MethodPut, path: path, token: tok, body: map[string]any{
		"sale_price": nil, "is_featured": true,
	}})
	assertStatus(t, w, http.StatusOK)
	updated := decodeData[ProductResponse](t, w).Data
	assert.Nil(t, updated.SalePrice)
	assert.Equal(t, "349.90", updated.EffectivePrice)
	assert.True(t, updated.IsFeatured)
	assert.Equal(t, []string{"S", "M", "L"}, updated.Sizes)
	require.NotNil(t, updated.CategoryID)
	assert.Equal(t, cat.ID, *updated.CategoryID)

	w = a.do(request{method: http.MethodGet, path: "/admin/products?search=kazak", token: tok})
	assertStatus(t, w, http.StatusOK)
	list := decodeData[[]ProductResponse](t, w)
	assert.Len(t, list.Data, 1)

	// The category now holds a product.
	w = a.do(request{method: http.MethodDelete, path: fmt.Sprintf("/admin/categories/%d", cat.ID), token: tok})
	assertStatus(t, w, http.StatusConflict)

	w = a.do(request{method: http.MethodDelete, path: path, token: tok})
	assertStatus(t, w, http.StatusOK)
	w = a.do(request{method: http.MethodGet, path: path, token: tok})
	assertStatus(t, w, http.StatusNotFound)

	w = a.do(request{method: http.MethodDelete, path: fmt.Sprintf("/admin/categories/%d", cat.ID), token: tok})
	assertStatus(t, w, http.StatusOK)
}

func TestAdminDeleteOrderedProduct(t *testing.T) {
	a := newTestAPI(t)
	admin := testutil.CreateUser(t, a.q, "admin@example.com", "gizli123", true)
	p := testutil.CreateProduct(t, a.q, "satilan", "60.00")
	a.addToCart("ordered", p.ID, 1)
	w := a.do(request{method: http.MethodPost, path: "/orders", session: "ordered", body: guestCheckout})
	assertStatus(t, w, http.StatusCreated)

	w = a.do(request{method: http.MethodDelete, path: fmt.Sprintf("/admin/products/%d", p.ID), token: a.token(admin)})
	assertStatus(t, w, http.StatusOK)
	if got := decodeData[map[string]bool](t, w).Data; !got["deactivated"] {
		t.Errorf("data = %v; want deactivated", got)
	}

	stored, err := a.q.GetProductByID(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GetProductByID: %v", err)
	}
	if stored.IsActive {
		t.Error("ordered product is still active")
	}
}

func TestAdminCategories(t *testing.T) {
	a := newTestAPI(t)
	admin := testutil.CreateUser(t, a.q, "admin@example.com", "gizli123", true)
	tok := a.token(admin)

	w := a.do(request{method: http.MethodPost, path: "/admin/categories", token: tok, body: map[string]any{
		"name": "Üst Giyim",
	}})
	assertStatus(t, w, http.StatusCreated)
	parent := decodeData[CategoryResponse](t, w).Data
	if parent.Slug != "ust-giyim" || !parent.IsActive {
		t.Errorf("category = %+v; want slug ust-giyim and active", parent)
	}

	w = a.do(request{method: http.MethodPost, path: "/admin/categories", token: tok, body: map[string]any{
		"name": "Ceketler", "parent_id": parent.ID,
	}})
	assertStatus(t, w, http.StatusCreated)
	child := decodeData[CategoryResponse](t, w).Data
	if child.ParentID == nil || *child.ParentID != parent.ID {
		t.Fatalf("parent_id = %v; want %d", child.ParentID, parent.ID)
	}

	w = a.do(request{method: http.MethodPost, path: "/admin/categories", token: tok, body: map[string]any{
		"name": "Kopya", "slug": "ust-giyim",
	}})
	assertStatus(t, w, http.StatusConflict)

	w = a.do(request{method: http.MethodPut, path: fmt.Sprintf("/admin/categories/%d", child.ID), token: tok, body: map[string]any{
		"parent_id": nil,
	}})
	assertStatus(t, w, http.StatusOK)
	if got := decodeData[CategoryResponse](t, w).Data; got.ParentID != nil || got.Name != "Ceketler" {
		t.Errorf("category = %+v; want root category keeping its name", got)
	}
}

func TestAdminUsers(t *testing.T) {
	a := newTestAPI(t)
	admin := testutil.CreateUser(t, a.q, "admin@example.com", "gizli123", true)
	customer := testutil.CreateUser(t, a.q, "ahmet@example.com", "gizli123", false)
	tok := a.token(admin)

	w := a.do(request{method: http.MethodGet, path: "/admin/users?search=ahmet", token: tok})
	assertStatus(t, w, http.StatusOK)
	users := decodeData[[]UserResponse](t, w)
	if len(users.Data) != 1 || users.Data[0].ID != customer.ID {
		t.Errorf("users = %+v; want only %d", users.Data, customer.ID)
	}

	self := fmt.Sprintf("/admin/users/%d", admin.ID)
	w = a.do(request{method: http.MethodPut, path: self, token: tok, body: map[string]any{"is_admin": false}})
	assertStatus(t, w, http.StatusBadRequest)
	w = a.do(request{method: http.MethodDelete, path: self, token: tok})
	assertStatus(t, w, http.StatusBadRequest)

	other := fmt.Sprintf("/admin/users/%d", customer.ID)
	w = a.do(request{method: http.MethodPut, path: other, token: tok, body: map[string]any{"city": "Bursa"}})
	assertStatus(t, w, http.StatusOK)
	if got := decodeData[UserResponse](t, w).Data; got.City != "Bursa" || got.Name != customer.Name {
		t.Errorf("user = %+v; want city updated and name kept", got)
	}

	w = a.do(request{method: http.MethodDelete, path: other, token: tok})
	assertStatus(t, w, http.StatusOK)
	w = a.do(request{method: http.MethodGet, path: other, token: tok})
	assertStatus(t, w, http.StatusNotFound)
}

func TestAdminImportExport(t *testing.T) {
	a := newTestAPI(t)
	admin := testutil.CreateUser(t, a.q, "admin@example.com", "gizli123", true)
	tok := a.token(admin)

	data := "name,price,category,stock_quantity\n" +
		"Pamuk Tişört,149.90,tisortler,20\n" +
		"Keten Pantolon,399.00,pantolonlar,5\n" +
		"Hatalı,abc,,\n"

	w := a.upload("/admin/products/import?dry_run=true", tok, FieldFile, "urunler.csv", []byte(data), nil)
	assertStatus(t, w, http.StatusOK)
	dry := decodeData[transfer.ImportResult](t, w).Data
	if !dry.DryRun || dry.Created != 2 || len(dry.Errors) != 1 {
		t.Errorf("dry run = %+v; want 2 created and 1 error", dry)
	}
	w = a.do(request{method: http.MethodGet, path: "/admin/products", token: tok})
	if n := len(decodeData[[]ProductResponse](t, w).Data); n != 0 {
		t.Fatalf("dry run wrote %d products", n)
	}

	w = a.upload("/admin/products/import", tok, FieldFile, "urunler.csv", []byte(data), nil)
	assertStatus(t, w, http.StatusOK)
	res := decodeData[transfer.ImportResult](t, w).Data
	if res.Created != 2 || res.CategoriesCreated != 2 {
		t.Errorf("import = %+v; want 2 products in 2 new categories", res)
	}

	w = a.upload("/admin/products/import", tok, FieldFile, "bos.csv", []byte("sku,sizes\nA,M\n"), nil)
	assertStatus(t, w, http.StatusUnprocessableEntity)

	w = a.do(request{method: http.MethodPost, path: "/admin/products/import", token: tok, body: map[string]string{}})
	assertStatus(t, w, http.StatusUnprocessableEntity)

	w = a.do(request{method: http.MethodGet, path: "/admin/products/export", token: tok})
	assertStatus(t, w, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q; want text/csv", ct)
	}
	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(w.Body.String(), "\ufeff"))).ReadAll()
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("export rows = %d; want header and 2 products", len(records))
	}
	if records[0][0] != transfer.ColName {
		t.Errorf("first column = %q; want %q", records[0][0], transfer.ColName)
	}
}

func TestAdminProductImages(t *testing.T) {
	a := newTestAPI(t)
	admin := testutil.CreateUser(t, a.q, "admin@example.com", "gizli123", true)
	p := testutil.CreateProduct(t, a.q, "gorselli", "99.00")
	tok := a.token(admin)
	path := fmt.Sprintf("/admin/products/%d/images", p.ID)

	w := a.upload(path, tok, FieldImage, "urun.png", testPNG(t, 40, 30), nil)
	assertStatus(t, w, http.StatusCreated)
	type imageResult struct {
		Product ProductResponse `json:"product"`
		Image   UploadResponse  `json:"image"`
	}
	created := decodeData[imageResult](t, w).Data
	require.Len(t, created.Product.Images, 1)
	assert.Equal(t, created.Image.URL, created.Product.Images[0])
	assert.Equal(t, 40, created.Image.Width)
	assert.True(t, strings.HasPrefix(created.Image.URL, "/uploads/"))

	w = a.upload(path, tok, FieldImage, "notlar.txt", []byte("bu bir resim değil"), nil)
	assertStatus(t, w, http.StatusUnsupportedMediaType)

	w = a.upload(path, tok, "", "", nil, map[string]string{"alt": "x"})
	assertStatus(t, w, http.StatusUnprocessableEntity)

	w = a.do(request{method: http.MethodDelete, path: path + "?url=" + created.Image.URL, token: tok})
	assertStatus(t, w, http.StatusOK)
	if got := decodeData[ProductResponse](t, w).Data; len(got.Images) != 0 {
		t.Errorf("images = %v; want none", got.Images)
	}
}

func TestAdminSystemEndpoints(t *testing.T) {
	a := newTestAPI(t)
	admin := testutil.CreateUser(t, a.q, "admin@example.com", "gizli123", true)
	tok := a.token(admin)
	p := testutil.CreateProduct(t, a.q, "analiz", "100.00")
	a.addToCart("analytics", p.ID, 2)
	w := a.do(request{method: http.MethodPost, path: "/orders", session: "analytics", body: guestCheckout})
	assertStatus(t, w, http.StatusCreated)
	a.addToCart("browsing", p.ID, 1)

	w = a.do(request{method: http.MethodGet, path: "/admin/analytics?days=7", token: tok})
	assertStatus(t, w, http.StatusOK)
	dash := decodeData[DashboardResponse](t, w).Data
	assert.Equal(t, 7, dash.Days)
	assert.Equal(t, int64(1), dash.Totals.Orders)
	assert.Equal(t, int64(1), dash.OrdersByStatus[model.OrderStatusPending])
	assert.Equal(t, int64(1), dash.Totals.ActiveCarts)

	w = a.do(request{method: http.MethodGet, path: "/admin/analytics?days=1000", token: tok})
	assertStatus(t, w, http.StatusOK)
	assert.Equal(t, service.DefaultAnalyticsDays, decodeData[DashboardResponse](t, w).Data.Days)

	w = a.do(request{method: http.MethodGet, path: "/admin/events?category=order", token: tok})
	assertStatus(t, w, http.StatusOK)
	events := decodeData[[]EventResponse](t, w)
	require.NotEmpty(t, events.Data)
	assert.Equal(t, model.EventCategoryOrder, events.Data[0].Category)

	w = a.do(request{method: http.MethodGet, path: "/admin/cache/stats", token: tok})
	assertStatus(t, w, http.StatusOK)

	w = a.do(request{method: http.MethodPost, path: "/admin/cache/clear", token: tok})
	assertStatus(t, w, http.StatusOK)

	w = a.do(request{method: http.MethodGet, path: "/admin/webhooks/deliveries", token: tok})
	assertStatus(t, w, http.StatusOK)
}

func TestAdminJobs(t *testing.T) {
	a := newTestAPI(t)
	admin := testutil.CreateUser(t, a.q, "admin@example.com", "gizli123", true)
	tok := a.token(admin)

	// Scheduler disabled.
	w := a.do(request{method: http.MethodGet, path: "/admin/jobs", token: tok})
	assertStatus(t, w, http.StatusOK)
	assert.Empty(t, decodeData[[]JobResponse](t, w).Data)
	w = a.do(request{method: http.MethodPost, path: "/admin/jobs/purge-carts/run", token: tok})
	assertStatus(t, w, http.StatusServiceUnavailable)

	s := scheduler.New(testutil.TestLoggerSilent(), a.h.svc.Events)
	require.NoError(t, s.RegisterAll(scheduler.Maintenance{
		Carts:   a.h.svc.Cart,
		Banners: a.h.svc.Content,
	}.Jobs()))
	a.h.svc.Jobs = s

	w = a.do(request{method: http.MethodGet, path: "/admin/jobs", token: tok})
	assertStatus(t, w, http.StatusOK)
	jobs := decodeData[[]JobResponse](t, w).Data
	require.Len(t, jobs, 2)
	assert.Equal(t, scheduler.JobExpireBanners, jobs[0].Name)
	assert.Nil(t, jobs[0].LastRun)

	w = a.do(request{method: http.MethodPost, path: "/admin/jobs/purge-carts/run", token: tok})
	assertStatus(t, w, http.StatusOK)
	run := decodeData[JobRunResponse](t, w).Data
	assert.Equal(t, scheduler.JobPurgeCarts, run.Name)
	assert.Equal(t, int64(0), run.Affected)

	w = a.do(request{method: http.MethodPost, path: "/admin/jobs/purge-carts/run", token: tok})
	assertStatus(t, w, http.StatusTooManyRequests)

	w = a.do(request{method: http.MethodPost, path: "/admin/jobs/bilinmeyen/run", token: tok})
	assertStatus(t, w, http.StatusNotFound)

	w = a.do(request{method: http.MethodGet, path: "/admin/jobs", token: tok})
	jobs = decodeData[[]JobResponse](t, w).Data
	assert.NotNil(t, jobs[1].LastRun)
}
