// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/testutil"
)

var guestCheckout = map[string]string{
	"customer_name":    "Elif Demir",
	"customer_email":   "Elif@Example.com",
	"customer_phone":   "05551234567",
	"shipping_address": "Atatürk Cad. No: 1",
	"city":             "Ankara",
	"postal_code":      "06000",
}

func (a *testAPI) addToCart(session string, productID, qty int64) {
	a.t.Helper()
	w := a.do(request{method: http.MethodPost, path: "/cart/items", session: session, body: map[string]any{
		"product_id": productID, "quantity": qty,
	}})
	if w.Code != http.StatusOK {
		a.t.Fatalf("add to cart: status %d (%s)", w.Code, w.Body.String())
	}
}

func TestGuestCheckout(t *testing.T) {
	a := newTestAPI(t)
	p := testutil.CreateProduct(t, a.q, "yun-atki", "120.00", testutil.WithStock(3))
	const session = "guest-checkout"

	a.addToCart(session, p.ID, 2)

	w := a.do(request{method: http.MethodPost, path: "/orders", session: session, body: guestCheckout})
	assertStatus(t, w, http.StatusCreated)
	order := decodeData[OrderResponse](t, w).Data

	if order.Status != model.OrderStatusPending {
		t.Errorf("status = %q; want pending", order.Status)
	}
	if order.UserID != nil {
		t.Errorf("user_id = %d; want none for a guest", *order.UserID)
	}
	if order.CustomerEmail != "elif@example.com" {
		t.Errorf("customer_email = %q; want normalized", order.CustomerEmail)
	}
	if order.TotalAmount != "289.90" {
		t.Errorf("total_amount = %s; want 289.90", order.TotalAmount)
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 2 {
		t.Fatalf("items = %+v; want one line of 2", order.Items)
	}

	got, err := a.q.GetProductByID(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GetProductByID: %v", err)
	}
	if got.StockQuantity.Int64 != 1 {
		t.Errorf("stock after checkout = %d; want 1", got.StockQuantity.Int64)
	}

	w = a.do(request{method: http.MethodGet, path: "/cart", session: session})
	assertStatus(t, w, http.StatusOK)
	if n := len(decodeData[CartResponse](t, w).Data.Items); n != 0 {
		t.Errorf("cart has %d items after checkout; want 0", n)
	}

	// The emptied cart cannot be checked out again.
	w = a.do(request{method: http.MethodPost, path: "/orders", session: session, body: guestCheckout})
	assertStatus(t, w, http.StatusBadRequest)

	tests := []struct {
		name  string
		email string
		want  int
	}{
		{"matching email", "ELIF@example.com", http.StatusOK},
		{"other email", "baska@example.com", http.StatusNotFound},
		{"missing email", "", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/orders/track/" + order.OrderNumber
			if tt.email != "" {
				path += "?email=" + url.QueryEscape(tt.email)
			}
			w := a.do(request{method: http.MethodGet, path: path})
			assertStatus(t, w, tt.want)
		})
	}
}

func TestCheckoutValidation(t *testing.T) {
	a := newTestAPI(t)
	p := testutil.CreateProduct(t, a.q, "eldiven", "40.00")
	a.addToCart("validation-session", p.ID, 1)

	w := a.do(request{method: http.MethodPost, path: "/orders", session: "validation-session", body: map[string]string{
		"customer_name": "Ali", "customer_email": "ali@example.com",
	}})
	assertStatus(t, w, http.StatusUnprocessableEntity)
	if e := decodeError(t, w); e.Details["shipping_address"] == "" {
		t.Errorf("details = %v; want shipping_address", e.Details)
	}
}

func TestCheckoutStockConflict(t *testing.T) {
	a := newTestAPI(t)
	p := testutil.CreateProduct(t, a.q, "son-parca", "75.00", testutil.WithStock(3))
	const session = "stock-conflict"
	a.addToCart(session, p.ID, 3)

	// Stock sold elsewhere after the item was added.
	if _, err := a.db.Exec("UPDATE products SET stock_quantity = 1 WHERE id = ?", p.ID); err != nil {
		t.Fatalf("update stock: %v", err)
	}

	w := a.do(request{method: http.MethodPost, path: "/orders", session: session, body: guestCheckout})
	assertStatus(t, w, http.StatusConflict)
	e := decodeError(t, w)
	if e.Code != CodeOutOfStock {
		t.Errorf("code = %q; want %q", e.Code, CodeOutOfStock)
	}
	if e.Details["available"] != "1" {
		t.Errorf("available = %q; want 1", e.Details["available"])
	}
}

func TestUserOrders(t *testing.T) {
	a := newTestAPI(t)
	owner := testutil.CreateUser(t, a.q, "sahip@example.com", "gizli123", false)
	other := testutil.CreateUser(t, a.q, "diger@example.com", "gizli123", false)
	admin := testutil.CreateUser(t, a.q, "yonetici@example.com", "gizli123", true)
	p := testutil.CreateProduct(t, a.q, "canta", "300.00")

	ownerTok := a.token(owner)
	a.addToCart("owner-cart", p.ID, 1)

	// Name and email fall back to the profile.
	w := a.do(request{method: http.MethodPost, path: "/orders", session: "owner-cart", token: ownerTok, body: map[string]string{
		"shipping_address": "İstiklal Cad. 10",
	}})
	assertStatus(t, w, http.StatusCreated)
	order := decodeData[OrderResponse](t, w).Data
	if order.CustomerEmail != owner.Email || order.CustomerName != owner.Name {
		t.Errorf("customer = %q <%s>; want profile values", order.CustomerName, order.CustomerEmail)
	}
	if order.UserID == nil || *order.UserID != owner.ID {
		t.Errorf("user_id = %v; want %d", order.UserID, owner.ID)
	}

	w = a.do(request{method: http.MethodGet, path: "/orders", token: ownerTok})
	assertStatus(t, w, http.StatusOK)
	list := decodeData[[]OrderResponse](t, w)
	if len(list.Data) != 1 || list.Meta == nil || list.Meta.Total != 1 {
		t.Errorf("orders = %d (meta %+v); want 1", len(list.Data), list.Meta)
	}

	path := fmt.Sprintf("/orders/%d", order.ID)
	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"owner", ownerTok, http.StatusOK},
		{"other user", a.token(other), http.StatusNotFound},
		{"admin", a.token(admin), http.StatusOK},
		{"anonymous", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(request{method: http.MethodGet, path: path, token: tt.token})
			assertStatus(t, w, tt.want)
		})
	}

	w = a.do(request{method: http.MethodPost, path: path + "/cancel", token: a.token(other)})
	assertStatus(t, w, http.StatusNotFound)

	w = a.do(request{method: http.MethodPost, path: path + "/cancel", token: ownerTok})
	assertStatus(t, w, http.StatusOK)
	if got := decodeData[OrderResponse](t, w).Data.Status; got != model.OrderStatusCancelled {
		t.Errorf("status = %q; want cancelled", got)
	}

	w = a.do(request{method: http.MethodPost, path: path + "/cancel", token: ownerTok})
	assertStatus(t, w, http.StatusConflict)
}

func TestAdminOrderStatus(t *testing.T) {
	a := newTestAPI(t)
	admin := testutil.CreateUser(t, a.q, "admin@example.com", "gizli123", true)
	p := testutil.CreateProduct(t, a.q, "mont", "900.00")
	a.addToCart("admin-flow", p.ID, 1)

	w := a.do(request{method: http.MethodPost, path: "/orders", session: "admin-flow", body: guestCheckout})
	assertStatus(t, w, http.StatusCreated)
	order := decodeData[OrderResponse](t, w).Data
	tok := a.token(admin)
	path := fmt.Sprintf("/admin/orders/%d/status", order.ID)

	steps := []struct {
		status   string
		tracking string
		want     int
	}{
		{"bogus", "", http.StatusUnprocessableEntity},
		{model.OrderStatusDelivered, "", http.StatusConflict},
		{model.OrderStatusProcessing, "", http.StatusOK},
		{model.OrderStatusShipped, "YK123456", http.StatusOK},
	}
	for _, s := range steps {
		w := a.do(request{method: http.MethodPut, path: path, token: tok, body: map[string]string{
			"status": s.status, "tracking_number": s.tracking,
		}})
		assertStatus(t, w, s.want)
	}

	stored, err := a.q.GetOrderByID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("GetOrderByID: %v", err)
	}
	if stored.Status != model.OrderStatusShipped || stored.TrackingNumber != "YK123456" {
		t.Errorf("order = %s/%s; want shipped/YK123456", stored.Status, stored.TrackingNumber)
	}

	w = a.do(request{method: http.MethodGet, path: "/admin/orders?status=shipped", token: tok})
	assertStatus(t, w, http.StatusOK)
	if n := len(decodeData[[]OrderResponse](t, w).Data); n != 1 {
		t.Errorf("shipped orders = %d; want 1", n)
	}

	w = a.do(request{method: http.MethodGet, path: "/admin/orders?status=unknown", token: tok})
	assertStatus(t, w, http.StatusUnprocessableEntity)
}
