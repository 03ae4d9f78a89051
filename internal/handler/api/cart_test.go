// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/olegiv/ocms-shop/internal/testutil"
)

func TestGuestCart(t *testing.T) {
	a := newTestAPI(t)
	p := testutil.CreateProduct(t, a.q, "keten-gomlek", "100.00", testutil.WithStock(10), testutil.WithSizes("M", "L"))
	const session = "test-session-1"

	w := a.do(request{method: http.MethodGet, path: "/cart", session: session})
	assertStatus(t, w, http.StatusOK)
	if got := decodeData[CartResponse](t, w).Data; len(got.Items) != 0 {
		t.Fatalf("new cart has %d items; want 0", len(got.Items))
	}

	w = a.do(request{method: http.MethodPost, path: "/cart/items", session: session, body: map[string]any{
		"product_id": p.ID, "size": "XXL",
	}})
	assertStatus(t, w, http.StatusUnprocessableEntity)

	w = a.do(request{method: http.MethodPost, path: "/cart/items", session: session, body: map[string]any{
		"product_id": p.ID, "size": "M", "quantity": 2,
	}})
	assertStatus(t, w, http.StatusOK)
	if got := w.Header().Get(SessionHeader); got != session {
		t.Errorf("%s = %q; want %q", SessionHeader, got, session)
	}
	cart := decodeData[CartResponse](t, w).Data
	if len(cart.Items) != 1 {
		t.Fatalf("items = %d; want 1", len(cart.Items))
	}
	if cart.Subtotal != "200.00" || cart.ShippingCost != "49.90" || cart.Total != "249.90" {
		t.Errorf("totals = %s + %s = %s; want 200.00 + 49.90 = 249.90", cart.Subtotal, cart.ShippingCost, cart.Total)
	}
	if cart.FreeShippingRemaining != "300.00" {
		t.Errorf("free_shipping_remaining = %s; want 300.00", cart.FreeShippingRemaining)
	}

	itemPath := fmt.Sprintf("/cart/items/%d", cart.Items[0].ID)
	w = a.do(request{method: http.MethodPut, path: itemPath, session: session, body: map[string]any{"quantity": 5}})
	assertStatus(t, w, http.StatusOK)
	cart = decodeData[CartResponse](t, w).Data
	if cart.ItemCount != 5 || cart.ShippingCost != "0.00" {
		t.Errorf("item_count = %d shipping = %s; want 5 and free shipping", cart.ItemCount, cart.ShippingCost)
	}

	// Another session cannot touch the item.
	w = a.do(request{method: http.MethodDelete, path: itemPath, session: "other-session"})
	assertStatus(t, w, http.StatusNotFound)

	w = a.do(request{method: http.MethodDelete, path: itemPath, session: session})
	assertStatus(t, w, http.StatusOK)
	if got := decodeData[CartResponse](t, w).Data; len(got.Items) != 0 {
		t.Errorf("items after delete = %d; want 0", len(got.Items))
	}
}

func TestCartInvalidSession(t *testing.T) {
	a := newTestAPI(t)
	p := testutil.CreateProduct(t, a.q, "kazak", "80.00")

	w := a.do(request{method: http.MethodPost, path: "/cart/items", session: "bad session!", body: map[string]any{
		"product_id": p.ID,
	}})
	assertStatus(t, w, http.StatusUnprocessableEntity)
}

func TestCartNewSessionIssued(t *testing.T) {
	a := newTestAPI(t)
	p := testutil.CreateProduct(t, a.q, "bere", "30.00")

	w := a.do(request{method: http.MethodPost, path: "/cart/items", body: map[string]any{"product_id": p.ID}})
	assertStatus(t, w, http.StatusOK)

	issued := w.Header().Get(SessionHeader)
	if issued == "" {
		t.Fatalf("no %s header on a new cart", SessionHeader)
	}
	if got := decodeData[CartResponse](t, w).Data.SessionID; got != issued {
		t.Errorf("session_id = %q; want %q", got, issued)
	}

	w = a.do(request{method: http.MethodGet, path: "/cart", session: issued})
	assertStatus(t, w, http.StatusOK)
	if got := decodeData[CartResponse](t, w).Data.ItemCount; got != 1 {
		t.Errorf("item_count = %d; want 1", got)
	}
}

func TestCartAddItemQuantity(t *testing.T) {
	a := newTestAPI(t)
	p := testutil.CreateProduct(t, a.q, "adetli", "10.00")

	tests := []struct {
		name      string
		body      map[string]any
		wantCode  int
		wantCount int64
	}{
		{"omitted defaults to one", map[string]any{"product_id": p.ID}, http.StatusOK, 1},
		{"explicit zero", map[string]any{"product_id": p.ID, "quantity": 0}, http.StatusUnprocessableEntity, 0},
		{"negative", map[string]any{"product_id": p.ID, "quantity": -2}, http.StatusUnprocessableEntity, 0},
		{"explicit three", map[string]any{"product_id": p.ID, "quantity": 3}, http.StatusOK, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := "adet-" + strings.ReplaceAll(tt.name, " ", "-")
			w := a.do(request{method: http.MethodPost, path: "/cart/items", session: session, body: tt.body})
			assertStatus(t, w, tt.wantCode)
			if tt.wantCode != http.StatusOK {
				if e := decodeError(t, w); e.Code != CodeValidation {
					t.Errorf("code = %q; want %q", e.Code, CodeValidation)
				}
				return
			}
			if got := decodeData[CartResponse](t, w).Data.ItemCount; got != tt.wantCount {
				t.Errorf("item_count = %d; want %d", got, tt.wantCount)
			}
		})
	}
}

func TestCartOutOfStock(t *testing.T) {
	a := newTestAPI(t)
	p := testutil.CreateProduct(t, a.q, "tukenen", "50.00", testutil.WithStock(0))

	w := a.do(request{method: http.MethodPost, path: "/cart/items", session: "stok-session", body: map[string]any{
		"product_id": p.ID,
	}})
	assertStatus(t, w, http.StatusConflict)
	if e := decodeError(t, w); e.Code != CodeOutOfStock {
		t.Errorf("code = %q; want %q", e.Code, CodeOutOfStock)
	}
}
