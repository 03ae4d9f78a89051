// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/store"
	"github.com/olegiv/ocms-shop/internal/testutil"
)

type countingRecorder map[string]int

func (c countingRecorder) CartOperation(op string) { c[op]++ }

func TestPricing_Shipping(t *testing.T) {
	tests := []struct {
		subtotal string
		want     string
	}{
		{"0", "0"},
		{"100", "49.9"},
		{"499.99", "49.9"},
		{"500", "0"},
		{"1200", "0"},
	}
	for _, tt := range tests {
		if got := testPricing.Shipping(dec(tt.subtotal)); !got.Equal(dec(tt.want)) {
			t.Errorf("Shipping(%s) = %s, want %s", tt.subtotal, got, tt.want)
		}
	}
}

func TestValidSessionID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"abc-123_XYZ", true},
		{"", false},
		{"has space", false},
		{"semi;colon", false},
		{strings.Repeat("a", MaxSessionIDLength), true},
		{strings.Repeat("a", MaxSessionIDLength+1), false},
	}
	for _, tt := range tests {
		if got := ValidSessionID(tt.id); got != tt.want {
			t.Errorf("ValidSessionID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestCartService_AddItemMergesAndPrices(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	rec := countingRecorder{}
	f.cart.metrics = rec

	p := testutil.CreateProduct(t, f.q, "gomlek", "120.00", testutil.WithSizes("S", "M"))

	if _, err := f.cart.AddItem(ctx, "sess-1", nil, AddItemInput{ProductID: p.ID, Quantity: 1, Size: "M"}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	cart, err := f.cart.AddItem(ctx, "sess-1", nil, AddItemInput{ProductID: p.ID, Quantity: 2, Size: "M"})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	if len(cart.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(cart.Items))
	}
	if cart.Items[0].Quantity != 3 {
		t.Errorf("quantity = %d, want 3", cart.Items[0].Quantity)
	}
	if !cart.Subtotal.Equal(dec("360")) || !cart.ShippingCost.Equal(dec("49.90")) || !cart.Total.Equal(dec("409.90")) {
		t.Errorf("totals = %s + %s = %s", cart.Subtotal, cart.ShippingCost, cart.Total)
	}
	if cart.ItemCount != 3 {
		t.Errorf("ItemCount = %d", cart.ItemCount)
	}
	if rec[CartOpAdd] != 2 {
		t.Errorf("recorded adds = %d", rec[CartOpAdd])
	}

	cart, err = f.cart.AddItem(ctx, "sess-1", nil, AddItemInput{ProductID: p.ID, Quantity: 1, Size: "S"})
	if err != nil {
		t.Fatalf("AddItem other size: %v", err)
	}
	if len(cart.Items) != 2 {
		t.Errorf("items = %d, want 2 lines for different sizes", len(cart.Items))
	}
}

func TestCartService_AddItemErrors(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()

	sized := testutil.CreateProduct(t, f.q, "sized", "50", testutil.WithSizes("38", "40"))
	out := testutil.CreateProduct(t, f.q, "out", "50", testutil.WithStockStatus(model.StockOutOfStock))
	inactive := testutil.CreateProduct(t, f.q, "inactive", "50")
	if err := f.q.SetProductActive(ctx, store.SetProductActiveParams{IsActive: false, UpdatedAt: store.Now(), ID: inactive.ID}); err != nil {
		t.Fatalf("SetProductActive: %v", err)
	}

	tests := []struct {
		name    string
		session string
		in      AddItemInput
		want    error
	}{
		{"bad session", "bad session!", AddItemInput{ProductID: sized.ID, Quantity: 1, Size: "38"}, ErrInvalidInput},
		{"zero quantity", "s", AddItemInput{ProductID: sized.ID, Quantity: 0, Size: "38"}, ErrInvalidInput},
		{"missing product", "s", AddItemInput{ProductID: 9999, Quantity: 1}, ErrNotFound},
		{"inactive product", "s", AddItemInput{ProductID: inactive.ID, Quantity: 1}, ErrNotFound},
		{"out of stock", "s", AddItemInput{ProductID: out.ID, Quantity: 1}, ErrOutOfStock},
		{"unknown size", "s", AddItemInput{ProductID: sized.ID, Quantity: 1, Size: "44"}, ErrInvalidSize},
		{"missing size", "s", AddItemInput{ProductID: sized.ID, Quantity: 1}, ErrInvalidSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.cart.AddItem(ctx, tt.session, nil, tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCartService_QuantityCaps(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()

	tracked := testutil.CreateProduct(t, f.q, "tracked", "10", testutil.WithStock(3))
	untracked := testutil.CreateProduct(t, f.q, "untracked", "10")

	cart, err := f.cart.AddItem(ctx, "caps", nil, AddItemInput{ProductID: tracked.ID, Quantity: 10})
	if err != nil {
		t.Fatalf("AddItem tracked: %v", err)
	}
	if cart.Items[0].Quantity != 3 {
		t.Errorf("tracked quantity = %d, want 3", cart.Items[0].Quantity)
	}

	cart, err = f.cart.AddItem(ctx, "caps", nil, AddItemInput{ProductID: untracked.ID, Quantity: 500})
	if err != nil {
		t.Fatalf("AddItem untracked: %v", err)
	}
	for _, line := range cart.Items {
		if line.Product.ID == untracked.ID && line.Quantity != model.MaxCartQuantity {
			t.Errorf("untracked quantity = %d, want %d", line.Quantity, model.MaxCartQuantity)
		}
	}
}

func TestCartService_PreOrderIgnoresStock(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()

	p := testutil.CreateProduct(t, f.q, "preorder", "10", testutil.WithStock(0), testutil.WithStockStatus(model.StockPreOrder))
	cart, err := f.cart.AddItem(ctx, "pre", nil, AddItemInput{ProductID: p.ID, Quantity: 4})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if cart.Items[0].Quantity != 4 {
		t.Errorf("quantity = %d, want 4", cart.Items[0].Quantity)
	}
}

func TestCartService_UpdateRemoveClear(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	p := testutil.CreateProduct(t, f.q, "p1", "25")
	p2 := testutil.CreateProduct(t, f.q, "p2", "30")

	cart, err := f.cart.AddItem(ctx, "upd", nil, AddItemInput{ProductID: p.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	itemID := cart.Items[0].ID

	cart, err = f.cart.UpdateItem(ctx, "upd", itemID, 4)
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if cart.Items[0].Quantity != 4 {
		t.Errorf("quantity = %d, want 4", cart.Items[0].Quantity)
	}

	if _, err := f.cart.UpdateItem(ctx, "other-session", itemID, 2); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign session update err = %v, want ErrNotFound", err)
	}

	cart, err = f.cart.UpdateItem(ctx, "upd", itemID, 0)
	if err != nil {
		t.Fatalf("UpdateItem to zero: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Errorf("items = %d after zero quantity", len(cart.Items))
	}

	if _, err := f.cart.AddItem(ctx, "upd", nil, AddItemInput{ProductID: p2.ID, Quantity: 2}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := f.cart.Clear(ctx, "upd"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	cart, err = f.cart.Get(ctx, "upd")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(cart.Items) != 0 || !cart.Total.IsZero() {
		t.Errorf("cart after clear = %+v", cart)
	}
}

func TestCartService_GetUnknownAndInactive(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()

	cart, err := f.cart.Get(ctx, "nobody")
	if err != nil {
		t.Fatalf("Get unknown: %v", err)
	}
	if len(cart.Items) != 0 || !cart.ShippingCost.IsZero() {
		t.Errorf("unknown cart = %+v", cart)
	}

	p := testutil.CreateProduct(t, f.q, "gone", "10")
	if _, err := f.cart.AddItem(ctx, "inact", nil, AddItemInput{ProductID: p.ID, Quantity: 1}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := f.q.SetProductActive(ctx, store.SetProductActiveParams{IsActive: false, UpdatedAt: store.Now(), ID: p.ID}); err != nil {
		t.Fatalf("SetProductActive: %v", err)
	}
	cart, err = f.cart.Get(ctx, "inact")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Errorf("inactive product still in cart")
	}
}

func TestCartService_PurgeExpired(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()
	q := store.New(db)

	expired := NewCartService(db, testPricing, -time.Hour, nil)
	live := NewCartService(db, testPricing, time.Hour, nil)
	p := testutil.CreateProduct(t, q, "purge", "10")

	if _, err := expired.AddItem(ctx, "old", nil, AddItemInput{ProductID: p.ID, Quantity: 1}); err != nil {
		t.Fatalf("AddItem old: %v", err)
	}
	if _, err := live.AddItem(ctx, "new", nil, AddItemInput{ProductID: p.ID, Quantity: 1}); err != nil {
		t.Fatalf("AddItem new: %v", err)
	}

	n, err := live.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("purged = %d, want 1", n)
	}
	if _, err := q.GetCartSession(ctx, "new"); err != nil {
		t.Errorf("live session removed: %v", err)
	}
}

func TestCartService_AttachUser(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, f.q, "cart@example.com", "secret123", false)
	p := testutil.CreateProduct(t, f.q, "attach", "10")

	if _, err := f.cart.AddItem(ctx, "attach", nil, AddItemInput{ProductID: p.ID, Quantity: 1}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := f.cart.AttachUser(ctx, "attach", u.ID); err != nil {
		t.Fatalf("AttachUser: %v", err)
	}
	sess, err := f.q.GetCartSession(ctx, "attach")
	if err != nil {
		t.Fatalf("GetCartSession: %v", err)
	}
	if !sess.UserID.Valid || sess.UserID.Int64 != u.ID {
		t.Errorf("session user = %+v, want %d", sess.UserID, u.ID)
	}
}

func TestCartService_SessionKeepsFirstOwner(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.q, "sahip@example.com", "secret123", false)
	other := testutil.CreateUser(t, f.q, "baska@example.com", "secret123", false)
	p := testutil.CreateProduct(t, f.q, "sahipli", "10")

	if _, err := f.cart.AddItem(ctx, "owned", &owner.ID, AddItemInput{ProductID: p.ID, Quantity: 1}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := f.cart.AttachUser(ctx, "owned", other.ID); err != nil {
		t.Fatalf("AttachUser: %v", err)
	}
	if _, err := f.cart.AddItem(ctx, "owned", &other.ID, AddItemInput{ProductID: p.ID, Quantity: 1}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	sess, err := f.q.GetCartSession(ctx, "owned")
	if err != nil {
		t.Fatalf("GetCartSession: %v", err)
	}
	if !sess.UserID.Valid || sess.UserID.Int64 != owner.ID {
		t.Errorf("session user = %+v, want %d", sess.UserID, owner.ID)
	}
}
