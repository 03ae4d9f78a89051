// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/olegiv/ocms-shop/internal/cache"
	"github.com/olegiv/ocms-shop/internal/store"
	"github.com/olegiv/ocms-shop/internal/testutil"
)

var testPricing = Pricing{
	FlatShipping:          decimal.RequireFromString("49.90"),
	FreeShippingThreshold: decimal.NewFromInt(500),
}

func testCache() *cache.Manager {
	return cache.NewManager(cache.NewSimpleMemoryCache(time.Minute), cache.BackendMemory, time.Minute)
}

// shopFixture wires the services against one temporary database.
type shopFixture struct {
	db      *sql.DB
	q       *store.Queries
	cache   *cache.Manager
	events  *EventService
	catalog *CatalogService
	cart    *CartService
	orders  *OrderService
}

func newShopFixture(t *testing.T) *shopFixture {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	cm := testCache()
	events := NewEventService(db)
	return &shopFixture{
		db:      db,
		q:       store.New(db),
		cache:   cm,
		events:  events,
		catalog: NewCatalogService(db, cm, nil, events, 5),
		cart:    NewCartService(db, testPricing, 30*24*time.Hour, nil),
		orders:  NewOrderService(db, cm, testPricing, 5, events),
	}
}

func (f *shopFixture) product(t *testing.T, id int64) store.Product {
	t.Helper()
	p, err := f.q.GetProductByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetProductByID: %v", err)
	}
	return p
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func checkoutInput(sessionID string) CheckoutInput {
	return CheckoutInput{
		SessionID:       sessionID,
		CustomerName:    "Ayşe Yılmaz",
		CustomerEmail:   "Ayse@Example.com",
		CustomerPhone:   "05551234567",
		ShippingAddress: "Atatürk Cad. No: 1",
		City:            "İstanbul",
	}
}
