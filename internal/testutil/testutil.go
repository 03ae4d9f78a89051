// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the shop.
package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/olegiv/ocms-shop/internal/auth"
	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/store"

	_ "github.com/mattn/go-sqlite3"
)

// TestLogger creates a silent test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestLoggerSilent creates a completely silent test logger (error level only).
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// TestDB creates a temporary test database with migrations applied.
// Returns the database and a cleanup function that should be deferred.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "shop-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		_ = os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	if _, err := store.Migrate(context.Background(), db); err != nil {
		_ = db.Close()
		_ = os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() {
		_ = db.Close()
		_ = os.Remove(dbPath)
	}
}

// TestMemoryDB creates an in-memory SQLite database for testing.
// Useful for tests that don't need persistent storage or migrations.
func TestMemoryDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// CreateUser inserts a user with a hashed password.
func CreateUser(t *testing.T, q *store.Queries, email, password string, isAdmin bool) store.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	now := store.Now()
	u, err := q.CreateUser(context.Background(), store.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		Name:         "Test User",
		IsAdmin:      isAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

// CreateCategory inserts an active category.
func CreateCategory(t *testing.T, q *store.Queries, name, slug string) store.Category {
	t.Helper()

	now := store.Now()
	c, err := q.CreateCategory(context.Background(), store.CreateCategoryParams{
		Name:      name,
		Slug:      slug,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	return c
}

// ProductOption customizes CreateProduct.
type ProductOption func(*store.CreateProductParams)

// WithStock sets a tracked quantity and the matching stock status.
func WithStock(qty int64) ProductOption {
	return func(p *store.CreateProductParams) {
		p.StockQuantity = sql.NullInt64{Int64: qty, Valid: true}
		p.StockStatus = model.StockStatusForQuantity(model.StockInStock, qty, model.DefaultLowStockThreshold)
	}
}

// WithStockStatus sets the stock status without tracking a quantity.
func WithStockStatus(status string) ProductOption {
	return func(p *store.CreateProductParams) {
		p.StockStatus = status
	}
}

// WithSizes sets the available sizes.
func WithSizes(sizes ...string) ProductOption {
	return func(p *store.CreateProductParams) {
		p.Sizes = store.StringList(sizes)
	}
}

// WithSalePrice sets a discounted price.
func WithSalePrice(price string) ProductOption {
	return func(p *store.CreateProductParams) {
		p.SalePrice = decimal.NewNullDecimal(decimal.RequireFromString(price))
	}
}

// WithCategory assigns the product to a category.
func WithCategory(id int64) ProductOption {
	return func(p *store.CreateProductParams) {
		p.CategoryID = sql.NullInt64{Int64: id, Valid: true}
	}
}

// CreateProduct inserts an active, in-stock product.
func CreateProduct(t *testing.T, q *store.Queries, slug, price string, opts ...ProductOption) store.Product {
	t.Helper()

	now := store.Now()
	params := store.CreateProductParams{
		Name:        slug,
		Slug:        slug,
		Sku:         sql.NullString{String: "SKU-" + slug, Valid: true},
		Price:       decimal.RequireFromString(price),
		StockStatus: model.StockInStock,
		Sizes:       store.StringList{},
		Images:      store.StringList{},
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, opt := range opts {
		opt(&params)
	}
	p, err := q.CreateProduct(context.Background(), params)
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	return p
}
