// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/olegiv/ocms-shop/internal/auth"
)

// DefaultAdminName is used when the bootstrap admin has no name.
const DefaultAdminName = "Yönetici"

// ErrSeedCredentials is returned when no admin exists and no bootstrap
// credentials were configured.
var ErrSeedCredentials = errors.New("no admin user exists and bootstrap credentials are empty")

// Seed creates the first administrator when the users table has none.
func Seed(ctx context.Context, db *sql.DB, email, password string) error {
	queries := New(db)

	admins, err := queries.CountAdmins(ctx)
	if err != nil {
		return fmt.Errorf("counting admins: %w", err)
	}
	if admins > 0 {
		slog.Debug("admin user already exists, skipping seed")
		return nil
	}
	if email == "" || password == "" {
		slog.Warn("no admin user exists; set SHOP_ADMIN_EMAIL and SHOP_ADMIN_PASSWORD or run shopctl create-admin")
		return nil
	}

	user, err := CreateAdmin(ctx, queries, email, password, DefaultAdminName)
	if err != nil {
		return err
	}

	slog.Info("created bootstrap admin user", "id", user.ID, "email", user.Email)
	return nil
}

// CreateAdmin creates an administrator, or promotes the existing user with
// that email and resets their password.
func CreateAdmin(ctx context.Context, queries *Queries, email, password, name string) (User, error) {
	if email == "" || password == "" {
		return User{}, ErrSeedCredentials
	}
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return User{}, fmt.Errorf("hashing password: %w", err)
	}

	now := Now()
	existing, err := queries.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if err := queries.UpdateUserPassword(ctx, UpdateUserPasswordParams{
			PasswordHash: passwordHash, UpdatedAt: now, ID: existing.ID,
		}); err != nil {
			return User{}, fmt.Errorf("updating password: %w", err)
		}
		user, err := queries.UpdateUserAdmin(ctx, UpdateUserAdminParams{IsAdmin: true, UpdatedAt: now, ID: existing.ID})
		if err != nil {
			return User{}, fmt.Errorf("promoting user: %w", err)
		}
		return user, nil
	case !errors.Is(err, sql.ErrNoRows):
		return User{}, fmt.Errorf("checking for user: %w", err)
	}

	user, err := queries.CreateUser(ctx, CreateUserParams{
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		IsAdmin:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return User{}, fmt.Errorf("creating admin user: %w", err)
	}
	return user, nil
}

type demoProduct struct {
	name, slug, category string
	price, salePrice     string
	sizes                []string
	featured, isNew      bool
	quantity             int64
}

var demoCategories = []struct {
	name, slug, description string
}{
	{"Elbiseler", "elbiseler", "Günlük ve özel gün elbiseleri"},
	{"Gömlekler", "gomlekler", "Pamuklu ve keten gömlekler"},
	{"Aksesuarlar", "aksesuarlar", "Çanta, kemer ve şal"},
}

var demoProducts = []demoProduct{
	{"Keten Yazlık Elbise", "keten-yazlik-elbise", "elbiseler", "899.90", "749.90", []string{"S", "M", "L"}, true, true, 25},
	{"Çiçekli Midi Elbise", "cicekli-midi-elbise", "elbiseler", "1099.00", "", []string{"S", "M", "L", "XL"}, true, false, 8},
	{"Beyaz Pamuk Gömlek", "beyaz-pamuk-gomlek", "gomlekler", "549.50", "", []string{"M", "L", "XL"}, false, true, 40},
	{"Deri Kemer", "deri-kemer", "aksesuarlar", "299.00", "249.00", nil, false, false, 3},
}

// SeedCatalog inserts demo categories and products into an empty catalog.
func SeedCatalog(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	n, err := queries.CountProducts(ctx, ProductFilter{IncludeInactive: true})
	if err != nil {
		return fmt.Errorf("counting products: %w", err)
	}
	if n > 0 {
		return nil
	}

	now := Now()
	categoryIDs := make(map[string]int64, len(demoCategories))
	for i, c := range demoCategories {
		cat, err := queries.CreateCategory(ctx, CreateCategoryParams{
			Name:         c.name,
			Slug:         c.slug,
			Description:  c.description,
			DisplayOrder: int64(i),
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("creating category %s: %w", c.slug, err)
		}
		categoryIDs[c.slug] = cat.ID
	}

	for _, p := range demoProducts {
		params := CreateProductParams{
			CategoryID:    sql.NullInt64{Int64: categoryIDs[p.category], Valid: true},
			Name:          p.name,
			Slug:          p.slug,
			Price:         decimal.RequireFromString(p.price),
			StockStatus:   "in_stock",
			StockQuantity: sql.NullInt64{Int64: p.quantity, Valid: true},
			Images:        StringList{},
			Sizes:         StringList(p.sizes),
			IsFeatured:    p.featured,
			IsNew:         p.isNew,
			IsActive:      true,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if p.salePrice != "" {
			params.SalePrice = decimal.NewNullDecimal(decimal.RequireFromString(p.salePrice))
		}
		if p.quantity <= 5 {
			params.StockStatus = "low_stock"
		}
		if _, err := queries.CreateProduct(ctx, params); err != nil {
			return fmt.Errorf("creating product %s: %w", p.slug, err)
		}
	}

	slog.Info("seeded demo catalog", "categories", len(demoCategories), "products", len(demoProducts))
	return nil
}
