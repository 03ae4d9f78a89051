// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/olegiv/ocms-shop/internal/store"
)

// FavoriteService manages per-user favorite products.
type FavoriteService struct {
	queries *store.Queries
}

// NewFavoriteService creates a FavoriteService.
func NewFavoriteService(db *sql.DB) *FavoriteService {
	return &FavoriteService{queries: store.New(db)}
}

// List returns the user's favorite products, most recent first.
func (s *FavoriteService) List(ctx context.Context, userID int64) ([]store.Product, error) {
	products, err := s.queries.ListFavoriteProducts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing favorites: %w", err)
	}
	if products == nil {
		products = []store.Product{}
	}
	return products, nil
}

// Add marks a product as favorite. created is false when it already was.
func (s *FavoriteService) Add(ctx context.Context, userID, productID int64) (created bool, err error) {
	p, err := s.queries.GetProductByID(ctx, productID)
	if err != nil {
		return false, notFound(err, "loading product")
	}
	if !p.IsActive {
		return false, ErrNotFound
	}

	key := store.FavoriteKey{UserID: userID, ProductID: productID}
	exists, err := s.queries.IsFavorite(ctx, key)
	if err != nil {
		return false, fmt.Errorf("checking favorite: %w", err)
	}
	if exists {
		return false, nil
	}
	if err := s.queries.AddFavorite(ctx, store.AddFavoriteParams{
		UserID: userID, ProductID: productID, CreatedAt: store.Now(),
	}); err != nil {
		return false, fmt.Errorf("adding favorite: %w", err)
	}
	return true, nil
}

// Remove unmarks a product. Removing a missing favorite is ErrNotFound.
func (s *FavoriteService) Remove(ctx context.Context, userID, productID int64) error {
	n, err := s.queries.RemoveFavorite(ctx, store.FavoriteKey{UserID: userID, ProductID: productID})
	if err != nil {
		return fmt.Errorf("removing favorite: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// IsFavorite reports whether the user has favorited the product.
func (s *FavoriteService) IsFavorite(ctx context.Context, userID, productID int64) (bool, error) {
	ok, err := s.queries.IsFavorite(ctx, store.FavoriteKey{UserID: userID, ProductID: productID})
	if err != nil {
		return false, fmt.Errorf("checking favorite: %w", err)
	}
	return ok, nil
}
