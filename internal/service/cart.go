// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/store"
	"github.com/olegiv/ocms-shop/internal/util"
)

// MaxSessionIDLength bounds client-supplied cart session ids.
const MaxSessionIDLength = 64

// Cart operations reported to CartRecorder.
const (
	CartOpAdd    = "add"
	CartOpUpdate = "update"
	CartOpRemove = "remove"
	CartOpClear  = "clear"
)

// CartRecorder receives cart operation counts.
type CartRecorder interface {
	CartOperation(op string)
}

// Pricing holds the shipping rules applied to carts and orders.
type Pricing struct {
	FlatShipping          decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

// Shipping returns the shipping cost for subtotal. Empty carts ship free.
func (p Pricing) Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() || subtotal.GreaterThanOrEqual(p.FreeShippingThreshold) {
		return decimal.Zero
	}
	return p.FlatShipping.Round(2)
}

// CartLine is one priced cart row.
type CartLine struct {
	ID        int64
	Product   store.Product
	Size      string
	Quantity  int64
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Cart is a priced view of a cart session.
type Cart struct {
	SessionID    string
	Items        []CartLine
	Subtotal     decimal.Decimal
	ShippingCost decimal.Decimal
	Total        decimal.Decimal
	ItemCount    int64
}

func newCart(sessionID string, lines []store.CartLine, pricing Pricing) *Cart {
	c := &Cart{SessionID: sessionID, Items: make([]CartLine, 0, len(lines)), Subtotal: decimal.Zero}
	for _, l := range lines {
		unit := l.Product.EffectivePrice().Round(2)
		total := unit.Mul(decimal.NewFromInt(l.Quantity)).Round(2)
		c.Items = append(c.Items, CartLine{
			ID:        l.ID,
			Product:   l.Product,
			Size:      l.Size,
			Quantity:  l.Quantity,
			UnitPrice: unit,
			LineTotal: total,
		})
		c.Subtotal = c.Subtotal.Add(total)
		c.ItemCount += l.Quantity
	}
	c.Subtotal = c.Subtotal.Round(2)
	c.ShippingCost = pricing.Shipping(c.Subtotal)
	c.Total = c.Subtotal.Add(c.ShippingCost).Round(2)
	return c
}

// ValidSessionID reports whether id is usable as a cart session id.
func ValidSessionID(id string) bool {
	if id == "" || len(id) > MaxSessionIDLength {
		return false
	}
	for _, r := range id {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

// CartService manages session carts.
type CartService struct {
	queries *store.Queries
	pricing Pricing
	ttl     time.Duration
	metrics CartRecorder
}

// NewCartService creates a CartService. metrics may be nil.
func NewCartService(db *sql.DB, pricing Pricing, ttl time.Duration, metrics CartRecorder) *CartService {
	return &CartService{
		queries: store.New(db),
		pricing: pricing,
		ttl:     ttl,
		metrics: metrics,
	}
}

// Pricing returns the shipping rules.
func (s *CartService) Pricing() Pricing {
	return s.pricing
}

func (s *CartService) record(op string) {
	if s.metrics != nil {
		s.metrics.CartOperation(op)
	}
}

// Get returns the cart for sessionID. Unknown or expired sessions yield an
// empty cart. Lines whose product was deactivated are dropped.
func (s *CartService) Get(ctx context.Context, sessionID string) (*Cart, error) {
	if sessionID == "" {
		return newCart(sessionID, nil, s.pricing), nil
	}
	sess, err := s.queries.GetCartSession(ctx, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return newCart(sessionID, nil, s.pricing), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading cart session: %w", err)
	}
	if sess.ExpiresAt.Before(time.Now()) {
		return newCart(sessionID, nil, s.pricing), nil
	}

	lines, err := s.queries.ListCartLines(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing cart items: %w", err)
	}
	active := lines[:0]
	for _, l := range lines {
		if !l.Product.IsActive {
			if err := s.queries.DeleteCartItem(ctx, l.ID); err != nil {
				return nil, fmt.Errorf("dropping inactive cart item: %w", err)
			}
			continue
		}
		active = append(active, l)
	}
	return newCart(sessionID, active, s.pricing), nil
}

// touch creates the session or extends its expiry.
func (s *CartService) touch(ctx context.Context, sessionID string, userID *int64) error {
	now := store.Now()
	_, err := s.queries.UpsertCartSession(ctx, store.UpsertCartSessionParams{
		ID:        sessionID,
		UserID:    util.NullInt64FromPtr(userID),
		ExpiresAt: now.Add(s.ttl),
		Now:       now,
	})
	if err != nil {
		return fmt.Errorf("saving cart session: %w", err)
	}
	return nil
}

// AddItemInput is a request to put a product in the cart.
type AddItemInput struct {
	ProductID int64
	Quantity  int64
	Size      string
}

// AddItem adds a product to the cart. Adding the same product and size
// again increases the quantity. Quantities are capped at
// model.MaxCartQuantity and at tracked stock.
func (s *CartService) AddItem(ctx context.Context, sessionID string, userID *int64, in AddItemInput) (*Cart, error) {
	if !ValidSessionID(sessionID) {
		return nil, invalid("session_id", "Geçersiz sepet oturumu")
	}
	if in.Quantity < 1 {
		return nil, invalid("quantity", "Adet en az 1 olmalıdır")
	}

	p, err := s.queries.GetProductByID(ctx, in.ProductID)
	if err != nil {
		return nil, notFound(err, "loading product")
	}
	if !p.IsActive {
		return nil, ErrNotFound
	}
	if !model.IsPurchasable(p.StockStatus, p.PreOrder) {
		return nil, ErrOutOfStock
	}

	size := strings.TrimSpace(in.Size)
	if len(p.Sizes) > 0 {
		if !p.Sizes.Contains(size) {
			return nil, ErrInvalidSize
		}
	} else {
		size = ""
	}

	if err := s.touch(ctx, sessionID, userID); err != nil {
		return nil, err
	}

	now := store.Now()
	existing, err := s.queries.GetCartItemByProduct(ctx, store.GetCartItemByProductParams{
		SessionID: sessionID, ProductID: p.ID, Size: size,
	})
	switch {
	case err == nil:
		qty, err := capQuantity(p, existing.Quantity+in.Quantity)
		if err != nil {
			return nil, err
		}
		if _, err := s.queries.UpdateCartItemQuantity(ctx, store.UpdateCartItemQuantityParams{
			Quantity: qty, UpdatedAt: now, ID: existing.ID,
		}); err != nil {
			return nil, fmt.Errorf("updating cart item: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		qty, err := capQuantity(p, in.Quantity)
		if err != nil {
			return nil, err
		}
		if _, err := s.queries.CreateCartItem(ctx, store.CreateCartItemParams{
			SessionID: sessionID, ProductID: p.ID, Size: size, Quantity: qty, CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			return nil, fmt.Errorf("creating cart item: %w", err)
		}
	default:
		return nil, fmt.Errorf("loading cart item: %w", err)
	}

	s.record(CartOpAdd)
	return s.Get(ctx, sessionID)
}

// capQuantity limits qty to the per-line maximum and to tracked stock.
func capQuantity(p store.Product, qty int64) (int64, error) {
	if qty > model.MaxCartQuantity {
		qty = model.MaxCartQuantity
	}
	if p.StockQuantity.Valid && !p.PreOrder && p.StockStatus != model.StockPreOrder {
		if p.StockQuantity.Int64 <= 0 {
			return 0, ErrOutOfStock
		}
		if qty > p.StockQuantity.Int64 {
			qty = p.StockQuantity.Int64
		}
	}
	return qty, nil
}

// sessionItem loads a cart item and checks that it belongs to sessionID.
func (s *CartService) sessionItem(ctx context.Context, sessionID string, itemID int64) (store.CartItem, error) {
	item, err := s.queries.GetCartItem(ctx, itemID)
	if err != nil {
		return store.CartItem{}, notFound(err, "loading cart item")
	}
	if sessionID == "" || item.SessionID != sessionID {
		return store.CartItem{}, ErrNotFound
	}
	return item, nil
}

// UpdateItem sets a line's quantity. Zero removes the line.
func (s *CartService) UpdateItem(ctx context.Context, sessionID string, itemID, quantity int64) (*Cart, error) {
	if quantity < 0 {
		return nil, invalid("quantity", "Adet negatif olamaz")
	}
	if quantity == 0 {
		return s.RemoveItem(ctx, sessionID, itemID)
	}

	item, err := s.sessionItem(ctx, sessionID, itemID)
	if err != nil {
		return nil, err
	}
	p, err := s.queries.GetProductByID(ctx, item.ProductID)
	if err != nil {
		return nil, notFound(err, "loading product")
	}
	qty, err := capQuantity(p, quantity)
	if err != nil {
		return nil, err
	}
	if _, err := s.queries.UpdateCartItemQuantity(ctx, store.UpdateCartItemQuantityParams{
		Quantity: qty, UpdatedAt: store.Now(), ID: item.ID,
	}); err != nil {
		return nil, fmt.Errorf("updating cart item: %w", err)
	}
	if err := s.touch(ctx, sessionID, nil); err != nil {
		return nil, err
	}

	s.record(CartOpUpdate)
	return s.Get(ctx, sessionID)
}

// RemoveItem deletes a cart line.
func (s *CartService) RemoveItem(ctx context.Context, sessionID string, itemID int64) (*Cart, error) {
	item, err := s.sessionItem(ctx, sessionID, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.queries.DeleteCartItem(ctx, item.ID); err != nil {
		return nil, fmt.Errorf("deleting cart item: %w", err)
	}
	if err := s.touch(ctx, sessionID, nil); err != nil {
		return nil, err
	}

	s.record(CartOpRemove)
	return s.Get(ctx, sessionID)
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.queries.ClearCartItems(ctx, sessionID); err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	s.record(CartOpClear)
	return nil
}

// AttachUser links an existing guest cart session to a user. A session
// that already belongs to someone keeps its owner.
func (s *CartService) AttachUser(ctx context.Context, sessionID string, userID int64) error {
	if sessionID == "" || userID <= 0 {
		return nil
	}
	sess, err := s.queries.GetCartSession(ctx, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading cart session: %w", err)
	}
	if sess.UserID.Valid {
		return nil
	}
	return s.touch(ctx, sessionID, &userID)
}

// PurgeExpired deletes expired sessions and their items.
func (s *CartService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.queries.DeleteExpiredCartSessions(ctx, store.Now())
	if err != nil {
		return 0, fmt.Errorf("purging cart sessions: %w", err)
	}
	return n, nil
}
