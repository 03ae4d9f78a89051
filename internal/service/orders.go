// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base32"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/olegiv/ocms-shop/internal/cache"
	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/store"
	"github.com/olegiv/ocms-shop/internal/util"
)

// OrderNumberPrefix starts every order number.
const OrderNumberPrefix = "SIP"

var orderNumberEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewOrderNumber returns SIP-YYYYMMDD-XXXXXX with a random base32 suffix.
func NewOrderNumber(now time.Time) (string, error) {
	b := make([]byte, 5)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	suffix := orderNumberEncoding.EncodeToString(b)[:6]
	return fmt.Sprintf("%s-%s-%s", OrderNumberPrefix, now.UTC().Format("20060102"), suffix), nil
}

// OrderObserver is notified after order changes are committed.
type OrderObserver interface {
	OrderCreated(ctx context.Context, order store.Order, items []store.OrderItem)
	OrderStatusChanged(ctx context.Context, order store.Order, previous string)
}

// OrderMetrics receives order counters.
type OrderMetrics interface {
	OrderCreated(total decimal.Decimal)
	OrderStatusChanged(status string)
}

type metricsObserver struct {
	m OrderMetrics
}

// MetricsObserver adapts OrderMetrics to OrderObserver.
func MetricsObserver(m OrderMetrics) OrderObserver {
	return metricsObserver{m: m}
}

func (o metricsObserver) OrderCreated(_ context.Context, order store.Order, _ []store.OrderItem) {
	o.m.OrderCreated(order.TotalAmount)
}

func (o metricsObserver) OrderStatusChanged(_ context.Context, order store.Order, _ string) {
	o.m.OrderStatusChanged(order.Status)
}

// CheckoutInput holds the customer details of a checkout.
type CheckoutInput struct {
	SessionID       string
	UserID          *int64
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ShippingAddress string
	City            string
	PostalCode      string
	Notes           string
}

// OrderDetail is an order with its items.
type OrderDetail struct {
	Order store.Order
	Items []store.OrderItem
}

// OrderService handles checkout and the order lifecycle.
type OrderService struct {
	db        *sql.DB
	queries   *store.Queries
	cache     *cache.Manager
	pricing   Pricing
	lowStock  int64
	events    *EventService
	observers []OrderObserver
}

// NewOrderService creates an OrderService. cm may be nil.
func NewOrderService(db *sql.DB, cm *cache.Manager, pricing Pricing, lowStock int64, events *EventService, observers ...OrderObserver) *OrderService {
	if lowStock <= 0 {
		lowStock = model.DefaultLowStockThreshold
	}
	return &OrderService{
		db:        db,
		queries:   store.New(db),
		cache:     cm,
		pricing:   pricing,
		lowStock:  lowStock,
		events:    events,
		observers: observers,
	}
}

// AddObserver registers an observer for order events.
func (s *OrderService) AddObserver(o OrderObserver) {
	s.observers = append(s.observers, o)
}

// Checkout turns the session cart into a pending order. Stock is
// re-validated and decremented inside one transaction and the cart is
// emptied.
func (s *OrderService) Checkout(ctx context.Context, in CheckoutInput) (*OrderDetail, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerEmail = NormalizeEmail(in.CustomerEmail)
	in.ShippingAddress = strings.TrimSpace(in.ShippingAddress)
	switch {
	case in.CustomerName == "":
		return nil, invalid("customer_name", "Ad soyad zorunludur")
	case in.CustomerEmail == "":
		return nil, invalid("customer_email", "E-posta adresi zorunludur")
	case in.ShippingAddress == "":
		return nil, invalid("shipping_address", "Teslimat adresi zorunludur")
	}
	if in.SessionID == "" {
		return nil, ErrEmptyCart
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	q := s.queries.WithTx(tx)

	sess, err := q.GetCartSession(ctx, in.SessionID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && sess.ExpiresAt.Before(time.Now())) {
		return nil, ErrEmptyCart
	}
	if err != nil {
		return nil, fmt.Errorf("loading cart session: %w", err)
	}

	lines, err := q.ListCartLines(ctx, in.SessionID)
	if err != nil {
		return nil, fmt.Errorf("listing cart items: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	// Remaining tracked stock per product, shared across lines of the same product.
	remaining := make(map[int64]int64)
	products := make(map[int64]store.Product)
	for _, l := range lines {
		p := l.Product
		if !p.IsActive || !model.IsPurchasable(p.StockStatus, p.PreOrder) {
			return nil, &StockError{ProductID: p.ID, ProductName: p.Name, Available: 0}
		}
		if !tracksStock(p) {
			continue
		}
		left, ok := remaining[p.ID]
		if !ok {
			left = p.StockQuantity.Int64
		}
		if l.Quantity > left {
			return nil, &StockError{ProductID: p.ID, ProductName: p.Name, Available: max(left, 0)}
		}
		remaining[p.ID] = left - l.Quantity
		products[p.ID] = p
	}

	cart := newCart(in.SessionID, lines, s.pricing)
	now := store.Now()

	number, err := s.uniqueOrderNumber(ctx, q, now)
	if err != nil {
		return nil, err
	}

	order, err := q.CreateOrder(ctx, store.CreateOrderParams{
		OrderNumber:     number,
		UserID:          util.NullInt64FromPtr(in.UserID),
		SessionID:       in.SessionID,
		Status:          model.OrderStatusPending,
		Subtotal:        cart.Subtotal,
		ShippingCost:    cart.ShippingCost,
		TotalAmount:     cart.Total,
		CustomerName:    in.CustomerName,
		CustomerEmail:   in.CustomerEmail,
		CustomerPhone:   strings.TrimSpace(in.CustomerPhone),
		ShippingAddress: in.ShippingAddress,
		City:            strings.TrimSpace(in.City),
		PostalCode:      strings.TrimSpace(in.PostalCode),
		Notes:           strings.TrimSpace(in.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return nil, fmt.Errorf("creating order: %w", err)
	}

	items := make([]store.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		item, err := q.CreateOrderItem(ctx, store.CreateOrderItemParams{
			OrderID:     order.ID,
			ProductID:   sql.NullInt64{Int64: line.Product.ID, Valid: true},
			ProductName: line.Product.Name,
			Size:        line.Size,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.LineTotal,
			CreatedAt:   now,
		})
		if err != nil {
			return nil, fmt.Errorf("creating order item: %w", err)
		}
		items = append(items, item)
	}

	for id, left := range remaining {
		p := products[id]
		if err := q.UpdateProductStock(ctx, store.UpdateProductStockParams{
			StockStatus:   model.StockStatusForQuantity(p.StockStatus, left, s.lowStock),
			StockQuantity: sql.NullInt64{Int64: left, Valid: true},
			UpdatedAt:     now,
			ID:            id,
		}); err != nil {
			return nil, fmt.Errorf("updating stock: %w", err)
		}
	}

	if err := q.ClearCartItems(ctx, in.SessionID); err != nil {
		return nil, fmt.Errorf("clearing cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing order: %w", err)
	}

	if len(remaining) > 0 && s.cache != nil {
		s.cache.InvalidateCatalog(ctx)
	}

	_ = s.events.LogOrderEvent(ctx, model.EventLevelInfo, "Order placed", in.UserID, map[string]any{
		"order_id": order.ID, "order_number": order.OrderNumber, "total": order.TotalAmount.StringFixed(2),
	})
	for _, o := range s.observers {
		o.OrderCreated(ctx, order, items)
	}
	return &OrderDetail{Order: order, Items: items}, nil
}

func tracksStock(p store.Product) bool {
	return p.StockQuantity.Valid && !p.PreOrder && p.StockStatus != model.StockPreOrder
}

func (s *OrderService) uniqueOrderNumber(ctx context.Context, q *store.Queries, now time.Time) (string, error) {
	for range 5 {
		number, err := NewOrderNumber(now)
		if err != nil {
			return "", fmt.Errorf("generating order number: %w", err)
		}
		n, err := q.OrderNumberExists(ctx, number)
		if err != nil {
			return "", fmt.Errorf("checking order number: %w", err)
		}
		if n == 0 {
			return number, nil
		}
	}
	return "", errors.New("could not generate a unique order number")
}

// Get returns any order with its items.
func (s *OrderService) Get(ctx context.Context, id int64) (*OrderDetail, error) {
	order, err := s.queries.GetOrderByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "loading order")
	}
	return s.withItems(ctx, order)
}

func (s *OrderService) withItems(ctx context.Context, order store.Order) (*OrderDetail, error) {
	items, err := s.queries.ListOrderItems(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("listing order items: %w", err)
	}
	if items == nil {
		items = []store.OrderItem{}
	}
	return &OrderDetail{Order: order, Items: items}, nil
}

// GetForUser returns an order visible to the user: their own, or any for
// administrators. Other orders are reported as not found.
func (s *OrderService) GetForUser(ctx context.Context, id, userID int64, isAdmin bool) (*OrderDetail, error) {
	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && (!detail.Order.UserID.Valid || detail.Order.UserID.Int64 != userID) {
		return nil, ErrNotFound
	}
	return detail, nil
}

// Track looks up a guest order by number; email must match the order.
func (s *OrderService) Track(ctx context.Context, orderNumber, email string) (*OrderDetail, error) {
	order, err := s.queries.GetOrderByNumber(ctx, strings.ToUpper(strings.TrimSpace(orderNumber)))
	if err != nil {
		return nil, notFound(err, "loading order")
	}
	if !strings.EqualFold(order.CustomerEmail, strings.TrimSpace(email)) {
		return nil, ErrNotFound
	}
	return s.withItems(ctx, order)
}

// ListForUser returns a user's orders, newest first.
func (s *OrderService) ListForUser(ctx context.Context, userID int64, p Paging) ([]store.Order, int64, error) {
	return s.List(ctx, store.OrderFilter{UserID: userID}, p)
}

// List returns orders matching f.
func (s *OrderService) List(ctx context.Context, f store.OrderFilter, p Paging) ([]store.Order, int64, error) {
	p = p.Normalize()
	f.Limit, f.Offset = p.Limit(), p.Offset()
	orders, err := s.queries.ListOrders(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	total, err := s.queries.CountOrders(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("counting orders: %w", err)
	}
	if orders == nil {
		orders = []store.Order{}
	}
	return orders, total, nil
}

// Cancel lets the owner cancel a pending order. Tracked stock is restored.
func (s *OrderService) Cancel(ctx context.Context, id, userID int64) (*OrderDetail, error) {
	return s.changeStatus(ctx, id, userID, model.OrderStatusCancelled, "", func(o store.Order) error {
		if !o.UserID.Valid || o.UserID.Int64 != userID {
			return ErrNotFound
		}
		if !model.CustomerCanCancel(o.Status) {
			return ErrNotCancellable
		}
		return nil
	})
}

// UpdateStatus moves an order to status following the lifecycle rules.
// A tracking number may accompany the change; repeating the current
// status only updates the tracking number.
func (s *OrderService) UpdateStatus(ctx context.Context, actorID, id int64, status, trackingNumber string) (*OrderDetail, error) {
	if !model.IsValidOrderStatus(status) {
		return nil, invalid("status", "Geçersiz sipariş durumu")
	}
	trackingNumber = strings.TrimSpace(trackingNumber)
	return s.changeStatus(ctx, id, actorID, status, trackingNumber, func(o store.Order) error {
		if o.Status == status && trackingNumber != "" {
			return nil
		}
		if !model.CanTransitionOrder(o.Status, status) {
			return ErrInvalidTransition
		}
		return nil
	})
}

func (s *OrderService) changeStatus(ctx context.Context, id, actorID int64, status, tracking string, check func(store.Order) error) (*OrderDetail, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	q := s.queries.WithTx(tx)

	order, err := q.GetOrderByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "loading order")
	}
	if err := check(order); err != nil {
		return nil, err
	}
	previous := order.Status
	now := store.Now()

	restocked := false
	if status == model.OrderStatusCancelled && previous != model.OrderStatusCancelled {
		if restocked, err = s.restoreStock(ctx, q, order.ID, now); err != nil {
			return nil, err
		}
	}

	if status != previous {
		if order, err = q.UpdateOrderStatus(ctx, store.UpdateOrderStatusParams{
			Status: status, UpdatedAt: now, ID: id,
		}); err != nil {
			return nil, fmt.Errorf("updating order status: %w", err)
		}
	}
	if tracking != "" {
		if order, err = q.UpdateOrderTracking(ctx, store.UpdateOrderTrackingParams{
			TrackingNumber: tracking, UpdatedAt: now, ID: id,
		}); err != nil {
			return nil, fmt.Errorf("updating tracking number: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing status change: %w", err)
	}

	if restocked && s.cache != nil {
		s.cache.InvalidateCatalog(ctx)
	}
	if status != previous {
		_ = s.events.LogOrderEvent(ctx, model.EventLevelInfo, "Order status changed", actor(actorID), map[string]any{
			"order_id": order.ID, "from": previous, "to": status,
		})
		for _, o := range s.observers {
			o.OrderStatusChanged(ctx, order, previous)
		}
	}
	return s.withItems(ctx, order)
}

// restoreStock returns the quantities of a cancelled order to tracked stock.
func (s *OrderService) restoreStock(ctx context.Context, q *store.Queries, orderID int64, now time.Time) (bool, error) {
	items, err := q.ListOrderItems(ctx, orderID)
	if err != nil {
		return false, fmt.Errorf("listing order items: %w", err)
	}
	changed := false
	for _, item := range items {
		if !item.ProductID.Valid {
			continue
		}
		p, err := q.GetProductByID(ctx, item.ProductID.Int64)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("loading product: %w", err)
		}
		if !tracksStock(p) {
			continue
		}
		qty := p.StockQuantity.Int64 + item.Quantity
		if err := q.UpdateProductStock(ctx, store.UpdateProductStockParams{
			StockStatus:   model.StockStatusForQuantity(p.StockStatus, qty, s.lowStock),
			StockQuantity: sql.NullInt64{Int64: qty, Valid: true},
			UpdatedAt:     now,
			ID:            p.ID,
		}); err != nil {
			return false, fmt.Errorf("restoring stock: %w", err)
		}
		changed = true
	}
	return changed, nil
}
