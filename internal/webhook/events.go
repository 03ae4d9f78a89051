// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package webhook posts signed order events to an external URL with
// persistent, retried deliveries.
package webhook

import (
	"time"

	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/store"
)

// Event represents a webhook event to be dispatched.
type Event struct {
	Type      string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// NewEvent creates a new webhook event.
func NewEvent(eventType string, data any) *Event {
	return &Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// orderData builds the payload data of an order event.
func orderData(order store.Order, previous string, items []store.OrderItem) model.OrderEventData {
	var count int64
	for _, it := range items {
		count += it.Quantity
	}
	return model.OrderEventData{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		Status:         order.Status,
		PreviousStatus: previous,
		TotalAmount:    order.TotalAmount.StringFixed(2),
		CustomerEmail:  order.CustomerEmail,
		ItemCount:      count,
	}
}
