// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Webhook event types
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// Webhook delivery statuses
const (
	DeliveryStatusPending   = "pending"
	DeliveryStatusDelivered = "delivered"
	DeliveryStatusFailed    = "failed"
	DeliveryStatusDead      = "dead"
)

// OrderEventData is the payload data of order webhook events.
type OrderEventData struct {
	OrderID        int64  `json:"order_id"`
	OrderNumber    string `json:"order_number"`
	Status         string `json:"status"`
	PreviousStatus string `json:"previous_status,omitempty"`
	TotalAmount    string `json:"total_amount"`
	CustomerEmail  string `json:"customer_email"`
	ItemCount      int64  `json:"item_count,omitempty"`
}
