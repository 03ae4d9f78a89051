// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the shop's domain vocabulary: order and stock
// statuses, banner positions, event categories, and media settings.
package model

// Order statuses
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// orderTransitions lists the statuses reachable from each status.
var orderTransitions = map[string][]string{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  nil,
	OrderStatusCancelled:  nil,
}

// OrderStatuses returns every order status in lifecycle order.
func OrderStatuses() []string {
	return []string{
		OrderStatusPending,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}
}

// IsValidOrderStatus reports whether s is a known order status.
func IsValidOrderStatus(s string) bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransitionOrder reports whether an order may move from one status to another.
func CanTransitionOrder(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminalOrderStatus reports whether no further transition is possible.
func IsTerminalOrderStatus(s string) bool {
	next, ok := orderTransitions[s]
	return ok && len(next) == 0
}

// CustomerCanCancel reports whether the order owner may cancel an order in status s.
func CustomerCanCancel(s string) bool {
	return s == OrderStatusPending
}

// OrderStatusLabel returns the Turkish display label for an order status.
func OrderStatusLabel(s string) string {
	switch s {
	case OrderStatusPending:
		return "Beklemede"
	case OrderStatusProcessing:
		return "Hazırlanıyor"
	case OrderStatusShipped:
		return "Kargoya verildi"
	case OrderStatusDelivered:
		return "Teslim edildi"
	case OrderStatusCancelled:
		return "İptal edildi"
	default:
		return s
	}
}
