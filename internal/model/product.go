// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Stock statuses
const (
	StockInStock    = "in_stock"
	StockLowStock   = "low_stock"
	StockOutOfStock = "out_of_stock"
	StockPreOrder   = "pre_order"
)

// DefaultLowStockThreshold is the tracked quantity at or below which a
// product is reported as low stock.
const DefaultLowStockThreshold = 5

// MaxCartQuantity caps the quantity of a single cart line.
const MaxCartQuantity = 99

// IsValidStockStatus reports whether s is a known stock status.
func IsValidStockStatus(s string) bool {
	switch s {
	case StockInStock, StockLowStock, StockOutOfStock, StockPreOrder:
		return true
	}
	return false
}

// StockStatusForQuantity derives the status of a product with a tracked quantity.
// Pre-order products keep their status regardless of quantity.
func StockStatusForQuantity(current string, quantity, lowThreshold int64) string {
	if current == StockPreOrder {
		return StockPreOrder
	}
	switch {
	case quantity <= 0:
		return StockOutOfStock
	case quantity <= lowThreshold:
		return StockLowStock
	default:
		return StockInStock
	}
}

// IsPurchasable reports whether a product in the given stock status can be
// added to a cart.
func IsPurchasable(stockStatus string, preOrder bool) bool {
	if preOrder || stockStatus == StockPreOrder {
		return true
	}
	return stockStatus != StockOutOfStock
}
