// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth     = "auth"
	EventCategoryUser     = "user"
	EventCategoryCatalog  = "catalog"
	EventCategoryCart     = "cart"
	EventCategoryOrder    = "order"
	EventCategoryContent  = "content"
	EventCategoryMedia    = "media"
	EventCategoryImport   = "import"
	EventCategoryWebhook  = "webhook"
	EventCategoryCache    = "cache"
	EventCategorySecurity = "security"
	EventCategorySystem   = "system"
)
