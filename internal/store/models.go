// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// StringList is a JSON-encoded TEXT column holding a list of strings.
type StringList []string

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("StringList: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("StringList: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Contains reports whether s is in the list.
func (l StringList) Contains(s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	Address      string
	City         string
	IsAdmin      bool
	LastLoginAt  sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Category struct {
	ID           int64
	Name         string
	Slug         string
	Description  string
	ImageUrl     string
	ParentID     sql.NullInt64
	DisplayOrder int64
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Product struct {
	ID            int64
	CategoryID    sql.NullInt64
	Name          string
	Slug          string
	Description   string
	Price         decimal.Decimal
	SalePrice     decimal.NullDecimal
	Sku           sql.NullString
	StockStatus   string
	StockQuantity sql.NullInt64
	Images        StringList
	Sizes         StringList
	IsFeatured    bool
	IsNew         bool
	PreOrder      bool
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EffectivePrice is the sale price when one is set, otherwise the list price.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice.Valid {
		return p.SalePrice.Decimal
	}
	return p.Price
}

type ProductView struct {
	ID         int64
	ProductID  int64
	UserID     sql.NullInt64
	DeviceType string
	Browser    string
	Os         string
	CreatedAt  time.Time
}

type CartSession struct {
	ID        string
	UserID    sql.NullInt64
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CartItem struct {
	ID        int64
	SessionID string
	ProductID int64
	Size      string
	Quantity  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Order struct {
	ID              int64
	OrderNumber     string
	UserID          sql.NullInt64
	SessionID       string
	Status          string
	Subtotal        decimal.Decimal
	ShippingCost    decimal.Decimal
	TotalAmount     decimal.Decimal
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ShippingAddress string
	City            string
	PostalCode      string
	Notes           string
	TrackingNumber  string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type OrderItem struct {
	ID          int64
	OrderID     int64
	ProductID   sql.NullInt64
	ProductName string
	Size        string
	Quantity    int64
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
	CreatedAt   time.Time
}

type Favorite struct {
	UserID    int64
	ProductID int64
	CreatedAt time.Time
}

type Review struct {
	ID         int64
	ProductID  int64
	UserID     sql.NullInt64
	AuthorName string
	Rating     int64
	Title      string
	Comment    string
	IsApproved bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Banner struct {
	ID           int64
	Title        string
	Subtitle     string
	ImageUrl     string
	LinkUrl      string
	ButtonText   string
	Position     string
	DisplayOrder int64
	IsActive     bool
	StartsAt     sql.NullTime
	EndsAt       sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Page struct {
	ID              int64
	Title           string
	Slug            string
	Content         string
	ContentFormat   string
	MetaTitle       string
	MetaDescription string
	IsPublished     bool
	ShowInFooter    bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type NewsletterSubscription struct {
	ID               int64
	Email            string
	Name             string
	IsActive         bool
	UnsubscribeToken string
	SubscribedAt     time.Time
	UnsubscribedAt   sql.NullTime
}

type SpecialSizeRequest struct {
	ID           int64
	UserID       sql.NullInt64
	ProductID    sql.NullInt64
	Name         string
	Email        string
	Phone        string
	Measurements string
	Notes        string
	Status       string
	AdminNote    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  string
	CreatedAt time.Time
}

type WebhookDelivery struct {
	ID           int64
	Event        string
	Payload      string
	Status       string
	Attempts     int64
	ResponseCode sql.NullInt64
	ErrorMessage sql.NullString
	NextRetryAt  sql.NullTime
	DeliveredAt  sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
