// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"encoding/json"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/service"
	"github.com/olegiv/ocms-shop/internal/store"
)

// money formats an amount with two decimals, the wire format of all prices.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func nullInt(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Phone       string     `json:"phone"`
	Address     string     `json:"address"`
	City        string     `json:"city"`
	IsAdmin     bool       `json:"is_admin"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func userToResponse(u store.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Phone:       u.Phone,
		Address:     u.Address,
		City:        u.City,
		IsAdmin:     u.IsAdmin,
		LastLoginAt: nullTime(u.LastLoginAt),
		CreatedAt:   u.CreatedAt,
	}
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

func authToResponse(res *service.AuthResult) AuthResponse {
	return AuthResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User:      userToResponse(res.User),
	}
}

// CategoryResponse represents a category in API responses.
type CategoryResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	ImageURL     string    `json:"image_url"`
	ParentID     *int64    `json:"parent_id,omitempty"`
	DisplayOrder int64     `json:"display_order"`
	IsActive     bool      `json:"is_active"`
	ProductCount *int64    `json:"product_count,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func categoryToResponse(c store.Category) CategoryResponse {
	return CategoryResponse{
		ID:           c.ID,
		Name:         c.Name,
		Slug:         c.Slug,
		Description:  c.Description,
		ImageURL:     c.ImageUrl,
		ParentID:     nullInt(c.ParentID),
		DisplayOrder: c.DisplayOrder,
		IsActive:     c.IsActive,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func categoryWithCountToResponse(c store.CategoryWithCount) CategoryResponse {
	resp := categoryToResponse(c.Category)
	n := c.ProductCount
	resp.ProductCount = &n
	return resp
}

// ProductResponse represents a product in API responses.
type ProductResponse struct {
	ID             int64     `json:"id"`
	CategoryID     *int64    `json:"category_id,omitempty"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Description    string    `json:"description"`
	Price          string    `json:"price"`
	SalePrice      *string   `json:"sale_price,omitempty"`
	EffectivePrice string    `json:"effective_price"`
	Sku            string    `json:"sku,omitempty"`
	StockStatus    string    `json:"stock_status"`
	StockQuantity  *int64    `json:"stock_quantity,omitempty"`
	Purchasable    bool      `json:"purchasable"`
	Images         []string  `json:"images"`
	Sizes          []string  `json:"sizes"`
	IsFeatured     bool      `json:"is_featured"`
	IsNew          bool      `json:"is_new"`
	PreOrder       bool      `json:"pre_order"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func productToResponse(p store.Product) ProductResponse {
	resp := ProductResponse{
		ID:             p.ID,
		CategoryID:     nullInt(p.CategoryID),
		Name:           p.Name,
		Slug:           p.Slug,
		Description:    p.Description,
		Price:          money(p.Price),
		EffectivePrice: money(p.EffectivePrice()),
		Sku:            p.Sku.String,
		StockStatus:    p.StockStatus,
		StockQuantity:  nullInt(p.StockQuantity),
		Purchasable:    model.IsPurchasable(p.StockStatus, p.PreOrder),
		Images:         append([]string{}, p.Images...),
		Sizes:          append([]string{}, p.Sizes...),
		IsFeatured:     p.IsFeatured,
		IsNew:          p.IsNew,
		PreOrder:       p.PreOrder,
		IsActive:       p.IsActive,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if p.SalePrice.Valid {
		s := money(p.SalePrice.Decimal)
		resp.SalePrice = &s
	}
	return resp
}

func productsToResponse(products []store.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, productToResponse(p))
	}
	return out
}

// RatingResponse summarizes approved reviews.
type RatingResponse struct {
	Count   int64   `json:"count"`
	Average float64 `json:"average"`
}

func ratingToResponse(s store.ReviewSummary) RatingResponse {
	return RatingResponse{Count: s.Count, Average: math.Round(s.Average*10) / 10}
}

// ProductDetailResponse is the product detail page payload.
type ProductDetailResponse struct {
	ProductResponse
	Category *CategoryResponse `json:"category,omitempty"`
	Rating   RatingResponse    `json:"rating"`
	Related  []ProductResponse `json:"related"`
}

func productDetailToResponse(d *service.ProductDetail) ProductDetailResponse {
	resp := ProductDetailResponse{
		ProductResponse: productToResponse(d.Product),
		Rating:          ratingToResponse(d.Reviews),
		Related:         productsToResponse(d.Related),
	}
	if d.Category != nil {
		c := categoryToResponse(*d.Category)
		resp.Category = &c
	}
	return resp
}

// CartItemResponse is one cart line.
type CartItemResponse struct {
	ID        int64           `json:"id"`
	Product   ProductResponse `json:"product"`
	Size      string          `json:"size"`
	Quantity  int64           `json:"quantity"`
	UnitPrice string          `json:"unit_price"`
	LineTotal string          `json:"line_total"`
}

// CartResponse represents a priced cart.
type CartResponse struct {
	SessionID             string             `json:"session_id"`
	Items                 []CartItemResponse `json:"items"`
	Subtotal              string             `json:"subtotal"`
	ShippingCost          string             `json:"shipping_cost"`
	Total                 string             `json:"total"`
	ItemCount             int64              `json:"item_count"`
	FreeShippingThreshold string             `json:"free_shipping_threshold"`
	FreeShippingRemaining string             `json:"free_shipping_remaining"`
}

func cartToResponse(c *service.Cart, pricing service.Pricing) CartResponse {
	resp := CartResponse{
		SessionID:             c.SessionID,
		Items:                 make([]CartItemResponse, 0, len(c.Items)),
		Subtotal:              money(c.Subtotal),
		ShippingCost:          money(c.ShippingCost),
		Total:                 money(c.Total),
		ItemCount:             c.ItemCount,
		FreeShippingThreshold: money(pricing.FreeShippingThreshold),
		FreeShippingRemaining: money(decimal.Max(decimal.Zero, pricing.FreeShippingThreshold.Sub(c.Subtotal))),
	}
	for _, l := range c.Items {
		resp.Items = append(resp.Items, CartItemResponse{
			ID:        l.ID,
			Product:   productToResponse(l.Product),
			Size:      l.Size,
			Quantity:  l.Quantity,
			UnitPrice: money(l.UnitPrice),
			LineTotal: money(l.LineTotal),
		})
	}
	return resp
}

// OrderItemResponse is a snapshotted order line.
type OrderItemResponse struct {
	ID          int64  `json:"id"`
	ProductID   *int64 `json:"product_id,omitempty"`
	ProductName string `json:"product_name"`
	Size        string `json:"size"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
}

// OrderResponse represents an order in API responses.
type OrderResponse struct {
	ID              int64               `json:"id"`
	OrderNumber     string              `json:"order_number"`
	UserID          *int64              `json:"user_id,omitempty"`
	Status          string              `json:"status"`
	StatusLabel     string              `json:"status_label"`
	Subtotal        string              `json:"subtotal"`
	ShippingCost    string              `json:"shipping_cost"`
	TotalAmount     string              `json:"total_amount"`
	CustomerName    string              `json:"customer_name"`
	CustomerEmail   string              `json:"customer_email"`
	CustomerPhone   string              `json:"customer_phone"`
	ShippingAddress string              `json:"shipping_address"`
	City            string              `json:"city"`
	PostalCode      string              `json:"postal_code"`
	Notes           string              `json:"notes"`
	TrackingNumber  string              `json:"tracking_number,omitempty"`
	Cancellable     bool                `json:"cancellable"`
	Items           []OrderItemResponse `json:"items,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func orderToResponse(o store.Order) OrderResponse {
	return OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          nullInt(o.UserID),
		Status:          o.Status,
		StatusLabel:     model.OrderStatusLabel(o.Status),
		Subtotal:        money(o.Subtotal),
		ShippingCost:    money(o.ShippingCost),
		TotalAmount:     money(o.TotalAmount),
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		CustomerPhone:   o.CustomerPhone,
		ShippingAddress: o.ShippingAddress,
		City:            o.City,
		PostalCode:      o.PostalCode,
		Notes:           o.Notes,
		TrackingNumber:  o.TrackingNumber,
		Cancellable:     model.CustomerCanCancel(o.Status),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func ordersToResponse(orders []store.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderToResponse(o))
	}
	return out
}

func orderDetailToResponse(d *service.OrderDetail) OrderResponse {
	resp := orderToResponse(d.Order)
	resp.Items = make([]OrderItemResponse, 0, len(d.Items))
	for _, it := range d.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ID:          it.ID,
			ProductID:   nullInt(it.ProductID),
			ProductName: it.ProductName,
			Size:        it.Size,
			Quantity:    it.Quantity,
			UnitPrice:   money(it.UnitPrice),
			LineTotal:   money(it.LineTotal),
		})
	}
	return resp
}

// ReviewResponse represents a review in API responses.
type ReviewResponse struct {
	ID         int64     `json:"id"`
	ProductID  int64     `json:"product_id"`
	AuthorName string    `json:"author_name"`
	Rating     int64     `json:"rating"`
	Title      string    `json:"title"`
	Comment    string    `json:"comment"`
	IsApproved bool      `json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`
}

func reviewToResponse(r store.Review) ReviewResponse {
	return ReviewResponse{
		ID:         r.ID,
		ProductID:  r.ProductID,
		AuthorName: r.AuthorName,
		Rating:     r.Rating,
		Title:      r.Title,
		Comment:    r.Comment,
		IsApproved: r.IsApproved,
		CreatedAt:  r.CreatedAt,
	}
}

func reviewsToResponse(reviews []store.Review) []ReviewResponse {
	out := make([]ReviewResponse, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, reviewToResponse(r))
	}
	return out
}

// BannerResponse represents a banner in API responses.
type BannerResponse struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Subtitle     string     `json:"subtitle"`
	ImageURL     string     `json:"image_url"`
	LinkURL      string     `json:"link_url"`
	ButtonText   string     `json:"button_text"`
	Position     string     `json:"position"`
	DisplayOrder int64      `json:"display_order"`
	IsActive     bool       `json:"is_active"`
	StartsAt     *time.Time `json:"starts_at,omitempty"`
	EndsAt       *time.Time `json:"ends_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func bannerToResponse(b store.Banner) BannerResponse {
	return BannerResponse{
		ID:           b.ID,
		Title:        b.Title,
		Subtitle:     b.Subtitle,
		ImageURL:     b.ImageUrl,
		LinkURL:      b.LinkUrl,
		ButtonText:   b.ButtonText,
		Position:     b.Position,
		DisplayOrder: b.DisplayOrder,
		IsActive:     b.IsActive,
		StartsAt:     nullTime(b.StartsAt),
		EndsAt:       nullTime(b.EndsAt),
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func bannersToResponse(banners []store.Banner) []BannerResponse {
	out := make([]BannerResponse, 0, len(banners))
	for _, b := range banners {
		out = append(out, bannerToResponse(b))
	}
	return out
}

// PageSummaryResponse is a page in listings, without content.
type PageSummaryResponse struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	IsPublished  bool      `json:"is_published"`
	ShowInFooter bool      `json:"show_in_footer"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func pagesToSummary(pages []store.Page) []PageSummaryResponse {
	out := make([]PageSummaryResponse, 0, len(pages))
	for _, p := range pages {
		out = append(out, PageSummaryResponse{
			ID:           p.ID,
			Title:        p.Title,
			Slug:         p.Slug,
			IsPublished:  p.IsPublished,
			ShowInFooter: p.ShowInFooter,
			UpdatedAt:    p.UpdatedAt,
		})
	}
	return out
}

// PageResponse represents a CMS page with rendered content.
type PageResponse struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	Content         string    `json:"content"`
	ContentFormat   string    `json:"content_format"`
	ContentHTML     string    `json:"content_html"`
	MetaTitle       string    `json:"meta_title"`
	MetaDescription string    `json:"meta_description"`
	IsPublished     bool      `json:"is_published"`
	ShowInFooter    bool      `json:"show_in_footer"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func pageViewToResponse(v *service.PageView) PageResponse {
	p := v.Page
	return PageResponse{
		ID:              p.ID,
		Title:           p.Title,
		Slug:            p.Slug,
		Content:         p.Content,
		ContentFormat:   p.ContentFormat,
		ContentHTML:     v.ContentHTML,
		MetaTitle:       p.MetaTitle,
		MetaDescription: p.MetaDescription,
		IsPublished:     p.IsPublished,
		ShowInFooter:    p.ShowInFooter,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// SubscriptionResponse represents a newsletter subscription.
type SubscriptionResponse struct {
	ID             int64      `json:"id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	IsActive       bool       `json:"is_active"`
	SubscribedAt   time.Time  `json:"subscribed_at"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at,omitempty"`
}

func subscriptionToResponse(s store.NewsletterSubscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:             s.ID,
		Email:          s.Email,
		Name:           s.Name,
		IsActive:       s.IsActive,
		SubscribedAt:   s.SubscribedAt,
		UnsubscribedAt: nullTime(s.UnsubscribedAt),
	}
}

// SizeRequestResponse represents a special size request.
type SizeRequestResponse struct {
	ID           int64     `json:"id"`
	UserID       *int64    `json:"user_id,omitempty"`
	ProductID    *int64    `json:"product_id,omitempty"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Measurements string    `json:"measurements"`
	Notes        string    `json:"notes"`
	Status       string    `json:"status"`
	AdminNote    string    `json:"admin_note,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func sizeRequestToResponse(s store.SpecialSizeRequest) SizeRequestResponse {
	return SizeRequestResponse{
		ID:           s.ID,
		UserID:       nullInt(s.UserID),
		ProductID:    nullInt(s.ProductID),
		Name:         s.Name,
		Email:        s.Email,
		Phone:        s.Phone,
		Measurements: s.Measurements,
		Notes:        s.Notes,
		Status:       s.Status,
		AdminNote:    s.AdminNote,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// EventResponse represents a logged event.
type EventResponse struct {
	ID        int64           `json:"id"`
	Level     string          `json:"level"`
	Category  string          `json:"category"`
	Message   string          `json:"message"`
	UserID    *int64          `json:"user_id,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func eventToResponse(e store.Event) EventResponse {
	resp := EventResponse{
		ID:        e.ID,
		Level:     e.Level,
		Category:  e.Category,
		Message:   e.Message,
		UserID:    nullInt(e.UserID),
		CreatedAt: e.CreatedAt,
	}
	if e.Metadata != "" && json.Valid([]byte(e.Metadata)) {
		resp.Metadata = json.RawMessage(e.Metadata)
	}
	return resp
}

// WebhookDeliveryResponse represents one webhook delivery record.
type WebhookDeliveryResponse struct {
	ID           int64      `json:"id"`
	Event        string     `json:"event"`
	Status       string     `json:"status"`
	Attempts     int64      `json:"attempts"`
	ResponseCode *int64     `json:"response_code,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	NextRetryAt  *time.Time `json:"next_retry_at,omitempty"`
	DeliveredAt  *time.Time `json:"delivered_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func deliveryToResponse(d store.WebhookDelivery) WebhookDeliveryResponse {
	return WebhookDeliveryResponse{
		ID:           d.ID,
		Event:        d.Event,
		Status:       d.Status,
		Attempts:     d.Attempts,
		ResponseCode: nullInt(d.ResponseCode),
		ErrorMessage: d.ErrorMessage.String,
		NextRetryAt:  nullTime(d.NextRetryAt),
		DeliveredAt:  nullTime(d.DeliveredAt),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// UploadResponse describes a stored image.
type UploadResponse struct {
	URL      string            `json:"url"`
	MimeType string            `json:"mime_type"`
	Width    int               `json:"width"`
	Height   int               `json:"height"`
	Size     int64             `json:"size"`
	Variants map[string]string `json:"variants"`
}

func uploadToResponse(u *service.UploadedImage) UploadResponse {
	return UploadResponse{
		URL:      u.URL,
		MimeType: u.MimeType,
		Width:    u.Width,
		Height:   u.Height,
		Size:     u.Size,
		Variants: u.Variants,
	}
}
