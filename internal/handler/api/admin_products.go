// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/olegiv/ocms-shop/internal/handler"
	"github.com/olegiv/ocms-shop/internal/middleware"
	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/service"
	"github.com/olegiv/ocms-shop/internal/transfer"
)

// ProductRequest is the body of POST /api/admin/products.
type ProductRequest struct {
	CategoryID    *int64              `json:"category_id" validate:"omitempty,gt=0"`
	Name          string              `json:"name" validate:"required,max=200"`
	Slug          string              `json:"slug" validate:"max=200"`
	Description   string              `json:"description" validate:"max=20000"`
	Price         decimal.Decimal     `json:"price"`
	SalePrice     decimal.NullDecimal `json:"sale_price"`
	Sku           string              `json:"sku" validate:"max=64"`
	StockStatus   string              `json:"stock_status"`
	StockQuantity *int64              `json:"stock_quantity" validate:"omitempty,gte=0"`
	Images        []string            `json:"images" validate:"max=30,dive,max=500"`
	Sizes         []string            `json:"sizes" validate:"max=40,dive,max=20"`
	IsFeatured    bool                `json:"is_featured"`
	IsNew         bool                `json:"is_new"`
	PreOrder      bool                `json:"pre_order"`
	IsActive      *bool               `json:"is_active"`
}

// ProductPatch is the body of PUT /api/admin/products/{id}. Absent fields
// keep their stored value; null clears the nullable ones.
type ProductPatch struct {
	CategoryID    Optional[int64]           `json:"category_id"`
	Name          *string                   `json:"name" validate:"omitempty,max=200"`
	Slug          *string                   `json:"slug" validate:"omitempty,max=200"`
	Description   *string                   `json:"description" validate:"omitempty,max=20000"`
	Price         *decimal.Decimal          `json:"price"`
	SalePrice     Optional[decimal.Decimal] `json:"sale_price"`
	Sku           *string                   `json:"sku" validate:"omitempty,max=64"`
	StockStatus   *string                   `json:"stock_status"`
	StockQuantity Optional[int64]           `json:"stock_quantity"`
	Images        *[]string                 `json:"images" validate:"omitempty,max=30,dive,max=500"`
	Sizes         *[]string                 `json:"sizes" validate:"omitempty,max=40,dive,max=20"`
	IsFeatured    *bool                     `json:"is_featured"`
	IsNew         *bool                     `json:"is_new"`
	PreOrder      *bool                     `json:"pre_order"`
	IsActive      *bool                     `json:"is_active"`
}

func (p ProductPatch) apply(in *service.ProductInput) {
	if p.CategoryID.Set {
		in.CategoryID = p.CategoryID.Value
	}
	if p.Name != nil {
		in.Name = *p.Name
	}
	if p.Slug != nil {
		in.Slug = *p.Slug
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.Price != nil {
		in.Price = *p.Price
	}
	if p.SalePrice.Set {
		in.SalePrice = decimal.NullDecimal{}
		if p.SalePrice.Value != nil {
			in.SalePrice = decimal.NewNullDecimal(*p.SalePrice.Value)
		}
	}
	if p.Sku != nil {
		in.Sku = *p.Sku
	}
	if p.StockStatus != nil {
		in.StockStatus = *p.StockStatus
	}
	if p.StockQuantity.Set {
		in.StockQuantity = p.StockQuantity.Value
	}
	if p.Images != nil {
		in.Images = *p.Images
	}
	if p.Sizes != nil {
		in.Sizes = *p.Sizes
	}
	if p.IsFeatured != nil {
		in.IsFeatured = *p.IsFeatured
	}
	if p.IsNew != nil {
		in.IsNew = *p.IsNew
	}
	if p.PreOrder != nil {
		in.PreOrder = *p.PreOrder
	}
	if p.IsActive != nil {
		in.IsActive = *p.IsActive
	}
}

// AdminListProducts handles GET /api/admin/products?search=.
func (h *Handler) AdminListProducts(w http.ResponseWriter, r *http.Request) {
	p := paging(r)
	page, err := h.svc.Catalog.AdminListProducts(r.Context(), strings.TrimSpace(r.URL.Query().Get("search")), p)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	WriteSuccess(w, productsToResponse(page.Products), &Meta{
		Total:   page.Total,
		Page:    page.Page,
		PerPage: page.PerPage,
		Pages:   page.Pages(),
	})
}

// AdminGetProduct handles GET /api/admin/products/{id}.
func (h *Handler) AdminGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	p, err := h.svc.Catalog.GetProduct(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, msgProductNotFound)
		return
	}
	WriteSuccess(w, productToResponse(p), nil)
}

// AdminCreateProduct handles POST /api/admin/products.
func (h *Handler) AdminCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	p, err := h.svc.Catalog.CreateProduct(r.Context(), service.ProductInput{
		CategoryID:    req.CategoryID,
		Name:          req.Name,
		Slug:          req.Slug,
		Description:   req.Description,
		Price:         req.Price,
		SalePrice:     req.SalePrice,
		Sku:           req.Sku,
		StockStatus:   req.StockStatus,
		StockQuantity: req.StockQuantity,
		Images:        req.Images,
		Sizes:         req.Sizes,
		IsFeatured:    req.IsFeatured,
		IsNew:         req.IsNew,
		PreOrder:      req.PreOrder,
		IsActive:      active,
	})
	if err != nil {
		h.fail(w, r, err, msgCategoryNotFound)
		return
	}

	h.logger.Info("product created", "product_id", p.ID, "slug", p.Slug, "user_id", middleware.GetUserID(r))
	WriteCreated(w, productToResponse(p))
}

// AdminUpdateProduct handles PUT /api/admin/products/{id}.
func (h *Handler) AdminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var patch ProductPatch
	if !h.decode(w, r, &patch) {
		return
	}

	current, err := h.svc.Catalog.GetProduct(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, msgProductNotFound)
		return
	}
	in := service.InputFromProduct(current)
	patch.apply(&in)

	p, err := h.svc.Catalog.UpdateProduct(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err, msgProductNotFound)
		return
	}
	WriteSuccess(w, productToResponse(p), nil)
}

// AdminDeleteProduct handles DELETE /api/admin/products/{id}. Products that
// appear in orders are deactivated instead.
func (h *Handler) AdminDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	deactivated, err := h.svc.Catalog.DeleteProduct(r.Context(), middleware.GetUserID(r), id)
	if err != nil {
		h.fail(w, r, err, msgProductNotFound)
		return
	}
	if deactivated {
		WriteJSON(w, http.StatusOK, Response{
			Data:    map[string]bool{"deactivated": true},
			Message: "Ürün siparişlerde kullanıldığı için silinmedi, pasif hale getirildi",
		})
		return
	}
	WriteMessage(w, "Ürün silindi")
}

// AdminAddProductImage handles POST /api/admin/products/{id}/images.
func (h *Handler) AdminAddProductImage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.svc.Catalog.GetProduct(r.Context(), id); err != nil {
		h.fail(w, r, err, msgProductNotFound)
		return
	}

	img, ok := h.uploadImage(w, r, model.MediaPrefixProducts)
	if !ok {
		return
	}
	p, err := h.svc.Catalog.AddProductImages(r.Context(), id, []string{img.URL})
	if err != nil {
		if derr := h.svc.Media.DeleteImage(r.Context(), img.URL); derr != nil {
			h.logger.Warn("orphan image cleanup failed", "url", img.URL, "error", derr)
		}
		h.fail(w, r, err, msgProductNotFound)
		return
	}
	WriteJSON(w, http.StatusCreated, Response{Data: map[string]any{
		"product": productToResponse(p),
		"image":   uploadToResponse(img),
	}})
}

// AdminRemoveProductImage handles DELETE /api/admin/products/{id}/images?url=.
func (h *Handler) AdminRemoveProductImage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	url := strings.TrimSpace(r.URL.Query().Get("url"))
	if url == "" {
		WriteValidationError(w, map[string]string{"url": "Görsel adresi zorunludur"})
		return
	}
	p, err := h.svc.Catalog.RemoveProductImage(r.Context(), id, url)
	if err != nil {
		h.fail(w, r, err, "Görsel bulunamadı")
		return
	}
	WriteSuccess(w, productToResponse(p), nil)
}

// AdminImportProducts handles POST /api/admin/products/import with a
// multipart CSV in field "file". dry_run=true validates without writing.
func (h *Handler) AdminImportProducts(w http.ResponseWriter, r *http.Request) {
	file, header, ok := formFile(w, r, FieldFile, model.MaxCSVUploadSize)
	if !ok {
		return
	}
	defer func() { _ = file.Close() }()

	dryRun := handler.ParseBoolParam(r, "dry_run")
	result, err := h.svc.Importer.Import(r.Context(), file, transfer.ImportOptions{DryRun: dryRun})
	if err != nil {
		if msg, ok := importErrorMessage(err); ok {
			WriteValidationError(w, map[string]string{FieldFile: msg})
			return
		}
		h.fail(w, r, err, "")
		return
	}

	h.logger.Info("products imported",
		"filename", header.Filename,
		"dry_run", dryRun,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"user_id", middleware.GetUserID(r),
	)
	WriteSuccess(w, result, nil)
}

func importErrorMessage(err error) (string, bool) {
	var perr *csv.ParseError
	switch {
	case errors.Is(err, transfer.ErrEmptyFile):
		return "CSV dosyası boş", true
	case errors.Is(err, transfer.ErrMissingColumns):
		return "CSV başlığında zorunlu sütunlar eksik (name, price)", true
	case errors.Is(err, transfer.ErrTooManyRows):
		return fmt.Sprintf("CSV dosyası en fazla %d satır içerebilir", transfer.MaxImportRows), true
	case errors.As(err, &perr):
		return fmt.Sprintf("CSV dosyası okunamadı (satır %d)", perr.Line), true
	}
	return "", false
}

// AdminExportProducts handles GET /api/admin/products/export.
func (h *Handler) AdminExportProducts(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if _, err := h.svc.Exporter.ExportProducts(r.Context(), &buf, transfer.ExportOptions{
		IncludeInactive: !handler.ParseBoolParam(r, "active_only"),
		BOM:             true,
	}); err != nil {
		h.fail(w, r, err, "")
		return
	}
	writeCSV(w, fmt.Sprintf("urunler-%s.csv", time.Now().Format("2006-01-02")), buf.Bytes())
}

// writeCSV sends data as a CSV attachment.
func writeCSV(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
