// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/service"
	"github.com/olegiv/ocms-shop/internal/store"
)

// CategoryRequest is the body of category create and update requests.
// On update, absent fields keep their stored value.
type CategoryRequest struct {
	Name         *string         `json:"name" validate:"omitempty,max=120"`
	Slug         *string         `json:"slug" validate:"omitempty,max=120"`
	Description  *string         `json:"description" validate:"omitempty,max=2000"`
	ImageURL     *string         `json:"image_url" validate:"omitempty,max=500"`
	ParentID     Optional[int64] `json:"parent_id"`
	DisplayOrder *int64          `json:"display_order"`
	IsActive     *bool           `json:"is_active"`
}

func (req CategoryRequest) apply(in *service.CategoryInput) {
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.Slug != nil {
		in.Slug = *req.Slug
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if req.ImageURL != nil {
		in.ImageURL = *req.ImageURL
	}
	if req.ParentID.Set {
		in.ParentID = req.ParentID.Value
	}
	if req.DisplayOrder != nil {
		in.DisplayOrder = *req.DisplayOrder
	}
	if req.IsActive != nil {
		in.IsActive = *req.IsActive
	}
}

func categoryInput(c store.Category) service.CategoryInput {
	in := service.CategoryInput{
		Name:         c.Name,
		Slug:         c.Slug,
		Description:  c.Description,
		ImageURL:     c.ImageUrl,
		DisplayOrder: c.DisplayOrder,
		IsActive:     c.IsActive,
	}
	if c.ParentID.Valid {
		id := c.ParentID.Int64
		in.ParentID = &id
	}
	return in
}

func categoriesToResponse(cats []store.Category) []CategoryResponse {
	out := make([]CategoryResponse, len(cats))
	for i, c := range cats {
		out[i] = categoryToResponse(c)
	}
	return out
}

// AdminListCategories handles GET /api/admin/categories.
func (h *Handler) AdminListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.Catalog.AdminListCategories(r.Context())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	WriteSuccess(w, categoriesToResponse(cats), nil)
}

// AdminGetCategory handles GET /api/admin/categories/{id}.
func (h *Handler) AdminGetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	c, err := h.svc.Catalog.GetCategory(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, msgCategoryNotFound)
		return
	}
	WriteSuccess(w, categoryToResponse(c), nil)
}

// AdminCreateCategory handles POST /api/admin/categories.
func (h *Handler) AdminCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !h.decode(w, r, &req) {
		return
	}
	in := service.CategoryInput{IsActive: true}
	req.apply(&in)

	c, err := h.svc.Catalog.CreateCategory(r.Context(), in)
	if err != nil {
		h.fail(w, r, err, msgCategoryNotFound)
		return
	}
	WriteCreated(w, categoryToResponse(c))
}

// AdminUpdateCategory handles PUT /api/admin/categories/{id}.
func (h *Handler) AdminUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req CategoryRequest
	if !h.decode(w, r, &req) {
		return
	}

	current, err := h.svc.Catalog.GetCategory(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, msgCategoryNotFound)
		return
	}
	in := categoryInput(current)
	req.apply(&in)

	c, err := h.svc.Catalog.UpdateCategory(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err, msgCategoryNotFound)
		return
	}
	WriteSuccess(w, categoryToResponse(c), nil)
}

// AdminCategoryImage handles POST /api/admin/categories/{id}/image. The
// previous image is deleted from storage.
func (h *Handler) AdminCategoryImage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	current, err := h.svc.Catalog.GetCategory(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, msgCategoryNotFound)
		return
	}

	img, ok := h.uploadImage(w, r, model.MediaPrefixCategories)
	if !ok {
		return
	}
	in := categoryInput(current)
	in.ImageURL = img.URL
	c, err := h.svc.Catalog.UpdateCategory(r.Context(), id, in)
	if err != nil {
		_ = h.svc.Media.DeleteImage(r.Context(), img.URL)
		h.fail(w, r, err, msgCategoryNotFound)
		return
	}
	if current.ImageUrl != "" {
		if err := h.svc.Media.DeleteImage(r.Context(), current.ImageUrl); err != nil {
			h.logger.Warn("old category image delete failed", "url", current.ImageUrl, "error", err)
		}
	}
	WriteSuccess(w, categoryToResponse(c), nil)
}

// AdminDeleteCategory handles DELETE /api/admin/categories/{id}.
func (h *Handler) AdminDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Catalog.DeleteCategory(r.Context(), id); err != nil {
		h.fail(w, r, err, msgCategoryNotFound)
		return
	}
	WriteMessage(w, "Kategori silindi")
}
