// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/ocms-shop/internal/middleware"
	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/service"
)

// BannerRequest holds banner fields from a JSON body or a multipart form.
// Absent fields keep their current value; an empty date clears it.
type BannerRequest struct {
	Title        *string             `json:"title" validate:"omitempty,max=200"`
	Subtitle     *string             `json:"subtitle" validate:"omitempty,max=500"`
	ImageURL     *string             `json:"image_url" validate:"omitempty,max=500"`
	LinkURL      *string             `json:"link_url" validate:"omitempty,max=500"`
	ButtonText   *string             `json:"button_text" validate:"omitempty,max=60"`
	Position     *string             `json:"position"`
	DisplayOrder *int64              `json:"display_order"`
	IsActive     *bool               `json:"is_active"`
	StartsAt     Optional[time.Time] `json:"starts_at"`
	EndsAt       Optional[time.Time] `json:"ends_at"`
}

func (req BannerRequest) apply(in *service.BannerInput) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&in.Title, req.Title)
	set(&in.Subtitle, req.Subtitle)
	set(&in.ImageURL, req.ImageURL)
	set(&in.LinkURL, req.LinkURL)
	set(&in.ButtonText, req.ButtonText)
	set(&in.Position, req.Position)
	if req.DisplayOrder != nil {
		in.DisplayOrder = *req.DisplayOrder
	}
	if req.IsActive != nil {
		in.IsActive = *req.IsActive
	}
	if req.StartsAt.Set {
		in.StartsAt = req.StartsAt.Value
	}
	if req.EndsAt.Set {
		in.EndsAt = req.EndsAt.Value
	}
}

// formTimeLayouts are accepted for banner dates in forms.
var formTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

func parseFormTime(v string) (*time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, true
	}
	for _, layout := range formTimeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, true
		}
	}
	return nil, false
}

// bannerRequestFromForm reads banner fields from a parsed multipart form.
func bannerRequestFromForm(form *multipart.Form) (BannerRequest, map[string]string) {
	var req BannerRequest
	errs := make(map[string]string)
	value := func(key string) (string, bool) {
		vs, ok := form.Value[key]
		if !ok || len(vs) == 0 {
			return "", false
		}
		return vs[0], true
	}

	for key, dst := range map[string]**string{
		"title":       &req.Title,
		"subtitle":    &req.Subtitle,
		"image_url":   &req.ImageURL,
		"link_url":    &req.LinkURL,
		"button_text": &req.ButtonText,
		"position":    &req.Position,
	} {
		if v, ok := value(key); ok {
			*dst = &v
		}
	}
	if v, ok := value("display_order"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			errs["display_order"] = "Sıra bir tam sayı olmalıdır"
		} else {
			req.DisplayOrder = &n
		}
	}
	if v, ok := value("is_active"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs["is_active"] = "Geçersiz değer"
		} else {
			req.IsActive = &b
		}
	}
	for key, dst := range map[string]*Optional[time.Time]{
		"starts_at": &req.StartsAt,
		"ends_at":   &req.EndsAt,
	} {
		if v, ok := value(key); ok {
			t, valid := parseFormTime(v)
			if !valid {
				errs[key] = "Geçersiz tarih"
				continue
			}
			*dst = Optional[time.Time]{Set: true, Value: t}
		}
	}
	return req, errs
}

// readBanner decodes a banner request and uploads its image when one is
// attached. uploaded is the stored image URL, to be removed when the
// banner cannot be saved.
func (h *Handler) readBanner(w http.ResponseWriter, r *http.Request) (req BannerRequest, uploaded string, ok bool) {
	if !isMultipart(r) {
		ok = h.decode(w, r, &req)
		return req, "", ok
	}

	if !parseMultipart(w, r, FieldImage, model.MaxImageUploadSize) {
		return req, "", false
	}
	req, errs := bannerRequestFromForm(r.MultipartForm)
	if len(errs) > 0 {
		WriteValidationError(w, errs)
		return req, "", false
	}
	file, header, present, ok := openFormFile(w, r, FieldImage, model.MaxImageUploadSize)
	if !ok {
		return req, "", false
	}
	if present {
		img, ok := h.storeImage(w, r, file, header, model.MediaPrefixBanners)
		if !ok {
			return req, "", false
		}
		uploaded = img.URL
		req.ImageURL = &uploaded
	}
	return req, uploaded, true
}

func (h *Handler) discardUpload(r *http.Request, url string) {
	if url == "" {
		return
	}
	if err := h.svc.Media.DeleteImage(r.Context(), url); err != nil {
		h.logger.Warn("orphan image cleanup failed", "url", url, "error", err)
	}
}

// AdminListBanners handles GET /api/admin/banners.
func (h *Handler) AdminListBanners(w http.ResponseWriter, r *http.Request) {
	banners, err := h.svc.Content.ListBanners(r.Context())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	WriteSuccess(w, bannersToResponse(banners), nil)
}

// AdminGetBanner handles GET /api/admin/banners/{id}.
func (h *Handler) AdminGetBanner(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	b, err := h.svc.Content.GetBanner(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, msgBannerNotFound)
		return
	}
	WriteSuccess(w, bannerToResponse(b), nil)
}

// AdminCreateBanner handles POST /api/admin/banners with a JSON body or a
// multipart form carrying the image.
func (h *Handler) AdminCreateBanner(w http.ResponseWriter, r *http.Request) {
	req, uploaded, ok := h.readBanner(w, r)
	if !ok {
		return
	}

	in := service.BannerInput{Position: model.BannerPositionHero, IsActive: true}
	req.apply(&in)
	if strings.TrimSpace(in.ImageURL) == "" {
		WriteValidationError(w, map[string]string{FieldImage: "Banner görseli zorunludur"})
		return
	}

	b, err := h.svc.Content.CreateBanner(r.Context(), middleware.GetUserID(r), in)
	if err != nil {
		h.discardUpload(r, uploaded)
		h.fail(w, r, err, "")
		return
	}
	WriteCreated(w, bannerToResponse(b))
}

// AdminUpdateBanner handles PUT /api/admin/banners/{id}.
func (h *Handler) AdminUpdateBanner(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	current, err := h.svc.Content.GetBanner(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, msgBannerNotFound)
		return
	}

	req, uploaded, ok := h.readBanner(w, r)
	if !ok {
		return
	}
	in := service.BannerInputFromBanner(current)
	req.apply(&in)

	b, err := h.svc.Content.UpdateBanner(r.Context(), middleware.GetUserID(r), id, in)
	if err != nil {
		h.discardUpload(r, uploaded)
		h.fail(w, r, err, msgBannerNotFound)
		return
	}
	WriteSuccess(w, bannerToResponse(b), nil)
}

// AdminDeleteBanner handles DELETE /api/admin/banners/{id}.
func (h *Handler) AdminDeleteBanner(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Content.DeleteBanner(r.Context(), middleware.GetUserID(r), id); err != nil {
		h.fail(w, r, err, msgBannerNotFound)
		return
	}
	WriteMessage(w, "Banner silindi")
}
