// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/ocms-shop/internal/handler"
	"github.com/olegiv/ocms-shop/internal/middleware"
	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/service"
)

// PageRequest is the body of page create and update requests. On update,
// absent fields keep their stored value.
type PageRequest struct {
	Title           *string `json:"title" validate:"omitempty,max=200"`
	Slug            *string `json:"slug" validate:"omitempty,max=200"`
	Content         *string `json:"content" validate:"omitempty,max=200000"`
	ContentFormat   *string `json:"content_format"`
	MetaTitle       *string `json:"meta_title" validate:"omitempty,max=200"`
	MetaDescription *string `json:"meta_description" validate:"omitempty,max=500"`
	IsPublished     *bool   `json:"is_published"`
	ShowInFooter    *bool   `json:"show_in_footer"`
}

func (req PageRequest) apply(in *service.PageInput) {
	for _, f := range []struct {
		dst *string
		v   *string
	}{
		{&in.Title, req.Title},
		{&in.Slug, req.Slug},
		{&in.Content, req.Content},
		{&in.ContentFormat, req.ContentFormat},
		{&in.MetaTitle, req.MetaTitle},
		{&in.MetaDescription, req.MetaDescription},
	} {
		if f.v != nil {
			*f.dst = *f.v
		}
	}
	if req.IsPublished != nil {
		in.IsPublished = *req.IsPublished
	}
	if req.ShowInFooter != nil {
		in.ShowInFooter = *req.ShowInFooter
	}
}

// AdminListPages handles GET /api/admin/pages.
func (h *Handler) AdminListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.svc.Content.ListPages(r.Context())
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	WriteSuccess(w, pagesToSummary(pages), nil)
}

// AdminGetPage handles GET /api/admin/pages/{id}.
func (h *Handler) AdminGetPage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	view, err := h.svc.Content.GetPage(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, msgPageNotFound)
		return
	}
	WriteSuccess(w, pageViewToResponse(view), nil)
}

// AdminCreatePage handles POST /api/admin/pages.
func (h *Handler) AdminCreatePage(w http.ResponseWriter, r *http.Request) {
	var req PageRequest
	if !h.decode(w, r, &req) {
		return
	}
	in := service.PageInput{ContentFormat: model.ContentFormatMarkdown}
	req.apply(&in)

	p, err := h.svc.Content.CreatePage(r.Context(), middleware.GetUserID(r), in)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	h.writePage(w, r, p.ID, http.StatusCreated)
}

// AdminUpdatePage handles PUT /api/admin/pages/{id}.
func (h *Handler) AdminUpdatePage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req PageRequest
	if !h.decode(w, r, &req) {
		return
	}
	current, err := h.svc.Content.GetPage(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, msgPageNotFound)
		return
	}
	in := service.PageInputFromPage(current.Page)
	req.apply(&in)

	if _, err := h.svc.Content.UpdatePage(r.Context(), middleware.GetUserID(r), id, in); err != nil {
		h.fail(w, r, err, msgPageNotFound)
		return
	}
	h.writePage(w, r, id, http.StatusOK)
}

func (h *Handler) writePage(w http.ResponseWriter, r *http.Request, id int64, status int) {
	view, err := h.svc.Content.GetPage(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, msgPageNotFound)
		return
	}
	WriteJSON(w, status, Response{Data: pageViewToResponse(view)})
}

// AdminDeletePage handles DELETE /api/admin/pages/{id}.
func (h *Handler) AdminDeletePage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Content.DeletePage(r.Context(), middleware.GetUserID(r), id); err != nil {
		h.fail(w, r, err, msgPageNotFound)
		return
	}
	WriteMessage(w, "Sayfa silindi")
}

// AdminListReviews handles GET /api/admin/reviews?approved=true|false.
func (h *Handler) AdminListReviews(w http.ResponseWriter, r *http.Request) {
	var approved sql.NullBool
	switch strings.ToLower(r.URL.Query().Get("approved")) {
	case "":
	case "true", "1":
		approved = sql.NullBool{Bool: true, Valid: true}
	case "false", "0":
		approved = sql.NullBool{Bool: false, Valid: true}
	default:
		WriteValidationError(w, map[string]string{"approved": "Geçersiz değer"})
		return
	}

	p := paging(r)
	reviews, total, err := h.svc.Reviews.AdminList(r.Context(), approved, p)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	WriteSuccess(w, reviewsToResponse(reviews), newMeta(total, p))
}

func (h *Handler) setReviewApproved(w http.ResponseWriter, r *http.Request, approved bool) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	review, err := h.svc.Reviews.SetApproved(r.Context(), middleware.GetUserID(r), id, approved)
	if err != nil {
		h.fail(w, r, err, "Değerlendirme bulunamadı")
		return
	}
	WriteSuccess(w, reviewToResponse(review), nil)
}

// AdminApproveReview handles PUT /api/admin/reviews/{id}/approve.
func (h *Handler) AdminApproveReview(w http.ResponseWriter, r *http.Request) {
	h.setReviewApproved(w, r, true)
}

// AdminUnapproveReview handles PUT /api/admin/reviews/{id}/unapprove.
func (h *Handler) AdminUnapproveReview(w http.ResponseWriter, r *http.Request) {
	h.setReviewApproved(w, r, false)
}

// AdminDeleteReview handles DELETE /api/admin/reviews/{id}.
func (h *Handler) AdminDeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Reviews.Delete(r.Context(), middleware.GetUserID(r), id); err != nil {
		h.fail(w, r, err, "Değerlendirme bulunamadı")
		return
	}
	WriteMessage(w, "Değerlendirme silindi")
}

// AdminListSubscribers handles GET /api/admin/newsletter?active=true.
func (h *Handler) AdminListSubscribers(w http.ResponseWriter, r *http.Request) {
	p := paging(r)
	subs, total, err := h.svc.Newsletter.List(r.Context(), handler.ParseBoolParam(r, "active"), p)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	out := make([]SubscriptionResponse, len(subs))
	for i, s := range subs {
		out[i] = subscriptionToResponse(s)
	}
	WriteSuccess(w, out, newMeta(total, p))
}

// AdminDeleteSubscriber handles DELETE /api/admin/newsletter/{id}.
func (h *Handler) AdminDeleteSubscriber(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Newsletter.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err, msgSubNotFound)
		return
	}
	WriteMessage(w, "Abone silindi")
}

// AdminExportSubscribers handles GET /api/admin/newsletter/export.
func (h *Handler) AdminExportSubscribers(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.svc.Newsletter.ExportCSV(r.Context(), &buf, handler.ParseBoolParam(r, "active")); err != nil {
		h.fail(w, r, err, "")
		return
	}
	writeCSV(w, fmt.Sprintf("bulten-aboneleri-%s.csv", time.Now().Format("2006-01-02")), buf.Bytes())
}

// SizeRequestUpdate is the body of PUT /api/admin/special-size-requests/{id}.
type SizeRequestUpdate struct {
	Status    string  `json:"status" validate:"required"`
	AdminNote *string `json:"admin_note" validate:"omitempty,max=2000"`
}

// AdminListSizeRequests handles GET /api/admin/special-size-requests?status=.
func (h *Handler) AdminListSizeRequests(w http.ResponseWriter, r *http.Request) {
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	if status != "" && !model.IsValidSizeRequestStatus(status) {
		WriteValidationError(w, map[string]string{"status": "Geçersiz talep durumu"})
		return
	}
	p := paging(r)
	reqs, total, err := h.svc.SizeRequests.List(r.Context(), status, p)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	out := make([]SizeRequestResponse, len(reqs))
	for i, sr := range reqs {
		out[i] = sizeRequestToResponse(sr)
	}
	WriteSuccess(w, out, newMeta(total, p))
}

// AdminGetSizeRequest handles GET /api/admin/special-size-requests/{id}.
func (h *Handler) AdminGetSizeRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	sr, err := h.svc.SizeRequests.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, msgSizeRequestNotFound)
		return
	}
	WriteSuccess(w, sizeRequestToResponse(sr), nil)
}

// AdminUpdateSizeRequest handles PUT /api/admin/special-size-requests/{id}.
func (h *Handler) AdminUpdateSizeRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req SizeRequestUpdate
	if !h.decode(w, r, &req) {
		return
	}
	sr, err := h.svc.SizeRequests.Update(r.Context(), middleware.GetUserID(r), id, req.Status, req.AdminNote)
	if err != nil {
		h.fail(w, r, err, msgSizeRequestNotFound)
		return
	}
	WriteSuccess(w, sizeRequestToResponse(sr), nil)
}

// AdminDeleteSizeRequest handles DELETE /api/admin/special-size-requests/{id}.
func (h *Handler) AdminDeleteSizeRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.SizeRequests.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err, msgSizeRequestNotFound)
		return
	}
	WriteMessage(w, "Talep silindi")
}
