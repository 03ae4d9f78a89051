// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-shop/internal/service"
)

// ReviewRequest is the body of POST /api/products/{slug}/reviews.
type ReviewRequest struct {
	Rating  int64  `json:"rating" validate:"required,min=1,max=5"`
	Title   string `json:"title" validate:"max=200"`
	Comment string `json:"comment" validate:"required,max=2000"`
}

// ReviewListResponse is a page of approved reviews with the rating summary.
type ReviewListResponse struct {
	Summary RatingResponse   `json:"summary"`
	Reviews []ReviewResponse `json:"reviews"`
}

// ListReviews handles GET /api/products/{slug}/reviews.
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	p := paging(r)
	page, err := h.svc.Reviews.ListApproved(r.Context(), chi.URLParam(r, "slug"), p)
	if err != nil {
		h.fail(w, r, err, msgProductNotFound)
		return
	}
	WriteSuccess(w, ReviewListResponse{
		Summary: ratingToResponse(page.Summary),
		Reviews: reviewsToResponse(page.Reviews),
	}, newMeta(page.Total, service.Paging{Page: page.Page, PerPage: page.PerPage}))
}

// CreateReview handles POST /api/products/{slug}/reviews.
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req ReviewRequest
	if !h.decode(w, r, &req) {
		return
	}

	review, err := h.svc.Reviews.Create(r.Context(), chi.URLParam(r, "slug"), user, service.ReviewInput{
		Rating:  req.Rating,
		Title:   req.Title,
		Comment: req.Comment,
	})
	if err != nil {
		h.fail(w, r, err, msgProductNotFound)
		return
	}
	WriteJSON(w, http.StatusCreated, Response{
		Data:    reviewToResponse(review),
		Message: "Değerlendirmeniz alındı, onaylandıktan sonra yayınlanacaktır",
	})
}
