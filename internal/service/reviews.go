// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"unicode/utf8"

	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/store"
)

const (
	// MaxReviewCommentLength bounds a review comment in characters.
	MaxReviewCommentLength = 2000
	// MaxReviewTitleLength bounds a review title in characters.
	MaxReviewTitleLength = 200
)

// ReviewInput is a customer review submission.
type ReviewInput struct {
	Rating  int64
	Title   string
	Comment string
}

// ReviewPage is one page of approved reviews with the product aggregate.
type ReviewPage struct {
	Reviews []store.Review
	Summary store.ReviewSummary
	Total   int64
	Page    int
	PerPage int
}

// ReviewService handles product reviews and their moderation.
type ReviewService struct {
	queries *store.Queries
	events  *EventService
}

// NewReviewService creates a ReviewService.
func NewReviewService(db *sql.DB, events *EventService) *ReviewService {
	return &ReviewService{queries: store.New(db), events: events}
}

func (s *ReviewService) activeProduct(ctx context.Context, slug string) (store.Product, error) {
	p, err := s.queries.GetProductBySlug(ctx, slug)
	if err != nil {
		return store.Product{}, notFound(err, "loading product")
	}
	if !p.IsActive {
		return store.Product{}, ErrNotFound
	}
	return p, nil
}

// ListApproved returns approved reviews of the product with slug.
func (s *ReviewService) ListApproved(ctx context.Context, slug string, p Paging) (*ReviewPage, error) {
	product, err := s.activeProduct(ctx, slug)
	if err != nil {
		return nil, err
	}
	p = p.Normalize()
	reviews, err := s.queries.ListApprovedReviews(ctx, store.ListApprovedReviewsParams{
		ProductID: product.ID, Limit: p.Limit(), Offset: p.Offset(),
	})
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	summary, err := s.queries.GetReviewSummary(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("summarizing reviews: %w", err)
	}
	if reviews == nil {
		reviews = []store.Review{}
	}
	return &ReviewPage{Reviews: reviews, Summary: summary, Total: summary.Count, Page: p.Page, PerPage: p.PerPage}, nil
}

// Create stores a review by user for the product with slug. Reviews wait
// for approval; a user may review a product once.
func (s *ReviewService) Create(ctx context.Context, slug string, user store.User, in ReviewInput) (store.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return store.Review{}, invalid("rating", "Puan 1 ile 5 arasında olmalıdır")
	}
	comment := SanitizeText(in.Comment)
	title := SanitizeText(in.Title)
	if comment == "" {
		return store.Review{}, invalid("comment", "Yorum boş olamaz")
	}
	if utf8.RuneCountInString(comment) > MaxReviewCommentLength {
		return store.Review{}, invalid("comment", "Yorum en fazla 2000 karakter olabilir")
	}
	if utf8.RuneCountInString(title) > MaxReviewTitleLength {
		return store.Review{}, invalid("title", "Başlık en fazla 200 karakter olabilir")
	}

	product, err := s.activeProduct(ctx, slug)
	if err != nil {
		return store.Review{}, err
	}
	n, err := s.queries.CountUserReviewsForProduct(ctx, store.CountUserReviewsForProductParams{
		ProductID: product.ID, UserID: user.ID,
	})
	if err != nil {
		return store.Review{}, fmt.Errorf("checking reviews: %w", err)
	}
	if n > 0 {
		return store.Review{}, ErrAlreadyReviewed
	}

	author := user.Name
	if author == "" {
		author = "Müşteri"
	}
	now := store.Now()
	review, err := s.queries.CreateReview(ctx, store.CreateReviewParams{
		ProductID:  product.ID,
		UserID:     sql.NullInt64{Int64: user.ID, Valid: true},
		AuthorName: author,
		Rating:     in.Rating,
		Title:      title,
		Comment:    comment,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return store.Review{}, ErrAlreadyReviewed
		}
		return store.Review{}, fmt.Errorf("creating review: %w", err)
	}
	return review, nil
}

// AdminList returns reviews, optionally filtered by approval state.
func (s *ReviewService) AdminList(ctx context.Context, approved sql.NullBool, p Paging) ([]store.Review, int64, error) {
	p = p.Normalize()
	reviews, err := s.queries.ListReviews(ctx, store.ListReviewsParams{
		Approved: approved, Limit: p.Limit(), Offset: p.Offset(),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("listing reviews: %w", err)
	}
	total, err := s.queries.CountReviews(ctx, approved)
	if err != nil {
		return nil, 0, fmt.Errorf("counting reviews: %w", err)
	}
	if reviews == nil {
		reviews = []store.Review{}
	}
	return reviews, total, nil
}

// SetApproved approves or hides a review.
func (s *ReviewService) SetApproved(ctx context.Context, actorID, id int64, approved bool) (store.Review, error) {
	review, err := s.queries.SetReviewApproved(ctx, store.SetReviewApprovedParams{
		IsApproved: approved, UpdatedAt: store.Now(), ID: id,
	})
	if err != nil {
		return store.Review{}, notFound(err, "updating review")
	}
	_ = s.events.LogCatalogEvent(ctx, model.EventLevelInfo, "Review moderated", actor(actorID), map[string]any{
		"review_id": id, "approved": approved,
	})
	return review, nil
}

// Delete removes a review.
func (s *ReviewService) Delete(ctx context.Context, actorID, id int64) error {
	if _, err := s.queries.GetReviewByID(ctx, id); err != nil {
		return notFound(err, "loading review")
	}
	if err := s.queries.DeleteReview(ctx, id); err != nil {
		return fmt.Errorf("deleting review: %w", err)
	}
	_ = s.events.LogCatalogEvent(ctx, model.EventLevelInfo, "Review deleted", actor(actorID), map[string]any{
		"review_id": id,
	})
	return nil
}
