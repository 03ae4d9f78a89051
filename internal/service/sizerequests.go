// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/store"
	"github.com/olegiv/ocms-shop/internal/util"
)

// SizeRequestInput is a made-to-measure request.
type SizeRequestInput struct {
	UserID       *int64
	ProductID    *int64
	Name         string
	Email        string
	Phone        string
	Measurements string
	Notes        string
}

// SizeRequestService handles special size requests.
type SizeRequestService struct {
	queries *store.Queries
	events  *EventService
}

// NewSizeRequestService creates a SizeRequestService.
func NewSizeRequestService(db *sql.DB, events *EventService) *SizeRequestService {
	return &SizeRequestService{queries: store.New(db), events: events}
}

// Create stores a new request.
func (s *SizeRequestService) Create(ctx context.Context, in SizeRequestInput) (store.SpecialSizeRequest, error) {
	in.Name = SanitizeText(in.Name)
	in.Email = NormalizeEmail(in.Email)
	in.Measurements = SanitizeText(in.Measurements)
	switch {
	case in.Name == "":
		return store.SpecialSizeRequest{}, invalid("name", "Ad soyad zorunludur")
	case !ValidEmail(in.Email):
		return store.SpecialSizeRequest{}, invalid("email", "Geçerli bir e-posta adresi giriniz")
	case in.Measurements == "":
		return store.SpecialSizeRequest{}, invalid("measurements", "Ölçü bilgileri zorunludur")
	}
	if in.ProductID != nil {
		if _, err := s.queries.GetProductByID(ctx, *in.ProductID); err != nil {
			return store.SpecialSizeRequest{}, notFound(err, "loading product")
		}
	}

	now := store.Now()
	req, err := s.queries.CreateSpecialSizeRequest(ctx, store.CreateSpecialSizeRequestParams{
		UserID:       util.NullInt64FromPtr(in.UserID),
		ProductID:    util.NullInt64FromPtr(in.ProductID),
		Name:         in.Name,
		Email:        in.Email,
		Phone:        strings.TrimSpace(in.Phone),
		Measurements: in.Measurements,
		Notes:        SanitizeText(in.Notes),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return store.SpecialSizeRequest{}, fmt.Errorf("creating size request: %w", err)
	}
	return req, nil
}

// List returns requests, optionally filtered by status.
func (s *SizeRequestService) List(ctx context.Context, status string, p Paging) ([]store.SpecialSizeRequest, int64, error) {
	if status != "" && !model.IsValidSizeRequestStatus(status) {
		return nil, 0, invalid("status", "Geçersiz talep durumu")
	}
	p = p.Normalize()
	reqs, err := s.queries.ListSpecialSizeRequests(ctx, store.ListSpecialSizeRequestsParams{
		Status: status, Limit: p.Limit(), Offset: p.Offset(),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("listing size requests: %w", err)
	}
	total, err := s.queries.CountSpecialSizeRequests(ctx, status)
	if err != nil {
		return nil, 0, fmt.Errorf("counting size requests: %w", err)
	}
	if reqs == nil {
		reqs = []store.SpecialSizeRequest{}
	}
	return reqs, total, nil
}

// Get returns a request by id.
func (s *SizeRequestService) Get(ctx context.Context, id int64) (store.SpecialSizeRequest, error) {
	req, err := s.queries.GetSpecialSizeRequest(ctx, id)
	if err != nil {
		return store.SpecialSizeRequest{}, notFound(err, "loading size request")
	}
	return req, nil
}

// Update sets the status and admin note. A nil note keeps the current one.
func (s *SizeRequestService) Update(ctx context.Context, actorID, id int64, status string, note *string) (store.SpecialSizeRequest, error) {
	if !model.IsValidSizeRequestStatus(status) {
		return store.SpecialSizeRequest{}, invalid("status", "Geçersiz talep durumu")
	}
	req, err := s.Get(ctx, id)
	if err != nil {
		return store.SpecialSizeRequest{}, err
	}
	adminNote := req.AdminNote
	if note != nil {
		adminNote = strings.TrimSpace(*note)
	}
	updated, err := s.queries.UpdateSpecialSizeRequest(ctx, store.UpdateSpecialSizeRequestParams{
		Status: status, AdminNote: adminNote, UpdatedAt: store.Now(), ID: id,
	})
	if err != nil {
		return store.SpecialSizeRequest{}, notFound(err, "updating size request")
	}
	_ = s.events.LogInfo(ctx, model.EventCategoryOrder, "Size request updated", actor(actorID), map[string]any{
		"request_id": id, "status": status,
	})
	return updated, nil
}

// Delete removes a request.
func (s *SizeRequestService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.queries.DeleteSpecialSizeRequest(ctx, id); err != nil {
		return fmt.Errorf("deleting size request: %w", err)
	}
	return nil
}
