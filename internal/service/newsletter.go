// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/ocms-shop/internal/store"
)

// SubscribeResult tells how a subscription request was handled.
type SubscribeResult int

const (
	// Subscribed is a new subscription.
	Subscribed SubscribeResult = iota
	// Resubscribed reactivates a previously cancelled subscription.
	Resubscribed
	// AlreadySubscribed means the address was already active.
	AlreadySubscribed
)

// NewsletterService manages newsletter subscriptions.
type NewsletterService struct {
	queries *store.Queries
}

// NewNewsletterService creates a NewsletterService.
func NewNewsletterService(db *sql.DB) *NewsletterService {
	return &NewsletterService{queries: store.New(db)}
}

// ValidEmail reports whether s is a bare e-mail address.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s, "@")
}

// Subscribe adds or reactivates email.
func (s *NewsletterService) Subscribe(ctx context.Context, email, name string) (store.NewsletterSubscription, SubscribeResult, error) {
	email = NormalizeEmail(email)
	if !ValidEmail(email) {
		return store.NewsletterSubscription{}, 0, invalid("email", "Geçerli bir e-posta adresi giriniz")
	}

	result := Subscribed
	existing, err := s.queries.GetSubscriptionByEmail(ctx, email)
	switch {
	case err == nil && existing.IsActive:
		return existing, AlreadySubscribed, nil
	case err == nil:
		result = Resubscribed
	case !errors.Is(err, sql.ErrNoRows):
		return store.NewsletterSubscription{}, 0, fmt.Errorf("loading subscription: %w", err)
	}

	sub, err := s.queries.UpsertSubscription(ctx, store.UpsertSubscriptionParams{
		Email:            email,
		Name:             strings.TrimSpace(name),
		UnsubscribeToken: uuid.NewString(),
		SubscribedAt:     store.Now(),
	})
	if err != nil {
		return store.NewsletterSubscription{}, 0, fmt.Errorf("saving subscription: %w", err)
	}
	return sub, result, nil
}

// UnsubscribeToken cancels the subscription owning token.
func (s *NewsletterService) UnsubscribeToken(ctx context.Context, token string) error {
	if _, err := uuid.Parse(token); err != nil {
		return ErrNotFound
	}
	n, err := s.queries.UnsubscribeByToken(ctx, store.UnsubscribeParams{UnsubscribedAt: store.Now(), Token: token})
	if err != nil {
		return fmt.Errorf("unsubscribing: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UnsubscribeEmail cancels the subscription of email.
func (s *NewsletterService) UnsubscribeEmail(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	n, err := s.queries.UnsubscribeByEmail(ctx, store.UnsubscribeEmailParams{UnsubscribedAt: store.Now(), Email: email})
	if err != nil {
		return fmt.Errorf("unsubscribing: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns subscriptions, optionally only active ones.
func (s *NewsletterService) List(ctx context.Context, activeOnly bool, p Paging) ([]store.NewsletterSubscription, int64, error) {
	p = p.Normalize()
	subs, err := s.queries.ListSubscriptions(ctx, store.ListSubscriptionsParams{
		ActiveOnly: activeOnly, Limit: p.Limit(), Offset: p.Offset(),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("listing subscriptions: %w", err)
	}
	total, err := s.queries.CountSubscriptions(ctx, activeOnly)
	if err != nil {
		return nil, 0, fmt.Errorf("counting subscriptions: %w", err)
	}
	if subs == nil {
		subs = []store.NewsletterSubscription{}
	}
	return subs, total, nil
}

// Delete removes a subscription.
func (s *NewsletterService) Delete(ctx context.Context, id int64) error {
	if err := s.queries.DeleteSubscription(ctx, id); err != nil {
		return fmt.Errorf("deleting subscription: %w", err)
	}
	return nil
}

// ExportCSV writes subscriptions as CSV with a header row.
func (s *NewsletterService) ExportCSV(ctx context.Context, w io.Writer, activeOnly bool) error {
	subs, err := s.queries.ListSubscriptions(ctx, store.ListSubscriptionsParams{ActiveOnly: activeOnly})
	if err != nil {
		return fmt.Errorf("listing subscriptions: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"email", "name", "is_active", "subscribed_at", "unsubscribed_at"}); err != nil {
		return err
	}
	for _, sub := range subs {
		unsub := ""
		if sub.UnsubscribedAt.Valid {
			unsub = sub.UnsubscribedAt.Time.UTC().Format(time.RFC3339)
		}
		active := "0"
		if sub.IsActive {
			active = "1"
		}
		if err := cw.Write([]string{
			sub.Email, sub.Name, active, sub.SubscribedAt.UTC().Format(time.RFC3339), unsub,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
