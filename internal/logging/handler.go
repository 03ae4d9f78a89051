// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides slog setup and a handler that mirrors warnings
// and errors into the events table so administrators can review them.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/store"
)

// Attribute keys with special meaning to EventLogHandler.
const (
	AttrCategory = "category"
	AttrUserID   = "user_id"
)

// EventLogHandler forwards every record to an inner handler and stores the
// ones at or above a minimum level as events.
type EventLogHandler struct {
	inner    slog.Handler
	queries  *store.Queries
	minLevel slog.Level
	prefix   string // dotted group path applied to new attributes
	attrs    []slog.Attr
}

// NewEventLogHandler wraps inner. Records below minLevel only reach inner.
func NewEventLogHandler(inner slog.Handler, db *sql.DB, minLevel slog.Level) *EventLogHandler {
	return &EventLogHandler{inner: inner, queries: store.New(db), minLevel: minLevel}
}

func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.minLevel {
		h.store(r)
	}
	return nil
}

func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.inner = h.inner.WithAttrs(attrs)
	next.attrs = h.withPrefix(h.attrs, attrs)
	return &next
}

func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.inner = h.inner.WithGroup(name)
	if name != "" {
		next.prefix = h.prefix + name + "."
	}
	return &next
}

// withPrefix appends attrs to dst under the current group path.
func (h *EventLogHandler) withPrefix(dst, attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, len(dst), len(dst)+len(attrs))
	copy(out, dst)
	for _, a := range attrs {
		out = append(out, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}
	return out
}

func (h *EventLogHandler) store(r slog.Record) {
	own := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		own = append(own, a)
		return true
	})
	attrs := h.withPrefix(h.attrs, own)

	var userID sql.NullInt64
	for _, a := range attrs {
		v := a.Value.Resolve()
		if a.Key == AttrUserID && v.Kind() == slog.KindInt64 && v.Int64() > 0 {
			userID = sql.NullInt64{Int64: v.Int64(), Valid: true}
		}
	}

	// Background context: the request may be gone by now.
	_, _ = h.queries.CreateEvent(context.Background(), store.CreateEventParams{
		Level:     eventLevel(r.Level),
		Category:  categorize(r.Message, attrs),
		Message:   r.Message,
		UserID:    userID,
		Metadata:  metadataJSON(attrs),
		CreatedAt: r.Time,
	})
}

func eventLevel(level slog.Level) string {
	if level >= slog.LevelError {
		return model.EventLevelError
	}
	if level >= slog.LevelWarn {
		return model.EventLevelWarning
	}
	return model.EventLevelInfo
}

// keywordCategories is searched in order; the first hit wins.
var keywordCategories = []struct {
	category string
	words    []string
}{
	{model.EventCategorySecurity, []string{"csrf", "rate limit", "lockout", "blocked"}},
	{model.EventCategoryAuth, []string{"auth", "login", "token", "password"}},
	{model.EventCategoryOrder, []string{"order", "checkout"}},
	{model.EventCategoryCart, []string{"cart"}},
	{model.EventCategoryWebhook, []string{"webhook"}},
	{model.EventCategoryImport, []string{"import", "csv"}},
	{model.EventCategoryMedia, []string{"upload", "image", "storage"}},
	{model.EventCategoryCatalog, []string{"product", "category", "stock"}},
	{model.EventCategoryContent, []string{"page", "banner", "review", "newsletter"}},
	{model.EventCategoryUser, []string{"user"}},
	{model.EventCategoryCache, []string{"cache", "redis"}},
}

// categorize prefers an explicit category attribute and otherwise guesses
// from the message.
func categorize(message string, attrs []slog.Attr) string {
	for _, a := range attrs {
		if c := a.Value.String(); a.Key == AttrCategory && c != "" {
			return c
		}
	}
	msg := strings.ToLower(message)
	for _, kc := range keywordCategories {
		for _, w := range kc.words {
			if strings.Contains(msg, w) {
				return kc.category
			}
		}
	}
	return model.EventCategorySystem
}

// metadataJSON flattens attrs into a JSON object of strings.
func metadataJSON(attrs []slog.Attr) string {
	meta := make(map[string]string, len(attrs))
	for _, a := range attrs {
		if a.Key != "" && a.Key != AttrCategory {
			meta[a.Key] = a.Value.Resolve().String()
		}
	}
	b, err := json.Marshal(meta)
	if err != nil || len(meta) == 0 {
		return "{}"
	}
	return string(b)
}
