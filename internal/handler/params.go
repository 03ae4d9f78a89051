// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler holds HTTP helpers shared by the API handlers, plus the
// health and SEO endpoints that live outside /api.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// ErrMissingParam is returned when a required URL parameter is empty.
var ErrMissingParam = errors.New("missing parameter")

// ParsePageParam reads the 1-based "page" query parameter.
func ParsePageParam(r *http.Request) int {
	return ParseIntParam(r, "page", 1, 1, 0)
}

// ParsePerPageParam reads "per_page"; values outside 1..maxVal give defaultVal.
func ParsePerPageParam(r *http.Request, defaultVal, maxVal int) int {
	return ParseIntParam(r, "per_page", defaultVal, 1, maxVal)
}

// ParseIntParam reads an integer query parameter. Values outside
// minVal..maxVal yield defaultVal; maxVal 0 disables the upper bound.
func ParseIntParam(r *http.Request, name string, defaultVal, minVal, maxVal int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < minVal || (maxVal > 0 && v > maxVal) {
		return defaultVal
	}
	return v
}

// ParseBoolParam reads a boolean query parameter ("1", "true", "evet").
func ParseBoolParam(r *http.Request, name string) bool {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get(name))) {
	case "1", "true", "yes", "evet":
		return true
	}
	return false
}

// ParseDecimalParam reads a decimal query parameter. A comma is accepted
// as the decimal separator.
func ParseDecimalParam(r *http.Request, name string) (decimal.NullDecimal, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// ParseDateParam reads a YYYY-MM-DD or RFC 3339 query parameter.
func ParseDateParam(r *http.Request, name string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ParseURLParamInt64 reads a chi URL parameter as int64.
func ParseURLParamInt64(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return 0, ErrMissingParam
	}
	return strconv.ParseInt(raw, 10, 64)
}
