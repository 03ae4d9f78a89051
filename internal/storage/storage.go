// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package storage stores uploaded files on the local filesystem or in an
// S3-compatible bucket. Keys are slash-separated relative paths such as
// "products/originals/<uuid>.jpg".
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/olegiv/ocms-shop/internal/config"
)

// ErrInvalidKey is returned for empty, absolute or escaping keys.
var ErrInvalidKey = errors.New("invalid storage key")

// Storage is implemented by every upload backend.
type Storage interface {
	// Put writes data under key, replacing any existing object.
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Delete removes key. Missing objects are not an error.
	Delete(ctx context.Context, key string) error
	// Exists reports whether key is stored.
	Exists(ctx context.Context, key string) (bool, error)
	// URL returns the public URL of key.
	URL(key string) string
	// KeyFromURL maps a URL produced by URL back to its key.
	KeyFromURL(u string) (string, bool)
	// Check verifies the backend is writable or reachable.
	Check(ctx context.Context) error
	// Name identifies the backend in health output.
	Name() string
}

// New returns the backend selected by cfg.StorageDriver.
func New(cfg *config.Config) (Storage, error) {
	if cfg.UseS3() {
		return NewS3Storage(S3Options{
			Endpoint:     cfg.S3Endpoint,
			Region:       cfg.S3Region,
			Bucket:       cfg.S3Bucket,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			PublicURL:    cfg.S3PublicURL,
			UsePathStyle: cfg.S3UsePathStyle,
		})
	}
	return NewLocalStorage(cfg.UploadsDir, LocalURLPrefix)
}

// ValidateKey cleans key and rejects anything that could escape the
// storage root.
func ValidateKey(key string) (string, error) {
	if key == "" || strings.ContainsRune(key, '\\') || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	clean := path.Clean(key)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return clean, nil
}
