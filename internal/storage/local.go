// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/olegiv/ocms-shop/internal/util"
)

// LocalURLPrefix is where the HTTP server exposes the uploads directory.
const LocalURLPrefix = "/uploads/"

// LocalStorage keeps files under a base directory.
type LocalStorage struct {
	baseDir   string
	urlPrefix string
}

// NewLocalStorage creates baseDir if needed.
func NewLocalStorage(baseDir, urlPrefix string) (*LocalStorage, error) {
	if baseDir == "" {
		return nil, errors.New("uploads directory is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating uploads directory: %w", err)
	}
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &LocalStorage{baseDir: baseDir, urlPrefix: urlPrefix}, nil
}

// BaseDir returns the root directory served at the URL prefix.
func (s *LocalStorage) BaseDir() string {
	return s.baseDir
}

func (s *LocalStorage) path(key string) (string, error) {
	clean, err := ValidateKey(key)
	if err != nil {
		return "", err
	}
	return util.SafeJoinPath(s.baseDir, filepath.FromSlash(clean))
}

// Put writes data to a temporary file and renames it into place.
func (s *LocalStorage) Put(_ context.Context, key string, data []byte, _ string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp := p + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("moving file into place: %w", err)
	}
	return nil
}

// Delete removes the file for key.
func (s *LocalStorage) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

// Exists reports whether a regular file exists for key.
func (s *LocalStorage) Exists(_ context.Context, key string) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// URL returns the path under which key is served.
func (s *LocalStorage) URL(key string) string {
	return s.urlPrefix + strings.TrimPrefix(key, "/")
}

// KeyFromURL strips the URL prefix.
func (s *LocalStorage) KeyFromURL(u string) (string, bool) {
	if !strings.HasPrefix(u, s.urlPrefix) {
		return "", false
	}
	key, err := ValidateKey(strings.TrimPrefix(u, s.urlPrefix))
	if err != nil {
		return "", false
	}
	return key, true
}

// Check verifies the uploads directory is writable.
func (s *LocalStorage) Check(_ context.Context) error {
	f, err := os.CreateTemp(s.baseDir, ".healthcheck-*")
	if err != nil {
		return fmt.Errorf("uploads directory not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

// Name implements Storage.
func (s *LocalStorage) Name() string {
	return "local"
}

var _ Storage = (*LocalStorage)(nil)
