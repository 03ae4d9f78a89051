// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/olegiv/ocms-shop/internal/imaging"
	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/storage"
)

const originalsDir = "originals"

// UploadedImage is a stored image with the URLs of its variants.
type UploadedImage struct {
	URL      string
	MimeType string
	Width    int
	Height   int
	Size     int64
	Variants map[string]string
}

// MediaService processes image uploads and stores them with their variants.
type MediaService struct {
	storage   storage.Storage
	processor *imaging.Processor
	maxSize   int64
	events    *EventService
}

// NewMediaService creates a MediaService.
func NewMediaService(st storage.Storage, events *EventService) *MediaService {
	return &MediaService{
		storage:   st,
		processor: imaging.NewProcessor(),
		maxSize:   model.MaxImageUploadSize,
		events:    events,
	}
}

func validPrefix(prefix string) bool {
	switch prefix {
	case model.MediaPrefixProducts, model.MediaPrefixBanners, model.MediaPrefixCategories:
		return true
	}
	return false
}

// UploadImage reads an image from r, re-encodes it with EXIF orientation
// applied and stores the original and every variant under prefix. The
// declared content type is ignored; the format is sniffed from the bytes.
func (s *MediaService) UploadImage(ctx context.Context, r io.Reader, prefix string) (*UploadedImage, error) {
	if !validPrefix(prefix) {
		return nil, fmt.Errorf("unknown media prefix %q", prefix)
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, ErrFileTooLarge
	}
	if !model.IsSupportedImageType(imaging.DetectMimeType(data)) {
		return nil, ErrUnsupportedMedia
	}

	res, err := s.processor.Process(data)
	if errors.Is(err, imaging.ErrUnsupportedFormat) || errors.Is(err, imaging.ErrImageTooLarge) {
		return nil, ErrUnsupportedMedia
	}
	if err != nil {
		return nil, fmt.Errorf("processing image: %w", err)
	}

	name := uuid.NewString() + res.Original.Ext()
	stored := make([]string, 0, len(res.Variants)+1)
	cleanup := func() {
		for _, key := range stored {
			_ = s.storage.Delete(ctx, key)
		}
	}

	origKey := path.Join(prefix, originalsDir, name)
	if err := s.storage.Put(ctx, origKey, res.Original.Data, res.Original.MimeType); err != nil {
		return nil, fmt.Errorf("storing original: %w", err)
	}
	stored = append(stored, origKey)

	out := &UploadedImage{
		URL:      s.storage.URL(origKey),
		MimeType: res.Original.MimeType,
		Width:    res.Original.Width,
		Height:   res.Original.Height,
		Size:     int64(len(res.Original.Data)),
		Variants: make(map[string]string, len(res.Variants)),
	}
	for variant, img := range res.Variants {
		key := path.Join(prefix, variant, name)
		if err := s.storage.Put(ctx, key, img.Data, img.MimeType); err != nil {
			cleanup()
			return nil, fmt.Errorf("storing %s variant: %w", variant, err)
		}
		stored = append(stored, key)
		out.Variants[variant] = s.storage.URL(key)
	}

	_ = s.events.LogInfo(ctx, model.EventCategoryMedia, "Image uploaded", nil, map[string]any{
		"url": out.URL, "size": out.Size, "mime_type": out.MimeType,
	})
	return out, nil
}

// VariantURL returns the URL of variant for an original image URL. URLs
// not produced by this service are returned unchanged.
func (s *MediaService) VariantURL(originalURL, variant string) string {
	key, ok := s.storage.KeyFromURL(originalURL)
	if !ok {
		return originalURL
	}
	prefix, name, ok := splitOriginalKey(key)
	if !ok {
		return originalURL
	}
	return s.storage.URL(path.Join(prefix, variant, name))
}

// DeleteImage removes the original behind url and all its variants.
// Foreign URLs are ignored.
func (s *MediaService) DeleteImage(ctx context.Context, url string) error {
	key, ok := s.storage.KeyFromURL(url)
	if !ok {
		return nil
	}
	prefix, name, ok := splitOriginalKey(key)
	if !ok {
		return nil
	}

	keys := []string{key}
	for variant := range model.ImageVariants {
		keys = append(keys, path.Join(prefix, variant, name))
	}
	var errs []error
	for _, k := range keys {
		if err := s.storage.Delete(ctx, k); err != nil {
			errs = append(errs, fmt.Errorf("deleting %s: %w", k, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		slog.Warn("image delete incomplete", "url", url, "error", err)
		return err
	}
	return nil
}

// splitOriginalKey splits "<prefix>/originals/<name>".
func splitOriginalKey(key string) (prefix, name string, ok bool) {
	parts := strings.Split(key, "/")
	if len(parts) != 3 || parts[1] != originalsDir || !validPrefix(parts[0]) {
		return "", "", false
	}
	return parts[0], parts[2], true
}
