// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/olegiv/ocms-shop/internal/middleware"
	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/service"
)

// Multipart field names.
const (
	FieldImage = "image"
	FieldFile  = "file"
)

// multipartOverhead covers form fields and boundaries around the file.
const multipartOverhead = 1 << 20

// parseMultipart parses a multipart request body capped at maxSize plus
// form overhead. It writes the error response and returns false on failure.
func parseMultipart(w http.ResponseWriter, r *http.Request, field string, maxSize int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(maxSize + multipartOverhead); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			WriteError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, msgFileTooLarge, nil)
		case errors.Is(err, http.ErrNotMultipart):
			WriteValidationError(w, map[string]string{field: msgFileRequired})
		default:
			WriteBadRequest(w, msgInvalidRequest, nil)
		}
		return false
	}
	return true
}

// openFormFile returns the file in field of a parsed multipart form.
// present is false when the field is absent; ok is false when a response
// has been written.
func openFormFile(w http.ResponseWriter, r *http.Request, field string, maxSize int64) (file multipart.File, header *multipart.FileHeader, present, ok bool) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, false, true
	}
	if err != nil {
		WriteBadRequest(w, msgInvalidRequest, nil)
		return nil, nil, false, false
	}
	if header.Size > maxSize {
		_ = file.Close()
		WriteError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, msgFileTooLarge, nil)
		return nil, nil, false, false
	}
	return file, header, true, true
}

// formFile parses a multipart request and returns the required file in
// field. It writes the error response and returns ok=false on failure.
func formFile(w http.ResponseWriter, r *http.Request, field string, maxSize int64) (multipart.File, *multipart.FileHeader, bool) {
	if !parseMultipart(w, r, field, maxSize) {
		return nil, nil, false
	}
	file, header, present, ok := openFormFile(w, r, field, maxSize)
	if !ok {
		return nil, nil, false
	}
	if !present {
		WriteValidationError(w, map[string]string{field: msgFileRequired})
		return nil, nil, false
	}
	return file, header, true
}

// uploadImage stores the multipart image field under prefix.
func (h *Handler) uploadImage(w http.ResponseWriter, r *http.Request, prefix string) (*service.UploadedImage, bool) {
	file, header, ok := formFile(w, r, FieldImage, model.MaxImageUploadSize)
	if !ok {
		return nil, false
	}
	return h.storeImage(w, r, file, header, prefix)
}

// storeImage processes and stores an opened upload, closing it.
func (h *Handler) storeImage(w http.ResponseWriter, r *http.Request, file multipart.File, header *multipart.FileHeader, prefix string) (*service.UploadedImage, bool) {
	defer func() { _ = file.Close() }()

	img, err := h.svc.Media.UploadImage(r.Context(), file, prefix)
	if err != nil {
		h.fail(w, r, err, "")
		return nil, false
	}

	h.logger.Info("image uploaded",
		"url", img.URL,
		"filename", header.Filename,
		"size", img.Size,
		"user_id", middleware.GetUserID(r),
	)
	return img, true
}

// isMultipart reports whether the request carries a multipart form.
func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// UploadImage handles POST /api/admin/uploads?prefix=products|banners|categories.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	if prefix == "" {
		prefix = model.MediaPrefixProducts
	}
	switch prefix {
	case model.MediaPrefixProducts, model.MediaPrefixBanners, model.MediaPrefixCategories:
	default:
		WriteValidationError(w, map[string]string{"prefix": "Geçersiz yükleme klasörü"})
		return
	}

	img, ok := h.uploadImage(w, r, prefix)
	if !ok {
		return
	}
	WriteCreated(w, uploadToResponse(img))
}
