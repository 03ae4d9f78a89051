// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the REST JSON handlers of the shop.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/ocms-shop/internal/cache"
	"github.com/olegiv/ocms-shop/internal/handler"
	"github.com/olegiv/ocms-shop/internal/middleware"
	"github.com/olegiv/ocms-shop/internal/scheduler"
	"github.com/olegiv/ocms-shop/internal/service"
	"github.com/olegiv/ocms-shop/internal/store"
	"github.com/olegiv/ocms-shop/internal/transfer"
)

// Error codes returned by the API.
const (
	CodeBadRequest       = "bad_request"
	CodeUnauthorized     = middleware.CodeUnauthorized
	CodeForbidden        = middleware.CodeForbidden
	CodeNotFound         = "not_found"
	CodeConflict         = "conflict"
	CodeValidation       = "validation_error"
	CodeOutOfStock       = "out_of_stock"
	CodePayloadTooLarge  = "payload_too_large"
	CodeUnsupportedMedia = "unsupported_media_type"
	CodeUnavailable      = middleware.CodeUnavailable
	CodeInternal         = middleware.CodeInternal
)

// User-facing messages.
const (
	msgInvalidJSON     = "Geçersiz istek gövdesi"
	msgEmptyBody       = "İstek gövdesi boş olamaz"
	msgBodyTooLarge    = "İstek gövdesi çok büyük"
	msgValidation      = "Lütfen girdiğiniz bilgileri kontrol edin"
	msgInvalidID       = "Geçersiz kimlik"
	msgInternal        = "Beklenmeyen bir hata oluştu, lütfen daha sonra tekrar deneyin"
	msgNotFound        = "Kayıt bulunamadı"
	msgAuthRequired    = "Bu işlem için giriş yapmanız gerekiyor"
	msgInvalidRequest  = "Geçersiz istek"
	msgFileRequired    = "Lütfen bir dosya seçin"
	msgFileTooLarge    = "Dosya boyutu çok büyük"
	msgUnsupportedFile = "Desteklenmeyen dosya türü. JPEG, PNG, GIF veya WebP yükleyin"
)

// Services groups the domain services used by the handlers.
type Services struct {
	Users        *service.UserService
	Catalog      *service.CatalogService
	Cart         *service.CartService
	Orders       *service.OrderService
	Favorites    *service.FavoriteService
	Reviews      *service.ReviewService
	Content      *service.ContentService
	Newsletter   *service.NewsletterService
	SizeRequests *service.SizeRequestService
	Media        *service.MediaService
	Analytics    *service.AnalyticsService
	Events       *service.EventService
	Importer     *transfer.Importer
	Exporter     *transfer.Exporter
	Cache        *cache.Manager
	// Jobs is nil when the scheduler is disabled.
	Jobs JobRunner
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db       *sql.DB
	queries  *store.Queries
	svc      Services
	sessions *scs.SessionManager
	logger   *slog.Logger
}

// NewHandler creates a new API handler. sessions may be nil, in which case
// guest carts require the X-Session-ID header.
func NewHandler(db *sql.DB, svc Services, sessions *scs.SessionManager, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		db:       db,
		queries:  store.New(db),
		svc:      svc,
		sessions: sessions,
		logger:   logger,
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data    any    `json:"data,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
	Message string `json:"message,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Pages   int   `json:"pages"`
}

// newMeta builds pagination metadata for a normalized page.
func newMeta(total int64, p service.Paging) *Meta {
	return &Meta{
		Total:   total,
		Page:    p.Page,
		PerPage: p.PerPage,
		Pages:   service.TotalPages(total, p.PerPage),
	}
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteMessage writes a 200 response carrying only a message.
func WriteMessage(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusOK, Response{Message: message})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, CodeBadRequest, message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message, nil)
}

// WriteUnauthorized writes a 401 Unauthorized response.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, message, nil)
}

// WriteConflict writes a 409 Conflict response.
func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, CodeConflict, message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternal, message, nil)
}

// WriteValidationError writes a 422 Unprocessable Entity response with field errors.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	WriteError(w, http.StatusUnprocessableEntity, CodeValidation, msgValidation, fieldErrors)
}

// serviceErrors maps sentinel errors to a status, code and message.
var serviceErrors = []struct {
	err     error
	status  int
	code    string
	message string
}{
	{service.ErrEmailTaken, http.StatusConflict, CodeConflict, "Bu e-posta adresi zaten kayıtlı"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, CodeUnauthorized, "Geçersiz e-posta veya şifre"},
	{service.ErrSlugTaken, http.StatusConflict, CodeConflict, "Bu kısa ad (slug) zaten kullanılıyor"},
	{service.ErrSkuTaken, http.StatusConflict, CodeConflict, "Bu stok kodu (SKU) zaten kullanılıyor"},
	{service.ErrCategoryNotEmpty, http.StatusConflict, CodeConflict, "Bu kategoride ürün bulunduğu için silinemez"},
	{service.ErrOutOfStock, http.StatusConflict, CodeOutOfStock, "Ürün stokta yok"},
	{service.ErrInsufficientStock, http.StatusConflict, CodeOutOfStock, "Yeterli stok bulunmuyor"},
	{service.ErrInvalidSize, http.StatusUnprocessableEntity, CodeValidation, "Lütfen geçerli bir beden seçin"},
	{service.ErrEmptyCart, http.StatusBadRequest, CodeBadRequest, "Sepetiniz boş"},
	{service.ErrInvalidTransition, http.StatusConflict, CodeConflict, "Sipariş bu duruma güncellenemez"},
	{service.ErrNotCancellable, http.StatusConflict, CodeConflict, "Bu sipariş artık iptal edilemez"},
	{service.ErrAlreadyReviewed, http.StatusConflict, CodeConflict, "Bu ürünü zaten değerlendirdiniz"},
	{service.ErrCannotDeleteSelf, http.StatusBadRequest, CodeBadRequest, "Kendi hesabınızı silemezsiniz"},
	{service.ErrCannotDemoteSelf, http.StatusBadRequest, CodeBadRequest, "Kendi yönetici yetkinizi kaldıramazsınız"},
	{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, msgFileTooLarge},
	{service.ErrUnsupportedMedia, http.StatusUnsupportedMediaType, CodeUnsupportedMedia, msgUnsupportedFile},
	{scheduler.ErrJobNotFound, http.StatusNotFound, CodeNotFound, "Görev bulunamadı"},
	{scheduler.ErrJobRunning, http.StatusConflict, CodeConflict, "Görev zaten çalışıyor"},
	{scheduler.ErrTriggerLimited, http.StatusTooManyRequests, middleware.CodeRateLimited, "Görev kısa süre önce çalıştırıldı, lütfen biraz bekleyin"},
	{handler.ErrBodyTooLarge, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, msgBodyTooLarge},
	{handler.ErrEmptyBody, http.StatusBadRequest, CodeBadRequest, msgEmptyBody},
	{handler.ErrInvalidJSON, http.StatusBadRequest, CodeBadRequest, msgInvalidJSON},
}

// fail writes the response for a service error. notFound is the message
// used for service.ErrNotFound.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		WriteValidationError(w, map[string]string{verr.Field: verr.Message})
		return
	}

	var serr *service.StockError
	if errors.As(err, &serr) {
		msg := fmt.Sprintf("%s için yeterli stok yok (kalan: %d)", serr.ProductName, serr.Available)
		WriteError(w, http.StatusConflict, CodeOutOfStock, msg, map[string]string{
			"product_id": fmt.Sprint(serr.ProductID),
			"available":  fmt.Sprint(serr.Available),
		})
		return
	}

	if errors.Is(err, service.ErrNotFound) {
		if notFound == "" {
			notFound = msgNotFound
		}
		WriteNotFound(w, notFound)
		return
	}

	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			WriteError(w, m.status, m.code, m.message, nil)
			return
		}
	}

	if errors.Is(err, service.ErrInvalidInput) {
		WriteBadRequest(w, msgInvalidRequest, nil)
		return
	}

	h.logger.Error("request failed",
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", requestID(r),
	)
	WriteInternalError(w, msgInternal)
}

// decode reads a JSON body into v and validates its struct tags. It writes
// the error response and returns false when the body is unusable.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := handler.DecodeJSON(w, r, v); err != nil {
		h.fail(w, r, err, "")
		return false
	}
	if errs := handler.Validate(v); len(errs) > 0 {
		WriteValidationError(w, errs)
		return false
	}
	return true
}

// idParam parses the "id" URL parameter, writing a 400 when it is invalid.
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := handler.ParseURLParamInt64(r, name)
	if err != nil || id <= 0 {
		WriteBadRequest(w, msgInvalidID, nil)
		return 0, false
	}
	return id, true
}

// paging reads page and per_page query parameters.
func paging(r *http.Request) service.Paging {
	return service.Paging{
		Page:    handler.ParsePageParam(r),
		PerPage: handler.ParsePerPageParam(r, service.DefaultPerPage, service.MaxPerPage),
	}.Normalize()
}

// currentUser loads the authenticated user, writing a 401 when the token's
// user no longer exists.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (store.User, bool) {
	id := middleware.GetUserID(r)
	if id == 0 {
		WriteUnauthorized(w, msgAuthRequired)
		return store.User{}, false
	}
	user, err := h.svc.Users.Get(r.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		WriteUnauthorized(w, msgAuthRequired)
		return store.User{}, false
	}
	if err != nil {
		h.fail(w, r, err, "")
		return store.User{}, false
	}
	return user, true
}

func requestID(r *http.Request) string {
	return chimw.GetReqID(r.Context())
}
