// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/ocms-shop/internal/handler"
	"github.com/olegiv/ocms-shop/internal/middleware"
	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/store"
)

const msgInvalidDate = "Tarih YYYY-AA-GG biçiminde olmalıdır"

// OrderStatusRequest is the body of PUT /api/admin/orders/{id}/status.
type OrderStatusRequest struct {
	Status         string `json:"status" validate:"required"`
	TrackingNumber string `json:"tracking_number" validate:"max=100"`
}

// orderFilter reads the admin order filters. A date-only "to" covers the
// whole day.
func orderFilter(r *http.Request) (store.OrderFilter, map[string]string) {
	q := r.URL.Query()
	f := store.OrderFilter{
		Status: strings.TrimSpace(q.Get("status")),
		Search: strings.TrimSpace(q.Get("search")),
	}
	errs := make(map[string]string)

	if f.Status != "" && !model.IsValidOrderStatus(f.Status) {
		errs["status"] = "Geçersiz sipariş durumu"
	}
	from, err := handler.ParseDateParam(r, "from")
	if err != nil {
		errs["from"] = msgInvalidDate
	} else if from != nil {
		f.From = sql.NullTime{Time: *from, Valid: true}
	}
	to, err := handler.ParseDateParam(r, "to")
	if err != nil {
		errs["to"] = msgInvalidDate
	} else if to != nil {
		end := *to
		if len(strings.TrimSpace(q.Get("to"))) == len("2006-01-02") {
			end = end.Add(24*time.Hour - time.Nanosecond)
		}
		f.To = sql.NullTime{Time: end, Valid: true}
	}
	if f.From.Valid && f.To.Valid && f.From.Time.After(f.To.Time) {
		errs["to"] = "Bitiş tarihi başlangıç tarihinden önce olamaz"
	}
	return f, errs
}

// AdminListOrders handles GET /api/admin/orders?status=&search=&from=&to=.
func (h *Handler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	f, errs := orderFilter(r)
	if len(errs) > 0 {
		WriteValidationError(w, errs)
		return
	}
	p := paging(r)
	orders, total, err := h.svc.Orders.List(r.Context(), f, p)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	WriteSuccess(w, ordersToResponse(orders), newMeta(total, p))
}

// AdminGetOrder handles GET /api/admin/orders/{id}.
func (h *Handler) AdminGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	detail, err := h.svc.Orders.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, msgOrderNotFound)
		return
	}
	WriteSuccess(w, orderDetailToResponse(detail), nil)
}

// AdminUpdateOrderStatus handles PUT /api/admin/orders/{id}/status.
func (h *Handler) AdminUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req OrderStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	detail, err := h.svc.Orders.UpdateStatus(r.Context(), middleware.GetUserID(r), id, req.Status, req.TrackingNumber)
	if err != nil {
		h.fail(w, r, err, msgOrderNotFound)
		return
	}
	WriteJSON(w, http.StatusOK, Response{
		Data:    orderDetailToResponse(detail),
		Message: "Sipariş durumu güncellendi: " + model.OrderStatusLabel(detail.Order.Status),
	})
}
