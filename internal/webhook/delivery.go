// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/store"
)

// Delivery configuration constants
const (
	MaxAttempts    = 5                // Attempts before a delivery is dead
	InitialBackoff = 1 * time.Minute  // Delay after the first failure
	MaxBackoff     = 6 * time.Hour    // Maximum backoff delay
	RequestTimeout = 15 * time.Second // HTTP request timeout
	MaxErrorLen    = 1024             // Stored error message length
	UserAgent      = "ocms-shop-webhook/1.0"

	retryBatchSize = 50
)

// DeliveryResult represents the result of a delivery attempt.
type DeliveryResult struct {
	Success     bool
	StatusCode  int
	Error       error
	ShouldRetry bool
}

// deliver makes one attempt for a stored delivery and records the outcome.
func (d *Dispatcher) deliver(ctx context.Context, id int64) {
	record, err := d.queries.GetWebhookDelivery(ctx, id)
	if err != nil {
		d.logger.Error("failed to get delivery record", "error", err, "delivery_id", id)
		return
	}
	if record.Status == model.DeliveryStatusDelivered || record.Status == model.DeliveryStatusDead {
		return
	}

	result := d.attemptDelivery(ctx, record)
	if d.metrics != nil {
		d.metrics.WebhookDelivery(result.Success)
	}

	now := store.Now()
	params := store.UpdateWebhookDeliveryParams{
		Attempts:     record.Attempts + 1,
		ResponseCode: sql.NullInt64{Int64: int64(result.StatusCode), Valid: result.StatusCode > 0},
		UpdatedAt:    now,
		ID:           id,
	}

	switch {
	case result.Success:
		params.Status = model.DeliveryStatusDelivered
		params.DeliveredAt = sql.NullTime{Time: now, Valid: true}
	case !result.ShouldRetry || params.Attempts >= MaxAttempts:
		params.Status = model.DeliveryStatusDead
		params.ErrorMessage = errorText(result.Error)
	default:
		params.Status = model.DeliveryStatusFailed
		params.ErrorMessage = errorText(result.Error)
		params.NextRetryAt = sql.NullTime{Time: now.Add(calculateBackoff(params.Attempts)), Valid: true}
	}

	if err := d.queries.UpdateWebhookDelivery(ctx, params); err != nil {
		d.logger.Error("failed to update delivery", "error", err, "delivery_id", id)
		return
	}

	switch params.Status {
	case model.DeliveryStatusDelivered:
		d.logger.Info("webhook delivered", "delivery_id", id, "event", record.Event, "status_code", result.StatusCode)
	case model.DeliveryStatusDead:
		d.logger.Warn("webhook delivery marked as dead",
			"delivery_id", id, "event", record.Event, "attempts", params.Attempts, "reason", params.ErrorMessage.String)
	default:
		d.logger.Info("webhook delivery scheduled for retry",
			"delivery_id", id, "attempt", params.Attempts, "next_retry_at", params.NextRetryAt.Time.Format(time.RFC3339))
	}
}

// attemptDelivery performs the HTTP POST.
func (d *Dispatcher) attemptDelivery(ctx context.Context, record store.WebhookDelivery) DeliveryResult {
	payload := []byte(record.Payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return DeliveryResult{Error: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("X-Webhook-Signature", GenerateSignature(payload, d.cfg.Secret))
	req.Header.Set("X-Webhook-Event", record.Event)
	req.Header.Set("X-Webhook-Delivery-ID", strconv.FormatInt(record.ID, 10))

	resp, err := d.client.Do(req)
	if err != nil {
		return DeliveryResult{Error: fmt.Errorf("request failed: %w", err), ShouldRetry: true}
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return DeliveryResult{Success: true, StatusCode: resp.StatusCode}
	}

	// Client errors are final, except timeouts and throttling.
	retry := resp.StatusCode >= 500 ||
		resp.StatusCode == http.StatusRequestTimeout ||
		resp.StatusCode == http.StatusTooManyRequests
	return DeliveryResult{
		StatusCode:  resp.StatusCode,
		Error:       fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		ShouldRetry: retry,
	}
}

// calculateBackoff doubles InitialBackoff per failed attempt, capped at MaxBackoff.
func calculateBackoff(attempt int64) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	backoff := InitialBackoff
	for i := int64(1); i < attempt; i++ {
		backoff *= 2
		if backoff >= MaxBackoff {
			return MaxBackoff
		}
	}
	return backoff
}

func errorText(err error) sql.NullString {
	if err == nil {
		return sql.NullString{}
	}
	msg := err.Error()
	if len(msg) > MaxErrorLen {
		msg = msg[:MaxErrorLen]
	}
	return sql.NullString{String: msg, Valid: true}
}
