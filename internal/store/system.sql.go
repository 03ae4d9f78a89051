// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const eventColumns = `id, level, category, message, user_id, metadata, created_at`

func scanEvent(row rowScanner) (Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID, &e.Metadata, &e.CreatedAt)
	return e, err
}

type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  string
	CreatedAt time.Time
}

func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	if arg.Metadata == "" {
		arg.Metadata = "{}"
	}
	row := q.db.QueryRowContext(ctx, `
INSERT INTO events (level, category, message, user_id, metadata, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING `+eventColumns,
		arg.Level, arg.Category, arg.Message, arg.UserID, arg.Metadata, DBTime(arg.CreatedAt))
	return scanEvent(row)
}

type ListEventsParams struct {
	Level    string
	Category string
	Limit    int64
	Offset   int64
}

func (q *Queries) ListEvents(ctx context.Context, arg ListEventsParams) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT `+eventColumns+` FROM events
WHERE (? = '' OR level = ?) AND (? = '' OR category = ?)
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`,
		arg.Level, arg.Level, arg.Category, arg.Category, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanEvent)
}

type CountEventsParams struct {
	Level    string
	Category string
}

func (q *Queries) CountEvents(ctx context.Context, arg CountEventsParams) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM events WHERE (? = '' OR level = ?) AND (? = '' OR category = ?)`,
		arg.Level, arg.Level, arg.Category, arg.Category).Scan(&n)
	return n, err
}

func (q *Queries) DeleteEventsBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM events WHERE created_at < ?`, DBTime(before))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const webhookDeliveryColumns = `id, event, payload, status, attempts, response_code, error_message, next_retry_at,
delivered_at, created_at, updated_at`

func scanWebhookDelivery(row rowScanner) (WebhookDelivery, error) {
	var d WebhookDelivery
	err := row.Scan(&d.ID, &d.Event, &d.Payload, &d.Status, &d.Attempts, &d.ResponseCode, &d.ErrorMessage,
		&d.NextRetryAt, &d.DeliveredAt, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

type CreateWebhookDeliveryParams struct {
	Event     string
	Payload   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (q *Queries) CreateWebhookDelivery(ctx context.Context, arg CreateWebhookDeliveryParams) (WebhookDelivery, error) {
	row := q.db.QueryRowContext(ctx, `
INSERT INTO webhook_deliveries (event, payload, status, created_at, updated_at)
VALUES (?, ?, 'pending', ?, ?)
RETURNING `+webhookDeliveryColumns,
		arg.Event, arg.Payload, DBTime(arg.CreatedAt), DBTime(arg.UpdatedAt))
	return scanWebhookDelivery(row)
}

func (q *Queries) GetWebhookDelivery(ctx context.Context, id int64) (WebhookDelivery, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+webhookDeliveryColumns+` FROM webhook_deliveries WHERE id = ?`, id)
	return scanWebhookDelivery(row)
}

type UpdateWebhookDeliveryParams struct {
	Status       string
	Attempts     int64
	ResponseCode sql.NullInt64
	ErrorMessage sql.NullString
	NextRetryAt  sql.NullTime
	DeliveredAt  sql.NullTime
	UpdatedAt    time.Time
	ID           int64
}

func (q *Queries) UpdateWebhookDelivery(ctx context.Context, arg UpdateWebhookDeliveryParams) error {
	_, err := q.db.ExecContext(ctx, `
UPDATE webhook_deliveries
SET status = ?, attempts = ?, response_code = ?, error_message = ?, next_retry_at = ?, delivered_at = ?, updated_at = ?
WHERE id = ?`,
		arg.Status, arg.Attempts, arg.ResponseCode, arg.ErrorMessage, nullDBTime(arg.NextRetryAt),
		nullDBTime(arg.DeliveredAt), DBTime(arg.UpdatedAt), arg.ID)
	return err
}

// ListDueWebhookDeliveries returns failed deliveries whose retry time has come.
func (q *Queries) ListDueWebhookDeliveries(ctx context.Context, now time.Time, limit int64) ([]WebhookDelivery, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT `+webhookDeliveryColumns+` FROM webhook_deliveries
WHERE status = 'failed' AND next_retry_at IS NOT NULL AND next_retry_at <= ?
ORDER BY next_retry_at, id
LIMIT ?`, DBTime(now), limit)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanWebhookDelivery)
}

type ListWebhookDeliveriesParams struct {
	Status string
	Limit  int64
	Offset int64
}

func (q *Queries) ListWebhookDeliveries(ctx context.Context, arg ListWebhookDeliveriesParams) ([]WebhookDelivery, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT `+webhookDeliveryColumns+` FROM webhook_deliveries
WHERE (? = '' OR status = ?)
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`, arg.Status, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanWebhookDelivery)
}

func (q *Queries) DeleteWebhookDeliveriesBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
DELETE FROM webhook_deliveries WHERE status IN ('delivered', 'dead') AND updated_at < ?`, DBTime(before))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
