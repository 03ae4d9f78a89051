// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/store"
	"github.com/olegiv/ocms-shop/internal/testutil"
)

const testSecret = "test-webhook-secret"

type received struct {
	body      []byte
	signature string
	event     string
}

// receiver is a webhook endpoint answering with a fixed status.
type receiver struct {
	mu       sync.Mutex
	status   int
	requests []received
	got      chan struct{}
}

func newReceiver(t *testing.T, status int) (*receiver, *httptest.Server) {
	t.Helper()
	rc := &receiver{status: status, got: make(chan struct{}, 16)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rc.mu.Lock()
		rc.requests = append(rc.requests, received{
			body:      body,
			signature: r.Header.Get("X-Webhook-Signature"),
			event:     r.Header.Get("X-Webhook-Event"),
		})
		rc.mu.Unlock()
		w.WriteHeader(rc.status)
		rc.got <- struct{}{}
	}))
	t.Cleanup(srv.Close)
	return rc, srv
}

func (rc *receiver) count() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.requests)
}

type deliveryCounter struct {
	mu        sync.Mutex
	delivered int
	failed    int
}

func (c *deliveryCounter) WebhookDelivery(ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok {
		c.delivered++
	} else {
		c.failed++
	}
}

func newTestDispatcher(t *testing.T, url string) (*Dispatcher, *store.Queries, *deliveryCounter) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	d, err := NewDispatcher(db, testutil.TestLoggerSilent(), Config{
		URL:                  url,
		Secret:               testSecret,
		AllowPrivateNetworks: true,
	})
	require.NoError(t, err)
	counter := &deliveryCounter{}
	d.SetMetrics(counter)
	return d, store.New(db), counter
}

func testOrder() store.Order {
	return store.Order{
		ID:            1,
		OrderNumber:   "SIP-20260101-ABCDEF",
		Status:        model.OrderStatusPending,
		TotalAmount:   decimal.NewFromInt(250),
		CustomerEmail: "musteri@example.com",
	}
}

func onlyDelivery(t *testing.T, q *store.Queries) store.WebhookDelivery {
	t.Helper()
	list, err := q.ListWebhookDeliveries(context.Background(), store.ListWebhookDeliveriesParams{Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)
	return list[0]
}

func TestNewDispatcher_RejectsPrivateURL(t *testing.T) {
	db := testutil.TestMemoryDB(t)

	_, err := NewDispatcher(db, nil, Config{URL: "http://127.0.0.1:9/hook", Secret: "s"})
	assert.Error(t, err)

	_, err = NewDispatcher(db, nil, Config{Secret: "s"})
	assert.Error(t, err)
}

func TestDispatcher_DeferredDeliveryIsRetried(t *testing.T) {
	rc, srv := newReceiver(t, http.StatusOK)
	d, q, counter := newTestDispatcher(t, srv.URL)
	ctx := context.Background()

	// Not started: the event is stored and left to the retry job.
	d.OrderCreated(ctx, testOrder(), []store.OrderItem{{Quantity: 2}})
	rec := onlyDelivery(t, q)
	assert.Equal(t, model.DeliveryStatusFailed, rec.Status)
	assert.Equal(t, model.EventOrderCreated, rec.Event)
	assert.Zero(t, rc.count())

	n, err := d.RetryDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Equal(t, 1, rc.count())

	got := rc.requests[0]
	assert.Equal(t, model.EventOrderCreated, got.event)
	assert.True(t, VerifySignature(got.body, got.signature, testSecret))
	assert.True(t, strings.Contains(string(got.body), `"order_number":"SIP-20260101-ABCDEF"`))

	rec = onlyDelivery(t, q)
	assert.Equal(t, model.DeliveryStatusDelivered, rec.Status)
	assert.Equal(t, int64(1), rec.Attempts)
	assert.Equal(t, sql.NullInt64{Int64: 200, Valid: true}, rec.ResponseCode)
	assert.True(t, rec.DeliveredAt.Valid)
	assert.Equal(t, 1, counter.delivered)

	n, err = d.RetryDue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDispatcher_FailureOutcomes(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		priorTries  int64
		wantStatus  string
		wantAttempt int64
	}{
		{"server error retries", http.StatusInternalServerError, 0, model.DeliveryStatusFailed, 1},
		{"throttled retries", http.StatusTooManyRequests, 0, model.DeliveryStatusFailed, 1},
		{"client error is final", http.StatusBadRequest, 0, model.DeliveryStatusDead, 1},
		{"last attempt is final", http.StatusInternalServerError, MaxAttempts - 1, model.DeliveryStatusDead, MaxAttempts},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, srv := newReceiver(t, tt.status)
			d, q, counter := newTestDispatcher(t, srv.URL)
			ctx := context.Background()

			d.OrderStatusChanged(ctx, testOrder(), model.OrderStatusProcessing)
			rec := onlyDelivery(t, q)
			if tt.priorTries > 0 {
				require.NoError(t, q.UpdateWebhookDelivery(ctx, store.UpdateWebhookDeliveryParams{
					Status:      model.DeliveryStatusFailed,
					Attempts:    tt.priorTries,
					NextRetryAt: rec.NextRetryAt,
					UpdatedAt:   store.Now(),
					ID:          rec.ID,
				}))
			}

			d.deliver(ctx, rec.ID)

			rec = onlyDelivery(t, q)
			assert.Equal(t, tt.wantStatus, rec.Status)
			assert.Equal(t, tt.wantAttempt, rec.Attempts)
			assert.Equal(t, int64(tt.status), rec.ResponseCode.Int64)
			assert.True(t, rec.ErrorMessage.Valid)
			assert.Equal(t, 1, counter.failed)

			if tt.wantStatus == model.DeliveryStatusFailed {
				require.True(t, rec.NextRetryAt.Valid)
				assert.True(t, rec.NextRetryAt.Time.After(time.Now().Add(30*time.Second)))
				n, err := d.RetryDue(ctx)
				require.NoError(t, err)
				assert.Zero(t, n, "retry must wait for backoff")
			}
		})
	}
}

func TestDispatcher_Workers(t *testing.T) {
	rc, srv := newReceiver(t, http.StatusNoContent)
	d, q, _ := newTestDispatcher(t, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.OrderCreated(ctx, testOrder(), nil)

	select {
	case <-rc.got:
	case <-time.After(5 * time.Second):
		t.Fatal("webhook not delivered")
	}
	d.Stop()

	rec := onlyDelivery(t, q)
	assert.Equal(t, model.DeliveryStatusDelivered, rec.Status)
	assert.Equal(t, int64(204), rec.ResponseCode.Int64)
}

func TestDispatcher_StopPostponesQueuedDeliveries(t *testing.T) {
	rc, srv := newReceiver(t, http.StatusOK)
	d, q, _ := newTestDispatcher(t, srv.URL)
	ctx := context.Background()

	// Running without workers: the delivery stays in the queue.
	d.mu.Lock()
	d.stop, d.workers = make(chan struct{}), new(errgroup.Group)
	d.mu.Unlock()

	d.OrderCreated(ctx, testOrder(), nil)
	assert.Equal(t, model.DeliveryStatusPending, onlyDelivery(t, q).Status)

	d.Stop()
	rec := onlyDelivery(t, q)
	assert.Equal(t, model.DeliveryStatusFailed, rec.Status)
	assert.True(t, rec.NextRetryAt.Valid)

	n, err := d.RetryDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, rc.count())
}

func TestDispatcher_PurgeDeliveries(t *testing.T) {
	_, srv := newReceiver(t, http.StatusOK)
	d, q, _ := newTestDispatcher(t, srv.URL)
	ctx := context.Background()

	d.OrderCreated(ctx, testOrder(), nil)
	_, err := d.RetryDue(ctx)
	require.NoError(t, err)

	n, err := d.PurgeDeliveries(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	list, err := q.ListWebhookDeliveries(ctx, store.ListWebhookDeliveriesParams{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, list)
}
