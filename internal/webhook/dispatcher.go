// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/store"
	"github.com/olegiv/ocms-shop/internal/util"
)

// Config holds dispatcher configuration.
type Config struct {
	URL    string
	Secret string
	// Workers is the number of concurrent delivery workers.
	Workers int
	// QueueSize bounds deliveries waiting for a worker. Overflow is left
	// to the retry job.
	QueueSize int
	// AllowPrivateNetworks disables SSRF checks. Tests only.
	AllowPrivateNetworks bool
}

// DefaultConfig returns default dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		Workers:   2,
		QueueSize: 100,
	}
}

// DeliveryRecorder counts delivery attempts.
type DeliveryRecorder interface {
	WebhookDelivery(delivered bool)
}

// Dispatcher records order events as deliveries and posts them to the
// configured URL. Every event is stored before it is sent, so a failed or
// interrupted attempt is picked up by RetryDue.
type Dispatcher struct {
	queries *store.Queries
	logger  *slog.Logger
	cfg     Config
	client  *http.Client
	metrics DeliveryRecorder
	queue   chan int64

	mu      sync.RWMutex
	stop    chan struct{} // nil while stopped
	workers *errgroup.Group
}

// NewDispatcher creates a new webhook dispatcher.
func NewDispatcher(db *sql.DB, logger *slog.Logger, cfg Config) (*Dispatcher, error) {
	if cfg.URL == "" {
		return nil, errors.New("webhook URL is empty")
	}
	if !cfg.AllowPrivateNetworks {
		if err := util.ValidateWebhookURL(cfg.URL); err != nil {
			return nil, fmt.Errorf("webhook URL: %w", err)
		}
	}
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		queries: store.New(db),
		logger:  logger,
		cfg:     cfg,
		client:  newHTTPClient(cfg.AllowPrivateNetworks),
		queue:   make(chan int64, cfg.QueueSize),
	}, nil
}

func newHTTPClient(allowPrivate bool) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
	}
	if !allowPrivate {
		transport.DialContext = util.SSRFSafeDialContext(&net.Dialer{Timeout: 10 * time.Second})
	}
	return &http.Client{
		Timeout:   RequestTimeout,
		Transport: transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// SetMetrics sets the delivery counter.
func (d *Dispatcher) SetMetrics(m DeliveryRecorder) {
	d.metrics = m
}

// Start launches the delivery workers. Calling it on a running
// dispatcher does nothing.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		return
	}
	stop := make(chan struct{})
	g := new(errgroup.Group)
	for range d.cfg.Workers {
		g.Go(func() error {
			d.work(ctx, stop)
			return nil
		})
	}
	d.stop, d.workers = stop, g
	d.logger.Info("webhook dispatcher started", "workers", d.cfg.Workers)
}

// Stop waits for in-flight deliveries and hands whatever is still queued
// to the retry job.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop == nil {
		return
	}
	close(d.stop)
	_ = d.workers.Wait()
	d.stop, d.workers = nil, nil

	ctx := context.Background()
	for {
		select {
		case id := <-d.queue:
			if err := d.postpone(ctx, id); err != nil {
				d.logger.Error("failed to defer webhook delivery", "delivery_id", id, "error", err)
			}
		default:
			d.logger.Info("webhook dispatcher stopped")
			return
		}
	}
}

func (d *Dispatcher) work(ctx context.Context, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case id := <-d.queue:
			d.deliver(ctx, id)
		}
	}
}

// Dispatch stores the event as a delivery and queues it. When the
// dispatcher is stopped or the queue is full the delivery is left to
// RetryDue.
func (d *Dispatcher) Dispatch(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	now := store.Now()
	delivery, err := d.queries.CreateWebhookDelivery(ctx, store.CreateWebhookDeliveryParams{
		Event:     event.Type,
		Payload:   string(payload),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("creating delivery: %w", err)
	}

	d.mu.RLock()
	running := d.stop != nil
	d.mu.RUnlock()
	if running {
		select {
		case d.queue <- delivery.ID:
			return nil
		default:
		}
	}

	d.logger.Warn("webhook delivery deferred to retry", "delivery_id", delivery.ID, "event", event.Type)
	return d.postpone(ctx, delivery.ID)
}

// postpone marks a delivery as due for retry right away.
func (d *Dispatcher) postpone(ctx context.Context, id int64) error {
	now := store.Now()
	return d.queries.UpdateWebhookDelivery(ctx, store.UpdateWebhookDeliveryParams{
		Status:      model.DeliveryStatusFailed,
		NextRetryAt: sql.NullTime{Time: now, Valid: true},
		UpdatedAt:   now,
		ID:          id,
	})
}

// OrderCreated emits order.created.
func (d *Dispatcher) OrderCreated(ctx context.Context, order store.Order, items []store.OrderItem) {
	d.emit(ctx, NewEvent(model.EventOrderCreated, orderData(order, "", items)))
}

// OrderStatusChanged emits order.status_changed.
func (d *Dispatcher) OrderStatusChanged(ctx context.Context, order store.Order, previous string) {
	d.emit(ctx, NewEvent(model.EventOrderStatusChanged, orderData(order, previous, nil)))
}

func (d *Dispatcher) emit(ctx context.Context, event *Event) {
	if err := d.Dispatch(context.WithoutCancel(ctx), event); err != nil {
		d.logger.Error("failed to dispatch webhook event", "error", err, "event", event.Type)
	}
}

// RetryDue attempts the failed deliveries whose retry time has come, as
// many at once as there are workers, and returns how many were attempted.
func (d *Dispatcher) RetryDue(ctx context.Context) (int, error) {
	due, err := d.queries.ListDueWebhookDeliveries(ctx, store.Now(), retryBatchSize)
	if err != nil {
		return 0, fmt.Errorf("listing due deliveries: %w", err)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Workers)
	for _, rec := range due {
		g.Go(func() error {
			d.deliver(gctx, rec.ID)
			return nil
		})
	}
	_ = g.Wait()
	return len(due), nil
}

// PurgeDeliveries deletes finished deliveries last updated before the cutoff.
func (d *Dispatcher) PurgeDeliveries(ctx context.Context, before time.Time) (int64, error) {
	return d.queries.DeleteWebhookDeliveriesBefore(ctx, before)
}

// GenerateSignature generates an HMAC-SHA256 signature for the payload.
func GenerateSignature(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature verifies an HMAC-SHA256 signature.
func VerifySignature(payload []byte, signature, secret string) bool {
	expectedSig := GenerateSignature(payload, secret)
	return hmac.Equal([]byte(signature), []byte(expectedSig))
}
