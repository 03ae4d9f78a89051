// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"time"
)

// Maintenance job names.
const (
	JobPurgeCarts    = "purge-carts"
	JobExpireBanners = "expire-banners"
	JobPurgeEvents   = "purge-events"
	JobRetryWebhooks = "retry-webhooks"
	JobPurgeWebhooks = "purge-webhooks"
)

// CartPurger deletes expired cart sessions.
type CartPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// EventPurger deletes old event log entries.
type EventPurger interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// BannerExpirer deactivates banners past their end date.
type BannerExpirer interface {
	DeactivateExpiredBanners(ctx context.Context) (int64, error)
}

// WebhookMaintainer retries and purges webhook deliveries.
type WebhookMaintainer interface {
	RetryDue(ctx context.Context) (int, error)
	PurgeDeliveries(ctx context.Context, before time.Time) (int64, error)
}

// Maintenance describes the shop's housekeeping. Webhooks may be nil when
// no webhook is configured.
type Maintenance struct {
	Carts            CartPurger
	Events           EventPurger
	Banners          BannerExpirer
	Webhooks         WebhookMaintainer
	EventRetention   time.Duration
	WebhookRetention time.Duration
}

// Jobs returns the maintenance jobs with their default schedules.
func (m Maintenance) Jobs() []Job {
	var jobs []Job
	if m.Carts != nil {
		jobs = append(jobs, Job{
			Name:        JobPurgeCarts,
			Description: "Delete expired guest cart sessions",
			Schedule:    "@hourly",
			Run:         m.Carts.PurgeExpired,
		})
	}
	if m.Banners != nil {
		jobs = append(jobs, Job{
			Name:        JobExpireBanners,
			Description: "Deactivate banners whose end date has passed",
			Schedule:    "*/15 * * * *",
			Run:         m.Banners.DeactivateExpiredBanners,
		})
	}
	if m.Events != nil && m.EventRetention > 0 {
		jobs = append(jobs, Job{
			Name:        JobPurgeEvents,
			Description: "Delete event log entries past retention",
			Schedule:    "30 3 * * *",
			Run: func(ctx context.Context) (int64, error) {
				return m.Events.DeleteOldEvents(ctx, m.EventRetention)
			},
		})
	}
	if m.Webhooks != nil {
		jobs = append(jobs, Job{
			Name:        JobRetryWebhooks,
			Description: "Retry failed webhook deliveries that are due",
			Schedule:    "* * * * *",
			Run: func(ctx context.Context) (int64, error) {
				n, err := m.Webhooks.RetryDue(ctx)
				return int64(n), err
			},
		})
		if m.WebhookRetention > 0 {
			jobs = append(jobs, Job{
				Name:        JobPurgeWebhooks,
				Description: "Delete finished webhook deliveries past retention",
				Schedule:    "0 4 * * *",
				Run: func(ctx context.Context) (int64, error) {
					return m.Webhooks.PurgeDeliveries(ctx, time.Now().Add(-m.WebhookRetention))
				},
			})
		}
	}
	return jobs
}

// RegisterAll registers every job, stopping at the first error.
func (s *Scheduler) RegisterAll(jobs []Job) error {
	for _, j := range jobs {
		if err := s.Register(j); err != nil {
			return err
		}
	}
	return nil
}
