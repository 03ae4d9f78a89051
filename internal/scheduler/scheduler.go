// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the shop's periodic maintenance jobs on cron
// schedules and lets admins trigger them by name.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/olegiv/ocms-shop/internal/logging"
	"github.com/olegiv/ocms-shop/internal/model"
)

// Errors returned by TriggerNow.
var (
	ErrJobNotFound    = errors.New("job not found")
	ErrJobRunning     = errors.New("job is already running")
	ErrTriggerLimited = errors.New("job was triggered too recently")
)

const (
	// DefaultJobTimeout bounds a single run.
	DefaultJobTimeout = 5 * time.Minute
	// triggerInterval is the minimum gap between manual triggers of one job.
	triggerInterval = 10 * time.Second
)

// Job is a named unit of periodic work. Run returns how many records it
// touched.
type Job struct {
	Name        string
	Description string
	Schedule    string
	Run         func(ctx context.Context) (int64, error)
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name        string
	Description string
	Schedule    string
	Running     bool
	LastRun     time.Time
	LastResult  int64
	LastError   string
	NextRun     time.Time
}

// EventLogger records job outcomes in the event log.
type EventLogger interface {
	LogSystemEvent(ctx context.Context, level, message string, userID *int64, metadata map[string]any) error
}

type registeredJob struct {
	job     Job
	entryID cron.EntryID
	limiter *rate.Limiter
	running atomic.Bool

	mu         sync.Mutex
	lastRun    time.Time
	lastResult int64
	lastErr    string
}

// Scheduler owns a cron instance and the jobs registered on it.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	events  EventLogger
	timeout time.Duration

	mu   sync.RWMutex
	jobs map[string]*registeredJob

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler. events may be nil.
func New(logger *slog.Logger, events EventLogger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(),
		logger:  logger,
		events:  events,
		timeout: DefaultJobTimeout,
		jobs:    make(map[string]*registeredJob),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// SetTimeout changes the per-run timeout.
func (s *Scheduler) SetTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// Register adds a job to the cron table.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Run == nil {
		return errors.New("job needs a name and a run function")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.Name]; ok {
		return fmt.Errorf("job %q already registered", job.Name)
	}

	rj := &registeredJob{
		job:     job,
		limiter: rate.NewLimiter(rate.Every(triggerInterval), 1),
	}
	id, err := s.cron.AddFunc(job.Schedule, func() {
		_ = s.run(s.ctx, rj, "schedule")
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %q: %w", job.Schedule, job.Name, err)
	}
	rj.entryID = id
	s.jobs[job.Name] = rj

	s.logger.Debug("registered scheduled job", "name", job.Name, "schedule", job.Schedule)
	return nil
}

// Start begins running jobs on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop stops the cron loop, cancels running jobs and waits for them.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	s.cancel()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// List returns all registered jobs sorted by name.
func (s *Scheduler) List() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for _, rj := range s.jobs {
		rj.mu.Lock()
		info := JobInfo{
			Name:        rj.job.Name,
			Description: rj.job.Description,
			Schedule:    rj.job.Schedule,
			Running:     rj.running.Load(),
			LastRun:     rj.lastRun,
			LastResult:  rj.lastResult,
			LastError:   rj.lastErr,
			NextRun:     s.cron.Entry(rj.entryID).Next,
		}
		rj.mu.Unlock()
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// TriggerNow runs a job immediately and waits for it. Manual triggers of
// the same job are limited to one per triggerInterval.
func (s *Scheduler) TriggerNow(ctx context.Context, name string) (int64, error) {
	s.mu.RLock()
	rj, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return 0, ErrJobNotFound
	}
	if !rj.limiter.Allow() {
		return 0, ErrTriggerLimited
	}

	s.logger.Info("manually triggering job", "name", name)
	if err := s.run(ctx, rj, "manual"); err != nil {
		return 0, err
	}
	rj.mu.Lock()
	defer rj.mu.Unlock()
	if rj.lastErr != "" {
		return rj.lastResult, errors.New(rj.lastErr)
	}
	return rj.lastResult, nil
}

// run executes one job unless it is already running. The returned error
// only reports an overlapping run; job failures are recorded on the job.
func (s *Scheduler) run(ctx context.Context, rj *registeredJob, trigger string) error {
	if !rj.running.CompareAndSwap(false, true) {
		s.logger.Warn("skipping job, previous run still active", "name", rj.job.Name, "trigger", trigger)
		return ErrJobRunning
	}
	defer rj.running.Store(false)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	n, err := rj.job.Run(ctx)
	elapsed := time.Since(start)

	rj.mu.Lock()
	rj.lastRun = start
	rj.lastResult = n
	rj.lastErr = ""
	if err != nil {
		rj.lastErr = err.Error()
	}
	rj.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled job failed",
			logging.AttrCategory, model.EventCategorySystem,
			"name", rj.job.Name, "trigger", trigger, "error", err)
		s.logEvent(model.EventLevelError, "Scheduled job failed: "+rj.job.Name, map[string]any{
			"job": rj.job.Name, "trigger": trigger, "error": err.Error(),
		})
		return nil
	}

	s.logger.Debug("scheduled job finished", "name", rj.job.Name, "trigger", trigger, "affected", n, "duration", elapsed)
	if n > 0 {
		s.logger.Info("scheduled job completed", "name", rj.job.Name, "affected", n)
		s.logEvent(model.EventLevelInfo, "Scheduled job completed: "+rj.job.Name, map[string]any{
			"job": rj.job.Name, "trigger": trigger, "affected": n,
		})
	}
	return nil
}

func (s *Scheduler) logEvent(level, msg string, meta map[string]any) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.events.LogSystemEvent(ctx, level, msg, nil, meta); err != nil {
		s.logger.Warn("failed to log job event", "error", err)
	}
}
