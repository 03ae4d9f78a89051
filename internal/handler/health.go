// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"syscall"
	"time"

	"github.com/olegiv/ocms-shop/internal/middleware"
)

// Check statuses.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

const (
	checkTimeout = 2 * time.Second
	// lowDiskSpace degrades the uploads check.
	lowDiskSpace = 100 << 20
)

// Pinger is a dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness, readiness and health endpoints.
type HealthHandler struct {
	db         *sql.DB
	cache      Pinger
	uploadsDir string
	version    string
	started    time.Time
}

// NewHealthHandler returns a handler checking db and uploadsDir. An empty
// uploadsDir skips the uploads check, which is the case with object storage.
func NewHealthHandler(db *sql.DB, uploadsDir, version string) *HealthHandler {
	return &HealthHandler{db: db, uploadsDir: uploadsDir, version: version, started: time.Now()}
}

// SetCache adds the cache backend to the detailed report. A failing cache
// only degrades the service.
func (h *HealthHandler) SetCache(p Pinger) {
	h.cache = p
}

// HealthStatusPublic is what anonymous callers see.
type HealthStatusPublic struct {
	Status string `json:"status"`
}

// HealthStatus is the report shown to administrators.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
	System    *SystemInfo      `json:"system,omitempty"`
}

// Check is the outcome of one probe.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo describes the running process.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
	MemAlloc     string `json:"mem_alloc"`
	MemSys       string `json:"mem_sys"`
}

// Health handles GET /health. Anonymous callers get the overall status.
// Administrators get every check, plus process details with ?verbose=true.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := h.runChecks(r.Context(), true)
	overall := overallStatus(checks)
	code := http.StatusOK
	if overall == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	if claims := middleware.GetClaims(r); claims == nil || !claims.IsAdmin {
		writeProbe(w, code, HealthStatusPublic{Status: overall})
		return
	}

	report := HealthStatus{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Version:   h.version,
		Checks:    checks,
	}
	if r.URL.Query().Get("verbose") == "true" {
		report.System = currentSystemInfo()
	}
	writeProbe(w, code, report)
}

// Liveness handles GET /health/live.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeProbe(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness handles GET /health/ready. It reports the first failing
// check among the database and the uploads directory.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	for name, c := range h.runChecks(r.Context(), false) {
		if c.Status == StatusUnhealthy {
			writeProbe(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready", "failed": name})
			return
		}
	}
	writeProbe(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeProbe(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *HealthHandler) runChecks(ctx context.Context, withCache bool) map[string]Check {
	checks := map[string]Check{
		"database": ping(ctx, h.db.PingContext, "Connected"),
	}
	if h.uploadsDir != "" {
		checks["uploads"] = uploadsCheck(h.uploadsDir)
	}
	if withCache && h.cache != nil {
		checks["cache"] = ping(ctx, h.cache.Ping, "")
	}
	return checks
}

// ping runs fn under checkTimeout and records its latency.
func ping(ctx context.Context, fn func(context.Context) error, okMessage string) Check {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	c := Check{Status: StatusHealthy, Message: okMessage, Latency: time.Since(start).String()}
	if err != nil {
		c.Status, c.Message = StatusUnhealthy, err.Error()
	}
	return c
}

// overallStatus is unhealthy when the database or uploads fail. A failing
// cache or any degraded check makes it degraded.
func overallStatus(checks map[string]Check) string {
	overall := StatusHealthy
	for name, c := range checks {
		switch {
		case c.Status == StatusUnhealthy && name != "cache":
			return StatusUnhealthy
		case c.Status != StatusHealthy:
			overall = StatusDegraded
		}
	}
	return overall
}

// uploadsCheck writes a probe file into dir and reports free disk space.
func uploadsCheck(dir string) Check {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Check{Status: StatusUnhealthy, Message: "Uploads directory unavailable: " + err.Error()}
	}
	f, err := os.CreateTemp(dir, ".health-*")
	if err != nil {
		return Check{Status: StatusUnhealthy, Message: "Uploads directory not writable: " + err.Error()}
	}
	_ = f.Close()
	_ = os.Remove(f.Name())

	var fs syscall.Statfs_t
	if syscall.Statfs(dir, &fs) != nil {
		return Check{Status: StatusHealthy, Message: "Writable"}
	}
	free := fs.Bavail * uint64(fs.Bsize)
	if free < lowDiskSpace {
		return Check{Status: StatusDegraded, Message: "Low disk space: " + formatBytes(free) + " available"}
	}
	return Check{Status: StatusHealthy, Message: formatBytes(free) + " available"}
}

func currentSystemInfo() *SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return &SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     formatBytes(m.Alloc),
		MemSys:       formatBytes(m.Sys),
	}
}

// formatBytes renders n with a binary unit up to GB.
func formatBytes(n uint64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	v := float64(n) / 1024
	unit := "KB"
	for _, next := range []string{"MB", "GB"} {
		if v < 1024 {
			break
		}
		v /= 1024
		unit = next
	}
	return fmt.Sprintf("%.2f %s", v, unit)
}
