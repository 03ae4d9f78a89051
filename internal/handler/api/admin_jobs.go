// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-shop/internal/middleware"
	"github.com/olegiv/ocms-shop/internal/model"
	"github.com/olegiv/ocms-shop/internal/scheduler"
)

// JobRunner lists and triggers maintenance jobs.
type JobRunner interface {
	List() []scheduler.JobInfo
	TriggerNow(ctx context.Context, name string) (int64, error)
}

// JobResponse represents a maintenance job in API responses.
type JobResponse struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Schedule    string     `json:"schedule"`
	Running     bool       `json:"running"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	LastResult  int64      `json:"last_result"`
	LastError   string     `json:"last_error,omitempty"`
	NextRun     *time.Time `json:"next_run,omitempty"`
}

// JobRunResponse is returned after a manual run.
type JobRunResponse struct {
	Name     string `json:"name"`
	Affected int64  `json:"affected"`
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func jobToResponse(j scheduler.JobInfo) JobResponse {
	return JobResponse{
		Name:        j.Name,
		Description: j.Description,
		Schedule:    j.Schedule,
		Running:     j.Running,
		LastRun:     timePtr(j.LastRun),
		LastResult:  j.LastResult,
		LastError:   j.LastError,
		NextRun:     timePtr(j.NextRun),
	}
}

// AdminListJobs handles GET /api/admin/jobs.
func (h *Handler) AdminListJobs(w http.ResponseWriter, _ *http.Request) {
	if h.svc.Jobs == nil {
		WriteSuccess(w, []JobResponse{}, nil)
		return
	}
	jobs := h.svc.Jobs.List()
	out := make([]JobResponse, len(jobs))
	for i, j := range jobs {
		out[i] = jobToResponse(j)
	}
	WriteSuccess(w, out, nil)
}

// AdminRunJob handles POST /api/admin/jobs/{name}/run.
func (h *Handler) AdminRunJob(w http.ResponseWriter, r *http.Request) {
	if h.svc.Jobs == nil {
		WriteError(w, http.StatusServiceUnavailable, CodeUnavailable, "Zamanlayıcı devre dışı", nil)
		return
	}
	name := chi.URLParam(r, "name")
	n, err := h.svc.Jobs.TriggerNow(r.Context(), name)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}

	_ = h.svc.Events.LogSystemEvent(r.Context(), model.EventLevelInfo, "Job triggered manually: "+name,
		middleware.GetUserIDPtr(r), map[string]any{"job": name, "affected": n})
	WriteSuccess(w, JobRunResponse{Name: name, Affected: n}, nil)
}
