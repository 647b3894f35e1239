// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/wpautoblog/internal/scheduler"
)

// UpdateScheduleRequest sets a schedule override, or removes it with reset.
type UpdateScheduleRequest struct {
	Schedule string `json:"schedule,omitempty"`
	Reset    bool   `json:"reset,omitempty"`
}

// ListJobs handles GET /api/v1/scheduler/jobs.
func (h *Handler) ListJobs(w http.ResponseWriter, _ *http.Request) {
	jobs := h.jobs.List()
	WriteSuccess(w, jobs, &Meta{Total: int64(len(jobs))})
}

// TriggerJob handles POST /api/v1/scheduler/jobs/{source}/{name}/trigger.
// The job runs synchronously under the same lease as its cron runs.
func (h *Handler) TriggerJob(w http.ResponseWriter, r *http.Request) {
	source, name := chi.URLParam(r, "source"), chi.URLParam(r, "name")

	if err := h.jobs.TriggerNow(source, name); err != nil {
		switch {
		case errors.Is(err, scheduler.ErrJobNotFound):
			WriteNotFound(w, "Job not found")
		case errors.Is(err, scheduler.ErrTriggerDisabled):
			WriteForbidden(w, "trigger_disabled", err.Error())
		case errors.Is(err, scheduler.ErrJobBusy):
			WriteConflict(w, "job_busy", "Job is already running")
		default:
			h.logger.Warn("manual job run failed", "source", source, "name", name, "error", err)
			WriteError(w, http.StatusInternalServerError, "job_failed", err.Error(), nil)
		}
		return
	}

	h.logger.Info("job triggered", "source", source, "name", name)
	WriteSuccess(w, map[string]string{"status": "completed"}, nil)
}

// UpdateJobSchedule handles PUT /api/v1/scheduler/jobs/{source}/{name}.
func (h *Handler) UpdateJobSchedule(w http.ResponseWriter, r *http.Request) {
	source, name := chi.URLParam(r, "source"), chi.URLParam(r, "name")

	var req UpdateScheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.Reset && req.Schedule == "" {
		WriteValidationError(w, map[string]string{"schedule": "Schedule is required unless reset is set"})
		return
	}

	var err error
	if req.Reset {
		err = h.jobs.ResetSchedule(source, name)
	} else {
		err = h.jobs.UpdateSchedule(source, name, req.Schedule)
	}
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrJobNotFound):
			WriteNotFound(w, "Job not found")
		case errors.Is(err, scheduler.ErrInvalidSchedule):
			WriteValidationError(w, map[string]string{"schedule": err.Error()})
		default:
			h.logger.Error("failed to update job schedule", "source", source, "name", name, "error", err)
			WriteInternalError(w, "Failed to update schedule")
		}
		return
	}

	for _, job := range h.jobs.List() {
		if job.Source == source && job.Name == name {
			WriteSuccess(w, job, nil)
			return
		}
	}
	WriteNotFound(w, "Job not found")
}
