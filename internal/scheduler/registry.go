// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/wpautoblog/internal/model"
	"github.com/olegiv/wpautoblog/internal/store"
)

// Registry errors.
var (
	ErrJobNotFound     = errors.New("job not found")
	ErrTriggerDisabled = errors.New("manual trigger not available")
)

// overrideTimeout bounds the scheduler_overrides reads and writes.
const overrideTimeout = 5 * time.Second

type registeredJob struct {
	source          string
	name            string
	description     string
	defaultSchedule string
	schedule        string // override or default
	cron            *cron.Cron
	entryID         cron.EntryID
	run             func()
	trigger         func() error // nil if manual trigger not allowed
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Source          string    `json:"source"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	DefaultSchedule string    `json:"default_schedule"`
	Schedule        string    `json:"schedule"`
	IsOverridden    bool      `json:"is_overridden"`
	LastRun         time.Time `json:"last_run"`
	NextRun         time.Time `json:"next_run"`
	CanTrigger      bool      `json:"can_trigger"`
}

// Registry tracks cron jobs and their persisted schedule overrides.
type Registry struct {
	queries *store.Queries
	logger  *slog.Logger
	mu      sync.RWMutex
	jobs    map[string]*registeredJob // key: "source:name"
}

// NewRegistry creates a registry backed by the scheduler_overrides table.
func NewRegistry(db *sql.DB, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		queries: store.New(db),
		logger:  logger,
		jobs:    make(map[string]*registeredJob),
	}
}

func jobKey(source, name string) string {
	return source + ":" + name
}

// EffectiveSchedule returns the stored override for a job, or def when there
// is none. Call it before adding the job to cron.
func (r *Registry) EffectiveSchedule(source, name, def string) string {
	ctx, cancel := context.WithTimeout(context.Background(), overrideTimeout)
	defer cancel()

	override, err := r.queries.GetSchedulerOverride(ctx, store.GetSchedulerOverrideParams{
		Source: source,
		Name:   name,
	})
	if err == nil && override != "" {
		if verr := ValidateSchedule(override); verr != nil {
			r.logger.Warn("ignoring invalid schedule override",
				"category", model.EventCategoryScheduler, "source", source, "name", name, "schedule", override, "error", verr)
			return def
		}
		return override
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		r.logger.Error("failed to read schedule override", "source", source, "name", name, "error", err)
	}
	return def
}

// Register records a job that was already added to c under entryID with
// schedule.
func (r *Registry) Register(source, name, description, defaultSchedule, schedule string, c *cron.Cron, entryID cron.EntryID, run func(), trigger func() error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jobs[jobKey(source, name)] = &registeredJob{
		source:          source,
		name:            name,
		description:     description,
		defaultSchedule: defaultSchedule,
		schedule:        schedule,
		cron:            c,
		entryID:         entryID,
		run:             run,
		trigger:         trigger,
	}

	r.logger.Debug("registered scheduled job", "source", source, "name", name, "schedule", schedule)
}

// List returns all registered jobs sorted by source then name.
func (r *Registry) List() []JobInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]JobInfo, 0, len(r.jobs))
	for _, job := range r.jobs {
		info := JobInfo{
			Source:          job.source,
			Name:            job.name,
			Description:     job.description,
			DefaultSchedule: job.defaultSchedule,
			Schedule:        job.schedule,
			IsOverridden:    job.schedule != job.defaultSchedule,
			CanTrigger:      job.trigger != nil,
		}
		if job.cron != nil {
			entry := job.cron.Entry(job.entryID)
			info.NextRun = entry.Next
			info.LastRun = entry.Prev
		}
		result = append(result, info)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Source != result[j].Source {
			return result[i].Source < result[j].Source
		}
		return result[i].Name < result[j].Name
	})
	return result
}

// TriggerNow runs a job immediately in the caller's goroutine.
func (r *Registry) TriggerNow(source, name string) error {
	r.mu.RLock()
	job, ok := r.jobs[jobKey(source, name)]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobKey(source, name))
	}
	if job.trigger == nil {
		return fmt.Errorf("%w: %s", ErrTriggerDisabled, jobKey(source, name))
	}

	r.logger.Info("manually triggering job", "source", source, "name", name)
	return job.trigger()
}

// UpdateSchedule moves a job to a new cron expression and persists it as an
// override.
func (r *Registry) UpdateSchedule(source, name, schedule string) error {
	if err := ValidateSchedule(schedule); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobKey(source, name)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobKey(source, name))
	}
	if err := r.reschedule(job, schedule); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), overrideTimeout)
	defer cancel()
	if err := r.queries.UpsertSchedulerOverride(ctx, store.UpsertSchedulerOverrideParams{
		Source:           source,
		Name:             name,
		OverrideSchedule: schedule,
	}); err != nil {
		r.logger.Error("failed to persist schedule override", "source", source, "name", name, "error", err)
	}

	r.logger.Info("updated job schedule", "source", source, "name", name, "schedule", schedule)
	return nil
}

// ResetSchedule drops the override and restores the default schedule.
func (r *Registry) ResetSchedule(source, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobKey(source, name)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobKey(source, name))
	}

	if job.schedule != job.defaultSchedule {
		if err := r.reschedule(job, job.defaultSchedule); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), overrideTimeout)
	defer cancel()
	if err := r.queries.DeleteSchedulerOverride(ctx, store.DeleteSchedulerOverrideParams{
		Source: source,
		Name:   name,
	}); err != nil {
		r.logger.Error("failed to remove schedule override", "source", source, "name", name, "error", err)
	}

	r.logger.Info("reset job schedule to default", "source", source, "name", name, "schedule", job.defaultSchedule)
	return nil
}

// reschedule swaps the cron entry of job. On failure the old entry is
// restored. Caller holds r.mu.
func (r *Registry) reschedule(job *registeredJob, schedule string) error {
	if job.cron == nil || job.run == nil {
		return fmt.Errorf("job cannot be rescheduled: %s", jobKey(job.source, job.name))
	}

	job.cron.Remove(job.entryID)
	id, err := job.cron.AddFunc(schedule, job.run)
	if err != nil {
		restored, restoreErr := job.cron.AddFunc(job.schedule, job.run)
		if restoreErr != nil {
			return fmt.Errorf("restoring schedule %q: %w (original: %w)", job.schedule, restoreErr, err)
		}
		job.entryID = restored
		return fmt.Errorf("applying schedule %q: %w", schedule, err)
	}

	job.entryID = id
	job.schedule = schedule
	return nil
}
