// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler drives the periodic publisher jobs on cron schedules.
// Each run holds a named lease so that only one process in a deployment
// executes a given job at a time.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/wpautoblog/internal/lock"
	"github.com/olegiv/wpautoblog/internal/metrics"
	"github.com/olegiv/wpautoblog/internal/model"
)

// ErrJobBusy is returned by a manual trigger when the job's lease is held.
var ErrJobBusy = errors.New("job is already running")

// leaseMargin keeps the lease alive slightly past the run deadline.
const leaseMargin = 30 * time.Second

// Job is a periodic task.
type Job struct {
	Source      string
	Name        string
	Description string
	Schedule    string        // default cron expression
	Timeout     time.Duration // run deadline
	Run         func(ctx context.Context) error
}

// Driver runs jobs on cron schedules.
type Driver struct {
	cron     *cron.Cron
	registry *Registry
	locker   lock.Locker
	logger   *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewDriver creates a driver. Overlapping cron runs of the same job are
// skipped, and panics inside a job are recovered and logged.
func NewDriver(registry *Registry, locker lock.Locker, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	cl := cronLogger{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())

	return &Driver{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		registry: registry,
		locker:   locker,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Registry returns the registry the driver records its jobs in.
func (d *Driver) Registry() *Registry {
	return d.registry
}

// Add schedules job, honoring a stored schedule override.
func (d *Driver) Add(job Job) error {
	if job.Source == "" || job.Name == "" || job.Run == nil {
		return fmt.Errorf("job %q: source, name and run func are required", jobKey(job.Source, job.Name))
	}
	if err := ValidateSchedule(job.Schedule); err != nil {
		return fmt.Errorf("job %s: %w", jobKey(job.Source, job.Name), err)
	}
	if job.Timeout <= 0 {
		job.Timeout = 5 * time.Minute
	}

	schedule := d.registry.EffectiveSchedule(job.Source, job.Name, job.Schedule)
	run := func() {
		_ = d.runOnce(d.ctx, job)
	}

	entryID, err := d.cron.AddFunc(schedule, run)
	if err != nil {
		return fmt.Errorf("scheduling %s: %w", jobKey(job.Source, job.Name), err)
	}

	d.registry.Register(job.Source, job.Name, job.Description, job.Schedule, schedule, d.cron, entryID, run, func() error {
		return d.runOnce(d.ctx, job)
	})
	return nil
}

// Start begins running scheduled jobs.
func (d *Driver) Start() {
	d.cron.Start()
	d.logger.Info("scheduler started", "jobs", len(d.cron.Entries()))
}

// Stop stops scheduling new runs and waits for running jobs. When ctx ends
// first, running jobs are canceled and Stop still waits for them to return.
func (d *Driver) Stop(ctx context.Context) {
	stopped := d.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		d.logger.Warn("scheduler stop deadline reached, canceling running jobs", "category", model.EventCategoryScheduler)
		d.cancel()
		<-stopped.Done()
	}
	d.cancel()
	d.logger.Info("scheduler stopped")
}

// runOnce executes job under its lease and records the outcome.
func (d *Driver) runOnce(ctx context.Context, job Job) error {
	key := jobKey(job.Source, job.Name)
	logger := d.logger.With("job", key)

	lease, ok, err := d.locker.TryAcquire(ctx, key, job.Timeout+leaseMargin)
	if err != nil {
		metrics.RecordJobRun(key, "error", 0)
		logger.Error("failed to acquire job lease", "category", model.EventCategoryScheduler, "error", err)
		return fmt.Errorf("acquiring lease for %s: %w", key, err)
	}
	if !ok {
		metrics.RecordJobRun(key, "skipped", 0)
		logger.Debug("job lease held elsewhere, skipping run")
		return ErrJobBusy
	}
	defer func() {
		if err := lease.Release(context.Background()); err != nil {
			logger.Warn("failed to release job lease", "category", model.EventCategoryScheduler, "error", err)
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, job.Timeout)
	defer cancel()

	start := time.Now()
	err = job.Run(runCtx)
	elapsed := time.Since(start)

	if err != nil {
		metrics.RecordJobRun(key, "error", elapsed)
		logger.Error("job failed", "category", model.EventCategoryScheduler, "duration", elapsed, "error", err)
		return err
	}
	metrics.RecordJobRun(key, "ok", elapsed)
	logger.Debug("job finished", "duration", elapsed)
	return nil
}

// cronLogger routes cron's own logging into slog. cron reports every
// schedule and wake-up at info level, which is debug noise here.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "category", model.EventCategoryScheduler, "error", err)...)
}
