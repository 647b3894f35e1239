// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/olegiv/wpautoblog/internal/publisher"
)

// Job sources and names.
const (
	SourcePublisher = "publisher"
	SourceSystem    = "system"

	JobEvaluate     = "evaluate"
	JobProcess      = "process"
	JobRetry        = "retry"
	JobEventCleanup = "events-cleanup"
)

// Evaluator promotes drafts whose slot is due.
type Evaluator interface {
	Evaluate(ctx context.Context, now time.Time) ([]int64, error)
}

// Publisher drains the pending queue and sweeps retries.
type Publisher interface {
	ProcessBatch(ctx context.Context, limit int) ([]*publisher.Result, error)
	Sweep(ctx context.Context) (publisher.SweepResult, error)
}

// EventPurger deletes old audit events.
type EventPurger interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// PublisherConfig sets the schedules and limits of the built-in jobs.
type PublisherConfig struct {
	EvaluateSchedule string
	ProcessSchedule  string
	RetrySchedule    string
	CleanupSchedule  string
	ProcessBatch     int
	ProcessTimeout   time.Duration
	EventRetention   time.Duration
}

// DefaultPublisherConfig returns the default job settings.
func DefaultPublisherConfig() PublisherConfig {
	return PublisherConfig{
		EvaluateSchedule: "@every 1m",
		ProcessSchedule:  "@every 30s",
		RetrySchedule:    "@every 1m",
		CleanupSchedule:  "@daily",
		ProcessBatch:     5,
		ProcessTimeout:   15 * time.Minute,
		EventRetention:   30 * 24 * time.Hour,
	}
}

// RegisterPublisherJobs adds the evaluate, process and retry jobs, plus event
// cleanup when events is not nil.
func RegisterPublisherJobs(d *Driver, eval Evaluator, pub Publisher, events EventPurger, cfg PublisherConfig) error {
	def := DefaultPublisherConfig()
	if cfg.EvaluateSchedule == "" {
		cfg.EvaluateSchedule = def.EvaluateSchedule
	}
	if cfg.ProcessSchedule == "" {
		cfg.ProcessSchedule = def.ProcessSchedule
	}
	if cfg.RetrySchedule == "" {
		cfg.RetrySchedule = def.RetrySchedule
	}
	if cfg.CleanupSchedule == "" {
		cfg.CleanupSchedule = def.CleanupSchedule
	}
	if cfg.ProcessBatch < 1 {
		cfg.ProcessBatch = def.ProcessBatch
	}
	if cfg.ProcessTimeout <= 0 {
		cfg.ProcessTimeout = def.ProcessTimeout
	}
	if cfg.EventRetention <= 0 {
		cfg.EventRetention = def.EventRetention
	}

	jobs := []Job{
		{
			Source:      SourcePublisher,
			Name:        JobEvaluate,
			Description: "Promote the oldest draft of every blog whose posting slot is due",
			Schedule:    cfg.EvaluateSchedule,
			Timeout:     2 * time.Minute,
			Run: func(ctx context.Context) error {
				_, err := eval.Evaluate(ctx, time.Now())
				return err
			},
		},
		{
			Source:      SourcePublisher,
			Name:        JobProcess,
			Description: "Generate and publish pending ideas",
			Schedule:    cfg.ProcessSchedule,
			Timeout:     cfg.ProcessTimeout,
			Run: func(ctx context.Context) error {
				_, err := pub.ProcessBatch(ctx, cfg.ProcessBatch)
				return err
			},
		},
		{
			Source:      SourcePublisher,
			Name:        JobRetry,
			Description: "Re-queue failed ideas whose backoff elapsed and reset abandoned claims",
			Schedule:    cfg.RetrySchedule,
			Timeout:     time.Minute,
			Run: func(ctx context.Context) error {
				_, err := pub.Sweep(ctx)
				return err
			},
		},
	}

	if events != nil {
		retention := cfg.EventRetention
		jobs = append(jobs, Job{
			Source:      SourceSystem,
			Name:        JobEventCleanup,
			Description: fmt.Sprintf("Delete audit events older than %s", retention),
			Schedule:    cfg.CleanupSchedule,
			Timeout:     5 * time.Minute,
			Run: func(ctx context.Context) error {
				_, err := events.DeleteOldEvents(ctx, retention)
				return err
			},
		})
	}

	for _, job := range jobs {
		if err := d.Add(job); err != nil {
			return err
		}
	}
	return nil
}
