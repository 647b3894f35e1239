// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/wpautoblog/internal/lock"
	"github.com/olegiv/wpautoblog/internal/metrics"
	"github.com/olegiv/wpautoblog/internal/publisher"
	"github.com/olegiv/wpautoblog/internal/store"
	tu "github.com/olegiv/wpautoblog/internal/testutil"
)

func newTestDriver(t *testing.T) (*Driver, lock.Locker) {
	t.Helper()
	registry, _ := testRegistry(t)
	locker := lock.NewMemoryLocker("test:")
	d := NewDriver(registry, locker, tu.TestLoggerSilent())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		d.Stop(ctx)
	})
	return d, locker
}

func TestDriverAddValidates(t *testing.T) {
	d, _ := newTestDriver(t)
	run := func(context.Context) error { return nil }

	tests := []struct {
		name string
		job  Job
	}{
		{"missing name", Job{Source: "publisher", Schedule: "@every 1m", Run: run}},
		{"missing run", Job{Source: "publisher", Name: "x", Schedule: "@every 1m"}},
		{"bad schedule", Job{Source: "publisher", Name: "x", Schedule: "sometimes", Run: run}},
		{"too frequent", Job{Source: "publisher", Name: "x", Schedule: "@every 1s", Run: run}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := d.Add(tt.job); err == nil {
				t.Error("Add succeeded, want error")
			}
		})
	}
	assert.Empty(t, d.Registry().List())
}

func TestDriverTriggerRunsJob(t *testing.T) {
	d, _ := newTestDriver(t)

	var deadline time.Time
	var calls int
	require.NoError(t, d.Add(Job{
		Source:   "publisher",
		Name:     "echo",
		Schedule: "@every 1h",
		Timeout:  time.Minute,
		Run: func(ctx context.Context) error {
			calls++
			deadline, _ = ctx.Deadline()
			return nil
		},
	}))

	before := testutil.ToFloat64(metrics.JobRuns.WithLabelValues("publisher:echo", "ok"))
	require.NoError(t, d.Registry().TriggerNow("publisher", "echo"))

	assert.Equal(t, 1, calls)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second, "run gets the job timeout")
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.JobRuns.WithLabelValues("publisher:echo", "ok")))
}

func TestDriverSkipsWhenLeaseHeld(t *testing.T) {
	d, locker := newTestDriver(t)

	var calls atomic.Int32
	require.NoError(t, d.Add(Job{
		Source:   "publisher",
		Name:     "process",
		Schedule: "@every 1h",
		Run: func(context.Context) error {
			calls.Add(1)
			return nil
		},
	}))

	// Another process holds the lease.
	lease, ok, err := locker.TryAcquire(context.Background(), "publisher:process", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	err = d.Registry().TriggerNow("publisher", "process")
	assert.ErrorIs(t, err, ErrJobBusy)
	assert.Zero(t, calls.Load())

	require.NoError(t, lease.Release(context.Background()))
	require.NoError(t, d.Registry().TriggerNow("publisher", "process"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestDriverSerializesConcurrentTriggers(t *testing.T) {
	d, _ := newTestDriver(t)

	release := make(chan struct{})
	started := make(chan struct{})
	var running, maxRunning atomic.Int32
	require.NoError(t, d.Add(Job{
		Source:   "publisher",
		Name:     "slow",
		Schedule: "@every 1h",
		Run: func(context.Context) error {
			n := running.Add(1)
			if n > maxRunning.Load() {
				maxRunning.Store(n)
			}
			select {
			case started <- struct{}{}:
			default:
			}
			<-release
			running.Add(-1)
			return nil
		},
	}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = d.Registry().TriggerNow("publisher", "slow")
	}()
	<-started

	err := d.Registry().TriggerNow("publisher", "slow")
	assert.ErrorIs(t, err, ErrJobBusy)

	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), maxRunning.Load())
}

func TestDriverReportsJobError(t *testing.T) {
	d, _ := newTestDriver(t)
	boom := errors.New("database is locked")

	require.NoError(t, d.Add(Job{
		Source:   "publisher",
		Name:     "broken",
		Schedule: "@every 1h",
		Run:      func(context.Context) error { return boom },
	}))

	before := testutil.ToFloat64(metrics.JobRuns.WithLabelValues("publisher:broken", "error"))
	err := d.Registry().TriggerNow("publisher", "broken")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.JobRuns.WithLabelValues("publisher:broken", "error")))
}

func TestDriverStopCancelsAfterDeadline(t *testing.T) {
	registry, _ := testRegistry(t)
	d := NewDriver(registry, lock.NewMemoryLocker(""), tu.TestLoggerSilent())

	started := make(chan struct{})
	canceled := make(chan struct{})
	require.NoError(t, d.Add(Job{
		Source:   "publisher",
		Name:     "hang",
		Schedule: "@every 10s",
		Run: func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			close(canceled)
			return ctx.Err()
		},
	}))
	d.Start()

	select {
	case <-started:
	case <-time.After(15 * time.Second):
		t.Fatal("job did not start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	d.Stop(ctx)

	select {
	case <-canceled:
	default:
		t.Fatal("Stop returned before the running job observed cancellation")
	}
}

type fakeEvaluator struct{ calls atomic.Int32 }

func (f *fakeEvaluator) Evaluate(context.Context, time.Time) ([]int64, error) {
	f.calls.Add(1)
	return []int64{1}, nil
}

type fakePublisher struct {
	batches []int
	sweeps  int
}

func (f *fakePublisher) ProcessBatch(_ context.Context, limit int) ([]*publisher.Result, error) {
	f.batches = append(f.batches, limit)
	return nil, nil
}

func (f *fakePublisher) Sweep(context.Context) (publisher.SweepResult, error) {
	f.sweeps++
	return publisher.SweepResult{}, nil
}

type fakePurger struct{ olderThan time.Duration }

func (f *fakePurger) DeleteOldEvents(_ context.Context, olderThan time.Duration) (int64, error) {
	f.olderThan = olderThan
	return 0, nil
}

func TestRegisterPublisherJobs(t *testing.T) {
	d, _ := newTestDriver(t)
	eval := &fakeEvaluator{}
	pub := &fakePublisher{}
	purger := &fakePurger{}

	err := RegisterPublisherJobs(d, eval, pub, purger, PublisherConfig{
		ProcessSchedule: "*/2 * * * *",
		ProcessBatch:    7,
		EventRetention:  48 * time.Hour,
	})
	require.NoError(t, err)

	jobs := d.Registry().List()
	require.Len(t, jobs, 4)
	schedules := map[string]string{}
	for _, j := range jobs {
		assert.True(t, j.CanTrigger)
		schedules[jobKey(j.Source, j.Name)] = j.Schedule
	}
	assert.Equal(t, map[string]string{
		"publisher:evaluate":    "@every 1m",
		"publisher:process":     "*/2 * * * *",
		"publisher:retry":       "@every 1m",
		"system:events-cleanup": "@daily",
	}, schedules)

	r := d.Registry()
	require.NoError(t, r.TriggerNow(SourcePublisher, JobEvaluate))
	require.NoError(t, r.TriggerNow(SourcePublisher, JobProcess))
	require.NoError(t, r.TriggerNow(SourcePublisher, JobRetry))
	require.NoError(t, r.TriggerNow(SourceSystem, JobEventCleanup))

	assert.Equal(t, int32(1), eval.calls.Load())
	assert.Equal(t, []int{7}, pub.batches)
	assert.Equal(t, 1, pub.sweeps)
	assert.Equal(t, 48*time.Hour, purger.olderThan)
}

func TestRegisterPublisherJobsHonorsOverrides(t *testing.T) {
	d, _ := newTestDriver(t)
	require.NoError(t, d.Registry().queries.UpsertSchedulerOverride(context.Background(), store.UpsertSchedulerOverrideParams{
		Source:           SourcePublisher,
		Name:             JobEvaluate,
		OverrideSchedule: "@every 5m",
	}))

	require.NoError(t, RegisterPublisherJobs(d, &fakeEvaluator{}, &fakePublisher{}, nil, PublisherConfig{}))

	jobs := d.Registry().List()
	require.Len(t, jobs, 3, "no cleanup job without an event purger")
	for _, j := range jobs {
		if j.Name == JobEvaluate {
			assert.Equal(t, "@every 5m", j.Schedule)
			assert.True(t, j.IsOverridden)
		}
	}
}
