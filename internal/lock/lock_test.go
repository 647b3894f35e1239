// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package lock

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMemoryLocker_Exclusive(t *testing.T) {
	l := NewMemoryLocker("test:")
	ctx := context.Background()

	lease, ok, err := l.TryAcquire(ctx, "job", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first TryAcquire = %v, %v", ok, err)
	}
	if lease.Key() != "test:job" {
		t.Errorf("Key() = %q, want test:job", lease.Key())
	}

	if _, ok, _ := l.TryAcquire(ctx, "job", time.Minute); ok {
		t.Fatal("second TryAcquire succeeded while lease is held")
	}

	if err := lease.Release(ctx); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, ok, _ := l.TryAcquire(ctx, "job", time.Minute); !ok {
		t.Error("TryAcquire after release failed")
	}
}

func TestMemoryLocker_Expiry(t *testing.T) {
	l := NewMemoryLocker("")
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	stale, ok, _ := l.TryAcquire(ctx, "job", time.Minute)
	if !ok {
		t.Fatal("TryAcquire failed")
	}

	now = now.Add(2 * time.Minute)
	fresh, ok, _ := l.TryAcquire(ctx, "job", time.Minute)
	if !ok {
		t.Fatal("expired lease was not reclaimable")
	}

	// Releasing the stale lease must not drop the fresh holder.
	_ = stale.Release(ctx)
	if _, ok, _ := l.TryAcquire(ctx, "job", time.Minute); ok {
		t.Error("stale release removed the current lease")
	}
	_ = fresh.Release(ctx)
}

func TestMemoryLocker_Concurrent(t *testing.T) {
	l := NewMemoryLocker("")
	ctx := context.Background()

	var winners atomic.Int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, _ := l.TryAcquire(ctx, "race", time.Minute); ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	if winners.Load() != 1 {
		t.Errorf("winners = %d, want 1", winners.Load())
	}
}

func TestMemoryLocker_Closed(t *testing.T) {
	l := NewMemoryLocker("")
	_ = l.Close()
	if _, _, err := l.TryAcquire(context.Background(), "job", time.Minute); err != ErrLockerClosed {
		t.Errorf("err = %v, want ErrLockerClosed", err)
	}
}

func TestNew_MemoryFallback(t *testing.T) {
	l, err := New(Config{Prefix: "x:"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = l.Close() }()
	if _, ok := l.(*MemoryLocker); !ok {
		t.Errorf("New without Redis URL returned %T, want *MemoryLocker", l)
	}
}

// skipIfNoRedis skips the test if Redis is not configured.
func skipIfNoRedis(t *testing.T) string {
	url := os.Getenv("AUTOBLOG_TEST_REDIS_URL")
	if url == "" {
		t.Skip("Skipping Redis tests: AUTOBLOG_TEST_REDIS_URL not set")
	}
	return url
}

func TestRedisLocker_Exclusive(t *testing.T) {
	url := skipIfNoRedis(t)

	opts := DefaultRedisLockerOptions()
	opts.URL = url
	opts.Prefix = "autoblog-test:" + uuid.NewString() + ":"
	a, err := NewRedisLocker(opts)
	if err != nil {
		t.Fatalf("NewRedisLocker: %v", err)
	}
	defer func() { _ = a.Close() }()
	b, err := NewRedisLocker(opts)
	if err != nil {
		t.Fatalf("NewRedisLocker: %v", err)
	}
	defer func() { _ = b.Close() }()

	ctx := context.Background()
	lease, ok, err := a.TryAcquire(ctx, "job", 5*time.Second)
	if err != nil || !ok {
		t.Fatalf("a.TryAcquire = %v, %v", ok, err)
	}

	if _, ok, err := b.TryAcquire(ctx, "job", 5*time.Second); err != nil || ok {
		t.Fatalf("b.TryAcquire while held = %v, %v", ok, err)
	}

	if err := lease.Release(ctx); err != nil {
		t.Fatalf("Release: %v", err)
	}
	other, ok, err := b.TryAcquire(ctx, "job", 5*time.Second)
	if err != nil || !ok {
		t.Fatalf("b.TryAcquire after release = %v, %v", ok, err)
	}
	_ = other.Release(ctx)
}

func TestRedisLocker_ReleaseAfterExpiry(t *testing.T) {
	url := skipIfNoRedis(t)

	opts := DefaultRedisLockerOptions()
	opts.URL = url
	opts.Prefix = "autoblog-test:" + uuid.NewString() + ":"
	l, err := NewRedisLocker(opts)
	if err != nil {
		t.Fatalf("NewRedisLocker: %v", err)
	}
	defer func() { _ = l.Close() }()

	ctx := context.Background()
	stale, _, _ := l.TryAcquire(ctx, "job", 50*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	fresh, ok, err := l.TryAcquire(ctx, "job", 5*time.Second)
	if err != nil || !ok {
		t.Fatalf("TryAcquire after expiry = %v, %v", ok, err)
	}

	_ = stale.Release(ctx)
	if _, ok, _ := l.TryAcquire(ctx, "job", 5*time.Second); ok {
		t.Error("stale release removed the current lease")
	}
	_ = fresh.Release(ctx)
}
