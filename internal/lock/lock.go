// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package lock provides short-lived named leases so that only one process in
// a deployment runs a given scheduler job at a time.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrLockerClosed is returned when using a closed Locker.
var ErrLockerClosed = errors.New("lock: locker is closed")

// Lease is a held lock. Release is safe to call more than once.
type Lease interface {
	Key() string
	Release(ctx context.Context) error
}

// Locker hands out leases. TryAcquire never blocks waiting for a holder:
// it returns ok=false when the key is already leased.
type Locker interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (lease Lease, ok bool, err error)
	Close() error
}

// Config selects a Locker backend.
type Config struct {
	RedisURL string
	Prefix   string
}

// New returns a Redis locker when a URL is configured, otherwise an
// in-process memory locker.
func New(cfg Config) (Locker, error) {
	if cfg.RedisURL == "" {
		return NewMemoryLocker(cfg.Prefix), nil
	}
	opts := DefaultRedisLockerOptions()
	opts.URL = cfg.RedisURL
	if cfg.Prefix != "" {
		opts.Prefix = cfg.Prefix
	}
	return NewRedisLocker(opts)
}
