// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

// MemoryLocker is a process-local Locker. It guards against overlapping runs
// inside one process only.
type MemoryLocker struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	prefix  string
	now     func() time.Time
	closed  atomic.Bool
}

// NewMemoryLocker creates an in-memory locker.
func NewMemoryLocker(prefix string) *MemoryLocker {
	return &MemoryLocker{
		entries: make(map[string]memoryEntry),
		prefix:  prefix,
		now:     time.Now,
	}
}

// TryAcquire implements Locker.
func (l *MemoryLocker) TryAcquire(_ context.Context, key string, ttl time.Duration) (Lease, bool, error) {
	if l.closed.Load() {
		return nil, false, ErrLockerClosed
	}

	full := l.prefix + key
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.entries[full]; ok && now.Before(e.expiresAt) {
		return nil, false, nil
	}

	token := uuid.NewString()
	l.entries[full] = memoryEntry{token: token, expiresAt: now.Add(ttl)}
	return &memoryLease{locker: l, key: full, token: token}, true, nil
}

// Close implements Locker.
func (l *MemoryLocker) Close() error {
	l.closed.Store(true)
	return nil
}

func (l *MemoryLocker) release(key, token string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[key]; ok && e.token == token {
		delete(l.entries, key)
	}
}

type memoryLease struct {
	locker *MemoryLocker
	key    string
	token  string
}

func (m *memoryLease) Key() string { return m.key }

func (m *memoryLease) Release(context.Context) error {
	m.locker.release(m.key, m.token)
	return nil
}
