// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"testing"
	"time"

	"github.com/olegiv/wpautoblog/internal/model"
	"github.com/olegiv/wpautoblog/internal/testutil"
)

func TestLogEvent(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	svc := NewEventService(db)
	ctx := context.Background()

	err := svc.LogEvent(ctx, model.EventLevelInfo, model.EventCategoryWordPress, "Blog connected", map[string]any{
		"blog_id": 7,
	})
	if err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	var level, category, message, metadata string
	err = db.QueryRow("SELECT level, category, message, metadata FROM events").Scan(&level, &category, &message, &metadata)
	if err != nil {
		t.Fatalf("failed to read event: %v", err)
	}

	if level != "info" {
		t.Errorf("level = %q, want %q", level, "info")
	}
	if category != "wordpress" {
		t.Errorf("category = %q, want %q", category, "wordpress")
	}
	if message != "Blog connected" {
		t.Errorf("message = %q, want %q", message, "Blog connected")
	}
	if metadata != `{"blog_id":7}` {
		t.Errorf("metadata = %q, want %q", metadata, `{"blog_id":7}`)
	}
}

func TestLogEvent_NilMetadata(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	svc := NewEventService(db)
	if err := svc.LogWarning(context.Background(), model.EventCategorySystem, "Low disk space", nil); err != nil {
		t.Fatalf("LogWarning failed: %v", err)
	}

	var level, metadata string
	if err := db.QueryRow("SELECT level, metadata FROM events").Scan(&level, &metadata); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	if level != "warning" {
		t.Errorf("level = %q, want %q", level, "warning")
	}
	if metadata != "{}" {
		t.Errorf("metadata = %q, want %q", metadata, "{}")
	}
}

func TestListRecent(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	svc := NewEventService(db)
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for i, msg := range []string{"first", "second", "third"} {
		svc.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		if err := svc.LogInfo(ctx, model.EventCategoryScheduler, msg, nil); err != nil {
			t.Fatalf("LogInfo(%s): %v", msg, err)
		}
	}

	events, err := svc.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].Message != "third" || events[1].Message != "second" {
		t.Errorf("order = %q, %q; want third, second", events[0].Message, events[1].Message)
	}

	all, err := svc.ListRecent(ctx, 0)
	if err != nil {
		t.Fatalf("ListRecent(0): %v", err)
	}
	if len(all) != 3 {
		t.Errorf("len(all) = %d, want 3", len(all))
	}
}

func TestDeleteOldEvents(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	svc := NewEventService(db)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	svc.now = func() time.Time { return now.Add(-48 * time.Hour) }
	if err := svc.LogInfo(ctx, model.EventCategorySystem, "old", nil); err != nil {
		t.Fatal(err)
	}
	svc.now = func() time.Time { return now.Add(-time.Hour) }
	if err := svc.LogInfo(ctx, model.EventCategorySystem, "recent", nil); err != nil {
		t.Fatal(err)
	}

	svc.now = func() time.Time { return now }
	deleted, err := svc.DeleteOldEvents(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("DeleteOldEvents: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	var remaining string
	if err := db.QueryRow("SELECT message FROM events").Scan(&remaining); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	if remaining != "recent" {
		t.Errorf("remaining = %q, want %q", remaining, "recent")
	}
}
