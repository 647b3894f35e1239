// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"
)

// testDB creates a temporary test database.
func testDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "autoblog-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}

	if err := Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() { _ = db.Close() }
}

func testSetup(t *testing.T) (*sql.DB, func(), context.Context, *Queries) {
	t.Helper()
	db, cleanup := testDB(t)
	return db, cleanup, context.Background(), New(db)
}

func createTestBlog(t *testing.T, ctx context.Context, q *Queries) (User, Blog) {
	t.Helper()

	now := time.Now().UTC()
	user, err := q.CreateUser(ctx, CreateUserParams{
		Email:     "owner@example.com",
		Name:      "Owner",
		Credits:   10,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	blog, err := q.CreateBlog(ctx, CreateBlogParams{
		UserID:        user.ID,
		SiteName:      "Test Blog",
		SiteUrl:       "https://blog.example.com",
		WpUser:        "admin",
		WpAppPassword: "xxxx xxxx",
		PostsPerDay:   1,
		ScheduleTime:  "09:00",
		PostStatus:    "publish",
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		t.Fatalf("CreateBlog: %v", err)
	}
	return user, blog
}

func createTestIdea(t *testing.T, ctx context.Context, q *Queries, blogID int64, title string, at time.Time) ContentIdea {
	t.Helper()
	idea, err := q.CreateIdea(ctx, CreateIdeaParams{
		BlogID:    blogID,
		Title:     title,
		CreatedAt: at,
		UpdatedAt: at,
	})
	if err != nil {
		t.Fatalf("CreateIdea: %v", err)
	}
	return idea
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: true}
}

func TestCreateBlogDefaults(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	_, blog := createTestBlog(t, ctx, q)

	got, err := q.GetBlog(ctx, blog.ID)
	if err != nil {
		t.Fatalf("GetBlog: %v", err)
	}
	if got.ScheduleTime != "09:00" {
		t.Errorf("ScheduleTime = %q, want %q", got.ScheduleTime, "09:00")
	}
	if got.PostStatus != "publish" {
		t.Errorf("PostStatus = %q, want %q", got.PostStatus, "publish")
	}
}

func TestCreateBlog_RejectsZeroPostsPerDay(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	user, _ := createTestBlog(t, ctx, q)
	now := time.Now().UTC()
	_, err := q.CreateBlog(ctx, CreateBlogParams{
		UserID:       user.ID,
		SiteName:     "Broken",
		SiteUrl:      "https://broken.example.com",
		PostsPerDay:  0,
		ScheduleTime: "09:00",
		PostStatus:   "publish",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err == nil {
		t.Fatal("expected CHECK constraint error for posts_per_day = 0")
	}
}

func TestClaimNextPendingIdea_FIFO(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	_, blog := createTestBlog(t, ctx, q)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	newer := createTestIdea(t, ctx, q, blog.ID, "newer", base.Add(time.Minute))
	older := createTestIdea(t, ctx, q, blog.ID, "older", base)

	for _, id := range []int64{newer.ID, older.ID} {
		if _, err := q.PromoteIdea(ctx, PromoteIdeaParams{QueuedAt: nullTime(base), UpdatedAt: base, ID: id}); err != nil {
			t.Fatalf("PromoteIdea: %v", err)
		}
	}

	now := base.Add(time.Hour)
	claimed, err := q.ClaimNextPendingIdea(ctx, ClaimNextPendingIdeaParams{
		ClaimedAt: nullTime(now),
		UpdatedAt: now,
		Now:       nullTime(now),
	})
	if err != nil {
		t.Fatalf("ClaimNextPendingIdea: %v", err)
	}
	if claimed.ID != older.ID {
		t.Errorf("claimed idea %d, want oldest %d", claimed.ID, older.ID)
	}
	if claimed.Status != "processing" {
		t.Errorf("Status = %q, want processing", claimed.Status)
	}
	if claimed.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", claimed.Attempts)
	}

	second, err := q.ClaimNextPendingIdea(ctx, ClaimNextPendingIdeaParams{
		ClaimedAt: nullTime(now),
		UpdatedAt: now,
		Now:       nullTime(now),
	})
	if err != nil {
		t.Fatalf("second ClaimNextPendingIdea: %v", err)
	}
	if second.ID != newer.ID {
		t.Errorf("second claim = %d, want %d", second.ID, newer.ID)
	}

	_, err = q.ClaimNextPendingIdea(ctx, ClaimNextPendingIdeaParams{
		ClaimedAt: nullTime(now),
		UpdatedAt: now,
		Now:       nullTime(now),
	})
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("empty queue err = %v, want sql.ErrNoRows", err)
	}
}

func TestClaimNextPendingIdea_SkipsDeferred(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	_, blog := createTestBlog(t, ctx, q)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	idea := createTestIdea(t, ctx, q, blog.ID, "deferred", base)

	if _, err := q.PromoteIdea(ctx, PromoteIdeaParams{QueuedAt: nullTime(base), UpdatedAt: base, ID: idea.ID}); err != nil {
		t.Fatalf("PromoteIdea: %v", err)
	}
	claimParams := ClaimNextPendingIdeaParams{ClaimedAt: nullTime(base), UpdatedAt: base, Now: nullTime(base)}
	if _, err := q.ClaimNextPendingIdea(ctx, claimParams); err != nil {
		t.Fatalf("ClaimNextPendingIdea: %v", err)
	}

	later := base.Add(2 * time.Hour)
	n, err := q.DeferIdea(ctx, DeferIdeaParams{NextAttemptAt: nullTime(later), UpdatedAt: base, ID: idea.ID})
	if err != nil || n != 1 {
		t.Fatalf("DeferIdea = %d, %v", n, err)
	}

	if _, err := q.ClaimNextPendingIdea(ctx, claimParams); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("claim before next_attempt_at err = %v, want sql.ErrNoRows", err)
	}

	due := ClaimNextPendingIdeaParams{ClaimedAt: nullTime(later), UpdatedAt: later, Now: nullTime(later)}
	got, err := q.ClaimNextPendingIdea(ctx, due)
	if err != nil {
		t.Fatalf("claim after next_attempt_at: %v", err)
	}
	if got.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1 (deferral does not consume an attempt)", got.Attempts)
	}
}

func TestFailAndReleaseDueRetries(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	_, blog := createTestBlog(t, ctx, q)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	idea := createTestIdea(t, ctx, q, blog.ID, "flaky", base)

	_, _ = q.PromoteIdea(ctx, PromoteIdeaParams{QueuedAt: nullTime(base), UpdatedAt: base, ID: idea.ID})
	if _, err := q.ClaimNextPendingIdea(ctx, ClaimNextPendingIdeaParams{ClaimedAt: nullTime(base), UpdatedAt: base, Now: nullTime(base)}); err != nil {
		t.Fatalf("ClaimNextPendingIdea: %v", err)
	}

	retryAt := base.Add(5 * time.Minute)
	if n, err := q.FailIdea(ctx, FailIdeaParams{NextAttemptAt: nullTime(retryAt), LastError: "boom", UpdatedAt: base, ID: idea.ID}); err != nil || n != 1 {
		t.Fatalf("FailIdea = %d, %v", n, err)
	}

	n, err := q.ReleaseDueRetries(ctx, ReleaseDueRetriesParams{QueuedAt: nullTime(base), UpdatedAt: base, Now: nullTime(base)})
	if err != nil {
		t.Fatalf("ReleaseDueRetries: %v", err)
	}
	if n != 0 {
		t.Errorf("released %d ideas before they were due", n)
	}

	n, err = q.ReleaseDueRetries(ctx, ReleaseDueRetriesParams{QueuedAt: nullTime(retryAt), UpdatedAt: retryAt, Now: nullTime(retryAt)})
	if err != nil {
		t.Fatalf("ReleaseDueRetries: %v", err)
	}
	if n != 1 {
		t.Errorf("released %d ideas, want 1", n)
	}

	got, _ := q.GetIdea(ctx, idea.ID)
	if got.Status != "pending" {
		t.Errorf("Status = %q, want pending", got.Status)
	}
	if got.LastError != "boom" {
		t.Errorf("LastError = %q, want boom", got.LastError)
	}
}

func TestFailIdea_TerminalIsNotReleased(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	_, blog := createTestBlog(t, ctx, q)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	idea := createTestIdea(t, ctx, q, blog.ID, "terminal", base)

	_, _ = q.PromoteIdea(ctx, PromoteIdeaParams{QueuedAt: nullTime(base), UpdatedAt: base, ID: idea.ID})
	_, _ = q.ClaimNextPendingIdea(ctx, ClaimNextPendingIdeaParams{ClaimedAt: nullTime(base), UpdatedAt: base, Now: nullTime(base)})
	_, _ = q.FailIdea(ctx, FailIdeaParams{LastError: "owner missing", UpdatedAt: base, ID: idea.ID})

	far := base.Add(48 * time.Hour)
	n, err := q.ReleaseDueRetries(ctx, ReleaseDueRetriesParams{QueuedAt: nullTime(far), UpdatedAt: far, Now: nullTime(far)})
	if err != nil {
		t.Fatalf("ReleaseDueRetries: %v", err)
	}
	if n != 0 {
		t.Errorf("terminal failure was released")
	}

	// Manual requeue still works.
	if n, err := q.RequeueIdea(ctx, RequeueIdeaParams{QueuedAt: nullTime(far), UpdatedAt: far, ID: idea.ID}); err != nil || n != 1 {
		t.Fatalf("RequeueIdea = %d, %v", n, err)
	}
	got, _ := q.GetIdea(ctx, idea.ID)
	if got.Status != "pending" || got.Attempts != 0 || got.LastError != "" {
		t.Errorf("after requeue: status=%q attempts=%d last_error=%q", got.Status, got.Attempts, got.LastError)
	}
}

func TestCompleteIdea_OnlyFromProcessing(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	_, blog := createTestBlog(t, ctx, q)
	now := time.Now().UTC()
	idea := createTestIdea(t, ctx, q, blog.ID, "draft only", now)

	n, err := q.CompleteIdea(ctx, CompleteIdeaParams{UpdatedAt: now, ID: idea.ID})
	if err != nil {
		t.Fatalf("CompleteIdea: %v", err)
	}
	if n != 0 {
		t.Error("CompleteIdea should not touch a draft idea")
	}
}

func TestGetOldestDraftIdea(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	_, blog := createTestBlog(t, ctx, q)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	if _, err := q.GetOldestDraftIdea(ctx, blog.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("empty blog err = %v, want sql.ErrNoRows", err)
	}

	createTestIdea(t, ctx, q, blog.ID, "second", base.Add(time.Minute))
	first := createTestIdea(t, ctx, q, blog.ID, "first", base)

	got, err := q.GetOldestDraftIdea(ctx, blog.ID)
	if err != nil {
		t.Fatalf("GetOldestDraftIdea: %v", err)
	}
	if got.ID != first.ID {
		t.Errorf("oldest draft = %d, want %d", got.ID, first.ID)
	}

	n, err := q.PromoteIdea(ctx, PromoteIdeaParams{QueuedAt: nullTime(base), UpdatedAt: base, ID: first.ID})
	if err != nil || n != 1 {
		t.Fatalf("PromoteIdea = %d, %v", n, err)
	}
	if n, _ := q.PromoteIdea(ctx, PromoteIdeaParams{QueuedAt: nullTime(base), UpdatedAt: base, ID: first.ID}); n != 0 {
		t.Error("promoting a pending idea twice should affect no rows")
	}
}

func TestClaimSlot_Idempotent(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	_, blog := createTestBlog(t, ctx, q)
	slot := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	n, err := q.ClaimSlot(ctx, ClaimSlotParams{BlogID: blog.ID, SlotAt: slot, CreatedAt: slot})
	if err != nil {
		t.Fatalf("ClaimSlot: %v", err)
	}
	if n != 1 {
		t.Errorf("first claim affected %d rows, want 1", n)
	}

	n, err = q.ClaimSlot(ctx, ClaimSlotParams{BlogID: blog.ID, SlotAt: slot, CreatedAt: slot.Add(time.Minute)})
	if err != nil {
		t.Fatalf("second ClaimSlot: %v", err)
	}
	if n != 0 {
		t.Errorf("second claim affected %d rows, want 0", n)
	}

	removed, err := q.DeleteSlotsBefore(ctx, slot.Add(time.Second))
	if err != nil {
		t.Fatalf("DeleteSlotsBefore: %v", err)
	}
	if removed != 1 {
		t.Errorf("DeleteSlotsBefore removed %d, want 1", removed)
	}
}

func TestCountPublishedAutoPosts(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	_, blog := createTestBlog(t, ctx, q)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	logs := []CreatePostLogParams{
		{BlogID: blog.ID, Title: "a", Status: "published", Automated: true, PostedAt: day.Add(9 * time.Hour)},
		{BlogID: blog.ID, Title: "b", Status: "failed", Automated: true, PostedAt: day.Add(10 * time.Hour)},
		{BlogID: blog.ID, Title: "c", Status: "published", Automated: false, PostedAt: day.Add(11 * time.Hour)},
		{BlogID: blog.ID, Title: "d", Status: "published", Automated: true, PostedAt: day.Add(-time.Hour)},
		{BlogID: blog.ID, Title: "e", Status: "simulated", Automated: true, PostedAt: day.Add(12 * time.Hour)},
	}
	for _, l := range logs {
		if _, err := q.CreatePostLog(ctx, l); err != nil {
			t.Fatalf("CreatePostLog: %v", err)
		}
	}

	n, err := q.CountPublishedAutoPosts(ctx, CountPublishedAutoPostsParams{BlogID: blog.ID, From: day, To: day.Add(24 * time.Hour)})
	if err != nil {
		t.Fatalf("CountPublishedAutoPosts: %v", err)
	}
	if n != 1 {
		t.Errorf("CountPublishedAutoPosts = %d, want 1", n)
	}

	auto, err := q.CountAutoPostLogsBetween(ctx, CountAutoPostLogsBetweenParams{BlogID: blog.ID, From: day, To: day.Add(24 * time.Hour)})
	if err != nil {
		t.Fatalf("CountAutoPostLogsBetween: %v", err)
	}
	if auto != 3 {
		t.Errorf("CountAutoPostLogsBetween = %d, want 3", auto)
	}
}

func TestGetUserEntitlements_NoPlan(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	user, _ := createTestBlog(t, ctx, q)

	ent, err := q.GetUserEntitlements(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserEntitlements: %v", err)
	}
	if ent.PlanPostsPerDay != 1 {
		t.Errorf("PlanPostsPerDay = %d, want 1", ent.PlanPostsPerDay)
	}
	if ent.PlanHasImages {
		t.Error("PlanHasImages = true, want false")
	}
	if ent.Credits != 10 {
		t.Errorf("Credits = %d, want 10", ent.Credits)
	}
}

func TestRecordUserPost(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	user, _ := createTestBlog(t, ctx, q)
	now := time.Now().UTC()

	if err := q.RecordUserPost(ctx, RecordUserPostParams{
		LastPostAt: nullTime(now),
		Credits:    1,
		UpdatedAt:  now,
		ID:         user.ID,
	}); err != nil {
		t.Fatalf("RecordUserPost: %v", err)
	}

	got, _ := q.GetUser(ctx, user.ID)
	if got.Credits != 9 {
		t.Errorf("Credits = %d, want 9", got.Credits)
	}
	if !got.LastPostAt.Valid {
		t.Error("LastPostAt should be set")
	}
}

func TestDeleteBlogCascades(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	_, blog := createTestBlog(t, ctx, q)
	idea := createTestIdea(t, ctx, q, blog.ID, "gone", time.Now().UTC())

	if n, err := q.DeleteBlog(ctx, blog.ID); err != nil || n != 1 {
		t.Fatalf("DeleteBlog = %d, %v", n, err)
	}
	if _, err := q.GetIdea(ctx, idea.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("idea survived blog deletion: %v", err)
	}
}

func TestRunInTx_RollsBack(t *testing.T) {
	db, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	_, blog := createTestBlog(t, ctx, q)
	sentinel := errors.New("abort")

	err := RunInTx(ctx, db, func(tq *Queries) error {
		createTestIdea(t, ctx, tq, blog.ID, "rolled back", time.Now().UTC())
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("RunInTx err = %v, want sentinel", err)
	}

	ideas, err := q.ListIdeasByBlog(ctx, ListIdeasByBlogParams{BlogID: blog.ID, Limit: 10})
	if err != nil {
		t.Fatalf("ListIdeasByBlog: %v", err)
	}
	if len(ideas) != 0 {
		t.Errorf("found %d ideas after rollback, want 0", len(ideas))
	}
}

func TestSchedulerOverrides(t *testing.T) {
	_, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	key := GetSchedulerOverrideParams{Source: "core", Name: "publisher:process"}
	if _, err := q.GetSchedulerOverride(ctx, key); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("missing override err = %v, want sql.ErrNoRows", err)
	}

	for _, sched := range []string{"@every 1m", "@every 2m"} {
		if err := q.UpsertSchedulerOverride(ctx, UpsertSchedulerOverrideParams{Source: key.Source, Name: key.Name, OverrideSchedule: sched}); err != nil {
			t.Fatalf("UpsertSchedulerOverride: %v", err)
		}
	}

	got, err := q.GetSchedulerOverride(ctx, key)
	if err != nil {
		t.Fatalf("GetSchedulerOverride: %v", err)
	}
	if got != "@every 2m" {
		t.Errorf("override = %q, want %q", got, "@every 2m")
	}
}

func TestSeed(t *testing.T) {
	db, cleanup, ctx, q := testSetup(t)
	defer cleanup()

	for range 2 {
		if err := Seed(ctx, db); err != nil {
			t.Fatalf("Seed: %v", err)
		}
	}

	plans, err := q.ListPlans(ctx)
	if err != nil {
		t.Fatalf("ListPlans: %v", err)
	}
	if len(plans) != 3 {
		t.Fatalf("got %d plans, want 3", len(plans))
	}

	vip, err := q.GetPlanByName(ctx, PlanVIP)
	if err != nil {
		t.Fatalf("GetPlanByName: %v", err)
	}
	if vip.PostsPerDay != 0 || !vip.HasImages {
		t.Errorf("vip = %+v, want unlimited posts with images", vip)
	}
}
