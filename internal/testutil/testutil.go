// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers.
package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/olegiv/wpautoblog/internal/store"
)

// TestLogger creates a silent test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestLoggerSilent creates a completely silent test logger (error level only).
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// TestDB creates a temporary test database with migrations applied.
// Returns the database and a cleanup function that should be deferred.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "autoblog-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() { _ = db.Close() }
}

// SeededDB is TestDB with the built-in plans created.
func SeededDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	db, cleanup := TestDB(t)
	if err := store.Seed(context.Background(), db); err != nil {
		cleanup()
		t.Fatalf("Seed: %v", err)
	}
	return db, cleanup
}

// UserOpts configures CreateUser.
type UserOpts struct {
	Email   string
	Plan    string // plan name; empty means no plan
	Credits int64
	Demo    bool
}

// CreateUser inserts a user, attaching the named plan when set.
func CreateUser(t *testing.T, db *sql.DB, opts UserOpts) store.User {
	t.Helper()
	ctx := context.Background()
	q := store.New(db)

	if opts.Email == "" {
		opts.Email = "owner@example.com"
	}

	var planID sql.NullInt64
	if opts.Plan != "" {
		plan, err := q.GetPlanByName(ctx, opts.Plan)
		if err != nil {
			t.Fatalf("GetPlanByName(%s): %v", opts.Plan, err)
		}
		planID = sql.NullInt64{Int64: plan.ID, Valid: true}
	}

	now := time.Now().UTC()
	user, err := q.CreateUser(ctx, store.CreateUserParams{
		Email:     opts.Email,
		Name:      "Test Owner",
		PlanID:    planID,
		Credits:   opts.Credits,
		IsDemo:    opts.Demo,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user
}

// BlogOpts configures CreateBlog. Zero values get sensible defaults.
type BlogOpts struct {
	SiteURL      string
	WPUser       string
	WPPassword   string
	PostsPerDay  int64
	ScheduleTime string
	Timezone     string
	PostStatus   string
	SystemPrompt string
	Topics       string
}

// CreateBlog inserts a blog owned by userID.
func CreateBlog(t *testing.T, db *sql.DB, userID int64, opts BlogOpts) store.Blog {
	t.Helper()

	if opts.SiteURL == "" {
		opts.SiteURL = "https://blog.example.com"
	}
	if opts.WPUser == "" {
		opts.WPUser = "admin"
	}
	if opts.WPPassword == "" {
		opts.WPPassword = "abcd efgh ijkl mnop"
	}
	if opts.PostsPerDay == 0 {
		opts.PostsPerDay = 1
	}
	if opts.ScheduleTime == "" {
		opts.ScheduleTime = "09:00"
	}
	if opts.PostStatus == "" {
		opts.PostStatus = "publish"
	}

	now := time.Now().UTC()
	blog, err := store.New(db).CreateBlog(context.Background(), store.CreateBlogParams{
		UserID:        userID,
		SiteName:      "Test Blog",
		SiteUrl:       opts.SiteURL,
		WpUser:        opts.WPUser,
		WpAppPassword: opts.WPPassword,
		PostsPerDay:   opts.PostsPerDay,
		ScheduleTime:  opts.ScheduleTime,
		Timezone:      opts.Timezone,
		PostStatus:    opts.PostStatus,
		SystemPrompt:  opts.SystemPrompt,
		Topics:        opts.Topics,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		t.Fatalf("CreateBlog: %v", err)
	}
	return blog
}

// CreateIdea inserts a draft idea created at the given instant.
func CreateIdea(t *testing.T, db *sql.DB, blogID int64, title, body string, createdAt time.Time) store.ContentIdea {
	t.Helper()
	idea, err := store.New(db).CreateIdea(context.Background(), store.CreateIdeaParams{
		BlogID:    blogID,
		Title:     title,
		Body:      body,
		CreatedAt: createdAt.UTC(),
		UpdatedAt: createdAt.UTC(),
	})
	if err != nil {
		t.Fatalf("CreateIdea: %v", err)
	}
	return idea
}

// PromoteIdea moves a draft idea to pending as of the given instant.
func PromoteIdea(t *testing.T, db *sql.DB, ideaID int64, at time.Time) {
	t.Helper()
	n, err := store.New(db).PromoteIdea(context.Background(), store.PromoteIdeaParams{
		QueuedAt:  sql.NullTime{Time: at.UTC(), Valid: true},
		UpdatedAt: at.UTC(),
		ID:        ideaID,
	})
	if err != nil {
		t.Fatalf("PromoteIdea: %v", err)
	}
	if n != 1 {
		t.Fatalf("PromoteIdea affected %d rows, want 1", n)
	}
}

// GetIdea reloads an idea.
func GetIdea(t *testing.T, db *sql.DB, id int64) store.ContentIdea {
	t.Helper()
	idea, err := store.New(db).GetIdea(context.Background(), id)
	if err != nil {
		t.Fatalf("GetIdea(%d): %v", id, err)
	}
	return idea
}

// PostLogsForIdea returns every post log recorded for an idea.
func PostLogsForIdea(t *testing.T, db *sql.DB, ideaID int64) []store.PostLog {
	t.Helper()
	logs, err := store.New(db).ListPostLogsByIdea(context.Background(), sql.NullInt64{Int64: ideaID, Valid: true})
	if err != nil {
		t.Fatalf("ListPostLogsByIdea: %v", err)
	}
	return logs
}
