// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Demo account settings.
const (
	DemoUserEmail   = "demo@example.com"
	DemoUserName    = "Demo Owner"
	DemoUserCredits = 50
	DemoSiteName    = "Demo Blog"
)

var demoIdeas = []string{
	"How to plan a content calendar for a small business",
	"Five mistakes to avoid when starting a WordPress blog",
	"Writing headlines that readers actually click",
}

// SeedDemo creates a demo owner on the vip plan with one blog and a few
// draft ideas. The owner is flagged as demo, so its publishes are simulated.
// It runs only when AUTOBLOG_DEMO_MODE=true and expects Seed to have created
// the plans already.
func SeedDemo(ctx context.Context, db *sql.DB) error {
	if os.Getenv("AUTOBLOG_DEMO_MODE") != "true" {
		return nil
	}

	queries := New(db)

	if _, err := queries.GetUserByEmail(ctx, DemoUserEmail); err == nil {
		slog.Info("demo user already exists, skipping")
		return nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking demo user: %w", err)
	}

	plan, err := queries.GetPlanByName(ctx, PlanVIP)
	if err != nil {
		return fmt.Errorf("loading %s plan: %w", PlanVIP, err)
	}

	siteURL := os.Getenv("AUTOBLOG_DEMO_SITE_URL")
	if siteURL == "" {
		siteURL = "https://demo.example.com"
	}

	return RunInTx(ctx, db, func(q *Queries) error {
		now := time.Now().UTC()
		user, err := q.CreateUser(ctx, CreateUserParams{
			Email:     DemoUserEmail,
			Name:      DemoUserName,
			PlanID:    sql.NullInt64{Int64: plan.ID, Valid: true},
			Credits:   DemoUserCredits,
			IsDemo:    true,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("creating demo user: %w", err)
		}

		blog, err := q.CreateBlog(ctx, CreateBlogParams{
			UserID:        user.ID,
			SiteName:      DemoSiteName,
			SiteUrl:       siteURL,
			WpUser:        os.Getenv("AUTOBLOG_DEMO_WP_USER"),
			WpAppPassword: os.Getenv("AUTOBLOG_DEMO_WP_PASSWORD"),
			PostsPerDay:   2,
			ScheduleTime:  "09:00",
			PostStatus:    "draft",
			Topics:        "content marketing, blogging",
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		if err != nil {
			return fmt.Errorf("creating demo blog: %w", err)
		}

		for i, title := range demoIdeas {
			// Distinct created_at keeps FIFO order stable.
			at := now.Add(time.Duration(i) * time.Second)
			if _, err := q.CreateIdea(ctx, CreateIdeaParams{
				BlogID:    blog.ID,
				Title:     title,
				CreatedAt: at,
				UpdatedAt: at,
			}); err != nil {
				return fmt.Errorf("creating demo idea: %w", err)
			}
		}

		slog.Info("demo content seeded", "user_id", user.ID, "blog_id", blog.ID, "ideas", len(demoIdeas))
		return nil
	})
}
