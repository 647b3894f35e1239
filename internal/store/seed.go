// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Built-in subscription plans. Zero means unlimited.
const (
	PlanTrial = "trial"
	PlanPro   = "pro"
	PlanVIP   = "vip"
)

type planSeed struct {
	name        string
	postsPerDay int64
	maxSites    int64
	hasImages   bool
}

var defaultPlans = []planSeed{
	{name: PlanTrial, postsPerDay: 1, maxSites: 1},
	{name: PlanPro, postsPerDay: 5, maxSites: 2, hasImages: true},
	{name: PlanVIP, postsPerDay: 0, maxSites: 10, hasImages: true},
}

// Seed creates the built-in plans. Existing plans are left untouched.
func Seed(ctx context.Context, db *sql.DB) error {
	queries := New(db)
	now := time.Now().UTC()

	created := 0
	for _, p := range defaultPlans {
		_, err := queries.GetPlanByName(ctx, p.name)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking plan %s: %w", p.name, err)
		}

		if _, err := queries.CreatePlan(ctx, CreatePlanParams{
			Name:        p.name,
			PostsPerDay: p.postsPerDay,
			MaxSites:    p.maxSites,
			HasImages:   p.hasImages,
			CreatedAt:   now,
		}); err != nil {
			return fmt.Errorf("creating plan %s: %w", p.name, err)
		}
		created++
	}

	if created > 0 {
		slog.Info("seeded plans", "created", created)
	}
	return nil
}
