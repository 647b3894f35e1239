// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package entitlement resolves what a user's plan allows.
package entitlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/olegiv/wpautoblog/internal/store"
)

// ErrUnknownUser is returned when the user does not exist.
var ErrUnknownUser = errors.New("entitlement: unknown user")

// Capabilities is the typed capability set of one user.
type Capabilities struct {
	UserID      int64
	Plan        string
	PostsPerDay int64 // caps each blog's daily quota; 0 means unlimited
	MaxSites    int64 // 0 means unlimited
	Images      bool
	Credits     int64
	Demo        bool // publishes are simulated, nothing leaves the process
}

// CanAddSite reports whether a user owning current blogs may connect another.
func (c Capabilities) CanAddSite(current int64) bool {
	return c.MaxSites <= 0 || current < c.MaxSites
}

// HasCredits reports whether the user can pay for n posts.
func (c Capabilities) HasCredits(n int64) bool {
	return n <= 0 || c.Credits >= n
}

// Resolver returns the capabilities of a user.
type Resolver interface {
	Resolve(ctx context.Context, userID int64) (Capabilities, error)
}

// StoreResolver reads plans and credits from the database.
type StoreResolver struct {
	queries *store.Queries
}

// NewStoreResolver creates a resolver backed by db.
func NewStoreResolver(db *sql.DB) *StoreResolver {
	return &StoreResolver{queries: store.New(db)}
}

// Resolve implements Resolver.
func (r *StoreResolver) Resolve(ctx context.Context, userID int64) (Capabilities, error) {
	row, err := r.queries.GetUserEntitlements(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return Capabilities{}, fmt.Errorf("%w: %d", ErrUnknownUser, userID)
	}
	if err != nil {
		return Capabilities{}, fmt.Errorf("loading entitlements for user %d: %w", userID, err)
	}

	return Capabilities{
		UserID:      row.ID,
		Plan:        row.PlanName,
		PostsPerDay: row.PlanPostsPerDay,
		MaxSites:    row.PlanMaxSites,
		Images:      row.PlanHasImages,
		Credits:     row.Credits,
		Demo:        row.IsDemo,
	}, nil
}

// PassCache memoizes resolutions for the duration of one processing pass.
// It is not safe for concurrent use.
type PassCache struct {
	resolver Resolver
	caps     map[int64]Capabilities
}

// NewPassCache wraps resolver with a per-pass cache.
func NewPassCache(resolver Resolver) *PassCache {
	return &PassCache{resolver: resolver, caps: make(map[int64]Capabilities)}
}

// Resolve implements Resolver.
func (p *PassCache) Resolve(ctx context.Context, userID int64) (Capabilities, error) {
	if c, ok := p.caps[userID]; ok {
		return c, nil
	}
	c, err := p.resolver.Resolve(ctx, userID)
	if err != nil {
		return Capabilities{}, err
	}
	p.caps[userID] = c
	return c, nil
}

// Spend records n credits used by userID within the pass.
func (p *PassCache) Spend(userID, n int64) {
	if c, ok := p.caps[userID]; ok {
		c.Credits -= n
		p.caps[userID] = c
	}
}
