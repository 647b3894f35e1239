// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/wpautoblog/internal/metrics"
	"github.com/olegiv/wpautoblog/internal/model"
	"github.com/olegiv/wpautoblog/internal/store"
	"github.com/olegiv/wpautoblog/internal/util"
)

// Decision is the outcome of evaluating one blog.
type Decision string

// Evaluation decisions.
const (
	DecisionPromoted  Decision = "promoted"
	DecisionNoSlot    Decision = "no_slot"
	DecisionQuota     Decision = "quota"
	DecisionDuplicate Decision = "duplicate"
	DecisionNoDraft   Decision = "no_draft"
	DecisionError     Decision = "error"
)

// DefaultTolerance is the slot window used when Config leaves it unset.
const DefaultTolerance = 10 * time.Minute

// Config holds the fallbacks applied to misconfigured blogs.
type Config struct {
	DefaultTimezone     string
	DefaultScheduleTime string
	Tolerance           time.Duration
}

// Result describes what happened to one blog during a pass.
type Result struct {
	BlogID   int64
	Decision Decision
	SlotAt   time.Time
	IdeaID   int64
	Err      error
}

// Evaluator promotes draft ideas for blogs whose posting slot is open.
type Evaluator struct {
	db      *sql.DB
	queries *store.Queries
	cfg     Config
	logger  *slog.Logger
}

// NewEvaluator creates an evaluator.
func NewEvaluator(db *sql.DB, cfg Config, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DefaultScheduleTime == "" || !ValidClock(cfg.DefaultScheduleTime) {
		cfg.DefaultScheduleTime = "09:00"
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = DefaultTolerance
	}
	return &Evaluator{
		db:      db,
		queries: store.New(db),
		cfg:     cfg,
		logger:  logger,
	}
}

// Evaluate runs one pass over every blog and returns the IDs of blogs that
// had an idea promoted. Per-blog failures are logged and do not stop the pass.
func (e *Evaluator) Evaluate(ctx context.Context, now time.Time) ([]int64, error) {
	results, err := e.EvaluateAll(ctx, now)
	if err != nil {
		return nil, err
	}

	var activated []int64
	for _, r := range results {
		if r.Decision == DecisionPromoted {
			activated = append(activated, r.BlogID)
		}
	}
	return activated, nil
}

// EvaluateAll is Evaluate returning the decision for every blog.
func (e *Evaluator) EvaluateAll(ctx context.Context, now time.Time) ([]Result, error) {
	metrics.EvaluationsTotal.Inc()

	blogs, err := e.queries.ListSchedulableBlogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing blogs: %w", err)
	}

	results := make([]Result, 0, len(blogs))
	for _, b := range blogs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		r := e.evaluateBlog(ctx, b, now)
		metrics.RecordDecision(string(r.Decision))
		if r.Err != nil {
			e.logger.Error("schedule evaluation failed for blog",
				"category", model.EventCategoryScheduler,
				"blog_id", b.ID,
				"error", r.Err)
		}
		results = append(results, r)
	}
	return results, nil
}

// evaluateBlog is the per-tenant failure boundary.
func (e *Evaluator) evaluateBlog(ctx context.Context, b store.ListSchedulableBlogsRow, now time.Time) (res Result) {
	res = Result{BlogID: b.ID}
	defer func() {
		if rec := recover(); rec != nil {
			res.Decision = DecisionError
			res.Err = fmt.Errorf("panic: %v", rec)
		}
	}()

	loc := e.location(b)
	slots, err := e.slots(b)
	if err != nil {
		res.Decision = DecisionError
		res.Err = err
		return res
	}
	localNow := now.In(loc)

	slotAt, ok := ActiveSlot(localNow, slots, e.cfg.Tolerance)
	if !ok {
		res.Decision = DecisionNoSlot
		return res
	}
	res.SlotAt = slotAt

	dayStart, dayEnd := LocalDay(localNow)
	quota := Quota(b.PostsPerDay, b.PlanPostsPerDay)
	windowEnd := slotAt.Add(min(e.cfg.Tolerance, Spacing(len(slots))))

	err = store.RunInTx(ctx, e.db, func(q *store.Queries) error {
		if quota > 0 {
			used, err := usedToday(ctx, q, b.ID, dayStart, dayEnd)
			if err != nil {
				return err
			}
			if used >= quota {
				res.Decision = DecisionQuota
				return nil
			}
		}

		// Manual posts inside the window do not fill the slot.
		logged, err := q.CountAutoPostLogsBetween(ctx, store.CountAutoPostLogsBetweenParams{
			BlogID: b.ID,
			From:   slotAt.UTC(),
			To:     windowEnd.UTC(),
		})
		if err != nil {
			return fmt.Errorf("counting slot posts: %w", err)
		}
		if logged > 0 {
			res.Decision = DecisionDuplicate
			return nil
		}

		claimed, err := q.ClaimSlot(ctx, store.ClaimSlotParams{
			BlogID:    b.ID,
			SlotAt:    slotAt.UTC(),
			CreatedAt: now.UTC(),
		})
		if err != nil {
			return fmt.Errorf("claiming slot: %w", err)
		}
		if claimed == 0 {
			res.Decision = DecisionDuplicate
			return nil
		}

		idea, err := q.GetOldestDraftIdea(ctx, b.ID)
		if errors.Is(err, sql.ErrNoRows) {
			// The claim is kept so the warning fires once per slot.
			res.Decision = DecisionNoDraft
			return nil
		}
		if err != nil {
			return fmt.Errorf("selecting draft: %w", err)
		}

		promoted, err := q.PromoteIdea(ctx, store.PromoteIdeaParams{
			QueuedAt:  util.NullTimeFromValue(now),
			UpdatedAt: now.UTC(),
			ID:        idea.ID,
		})
		if err != nil {
			return fmt.Errorf("promoting idea %d: %w", idea.ID, err)
		}
		if promoted == 0 {
			return fmt.Errorf("idea %d left draft concurrently", idea.ID)
		}

		if err := q.SetSlotIdea(ctx, store.SetSlotIdeaParams{
			IdeaID: util.NullInt64FromValue(idea.ID),
			BlogID: b.ID,
			SlotAt: slotAt.UTC(),
		}); err != nil {
			return fmt.Errorf("recording slot idea: %w", err)
		}

		res.Decision = DecisionPromoted
		res.IdeaID = idea.ID
		return nil
	})
	if err != nil {
		res.Decision = DecisionError
		res.Err = err
		return res
	}

	switch res.Decision {
	case DecisionPromoted:
		e.logger.Info("idea promoted to pending",
			"blog_id", b.ID,
			"idea_id", res.IdeaID,
			"slot", slotAt.Format("2006-01-02 15:04 MST"))
	case DecisionNoDraft:
		e.logger.Warn("no draft idea available for scheduled slot",
			"category", model.EventCategoryScheduler,
			"blog_id", b.ID,
			"site", b.SiteName,
			"slot", slotAt.Format("2006-01-02 15:04 MST"))
	case DecisionQuota:
		e.logger.Debug("daily quota reached", "blog_id", b.ID, "quota", quota)
	}
	return res
}

func (e *Evaluator) location(b store.ListSchedulableBlogsRow) *time.Location {
	loc, ok := ResolveLocation(b.Timezone, e.cfg.DefaultTimezone)
	if !ok {
		e.logger.Warn("invalid blog timezone, using default",
			"category", model.EventCategoryConfig,
			"blog_id", b.ID,
			"timezone", b.Timezone,
			"default", loc.String())
	}
	return loc
}

func (e *Evaluator) slots(b store.ListSchedulableBlogsRow) ([]int, error) {
	base := b.ScheduleTime
	if !ValidClock(base) {
		e.logger.Warn("invalid blog schedule time, using default",
			"category", model.EventCategoryConfig,
			"blog_id", b.ID,
			"schedule_time", base,
			"default", e.cfg.DefaultScheduleTime)
		base = e.cfg.DefaultScheduleTime
	}

	n := int(b.PostsPerDay)
	if n < 1 || n > MaxPostsPerDay {
		e.logger.Warn("invalid blog posts per day, using 1",
			"category", model.EventCategoryConfig,
			"blog_id", b.ID,
			"posts_per_day", b.PostsPerDay)
		n = 1
	}

	return SlotMinutes(base, n)
}

// usedToday counts automated posts published in the window plus automated
// ideas promoted in the window that have not finished yet.
func usedToday(ctx context.Context, q *store.Queries, blogID int64, from, to time.Time) (int64, error) {
	published, err := q.CountPublishedAutoPosts(ctx, store.CountPublishedAutoPostsParams{
		BlogID: blogID,
		From:   from.UTC(),
		To:     to.UTC(),
	})
	if err != nil {
		return 0, fmt.Errorf("counting published posts: %w", err)
	}

	inFlight, err := q.CountInFlightAutoIdeas(ctx, store.CountInFlightAutoIdeasParams{
		BlogID: blogID,
		From:   util.NullTimeFromValue(from),
		To:     util.NullTimeFromValue(to),
	})
	if err != nil {
		return 0, fmt.Errorf("counting in-flight ideas: %w", err)
	}
	return published + inFlight, nil
}
