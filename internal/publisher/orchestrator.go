// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package publisher drives queued ideas through generation and publication
// to the owner's WordPress site.
package publisher

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/wpautoblog/internal/ai"
	"github.com/olegiv/wpautoblog/internal/content"
	"github.com/olegiv/wpautoblog/internal/entitlement"
	"github.com/olegiv/wpautoblog/internal/imaging"
	"github.com/olegiv/wpautoblog/internal/metrics"
	"github.com/olegiv/wpautoblog/internal/model"
	"github.com/olegiv/wpautoblog/internal/schedule"
	"github.com/olegiv/wpautoblog/internal/store"
	"github.com/olegiv/wpautoblog/internal/util"
	"github.com/olegiv/wpautoblog/internal/webhook"
	"github.com/olegiv/wpautoblog/internal/wordpress"
)

const (
	logExcerptLength = 500
	lastErrorLength  = 1000
)

// ArticleWriter produces article bodies.
type ArticleWriter interface {
	GenerateArticle(ctx context.Context, in ai.ArticleInput) (string, error)
}

// ImageGenerator produces featured images.
type ImageGenerator interface {
	ImagesEnabled() bool
	GenerateFeaturedImage(ctx context.Context, title string) (*ai.Image, error)
}

// Target is the WordPress publishing endpoint.
type Target interface {
	CreatePost(ctx context.Context, creds wordpress.Credentials, req wordpress.PostRequest) (*wordpress.Post, error)
	UploadMedia(ctx context.Context, creds wordpress.Credentials, filename, contentType string, data []byte) (*wordpress.Media, error)
}

// CredentialOpener decrypts stored site passwords.
type CredentialOpener interface {
	Open(value string) (string, error)
}

// Notifier receives publish outcome events.
type Notifier interface {
	DispatchEvent(ctx context.Context, eventType string, data any) error
}

// Deps are the collaborators of the orchestrator. Images and Notifier are optional.
type Deps struct {
	Writer       ArticleWriter
	Images       ImageGenerator
	Target       Target
	Credentials  CredentialOpener
	Entitlements entitlement.Resolver
	Notifier     Notifier
}

// Config tunes the retry policy and the publish pipeline.
type Config struct {
	MaxAttempts     int
	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
	StaleClaimAfter time.Duration
	SlotRetention   time.Duration
	CreditsPerPost  int64
	// FreePosting disables the credit check and the per-publish charge.
	FreePosting     bool
	DefaultTimezone string
	Image           imaging.Options
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     3,
		InitialBackoff:  5 * time.Minute,
		MaxBackoff:      6 * time.Hour,
		StaleClaimAfter: 30 * time.Minute,
		SlotRetention:   72 * time.Hour,
		CreditsPerPost:  1,
		DefaultTimezone: "America/Sao_Paulo",
		Image:           imaging.DefaultOptions(),
	}
}

// Outcome is the result class of one ProcessOne call.
type Outcome string

// Process outcomes.
const (
	OutcomeIdle      Outcome = "idle"
	OutcomePublished Outcome = "published"
	OutcomeFailed    Outcome = "failed"
	OutcomeDeferred  Outcome = "deferred"
	OutcomeSimulated Outcome = "simulated"
)

// Result describes one processed idea.
type Result struct {
	Outcome       Outcome
	IdeaID        int64
	BlogID        int64
	WPPostID      int64
	PostURL       string
	Err           error
	Retryable     bool
	NextAttemptAt *time.Time
}

// Orchestrator publishes pending ideas one at a time.
type Orchestrator struct {
	db      *sql.DB
	queries *store.Queries
	deps    Deps
	cfg     Config
	logger  *slog.Logger
	now     func() time.Time
}

// NewOrchestrator creates an orchestrator. Zero config fields take defaults.
func NewOrchestrator(db *sql.DB, deps Deps, cfg Config, logger *slog.Logger) *Orchestrator {
	def := DefaultConfig()
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = max(def.MaxBackoff, cfg.InitialBackoff)
	}
	if cfg.StaleClaimAfter <= 0 {
		cfg.StaleClaimAfter = def.StaleClaimAfter
	}
	if cfg.SlotRetention <= 0 {
		cfg.SlotRetention = def.SlotRetention
	}
	switch {
	case cfg.FreePosting:
		cfg.CreditsPerPost = 0
	case cfg.CreditsPerPost <= 0:
		cfg.CreditsPerPost = def.CreditsPerPost
	}
	if cfg.DefaultTimezone == "" {
		cfg.DefaultTimezone = def.DefaultTimezone
	}
	if cfg.Image.MaxWidth == 0 && cfg.Image.MaxHeight == 0 {
		cfg.Image = def.Image
	}
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Entitlements == nil {
		deps.Entitlements = entitlement.NewStoreResolver(db)
	}

	return &Orchestrator{
		db:      db,
		queries: store.New(db),
		deps:    deps,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// ProcessOne claims the oldest pending idea and drives it to an outcome.
// The returned error is reserved for storage failures; publish failures are
// reported in Result.
func (o *Orchestrator) ProcessOne(ctx context.Context) (*Result, error) {
	return o.processOne(ctx, entitlement.NewPassCache(o.deps.Entitlements))
}

// ProcessBatch calls ProcessOne until the queue is idle or limit ideas were
// handled. Entitlements are resolved once per owner for the whole batch.
func (o *Orchestrator) ProcessBatch(ctx context.Context, limit int) ([]*Result, error) {
	if limit < 1 {
		limit = 1
	}
	pass := entitlement.NewPassCache(o.deps.Entitlements)

	var results []*Result
	for range limit {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := o.processOne(ctx, pass)
		if err != nil {
			return results, err
		}
		if res.Outcome == OutcomeIdle {
			break
		}
		results = append(results, res)
	}
	return results, nil
}

func (o *Orchestrator) processOne(ctx context.Context, pass *entitlement.PassCache) (*Result, error) {
	now := o.now().UTC()
	idea, err := o.queries.ClaimNextPendingIdea(ctx, store.ClaimNextPendingIdeaParams{
		ClaimedAt: util.NullTimeFromValue(now),
		UpdatedAt: now,
		Now:       util.NullTimeFromValue(now),
	})
	if errors.Is(err, sql.ErrNoRows) {
		return &Result{Outcome: OutcomeIdle}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claiming pending idea: %w", err)
	}

	started := time.Now()
	res, err := o.publish(ctx, pass, idea)
	if err != nil {
		return nil, err
	}
	if res.Outcome != OutcomeDeferred {
		reason := "ok"
		if res.Err != nil {
			reason = failureReason(res.Err)
		}
		metrics.RecordPublish(string(res.Outcome), reason, time.Since(started))
	}
	return res, nil
}

// publish runs the pipeline for a claimed idea.
func (o *Orchestrator) publish(ctx context.Context, pass *entitlement.PassCache, idea store.ContentIdea) (*Result, error) {
	logger := o.logger.With("idea_id", idea.ID, "blog_id", idea.BlogID, "attempt", idea.Attempts)

	blog, err := o.queries.GetBlog(ctx, idea.BlogID)
	if errors.Is(err, sql.ErrNoRows) {
		return o.fail(ctx, logger, idea, nil, ErrMissingOwner)
	}
	if err != nil {
		return nil, fmt.Errorf("loading blog %d: %w", idea.BlogID, err)
	}

	caps, err := pass.Resolve(ctx, blog.UserID)
	if errors.Is(err, entitlement.ErrUnknownUser) {
		return o.fail(ctx, logger, idea, &blog, ErrMissingOwner)
	}
	if err != nil {
		return nil, err
	}

	if caps.Demo {
		return o.simulate(ctx, logger, idea, blog)
	}

	automated := idea.Body == ""
	if automated {
		deferred, err := o.deferIfOverQuota(ctx, logger, idea, blog, caps)
		if err != nil || deferred != nil {
			return deferred, err
		}
	}

	if !caps.HasCredits(o.cfg.CreditsPerPost) {
		return o.fail(ctx, logger, idea, &blog, ErrInsufficientCredits)
	}

	body := idea.Body
	if automated {
		body, err = o.deps.Writer.GenerateArticle(ctx, ai.ArticleInput{
			Title:        idea.Title,
			Context:      idea.SourceInsight,
			SystemPrompt: blog.SystemPrompt,
		})
		if err == nil && strings.TrimSpace(body) == "" {
			err = ai.ErrEmptyResponse
		}
		if err != nil {
			return o.fail(ctx, logger, idea, &blog, &GenerationError{Err: err})
		}
	}

	html, err := content.RenderArticle(body)
	if err != nil {
		return o.fail(ctx, logger, idea, &blog, &GenerationError{Err: err})
	}

	password, err := o.deps.Credentials.Open(blog.WpAppPassword)
	if err != nil {
		return o.fail(ctx, logger, idea, &blog, fmt.Errorf("%w: %v", ErrSiteCredentials, err))
	}
	creds := wordpress.Credentials{SiteURL: blog.SiteUrl, User: blog.WpUser, AppPassword: password}

	var mediaID int64
	if caps.Images {
		mediaID = o.attachFeaturedImage(ctx, logger, creds, idea.Title)
	}

	post, err := o.deps.Target.CreatePost(ctx, creds, wordpress.PostRequest{
		Title:         idea.Title,
		Content:       html,
		Status:        blog.PostStatus,
		FeaturedMedia: mediaID,
	})
	if err != nil {
		return o.fail(ctx, logger, idea, &blog, classifyTargetError(err))
	}

	if err := o.complete(ctx, idea, blog, html, post); err != nil {
		// The post exists remotely; leave the claim for the stale sweep and
		// surface the storage failure.
		logger.Error("published post could not be recorded",
			"category", model.EventCategoryPublish,
			"wp_post_id", post.ID,
			"error", err)
		return nil, err
	}
	pass.Spend(blog.UserID, o.cfg.CreditsPerPost)

	logger.Info("idea published",
		"wp_post_id", post.ID,
		"url", post.Link,
		"featured_media", mediaID)

	o.notify(ctx, model.EventIdeaPublished, webhook.IdeaEventData{
		IdeaID:   idea.ID,
		BlogID:   blog.ID,
		SiteURL:  blog.SiteUrl,
		Title:    idea.Title,
		Status:   model.IdeaStatusCompleted,
		Attempts: idea.Attempts,
		WPPostID: post.ID,
		PostURL:  post.Link,
	})

	return &Result{
		Outcome:  OutcomePublished,
		IdeaID:   idea.ID,
		BlogID:   blog.ID,
		WPPostID: post.ID,
		PostURL:  post.Link,
	}, nil
}

// deferIfOverQuota returns the idea to pending until the next local midnight
// when the blog already used its automated quota today.
func (o *Orchestrator) deferIfOverQuota(ctx context.Context, logger *slog.Logger, idea store.ContentIdea, blog store.Blog, caps entitlement.Capabilities) (*Result, error) {
	quota := schedule.Quota(blog.PostsPerDay, caps.PostsPerDay)
	if quota <= 0 {
		return nil, nil
	}

	loc, _ := schedule.ResolveLocation(blog.Timezone, o.cfg.DefaultTimezone)
	now := o.now()
	dayStart, dayEnd := schedule.LocalDay(now.In(loc))

	published, err := o.queries.CountPublishedAutoPosts(ctx, store.CountPublishedAutoPostsParams{
		BlogID: blog.ID,
		From:   dayStart.UTC(),
		To:     dayEnd.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("counting published posts: %w", err)
	}
	if published < quota {
		return nil, nil
	}

	next := dayEnd.UTC()
	if _, err := o.queries.DeferIdea(ctx, store.DeferIdeaParams{
		NextAttemptAt: util.NullTimeFromValue(next),
		UpdatedAt:     now.UTC(),
		ID:            idea.ID,
	}); err != nil {
		return nil, fmt.Errorf("deferring idea %d: %w", idea.ID, err)
	}

	metrics.RecordPublish(string(OutcomeDeferred), "quota", 0)
	logger.Info("daily quota reached, idea deferred",
		"quota", quota,
		"next_attempt_at", next.Format(time.RFC3339))

	return &Result{
		Outcome:       OutcomeDeferred,
		IdeaID:        idea.ID,
		BlogID:        blog.ID,
		NextAttemptAt: &next,
	}, nil
}

// complete records a successful publish in one transaction.
func (o *Orchestrator) complete(ctx context.Context, idea store.ContentIdea, blog store.Blog, html string, post *wordpress.Post) error {
	now := o.now().UTC()
	return store.RunInTx(ctx, o.db, func(q *store.Queries) error {
		n, err := q.CompleteIdea(ctx, store.CompleteIdeaParams{UpdatedAt: now, ID: idea.ID})
		if err != nil {
			return fmt.Errorf("completing idea: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("idea %d is no longer processing", idea.ID)
		}

		if _, err := q.CreatePostLog(ctx, store.CreatePostLogParams{
			BlogID:    blog.ID,
			IdeaID:    util.NullInt64FromValue(idea.ID),
			Title:     idea.Title,
			Content:   content.Excerpt(html, logExcerptLength),
			WpPostID:  util.NullInt64FromValue(post.ID),
			PostUrl:   util.NullStringFromValue(post.Link),
			Status:    model.PostStatusPublished,
			Automated: idea.Body == "",
			PostedAt:  now,
		}); err != nil {
			return fmt.Errorf("writing post log: %w", err)
		}

		if err := q.RecordUserPost(ctx, store.RecordUserPostParams{
			LastPostAt: util.NullTimeFromValue(now),
			Credits:    o.cfg.CreditsPerPost,
			UpdatedAt:  now,
			ID:         blog.UserID,
		}); err != nil {
			return fmt.Errorf("recording owner post: %w", err)
		}
		return nil
	})
}

// simulate completes a demo owner's idea without generating or sending
// anything. No credits are charged.
func (o *Orchestrator) simulate(ctx context.Context, logger *slog.Logger, idea store.ContentIdea, blog store.Blog) (*Result, error) {
	now := o.now().UTC()
	err := store.RunInTx(ctx, o.db, func(q *store.Queries) error {
		n, err := q.CompleteIdea(ctx, store.CompleteIdeaParams{UpdatedAt: now, ID: idea.ID})
		if err != nil {
			return fmt.Errorf("completing idea: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("idea %d is no longer processing", idea.ID)
		}
		if _, err := q.CreatePostLog(ctx, store.CreatePostLogParams{
			BlogID:    blog.ID,
			IdeaID:    util.NullInt64FromValue(idea.ID),
			Title:     idea.Title,
			Content:   content.Excerpt(idea.Body, logExcerptLength),
			Status:    model.PostStatusSimulated,
			Automated: idea.Body == "",
			PostedAt:  now,
		}); err != nil {
			return fmt.Errorf("writing post log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("demo publish simulated")
	return &Result{Outcome: OutcomeSimulated, IdeaID: idea.ID, BlogID: blog.ID}, nil
}

// fail marks the idea failed with a failure Post Log in one transaction.
// blog is nil when the idea's blog no longer exists.
func (o *Orchestrator) fail(ctx context.Context, logger *slog.Logger, idea store.ContentIdea, blog *store.Blog, cause error) (*Result, error) {
	now := o.now().UTC()
	retryable := Retryable(cause) && idea.Attempts < int64(o.cfg.MaxAttempts)

	var next sql.NullTime
	if retryable {
		next = util.NullTimeFromValue(now.Add(Backoff(idea.Attempts, o.cfg.InitialBackoff, o.cfg.MaxBackoff)))
	}
	msg := content.TruncateRunes(cause.Error(), lastErrorLength)

	err := store.RunInTx(ctx, o.db, func(q *store.Queries) error {
		if _, err := q.FailIdea(ctx, store.FailIdeaParams{
			NextAttemptAt: next,
			LastError:     msg,
			UpdatedAt:     now,
			ID:            idea.ID,
		}); err != nil {
			return fmt.Errorf("failing idea: %w", err)
		}

		if blog == nil {
			return nil
		}
		if _, err := q.CreatePostLog(ctx, store.CreatePostLogParams{
			BlogID:       blog.ID,
			IdeaID:       util.NullInt64FromValue(idea.ID),
			Title:        idea.Title,
			Status:       model.PostStatusFailed,
			Automated:    idea.Body == "",
			ErrorMessage: msg,
			PostedAt:     now,
		}); err != nil {
			return fmt.Errorf("writing post log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		Outcome:   OutcomeFailed,
		IdeaID:    idea.ID,
		BlogID:    idea.BlogID,
		Err:       cause,
		Retryable: retryable,
	}
	attrs := []any{
		"category", model.EventCategoryPublish,
		"reason", failureReason(cause),
		"error", cause,
	}
	if retryable {
		res.NextAttemptAt = &next.Time
		attrs = append(attrs, "next_attempt_at", next.Time.Format(time.RFC3339))
	}
	logger.Warn("publish attempt failed", attrs...)

	data := webhook.IdeaEventData{
		IdeaID:        idea.ID,
		BlogID:        idea.BlogID,
		Title:         idea.Title,
		Status:        model.IdeaStatusFailed,
		Attempts:      idea.Attempts,
		Error:         msg,
		Retryable:     retryable,
		NextAttemptAt: res.NextAttemptAt,
	}
	if blog != nil {
		data.SiteURL = blog.SiteUrl
	}
	o.notify(ctx, model.EventIdeaFailed, data)

	return res, nil
}

func (o *Orchestrator) notify(ctx context.Context, eventType string, data webhook.IdeaEventData) {
	if o.deps.Notifier == nil {
		return
	}
	if err := o.deps.Notifier.DispatchEvent(ctx, eventType, data); err != nil {
		o.logger.Debug("notification not queued", "event_type", eventType, "error", err)
	}
}
