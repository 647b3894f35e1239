// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content manages a blog's content queue: manual and AI-generated
// ideas, manual re-queueing, deletion and post reports.
package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/olegiv/wpautoblog/internal/model"
	"github.com/olegiv/wpautoblog/internal/store"
	"github.com/olegiv/wpautoblog/internal/util"
)

const (
	// MaxTitleLength bounds idea titles.
	MaxTitleLength = 300
	// DefaultIdeaBatch is how many titles GenerateIdeas asks for.
	DefaultIdeaBatch = 10
	// DefaultListLimit caps list queries when no limit is given.
	DefaultListLimit = 50
	maxListLimit     = 500
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidTitle    = fmt.Errorf("title is required and must be at most %d characters", MaxTitleLength)
	ErrInvalidStatus   = errors.New("invalid idea status")
	ErrNotQueueable    = errors.New("only draft or failed ideas that were never posted can be queued")
	ErrNotDeletable    = errors.New("only unposted draft or failed ideas can be deleted")
	ErrAIUnavailable   = errors.New("AI idea generation is not configured")
	ErrNoTitlesCreated = errors.New("AI returned no usable titles")
)

// TitleGenerator produces article titles about a topic.
type TitleGenerator interface {
	GenerateIdeaTitles(ctx context.Context, topic string, n int) ([]string, error)
}

// NewIdea is the input for a manually entered idea.
type NewIdea struct {
	Title         string
	SourceInsight string
	// Body, when set, is published verbatim instead of generating text.
	Body string
	// Queue promotes the idea to pending right away.
	Queue bool
}

// Service is the content queue service.
type Service struct {
	db      *sql.DB
	queries *store.Queries
	titles  TitleGenerator
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a Service. titles may be nil when AI is unavailable.
func NewService(db *sql.DB, titles TitleGenerator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:      db,
		queries: store.New(db),
		titles:  titles,
		logger:  logger,
		now:     time.Now,
	}
}

// CreateIdea adds a manual idea as a draft, or as pending when in.Queue is set.
func (s *Service) CreateIdea(ctx context.Context, blogID int64, in NewIdea) (store.ContentIdea, error) {
	title, err := normalizeTitle(in.Title)
	if err != nil {
		return store.ContentIdea{}, err
	}
	if _, err := s.blog(ctx, blogID); err != nil {
		return store.ContentIdea{}, err
	}

	now := s.now().UTC()
	var idea store.ContentIdea
	err = store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		created, err := q.CreateIdea(ctx, store.CreateIdeaParams{
			BlogID:        blogID,
			Title:         title,
			SourceInsight: strings.TrimSpace(in.SourceInsight),
			Body:          strings.TrimSpace(in.Body),
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		if err != nil {
			return fmt.Errorf("creating idea: %w", err)
		}
		if in.Queue {
			if _, err := q.PromoteIdea(ctx, store.PromoteIdeaParams{
				QueuedAt:  util.NullTimeFromValue(now),
				UpdatedAt: now,
				ID:        created.ID,
			}); err != nil {
				return fmt.Errorf("queueing idea: %w", err)
			}
			created, err = q.GetIdea(ctx, created.ID)
			if err != nil {
				return err
			}
		}
		idea = created
		return nil
	})
	if err != nil {
		return store.ContentIdea{}, err
	}

	s.logger.Info("idea created", "blog_id", blogID, "idea_id", idea.ID, "status", idea.Status, "manual_body", idea.Body != "")
	return idea, nil
}

// GenerateIdeas asks the AI for n titles about the blog's topics and stores
// them as drafts. It returns the created ideas.
func (s *Service) GenerateIdeas(ctx context.Context, blogID int64, n int) ([]store.ContentIdea, error) {
	if s.titles == nil {
		return nil, ErrAIUnavailable
	}
	if n <= 0 {
		n = DefaultIdeaBatch
	}

	blog, err := s.blog(ctx, blogID)
	if err != nil {
		return nil, err
	}

	topic := strings.TrimSpace(blog.Topics)
	if topic == "" {
		topic = blog.SiteName
	}

	titles, err := s.titles.GenerateIdeaTitles(ctx, topic, n)
	if err != nil {
		return nil, fmt.Errorf("generating idea titles: %w", err)
	}

	now := s.now().UTC()
	var ideas []store.ContentIdea
	err = store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		for i, raw := range titles {
			title, err := normalizeTitle(raw)
			if err != nil {
				continue
			}
			// Keep generation order stable under created_at ordering.
			at := now.Add(time.Duration(i) * time.Millisecond)
			idea, err := q.CreateIdea(ctx, store.CreateIdeaParams{
				BlogID:    blogID,
				Title:     title,
				CreatedAt: at,
				UpdatedAt: at,
			})
			if err != nil {
				return fmt.Errorf("creating idea: %w", err)
			}
			ideas = append(ideas, idea)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(ideas) == 0 {
		return nil, ErrNoTitlesCreated
	}

	s.logger.Info("ideas generated", "blog_id", blogID, "count", len(ideas))
	return ideas, nil
}

// QueueIdea moves a draft or failed idea to pending. Re-queueing a failed
// idea resets its retry budget.
func (s *Service) QueueIdea(ctx context.Context, ideaID int64) (store.ContentIdea, error) {
	now := s.now().UTC()
	n, err := s.queries.RequeueIdea(ctx, store.RequeueIdeaParams{
		QueuedAt:  util.NullTimeFromValue(now),
		UpdatedAt: now,
		ID:        ideaID,
	})
	if err != nil {
		return store.ContentIdea{}, fmt.Errorf("queueing idea: %w", err)
	}

	idea, err := s.queries.GetIdea(ctx, ideaID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ContentIdea{}, ErrNotFound
	}
	if err != nil {
		return store.ContentIdea{}, err
	}
	if n == 0 {
		return idea, ErrNotQueueable
	}

	s.logger.Info("idea queued", "idea_id", ideaID, "blog_id", idea.BlogID)
	return idea, nil
}

// DeleteIdea removes an unposted draft or failed idea.
func (s *Service) DeleteIdea(ctx context.Context, ideaID int64) error {
	n, err := s.queries.DeleteUnpostedIdea(ctx, ideaID)
	if err != nil {
		return fmt.Errorf("deleting idea: %w", err)
	}
	if n == 1 {
		s.logger.Info("idea deleted", "idea_id", ideaID)
		return nil
	}
	if _, err := s.queries.GetIdea(ctx, ideaID); errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return ErrNotDeletable
}

// ListIdeas lists a blog's ideas, newest first, optionally by status.
func (s *Service) ListIdeas(ctx context.Context, blogID int64, status string, limit int) ([]store.ContentIdea, error) {
	if _, err := s.blog(ctx, blogID); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)

	if status == "" {
		return s.queries.ListIdeasByBlog(ctx, store.ListIdeasByBlogParams{BlogID: blogID, Limit: int64(limit)})
	}
	if !model.ValidIdeaStatus(status) {
		return nil, ErrInvalidStatus
	}
	return s.queries.ListIdeasByBlogAndStatus(ctx, store.ListIdeasByBlogAndStatusParams{
		BlogID: blogID,
		Status: status,
		Limit:  int64(limit),
	})
}

// PostReport lists a blog's publish attempts, newest first.
func (s *Service) PostReport(ctx context.Context, blogID int64, limit int) ([]store.PostLog, error) {
	if _, err := s.blog(ctx, blogID); err != nil {
		return nil, err
	}
	return s.queries.ListPostLogsByBlog(ctx, store.ListPostLogsByBlogParams{
		BlogID: blogID,
		Limit:  int64(clampLimit(limit)),
	})
}

func (s *Service) blog(ctx context.Context, id int64) (store.Blog, error) {
	blog, err := s.queries.GetBlog(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Blog{}, ErrNotFound
	}
	return blog, err
}

func normalizeTitle(title string) (string, error) {
	title = strings.Join(strings.Fields(title), " ")
	if title == "" || utf8.RuneCountInString(title) > MaxTitleLength {
		return "", ErrInvalidTitle
	}
	return title, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return min(limit, maxListLimit)
}
