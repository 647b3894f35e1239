// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package wordpress is a small client for the WordPress REST API using
// application-password basic auth.
package wordpress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/sony/gobreaker/v2"

	"github.com/olegiv/wpautoblog/internal/metrics"
	"github.com/olegiv/wpautoblog/internal/util"
)

const (
	postsPath = "/wp-json/wp/v2/posts"
	mediaPath = "/wp-json/wp/v2/media"
	mePath    = "/wp-json/wp/v2/users/me"

	userAgent = "wpautoblog/1.0"
)

// Credentials identify one WordPress site.
type Credentials struct {
	SiteURL     string
	User        string
	AppPassword string
}

// PostRequest is the body of a create-post call.
type PostRequest struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Status        string `json:"status"`
	FeaturedMedia int64  `json:"featured_media,omitempty"`
}

// Post is the part of the created post we keep.
type Post struct {
	ID   int64  `json:"id"`
	Link string `json:"link"`
}

// Media is an uploaded attachment.
type Media struct {
	ID        int64  `json:"id"`
	SourceURL string `json:"source_url"`
}

// User is the authenticated WordPress user.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Options configures a Client.
type Options struct {
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	AllowPrivate  bool
	Breaker       BreakerSettings
}

// Client publishes to WordPress sites. One Client serves every blog.
type Client struct {
	http     *http.Client
	limiters *limiterCache
	breakers *breakerSet
	opts     Options
	logger   *slog.Logger
}

// New creates a Client.
func New(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 1
	}
	if opts.Burst <= 0 {
		opts.Burst = 3
	}
	if opts.Breaker.ConsecutiveFailures == 0 {
		opts.Breaker = DefaultBreakerSettings()
	}

	return &Client{
		http:     util.NewHTTPClient(opts.Timeout, opts.AllowPrivate),
		limiters: newLimiterCache(opts.RatePerSecond, opts.Burst),
		breakers: newBreakerSet(opts.Breaker, logger),
		opts:     opts,
		logger:   logger,
	}
}

// CreatePost creates a post. WordPress answers 201 Created with the post.
func (c *Client) CreatePost(ctx context.Context, creds Credentials, req PostRequest) (*Post, error) {
	var post Post
	err := c.do(ctx, "create_post", creds, func(base string) *requests.Builder {
		endpoint := base + postsPath
		return requests.URL(endpoint).
			Method(http.MethodPost).
			BodyJSON(req).
			ToJSON(&post)
	})
	if err != nil {
		return nil, err
	}
	if post.ID == 0 {
		return nil, &StatusError{Operation: "create_post", StatusCode: http.StatusCreated, Message: "response has no post id"}
	}
	return &post, nil
}

// UploadMedia uploads a file to the media library.
func (c *Client) UploadMedia(ctx context.Context, creds Credentials, filename, contentType string, data []byte) (*Media, error) {
	var media Media
	err := c.do(ctx, "upload_media", creds, func(base string) *requests.Builder {
		endpoint := base + mediaPath
		return requests.URL(endpoint).
			Method(http.MethodPost).
			BodyBytes(data).
			ContentType(contentType).
			Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename)).
			ToJSON(&media)
	})
	if err != nil {
		return nil, err
	}
	return &media, nil
}

// TestConnection checks that the credentials can reach the authenticated
// user endpoint. It is used when a blog is connected, not by the scheduler.
func (c *Client) TestConnection(ctx context.Context, creds Credentials) (*User, error) {
	var user User
	err := c.do(ctx, "test_connection", creds, func(base string) *requests.Builder {
		endpoint := base + mePath
		return requests.URL(endpoint).
			Param("context", "edit").
			ToJSON(&user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// do runs one request through the host's rate limiter and circuit breaker.
func (c *Client) do(ctx context.Context, op string, creds Credentials, build func(base string) *requests.Builder) error {
	base, host, err := normalizeSiteURL(creds.SiteURL, c.opts.AllowPrivate)
	if err != nil {
		return &StatusError{Operation: op, StatusCode: 0, Message: err.Error()}
	}

	if err := c.limiters.get(host).Wait(ctx); err != nil {
		return &NetworkError{Operation: op, Err: err}
	}

	start := time.Now()
	_, err = c.breakers.get(host).Execute(func() (any, error) {
		return nil, c.fetch(ctx, op, creds, build(base))
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %s", ErrCircuitOpen, host)
	}

	metrics.RecordWordPressRequest(op, err)
	c.logger.Debug("wordpress request", "op", op, "host", host, "duration", time.Since(start), "error", err)
	return err
}

func (c *Client) fetch(ctx context.Context, op string, creds Credentials, rb *requests.Builder) error {
	err := rb.
		Client(c.http).
		BasicAuth(creds.User, creds.AppPassword).
		UserAgent(userAgent).
		Accept("application/json").
		AddValidator(statusValidator(op)).
		Fetch(ctx)
	if err == nil {
		return nil
	}

	var se *StatusError
	if errors.As(err, &se) {
		return se
	}
	return &NetworkError{Operation: op, Err: err}
}

// ValidateSiteURL checks a site URL at blog setup and returns it normalized
// (scheme and host, path kept, no trailing slash).
func ValidateSiteURL(ctx context.Context, raw string, allowPrivate bool) (string, error) {
	base, _, err := normalizeSiteURL(raw, allowPrivate)
	if err != nil {
		return "", err
	}
	if err := util.ValidatePublicURL(ctx, base, allowPrivate); err != nil {
		return "", err
	}
	return base, nil
}

func normalizeSiteURL(raw string, allowPrivate bool) (base, host string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", errors.New("site URL is required")
	}
	u, err := util.ValidateURLShape(raw, allowPrivate)
	if err != nil {
		return "", "", err
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.User = nil
	u.Path = strings.TrimRight(u.Path, "/")
	u.Path = strings.TrimSuffix(u.Path, "/wp-json")
	return strings.TrimRight(u.String(), "/"), u.Host, nil
}
