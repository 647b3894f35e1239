// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/olegiv/wpautoblog/internal/entitlement"
	"github.com/olegiv/wpautoblog/internal/handler"
	"github.com/olegiv/wpautoblog/internal/model"
	"github.com/olegiv/wpautoblog/internal/schedule"
	"github.com/olegiv/wpautoblog/internal/store"
	"github.com/olegiv/wpautoblog/internal/wordpress"
)

const (
	maxSiteNameLength     = 200
	maxSystemPromptLength = 4000
	maxTopicsLength       = 1000
)

// BlogDefaults fills settings omitted at blog creation.
type BlogDefaults struct {
	ScheduleTime string
	PostStatus   string
}

func (d BlogDefaults) withFallbacks() BlogDefaults {
	if !schedule.ValidClock(d.ScheduleTime) {
		d.ScheduleTime = "09:00"
	}
	if !model.ValidWPStatus(d.PostStatus) {
		d.PostStatus = model.WPStatusPublish
	}
	return d
}

// BlogResponse is a blog as returned by the API. The application password is
// never returned.
type BlogResponse struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	SiteName     string    `json:"site_name"`
	SiteURL      string    `json:"site_url"`
	WPUser       string    `json:"wp_user"`
	HasPassword  bool      `json:"has_password"`
	PostsPerDay  int64     `json:"posts_per_day"`
	ScheduleTime string    `json:"schedule_time"`
	Slots        []string  `json:"slots,omitempty"`
	Timezone     string    `json:"timezone"`
	PostStatus   string    `json:"post_status"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
	Topics       string    `json:"topics,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func blogToResponse(b store.Blog) BlogResponse {
	slots, _ := schedule.Slots(b.ScheduleTime, int(b.PostsPerDay))
	return BlogResponse{
		ID:           b.ID,
		UserID:       b.UserID,
		SiteName:     b.SiteName,
		SiteURL:      b.SiteUrl,
		WPUser:       b.WpUser,
		HasPassword:  b.WpAppPassword != "",
		PostsPerDay:  b.PostsPerDay,
		ScheduleTime: b.ScheduleTime,
		Slots:        slots,
		Timezone:     b.Timezone,
		PostStatus:   b.PostStatus,
		SystemPrompt: b.SystemPrompt,
		Topics:       b.Topics,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

// CreateBlogRequest represents the request body for connecting a blog.
type CreateBlogRequest struct {
	UserID        int64  `json:"user_id"`
	SiteName      string `json:"site_name"`
	SiteURL       string `json:"site_url"`
	WPUser        string `json:"wp_user"`
	WPAppPassword string `json:"wp_app_password"`
	PostsPerDay   *int64 `json:"posts_per_day,omitempty"`
	ScheduleTime  string `json:"schedule_time,omitempty"`
	Timezone      string `json:"timezone,omitempty"`
	PostStatus    string `json:"post_status,omitempty"`
	SystemPrompt  string `json:"system_prompt,omitempty"`
	Topics        string `json:"topics,omitempty"`
}

// UpdateBlogRequest represents the request body for updating a blog.
// Omitted fields keep their value.
type UpdateBlogRequest struct {
	SiteName      *string `json:"site_name,omitempty"`
	SiteURL       *string `json:"site_url,omitempty"`
	WPUser        *string `json:"wp_user,omitempty"`
	WPAppPassword *string `json:"wp_app_password,omitempty"`
	PostsPerDay   *int64  `json:"posts_per_day,omitempty"`
	ScheduleTime  *string `json:"schedule_time,omitempty"`
	Timezone      *string `json:"timezone,omitempty"`
	PostStatus    *string `json:"post_status,omitempty"`
	SystemPrompt  *string `json:"system_prompt,omitempty"`
	Topics        *string `json:"topics,omitempty"`
}

// blogSettings is the validated, editable part of a blog.
type blogSettings struct {
	SiteName     string
	SiteURL      string
	WPUser       string
	PostsPerDay  int64
	ScheduleTime string
	Timezone     string
	PostStatus   string
	SystemPrompt string
	Topics       string
}

// validate checks the settings and returns field errors.
func (s *blogSettings) validate() map[string]string {
	errs := make(map[string]string)

	s.SiteName = strings.TrimSpace(s.SiteName)
	if s.SiteName == "" {
		errs["site_name"] = "Site name is required"
	} else if utf8.RuneCountInString(s.SiteName) > maxSiteNameLength {
		errs["site_name"] = "Site name is too long"
	}

	s.WPUser = strings.TrimSpace(s.WPUser)
	if s.WPUser == "" {
		errs["wp_user"] = "WordPress user is required"
	}

	if s.PostsPerDay < 1 || s.PostsPerDay > schedule.MaxPostsPerDay {
		errs["posts_per_day"] = fmt.Sprintf("Posts per day must be between 1 and %d", schedule.MaxPostsPerDay)
	}

	if !schedule.ValidClock(s.ScheduleTime) {
		errs["schedule_time"] = "Schedule time must be HH:MM (24h)"
	}

	s.Timezone = strings.TrimSpace(s.Timezone)
	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			errs["timezone"] = "Unknown time zone"
		}
	}

	if !model.ValidWPStatus(s.PostStatus) {
		errs["post_status"] = "Post status must be 'draft' or 'publish'"
	}

	if utf8.RuneCountInString(s.SystemPrompt) > maxSystemPromptLength {
		errs["system_prompt"] = "System prompt is too long"
	}
	if utf8.RuneCountInString(s.Topics) > maxTopicsLength {
		errs["topics"] = "Topics are too long"
	}

	return errs
}

// ListBlogs handles GET /api/v1/blogs?user_id=.
func (h *Handler) ListBlogs(w http.ResponseWriter, r *http.Request) {
	userID := handler.ParseQueryInt64(r, "user_id")
	if userID == 0 {
		WriteBadRequest(w, "user_id query parameter is required", nil)
		return
	}

	blogs, err := h.queries.ListBlogsByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list blogs", "error", err, "user_id", userID)
		WriteInternalError(w, "Failed to list blogs")
		return
	}

	resp := make([]BlogResponse, len(blogs))
	for i, b := range blogs {
		resp[i] = blogToResponse(b)
	}
	WriteSuccess(w, resp, &Meta{Total: int64(len(resp))})
}

// GetBlog handles GET /api/v1/blogs/{id}.
func (h *Handler) GetBlog(w http.ResponseWriter, r *http.Request) {
	blog, ok := h.requireBlog(w, r)
	if !ok {
		return
	}
	WriteSuccess(w, blogToResponse(blog), nil)
}

// CreateBlog handles POST /api/v1/blogs. The owner's plan limits how many
// sites may be connected.
func (h *Handler) CreateBlog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateBlogRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	settings := blogSettings{
		SiteName:     req.SiteName,
		WPUser:       req.WPUser,
		PostsPerDay:  1,
		ScheduleTime: h.defaults.ScheduleTime,
		Timezone:     req.Timezone,
		PostStatus:   h.defaults.PostStatus,
		SystemPrompt: req.SystemPrompt,
		Topics:       req.Topics,
	}
	if req.PostsPerDay != nil {
		settings.PostsPerDay = *req.PostsPerDay
	}
	if req.ScheduleTime != "" {
		settings.ScheduleTime = req.ScheduleTime
	}
	if req.PostStatus != "" {
		settings.PostStatus = req.PostStatus
	}

	errs := settings.validate()
	if req.UserID <= 0 {
		errs["user_id"] = "User is required"
	}
	if strings.TrimSpace(req.WPAppPassword) == "" {
		errs["wp_app_password"] = "Application password is required"
	}
	if req.SiteURL == "" {
		errs["site_url"] = "Site URL is required"
	} else if siteURL, err := h.validateSite(ctx, req.SiteURL); err != nil {
		errs["site_url"] = err.Error()
	} else {
		settings.SiteURL = siteURL
	}
	if len(errs) > 0 {
		WriteValidationError(w, errs)
		return
	}

	caps, err := h.resolver.Resolve(ctx, req.UserID)
	if errors.Is(err, entitlement.ErrUnknownUser) {
		WriteValidationError(w, map[string]string{"user_id": "User not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to resolve entitlements", "error", err, "user_id", req.UserID)
		WriteInternalError(w, "Failed to load plan")
		return
	}

	sealed, err := h.sealer.Seal(req.WPAppPassword)
	if err != nil {
		h.logger.Error("failed to seal site password", "error", err)
		WriteInternalError(w, "Failed to store credentials")
		return
	}

	var blog store.Blog
	limitReached := false
	err = store.RunInTx(ctx, h.db, func(q *store.Queries) error {
		count, err := q.CountBlogsByUser(ctx, req.UserID)
		if err != nil {
			return err
		}
		if !caps.CanAddSite(count) {
			limitReached = true
			return nil
		}
		now := time.Now().UTC()
		blog, err = q.CreateBlog(ctx, store.CreateBlogParams{
			UserID:        req.UserID,
			SiteName:      settings.SiteName,
			SiteUrl:       settings.SiteURL,
			WpUser:        settings.WPUser,
			WpAppPassword: sealed,
			PostsPerDay:   settings.PostsPerDay,
			ScheduleTime:  settings.ScheduleTime,
			Timezone:      settings.Timezone,
			PostStatus:    settings.PostStatus,
			SystemPrompt:  settings.SystemPrompt,
			Topics:        settings.Topics,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		return err
	})
	if err != nil {
		h.logger.Error("failed to create blog", "error", err, "user_id", req.UserID)
		WriteInternalError(w, "Failed to create blog")
		return
	}
	if limitReached {
		WriteForbidden(w, "plan_limit", "The owner's plan does not allow connecting another site")
		return
	}

	h.logger.Info("blog connected", "blog_id", blog.ID, "user_id", blog.UserID, "site_url", blog.SiteUrl)
	WriteCreated(w, blogToResponse(blog))
}

// UpdateBlog handles PUT /api/v1/blogs/{id}.
func (h *Handler) UpdateBlog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	existing, ok := h.requireBlog(w, r)
	if !ok {
		return
	}

	var req UpdateBlogRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	settings := blogSettings{
		SiteName:     existing.SiteName,
		SiteURL:      existing.SiteUrl,
		WPUser:       existing.WpUser,
		PostsPerDay:  existing.PostsPerDay,
		ScheduleTime: existing.ScheduleTime,
		Timezone:     existing.Timezone,
		PostStatus:   existing.PostStatus,
		SystemPrompt: existing.SystemPrompt,
		Topics:       existing.Topics,
	}
	applyString(&settings.SiteName, req.SiteName)
	applyString(&settings.WPUser, req.WPUser)
	applyString(&settings.ScheduleTime, req.ScheduleTime)
	applyString(&settings.Timezone, req.Timezone)
	applyString(&settings.PostStatus, req.PostStatus)
	applyString(&settings.SystemPrompt, req.SystemPrompt)
	applyString(&settings.Topics, req.Topics)
	if req.PostsPerDay != nil {
		settings.PostsPerDay = *req.PostsPerDay
	}

	errs := settings.validate()
	if req.SiteURL != nil && *req.SiteURL != existing.SiteUrl {
		if siteURL, err := h.validateSite(ctx, *req.SiteURL); err != nil {
			errs["site_url"] = err.Error()
		} else {
			settings.SiteURL = siteURL
		}
	}
	if req.WPAppPassword != nil && strings.TrimSpace(*req.WPAppPassword) == "" {
		errs["wp_app_password"] = "Application password cannot be empty"
	}
	if len(errs) > 0 {
		WriteValidationError(w, errs)
		return
	}

	password := existing.WpAppPassword
	if req.WPAppPassword != nil {
		sealed, err := h.sealer.Seal(*req.WPAppPassword)
		if err != nil {
			h.logger.Error("failed to seal site password", "error", err)
			WriteInternalError(w, "Failed to store credentials")
			return
		}
		password = sealed
	}

	blog, err := h.queries.UpdateBlog(ctx, store.UpdateBlogParams{
		SiteName:      settings.SiteName,
		SiteUrl:       settings.SiteURL,
		WpUser:        settings.WPUser,
		WpAppPassword: password,
		PostsPerDay:   settings.PostsPerDay,
		ScheduleTime:  settings.ScheduleTime,
		Timezone:      settings.Timezone,
		PostStatus:    settings.PostStatus,
		SystemPrompt:  settings.SystemPrompt,
		Topics:        settings.Topics,
		UpdatedAt:     time.Now().UTC(),
		ID:            existing.ID,
	})
	if err != nil {
		h.logger.Error("failed to update blog", "error", err, "blog_id", existing.ID)
		WriteInternalError(w, "Failed to update blog")
		return
	}

	h.logger.Info("blog updated", "blog_id", blog.ID)
	WriteSuccess(w, blogToResponse(blog), nil)
}

// DeleteBlog handles DELETE /api/v1/blogs/{id}. Ideas, post logs and slot
// claims go with it.
func (h *Handler) DeleteBlog(w http.ResponseWriter, r *http.Request) {
	blog, ok := h.requireBlog(w, r)
	if !ok {
		return
	}

	if _, err := h.queries.DeleteBlog(r.Context(), blog.ID); err != nil {
		h.logger.Error("failed to delete blog", "error", err, "blog_id", blog.ID)
		WriteInternalError(w, "Failed to delete blog")
		return
	}

	h.logger.Info("blog deleted", "blog_id", blog.ID, "user_id", blog.UserID)
	w.WriteHeader(http.StatusNoContent)
}

// ConnectionResponse is the result of a connectivity self-test.
type ConnectionResponse struct {
	OK         bool   `json:"ok"`
	WPUserID   int64  `json:"wp_user_id,omitempty"`
	WPUserName string `json:"wp_user_name,omitempty"`
	Error      string `json:"error,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}

// TestConnection handles POST /api/v1/blogs/{id}/test-connection. A failed
// check is a successful API call with ok=false.
func (h *Handler) TestConnection(w http.ResponseWriter, r *http.Request) {
	blog, ok := h.requireBlog(w, r)
	if !ok {
		return
	}

	password, err := h.sealer.Open(blog.WpAppPassword)
	if err != nil {
		WriteSuccess(w, ConnectionResponse{Error: "stored credentials cannot be opened; set the application password again"}, nil)
		return
	}

	user, err := h.sites.TestConnection(r.Context(), wordpress.Credentials{
		SiteURL:     blog.SiteUrl,
		User:        blog.WpUser,
		AppPassword: password,
	})
	if err != nil {
		resp := ConnectionResponse{Error: err.Error()}
		var statusErr *wordpress.StatusError
		if errors.As(err, &statusErr) {
			resp.StatusCode = statusErr.StatusCode
		}
		h.logger.Warn("site connection test failed", "blog_id", blog.ID, "error", err)
		WriteSuccess(w, resp, nil)
		return
	}

	WriteSuccess(w, ConnectionResponse{OK: true, WPUserID: user.ID, WPUserName: user.Name}, nil)
}

// requireBlog loads the blog named by the {id} URL parameter.
func (h *Handler) requireBlog(w http.ResponseWriter, r *http.Request) (store.Blog, bool) {
	return requireEntityByID(w, r, "blog", func(id int64) (store.Blog, error) {
		return h.queries.GetBlog(r.Context(), id)
	})
}

func applyString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
