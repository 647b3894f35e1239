// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/olegiv/wpautoblog/internal/content"
	"github.com/olegiv/wpautoblog/internal/handler"
	"github.com/olegiv/wpautoblog/internal/store"
	"github.com/olegiv/wpautoblog/internal/util"
)

// maxGenerateCount bounds one AI idea generation request.
const maxGenerateCount = 50

// IdeaResponse is a content idea as returned by the API.
type IdeaResponse struct {
	ID            int64      `json:"id"`
	BlogID        int64      `json:"blog_id"`
	Title         string     `json:"title"`
	SourceInsight string     `json:"source_insight,omitempty"`
	HasBody       bool       `json:"has_body"`
	Status        string     `json:"status"`
	IsPosted      bool       `json:"is_posted"`
	Attempts      int64      `json:"attempts"`
	NextAttemptAt *time.Time `json:"next_attempt_at,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
	QueuedAt      *time.Time `json:"queued_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func ideaToResponse(i store.ContentIdea) IdeaResponse {
	return IdeaResponse{
		ID:            i.ID,
		BlogID:        i.BlogID,
		Title:         i.Title,
		SourceInsight: i.SourceInsight,
		HasBody:       i.Body != "",
		Status:        i.Status,
		IsPosted:      i.IsPosted,
		Attempts:      i.Attempts,
		LastError:     i.LastError,
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
		NextAttemptAt: util.TimePtr(i.NextAttemptAt),
		QueuedAt:      util.TimePtr(i.QueuedAt),
	}
}

func ideasToResponse(ideas []store.ContentIdea) []IdeaResponse {
	resp := make([]IdeaResponse, len(ideas))
	for i, idea := range ideas {
		resp[i] = ideaToResponse(idea)
	}
	return resp
}

// CreateIdeaRequest represents the request body for a manual idea.
type CreateIdeaRequest struct {
	Title         string `json:"title"`
	SourceInsight string `json:"source_insight,omitempty"`
	Body          string `json:"body,omitempty"`
	Queue         bool   `json:"queue,omitempty"`
}

// GenerateIdeasRequest represents the request body for AI idea generation.
type GenerateIdeasRequest struct {
	Count int `json:"count,omitempty"`
}

// ListIdeas handles GET /api/v1/blogs/{id}/ideas?status=&limit=.
func (h *Handler) ListIdeas(w http.ResponseWriter, r *http.Request) {
	blogID, ok := parseBlogID(w, r)
	if !ok {
		return
	}
	limit := handler.ParseIntParam(r, "limit", content.DefaultListLimit, 1, 0)

	ideas, err := h.content.ListIdeas(r.Context(), blogID, r.URL.Query().Get("status"), limit)
	if err != nil {
		h.writeContentError(w, err, "Failed to list ideas")
		return
	}
	WriteSuccess(w, ideasToResponse(ideas), &Meta{Total: int64(len(ideas)), Limit: limit})
}

// CreateIdea handles POST /api/v1/blogs/{id}/ideas. A body, when given, is
// published as-is instead of generating an article.
func (h *Handler) CreateIdea(w http.ResponseWriter, r *http.Request) {
	blogID, ok := parseBlogID(w, r)
	if !ok {
		return
	}

	var req CreateIdeaRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	idea, err := h.content.CreateIdea(r.Context(), blogID, content.NewIdea{
		Title:         req.Title,
		SourceInsight: req.SourceInsight,
		Body:          req.Body,
		Queue:         req.Queue,
	})
	if err != nil {
		h.writeContentError(w, err, "Failed to create idea")
		return
	}
	WriteCreated(w, ideaToResponse(idea))
}

// GenerateIdeas handles POST /api/v1/blogs/{id}/ideas/generate.
func (h *Handler) GenerateIdeas(w http.ResponseWriter, r *http.Request) {
	blogID, ok := parseBlogID(w, r)
	if !ok {
		return
	}

	var req GenerateIdeasRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Count < 0 || req.Count > maxGenerateCount {
		WriteValidationError(w, map[string]string{"count": "Count must be between 1 and 50"})
		return
	}

	ideas, err := h.content.GenerateIdeas(r.Context(), blogID, req.Count)
	if err != nil {
		h.writeContentError(w, err, "Failed to generate ideas")
		return
	}
	WriteCreated(w, ideasToResponse(ideas))
}

// QueueIdea handles POST /api/v1/ideas/{id}/queue.
func (h *Handler) QueueIdea(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil || id <= 0 {
		WriteBadRequest(w, "Invalid idea ID", nil)
		return
	}

	idea, err := h.content.QueueIdea(r.Context(), id)
	if err != nil {
		h.writeContentError(w, err, "Failed to queue idea")
		return
	}
	WriteSuccess(w, ideaToResponse(idea), nil)
}

// DeleteIdea handles DELETE /api/v1/ideas/{id}.
func (h *Handler) DeleteIdea(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil || id <= 0 {
		WriteBadRequest(w, "Invalid idea ID", nil)
		return
	}

	if err := h.content.DeleteIdea(r.Context(), id); err != nil {
		h.writeContentError(w, err, "Failed to delete idea")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeContentError maps content service errors to responses.
func (h *Handler) writeContentError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, content.ErrNotFound):
		WriteNotFound(w, "Not found")
	case errors.Is(err, content.ErrInvalidTitle):
		WriteValidationError(w, map[string]string{"title": err.Error()})
	case errors.Is(err, content.ErrInvalidStatus):
		WriteValidationError(w, map[string]string{"status": err.Error()})
	case errors.Is(err, content.ErrNotQueueable):
		WriteConflict(w, "not_queueable", err.Error())
	case errors.Is(err, content.ErrNotDeletable):
		WriteConflict(w, "not_deletable", err.Error())
	case errors.Is(err, content.ErrAIUnavailable):
		WriteError(w, http.StatusServiceUnavailable, "ai_unavailable", err.Error(), nil)
	case errors.Is(err, content.ErrNoTitlesCreated):
		WriteError(w, http.StatusBadGateway, "ai_empty", err.Error(), nil)
	default:
		h.logger.Error(fallback, "error", err)
		WriteInternalError(w, fallback)
	}
}

func parseBlogID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := handler.ParseIDParam(r)
	if err != nil || id <= 0 {
		WriteBadRequest(w, "Invalid blog ID", nil)
		return 0, false
	}
	return id, true
}
