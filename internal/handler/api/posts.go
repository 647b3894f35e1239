// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/olegiv/wpautoblog/internal/content"
	"github.com/olegiv/wpautoblog/internal/handler"
	"github.com/olegiv/wpautoblog/internal/store"
)

const excerptLength = 200

// PostLogResponse is one publish attempt in a post report.
type PostLogResponse struct {
	ID           int64     `json:"id"`
	BlogID       int64     `json:"blog_id"`
	IdeaID       *int64    `json:"idea_id,omitempty"`
	Title        string    `json:"title"`
	Excerpt      string    `json:"excerpt,omitempty"`
	WPPostID     *int64    `json:"wp_post_id,omitempty"`
	PostURL      string    `json:"post_url,omitempty"`
	Status       string    `json:"status"`
	Automated    bool      `json:"automated"`
	ErrorMessage string    `json:"error_message,omitempty"`
	PostedAt     time.Time `json:"posted_at"`
}

func postLogToResponse(l store.PostLog) PostLogResponse {
	resp := PostLogResponse{
		ID:           l.ID,
		BlogID:       l.BlogID,
		Title:        l.Title,
		Excerpt:      content.Excerpt(l.Content, excerptLength),
		Status:       l.Status,
		Automated:    l.Automated,
		ErrorMessage: l.ErrorMessage,
		PostedAt:     l.PostedAt,
	}
	if l.IdeaID.Valid {
		id := l.IdeaID.Int64
		resp.IdeaID = &id
	}
	if l.WpPostID.Valid {
		id := l.WpPostID.Int64
		resp.WPPostID = &id
	}
	if l.PostUrl.Valid {
		resp.PostURL = l.PostUrl.String
	}
	return resp
}

// ListPosts handles GET /api/v1/blogs/{id}/posts?limit=, the blog's post
// report, newest first.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	blogID, ok := parseBlogID(w, r)
	if !ok {
		return
	}
	limit := handler.ParseIntParam(r, "limit", content.DefaultListLimit, 1, 0)

	logs, err := h.content.PostReport(r.Context(), blogID, limit)
	if err != nil {
		h.writeContentError(w, err, "Failed to load post report")
		return
	}

	resp := make([]PostLogResponse, len(logs))
	for i, l := range logs {
		resp[i] = postLogToResponse(l)
	}
	WriteSuccess(w, resp, &Meta{Total: int64(len(resp)), Limit: limit})
}
