// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/olegiv/wpautoblog/internal/handler"
	"github.com/olegiv/wpautoblog/internal/service"
	"github.com/olegiv/wpautoblog/internal/store"
)

// EventResponse is one event log entry.
type EventResponse struct {
	ID        int64           `json:"id"`
	Level     string          `json:"level"`
	Category  string          `json:"category"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func eventToResponse(e store.Event) EventResponse {
	resp := EventResponse{
		ID:        e.ID,
		Level:     e.Level,
		Category:  e.Category,
		Message:   e.Message,
		CreatedAt: e.CreatedAt,
	}
	if json.Valid([]byte(e.Metadata)) && e.Metadata != "{}" {
		resp.Metadata = json.RawMessage(e.Metadata)
	}
	return resp
}

// ListEvents handles GET /api/v1/events?limit=.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := handler.ParseIntParam(r, "limit", service.DefaultEventListLimit, 1, service.DefaultEventListLimit)

	events, err := h.events.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list events", "error", err)
		WriteInternalError(w, "Failed to list events")
		return
	}

	resp := make([]EventResponse, len(events))
	for i, e := range events {
		resp[i] = eventToResponse(e)
	}
	WriteSuccess(w, resp, &Meta{Total: int64(len(resp)), Limit: limit})
}
