// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package webhook delivers signed publish notifications to an operator
// configured endpoint.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Event represents a notification to be delivered.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// NewEvent creates a new event with a fresh delivery ID.
func NewEvent(eventType string, data any) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// IdeaEventData is the payload of idea.published and idea.failed.
type IdeaEventData struct {
	IdeaID        int64      `json:"idea_id"`
	BlogID        int64      `json:"blog_id"`
	SiteURL       string     `json:"site_url"`
	Title         string     `json:"title"`
	Status        string     `json:"status"`
	Attempts      int64      `json:"attempts"`
	WPPostID      int64      `json:"wp_post_id,omitempty"`
	PostURL       string     `json:"post_url,omitempty"`
	Error         string     `json:"error,omitempty"`
	Retryable     bool       `json:"retryable"`
	NextAttemptAt *time.Time `json:"next_attempt_at,omitempty"`
}

// GenerateSignature generates an HMAC-SHA256 signature for the payload.
func GenerateSignature(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature verifies an HMAC-SHA256 signature.
func VerifySignature(payload []byte, signature, secret string) bool {
	expected := GenerateSignature(payload, secret)
	return hmac.Equal([]byte(signature), []byte(expected))
}
