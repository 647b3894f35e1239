// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain constants shared across the application.
package model

// Content idea lifecycle statuses.
const (
	IdeaStatusDraft      = "draft"
	IdeaStatusPending    = "pending"
	IdeaStatusProcessing = "processing"
	IdeaStatusCompleted  = "completed"
	IdeaStatusFailed     = "failed"
)

// Post log statuses.
const (
	PostStatusPublished = "published"
	PostStatusFailed    = "failed"
	PostStatusSimulated = "simulated" // demo owners; nothing was sent to WordPress
)

// WordPress publish statuses a blog may request.
const (
	WPStatusDraft   = "draft"
	WPStatusPublish = "publish"
)

// ValidIdeaStatus reports whether s is a known idea status.
func ValidIdeaStatus(s string) bool {
	switch s {
	case IdeaStatusDraft, IdeaStatusPending, IdeaStatusProcessing, IdeaStatusCompleted, IdeaStatusFailed:
		return true
	}
	return false
}

// ValidWPStatus reports whether s is a publish status WordPress accepts from us.
func ValidWPStatus(s string) bool {
	return s == WPStatusDraft || s == WPStatusPublish
}
