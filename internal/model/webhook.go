// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Notification event types
const (
	EventIdeaPublished = "idea.published"
	EventIdeaFailed    = "idea.failed"
)

// WebhookEventInfo contains event type and description.
type WebhookEventInfo struct {
	Type        string
	Description string
}

// AllWebhookEvents returns all notification event types with descriptions.
func AllWebhookEvents() []WebhookEventInfo {
	return []WebhookEventInfo{
		{EventIdeaPublished, "When an idea is published to its WordPress site"},
		{EventIdeaFailed, "When a publish attempt for an idea fails"},
	}
}
