// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"testing"
)

func TestValidIdeaStatus(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{IdeaStatusDraft, true},
		{IdeaStatusPending, true},
		{IdeaStatusProcessing, true},
		{IdeaStatusCompleted, true},
		{IdeaStatusFailed, true},
		{"Publicado", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := ValidIdeaStatus(tt.status); got != tt.want {
				t.Errorf("ValidIdeaStatus(%q) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestValidWPStatus(t *testing.T) {
	for _, s := range []string{"draft", "publish"} {
		if !ValidWPStatus(s) {
			t.Errorf("ValidWPStatus(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"private", "future", ""} {
		if ValidWPStatus(s) {
			t.Errorf("ValidWPStatus(%q) = true, want false", s)
		}
	}
}

func TestAllWebhookEvents(t *testing.T) {
	events := AllWebhookEvents()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	for _, e := range events {
		if e.Description == "" {
			t.Errorf("event %s has no description", e.Type)
		}
	}
}
