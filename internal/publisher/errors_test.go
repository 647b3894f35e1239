// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package publisher

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/olegiv/wpautoblog/internal/ai"
	"github.com/olegiv/wpautoblog/internal/wordpress"
)

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempts int64
		want     time.Duration
	}{
		{0, 5 * time.Minute},
		{1, 5 * time.Minute},
		{2, 10 * time.Minute},
		{3, 20 * time.Minute},
		{6, 160 * time.Minute},
		{7, 320 * time.Minute},
		{8, 6 * time.Hour},
		{50, 6 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempts), func(t *testing.T) {
			if got := Backoff(tt.attempts, 5*time.Minute, 6*time.Hour); got != tt.want {
				t.Errorf("Backoff(%d) = %v, want %v", tt.attempts, got, tt.want)
			}
		})
	}
}

func TestClassifyTargetError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  int
		network   bool
		retryable bool
	}{
		{
			name:     "unauthorized",
			err:      &wordpress.StatusError{Operation: "create post", StatusCode: 401, Code: "rest_cannot_create"},
			wantCode: 401,
		},
		{
			name:     "forbidden",
			err:      &wordpress.StatusError{Operation: "create post", StatusCode: 403},
			wantCode: 403,
		},
		{
			name:      "rate limited",
			err:       &wordpress.StatusError{Operation: "create post", StatusCode: 429},
			wantCode:  429,
			retryable: true,
		},
		{
			name:      "bad gateway",
			err:       &wordpress.StatusError{Operation: "create post", StatusCode: 502},
			wantCode:  502,
			retryable: true,
		},
		{
			name:      "connection refused",
			err:       &wordpress.NetworkError{Operation: "create post", Err: errors.New("dial tcp: connection refused")},
			network:   true,
			retryable: true,
		},
		{
			name:      "circuit open",
			err:       fmt.Errorf("%w: blog.example.com", wordpress.ErrCircuitOpen),
			network:   true,
			retryable: true,
		},
		{
			name:      "deadline",
			err:       context.DeadlineExceeded,
			network:   true,
			retryable: true,
		},
		{
			name: "unexpected",
			err:  errors.New("boom"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyTargetError(tt.err)

			var netErr *TransientNetworkError
			if isNet := errors.As(got, &netErr); isNet != tt.network {
				t.Fatalf("network = %v, want %v (%v)", isNet, tt.network, got)
			}
			if !tt.network {
				var targetErr *PublishTargetError
				if !errors.As(got, &targetErr) {
					t.Fatalf("got %T, want *PublishTargetError", got)
				}
				if targetErr.StatusCode != tt.wantCode {
					t.Errorf("StatusCode = %d, want %d", targetErr.StatusCode, tt.wantCode)
				}
			}
			if !errors.Is(got, tt.err) {
				t.Error("classified error does not wrap the cause")
			}
			if r := Retryable(got); r != tt.retryable {
				t.Errorf("Retryable = %v, want %v", r, tt.retryable)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"empty generation", &GenerationError{Err: ai.ErrEmptyResponse}, true},
		{"provider outage", &GenerationError{Err: errors.New("503")}, true},
		{"provider not configured", &GenerationError{Err: ai.ErrNotConfigured}, false},
		{"missing owner", ErrMissingOwner, false},
		{"no credits", fmt.Errorf("user 3: %w", ErrInsufficientCredits), false},
		{"credentials", ErrSiteCredentials, false},
		{"request timeout", &PublishTargetError{StatusCode: 408}, true},
		{"not found", &PublishTargetError{StatusCode: 404}, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Retryable(tt.err); got != tt.want {
				t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestFailureReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrMissingOwner, "missing_owner"},
		{ErrInsufficientCredits, "insufficient_credits"},
		{ErrSiteCredentials, "credentials"},
		{&GenerationError{Err: ai.ErrEmptyResponse}, "generation"},
		{&TransientNetworkError{Err: context.DeadlineExceeded}, "network"},
		{&PublishTargetError{StatusCode: 401}, "target"},
		{errors.New("db locked"), "internal"},
	}

	for _, tt := range tests {
		if got := failureReason(tt.err); got != tt.want {
			t.Errorf("failureReason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
