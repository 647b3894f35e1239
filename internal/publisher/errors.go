// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package publisher

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/olegiv/wpautoblog/internal/ai"
	"github.com/olegiv/wpautoblog/internal/wordpress"
)

// Terminal failures.
var (
	ErrMissingOwner        = errors.New("idea has no blog or owner")
	ErrInsufficientCredits = errors.New("owner has no credits left")
	ErrSiteCredentials     = errors.New("site credentials cannot be opened")
)

// GenerationError reports a failed or empty article generation.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generating article: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// PublishTargetError reports a non-2xx answer from the WordPress site.
type PublishTargetError struct {
	StatusCode int
	Err        error
}

func (e *PublishTargetError) Error() string {
	return fmt.Sprintf("publishing to site (HTTP %d): %v", e.StatusCode, e.Err)
}

func (e *PublishTargetError) Unwrap() error { return e.Err }

// TransientNetworkError reports a timeout, connection failure or open
// circuit while talking to the site.
type TransientNetworkError struct {
	Err error
}

func (e *TransientNetworkError) Error() string {
	return fmt.Sprintf("publishing to site: %v", e.Err)
}

func (e *TransientNetworkError) Unwrap() error { return e.Err }

// classifyTargetError maps WordPress client errors onto the publish taxonomy.
func classifyTargetError(err error) error {
	var statusErr *wordpress.StatusError
	switch {
	case errors.As(err, &statusErr):
		return &PublishTargetError{StatusCode: statusErr.StatusCode, Err: err}
	case errors.Is(err, wordpress.ErrCircuitOpen),
		errors.Is(err, context.DeadlineExceeded):
		return &TransientNetworkError{Err: err}
	default:
		var netErr *wordpress.NetworkError
		if errors.As(err, &netErr) {
			return &TransientNetworkError{Err: err}
		}
		return &PublishTargetError{Err: err}
	}
}

// Retryable reports whether a failure may succeed on a later attempt.
func Retryable(err error) bool {
	var (
		genErr    *GenerationError
		targetErr *PublishTargetError
		netErr    *TransientNetworkError
	)
	switch {
	case errors.As(err, &netErr):
		return true
	case errors.As(err, &genErr):
		return !errors.Is(err, ai.ErrNotConfigured)
	case errors.As(err, &targetErr):
		code := targetErr.StatusCode
		return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= 500
	default:
		return false
	}
}

// failureReason is the metrics label for err.
func failureReason(err error) string {
	var (
		genErr    *GenerationError
		targetErr *PublishTargetError
		netErr    *TransientNetworkError
	)
	switch {
	case errors.Is(err, ErrMissingOwner):
		return "missing_owner"
	case errors.Is(err, ErrInsufficientCredits):
		return "insufficient_credits"
	case errors.Is(err, ErrSiteCredentials):
		return "credentials"
	case errors.As(err, &genErr):
		return "generation"
	case errors.As(err, &netErr):
		return "network"
	case errors.As(err, &targetErr):
		return "target"
	default:
		return "internal"
	}
}
