// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/carlmjohnson/requests"

	"github.com/olegiv/wpautoblog/internal/metrics"
)

// Delivery configuration constants
const (
	MaxAttempts    = 5                // Maximum number of delivery attempts
	InitialBackoff = 2 * time.Second  // Initial backoff delay
	MaxBackoff     = 2 * time.Minute  // Maximum backoff delay
	RequestTimeout = 15 * time.Second // HTTP request timeout
	UserAgent      = "wpautoblog/1.0" // User-Agent header value
)

// Headers sent with every delivery.
const (
	HeaderSignature = "X-Autoblog-Signature"
	HeaderEvent     = "X-Autoblog-Event"
	HeaderDelivery  = "X-Autoblog-Delivery"
	HeaderAttempt   = "X-Autoblog-Attempt"
)

// DeliveryResult represents the result of a delivery attempt.
type DeliveryResult struct {
	Success     bool
	StatusCode  int
	Error       error
	ShouldRetry bool
}

// deliver attempts a queued event until it succeeds, fails permanently or
// runs out of attempts.
func (d *Dispatcher) deliver(ctx context.Context, qd *queuedDelivery) {
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		result := d.attemptDelivery(ctx, qd, attempt)
		if result.Success {
			metrics.NotificationDeliveries.WithLabelValues("delivered").Inc()
			d.logger.Debug("notification delivered",
				"event_id", qd.event.ID,
				"event_type", qd.event.Type,
				"status_code", result.StatusCode,
				"attempt", attempt)
			return
		}

		if !result.ShouldRetry || attempt == d.cfg.MaxAttempts {
			metrics.NotificationDeliveries.WithLabelValues("dead").Inc()
			d.logger.Warn("notification delivery abandoned",
				"event_id", qd.event.ID,
				"event_type", qd.event.Type,
				"attempts", attempt,
				"error", result.Error)
			return
		}

		backoff := calculateBackoff(attempt, d.cfg.InitialBackoff, d.cfg.MaxBackoff)
		metrics.NotificationDeliveries.WithLabelValues("retry").Inc()
		d.logger.Debug("notification delivery will be retried",
			"event_id", qd.event.ID,
			"attempt", attempt,
			"backoff", backoff.String(),
			"error", result.Error)

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-d.done:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// attemptDelivery performs the actual HTTP POST request.
func (d *Dispatcher) attemptDelivery(ctx context.Context, qd *queuedDelivery, attempt int) DeliveryResult {
	var status int
	rb := requests.URL(d.cfg.URL).
		Client(d.client).
		BodyBytes(qd.payload).
		ContentType("application/json").
		UserAgent(UserAgent).
		Header(HeaderEvent, qd.event.Type).
		Header(HeaderDelivery, qd.event.ID).
		Header(HeaderAttempt, strconv.Itoa(attempt)).
		AddValidator(func(res *http.Response) error {
			status = res.StatusCode
			if status >= 200 && status < 300 {
				return nil
			}
			return fmt.Errorf("HTTP %d: %s", status, http.StatusText(status))
		})
	if d.cfg.Secret != "" {
		rb = rb.Header(HeaderSignature, "sha256="+GenerateSignature(qd.payload, d.cfg.Secret))
	}

	err := rb.Fetch(ctx)
	if err == nil {
		return DeliveryResult{Success: true, StatusCode: status}
	}

	switch {
	case status == 0:
		// Network error, retry
		return DeliveryResult{Error: fmt.Errorf("request failed: %w", err), ShouldRetry: true}
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= 500:
		return DeliveryResult{StatusCode: status, Error: err, ShouldRetry: true}
	default:
		return DeliveryResult{StatusCode: status, Error: err}
	}
}

// calculateBackoff returns initial * 2^(attempt-1), capped at maxBackoff.
func calculateBackoff(attempt int, initial, maxBackoff time.Duration) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	backoff := time.Duration(float64(initial) * math.Pow(2, float64(attempt-1)))
	if backoff > maxBackoff || backoff <= 0 {
		backoff = maxBackoff
	}
	return backoff
}
