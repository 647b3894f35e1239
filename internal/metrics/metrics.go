// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package metrics exposes Prometheus instrumentation for the scheduler,
// the publish pipeline and the outbound WordPress client.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Schedule evaluation
	EvaluationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "autoblog_schedule_evaluations_total",
			Help: "Total number of schedule evaluation passes",
		},
	)

	PromotionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoblog_schedule_decisions_total",
			Help: "Per-blog schedule decisions by outcome",
		},
		[]string{"outcome"}, // "promoted", "no_slot", "quota", "duplicate", "no_draft", "error"
	)

	// Publishing
	PublishOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoblog_publish_outcomes_total",
			Help: "Publish attempts by outcome",
		},
		[]string{"outcome", "reason"},
	)

	PublishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "autoblog_publish_duration_seconds",
			Help:    "Duration of a single publish attempt in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"outcome"},
	)

	RetriesReleased = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "autoblog_retries_released_total",
			Help: "Failed ideas moved back to pending by the retry sweep",
		},
	)

	StaleClaimsReset = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "autoblog_stale_claims_reset_total",
			Help: "Ideas stuck in processing that were returned to pending",
		},
	)

	ImageFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "autoblog_image_failures_total",
			Help: "Featured image steps that failed and were skipped",
		},
	)

	// AI usage
	AITokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoblog_ai_tokens_total",
			Help: "Tokens consumed by AI calls",
		},
		[]string{"provider", "model", "kind"}, // kind: "input", "output"
	)

	// Scheduler jobs
	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoblog_job_runs_total",
			Help: "Scheduler job executions by result",
		},
		[]string{"job", "result"}, // result: "ok", "error", "skipped"
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "autoblog_job_duration_seconds",
			Help:    "Scheduler job duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)

	// WordPress client
	WordPressRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoblog_wordpress_requests_total",
			Help: "Outbound WordPress REST requests by operation and result",
		},
		[]string{"operation", "result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "autoblog_circuit_breaker_state",
			Help: "Circuit breaker state per site host (0=closed, 1=half-open, 2=open)",
		},
		[]string{"host"},
	)

	// Notifications
	NotificationDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoblog_notification_deliveries_total",
			Help: "Outbound notification deliveries by result",
		},
		[]string{"result"}, // "delivered", "retry", "dead", "dropped"
	)
)

// RecordDecision counts one per-blog evaluation outcome.
func RecordDecision(outcome string) {
	PromotionsTotal.WithLabelValues(outcome).Inc()
}

// RecordPublish records the outcome and duration of one publish attempt.
func RecordPublish(outcome, reason string, duration time.Duration) {
	PublishOutcomes.WithLabelValues(outcome, reason).Inc()
	PublishDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordAIUsage adds token counts for one AI call.
func RecordAIUsage(provider, model string, input, output int64) {
	if input > 0 {
		AITokens.WithLabelValues(provider, model, "input").Add(float64(input))
	}
	if output > 0 {
		AITokens.WithLabelValues(provider, model, "output").Add(float64(output))
	}
}

// RecordJobRun records a scheduler job execution.
func RecordJobRun(job, result string, duration time.Duration) {
	JobRuns.WithLabelValues(job, result).Inc()
	if result != "skipped" {
		JobDuration.WithLabelValues(job).Observe(duration.Seconds())
	}
}

// RecordWordPressRequest counts an outbound WordPress call.
func RecordWordPressRequest(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	WordPressRequests.WithLabelValues(operation, result).Inc()
}

// SetBreakerState publishes a breaker state for a host.
func SetBreakerState(host string, state int) {
	CircuitBreakerState.WithLabelValues(host).Set(float64(state))
}
