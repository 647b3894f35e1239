// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordPublish(t *testing.T) {
	c := PublishOutcomes.WithLabelValues("completed", "")
	before := testutil.ToFloat64(c)

	RecordPublish("completed", "", 2*time.Second)

	if got := testutil.ToFloat64(c); got != before+1 {
		t.Errorf("completed outcomes = %v, want %v", got, before+1)
	}
}

func TestRecordAIUsage(t *testing.T) {
	in := AITokens.WithLabelValues("groq", "m", "input")
	out := AITokens.WithLabelValues("groq", "m", "output")
	beforeIn, beforeOut := testutil.ToFloat64(in), testutil.ToFloat64(out)

	RecordAIUsage("groq", "m", 120, 0)

	if got := testutil.ToFloat64(in); got != beforeIn+120 {
		t.Errorf("input tokens = %v, want %v", got, beforeIn+120)
	}
	if got := testutil.ToFloat64(out); got != beforeOut {
		t.Errorf("output tokens changed to %v", got)
	}
}

func TestRecordWordPressRequest(t *testing.T) {
	ok := WordPressRequests.WithLabelValues("create_post", "ok")
	bad := WordPressRequests.WithLabelValues("create_post", "error")
	beforeOK, beforeBad := testutil.ToFloat64(ok), testutil.ToFloat64(bad)

	RecordWordPressRequest("create_post", nil)
	RecordWordPressRequest("create_post", errors.New("boom"))

	if testutil.ToFloat64(ok) != beforeOK+1 || testutil.ToFloat64(bad) != beforeBad+1 {
		t.Error("expected one ok and one error request to be counted")
	}
}

func TestSetBreakerState(t *testing.T) {
	SetBreakerState("blog.example", 2)
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("blog.example")); got != 2 {
		t.Errorf("breaker state = %v, want 2", got)
	}
}
