// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/olegiv/wpautoblog/internal/model"
	"github.com/olegiv/wpautoblog/internal/testutil"
)

func TestGenerateSignature(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		secret  string
	}{
		{"empty payload", []byte{}, "secret"},
		{"simple payload", []byte(`{"event":"test"}`), "mysecret"},
		{"unicode payload", []byte(`{"title":"Тест","content":"日本語"}`), "ключ"},
		{"empty secret", []byte(`test`), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GenerateSignature(tt.payload, tt.secret)
			if len(result) != 64 {
				t.Errorf("GenerateSignature() returned signature with length %d, expected 64", len(result))
			}
			if result != GenerateSignature(tt.payload, tt.secret) {
				t.Error("GenerateSignature() is not deterministic")
			}
			if !VerifySignature(tt.payload, result, tt.secret) {
				t.Error("VerifySignature() rejected its own signature")
			}
		})
	}
}

func TestVerifySignature_InvalidSignature(t *testing.T) {
	payload := []byte(`{"event":"test"}`)
	sig := GenerateSignature(payload, "right")

	if VerifySignature(payload, sig, "wrong") {
		t.Error("VerifySignature() accepted a signature made with another secret")
	}
	if VerifySignature([]byte(`{"event":"tampered"}`), sig, "right") {
		t.Error("VerifySignature() accepted a tampered payload")
	}
}

func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second}, // treated as attempt 1
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{6, 32 * time.Second},
		{7, time.Minute},
		{70, time.Minute},
	}

	for _, tt := range tests {
		result := calculateBackoff(tt.attempt, time.Second, time.Minute)
		if result != tt.expected {
			t.Errorf("calculateBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Workers != 3 {
		t.Errorf("DefaultConfig().Workers = %d, want 3", cfg.Workers)
	}
	if cfg.MaxAttempts != MaxAttempts {
		t.Errorf("DefaultConfig().MaxAttempts = %d, want %d", cfg.MaxAttempts, MaxAttempts)
	}
}

type receiver struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   [][]byte
	statuses []int // returned in order; 200 once exhausted
	calls    atomic.Int32
	got      chan struct{}
}

func newReceiver(statuses ...int) *receiver {
	return &receiver{statuses: statuses, got: make(chan struct{}, 16)}
}

func (r *receiver) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	body, _ := io.ReadAll(req.Body)
	n := int(r.calls.Add(1))

	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.bodies = append(r.bodies, body)
	status := http.StatusOK
	if n <= len(r.statuses) {
		status = r.statuses[n-1]
	}
	r.mu.Unlock()

	w.WriteHeader(status)
	r.got <- struct{}{}
}

func (r *receiver) wait(t *testing.T, n int) {
	t.Helper()
	for range n {
		select {
		case <-r.got:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for delivery, got %d calls", r.calls.Load())
		}
	}
}

func startDispatcher(t *testing.T, url, secret string) *Dispatcher {
	t.Helper()
	d := NewDispatcher(Config{
		URL:            url,
		Secret:         secret,
		Workers:        1,
		MaxAttempts:    3,
		InitialBackoff: 5 * time.Millisecond,
		MaxBackoff:     20 * time.Millisecond,
		HTTPClient:     &http.Client{Timeout: 2 * time.Second},
	}, testutil.TestLoggerSilent())
	d.Start(context.Background())
	t.Cleanup(d.Stop)
	return d
}

func TestDispatchDeliversSignedEvent(t *testing.T) {
	rcv := newReceiver()
	srv := httptest.NewServer(rcv)
	defer srv.Close()

	d := startDispatcher(t, srv.URL, "notify-secret")
	err := d.DispatchEvent(context.Background(), model.EventIdeaPublished, IdeaEventData{
		IdeaID:   7,
		BlogID:   3,
		Title:    "Hello",
		Status:   model.IdeaStatusCompleted,
		WPPostID: 123,
		PostURL:  "https://x/test-post",
	})
	if err != nil {
		t.Fatalf("DispatchEvent: %v", err)
	}
	rcv.wait(t, 1)

	rcv.mu.Lock()
	defer rcv.mu.Unlock()
	req, body := rcv.requests[0], rcv.bodies[0]

	if got := req.Header.Get(HeaderEvent); got != model.EventIdeaPublished {
		t.Errorf("%s = %q", HeaderEvent, got)
	}
	if req.Header.Get(HeaderDelivery) == "" {
		t.Errorf("%s header missing", HeaderDelivery)
	}
	sig := strings.TrimPrefix(req.Header.Get(HeaderSignature), "sha256=")
	if !VerifySignature(body, sig, "notify-secret") {
		t.Error("signature does not verify against body")
	}

	var ev struct {
		Type string        `json:"type"`
		Data IdeaEventData `json:"data"`
	}
	if err := json.Unmarshal(body, &ev); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if ev.Type != model.EventIdeaPublished || ev.Data.WPPostID != 123 || ev.Data.PostURL != "https://x/test-post" {
		t.Errorf("unexpected payload: %+v", ev)
	}
}

func TestDispatchRetriesServerErrors(t *testing.T) {
	rcv := newReceiver(http.StatusBadGateway, http.StatusTooManyRequests)
	srv := httptest.NewServer(rcv)
	defer srv.Close()

	d := startDispatcher(t, srv.URL, "")
	if err := d.DispatchEvent(context.Background(), model.EventIdeaFailed, IdeaEventData{IdeaID: 1}); err != nil {
		t.Fatalf("DispatchEvent: %v", err)
	}
	rcv.wait(t, 3)

	rcv.mu.Lock()
	defer rcv.mu.Unlock()
	if got := rcv.requests[2].Header.Get(HeaderAttempt); got != "3" {
		t.Errorf("third attempt header = %q, want 3", got)
	}
	if rcv.requests[0].Header.Get(HeaderSignature) != "" {
		t.Error("signature header sent without a secret")
	}
}

func TestDispatchDoesNotRetryClientErrors(t *testing.T) {
	rcv := newReceiver(http.StatusBadRequest)
	srv := httptest.NewServer(rcv)
	defer srv.Close()

	d := startDispatcher(t, srv.URL, "s")
	if err := d.DispatchEvent(context.Background(), model.EventIdeaFailed, IdeaEventData{IdeaID: 1}); err != nil {
		t.Fatalf("DispatchEvent: %v", err)
	}
	rcv.wait(t, 1)

	time.Sleep(100 * time.Millisecond)
	if n := rcv.calls.Load(); n != 1 {
		t.Errorf("receiver called %d times, want 1", n)
	}
}

func TestDispatchGivesUpAfterMaxAttempts(t *testing.T) {
	rcv := newReceiver(500, 500, 500, 500, 500)
	srv := httptest.NewServer(rcv)
	defer srv.Close()

	d := startDispatcher(t, srv.URL, "s")
	if err := d.DispatchEvent(context.Background(), model.EventIdeaFailed, IdeaEventData{IdeaID: 1}); err != nil {
		t.Fatalf("DispatchEvent: %v", err)
	}
	rcv.wait(t, 3)

	time.Sleep(100 * time.Millisecond)
	if n := rcv.calls.Load(); n != 3 {
		t.Errorf("receiver called %d times, want 3", n)
	}
}

func TestDispatchDisabled(t *testing.T) {
	d := NewDispatcher(Config{}, testutil.TestLoggerSilent())
	if d.Enabled() {
		t.Fatal("dispatcher without URL should be disabled")
	}
	if err := d.DispatchEvent(context.Background(), model.EventIdeaPublished, nil); err != nil {
		t.Errorf("DispatchEvent on disabled dispatcher: %v", err)
	}

	var nilDispatcher *Dispatcher
	if nilDispatcher.Enabled() {
		t.Error("nil dispatcher should be disabled")
	}
}

func TestDispatchQueueFull(t *testing.T) {
	d := NewDispatcher(Config{URL: "http://127.0.0.1:1", QueueSize: 1}, testutil.TestLoggerSilent())
	// Mark running without workers so the queue is never drained.
	d.running = true

	ctx := context.Background()
	if err := d.DispatchEvent(ctx, model.EventIdeaFailed, nil); err != nil {
		t.Fatalf("first DispatchEvent: %v", err)
	}
	if err := d.DispatchEvent(ctx, model.EventIdeaFailed, nil); err != ErrQueueFull {
		t.Errorf("second DispatchEvent error = %v, want ErrQueueFull", err)
	}
}
