// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package wordpress

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrCircuitOpen is returned while a site's breaker rejects requests.
var ErrCircuitOpen = errors.New("wordpress: site temporarily unavailable (circuit open)")

// StatusError is a non-success response from the WordPress REST API.
type StatusError struct {
	Operation  string
	StatusCode int
	Code       string // WordPress error code, e.g. "rest_cannot_create"
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("wordpress %s: status %d (%s): %s", e.Operation, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("wordpress %s: status %d: %s", e.Operation, e.StatusCode, e.Message)
}

// Retryable reports whether the same request may succeed later.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= 500
}

// NetworkError wraps a transport failure: DNS, connect, TLS, or timeout.
type NetworkError struct {
	Operation string
	Err       error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("wordpress %s: %v", e.Operation, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsRetryable classifies any error returned by Client.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCircuitOpen) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	var ne *NetworkError
	return errors.As(err, &ne)
}

type wpErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusValidator turns non-2xx responses into a *StatusError.
func statusValidator(op string) func(*http.Response) error {
	return func(r *http.Response) error {
		if r.StatusCode >= 200 && r.StatusCode < 300 {
			return nil
		}
		raw, _ := io.ReadAll(io.LimitReader(r.Body, 4096))
		se := &StatusError{Operation: op, StatusCode: r.StatusCode}
		var body wpErrorBody
		if err := json.Unmarshal(raw, &body); err == nil && body.Code != "" {
			se.Code = body.Code
			se.Message = body.Message
		} else {
			se.Message = strings.TrimSpace(string(raw))
			if len(se.Message) > 200 {
				se.Message = se.Message[:200]
			}
		}
		return se
	}
}
