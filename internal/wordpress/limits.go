// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package wordpress

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/olegiv/wpautoblog/internal/metrics"
)

// maxTrackedHosts bounds the per-host maps.
const maxTrackedHosts = 10000

// limiterCache is a per-host rate limiter cache with double-check locking.
type limiterCache struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

func newLimiterCache(rps float64, burst int) *limiterCache {
	return &limiterCache{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

// get returns the rate limiter for a host, creating one if needed.
func (lc *limiterCache) get(host string) *rate.Limiter {
	lc.mu.RLock()
	limiter, exists := lc.limiters[host]
	lc.mu.RUnlock()

	if exists {
		return limiter
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists = lc.limiters[host]; exists {
		return limiter
	}

	if len(lc.limiters) >= maxTrackedHosts {
		lc.limiters = make(map[string]*rate.Limiter)
	}
	limiter = rate.NewLimiter(lc.rate, lc.burst)
	lc.limiters[host] = limiter
	return limiter
}

// BreakerSettings configures the per-host circuit breakers.
type BreakerSettings struct {
	// ConsecutiveFailures opens the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before a probe.
	OpenTimeout time.Duration
	// Interval resets counts while closed.
	Interval time.Duration
}

// DefaultBreakerSettings returns the production breaker tuning.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		ConsecutiveFailures: 5,
		OpenTimeout:         2 * time.Minute,
		Interval:            5 * time.Minute,
	}
}

// breakerSet holds one circuit breaker per site host, so a dead blog does
// not slow down the others.
type breakerSet struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
	settings BreakerSettings
	logger   *slog.Logger
}

func newBreakerSet(settings BreakerSettings, logger *slog.Logger) *breakerSet {
	return &breakerSet{
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
		settings: settings,
		logger:   logger,
	}
}

func (bs *breakerSet) get(host string) *gobreaker.CircuitBreaker[any] {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if cb, ok := bs.breakers[host]; ok {
		return cb
	}
	if len(bs.breakers) >= maxTrackedHosts {
		bs.breakers = make(map[string]*gobreaker.CircuitBreaker[any])
	}

	threshold := bs.settings.ConsecutiveFailures
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        host,
		MaxRequests: 1,
		Interval:    bs.settings.Interval,
		Timeout:     bs.settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Client errors (bad credentials, validation) say nothing about site health.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var se *StatusError
			if errors.As(err, &se) {
				return !se.Retryable()
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			bs.logger.Warn("wordpress circuit breaker state change",
				"host", name, "from", from.String(), "to", to.String())
			metrics.SetBreakerState(name, stateToInt(to))
		},
	})
	bs.breakers[host] = cb
	metrics.SetBreakerState(host, 0)
	return cb
}

func stateToInt(state gobreaker.State) int {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
