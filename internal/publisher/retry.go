// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package publisher

import (
	"context"
	"fmt"
	"time"

	"github.com/olegiv/wpautoblog/internal/metrics"
	"github.com/olegiv/wpautoblog/internal/store"
	"github.com/olegiv/wpautoblog/internal/util"
)

// Backoff returns initial * 2^(attempts-1), capped at maxBackoff.
func Backoff(attempts int64, initial, maxBackoff time.Duration) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	backoff := initial
	for i := int64(1); i < attempts; i++ {
		backoff *= 2
		if backoff >= maxBackoff || backoff <= 0 {
			return maxBackoff
		}
	}
	return min(backoff, maxBackoff)
}

// SweepResult counts what one retry sweep changed.
type SweepResult struct {
	Released    int64
	StaleReset  int64
	SlotsPurged int64
}

// Sweep moves failed ideas whose backoff elapsed back to pending, returns
// abandoned claims to the queue and forgets old slot claims.
func (o *Orchestrator) Sweep(ctx context.Context) (SweepResult, error) {
	now := o.now().UTC()
	var res SweepResult

	err := store.RunInTx(ctx, o.db, func(q *store.Queries) error {
		var err error
		res.Released, err = q.ReleaseDueRetries(ctx, store.ReleaseDueRetriesParams{
			QueuedAt:  util.NullTimeFromValue(now),
			UpdatedAt: now,
			Now:       util.NullTimeFromValue(now),
		})
		if err != nil {
			return fmt.Errorf("releasing retries: %w", err)
		}

		res.StaleReset, err = q.ResetStaleClaims(ctx, store.ResetStaleClaimsParams{
			UpdatedAt:     now,
			ClaimedBefore: util.NullTimeFromValue(now.Add(-o.cfg.StaleClaimAfter)),
		})
		if err != nil {
			return fmt.Errorf("resetting stale claims: %w", err)
		}

		res.SlotsPurged, err = q.DeleteSlotsBefore(ctx, now.Add(-o.cfg.SlotRetention))
		if err != nil {
			return fmt.Errorf("purging slot claims: %w", err)
		}
		return nil
	})
	if err != nil {
		return SweepResult{}, err
	}

	metrics.RetriesReleased.Add(float64(res.Released))
	metrics.StaleClaimsReset.Add(float64(res.StaleReset))

	if res.Released > 0 || res.StaleReset > 0 {
		o.logger.Info("retry sweep",
			"released", res.Released,
			"stale_reset", res.StaleReset,
			"slots_purged", res.SlotsPurged)
	}
	return res, nil
}
