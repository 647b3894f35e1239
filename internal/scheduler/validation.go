// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// MinEveryInterval is the shortest "@every" interval accepted for a job.
const MinEveryInterval = 10 * time.Second

// ErrInvalidSchedule wraps every schedule validation failure.
var ErrInvalidSchedule = errors.New("invalid schedule")

// scheduleParser accepts standard five-field expressions and descriptors.
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule checks that expr is a cron expression or descriptor the
// driver can run. "@every" intervals shorter than MinEveryInterval are
// rejected because every tick hits the database.
func ValidateSchedule(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return fmt.Errorf("%w: schedule is required", ErrInvalidSchedule)
	}

	if rest, ok := strings.CutPrefix(expr, "@every "); ok {
		d, err := time.ParseDuration(strings.TrimSpace(rest))
		if err != nil {
			return fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, expr, err)
		}
		if d < MinEveryInterval {
			return fmt.Errorf("%w: %q is shorter than %s", ErrInvalidSchedule, expr, MinEveryInterval)
		}
		return nil
	}

	if _, err := scheduleParser.Parse(expr); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, expr, err)
	}
	return nil
}
