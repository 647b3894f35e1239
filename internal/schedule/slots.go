// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package schedule decides when a blog is due to publish and promotes its
// oldest draft idea into the publish queue.
package schedule

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
	_ "time/tzdata" // zone database for hosts without /usr/share/zoneinfo
)

const minutesPerDay = 24 * 60

// MaxPostsPerDay keeps every slot on a distinct minute.
const MaxPostsPerDay = minutesPerDay

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Errors returned by slot helpers.
var (
	ErrInvalidClock       = errors.New("schedule time must be a 24h HH:MM string")
	ErrInvalidPostsPerDay = errors.New("posts per day out of range")
)

// ValidClock reports whether s is a zero-padded 24h "HH:MM" string.
func ValidClock(s string) bool {
	return clockPattern.MatchString(s)
}

// ParseClock returns the minute of day for an "HH:MM" string.
func ParseClock(s string) (int, error) {
	if !ValidClock(s) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	h, _ := strconv.Atoi(s[:2])
	m, _ := strconv.Atoi(s[3:])
	return h*60 + m, nil
}

// FormatClock renders a minute of day as "HH:MM".
func FormatClock(minute int) string {
	minute = ((minute % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// SlotMinutes divides the day into n even intervals starting at base and
// returns the minute of day of each slot, in order of offset from base.
func SlotMinutes(base string, n int) ([]int, error) {
	start, err := ParseClock(base)
	if err != nil {
		return nil, err
	}
	if n < 1 || n > MaxPostsPerDay {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPostsPerDay, n)
	}

	slots := make([]int, n)
	for i := range n {
		slots[i] = (start + i*minutesPerDay/n) % minutesPerDay
	}
	return slots, nil
}

// Slots is SlotMinutes formatted as "HH:MM" strings.
//
// Slots("08:00", 4) returns 08:00, 14:00, 20:00, 02:00.
func Slots(base string, n int) ([]string, error) {
	minutes, err := SlotMinutes(base, n)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(minutes))
	for i, m := range minutes {
		out[i] = FormatClock(m)
	}
	return out, nil
}

// Spacing is the interval between consecutive slots for n posts per day.
func Spacing(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	return 24 * time.Hour / time.Duration(n)
}

// ActiveSlot returns the slot instant whose window [slot, slot+tolerance)
// contains localNow. Slots of the previous local day are considered so a
// window crossing midnight still matches. Tolerance is clamped to the slot
// spacing and raised to one minute when smaller. When windows overlap the
// latest slot wins.
func ActiveSlot(localNow time.Time, slots []int, tolerance time.Duration) (time.Time, bool) {
	if len(slots) == 0 {
		return time.Time{}, false
	}
	if spacing := Spacing(len(slots)); tolerance > spacing {
		tolerance = spacing
	}
	if tolerance < time.Minute {
		tolerance = time.Minute
	}

	loc := localNow.Location()
	y, m, d := localNow.Date()

	var (
		best  time.Time
		found bool
	)
	for _, dayOffset := range []int{0, -1} {
		for _, minute := range slots {
			slot := time.Date(y, m, d+dayOffset, minute/60, minute%60, 0, 0, loc)
			if localNow.Before(slot) || !localNow.Before(slot.Add(tolerance)) {
				continue
			}
			if !found || slot.After(best) {
				best, found = slot, true
			}
		}
	}
	return best, found
}

// LocalDay returns the bounds of the local calendar day containing t.
func LocalDay(t time.Time) (start, end time.Time) {
	y, m, d := t.Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	end = time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
	return start, end
}

// Quota is the effective posts-per-day limit for a blog: its own setting
// capped by the owner's plan. Zero means unlimited.
func Quota(blogPostsPerDay, planPostsPerDay int64) int64 {
	switch {
	case blogPostsPerDay <= 0:
		return planPostsPerDay
	case planPostsPerDay <= 0:
		return blogPostsPerDay
	default:
		return min(blogPostsPerDay, planPostsPerDay)
	}
}

// ResolveLocation loads name, falling back to fallback and then UTC.
// The boolean is false when name could not be used.
func ResolveLocation(name, fallback string) (*time.Location, bool) {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc, true
		}
	}
	if loc, err := time.LoadLocation(fallback); err == nil {
		return loc, name == ""
	}
	return time.UTC, false
}
