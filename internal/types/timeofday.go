package types

import (
	"fmt"
	"strconv"
	"strings"

	ierr "github.com/gridbill/gridbill/internal/errors"
)

// MinuteOfDay is a time of day expressed as minutes since local midnight,
// in [0, 1440). "24:00" normalizes to 0 so tariff documents can write
// end-of-day bounds naturally.
type MinuteOfDay int

// ParseTimeOfDay parses an "HH:MM" string. "24:00" is accepted and rolls
// over to midnight.
func ParseTimeOfDay(s string) (MinuteOfDay, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "24:00" {
		return 0, nil
	}

	parts := strings.Split(trimmed, ":")
	if len(parts) != 2 {
		return 0, ierr.NewErrorf("invalid time of day: %q", s).
			WithHint("Time of day must be in HH:MM format").
			Mark(ierr.ErrValidation)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, ierr.NewErrorf("invalid hour in time of day: %q", s).
			WithHint("Hour must be between 00 and 23, or use 24:00 for end of day").
			Mark(ierr.ErrValidation)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, ierr.NewErrorf("invalid minute in time of day: %q", s).
			WithHint("Minute must be between 00 and 59").
			Mark(ierr.ErrValidation)
	}
	return MinuteOfDay(hour*60 + minute), nil
}

// MustParseTimeOfDay is ParseTimeOfDay for trusted literals; it panics on error.
func MustParseTimeOfDay(s string) MinuteOfDay {
	m, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m MinuteOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// TimeOfDayRange is a half-open [Start, End) daily window. Start > End
// wraps across midnight (e.g. 22:00-06:00); Start == End covers the full day.
type TimeOfDayRange struct {
	Start MinuteOfDay
	End   MinuteOfDay
}

// Contains reports whether the minute falls within the range.
func (r TimeOfDayRange) Contains(m MinuteOfDay) bool {
	if r.Start == r.End {
		return true
	}
	if r.Start < r.End {
		return m >= r.Start && m < r.End
	}
	return m >= r.Start || m < r.End
}

// IsAllDay reports whether the range covers every minute of the day.
func (r TimeOfDayRange) IsAllDay() bool {
	return r.Start == r.End
}
