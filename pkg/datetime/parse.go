// Package datetime provides date and time utility functions.
//
// Dates cross the engine boundary as strings. They are parsed here into a
// (time.Time, bool) pair so that a missing or malformed date becomes an
// explicit "not available" instead of a zero time leaking into arithmetic.
package datetime

import (
	"strings"
	"time"

	"github.com/iwvelando/cohousing-finance/pkg/constants"
)

const (
	// DateLayout is the format expected in scenario files and is also the
	// output date format.
	DateLayout = constants.DateLayout

	monthLayout = "2006-01"
)

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseDate parses a calendar date. It accepts YYYY-MM-DD, RFC 3339
// timestamps and YYYY-MM (first of the month). The boolean is false for
// empty or unparsable input.
func ParseDate(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{DateLayout, time.RFC3339, monthLayout} {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return truncateDay(t), true
		}
	}
	return time.Time{}, false
}

// Format renders a date with DateLayout.
func Format(t time.Time) string {
	return t.Format(DateLayout)
}

// YearsHeld returns the fractional number of years between from and to,
// clamped to zero when to is before from.
func YearsHeld(from, to time.Time) float64 {
	days := truncateDay(to).Sub(truncateDay(from)).Hours() / 24
	if days <= 0 {
		return 0
	}
	return days / constants.DaysPerYear
}

// MonthsHeld returns the fractional number of months between from and to,
// clamped to zero.
func MonthsHeld(from, to time.Time) float64 {
	return YearsHeld(from, to) * constants.MonthsPerYear
}

// CalculateYearsHeld parses both dates and returns the years elapsed from
// the reference date to the event date. The boolean is false when either
// date is missing or malformed, in which case no recomputation should happen.
func CalculateYearsHeld(referenceDate, eventDate string) (float64, bool) {
	from, ok := ParseDate(referenceDate)
	if !ok {
		return 0, false
	}
	to, ok := ParseDate(eventDate)
	if !ok {
		return 0, false
	}
	return YearsHeld(from, to), true
}

// OnOrBefore reports whether a is on or before b, comparing calendar days.
func OnOrBefore(a, b time.Time) bool {
	return !truncateDay(a).After(truncateDay(b))
}

// OffsetDate returns the string-formatted date offset by the given number of
// months relative to the given date.
func OffsetDate(date, layout string, months int) (string, error) {
	t, err := time.Parse(layout, date)
	if err != nil {
		return date, err
	}
	return t.AddDate(0, months, 0).Format(layout), nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
