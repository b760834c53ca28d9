package schema

import (
	"regexp"
	"time"

	"sox-reconciler/internal/domain"
)

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseCutoff validates a strict ISO YYYY-MM-DD cutoff date. Wrong separators,
// two-digit years and impossible calendar dates are rejected.
func ParseCutoff(s string) (time.Time, error) {
	if !isoDatePattern.MatchString(s) {
		return time.Time{}, &domain.ValidationError{Field: "cutoff_date", Value: s, Reason: "expected YYYY-MM-DD"}
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, &domain.ValidationError{Field: "cutoff_date", Value: s, Reason: "not a calendar date"}
	}
	return t, nil
}

// DateOnly strips the clock and location, keeping the calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RollingWindow returns the twelve-month window ending on cutoff:
// [first day of (cutoff month + 1) minus one year, cutoff].
func RollingWindow(cutoff time.Time) (time.Time, time.Time) {
	c := DateOnly(cutoff)
	nextMonth := time.Date(c.Year(), c.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	return nextMonth.AddDate(-1, 0, 0), c
}

// MonthBounds returns the first and last calendar day of cutoff's month.
func MonthBounds(cutoff time.Time) (time.Time, time.Time) {
	c := DateOnly(cutoff)
	start := time.Date(c.Year(), c.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}

// InWindow reports whether t's calendar day lies in [start, end], both inclusive.
// A zero t is never in a window.
func InWindow(t, start, end time.Time) bool {
	if t.IsZero() {
		return false
	}
	d := DateOnly(t)
	return !d.Before(DateOnly(start)) && !d.After(DateOnly(end))
}
