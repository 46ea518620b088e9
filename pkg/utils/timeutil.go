package utils

import "time"

// IsBusinessDay reports whether t falls on a weekday.
func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// AddBusinessDays returns from advanced by n business days (weekends
// skipped). n must be >= 0; n == 0 returns from unchanged.
func AddBusinessDays(from time.Time, n int) time.Time {
	t := from
	for i := 0; i < n; i++ {
		t = t.AddDate(0, 0, 1)
		for !IsBusinessDay(t) {
			t = t.AddDate(0, 0, 1)
		}
	}
	return t
}

// CalendarDaysBetween returns the number of whole calendar days from the
// date of a to the date of b (midnight to midnight, a's location).
func CalendarDaysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, a.Location())
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, a.Location())
	return int(bd.Sub(ad).Hours() / 24)
}

// DateString formats t as an ISO calendar date.
func DateString(t time.Time) string {
	return t.Format("2006-01-02")
}

// WithinMarketHours reports whether t is a weekday inside the inclusive
// [openH:openM, closeH:closeM] window on the local clock.
func WithinMarketHours(t time.Time, openH, openM, closeH, closeM int) bool {
	if !IsBusinessDay(t) {
		return false
	}
	open := time.Date(t.Year(), t.Month(), t.Day(), openH, openM, 0, 0, t.Location())
	close := time.Date(t.Year(), t.Month(), t.Day(), closeH, closeM, 0, 0, t.Location())
	return !t.Before(open) && !t.After(close)
}
