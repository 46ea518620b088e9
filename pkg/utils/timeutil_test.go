package utils

import (
	"testing"
	"time"
)

func TestAddBusinessDays(t *testing.T) {
	// 2026-01-05 is a Monday.
	monday := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		from time.Time
		n    int
		want string
	}{
		{monday, 0, "2026-01-05"},
		{monday, 2, "2026-01-07"},
		{monday, 4, "2026-01-09"},               // Friday
		{monday, 5, "2026-01-12"},               // skips the weekend
		{monday.AddDate(0, 0, 4), 2, "2026-01-13"}, // Friday + 2 = Tuesday
	}
	for _, tt := range tests {
		if got := DateString(AddBusinessDays(tt.from, tt.n)); got != tt.want {
			t.Errorf("AddBusinessDays(%s, %d) = %s, want %s",
				DateString(tt.from), tt.n, got, tt.want)
		}
	}
}

func TestCalendarDaysBetween(t *testing.T) {
	a := time.Date(2026, 1, 5, 23, 0, 0, 0, time.UTC)
	b := time.Date(2026, 1, 8, 1, 0, 0, 0, time.UTC)
	if got := CalendarDaysBetween(a, b); got != 3 {
		t.Errorf("expected 3 days, got %d", got)
	}
	if got := CalendarDaysBetween(a, a); got != 0 {
		t.Errorf("expected 0 days, got %d", got)
	}
}

func TestWithinMarketHours(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"mid session", time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC), true},
		{"at open", time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC), true},
		{"at close", time.Date(2026, 1, 5, 16, 0, 0, 0, time.UTC), true},
		{"before open", time.Date(2026, 1, 5, 9, 29, 0, 0, time.UTC), false},
		{"after close", time.Date(2026, 1, 5, 16, 1, 0, 0, time.UTC), false},
		{"saturday", time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC), false},
		{"sunday", time.Date(2026, 1, 11, 12, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithinMarketHours(tt.at, 9, 30, 16, 0); got != tt.want {
				t.Errorf("WithinMarketHours(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}
