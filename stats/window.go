package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilylbgg/cdi-logger/attendance"
)

// WindowKind selects the calendar span a query covers.
type WindowKind string

const (
	Day   WindowKind = "day"
	Week  WindowKind = "week"
	Month WindowKind = "month"
)

// ParseWindowKind accepts the English kinds and the labels of the original
// statistics screen (jour, semaine, mois).
func ParseWindowKind(s string) (WindowKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "jour":
		return Day, nil
	case "week", "semaine":
		return Week, nil
	case "month", "mois":
		return Month, nil
	}
	return "", fmt.Errorf("unknown window %q (want day, week or month)", s)
}

// Range is an inclusive span of ISO dates.
type Range struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Contains compares ISO date strings, whose lexicographic order is their
// chronological order.
func (r Range) Contains(date string) bool {
	return r.Start <= date && date <= r.End
}

func (r Range) String() string {
	return r.Start + ".." + r.End
}

// WindowFor computes the range of the given kind containing ref. Weeks run
// Monday to Sunday; months from the first to the last calendar day.
func WindowFor(ref time.Time, kind WindowKind) Range {
	day := startOfDay(ref)
	switch kind {
	case Week:
		start := day.AddDate(0, 0, -weekdayIndex(day))
		return newRange(start, start.AddDate(0, 0, 6))
	case Month:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		return newRange(start, start.AddDate(0, 1, -1))
	default:
		return newRange(day, day)
	}
}

// Shift moves ref by delta days, weeks or months. Month shifts keep the day
// of month when possible and clamp it to the length of the target month.
func Shift(ref time.Time, kind WindowKind, delta int) time.Time {
	switch kind {
	case Week:
		return ref.AddDate(0, 0, 7*delta)
	case Month:
		first := time.Date(ref.Year(), ref.Month()+time.Month(delta), 1,
			ref.Hour(), ref.Minute(), ref.Second(), ref.Nanosecond(), ref.Location())
		last := first.AddDate(0, 1, -1).Day()
		return first.AddDate(0, 0, min(ref.Day(), last)-1)
	default:
		return ref.AddDate(0, 0, delta)
	}
}

// ParseDate parses an ISO date; an empty string means today according to now.
func ParseDate(s string, now func() time.Time) (time.Time, error) {
	if s == "" {
		return startOfDay(now()), nil
	}
	t, err := time.Parse(attendance.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

// weekdayIndex numbers days from Monday = 0 to Sunday = 6.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func newRange(start, end time.Time) Range {
	return Range{
		Start: start.Format(attendance.DateLayout),
		End:   end.Format(attendance.DateLayout),
	}
}
