package types

import (
	"errors"
	"time"
)

// Period is a named time window used to scope aggregation.
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

var ErrInvalidPeriod = errors.New("period must be one of week, month, year, all")

// ParsePeriod parses a period name. The empty string defaults to PeriodMonth.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodWeek, PeriodMonth, PeriodYear, PeriodAll:
		return Period(s), nil
	case "":
		return PeriodMonth, nil
	}
	return "", ErrInvalidPeriod
}

// Range is a closed date window. The zero Range is unbounded and
// contains every instant.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Unbounded reports whether the range has no boundaries.
func (r Range) Unbounded() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Contains reports whether t falls inside the range, boundaries included.
func (r Range) Contains(t time.Time) bool {
	if r.Unbounded() {
		return true
	}
	return !t.Before(r.Start) && !t.After(r.End)
}

// RangeFor returns the date window for a period relative to now.
// Weeks start on Monday. offset shifts the window back by whole periods,
// so offset=1 is the directly preceding week, month or year, which is
// what percentage-change metrics compare against. PeriodAll is always
// unbounded regardless of offset.
func RangeFor(p Period, offset int, now time.Time) Range {
	switch p {
	case PeriodWeek:
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday belongs to the week that started 6 days earlier
		}
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		monday := day.AddDate(0, 0, -(weekday-1)-7*offset)
		return Range{
			Start: monday,
			End:   monday.AddDate(0, 0, 7).Add(-time.Nanosecond),
		}
	case PeriodMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -offset, 0)
		return Range{
			Start: start,
			End:   start.AddDate(0, 1, 0).Add(-time.Nanosecond),
		}
	case PeriodYear:
		start := time.Date(now.Year()-offset, time.January, 1, 0, 0, 0, 0, now.Location())
		return Range{
			Start: start,
			End:   start.AddDate(1, 0, 0).Add(-time.Nanosecond),
		}
	}

	return Range{}
}
