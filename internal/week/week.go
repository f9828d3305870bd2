// Package week computes the Monday-aligned week window that owns a timestamp.
//
// Every timesheet is keyed by the Monday of the local calendar week it covers.
// The local calendar date is taken in an explicit *time.Location (the company
// timezone from config), never in the process default zone: a clock-out at
// 23:30 Sunday in Jakarta must not land in Monday's week just because the
// server runs in UTC.
package week

import "time"

// Window is the [Start, End] range of one timesheet week. Start is always a
// Monday at local midnight, End is Start + 6 days (the Sunday).
type Window struct {
	Start time.Time
	End   time.Time
}

// Resolve returns the week window owning t's local calendar date in loc.
// It is total and idempotent: every timestamp inside [Start, End] resolves
// to the same window, regardless of time of day.
func Resolve(t time.Time, loc *time.Location) Window {
	y, m, d := t.In(loc).Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)

	back := int(day.Weekday()) - 1
	if day.Weekday() == time.Sunday {
		back = 6
	}

	start := day.AddDate(0, 0, -back)
	return Window{Start: start, End: start.AddDate(0, 0, 6)}
}

// Contains reports whether the local calendar date of t falls inside w.
func (w Window) Contains(t time.Time) bool {
	y, m, d := t.In(w.Start.Location()).Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, w.Start.Location())
	return !day.Before(w.Start) && !day.After(w.End)
}

// DayIndex is a Monday-based weekday index: Monday = 0 ... Sunday = 6.
// It exists so hour columns are addressed by array index instead of
// column-name strings.
type DayIndex int

const (
	Monday DayIndex = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = [7]string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

func (d DayIndex) String() string {
	if d < Monday || d > Sunday {
		return "invalid"
	}
	return dayNames[d]
}

// Valid reports whether d is one of the seven defined indexes.
func (d DayIndex) Valid() bool {
	return d >= Monday && d <= Sunday
}

// DayOf returns the Monday-based index of t's local calendar day in loc.
func DayOf(t time.Time, loc *time.Location) DayIndex {
	wd := t.In(loc).Weekday()
	if wd == time.Sunday {
		return Sunday
	}
	return DayIndex(int(wd) - 1)
}

// ParseDay maps the short lowercase day names used on the wire ("mon".."sun")
// to their index.
func ParseDay(s string) (DayIndex, bool) {
	for i, n := range dayNames {
		if s == n {
			return DayIndex(i), true
		}
	}
	return 0, false
}
