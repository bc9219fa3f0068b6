package calendar

import (
	"github.com/username/bizcal/pkg/dateutil"
)

// IsOnDate reports whether e occupies date d.
// A task sits on its start date only; a project covers [start, end] inclusive.
func IsOnDate(e Event, d dateutil.Date) bool {
	switch e.Kind {
	case KindProject:
		return !d.Before(e.StartDate) && !d.After(e.EffectiveEnd())
	default:
		return e.StartDate == d
	}
}

// IsToday compares against an explicit today so callers stay deterministic
func IsToday(d, today dateutil.Date) bool {
	return d == today
}

// GroupByDay buckets events under every date of w they occupy.
//
// Each window date has an entry, empty when nothing is on it. Events keep
// the order they were supplied in; a multi-day project shows up under every
// day it covers.
func GroupByDay(events []Event, w Window) map[dateutil.Date][]Event {
	groups := make(map[dateutil.Date][]Event, w.Days())
	for _, d := range w.Dates() {
		day := []Event{}
		for _, e := range events {
			if IsOnDate(e, d) {
				day = append(day, e)
			}
		}
		groups[d] = day
	}
	return groups
}

// Overlaps reports whether e's effective range intersects [rangeStart, rangeEnd]
func Overlaps(e Event, rangeStart, rangeEnd dateutil.Date) bool {
	return !e.StartDate.After(rangeEnd) && !e.EffectiveEnd().Before(rangeStart)
}

// Filter keeps the events overlapping w, in order
func Filter(events []Event, w Window) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if Overlaps(e, w.Start, w.End) {
			out = append(out, e)
		}
	}
	return out
}
