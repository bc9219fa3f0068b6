package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/username/bizcal/pkg/dateutil"
)

// Granularity is the calendar zoom level
type Granularity string

const (
	GranularityMonth Granularity = "month"
	GranularityWeek  Granularity = "week"
	GranularityDay   Granularity = "day"
)

// DefaultWeekStart is the first column of every week and month grid
const DefaultWeekStart = time.Sunday

// ParseGranularity accepts month, week or day (case-insensitive)
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case GranularityMonth, GranularityWeek, GranularityDay:
		return g, nil
	default:
		return "", fmt.Errorf("unknown granularity %q: expected month, week or day", s)
	}
}

// Window is the inclusive range of whole dates visible in a view
type Window struct {
	Start dateutil.Date `json:"start"`
	End   dateutil.Date `json:"end"`
}

// ComputeWindow returns the visible window for anchor at granularity g.
//
// Month windows are padded out to whole weeks so the grid is uniform. An
// unrecognized granularity yields the single-day window.
func ComputeWindow(anchor dateutil.Date, g Granularity, weekStart time.Weekday) Window {
	switch g {
	case GranularityMonth:
		return Window{
			Start: anchor.StartOfMonth().StartOfWeek(weekStart),
			End:   anchor.EndOfMonth().EndOfWeek(weekStart),
		}
	case GranularityWeek:
		return Window{
			Start: anchor.StartOfWeek(weekStart),
			End:   anchor.EndOfWeek(weekStart),
		}
	default:
		return Window{Start: anchor, End: anchor}
	}
}

// Days returns the inclusive number of dates in the window
func (w Window) Days() int {
	return dateutil.DaysBetween(w.Start, w.End) + 1
}

// Dates lists every date of the window in order
func (w Window) Dates() []dateutil.Date {
	n := w.Days()
	if n <= 0 {
		return nil
	}
	dates := make([]dateutil.Date, n)
	for i := range dates {
		dates[i] = w.Start.AddDays(i)
	}
	return dates
}

// Contains reports whether d lies inside the window
func (w Window) Contains(d dateutil.Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

func (w Window) String() string {
	return w.Start.String() + ".." + w.End.String()
}

// FetchRange is a window expressed as UTC epoch milliseconds for upstream
// queries. ToMs is exclusive: UTC midnight of the day after the window ends.
type FetchRange struct {
	FromMs int64
	ToMs   int64
}

// FetchRange converts the window into epoch bounds
func (w Window) FetchRange() FetchRange {
	return FetchRange{
		FromMs: w.Start.UnixMilliUTC(),
		ToMs:   w.End.AddDays(1).UnixMilliUTC(),
	}
}

// Includes reports whether an epoch-ms value lies in [FromMs, ToMs)
func (r FetchRange) Includes(ms int64) bool {
	return ms >= r.FromMs && ms < r.ToMs
}
