package calendar

import (
	"github.com/username/bizcal/pkg/dateutil"
)

// Span is the horizontal placement of an event bar as percentages of the view width
type Span struct {
	LeftPercent  float64 `json:"leftPercent"`
	WidthPercent float64 `json:"widthPercent"`
}

// ComputeSpan places e inside [viewStart, viewEnd] spread over totalDays.
//
// The event is clamped to the view first. Callers must filter with Overlaps
// beforehand and pass totalDays > 0; neither is checked here.
func ComputeSpan(e Event, viewStart, viewEnd dateutil.Date, totalDays int) Span {
	start, end := clamp(e, viewStart, viewEnd)
	total := float64(totalDays)
	return Span{
		LeftPercent:  float64(dateutil.DaysBetween(viewStart, start)) / total * 100,
		WidthPercent: float64(dateutil.DaysBetween(start, end)+1) / total * 100,
	}
}

func clamp(e Event, viewStart, viewEnd dateutil.Date) (dateutil.Date, dateutil.Date) {
	start, end := e.StartDate, e.EffectiveEnd()
	if start.Before(viewStart) {
		start = viewStart
	}
	if end.After(viewEnd) {
		end = viewEnd
	}
	return start, end
}

// Bar is an event positioned for bar-based week and day layouts
type Bar struct {
	Event Event `json:"event"`
	Span

	// ContinuesBefore/After mark a bar cut off by the view edge
	ContinuesBefore bool `json:"continuesBefore"`
	ContinuesAfter  bool `json:"continuesAfter"`
}

// LayoutBars positions every event of events that overlaps w
func LayoutBars(events []Event, w Window) []Bar {
	total := w.Days()
	bars := make([]Bar, 0, len(events))
	for _, e := range events {
		if !Overlaps(e, w.Start, w.End) {
			continue
		}
		bars = append(bars, Bar{
			Event:           e,
			Span:            ComputeSpan(e, w.Start, w.End, total),
			ContinuesBefore: e.StartDate.Before(w.Start),
			ContinuesAfter:  e.EffectiveEnd().After(w.End),
		})
	}
	return bars
}
