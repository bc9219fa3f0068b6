package main

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/username/bizcal/internal/agenda"
	"github.com/username/bizcal/internal/calendar"
)

const (
	cellWidth = 6
	dayTrack  = 42
)

func renderView(w io.Writer, v *agenda.View, weekStart time.Weekday, verbose bool) {
	switch v.Granularity {
	case calendar.GranularityMonth:
		fmt.Fprintf(w, "📅 %s %d  (%s)\n\n", v.Anchor.Month, v.Anchor.Year, v.Window)
		renderMonthGrid(w, v, weekStart)
		fmt.Fprintln(w)
		renderDays(w, v, false, verbose)
	case calendar.GranularityWeek:
		fmt.Fprintf(w, "📅 Week of %s  (%s)\n\n", v.Window.Start, v.Window)
		renderDays(w, v, true, verbose)
		renderBars(w, v, 7*cellWidth)
	default:
		fmt.Fprintf(w, "📅 %s, %s\n\n", v.Anchor.Weekday(), v.Anchor)
		renderDays(w, v, true, verbose)
		renderBars(w, v, dayTrack)
	}

	if len(v.Skipped) > 0 {
		fmt.Fprintf(w, "\n⚠️  Skipped %d malformed record(s)\n", len(v.Skipped))
		if verbose {
			for _, reason := range v.Skipped {
				fmt.Fprintf(w, "   • %s\n", reason)
			}
		}
	}
}

func renderMonthGrid(w io.Writer, v *agenda.View, weekStart time.Weekday) {
	var header strings.Builder
	for i := 0; i < 7; i++ {
		name := ((weekStart + time.Weekday(i)) % 7).String()[:3]
		fmt.Fprintf(&header, "%-*s", cellWidth, " "+name)
	}
	fmt.Fprintln(w, strings.TrimRight(header.String(), " "))

	for _, week := range v.Weeks() {
		var row strings.Builder
		for _, day := range week {
			row.WriteString(monthCell(day))
		}
		fmt.Fprintln(w, strings.TrimRight(row.String(), " "))
	}
}

// monthCell renders " 12 *" style cells: days outside the month are
// parenthesized, * marks today and + marks days with events
func monthCell(day agenda.Day) string {
	num := fmt.Sprintf(" %2d ", day.Date.Day)
	if !day.InMonth {
		num = fmt.Sprintf("(%2d)", day.Date.Day)
	}

	mark := " "
	switch {
	case day.IsToday:
		mark = "*"
	case len(day.Events) > 0:
		mark = "+"
	}
	return num + mark + " "
}

func renderDays(w io.Writer, v *agenda.View, showEmpty bool, verbose bool) {
	for _, day := range v.Days {
		if len(day.Events) == 0 && !showEmpty {
			continue
		}

		label := fmt.Sprintf("%s %s", day.Date.Weekday().String()[:3], day.Date)
		if day.IsToday {
			label += " (today)"
		}
		fmt.Fprintln(w, label)

		if len(day.Events) == 0 {
			fmt.Fprintln(w, "   -")
			continue
		}
		for _, e := range sortForDisplay(day.Events) {
			fmt.Fprintf(w, "   %-13s %s\n", timeLabel(e), eventLabel(e))
			if verbose {
				renderDetails(w, e)
			}
		}
	}
}

// sortForDisplay puts all-day entries first, then timed tasks by start time.
// Ties go to the more urgent task.
func sortForDisplay(events []calendar.Event) []calendar.Event {
	sorted := make([]calendar.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.HasTime() != b.HasTime() {
			return !a.HasTime()
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.Priority.Rank() > b.Priority.Rank()
	})
	return sorted
}

func timeLabel(e calendar.Event) string {
	if e.HasTime() {
		return e.TimeRange()
	}
	return "all day"
}

func eventLabel(e calendar.Event) string {
	label := fmt.Sprintf("[%s] %s (%s)", e.Kind, e.Title, e.Status)
	if e.Kind == calendar.KindTask && e.Priority != calendar.PriorityMedium {
		label += " !" + string(e.Priority)
	}
	if e.IsMultiDay() {
		label += fmt.Sprintf(" %s..%s", e.StartDate, e.EffectiveEnd())
	}
	return label
}

func renderDetails(w io.Writer, e calendar.Event) {
	if e.Description != "" {
		fmt.Fprintf(w, "   %13s %s\n", "", e.Description)
	}
	if e.ClientRef != "" {
		fmt.Fprintf(w, "   %13s client: %s\n", "", e.ClientRef)
	}
	if len(e.AssigneeRefs) > 0 {
		fmt.Fprintf(w, "   %13s assignees: %s\n", "", strings.Join(e.AssigneeRefs, ", "))
	}
}

func renderBars(w io.Writer, v *agenda.View, width int) {
	if len(v.Bars) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, bar := range v.Bars {
		fmt.Fprintf(w, "|%s| %s\n", barTrack(bar, width), bar.Event.Title)
	}
}

// barTrack draws a bar of '=' across a track width columns wide. Ends
// cut off by the window edge are drawn as '<' and '>'.
func barTrack(bar calendar.Bar, width int) string {
	start := int(math.Round(bar.LeftPercent / 100 * float64(width)))
	n := int(math.Round(bar.WidthPercent / 100 * float64(width)))
	start = min(max(start, 0), width-1)
	n = min(max(n, 1), width-start)

	track := []byte(strings.Repeat(" ", width))
	for i := start; i < start+n; i++ {
		track[i] = '='
	}
	if bar.ContinuesBefore {
		track[start] = '<'
	}
	if bar.ContinuesAfter {
		track[start+n-1] = '>'
	}
	return string(track)
}
