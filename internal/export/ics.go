// Package export serializes calendar events as iCalendar (RFC 5545).
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/username/bizcal/internal/calendar"
	"github.com/username/bizcal/pkg/dateutil"
)

const (
	productName   = "bizcal"
	defaultDomain = "bizcal.local"

	dateLayout     = "20060102"
	floatingLayout = "20060102T150405"
)

// Options controls calendar-level properties
type Options struct {
	// Name is published as X-WR-CALNAME when set
	Name string
	// Domain is the right-hand side of every UID
	Domain string
	// Now stamps DTSTAMP; zero means time.Now()
	Now time.Time
}

// Calendar builds a VCALENDAR with one VEVENT per event.
//
// Projects and untimed tasks become all-day events with an exclusive end
// date. Timed tasks use floating local times, so the calendar date a task
// was filed under never moves with the reader's zone.
func Calendar(events []calendar.Event, opts Options) *ics.Calendar {
	if opts.Domain == "" {
		opts.Domain = defaultDomain
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	cal := ics.NewCalendarFor(productName)
	cal.SetMethod(ics.MethodPublish)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}

	for _, e := range events {
		addEvent(cal, e, opts)
	}
	return cal
}

func addEvent(cal *ics.Calendar, e calendar.Event, opts Options) {
	ve := cal.AddEvent(fmt.Sprintf("%s-%s@%s", e.Kind, e.ID, opts.Domain))
	ve.SetDtStampTime(opts.Now.UTC())
	ve.SetSummary(e.Title)
	if e.Description != "" {
		ve.SetDescription(e.Description)
	}

	if start, end, ok := clockRange(e); ok {
		ve.SetProperty(ics.ComponentPropertyDtStart, start)
		if end != "" {
			ve.SetProperty(ics.ComponentPropertyDtEnd, end)
		}
	} else {
		ve.SetAllDayStartAt(e.StartDate.Time())
		ve.SetAllDayEndAt(e.EffectiveEnd().AddDays(1).Time())
	}

	ve.SetProperty(ics.ComponentPropertyCategories, strings.ToUpper(string(e.Kind)))
	ve.SetProperty(ics.ComponentPropertyStatus, eventStatus(e.Status))
	ve.SetProperty(ics.ComponentProperty("X-BIZCAL-STATUS"), string(e.Status))
	if e.Kind == calendar.KindTask {
		ve.SetProperty(ics.ComponentPropertyPriority, fmt.Sprint(icsPriority(e.Priority)))
	}
	if e.ClientRef != "" {
		ve.SetProperty(ics.ComponentProperty("X-BIZCAL-CLIENT"), e.ClientRef)
	}
}

// clockRange returns floating DTSTART/DTEND values for a timed task.
// An end time before the start is dropped.
func clockRange(e calendar.Event) (string, string, bool) {
	if !e.HasTime() {
		return "", "", false
	}
	start, ok := atClock(e.StartDate, e.StartTime)
	if !ok {
		return "", "", false
	}
	end, ok := atClock(e.StartDate, e.EndTime)
	if !ok || end.Before(start) {
		return start.Format(floatingLayout), "", true
	}
	return start.Format(floatingLayout), end.Format(floatingLayout), true
}

func atClock(d dateutil.Date, clock string) (time.Time, bool) {
	hm, err := time.Parse("15:04", strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, false
	}
	return d.Time().Add(time.Duration(hm.Hour())*time.Hour + time.Duration(hm.Minute())*time.Minute), true
}

// eventStatus maps a record status onto the three VEVENT statuses
func eventStatus(s calendar.Status) string {
	switch s {
	case calendar.StatusCancelled:
		return string(ics.ObjectStatusCancelled)
	case calendar.StatusPlanned, calendar.StatusPending:
		return string(ics.ObjectStatusTentative)
	default:
		return string(ics.ObjectStatusConfirmed)
	}
}

// icsPriority maps onto the RFC 5545 scale, 1 highest and 9 lowest
func icsPriority(p calendar.Priority) int {
	switch p {
	case calendar.PriorityUrgent:
		return 1
	case calendar.PriorityHigh:
		return 3
	case calendar.PriorityLow:
		return 9
	default:
		return 5
	}
}

// Write serializes events to w
func Write(w io.Writer, events []calendar.Event, opts Options) error {
	if _, err := io.WriteString(w, Calendar(events, opts).Serialize()); err != nil {
		return fmt.Errorf("failed to write calendar: %w", err)
	}
	return nil
}

// WriteFile writes the calendar to path, replacing it atomically
func WriteFile(path string, events []calendar.Event, opts Options) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".bizcal-*.ics")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, events, opts); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
