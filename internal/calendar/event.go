// Package calendar is the aggregation and layout engine behind the month,
// week and day views. It turns task and project records into one Event
// model, computes visible date windows, and answers which events occupy a
// date and where a multi-day bar sits inside a view.
//
// Everything here is pure: no clock reads, no I/O, no shared state. Dates are
// dateutil.Date values and never timestamps; the only epoch conversion
// happens in Normalize.
package calendar

import (
	"github.com/username/bizcal/pkg/dateutil"
)

// Kind discriminates the two record shapes an Event can come from
type Kind string

const (
	KindTask    Kind = "task"
	KindProject Kind = "project"
)

// Status is the lifecycle state of the source record. Layout never reads it.
type Status string

const (
	// Project statuses
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"

	// Task statuses (tasks also use StatusCompleted)
	StatusPending Status = "pending"
)

// Priority is the urgency tier of a task
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank orders priorities for display; unknown values rank with medium
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityHigh:
		return 2
	case PriorityUrgent:
		return 3
	default:
		return 1
	}
}

// Event is the unified, read-only calendar entry.
//
// Kind decides which fields carry meaning: EndDate is only ever set for
// projects, StartTime/EndTime/Priority/ProjectRef only for tasks.
type Event struct {
	ID           string         `json:"id"`
	Kind         Kind           `json:"kind"`
	Title        string         `json:"title"`
	Description  string         `json:"description,omitempty"`
	StartDate    dateutil.Date  `json:"startDate"`
	EndDate      *dateutil.Date `json:"endDate,omitempty"`
	StartTime    string         `json:"startTime,omitempty"`
	EndTime      string         `json:"endTime,omitempty"`
	Status       Status         `json:"status"`
	Priority     Priority       `json:"priority,omitempty"`
	ClientRef    string         `json:"clientRef,omitempty"`
	AssigneeRefs []string       `json:"assigneeRefs,omitempty"`
	ProjectRef   string         `json:"projectRef,omitempty"`
}

// EffectiveEnd returns EndDate, or StartDate when the event has no end
func (e Event) EffectiveEnd() dateutil.Date {
	if e.EndDate != nil {
		return *e.EndDate
	}
	return e.StartDate
}

// IsMultiDay reports whether the event spans more than its start date
func (e Event) IsMultiDay() bool {
	return e.EffectiveEnd().After(e.StartDate)
}

// HasTime reports whether a task is time-boxed within its day
func (e Event) HasTime() bool {
	return e.Kind == KindTask && e.StartTime != ""
}

// TimeRange returns "HH:MM – HH:MM", "HH:MM", or "" for untimed events
func (e Event) TimeRange() string {
	if !e.HasTime() {
		return ""
	}
	if e.EndTime == "" {
		return e.StartTime
	}
	return e.StartTime + " – " + e.EndTime
}
