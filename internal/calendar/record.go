package calendar

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/username/bizcal/pkg/dateutil"
)

// maxEpochMilli is the largest representable instant, 8.64e15 ms either side of the epoch
const maxEpochMilli = 8.64e15

// ErrMalformedRecord matches every *MalformedRecordError via errors.Is
var ErrMalformedRecord = errors.New("malformed record")

// MalformedRecordError reports a record that cannot become an Event
type MalformedRecordError struct {
	Kind   Kind
	ID     string
	Field  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed %s record %q: %s %s", e.Kind, e.ID, e.Field, e.Reason)
}

func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

// Record is a raw task or project as delivered by a data source.
// Only TaskRecord and ProjectRecord implement it.
type Record interface {
	RecordKind() Kind
	RecordID() string
}

// TaskRecord is a raw task. StartDate is epoch milliseconds and required.
type TaskRecord struct {
	ID          string
	Title       string
	Description string
	StartDate   *float64
	StartTime   string
	EndTime     string
	Status      string
	Priority    string
	ClientRef   string
	AssigneeRef string
	ProjectRef  string
}

func (r TaskRecord) RecordKind() Kind { return KindTask }
func (r TaskRecord) RecordID() string { return r.ID }

// ProjectRecord is a raw project. EndDate is optional.
type ProjectRecord struct {
	ID           string
	Title        string
	Description  string
	StartDate    *float64
	EndDate      *float64
	Status       string
	ClientRef    string
	AssigneeRefs []string
}

func (r ProjectRecord) RecordKind() Kind { return KindProject }
func (r ProjectRecord) RecordID() string { return r.ID }

// Normalize converts a raw record into an Event. Epoch timestamps are read
// as UTC calendar dates; the host time zone plays no part.
func Normalize(rec Record) (Event, error) {
	switch r := rec.(type) {
	case TaskRecord:
		return normalizeTask(r)
	case *TaskRecord:
		if r == nil {
			return Event{}, &MalformedRecordError{Kind: KindTask, Field: "record", Reason: "is nil"}
		}
		return normalizeTask(*r)
	case ProjectRecord:
		return normalizeProject(r)
	case *ProjectRecord:
		if r == nil {
			return Event{}, &MalformedRecordError{Kind: KindProject, Field: "record", Reason: "is nil"}
		}
		return normalizeProject(*r)
	default:
		return Event{}, fmt.Errorf("%w: unsupported record type %T", ErrMalformedRecord, rec)
	}
}

func normalizeTask(r TaskRecord) (Event, error) {
	start, err := epochDate(KindTask, r.ID, "startDate", r.StartDate)
	if err != nil {
		return Event{}, err
	}

	status := Status(strings.TrimSpace(r.Status))
	if status == "" {
		status = StatusPending
	}

	var assignees []string
	if r.AssigneeRef != "" {
		assignees = []string{r.AssigneeRef}
	}

	return Event{
		ID:           r.ID,
		Kind:         KindTask,
		Title:        r.Title,
		Description:  r.Description,
		StartDate:    start,
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		Status:       status,
		Priority:     parsePriority(r.Priority),
		ClientRef:    r.ClientRef,
		AssigneeRefs: assignees,
		ProjectRef:   r.ProjectRef,
	}, nil
}

func normalizeProject(r ProjectRecord) (Event, error) {
	start, err := epochDate(KindProject, r.ID, "startDate", r.StartDate)
	if err != nil {
		return Event{}, err
	}

	var end *dateutil.Date
	if r.EndDate != nil {
		d, err := epochDate(KindProject, r.ID, "endDate", r.EndDate)
		if err != nil {
			return Event{}, err
		}
		if d.Before(start) {
			return Event{}, &MalformedRecordError{
				Kind:   KindProject,
				ID:     r.ID,
				Field:  "endDate",
				Reason: fmt.Sprintf("%s is before startDate %s", d, start),
			}
		}
		end = &d
	}

	status := Status(strings.TrimSpace(r.Status))
	if status == "" {
		status = StatusPlanned
	}

	return Event{
		ID:           r.ID,
		Kind:         KindProject,
		Title:        r.Title,
		Description:  r.Description,
		StartDate:    start,
		EndDate:      end,
		Status:       status,
		ClientRef:    r.ClientRef,
		AssigneeRefs: append([]string(nil), r.AssigneeRefs...),
	}, nil
}

func epochDate(kind Kind, id, field string, ms *float64) (dateutil.Date, error) {
	if ms == nil {
		return dateutil.Date{}, &MalformedRecordError{Kind: kind, ID: id, Field: field, Reason: "is missing"}
	}
	v := *ms
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return dateutil.Date{}, &MalformedRecordError{Kind: kind, ID: id, Field: field, Reason: "is not a finite number"}
	}
	if math.Abs(v) > maxEpochMilli {
		return dateutil.Date{}, &MalformedRecordError{Kind: kind, ID: id, Field: field, Reason: "is out of range"}
	}
	return dateutil.FromUnixMilliUTC(int64(math.Trunc(v))), nil
}

func parsePriority(s string) Priority {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return p
	default:
		return PriorityMedium
	}
}

// NormalizeAll normalizes records in order. Malformed records are skipped
// and returned alongside the events instead of failing the batch.
func NormalizeAll(records []Record) ([]Event, []error) {
	events := make([]Event, 0, len(records))
	var skipped []error
	for _, rec := range records {
		e, err := Normalize(rec)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		events = append(events, e)
	}
	return events, skipped
}

// Tasks wraps task records as Records
func Tasks(rs []TaskRecord) []Record {
	out := make([]Record, len(rs))
	for i, r := range rs {
		out[i] = r
	}
	return out
}

// Projects wraps project records as Records
func Projects(rs []ProjectRecord) []Record {
	out := make([]Record, len(rs))
	for i, r := range rs {
		out[i] = r
	}
	return out
}
