package records

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/username/bizcal/internal/calendar"
)

// FlexibleID handles both string and number IDs.
// Upstream services are not consistent about it:
// - Sometimes as number: 123456
// - Sometimes as string: "664c9a087b21446730da802d"
type FlexibleID string

// UnmarshalJSON implements json.Unmarshaler for FlexibleID
func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	// Try to unmarshal as string first
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexibleID(s)
		return nil
	}

	// Try as number
	var n int64
	if err := json.Unmarshal(b, &n); err == nil {
		*f = FlexibleID(strconv.FormatInt(n, 10))
		return nil
	}

	return fmt.Errorf("FlexibleID: cannot unmarshal %s", string(b))
}

// UnmarshalYAML implements yaml.Unmarshaler for FlexibleID
func (f *FlexibleID) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("FlexibleID: line %d: expected a scalar", value.Line)
	}
	*f = FlexibleID(value.Value)
	return nil
}

// MarshalJSON implements json.Marshaler for FlexibleID
func (f FlexibleID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(f))
}

// String returns string representation
func (f FlexibleID) String() string {
	return string(f)
}

// EpochMillis is a UTC epoch-millisecond timestamp on the wire.
// A value that is not a number decodes as NaN instead of failing the
// whole payload, so normalization reports that one record.
type EpochMillis float64

// UnmarshalJSON implements json.Unmarshaler for EpochMillis
func (m *EpochMillis) UnmarshalJSON(b []byte) error {
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		*m = EpochMillis(math.NaN())
		return nil
	}
	*m = EpochMillis(v)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler for EpochMillis
func (m *EpochMillis) UnmarshalYAML(value *yaml.Node) error {
	var v float64
	if value.Kind != yaml.ScalarNode || value.Decode(&v) != nil {
		*m = EpochMillis(math.NaN())
		return nil
	}
	*m = EpochMillis(v)
	return nil
}

// Millis returns the value as the raw record field; nil stays nil
func (m *EpochMillis) Millis() *float64 {
	if m == nil {
		return nil
	}
	v := float64(*m)
	return &v
}

// Task is a task as sent over the wire. Dates are UTC epoch milliseconds.
type Task struct {
	ID          FlexibleID   `json:"id" yaml:"id"`
	Title       string       `json:"title" yaml:"title"`
	Description string       `json:"description,omitempty" yaml:"description"`
	StartDate   *EpochMillis `json:"startDate" yaml:"startDate"`
	StartTime   string       `json:"startTime,omitempty" yaml:"startTime"`
	EndTime     string       `json:"endTime,omitempty" yaml:"endTime"`
	Status      string       `json:"status" yaml:"status"`
	Priority    string       `json:"priority,omitempty" yaml:"priority"`
	ClientRef   string       `json:"clientRef,omitempty" yaml:"clientRef"`
	AssigneeRef string       `json:"assigneeRef,omitempty" yaml:"assigneeRef"`
	ProjectRef  string       `json:"projectRef,omitempty" yaml:"projectRef"`
}

// Record converts the wire task into the engine's raw record
func (t Task) Record() calendar.TaskRecord {
	return calendar.TaskRecord{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
		StartDate:   t.StartDate.Millis(),
		StartTime:   t.StartTime,
		EndTime:     t.EndTime,
		Status:      t.Status,
		Priority:    t.Priority,
		ClientRef:   t.ClientRef,
		AssigneeRef: t.AssigneeRef,
		ProjectRef:  t.ProjectRef,
	}
}

// Project is a project as sent over the wire
type Project struct {
	ID           FlexibleID   `json:"id" yaml:"id"`
	Name         string       `json:"name" yaml:"name"`
	Description  string       `json:"description,omitempty" yaml:"description"`
	StartDate    *EpochMillis `json:"startDate" yaml:"startDate"`
	EndDate      *EpochMillis `json:"endDate,omitempty" yaml:"endDate"`
	Status       string       `json:"status" yaml:"status"`
	ClientRef    string       `json:"clientRef,omitempty" yaml:"clientRef"`
	AssigneeRefs []string     `json:"assigneeRefs,omitempty" yaml:"assigneeRefs"`
}

// Record converts the wire project into the engine's raw record
func (p Project) Record() calendar.ProjectRecord {
	return calendar.ProjectRecord{
		ID:           p.ID.String(),
		Title:        p.Name,
		Description:  p.Description,
		StartDate:    p.StartDate.Millis(),
		EndDate:      p.EndDate.Millis(),
		Status:       p.Status,
		ClientRef:    p.ClientRef,
		AssigneeRefs: p.AssigneeRefs,
	}
}

func taskRecords(tasks []Task) []calendar.TaskRecord {
	out := make([]calendar.TaskRecord, len(tasks))
	for i, t := range tasks {
		out[i] = t.Record()
	}
	return out
}

func projectRecords(projects []Project) []calendar.ProjectRecord {
	out := make([]calendar.ProjectRecord, len(projects))
	for i, p := range projects {
		out[i] = p.Record()
	}
	return out
}

// taskInRange keeps tasks starting inside r. A task without a usable start
// is kept so normalization can report it.
func taskInRange(start *float64, r calendar.FetchRange) bool {
	if !finite(start) {
		return true
	}
	return *start >= float64(r.FromMs) && *start < float64(r.ToMs)
}

// projectInRange keeps projects whose [start, end] touches r. Projects
// without a usable start, or ending before they start, are kept so
// normalization can report them.
func projectInRange(start, end *float64, r calendar.FetchRange) bool {
	if !finite(start) || (end != nil && !finite(end)) {
		return true
	}
	if end != nil && *end < *start {
		return true
	}
	last := *start
	if finite(end) {
		last = *end
	}
	return *start < float64(r.ToMs) && last >= float64(r.FromMs)
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
