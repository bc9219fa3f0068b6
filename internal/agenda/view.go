package agenda

import (
	"github.com/username/bizcal/internal/calendar"
	"github.com/username/bizcal/pkg/dateutil"
)

// Day is one grid cell of a view
type Day struct {
	Date      dateutil.Date    `json:"date"`
	IsToday   bool             `json:"isToday"`
	InMonth   bool             `json:"inMonth"`
	IsWeekend bool             `json:"isWeekend"`
	Events    []calendar.Event `json:"events"`
}

// View is everything a renderer needs for one granularity and anchor
type View struct {
	Granularity calendar.Granularity `json:"granularity"`
	Anchor      dateutil.Date        `json:"anchor"`
	Today       dateutil.Date        `json:"today"`
	Window      calendar.Window      `json:"window"`
	Days        []Day                `json:"days"`

	// Bars is only filled for week and day views
	Bars []calendar.Bar `json:"bars,omitempty"`

	// Events holds every normalized event overlapping the window, once each
	Events []calendar.Event `json:"events"`

	Skipped []string `json:"skipped,omitempty"`
}

// Day returns the cell for d, if the window contains it
func (v *View) Day(d dateutil.Date) (Day, bool) {
	if !v.Window.Contains(d) {
		return Day{}, false
	}
	return v.Days[dateutil.DaysBetween(v.Window.Start, d)], true
}

// Weeks splits the days into rows of seven for grid rendering.
// Day views yield a single one-day row.
func (v *View) Weeks() [][]Day {
	var rows [][]Day
	for i := 0; i < len(v.Days); i += 7 {
		end := i + 7
		if end > len(v.Days) {
			end = len(v.Days)
		}
		rows = append(rows, v.Days[i:end])
	}
	return rows
}
