package calendar

import (
	"math/rand"
	"testing"
	"time"

	"github.com/username/bizcal/pkg/dateutil"
)

func TestComputeWindow(t *testing.T) {
	tests := []struct {
		name        string
		anchor      dateutil.Date
		granularity Granularity
		weekStart   time.Weekday
		want        Window
	}{
		{
			name:        "April 2024 month, Sunday start",
			anchor:      dateutil.New(2024, 4, 15),
			granularity: GranularityMonth,
			weekStart:   time.Sunday,
			want:        Window{dateutil.New(2024, 3, 31), dateutil.New(2024, 5, 4)},
		},
		{
			name:        "April 2024 month, Monday start",
			anchor:      dateutil.New(2024, 4, 15),
			granularity: GranularityMonth,
			weekStart:   time.Monday,
			want:        Window{dateutil.New(2024, 4, 1), dateutil.New(2024, 5, 5)},
		},
		{
			name:        "February 2015 fits four weeks exactly",
			anchor:      dateutil.New(2015, 2, 10),
			granularity: GranularityMonth,
			weekStart:   time.Sunday,
			want:        Window{dateutil.New(2015, 2, 1), dateutil.New(2015, 2, 28)},
		},
		{
			name:        "Week across new year",
			anchor:      dateutil.New(2025, 1, 1),
			granularity: GranularityWeek,
			weekStart:   time.Sunday,
			want:        Window{dateutil.New(2024, 12, 29), dateutil.New(2025, 1, 4)},
		},
		{
			name:        "Week anchored on its first day",
			anchor:      dateutil.New(2024, 4, 14),
			granularity: GranularityWeek,
			weekStart:   time.Sunday,
			want:        Window{dateutil.New(2024, 4, 14), dateutil.New(2024, 4, 20)},
		},
		{
			name:        "Day",
			anchor:      dateutil.New(2024, 2, 29),
			granularity: GranularityDay,
			weekStart:   time.Sunday,
			want:        Window{dateutil.New(2024, 2, 29), dateutil.New(2024, 2, 29)},
		},
		{
			name:        "Unknown granularity falls back to day",
			anchor:      dateutil.New(2024, 2, 29),
			granularity: "year",
			weekStart:   time.Sunday,
			want:        Window{dateutil.New(2024, 2, 29), dateutil.New(2024, 2, 29)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeWindow(tt.anchor, tt.granularity, tt.weekStart)
			if got != tt.want {
				t.Errorf("ComputeWindow(%s, %s) = %s, want %s", tt.anchor, tt.granularity, got, tt.want)
			}
		})
	}
}

func TestMonthWindowProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := dateutil.New(1990, 1, 1)

	for i := 0; i < 2000; i++ {
		anchor := base.AddDays(rng.Intn(40 * 366))
		ws := time.Weekday(rng.Intn(7))
		w := ComputeWindow(anchor, GranularityMonth, ws)

		if !w.Contains(anchor) {
			t.Fatalf("month window %s does not contain %s", w, anchor)
		}
		if w.Start.Weekday() != ws {
			t.Fatalf("window %s starts on %s, want %s", w, w.Start.Weekday(), ws)
		}
		if w.End.AddDays(1).Weekday() != ws {
			t.Fatalf("window %s does not end the day before %s", w, ws)
		}
		if w.Days()%7 != 0 || w.Days() < 28 || w.Days() > 42 {
			t.Fatalf("window %s has %d days", w, w.Days())
		}
		if !w.Contains(anchor.StartOfMonth()) || !w.Contains(anchor.EndOfMonth()) {
			t.Fatalf("window %s does not cover the month of %s", w, anchor)
		}
	}
}

func TestWindowDates(t *testing.T) {
	w := Window{dateutil.New(2024, 2, 27), dateutil.New(2024, 3, 2)}

	dates := w.Dates()
	want := []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01", "2024-03-02"}
	if len(dates) != len(want) || w.Days() != len(want) {
		t.Fatalf("Dates() = %v, want %v", dates, want)
	}
	for i, d := range dates {
		if d.String() != want[i] {
			t.Errorf("Dates()[%d] = %s, want %s", i, d, want[i])
		}
	}
}

func TestWindowFetchRange(t *testing.T) {
	w := Window{dateutil.New(2024, 3, 31), dateutil.New(2024, 5, 4)}
	r := w.FetchRange()

	if want := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC).UnixMilli(); r.FromMs != want {
		t.Errorf("FromMs = %d, want %d", r.FromMs, want)
	}
	if want := time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC).UnixMilli(); r.ToMs != want {
		t.Errorf("ToMs = %d, want %d", r.ToMs, want)
	}

	lastMinute := time.Date(2024, 5, 4, 23, 59, 0, 0, time.UTC).UnixMilli()
	if !r.Includes(lastMinute) {
		t.Error("range should include the last minute of the window")
	}
	if r.Includes(r.ToMs) {
		t.Error("range end should be exclusive")
	}
}

func TestParseGranularity(t *testing.T) {
	for _, s := range []string{"month", "Week", " day "} {
		if _, err := ParseGranularity(s); err != nil {
			t.Errorf("ParseGranularity(%q) error = %v", s, err)
		}
	}
	if _, err := ParseGranularity("fortnight"); err == nil {
		t.Error("ParseGranularity(fortnight) error = nil")
	}
}
