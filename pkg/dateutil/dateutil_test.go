package dateutil

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewNormalizes(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month time.Month
		day   int
		want  string
	}{
		{"Plain date", 2025, time.January, 15, "2025-01-15"},
		{"Day overflow into next month", 2024, time.February, 30, "2024-03-01"},
		{"Day zero is last of previous month", 2024, time.March, 0, "2024-02-29"},
		{"Month overflow into next year", 2024, 13, 1, "2025-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.year, tt.month, tt.day).String()
			if got != tt.want {
				t.Errorf("New(%d, %d, %d) = %s, want %s", tt.year, tt.month, tt.day, got, tt.want)
			}
		})
	}
}

func TestFromUnixMilliUTCIgnoresLocalZone(t *testing.T) {
	// 2024-06-05T23:30:00Z
	ms := time.Date(2024, 6, 5, 23, 30, 0, 0, time.UTC).UnixMilli()

	orig := time.Local
	t.Cleanup(func() { time.Local = orig })

	for _, offset := range []int{-12, -10, 0, 5, 14} {
		time.Local = time.FixedZone("test", offset*3600)
		got := FromUnixMilliUTC(ms)
		if got != New(2024, time.June, 5) {
			t.Errorf("offset %+d: FromUnixMilliUTC = %s, want 2024-06-05", offset, got)
		}
	}
}

func TestFromTimeUsesWallClock(t *testing.T) {
	loc := time.FixedZone("UTC-10", -10*3600)
	input := time.Date(2024, 6, 5, 23, 30, 0, 0, time.UTC).In(loc)

	if got := FromTime(input); got != New(2024, time.June, 5) {
		t.Errorf("FromTime(%v) = %s, want 2024-06-05", input, got)
	}
}

func TestStartOfWeek(t *testing.T) {
	tests := []struct {
		name      string
		input     Date
		weekStart time.Weekday
		expected  Date
	}{
		{
			name:      "Wednesday returns Monday",
			input:     New(2025, 1, 15), // Wednesday
			weekStart: time.Monday,
			expected:  New(2025, 1, 13),
		},
		{
			name:      "Monday returns same Monday",
			input:     New(2025, 1, 13),
			weekStart: time.Monday,
			expected:  New(2025, 1, 13),
		},
		{
			name:      "Sunday returns previous Monday",
			input:     New(2025, 1, 19),
			weekStart: time.Monday,
			expected:  New(2025, 1, 13),
		},
		{
			name:      "Sunday-start week from Saturday",
			input:     New(2025, 1, 18),
			weekStart: time.Sunday,
			expected:  New(2025, 1, 12),
		},
		{
			name:      "Sunday-start week from Sunday",
			input:     New(2025, 1, 19),
			weekStart: time.Sunday,
			expected:  New(2025, 1, 19),
		},
		{
			name:      "Crosses a year boundary",
			input:     New(2025, 1, 1), // Wednesday
			weekStart: time.Sunday,
			expected:  New(2024, 12, 29),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.input.StartOfWeek(tt.weekStart)
			if result != tt.expected {
				t.Errorf("StartOfWeek(%s, %s) = %s, want %s",
					tt.input, tt.weekStart, result, tt.expected)
			}
			if end := tt.input.EndOfWeek(tt.weekStart); DaysBetween(result, end) != 6 {
				t.Errorf("EndOfWeek(%s) = %s, not 6 days after %s", tt.input, end, result)
			}
		})
	}
}

func TestMonthBounds(t *testing.T) {
	tests := []struct {
		input     Date
		wantStart Date
		wantEnd   Date
	}{
		{New(2024, 2, 14), New(2024, 2, 1), New(2024, 2, 29)},
		{New(2023, 2, 14), New(2023, 2, 1), New(2023, 2, 28)},
		{New(2024, 12, 31), New(2024, 12, 1), New(2024, 12, 31)},
		{New(2024, 4, 1), New(2024, 4, 1), New(2024, 4, 30)},
	}

	for _, tt := range tests {
		t.Run(tt.input.String(), func(t *testing.T) {
			if got := tt.input.StartOfMonth(); got != tt.wantStart {
				t.Errorf("StartOfMonth(%s) = %s, want %s", tt.input, got, tt.wantStart)
			}
			if got := tt.input.EndOfMonth(); got != tt.wantEnd {
				t.Errorf("EndOfMonth(%s) = %s, want %s", tt.input, got, tt.wantEnd)
			}
		})
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name string
		a, b Date
		want int
	}{
		{"Same day", New(2024, 3, 30), New(2024, 3, 30), 0},
		{"Across month end", New(2024, 3, 30), New(2024, 4, 2), 3},
		{"Backwards", New(2024, 4, 2), New(2024, 3, 30), -3},
		{"Leap year", New(2024, 1, 1), New(2025, 1, 1), 366},
		{"US DST transition week", New(2024, 3, 9), New(2024, 3, 11), 2},
		{"Five centuries", New(1500, 1, 1), New(2024, 1, 1), 191387},
		{"Five centuries backwards", New(2024, 1, 1), New(1500, 1, 1), -191387},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysBetween(tt.a, tt.b); got != tt.want {
				t.Errorf("DaysBetween(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := tt.a.AddDays(tt.want); got != tt.b {
				t.Errorf("%s.AddDays(%d) = %s, want %s", tt.a, tt.want, got, tt.b)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	a := New(2024, 3, 30)
	b := New(2024, 4, 2)

	if !a.Before(b) || a.After(b) {
		t.Errorf("%s should be before %s", a, b)
	}
	if !b.After(a) || b.Before(a) {
		t.Errorf("%s should be after %s", b, a)
	}
	if a.Compare(a) != 0 {
		t.Errorf("Compare(%s, %s) != 0", a, a)
	}
	if New(2023, 12, 31).Compare(New(2024, 1, 1)) != -1 {
		t.Errorf("year ordering broken")
	}
}

func TestIsWeekend(t *testing.T) {
	tests := []struct {
		name  string
		input Date
		want  bool
	}{
		{"Monday is not weekend", New(2025, 1, 13), false},
		{"Friday is not weekend", New(2025, 1, 17), false},
		{"Saturday is weekend", New(2025, 1, 18), true},
		{"Sunday is weekend", New(2025, 1, 19), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.input.IsWeekend(); got != tt.want {
				t.Errorf("IsWeekend(%s) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Date
		wantErr bool
	}{
		{"ISO format YYYY-MM-DD", "2025-01-15", New(2025, 1, 15), false},
		{"Russian format DD.MM.YYYY", "15.01.2025", New(2025, 1, 15), false},
		{"Surrounding spaces", " 2024-04-15 ", New(2024, 4, 15), false},
		{"Garbage", "yesterday", Date{}, true},
		{"Impossible date", "2024-02-30", Date{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Parse(tt.input)

			if (err != nil) != tt.wantErr {
				t.Errorf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}

			if !tt.wantErr && result != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.input, result, tt.want)
			}
		})
	}
}

func TestDateAsJSONKey(t *testing.T) {
	in := map[Date]int{New(2024, 4, 1): 2}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"2024-04-01":2}` {
		t.Errorf("Marshal() = %s", data)
	}

	var out map[Date]int
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if out[New(2024, 4, 1)] != 2 {
		t.Errorf("Unmarshal() = %v", out)
	}
}

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Weekday
		wantErr bool
	}{
		{"sunday", time.Sunday, false},
		{"Monday", time.Monday, false},
		{"sat", time.Saturday, false},
		{"funday", time.Sunday, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseWeekday(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWeekday(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseWeekday(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}
