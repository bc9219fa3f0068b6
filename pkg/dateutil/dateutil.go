package dateutil

import (
	"fmt"
	"strings"
	"time"
)

const (
	layoutISO     = "2006-01-02"
	secondsPerDay = 24 * 60 * 60
)

// Date is a calendar date without time of day or zone.
// All arithmetic goes through UTC midnights so DST never shifts a day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// New returns the normalized date for year/month/day (2024-02-30 becomes 2024-03-01)
func New(year int, month time.Month, day int) Date {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime takes the wall-clock date of t in t's own location
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// FromUnixMilliUTC returns the UTC calendar date of an epoch-millisecond timestamp.
// The local zone is never consulted.
func FromUnixMilliUTC(ms int64) Date {
	return FromTime(time.UnixMilli(ms).UTC())
}

// Today returns the current date as seen in loc
func Today(loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	return FromTime(time.Now().In(loc))
}

// Parse parses a date string in YYYY-MM-DD or DD.MM.YYYY format
func Parse(s string) (Date, error) {
	s = strings.TrimSpace(s)
	formats := []string{
		layoutISO,
		"02.01.2006",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return FromTime(t), nil
		}
	}

	return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
}

// MustParse is Parse for literals in tests and fixtures
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// IsZero reports whether d is the zero Date
func (d Date) IsZero() bool {
	return d == Date{}
}

// Time returns UTC midnight of the date
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// In returns midnight of the date in loc
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// UnixMilliUTC returns the epoch milliseconds of UTC midnight
func (d Date) UnixMilliUTC() int64 {
	return d.Time().UnixMilli()
}

// AddDays returns the date n days later (n may be negative)
func (d Date) AddDays(n int) Date {
	return New(d.Year, d.Month, d.Day+n)
}

// DaysBetween returns the signed number of days from a to b.
// Unix seconds are used since time.Duration overflows past ~292 years.
func DaysBetween(a, b Date) int {
	return int((b.Time().Unix() - a.Time().Unix()) / secondsPerDay)
}

// Compare returns -1, 0 or +1
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return cmpInt(d.Year, other.Year)
	case d.Month != other.Month:
		return cmpInt(int(d.Month), int(other.Month))
	default:
		return cmpInt(d.Day, other.Day)
	}
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }
func (d Date) After(other Date) bool  { return d.Compare(other) > 0 }

// Weekday returns the day of the week
func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// StartOfWeek returns the weekStart day on or before d
func (d Date) StartOfWeek(weekStart time.Weekday) Date {
	back := (int(d.Weekday()) - int(weekStart) + 7) % 7
	return d.AddDays(-back)
}

// EndOfWeek returns the last day of the week containing d
func (d Date) EndOfWeek(weekStart time.Weekday) Date {
	return d.StartOfWeek(weekStart).AddDays(6)
}

// StartOfMonth returns the first day of d's month
func (d Date) StartOfMonth() Date {
	return Date{Year: d.Year, Month: d.Month, Day: 1}
}

// EndOfMonth returns the last day of d's month
func (d Date) EndOfMonth() Date {
	return New(d.Year, d.Month+1, 0)
}

// IsWeekend returns true if the date is Saturday or Sunday
func (d Date) IsWeekend() bool {
	weekday := d.Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// String formats the date as YYYY-MM-DD
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalText implements encoding.TextMarshaler, which also makes Date
// usable as a JSON object key.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseWeekday parses an English weekday name ("sunday", "Mon", ...)
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if s == name || (len(s) == 3 && strings.HasPrefix(name, s)) {
			return wd, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", s)
}
