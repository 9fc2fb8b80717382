package clock

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidTimeFormat = errors.New("invalid time format, expected HH:MM")

const dateLayout = "2006-01-02"

// DateKey identifies a calendar day independent of any timezone.
// Obtain one for an instant with LocalDateKey so the day boundary is the tenant's.
type DateKey struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDateKey normalizes overflowing values the way time.Date does.
func NewDateKey(year int, month time.Month, day int) DateKey {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return DateKey{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// ParseDateKey parses a "YYYY-MM-DD" string.
func ParseDateKey(s string) (DateKey, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return DateKey{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateKey{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// LocalDateKey returns the calendar day t falls on in loc.
func LocalDateKey(t time.Time, loc *time.Location) DateKey {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return DateKey{Year: local.Year(), Month: local.Month(), Day: local.Day()}
}

func (d DateKey) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d DateKey) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *DateKey) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = DateKey{}
		return nil
	}
	parsed, err := ParseDateKey(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d DateKey) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Start returns local midnight of the day in loc.
func (d DateKey) Start(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// At returns the instant whose local wall clock in loc reads minutes past
// midnight of the day. Minutes beyond 1439 roll into the following days.
func (d DateKey) At(minutes int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, minutes, 0, 0, loc)
}

func (d DateKey) Weekday() time.Weekday {
	return d.Start(time.UTC).Weekday()
}

func (d DateKey) AddDays(n int) DateKey {
	return NewDateKey(d.Year, d.Month, d.Day+n)
}

func (d DateKey) Before(o DateKey) bool {
	return d.compare(o) < 0
}

func (d DateKey) After(o DateKey) bool {
	return d.compare(o) > 0
}

// DaysUntil returns the number of calendar days from d to o.
func (d DateKey) DaysUntil(o DateKey) int {
	return int(o.Start(time.UTC).Sub(d.Start(time.UTC)) / (24 * time.Hour))
}

func (d DateKey) compare(o DateKey) int {
	switch {
	case d.Year != o.Year:
		return d.Year - o.Year
	case d.Month != o.Month:
		return int(d.Month) - int(o.Month)
	default:
		return d.Day - o.Day
	}
}

// MonthDays lists every day of the given month in order.
func MonthDays(year int, month time.Month) []DateKey {
	first := NewDateKey(year, month, 1)
	var days []DateKey
	for d := first; d.Month == month; d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// MonthRange returns the first and last day of the month.
func MonthRange(year int, month time.Month) (DateKey, DateKey) {
	first := NewDateKey(year, month, 1)
	last := NewDateKey(year, month+1, 0)
	return first, last
}

// ToMinutes converts "HH:MM" (or "HH:MM:SS", seconds ignored) to minutes since midnight.
func ToMinutes(hhmm string) (int, error) {
	parts := strings.Split(strings.TrimSpace(hhmm), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, hhmm)
	}

	limits := []int{23, 59, 59}
	values := make([]int, len(parts))
	for i, p := range parts {
		if len(p) != 2 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, hhmm)
		}
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || v > limits[i] {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, hhmm)
		}
		values[i] = v
	}

	return values[0]*60 + values[1], nil
}

// MinutesOf returns the local wall clock of t in loc as minutes past midnight.
func MinutesOf(t time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return local.Hour()*60 + local.Minute()
}

// WallMinutes returns the local wall clock of t in loc as minutes past
// midnight of day. Instants on later local days add 1440 per day, so a
// checkout after midnight still compares greater than any same-day time.
func WallMinutes(day DateKey, t time.Time, loc *time.Location) int {
	return day.DaysUntil(LocalDateKey(t, loc))*24*60 + MinutesOf(t, loc)
}

// FormatMinutes renders minutes since midnight as "HH:MM".
func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func IsSunday(d DateKey) bool {
	return d.Weekday() == time.Sunday
}

// LoadLocation loads an IANA timezone, falling back to UTC.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
