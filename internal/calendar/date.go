// Package calendar provides a timezone-free calendar date and the period keys
// completions are recorded under.
//
// A Date carries only year, month and day. Arithmetic is done on a UTC
// midnight instant internally so that no local offset or DST transition can
// move a date across a day boundary.
package calendar

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/lifeplan/internal/constants"
)

// Date is a naive calendar date.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

var (
	// MinDate is the earliest date a window may span.
	MinDate = Date{Year: 1, Month: time.January, Day: 1}
	// MaxDate is the latest date a window may span.
	MaxDate = Date{Year: 9999, Month: time.December, Day: 31}
)

// New returns the date for the given fields. Out-of-range values are
// normalized the same way time.Date normalizes them (e.g. Feb 30 -> Mar 1/2).
func New(year int, month time.Month, day int) Date {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime returns the calendar fields of t in t's own location.
// No conversion to UTC is performed.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current date in loc (time.Local when loc is nil).
func Today(loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	return FromTime(time.Now().In(loc))
}

// Parse parses a YYYY-MM-DD date.
func Parse(s string) (Date, error) {
	t, err := time.Parse(constants.DateFormat, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return FromTime(t), nil
}

// MustParse is Parse for literals; it panics on malformed input.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) instant() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Time returns midnight of d in loc (UTC when loc is nil).
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	return DayKey(d)
}

func (d Date) Weekday() time.Weekday {
	return d.instant().Weekday()
}

// AddDays returns d shifted by n days.
func (d Date) AddDays(n int) Date {
	return FromTime(d.instant().AddDate(0, 0, n))
}

// AddMonths returns d shifted by n months, clamping the day to the length of
// the target month (Jan 31 + 1 month = Feb 28/29).
func (d Date) AddMonths(n int) Date {
	first := New(d.Year, d.Month+time.Month(n), 1)
	last := EndOfMonth(first)
	if d.Day > last.Day {
		return last
	}
	return Date{Year: first.Year, Month: first.Month, Day: d.Day}
}

// Compare returns -1, 0 or 1 when d is before, equal to or after o.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// Range returns every date from start to end inclusive.
// It returns nil when end is before start.
func Range(start, end Date) []Date {
	if end.Before(start) {
		return nil
	}
	var out []Date
	for d := start; !d.After(end); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

// StartOfWeek returns the Monday of the week containing d.
func StartOfWeek(d Date) Date {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}

// StartOfMonth returns the first day of d's month.
func StartOfMonth(d Date) Date {
	return Date{Year: d.Year, Month: d.Month, Day: 1}
}

// EndOfMonth returns the last day of d's month.
func EndOfMonth(d Date) Date {
	return New(d.Year, d.Month+1, 1).AddDays(-1)
}

// MarshalText encodes d as YYYY-MM-DD. The zero date encodes as "".
func (d Date) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(DayKey(d)), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan implements sql.Scanner for TEXT and DATE columns.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case string:
		return d.UnmarshalText([]byte(v))
	case []byte:
		return d.UnmarshalText(v)
	case time.Time:
		*d = FromTime(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into calendar.Date", src)
	}
}

// Value implements driver.Valuer. The zero date is stored as NULL.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return DayKey(d), nil
}
