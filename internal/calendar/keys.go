package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// OncePeriodKey is the period key of the single lifetime occurrence of a
// ONCE activity.
const OncePeriodKey = "ONCE"

// PeriodKind identifies the shape of a period key.
type PeriodKind string

const (
	PeriodDay   PeriodKind = "day"
	PeriodWeek  PeriodKind = "week"
	PeriodMonth PeriodKind = "month"
	PeriodOnce  PeriodKind = "once"
)

// DayKey returns the canonical YYYY-MM-DD key of d.
func DayKey(d Date) string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// ISOWeekKey returns the ISO-8601 week key YYYY-Www of d. The year is the
// ISO week-numbering year, which differs from d.Year near Jan 1.
func ISOWeekKey(d Date) string {
	year, week := d.instant().ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// MonthKey returns the canonical YYYY-MM key of d.
func MonthKey(d Date) string {
	return fmt.Sprintf("%04d-%02d", d.Year, int(d.Month))
}

// OnceKey returns OncePeriodKey.
func OnceKey() string {
	return OncePeriodKey
}

// ISOWeekStart returns the Monday of the given ISO week. Jan 4 always falls
// in week 1.
func ISOWeekStart(year, week int) Date {
	return StartOfWeek(New(year, time.January, 4)).AddDays((week - 1) * 7)
}

// ParsePeriodKey converts a period key back into its kind and the first date
// it covers. The ONCE key returns the zero date.
func ParsePeriodKey(key string) (PeriodKind, Date, error) {
	switch {
	case key == OncePeriodKey:
		return PeriodOnce, Date{}, nil
	case len(key) == 10:
		d, err := Parse(key)
		if err != nil {
			return "", Date{}, fmt.Errorf("invalid day key %q: %w", key, err)
		}
		return PeriodDay, d, nil
	case len(key) == 8 && strings.Contains(key, "-W"):
		year, err := strconv.Atoi(key[:4])
		if err != nil {
			return "", Date{}, fmt.Errorf("invalid week key %q: %w", key, err)
		}
		week, err := strconv.Atoi(key[6:])
		if err != nil {
			return "", Date{}, fmt.Errorf("invalid week key %q: %w", key, err)
		}
		if week < 1 || week > 53 {
			return "", Date{}, fmt.Errorf("invalid week key %q: week out of range", key)
		}
		start := ISOWeekStart(year, week)
		if ISOWeekKey(start) != key {
			return "", Date{}, fmt.Errorf("invalid week key %q: year %d has no week %d", key, year, week)
		}
		return PeriodWeek, start, nil
	case len(key) == 7:
		t, err := time.Parse("2006-01", key)
		if err != nil {
			return "", Date{}, fmt.Errorf("invalid month key %q: %w", key, err)
		}
		return PeriodMonth, FromTime(t), nil
	default:
		return "", Date{}, fmt.Errorf("unrecognized period key %q", key)
	}
}
