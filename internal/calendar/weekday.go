package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Weekday is a single-letter weekday tag. The tags follow the Spanish day
// names (lunes..domingo) and are the stored wire format.
type Weekday string

const (
	Monday    Weekday = "L"
	Tuesday   Weekday = "M"
	Wednesday Weekday = "X"
	Thursday  Weekday = "J"
	Friday    Weekday = "V"
	Saturday  Weekday = "S"
	Sunday    Weekday = "D"
)

// Weekdays lists the tags Monday first.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var tagByWeekday = map[time.Weekday]Weekday{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// WeekdayTag returns the tag of the day d falls on.
func WeekdayTag(d Date) Weekday {
	return tagByWeekday[d.Weekday()]
}

// Valid reports whether w is one of the seven tags.
func (w Weekday) Valid() bool {
	for _, tag := range Weekdays {
		if w == tag {
			return true
		}
	}
	return false
}

// ParseWeekday accepts a tag (case-insensitive) or an English day name/abbreviation.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.TrimSpace(s)
	if tag := Weekday(strings.ToUpper(s)); tag.Valid() {
		return tag, nil
	}
	names := map[string]Weekday{
		"mon": Monday, "monday": Monday,
		"tue": Tuesday, "tuesday": Tuesday,
		"wed": Wednesday, "wednesday": Wednesday,
		"thu": Thursday, "thursday": Thursday,
		"fri": Friday, "friday": Friday,
		"sat": Saturday, "saturday": Saturday,
		"sun": Sunday, "sunday": Sunday,
	}
	if tag, ok := names[strings.ToLower(s)]; ok {
		return tag, nil
	}
	return "", fmt.Errorf("invalid weekday: %s", s)
}

// ParseWeekdays parses a comma-separated list of weekdays.
func ParseWeekdays(s string) ([]Weekday, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []Weekday
	for _, part := range strings.Split(s, ",") {
		tag, err := ParseWeekday(part)
		if err != nil {
			return nil, err
		}
		out = append(out, tag)
	}
	return out, nil
}

// JoinWeekdays formats tags as "L,X,V".
func JoinWeekdays(days []Weekday) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = string(d)
	}
	return strings.Join(parts, ",")
}
