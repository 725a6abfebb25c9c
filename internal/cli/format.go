package cli

import (
	"fmt"

	"github.com/julianstephens/lifeplan/internal/calendar"
	"github.com/julianstephens/lifeplan/internal/models"
)

// FormatFrequency describes when an activity surfaces.
func FormatFrequency(a models.Activity) string {
	var s string
	switch a.FrequencyType {
	case models.FrequencyDaily:
		s = "daily"
	case models.FrequencyWeekly:
		s = "weekly"
		if len(a.ScheduledDays) > 0 {
			s = "weekly on " + calendar.JoinWeekdays(a.ScheduledDays)
		}
	case models.FrequencyMonthly:
		s = "monthly (Mondays)"
	case models.FrequencyOnce:
		s = "once"
	default:
		s = "unknown"
	}
	if a.FrequencyValue > 0 {
		s = fmt.Sprintf("%s, %dx", s, a.FrequencyValue)
	}
	return s
}

// Check renders a completion state for tables.
func Check(done bool) string {
	if done {
		return "✓"
	}
	return " "
}

// Deref returns *p, or "" when p is nil.
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// OptionalString returns nil for an empty s.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
