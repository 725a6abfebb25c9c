// Package recurrence decides whether an activity is due on a calendar date.
package recurrence

import (
	"github.com/julianstephens/lifeplan/internal/calendar"
	"github.com/julianstephens/lifeplan/internal/models"
)

// IsDueOn reports whether a is due on d. completions are a's known
// completions; only ONCE activities consult them. Archived activities are
// filtered by callers, not here.
func IsDueOn(a models.Activity, d calendar.Date, completions []models.Completion) bool {
	switch a.FrequencyType {
	case models.FrequencyDaily:
		return true
	case models.FrequencyWeekly:
		if len(a.ScheduledDays) == 0 {
			return true
		}
		tag := calendar.WeekdayTag(d)
		for _, day := range a.ScheduledDays {
			if day == tag {
				return true
			}
		}
		return false
	case models.FrequencyMonthly:
		// Monthly activities surface every Monday.
		return calendar.WeekdayTag(d) == calendar.Monday
	case models.FrequencyOnce:
		return !OnceCompleted(a.ID, completions)
	default:
		return false
	}
}

// OnceCompleted reports whether completions hold a completed ONCE record for
// activityID.
func OnceCompleted(activityID string, completions []models.Completion) bool {
	for _, c := range completions {
		if c.ActivityID == activityID && c.PeriodKey == calendar.OncePeriodKey && c.Completed {
			return true
		}
	}
	return false
}

// Due returns the non-archived activities from activities that are due on d.
// completions may hold records for any activity.
func Due(activities []models.Activity, d calendar.Date, completions []models.Completion) []models.Activity {
	var due []models.Activity
	for _, a := range activities {
		if a.IsArchived {
			continue
		}
		if IsDueOn(a, d, completions) {
			due = append(due, a)
		}
	}
	return due
}
