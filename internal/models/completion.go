package models

import (
	"time"

	"github.com/julianstephens/lifeplan/internal/calendar"
)

// Completion is the done/undone state of one occurrence of an activity.
// At most one exists per (ActivityID, PeriodKey).
type Completion struct {
	ID         string `json:"id"`
	ActivityID string `json:"activity_id"`
	PeriodKey  string `json:"period_key"`
	// Date is the day the user acted through. For ONCE activities it is not
	// the period's date; callers must not assume Date and PeriodKey agree.
	Date        calendar.Date `json:"date"`
	Completed   bool          `json:"completed"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Notes       string        `json:"notes,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
