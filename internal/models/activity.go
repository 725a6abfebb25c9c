package models

import (
	"time"

	"github.com/julianstephens/lifeplan/internal/calendar"
)

type FrequencyType string

const (
	FrequencyDaily   FrequencyType = "DAILY"
	FrequencyWeekly  FrequencyType = "WEEKLY"
	FrequencyMonthly FrequencyType = "MONTHLY"
	FrequencyOnce    FrequencyType = "ONCE"
)

// FrequencyTypes lists every frequency the recurrence evaluator handles.
var FrequencyTypes = []FrequencyType{FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyOnce}

func (f FrequencyType) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyOnce:
		return true
	}
	return false
}

// SourceType records which collaborator created an activity.
type SourceType string

const (
	SourceWheel   SourceType = "WHEEL"
	SourceOdyssey SourceType = "ODYSSEY"
	SourceManual  SourceType = "MANUAL"
)

func (s SourceType) Valid() bool {
	switch s {
	case SourceWheel, SourceOdyssey, SourceManual:
		return true
	}
	return false
}

type Activity struct {
	ID             string             `json:"id"`
	OwnerID        string             `json:"owner_id"`
	Title          string             `json:"title"`
	Notes          string             `json:"notes,omitempty"`
	DomainID       *string            `json:"domain_id,omitempty"`
	GoalID         *string            `json:"goal_id,omitempty"`
	SourceType     SourceType         `json:"source_type"`
	SourceID       *string            `json:"source_id,omitempty"`
	FrequencyType  FrequencyType      `json:"frequency_type"`
	FrequencyValue int                `json:"frequency_value"`          // advisory, "N times per period"
	ScheduledDays  []calendar.Weekday `json:"scheduled_days,omitempty"` // WEEKLY only; nil or empty means every day
	TimeOfDay      string             `json:"time_of_day,omitempty"`    // HH:MM, advisory
	IsArchived     bool               `json:"is_archived"`
	OrderPosition  int                `json:"order_position"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// Uncategorized reports whether the activity has neither a domain nor a goal.
func (a Activity) Uncategorized() bool {
	return a.DomainID == nil && a.GoalID == nil
}

// ActivityPatch is a partial update. Nil fields are left unchanged. The
// double pointers distinguish "leave alone" from "clear".
type ActivityPatch struct {
	Title          *string             `json:"title,omitempty"`
	Notes          *string             `json:"notes,omitempty"`
	DomainID       **string            `json:"domain_id,omitempty"`
	GoalID         **string            `json:"goal_id,omitempty"`
	FrequencyType  *FrequencyType      `json:"frequency_type,omitempty"`
	FrequencyValue *int                `json:"frequency_value,omitempty"`
	ScheduledDays  *[]calendar.Weekday `json:"scheduled_days,omitempty"`
	TimeOfDay      *string             `json:"time_of_day,omitempty"`
	IsArchived     *bool               `json:"is_archived,omitempty"`
	OrderPosition  *int                `json:"order_position,omitempty"`
}

// Archive returns the patch that soft-deletes an activity.
func Archive() ActivityPatch {
	archived := true
	return ActivityPatch{IsArchived: &archived}
}

// Empty reports whether the patch changes nothing.
func (p ActivityPatch) Empty() bool {
	return p == ActivityPatch{}
}

// Apply returns a copy of a with the patch applied. Identity, ownership and
// provenance are never patched.
func (p ActivityPatch) Apply(a Activity) Activity {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Notes != nil {
		a.Notes = *p.Notes
	}
	if p.DomainID != nil {
		a.DomainID = *p.DomainID
	}
	if p.GoalID != nil {
		a.GoalID = *p.GoalID
	}
	if p.FrequencyType != nil {
		a.FrequencyType = *p.FrequencyType
	}
	if p.FrequencyValue != nil {
		a.FrequencyValue = *p.FrequencyValue
	}
	if p.ScheduledDays != nil {
		a.ScheduledDays = append([]calendar.Weekday(nil), (*p.ScheduledDays)...)
		if *p.ScheduledDays != nil && len(*p.ScheduledDays) == 0 {
			a.ScheduledDays = []calendar.Weekday{}
		}
	}
	if p.TimeOfDay != nil {
		a.TimeOfDay = *p.TimeOfDay
	}
	if p.IsArchived != nil {
		a.IsArchived = *p.IsArchived
	}
	if p.OrderPosition != nil {
		a.OrderPosition = *p.OrderPosition
	}
	return a
}
