package server

import (
	"strings"

	"github.com/julianstephens/lifeplan/internal/calendar"
	"github.com/julianstephens/lifeplan/internal/models"
	"github.com/julianstephens/lifeplan/internal/planner"
)

// Request payloads

type CreateActivityRequest struct {
	Title          string   `json:"title" minLength:"1"`
	Notes          string   `json:"notes,omitempty"`
	DomainID       *string  `json:"domain_id,omitempty"`
	GoalID         *string  `json:"goal_id,omitempty"`
	SourceType     string   `json:"source_type,omitempty" enum:"WHEEL,ODYSSEY,MANUAL"`
	SourceID       *string  `json:"source_id,omitempty"`
	FrequencyType  string   `json:"frequency_type" enum:"DAILY,WEEKLY,MONTHLY,ONCE"`
	FrequencyValue int      `json:"frequency_value,omitempty" minimum:"0"`
	ScheduledDays  []string `json:"scheduled_days,omitempty"`
	TimeOfDay      string   `json:"time_of_day,omitempty"`
	OrderPosition  int      `json:"order_position,omitempty"`
}

func (r CreateActivityRequest) activity() models.Activity {
	return models.Activity{
		Title:          strings.TrimSpace(r.Title),
		Notes:          r.Notes,
		DomainID:       r.DomainID,
		GoalID:         r.GoalID,
		SourceType:     models.SourceType(r.SourceType),
		SourceID:       r.SourceID,
		FrequencyType:  models.FrequencyType(r.FrequencyType),
		FrequencyValue: r.FrequencyValue,
		ScheduledDays:  weekdays(r.ScheduledDays),
		TimeOfDay:      r.TimeOfDay,
		OrderPosition:  r.OrderPosition,
	}
}

// UpdateActivityRequest is a partial update. Absent fields are unchanged;
// ClearDomain and ClearGoal remove a category.
type UpdateActivityRequest struct {
	Title          *string   `json:"title,omitempty"`
	Notes          *string   `json:"notes,omitempty"`
	DomainID       *string   `json:"domain_id,omitempty"`
	ClearDomain    bool      `json:"clear_domain,omitempty"`
	GoalID         *string   `json:"goal_id,omitempty"`
	ClearGoal      bool      `json:"clear_goal,omitempty"`
	FrequencyType  *string   `json:"frequency_type,omitempty" enum:"DAILY,WEEKLY,MONTHLY,ONCE"`
	FrequencyValue *int      `json:"frequency_value,omitempty" minimum:"0"`
	ScheduledDays  *[]string `json:"scheduled_days,omitempty"`
	TimeOfDay      *string   `json:"time_of_day,omitempty"`
	IsArchived     *bool     `json:"is_archived,omitempty"`
	OrderPosition  *int      `json:"order_position,omitempty"`
}

func (r UpdateActivityRequest) patch() models.ActivityPatch {
	p := models.ActivityPatch{
		Title:          r.Title,
		Notes:          r.Notes,
		FrequencyValue: r.FrequencyValue,
		TimeOfDay:      r.TimeOfDay,
		IsArchived:     r.IsArchived,
		OrderPosition:  r.OrderPosition,
	}
	switch {
	case r.ClearDomain:
		var none *string
		p.DomainID = &none
	case r.DomainID != nil:
		p.DomainID = &r.DomainID
	}
	switch {
	case r.ClearGoal:
		var none *string
		p.GoalID = &none
	case r.GoalID != nil:
		p.GoalID = &r.GoalID
	}
	if r.FrequencyType != nil {
		f := models.FrequencyType(*r.FrequencyType)
		p.FrequencyType = &f
	}
	if r.ScheduledDays != nil {
		days := weekdays(*r.ScheduledDays)
		if days == nil {
			days = []calendar.Weekday{}
		}
		p.ScheduledDays = &days
	}
	return p
}

func weekdays(tags []string) []calendar.Weekday {
	if tags == nil {
		return nil
	}
	out := make([]calendar.Weekday, len(tags))
	for i, t := range tags {
		out[i] = calendar.Weekday(t)
	}
	return out
}

type DateRequest struct {
	Date string `json:"date,omitempty" doc:"Calendar date, YYYY-MM-DD"`
}

type NotesRequest struct {
	Date  string `json:"date,omitempty" doc:"Calendar date, YYYY-MM-DD"`
	Notes string `json:"notes"`
}

// Response payloads

type ActivityResponse struct {
	ID             string   `json:"id"`
	OwnerID        string   `json:"owner_id"`
	Title          string   `json:"title"`
	Notes          string   `json:"notes,omitempty"`
	DomainID       *string  `json:"domain_id,omitempty"`
	GoalID         *string  `json:"goal_id,omitempty"`
	SourceType     string   `json:"source_type"`
	SourceID       *string  `json:"source_id,omitempty"`
	FrequencyType  string   `json:"frequency_type"`
	FrequencyValue int      `json:"frequency_value"`
	ScheduledDays  []string `json:"scheduled_days"`
	TimeOfDay      string   `json:"time_of_day,omitempty"`
	IsArchived     bool     `json:"is_archived"`
	OrderPosition  int      `json:"order_position"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
}

const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

func toActivityResponse(a models.Activity) ActivityResponse {
	var days []string
	if a.ScheduledDays != nil {
		days = make([]string, len(a.ScheduledDays))
		for i, d := range a.ScheduledDays {
			days[i] = string(d)
		}
	}
	return ActivityResponse{
		ID:             a.ID,
		OwnerID:        a.OwnerID,
		Title:          a.Title,
		Notes:          a.Notes,
		DomainID:       a.DomainID,
		GoalID:         a.GoalID,
		SourceType:     string(a.SourceType),
		SourceID:       a.SourceID,
		FrequencyType:  string(a.FrequencyType),
		FrequencyValue: a.FrequencyValue,
		ScheduledDays:  days,
		TimeOfDay:      a.TimeOfDay,
		IsArchived:     a.IsArchived,
		OrderPosition:  a.OrderPosition,
		CreatedAt:      a.CreatedAt.UTC().Format(timestampFormat),
		UpdatedAt:      a.UpdatedAt.UTC().Format(timestampFormat),
	}
}

type CompletionResponse struct {
	ID          string  `json:"id"`
	ActivityID  string  `json:"activity_id"`
	PeriodKey   string  `json:"period_key"`
	Date        string  `json:"date"`
	Completed   bool    `json:"completed"`
	CompletedAt *string `json:"completed_at"`
	Notes       string  `json:"notes,omitempty"`
}

func toCompletionResponse(c models.Completion) CompletionResponse {
	resp := CompletionResponse{
		ID:         c.ID,
		ActivityID: c.ActivityID,
		PeriodKey:  c.PeriodKey,
		Date:       c.Date.String(),
		Completed:  c.Completed,
		Notes:      c.Notes,
	}
	if c.CompletedAt != nil {
		at := c.CompletedAt.UTC().Format(timestampFormat)
		resp.CompletedAt = &at
	}
	return resp
}

type DueItemResponse struct {
	Activity   ActivityResponse    `json:"activity"`
	Completed  bool                `json:"completed"`
	Completion *CompletionResponse `json:"completion,omitempty"`
}

type DueDayResponse struct {
	Date  string            `json:"date,omitempty"`
	Items []DueItemResponse `json:"items"`
}

type WindowResponse struct {
	Mode       string           `json:"mode"`
	Focus      string           `json:"focus"`
	Start      string           `json:"start,omitempty"`
	End        string           `json:"end,omitempty"`
	PeriodKeys []string         `json:"period_keys"`
	Days       []DueDayResponse `json:"days"`
}

func toWindowResponse(w planner.Window, days []planner.DueDay) WindowResponse {
	resp := WindowResponse{
		Mode:       string(w.Mode),
		Focus:      w.Focus.String(),
		PeriodKeys: w.PeriodKeys,
		Days:       make([]DueDayResponse, len(days)),
	}
	if !w.Start.IsZero() {
		resp.Start = w.Start.String()
		resp.End = w.End.String()
	}
	for i, day := range days {
		out := DueDayResponse{Items: make([]DueItemResponse, len(day.Items))}
		if w.Mode != planner.ModeOnce {
			out.Date = day.Date.String()
		}
		for j, item := range day.Items {
			out.Items[j] = DueItemResponse{Activity: toActivityResponse(item.Activity), Completed: item.Completed()}
			if item.Completion != nil {
				c := toCompletionResponse(*item.Completion)
				out.Items[j].Completion = &c
			}
		}
		resp.Days[i] = out
	}
	return resp
}

type DueResponse struct {
	Date      string            `json:"date"`
	Completed int               `json:"completed"`
	Total     int               `json:"total"`
	Items     []DueItemResponse `json:"items"`
}
