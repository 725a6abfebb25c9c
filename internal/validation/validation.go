package validation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/lifeplan/internal/calendar"
	"github.com/julianstephens/lifeplan/internal/constants"
	apperr "github.com/julianstephens/lifeplan/internal/errors"
	"github.com/julianstephens/lifeplan/internal/models"
)

// ValidateActivity rejects an activity that must not be stored. The returned
// error has kind Validation and names every problem found.
func ValidateActivity(a models.Activity) error {
	var problems []string

	if strings.TrimSpace(a.ID) == "" {
		problems = append(problems, "id is required")
	}
	if strings.TrimSpace(a.OwnerID) == "" {
		problems = append(problems, "owner_id is required")
	}
	if strings.TrimSpace(a.Title) == "" {
		problems = append(problems, "title is required")
	}
	if !a.FrequencyType.Valid() {
		problems = append(problems, fmt.Sprintf("frequency_type %q is not one of DAILY, WEEKLY, MONTHLY, ONCE", a.FrequencyType))
	}
	if a.FrequencyValue < 0 {
		problems = append(problems, fmt.Sprintf("frequency_value must not be negative (got %d)", a.FrequencyValue))
	}
	if !a.SourceType.Valid() {
		problems = append(problems, fmt.Sprintf("source_type %q is not one of WHEEL, ODYSSEY, MANUAL", a.SourceType))
	} else if a.SourceType != models.SourceManual && (a.SourceID == nil || strings.TrimSpace(*a.SourceID) == "") {
		problems = append(problems, fmt.Sprintf("source_id is required for %s activities", a.SourceType))
	}
	if err := ValidateWeekdayTags(a.ScheduledDays); err != nil {
		problems = append(problems, err.Error())
	}
	if a.TimeOfDay != "" && !isValidTimeFormat(a.TimeOfDay) {
		problems = append(problems, fmt.Sprintf("time_of_day %q is not HH:MM", a.TimeOfDay))
	}

	if len(problems) > 0 {
		return apperr.Validation("validate activity", "%s", strings.Join(problems, "; "))
	}
	return nil
}

// ValidateWeekdayTags checks that days is a subset of the seven tags with no
// repeats. Nil and empty are both accepted.
func ValidateWeekdayTags(days []calendar.Weekday) error {
	seen := make(map[calendar.Weekday]bool, len(days))
	for _, d := range days {
		if !d.Valid() {
			return fmt.Errorf("scheduled_days contains unknown tag %q", d)
		}
		if seen[d] {
			return fmt.Errorf("scheduled_days contains %q more than once", d)
		}
		seen[d] = true
	}
	return nil
}

func isValidTimeFormat(s string) bool {
	_, err := time.Parse(constants.TimeFormat, s)
	return err == nil
}

// IssueType represents the type of data-quality issue
type IssueType string

const (
	IssueDuplicateSource     IssueType = "duplicate_source"
	IssueIgnoredSchedule     IssueType = "ignored_scheduled_days"
	IssueMonthlyOnMondays    IssueType = "monthly_on_mondays"
	IssueInvalidActivity     IssueType = "invalid_activity"
	IssueCompletedOnceActive IssueType = "completed_once_active"
)

// Issue is a detected problem in stored activities. Issues are reported, not
// rejected; they describe data that is valid but probably not what the owner
// intended.
type Issue struct {
	Type        IssueType
	Description string
	ActivityIDs []string
}

// ValidationResult contains all detected issues
type ValidationResult struct {
	Issues []Issue
}

// HasIssues returns true if there are any issues
func (vr *ValidationResult) HasIssues() bool {
	return len(vr.Issues) > 0
}

// FormatReport returns a human-readable report of all issues
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasIssues() {
		return "No issues detected."
	}

	var b strings.Builder
	b.WriteString("Issues detected:\n")
	for _, issue := range vr.Issues {
		fmt.Fprintf(&b, "- %s\n", issue.Description)
	}
	return b.String()
}

// Validator inspects a set of activities for data-quality issues
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

// ValidateActivities reports issues across one owner's activities.
// onceCompleted holds the ids of ONCE activities whose ONCE completion is done.
func (v *Validator) ValidateActivities(activities []models.Activity, onceCompleted map[string]bool) ValidationResult {
	result := ValidationResult{Issues: []Issue{}}

	sources := make(map[string][]string)
	for _, a := range activities {
		if err := ValidateActivity(a); err != nil {
			result.Issues = append(result.Issues, Issue{
				Type:        IssueInvalidActivity,
				Description: fmt.Sprintf("Activity %q is invalid: %v", a.Title, err),
				ActivityIDs: []string{a.ID},
			})
		}

		if a.SourceType != models.SourceManual && a.SourceID != nil && *a.SourceID != "" {
			key := string(a.SourceType) + ":" + *a.SourceID
			sources[key] = append(sources[key], a.ID)
		}

		if a.IsArchived {
			continue
		}

		switch a.FrequencyType {
		case models.FrequencyWeekly:
		case models.FrequencyMonthly:
			result.Issues = append(result.Issues, Issue{
				Type:        IssueMonthlyOnMondays,
				Description: fmt.Sprintf("Monthly activity %q surfaces every Monday, not once per month", a.Title),
				ActivityIDs: []string{a.ID},
			})
			fallthrough
		default:
			if len(a.ScheduledDays) > 0 {
				result.Issues = append(result.Issues, Issue{
					Type:        IssueIgnoredSchedule,
					Description: fmt.Sprintf("Activity %q has scheduled_days %s but is %s; the days are ignored", a.Title, calendar.JoinWeekdays(a.ScheduledDays), a.FrequencyType),
					ActivityIDs: []string{a.ID},
				})
			}
		}

		if a.FrequencyType == models.FrequencyOnce && onceCompleted[a.ID] {
			result.Issues = append(result.Issues, Issue{
				Type:        IssueCompletedOnceActive,
				Description: fmt.Sprintf("One-time activity %q is completed but not archived", a.Title),
				ActivityIDs: []string{a.ID},
			})
		}
	}

	keys := make([]string, 0, len(sources))
	for key := range sources {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		ids := sources[key]
		if len(ids) > 1 {
			result.Issues = append(result.Issues, Issue{
				Type:        IssueDuplicateSource,
				Description: fmt.Sprintf("Duplicate imported activity for %s (IDs: %v)", key, ids),
				ActivityIDs: ids,
			})
		}
	}

	return result
}
