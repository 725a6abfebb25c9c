package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/julianstephens/lifeplan/internal/calendar"
	apperr "github.com/julianstephens/lifeplan/internal/errors"
	"github.com/julianstephens/lifeplan/internal/models"
)

func strPtr(s string) *string { return &s }

func validActivity() models.Activity {
	return models.Activity{
		ID:            "a1",
		OwnerID:       "u1",
		Title:         "Run",
		SourceType:    models.SourceManual,
		FrequencyType: models.FrequencyDaily,
	}
}

func TestValidateActivity(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(a *models.Activity)
		wantErr string
	}{
		{name: "valid", mutate: func(a *models.Activity) {}},
		{name: "blank title", mutate: func(a *models.Activity) { a.Title = "  " }, wantErr: "title is required"},
		{name: "missing owner", mutate: func(a *models.Activity) { a.OwnerID = "" }, wantErr: "owner_id is required"},
		{name: "unknown frequency", mutate: func(a *models.Activity) { a.FrequencyType = "YEARLY" }, wantErr: "frequency_type"},
		{name: "negative frequency value", mutate: func(a *models.Activity) { a.FrequencyValue = -1 }, wantErr: "frequency_value"},
		{name: "unknown source", mutate: func(a *models.Activity) { a.SourceType = "IMPORT" }, wantErr: "source_type"},
		{name: "wheel without source id", mutate: func(a *models.Activity) { a.SourceType = models.SourceWheel }, wantErr: "source_id is required"},
		{name: "wheel with source id", mutate: func(a *models.Activity) {
			a.SourceType = models.SourceWheel
			a.SourceID = strPtr("wheel-1")
		}},
		{name: "bad weekday tag", mutate: func(a *models.Activity) {
			a.FrequencyType = models.FrequencyWeekly
			a.ScheduledDays = []calendar.Weekday{"L", "Q"}
		}, wantErr: "unknown tag"},
		{name: "duplicate weekday tag", mutate: func(a *models.Activity) {
			a.FrequencyType = models.FrequencyWeekly
			a.ScheduledDays = []calendar.Weekday{"L", "L"}
		}, wantErr: "more than once"},
		{name: "empty scheduled days", mutate: func(a *models.Activity) {
			a.FrequencyType = models.FrequencyWeekly
			a.ScheduledDays = []calendar.Weekday{}
		}},
		{name: "valid time of day", mutate: func(a *models.Activity) { a.TimeOfDay = "07:30" }},
		{name: "bad time of day", mutate: func(a *models.Activity) { a.TimeOfDay = "7:30pm" }, wantErr: "time_of_day"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validActivity()
			tt.mutate(&a)
			err := ValidateActivity(a)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
			if !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("expected validation kind, got %v", apperr.KindOf(err))
			}
		})
	}
}

func TestValidateActivityReportsAllProblems(t *testing.T) {
	a := validActivity()
	a.Title = ""
	a.FrequencyType = "HOURLY"
	err := ValidateActivity(a)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "title") || !strings.Contains(err.Error(), "frequency_type") {
		t.Errorf("expected both problems in %q", err)
	}
}

func findIssue(result ValidationResult, typ IssueType) *Issue {
	for i := range result.Issues {
		if result.Issues[i].Type == typ {
			return &result.Issues[i]
		}
	}
	return nil
}

func TestValidateActivitiesClean(t *testing.T) {
	validator := New()
	weekly := validActivity()
	weekly.ID = "a2"
	weekly.FrequencyType = models.FrequencyWeekly
	weekly.ScheduledDays = []calendar.Weekday{calendar.Monday}

	result := validator.ValidateActivities([]models.Activity{validActivity(), weekly}, nil)
	if result.HasIssues() {
		t.Errorf("expected no issues, got %+v", result.Issues)
	}
	if result.FormatReport() != "No issues detected." {
		t.Errorf("unexpected report: %q", result.FormatReport())
	}
}

func TestValidateActivitiesDuplicateSource(t *testing.T) {
	validator := New()
	a := validActivity()
	a.SourceType = models.SourceOdyssey
	a.SourceID = strPtr("plan-1")
	b := a
	b.ID = "a2"
	c := a
	c.ID = "a3"
	c.SourceID = strPtr("plan-2")

	result := validator.ValidateActivities([]models.Activity{a, b, c}, nil)
	issue := findIssue(result, IssueDuplicateSource)
	if issue == nil {
		t.Fatalf("expected duplicate source issue, got %+v", result.Issues)
	}
	if len(issue.ActivityIDs) != 2 || issue.ActivityIDs[0] != "a1" || issue.ActivityIDs[1] != "a2" {
		t.Errorf("ActivityIDs = %v, want [a1 a2]", issue.ActivityIDs)
	}
}

func TestValidateActivitiesScheduleIssues(t *testing.T) {
	validator := New()
	daily := validActivity()
	daily.ScheduledDays = []calendar.Weekday{calendar.Friday}

	monthly := validActivity()
	monthly.ID = "m1"
	monthly.FrequencyType = models.FrequencyMonthly

	archived := validActivity()
	archived.ID = "old"
	archived.FrequencyType = models.FrequencyMonthly
	archived.IsArchived = true

	result := validator.ValidateActivities([]models.Activity{daily, monthly, archived}, nil)

	ignored := findIssue(result, IssueIgnoredSchedule)
	if ignored == nil || ignored.ActivityIDs[0] != "a1" {
		t.Errorf("expected ignored schedule issue for a1, got %+v", result.Issues)
	}
	mondays := findIssue(result, IssueMonthlyOnMondays)
	if mondays == nil || mondays.ActivityIDs[0] != "m1" {
		t.Errorf("expected monthly issue for m1, got %+v", result.Issues)
	}
	for _, issue := range result.Issues {
		if issue.ActivityIDs[0] == "old" {
			t.Errorf("archived activity should not be reported: %+v", issue)
		}
	}
	if !strings.Contains(result.FormatReport(), "surfaces every Monday") {
		t.Errorf("report missing monthly description:\n%s", result.FormatReport())
	}
}

func TestValidateActivitiesCompletedOnce(t *testing.T) {
	validator := New()
	once := validActivity()
	once.ID = "o1"
	once.FrequencyType = models.FrequencyOnce

	result := validator.ValidateActivities([]models.Activity{once}, map[string]bool{"o1": true})
	if findIssue(result, IssueCompletedOnceActive) == nil {
		t.Errorf("expected completed once issue, got %+v", result.Issues)
	}

	result = validator.ValidateActivities([]models.Activity{once}, map[string]bool{})
	if result.HasIssues() {
		t.Errorf("pending once activity should be clean, got %+v", result.Issues)
	}
}
