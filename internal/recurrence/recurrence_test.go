package recurrence

import (
	"testing"

	"github.com/julianstephens/lifeplan/internal/calendar"
	"github.com/julianstephens/lifeplan/internal/models"
)

func activity(freq models.FrequencyType, days []calendar.Weekday) models.Activity {
	return models.Activity{ID: "a1", OwnerID: "u1", Title: "t", FrequencyType: freq, ScheduledDays: days}
}

func TestIsDueOnWeeklyWithDays(t *testing.T) {
	a := activity(models.FrequencyWeekly, []calendar.Weekday{calendar.Monday, calendar.Wednesday, calendar.Friday})
	tests := []struct {
		date string
		want bool
	}{
		{"2024-06-17", true},
		{"2024-06-18", false},
		{"2024-06-19", true},
		{"2024-06-20", false},
		{"2024-06-21", true},
		{"2024-06-22", false},
		{"2024-06-23", false},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			if got := IsDueOn(a, calendar.MustParse(tt.date), nil); got != tt.want {
				t.Errorf("IsDueOn(%s) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}

func TestIsDueOnUnrestrictedWeeklyMatchesDaily(t *testing.T) {
	daily := activity(models.FrequencyDaily, nil)
	nilDays := activity(models.FrequencyWeekly, nil)
	emptyDays := activity(models.FrequencyWeekly, []calendar.Weekday{})

	for _, d := range calendar.Range(calendar.MustParse("2024-01-01"), calendar.MustParse("2024-12-31")) {
		want := IsDueOn(daily, d, nil)
		if !want {
			t.Fatalf("daily not due on %s", d)
		}
		if IsDueOn(nilDays, d, nil) != want {
			t.Errorf("weekly with nil days differs from daily on %s", d)
		}
		if IsDueOn(emptyDays, d, nil) != want {
			t.Errorf("weekly with empty days differs from daily on %s", d)
		}
	}
}

func TestIsDueOnMonthlyIsMonday(t *testing.T) {
	a := activity(models.FrequencyMonthly, nil)
	for _, d := range calendar.Range(calendar.MustParse("2023-12-01"), calendar.MustParse("2025-01-31")) {
		want := calendar.WeekdayTag(d) == calendar.Monday
		if got := IsDueOn(a, d, nil); got != want {
			t.Errorf("IsDueOn(monthly, %s) = %v, want %v", d, got, want)
		}
	}
}

func TestIsDueOnOnce(t *testing.T) {
	a := activity(models.FrequencyOnce, nil)
	d0 := calendar.MustParse("2024-03-10")

	if !IsDueOn(a, d0, nil) {
		t.Fatal("pending once activity should be due")
	}

	completed := []models.Completion{{ID: "c1", ActivityID: "a1", PeriodKey: calendar.OncePeriodKey, Date: d0, Completed: true}}
	for _, d := range []calendar.Date{d0.AddDays(-400), d0.AddDays(-1), d0, d0.AddDays(1), d0.AddDays(3650)} {
		if IsDueOn(a, d, completed) {
			t.Errorf("completed once activity due on %s", d)
		}
	}

	undone := []models.Completion{{ID: "c1", ActivityID: "a1", PeriodKey: calendar.OncePeriodKey, Date: d0, Completed: false}}
	if !IsDueOn(a, d0.AddDays(5), undone) {
		t.Error("uncompleted once activity should be due again")
	}

	dayKeyed := []models.Completion{{ID: "c2", ActivityID: "a1", PeriodKey: calendar.DayKey(d0), Date: d0, Completed: true}}
	if !IsDueOn(a, d0, dayKeyed) {
		t.Error("only the ONCE key completes a once activity")
	}

	other := []models.Completion{{ID: "c3", ActivityID: "other", PeriodKey: calendar.OncePeriodKey, Completed: true}}
	if !IsDueOn(a, d0, other) {
		t.Error("another activity's completion must not hide this one")
	}
}

func TestIsDueOnUnknownFrequency(t *testing.T) {
	a := activity("YEARLY", nil)
	if IsDueOn(a, calendar.MustParse("2024-01-01"), nil) {
		t.Error("unknown frequency should never be due")
	}
}

func TestIsDueOnAcrossBoundaries(t *testing.T) {
	a := activity(models.FrequencyWeekly, []calendar.Weekday{calendar.Sunday, calendar.Monday})
	tests := []struct {
		date string
		want bool
	}{
		{"2023-12-31", true}, // Sunday, year end
		{"2024-01-01", true}, // Monday, year start
		{"2024-01-02", false},
		{"2024-02-29", false}, // Thursday, leap day
		{"2024-03-31", true},  // Sunday, month end
		{"2024-04-01", true},  // Monday, month start
	}
	for _, tt := range tests {
		if got := IsDueOn(a, calendar.MustParse(tt.date), nil); got != tt.want {
			t.Errorf("IsDueOn(%s) = %v, want %v", tt.date, got, tt.want)
		}
	}
}

func TestDueSkipsArchived(t *testing.T) {
	live := activity(models.FrequencyDaily, nil)
	archived := activity(models.FrequencyDaily, nil)
	archived.ID = "a2"
	archived.IsArchived = true

	due := Due([]models.Activity{live, archived}, calendar.MustParse("2024-01-15"), nil)
	if len(due) != 1 || due[0].ID != "a1" {
		t.Errorf("Due = %+v, want only a1", due)
	}
}
