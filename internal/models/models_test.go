package models

import (
	"testing"

	"github.com/julianstephens/lifeplan/internal/calendar"
)

func strPtr(s string) *string { return &s }

func TestFrequencyAndSourceValid(t *testing.T) {
	for _, f := range FrequencyTypes {
		if !f.Valid() {
			t.Errorf("%s should be valid", f)
		}
	}
	if FrequencyType("YEARLY").Valid() {
		t.Error("YEARLY should not be valid")
	}
	if FrequencyType("daily").Valid() {
		t.Error("frequency types are case-sensitive")
	}
	for _, s := range []SourceType{SourceWheel, SourceOdyssey, SourceManual} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if SourceType("IMPORT").Valid() {
		t.Error("IMPORT should not be valid")
	}
}

func TestActivityPatchApply(t *testing.T) {
	base := Activity{
		ID:            "a1",
		OwnerID:       "u1",
		Title:         "Run",
		DomainID:      strPtr("health"),
		FrequencyType: FrequencyDaily,
		SourceType:    SourceManual,
	}

	title := "Run 5k"
	weekly := FrequencyWeekly
	days := []calendar.Weekday{calendar.Monday, calendar.Friday}
	var noDomain *string
	patch := ActivityPatch{
		Title:         &title,
		FrequencyType: &weekly,
		ScheduledDays: &days,
		DomainID:      &noDomain,
	}

	got := patch.Apply(base)
	if got.Title != "Run 5k" || got.FrequencyType != FrequencyWeekly {
		t.Errorf("patch not applied: %+v", got)
	}
	if got.DomainID != nil {
		t.Errorf("DomainID = %v, want cleared", *got.DomainID)
	}
	if len(got.ScheduledDays) != 2 {
		t.Errorf("ScheduledDays = %v", got.ScheduledDays)
	}
	if got.ID != "a1" || got.OwnerID != "u1" {
		t.Error("identity must not change")
	}

	// the patch copies the slice
	days[0] = calendar.Sunday
	if got.ScheduledDays[0] != calendar.Monday {
		t.Error("Apply should copy scheduled days")
	}

	// the base value is not mutated
	if base.Title != "Run" || base.DomainID == nil {
		t.Error("Apply mutated its input")
	}
}

func TestActivityPatchKeepsEmptyScheduledDays(t *testing.T) {
	empty := []calendar.Weekday{}
	got := ActivityPatch{ScheduledDays: &empty}.Apply(Activity{ScheduledDays: []calendar.Weekday{calendar.Monday}})
	if got.ScheduledDays == nil || len(got.ScheduledDays) != 0 {
		t.Errorf("ScheduledDays = %#v, want empty non-nil", got.ScheduledDays)
	}

	var none []calendar.Weekday
	got = ActivityPatch{ScheduledDays: &none}.Apply(Activity{ScheduledDays: []calendar.Weekday{calendar.Monday}})
	if got.ScheduledDays != nil {
		t.Errorf("ScheduledDays = %#v, want nil", got.ScheduledDays)
	}
}

func TestArchivePatch(t *testing.T) {
	p := Archive()
	if p.Empty() {
		t.Fatal("archive patch should not be empty")
	}
	if !p.Apply(Activity{}).IsArchived {
		t.Error("archive patch should set IsArchived")
	}
	if !(ActivityPatch{}).Empty() {
		t.Error("zero patch should be empty")
	}
}

func TestCategoryFilter(t *testing.T) {
	health := Activity{ID: "1", DomainID: strPtr("health")}
	goal := Activity{ID: "2", GoalID: strPtr("marathon")}
	both := Activity{ID: "3", DomainID: strPtr("health"), GoalID: strPtr("marathon")}
	bare := Activity{ID: "4"}

	tests := []struct {
		name   string
		filter CategoryFilter
		want   map[string]bool
	}{
		{"none", CategoryFilter{}, map[string]bool{"1": true, "2": true, "3": true, "4": true}},
		{"domain", ByDomain("health"), map[string]bool{"1": true, "3": true}},
		{"goal", ByGoal("marathon"), map[string]bool{"2": true, "3": true}},
		{"uncategorized", Uncategorized(), map[string]bool{"4": true}},
		{"unknown domain", ByDomain("work"), map[string]bool{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, a := range []Activity{health, goal, both, bare} {
				if got := tt.filter.Matches(a); got != tt.want[a.ID] {
					t.Errorf("Matches(%s) = %v, want %v", a.ID, got, tt.want[a.ID])
				}
			}
		})
	}
}
