package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/lifeplan/internal/calendar"
	"github.com/julianstephens/lifeplan/internal/models"
	"github.com/julianstephens/lifeplan/internal/storage"
)

var _ storage.Provider = (*Store)(nil)

func setupStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "lifeplan.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func strPtr(s string) *string { return &s }

func newActivity(id, owner string, order int) models.Activity {
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	return models.Activity{
		ID:            id,
		OwnerID:       owner,
		Title:         "Activity " + id,
		SourceType:    models.SourceManual,
		FrequencyType: models.FrequencyDaily,
		OrderPosition: order,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestLoadRequiresInit(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	if err := store.Load(); err == nil {
		t.Fatal("expected Load to fail on a missing database")
	}
}

func TestInitThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "lifeplan.db")
	store := NewStore(path)
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	store.Close()

	reopened := NewStore(path)
	if err := reopened.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer reopened.Close()
	if reopened.GetConfigPath() != path {
		t.Errorf("GetConfigPath = %q, want %q", reopened.GetConfigPath(), path)
	}
}

func TestActivityRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	a := newActivity("a1", "u1", 0)
	a.DomainID = strPtr("health")
	a.SourceType = models.SourceWheel
	a.SourceID = strPtr("wheel-7")
	a.FrequencyType = models.FrequencyWeekly
	a.ScheduledDays = []calendar.Weekday{calendar.Monday, calendar.Wednesday, calendar.Friday}
	a.TimeOfDay = "07:00"

	if err := store.AddActivity(ctx, a); err != nil {
		t.Fatalf("AddActivity failed: %v", err)
	}

	got, err := store.GetActivity(ctx, "a1")
	if err != nil {
		t.Fatalf("GetActivity failed: %v", err)
	}
	if got.Title != a.Title || got.OwnerID != "u1" || got.TimeOfDay != "07:00" {
		t.Errorf("unexpected activity: %+v", got)
	}
	if got.DomainID == nil || *got.DomainID != "health" || got.GoalID != nil {
		t.Errorf("unexpected category: domain=%v goal=%v", got.DomainID, got.GoalID)
	}
	if calendar.JoinWeekdays(got.ScheduledDays) != "L,X,V" {
		t.Errorf("ScheduledDays = %v", got.ScheduledDays)
	}
	if !got.CreatedAt.Equal(a.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, a.CreatedAt)
	}

	if _, err := store.GetActivity(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestScheduledDaysNilVersusEmpty(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	nilDays := newActivity("nil", "u1", 0)
	nilDays.FrequencyType = models.FrequencyWeekly
	emptyDays := newActivity("empty", "u1", 1)
	emptyDays.FrequencyType = models.FrequencyWeekly
	emptyDays.ScheduledDays = []calendar.Weekday{}

	for _, a := range []models.Activity{nilDays, emptyDays} {
		if err := store.AddActivity(ctx, a); err != nil {
			t.Fatalf("AddActivity failed: %v", err)
		}
	}

	got, _ := store.GetActivity(ctx, "nil")
	if got.ScheduledDays != nil {
		t.Errorf("nil days came back as %#v", got.ScheduledDays)
	}
	got, _ = store.GetActivity(ctx, "empty")
	if got.ScheduledDays == nil || len(got.ScheduledDays) != 0 {
		t.Errorf("empty days came back as %#v", got.ScheduledDays)
	}
}

func TestListActivities(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	second := newActivity("b", "u1", 2)
	first := newActivity("a", "u1", 1)
	archived := newActivity("c", "u1", 0)
	archived.IsArchived = true
	other := newActivity("d", "u2", 0)
	for _, a := range []models.Activity{second, first, archived, other} {
		if err := store.AddActivity(ctx, a); err != nil {
			t.Fatalf("AddActivity failed: %v", err)
		}
	}

	active, err := store.ListActivities(ctx, "u1", false)
	if err != nil {
		t.Fatalf("ListActivities failed: %v", err)
	}
	if len(active) != 2 || active[0].ID != "a" || active[1].ID != "b" {
		t.Errorf("active = %+v, want [a b]", active)
	}

	all, err := store.ListActivities(ctx, "u1", true)
	if err != nil {
		t.Fatalf("ListActivities failed: %v", err)
	}
	if len(all) != 3 || all[0].ID != "c" {
		t.Errorf("all = %+v, want c first", all)
	}
}

func TestUpdateAndDeleteActivity(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	a := newActivity("a1", "u1", 0)
	if err := store.AddActivity(ctx, a); err != nil {
		t.Fatalf("AddActivity failed: %v", err)
	}

	a.Title = "Renamed"
	a.IsArchived = true
	a.GoalID = strPtr("goal-1")
	if err := store.UpdateActivity(ctx, a); err != nil {
		t.Fatalf("UpdateActivity failed: %v", err)
	}
	got, _ := store.GetActivity(ctx, "a1")
	if got.Title != "Renamed" || !got.IsArchived || got.GoalID == nil {
		t.Errorf("update not persisted: %+v", got)
	}

	missing := newActivity("nope", "u1", 0)
	if err := store.UpdateActivity(ctx, missing); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound updating missing activity, got %v", err)
	}
	if err := store.DeleteActivity(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting missing activity, got %v", err)
	}
}

func newCompletion(id, activityID, key string, d calendar.Date) models.Completion {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	return models.Completion{
		ID:          id,
		ActivityID:  activityID,
		PeriodKey:   key,
		Date:        d,
		Completed:   true,
		CompletedAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestUpsertCompletionKeepsOneRowPerKey(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	if err := store.AddActivity(ctx, newActivity("a1", "u1", 0)); err != nil {
		t.Fatalf("AddActivity failed: %v", err)
	}
	d := calendar.MustParse("2024-01-15")

	saved, err := store.UpsertCompletion(ctx, newCompletion("c1", "a1", "2024-01-15", d))
	if err != nil {
		t.Fatalf("UpsertCompletion failed: %v", err)
	}
	if saved.ID != "c1" || !saved.Completed || saved.CompletedAt == nil {
		t.Errorf("unexpected saved completion: %+v", saved)
	}
	if saved.Date != d {
		t.Errorf("Date = %v, want %v", saved.Date, d)
	}

	// A second writer proposing another id for the same key updates the stored row.
	undo := newCompletion("c2", "a1", "2024-01-15", d)
	undo.Completed = false
	undo.CompletedAt = nil
	undo.Notes = "skipped"
	saved, err = store.UpsertCompletion(ctx, undo)
	if err != nil {
		t.Fatalf("UpsertCompletion failed: %v", err)
	}
	if saved.ID != "c1" {
		t.Errorf("stored id = %s, want original c1", saved.ID)
	}
	if saved.Completed || saved.CompletedAt != nil || saved.Notes != "skipped" {
		t.Errorf("update not applied: %+v", saved)
	}

	got, err := store.GetCompletion(ctx, "a1", "2024-01-15")
	if err != nil {
		t.Fatalf("GetCompletion failed: %v", err)
	}
	if got.ID != "c1" || got.Completed {
		t.Errorf("GetCompletion = %+v", got)
	}
	if _, err := store.GetCompletion(ctx, "a1", "2024-01-16"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListCompletionsFiltersByKeyAndOwner(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	for _, a := range []models.Activity{newActivity("a1", "u1", 0), newActivity("a2", "u1", 1), newActivity("x1", "u2", 0)} {
		if err := store.AddActivity(ctx, a); err != nil {
			t.Fatalf("AddActivity failed: %v", err)
		}
	}

	d := calendar.MustParse("2024-01-15")
	rows := []models.Completion{
		newCompletion("c1", "a1", "2024-01-15", d),
		newCompletion("c2", "a1", "2024-01-14", d.AddDays(-1)),
		newCompletion("c3", "a2", calendar.OncePeriodKey, d),
		newCompletion("c4", "x1", "2024-01-15", d),
	}
	for _, c := range rows {
		if _, err := store.UpsertCompletion(ctx, c); err != nil {
			t.Fatalf("UpsertCompletion failed: %v", err)
		}
	}

	got, err := store.ListCompletions(ctx, "u1", []string{"a1", "a2", "x1"}, []string{"2024-01-15", calendar.OncePeriodKey})
	if err != nil {
		t.Fatalf("ListCompletions failed: %v", err)
	}
	ids := map[string]bool{}
	for _, c := range got {
		ids[c.ID] = true
	}
	if len(got) != 2 || !ids["c1"] || !ids["c3"] {
		t.Errorf("ListCompletions = %+v, want c1 and c3", got)
	}

	empty, err := store.ListCompletions(ctx, "u1", nil, []string{"2024-01-15"})
	if err != nil || len(empty) != 0 {
		t.Errorf("empty id set returned %v, %v", empty, err)
	}
}

func TestDeleteActivityCascadesCompletions(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	if err := store.AddActivity(ctx, newActivity("a1", "u1", 0)); err != nil {
		t.Fatalf("AddActivity failed: %v", err)
	}
	d := calendar.MustParse("2024-01-15")
	if _, err := store.UpsertCompletion(ctx, newCompletion("c1", "a1", "2024-01-15", d)); err != nil {
		t.Fatalf("UpsertCompletion failed: %v", err)
	}

	if err := store.DeleteActivity(ctx, "a1"); err != nil {
		t.Fatalf("DeleteActivity failed: %v", err)
	}
	if _, err := store.GetCompletion(ctx, "a1", "2024-01-15"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("completion survived cascade: %v", err)
	}
	if _, err := store.UpsertCompletion(ctx, newCompletion("c2", "a1", "2024-01-16", d)); err == nil {
		t.Error("expected foreign key failure for deleted activity")
	}
}
