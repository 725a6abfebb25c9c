// Package engine ties the pure components to persistence. A view is loaded
// by planning its window, fetching the owner's activities and the
// completions under the window's period keys, and hydrating an aggregate
// store. Writes are applied to the view's store first and then written
// through; the store stays dirty until persistence confirms.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/lifeplan/internal/aggregate"
	"github.com/julianstephens/lifeplan/internal/calendar"
	apperr "github.com/julianstephens/lifeplan/internal/errors"
	"github.com/julianstephens/lifeplan/internal/ledger"
	"github.com/julianstephens/lifeplan/internal/logger"
	"github.com/julianstephens/lifeplan/internal/models"
	"github.com/julianstephens/lifeplan/internal/planner"
	"github.com/julianstephens/lifeplan/internal/storage"
	"github.com/julianstephens/lifeplan/internal/validation"
)

type Engine struct {
	Store storage.Provider
	Now   func() time.Time
	NewID func() string
}

func New(store storage.Provider) Engine {
	return Engine{
		Store: store,
		Now:   func() time.Time { return time.Now().UTC() },
		NewID: uuid.NewString,
	}
}

// Ledger returns the completion ledger over e's store, sharing e's clock and
// id source.
func (e Engine) Ledger() *ledger.Ledger {
	return &ledger.Ledger{Repo: e.Store, Now: e.now, NewID: e.newID}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now().UTC()
}

func (e Engine) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()
}

// View is a planned window and the working set loaded for it.
type View struct {
	Window planner.Window
	Store  *aggregate.Store

	// inFlight counts local writes not yet reconciled, per activity and
	// period key. unsynced holds keys whose latest write failed.
	inFlight map[string]int
	unsynced map[string]bool
}

// Pending returns the number of local writes awaiting Reconcile.
func (v *View) Pending() int {
	n := 0
	for _, c := range v.inFlight {
		n += c
	}
	return n
}

// settle marks the store clean when every local write has been confirmed.
func (v *View) settle() {
	if v.Pending() == 0 && len(v.unsynced) == 0 {
		v.Store.MarkClean()
	}
}

func (v *View) writeKey(activityID string, d calendar.Date) string {
	if a, ok := v.Store.Activity(activityID); ok {
		return activityID + "|" + ledger.PeriodKeyFor(a, d)
	}
	return activityID + "|" + calendar.DayKey(d)
}

func (v *View) beginWrite(activityID string, d calendar.Date) {
	if v.inFlight == nil {
		v.inFlight = make(map[string]int)
	}
	v.inFlight[v.writeKey(activityID, d)]++
}

// endWrite settles one write and reports whether another write for the
// same key is still outstanding.
func (v *View) endWrite(activityID string, d calendar.Date, failed bool) (superseded bool) {
	key := v.writeKey(activityID, d)
	switch n := v.inFlight[key]; {
	case n > 1:
		v.inFlight[key] = n - 1
		superseded = true
	case n == 1:
		delete(v.inFlight, key)
	}
	if failed {
		if v.unsynced == nil {
			v.unsynced = make(map[string]bool)
		}
		v.unsynced[key] = true
	} else if !superseded {
		delete(v.unsynced, key)
	}
	return superseded
}

// LoadView plans the window for mode and focus and loads it for ownerID.
func (e Engine) LoadView(ctx context.Context, ownerID string, mode planner.ViewMode, focus calendar.Date) (*View, error) {
	v := &View{Store: aggregate.New(nil, nil)}
	if err := e.Refresh(ctx, ownerID, v, mode, focus); err != nil {
		return nil, err
	}
	return v, nil
}

// Refresh replans v for mode and focus and re-hydrates its store, keeping
// the store's filter. Outstanding writes are forgotten.
func (e Engine) Refresh(ctx context.Context, ownerID string, v *View, mode planner.ViewMode, focus calendar.Date) error {
	const op = "load view"
	w, err := planner.PlanWindow(mode, focus)
	if err != nil {
		return apperr.Validation(op, "%v", err)
	}

	activities, err := e.Store.ListActivities(ctx, ownerID, false)
	if err != nil {
		return apperr.Upstream(op, err)
	}
	completions, err := e.Ledger().CompletionsForKeys(ctx, ownerID, activityIDs(activities), w.PeriodKeys)
	if err != nil {
		return err
	}

	v.Window = w
	v.Store.Hydrate(activities, completions)
	v.inFlight = nil
	v.unsynced = nil
	logger.Debug("View loaded", "owner_id", ownerID, "mode", mode, "focus", focus, "activities", len(activities), "completions", len(completions))
	return nil
}

func activityIDs(activities []models.Activity) []string {
	ids := make([]string, len(activities))
	for i, a := range activities {
		ids[i] = a.ID
	}
	return ids
}

// Toggle flips activityID's completion on d.
//
// With a view, the toggle is first applied to the view's store. On success
// the stored completion replaces the local one and the store is marked
// clean. On Conflict the stored completion replaces the local one, the store
// is marked clean, and the Conflict error is returned with it. Any other
// write failure leaves the store dirty.
func (e Engine) Toggle(ctx context.Context, v *View, ownerID, activityID string, d calendar.Date) (models.Completion, error) {
	local, err := e.ToggleLocal(v, ownerID, activityID, d)
	if err != nil {
		return models.Completion{}, err
	}
	saved, err := e.Ledger().Toggle(ctx, ownerID, activityID, d)
	if !local {
		return saved, err
	}
	return saved, e.Reconcile(v, activityID, d, saved, err)
}

// ToggleLocal applies the optimistic half of Toggle to v's store and marks
// it dirty. It reports false, changing nothing, when v does not hold
// activityID. Callers that write through asynchronously pair it with
// Ledger().Toggle and Reconcile.
func (e Engine) ToggleLocal(v *View, ownerID, activityID string, d calendar.Date) (bool, error) {
	return e.applyLocal("toggle completion", v, ownerID, activityID, d, func(a models.Activity, existing *models.Completion) models.Completion {
		return ledger.ApplyToggle(a, d, existing, e.now(), e.newID())
	})
}

// SetNotes writes notes for activityID on d, following the same
// write-through rules as Toggle.
func (e Engine) SetNotes(ctx context.Context, v *View, ownerID, activityID string, d calendar.Date, notes string) (models.Completion, error) {
	local, err := e.applyLocal("set completion notes", v, ownerID, activityID, d, func(a models.Activity, existing *models.Completion) models.Completion {
		return ledger.ApplyNotes(a, d, existing, notes, e.now(), e.newID())
	})
	if err != nil {
		return models.Completion{}, err
	}
	saved, err := e.Ledger().SetNotes(ctx, ownerID, activityID, d, notes)
	if !local {
		return saved, err
	}
	return saved, e.Reconcile(v, activityID, d, saved, err)
}

func (e Engine) applyLocal(op string, v *View, ownerID, activityID string, d calendar.Date, next func(models.Activity, *models.Completion) models.Completion) (bool, error) {
	if d.IsZero() {
		return false, apperr.Validation(op, "date is required")
	}
	if v == nil {
		return false, nil
	}
	a, ok := v.Store.Activity(activityID)
	if !ok {
		return false, nil
	}
	if a.OwnerID != ownerID {
		return false, apperr.Unauthorized(op, "activity %s is not owned by %s", activityID, ownerID)
	}
	if err := v.Store.ToggleActivityCompletion(activityID, d, next(a, localCompletion(v.Store, a, d))); err != nil {
		return false, err
	}
	v.beginWrite(activityID, d)
	return true, nil
}

func localCompletion(s *aggregate.Store, a models.Activity, d calendar.Date) *models.Completion {
	key := ledger.PeriodKeyFor(a, d)
	for _, c := range s.Completions(a.ID) {
		if c.PeriodKey == key {
			return &c
		}
	}
	return nil
}

// Reconcile settles one write-through of activityID on d. Success and
// Conflict install saved unless a later local write for the same key is
// still outstanding. The store is marked clean only once no write is
// pending and none has failed since the last Refresh. Any other error
// leaves the store dirty and is returned.
func (e Engine) Reconcile(v *View, activityID string, d calendar.Date, saved models.Completion, err error) error {
	failed := err != nil && !apperr.Is(err, apperr.KindConflict)
	superseded := v.endWrite(activityID, d, failed)
	if failed {
		logger.Warn("Write-through failed, view left dirty", "activity_id", activityID, "date", d, "error", err)
		return err
	}
	if !superseded {
		v.Store.ReplaceCompletion(activityID, d, saved)
	}
	v.settle()
	return err
}

func (e Engine) ListActivities(ctx context.Context, ownerID string, includeArchived bool) ([]models.Activity, error) {
	activities, err := e.Store.ListActivities(ctx, ownerID, includeArchived)
	if err != nil {
		return nil, apperr.Upstream("list activities", err)
	}
	return activities, nil
}

// GetActivity returns activityID if ownerID owns it.
func (e Engine) GetActivity(ctx context.Context, ownerID, activityID string) (models.Activity, error) {
	return e.Ledger().Owned(ctx, ownerID, activityID)
}

// CreateActivity assigns a an id and timestamps, validates it and stores it
// for ownerID. An empty source type defaults to MANUAL.
func (e Engine) CreateActivity(ctx context.Context, v *View, ownerID string, a models.Activity) (models.Activity, error) {
	const op = "create activity"
	now := e.now()
	if a.ID == "" {
		a.ID = e.newID()
	}
	if a.SourceType == "" {
		a.SourceType = models.SourceManual
	}
	a.OwnerID = ownerID
	a.CreatedAt = now
	a.UpdatedAt = now
	if err := validation.ValidateActivity(a); err != nil {
		return models.Activity{}, err
	}

	if v != nil {
		if err := v.Store.AddActivity(a); err != nil {
			return models.Activity{}, err
		}
	}
	if err := e.Store.AddActivity(ctx, a); err != nil {
		logger.Warn("Failed to store activity", "activity_id", a.ID, "error", err)
		return models.Activity{}, apperr.Upstream(op, err)
	}
	if v != nil {
		v.settle()
	}
	logger.Info("Activity created", "activity_id", a.ID, "owner_id", ownerID, "frequency", a.FrequencyType)
	return a, nil
}

// UpdateActivity applies patch to ownerID's activityID.
func (e Engine) UpdateActivity(ctx context.Context, v *View, ownerID, activityID string, patch models.ActivityPatch) (models.Activity, error) {
	return e.update(ctx, v, ownerID, activityID, patch, func(s *aggregate.Store) error {
		_, err := s.UpdateActivity(activityID, patch)
		return err
	})
}

// ArchiveActivity soft-deletes activityID. Its completions are kept.
func (e Engine) ArchiveActivity(ctx context.Context, v *View, ownerID, activityID string) (models.Activity, error) {
	return e.update(ctx, v, ownerID, activityID, models.Archive(), func(s *aggregate.Store) error {
		_, err := s.ArchiveActivity(activityID)
		return err
	})
}

func (e Engine) update(ctx context.Context, v *View, ownerID, activityID string, patch models.ActivityPatch, local func(*aggregate.Store) error) (models.Activity, error) {
	const op = "update activity"
	current, err := e.Ledger().Owned(ctx, ownerID, activityID)
	if err != nil {
		return models.Activity{}, err
	}
	if patch.Empty() {
		return current, nil
	}

	next := patch.Apply(current)
	next.UpdatedAt = e.now()
	if err := validation.ValidateActivity(next); err != nil {
		return models.Activity{}, err
	}

	inView := false
	if v != nil {
		if _, ok := v.Store.Activity(activityID); ok {
			inView = true
			if err := local(v.Store); err != nil {
				return models.Activity{}, err
			}
		}
	}

	if err := e.Store.UpdateActivity(ctx, next); err != nil {
		logger.Warn("Failed to update activity", "activity_id", activityID, "error", err)
		return models.Activity{}, storageErr(op, activityID, err)
	}
	if inView {
		v.Store.PutActivity(next)
		v.settle()
	}
	return next, nil
}

// DeleteActivity hard-deletes activityID and every completion recorded for it.
func (e Engine) DeleteActivity(ctx context.Context, v *View, ownerID, activityID string) error {
	const op = "delete activity"
	if _, err := e.Ledger().Owned(ctx, ownerID, activityID); err != nil {
		return err
	}

	inView := false
	if v != nil {
		if _, ok := v.Store.Activity(activityID); ok {
			inView = true
			if err := v.Store.RemoveActivity(activityID); err != nil {
				return err
			}
		}
	}

	if err := e.Store.DeleteActivity(ctx, activityID); err != nil {
		logger.Warn("Failed to delete activity", "activity_id", activityID, "error", err)
		return storageErr(op, activityID, err)
	}
	if inView {
		v.settle()
	}
	logger.Info("Activity deleted", "activity_id", activityID, "owner_id", ownerID)
	return nil
}

// Validate reports data-quality issues across all of ownerID's activities.
func (e Engine) Validate(ctx context.Context, ownerID string) (validation.ValidationResult, error) {
	activities, err := e.ListActivities(ctx, ownerID, true)
	if err != nil {
		return validation.ValidationResult{}, err
	}
	completions, err := e.Ledger().CompletionsForKeys(ctx, ownerID, activityIDs(activities), []string{calendar.OnceKey()})
	if err != nil {
		return validation.ValidationResult{}, err
	}
	onceCompleted := make(map[string]bool)
	for _, c := range completions {
		if c.Completed {
			onceCompleted[c.ActivityID] = true
		}
	}
	return validation.New().ValidateActivities(activities, onceCompleted), nil
}

func storageErr(op, activityID string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound(op, "activity %s not found", activityID)
	}
	return apperr.Upstream(op, err)
}
