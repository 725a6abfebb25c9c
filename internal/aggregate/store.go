// Package aggregate holds the in-memory working set of a view: activities
// merged with their completions, plus a dirty flag tracking whether local
// changes have been confirmed by persistence.
//
// A Store performs no I/O. It is owned by a single view or session and is not
// safe for concurrent use.
package aggregate

import (
	"github.com/julianstephens/lifeplan/internal/calendar"
	apperr "github.com/julianstephens/lifeplan/internal/errors"
	"github.com/julianstephens/lifeplan/internal/models"
	"github.com/julianstephens/lifeplan/internal/recurrence"
)

// Rate is completed out of total due activities.
type Rate struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

type entry struct {
	activity    models.Activity
	completions []models.Completion
}

// Store is the working set of one view. The zero value is an empty, clean
// store.
type Store struct {
	entries []*entry
	byID    map[string]*entry
	filter  models.CategoryFilter
	dirty   bool
}

// New returns a clean store hydrated with activities and completions.
func New(activities []models.Activity, completions []models.Completion) *Store {
	s := &Store{}
	s.Hydrate(activities, completions)
	return s
}

// Hydrate replaces the working set. Completions for unknown activities are
// dropped. The store is clean afterwards; the filter is kept.
func (s *Store) Hydrate(activities []models.Activity, completions []models.Completion) {
	s.entries = make([]*entry, 0, len(activities))
	s.byID = make(map[string]*entry, len(activities))
	for _, a := range activities {
		e := &entry{activity: a}
		s.entries = append(s.entries, e)
		s.byID[a.ID] = e
	}
	for _, c := range completions {
		if e, ok := s.byID[c.ActivityID]; ok {
			e.completions = append(e.completions, c)
		}
	}
	s.dirty = false
}

// Reset empties the store and clears the filter.
func (s *Store) Reset() {
	s.Hydrate(nil, nil)
	s.filter = models.CategoryFilter{}
}

func (s *Store) SetFilter(f models.CategoryFilter) {
	s.filter = f
}

func (s *Store) Filter() models.CategoryFilter {
	return s.filter
}

// Activities returns every activity in the store, archived included, in
// insertion order.
func (s *Store) Activities() []models.Activity {
	out := make([]models.Activity, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.activity
	}
	return out
}

func (s *Store) Activity(id string) (models.Activity, bool) {
	e, ok := s.byID[id]
	if !ok {
		return models.Activity{}, false
	}
	return e.activity, true
}

// Completions returns a copy of the completions held for activity id.
func (s *Store) Completions(id string) []models.Completion {
	e, ok := s.byID[id]
	if !ok {
		return nil
	}
	return append([]models.Completion(nil), e.completions...)
}

// ActivitiesDueOn returns the non-archived activities passing the filter that
// are due on d.
func (s *Store) ActivitiesDueOn(d calendar.Date) []models.Activity {
	var due []models.Activity
	for _, e := range s.entries {
		if e.activity.IsArchived || !s.filter.Matches(e.activity) {
			continue
		}
		if recurrence.IsDueOn(e.activity, d, e.completions) {
			due = append(due, e.activity)
		}
	}
	return due
}

// CompletionRate counts the activities due on d that have a completed
// completion dated d.
func (s *Store) CompletionRate(d calendar.Date) Rate {
	due := s.ActivitiesDueOn(d)
	rate := Rate{Total: len(due)}
	for _, a := range due {
		if s.CompletedOn(a.ID, d) {
			rate.Completed++
		}
	}
	return rate
}

// CompletedOn reports whether activity id has a completed completion dated d.
func (s *Store) CompletedOn(id string, d calendar.Date) bool {
	e, ok := s.byID[id]
	if !ok {
		return false
	}
	for _, c := range e.completions {
		if c.Date == d && c.Completed {
			return true
		}
	}
	return false
}

// OncePartition splits the non-archived ONCE activities passing the filter
// into pending and completed.
func (s *Store) OncePartition() (pending, completed []models.Activity) {
	for _, e := range s.entries {
		a := e.activity
		if a.IsArchived || a.FrequencyType != models.FrequencyOnce || !s.filter.Matches(a) {
			continue
		}
		if recurrence.OnceCompleted(a.ID, e.completions) {
			completed = append(completed, a)
		} else {
			pending = append(pending, a)
		}
	}
	return pending, completed
}

// ToggleActivityCompletion merges c into activityID's completions, replacing
// the record with the same period key, or failing that the same date. It
// marks the store dirty.
func (s *Store) ToggleActivityCompletion(activityID string, d calendar.Date, c models.Completion) error {
	e, ok := s.byID[activityID]
	if !ok {
		return apperr.NotFound("toggle activity completion", "activity %s is not in the store", activityID)
	}
	s.mergeCompletion(e, d, c)
	s.dirty = true
	return nil
}

func (s *Store) mergeCompletion(e *entry, d calendar.Date, c models.Completion) {
	for i, existing := range e.completions {
		if c.PeriodKey != "" && existing.PeriodKey != "" {
			if existing.PeriodKey == c.PeriodKey {
				e.completions[i] = c
				return
			}
			continue
		}
		if existing.Date == d {
			e.completions[i] = c
			return
		}
	}
	e.completions = append(e.completions, c)
}

// ReplaceCompletion applies server truth for activityID without changing the
// dirty flag.
func (s *Store) ReplaceCompletion(activityID string, d calendar.Date, c models.Completion) {
	if e, ok := s.byID[activityID]; ok {
		s.mergeCompletion(e, d, c)
	}
}

// AddActivity appends a. An activity already present is rejected.
func (s *Store) AddActivity(a models.Activity) error {
	if _, ok := s.byID[a.ID]; ok {
		return apperr.Validation("add activity", "activity %s is already in the store", a.ID)
	}
	s.insert(a)
	s.dirty = true
	return nil
}

func (s *Store) insert(a models.Activity) {
	if s.byID == nil {
		s.byID = make(map[string]*entry)
	}
	e := &entry{activity: a}
	s.entries = append(s.entries, e)
	s.byID[a.ID] = e
}

// UpdateActivity applies patch to activity id and returns the result.
func (s *Store) UpdateActivity(id string, patch models.ActivityPatch) (models.Activity, error) {
	e, ok := s.byID[id]
	if !ok {
		return models.Activity{}, apperr.NotFound("update activity", "activity %s is not in the store", id)
	}
	e.activity = patch.Apply(e.activity)
	s.dirty = true
	return e.activity, nil
}

// ArchiveActivity is UpdateActivity with the archive patch.
func (s *Store) ArchiveActivity(id string) (models.Activity, error) {
	return s.UpdateActivity(id, models.Archive())
}

// PutActivity replaces or appends a without changing the dirty flag. It is
// used to apply persisted state.
func (s *Store) PutActivity(a models.Activity) {
	if e, ok := s.byID[a.ID]; ok {
		e.activity = a
		return
	}
	s.insert(a)
}

// RemoveActivity drops activity id and its completions.
func (s *Store) RemoveActivity(id string) error {
	if _, ok := s.byID[id]; !ok {
		return apperr.NotFound("remove activity", "activity %s is not in the store", id)
	}
	delete(s.byID, id)
	for i, e := range s.entries {
		if e.activity.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}
	s.dirty = true
	return nil
}

func (s *Store) IsDirty() bool {
	return s.dirty
}

// MarkClean records that persistence has confirmed the local state.
func (s *Store) MarkClean() {
	s.dirty = false
}
