// Package ledger records completion state per (activity, period key).
//
// The pure functions PeriodKeyFor, ApplyToggle and ApplyNotes compute the
// next state of a completion. Ledger binds them to a Repository and enforces
// ownership, classifying every failure with an internal/errors Kind.
package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/lifeplan/internal/calendar"
	apperr "github.com/julianstephens/lifeplan/internal/errors"
	"github.com/julianstephens/lifeplan/internal/logger"
	"github.com/julianstephens/lifeplan/internal/models"
	"github.com/julianstephens/lifeplan/internal/storage"
)

// PeriodKeyFor returns the key a toggle or note write on d is recorded under.
// ONCE activities always use the ONCE key; every other frequency keys by day.
func PeriodKeyFor(a models.Activity, d calendar.Date) string {
	if a.FrequencyType == models.FrequencyOnce {
		return calendar.OnceKey()
	}
	return calendar.DayKey(d)
}

// ApplyToggle returns the completion after toggling a on d. With no existing
// record a new completed one is built with id newID.
func ApplyToggle(a models.Activity, d calendar.Date, existing *models.Completion, now time.Time, newID string) models.Completion {
	if existing == nil {
		return models.Completion{
			ID:          newID,
			ActivityID:  a.ID,
			PeriodKey:   PeriodKeyFor(a, d),
			Date:        d,
			Completed:   true,
			CompletedAt: &now,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	next := *existing
	next.Date = d
	next.Completed = !existing.Completed
	if next.Completed {
		next.CompletedAt = &now
	} else {
		next.CompletedAt = nil
	}
	next.UpdatedAt = now
	return next
}

// ApplyNotes returns the completion after writing notes for a on d. The
// completed state is never changed; a new record starts not completed.
func ApplyNotes(a models.Activity, d calendar.Date, existing *models.Completion, notes string, now time.Time, newID string) models.Completion {
	if existing == nil {
		return models.Completion{
			ID:         newID,
			ActivityID: a.ID,
			PeriodKey:  PeriodKeyFor(a, d),
			Date:       d,
			Notes:      notes,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	}
	next := *existing
	next.Notes = notes
	next.UpdatedAt = now
	return next
}

// Repository is the persistence the ledger needs. Get methods return
// storage.ErrNotFound for a missing row.
type Repository interface {
	GetActivity(ctx context.Context, id string) (models.Activity, error)
	GetCompletion(ctx context.Context, activityID, periodKey string) (models.Completion, error)
	// UpsertCompletion writes c keyed by (ActivityID, PeriodKey) and returns
	// the stored row.
	UpsertCompletion(ctx context.Context, c models.Completion) (models.Completion, error)
	ListCompletions(ctx context.Context, ownerID string, activityIDs, periodKeys []string) ([]models.Completion, error)
}

type Ledger struct {
	Repo  Repository
	Now   func() time.Time
	NewID func() string
}

func New(repo Repository) *Ledger {
	return &Ledger{
		Repo:  repo,
		Now:   func() time.Time { return time.Now().UTC() },
		NewID: uuid.NewString,
	}
}

// Toggle flips the completion of activityID on d for ownerID.
//
// When the stored row turns out to have been created by another writer, the
// stored row is returned together with a Conflict error so the caller can
// replace its local state.
func (l *Ledger) Toggle(ctx context.Context, ownerID, activityID string, d calendar.Date) (models.Completion, error) {
	const op = "toggle completion"
	a, existing, err := l.load(ctx, op, ownerID, activityID, d)
	if err != nil {
		return models.Completion{}, err
	}
	next := ApplyToggle(a, d, existing, l.Now(), l.NewID())
	return l.write(ctx, op, next)
}

// SetNotes writes notes for activityID on d without touching completed state.
func (l *Ledger) SetNotes(ctx context.Context, ownerID, activityID string, d calendar.Date, notes string) (models.Completion, error) {
	const op = "set completion notes"
	a, existing, err := l.load(ctx, op, ownerID, activityID, d)
	if err != nil {
		return models.Completion{}, err
	}
	next := ApplyNotes(a, d, existing, notes, l.Now(), l.NewID())
	return l.write(ctx, op, next)
}

// CompletionsForKeys returns ownerID's completions for activityIDs whose
// period key is in periodKeys. An empty id or key set reads nothing.
func (l *Ledger) CompletionsForKeys(ctx context.Context, ownerID string, activityIDs, periodKeys []string) ([]models.Completion, error) {
	const op = "list completions"
	if len(activityIDs) == 0 || len(periodKeys) == 0 {
		return nil, nil
	}
	rows, err := l.Repo.ListCompletions(ctx, ownerID, activityIDs, periodKeys)
	if err != nil {
		return nil, apperr.Upstream(op, err)
	}

	ids := toSet(activityIDs)
	keys := toSet(periodKeys)
	out := make([]models.Completion, 0, len(rows))
	for _, c := range rows {
		if ids[c.ActivityID] && keys[c.PeriodKey] {
			out = append(out, c)
		}
	}
	return out, nil
}

// Owned returns activityID if it exists and belongs to ownerID.
func (l *Ledger) Owned(ctx context.Context, ownerID, activityID string) (models.Activity, error) {
	return l.owned(ctx, "get activity", ownerID, activityID)
}

func (l *Ledger) owned(ctx context.Context, op, ownerID, activityID string) (models.Activity, error) {
	if strings.TrimSpace(activityID) == "" {
		return models.Activity{}, apperr.Validation(op, "activity id is required")
	}
	a, err := l.Repo.GetActivity(ctx, activityID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Activity{}, apperr.NotFound(op, "activity %s not found", activityID)
	}
	if err != nil {
		return models.Activity{}, apperr.Upstream(op, err)
	}
	if a.OwnerID != ownerID {
		return models.Activity{}, apperr.Unauthorized(op, "activity %s is not owned by %s", activityID, ownerID)
	}
	return a, nil
}

func (l *Ledger) load(ctx context.Context, op, ownerID, activityID string, d calendar.Date) (models.Activity, *models.Completion, error) {
	if d.IsZero() {
		return models.Activity{}, nil, apperr.Validation(op, "date is required")
	}
	a, err := l.owned(ctx, op, ownerID, activityID)
	if err != nil {
		return models.Activity{}, nil, err
	}

	key := PeriodKeyFor(a, d)
	c, err := l.Repo.GetCompletion(ctx, a.ID, key)
	if errors.Is(err, storage.ErrNotFound) {
		return a, nil, nil
	}
	if err != nil {
		return models.Activity{}, nil, apperr.Upstream(op, err)
	}
	return a, &c, nil
}

func (l *Ledger) write(ctx context.Context, op string, next models.Completion) (models.Completion, error) {
	saved, err := l.Repo.UpsertCompletion(ctx, next)
	if err != nil {
		logger.Warn("Completion write failed", "activity_id", next.ActivityID, "period_key", next.PeriodKey, "error", err)
		return models.Completion{}, apperr.Upstream(op, err)
	}
	if saved.ID != next.ID {
		logger.Info("Completion written concurrently", "activity_id", next.ActivityID, "period_key", next.PeriodKey, "stored_id", saved.ID)
		return saved, apperr.Conflict(op, "completion %s/%s was written by another session", next.ActivityID, next.PeriodKey)
	}
	logger.Debug("Completion written", "activity_id", saved.ActivityID, "period_key", saved.PeriodKey, "completed", saved.Completed)
	return saved, nil
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
