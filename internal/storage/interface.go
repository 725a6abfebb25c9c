// Package storage defines the persistence boundary. Implementations live in
// the sqlite and postgres subpackages.
package storage

import (
	"context"
	"errors"

	"github.com/julianstephens/lifeplan/internal/models"
)

// ErrNotFound is returned by Get methods when no row matches.
var ErrNotFound = errors.New("record not found")

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Activities
	AddActivity(ctx context.Context, a models.Activity) error
	GetActivity(ctx context.Context, id string) (models.Activity, error)
	// ListActivities returns ownerID's activities ordered by order_position
	// then created_at.
	ListActivities(ctx context.Context, ownerID string, includeArchived bool) ([]models.Activity, error)
	UpdateActivity(ctx context.Context, a models.Activity) error
	// DeleteActivity removes the activity and every completion recorded for it.
	DeleteActivity(ctx context.Context, id string) error

	// Completions
	GetCompletion(ctx context.Context, activityID, periodKey string) (models.Completion, error)
	// UpsertCompletion inserts c or updates the row already stored for
	// (c.ActivityID, c.PeriodKey), and returns the stored row. The returned id
	// is the id of the row that was first inserted for the key.
	UpsertCompletion(ctx context.Context, c models.Completion) (models.Completion, error)
	// ListCompletions returns the completions of ownerID's activities in
	// activityIDs whose period key is in periodKeys.
	ListCompletions(ctx context.Context, ownerID string, activityIDs, periodKeys []string) ([]models.Completion, error)

	// Utils
	GetConfigPath() string
}
