package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	pq "github.com/lib/pq"

	"github.com/julianstephens/lifeplan/internal/models"
	"github.com/julianstephens/lifeplan/internal/storage"
)

const completionColumns = `id, activity_id, period_key, date, completed, completed_at, notes, created_at, updated_at`

func scanCompletion(row rowScanner) (models.Completion, error) {
	var c models.Completion
	var completedAt sql.NullTime

	err := row.Scan(&c.ID, &c.ActivityID, &c.PeriodKey, &c.Date, &c.Completed, &completedAt, &c.Notes,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return models.Completion{}, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		c.CompletedAt = &t
	}
	return c, nil
}

func (s *Store) GetCompletion(ctx context.Context, activityID, periodKey string) (models.Completion, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+completionColumns+` FROM completions
		WHERE activity_id = $1 AND period_key = $2`, activityID, periodKey)
	c, err := scanCompletion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Completion{}, storage.ErrNotFound
	}
	return c, err
}

func (s *Store) UpsertCompletion(ctx context.Context, c models.Completion) (models.Completion, error) {
	var completedAt sql.NullTime
	if c.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *c.CompletedAt, Valid: true}
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO completions (`+completionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (activity_id, period_key) DO UPDATE SET
			date = EXCLUDED.date,
			completed = EXCLUDED.completed,
			completed_at = EXCLUDED.completed_at,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at
		RETURNING `+completionColumns,
		c.ID, c.ActivityID, c.PeriodKey, c.Date, c.Completed, completedAt, c.Notes, c.CreatedAt, c.UpdatedAt)

	saved, err := scanCompletion(row)
	if err != nil {
		return models.Completion{}, fmt.Errorf("failed to upsert completion %s/%s: %w", c.ActivityID, c.PeriodKey, err)
	}
	return saved, nil
}

func (s *Store) ListCompletions(ctx context.Context, ownerID string, activityIDs, periodKeys []string) ([]models.Completion, error) {
	if len(activityIDs) == 0 || len(periodKeys) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.activity_id, c.period_key, c.date, c.completed, c.completed_at, c.notes, c.created_at, c.updated_at
		FROM completions c
		JOIN activities a ON a.id = c.activity_id
		WHERE a.owner_id = $1 AND c.activity_id = ANY($2) AND c.period_key = ANY($3)
		ORDER BY c.activity_id, c.period_key`,
		ownerID, pq.Array(activityIDs), pq.Array(periodKeys))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var completions []models.Completion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, err
		}
		completions = append(completions, c)
	}
	return completions, rows.Err()
}
