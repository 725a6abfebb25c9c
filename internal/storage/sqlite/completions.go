package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/lifeplan/internal/models"
	"github.com/julianstephens/lifeplan/internal/storage"
)

const completionColumns = `id, activity_id, period_key, date, completed, completed_at, notes, created_at, updated_at`

func scanCompletion(row rowScanner) (models.Completion, error) {
	var c models.Completion
	var completedAt sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&c.ID, &c.ActivityID, &c.PeriodKey, &c.Date, &c.Completed, &completedAt, &c.Notes,
		&createdAt, &updatedAt)
	if err != nil {
		return models.Completion{}, err
	}

	if completedAt.Valid {
		t, err := parseTime("completed_at", completedAt.String)
		if err != nil {
			return models.Completion{}, err
		}
		c.CompletedAt = &t
	}
	if c.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return models.Completion{}, err
	}
	if c.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return models.Completion{}, err
	}
	return c, nil
}

func (s *Store) GetCompletion(ctx context.Context, activityID, periodKey string) (models.Completion, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+completionColumns+` FROM completions
		WHERE activity_id = ? AND period_key = ?`, activityID, periodKey)
	c, err := scanCompletion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Completion{}, storage.ErrNotFound
	}
	return c, err
}

func (s *Store) UpsertCompletion(ctx context.Context, c models.Completion) (models.Completion, error) {
	var completedAt sql.NullString
	if c.CompletedAt != nil {
		completedAt = sql.NullString{String: formatTime(*c.CompletedAt), Valid: true}
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO completions (`+completionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(activity_id, period_key) DO UPDATE SET
			date = excluded.date,
			completed = excluded.completed,
			completed_at = excluded.completed_at,
			notes = excluded.notes,
			updated_at = excluded.updated_at
		RETURNING `+completionColumns,
		c.ID, c.ActivityID, c.PeriodKey, c.Date, c.Completed, completedAt, c.Notes,
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt))

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

	args := make([]any, 0, 1+len(activityIDs)+len(periodKeys))
	args = append(args, ownerID)
	for _, id := range activityIDs {
		args = append(args, id)
	}
	for _, key := range periodKeys {
		args = append(args, key)
	}

	query := fmt.Sprintf(`
		SELECT c.id, c.activity_id, c.period_key, c.date, c.completed, c.completed_at, c.notes, c.created_at, c.updated_at
		FROM completions c
		JOIN activities a ON a.id = c.activity_id
		WHERE a.owner_id = ? AND c.activity_id IN (%s) AND c.period_key IN (%s)
		ORDER BY c.activity_id, c.period_key`,
		placeholders(len(activityIDs)), placeholders(len(periodKeys)))

	rows, err := s.db.QueryContext(ctx, query, args...)
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

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
