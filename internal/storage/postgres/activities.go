package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	pq "github.com/lib/pq"

	"github.com/julianstephens/lifeplan/internal/calendar"
	"github.com/julianstephens/lifeplan/internal/models"
	"github.com/julianstephens/lifeplan/internal/storage"
)

const activityColumns = `id, owner_id, title, notes, domain_id, goal_id, source_type, source_id,
	frequency_type, frequency_value, scheduled_days, time_of_day, is_archived, order_position,
	created_at, updated_at`

// encodeDays keeps nil as NULL and an empty set as '{}'.
func encodeDays(days []calendar.Weekday) pq.StringArray {
	if days == nil {
		return nil
	}
	out := make(pq.StringArray, len(days))
	for i, d := range days {
		out[i] = string(d)
	}
	return out
}

func decodeDays(arr pq.StringArray) ([]calendar.Weekday, error) {
	if arr == nil {
		return nil, nil
	}
	days := make([]calendar.Weekday, len(arr))
	for i, tag := range arr {
		d := calendar.Weekday(tag)
		if !d.Valid() {
			return nil, fmt.Errorf("invalid scheduled day %q", tag)
		}
		days[i] = d
	}
	return days, nil
}

func scanActivity(row rowScanner) (models.Activity, error) {
	var a models.Activity
	var domainID, goalID, sourceID sql.NullString
	var days pq.StringArray

	err := row.Scan(&a.ID, &a.OwnerID, &a.Title, &a.Notes, &domainID, &goalID, &a.SourceType, &sourceID,
		&a.FrequencyType, &a.FrequencyValue, &days, &a.TimeOfDay, &a.IsArchived, &a.OrderPosition,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return models.Activity{}, err
	}

	if domainID.Valid {
		a.DomainID = &domainID.String
	}
	if goalID.Valid {
		a.GoalID = &goalID.String
	}
	if sourceID.Valid {
		a.SourceID = &sourceID.String
	}
	if a.ScheduledDays, err = decodeDays(days); err != nil {
		return models.Activity{}, fmt.Errorf("activity %s: %w", a.ID, err)
	}
	return a, nil
}

func nullable(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func (s *Store) AddActivity(ctx context.Context, a models.Activity) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (`+activityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		a.ID, a.OwnerID, a.Title, a.Notes, nullable(a.DomainID), nullable(a.GoalID), a.SourceType,
		nullable(a.SourceID), a.FrequencyType, a.FrequencyValue, encodeDays(a.ScheduledDays), a.TimeOfDay,
		a.IsArchived, a.OrderPosition, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert activity %s: %w", a.ID, err)
	}
	return nil
}

func (s *Store) GetActivity(ctx context.Context, id string) (models.Activity, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = $1`, id)
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Activity{}, storage.ErrNotFound
	}
	return a, err
}

func (s *Store) ListActivities(ctx context.Context, ownerID string, includeArchived bool) ([]models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE owner_id = $1`
	if !includeArchived {
		query += " AND NOT is_archived"
	}
	query += " ORDER BY order_position, created_at, id"

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []models.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func (s *Store) UpdateActivity(ctx context.Context, a models.Activity) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE activities SET
			title = $1, notes = $2, domain_id = $3, goal_id = $4, frequency_type = $5, frequency_value = $6,
			scheduled_days = $7, time_of_day = $8, is_archived = $9, order_position = $10, updated_at = $11
		WHERE id = $12`,
		a.Title, a.Notes, nullable(a.DomainID), nullable(a.GoalID), a.FrequencyType, a.FrequencyValue,
		encodeDays(a.ScheduledDays), a.TimeOfDay, a.IsArchived, a.OrderPosition, a.UpdatedAt, a.ID)
	if err != nil {
		return fmt.Errorf("failed to update activity %s: %w", a.ID, err)
	}
	return requireRow(result)
}

func (s *Store) DeleteActivity(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM activities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete activity %s: %w", id, err)
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}
