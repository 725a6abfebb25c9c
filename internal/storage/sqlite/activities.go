package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/lifeplan/internal/calendar"
	"github.com/julianstephens/lifeplan/internal/models"
	"github.com/julianstephens/lifeplan/internal/storage"
)

const activityColumns = `id, owner_id, title, notes, domain_id, goal_id, source_type, source_id,
	frequency_type, frequency_value, scheduled_days, time_of_day, is_archived, order_position,
	created_at, updated_at`

// encodeDays stores nil as NULL and an empty set as the empty string.
func encodeDays(days []calendar.Weekday) sql.NullString {
	if days == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: calendar.JoinWeekdays(days), Valid: true}
}

func decodeDays(ns sql.NullString) ([]calendar.Weekday, error) {
	if !ns.Valid {
		return nil, nil
	}
	if ns.String == "" {
		return []calendar.Weekday{}, nil
	}
	var days []calendar.Weekday
	for _, tag := range strings.Split(ns.String, ",") {
		d := calendar.Weekday(tag)
		if !d.Valid() {
			return nil, fmt.Errorf("invalid scheduled day %q", tag)
		}
		days = append(days, d)
	}
	return days, nil
}

func scanActivity(row rowScanner) (models.Activity, error) {
	var a models.Activity
	var domainID, goalID, sourceID, days sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&a.ID, &a.OwnerID, &a.Title, &a.Notes, &domainID, &goalID, &a.SourceType, &sourceID,
		&a.FrequencyType, &a.FrequencyValue, &days, &a.TimeOfDay, &a.IsArchived, &a.OrderPosition,
		&createdAt, &updatedAt)
	if err != nil {
		return models.Activity{}, err
	}

	a.DomainID = stringPtr(domainID)
	a.GoalID = stringPtr(goalID)
	a.SourceID = stringPtr(sourceID)
	if a.ScheduledDays, err = decodeDays(days); err != nil {
		return models.Activity{}, fmt.Errorf("activity %s: %w", a.ID, err)
	}
	if a.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return models.Activity{}, err
	}
	if a.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return models.Activity{}, err
	}
	return a, nil
}

func (s *Store) AddActivity(ctx context.Context, a models.Activity) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (`+activityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.OwnerID, a.Title, a.Notes, nullString(a.DomainID), nullString(a.GoalID), a.SourceType,
		nullString(a.SourceID), a.FrequencyType, a.FrequencyValue, encodeDays(a.ScheduledDays), a.TimeOfDay,
		a.IsArchived, a.OrderPosition, formatTime(a.CreatedAt), formatTime(a.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert activity %s: %w", a.ID, err)
	}
	return nil
}

func (s *Store) GetActivity(ctx context.Context, id string) (models.Activity, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Activity{}, storage.ErrNotFound
	}
	return a, err
}

func (s *Store) ListActivities(ctx context.Context, ownerID string, includeArchived bool) ([]models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE owner_id = ?`
	if !includeArchived {
		query += " AND is_archived = 0"
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
			title = ?, notes = ?, domain_id = ?, goal_id = ?, frequency_type = ?, frequency_value = ?,
			scheduled_days = ?, time_of_day = ?, is_archived = ?, order_position = ?, updated_at = ?
		WHERE id = ?`,
		a.Title, a.Notes, nullString(a.DomainID), nullString(a.GoalID), a.FrequencyType, a.FrequencyValue,
		encodeDays(a.ScheduledDays), a.TimeOfDay, a.IsArchived, a.OrderPosition, formatTime(a.UpdatedAt), a.ID)
	if err != nil {
		return fmt.Errorf("failed to update activity %s: %w", a.ID, err)
	}
	return requireRow(result)
}

func (s *Store) DeleteActivity(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
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
