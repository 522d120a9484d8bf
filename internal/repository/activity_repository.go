package repository

import (
	"context"
	"database/sql"
	"fmt"

	"Mansoor88-6/schedule-tracker/internal/models"
)

type ActivityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

const activityColumns = `id, user_id, name, color, weekly_target_minutes, active, created_at, updated_at`

func scanActivity(s rowScanner) (*models.Activity, error) {
	var a models.Activity
	var createdAt, updatedAt string
	if err := s.Scan(&a.ID, &a.UserID, &a.Name, &a.Color, &a.WeeklyTargetMinutes, &a.Active, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ActivityRepository) Create(ctx context.Context, a *models.Activity) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activities (id, user_id, name, color, weekly_target_minutes, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Name, a.Color, a.WeeklyTargetMinutes, a.Active,
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", translate(err, "activity with this name"))
	}
	return nil
}

func (r *ActivityRepository) GetByID(ctx context.Context, userID, id string) (*models.Activity, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE id = ? AND user_id = ?`, id, userID)
	a, err := scanActivity(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", translate(err, "activity"))
	}
	return a, nil
}

func (r *ActivityRepository) List(ctx context.Context, userID string, activeOnly bool) ([]*models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE user_id = ?`
	if activeOnly {
		query += ` AND active = 1`
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	activities := []*models.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return activities, nil
}

func (r *ActivityRepository) Update(ctx context.Context, a *models.Activity) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE activities
		SET name = ?, color = ?, weekly_target_minutes = ?, active = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		a.Name, a.Color, a.WeeklyTargetMinutes, a.Active, formatTime(a.UpdatedAt), a.ID, a.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update activity: %w", translate(err, "activity with this name"))
	}
	return rowsAffected(res, "activity")
}

// Delete removes the activity. Segments and logs that referenced it keep
// existing with activity_id set to NULL by the foreign key.
func (r *ActivityRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	return rowsAffected(res, "activity")
}
