package repository

import (
	"context"
	"database/sql"
	"fmt"

	"Mansoor88-6/schedule-tracker/internal/apperrors"
	"Mansoor88-6/schedule-tracker/internal/models"
	"Mansoor88-6/schedule-tracker/internal/timeutil"
)

type SegmentRepository struct {
	db *sql.DB
}

func NewSegmentRepository(db *sql.DB) *SegmentRepository {
	return &SegmentRepository{db: db}
}

const segmentColumns = `id, user_id, weekday, start_minute, end_minute, activity_id, notes,
	effective_from, effective_to, previous_id, created_at, updated_at`

func scanSegment(s rowScanner) (*models.ScheduleSegment, error) {
	var seg models.ScheduleSegment
	var createdAt, updatedAt string
	err := s.Scan(
		&seg.ID, &seg.UserID, &seg.Weekday, &seg.StartMinute, &seg.EndMinute,
		&seg.ActivityID, &seg.Notes, &seg.EffectiveFrom, &seg.EffectiveTo, &seg.PreviousID,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if seg.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if seg.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	seg.Start = timeutil.MinutesToHHMM(seg.StartMinute)
	seg.End = timeutil.MinutesToHHMM(seg.EndMinute)
	return &seg, nil
}

func (r *SegmentRepository) query(ctx context.Context, query string, args ...any) ([]*models.ScheduleSegment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query segments: %w", err)
	}
	defer rows.Close()

	segments := []*models.ScheduleSegment{}
	for rows.Next() {
		seg, err := scanSegment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan segment: %w", err)
		}
		segments = append(segments, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return segments, nil
}

func insertSegment(ctx context.Context, db execer, s *models.ScheduleSegment) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO schedule_segments
			(id, user_id, weekday, start_minute, end_minute, activity_id, notes,
			 effective_from, effective_to, previous_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.Weekday, s.StartMinute, s.EndMinute, s.ActivityID, s.Notes,
		s.EffectiveFrom, s.EffectiveTo, s.PreviousID, formatTime(s.CreatedAt), formatTime(s.UpdatedAt),
	)
	return translate(err, "segment")
}

func (r *SegmentRepository) Create(ctx context.Context, s *models.ScheduleSegment) error {
	if err := insertSegment(ctx, r.db, s); err != nil {
		return fmt.Errorf("failed to create segment: %w", err)
	}
	return nil
}

func (r *SegmentRepository) GetByID(ctx context.Context, userID, id string) (*models.ScheduleSegment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+segmentColumns+` FROM schedule_segments WHERE id = ? AND user_id = ?`, id, userID)
	seg, err := scanSegment(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get segment: %w", translate(err, "segment"))
	}
	return seg, nil
}

// ListOpen returns open rows, optionally for a single weekday (0 for all).
func (r *SegmentRepository) ListOpen(ctx context.Context, userID string, weekday int) ([]*models.ScheduleSegment, error) {
	query := `SELECT ` + segmentColumns + ` FROM schedule_segments WHERE user_id = ? AND effective_to IS NULL`
	args := []any{userID}
	if weekday != 0 {
		query += ` AND weekday = ?`
		args = append(args, weekday)
	}
	query += ` ORDER BY weekday, start_minute`
	return r.query(ctx, query, args...)
}

// ListActiveOn returns the versions in force on the given day.
func (r *SegmentRepository) ListActiveOn(ctx context.Context, userID, day string) ([]*models.ScheduleSegment, error) {
	return r.query(ctx, `
		SELECT `+segmentColumns+` FROM schedule_segments
		WHERE user_id = ?
			AND effective_from <= ?
			AND (effective_to IS NULL OR effective_to >= ?)
		ORDER BY weekday, start_minute`, userID, day, day)
}

// ListCurrentAndUpcoming returns the rows in force on today plus every row
// that only takes effect after today. Fully historical rows are left out.
func (r *SegmentRepository) ListCurrentAndUpcoming(ctx context.Context, userID, today string) ([]*models.ScheduleSegment, error) {
	return r.query(ctx, `
		SELECT `+segmentColumns+` FROM schedule_segments
		WHERE user_id = ?
			AND ((effective_from <= ? AND (effective_to IS NULL OR effective_to >= ?))
				OR effective_from > ?)
		ORDER BY weekday, start_minute, effective_from`, userID, today, today, today)
}

// FindOpenOverlap returns an open segment on weekday intersecting
// [start,end), ignoring excludeID.
func (r *SegmentRepository) FindOpenOverlap(ctx context.Context, userID string, weekday, start, end int, excludeID string) (*models.ScheduleSegment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+segmentColumns+` FROM schedule_segments
		WHERE user_id = ? AND weekday = ? AND effective_to IS NULL
			AND id <> ?
			AND ? < end_minute AND ? > start_minute
		ORDER BY start_minute
		LIMIT 1`, userID, weekday, excludeID, start, end)
	seg, err := scanSegment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check segment overlap: %w", err)
	}
	return seg, nil
}

// Update rewrites an open row in place.
func (r *SegmentRepository) Update(ctx context.Context, s *models.ScheduleSegment) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE schedule_segments
		SET weekday = ?, start_minute = ?, end_minute = ?, activity_id = ?, notes = ?,
			effective_from = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND effective_to IS NULL`,
		s.Weekday, s.StartMinute, s.EndMinute, s.ActivityID, s.Notes,
		s.EffectiveFrom, formatTime(s.UpdatedAt), s.ID, s.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update segment: %w", translate(err, "segment"))
	}
	return rowsAffected(res, "open segment")
}

// Version closes current with effectiveTo and inserts next in the same
// transaction. Either both happen or neither does.
func (r *SegmentRepository) Version(ctx context.Context, current *models.ScheduleSegment, effectiveTo string, next *models.ScheduleSegment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE schedule_segments
		SET effective_to = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND effective_to IS NULL`,
		effectiveTo, formatTime(next.CreatedAt), current.ID, current.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to close segment: %w", translate(err, "segment"))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return apperrors.State("segment is already closed")
	}

	if err := insertSegment(ctx, tx, next); err != nil {
		return fmt.Errorf("failed to insert segment version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	current.EffectiveTo = &effectiveTo
	return nil
}

// Reschedule rewrites a version that has not taken effect yet, including its
// effective_from, and moves the end of the version it replaces to prevTo.
func (r *SegmentRepository) Reschedule(ctx context.Context, s *models.ScheduleSegment, prevTo string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if s.PreviousID != nil {
		_, err := tx.ExecContext(ctx, `
			UPDATE schedule_segments SET effective_to = ?, updated_at = ?
			WHERE id = ? AND user_id = ? AND effective_to IS NOT NULL`,
			prevTo, formatTime(s.UpdatedAt), *s.PreviousID, s.UserID,
		)
		if err != nil {
			return fmt.Errorf("failed to move previous version: %w", translate(err, "segment"))
		}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE schedule_segments
		SET weekday = ?, start_minute = ?, end_minute = ?, activity_id = ?, notes = ?,
			effective_from = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND effective_to IS NULL`,
		s.Weekday, s.StartMinute, s.EndMinute, s.ActivityID, s.Notes,
		s.EffectiveFrom, formatTime(s.UpdatedAt), s.ID, s.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to reschedule segment: %w", translate(err, "segment"))
	}
	if err := rowsAffected(res, "open segment"); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Delete removes an open row. Logs referencing it keep existing with
// segment_id set to NULL by the foreign key.
func (r *SegmentRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM schedule_segments WHERE id = ? AND user_id = ? AND effective_to IS NULL`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete segment: %w", err)
	}
	return rowsAffected(res, "open segment")
}

// PlannedMinutesByActivity sums open segment durations per activity.
func (r *SegmentRepository) PlannedMinutesByActivity(ctx context.Context, userID string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT activity_id, SUM(end_minute - start_minute)
		FROM schedule_segments
		WHERE user_id = ? AND effective_to IS NULL AND activity_id IS NOT NULL
		GROUP BY activity_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum planned minutes: %w", err)
	}
	defer rows.Close()

	planned := make(map[string]int)
	for rows.Next() {
		var id string
		var minutes int
		if err := rows.Scan(&id, &minutes); err != nil {
			return nil, fmt.Errorf("failed to scan planned minutes: %w", err)
		}
		planned[id] = minutes
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return planned, nil
}
