package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"Mansoor88-6/schedule-tracker/internal/apperrors"
	"Mansoor88-6/schedule-tracker/internal/database"
	"Mansoor88-6/schedule-tracker/internal/models"
)

type TimeLogRepository struct {
	db *sql.DB
}

func NewTimeLogRepository(db *sql.DB) *TimeLogRepository {
	return &TimeLogRepository{db: db}
}

const logColumns = `id, user_id, activity_id, segment_id, date, started_at, ended_at,
	minutes, partial, source, comment, created_at, updated_at`

func scanLog(s rowScanner) (*models.TimeLog, error) {
	var l models.TimeLog
	var startedAt, createdAt, updatedAt string
	var endedAt sql.NullString
	err := s.Scan(
		&l.ID, &l.UserID, &l.ActivityID, &l.SegmentID, &l.Date, &startedAt, &endedAt,
		&l.Minutes, &l.Partial, &l.Source, &l.Comment, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if l.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if l.EndedAt, err = parseNullTime(endedAt); err != nil {
		return nil, err
	}
	if l.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if l.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *TimeLogRepository) query(ctx context.Context, query string, args ...any) ([]*models.TimeLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query time logs: %w", err)
	}
	defer rows.Close()

	logs := []*models.TimeLog{}
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan time log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return logs, nil
}

func (r *TimeLogRepository) Create(ctx context.Context, l *models.TimeLog) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO time_logs
			(id, user_id, activity_id, segment_id, date, started_at, ended_at,
			 minutes, partial, source, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.UserID, l.ActivityID, l.SegmentID, l.Date, formatTime(l.StartedAt), formatTimePtr(l.EndedAt),
		l.Minutes, l.Partial, string(l.Source), l.Comment, formatTime(l.CreatedAt), formatTime(l.UpdatedAt),
	)
	if err != nil {
		if database.IsUniqueViolation(err) && l.EndedAt == nil {
			return apperrors.Wrap(apperrors.KindConflict, "already active", err)
		}
		return fmt.Errorf("failed to create time log: %w", translate(err, "time log"))
	}
	return nil
}

func (r *TimeLogRepository) GetByID(ctx context.Context, userID, id string) (*models.TimeLog, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+logColumns+` FROM time_logs WHERE id = ? AND user_id = ?`, id, userID)
	l, err := scanLog(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get time log: %w", translate(err, "time log"))
	}
	return l, nil
}

// FindOpen returns the user's in-progress log, or nil if there is none.
func (r *TimeLogRepository) FindOpen(ctx context.Context, userID string) (*models.TimeLog, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+logColumns+` FROM time_logs WHERE user_id = ? AND ended_at IS NULL LIMIT 1`, userID)
	l, err := scanLog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open time log: %w", err)
	}
	return l, nil
}

// FindOverlapping returns another log of the user intersecting
// [start,end). Open logs are treated as ending at now.
func (r *TimeLogRepository) FindOverlapping(ctx context.Context, userID string, start, end, now time.Time, excludeID string) (*models.TimeLog, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+logColumns+` FROM time_logs
		WHERE user_id = ? AND id <> ?
			AND started_at < ?
			AND COALESCE(ended_at, ?) > ?
		ORDER BY started_at
		LIMIT 1`,
		userID, excludeID, formatTime(end), formatTime(now), formatTime(start),
	)
	l, err := scanLog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check log overlap: %w", err)
	}
	return l, nil
}

func (r *TimeLogRepository) Update(ctx context.Context, l *models.TimeLog) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE time_logs
		SET activity_id = ?, segment_id = ?, date = ?, started_at = ?, ended_at = ?,
			minutes = ?, partial = ?, source = ?, comment = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		l.ActivityID, l.SegmentID, l.Date, formatTime(l.StartedAt), formatTimePtr(l.EndedAt),
		l.Minutes, l.Partial, string(l.Source), l.Comment, formatTime(l.UpdatedAt), l.ID, l.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update time log: %w", translate(err, "time log"))
	}
	return rowsAffected(res, "time log")
}

// Close ends an open log. It reports NotFound when the log is no longer open.
func (r *TimeLogRepository) Close(ctx context.Context, userID, id string, endedAt time.Time, minutes int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE time_logs SET ended_at = ?, minutes = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND ended_at IS NULL`,
		formatTime(endedAt), minutes, formatTime(endedAt), id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to close time log: %w", err)
	}
	return rowsAffected(res, "active time log")
}

func (r *TimeLogRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM time_logs WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete time log: %w", err)
	}
	return rowsAffected(res, "time log")
}

// List applies f and returns one page plus the unpaginated total.
func (r *TimeLogRepository) List(ctx context.Context, userID string, f models.LogFilter) ([]*models.TimeLog, int, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}

	if f.DateFrom != "" {
		where = append(where, "date >= ?")
		args = append(args, f.DateFrom)
	}
	if f.DateTo != "" {
		where = append(where, "date < ?")
		args = append(args, f.DateTo)
	}
	if f.ActivityID != "" {
		where = append(where, "activity_id = ?")
		args = append(args, f.ActivityID)
	}
	if f.Source != "" {
		where = append(where, "source = ?")
		args = append(args, string(f.Source))
	}
	if f.NoSegment {
		where = append(where, "segment_id IS NULL")
	} else if f.SegmentID != "" {
		where = append(where, "segment_id = ?")
		args = append(args, f.SegmentID)
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM time_logs WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count time logs: %w", err)
	}

	order := "DESC"
	if f.Order == models.OrderAsc {
		order = "ASC"
	}
	query := fmt.Sprintf(`SELECT %s FROM time_logs WHERE %s ORDER BY started_at %s, id %s LIMIT ? OFFSET ?`,
		logColumns, whereClause, order, order)
	logs, err := r.query(ctx, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// ListForWeek returns the logs dated inside [dateFrom,dateTo) together with
// closed logs whose interval touches [from,to).
func (r *TimeLogRepository) ListForWeek(ctx context.Context, userID, dateFrom, dateTo string, from, to time.Time) ([]*models.TimeLog, error) {
	return r.query(ctx, `
		SELECT `+logColumns+` FROM time_logs
		WHERE user_id = ?
			AND ((date >= ? AND date < ?)
				OR (ended_at IS NOT NULL AND started_at < ? AND ended_at > ?))
		ORDER BY started_at, id`,
		userID, dateFrom, dateTo, formatTime(to), formatTime(from),
	)
}

// AggregateByActivity sums minutes of the logs dated in [dateFrom,dateTo),
// grouped by activity, source and partial flag.
func (r *TimeLogRepository) AggregateByActivity(ctx context.Context, userID, dateFrom, dateTo string) ([]models.LogAggregate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT activity_id, source, partial, SUM(minutes)
		FROM time_logs
		WHERE user_id = ? AND date >= ? AND date < ?
		GROUP BY activity_id, source, partial`, userID, dateFrom, dateTo)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate time logs: %w", err)
	}
	defer rows.Close()

	var out []models.LogAggregate
	for rows.Next() {
		var a models.LogAggregate
		if err := rows.Scan(&a.ActivityID, &a.Source, &a.Partial, &a.Minutes); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// LogDateRow is the slice of a log the date repair pass needs.
type LogDateRow struct {
	ID        string
	Date      string
	StartedAt time.Time
}

// ListDatesAfter pages through every user's logs in id order.
func (r *TimeLogRepository) ListDatesAfter(ctx context.Context, afterID string, limit int) ([]LogDateRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, started_at FROM time_logs WHERE id > ? ORDER BY id LIMIT ?`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query log dates: %w", err)
	}
	defer rows.Close()

	var out []LogDateRow
	for rows.Next() {
		var row LogDateRow
		var startedAt string
		if err := rows.Scan(&row.ID, &row.Date, &startedAt); err != nil {
			return nil, fmt.Errorf("failed to scan log date: %w", err)
		}
		if row.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

func (r *TimeLogRepository) SetDate(ctx context.Context, id, date string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE time_logs SET date = ? WHERE id = ?`, date, id)
	if err != nil {
		return fmt.Errorf("failed to set log date: %w", err)
	}
	return rowsAffected(res, "time log")
}
