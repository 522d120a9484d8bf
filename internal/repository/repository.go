// Package repository holds the SQL for activities, schedule segments and
// time logs. Every query is scoped by user_id.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"Mansoor88-6/schedule-tracker/internal/apperrors"
	"Mansoor88-6/schedule-tracker/internal/database"
)

// Timestamps are stored as fixed-width UTC text so that string comparison
// in SQL matches chronological order.
const timestampLayout = "2006-01-02T15:04:05.000Z"

type rowScanner interface {
	Scan(dest ...any) error
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// translate maps driver errors onto the application error kinds.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return apperrors.NotFound(what + " not found")
	case database.IsOverlap(err):
		return apperrors.Wrap(apperrors.KindConflict, "segment overlaps an existing segment", err)
	case database.IsUniqueViolation(err):
		return apperrors.Wrap(apperrors.KindConflict, what+" already exists", err)
	case database.IsCheckViolation(err):
		return apperrors.Wrap(apperrors.KindValidation, "invalid "+what, err)
	}
	return err
}

func rowsAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound(what + " not found")
	}
	return nil
}
