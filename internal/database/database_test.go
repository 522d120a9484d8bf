package database

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewMemory(zap.NewNop())
	if err != nil {
		t.Fatalf("new memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

const insertSegment = `INSERT INTO schedule_segments
	(id, user_id, weekday, start_minute, end_minute, effective_from, effective_to, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, '2025-01-06', ?, 'x', 'x')`

func TestMigrationsSetVersion(t *testing.T) {
	db := newTestDB(t)
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatal(err)
	}
	if version != len(migrations) {
		t.Fatalf("expected version %d, got %d", len(migrations), version)
	}
}

func TestReopenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "schedule.db")
	db, err := New(path, zap.NewNop())
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	db.Close()
	db, err = New(path, zap.NewNop())
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	db.Close()
}

func TestSegmentOverlapTrigger(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.Exec(insertSegment, "a", "u1", 1, 540, 600, nil); err != nil {
		t.Fatalf("insert a: %v", err)
	}
	_, err := db.Exec(insertSegment, "b", "u1", 1, 570, 585, nil)
	if !IsOverlap(err) {
		t.Fatalf("expected overlap abort, got %v", err)
	}

	// Adjacent, other weekday, other user and closed rows are all fine.
	cases := []struct {
		id      string
		user    string
		weekday int
		start   int
		end     int
		to      any
	}{
		{"c", "u1", 1, 600, 660, nil},
		{"d", "u1", 2, 540, 600, nil},
		{"e", "u2", 1, 540, 600, nil},
		{"f", "u1", 1, 540, 600, "2025-01-12"},
	}
	for _, c := range cases {
		if _, err := db.Exec(insertSegment, c.id, c.user, c.weekday, c.start, c.end, c.to); err != nil {
			t.Fatalf("insert %s: %v", c.id, err)
		}
	}

	_, err = db.Exec(`UPDATE schedule_segments SET end_minute = 620 WHERE id = 'a'`)
	if !IsOverlap(err) {
		t.Fatalf("expected overlap abort on update, got %v", err)
	}
	if _, err := db.Exec(`UPDATE schedule_segments SET start_minute = 500 WHERE id = 'a'`); err != nil {
		t.Fatalf("self overlap must be allowed: %v", err)
	}
}

func TestSegmentCheckConstraints(t *testing.T) {
	db := newTestDB(t)
	bad := [][3]int{{0, 540, 600}, {8, 540, 600}, {1, 600, 600}, {1, -5, 10}, {1, 0, 1441}}
	for i, b := range bad {
		_, err := db.Exec(insertSegment, string(rune('a'+i)), "u1", b[0], b[1], b[2], nil)
		if !IsCheckViolation(err) {
			t.Fatalf("expected check failure for %v, got %v", b, err)
		}
	}
	if _, err := db.Exec(insertSegment, "ok", "u1", 1, 540, 600, nil); err != nil {
		t.Fatal(err)
	}
	_, err := db.Exec(`UPDATE schedule_segments SET effective_to = '1999-01-01' WHERE id = 'ok'`)
	if !IsCheckViolation(err) {
		t.Fatalf("expected check failure for effective_to before effective_from, got %v", err)
	}
	if IsCheckViolation(nil) {
		t.Fatal("nil is not a check violation")
	}
}

func TestSingleActiveLogIndex(t *testing.T) {
	db := newTestDB(t)
	insert := `INSERT INTO time_logs (id, user_id, date, started_at, ended_at, minutes, source, created_at, updated_at)
		VALUES (?, ?, '2025-01-06', ?, ?, 0, 'ADHOC', 'x', 'x')`

	if _, err := db.Exec(insert, "l1", "u1", "2025-01-06T09:00:00.000Z", nil); err != nil {
		t.Fatalf("insert open log: %v", err)
	}
	_, err := db.Exec(insert, "l2", "u1", "2025-01-06T10:00:00.000Z", nil)
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
	if _, err := db.Exec(insert, "l3", "u2", "2025-01-06T10:00:00.000Z", nil); err != nil {
		t.Fatalf("other user may have an open log: %v", err)
	}
	if _, err := db.Exec(insert, "l4", "u1", "2025-01-05T10:00:00.000Z", "2025-01-05T11:00:00.000Z"); err != nil {
		t.Fatalf("closed logs are unrestricted: %v", err)
	}
}

func TestActivityDeleteNullsReferences(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.Exec(`INSERT INTO activities (id, user_id, name, created_at, updated_at) VALUES ('act', 'u1', 'Read', 'x', 'x')`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`INSERT INTO schedule_segments
		(id, user_id, weekday, start_minute, end_minute, activity_id, effective_from, created_at, updated_at)
		VALUES ('s', 'u1', 1, 0, 60, 'act', '2025-01-06', 'x', 'x')`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`DELETE FROM activities WHERE id = 'act'`); err != nil {
		t.Fatal(err)
	}
	var activityID *string
	if err := db.QueryRow(`SELECT activity_id FROM schedule_segments WHERE id = 's'`).Scan(&activityID); err != nil {
		t.Fatal(err)
	}
	if activityID != nil {
		t.Fatalf("expected activity_id nulled, got %v", *activityID)
	}
}

func TestHealthCheck(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.HealthCheck(context.Background()); err != nil {
		t.Fatalf("health check: %v", err)
	}
	db.Close()
	if _, err := db.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected error after close")
	}
}
