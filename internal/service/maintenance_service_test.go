package service

import (
	"context"
	"testing"

	"Mansoor88-6/schedule-tracker/internal/models"
)

func TestRepairDates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var ids []string
	for _, day := range []int{6, 7, 8, 9, 10} {
		// 01:00 local is the previous day in UTC.
		l, err := env.logs.Create(ctx, userA, &models.CreateLogRequest{
			StartedAt: ptr(local(day, 1, 0)), EndedAt: ptr(local(day, 1, 30)),
		})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, l.ID)
	}
	// Simulate rows dated by their UTC day.
	for _, id := range ids[:3] {
		if _, err := env.db.Exec(`UPDATE time_logs SET date = date(date, '-1 day') WHERE id = ?`, id); err != nil {
			t.Fatal(err)
		}
	}

	dry, err := env.maintenance.RepairDates(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if dry.Applied || dry.Scanned != 5 || dry.NeedsChange != 3 || dry.Unchanged != 2 || dry.Updated != 0 {
		t.Fatalf("unexpected dry run %+v", dry)
	}
	l, err := env.logs.Get(ctx, userA, ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if l.Date != "2025-01-05" {
		t.Fatalf("dry run must not write, got %s", l.Date)
	}

	applied, err := env.maintenance.RepairDates(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if !applied.Applied || applied.Scanned != 5 || applied.Updated != 3 || applied.Errors != 0 {
		t.Fatalf("unexpected apply %+v", applied)
	}
	l, err = env.logs.Get(ctx, userA, ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if l.Date != "2025-01-06" {
		t.Fatalf("expected repaired date 2025-01-06, got %s", l.Date)
	}

	again, err := env.maintenance.RepairDates(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if again.NeedsChange != 0 || again.Unchanged != 5 {
		t.Fatalf("second pass should be a no-op, got %+v", again)
	}
}
