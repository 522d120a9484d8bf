package service

import (
	"context"
	"testing"
	"time"

	"Mansoor88-6/schedule-tracker/internal/apperrors"
	"Mansoor88-6/schedule-tracker/internal/clock"
	"Mansoor88-6/schedule-tracker/internal/database"
	"Mansoor88-6/schedule-tracker/internal/models"
	"Mansoor88-6/schedule-tracker/internal/repository"

	"go.uber.org/zap"
)

var testLoc = time.FixedZone("test", 2*3600)

const (
	userA = "user-a"
	userB = "user-b"
)

type testEnv struct {
	db          *database.DB
	now         time.Time
	activities  *ActivityService
	segments    *SegmentService
	logs        *TimeLogService
	dashboard   *DashboardService
	usage       *UsageService
	maintenance *MaintenanceService
}

// newTestEnv wires every service to a fresh in-memory database. The clock
// starts on Wednesday 2025-01-08 10:00 local time and can be moved via
// env.now.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.NewMemory(zap.NewNop())
	if err != nil {
		t.Fatalf("new memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	env := &testEnv{db: db, now: time.Date(2025, 1, 8, 10, 0, 0, 0, testLoc)}
	c := clock.FuncClock(func() time.Time { return env.now })

	activityRepo := repository.NewActivityRepository(db.DB)
	segmentRepo := repository.NewSegmentRepository(db.DB)
	logRepo := repository.NewTimeLogRepository(db.DB)

	env.activities = NewActivityService(activityRepo, c)
	env.segments = NewSegmentService(segmentRepo, activityRepo, c, testLoc)
	env.logs = NewTimeLogService(logRepo, activityRepo, segmentRepo, c, testLoc)
	env.dashboard = NewDashboardService(activityRepo, segmentRepo, logRepo, c, testLoc)
	env.usage = NewUsageService(segmentRepo, logRepo, c, testLoc)
	env.maintenance = NewMaintenanceService(logRepo, testLoc, 2, zap.NewNop())
	return env
}

func ptr[T any](v T) *T { return &v }

func local(day, hour, minute int) time.Time {
	return time.Date(2025, 1, day, hour, minute, 0, 0, testLoc)
}

func wantKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", kind)
	}
	if got := apperrors.KindOf(err); got != kind {
		t.Fatalf("expected %v error, got %v (%v)", kind, got, err)
	}
}

func (env *testEnv) mustActivity(t *testing.T, user, name string, target int) *models.Activity {
	t.Helper()
	a, err := env.activities.Create(context.Background(), user, &models.CreateActivityRequest{Name: name, WeeklyTargetMinutes: target})
	if err != nil {
		t.Fatalf("create activity %q: %v", name, err)
	}
	return a
}

func (env *testEnv) mustSegment(t *testing.T, user string, weekday int, start, end string, activityID *string) *models.ScheduleSegment {
	t.Helper()
	s, err := env.segments.Create(context.Background(), user, &models.CreateSegmentRequest{
		Weekday: weekday, Start: start, End: end, ActivityID: activityID,
	})
	if err != nil {
		t.Fatalf("create segment %d %s-%s: %v", weekday, start, end, err)
	}
	return s
}

func (env *testEnv) countSegments(t *testing.T) int {
	t.Helper()
	var n int
	if err := env.db.QueryRow(`SELECT COUNT(*) FROM schedule_segments`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	return n
}
