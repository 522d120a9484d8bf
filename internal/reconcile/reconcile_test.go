package reconcile

import (
	"reflect"
	"testing"
	"time"

	"Mansoor88-6/schedule-tracker/internal/models"
	"Mansoor88-6/schedule-tracker/internal/timeutil"
)

var loc = time.FixedZone("test", 2*3600)

// monday is 2025-01-06, a Monday.
var monday = time.Date(2025, 1, 6, 0, 0, 0, 0, loc)

func strp(s string) *string { return &s }

func at(dayOffset, hour, minute, second int) time.Time {
	return time.Date(2025, 1, 6+dayOffset, hour, minute, second, 0, loc)
}

func seg(id string, weekday, start, end int, activity *string) *models.ScheduleSegment {
	return &models.ScheduleSegment{ID: id, Weekday: weekday, StartMinute: start, EndMinute: end, ActivityID: activity}
}

func closedLog(id string, start, end time.Time, activity, segment *string) *models.TimeLog {
	e := end.UTC()
	return &models.TimeLog{
		ID:         id,
		ActivityID: activity,
		SegmentID:  segment,
		Date:       timeutil.FormatDate(start),
		StartedAt:  start.UTC(),
		EndedAt:    &e,
		Minutes:    timeutil.RoundMinutes(end.Sub(start)),
		Source:     models.SourceAdhoc,
	}
}

func findFree(cells []FreeCell, weekday, start, end int) *FreeCell {
	for i := range cells {
		if cells[i].Weekday == weekday && cells[i].Start == start && cells[i].End == end {
			return &cells[i]
		}
	}
	return nil
}

func TestScenarioSegmentBreakdown(t *testing.T) {
	x := strp("X")
	segment := seg("seg", 1, 540, 600, x)
	l := closedLog("l1", at(0, 9, 15, 0), at(0, 9, 45, 0), x, strp("seg"))
	l.Source = models.SourcePlanned

	rep := Reconcile(Input{WeekStart: monday, Segments: []*models.ScheduleSegment{segment}, Logs: []*models.TimeLog{l}})

	if len(rep.Segments) != 1 {
		t.Fatalf("expected 1 segment usage, got %d", len(rep.Segments))
	}
	u := rep.Segments[0]
	if u.Logged != 30 || u.Duration != 60 {
		t.Fatalf("expected 30/60, got %d/%d", u.Logged, u.Duration)
	}
	if len(u.Breakdown) != 1 || *u.Breakdown[0].ActivityID != "X" || u.Breakdown[0].Minutes != 30 {
		t.Fatalf("unexpected breakdown %+v", u.Breakdown)
	}
	if u.Dominant == nil || *u.Dominant.ActivityID != "X" {
		t.Fatalf("expected dominant X, got %+v", u.Dominant)
	}
	if rep.Usage["seg"] != 30 {
		t.Fatalf("expected usage 30, got %v", rep.Usage)
	}
	if len(rep.FreeCells) != 0 {
		t.Fatalf("segment logs must not create free cells: %+v", rep.FreeCells)
	}
}

func TestScenarioMidnightFreeLog(t *testing.T) {
	l := closedLog("l1", at(0, 23, 30, 0), at(1, 0, 30, 0), nil, nil)

	rep := Reconcile(Input{WeekStart: monday, Logs: []*models.TimeLog{l}})

	if len(rep.FreeCells) != 2 {
		t.Fatalf("expected 2 free cells, got %+v", rep.FreeCells)
	}
	mon := findFree(rep.FreeCells, 1, 1410, 1440)
	tue := findFree(rep.FreeCells, 2, 0, 30)
	if mon == nil || tue == nil {
		t.Fatalf("missing expected cells: %+v", rep.FreeCells)
	}
	for _, c := range []*FreeCell{mon, tue} {
		if c.Total != 30 {
			t.Fatalf("expected 30 minutes, got %d", c.Total)
		}
		if c.Dominant == nil || c.Dominant.ActivityID != nil {
			t.Fatalf("expected no-activity dominant, got %+v", c.Dominant)
		}
		if c.Breakdown[0].Percent != 100 {
			t.Fatalf("expected 100%%, got %v", c.Breakdown[0].Percent)
		}
	}
}

func TestConservationAcrossRows(t *testing.T) {
	a := strp("A")
	segments := []*models.ScheduleSegment{seg("s1", 1, 540, 600, a), seg("s2", 3, 720, 780, a)}
	// Free log crossing the 12:00 boundary introduced by Wednesday's segment.
	l := closedLog("l1", at(0, 11, 40, 0), at(0, 12, 20, 0), a, nil)

	rep := Reconcile(Input{WeekStart: monday, Segments: segments, Logs: []*models.TimeLog{l}})

	total := 0
	for _, c := range rep.FreeCells {
		total += c.Total
	}
	if total != 40 {
		t.Fatalf("expected 40 minutes across rows, got %d (%+v)", total, rep.FreeCells)
	}
	if c := findFree(rep.FreeCells, 1, 600, 720); c == nil || c.Total != 20 {
		t.Fatalf("expected 20 minutes in [600,720), got %+v", c)
	}
	if c := findFree(rep.FreeCells, 1, 720, 780); c == nil || c.Total != 20 {
		t.Fatalf("expected 20 minutes in [720,780), got %+v", c)
	}
}

func TestLogInsideSingleFreeRow(t *testing.T) {
	segments := []*models.ScheduleSegment{seg("s1", 1, 540, 600, strp("A"))}
	l := closedLog("l1", at(0, 13, 0, 0), at(0, 13, 25, 0), nil, nil)

	rep := Reconcile(Input{WeekStart: monday, Segments: segments, Logs: []*models.TimeLog{l}})

	c := findFree(rep.FreeCells, 1, 600, 1440)
	if c == nil || c.Total != 25 {
		t.Fatalf("expected 25 minutes in afternoon row, got %+v", rep.FreeCells)
	}
}

func TestFloorStartCeilEnd(t *testing.T) {
	// 09:59:45 to 10:00:30 touches minutes 599 and 600.
	l := closedLog("l1", at(0, 9, 59, 45), at(0, 10, 0, 30), nil, nil)
	slices := freeSlices([]*models.TimeLog{l}, monday, monday.AddDate(0, 0, 7))
	if len(slices) != 1 || slices[0].start != 599 || slices[0].end != 601 {
		t.Fatalf("expected [599,601), got %+v", slices)
	}

	// An end exactly on the minute is not rounded up.
	l = closedLog("l2", at(0, 9, 0, 0), at(0, 10, 0, 0), nil, nil)
	slices = freeSlices([]*models.TimeLog{l}, monday, monday.AddDate(0, 0, 7))
	if len(slices) != 1 || slices[0].end != 600 {
		t.Fatalf("expected end 600, got %+v", slices)
	}
}

func TestSlicesClippedToWeek(t *testing.T) {
	// Sunday before the week to Monday 01:00 only contributes the Monday part.
	l := closedLog("l1", at(-1, 22, 0, 0), at(0, 1, 0, 0), nil, nil)
	// And a log ending exactly at next Monday midnight ends at 1440 on Sunday.
	l2 := closedLog("l2", at(6, 23, 0, 0), at(7, 0, 0, 0), nil, nil)

	slices := freeSlices([]*models.TimeLog{l, l2}, monday, monday.AddDate(0, 0, 7))
	if len(slices) != 2 {
		t.Fatalf("expected 2 slices, got %+v", slices)
	}
	if slices[0].weekday != 1 || slices[0].start != 0 || slices[0].end != 60 {
		t.Fatalf("unexpected first slice %+v", slices[0])
	}
	if slices[1].weekday != 7 || slices[1].start != 1380 || slices[1].end != 1440 {
		t.Fatalf("unexpected second slice %+v", slices[1])
	}
}

func TestOpenLogsIgnored(t *testing.T) {
	l := &models.TimeLog{ID: "open", Date: "2025-01-06", StartedAt: at(0, 9, 0, 0).UTC()}
	rep := Reconcile(Input{WeekStart: monday, Logs: []*models.TimeLog{l}})
	if len(rep.FreeCells) != 0 {
		t.Fatalf("open logs must be ignored, got %+v", rep.FreeCells)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	a, b := strp("A"), strp("B")
	in := Input{
		WeekStart: monday,
		Segments:  []*models.ScheduleSegment{seg("s1", 1, 540, 600, a), seg("s2", 2, 600, 660, nil)},
		Logs: []*models.TimeLog{
			closedLog("l1", at(0, 7, 0, 0), at(0, 8, 0, 0), a, nil),
			closedLog("l2", at(0, 7, 30, 0), at(0, 7, 50, 0), b, nil),
			closedLog("l3", at(1, 23, 0, 0), at(2, 2, 0, 0), nil, nil),
			closedLog("l4", at(0, 9, 0, 0), at(0, 9, 20, 0), b, strp("s1")),
		},
	}
	first := Reconcile(in)
	second := Reconcile(in)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("reconcile is not deterministic")
	}
}

func TestDominantOrdering(t *testing.T) {
	a, b := strp("A"), strp("B")
	logs := []*models.TimeLog{
		closedLog("l1", at(0, 7, 0, 0), at(0, 7, 10, 0), a, nil),
		closedLog("l2", at(0, 7, 10, 0), at(0, 7, 40, 0), b, nil),
		closedLog("l3", at(0, 7, 40, 0), at(0, 7, 50, 0), nil, nil),
	}
	rep := Reconcile(Input{WeekStart: monday, Segments: []*models.ScheduleSegment{seg("s", 1, 540, 600, a)}, Logs: logs})

	c := findFree(rep.FreeCells, 1, 0, 540)
	if c == nil || c.Total != 50 {
		t.Fatalf("expected 50 free minutes, got %+v", rep.FreeCells)
	}
	if *c.Dominant.ActivityID != "B" {
		t.Fatalf("expected B dominant, got %+v", c.Dominant)
	}
	if c.Breakdown[1].ActivityID == nil || *c.Breakdown[1].ActivityID != "A" || c.Breakdown[2].ActivityID != nil {
		t.Fatalf("expected A before no-activity on ties, got %+v", c.Breakdown)
	}
	if c.Breakdown[0].Percent != 60 || c.Breakdown[1].Percent != 20 {
		t.Fatalf("unexpected percentages %+v", c.Breakdown)
	}
}

func TestUnloggedSegmentStillReported(t *testing.T) {
	rep := Reconcile(Input{WeekStart: monday, Segments: []*models.ScheduleSegment{seg("s", 4, 60, 120, strp("A"))}})
	if len(rep.Segments) != 1 {
		t.Fatalf("expected segment usage, got %+v", rep.Segments)
	}
	u := rep.Segments[0]
	if u.Logged != 0 || u.Dominant != nil || len(u.Breakdown) != 0 || u.Duration != 60 {
		t.Fatalf("unexpected usage for unlogged segment %+v", u)
	}
}

func TestSegmentUsageRespectsWeek(t *testing.T) {
	s := seg("s", 1, 540, 600, nil)
	inWeek := closedLog("l1", at(0, 9, 0, 0), at(0, 9, 30, 0), nil, strp("s"))
	lastWeek := closedLog("l2", at(-7, 9, 0, 0), at(-7, 9, 30, 0), nil, strp("s"))
	historical := closedLog("l3", at(2, 9, 0, 0), at(2, 9, 10, 0), nil, strp("old"))

	rep := Reconcile(Input{WeekStart: monday, Segments: []*models.ScheduleSegment{s}, Logs: []*models.TimeLog{inWeek, lastWeek, historical}})
	if rep.Segments[0].Logged != 30 {
		t.Fatalf("expected only this week's 30 minutes, got %d", rep.Segments[0].Logged)
	}
	if rep.Usage["old"] != 10 {
		t.Fatalf("expected usage for ids outside the template, got %v", rep.Usage)
	}
}

func TestUtilization(t *testing.T) {
	a := strp("A")
	segments := []*models.ScheduleSegment{seg("s1", 1, 0, 720, a), seg("s2", 2, 0, 720, nil)}
	// 3 hours of free logging on Monday afternoon.
	l := closedLog("l1", at(0, 12, 0, 0), at(0, 15, 0, 0), nil, nil)

	rep := Reconcile(Input{WeekStart: monday, Segments: segments, Logs: []*models.TimeLog{l}})
	// Rows are [0,720) and [720,1440). Monday and Tuesday mornings are covered.
	wantAvail := 7*1440 - 2*720
	if rep.Utilization.FreeAvailable != wantAvail {
		t.Fatalf("expected %d available, got %d", wantAvail, rep.Utilization.FreeAvailable)
	}
	if rep.Utilization.FreeUsed != 180 {
		t.Fatalf("expected 180 used, got %d", rep.Utilization.FreeUsed)
	}
	if rep.Utilization.Percent == nil || *rep.Utilization.Percent != round1(180.0/float64(wantAvail)*100) {
		t.Fatalf("unexpected percent %v", rep.Utilization.Percent)
	}

	rep = Reconcile(Input{WeekStart: monday, Segments: segments, Logs: []*models.TimeLog{l}, UnassignedAsFree: true})
	if rep.Utilization.FreeAvailable != wantAvail+720 {
		t.Fatalf("unassigned segment should add capacity, got %d", rep.Utilization.FreeAvailable)
	}
	if !rep.Days[1].Cells[0].Free || rep.Days[0].Cells[0].Free {
		t.Fatalf("unexpected free flags: mon %+v tue %+v", rep.Days[0].Cells[0], rep.Days[1].Cells[0])
	}
}

func TestUtilizationCappedPerCell(t *testing.T) {
	segments := []*models.ScheduleSegment{seg("s1", 1, 60, 1440, strp("A"))}
	// Two overlapping free entries in [0,60) add up to 90 minutes.
	logs := []*models.TimeLog{
		closedLog("l1", at(0, 0, 0, 0), at(0, 1, 0, 0), nil, nil),
		closedLog("l2", at(0, 0, 0, 0), at(0, 0, 30, 0), nil, nil),
	}
	rep := Reconcile(Input{WeekStart: monday, Segments: segments, Logs: logs})
	if c := findFree(rep.FreeCells, 1, 0, 60); c == nil || c.Total != 90 {
		t.Fatalf("expected 90 accumulated, got %+v", rep.FreeCells)
	}
	if rep.Utilization.FreeUsed != 60 {
		t.Fatalf("expected used capped at 60, got %d", rep.Utilization.FreeUsed)
	}
}

func TestEmptyWeek(t *testing.T) {
	rep := Reconcile(Input{WeekStart: monday})
	if len(rep.Rows) != 1 || rep.Rows[0].Start != 0 || rep.Rows[0].End != 1440 {
		t.Fatalf("expected a single full-day row, got %+v", rep.Rows)
	}
	if rep.Utilization.FreeAvailable != 7*1440 || rep.Utilization.FreeUsed != 0 {
		t.Fatalf("unexpected utilization %+v", rep.Utilization)
	}
	if rep.Utilization.Percent == nil || *rep.Utilization.Percent != 0 {
		t.Fatalf("expected 0%%, got %v", rep.Utilization.Percent)
	}
	if rep.WeekStart != "2025-01-06" || len(rep.Days) != 7 {
		t.Fatalf("unexpected header %s / %d days", rep.WeekStart, len(rep.Days))
	}
}
