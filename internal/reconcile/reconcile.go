// Package reconcile compares a week's logged time against the weekly
// segment template. It performs no I/O: callers load the template and logs
// and get back a report that is a pure function of its input.
package reconcile

import (
	"math"
	"sort"
	"time"

	"Mansoor88-6/schedule-tracker/internal/models"
	"Mansoor88-6/schedule-tracker/internal/timeutil"
)

// ceilEpsilon keeps an end exactly on a minute boundary from rounding up.
const ceilEpsilon = 1e-9

type Input struct {
	// WeekStart is local midnight of the Monday; its location is the wall
	// clock every log is sliced in.
	WeekStart time.Time
	Segments  []*models.ScheduleSegment
	Logs      []*models.TimeLog
	// UnassignedAsFree treats rows covered only by segments without an
	// activity as free time.
	UnassignedAsFree bool
}

type Row struct {
	Start      int    `json:"start_minute"`
	End        int    `json:"end_minute"`
	StartLabel string `json:"start"`
	EndLabel   string `json:"end"`
}

func (r Row) Size() int {
	return r.End - r.Start
}

type Cell struct {
	Row        int     `json:"row"`
	SegmentID  *string `json:"segment_id,omitempty"`
	ActivityID *string `json:"activity_id,omitempty"`
	Free       bool    `json:"free"`
}

type Day struct {
	Weekday int    `json:"weekday"`
	Name    string `json:"name"`
	Cells   []Cell `json:"cells"`
}

type ActivityMinutes struct {
	ActivityID *string `json:"activity_id"`
	Minutes    int     `json:"minutes"`
	Percent    float64 `json:"percent"`
}

type SegmentUsage struct {
	SegmentID  string            `json:"segment_id"`
	Weekday    int               `json:"weekday"`
	Start      int               `json:"start_minute"`
	End        int               `json:"end_minute"`
	Duration   int               `json:"duration"`
	ActivityID *string           `json:"activity_id,omitempty"`
	Logged     int               `json:"logged"`
	Breakdown  []ActivityMinutes `json:"breakdown"`
	Dominant   *ActivityMinutes  `json:"dominant"`
}

type FreeCell struct {
	Weekday   int               `json:"weekday"`
	Start     int               `json:"start_minute"`
	End       int               `json:"end_minute"`
	Total     int               `json:"total"`
	Breakdown []ActivityMinutes `json:"breakdown"`
	Dominant  *ActivityMinutes  `json:"dominant"`
}

type Utilization struct {
	FreeAvailable int      `json:"free_available"`
	FreeUsed      int      `json:"free_used"`
	Percent       *float64 `json:"percent"`
}

type Report struct {
	WeekStart   string         `json:"week_start"`
	Rows        []Row          `json:"rows"`
	Days        []Day          `json:"days"`
	Segments    []SegmentUsage `json:"segments"`
	Usage       map[string]int `json:"usage"`
	FreeCells   []FreeCell     `json:"free_cells"`
	Utilization Utilization    `json:"utilization"`
}

// slice is the part of one log that falls on one local day, as
// minute-of-day offsets.
type slice struct {
	weekday    int
	start, end int
	activityID *string
}

// Reconcile builds the weekly report.
func Reconcile(in Input) *Report {
	weekStart, weekEnd := timeutil.WeekRange(in.WeekStart)
	fromDate, toDate := timeutil.FormatDate(weekStart), timeutil.FormatDate(weekEnd)

	slices := freeSlices(in.Logs, weekStart, weekEnd)
	rows := buildGrid(in.Segments, slices)

	rep := &Report{
		WeekStart: fromDate,
		Rows:      rows,
		Usage:     make(map[string]int),
	}

	free := freeMask(rows, in.Segments, in.UnassignedAsFree)
	rep.Days = buildDays(rows, in.Segments, free)
	rep.Segments = segmentUsage(in.Segments, in.Logs, fromDate, toDate, rep.Usage)
	rep.FreeCells = accumulateFree(rows, free, slices)
	rep.Utilization = utilization(rows, free, rep.FreeCells)
	return rep
}

// freeSlices cuts every closed, segment-less log into per-day slices clipped
// to the week. Starts are floored and ends ceiled so a partial trailing
// minute is counted.
func freeSlices(logs []*models.TimeLog, weekStart, weekEnd time.Time) []slice {
	loc := weekStart.Location()
	var out []slice
	for _, l := range logs {
		if l.SegmentID != nil || l.EndedAt == nil {
			continue
		}
		start := l.StartedAt.In(loc)
		end := l.EndedAt.In(loc)
		if start.Before(weekStart) {
			start = weekStart
		}
		if end.After(weekEnd) {
			end = weekEnd
		}
		if !end.After(start) {
			continue
		}

		for day := timeutil.StartOfDay(start); day.Before(end); day = timeutil.AddDays(day, 1) {
			dayEnd := timeutil.AddDays(day, 1)
			sliceStart := start
			if day.After(sliceStart) {
				sliceStart = day
			}
			sliceEnd := end
			if dayEnd.Before(sliceEnd) {
				sliceEnd = dayEnd
			}
			if !sliceEnd.After(sliceStart) {
				continue
			}

			startMin := int(math.Floor(timeutil.MinuteOfDay(sliceStart)))
			endMin := timeutil.MinutesPerDay
			if sliceEnd.Before(dayEnd) {
				endMin = int(math.Ceil(timeutil.MinuteOfDay(sliceEnd) - ceilEpsilon))
			}
			if endMin <= startMin {
				continue
			}
			out = append(out, slice{
				weekday:    timeutil.ISOWeekday(day),
				start:      startMin,
				end:        endMin,
				activityID: l.ActivityID,
			})
		}
	}
	return out
}

// buildGrid forms consecutive rows from every segment boundary plus the day
// bounds. Without segments the free slices supply the boundaries.
func buildGrid(segments []*models.ScheduleSegment, slices []slice) []Row {
	bounds := map[int]struct{}{0: {}, timeutil.MinutesPerDay: {}}
	if len(segments) > 0 {
		for _, s := range segments {
			bounds[s.StartMinute] = struct{}{}
			bounds[s.EndMinute] = struct{}{}
		}
	} else {
		for _, s := range slices {
			bounds[s.start] = struct{}{}
			bounds[s.end] = struct{}{}
		}
	}

	points := make([]int, 0, len(bounds))
	for b := range bounds {
		points = append(points, b)
	}
	sort.Ints(points)

	rows := make([]Row, 0, len(points)-1)
	for i := 0; i+1 < len(points); i++ {
		if points[i+1] <= points[i] {
			continue
		}
		rows = append(rows, Row{
			Start:      points[i],
			End:        points[i+1],
			StartLabel: timeutil.MinutesToHHMM(points[i]),
			EndLabel:   timeutil.MinutesToHHMM(points[i+1]),
		})
	}
	return rows
}

func covers(s *models.ScheduleSegment, r Row) bool {
	return s.StartMinute <= r.Start && s.EndMinute >= r.End
}

// coveringSegment returns the first segment on weekday that fully covers r.
func coveringSegment(segments []*models.ScheduleSegment, weekday int, r Row) *models.ScheduleSegment {
	for _, s := range segments {
		if s.Weekday == weekday && covers(s, r) {
			return s
		}
	}
	return nil
}

// freeMask[weekday-1][row] is true when the row counts as free time.
func freeMask(rows []Row, segments []*models.ScheduleSegment, unassignedAsFree bool) [7][]bool {
	var mask [7][]bool
	for wd := 1; wd <= 7; wd++ {
		mask[wd-1] = make([]bool, len(rows))
		for i, r := range rows {
			free := true
			for _, s := range segments {
				if s.Weekday != wd || !covers(s, r) {
					continue
				}
				if unassignedAsFree && s.ActivityID == nil {
					continue
				}
				free = false
				break
			}
			mask[wd-1][i] = free
		}
	}
	return mask
}

func buildDays(rows []Row, segments []*models.ScheduleSegment, free [7][]bool) []Day {
	days := make([]Day, 0, 7)
	for wd := 1; wd <= 7; wd++ {
		day := Day{Weekday: wd, Name: timeutil.WeekdayName(wd), Cells: make([]Cell, len(rows))}
		for i, r := range rows {
			cell := Cell{Row: i, Free: free[wd-1][i]}
			if s := coveringSegment(segments, wd, r); s != nil {
				id := s.ID
				cell.SegmentID = &id
				cell.ActivityID = s.ActivityID
			}
			day.Cells[i] = cell
		}
		days = append(days, day)
	}
	return days
}

// segmentUsage sums logs linked to a segment and dated inside the week.
// Every template segment is reported, logged or not; usage also receives
// totals for segment ids outside the template.
func segmentUsage(segments []*models.ScheduleSegment, logs []*models.TimeLog, fromDate, toDate string, usage map[string]int) []SegmentUsage {
	perSegment := make(map[string]*tally)
	for _, l := range logs {
		if l.SegmentID == nil || l.EndedAt == nil {
			continue
		}
		if l.Date < fromDate || l.Date >= toDate {
			continue
		}
		t, ok := perSegment[*l.SegmentID]
		if !ok {
			t = newTally()
			perSegment[*l.SegmentID] = t
		}
		t.add(l.ActivityID, l.Minutes)
		usage[*l.SegmentID] += l.Minutes
	}

	out := make([]SegmentUsage, 0, len(segments))
	for _, s := range segments {
		u := SegmentUsage{
			SegmentID:  s.ID,
			Weekday:    s.Weekday,
			Start:      s.StartMinute,
			End:        s.EndMinute,
			Duration:   s.Duration(),
			ActivityID: s.ActivityID,
			Breakdown:  []ActivityMinutes{},
		}
		if t, ok := perSegment[s.ID]; ok {
			u.Logged = t.total
			u.Breakdown = t.breakdown()
			u.Dominant = dominant(u.Breakdown)
		}
		out = append(out, u)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Weekday != out[j].Weekday {
			return out[i].Weekday < out[j].Weekday
		}
		return out[i].Start < out[j].Start
	})
	return out
}

// accumulateFree distributes each slice over the free rows of its weekday.
func accumulateFree(rows []Row, free [7][]bool, slices []slice) []FreeCell {
	type key struct{ weekday, row int }
	cells := make(map[key]*tally)

	for _, sl := range slices {
		for i, r := range rows {
			if !free[sl.weekday-1][i] {
				continue
			}
			overlap := min(sl.end, r.End) - max(sl.start, r.Start)
			if overlap <= 0 {
				continue
			}
			k := key{sl.weekday, i}
			t, ok := cells[k]
			if !ok {
				t = newTally()
				cells[k] = t
			}
			t.add(sl.activityID, overlap)
		}
	}

	out := make([]FreeCell, 0, len(cells))
	for k, t := range cells {
		b := t.breakdown()
		out = append(out, FreeCell{
			Weekday:   k.weekday,
			Start:     rows[k.row].Start,
			End:       rows[k.row].End,
			Total:     t.total,
			Breakdown: b,
			Dominant:  dominant(b),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weekday != out[j].Weekday {
			return out[i].Weekday < out[j].Weekday
		}
		return out[i].Start < out[j].Start
	})
	return out
}

func utilization(rows []Row, free [7][]bool, cells []FreeCell) Utilization {
	var u Utilization
	for wd := 0; wd < 7; wd++ {
		for i, r := range rows {
			if free[wd][i] {
				u.FreeAvailable += r.Size()
			}
		}
	}
	for _, c := range cells {
		u.FreeUsed += min(c.Total, c.End-c.Start)
	}
	if u.FreeAvailable > 0 {
		p := round1(float64(u.FreeUsed) / float64(u.FreeAvailable) * 100)
		u.Percent = &p
	}
	return u
}

func dominant(b []ActivityMinutes) *ActivityMinutes {
	if len(b) == 0 {
		return nil
	}
	d := b[0]
	return &d
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
