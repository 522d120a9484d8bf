package service

import (
	"context"
	"math"
	"time"

	"Mansoor88-6/schedule-tracker/internal/clock"
	"Mansoor88-6/schedule-tracker/internal/models"
	"Mansoor88-6/schedule-tracker/internal/repository"
	"Mansoor88-6/schedule-tracker/internal/timeutil"
)

type DashboardService struct {
	activities *repository.ActivityRepository
	segments   *repository.SegmentRepository
	logs       *repository.TimeLogRepository
	clock      clock.Clock
	loc        *time.Location
}

func NewDashboardService(activities *repository.ActivityRepository, segments *repository.SegmentRepository, logs *repository.TimeLogRepository, c clock.Clock, loc *time.Location) *DashboardService {
	return &DashboardService{activities: activities, segments: segments, logs: logs, clock: c, loc: loc}
}

// Weekly reports done versus target and planned minutes for each active
// activity. Planned minutes come from the open template, not the version
// that applied to the requested week. A nil weekStart means this week.
func (s *DashboardService) Weekly(ctx context.Context, userID string, weekStart *time.Time) (*models.Dashboard, error) {
	ref := s.clock.Now()
	if weekStart != nil {
		ref = *weekStart
	}
	from, to := timeutil.WeekRange(timeutil.MondayOf(ref.In(s.loc)))
	fromDate, toDate := timeutil.FormatDate(from), timeutil.FormatDate(to)

	activities, err := s.activities.List(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	planned, err := s.segments.PlannedMinutesByActivity(ctx, userID)
	if err != nil {
		return nil, err
	}
	aggregates, err := s.logs.AggregateByActivity(ctx, userID, fromDate, toDate)
	if err != nil {
		return nil, err
	}

	dash := &models.Dashboard{
		WeekStart:        fromDate,
		WeekEndExclusive: toDate,
		Activities:       make([]*models.DashboardActivity, 0, len(activities)),
	}

	byID := make(map[string]*models.DashboardActivity, len(activities))
	for _, a := range activities {
		d := &models.DashboardActivity{
			ID:                 a.ID,
			Name:               a.Name,
			Color:              a.Color,
			Target:             a.WeeklyTargetMinutes,
			PlannedMinutesWeek: planned[a.ID],
			LoggedBySource: map[string]int{
				string(models.SourcePlanned): 0,
				string(models.SourceAdhoc):   0,
				string(models.SourceMakeup):  0,
			},
		}
		byID[a.ID] = d
		dash.Activities = append(dash.Activities, d)
	}

	for _, agg := range aggregates {
		if agg.ActivityID == nil {
			dash.UnassignedMinutes += agg.Minutes
			continue
		}
		d, ok := byID[*agg.ActivityID]
		if !ok {
			continue
		}
		d.Done += agg.Minutes
		d.LoggedBySource[string(agg.Source)] += agg.Minutes
		if agg.Partial {
			d.LoggedPartialMinutes += agg.Minutes
		} else {
			d.LoggedFullMinutes += agg.Minutes
		}
	}

	for _, d := range dash.Activities {
		d.Remaining = max(d.Target-d.Done, 0)
		d.Over = max(d.Done-d.Target, 0)
		d.Percent = cappedPercent(d.Done, d.Target)
		d.PlannedCoveragePercent = cappedPercent(d.Done, d.PlannedMinutesWeek)
		d.PlannedRemaining = max(d.PlannedMinutesWeek-d.Done, 0)
	}
	return dash, nil
}

// cappedPercent is min(100, part/whole*100) to one decimal, or nil when
// whole is zero.
func cappedPercent(part, whole int) *float64 {
	if whole <= 0 {
		return nil
	}
	p := math.Min(100, math.Round(float64(part)/float64(whole)*1000)/10)
	return &p
}
