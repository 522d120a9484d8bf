package service

import (
	"context"
	"time"

	"Mansoor88-6/schedule-tracker/internal/apperrors"
	"Mansoor88-6/schedule-tracker/internal/clock"
	"Mansoor88-6/schedule-tracker/internal/models"
	"Mansoor88-6/schedule-tracker/internal/reconcile"
	"Mansoor88-6/schedule-tracker/internal/repository"
	"Mansoor88-6/schedule-tracker/internal/timeutil"
)

const (
	TemplateHistorical = "historical"
	TemplateCurrent    = "current"
)

type UsageService struct {
	segments *repository.SegmentRepository
	logs     *repository.TimeLogRepository
	clock    clock.Clock
	loc      *time.Location
}

func NewUsageService(segments *repository.SegmentRepository, logs *repository.TimeLogRepository, c clock.Clock, loc *time.Location) *UsageService {
	return &UsageService{segments: segments, logs: logs, clock: c, loc: loc}
}

type UsageQuery struct {
	WeekStart        *time.Time
	Template         string
	UnassignedAsFree bool
}

// Usage loads the week's template and logs and reconciles them.
func (s *UsageService) Usage(ctx context.Context, userID string, q UsageQuery) (*reconcile.Report, error) {
	ref := s.clock.Now()
	if q.WeekStart != nil {
		ref = *q.WeekStart
	}
	monday := timeutil.MondayOf(ref.In(s.loc))
	from, to := timeutil.WeekRange(monday)
	fromDate, toDate := timeutil.FormatDate(from), timeutil.FormatDate(to)

	var segments []*models.ScheduleSegment
	var err error
	switch q.Template {
	case "", TemplateHistorical:
		segments, err = s.segments.ListActiveOn(ctx, userID, fromDate)
	case TemplateCurrent:
		segments, err = s.segments.ListOpen(ctx, userID, 0)
	default:
		return nil, apperrors.Field("template", "must be historical or current")
	}
	if err != nil {
		return nil, err
	}

	logs, err := s.logs.ListForWeek(ctx, userID, fromDate, toDate, from, to)
	if err != nil {
		return nil, err
	}

	return reconcile.Reconcile(reconcile.Input{
		WeekStart:        monday,
		Segments:         segments,
		Logs:             logs,
		UnassignedAsFree: q.UnassignedAsFree,
	}), nil
}
