package service

import (
	"context"
	"strings"
	"time"

	"Mansoor88-6/schedule-tracker/internal/apperrors"
	"Mansoor88-6/schedule-tracker/internal/clock"
	"Mansoor88-6/schedule-tracker/internal/models"
	"Mansoor88-6/schedule-tracker/internal/repository"
	"Mansoor88-6/schedule-tracker/internal/timeutil"

	"github.com/google/uuid"
)

const (
	defaultLogLimit = 20
	maxLogLimit     = 100
)

type TimeLogService struct {
	logs       *repository.TimeLogRepository
	activities *repository.ActivityRepository
	segments   *repository.SegmentRepository
	clock      clock.Clock
	loc        *time.Location
}

func NewTimeLogService(logs *repository.TimeLogRepository, activities *repository.ActivityRepository, segments *repository.SegmentRepository, c clock.Clock, loc *time.Location) *TimeLogService {
	return &TimeLogService{logs: logs, activities: activities, segments: segments, clock: c, loc: loc}
}

// LogQuery is the caller-facing form of a log listing request.
type LogQuery struct {
	Week       *time.Time
	Date       *time.Time
	ActivityID string
	Source     models.LogSource
	NoSegment  bool
	SegmentID  string
	Limit      int
	Offset     int
	Order      models.LogOrder
}

func (s *TimeLogService) localDate(t time.Time) string {
	return timeutil.FormatDate(t.In(s.loc))
}

// validate checks a fully merged log in order: references, bounds, minutes,
// planned segment length, then overlap with the user's other logs.
func (s *TimeLogService) validate(ctx context.Context, l *models.TimeLog) error {
	if l.ActivityID != nil {
		if _, err := s.activities.GetByID(ctx, l.UserID, *l.ActivityID); err != nil {
			return err
		}
	}
	var seg *models.ScheduleSegment
	if l.SegmentID != nil {
		var err error
		if seg, err = s.segments.GetByID(ctx, l.UserID, *l.SegmentID); err != nil {
			return err
		}
	}

	now := s.clock.Now()
	end := now
	if l.EndedAt != nil {
		if !l.EndedAt.After(l.StartedAt) {
			return apperrors.Field("ended_at", "must be after started_at")
		}
		if l.Minutes <= 0 {
			return apperrors.Field("minutes", "must be greater than 0")
		}
		if seg != nil && l.Source == models.SourcePlanned && l.Minutes > seg.Duration() {
			return apperrors.Field("minutes", "planned time cannot exceed the segment length").
				WithDetail("segment_minutes", timeutil.MinutesToHHMM(seg.Duration()))
		}
		end = *l.EndedAt
	}

	other, err := s.logs.FindOverlapping(ctx, l.UserID, l.StartedAt, end, now, l.ID)
	if err != nil {
		return err
	}
	if other != nil {
		return apperrors.Conflict("log overlaps another log").WithDetail("conflicting_log_id", other.ID)
	}
	return nil
}

// resolveBound returns instant in UTC, or the wall-clock time hhmm on the
// local calendar day date. It returns nil when neither is given.
func (s *TimeLogService) resolveBound(instant *time.Time, hhmm, date, field string) (*time.Time, error) {
	if instant != nil {
		t := instant.UTC()
		return &t, nil
	}
	if strings.TrimSpace(hhmm) == "" {
		return nil, nil
	}
	if strings.TrimSpace(date) == "" {
		return nil, apperrors.Field("date", "is required when "+field+" is given as HH:MM")
	}
	d, err := timeutil.ParseDate(date, s.loc)
	if err != nil {
		return nil, err
	}
	t, err := timeutil.CombineDateAndTime(d, hhmm, s.loc)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}

func validateSource(src models.LogSource) (models.LogSource, error) {
	if src == "" {
		return models.SourceAdhoc, nil
	}
	if !src.Valid() {
		return "", apperrors.Field("source", "must be PLANNED, ADHOC or MAKEUP")
	}
	return src, nil
}

func (s *TimeLogService) Create(ctx context.Context, userID string, req *models.CreateLogRequest) (*models.TimeLog, error) {
	startedAt, err := s.resolveBound(req.StartedAt, req.Start, req.Date, "start")
	if err != nil {
		return nil, err
	}
	if startedAt == nil {
		return nil, apperrors.Field("started_at", "is required")
	}
	endedAt, err := s.resolveBound(req.EndedAt, req.End, req.Date, "end")
	if err != nil {
		return nil, err
	}
	if endedAt == nil {
		return nil, apperrors.Field("ended_at", "is required")
	}
	source, err := validateSource(req.Source)
	if err != nil {
		return nil, err
	}
	comment, err := optionalText(req.Comment, "comment", maxLogComment)
	if err != nil {
		return nil, err
	}

	start, end := *startedAt, *endedAt
	date := s.localDate(start)
	if req.Date != "" {
		d, err := timeutil.ParseDate(req.Date, s.loc)
		if err != nil {
			return nil, err
		}
		date = timeutil.FormatDate(d)
	}
	minutes := timeutil.RoundMinutes(end.Sub(start))
	if req.Minutes != nil {
		minutes = *req.Minutes
	}

	now := s.clock.Now()
	l := &models.TimeLog{
		ID:         uuid.NewString(),
		UserID:     userID,
		ActivityID: blankToNil(req.ActivityID),
		SegmentID:  blankToNil(req.SegmentID),
		Date:       date,
		StartedAt:  start,
		EndedAt:    &end,
		Minutes:    minutes,
		Partial:    req.Partial,
		Source:     source,
		Comment:    comment,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.validate(ctx, l); err != nil {
		return nil, err
	}
	if err := s.logs.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *TimeLogService) Get(ctx context.Context, userID, id string) (*models.TimeLog, error) {
	return s.logs.GetByID(ctx, userID, id)
}

func (s *TimeLogService) Update(ctx context.Context, userID, id string, req *models.UpdateLogRequest) (*models.TimeLog, error) {
	l, err := s.logs.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.ActivityID.Set {
		l.ActivityID = blankToNil(req.ActivityID.Value)
	}
	if req.SegmentID.Set {
		l.SegmentID = blankToNil(req.SegmentID.Value)
	}
	day := l.Date
	if req.Date != nil {
		day = *req.Date
	}
	boundsChanged := false
	start, err := s.resolveBound(req.StartedAt, deref(req.Start), day, "start")
	if err != nil {
		return nil, err
	}
	if start != nil {
		l.StartedAt = *start
		l.Date = s.localDate(l.StartedAt)
		boundsChanged = true
	}
	end, err := s.resolveBound(req.EndedAt, deref(req.End), day, "end")
	if err != nil {
		return nil, err
	}
	if end != nil {
		l.EndedAt = end
		boundsChanged = true
	}
	if req.Date != nil {
		d, err := timeutil.ParseDate(*req.Date, s.loc)
		if err != nil {
			return nil, err
		}
		l.Date = timeutil.FormatDate(d)
	}
	switch {
	case req.Minutes != nil:
		l.Minutes = *req.Minutes
	case boundsChanged && l.EndedAt != nil:
		l.Minutes = timeutil.RoundMinutes(l.EndedAt.Sub(l.StartedAt))
	}
	if req.Partial != nil {
		l.Partial = *req.Partial
	}
	if req.Source != nil {
		if l.Source, err = validateSource(*req.Source); err != nil {
			return nil, err
		}
	}
	if req.Comment.Set {
		if l.Comment, err = optionalText(req.Comment.Value, "comment", maxLogComment); err != nil {
			return nil, err
		}
	}

	if err := s.validate(ctx, l); err != nil {
		return nil, err
	}
	l.UpdatedAt = s.clock.Now()
	if err := s.logs.Update(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *TimeLogService) Delete(ctx context.Context, userID, id string) error {
	return s.logs.Delete(ctx, userID, id)
}

// Start opens a stopwatch log. Only one may be open per user.
func (s *TimeLogService) Start(ctx context.Context, userID string, req *models.StartLogRequest) (*models.TimeLog, error) {
	activityID := blankToNil(req.ActivityID)
	if activityID != nil {
		if _, err := s.activities.GetByID(ctx, userID, *activityID); err != nil {
			return nil, err
		}
	}
	comment, err := optionalText(req.Comment, "comment", maxLogComment)
	if err != nil {
		return nil, err
	}

	open, err := s.logs.FindOpen(ctx, userID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, apperrors.Conflict("already active").WithDetail("active_log_id", open.ID)
	}

	now := s.clock.Now()
	l := &models.TimeLog{
		ID:         uuid.NewString(),
		UserID:     userID,
		ActivityID: activityID,
		Date:       s.localDate(now),
		StartedAt:  now.UTC(),
		Source:     models.SourceAdhoc,
		Comment:    comment,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.logs.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Terminate closes the open log at the current time.
func (s *TimeLogService) Terminate(ctx context.Context, userID string) (*models.TimeLog, error) {
	open, err := s.logs.FindOpen(ctx, userID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, apperrors.NotFound("no active activity")
	}

	now := s.clock.Now().UTC()
	if !now.After(open.StartedAt) {
		return nil, apperrors.Validation("active log started in the future")
	}
	minutes := max(1, timeutil.RoundMinutes(now.Sub(open.StartedAt)))

	if err := s.logs.Close(ctx, userID, open.ID, now, minutes); err != nil {
		return nil, err
	}
	open.EndedAt = &now
	open.Minutes = minutes
	open.UpdatedAt = now
	return open, nil
}

// Current returns the open log with its elapsed minutes, or an empty
// result when nothing is running.
func (s *TimeLogService) Current(ctx context.Context, userID string) (*models.CurrentLog, error) {
	open, err := s.logs.FindOpen(ctx, userID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return &models.CurrentLog{}, nil
	}

	cur := &models.CurrentLog{
		Active:         open,
		ElapsedMinutes: max(0, timeutil.RoundMinutes(s.clock.Now().Sub(open.StartedAt))),
	}
	if open.ActivityID != nil {
		a, err := s.activities.GetByID(ctx, userID, *open.ActivityID)
		if err != nil && !apperrors.Is(err, apperrors.KindNotFound) {
			return nil, err
		}
		if a != nil {
			cur.Activity = &models.ActivitySummary{ID: a.ID, Name: a.Name, Color: a.Color}
		}
	}
	return cur, nil
}

func (s *TimeLogService) List(ctx context.Context, userID string, q LogQuery) (*models.LogPage, error) {
	f := models.LogFilter{
		ActivityID: q.ActivityID,
		NoSegment:  q.NoSegment,
		SegmentID:  q.SegmentID,
		Limit:      q.Limit,
		Offset:     q.Offset,
		Order:      q.Order,
	}

	if q.Source != "" {
		if !q.Source.Valid() {
			return nil, apperrors.Field("source", "must be PLANNED, ADHOC or MAKEUP")
		}
		f.Source = q.Source
	}
	switch f.Order {
	case "":
		f.Order = models.OrderDesc
	case models.OrderAsc, models.OrderDesc:
	default:
		return nil, apperrors.Field("order", "must be asc or desc")
	}
	if f.Limit <= 0 {
		f.Limit = defaultLogLimit
	}
	if f.Limit > maxLogLimit {
		f.Limit = maxLogLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	if q.Week != nil {
		from, to := timeutil.WeekRange(timeutil.MondayOf(q.Week.In(s.loc)))
		f.DateFrom, f.DateTo = timeutil.FormatDate(from), timeutil.FormatDate(to)
	}
	if q.Date != nil {
		day := timeutil.StartOfDay(q.Date.In(s.loc))
		from, to := timeutil.FormatDate(day), timeutil.FormatDate(timeutil.AddDays(day, 1))
		if f.DateFrom < from {
			f.DateFrom = from
		}
		if f.DateTo == "" || f.DateTo > to {
			f.DateTo = to
		}
	}

	logs, total, err := s.logs.List(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	return &models.LogPage{Logs: logs, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}
