package service

import (
	"context"
	"fmt"
	"time"

	"Mansoor88-6/schedule-tracker/internal/apperrors"
	"Mansoor88-6/schedule-tracker/internal/clock"
	"Mansoor88-6/schedule-tracker/internal/models"
	"Mansoor88-6/schedule-tracker/internal/repository"
	"Mansoor88-6/schedule-tracker/internal/timeutil"

	"github.com/google/uuid"
)

type SegmentService struct {
	segments   *repository.SegmentRepository
	activities *repository.ActivityRepository
	clock      clock.Clock
	loc        *time.Location
}

func NewSegmentService(segments *repository.SegmentRepository, activities *repository.ActivityRepository, c clock.Clock, loc *time.Location) *SegmentService {
	return &SegmentService{segments: segments, activities: activities, clock: c, loc: loc}
}

func (s *SegmentService) today() time.Time {
	return timeutil.StartOfDay(s.clock.Now().In(s.loc))
}

// resolveMinute prefers an explicit minute and falls back to an HH:MM string.
func resolveMinute(minute *int, hhmm, field string) (int, error) {
	if minute != nil {
		return *minute, nil
	}
	if hhmm == "" {
		return 0, apperrors.Field(field, "is required")
	}
	return timeutil.HHMMToMinutes(hhmm)
}

func (s *SegmentService) checkActivity(ctx context.Context, userID string, activityID *string) error {
	if activityID == nil {
		return nil
	}
	_, err := s.activities.GetByID(ctx, userID, *activityID)
	return err
}

func (s *SegmentService) checkOverlap(ctx context.Context, userID string, weekday, start, end int, excludeID string) error {
	other, err := s.segments.FindOpenOverlap(ctx, userID, weekday, start, end, excludeID)
	if err != nil {
		return err
	}
	if other != nil {
		return apperrors.Conflict("segment overlaps an existing segment").
			WithDetail("conflicting_segment_id", other.ID).
			WithDetail("conflicting_range", other.Start+"-"+other.End)
	}
	return nil
}

func (s *SegmentService) Create(ctx context.Context, userID string, req *models.CreateSegmentRequest) (*models.ScheduleSegment, error) {
	if err := validateWeekday(req.Weekday); err != nil {
		return nil, err
	}
	start, err := resolveMinute(req.StartMinute, req.Start, "start")
	if err != nil {
		return nil, err
	}
	end, err := resolveMinute(req.EndMinute, req.End, "end")
	if err != nil {
		return nil, err
	}
	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	notes, err := optionalText(req.Notes, "notes", maxSegmentNotes)
	if err != nil {
		return nil, err
	}
	activityID := blankToNil(req.ActivityID)
	if err := s.checkActivity(ctx, userID, activityID); err != nil {
		return nil, err
	}
	if err := s.checkOverlap(ctx, userID, req.Weekday, start, end, ""); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	seg := &models.ScheduleSegment{
		ID:            uuid.NewString(),
		UserID:        userID,
		Weekday:       req.Weekday,
		StartMinute:   start,
		EndMinute:     end,
		Start:         timeutil.MinutesToHHMM(start),
		End:           timeutil.MinutesToHHMM(end),
		ActivityID:    activityID,
		Notes:         notes,
		EffectiveFrom: timeutil.FormatDate(timeutil.MondayOf(s.today())),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.segments.Create(ctx, seg); err != nil {
		return nil, err
	}
	return seg, nil
}

func (s *SegmentService) Get(ctx context.Context, userID, id string) (*models.ScheduleSegment, error) {
	return s.segments.GetByID(ctx, userID, id)
}

// ListCurrent returns open segments, optionally for one weekday (0 for all).
func (s *SegmentService) ListCurrent(ctx context.Context, userID string, weekday int) ([]*models.ScheduleSegment, error) {
	if weekday != 0 {
		if err := validateWeekday(weekday); err != nil {
			return nil, err
		}
	}
	return s.segments.ListOpen(ctx, userID, weekday)
}

// ListHistorical returns the template in force on the Monday of weekStart.
func (s *SegmentService) ListHistorical(ctx context.Context, userID string, weekStart time.Time) ([]*models.ScheduleSegment, error) {
	monday := timeutil.MondayOf(weekStart.In(s.loc))
	return s.segments.ListActiveOn(ctx, userID, timeutil.FormatDate(monday))
}

// ListAll returns the segments in force today plus upcoming versions, each
// upcoming version annotated with its changes against the row it replaces.
func (s *SegmentService) ListAll(ctx context.Context, userID string) ([]*models.SegmentListing, error) {
	today := timeutil.FormatDate(s.today())
	rows, err := s.segments.ListCurrentAndUpcoming(ctx, userID, today)
	if err != nil {
		return nil, err
	}

	out := make([]*models.SegmentListing, 0, len(rows))
	for _, seg := range rows {
		listing := &models.SegmentListing{ScheduleSegment: seg, Upcoming: seg.EffectiveFrom > today}
		if listing.Upcoming && seg.PreviousID != nil {
			prev, err := s.segments.GetByID(ctx, userID, *seg.PreviousID)
			if err != nil && !apperrors.Is(err, apperrors.KindNotFound) {
				return nil, err
			}
			if prev != nil {
				listing.Changes = diffSegments(prev, seg)
			}
		}
		out = append(out, listing)
	}
	return out, nil
}

// diffSegments describes what next changes relative to prev.
func diffSegments(prev, next *models.ScheduleSegment) []string {
	var changes []string
	if prev.Weekday != next.Weekday {
		changes = append(changes, fmt.Sprintf("weekday %s -> %s", timeutil.WeekdayName(prev.Weekday), timeutil.WeekdayName(next.Weekday)))
	}
	if prev.StartMinute != next.StartMinute || prev.EndMinute != next.EndMinute {
		changes = append(changes, fmt.Sprintf("time %s-%s -> %s-%s",
			timeutil.MinutesToHHMM(prev.StartMinute), timeutil.MinutesToHHMM(prev.EndMinute),
			timeutil.MinutesToHHMM(next.StartMinute), timeutil.MinutesToHHMM(next.EndMinute)))
	}
	if !equalPtr(prev.ActivityID, next.ActivityID) {
		changes = append(changes, "activity changed")
	}
	if !equalPtr(prev.Notes, next.Notes) {
		changes = append(changes, "notes changed")
	}
	return changes
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Update edits an open segment. ModeNow rewrites it in place; the weekly
// modes close it the day before the new effective Monday and insert the
// edited version in one transaction.
func (s *SegmentService) Update(ctx context.Context, userID, id string, req *models.UpdateSegmentRequest) (*models.SegmentUpdateResult, error) {
	current, err := s.segments.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !current.IsOpen() {
		return nil, apperrors.State("segment is closed and cannot be edited")
	}

	mode := req.Mode
	if mode == "" {
		mode = models.ModeNow
	}

	var effectiveFrom time.Time
	today := s.today()
	switch mode {
	case models.ModeNow:
	case models.ModeNextWeek:
		effectiveFrom = timeutil.NextMonday(today)
	case models.ModeCustomWeek:
		if req.EffectiveFrom == "" {
			return nil, apperrors.Field("effective_from", "is required for custom-week")
		}
		d, err := timeutil.ParseDate(req.EffectiveFrom, s.loc)
		if err != nil {
			return nil, err
		}
		if !timeutil.IsMonday(d) {
			return nil, apperrors.Field("effective_from", "must be a Monday")
		}
		if d.Before(timeutil.NextMonday(today)) {
			return nil, apperrors.Field("effective_from", "must be next Monday or later")
		}
		effectiveFrom = d
	default:
		return nil, apperrors.Field("mode", "must be one of now, next-week, custom-week")
	}

	next, err := s.applyChanges(ctx, userID, current, req)
	if err != nil {
		return nil, err
	}
	if err := s.checkOverlap(ctx, userID, next.Weekday, next.StartMinute, next.EndMinute, current.ID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	next.UpdatedAt = now

	if mode == models.ModeNow {
		if err := s.segments.Update(ctx, next); err != nil {
			return nil, err
		}
		return &models.SegmentUpdateResult{Mode: "now", Segment: next}, nil
	}

	from := timeutil.FormatDate(effectiveFrom)
	result := &models.SegmentUpdateResult{Mode: "versioned", NewEffectiveFrom: &from}

	closeOn := timeutil.FormatDate(timeutil.AddDays(effectiveFrom, -1))

	// A version that has not taken effect yet has no history of its own; it
	// is moved instead, and the version it replaces now ends the day before.
	if current.EffectiveFrom >= from {
		if current.PreviousID != nil {
			prev, err := s.segments.GetByID(ctx, userID, *current.PreviousID)
			if err != nil {
				return nil, err
			}
			if closeOn < prev.EffectiveFrom {
				return nil, apperrors.Field("effective_from", "must be later than the start of the version it replaces").
					WithDetail("previous_effective_from", prev.EffectiveFrom)
			}
		}
		next.EffectiveFrom = from
		if err := s.segments.Reschedule(ctx, next, closeOn); err != nil {
			return nil, err
		}
		result.Segment = next
		return result, nil
	}

	prevID := current.ID
	next.ID = uuid.NewString()
	next.EffectiveFrom = from
	next.EffectiveTo = nil
	next.PreviousID = &prevID
	next.CreatedAt = now

	if err := s.segments.Version(ctx, current, closeOn, next); err != nil {
		return nil, err
	}
	result.Segment = next
	result.Closed = current
	return result, nil
}

// applyChanges returns a copy of current with the request applied and
// validated.
func (s *SegmentService) applyChanges(ctx context.Context, userID string, current *models.ScheduleSegment, req *models.UpdateSegmentRequest) (*models.ScheduleSegment, error) {
	next := *current

	if req.Weekday != nil {
		if err := validateWeekday(*req.Weekday); err != nil {
			return nil, err
		}
		next.Weekday = *req.Weekday
	}
	switch {
	case req.StartMinute != nil:
		next.StartMinute = *req.StartMinute
	case req.Start != nil:
		m, err := timeutil.HHMMToMinutes(*req.Start)
		if err != nil {
			return nil, err
		}
		next.StartMinute = m
	}
	switch {
	case req.EndMinute != nil:
		next.EndMinute = *req.EndMinute
	case req.End != nil:
		m, err := timeutil.HHMMToMinutes(*req.End)
		if err != nil {
			return nil, err
		}
		next.EndMinute = m
	}
	if err := validateRange(next.StartMinute, next.EndMinute); err != nil {
		return nil, err
	}
	next.Start = timeutil.MinutesToHHMM(next.StartMinute)
	next.End = timeutil.MinutesToHHMM(next.EndMinute)

	if req.ActivityID.Set {
		next.ActivityID = blankToNil(req.ActivityID.Value)
		if err := s.checkActivity(ctx, userID, next.ActivityID); err != nil {
			return nil, err
		}
	}
	if req.Notes.Set {
		notes, err := optionalText(req.Notes.Value, "notes", maxSegmentNotes)
		if err != nil {
			return nil, err
		}
		next.Notes = notes
	}
	return &next, nil
}

// Delete removes an open segment. Closed versions are history and stay.
func (s *SegmentService) Delete(ctx context.Context, userID, id string) error {
	seg, err := s.segments.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if !seg.IsOpen() {
		return apperrors.State("closed segments cannot be deleted")
	}
	return s.segments.Delete(ctx, userID, id)
}
