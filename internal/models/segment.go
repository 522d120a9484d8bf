package models

import "time"

// ScheduleSegment is one version of a weekly template slot. EffectiveTo nil
// means the row is open and still editable.
type ScheduleSegment struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Weekday       int       `json:"weekday"`
	StartMinute   int       `json:"start_minute"`
	EndMinute     int       `json:"end_minute"`
	Start         string    `json:"start"`
	End           string    `json:"end"`
	ActivityID    *string   `json:"activity_id,omitempty"`
	Notes         *string   `json:"notes,omitempty"`
	EffectiveFrom string    `json:"effective_from"`
	EffectiveTo   *string   `json:"effective_to,omitempty"`
	PreviousID    *string   `json:"previous_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (s *ScheduleSegment) IsOpen() bool {
	return s.EffectiveTo == nil
}

func (s *ScheduleSegment) Duration() int {
	return s.EndMinute - s.StartMinute
}

// Overlaps reports whether both segments share a weekday and their
// [start,end) ranges intersect.
func (s *ScheduleSegment) Overlaps(weekday, start, end int) bool {
	return s.Weekday == weekday && start < s.EndMinute && end > s.StartMinute
}

type VersioningMode string

const (
	ModeNow        VersioningMode = "now"
	ModeNextWeek   VersioningMode = "next-week"
	ModeCustomWeek VersioningMode = "custom-week"
)

type CreateSegmentRequest struct {
	Weekday     int     `json:"weekday"`
	StartMinute *int    `json:"start_minute,omitempty"`
	EndMinute   *int    `json:"end_minute,omitempty"`
	Start       string  `json:"start,omitempty"`
	End         string  `json:"end,omitempty"`
	ActivityID  *string `json:"activity_id,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

type UpdateSegmentRequest struct {
	Weekday       *int             `json:"weekday,omitempty"`
	StartMinute   *int             `json:"start_minute,omitempty"`
	EndMinute     *int             `json:"end_minute,omitempty"`
	Start         *string          `json:"start,omitempty"`
	End           *string          `json:"end,omitempty"`
	ActivityID    Optional[string] `json:"activity_id"`
	Notes         Optional[string] `json:"notes"`
	Mode          VersioningMode   `json:"mode,omitempty"`
	EffectiveFrom string           `json:"effective_from,omitempty"`
}

type SegmentUpdateResult struct {
	Mode             string           `json:"mode"`
	Segment          *ScheduleSegment `json:"segment"`
	Closed           *ScheduleSegment `json:"closed,omitempty"`
	NewEffectiveFrom *string          `json:"new_effective_from,omitempty"`
}

// SegmentListing is a row of the manage view: current rows plus upcoming
// versions annotated with what they change.
type SegmentListing struct {
	*ScheduleSegment
	Upcoming bool     `json:"upcoming"`
	Changes  []string `json:"changes,omitempty"`
}
