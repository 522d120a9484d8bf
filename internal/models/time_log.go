package models

import "time"

type LogSource string

const (
	SourcePlanned LogSource = "PLANNED"
	SourceAdhoc   LogSource = "ADHOC"
	SourceMakeup  LogSource = "MAKEUP"
)

func (s LogSource) Valid() bool {
	switch s {
	case SourcePlanned, SourceAdhoc, SourceMakeup:
		return true
	}
	return false
}

// TimeLog is a span of logged time. EndedAt nil marks the in-progress log.
type TimeLog struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	ActivityID *string    `json:"activity_id,omitempty"`
	SegmentID  *string    `json:"segment_id,omitempty"`
	Date       string     `json:"date"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	Minutes    int        `json:"minutes"`
	Partial    bool       `json:"partial"`
	Source     LogSource  `json:"source"`
	Comment    *string    `json:"comment,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (l *TimeLog) IsOpen() bool {
	return l.EndedAt == nil
}

type CreateLogRequest struct {
	ActivityID *string    `json:"activity_id,omitempty"`
	SegmentID  *string    `json:"segment_id,omitempty"`
	Date       string     `json:"date,omitempty"`
	StartedAt  *time.Time `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at"`
	Start      string     `json:"start,omitempty"`
	End        string     `json:"end,omitempty"`
	Minutes    *int       `json:"minutes,omitempty"`
	Partial    bool       `json:"partial"`
	Source     LogSource  `json:"source,omitempty"`
	Comment    *string    `json:"comment,omitempty"`
}

type UpdateLogRequest struct {
	ActivityID Optional[string] `json:"activity_id"`
	SegmentID  Optional[string] `json:"segment_id"`
	Date       *string          `json:"date,omitempty"`
	StartedAt  *time.Time       `json:"started_at,omitempty"`
	EndedAt    *time.Time       `json:"ended_at,omitempty"`
	Start      *string          `json:"start,omitempty"`
	End        *string          `json:"end,omitempty"`
	Minutes    *int             `json:"minutes,omitempty"`
	Partial    *bool            `json:"partial,omitempty"`
	Source     *LogSource       `json:"source,omitempty"`
	Comment    Optional[string] `json:"comment"`
}

type StartLogRequest struct {
	ActivityID *string `json:"activity_id,omitempty"`
	Comment    *string `json:"comment,omitempty"`
}

type LogOrder string

const (
	OrderAsc  LogOrder = "asc"
	OrderDesc LogOrder = "desc"
)

// LogFilter narrows a log listing. Zero values mean "no filter". Dates are
// calendar days formatted YYYY-MM-DD.
type LogFilter struct {
	DateFrom   string
	DateTo     string
	ActivityID string
	Source     LogSource
	NoSegment  bool
	SegmentID  string
	Limit      int
	Offset     int
	Order      LogOrder
}

type LogPage struct {
	Logs   []*TimeLog `json:"logs"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

type CurrentLog struct {
	Active         *TimeLog         `json:"active"`
	Activity       *ActivitySummary `json:"activity,omitempty"`
	ElapsedMinutes int              `json:"elapsed_minutes"`
}
