package models

type DashboardActivity struct {
	ID                     string         `json:"id"`
	Name                   string         `json:"name"`
	Color                  *string        `json:"color,omitempty"`
	Target                 int            `json:"target"`
	PlannedMinutesWeek     int            `json:"planned_minutes_week"`
	Done                   int            `json:"done"`
	Remaining              int            `json:"remaining"`
	Over                   int            `json:"over"`
	Percent                *float64       `json:"percent"`
	PlannedCoveragePercent *float64       `json:"planned_coverage_percent"`
	PlannedRemaining       int            `json:"planned_remaining"`
	LoggedBySource         map[string]int `json:"logged_by_source"`
	LoggedPartialMinutes   int            `json:"logged_partial_minutes"`
	LoggedFullMinutes      int            `json:"logged_full_minutes"`
}

type Dashboard struct {
	WeekStart         string               `json:"week_start"`
	WeekEndExclusive  string               `json:"week_end_exclusive"`
	Activities        []*DashboardActivity `json:"activities"`
	UnassignedMinutes int                  `json:"unassigned_minutes"`
}

// LogAggregate is one GROUP BY row of the week's logged minutes.
type LogAggregate struct {
	ActivityID *string
	Source     LogSource
	Partial    bool
	Minutes    int
}
