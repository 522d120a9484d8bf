package models

import "time"

type Activity struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"user_id"`
	Name                string    `json:"name"`
	Color               *string   `json:"color,omitempty"`
	WeeklyTargetMinutes int       `json:"weekly_target_minutes"`
	Active              bool      `json:"active"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// ActivitySummary is the short form embedded in other responses.
type ActivitySummary struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Color *string `json:"color,omitempty"`
}

type CreateActivityRequest struct {
	Name                string  `json:"name"`
	Color               *string `json:"color,omitempty"`
	WeeklyTargetMinutes int     `json:"weekly_target_minutes"`
	Active              *bool   `json:"active,omitempty"`
}

type UpdateActivityRequest struct {
	Name                *string          `json:"name,omitempty"`
	Color               Optional[string] `json:"color"`
	WeeklyTargetMinutes *int             `json:"weekly_target_minutes,omitempty"`
	Active              *bool            `json:"active,omitempty"`
}
