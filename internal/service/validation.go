package service

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"Mansoor88-6/schedule-tracker/internal/apperrors"
	"Mansoor88-6/schedule-tracker/internal/timeutil"
)

const (
	minNameLen      = 2
	maxNameLen      = 60
	maxTarget       = 100000
	maxSegmentNotes = 200
	maxLogComment   = 300
)

var colorPattern = regexp.MustCompile(`^#?[0-9a-fA-F]{6}$`)

// normalizeName trims and checks the rune length.
func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n < minNameLen || n > maxNameLen {
		return "", apperrors.Field("name", fmt.Sprintf("must be between %d and %d characters", minNameLen, maxNameLen))
	}
	return name, nil
}

// normalizeColor accepts RRGGBB with or without a leading '#' and returns
// the lowercase '#rrggbb' form. Empty input clears the color.
func normalizeColor(color *string) (*string, error) {
	if color == nil {
		return nil, nil
	}
	c := strings.TrimSpace(*color)
	if c == "" {
		return nil, nil
	}
	if !colorPattern.MatchString(c) {
		return nil, apperrors.Field("color", "must be a 6-digit hex color like #1a2b3c")
	}
	c = "#" + strings.ToLower(strings.TrimPrefix(c, "#"))
	return &c, nil
}

func validateTarget(minutes int) error {
	if minutes < 0 || minutes > maxTarget {
		return apperrors.Field("weekly_target_minutes", fmt.Sprintf("must be between 0 and %d", maxTarget))
	}
	return nil
}

func validateWeekday(weekday int) error {
	if weekday < 1 || weekday > 7 {
		return apperrors.Field("weekday", "must be between 1 (Monday) and 7 (Sunday)")
	}
	return nil
}

func validateRange(start, end int) error {
	if start < 0 || end > timeutil.MinutesPerDay || start >= end {
		return apperrors.Field("range", "start must be before end within 00:00-24:00")
	}
	return nil
}

// optionalText trims s and returns nil for blank input.
func optionalText(s *string, field string, max int) (*string, error) {
	if s == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(v) > max {
		return nil, apperrors.Field(field, fmt.Sprintf("must be at most %d characters", max))
	}
	return &v, nil
}

// blankToNil trims s and returns nil for blank input.
func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
