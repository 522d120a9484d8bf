// Package timeutil converts between wall-clock minutes, HH:MM strings and
// calendar dates. Every function works in the location carried by its
// time.Time arguments (or the loc parameter); nothing here assumes UTC.
package timeutil

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"Mansoor88-6/schedule-tracker/internal/apperrors"
)

const (
	MinutesPerDay = 1440
	DateLayout    = "2006-01-02"
)

var weekdayNames = [...]string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// ISOWeekday returns 1 for Monday through 7 for Sunday.
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func WeekdayName(weekday int) string {
	if weekday < 1 || weekday > 7 {
		return ""
	}
	return weekdayNames[weekday]
}

// StartOfDay returns local midnight of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddDays moves by calendar days, so DST transitions keep midnight at midnight.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// MondayOf returns local midnight of the Monday of t's week.
func MondayOf(t time.Time) time.Time {
	return AddDays(StartOfDay(t), 1-ISOWeekday(t))
}

// WeekRange returns the half-open interval [monday, monday+7d).
func WeekRange(monday time.Time) (time.Time, time.Time) {
	from := StartOfDay(monday)
	return from, AddDays(from, 7)
}

// NextMonday returns the first Monday strictly after t's day.
func NextMonday(t time.Time) time.Time {
	return AddDays(StartOfDay(t), 8-ISOWeekday(t))
}

func IsMonday(t time.Time) bool {
	return t.Weekday() == time.Monday
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate accepts YYYY-MM-DD, or an RFC 3339 timestamp whose local day in
// loc is taken.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseInLocation(DateLayout, s, loc); err == nil {
		return d, nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return StartOfDay(ts.In(loc)), nil
	}
	return time.Time{}, apperrors.Format(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s))
}

// MinutesToHHMM renders a minute-of-day in [0,1440]; 1440 renders as 24:00.
func MinutesToHHMM(m int) string {
	if m < 0 {
		m = 0
	}
	if m > MinutesPerDay {
		m = MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// HHMMToMinutes parses H:MM or HH:MM. 24:00 is accepted as end of day.
func HHMMToMinutes(s string) (int, error) {
	bad := apperrors.Format(fmt.Sprintf("invalid time %q, expected HH:MM", s))
	h, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(h) < 1 || len(h) > 2 || len(mm) != 2 || !allDigits(h) || !allDigits(mm) {
		return 0, bad
	}
	hours, err := strconv.Atoi(h)
	if err != nil {
		return 0, bad
	}
	mins, err := strconv.Atoi(mm)
	if err != nil || mins > 59 {
		return 0, bad
	}
	if hours == 24 && mins == 0 {
		return MinutesPerDay, nil
	}
	if hours > 23 {
		return 0, bad
	}
	return hours*60 + mins, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// CombineDateAndTime builds the instant for the wall-clock time hhmm on the
// calendar day of date, interpreted in loc. The date's own location is
// ignored; only its year, month and day are used.
func CombineDateAndTime(date time.Time, hhmm string, loc *time.Location) (time.Time, error) {
	m, err := HHMMToMinutes(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return AtMinute(date, m, loc), nil
}

// AtMinute returns the instant minute m of date's calendar day in loc.
func AtMinute(date time.Time, m int, loc *time.Location) time.Time {
	y, mo, d := date.Date()
	return time.Date(y, mo, d, m/60, m%60, 0, 0, loc)
}

// MinuteOfDay returns the fractional wall-clock minute of t in its location.
func MinuteOfDay(t time.Time) float64 {
	return float64(t.Hour()*60+t.Minute()) + float64(t.Second())/60 + float64(t.Nanosecond())/6e10
}

// RoundMinutes rounds a duration to whole minutes, half away from zero.
func RoundMinutes(d time.Duration) int {
	return int(math.Round(d.Minutes()))
}
