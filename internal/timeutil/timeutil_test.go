package timeutil

import (
	"testing"
	"time"

	"Mansoor88-6/schedule-tracker/internal/apperrors"
)

func TestHHMMRoundTrip(t *testing.T) {
	for m := 0; m <= MinutesPerDay; m++ {
		got, err := HHMMToMinutes(MinutesToHHMM(m))
		if err != nil {
			t.Fatalf("minute %d: %v", m, err)
		}
		if got != m {
			t.Fatalf("round trip of %d gave %d", m, got)
		}
	}
}

func TestHHMMToMinutesMalformed(t *testing.T) {
	for _, s := range []string{"", "9", "9:5", "09-00", "24:01", "25:00", "12:60", "ab:cd", "-1:00", "123:00", "+9:00", "-0:00", "9:+5", " 9:0x"} {
		_, err := HHMMToMinutes(s)
		if err == nil {
			t.Fatalf("expected error for %q", s)
		}
		if !apperrors.Is(err, apperrors.KindFormat) {
			t.Fatalf("expected format error for %q, got %v", s, err)
		}
	}
	if m, err := HHMMToMinutes("7:05"); err != nil || m != 425 {
		t.Fatalf("expected 425, got %d, %v", m, err)
	}
}

func TestMondayOf(t *testing.T) {
	locs := []*time.Location{time.UTC, time.FixedZone("minus5", -5*3600), time.FixedZone("plus9", 9*3600)}
	for _, loc := range locs {
		start := time.Date(2024, 12, 20, 13, 45, 0, 0, loc)
		for i := 0; i < 60; i++ {
			d := start.AddDate(0, 0, i)
			mon := MondayOf(d)
			if mon.Weekday() != time.Monday {
				t.Fatalf("MondayOf(%v) = %v is not a Monday", d, mon)
			}
			from, to := WeekRange(mon)
			if d.Before(from) || !d.Before(to) {
				t.Fatalf("%v not in [%v, %v)", d, from, to)
			}
			if mon.Hour() != 0 || mon.Minute() != 0 {
				t.Fatalf("MondayOf(%v) not at midnight: %v", d, mon)
			}
		}
	}
}

func TestISOWeekday(t *testing.T) {
	sunday := time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)
	if ISOWeekday(sunday) != 7 {
		t.Fatalf("sunday should be 7, got %d", ISOWeekday(sunday))
	}
	if ISOWeekday(sunday.AddDate(0, 0, 1)) != 1 {
		t.Fatal("monday should be 1")
	}
	if WeekdayName(3) != "Wednesday" || WeekdayName(0) != "" {
		t.Fatal("unexpected weekday names")
	}
}

func TestNextMonday(t *testing.T) {
	tests := []struct {
		day  string
		want string
	}{
		{"2025-01-06", "2025-01-13"}, // Monday -> following Monday
		{"2025-01-08", "2025-01-13"},
		{"2025-01-12", "2025-01-13"}, // Sunday
	}
	for _, tt := range tests {
		d, err := ParseDate(tt.day, time.UTC)
		if err != nil {
			t.Fatal(err)
		}
		if got := FormatDate(NextMonday(d.Add(15 * time.Hour))); got != tt.want {
			t.Errorf("NextMonday(%s) = %s, want %s", tt.day, got, tt.want)
		}
	}
}

func TestCombineDateAndTimeIsLocal(t *testing.T) {
	loc := time.FixedZone("plus3", 3*3600)
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	got, err := CombineDateAndTime(date, "09:30", loc)
	if err != nil {
		t.Fatal(err)
	}
	if got.In(loc).Hour() != 9 || got.In(loc).Minute() != 30 {
		t.Fatalf("expected 09:30 local, got %v", got.In(loc))
	}
	if got.UTC().Hour() != 6 {
		t.Fatalf("expected 06:30 UTC, got %v", got.UTC())
	}
	end, err := CombineDateAndTime(date, "24:00", loc)
	if err != nil {
		t.Fatal(err)
	}
	if !end.Equal(time.Date(2025, 3, 11, 0, 0, 0, 0, loc)) {
		t.Fatalf("24:00 should be next midnight, got %v", end)
	}
}

func TestParseDate(t *testing.T) {
	loc := time.FixedZone("minus5", -5*3600)
	d, err := ParseDate("2025-02-03", loc)
	if err != nil || d.Location() != loc || d.Day() != 3 {
		t.Fatalf("unexpected %v, %v", d, err)
	}
	d, err = ParseDate("2025-02-04T02:00:00Z", loc)
	if err != nil || FormatDate(d) != "2025-02-03" {
		t.Fatalf("timestamp should map to local day, got %v, %v", d, err)
	}
	if _, err := ParseDate("03/02/2025", loc); !apperrors.Is(err, apperrors.KindFormat) {
		t.Fatalf("expected format error, got %v", err)
	}
}

func TestMinuteOfDay(t *testing.T) {
	ts := time.Date(2025, 1, 1, 10, 0, 30, 0, time.UTC)
	if got := MinuteOfDay(ts); got != 600.5 {
		t.Fatalf("expected 600.5, got %v", got)
	}
	if RoundMinutes(90*time.Second) != 2 || RoundMinutes(89*time.Second) != 1 {
		t.Fatal("unexpected rounding")
	}
}
