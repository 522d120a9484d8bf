package reconcile

import "sort"

// noActivity keys minutes logged without an activity.
const noActivity = ""

// tally accumulates minutes per activity.
type tally struct {
	total   int
	minutes map[string]int
}

func newTally() *tally {
	return &tally{minutes: make(map[string]int)}
}

func (t *tally) add(activityID *string, minutes int) {
	k := noActivity
	if activityID != nil {
		k = *activityID
	}
	t.minutes[k] += minutes
	t.total += minutes
}

// breakdown orders activities by minutes descending, then id, with the
// no-activity bucket last among equals.
func (t *tally) breakdown() []ActivityMinutes {
	out := make([]ActivityMinutes, 0, len(t.minutes))
	for k, m := range t.minutes {
		am := ActivityMinutes{Minutes: m}
		if k != noActivity {
			id := k
			am.ActivityID = &id
		}
		if t.total > 0 {
			am.Percent = round1(float64(m) / float64(t.total) * 100)
		}
		out = append(out, am)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Minutes != out[j].Minutes {
			return out[i].Minutes > out[j].Minutes
		}
		a, b := out[i].ActivityID, out[j].ActivityID
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return *a < *b
	})
	return out
}
