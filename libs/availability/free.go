package availability

import "time"

// FreeStarts returns start times within window where a booking of length
// duration, stepping by step, would not overlap any busy interval. Starts
// at or before now are skipped. All times are expected in the same location.
func FreeStarts(window Interval, duration, step time.Duration, busy []Interval, now time.Time) []time.Time {
	if duration <= 0 || step <= 0 || window.Empty() {
		return nil
	}
	if window.Start.Add(duration).After(window.End) {
		return nil
	}

	var starts []time.Time
	for t := window.Start; !t.Add(duration).After(window.End); t = t.Add(step) {
		if !t.After(now) {
			continue
		}
		if !overlapsAny(Interval{Start: t, End: t.Add(duration)}, busy) {
			starts = append(starts, t)
		}
	}
	return starts
}

func overlapsAny(iv Interval, busy []Interval) bool {
	for _, b := range busy {
		if iv.Overlaps(b) {
			return true
		}
	}
	return false
}
