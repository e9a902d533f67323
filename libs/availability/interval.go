// Package availability projects facility bookings onto the hourly calendar
// grid and computes conflicts between them. Everything here is pure: callers
// pass "now" explicitly and inputs are never modified.
package availability

import "time"

// Interval is the half-open range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Empty is true for zero-length and inverted intervals.
func (i Interval) Empty() bool { return !i.Start.Before(i.End) }

// Overlaps uses strict half-open comparison, so intervals that only touch at a
// boundary do not overlap. An empty interval overlaps nothing.
func (i Interval) Overlaps(o Interval) bool {
	if i.Empty() || o.Empty() {
		return false
	}
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Intersect returns the common part of two overlapping intervals.
func (i Interval) Intersect(o Interval) (Interval, bool) {
	if !i.Overlaps(o) {
		return Interval{}, false
	}
	out := i
	if o.Start.After(out.Start) {
		out.Start = o.Start
	}
	if o.End.Before(out.End) {
		out.End = o.End
	}
	return out, true
}

func (i Interval) Duration() time.Duration {
	if i.Empty() {
		return 0
	}
	return i.End.Sub(i.Start)
}
