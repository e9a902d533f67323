package availability

import (
	"time"

	"github.com/teampro-ai/teampro/libs/facility"
)

type State string

const (
	StateAvailable   State = "available"
	StateBooked      State = "booked"
	StateConflict    State = "conflict"
	StateUnavailable State = "unavailable"
)

// Selectable reports whether a new booking may start from a slot in this state.
func (s State) Selectable() bool { return s == StateAvailable }

// TimeSlot is a slot tagged with what overlaps it. It is derived on every
// render and never stored.
type TimeSlot struct {
	Slot
	Bookings  []facility.Booking  `json:"bookings"`
	Conflicts []facility.Conflict `json:"conflicts"`
	State     State               `json:"state"`
}

func BookingInterval(b facility.Booking) Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}

// MatchBookings returns the active bookings overlapping the slot, in input order.
func MatchBookings(slot Slot, bookings []facility.Booking) []facility.Booking {
	var out []facility.Booking
	for _, b := range bookings {
		if b.Active() && slot.Overlaps(BookingInterval(b)) {
			out = append(out, b)
		}
	}
	return out
}

// MatchConflicts returns the conflicts whose booking overlaps the slot.
func MatchConflicts(slot Slot, conflicts []facility.Conflict) []facility.Conflict {
	var out []facility.Conflict
	for _, c := range conflicts {
		if slot.Overlaps(BookingInterval(c.Booking)) {
			out = append(out, c)
		}
	}
	return out
}

// Classify picks exactly one state. Past slots are unavailable whatever they
// hold, and a conflict always wins over a plain booking.
func Classify(slot Slot, bookings []facility.Booking, conflicts []facility.Conflict, now time.Time) State {
	switch {
	case !slot.Start.After(now):
		return StateUnavailable
	case len(conflicts) > 0:
		return StateConflict
	case len(bookings) > 0:
		return StateBooked
	default:
		return StateAvailable
	}
}

// Project matches and classifies every slot.
func Project(slots []Slot, bookings []facility.Booking, conflicts []facility.Conflict, now time.Time) []TimeSlot {
	out := make([]TimeSlot, 0, len(slots))
	for _, s := range slots {
		mb := MatchBookings(s, bookings)
		mc := MatchConflicts(s, conflicts)
		out = append(out, TimeSlot{
			Slot:      s,
			Bookings:  mb,
			Conflicts: mc,
			State:     Classify(s, mb, mc, now),
		})
	}
	return out
}
