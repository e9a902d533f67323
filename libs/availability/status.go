package availability

import (
	"time"

	"github.com/teampro-ai/teampro/libs/facility"
)

// CurrentStatus summarizes what is happening at a facility at now.
func CurrentStatus(facilityID string, now time.Time, bookings []facility.Booking, conflicts []facility.Conflict) facility.RealTimeStatus {
	active := make([]facility.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Active() && !BookingInterval(b).Empty() {
			active = append(active, b)
		}
	}
	sortBookings(active)

	st := facility.RealTimeStatus{
		FacilityID:           facilityID,
		IsCurrentlyAvailable: true,
		LastUpdated:          now,
	}
	for i := range active {
		b := active[i]
		if st.CurrentBooking == nil && !b.StartTime.After(now) && now.Before(b.EndTime) {
			st.CurrentBooking = &active[i]
			st.IsCurrentlyAvailable = false
		}
		if st.NextBooking == nil && b.StartTime.After(now) {
			st.NextBooking = &active[i]
		}
	}

	if st.IsCurrentlyAvailable && st.NextBooking != nil {
		until := st.NextBooking.StartTime
		st.AvailableUntil = &until
	}
	if !st.IsCurrentlyAvailable {
		// Walk forward through back-to-back or overlapping bookings.
		free := st.CurrentBooking.EndTime
		for _, b := range active {
			if !b.StartTime.After(free) && b.EndTime.After(free) {
				free = b.EndTime
			}
		}
		st.AvailableFrom = &free
	}

	seen := map[string]struct{}{}
	for _, c := range conflicts {
		if !c.Booking.EndTime.After(now) {
			continue
		}
		seen[c.ID] = struct{}{}
	}
	st.ConflictsDetected = len(seen)
	return st
}
