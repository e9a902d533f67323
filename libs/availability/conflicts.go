package availability

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"

	"github.com/teampro-ai/teampro/libs/facility"
)

// PairID identifies a conflict independent of direction.
func PairID(kind facility.ConflictKind, a, b string) string {
	if b < a {
		a, b = b, a
	}
	sum := sha1.Sum([]byte(string(kind) + "|" + a + "|" + b))
	return hex.EncodeToString(sum[:8])
}

// DetectConflicts finds every overlap among active bookings of the same
// facility, plus every active booking overlapping a blackout. A booking pair
// yields one entry per side. Output order is stable for identical input.
func DetectConflicts(bookings []facility.Booking, blackouts []facility.Blackout) []facility.Conflict {
	byFacility := map[string][]facility.Booking{}
	for _, b := range bookings {
		if !b.Active() || BookingInterval(b).Empty() {
			continue
		}
		byFacility[b.FacilityID] = append(byFacility[b.FacilityID], b)
	}

	var out []facility.Conflict
	for _, list := range byFacility {
		sortBookings(list)
		for i := range list {
			a := list[i]
			ai := BookingInterval(a)
			for j := i + 1; j < len(list) && list[j].StartTime.Before(a.EndTime); j++ {
				b := list[j]
				overlap, ok := ai.Intersect(BookingInterval(b))
				if !ok {
					continue
				}
				id := PairID(facility.ConflictBookingOverlap, a.ID, b.ID)
				aCopy, bCopy := a, b
				out = append(out,
					bookingConflict(id, a, &bCopy, overlap),
					bookingConflict(id, b, &aCopy, overlap),
				)
			}
		}
	}

	for _, bo := range blackouts {
		bi := Interval{Start: bo.StartTime, End: bo.EndTime}
		for _, b := range byFacility[bo.FacilityID] {
			overlap, ok := BookingInterval(b).Intersect(bi)
			if !ok {
				continue
			}
			boCopy := bo
			out = append(out, facility.Conflict{
				ID:           PairID(facility.ConflictBlackout, b.ID, bo.ID),
				FacilityID:   b.FacilityID,
				Kind:         facility.ConflictBlackout,
				Booking:      b,
				Blackout:     &boCopy,
				OverlapStart: overlap.Start,
				OverlapEnd:   overlap.End,
			})
		}
	}

	sortConflicts(out)
	return out
}

// CheckInterval returns the conflicts a proposed booking of facilityID over iv
// would have with the existing bookings and blackouts. excludeID skips one
// booking (the one being rescheduled). Each entry references the existing
// booking, or for blackouts an empty booking spanning the proposed interval.
func CheckInterval(facilityID string, iv Interval, bookings []facility.Booking, blackouts []facility.Blackout, excludeID string) []facility.Conflict {
	if iv.Empty() {
		return nil
	}
	var out []facility.Conflict
	for _, b := range bookings {
		if b.FacilityID != facilityID || b.ID == excludeID || !b.Active() {
			continue
		}
		overlap, ok := BookingInterval(b).Intersect(iv)
		if !ok {
			continue
		}
		out = append(out, facility.Conflict{
			ID:           PairID(facility.ConflictBookingOverlap, b.ID, excludeID),
			FacilityID:   facilityID,
			Kind:         facility.ConflictBookingOverlap,
			Booking:      b,
			OverlapStart: overlap.Start,
			OverlapEnd:   overlap.End,
		})
	}
	for _, bo := range blackouts {
		if bo.FacilityID != facilityID {
			continue
		}
		overlap, ok := iv.Intersect(Interval{Start: bo.StartTime, End: bo.EndTime})
		if !ok {
			continue
		}
		boCopy := bo
		out = append(out, facility.Conflict{
			ID:         PairID(facility.ConflictBlackout, bo.ID, excludeID),
			FacilityID: facilityID,
			Kind:       facility.ConflictBlackout,
			Booking: facility.Booking{
				ID:         excludeID,
				FacilityID: facilityID,
				StartTime:  iv.Start,
				EndTime:    iv.End,
			},
			Blackout:     &boCopy,
			OverlapStart: overlap.Start,
			OverlapEnd:   overlap.End,
		})
	}
	sortConflicts(out)
	return out
}

// ConflictsInvolving filters conflicts to those touching any of the given booking ids.
func ConflictsInvolving(conflicts []facility.Conflict, ids ...string) []facility.Conflict {
	want := map[string]struct{}{}
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []facility.Conflict
	for _, c := range conflicts {
		_, a := want[c.Booking.ID]
		_, b := want[c.PartnerID()]
		if a || b {
			out = append(out, c)
		}
	}
	return out
}

func bookingConflict(id string, b facility.Booking, other *facility.Booking, overlap Interval) facility.Conflict {
	return facility.Conflict{
		ID:                 id,
		FacilityID:         b.FacilityID,
		Kind:               facility.ConflictBookingOverlap,
		Booking:            b,
		ConflictingBooking: other,
		OverlapStart:       overlap.Start,
		OverlapEnd:         overlap.End,
	}
}

func sortBookings(list []facility.Booking) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].StartTime.Equal(list[j].StartTime) {
			return list[i].StartTime.Before(list[j].StartTime)
		}
		return list[i].ID < list[j].ID
	})
}

func sortConflicts(list []facility.Conflict) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.Booking.StartTime.Equal(b.Booking.StartTime) {
			return a.Booking.StartTime.Before(b.Booking.StartTime)
		}
		if a.Booking.ID != b.Booking.ID {
			return a.Booking.ID < b.Booking.ID
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.PartnerID() < b.PartnerID()
	})
}
