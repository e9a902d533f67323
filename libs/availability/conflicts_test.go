package availability

import (
	"reflect"
	"testing"

	"github.com/teampro-ai/teampro/libs/facility"
)

func TestDetectConflicts_SymmetricPair(t *testing.T) {
	a := booking("A", at(15, 0), at(16, 30))
	b := booking("B", at(16, 0), at(17, 0))
	c := booking("C", at(17, 0), at(18, 0)) // touches B only at the boundary

	got := DetectConflicts([]facility.Booking{c, b, a}, nil)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries (one per side), got %d", len(got))
	}
	if got[0].Booking.ID != "A" || got[1].Booking.ID != "B" {
		t.Fatalf("expected entries ordered by booking start, got %s,%s", got[0].Booking.ID, got[1].Booking.ID)
	}
	if !got[0].Equivalent(got[1]) || got[0].ID != got[1].ID {
		t.Fatalf("expected the two entries to be equivalent")
	}
	if !got[0].OverlapStart.Equal(at(16, 0)) || !got[0].OverlapEnd.Equal(at(16, 30)) {
		t.Fatalf("unexpected overlap window %s-%s", got[0].OverlapStart, got[0].OverlapEnd)
	}
}

func TestDetectConflicts_IgnoresCancelledAndOtherFacilities(t *testing.T) {
	a := booking("A", at(15, 0), at(16, 0))
	b := booking("B", at(15, 0), at(16, 0))
	b.Status = facility.StatusCancelled
	other := booking("O", at(15, 0), at(16, 0))
	other.FacilityID = "f2"

	if got := DetectConflicts([]facility.Booking{a, b, other}, nil); len(got) != 0 {
		t.Fatalf("expected no conflicts, got %d", len(got))
	}
}

func TestDetectConflicts_Blackout(t *testing.T) {
	a := booking("A", at(15, 0), at(16, 0))
	blackout := facility.Blackout{ID: "bo1", FacilityID: "f1", StartTime: at(15, 30), EndTime: at(20, 0)}
	got := DetectConflicts([]facility.Booking{a}, []facility.Blackout{blackout})
	if len(got) != 1 {
		t.Fatalf("expected 1 blackout conflict, got %d", len(got))
	}
	if got[0].Kind != facility.ConflictBlackout || got[0].Blackout == nil || got[0].PartnerID() != "bo1" {
		t.Fatalf("unexpected conflict %+v", got[0])
	}
}

func TestDetectConflicts_Deterministic(t *testing.T) {
	list := []facility.Booking{
		booking("A", at(9, 0), at(12, 0)),
		booking("B", at(10, 0), at(11, 0)),
		booking("C", at(10, 30), at(13, 0)),
	}
	first := DetectConflicts(list, nil)
	reversed := []facility.Booking{list[2], list[1], list[0]}
	second := DetectConflicts(reversed, nil)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected input order not to matter")
	}
	// A-B, A-C, B-C, each reported from both sides.
	if len(first) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(first))
	}
}

func TestPairID_Symmetric(t *testing.T) {
	if PairID(facility.ConflictBookingOverlap, "a", "b") != PairID(facility.ConflictBookingOverlap, "b", "a") {
		t.Fatalf("pair id must not depend on order")
	}
	if PairID(facility.ConflictBookingOverlap, "a", "b") == PairID(facility.ConflictBlackout, "a", "b") {
		t.Fatalf("pair id must depend on kind")
	}
}

func TestCheckInterval(t *testing.T) {
	existing := []facility.Booking{
		booking("A", at(15, 0), at(16, 0)),
		booking("B", at(17, 0), at(18, 0)),
	}
	blackouts := []facility.Blackout{{ID: "bo", FacilityID: "f1", StartTime: at(20, 0), EndTime: at(21, 0)}}

	got := CheckInterval("f1", Interval{Start: at(15, 30), End: at(17, 0)}, existing, blackouts, "")
	if len(got) != 1 || got[0].Booking.ID != "A" {
		t.Fatalf("expected only A to conflict, got %+v", got)
	}

	got = CheckInterval("f1", Interval{Start: at(15, 0), End: at(16, 0)}, existing, blackouts, "A")
	if len(got) != 0 {
		t.Fatalf("expected rescheduling A onto itself to be conflict free, got %d", len(got))
	}

	got = CheckInterval("f1", Interval{Start: at(19, 0), End: at(20, 30)}, existing, blackouts, "")
	if len(got) != 1 || got[0].Kind != facility.ConflictBlackout {
		t.Fatalf("expected blackout conflict, got %+v", got)
	}

	if got := CheckInterval("f1", Interval{Start: at(15, 0), End: at(15, 0)}, existing, nil, ""); got != nil {
		t.Fatalf("empty interval must not conflict")
	}
}

func TestConflictsInvolving(t *testing.T) {
	all := DetectConflicts([]facility.Booking{
		booking("A", at(9, 0), at(10, 0)),
		booking("B", at(9, 30), at(10, 30)),
		booking("C", at(12, 0), at(13, 0)),
		booking("D", at(12, 30), at(13, 30)),
	}, nil)
	got := ConflictsInvolving(all, "A")
	if len(got) != 2 {
		t.Fatalf("expected both sides of the A-B pair, got %d", len(got))
	}
}

func TestCurrentStatus(t *testing.T) {
	bookings := []facility.Booking{
		booking("A", at(9, 0), at(10, 0)),
		booking("B", at(10, 0), at(11, 0)),
		booking("C", at(14, 0), at(15, 0)),
	}

	st := CurrentStatus("f1", at(9, 30), bookings, nil)
	if st.IsCurrentlyAvailable || st.CurrentBooking == nil || st.CurrentBooking.ID != "A" {
		t.Fatalf("expected A in progress, got %+v", st)
	}
	if st.AvailableFrom == nil || !st.AvailableFrom.Equal(at(11, 0)) {
		t.Fatalf("expected free from 11:00 after back-to-back bookings, got %v", st.AvailableFrom)
	}
	if st.NextBooking == nil || st.NextBooking.ID != "B" {
		t.Fatalf("expected next booking B, got %+v", st.NextBooking)
	}

	st = CurrentStatus("f1", at(12, 0), bookings, nil)
	if !st.IsCurrentlyAvailable || st.AvailableUntil == nil || !st.AvailableUntil.Equal(at(14, 0)) {
		t.Fatalf("expected available until 14:00, got %+v", st)
	}

	conflicts := DetectConflicts([]facility.Booking{
		booking("X", at(16, 0), at(17, 0)),
		booking("Y", at(16, 30), at(17, 30)),
	}, nil)
	st = CurrentStatus("f1", at(12, 0), bookings, conflicts)
	if st.ConflictsDetected != 1 {
		t.Fatalf("expected one distinct conflict, got %d", st.ConflictsDetected)
	}
	if !st.LastUpdated.Equal(at(12, 0)) {
		t.Fatalf("expected last updated to be now")
	}
}
