package facility

import "testing"

func TestConflictEquivalent_Symmetric(t *testing.T) {
	a := Booking{ID: "a", FacilityID: "f"}
	b := Booking{ID: "b", FacilityID: "f"}
	ab := Conflict{ID: "p", FacilityID: "f", Kind: ConflictBookingOverlap, Booking: a, ConflictingBooking: &b}
	ba := Conflict{ID: "p", FacilityID: "f", Kind: ConflictBookingOverlap, Booking: b, ConflictingBooking: &a}
	if !ab.Equivalent(ba) || !ba.Equivalent(ab) {
		t.Fatalf("expected both directions to be equivalent")
	}

	c := Booking{ID: "c", FacilityID: "f"}
	ac := Conflict{Kind: ConflictBookingOverlap, FacilityID: "f", Booking: a, ConflictingBooking: &c}
	if ab.Equivalent(ac) {
		t.Fatalf("different partners must not be equivalent")
	}
}

func TestStatusActive(t *testing.T) {
	if !StatusPending.Active() || !StatusConfirmed.Active() || StatusCancelled.Active() {
		t.Fatalf("unexpected active states")
	}
}

func TestNormalizeList(t *testing.T) {
	got := NormalizeList([]string{" balls ", "", "nets", "balls"})
	if len(got) != 2 || got[0] != "balls" || got[1] != "nets" {
		t.Fatalf("unexpected list %v", got)
	}
}

func TestFacilityLocation_Fallback(t *testing.T) {
	if (Facility{Timezone: "Not/AZone"}).Location().String() != "UTC" {
		t.Fatalf("expected UTC fallback")
	}
}
