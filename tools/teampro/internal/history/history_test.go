package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/teampro-ai/teampro/libs/facility"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "bookings.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func entry(id, facilityID string, start time.Time) Entry {
	return Entry{
		BookingID:  id,
		FacilityID: facilityID,
		Title:      "Practice " + id,
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
		Status:     facility.StatusConfirmed,
		BookedAt:   start.Add(-24 * time.Hour),
	}
}

func TestRecordAndList(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 11, 15, 0, 0, 0, time.UTC)

	for _, e := range []Entry{
		entry("b1", "court", base),
		entry("b2", "court", base.Add(48*time.Hour)),
		entry("b3", "pool", base.Add(24*time.Hour)),
	} {
		if err := s.Record(ctx, e); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	all, err := s.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].BookingID != "b2" || all[2].BookingID != "b1" {
		t.Fatalf("expected newest first, got %+v", all)
	}
	if !all[2].StartTime.Equal(base) {
		t.Fatalf("expected start %v, got %v", base, all[2].StartTime)
	}

	court, err := s.List(ctx, Filter{FacilityID: "court", Upcoming: true, Now: base.Add(2 * time.Hour)})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(court) != 1 || court[0].BookingID != "b2" {
		t.Fatalf("expected only the upcoming court booking, got %+v", court)
	}

	limited, err := s.List(ctx, Filter{Limit: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(limited))
	}
}

func TestRecord_ReplacesStatus(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	e := entry("b1", "court", time.Date(2025, 3, 11, 15, 0, 0, 0, time.UTC))
	e.Status = facility.StatusPending
	e.CheckoutURL = "https://checkout.stripe.com/c/pay/cs_b1"
	if err := s.Record(ctx, e); err != nil {
		t.Fatalf("record: %v", err)
	}
	e.Status = facility.StatusConfirmed
	if err := s.Record(ctx, e); err != nil {
		t.Fatalf("record: %v", err)
	}

	got, err := s.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Status != facility.StatusConfirmed {
		t.Fatalf("expected one confirmed entry, got %+v", got)
	}
}

func TestSetStatus(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	if err := s.Record(ctx, entry("b1", "court", time.Now())); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.SetStatus(ctx, "b1", facility.StatusCancelled); err != nil {
		t.Fatalf("set status: %v", err)
	}
	got, _ := s.List(ctx, Filter{})
	if got[0].Status != facility.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", got[0].Status)
	}
	if err := s.SetStatus(ctx, "missing", facility.StatusCancelled); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
