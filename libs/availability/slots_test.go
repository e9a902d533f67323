package availability

import (
	"reflect"
	"testing"
	"time"
)

func TestGenerateSlots_Day(t *testing.T) {
	selected := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)
	slots := GenerateSlots(selected, ViewDay, time.UTC)
	if len(slots) != 17 {
		t.Fatalf("expected 17 slots, got %d", len(slots))
	}
	if got := slots[0].Start.Format(time.RFC3339); got != "2025-03-10T06:00:00Z" {
		t.Fatalf("expected first slot 06:00, got %s", got)
	}
	if got := slots[16].End.Format(time.RFC3339); got != "2025-03-10T23:00:00Z" {
		t.Fatalf("expected last slot to end at 23:00, got %s", got)
	}
}

func TestGenerateSlots_WeekContainingMonday(t *testing.T) {
	selected := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) // Monday
	slots := GenerateSlots(selected, ViewWeek, time.UTC)
	if len(slots) != 119 {
		t.Fatalf("expected 119 slots, got %d", len(slots))
	}
	if got := slots[0].Start.Format(time.RFC3339); got != "2025-03-09T06:00:00Z" {
		t.Fatalf("expected week to start Sunday 2025-03-09 06:00, got %s", got)
	}
	if got := slots[118].Start.Format(time.RFC3339); got != "2025-03-15T22:00:00Z" {
		t.Fatalf("expected last slot Saturday 22:00, got %s", got)
	}

	days := GroupByDay(Project(slots, nil, nil, selected))
	if len(days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(days))
	}
	for _, d := range days {
		if len(d.Slots) != SlotsPerDay {
			t.Fatalf("expected %d slots on %s, got %d", SlotsPerDay, d.Date.Format("2006-01-02"), len(d.Slots))
		}
	}
	if days[0].Date.Weekday() != time.Sunday || days[6].Date.Weekday() != time.Saturday {
		t.Fatalf("expected Sunday to Saturday, got %s..%s", days[0].Date.Weekday(), days[6].Date.Weekday())
	}
}

func TestGenerateSlots_HourAndWidthProperties(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// Week containing the spring-forward transition (2025-03-09).
	for _, s := range GenerateSlots(time.Date(2025, 3, 12, 0, 0, 0, 0, loc), ViewWeek, loc) {
		if s.End.Sub(s.Start) != time.Hour {
			t.Fatalf("slot %s is not one hour wide", s.Start)
		}
		if h := s.Start.Hour(); h < 6 || h > 22 {
			t.Fatalf("slot hour %d outside [6,22]", h)
		}
	}
}

func TestGenerateSlots_SelectedInOtherZone(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	// 20:00 UTC on the 9th is already the 10th at UTC+10.
	selected := time.Date(2025, 3, 9, 20, 0, 0, 0, time.UTC)
	slots := GenerateSlots(selected, ViewDay, loc)
	if got := slots[0].Start.Format("2006-01-02 15:04"); got != "2025-03-10 06:00" {
		t.Fatalf("expected local day to be used, got %s", got)
	}
}

func TestGenerateSlots_Idempotent(t *testing.T) {
	selected := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	a := GenerateSlots(selected, ViewWeek, time.UTC)
	b := GenerateSlots(selected, ViewWeek, time.UTC)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical output for identical input")
	}
}

func TestRange(t *testing.T) {
	r := Range(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), ViewWeek, time.UTC)
	if r.Start.Format("2006-01-02") != "2025-03-09" || r.End.Format("2006-01-02") != "2025-03-16" {
		t.Fatalf("unexpected range %s..%s", r.Start, r.End)
	}
}

func TestParseViewMode(t *testing.T) {
	if ParseViewMode("WEEK") != ViewWeek || ParseViewMode("month") != ViewDay || ParseViewMode("") != ViewDay {
		t.Fatalf("unexpected view mode parsing")
	}
}
