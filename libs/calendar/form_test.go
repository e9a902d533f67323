package calendar

import (
	"errors"
	"testing"
)

func TestParseAttendeeCount(t *testing.T) {
	cases := map[string]int{"": 0, "12": 12, " 7 ": 7, "-1": 0, "abc": 0, "3.5": 0}
	for in, want := range cases {
		if got := ParseAttendeeCount(in); got != want {
			t.Fatalf("ParseAttendeeCount(%q): expected %d, got %d", in, want, got)
		}
	}
}

func TestParseEquipment(t *testing.T) {
	got := ParseEquipment(" nets , , balls,")
	if len(got) != 2 || got[0] != "nets" || got[1] != "balls" {
		t.Fatalf("unexpected equipment %v", got)
	}
	if got := ParseEquipment(""); len(got) != 0 {
		t.Fatalf("expected empty list, got %v", got)
	}
}

func TestSubmitErrorMessage(t *testing.T) {
	if got := SubmitErrorMessage(userErr{msg: "facility is unavailable during the requested time"}); got != "facility is unavailable during the requested time" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := SubmitErrorMessage(userErr{}); got != GenericSubmitError {
		t.Fatalf("expected generic message for empty user message, got %q", got)
	}
	if got := SubmitErrorMessage(errors.New("boom")); got != GenericSubmitError {
		t.Fatalf("expected generic message, got %q", got)
	}
}
