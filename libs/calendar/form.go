package calendar

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/teampro-ai/teampro/libs/availability"
	"github.com/teampro-ai/teampro/libs/facility"
)

var ErrTitleRequired = errors.New("title is required")

// Form is the raw booking form as typed by the user.
type Form struct {
	Title           string
	Description     string
	AttendeeCount   string
	EquipmentNeeded string // comma separated
}

func (f Form) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return ErrTitleRequired
	}
	return nil
}

// ParseAttendeeCount coerces the input to a non-negative integer; anything
// unparsable counts as zero.
func ParseAttendeeCount(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func ParseEquipment(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// BuildRequest validates the form and turns it into a create request for slot.
func BuildRequest(facilityID string, slot availability.Slot, f Form) (facility.CreateBookingRequest, error) {
	if err := f.Validate(); err != nil {
		return facility.CreateBookingRequest{}, err
	}
	return facility.CreateBookingRequest{
		FacilityID:      facilityID,
		Title:           strings.TrimSpace(f.Title),
		Description:     strings.TrimSpace(f.Description),
		StartTime:       slot.Start.UTC().Truncate(time.Second),
		EndTime:         slot.End.UTC().Truncate(time.Second),
		AttendeeCount:   ParseAttendeeCount(f.AttendeeCount),
		EquipmentNeeded: ParseEquipment(f.EquipmentNeeded),
	}, nil
}
