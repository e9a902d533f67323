package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/teampro-ai/teampro/libs/facility"
)

// parseDateInput accepts today, tomorrow or YYYY-MM-DD and returns local
// midnight in loc. Empty input means today.
func parseDateInput(input string, loc *time.Location, now time.Time) (time.Time, error) {
	now = now.In(loc)
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "", "today":
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc), nil
	case "tomorrow":
		return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, loc), nil
	}
	parsed, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(input), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", input)
	}
	return parsed, nil
}

// parseClock turns HH:MM into an offset from midnight.
func parseClock(input string) (time.Duration, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(input))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q (expected HH:MM)", input)
	}
	return time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute, nil
}

// at returns day at the given clock offset, resolved in day's location.
func at(day time.Time, offset time.Duration) time.Time {
	h := int(offset / time.Hour)
	m := int((offset % time.Hour) / time.Minute)
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location())
}

func formatSpan(start, end time.Time, loc *time.Location) string {
	start, end = start.In(loc), end.In(loc)
	if start.Format(time.DateOnly) == end.Format(time.DateOnly) {
		return fmt.Sprintf("%s %s-%s", start.Format("Mon 2006-01-02"), start.Format("15:04"), end.Format("15:04"))
	}
	return fmt.Sprintf("%s - %s", start.Format("Mon 2006-01-02 15:04"), end.Format("Mon 2006-01-02 15:04"))
}

func describeConflict(c facility.Conflict, loc *time.Location) string {
	overlap := formatSpan(c.OverlapStart, c.OverlapEnd, loc)
	switch {
	case c.ConflictingBooking != nil:
		return fmt.Sprintf("%q overlaps %q (%s)", c.Booking.Title, c.ConflictingBooking.Title, overlap)
	case c.Blackout != nil:
		reason := c.Blackout.Reason
		if reason == "" {
			reason = "blackout"
		}
		return fmt.Sprintf("%q overlaps blackout: %s (%s)", c.Booking.Title, reason, overlap)
	default:
		return fmt.Sprintf("%q conflict (%s)", c.Booking.Title, overlap)
	}
}
