package availability

import (
	"strings"
	"time"
)

// Calendar grid: hourly slots from 06:00 until 23:00 local time.
const (
	FirstHour = 6
	EndHour   = 23
	SlotWidth = time.Hour

	SlotsPerDay = EndHour - FirstHour
)

type ViewMode string

const (
	ViewDay  ViewMode = "day"
	ViewWeek ViewMode = "week"
)

// ParseViewMode maps anything other than "week" to day view.
func ParseViewMode(s string) ViewMode {
	if strings.EqualFold(strings.TrimSpace(s), string(ViewWeek)) {
		return ViewWeek
	}
	return ViewDay
}

// Slot is one cell of the calendar grid.
type Slot struct {
	Interval
}

// Days returns local midnights for the calendar days shown: the selected day,
// or the Sunday-to-Saturday week containing it.
func Days(selected time.Time, mode ViewMode, loc *time.Location) []time.Time {
	if loc == nil {
		loc = time.UTC
	}
	d := selected.In(loc)
	if mode != ViewWeek {
		return []time.Time{time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)}
	}
	first := d.Day() - int(d.Weekday())
	days := make([]time.Time, 0, 7)
	for i := 0; i < 7; i++ {
		days = append(days, time.Date(d.Year(), d.Month(), first+i, 0, 0, 0, 0, loc))
	}
	return days
}

// Range is the full span of the displayed days, midnight to midnight. It is
// the window to fetch bookings for.
func Range(selected time.Time, mode ViewMode, loc *time.Location) Interval {
	days := Days(selected, mode, loc)
	last := days[len(days)-1]
	return Interval{
		Start: days[0],
		End:   time.Date(last.Year(), last.Month(), last.Day()+1, 0, 0, 0, 0, last.Location()),
	}
}

// GenerateSlots returns the hourly slots for every displayed day in
// chronological order.
func GenerateSlots(selected time.Time, mode ViewMode, loc *time.Location) []Slot {
	days := Days(selected, mode, loc)
	slots := make([]Slot, 0, len(days)*SlotsPerDay)
	for _, day := range days {
		for h := FirstHour; h < EndHour; h++ {
			start := time.Date(day.Year(), day.Month(), day.Day(), h, 0, 0, 0, day.Location())
			slots = append(slots, Slot{Interval{Start: start, End: start.Add(SlotWidth)}})
		}
	}
	return slots
}

type Day struct {
	Date  time.Time
	Slots []TimeSlot
}

// GroupByDay splits projected slots into calendar days, keeping order.
func GroupByDay(slots []TimeSlot) []Day {
	var days []Day
	for _, s := range slots {
		y, m, d := s.Start.Date()
		if n := len(days); n > 0 {
			py, pm, pd := days[n-1].Date.Date()
			if py == y && pm == m && pd == d {
				days[n-1].Slots = append(days[n-1].Slots, s)
				continue
			}
		}
		days = append(days, Day{
			Date:  time.Date(y, m, d, 0, 0, 0, 0, s.Start.Location()),
			Slots: []TimeSlot{s},
		})
	}
	return days
}
