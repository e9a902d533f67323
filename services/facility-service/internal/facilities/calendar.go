package facilities

import (
	"context"
	"time"

	"github.com/teampro-ai/teampro/libs/availability"
	"github.com/teampro-ai/teampro/libs/facility"
)

// statusHorizon bounds how far ahead the real-time status looks for the next
// booking.
const statusHorizon = 14 * 24 * time.Hour

// Conflicts detects the conflicts among the facility's bookings and
// blackouts that overlap [from, to). Zero bounds are open-ended.
func (s *Service) Conflicts(ctx context.Context, facilityID string, from, to time.Time) ([]facility.Conflict, error) {
	if _, err := s.store.GetFacility(ctx, facilityID); err != nil {
		return nil, err
	}
	bookings, blackouts, err := s.conflictInputs(ctx, facilityID, from, to)
	if err != nil {
		return nil, err
	}
	return availability.DetectConflicts(bookings, blackouts), nil
}

// conflictInputs loads the bookings overlapping the window, widened to cover
// every booking they could overlap, plus the matching blackouts.
func (s *Service) conflictInputs(ctx context.Context, facilityID string, from, to time.Time) ([]facility.Booking, []facility.Blackout, error) {
	bookings, err := s.store.ListBookings(ctx, facilityID, from, to)
	if err != nil {
		return nil, nil, err
	}
	lo, hi := from, to
	for _, b := range bookings {
		if !lo.IsZero() && b.StartTime.Before(lo) {
			lo = b.StartTime
		}
		if !hi.IsZero() && b.EndTime.After(hi) {
			hi = b.EndTime
		}
	}
	if !lo.Equal(from) || !hi.Equal(to) {
		if bookings, err = s.store.ListBookings(ctx, facilityID, lo, hi); err != nil {
			return nil, nil, err
		}
	}
	blackouts, err := s.store.ListBlackouts(ctx, facilityID, lo, hi)
	if err != nil {
		return nil, nil, err
	}
	return bookings, blackouts, nil
}

// localDay reads date's calendar day in loc, defaulting to today there.
func (s *Service) localDay(date time.Time, loc *time.Location) time.Time {
	if date.IsZero() {
		date = s.now().In(loc)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, loc)
}

// Calendar projects the facility's bookings and conflicts onto the slot grid
// of the day or week containing date, in the facility's time zone. Only the
// year, month and day of date are used; a zero date means today.
func (s *Service) Calendar(ctx context.Context, facilityID string, date time.Time, mode availability.ViewMode) ([]availability.Day, error) {
	f, err := s.store.GetFacility(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	loc := f.Location()
	date = s.localDay(date, loc)
	r := availability.Range(date, mode, loc)
	bookings, blackouts, err := s.conflictInputs(ctx, facilityID, r.Start, r.End)
	if err != nil {
		return nil, err
	}
	conflicts := availability.DetectConflicts(bookings, blackouts)
	slots := availability.GenerateSlots(date, mode, loc)
	return availability.GroupByDay(availability.Project(slots, bookings, conflicts, s.now())), nil
}

func (s *Service) RealTimeStatus(ctx context.Context, facilityID string) (facility.RealTimeStatus, error) {
	if _, err := s.store.GetFacility(ctx, facilityID); err != nil {
		return facility.RealTimeStatus{}, err
	}
	now := s.now().UTC()
	bookings, blackouts, err := s.conflictInputs(ctx, facilityID, now, now.Add(statusHorizon))
	if err != nil {
		return facility.RealTimeStatus{}, err
	}
	conflicts := availability.DetectConflicts(bookings, blackouts)
	return availability.CurrentStatus(facilityID, now, bookings, conflicts), nil
}

// FreeSlots lists start/end pairs of the given duration on date's bookable
// hours that overlap neither a booking nor a blackout.
func (s *Service) FreeSlots(ctx context.Context, facilityID string, date time.Time, duration, step time.Duration) ([]availability.Interval, error) {
	if duration <= 0 || duration > 8*time.Hour {
		return nil, invalid("duration must be between 1 minute and 8 hours")
	}
	if step <= 0 || step > 2*time.Hour {
		return nil, invalid("step must be between 1 minute and 2 hours")
	}
	f, err := s.store.GetFacility(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	loc := f.Location()
	d := s.localDay(date, loc)
	window := availability.Interval{
		Start: time.Date(d.Year(), d.Month(), d.Day(), availability.FirstHour, 0, 0, 0, loc),
		End:   time.Date(d.Year(), d.Month(), d.Day(), availability.EndHour, 0, 0, 0, loc),
	}

	bookings, err := s.store.ListBookings(ctx, facilityID, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	blackouts, err := s.store.ListBlackouts(ctx, facilityID, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	busy := make([]availability.Interval, 0, len(bookings)+len(blackouts))
	for _, b := range bookings {
		busy = append(busy, availability.BookingInterval(b))
	}
	for _, bo := range blackouts {
		busy = append(busy, availability.Interval{Start: bo.StartTime, End: bo.EndTime})
	}

	starts := availability.FreeStarts(window, duration, step, busy, s.now())
	out := make([]availability.Interval, 0, len(starts))
	for _, t := range starts {
		out = append(out, availability.Interval{Start: t, End: t.Add(duration)})
	}
	return out, nil
}
