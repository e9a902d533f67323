package facilities

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/teampro-ai/teampro/libs/auth"
	"github.com/teampro-ai/teampro/libs/availability"
	"github.com/teampro-ai/teampro/libs/facility"
	"github.com/teampro-ai/teampro/services/facility-service/internal/payments"
	"github.com/teampro-ai/teampro/services/facility-service/internal/storage"
)

// Cancellation reasons carried on booking events.
const (
	ReasonRequested      = "requested"
	ReasonPaymentExpired = "payment_expired"
	ReasonPaymentTimeout = "payment_timeout"
)

// BookingPatch changes only the fields that are set. Moving a booking runs
// the same overlap check as creating one, ignoring the booking itself.
type BookingPatch struct {
	Title           *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description     *string    `json:"description" validate:"omitempty,max=2000"`
	StartTime       *time.Time `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	AttendeeCount   *int       `json:"attendee_count" validate:"omitempty,gte=0"`
	EquipmentNeeded *[]string  `json:"equipment_needed"`
	AllowConflict   bool       `json:"allow_conflict,omitempty"`
}

func (s *Service) ListBookings(ctx context.Context, facilityID string, from, to time.Time) ([]facility.Booking, error) {
	if !from.IsZero() && !to.IsZero() && !to.After(from) {
		return nil, invalid("to must be after from")
	}
	if _, err := s.store.GetFacility(ctx, facilityID); err != nil {
		return nil, err
	}
	return s.store.ListBookings(ctx, facilityID, from, to)
}

func (s *Service) GetBooking(ctx context.Context, actor Actor, id string) (facility.Booking, error) {
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return facility.Booking{}, err
	}
	if !actor.owns(b) && !actor.IsAdmin() {
		// Hide other people's bookings entirely.
		return facility.Booking{}, storage.ErrNotFound
	}
	return b, nil
}

func (s *Service) MyBookings(ctx context.Context, actor Actor, limit int) ([]facility.Booking, error) {
	if actor.UserID == "" {
		return nil, ErrUnauthenticated
	}
	return s.store.ListBookingsByRequester(ctx, actor.UserID, limit)
}

// CheckConflicts reports what a booking over the requested interval would
// collide with. It is advisory; CreateBooking repeats the check under lock.
func (s *Service) CheckConflicts(ctx context.Context, facilityID string, req facility.CheckConflictsRequest) ([]facility.Conflict, error) {
	iv := availability.Interval{Start: req.StartTime.UTC(), End: req.EndTime.UTC()}
	if iv.Empty() {
		return nil, invalid("end_time must be after start_time")
	}
	if _, err := s.store.GetFacility(ctx, facilityID); err != nil {
		return nil, err
	}
	bookings, err := s.store.ListBookings(ctx, facilityID, iv.Start, iv.End)
	if err != nil {
		return nil, err
	}
	blackouts, err := s.store.ListBlackouts(ctx, facilityID, iv.Start, iv.End)
	if err != nil {
		return nil, err
	}
	return availability.CheckInterval(facilityID, iv, bookings, blackouts, req.ExcludeBookingID), nil
}

// CreateBooking books a facility for the actor. The overlap check runs with
// the facility row locked, so two requests for the same slot cannot both
// succeed. With an idempotency key the first completed response is replayed
// and replayed is true.
func (s *Service) CreateBooking(ctx context.Context, actor Actor, req facility.CreateBookingRequest, idempotencyKey string) (res facility.CreateBookingResult, replayed bool, err error) {
	if actor.UserID == "" {
		return res, false, ErrUnauthenticated
	}
	if !auth.CanBook(actor.Role) {
		return res, false, ErrForbidden
	}
	if req.AllowConflict && !actor.IsAdmin() {
		return res, false, ErrForbidden
	}

	b := facility.Booking{
		ID:              uuid.NewString(),
		FacilityID:      strings.TrimSpace(req.FacilityID),
		RequesterID:     actor.UserID,
		RequesterEmail:  actor.Email,
		Title:           strings.TrimSpace(req.Title),
		Description:     strings.TrimSpace(req.Description),
		StartTime:       req.StartTime.UTC(),
		EndTime:         req.EndTime.UTC(),
		AttendeeCount:   req.AttendeeCount,
		EquipmentNeeded: facility.NormalizeList(req.EquipmentNeeded),
		Status:          facility.StatusConfirmed,
	}
	if err := s.validateBooking(b); err != nil {
		return res, false, err
	}
	iv := availability.BookingInterval(b)

	err = s.store.InTx(ctx, func(q Queries) error {
		if idempotencyKey != "" {
			rec, err := q.LockIdempotencyKey(ctx, actor.UserID, idempotencyKey)
			if err != nil {
				return err
			}
			if rec.Completed() {
				replayed = true
				return json.Unmarshal(rec.ResponsePayload, &res)
			}
		}

		f, err := q.LockFacility(ctx, b.FacilityID)
		if err != nil {
			return err
		}
		if !f.IsActive {
			return ErrInactive
		}
		if f.Capacity > 0 && b.AttendeeCount > f.Capacity {
			return invalid("attendee_count exceeds facility capacity of %d", f.Capacity)
		}

		bookings, err := q.ListBookings(ctx, f.ID, iv.Start, iv.End)
		if err != nil {
			return err
		}
		blackouts, err := q.ListBlackouts(ctx, f.ID, iv.Start, iv.End)
		if err != nil {
			return err
		}
		if conflicts := availability.CheckInterval(f.ID, iv, bookings, blackouts, ""); len(conflicts) > 0 && !req.AllowConflict {
			return rejectConflicts(conflicts)
		}

		paid := s.checkout != nil && f.HourlyRateCents > 0
		if paid {
			b.Status = facility.StatusPending
		}
		if err := q.InsertBooking(ctx, &b); err != nil {
			return err
		}
		res.Booking = b

		if paid {
			url, err := s.startCheckout(ctx, q, f, b)
			if err != nil {
				return err
			}
			res.CheckoutURL = url
		}

		if err := s.emitBooking(ctx, q, facility.TopicBookingCreated, b, actor.UserID, ""); err != nil {
			return err
		}

		all := availability.DetectConflicts(append(bookings, b), blackouts)
		res.Conflicts = availability.ConflictsInvolving(all, b.ID)
		if err := s.emitConflicts(ctx, q, f.ID, facility.CauseAdminOverride, res.Conflicts); err != nil {
			return err
		}

		if idempotencyKey != "" {
			body, err := json.Marshal(res)
			if err != nil {
				return err
			}
			if err := q.FinalizeIdempotency(ctx, actor.UserID, idempotencyKey, b.ID, http.StatusCreated, body); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return facility.CreateBookingResult{}, false, err
	}
	if !replayed {
		s.logger.Info("booking created",
			"booking_id", res.Booking.ID,
			"facility_id", res.Booking.FacilityID,
			"status", res.Booking.Status,
			"conflicts", len(res.Conflicts),
		)
	}
	return res, replayed, nil
}

func (s *Service) startCheckout(ctx context.Context, q Queries, f facility.Facility, b facility.Booking) (string, error) {
	amount := payments.Amount(f.HourlyRateCents, b.EndTime.Sub(b.StartTime))
	sess, err := s.checkout.CreateSession(ctx, payments.CheckoutParams{
		BookingID:      b.ID,
		FacilityName:   f.Name,
		Description:    b.Title,
		CustomerEmail:  b.RequesterEmail,
		Currency:       f.Currency,
		AmountCents:    amount,
		ExpiresAt:      s.now().Add(s.pendingTTL),
		IdempotencyKey: "booking-" + b.ID,
	})
	if err != nil {
		return "", err
	}
	p := facility.Payment{
		ID:                uuid.NewString(),
		BookingID:         b.ID,
		UserID:            b.RequesterID,
		AmountCents:       amount,
		Currency:          f.Currency,
		Status:            facility.PaymentPending,
		Provider:          payments.ProviderStripe,
		ProviderSessionID: sess.ID,
	}
	if err := q.InsertPayment(ctx, &p); err != nil {
		return "", err
	}
	return sess.URL, nil
}

// UpdateBooking edits a booking owned by the actor, or any booking for an
// administrator. The returned conflicts are non-empty only when an
// administrator forced an overlapping move.
func (s *Service) UpdateBooking(ctx context.Context, actor Actor, id string, p BookingPatch) (facility.Booking, []facility.Conflict, error) {
	if actor.UserID == "" {
		return facility.Booking{}, nil, ErrUnauthenticated
	}
	if p.AllowConflict && !actor.IsAdmin() {
		return facility.Booking{}, nil, ErrForbidden
	}
	current, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return facility.Booking{}, nil, err
	}

	var out facility.Booking
	var forced []facility.Conflict
	err = s.store.InTx(ctx, func(q Queries) error {
		f, err := q.LockFacility(ctx, current.FacilityID)
		if err != nil {
			return err
		}
		b, err := q.LockBooking(ctx, id)
		if err != nil {
			return err
		}
		if !actor.owns(b) && !actor.IsAdmin() {
			return ErrForbidden
		}
		if b.Status == facility.StatusCancelled {
			return ErrCancelled
		}

		moved := false
		if p.Title != nil {
			b.Title = strings.TrimSpace(*p.Title)
		}
		if p.Description != nil {
			b.Description = strings.TrimSpace(*p.Description)
		}
		if p.StartTime != nil && !p.StartTime.Equal(b.StartTime) {
			b.StartTime = p.StartTime.UTC()
			moved = true
		}
		if p.EndTime != nil && !p.EndTime.Equal(b.EndTime) {
			b.EndTime = p.EndTime.UTC()
			moved = true
		}
		if p.AttendeeCount != nil {
			b.AttendeeCount = *p.AttendeeCount
		}
		if p.EquipmentNeeded != nil {
			b.EquipmentNeeded = facility.NormalizeList(*p.EquipmentNeeded)
		}
		if err := s.validateBooking(b); err != nil {
			return err
		}
		if f.Capacity > 0 && b.AttendeeCount > f.Capacity {
			return invalid("attendee_count exceeds facility capacity of %d", f.Capacity)
		}

		if moved {
			iv := availability.BookingInterval(b)
			bookings, err := q.ListBookings(ctx, f.ID, iv.Start, iv.End)
			if err != nil {
				return err
			}
			blackouts, err := q.ListBlackouts(ctx, f.ID, iv.Start, iv.End)
			if err != nil {
				return err
			}
			conflicts := availability.CheckInterval(f.ID, iv, bookings, blackouts, b.ID)
			if len(conflicts) > 0 && !p.AllowConflict {
				return rejectConflicts(conflicts)
			}
			others := bookings[:0:0]
			for _, o := range bookings {
				if o.ID != b.ID {
					others = append(others, o)
				}
			}
			forced = availability.ConflictsInvolving(availability.DetectConflicts(append(others, b), blackouts), b.ID)
		}

		if err := q.UpdateBooking(ctx, &b); err != nil {
			return err
		}
		out = b
		return s.emitConflicts(ctx, q, f.ID, facility.CauseRescheduled, forced)
	})
	if err != nil {
		return facility.Booking{}, nil, err
	}
	return out, forced, nil
}

// CancelBooking is idempotent: cancelling a cancelled booking returns it
// unchanged.
func (s *Service) CancelBooking(ctx context.Context, actor Actor, id, reason string) (facility.Booking, error) {
	if actor.UserID == "" {
		return facility.Booking{}, ErrUnauthenticated
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = ReasonRequested
	}
	var out facility.Booking
	err := s.store.InTx(ctx, func(q Queries) error {
		b, err := q.LockBooking(ctx, id)
		if err != nil {
			return err
		}
		if !actor.owns(b) && !actor.IsAdmin() {
			return ErrForbidden
		}
		if b.Status == facility.StatusCancelled {
			out = b
			return nil
		}
		if err := s.cancel(ctx, q, &b, actor.UserID, reason); err != nil {
			return err
		}
		out = b
		return nil
	})
	return out, err
}

// cancel marks b cancelled, fails its open payment and announces it.
func (s *Service) cancel(ctx context.Context, q Queries, b *facility.Booking, actorID, reason string) error {
	wasPending := b.Status == facility.StatusPending
	b.Status = facility.StatusCancelled
	if err := q.UpdateBooking(ctx, b); err != nil {
		return err
	}
	if wasPending {
		p, err := q.PendingPaymentForBooking(ctx, b.ID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
		case err != nil:
			return err
		default:
			if err := q.SetPaymentStatus(ctx, p.ID, facility.PaymentFailed, nil); err != nil {
				return err
			}
		}
	}
	s.logger.Info("booking cancelled", "booking_id", b.ID, "facility_id", b.FacilityID, "reason", reason)
	return s.emitBooking(ctx, q, facility.TopicBookingCancelled, *b, actorID, reason)
}

func (s *Service) validateBooking(b facility.Booking) error {
	if b.FacilityID == "" {
		return invalid("facility_id is required")
	}
	if b.Title == "" {
		return invalid("title is required")
	}
	if b.StartTime.IsZero() || b.EndTime.IsZero() {
		return invalid("start_time and end_time are required")
	}
	if !b.EndTime.After(b.StartTime) {
		return invalid("end_time must be after start_time")
	}
	if !b.StartTime.After(s.now()) {
		return invalid("start_time must be in the future")
	}
	if b.AttendeeCount < 0 {
		return invalid("attendee_count must be at least 0")
	}
	return nil
}
