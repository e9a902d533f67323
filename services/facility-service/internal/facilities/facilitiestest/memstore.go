// Package facilitiestest provides an in-memory facilities.Store for tests.
package facilitiestest

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/teampro-ai/teampro/libs/facility"
	"github.com/teampro-ai/teampro/services/facility-service/internal/facilities"
	"github.com/teampro-ai/teampro/services/facility-service/internal/outbox"
	"github.com/teampro-ai/teampro/services/facility-service/internal/storage"
)

type state struct {
	facilities     map[string]facility.Facility
	bookings       map[string]facility.Booking
	blackouts      map[string]facility.Blackout
	payments       map[string]facility.Payment
	providerEvents map[string]struct{}
	idempotency    map[string]storage.IdempotencyRecord
	events         []outbox.Event
}

func (s *state) clone() *state {
	return &state{
		facilities:     maps.Clone(s.facilities),
		bookings:       maps.Clone(s.bookings),
		blackouts:      maps.Clone(s.blackouts),
		payments:       maps.Clone(s.payments),
		providerEvents: maps.Clone(s.providerEvents),
		idempotency:    maps.Clone(s.idempotency),
		events:         slices.Clone(s.events),
	}
}

// Store keeps everything in maps. InTx works on a copy and swaps it in on
// success, so a failed transaction leaves no trace.
type Store struct {
	mu  sync.Mutex
	cur *state
	Now func() time.Time
}

func NewStore() *Store {
	return &Store{
		cur: &state{
			facilities:     map[string]facility.Facility{},
			bookings:       map[string]facility.Booking{},
			blackouts:      map[string]facility.Blackout{},
			payments:       map[string]facility.Payment{},
			providerEvents: map[string]struct{}{},
			idempotency:    map[string]storage.IdempotencyRecord{},
		},
		Now: time.Now,
	}
}

var _ facilities.Store = (*Store)(nil)

func (s *Store) InTx(ctx context.Context, fn func(facilities.Queries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.cur.clone()
	if err := fn(&queries{st: next, now: s.Now}); err != nil {
		return err
	}
	s.cur = next
	return nil
}

func (s *Store) q() *queries {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &queries{st: s.cur.clone(), now: s.Now}
}

// AddFacility seeds a facility, filling in defaults.
func (s *Store) AddFacility(f facility.Facility) facility.Facility {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.Currency == "" {
		f.Currency = "usd"
	}
	if f.Amenities == nil {
		f.Amenities = []string{}
	}
	f.CreatedAt, f.UpdatedAt = s.Now(), s.Now()
	s.cur.facilities[f.ID] = f
	return f
}

// AddBooking seeds a booking as-is.
func (s *Store) AddBooking(b facility.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.Now()
	}
	s.cur.bookings[b.ID] = b
}

func (s *Store) Booking(id string) (facility.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.cur.bookings[id]
	return b, ok
}

func (s *Store) Payments() []facility.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Collect(maps.Values(s.cur.payments))
}

// Events returns the outbox events committed so far.
func (s *Store) Events() []outbox.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.cur.events)
}

// EventsOfType filters Events by topic.
func (s *Store) EventsOfType(topic string) []outbox.Event {
	var out []outbox.Event
	for _, e := range s.Events() {
		if e.EventType == topic {
			out = append(out, e)
		}
	}
	return out
}

// Read-only methods outside a transaction see a snapshot.

func (s *Store) ListFacilities(ctx context.Context, includeInactive bool) ([]facility.Facility, error) {
	return s.q().ListFacilities(ctx, includeInactive)
}
func (s *Store) GetFacility(ctx context.Context, id string) (facility.Facility, error) {
	return s.q().GetFacility(ctx, id)
}
func (s *Store) LockFacility(ctx context.Context, id string) (facility.Facility, error) {
	return s.q().LockFacility(ctx, id)
}
func (s *Store) InsertFacility(ctx context.Context, f *facility.Facility) error {
	return s.InTx(ctx, func(q facilities.Queries) error { return q.InsertFacility(ctx, f) })
}
func (s *Store) UpdateFacility(ctx context.Context, f *facility.Facility) error {
	return s.InTx(ctx, func(q facilities.Queries) error { return q.UpdateFacility(ctx, f) })
}
func (s *Store) ListBookings(ctx context.Context, facilityID string, from, to time.Time) ([]facility.Booking, error) {
	return s.q().ListBookings(ctx, facilityID, from, to)
}
func (s *Store) ListBookingsByRequester(ctx context.Context, requesterID string, limit int) ([]facility.Booking, error) {
	return s.q().ListBookingsByRequester(ctx, requesterID, limit)
}
func (s *Store) GetBooking(ctx context.Context, id string) (facility.Booking, error) {
	return s.q().GetBooking(ctx, id)
}
func (s *Store) LockBooking(ctx context.Context, id string) (facility.Booking, error) {
	return s.q().LockBooking(ctx, id)
}
func (s *Store) InsertBooking(ctx context.Context, b *facility.Booking) error {
	return s.InTx(ctx, func(q facilities.Queries) error { return q.InsertBooking(ctx, b) })
}
func (s *Store) UpdateBooking(ctx context.Context, b *facility.Booking) error {
	return s.InTx(ctx, func(q facilities.Queries) error { return q.UpdateBooking(ctx, b) })
}
func (s *Store) LockStalePending(ctx context.Context, cutoff time.Time, limit int) ([]facility.Booking, error) {
	return s.q().LockStalePending(ctx, cutoff, limit)
}
func (s *Store) ListBlackouts(ctx context.Context, facilityID string, from, to time.Time) ([]facility.Blackout, error) {
	return s.q().ListBlackouts(ctx, facilityID, from, to)
}
func (s *Store) InsertBlackout(ctx context.Context, b *facility.Blackout) error {
	return s.InTx(ctx, func(q facilities.Queries) error { return q.InsertBlackout(ctx, b) })
}
func (s *Store) DeleteBlackout(ctx context.Context, id string) (facility.Blackout, error) {
	var out facility.Blackout
	err := s.InTx(ctx, func(q facilities.Queries) error {
		var err error
		out, err = q.DeleteBlackout(ctx, id)
		return err
	})
	return out, err
}
func (s *Store) InsertPayment(ctx context.Context, p *facility.Payment) error {
	return s.InTx(ctx, func(q facilities.Queries) error { return q.InsertPayment(ctx, p) })
}
func (s *Store) LockPaymentBySession(ctx context.Context, provider, sessionID string) (facility.Payment, error) {
	return s.q().LockPaymentBySession(ctx, provider, sessionID)
}
func (s *Store) PendingPaymentForBooking(ctx context.Context, bookingID string) (facility.Payment, error) {
	return s.q().PendingPaymentForBooking(ctx, bookingID)
}
func (s *Store) SetPaymentStatus(ctx context.Context, id string, status facility.PaymentStatus, paidAt *time.Time) error {
	return s.InTx(ctx, func(q facilities.Queries) error { return q.SetPaymentStatus(ctx, id, status, paidAt) })
}
func (s *Store) ListPaymentsByUser(ctx context.Context, userID string, limit int) ([]facility.Payment, error) {
	return s.q().ListPaymentsByUser(ctx, userID, limit)
}
func (s *Store) InsertProviderEvent(ctx context.Context, evt storage.ProviderEvent) error {
	return s.InTx(ctx, func(q facilities.Queries) error { return q.InsertProviderEvent(ctx, evt) })
}
func (s *Store) LockIdempotencyKey(ctx context.Context, scope, key string) (storage.IdempotencyRecord, error) {
	return s.q().LockIdempotencyKey(ctx, scope, key)
}
func (s *Store) FinalizeIdempotency(ctx context.Context, scope, key, bookingID string, statusCode int, response []byte) error {
	return s.InTx(ctx, func(q facilities.Queries) error {
		return q.FinalizeIdempotency(ctx, scope, key, bookingID, statusCode, response)
	})
}
func (s *Store) Emit(ctx context.Context, evt outbox.Event) error {
	return s.InTx(ctx, func(q facilities.Queries) error { return q.Emit(ctx, evt) })
}

type queries struct {
	st  *state
	now func() time.Time
}

func (q *queries) ListFacilities(_ context.Context, includeInactive bool) ([]facility.Facility, error) {
	var out []facility.Facility
	for _, f := range q.st.facilities {
		if f.IsActive || includeInactive {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (q *queries) GetFacility(_ context.Context, id string) (facility.Facility, error) {
	f, ok := q.st.facilities[id]
	if !ok {
		return facility.Facility{}, storage.ErrNotFound
	}
	return f, nil
}

func (q *queries) LockFacility(ctx context.Context, id string) (facility.Facility, error) {
	return q.GetFacility(ctx, id)
}

func (q *queries) InsertFacility(_ context.Context, f *facility.Facility) error {
	if _, ok := q.st.facilities[f.ID]; ok {
		return storage.ErrDuplicate
	}
	f.CreatedAt, f.UpdatedAt = q.now(), q.now()
	q.st.facilities[f.ID] = *f
	return nil
}

func (q *queries) UpdateFacility(_ context.Context, f *facility.Facility) error {
	if _, ok := q.st.facilities[f.ID]; !ok {
		return storage.ErrNotFound
	}
	f.UpdatedAt = q.now()
	q.st.facilities[f.ID] = *f
	return nil
}

func overlaps(start, end, from, to time.Time) bool {
	return (to.IsZero() || start.Before(to)) && (from.IsZero() || end.After(from))
}

func sortBookings(list []facility.Booking) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].StartTime.Equal(list[j].StartTime) {
			return list[i].StartTime.Before(list[j].StartTime)
		}
		return list[i].ID < list[j].ID
	})
}

func (q *queries) ListBookings(_ context.Context, facilityID string, from, to time.Time) ([]facility.Booking, error) {
	var out []facility.Booking
	for _, b := range q.st.bookings {
		if b.FacilityID == facilityID && b.Status != facility.StatusCancelled && overlaps(b.StartTime, b.EndTime, from, to) {
			out = append(out, b)
		}
	}
	sortBookings(out)
	return out, nil
}

func (q *queries) ListBookingsByRequester(_ context.Context, requesterID string, limit int) ([]facility.Booking, error) {
	var out []facility.Booking
	for _, b := range q.st.bookings {
		if b.RequesterID == requesterID {
			out = append(out, b)
		}
	}
	sortBookings(out)
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (q *queries) GetBooking(_ context.Context, id string) (facility.Booking, error) {
	b, ok := q.st.bookings[id]
	if !ok {
		return facility.Booking{}, storage.ErrNotFound
	}
	return b, nil
}

func (q *queries) LockBooking(ctx context.Context, id string) (facility.Booking, error) {
	return q.GetBooking(ctx, id)
}

func (q *queries) InsertBooking(_ context.Context, b *facility.Booking) error {
	if _, ok := q.st.bookings[b.ID]; ok {
		return storage.ErrDuplicate
	}
	b.CreatedAt, b.UpdatedAt = q.now(), q.now()
	q.st.bookings[b.ID] = *b
	return nil
}

func (q *queries) UpdateBooking(_ context.Context, b *facility.Booking) error {
	prev, ok := q.st.bookings[b.ID]
	if !ok {
		return storage.ErrNotFound
	}
	b.CreatedAt = prev.CreatedAt
	b.UpdatedAt = q.now()
	q.st.bookings[b.ID] = *b
	return nil
}

func (q *queries) LockStalePending(_ context.Context, cutoff time.Time, limit int) ([]facility.Booking, error) {
	var out []facility.Booking
	for _, b := range q.st.bookings {
		if b.Status == facility.StatusPending && b.CreatedAt.Before(cutoff) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (q *queries) ListBlackouts(_ context.Context, facilityID string, from, to time.Time) ([]facility.Blackout, error) {
	var out []facility.Blackout
	for _, b := range q.st.blackouts {
		if b.FacilityID == facilityID && overlaps(b.StartTime, b.EndTime, from, to) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (q *queries) InsertBlackout(_ context.Context, b *facility.Blackout) error {
	b.CreatedAt = q.now()
	q.st.blackouts[b.ID] = *b
	return nil
}

func (q *queries) DeleteBlackout(_ context.Context, id string) (facility.Blackout, error) {
	b, ok := q.st.blackouts[id]
	if !ok {
		return facility.Blackout{}, storage.ErrNotFound
	}
	delete(q.st.blackouts, id)
	return b, nil
}

func (q *queries) InsertPayment(_ context.Context, p *facility.Payment) error {
	p.CreatedAt = q.now()
	q.st.payments[p.ID] = *p
	return nil
}

func (q *queries) LockPaymentBySession(_ context.Context, provider, sessionID string) (facility.Payment, error) {
	for _, p := range q.st.payments {
		if p.Provider == provider && p.ProviderSessionID == sessionID {
			return p, nil
		}
	}
	return facility.Payment{}, storage.ErrNotFound
}

func (q *queries) PendingPaymentForBooking(_ context.Context, bookingID string) (facility.Payment, error) {
	for _, p := range q.st.payments {
		if p.BookingID == bookingID && p.Status == facility.PaymentPending {
			return p, nil
		}
	}
	return facility.Payment{}, storage.ErrNotFound
}

func (q *queries) SetPaymentStatus(_ context.Context, id string, status facility.PaymentStatus, paidAt *time.Time) error {
	p, ok := q.st.payments[id]
	if !ok {
		return storage.ErrNotFound
	}
	p.Status = status
	if paidAt != nil {
		p.PaidAt = paidAt
	}
	q.st.payments[id] = p
	return nil
}

func (q *queries) ListPaymentsByUser(_ context.Context, userID string, limit int) ([]facility.Payment, error) {
	var out []facility.Payment
	for _, p := range q.st.payments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (q *queries) InsertProviderEvent(_ context.Context, evt storage.ProviderEvent) error {
	key := evt.Provider + "/" + evt.ProviderEventID
	if _, ok := q.st.providerEvents[key]; ok {
		return storage.ErrDuplicate
	}
	q.st.providerEvents[key] = struct{}{}
	return nil
}

func (q *queries) LockIdempotencyKey(_ context.Context, scope, key string) (storage.IdempotencyRecord, error) {
	k := scope + "/" + key
	rec, ok := q.st.idempotency[k]
	if !ok {
		rec = storage.IdempotencyRecord{Scope: scope, IdempotencyKey: key}
		q.st.idempotency[k] = rec
	}
	return rec, nil
}

func (q *queries) FinalizeIdempotency(_ context.Context, scope, key, bookingID string, statusCode int, response []byte) error {
	k := scope + "/" + key
	q.st.idempotency[k] = storage.IdempotencyRecord{
		Scope:           scope,
		IdempotencyKey:  key,
		BookingID:       bookingID,
		StatusCode:      statusCode,
		ResponsePayload: slices.Clone(response),
	}
	return nil
}

func (q *queries) Emit(_ context.Context, evt outbox.Event) error {
	q.st.events = append(q.st.events, evt)
	return nil
}
