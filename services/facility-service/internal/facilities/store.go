package facilities

import (
	"context"
	"time"

	"github.com/teampro-ai/teampro/libs/facility"
	"github.com/teampro-ai/teampro/services/facility-service/internal/outbox"
	"github.com/teampro-ai/teampro/services/facility-service/internal/storage"
)

// Queries is the persistence the service needs. storage.Queries implements it.
type Queries interface {
	ListFacilities(ctx context.Context, includeInactive bool) ([]facility.Facility, error)
	GetFacility(ctx context.Context, id string) (facility.Facility, error)
	LockFacility(ctx context.Context, id string) (facility.Facility, error)
	InsertFacility(ctx context.Context, f *facility.Facility) error
	UpdateFacility(ctx context.Context, f *facility.Facility) error

	ListBookings(ctx context.Context, facilityID string, from, to time.Time) ([]facility.Booking, error)
	ListBookingsByRequester(ctx context.Context, requesterID string, limit int) ([]facility.Booking, error)
	GetBooking(ctx context.Context, id string) (facility.Booking, error)
	LockBooking(ctx context.Context, id string) (facility.Booking, error)
	InsertBooking(ctx context.Context, b *facility.Booking) error
	UpdateBooking(ctx context.Context, b *facility.Booking) error
	LockStalePending(ctx context.Context, cutoff time.Time, limit int) ([]facility.Booking, error)

	ListBlackouts(ctx context.Context, facilityID string, from, to time.Time) ([]facility.Blackout, error)
	InsertBlackout(ctx context.Context, b *facility.Blackout) error
	DeleteBlackout(ctx context.Context, id string) (facility.Blackout, error)

	InsertPayment(ctx context.Context, p *facility.Payment) error
	LockPaymentBySession(ctx context.Context, provider, sessionID string) (facility.Payment, error)
	PendingPaymentForBooking(ctx context.Context, bookingID string) (facility.Payment, error)
	SetPaymentStatus(ctx context.Context, id string, status facility.PaymentStatus, paidAt *time.Time) error
	ListPaymentsByUser(ctx context.Context, userID string, limit int) ([]facility.Payment, error)
	InsertProviderEvent(ctx context.Context, evt storage.ProviderEvent) error

	LockIdempotencyKey(ctx context.Context, scope, key string) (storage.IdempotencyRecord, error)
	FinalizeIdempotency(ctx context.Context, scope, key, bookingID string, statusCode int, response []byte) error

	Emit(ctx context.Context, evt outbox.Event) error
}

type Store interface {
	Queries
	InTx(ctx context.Context, fn func(Queries) error) error
}

// NewPostgresStore adapts the storage package to Store.
func NewPostgresStore(s *storage.Store) Store {
	return pgStore{Store: s}
}

type pgStore struct {
	*storage.Store
}

func (p pgStore) InTx(ctx context.Context, fn func(Queries) error) error {
	return p.Store.InTx(ctx, func(q *storage.Queries) error {
		return fn(q)
	})
}
