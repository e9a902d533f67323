package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/teampro-ai/teampro/libs/facility"
)

const bookingColumns = `id::text, facility_id::text, requester_id, requester_email, title, description,
	start_time, end_time, attendee_count, equipment_needed, status, created_at, updated_at`

func scanBooking(row pgx.Row) (facility.Booking, error) {
	var b facility.Booking
	err := row.Scan(&b.ID, &b.FacilityID, &b.RequesterID, &b.RequesterEmail, &b.Title, &b.Description,
		&b.StartTime, &b.EndTime, &b.AttendeeCount, &b.EquipmentNeeded, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func collectBookings(rows pgx.Rows, err error) ([]facility.Booking, error) {
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (facility.Booking, error) {
		return scanBooking(row)
	})
}

// ListBookings returns the facility's pending and confirmed bookings that
// overlap [from, to). Zero bounds are open-ended.
func (q *Queries) ListBookings(ctx context.Context, facilityID string, from, to time.Time) ([]facility.Booking, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE facility_id = $1
			AND status <> 'cancelled'
			AND start_time < $3
			AND end_time > $2
		ORDER BY start_time, id
	`, facilityID, lowerBound(from), upperBound(to))
	list, err := collectBookings(rows, err)
	return list, classify(err)
}

func (q *Queries) ListBookingsByRequester(ctx context.Context, requesterID string, limit int) ([]facility.Booking, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE requester_id = $1
		ORDER BY start_time DESC, id
		LIMIT $2
	`, requesterID, clampLimit(limit))
	return collectBookings(rows, err)
}

func (q *Queries) GetBooking(ctx context.Context, id string) (facility.Booking, error) {
	b, err := scanBooking(q.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
	return b, classify(err)
}

func (q *Queries) LockBooking(ctx context.Context, id string) (facility.Booking, error) {
	b, err := scanBooking(q.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id))
	return b, classify(err)
}

func (q *Queries) InsertBooking(ctx context.Context, b *facility.Booking) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO bookings
			(id, facility_id, requester_id, requester_email, title, description, start_time, end_time, attendee_count, equipment_needed, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`, b.ID, b.FacilityID, b.RequesterID, b.RequesterEmail, b.Title, b.Description, b.StartTime, b.EndTime,
		b.AttendeeCount, b.EquipmentNeeded, b.Status,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	return classify(err)
}

// UpdateBooking writes the mutable fields of b, including its status.
func (q *Queries) UpdateBooking(ctx context.Context, b *facility.Booking) error {
	err := q.db.QueryRow(ctx, `
		UPDATE bookings
		SET title = $2,
			description = $3,
			start_time = $4,
			end_time = $5,
			attendee_count = $6,
			equipment_needed = $7,
			status = $8,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, b.ID, b.Title, b.Description, b.StartTime, b.EndTime, b.AttendeeCount, b.EquipmentNeeded, b.Status,
	).Scan(&b.UpdatedAt)
	return classify(err)
}

// LockStalePending claims pending bookings created before cutoff. Rows locked
// by another worker are skipped.
func (q *Queries) LockStalePending(ctx context.Context, cutoff time.Time, limit int) ([]facility.Booking, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`, cutoff, clampLimit(limit))
	return collectBookings(rows, err)
}
