package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/teampro-ai/teampro/libs/facility"
)

const paymentColumns = `id::text, booking_id::text, user_id, amount_cents, currency, status, provider,
	COALESCE(provider_session_id, ''), paid_at, created_at`

func scanPayment(row pgx.Row) (facility.Payment, error) {
	var p facility.Payment
	err := row.Scan(&p.ID, &p.BookingID, &p.UserID, &p.AmountCents, &p.Currency, &p.Status, &p.Provider,
		&p.ProviderSessionID, &p.PaidAt, &p.CreatedAt)
	return p, err
}

func (q *Queries) InsertPayment(ctx context.Context, p *facility.Payment) error {
	var session any
	if p.ProviderSessionID != "" {
		session = p.ProviderSessionID
	}
	err := q.db.QueryRow(ctx, `
		INSERT INTO payments (id, booking_id, user_id, amount_cents, currency, status, provider, provider_session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, p.ID, p.BookingID, p.UserID, p.AmountCents, p.Currency, p.Status, p.Provider, session).Scan(&p.CreatedAt)
	return classify(err)
}

func (q *Queries) LockPaymentBySession(ctx context.Context, provider, sessionID string) (facility.Payment, error) {
	p, err := scanPayment(q.db.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE provider = $1 AND provider_session_id = $2
		FOR UPDATE
	`, provider, sessionID))
	return p, classify(err)
}

// PendingPaymentForBooking returns the open payment of a booking, if any.
func (q *Queries) PendingPaymentForBooking(ctx context.Context, bookingID string) (facility.Payment, error) {
	p, err := scanPayment(q.db.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE booking_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
		LIMIT 1
	`, bookingID))
	return p, classify(err)
}

func (q *Queries) SetPaymentStatus(ctx context.Context, id string, status facility.PaymentStatus, paidAt *time.Time) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE payments
		SET status = $2, paid_at = COALESCE($3, paid_at), updated_at = now()
		WHERE id = $1
	`, id, status, paidAt)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (q *Queries) ListPaymentsByUser(ctx context.Context, userID string, limit int) ([]facility.Payment, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`, userID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (facility.Payment, error) {
		return scanPayment(row)
	})
}

type ProviderEvent struct {
	Provider        string
	ProviderEventID string
	EventType       string
	Payload         []byte
}

// InsertProviderEvent records a webhook delivery. A replayed delivery returns
// ErrDuplicate.
func (q *Queries) InsertProviderEvent(ctx context.Context, evt ProviderEvent) error {
	tag, err := q.db.Exec(ctx, `
		INSERT INTO payment_provider_events (provider, provider_event_id, event_type, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (provider, provider_event_id) DO NOTHING
	`, evt.Provider, evt.ProviderEventID, evt.EventType, evt.Payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicate
	}
	return nil
}
