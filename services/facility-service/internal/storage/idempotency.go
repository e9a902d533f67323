package storage

import (
	"context"
)

type IdempotencyRecord struct {
	Scope           string
	IdempotencyKey  string
	BookingID       string
	StatusCode      int
	ResponsePayload []byte
}

// Completed reports whether a response was stored for the key.
func (r IdempotencyRecord) Completed() bool {
	return r.StatusCode > 0 && len(r.ResponsePayload) > 0
}

// LockIdempotencyKey reserves key within scope and locks it until the
// transaction ends. The returned record carries the stored response when an
// earlier request with the same key completed.
func (q *Queries) LockIdempotencyKey(ctx context.Context, scope, key string) (IdempotencyRecord, error) {
	if _, err := q.db.Exec(ctx, `
		INSERT INTO booking_idempotency_keys (scope, idempotency_key)
		VALUES ($1, $2)
		ON CONFLICT (scope, idempotency_key) DO NOTHING
	`, scope, key); err != nil {
		return IdempotencyRecord{}, err
	}

	var rec IdempotencyRecord
	var responseText string
	err := q.db.QueryRow(ctx, `
		SELECT scope,
			idempotency_key,
			COALESCE(booking_id::text, ''),
			COALESCE(status_code, 0),
			COALESCE(response_payload::text, '')
		FROM booking_idempotency_keys
		WHERE scope = $1 AND idempotency_key = $2
		FOR UPDATE
	`, scope, key).Scan(&rec.Scope, &rec.IdempotencyKey, &rec.BookingID, &rec.StatusCode, &responseText)
	if err != nil {
		return IdempotencyRecord{}, classify(err)
	}
	if responseText != "" {
		rec.ResponsePayload = []byte(responseText)
	}
	return rec, nil
}

func (q *Queries) FinalizeIdempotency(ctx context.Context, scope, key, bookingID string, statusCode int, response []byte) error {
	_, err := q.db.Exec(ctx, `
		UPDATE booking_idempotency_keys
		SET booking_id = $3,
			status_code = $4,
			response_payload = $5,
			updated_at = now()
		WHERE scope = $1 AND idempotency_key = $2
	`, scope, key, bookingID, statusCode, response)
	return err
}
