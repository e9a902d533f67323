package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/teampro-ai/teampro/libs/facility"
)

const blackoutColumns = `id::text, facility_id::text, reason, start_time, end_time, created_by, created_at`

func scanBlackout(row pgx.Row) (facility.Blackout, error) {
	var b facility.Blackout
	err := row.Scan(&b.ID, &b.FacilityID, &b.Reason, &b.StartTime, &b.EndTime, &b.CreatedBy, &b.CreatedAt)
	return b, err
}

func (q *Queries) ListBlackouts(ctx context.Context, facilityID string, from, to time.Time) ([]facility.Blackout, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+blackoutColumns+`
		FROM blackouts
		WHERE facility_id = $1 AND start_time < $3 AND end_time > $2
		ORDER BY start_time, id
	`, facilityID, lowerBound(from), upperBound(to))
	if err != nil {
		return nil, classify(err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (facility.Blackout, error) {
		return scanBlackout(row)
	})
}

func (q *Queries) InsertBlackout(ctx context.Context, b *facility.Blackout) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO blackouts (id, facility_id, reason, start_time, end_time, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, b.ID, b.FacilityID, b.Reason, b.StartTime, b.EndTime, b.CreatedBy).Scan(&b.CreatedAt)
	return classify(err)
}

func (q *Queries) DeleteBlackout(ctx context.Context, id string) (facility.Blackout, error) {
	b, err := scanBlackout(q.db.QueryRow(ctx, `DELETE FROM blackouts WHERE id = $1 RETURNING `+blackoutColumns, id))
	return b, classify(err)
}
