package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/teampro-ai/teampro/libs/facility"
)

const facilityColumns = `id::text, name, type, address, capacity, hourly_rate_cents, currency, amenities, timezone, is_active, created_at, updated_at`

func scanFacility(row pgx.Row) (facility.Facility, error) {
	var f facility.Facility
	err := row.Scan(&f.ID, &f.Name, &f.Type, &f.Address, &f.Capacity, &f.HourlyRateCents, &f.Currency,
		&f.Amenities, &f.Timezone, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}

func (q *Queries) ListFacilities(ctx context.Context, includeInactive bool) ([]facility.Facility, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+facilityColumns+`
		FROM facilities
		WHERE is_active OR $1
		ORDER BY name, id
	`, includeInactive)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (facility.Facility, error) {
		return scanFacility(row)
	})
}

func (q *Queries) GetFacility(ctx context.Context, id string) (facility.Facility, error) {
	f, err := scanFacility(q.db.QueryRow(ctx, `SELECT `+facilityColumns+` FROM facilities WHERE id = $1`, id))
	return f, classify(err)
}

// LockFacility serializes booking writes for one facility until the
// transaction ends.
func (q *Queries) LockFacility(ctx context.Context, id string) (facility.Facility, error) {
	f, err := scanFacility(q.db.QueryRow(ctx, `SELECT `+facilityColumns+` FROM facilities WHERE id = $1 FOR UPDATE`, id))
	return f, classify(err)
}

func (q *Queries) InsertFacility(ctx context.Context, f *facility.Facility) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO facilities (id, name, type, address, capacity, hourly_rate_cents, currency, amenities, timezone, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`, f.ID, f.Name, f.Type, f.Address, f.Capacity, f.HourlyRateCents, f.Currency, f.Amenities, f.Timezone, f.IsActive,
	).Scan(&f.CreatedAt, &f.UpdatedAt)
	return classify(err)
}

func (q *Queries) UpdateFacility(ctx context.Context, f *facility.Facility) error {
	err := q.db.QueryRow(ctx, `
		UPDATE facilities
		SET name = $2,
			type = $3,
			address = $4,
			capacity = $5,
			hourly_rate_cents = $6,
			currency = $7,
			amenities = $8,
			timezone = $9,
			is_active = $10,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, f.ID, f.Name, f.Type, f.Address, f.Capacity, f.HourlyRateCents, f.Currency, f.Amenities, f.Timezone, f.IsActive,
	).Scan(&f.UpdatedAt)
	return classify(err)
}
