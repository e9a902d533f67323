// Package history keeps a local record of bookings submitted from this
// machine.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/teampro-ai/teampro/libs/facility"
)

var ErrNotFound = errors.New("booking not in history")

type Entry struct {
	BookingID    string                 `json:"booking_id"`
	FacilityID   string                 `json:"facility_id"`
	FacilityName string                 `json:"facility_name"`
	Title        string                 `json:"title"`
	StartTime    time.Time              `json:"start_time"`
	EndTime      time.Time              `json:"end_time"`
	Status       facility.BookingStatus `json:"status"`
	CheckoutURL  string                 `json:"checkout_url,omitempty"`
	BookedAt     time.Time              `json:"booked_at"`
}

type Filter struct {
	FacilityID string
	Upcoming   bool
	Now        time.Time
	Limit      int
}

type Store struct {
	db *sql.DB
}

// Open creates the database file and its directory if needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS bookings (
	booking_id TEXT PRIMARY KEY,
	facility_id TEXT NOT NULL,
	facility_name TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL,
	start_utc TEXT NOT NULL,
	end_utc TEXT NOT NULL,
	status TEXT NOT NULL,
	checkout_url TEXT NOT NULL DEFAULT '',
	booked_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS bookings_start_idx ON bookings (start_utc);`)
	if err != nil {
		return fmt.Errorf("create history schema: %w", err)
	}
	return nil
}

// Record inserts the entry, replacing an earlier record of the same booking.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.BookedAt.IsZero() {
		e.BookedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO bookings (booking_id, facility_id, facility_name, title, start_utc, end_utc, status, checkout_url, booked_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (booking_id) DO UPDATE SET
	status = excluded.status,
	title = excluded.title,
	start_utc = excluded.start_utc,
	end_utc = excluded.end_utc,
	checkout_url = excluded.checkout_url`,
		e.BookingID, e.FacilityID, e.FacilityName, e.Title,
		formatTime(e.StartTime), formatTime(e.EndTime),
		string(e.Status), e.CheckoutURL, formatTime(e.BookedAt),
	)
	return err
}

func (s *Store) SetStatus(ctx context.Context, bookingID string, status facility.BookingStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE bookings SET status = ? WHERE booking_id = ?`, string(status), bookingID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns entries by start time, most recent booking window first.
func (s *Store) List(ctx context.Context, f Filter) ([]Entry, error) {
	query := `
SELECT booking_id, facility_id, facility_name, title, start_utc, end_utc, status, checkout_url, booked_at
FROM bookings
WHERE (? = '' OR facility_id = ?)
  AND (? = '' OR end_utc > ?)
ORDER BY start_utc DESC`
	var after string
	if f.Upcoming {
		now := f.Now
		if now.IsZero() {
			now = time.Now()
		}
		after = formatTime(now)
	}
	args := []any{f.FacilityID, f.FacilityID, after, after}
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var start, end, bookedAt, status string
		if err := rows.Scan(&e.BookingID, &e.FacilityID, &e.FacilityName, &e.Title, &start, &end, &status, &e.CheckoutURL, &bookedAt); err != nil {
			return nil, err
		}
		e.Status = facility.BookingStatus(status)
		if e.StartTime, err = time.Parse(time.RFC3339, start); err != nil {
			return nil, err
		}
		if e.EndTime, err = time.Parse(time.RFC3339, end); err != nil {
			return nil, err
		}
		if e.BookedAt, err = time.Parse(time.RFC3339, bookedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Timestamps are stored as UTC RFC3339 so they sort lexically.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
