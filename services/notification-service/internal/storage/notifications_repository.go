// Package storage persists in-app notifications.
package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/teampro-ai/teampro/libs/db"
	"github.com/teampro-ai/teampro/libs/facility"
)

var ErrNotFound = errors.New("not found")

// Notification is an in-app message plus the booking it is about, if any.
type Notification struct {
	facility.Notification
	BookingID  string
	FacilityID string
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO notifications (id, user_id, title, message, type, booking_id, facility_id)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''))
		RETURNING is_read, created_at
	`, n.ID, n.UserID, n.Title, n.Message, string(n.Type), n.BookingID, n.FacilityID).Scan(&n.IsRead, &n.CreatedAt)
}

const selectNotification = `
	SELECT id, user_id, title, message, type, is_read, created_at
	FROM notifications
`

func scanNotification(row pgx.Row) (facility.Notification, error) {
	var n facility.Notification
	var typ string
	if err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &typ, &n.IsRead, &n.CreatedAt); err != nil {
		return facility.Notification{}, err
	}
	n.Type = facility.NotificationType(typ)
	return n, nil
}

// ListByUser returns the newest notifications first.
func (r *Repository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]facility.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, selectNotification+`
		WHERE user_id = $1 AND (NOT $2 OR NOT is_read)
		ORDER BY created_at DESC, id
		LIMIT $3
	`, userID, unreadOnly, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []facility.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flags one of the user's notifications as read. Another user's
// notification is reported as not found.
func (r *Repository) MarkRead(ctx context.Context, userID, id string) (facility.Notification, error) {
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
		return facility.Notification{}, ErrNotFound
	}
	n, err := scanNotification(r.pool.QueryRow(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, title, message, type, is_read, created_at
	`, id, userID))
	if db.IsNoRows(err) {
		return facility.Notification{}, ErrNotFound
	}
	return n, err
}

func (r *Repository) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID).Scan(&n)
	return n, err
}
