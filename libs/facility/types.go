// Package facility holds the records exchanged between the facility service,
// its clients and the event consumers.
package facility

import (
	"strings"
	"time"
)

type Facility struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	Address         string    `json:"address"`
	Capacity        int       `json:"capacity"`
	HourlyRateCents int64     `json:"hourly_rate_cents"`
	Currency        string    `json:"currency"`
	Amenities       []string  `json:"amenities"`
	Timezone        string    `json:"timezone"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Location returns the facility's time zone, UTC when unset or unknown.
func (f Facility) Location() *time.Location {
	if f.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(f.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

// Active bookings hold their time range. A pending booking (awaiting payment) blocks the slot too.
func (s BookingStatus) Active() bool { return s != StatusCancelled }

type Booking struct {
	ID              string        `json:"id"`
	FacilityID      string        `json:"facility_id"`
	RequesterID     string        `json:"requester_id"`
	RequesterEmail  string        `json:"requester_email,omitempty"`
	Title           string        `json:"title"`
	Description     string        `json:"description,omitempty"`
	StartTime       time.Time     `json:"start_time"`
	EndTime         time.Time     `json:"end_time"`
	AttendeeCount   int           `json:"attendee_count"`
	EquipmentNeeded []string      `json:"equipment_needed"`
	Status          BookingStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (b Booking) Active() bool { return b.Status.Active() }

// Blackout is an administrator-declared period when a facility cannot be used.
type Blackout struct {
	ID         string    `json:"id"`
	FacilityID string    `json:"facility_id"`
	Reason     string    `json:"reason"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
}

type ConflictKind string

const (
	ConflictBookingOverlap ConflictKind = "booking_overlap"
	ConflictBlackout       ConflictKind = "blackout"
)

// Conflict pairs an active booking with the booking or blackout it overlaps.
// Each booking pair is reported once per side; both sides share ID.
type Conflict struct {
	ID                 string       `json:"id"`
	FacilityID         string       `json:"facility_id"`
	Kind               ConflictKind `json:"kind"`
	Booking            Booking      `json:"booking"`
	ConflictingBooking *Booking     `json:"conflicting_booking,omitempty"`
	Blackout           *Blackout    `json:"blackout,omitempty"`
	OverlapStart       time.Time    `json:"overlap_start"`
	OverlapEnd         time.Time    `json:"overlap_end"`
}

// PartnerID is the id of the other side of the conflict.
func (c Conflict) PartnerID() string {
	switch {
	case c.ConflictingBooking != nil:
		return c.ConflictingBooking.ID
	case c.Blackout != nil:
		return c.Blackout.ID
	default:
		return ""
	}
}

// Equivalent reports whether c and o describe the same pairing, in either direction.
func (c Conflict) Equivalent(o Conflict) bool {
	if c.Kind != o.Kind || c.FacilityID != o.FacilityID {
		return false
	}
	if c.Booking.ID == o.Booking.ID && c.PartnerID() == o.PartnerID() {
		return true
	}
	return c.Kind == ConflictBookingOverlap && c.Booking.ID == o.PartnerID() && c.PartnerID() == o.Booking.ID
}

type CreateBookingRequest struct {
	FacilityID      string    `json:"facility_id"`
	Title           string    `json:"title" validate:"required"`
	Description     string    `json:"description"`
	StartTime       time.Time `json:"start_time" validate:"required"`
	EndTime         time.Time `json:"end_time" validate:"required"`
	AttendeeCount   int       `json:"attendee_count" validate:"gte=0"`
	EquipmentNeeded []string  `json:"equipment_needed"`
	AllowConflict   bool      `json:"allow_conflict,omitempty"`
}

type CreateBookingResult struct {
	Booking     Booking    `json:"booking"`
	CheckoutURL string     `json:"checkout_url,omitempty"`
	Conflicts   []Conflict `json:"conflicts,omitempty"`
}

type CheckConflictsRequest struct {
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
	// ExcludeBookingID ignores one booking, used when rescheduling it.
	ExcludeBookingID string `json:"exclude_booking_id,omitempty"`
}

type CheckConflictsResponse struct {
	Conflicts []Conflict `json:"conflicts"`
}

type RealTimeStatus struct {
	FacilityID           string     `json:"facility_id"`
	IsCurrentlyAvailable bool       `json:"is_currently_available"`
	CurrentBooking       *Booking   `json:"current_booking,omitempty"`
	NextBooking          *Booking   `json:"next_booking,omitempty"`
	AvailableUntil       *time.Time `json:"available_until,omitempty"`
	AvailableFrom        *time.Time `json:"available_from,omitempty"`
	ConflictsDetected    int        `json:"conflicts_detected"`
	LastUpdated          time.Time  `json:"last_updated"`
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type Payment struct {
	ID                string        `json:"id"`
	BookingID         string        `json:"booking_id"`
	UserID            string        `json:"user_id"`
	AmountCents       int64         `json:"amount_cents"`
	Currency          string        `json:"currency"`
	Status            PaymentStatus `json:"status"`
	Provider          string        `json:"provider"`
	ProviderSessionID string        `json:"provider_session_id,omitempty"`
	PaidAt            *time.Time    `json:"paid_at,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
}

type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
)

type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}

// NormalizeList trims entries, drops empties and duplicates, keeping first-seen order.
func NormalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
