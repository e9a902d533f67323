package facility

import "time"

// Kafka topics published by the facility service.
const (
	TopicBookingCreated    = "facility.booking.created.v1"
	TopicBookingConfirmed  = "facility.booking.confirmed.v1"
	TopicBookingCancelled  = "facility.booking.cancelled.v1"
	TopicConflictsDetected = "facility.conflict.detected.v1"
)

type BookingEvent struct {
	Booking    Booking   `json:"booking"`
	ActorID    string    `json:"actor_id,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Conflict causes.
const (
	CauseAdminOverride   = "admin_override"
	CauseBlackoutCreated = "blackout_created"
	CauseRescheduled     = "rescheduled"
)

type ConflictsDetectedEvent struct {
	FacilityID string     `json:"facility_id"`
	Cause      string     `json:"cause"`
	Conflicts  []Conflict `json:"conflicts"`
	OccurredAt time.Time  `json:"occurred_at"`
}
