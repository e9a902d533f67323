package facilities

import (
	"errors"
	"fmt"

	"github.com/teampro-ai/teampro/libs/facility"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrSlotTaken       = errors.New("time slot already booked")
	ErrUnavailable     = errors.New("facility is unavailable during the requested time")
	ErrInactive        = errors.New("facility is not accepting bookings")
	ErrCancelled       = errors.New("booking is cancelled")
)

// ValidationError is a request the service refuses to act on as given.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError rejects a booking that would overlap existing bookings or
// blackouts. It unwraps to ErrSlotTaken or ErrUnavailable.
type ConflictError struct {
	Err       error
	Conflicts []facility.Conflict
}

func (e *ConflictError) Error() string { return e.Err.Error() }
func (e *ConflictError) Unwrap() error { return e.Err }

// rejectConflicts reports a booking overlap ahead of a blackout.
func rejectConflicts(conflicts []facility.Conflict) error {
	cause := ErrUnavailable
	for _, c := range conflicts {
		if c.Kind == facility.ConflictBookingOverlap {
			cause = ErrSlotTaken
			break
		}
	}
	return &ConflictError{Err: cause, Conflicts: conflicts}
}
