package facilities

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/teampro-ai/teampro/libs/availability"
	"github.com/teampro-ai/teampro/libs/facility"
)

type BlackoutInput struct {
	Reason    string    `json:"reason" validate:"max=500"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
}

func (s *Service) ListBlackouts(ctx context.Context, facilityID string, from, to time.Time) ([]facility.Blackout, error) {
	if _, err := s.store.GetFacility(ctx, facilityID); err != nil {
		return nil, err
	}
	return s.store.ListBlackouts(ctx, facilityID, from, to)
}

// CreateBlackout closes a facility for a period. Bookings already inside the
// period are kept; the conflicts they now have are returned and announced.
func (s *Service) CreateBlackout(ctx context.Context, actor Actor, facilityID string, in BlackoutInput) (facility.Blackout, []facility.Conflict, error) {
	if !actor.IsAdmin() {
		return facility.Blackout{}, nil, ErrForbidden
	}
	bo := facility.Blackout{
		ID:         uuid.NewString(),
		FacilityID: facilityID,
		Reason:     strings.TrimSpace(in.Reason),
		StartTime:  in.StartTime.UTC(),
		EndTime:    in.EndTime.UTC(),
		CreatedBy:  actor.UserID,
	}
	if !bo.EndTime.After(bo.StartTime) {
		return facility.Blackout{}, nil, invalid("end_time must be after start_time")
	}

	var conflicts []facility.Conflict
	err := s.store.InTx(ctx, func(q Queries) error {
		if _, err := q.LockFacility(ctx, facilityID); err != nil {
			return err
		}
		if err := q.InsertBlackout(ctx, &bo); err != nil {
			return err
		}
		bookings, err := q.ListBookings(ctx, facilityID, bo.StartTime, bo.EndTime)
		if err != nil {
			return err
		}
		for _, c := range availability.DetectConflicts(bookings, []facility.Blackout{bo}) {
			if c.Kind == facility.ConflictBlackout {
				conflicts = append(conflicts, c)
			}
		}
		return s.emitConflicts(ctx, q, facilityID, facility.CauseBlackoutCreated, conflicts)
	})
	if err != nil {
		return facility.Blackout{}, nil, err
	}
	return bo, conflicts, nil
}

func (s *Service) DeleteBlackout(ctx context.Context, actor Actor, id string) (facility.Blackout, error) {
	if !actor.IsAdmin() {
		return facility.Blackout{}, ErrForbidden
	}
	return s.store.DeleteBlackout(ctx, id)
}
