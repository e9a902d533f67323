// Package facilities implements the facility service: the catalogue, the
// authoritative booking rules, blackouts, calendar projections and payment
// settlement.
package facilities

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/teampro-ai/teampro/libs/auth"
	"github.com/teampro-ai/teampro/libs/facility"
	"github.com/teampro-ai/teampro/services/facility-service/internal/outbox"
	"github.com/teampro-ai/teampro/services/facility-service/internal/payments"
)

const DefaultPendingTTL = 30 * time.Minute

// Actor is the authenticated caller, as forwarded by the gateway.
type Actor struct {
	UserID string
	Email  string
	Role   string
}

func (a Actor) IsAdmin() bool { return auth.IsAdmin(a.Role) }

func (a Actor) owns(b facility.Booking) bool {
	return a.UserID != "" && a.UserID == b.RequesterID
}

type Config struct {
	// Checkout is nil when payments are disabled; bookings are then confirmed
	// immediately.
	Checkout   payments.Checkout
	PendingTTL time.Duration
	Now        func() time.Time
}

type Service struct {
	store      Store
	checkout   payments.Checkout
	pendingTTL time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

func New(store Store, logger *slog.Logger, cfg Config) *Service {
	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = DefaultPendingTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		store:      store,
		checkout:   cfg.Checkout,
		pendingTTL: cfg.PendingTTL,
		now:        cfg.Now,
		logger:     logger,
	}
}

// PaymentsEnabled reports whether paid facilities go through checkout.
func (s *Service) PaymentsEnabled() bool { return s.checkout != nil }

type FacilityInput struct {
	Name            string   `json:"name" validate:"required,max=200"`
	Type            string   `json:"type" validate:"max=100"`
	Address         string   `json:"address" validate:"max=500"`
	Capacity        int      `json:"capacity" validate:"gte=0"`
	HourlyRateCents int64    `json:"hourly_rate_cents" validate:"gte=0"`
	Currency        string   `json:"currency" validate:"omitempty,len=3"`
	Amenities       []string `json:"amenities"`
	Timezone        string   `json:"timezone"`
}

// FacilityPatch changes only the fields that are set.
type FacilityPatch struct {
	Name            *string   `json:"name" validate:"omitempty,min=1,max=200"`
	Type            *string   `json:"type" validate:"omitempty,max=100"`
	Address         *string   `json:"address" validate:"omitempty,max=500"`
	Capacity        *int      `json:"capacity" validate:"omitempty,gte=0"`
	HourlyRateCents *int64    `json:"hourly_rate_cents" validate:"omitempty,gte=0"`
	Currency        *string   `json:"currency" validate:"omitempty,len=3"`
	Amenities       *[]string `json:"amenities"`
	Timezone        *string   `json:"timezone"`
	IsActive        *bool     `json:"is_active"`
}

func (s *Service) ListFacilities(ctx context.Context, actor Actor, includeInactive bool) ([]facility.Facility, error) {
	return s.store.ListFacilities(ctx, includeInactive && actor.IsAdmin())
}

func (s *Service) GetFacility(ctx context.Context, id string) (facility.Facility, error) {
	return s.store.GetFacility(ctx, id)
}

func (s *Service) CreateFacility(ctx context.Context, actor Actor, in FacilityInput) (facility.Facility, error) {
	if !actor.IsAdmin() {
		return facility.Facility{}, ErrForbidden
	}
	f := facility.Facility{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(in.Name),
		Type:            strings.TrimSpace(in.Type),
		Address:         strings.TrimSpace(in.Address),
		Capacity:        in.Capacity,
		HourlyRateCents: in.HourlyRateCents,
		Currency:        normalizeCurrency(in.Currency),
		Amenities:       normalizeAmenities(in.Amenities),
		Timezone:        strings.TrimSpace(in.Timezone),
		IsActive:        true,
	}
	if err := validateFacility(f); err != nil {
		return facility.Facility{}, err
	}
	if err := s.store.InsertFacility(ctx, &f); err != nil {
		return facility.Facility{}, err
	}
	s.logger.Info("facility created", "facility_id", f.ID, "actor_id", actor.UserID)
	return f, nil
}

func (s *Service) UpdateFacility(ctx context.Context, actor Actor, id string, p FacilityPatch) (facility.Facility, error) {
	if !actor.IsAdmin() {
		return facility.Facility{}, ErrForbidden
	}
	var out facility.Facility
	err := s.store.InTx(ctx, func(q Queries) error {
		f, err := q.LockFacility(ctx, id)
		if err != nil {
			return err
		}
		if p.Name != nil {
			f.Name = strings.TrimSpace(*p.Name)
		}
		if p.Type != nil {
			f.Type = strings.TrimSpace(*p.Type)
		}
		if p.Address != nil {
			f.Address = strings.TrimSpace(*p.Address)
		}
		if p.Capacity != nil {
			f.Capacity = *p.Capacity
		}
		if p.HourlyRateCents != nil {
			f.HourlyRateCents = *p.HourlyRateCents
		}
		if p.Currency != nil {
			f.Currency = normalizeCurrency(*p.Currency)
		}
		if p.Amenities != nil {
			f.Amenities = normalizeAmenities(*p.Amenities)
		}
		if p.Timezone != nil {
			f.Timezone = strings.TrimSpace(*p.Timezone)
		}
		if p.IsActive != nil {
			f.IsActive = *p.IsActive
		}
		if err := validateFacility(f); err != nil {
			return err
		}
		if err := q.UpdateFacility(ctx, &f); err != nil {
			return err
		}
		out = f
		return nil
	})
	return out, err
}

// DeactivateFacility stops new bookings. Existing bookings are kept.
func (s *Service) DeactivateFacility(ctx context.Context, actor Actor, id string) (facility.Facility, error) {
	inactive := false
	return s.UpdateFacility(ctx, actor, id, FacilityPatch{IsActive: &inactive})
}

func validateFacility(f facility.Facility) error {
	if f.Name == "" {
		return invalid("name is required")
	}
	if f.Capacity < 0 {
		return invalid("capacity must be at least 0")
	}
	if f.HourlyRateCents < 0 {
		return invalid("hourly_rate_cents must be at least 0")
	}
	if f.Timezone != "" {
		if _, err := time.LoadLocation(f.Timezone); err != nil {
			return invalid("unknown timezone %q", f.Timezone)
		}
	}
	return nil
}

func normalizeCurrency(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	if c == "" {
		return "usd"
	}
	return c
}

func normalizeAmenities(in []string) []string {
	out := facility.NormalizeList(in)
	slices.Sort(out)
	return out
}

func (s *Service) emitBooking(ctx context.Context, q Queries, topic string, b facility.Booking, actorID, reason string) error {
	payload, err := json.Marshal(facility.BookingEvent{
		Booking:    b,
		ActorID:    actorID,
		Reason:     reason,
		OccurredAt: s.now().UTC(),
	})
	if err != nil {
		return err
	}
	return q.Emit(ctx, outbox.Event{
		AggregateType: "booking",
		AggregateID:   b.FacilityID,
		EventType:     topic,
		Payload:       payload,
	})
}

func (s *Service) emitConflicts(ctx context.Context, q Queries, facilityID, cause string, conflicts []facility.Conflict) error {
	if len(conflicts) == 0 {
		return nil
	}
	payload, err := json.Marshal(facility.ConflictsDetectedEvent{
		FacilityID: facilityID,
		Cause:      cause,
		Conflicts:  conflicts,
		OccurredAt: s.now().UTC(),
	})
	if err != nil {
		return err
	}
	s.logger.Warn("booking conflicts recorded", "facility_id", facilityID, "cause", cause, "count", len(conflicts))
	return q.Emit(ctx, outbox.Event{
		AggregateType: "facility",
		AggregateID:   facilityID,
		EventType:     facility.TopicConflictsDetected,
		Payload:       payload,
	})
}
