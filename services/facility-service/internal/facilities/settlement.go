package facilities

import (
	"context"
	"errors"

	"github.com/teampro-ai/teampro/libs/facility"
	"github.com/teampro-ai/teampro/services/facility-service/internal/payments"
	"github.com/teampro-ai/teampro/services/facility-service/internal/storage"
)

// Webhook outcomes.
const (
	WebhookApplied   = "ok"
	WebhookDuplicate = "duplicate"
	WebhookIgnored   = "ignored"
)

func (s *Service) MyPayments(ctx context.Context, actor Actor, limit int) ([]facility.Payment, error) {
	if actor.UserID == "" {
		return nil, ErrUnauthenticated
	}
	return s.store.ListPaymentsByUser(ctx, actor.UserID, limit)
}

// ApplyPaymentEvent settles a booking from a verified provider webhook.
// Replayed deliveries are recorded once and otherwise ignored.
func (s *Service) ApplyPaymentEvent(ctx context.Context, evt payments.WebhookEvent) (string, error) {
	outcome := WebhookApplied
	err := s.store.InTx(ctx, func(q Queries) error {
		err := q.InsertProviderEvent(ctx, storage.ProviderEvent{
			Provider:        payments.ProviderStripe,
			ProviderEventID: evt.ID,
			EventType:       evt.Type,
			Payload:         evt.Payload,
		})
		if errors.Is(err, storage.ErrDuplicate) {
			outcome = WebhookDuplicate
			return nil
		}
		if err != nil {
			return err
		}
		if !evt.Settles() || evt.SessionID == "" {
			outcome = WebhookIgnored
			return nil
		}

		p, err := q.LockPaymentBySession(ctx, payments.ProviderStripe, evt.SessionID)
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("payment event for unknown session", "provider_event_id", evt.ID, "session_id", evt.SessionID)
			outcome = WebhookIgnored
			return nil
		}
		if err != nil {
			return err
		}
		if p.Status != facility.PaymentPending {
			outcome = WebhookIgnored
			return nil
		}

		b, err := q.LockBooking(ctx, p.BookingID)
		if err != nil {
			return err
		}

		switch evt.Type {
		case payments.EventCheckoutCompleted:
			paidAt := evt.Created
			if err := q.SetPaymentStatus(ctx, p.ID, facility.PaymentCompleted, &paidAt); err != nil {
				return err
			}
			if b.Status != facility.StatusPending {
				// Paid after the hold expired; the slot may be gone.
				s.logger.Warn("payment completed for non-pending booking", "booking_id", b.ID, "status", b.Status)
				return nil
			}
			b.Status = facility.StatusConfirmed
			if err := q.UpdateBooking(ctx, &b); err != nil {
				return err
			}
			s.logger.Info("booking confirmed", "booking_id", b.ID, "payment_id", p.ID)
			return s.emitBooking(ctx, q, facility.TopicBookingConfirmed, b, b.RequesterID, "")

		case payments.EventCheckoutExpired:
			if b.Status != facility.StatusPending {
				return q.SetPaymentStatus(ctx, p.ID, facility.PaymentFailed, nil)
			}
			return s.cancel(ctx, q, &b, "", ReasonPaymentExpired)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("payment provider event processed", "provider_event_id", evt.ID, "event_type", evt.Type, "outcome", outcome)
	return outcome, nil
}

// ExpireStalePending cancels up to limit bookings still awaiting payment
// after the pending TTL, freeing their slots.
func (s *Service) ExpireStalePending(ctx context.Context, limit int) (int, error) {
	var n int
	err := s.store.InTx(ctx, func(q Queries) error {
		stale, err := q.LockStalePending(ctx, s.now().Add(-s.pendingTTL), limit)
		if err != nil {
			return err
		}
		for i := range stale {
			if err := s.cancel(ctx, q, &stale[i], "", ReasonPaymentTimeout); err != nil {
				return err
			}
		}
		n = len(stale)
		return nil
	})
	return n, err
}
