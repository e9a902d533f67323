// Package dispatch turns facility events into in-app notifications, emails
// and operator SMS alerts.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/teampro-ai/teampro/libs/facility"
	"github.com/teampro-ai/teampro/services/notification-service/internal/email"
	"github.com/teampro-ai/teampro/services/notification-service/internal/sms"
	"github.com/teampro-ai/teampro/services/notification-service/internal/storage"
)

// Topics lists every topic the dispatcher understands.
var Topics = []string{
	facility.TopicBookingCreated,
	facility.TopicBookingConfirmed,
	facility.TopicBookingCancelled,
	facility.TopicConflictsDetected,
}

type Store interface {
	Insert(ctx context.Context, n *storage.Notification) error
}

// FacilityNamer resolves a facility id to a display name.
type FacilityNamer interface {
	FacilityName(ctx context.Context, id string) string
}

type Config struct {
	// OpsPhone receives an SMS for every conflict batch. Empty disables it.
	OpsPhone string
}

type Dispatcher struct {
	store  Store
	email  email.Sender
	sms    sms.Sender
	names  FacilityNamer
	cfg    Config
	logger *slog.Logger
}

func New(store Store, emailSender email.Sender, smsSender sms.Sender, names FacilityNamer, cfg Config, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{store: store, email: emailSender, sms: smsSender, names: names, cfg: cfg, logger: logger}
}

func (d *Dispatcher) Handle(ctx context.Context, msg kafka.Message) error {
	switch msg.Topic {
	case facility.TopicBookingCreated, facility.TopicBookingConfirmed, facility.TopicBookingCancelled:
		var evt facility.BookingEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			// A malformed payload never becomes valid on redelivery.
			d.logger.Error("invalid booking event", "topic", msg.Topic, "err", err)
			return nil
		}
		return d.booking(ctx, msg.Topic, evt)
	case facility.TopicConflictsDetected:
		var evt facility.ConflictsDetectedEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			d.logger.Error("invalid conflict event", "err", err)
			return nil
		}
		return d.conflicts(ctx, evt)
	default:
		d.logger.Warn("unhandled topic", "topic", msg.Topic)
		return nil
	}
}

func (d *Dispatcher) booking(ctx context.Context, topic string, evt facility.BookingEvent) error {
	b := evt.Booking
	name := d.facilityName(ctx, b.FacilityID)
	when := formatRange(b.StartTime, b.EndTime)

	n := &storage.Notification{BookingID: b.ID, FacilityID: b.FacilityID}
	n.UserID = b.RequesterID
	switch topic {
	case facility.TopicBookingCreated:
		if b.Status == facility.StatusPending {
			n.Type = facility.NotificationInfo
			n.Title = "Booking awaiting payment"
			n.Message = fmt.Sprintf("%q at %s (%s) is held until payment completes.", b.Title, name, when)
		} else {
			n.Type = facility.NotificationSuccess
			n.Title = "Booking confirmed"
			n.Message = fmt.Sprintf("%q at %s (%s) is confirmed.", b.Title, name, when)
		}
	case facility.TopicBookingConfirmed:
		n.Type = facility.NotificationSuccess
		n.Title = "Payment received"
		n.Message = fmt.Sprintf("Payment received. %q at %s (%s) is confirmed.", b.Title, name, when)
	case facility.TopicBookingCancelled:
		n.Type = facility.NotificationWarning
		n.Title = "Booking cancelled"
		n.Message = fmt.Sprintf("%q at %s (%s) was cancelled.", b.Title, name, when)
		if reason := strings.TrimSpace(evt.Reason); reason != "" {
			n.Message += " Reason: " + reason
		}
	}

	if err := d.store.Insert(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	d.sendEmail(b.RequesterEmail, n.Title, n.Message)
	return nil
}

func (d *Dispatcher) conflicts(ctx context.Context, evt facility.ConflictsDetectedEvent) error {
	if len(evt.Conflicts) == 0 {
		return nil
	}
	name := d.facilityName(ctx, evt.FacilityID)

	seen := map[string]struct{}{}
	for _, c := range evt.Conflicts {
		b := c.Booking
		if _, ok := seen[b.RequesterID]; ok || b.RequesterID == "" {
			continue
		}
		seen[b.RequesterID] = struct{}{}

		n := &storage.Notification{BookingID: b.ID, FacilityID: evt.FacilityID}
		n.UserID = b.RequesterID
		n.Type = facility.NotificationWarning
		n.Title = "Booking conflict detected"
		n.Message = conflictMessage(name, evt.Cause, c)
		if err := d.store.Insert(ctx, n); err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
		d.sendEmail(b.RequesterEmail, n.Title, n.Message)
	}

	if d.cfg.OpsPhone != "" && d.sms != nil {
		body := fmt.Sprintf("TeamPro: %d conflict(s) at %s (%s)", len(evt.Conflicts), name, evt.Cause)
		if err := d.sms.Send(ctx, d.cfg.OpsPhone, body); err != nil {
			d.logger.Warn("sms send failed", "provider", d.sms.ProviderID(), "err", err)
		}
	}
	return nil
}

func conflictMessage(name, cause string, c facility.Conflict) string {
	overlap := formatRange(c.OverlapStart, c.OverlapEnd)
	switch {
	case c.Blackout != nil:
		msg := fmt.Sprintf("%q at %s overlaps a blackout (%s).", c.Booking.Title, name, overlap)
		if c.Blackout.Reason != "" {
			msg += " Reason: " + c.Blackout.Reason
		}
		return msg
	case c.ConflictingBooking != nil:
		msg := fmt.Sprintf("%q at %s overlaps %q (%s).", c.Booking.Title, name, c.ConflictingBooking.Title, overlap)
		if cause == facility.CauseAdminOverride {
			msg += " An administrator allowed the overlap."
		}
		return msg
	default:
		return fmt.Sprintf("%q at %s has a scheduling conflict (%s).", c.Booking.Title, name, overlap)
	}
}

// Email is best effort; the in-app notification is the record.
func (d *Dispatcher) sendEmail(to, subject, body string) {
	if d.email == nil || strings.TrimSpace(to) == "" {
		return
	}
	if err := d.email.Send(to, subject, body); err != nil {
		d.logger.Warn("email send failed", "to", to, "err", err)
	}
}

func (d *Dispatcher) facilityName(ctx context.Context, id string) string {
	if d.names == nil {
		return id
	}
	return d.names.FacilityName(ctx, id)
}

func formatRange(start, end time.Time) string {
	start, end = start.UTC(), end.UTC()
	if start.Format(time.DateOnly) == end.Format(time.DateOnly) {
		return fmt.Sprintf("%s %s-%s UTC", start.Format("Mon Jan 2"), start.Format("15:04"), end.Format("15:04"))
	}
	return fmt.Sprintf("%s - %s UTC", start.Format("Mon Jan 2 15:04"), end.Format("Mon Jan 2 15:04"))
}
