package payments

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
)

var ErrInvalidSignature = errors.New("invalid signature")

// WebhookEvent is the part of a Stripe event the facility service acts on.
type WebhookEvent struct {
	ID        string
	Type      string
	Created   time.Time
	SessionID string
	BookingID string
	Payload   []byte
}

// Settles reports whether the event completes or abandons a checkout.
func (e WebhookEvent) Settles() bool {
	return e.Type == EventCheckoutCompleted || e.Type == EventCheckoutExpired
}

type WebhookVerifier struct {
	Secret    string
	Tolerance time.Duration
}

// Parse checks the Stripe-Signature header against body and decodes the event.
func (v WebhookVerifier) Parse(body []byte, sigHeader string) (WebhookEvent, error) {
	tol := v.Tolerance
	if tol <= 0 {
		tol = webhook.DefaultTolerance
	}
	evt, err := webhook.ConstructEventWithOptions(body, sigHeader, v.Secret, webhook.ConstructEventOptions{
		Tolerance:                tol,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return WebhookEvent{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := WebhookEvent{
		ID:      evt.ID,
		Type:    string(evt.Type),
		Created: time.Unix(evt.Created, 0).UTC(),
		Payload: body,
	}
	if !out.Settles() || evt.Data == nil {
		return out, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &session); err != nil {
		return WebhookEvent{}, fmt.Errorf("invalid checkout session payload: %w", err)
	}
	out.SessionID = session.ID
	out.BookingID = strings.TrimSpace(session.Metadata["booking_id"])
	if out.BookingID == "" {
		out.BookingID = strings.TrimSpace(session.ClientReferenceID)
	}
	return out, nil
}
