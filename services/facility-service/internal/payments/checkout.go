// Package payments creates Stripe Checkout sessions for paid bookings and
// verifies the webhooks that settle them.
package payments

import (
	"context"
	"errors"
	"time"
)

const ProviderStripe = "stripe"

var ErrProviderUnavailable = errors.New("payment provider unavailable")

type CheckoutParams struct {
	BookingID      string
	FacilityName   string
	Description    string
	CustomerEmail  string
	Currency       string
	AmountCents    int64
	ExpiresAt      time.Time
	IdempotencyKey string
}

type Session struct {
	ID  string
	URL string
}

// Checkout starts a hosted payment for a booking.
type Checkout interface {
	CreateSession(ctx context.Context, p CheckoutParams) (Session, error)
}

// Amount is the price of d at an hourly rate, with d rounded up to the
// minute and the result rounded up to the cent.
func Amount(hourlyRateCents int64, d time.Duration) int64 {
	if hourlyRateCents <= 0 || d <= 0 {
		return 0
	}
	minutes := int64((d + time.Minute - 1) / time.Minute)
	return (hourlyRateCents*minutes + 59) / 60
}
