package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// Stripe sessions must stay open at least this long.
const minSessionLifetime = 30 * time.Minute

type StripeConfig struct {
	SecretKey string
	// SuccessURL and CancelURL may contain {BOOKING_ID}.
	SuccessURL string
	CancelURL  string
	// Backends overrides the API endpoints; nil uses Stripe.
	Backends *stripe.Backends
}

type StripeCheckout struct {
	api        *client.API
	successURL string
	cancelURL  string
	now        func() time.Time
}

func NewStripeCheckout(cfg StripeConfig) *StripeCheckout {
	return &StripeCheckout{
		api:        client.New(cfg.SecretKey, cfg.Backends),
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		now:        time.Now,
	}
}

func (s *StripeCheckout) CreateSession(ctx context.Context, p CheckoutParams) (Session, error) {
	currency := strings.ToLower(strings.TrimSpace(p.Currency))
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(expandURL(s.successURL, p.BookingID)),
		CancelURL:         stripe.String(expandURL(s.cancelURL, p.BookingID)),
		ClientReferenceID: stripe.String(p.BookingID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(p.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(p.FacilityName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	if p.Description != "" {
		params.LineItems[0].PriceData.ProductData.Description = stripe.String(p.Description)
	}
	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}
	if !p.ExpiresAt.IsZero() {
		expires := p.ExpiresAt
		if floor := s.now().Add(minSessionLifetime); expires.Before(floor) {
			expires = floor
		}
		params.ExpiresAt = stripe.Int64(expires.Unix())
	}
	params.AddMetadata("booking_id", p.BookingID)
	if p.IdempotencyKey != "" {
		params.IdempotencyKey = stripe.String(p.IdempotencyKey)
	}
	params.Context = ctx

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return Session{ID: sess.ID, URL: sess.URL}, nil
}

func expandURL(tmpl, bookingID string) string {
	return strings.ReplaceAll(tmpl, "{BOOKING_ID}", bookingID)
}
