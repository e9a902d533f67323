package main

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

func TestBuildEventJSON_SignedCheckoutSession(t *testing.T) {
	now := time.Now().UTC()
	payload, err := buildEventJSON("evt_1", eventExpired, now, "cs_test_1", "booking-1")
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	evt, err := webhook.ConstructEventWithOptions(payload, signatureHeader(payload, "whsec_test", now), "whsec_test",
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		t.Fatalf("expected a verifiable signature, got %v", err)
	}
	if string(evt.Type) != eventExpired {
		t.Fatalf("expected %s, got %s", eventExpired, evt.Type)
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.ID != "cs_test_1" || session.Metadata["booking_id"] != "booking-1" {
		t.Fatalf("unexpected session %+v", session)
	}
}

func TestBuildEventJSON_RejectsUnknownType(t *testing.T) {
	if _, err := buildEventJSON("evt_1", "invoice.paid", time.Now(), "cs_1", ""); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}
