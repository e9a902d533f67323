// Command stripe-webhook-sim signs a fake Stripe checkout event and posts it
// to the facility service webhook, settling a pending booking locally.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79/webhook"
	"github.com/teampro-ai/teampro/libs/config"
	"github.com/teampro-ai/teampro/libs/runtime"
)

const (
	eventCompleted = "checkout.session.completed"
	eventExpired   = "checkout.session.expired"
)

func main() {
	_ = runtime.LoadDotEnv()
	var (
		baseURL   = flag.String("base-url", config.String("BASE_URL", "http://localhost:8080"), "gateway base url")
		evtType   = flag.String("type", config.String("STRIPE_EVENT_TYPE", eventCompleted), "checkout.session.completed or checkout.session.expired")
		sessionID = flag.String("session-id", config.String("CHECKOUT_SESSION_ID", ""), "checkout session id (provider_session_id of the payment)")
		bookingID = flag.String("booking-id", config.String("BOOKING_ID", ""), "booking_id metadata")
		secret    = flag.String("secret", config.String("STRIPE_WEBHOOK_SECRET", ""), "stripe webhook signing secret (whsec_...)")
	)
	flag.Parse()

	if strings.TrimSpace(*secret) == "" {
		fatal("STRIPE_WEBHOOK_SECRET is required")
	}
	if strings.TrimSpace(*sessionID) == "" {
		fatal("--session-id is required")
	}

	now := time.Now().UTC()
	payload, err := buildEventJSON(fmt.Sprintf("evt_test_%d", now.UnixNano()), *evtType, now, *sessionID, *bookingID)
	if err != nil {
		fatal(err.Error())
	}
	header := signatureHeader(payload, *secret, now)

	req, err := http.NewRequest(http.MethodPost, strings.TrimRight(*baseURL, "/")+"/api/v1/payments/webhooks/stripe", bytes.NewReader(payload))
	if err != nil {
		fatal(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", header)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fatal(err.Error())
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))

	fmt.Printf("status=%d %s\n", resp.StatusCode, strings.TrimSpace(string(body)))
	if resp.StatusCode >= 300 {
		os.Exit(1)
	}
}

func signatureHeader(payload []byte, secret string, at time.Time) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: at,
		Scheme:    "v1",
	}).Header
}

func buildEventJSON(eventID, eventType string, t time.Time, sessionID, bookingID string) ([]byte, error) {
	session := map[string]any{
		"id":     sessionID,
		"object": "checkout.session",
	}
	switch eventType {
	case eventCompleted:
		session["status"] = "complete"
		session["payment_status"] = "paid"
	case eventExpired:
		session["status"] = "expired"
		session["payment_status"] = "unpaid"
	default:
		return nil, fmt.Errorf("unsupported event type: %s", eventType)
	}
	if bookingID != "" {
		session["client_reference_id"] = bookingID
		session["metadata"] = map[string]string{"booking_id": bookingID}
	}
	return json.Marshal(map[string]any{
		"id":          eventID,
		"object":      "event",
		"created":     t.Unix(),
		"type":        eventType,
		"api_version": "2024-06-20",
		"data":        map[string]any{"object": session},
	})
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
