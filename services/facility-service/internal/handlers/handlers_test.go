package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v79/webhook"
	"github.com/teampro-ai/teampro/libs/auth"
	"github.com/teampro-ai/teampro/libs/availability"
	"github.com/teampro-ai/teampro/libs/facility"
	"github.com/teampro-ai/teampro/libs/httpx"
	"github.com/teampro-ai/teampro/services/facility-service/internal/facilities"
	"github.com/teampro-ai/teampro/services/facility-service/internal/facilities/facilitiestest"
	"github.com/teampro-ai/teampro/services/facility-service/internal/payments"
)

const webhookSecret = "whsec_handlers"

var testNow = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

type stubCheckout struct{}

func (stubCheckout) CreateSession(_ context.Context, p payments.CheckoutParams) (payments.Session, error) {
	return payments.Session{ID: "cs_" + p.BookingID, URL: "https://pay.example/" + p.BookingID}, nil
}

type testServer struct {
	store   *facilitiestest.Store
	handler http.Handler
}

func newTestServer(t *testing.T, verifier *payments.WebhookVerifier) *testServer {
	t.Helper()
	store := facilitiestest.NewStore()
	store.Now = func() time.Time { return testNow }
	store.AddFacility(facility.Facility{ID: "court", Name: "Court 1", Capacity: 12, IsActive: true})
	store.AddFacility(facility.Facility{ID: "arena", Name: "Arena", HourlyRateCents: 4000, IsActive: true})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := facilities.New(store, logger, facilities.Config{
		Checkout: stubCheckout{},
		Now:      func() time.Time { return testNow },
	})
	mux := http.NewServeMux()
	New(svc, verifier, logger).Register(mux)
	return &testServer{store: store, handler: httpx.Chain(mux, httpx.WithIdentity)}
}

func (s *testServer) do(t *testing.T, method, path, userID, role string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range header {
		req.Header[k] = v
	}
	if userID != "" {
		req.Header.Set(httpx.HeaderUserID, userID)
		req.Header.Set(httpx.HeaderUserEmail, userID+"@example.com")
		req.Header.Set(httpx.HeaderRole, role)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func bookingBody(startHour, endHour int) map[string]any {
	day := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	return map[string]any{
		"title":      "Practice",
		"start_time": day.Add(time.Duration(startHour) * time.Hour).Format(time.RFC3339),
		"end_time":   day.Add(time.Duration(endHour) * time.Hour).Format(time.RFC3339),
	}
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestCreateBooking_StatusCodes(t *testing.T) {
	s := newTestServer(t, nil)

	rr := s.do(t, http.MethodPost, "/api/v1/facilities/court/bookings", "u1", auth.RoleTeamUser, bookingBody(10, 11), nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	res := decode[facility.CreateBookingResult](t, rr)
	if res.Booking.FacilityID != "court" || res.Booking.Status != facility.StatusConfirmed {
		t.Fatalf("unexpected booking %+v", res.Booking)
	}

	rr = s.do(t, http.MethodPost, "/api/v1/facilities/court/bookings", "u2", auth.RoleTeamUser, bookingBody(10, 12), nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != "time slot already booked" {
		t.Fatalf("expected conflict message, got %q", got)
	}

	body := bookingBody(12, 13)
	delete(body, "title")
	rr = s.do(t, http.MethodPost, "/api/v1/facilities/court/bookings", "u1", auth.RoleTeamUser, body, nil)
	if rr.Code != http.StatusBadRequest || strings.TrimSpace(rr.Body.String()) != "title is required" {
		t.Fatalf("expected 400 title is required, got %d %q", rr.Code, rr.Body.String())
	}

	rr = s.do(t, http.MethodPost, "/api/v1/facilities/court/bookings", "v1", auth.RoleViewOnly, bookingBody(12, 13), nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for view-only, got %d", rr.Code)
	}

	rr = s.do(t, http.MethodPost, "/api/v1/facilities/court/bookings", "", "", bookingBody(12, 13), nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", rr.Code)
	}

	rr = s.do(t, http.MethodPost, "/api/v1/facilities/nope/bookings", "u1", auth.RoleTeamUser, bookingBody(12, 13), nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}

	body = bookingBody(12, 13)
	body["facility_id"] = "arena"
	rr = s.do(t, http.MethodPost, "/api/v1/facilities/court/bookings", "u1", auth.RoleTeamUser, body, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for mismatched facility, got %d", rr.Code)
	}
}

func TestCreateBooking_IdempotencyKey(t *testing.T) {
	s := newTestServer(t, nil)
	h := http.Header{"Idempotency-Key": []string{"abc"}}

	first := s.do(t, http.MethodPost, "/api/v1/facilities/court/bookings", "u1", auth.RoleTeamUser, bookingBody(9, 10), h)
	second := s.do(t, http.MethodPost, "/api/v1/facilities/court/bookings", "u1", auth.RoleTeamUser, bookingBody(9, 10), h)
	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("expected 201 twice, got %d and %d", first.Code, second.Code)
	}
	if second.Header().Get(HeaderIdempotentReplay) != "true" || first.Header().Get(HeaderIdempotentReplay) != "" {
		t.Fatalf("expected only the second response to be a replay")
	}
	a := decode[facility.CreateBookingResult](t, first)
	b := decode[facility.CreateBookingResult](t, second)
	if a.Booking.ID != b.Booking.ID {
		t.Fatalf("expected same booking, got %s and %s", a.Booking.ID, b.Booking.ID)
	}
}

func TestCheckConflictsAndCalendar(t *testing.T) {
	s := newTestServer(t, nil)
	if rr := s.do(t, http.MethodPost, "/api/v1/facilities/court/bookings", "u1", auth.RoleTeamUser, bookingBody(10, 12), nil); rr.Code != http.StatusCreated {
		t.Fatalf("seed booking: %d %s", rr.Code, rr.Body.String())
	}

	rr := s.do(t, http.MethodPost, "/api/v1/facilities/court/check-conflicts", "u2", auth.RoleTeamUser, bookingBody(11, 13), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	check := decode[facility.CheckConflictsResponse](t, rr)
	if len(check.Conflicts) != 1 || check.Conflicts[0].Kind != facility.ConflictBookingOverlap {
		t.Fatalf("unexpected conflicts %+v", check.Conflicts)
	}

	rr = s.do(t, http.MethodPost, "/api/v1/facilities/court/check-conflicts", "u2", auth.RoleTeamUser, bookingBody(13, 14), nil)
	if !strings.Contains(rr.Body.String(), `"conflicts":[]`) {
		t.Fatalf("expected an empty conflicts array, got %s", rr.Body.String())
	}

	rr = s.do(t, http.MethodGet, "/api/v1/facilities/court/calendar?date=2025-03-11&view=day", "u2", auth.RoleTeamUser, nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	cal := decode[calendarResponse](t, rr)
	if len(cal.Days) != 1 || cal.Days[0].Date != "2025-03-11" || len(cal.Days[0].Slots) != availability.SlotsPerDay {
		t.Fatalf("unexpected calendar %+v", cal)
	}
	if got := cal.Days[0].Slots[10-availability.FirstHour].State; got != availability.StateBooked {
		t.Fatalf("expected 10:00 booked, got %s", got)
	}

	rr = s.do(t, http.MethodGet, "/api/v1/facilities/court/calendar?date=11-03-2025", "u2", auth.RoleTeamUser, nil, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", rr.Code)
	}

	rr = s.do(t, http.MethodGet, "/api/v1/facilities/court/free-slots?date=2025-03-11&duration_minutes=120&step_minutes=60", "u2", auth.RoleTeamUser, nil, nil)
	free := decode[freeSlotsResponse](t, rr)
	// 06-08, 07-09, 08-10, then 12-14 through 21-23.
	if rr.Code != http.StatusOK || len(free.Slots) != 13 {
		t.Fatalf("expected 13 free two-hour slots, got %d %+v", rr.Code, free.Slots)
	}
	if free.Duration != 120 {
		t.Fatalf("expected duration_minutes 120, got %d", free.Duration)
	}

	rr = s.do(t, http.MethodGet, "/api/v1/facilities/court/free-slots?date=2025-03-11&duration_minutes=abc", "u2", auth.RoleTeamUser, nil, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad duration_minutes, got %d", rr.Code)
	}
}

func TestCancelBooking_OwnerOnly(t *testing.T) {
	s := newTestServer(t, nil)
	rr := s.do(t, http.MethodPost, "/api/v1/facilities/court/bookings", "u1", auth.RoleTeamUser, bookingBody(9, 10), nil)
	id := decode[facility.CreateBookingResult](t, rr).Booking.ID

	if rr := s.do(t, http.MethodGet, "/api/v1/bookings/"+id, "u2", auth.RoleTeamUser, nil, nil); rr.Code != http.StatusNotFound {
		t.Fatalf("expected other users to get 404, got %d", rr.Code)
	}
	if rr := s.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/cancel", "u2", auth.RoleTeamUser, nil, nil); rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	rr = s.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/cancel", "u1", auth.RoleTeamUser, map[string]string{"reason": "rain"}, nil)
	if rr.Code != http.StatusOK || decode[facility.Booking](t, rr).Status != facility.StatusCancelled {
		t.Fatalf("expected cancelled booking, got %d %s", rr.Code, rr.Body.String())
	}

	rr = s.do(t, http.MethodGet, "/api/v1/bookings/mine", "u1", auth.RoleTeamUser, nil, nil)
	if mine := decode[[]facility.Booking](t, rr); len(mine) != 1 {
		t.Fatalf("expected one booking in history, got %d", len(mine))
	}
	if rr := s.do(t, http.MethodGet, "/api/v1/bookings/mine", "", "", nil, nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestBlackoutRoutes_AdminOnly(t *testing.T) {
	s := newTestServer(t, nil)
	body := map[string]any{
		"reason":     "tournament",
		"start_time": "2025-03-12T06:00:00Z",
		"end_time":   "2025-03-12T23:00:00Z",
	}
	if rr := s.do(t, http.MethodPost, "/api/v1/facilities/court/blackouts", "u1", auth.RoleTeamAdmin, body, nil); rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	rr := s.do(t, http.MethodPost, "/api/v1/facilities/court/blackouts", "ops", auth.RoleAdminOperations, body, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	created := decode[createBlackoutResponse](t, rr)

	rr = s.do(t, http.MethodGet, "/api/v1/facilities/court/blackouts", "u1", auth.RoleTeamUser, nil, nil)
	if list := decode[[]facility.Blackout](t, rr); len(list) != 1 {
		t.Fatalf("expected one blackout, got %d", len(list))
	}
	if rr := s.do(t, http.MethodDelete, "/api/v1/blackouts/"+created.Blackout.ID, "ops", auth.RoleAdminOperations, nil, nil); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestStripeWebhook_ConfirmsBooking(t *testing.T) {
	s := newTestServer(t, &payments.WebhookVerifier{Secret: webhookSecret})
	rr := s.do(t, http.MethodPost, "/api/v1/facilities/arena/bookings", "u1", auth.RoleTeamUser, bookingBody(18, 19), nil)
	res := decode[facility.CreateBookingResult](t, rr)
	if res.Booking.Status != facility.StatusPending || res.CheckoutURL == "" {
		t.Fatalf("expected pending booking with checkout url, got %+v", res)
	}

	payload, _ := json.Marshal(map[string]any{
		"id":          "evt_handlers_1",
		"object":      "event",
		"type":        payments.EventCheckoutCompleted,
		"created":     time.Now().Unix(),
		"api_version": "2019-01-01",
		"data": map[string]any{
			"object": map[string]any{
				"id":       "cs_" + res.Booking.ID,
				"object":   "checkout.session",
				"metadata": map[string]string{"booking_id": res.Booking.ID},
			},
		},
	})
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    webhookSecret,
		Timestamp: time.Now(),
	})

	send := func(sig string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhooks/stripe", bytes.NewReader(signed.Payload))
		if sig != "" {
			req.Header.Set("Stripe-Signature", sig)
		}
		rr := httptest.NewRecorder()
		s.handler.ServeHTTP(rr, req)
		return rr
	}

	if rr := send(""); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without signature, got %d", rr.Code)
	}
	if rr := send("t=1,v1=deadbeef"); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad signature, got %d", rr.Code)
	}
	rr = send(signed.Header)
	if rr.Code != http.StatusOK || decode[map[string]string](t, rr)["status"] != facilities.WebhookApplied {
		t.Fatalf("expected applied, got %d %s", rr.Code, rr.Body.String())
	}
	if b, _ := s.store.Booking(res.Booking.ID); b.Status != facility.StatusConfirmed {
		t.Fatalf("expected confirmed booking, got %s", b.Status)
	}
	rr = send(signed.Header)
	if decode[map[string]string](t, rr)["status"] != facilities.WebhookDuplicate {
		t.Fatalf("expected duplicate, got %s", rr.Body.String())
	}

	rr = s.do(t, http.MethodGet, "/api/v1/payments/mine", "u1", auth.RoleTeamUser, nil, nil)
	pays := decode[[]facility.Payment](t, rr)
	if len(pays) != 1 || pays[0].Status != facility.PaymentCompleted || pays[0].AmountCents != 4000 {
		t.Fatalf("unexpected payments %+v", pays)
	}
}

func TestStripeWebhook_NotConfigured(t *testing.T) {
	s := newTestServer(t, nil)
	rr := s.do(t, http.MethodPost, "/api/v1/payments/webhooks/stripe", "", "", map[string]string{}, http.Header{"Stripe-Signature": []string{"x"}})
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestFacilityAdminRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	in := map[string]any{"name": "Field 3", "capacity": 30, "amenities": []string{"lights"}}
	if rr := s.do(t, http.MethodPost, "/api/v1/facilities", "u1", auth.RoleTeamUser, in, nil); rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	rr := s.do(t, http.MethodPost, "/api/v1/facilities", "root", auth.RoleSuperAdmin, in, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	f := decode[facility.Facility](t, rr)

	if rr := s.do(t, http.MethodPost, "/api/v1/facilities", "root", auth.RoleSuperAdmin, map[string]any{"capacity": 3}, nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing name, got %d", rr.Code)
	}

	rr = s.do(t, http.MethodPatch, "/api/v1/facilities/"+f.ID, "root", auth.RoleSuperAdmin, map[string]any{"capacity": 40}, nil)
	if rr.Code != http.StatusOK || decode[facility.Facility](t, rr).Capacity != 40 {
		t.Fatalf("expected patched capacity, got %d %s", rr.Code, rr.Body.String())
	}

	if rr := s.do(t, http.MethodPost, "/api/v1/facilities/"+f.ID+"/deactivate", "root", auth.RoleSuperAdmin, nil, nil); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	rr = s.do(t, http.MethodGet, "/api/v1/facilities", "u1", auth.RoleTeamUser, nil, nil)
	if list := decode[[]facility.Facility](t, rr); len(list) != 2 {
		t.Fatalf("expected the deactivated facility to be hidden, got %d", len(list))
	}
	rr = s.do(t, http.MethodPost, "/api/v1/facilities/"+f.ID+"/bookings", "u1", auth.RoleTeamUser, bookingBody(9, 10), nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for inactive facility, got %d", rr.Code)
	}
}
