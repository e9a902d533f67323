package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/teampro-ai/teampro/libs/httpx"
	"github.com/teampro-ai/teampro/services/facility-service/internal/facilities"
	"github.com/teampro-ai/teampro/services/facility-service/internal/payments"
	"github.com/teampro-ai/teampro/services/facility-service/internal/storage"
)

type Handler struct {
	svc      *facilities.Service
	webhooks *payments.WebhookVerifier
	logger   *slog.Logger
}

// New builds the HTTP surface of the facility service. webhooks is nil when
// Stripe is not configured; the webhook route then answers 503.
func New(svc *facilities.Service, webhooks *payments.WebhookVerifier, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, webhooks: webhooks, logger: logger}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/facilities", h.ListFacilities)
	mux.HandleFunc("POST /api/v1/facilities", h.CreateFacility)
	mux.HandleFunc("GET /api/v1/facilities/{id}", h.GetFacility)
	mux.HandleFunc("PATCH /api/v1/facilities/{id}", h.UpdateFacility)
	mux.HandleFunc("POST /api/v1/facilities/{id}/deactivate", h.DeactivateFacility)

	mux.HandleFunc("GET /api/v1/facilities/{id}/bookings", h.ListBookings)
	mux.HandleFunc("POST /api/v1/facilities/{id}/bookings", h.CreateBooking)
	mux.HandleFunc("POST /api/v1/facilities/{id}/check-conflicts", h.CheckConflicts)
	mux.HandleFunc("GET /api/v1/facilities/{id}/conflicts", h.Conflicts)
	mux.HandleFunc("GET /api/v1/facilities/{id}/calendar", h.Calendar)
	mux.HandleFunc("GET /api/v1/facilities/{id}/free-slots", h.FreeSlots)
	mux.HandleFunc("GET /api/v1/facilities/{id}/real-time-status", h.RealTimeStatus)

	mux.HandleFunc("GET /api/v1/facilities/{id}/blackouts", h.ListBlackouts)
	mux.HandleFunc("POST /api/v1/facilities/{id}/blackouts", h.CreateBlackout)
	mux.HandleFunc("DELETE /api/v1/blackouts/{id}", h.DeleteBlackout)

	mux.HandleFunc("GET /api/v1/bookings/mine", h.MyBookings)
	mux.HandleFunc("GET /api/v1/bookings/{id}", h.GetBooking)
	mux.HandleFunc("PATCH /api/v1/bookings/{id}", h.UpdateBooking)
	mux.HandleFunc("POST /api/v1/bookings/{id}/cancel", h.CancelBooking)

	mux.HandleFunc("GET /api/v1/payments/mine", h.MyPayments)
	mux.HandleFunc("POST /api/v1/payments/webhooks/stripe", h.StripeWebhook)
}

func actorFrom(r *http.Request) facilities.Actor {
	id := httpx.IdentityFromContext(r.Context())
	return facilities.Actor{UserID: id.UserID, Email: id.Email, Role: id.Role}
}

// writeError maps service errors to status codes. The body is the plain-text
// message clients show to people.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *facilities.ValidationError
	switch {
	case errors.As(err, &ve):
		http.Error(w, ve.Message, http.StatusBadRequest)
	case errors.Is(err, facilities.ErrUnauthenticated):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, facilities.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, facilities.ErrSlotTaken),
		errors.Is(err, facilities.ErrUnavailable),
		errors.Is(err, facilities.ErrInactive),
		errors.Is(err, facilities.ErrCancelled):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, payments.ErrProviderUnavailable):
		http.Error(w, "payment provider unavailable", http.StatusBadGateway)
	case r.Context().Err() != nil && errors.Is(err, r.Context().Err()):
		// Client went away; nothing useful to write.
	default:
		h.logger.Error("request failed",
			"request_id", httpx.RequestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"err", err,
		)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// queryTime parses an optional RFC 3339 query parameter.
func queryTime(r *http.Request, name string) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.New("invalid " + name)
	}
	return t, nil
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(r *http.Request, name string) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, errors.New("invalid " + name + ", expected YYYY-MM-DD")
	}
	return t, nil
}

// queryMinutes parses an optional whole number of minutes.
func queryMinutes(r *http.Request, name string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid " + name)
	}
	return time.Duration(n) * time.Minute, nil
}

func queryLimit(r *http.Request) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("limit")))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func queryBool(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get(name)))
	return v
}
