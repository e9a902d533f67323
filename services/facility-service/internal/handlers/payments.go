package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/teampro-ai/teampro/libs/facility"
	"github.com/teampro-ai/teampro/libs/httpx"
	"github.com/teampro-ai/teampro/services/facility-service/internal/payments"
)

const maxWebhookBody = 1 << 20

func (h *Handler) MyPayments(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.MyPayments(r.Context(), actorFrom(r), queryLimit(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []facility.Payment{}
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

// StripeWebhook settles bookings from Stripe checkout events. There is no
// caller identity here; the signature is the authentication.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	if h.webhooks == nil {
		http.Error(w, "stripe webhook not configured", http.StatusServiceUnavailable)
		return
	}
	sig := r.Header.Get("Stripe-Signature")
	if strings.TrimSpace(sig) == "" {
		http.Error(w, "missing Stripe-Signature header", http.StatusBadRequest)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	evt, err := h.webhooks.Parse(body, sig)
	if err != nil {
		if errors.Is(err, payments.ErrInvalidSignature) {
			http.Error(w, "invalid signature", http.StatusBadRequest)
			return
		}
		http.Error(w, "invalid event payload", http.StatusBadRequest)
		return
	}
	h.logger.Info("payment provider event received",
		"provider", payments.ProviderStripe,
		"provider_event_id", evt.ID,
		"event_type", evt.Type,
		"session_id", evt.SessionID,
	)

	outcome, err := h.svc.ApplyPaymentEvent(r.Context(), evt)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": outcome})
}
