package handlers

import (
	"net/http"
	"strings"

	"github.com/teampro-ai/teampro/libs/facility"
	"github.com/teampro-ai/teampro/libs/httpx"
	"github.com/teampro-ai/teampro/services/facility-service/internal/facilities"
)

// HeaderIdempotentReplay marks a create response served from a previous
// request with the same Idempotency-Key.
const HeaderIdempotentReplay = "Idempotent-Replayed"

type updateBookingResponse struct {
	Booking   facility.Booking    `json:"booking"`
	Conflicts []facility.Conflict `json:"conflicts,omitempty"`
}

type cancelBookingRequest struct {
	Reason string `json:"reason" validate:"max=200"`
}

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	from, err := queryTime(r, "from")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := queryTime(r, "to")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	list, err := h.svc.ListBookings(r.Context(), r.PathValue("id"), from, to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []facility.Booking{}
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req facility.CreateBookingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	facilityID := r.PathValue("id")
	if req.FacilityID != "" && strings.TrimSpace(req.FacilityID) != facilityID {
		http.Error(w, "facility_id does not match the request path", http.StatusBadRequest)
		return
	}
	req.FacilityID = facilityID

	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	res, replayed, err := h.svc.CreateBooking(r.Context(), actorFrom(r), req, key)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if replayed {
		w.Header().Set(HeaderIdempotentReplay, "true")
	}
	httpx.WriteJSON(w, http.StatusCreated, res)
}

func (h *Handler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	var req facility.CheckConflictsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	conflicts, err := h.svc.CheckConflicts(r.Context(), r.PathValue("id"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if conflicts == nil {
		conflicts = []facility.Conflict{}
	}
	httpx.WriteJSON(w, http.StatusOK, facility.CheckConflictsResponse{Conflicts: conflicts})
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.GetBooking(r.Context(), actorFrom(r), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) MyBookings(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.MyBookings(r.Context(), actorFrom(r), queryLimit(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []facility.Booking{}
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	var patch facilities.BookingPatch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	b, conflicts, err := h.svc.UpdateBooking(r.Context(), actorFrom(r), r.PathValue("id"), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, updateBookingResponse{Booking: b, Conflicts: conflicts})
}

// CancelBooking accepts an empty body or {"reason": "..."}.
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	var req cancelBookingRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	b, err := h.svc.CancelBooking(r.Context(), actorFrom(r), r.PathValue("id"), req.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, b)
}
