package handlers

import (
	"net/http"

	"github.com/teampro-ai/teampro/libs/facility"
	"github.com/teampro-ai/teampro/libs/httpx"
	"github.com/teampro-ai/teampro/services/facility-service/internal/facilities"
)

type createBlackoutResponse struct {
	Blackout  facility.Blackout   `json:"blackout"`
	Conflicts []facility.Conflict `json:"conflicts"`
}

func (h *Handler) ListBlackouts(w http.ResponseWriter, r *http.Request) {
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
	list, err := h.svc.ListBlackouts(r.Context(), r.PathValue("id"), from, to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []facility.Blackout{}
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) CreateBlackout(w http.ResponseWriter, r *http.Request) {
	var in facilities.BlackoutInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	bo, conflicts, err := h.svc.CreateBlackout(r.Context(), actorFrom(r), r.PathValue("id"), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if conflicts == nil {
		conflicts = []facility.Conflict{}
	}
	httpx.WriteJSON(w, http.StatusCreated, createBlackoutResponse{Blackout: bo, Conflicts: conflicts})
}

func (h *Handler) DeleteBlackout(w http.ResponseWriter, r *http.Request) {
	bo, err := h.svc.DeleteBlackout(r.Context(), actorFrom(r), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, bo)
}
