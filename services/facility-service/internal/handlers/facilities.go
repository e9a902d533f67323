package handlers

import (
	"net/http"

	"github.com/teampro-ai/teampro/libs/facility"
	"github.com/teampro-ai/teampro/libs/httpx"
	"github.com/teampro-ai/teampro/services/facility-service/internal/facilities"
)

func (h *Handler) ListFacilities(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListFacilities(r.Context(), actorFrom(r), queryBool(r, "include_inactive"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []facility.Facility{}
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) GetFacility(w http.ResponseWriter, r *http.Request) {
	f, err := h.svc.GetFacility(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, f)
}

func (h *Handler) CreateFacility(w http.ResponseWriter, r *http.Request) {
	var in facilities.FacilityInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f, err := h.svc.CreateFacility(r.Context(), actorFrom(r), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, f)
}

func (h *Handler) UpdateFacility(w http.ResponseWriter, r *http.Request) {
	var patch facilities.FacilityPatch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f, err := h.svc.UpdateFacility(r.Context(), actorFrom(r), r.PathValue("id"), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, f)
}

func (h *Handler) DeactivateFacility(w http.ResponseWriter, r *http.Request) {
	f, err := h.svc.DeactivateFacility(r.Context(), actorFrom(r), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, f)
}
