package handlers

import (
	"net/http"
	"time"

	"github.com/teampro-ai/teampro/libs/availability"
	"github.com/teampro-ai/teampro/libs/facility"
	"github.com/teampro-ai/teampro/libs/httpx"
)

type calendarDay struct {
	Date  string                  `json:"date"`
	Slots []availability.TimeSlot `json:"slots"`
}

type calendarResponse struct {
	FacilityID string                `json:"facility_id"`
	View       availability.ViewMode `json:"view"`
	Days       []calendarDay         `json:"days"`
}

type freeSlotsResponse struct {
	FacilityID string                  `json:"facility_id"`
	Duration   int                     `json:"duration_minutes"`
	Slots      []availability.Interval `json:"slots"`
}

func (h *Handler) Conflicts(w http.ResponseWriter, r *http.Request) {
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
	list, err := h.svc.Conflicts(r.Context(), r.PathValue("id"), from, to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []facility.Conflict{}
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	date, err := queryDate(r, "date")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	mode := availability.ParseViewMode(r.URL.Query().Get("view"))
	facilityID := r.PathValue("id")

	days, err := h.svc.Calendar(r.Context(), facilityID, date, mode)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := calendarResponse{FacilityID: facilityID, View: mode, Days: make([]calendarDay, 0, len(days))}
	for _, d := range days {
		resp.Days = append(resp.Days, calendarDay{Date: d.Date.Format(time.DateOnly), Slots: d.Slots})
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) FreeSlots(w http.ResponseWriter, r *http.Request) {
	date, err := queryDate(r, "date")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	duration, err := queryMinutes(r, "duration_minutes", time.Hour)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	step, err := queryMinutes(r, "step_minutes", 30*time.Minute)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	facilityID := r.PathValue("id")
	slots, err := h.svc.FreeSlots(r.Context(), facilityID, date, duration, step)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, freeSlotsResponse{
		FacilityID: facilityID,
		Duration:   int(duration / time.Minute),
		Slots:      slots,
	})
}

func (h *Handler) RealTimeStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.RealTimeStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, st)
}
