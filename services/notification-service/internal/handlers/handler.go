package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/teampro-ai/teampro/libs/facility"
	"github.com/teampro-ai/teampro/libs/httpx"
	"github.com/teampro-ai/teampro/services/notification-service/internal/storage"
)

type Store interface {
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]facility.Notification, error)
	MarkRead(ctx context.Context, userID, id string) (facility.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
}

type Handler struct {
	store  Store
	logger *slog.Logger
}

func New(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/notifications", h.List)
	mux.HandleFunc("POST /api/v1/notifications/{id}/read", h.MarkRead)
}

type listResponse struct {
	Notifications []facility.Notification `json:"notifications"`
	UnreadCount   int                     `json:"unread_count"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id := httpx.IdentityFromContext(r.Context())
	if !id.Authenticated() {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	unreadOnly := false
	if v := r.URL.Query().Get("unread"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "invalid unread", http.StatusBadRequest)
			return
		}
		unreadOnly = b
	}

	items, err := h.store.ListByUser(r.Context(), id.UserID, unreadOnly, limit)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	unread, err := h.store.CountUnread(r.Context(), id.UserID)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	if items == nil {
		items = []facility.Notification{}
	}
	httpx.WriteJSON(w, http.StatusOK, listResponse{Notifications: items, UnreadCount: unread})
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id := httpx.IdentityFromContext(r.Context())
	if !id.Authenticated() {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	n, err := h.store.MarkRead(r.Context(), id.UserID, r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.internal(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, n)
}

func (h *Handler) internal(w http.ResponseWriter, r *http.Request, err error) {
	if r.Context().Err() != nil {
		return
	}
	h.logger.Error("request failed", "path", r.URL.Path, "err", err, "request_id", httpx.RequestIDFromContext(r.Context()))
	http.Error(w, "internal error", http.StatusInternalServerError)
}
