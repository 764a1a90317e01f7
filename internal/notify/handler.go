package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tabibah/clinic-platform/internal/http/middleware"
	"github.com/tabibah/clinic-platform/internal/patients"
	"github.com/tabibah/clinic-platform/internal/users"
	"github.com/tabibah/clinic-platform/pkg/logging"
)

// PatientResolver maps an authenticated user to their patient record.
type PatientResolver interface {
	GetByUser(ctx context.Context, userID string) (*patients.Patient, error)
}

// Handler serves the in-app notification feed.
type Handler struct {
	store    *Store
	patients PatientResolver
	logger   *logging.Logger
}

// NewHandler creates a notifications handler.
func NewHandler(store *Store, pr PatientResolver, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, patients: pr, logger: logger}
}

// List handles GET /api/notifications?limit=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	recipientID, ok := h.recipientID(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.store.ListByRecipient(r.Context(), recipientID, limit)
	if err != nil {
		h.logger.Error("failed to list notifications", "error", err, "recipient_id", recipientID)
		http.Error(w, "failed to list notifications", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []*Notification{}
	}
	writeJSON(w, http.StatusOK, items)
}

// UnreadCount handles GET /api/notifications/unread-count
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	recipientID, ok := h.recipientID(w, r)
	if !ok {
		return
	}
	count, err := h.store.UnreadCount(r.Context(), recipientID)
	if err != nil {
		h.logger.Error("failed to count unread", "error", err, "recipient_id", recipientID)
		http.Error(w, "failed to count unread", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread_count": count})
}

// MarkRead handles PUT /api/notifications/{id}/read
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	recipientID, ok := h.recipientID(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid notification id", http.StatusBadRequest)
		return
	}
	if err := h.store.MarkRead(r.Context(), recipientID, id); err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to mark read", "error", err, "notification_id", id)
		http.Error(w, "failed to mark read", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllRead handles PUT /api/notifications/read-all
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	recipientID, ok := h.recipientID(w, r)
	if !ok {
		return
	}
	updated, err := h.store.MarkAllRead(r.Context(), recipientID)
	if err != nil {
		h.logger.Error("failed to mark all read", "error", err, "recipient_id", recipientID)
		http.Error(w, "failed to mark all read", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

// Delete handles DELETE /api/notifications/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	recipientID, ok := h.recipientID(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid notification id", http.StatusBadRequest)
		return
	}
	if err := h.store.Delete(r.Context(), recipientID, id); err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete notification", "error", err, "notification_id", id)
		http.Error(w, "failed to delete notification", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// recipientID resolves the notification feed owner. Patients are addressed by
// their patient record, everyone else by their user account.
func (h *Handler) recipientID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}
	userID := claims.Subject
	if claims.Role == users.RolePatient && h.patients != nil {
		patient, err := h.patients.GetByUser(r.Context(), userID)
		if err != nil {
			http.Error(w, "patient not found", http.StatusNotFound)
			return "", false
		}
		return patient.ID, true
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
