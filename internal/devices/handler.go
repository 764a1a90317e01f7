package devices

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tabibah/clinic-platform/internal/http/middleware"
	"github.com/tabibah/clinic-platform/pkg/logging"
)

// Handler serves device-token registration for the mobile apps.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

// NewHandler creates a devices handler.
func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

type registerRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// Register handles POST /api/mobile/devices
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	device, err := h.store.Register(r.Context(), userID, req.Token, req.Platform)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingToken), errors.Is(err, ErrBadPlatform):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			h.logger.Error("device register failed", "error", err, "user_id", userID)
			http.Error(w, "failed to register device", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(device)
}

// List handles GET /api/mobile/devices
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	list, err := h.store.ListActiveByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("device list failed", "error", err, "user_id", userID)
		http.Error(w, "failed to list devices", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*Device{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"devices": list})
}

type unregisterRequest struct {
	Token string `json:"token"`
}

// Unregister handles DELETE /api/mobile/devices
func (h *Handler) Unregister(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req unregisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.store.Unregister(r.Context(), userID, req.Token); err != nil {
		if errors.Is(err, ErrDeviceNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("device unregister failed", "error", err, "user_id", userID)
		http.Error(w, "failed to unregister device", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
