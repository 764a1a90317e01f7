package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tabibah/clinic-platform/internal/tenancy"
	"github.com/tabibah/clinic-platform/pkg/logging"
)

// Handler serves inventory management.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates an inventory handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// List handles GET /api/inventory
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		http.Error(w, "clinic scope required", http.StatusUnauthorized)
		return
	}
	items, err := h.svc.Repo().ListByClinic(r.Context(), clinicID)
	if err != nil {
		h.logger.Error("failed to list inventory", "error", err, "clinic_id", clinicID)
		http.Error(w, "failed to list inventory", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []*Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

type createItemRequest struct {
	Name         string `json:"name"`
	Quantity     int    `json:"quantity"`
	ReorderLevel int    `json:"reorder_level"`
}

// Create handles POST /api/inventory
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		http.Error(w, "clinic scope required", http.StatusUnauthorized)
		return
	}

	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	it, err := h.svc.Create(r.Context(), clinicID, req.Name, req.Quantity, req.ReorderLevel)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

type adjustRequest struct {
	Amount int `json:"amount"`
}

// Consume handles POST /api/inventory/{id}/consume
func (h *Handler) Consume(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.svc.Consume)
}

// Restock handles POST /api/inventory/{id}/restock
func (h *Handler) Restock(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.svc.Restock)
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id string, amount int) (*Item, error)) {
	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 {
		http.Error(w, "amount must be positive", http.StatusUnprocessableEntity)
		return
	}

	it, err := op(r.Context(), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrItemNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrBadQuantity), errors.Is(err, ErrInvalidName):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ErrInsufficientStock):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("inventory operation failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
