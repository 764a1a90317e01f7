package invoices

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tabibah/clinic-platform/internal/tenancy"
	"github.com/tabibah/clinic-platform/pkg/logging"
)

// Handler serves invoice CRUD and payments.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates an invoices handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Create handles POST /api/invoices
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		http.Error(w, "clinic scope required", http.StatusUnauthorized)
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.ClinicID = clinicID
	if req.PatientID == "" {
		http.Error(w, "patient_id is required", http.StatusUnprocessableEntity)
		return
	}

	inv, err := h.svc.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

// Get handles GET /api/invoices/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	inv, err := h.svc.Repo().GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

type payRequest struct {
	AmountCents int64 `json:"amount_cents"`
}

// Pay handles POST /api/invoices/{id}/payments
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	inv, err := h.svc.RecordPayment(r.Context(), chi.URLParam(r, "id"), req.AmountCents)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// ListByPatient handles GET /api/invoices?patient_id=
func (h *Handler) ListByPatient(w http.ResponseWriter, r *http.Request) {
	patientID := r.URL.Query().Get("patient_id")
	if patientID == "" {
		http.Error(w, "patient_id is required", http.StatusUnprocessableEntity)
		return
	}
	items, err := h.svc.Repo().ListByPatient(r.Context(), patientID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if items == nil {
		items = []*Invoice{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvoiceNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrBadAmount):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ErrOverpayment):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("invoice operation failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
