package reservations

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clinicbook/reservation-platform/pkg/logging"
)

// Handler exposes reservation CRUD over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a reservations handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("reservations: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts the reservation endpoints on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/reservations", h.CreateReservation)
	r.Get("/reservations/{reservationID}", h.GetReservation)
	r.Get("/patients/{patientID}/reservations", h.ListPatientReservations)
	r.Delete("/reservations/{reservationID}", h.CancelReservation)
}

// CreateReservation handles POST /reservations.
func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.service.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidRequest) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("create reservation failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

// GetReservation handles GET /reservations/{reservationID}.
func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "reservationID")
	if id == "" {
		http.Error(w, "missing reservationID", http.StatusBadRequest)
		return
	}

	res, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "reservation not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get reservation failed", "reservation_id", id, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// ListPatientReservations handles GET /patients/{patientID}/reservations.
func (h *Handler) ListPatientReservations(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")
	if patientID == "" {
		http.Error(w, "missing patientID", http.StatusBadRequest)
		return
	}

	list, err := h.service.ListByPatient(r.Context(), patientID)
	if err != nil {
		h.logger.Error("list reservations failed", "patient_id", patientID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []Reservation{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"reservations": list,
		"total":        len(list),
	})
}

// CancelReservation handles DELETE /reservations/{reservationID}.
func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "reservationID")
	if id == "" {
		http.Error(w, "missing reservationID", http.StatusBadRequest)
		return
	}

	if err := h.service.Cancel(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "reservation not found", http.StatusNotFound)
			return
		}
		h.logger.Error("cancel reservation failed", "reservation_id", id, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
