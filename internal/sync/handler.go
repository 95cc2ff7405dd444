package sync

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clinicbook/reservation-platform/internal/http/middleware"
	"github.com/clinicbook/reservation-platform/pkg/logging"
)

// Handler exposes sync job management to admin callers.
type Handler struct {
	publisher *Publisher
	runs      RunRecorder
	logger    *logging.Logger
}

// NewHandler creates a sync admin handler. The run recorder is optional.
func NewHandler(publisher *Publisher, runs RunRecorder, logger *logging.Logger) *Handler {
	if publisher == nil {
		panic("sync: publisher required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{publisher: publisher, runs: runs, logger: logger}
}

// RegisterRoutes mounts the sync endpoints on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sync", h.EnqueueSync)
	r.Get("/sync/runs/{runID}", h.GetRun)
}

type enqueueRequest struct {
	Kind       string `json:"kind"`
	WindowDays int    `json:"window_days"`
}

// EnqueueSync handles POST /sync.
func (h *Handler) EnqueueSync(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	requestedBy := "admin"
	if claims, ok := middleware.AdminClaimsFromContext(r.Context()); ok && claims.Subject != "" {
		requestedBy = claims.Subject
	}

	runID, err := h.publisher.Enqueue(r.Context(), req.Kind, req.WindowDays, requestedBy)
	if err != nil {
		if errors.Is(err, ErrUnknownKind) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("enqueue sync job failed", "kind", req.Kind, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"run_id": runID})
}

// GetRun handles GET /sync/runs/{runID}.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		http.Error(w, "run ledger not configured", http.StatusNotFound)
		return
	}
	runID := chi.URLParam(r, "runID")

	run, err := h.runs.GetRun(r.Context(), runID)
	if err != nil {
		if errors.Is(err, ErrRunNotFound) {
			http.Error(w, "run not found", http.StatusNotFound)
			return
		}
		h.logger.Error("fetch sync run failed", "run_id", runID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(run)
}
