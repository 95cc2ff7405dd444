package availability

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/clinicbook/reservation-platform/pkg/logging"
)

// Handler exposes the availability engine over HTTP.
type Handler struct {
	engine *Engine
	logger *logging.Logger
	now    func() time.Time
}

// NewHandler creates an availability handler.
func NewHandler(engine *Engine, logger *logging.Logger) *Handler {
	if engine == nil {
		panic("availability: engine required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{engine: engine, logger: logger, now: time.Now}
}

// GetSlots handles GET /availability.
//
// Query parameters: patient_id, menu_id, from (YYYY-MM-DD, default today),
// days, include_rooms.
func (h *Handler) GetSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from := h.now().UTC()
	if raw := q.Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, "invalid from date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		from = parsed
	}

	opts := Options{IncludeRoomInfo: q.Get("include_rooms") == "true"}
	if raw := q.Get("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 {
			http.Error(w, "invalid days, expected a positive integer", http.StatusBadRequest)
			return
		}
		opts.DateRangeDays = days
	}

	res, err := h.engine.AvailableSlots(r.Context(), q.Get("patient_id"), q.Get("menu_id"), from, opts)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type multiPartyRequest struct {
	Participants []Participant `json:"participants"`
	From         string        `json:"from"`
	Days         int           `json:"days"`
}

func (h *Handler) decodeMultiParty(w http.ResponseWriter, r *http.Request) (multiPartyRequest, time.Time, bool) {
	var req multiPartyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return req, time.Time{}, false
	}
	from := h.now().UTC()
	if req.From != "" {
		parsed, err := time.Parse("2006-01-02", req.From)
		if err != nil {
			http.Error(w, "invalid from date, expected YYYY-MM-DD", http.StatusBadRequest)
			return req, time.Time{}, false
		}
		from = parsed
	}
	return req, from, true
}

// PostPairSlots handles POST /availability/pair.
func (h *Handler) PostPairSlots(w http.ResponseWriter, r *http.Request) {
	req, from, ok := h.decodeMultiParty(w, r)
	if !ok {
		return
	}

	slots, err := h.engine.PairSlots(r.Context(), req.Participants, from, req.Days)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if slots == nil {
		slots = []PairSlot{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"slots": slots,
		"total": len(slots),
	})
}

// PostGroupSlots handles POST /availability/group.
func (h *Handler) PostGroupSlots(w http.ResponseWriter, r *http.Request) {
	req, from, ok := h.decodeMultiParty(w, r)
	if !ok {
		return
	}

	slots, err := h.engine.GroupSlots(r.Context(), req.Participants, from, req.Days)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if slots == nil {
		slots = []GroupSlot{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"slots": slots,
		"total": len(slots),
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case IsUpstream(err):
		h.logger.Error("upstream scheduler unavailable", "error", err)
		http.Error(w, "scheduling service unavailable", http.StatusBadGateway)
	default:
		h.logger.Error("availability evaluation failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
