package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clinicbook/reservation-platform/internal/catalog"
	"github.com/clinicbook/reservation-platform/internal/history"
	"github.com/clinicbook/reservation-platform/internal/observability/metrics"
	"github.com/clinicbook/reservation-platform/internal/scheduling"
	"github.com/clinicbook/reservation-platform/pkg/logging"
)

var tracer = otel.Tracer("clinicbook.internal.availability")

// SnapshotSource provides the catalog snapshot for one evaluation.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*catalog.Snapshot, error)
}

// EngineConfig wires the engine's collaborators.
type EngineConfig struct {
	Provider scheduling.Provider
	Catalogs SnapshotSource
	History  history.Lookup

	// DefaultRangeDays is used when Options.DateRangeDays is zero. Default 7.
	DefaultRangeDays int

	Logger  *logging.Logger
	Metrics *metrics.AvailabilityMetrics
	Now     func() time.Time
}

// Engine orchestrates availability evaluations. It is stateless between
// calls: every evaluation works on snapshot inputs fetched at its start.
type Engine struct {
	provider         scheduling.Provider
	catalogs         SnapshotSource
	history          history.Lookup
	defaultRangeDays int
	logger           *logging.Logger
	metrics          *metrics.AvailabilityMetrics
	now              func() time.Time
}

// NewEngine validates the config and applies defaults.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Provider == nil {
		return nil, errors.New("availability: provider required")
	}
	if cfg.Catalogs == nil {
		return nil, errors.New("availability: catalog source required")
	}
	if cfg.History == nil {
		return nil, errors.New("availability: history lookup required")
	}
	rangeDays := cfg.DefaultRangeDays
	if rangeDays <= 0 {
		rangeDays = 7
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		provider:         cfg.Provider,
		catalogs:         cfg.Catalogs,
		history:          cfg.History,
		defaultRangeDays: rangeDays,
		logger:           logger,
		metrics:          cfg.Metrics,
		now:              now,
	}, nil
}

// AvailableSlots computes a single patient's bookable slots for a menu over
// [fromDate, fromDate+rangeDays). "No availability" and "no eligible variant"
// are results, not errors: the error return is reserved for bad requests,
// upstream failures, and store failures.
func (e *Engine) AvailableSlots(ctx context.Context, patientID, menuID string, fromDate time.Time, opts Options) (*Result, error) {
	ctx, span := tracer.Start(ctx, "availability.single")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinicbook.patient_id", patientID),
		attribute.String("clinicbook.menu_id", menuID),
	)

	if err := e.validateRequest(patientID, menuID, fromDate); err != nil {
		e.metrics.ObserveEvaluation("single", "validation_error", 0)
		return nil, err
	}

	snap, err := e.catalogs.Snapshot(ctx)
	if err != nil {
		span.RecordError(err)
		e.metrics.ObserveEvaluation("single", "catalog_error", 0)
		return nil, fmt.Errorf("availability: load catalog snapshot: %w", err)
	}

	res, _, err := e.evaluate(ctx, snap, patientID, menuID, fromDate, opts)
	if err != nil {
		span.RecordError(err)
		e.metrics.ObserveEvaluation("single", statusForError(err), 0)
		return nil, err
	}

	e.metrics.ObserveEvaluation("single", "ok", res.TotalAvailable)
	e.logger.Info("availability evaluated",
		"patient_id", patientID,
		"menu_id", menuID,
		"selected_menu_id", res.SelectedMenuID,
		"total_available", res.TotalAvailable,
	)
	return res, nil
}

func (e *Engine) validateRequest(patientID, menuID string, fromDate time.Time) error {
	if patientID == "" {
		return newValidationError("patient_id", "patient id is required")
	}
	if menuID == "" {
		return newValidationError("menu_id", "menu id is required")
	}
	today := dateOnly(e.now())
	if dateOnly(fromDate).Before(today) {
		return newValidationError("from", "from date must not be in the past")
	}
	return nil
}

func statusForError(err error) string {
	switch {
	case IsValidation(err):
		return "validation_error"
	case IsUpstream(err):
		return "upstream_error"
	default:
		return "error"
	}
}

// evaluate runs the single-patient pipeline against an already-loaded
// snapshot so multi-party paths can share one consistent snapshot.
func (e *Engine) evaluate(ctx context.Context, snap *catalog.Snapshot, patientID, menuID string, fromDate time.Time, opts Options) (*Result, RoomRequirement, error) {
	hist, err := e.history.VisitHistory(ctx, patientID)
	if err != nil {
		return nil, RoomRequirement{}, fmt.Errorf("availability: load visit history: %w", err)
	}

	rangeDays := opts.DateRangeDays
	if rangeDays <= 0 {
		rangeDays = e.defaultRangeDays
	}
	from := dateOnly(fromDate)
	to := from.AddDate(0, 0, rangeDays)

	// A menu id absent from the catalog is a configuration gap: log it and
	// report "no eligible variant" rather than failing the call.
	baseMenuID, ok := snap.BaseMenuOf(menuID)
	if !ok {
		e.logger.Warn("requested menu not found in catalog", "menu_id", menuID)
		return &Result{
			Constraints: []string{fmt.Sprintf("menu %s not found in catalog", menuID)},
		}, RoomRequirement{}, nil
	}

	resolver := NewEligibilityResolver(snap, e.logger)

	// The interval rule is applied per candidate slot date, so variant
	// selection is evaluated as of the gate-open date: a window spanning the
	// boundary still selects the repeat variant and simply marks the early
	// units unavailable.
	earliestAllowed, gated := resolver.EarliestAllowedDate(hist, baseMenuID, from)
	eligAsOf := from
	if gated && earliestAllowed.After(eligAsOf) {
		eligAsOf = earliestAllowed
	}
	eligibility := resolver.EligibleVariants(hist, baseMenuID, eligAsOf)

	_, isConcrete := snap.MenuByID(menuID)
	selected, selectedOK := selectVariant(eligibility, menuID, isConcrete)
	constraints := constraintsFrom(eligibility)
	if gated && earliestAllowed.After(from) {
		constraints = append(constraints, fmt.Sprintf("interval rule: next use allowed from %s", earliestAllowed.Format("2006-01-02")))
	}
	if !selectedOK {
		return &Result{Constraints: constraints}, RoomRequirement{}, nil
	}

	fetchStart := e.now()
	units, err := e.provider.FetchRawTimeUnits(ctx, from, to)
	fetchSeconds := e.now().Sub(fetchStart).Seconds()
	if err != nil {
		e.metrics.ObserveUpstreamFetch("error", fetchSeconds)
		return nil, RoomRequirement{}, &UpstreamError{Err: err}
	}
	e.metrics.ObserveUpstreamFetch("ok", fetchSeconds)

	requirement := RequirementFor(snap, selected.MenuID, e.logger)
	rooms := NewRoomResolver(snap)

	slots := make([]Slot, 0, len(units))
	total := 0
	for _, unit := range units {
		slot := Slot{Date: unit.Date, Time: unit.Time, DateTime: unit.DateTime}
		switch {
		case gated && dateOnly(unit.DateTime).Before(earliestAllowed):
			slot.Reason = fmt.Sprintf("interval not satisfied until %s", earliestAllowed.Format("2006-01-02"))
		default:
			room, found := rooms.FindCompatible(requirement, nil)
			if !found {
				slot.Reason = "no compatible room"
				break
			}
			slot.Available = true
			total++
			if opts.IncludeRoomInfo {
				slot.Rooms = []RoomInfo{roomInfo(room, requirement)}
			}
		}
		slots = append(slots, slot)
	}

	return &Result{
		Slots:             slots,
		Constraints:       constraints,
		TotalAvailable:    total,
		SelectedMenuID:    selected.MenuID,
		EligibilityReason: selected.Reason,
	}, requirement, nil
}

// selectVariant picks the variant an evaluation proceeds with. A request for
// a concrete menu id must find that exact variant usable; a request by base
// menu id takes the first usable variant in first_time, repeat, ticket order.
func selectVariant(eligibility []VariantEligibility, requestedID string, concrete bool) (VariantEligibility, bool) {
	if concrete {
		for _, e := range eligibility {
			if e.MenuID == requestedID {
				return e, e.CanUse
			}
		}
		return VariantEligibility{}, false
	}
	order := []catalog.MenuVariant{catalog.VariantFirstTime, catalog.VariantRepeat, catalog.VariantTicket}
	for _, variant := range order {
		for _, e := range eligibility {
			if e.Variant == variant && e.CanUse {
				return e, true
			}
		}
	}
	return VariantEligibility{}, false
}

func constraintsFrom(eligibility []VariantEligibility) []string {
	var out []string
	for _, e := range eligibility {
		if !e.CanUse {
			out = append(out, fmt.Sprintf("menu %s (%s): %s", e.MenuID, e.Variant, e.Reason))
		}
	}
	return out
}

func roomInfo(room catalog.Room, req RoomRequirement) RoomInfo {
	roomType := "treatment"
	if req.NeedsIVRoom {
		roomType = "iv"
	}
	return RoomInfo{ID: room.ID, Name: room.Name, Type: roomType}
}
