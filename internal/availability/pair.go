package availability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/clinicbook/reservation-platform/internal/catalog"
)

// PairSlots computes the mutually bookable slots for two or more participants
// who must be hosted together in one pair-group. Per-participant evaluations
// run sequentially over the same catalog snapshot and date window; only
// datetimes available for every participant and admitting a pair-group room
// assignment survive. An empty list is a normal "no mutual availability"
// outcome.
func (e *Engine) PairSlots(ctx context.Context, participants []Participant, fromDate time.Time, rangeDays int) ([]PairSlot, error) {
	ctx, span := tracer.Start(ctx, "availability.pair")
	defer span.End()
	span.SetAttributes(attribute.Int("clinicbook.participants", len(participants)))

	shared, err := e.evaluateParticipants(ctx, "pair", participants, fromDate, rangeDays)
	if err != nil {
		return nil, err
	}

	rooms := NewRoomResolver(shared.snap)
	var out []PairSlot
	for _, slot := range shared.intersection {
		assignment, ok := rooms.AssignPairGroup(shared.requirements)
		if !ok {
			continue
		}
		ps := PairSlot{
			Date:        slot.Date,
			Time:        slot.Time,
			DateTime:    slot.DateTime,
			PairGroupID: assignment.GroupID,
		}
		for i, p := range participants {
			ps.Assignments = append(ps.Assignments, ParticipantAssignment{
				PatientID: p.PatientID,
				MenuID:    shared.selectedMenus[i],
				Room:      roomInfo(assignment.Rooms[i], shared.requirements[i]),
			})
		}
		out = append(out, ps)
	}

	e.metrics.ObserveEvaluation("pair", "ok", len(out))
	e.logger.Info("pair availability evaluated",
		"participants", len(participants),
		"mutual_slots", len(out),
	)
	return out, nil
}

// GroupSlots computes mutually bookable slots for N participants who book
// independently (no pair-group constraint). It only verifies aggregate room
// capacity by capability; no concrete rooms are reserved, so this is a weaker
// guarantee than PairSlots.
func (e *Engine) GroupSlots(ctx context.Context, participants []Participant, fromDate time.Time, rangeDays int) ([]GroupSlot, error) {
	ctx, span := tracer.Start(ctx, "availability.group")
	defer span.End()
	span.SetAttributes(attribute.Int("clinicbook.participants", len(participants)))

	shared, err := e.evaluateParticipants(ctx, "group", participants, fromDate, rangeDays)
	if err != nil {
		return nil, err
	}

	rooms := NewRoomResolver(shared.snap)
	var out []GroupSlot
	if rooms.HasAggregateCapacity(shared.requirements) {
		for _, slot := range shared.intersection {
			out = append(out, GroupSlot{Date: slot.Date, Time: slot.Time, DateTime: slot.DateTime})
		}
	}

	e.metrics.ObserveEvaluation("group", "ok", len(out))
	return out, nil
}

// multiEvaluation carries the shared state of one multi-party evaluation.
type multiEvaluation struct {
	snap          *catalog.Snapshot
	requirements  []RoomRequirement
	selectedMenus []string
	intersection  []Slot
}

// evaluateParticipants validates the request, loads one snapshot, runs the
// single-patient pipeline per participant, and intersects the available
// datetimes. Intersection is keyed by exact datetime at the provider's own
// granularity; there is no tolerance window.
func (e *Engine) evaluateParticipants(ctx context.Context, mode string, participants []Participant, fromDate time.Time, rangeDays int) (*multiEvaluation, error) {
	if len(participants) < 2 {
		e.metrics.ObserveEvaluation(mode, "validation_error", 0)
		return nil, newValidationError("participants", "at least two participants are required")
	}
	for i, p := range participants {
		if err := e.validateRequest(p.PatientID, p.MenuID, fromDate); err != nil {
			e.metrics.ObserveEvaluation(mode, "validation_error", 0)
			return nil, fmt.Errorf("participant %d: %w", i, err)
		}
	}

	snap, err := e.catalogs.Snapshot(ctx)
	if err != nil {
		e.metrics.ObserveEvaluation(mode, "catalog_error", 0)
		return nil, fmt.Errorf("availability: load catalog snapshot: %w", err)
	}

	opts := Options{DateRangeDays: rangeDays, IncludeRoomInfo: true}
	shared := &multiEvaluation{snap: snap}

	// Sequential fan-out: one provider fetch per participant per window.
	available := make(map[time.Time]int)
	var firstSlots []Slot
	for _, p := range participants {
		res, req, err := e.evaluate(ctx, snap, p.PatientID, p.MenuID, fromDate, opts)
		if err != nil {
			e.metrics.ObserveEvaluation(mode, statusForError(err), 0)
			return nil, err
		}
		shared.requirements = append(shared.requirements, req)
		shared.selectedMenus = append(shared.selectedMenus, res.SelectedMenuID)
		if res.SelectedMenuID == "" {
			// An ineligible participant makes the intersection empty.
			shared.intersection = nil
			return shared, nil
		}
		for _, slot := range res.Slots {
			if slot.Available {
				available[slot.DateTime]++
			}
		}
		if firstSlots == nil {
			firstSlots = res.Slots
		}
	}

	for _, slot := range firstSlots {
		if slot.Available && available[slot.DateTime] == len(participants) {
			shared.intersection = append(shared.intersection, slot)
		}
	}
	return shared, nil
}
