// Package availability implements the reservation eligibility & availability
// engine: given a patient, a treatment menu, and a date window it decides
// which upstream time units are actually bookable once visit-history rules,
// room capabilities, pair-room grouping, and ticket balances are applied.
//
// The engine is a pure computation over snapshot inputs. It owns no storage
// and never mutates the catalogs or history it is handed.
package availability

import "time"

// RoomRequirement is the room capability a menu needs.
type RoomRequirement struct {
	NeedsTreatmentRoom bool
	NeedsIVRoom        bool
}

// RoomInfo is the projection of an assigned room attached to a slot when the
// caller asks for room detail.
type RoomInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"` // "treatment" or "iv"
}

// Slot is one evaluated time unit.
type Slot struct {
	Date      string     `json:"date"`
	Time      string     `json:"time"`
	DateTime  time.Time  `json:"datetime"`
	Available bool       `json:"available"`
	Reason    string     `json:"reason,omitempty"`
	Rooms     []RoomInfo `json:"rooms,omitempty"`
}

// Result is a single-patient evaluation outcome. An empty slot list with
// populated Constraints means the engine determined there is no availability;
// it is not an error.
type Result struct {
	Slots          []Slot   `json:"slots"`
	Constraints    []string `json:"constraints,omitempty"`
	TotalAvailable int      `json:"total_available"`
	// SelectedMenuID is the concrete menu variant the evaluation settled on
	// (relevant when the caller requested a base menu id).
	SelectedMenuID string `json:"selected_menu_id,omitempty"`
	// EligibilityReason explains why the selected variant was usable.
	EligibilityReason string `json:"eligibility_reason,omitempty"`
}

// Options tunes one evaluation. Zero values take the engine defaults.
type Options struct {
	// DateRangeDays is the window length starting at the from date. Default 7.
	DateRangeDays int
	// IncludeRoomInfo attaches assigned room details to available slots. This
	// is a projection only; availability does not depend on it.
	IncludeRoomInfo bool
}

// Participant is one patient/menu pairing in a multi-party evaluation.
type Participant struct {
	PatientID string `json:"patient_id"`
	MenuID    string `json:"menu_id"`
}

// ParticipantAssignment records which room a participant was given for a slot.
type ParticipantAssignment struct {
	PatientID string   `json:"patient_id"`
	MenuID    string   `json:"menu_id"`
	Room      RoomInfo `json:"room"`
}

// PairSlot is one mutually bookable time unit for a pair booking, with the
// satisfying pair-group and its per-participant room assignment.
type PairSlot struct {
	Date        string                  `json:"date"`
	Time        string                  `json:"time"`
	DateTime    time.Time               `json:"datetime"`
	PairGroupID string                  `json:"pair_group_id"`
	Assignments []ParticipantAssignment `json:"assignments"`
}

// GroupSlot is one mutually bookable time unit for N independent participants.
// Unlike PairSlot it carries no concrete room assignment: the group path only
// verifies aggregate capacity.
type GroupSlot struct {
	Date     string    `json:"date"`
	Time     string    `json:"time"`
	DateTime time.Time `json:"datetime"`
}
