// Package history exposes a patient's past reservations and prepaid ticket
// balances. The availability engine consumes these read-only.
package history

import (
	"context"
	"time"
)

// ReservationRecord is one historical reservation. Only records whose status
// counts as a completed or upcoming visit are treated as "use" of a treatment.
type ReservationRecord struct {
	ID        string
	PatientID string
	MenuID    string
	Date      time.Time
	Status    string
}

// Statuses that count as a use of a treatment for eligibility purposes.
// Cancellations and no-shows never gate a future booking.
const (
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

// CountsAsUse reports whether a record's status counts toward visit history.
func (r ReservationRecord) CountsAsUse() bool {
	return r.Status == StatusConfirmed || r.Status == StatusCompleted
}

// PatientHistory is the snapshot of one patient's visit history and ticket
// balances used for a single evaluation.
type PatientHistory struct {
	PatientID    string
	Reservations []ReservationRecord
	// Tickets maps ticket type to the remaining balance for the patient's
	// payer entity in the current period.
	Tickets map[string]int
}

// TicketBalance returns the remaining balance for a ticket type, zero when
// the type has never been purchased.
func (h *PatientHistory) TicketBalance(ticketType string) int {
	if h == nil || h.Tickets == nil {
		return 0
	}
	return h.Tickets[ticketType]
}

// UsesOf returns the records counting as uses of any of the given menu ids,
// strictly before the given date, most recent last.
func (h *PatientHistory) UsesOf(menuIDs map[string]bool, before time.Time) []ReservationRecord {
	if h == nil {
		return nil
	}
	var out []ReservationRecord
	for _, rec := range h.Reservations {
		if !rec.CountsAsUse() || !menuIDs[rec.MenuID] {
			continue
		}
		if !rec.Date.Before(before) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Lookup provides visit-history snapshots by patient id.
type Lookup interface {
	VisitHistory(ctx context.Context, patientID string) (*PatientHistory, error)
}
