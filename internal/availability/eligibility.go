package availability

import (
	"fmt"
	"time"

	"github.com/clinicbook/reservation-platform/internal/catalog"
	"github.com/clinicbook/reservation-platform/internal/history"
	"github.com/clinicbook/reservation-platform/pkg/logging"
)

// VariantEligibility is the decision for one menu variant.
type VariantEligibility struct {
	MenuID  string              `json:"menu_id"`
	Variant catalog.MenuVariant `json:"variant"`
	CanUse  bool                `json:"can_use"`
	Reason  string              `json:"reason"`
}

// EligibilityResolver decides which variants of a base menu a patient may use
// at a given date, from an immutable history snapshot.
type EligibilityResolver struct {
	snap   *catalog.Snapshot
	logger *logging.Logger
}

// NewEligibilityResolver creates a resolver over one catalog snapshot.
func NewEligibilityResolver(snap *catalog.Snapshot, logger *logging.Logger) *EligibilityResolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &EligibilityResolver{snap: snap, logger: logger}
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(earlier, later time.Time) int {
	return int(dateOnly(later).Sub(dateOnly(earlier)).Hours() / 24)
}

// lastUse returns the most recent qualifying use of any variant of the base
// menu strictly before asOf.
func (r *EligibilityResolver) lastUse(hist *history.PatientHistory, variants []catalog.Menu, asOf time.Time) (time.Time, bool) {
	menuIDs := make(map[string]bool, len(variants))
	for _, v := range variants {
		menuIDs[v.ID] = true
	}
	uses := hist.UsesOf(menuIDs, asOf)
	if len(uses) == 0 {
		return time.Time{}, false
	}
	last := uses[0].Date
	for _, u := range uses[1:] {
		if u.Date.After(last) {
			last = u.Date
		}
	}
	return last, true
}

// EarliestAllowedDate returns the first date on which the interval rule for
// the base menu is satisfied, given the patient's history. ok is false when no
// prior use or no rule applies (no gate).
func (r *EligibilityResolver) EarliestAllowedDate(hist *history.PatientHistory, baseMenuID string, asOf time.Time) (time.Time, bool) {
	variants := r.activeVariants(baseMenuID)
	if len(variants) == 0 {
		return time.Time{}, false
	}
	last, hasPrior := r.lastUse(hist, variants, asOf)
	if !hasPrior {
		return time.Time{}, false
	}
	rule, ok := r.snap.IntervalFor(variants[0])
	if !ok || rule.MinIntervalDays <= 0 {
		return time.Time{}, false
	}
	return dateOnly(last).AddDate(0, 0, rule.MinIntervalDays), true
}

func (r *EligibilityResolver) activeVariants(baseMenuID string) []catalog.Menu {
	var out []catalog.Menu
	for _, m := range r.snap.VariantsOfBase(baseMenuID) {
		if m.Active {
			out = append(out, m)
		}
	}
	return out
}

// EligibleVariants evaluates every active variant of the base menu for the
// patient as of the given date. Inactive variants are omitted entirely;
// ineligible ones are listed with CanUse=false and a reason.
func (r *EligibilityResolver) EligibleVariants(hist *history.PatientHistory, baseMenuID string, asOf time.Time) []VariantEligibility {
	variants := r.activeVariants(baseMenuID)
	if len(variants) == 0 {
		r.logger.Warn("no active variants for base menu", "base_menu_id", baseMenuID)
		return nil
	}

	last, hasPrior := r.lastUse(hist, variants, asOf)

	// The interval rule is a hard gate: once a prior use exists, every variant
	// is unusable until minIntervalDays have elapsed (boundary inclusive).
	intervalGated := false
	var intervalReason string
	if hasPrior {
		if rule, ok := r.snap.IntervalFor(variants[0]); ok && rule.MinIntervalDays > 0 {
			elapsed := daysBetween(last, asOf)
			if elapsed < rule.MinIntervalDays {
				intervalGated = true
				intervalReason = fmt.Sprintf("interval not satisfied: %d days required, %d elapsed", rule.MinIntervalDays, elapsed)
			}
		}
	}

	out := make([]VariantEligibility, 0, len(variants))
	for _, m := range variants {
		e := VariantEligibility{MenuID: m.ID, Variant: m.Variant}
		switch m.Variant {
		case catalog.VariantFirstTime:
			if hasPrior {
				e.Reason = "first-visit menu already used"
			} else {
				e.CanUse = true
				e.Reason = "first-visit menu"
			}
		case catalog.VariantRepeat:
			if hasPrior {
				e.CanUse = true
				e.Reason = "repeat menu"
			} else {
				e.Reason = "repeat menu requires a prior visit"
			}
		case catalog.VariantTicket:
			balance := hist.TicketBalance(m.TicketType)
			if balance >= m.RequiredTickets {
				e.CanUse = true
				e.Reason = fmt.Sprintf("ticket menu: requires %d, balance %d", m.RequiredTickets, balance)
			} else {
				e.Reason = fmt.Sprintf("requires %d tickets, balance %d", m.RequiredTickets, balance)
			}
		default:
			r.logger.Warn("unknown menu variant", "menu_id", m.ID, "variant", string(m.Variant))
			e.Reason = "unknown variant"
		}

		if intervalGated && e.CanUse {
			e.CanUse = false
			e.Reason = intervalReason
		}
		out = append(out, e)
	}
	return out
}
