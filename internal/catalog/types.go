// Package catalog exposes the clinic's menu, room, and treatment-interval
// configuration as immutable snapshots. The availability engine never reads
// the backing store directly; it receives a Snapshot per evaluation.
package catalog

import "time"

// MenuVariant identifies which visit-history rule a menu row is subject to.
type MenuVariant string

const (
	VariantFirstTime MenuVariant = "first_time"
	VariantRepeat    MenuVariant = "repeat"
	VariantTicket    MenuVariant = "ticket"
)

// Menu is one bookable variant of a treatment. Variants sharing a BaseMenuID
// describe the same treatment: exactly one first_time and one repeat row, plus
// zero or more ticket rows.
type Menu struct {
	ID              string      `json:"id"`
	BaseMenuID      string      `json:"base_menu_id"`
	Name            string      `json:"name"`
	Variant         MenuVariant `json:"variant"`
	Category        string      `json:"category"`
	TicketType      string      `json:"ticket_type,omitempty"`
	RequiredTickets int         `json:"required_tickets"`
	DurationMins    int         `json:"duration_mins"`
	Active          bool        `json:"active"`
}

// Room is a physical treatment room. At least one capability flag is true.
// PairGroupID is empty for rooms never used in pair bookings.
type Room struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CanTreatment bool   `json:"can_treatment"`
	CanIV        bool   `json:"can_iv"`
	PairGroupID  string `json:"pair_group_id,omitempty"`
	MaxCapacity  int    `json:"max_capacity"`
	Active       bool   `json:"active"`
}

// IntervalRule sets the minimum days between two uses of a treatment by the
// same patient. A rule keyed by BaseMenuID takes precedence over one keyed by
// Category.
type IntervalRule struct {
	BaseMenuID      string `json:"base_menu_id,omitempty"`
	Category        string `json:"category,omitempty"`
	MinIntervalDays int    `json:"min_interval_days"`
}

// Snapshot is a read-only view of the full configuration, loaded once per
// evaluation (or served from cache). Slices preserve catalog order.
type Snapshot struct {
	Menus         []Menu         `json:"menus"`
	Rooms         []Room         `json:"rooms"`
	IntervalRules []IntervalRule `json:"interval_rules"`
	LoadedAt      time.Time      `json:"loaded_at"`
}

// MenuByID returns the menu with the given id.
func (s *Snapshot) MenuByID(id string) (Menu, bool) {
	for _, m := range s.Menus {
		if m.ID == id {
			return m, true
		}
	}
	return Menu{}, false
}

// VariantsOfBase returns all menu rows sharing a base menu id, in catalog order.
func (s *Snapshot) VariantsOfBase(baseMenuID string) []Menu {
	var out []Menu
	for _, m := range s.Menus {
		if m.BaseMenuID == baseMenuID {
			out = append(out, m)
		}
	}
	return out
}

// BaseMenuOf resolves a requested id that may be either a concrete menu id or
// a base menu id. It returns the base menu id and whether it was found.
func (s *Snapshot) BaseMenuOf(id string) (string, bool) {
	if m, ok := s.MenuByID(id); ok {
		return m.BaseMenuID, true
	}
	for _, m := range s.Menus {
		if m.BaseMenuID == id {
			return id, true
		}
	}
	return "", false
}

// ActiveRooms returns active rooms in catalog order.
func (s *Snapshot) ActiveRooms() []Room {
	var out []Room
	for _, r := range s.Rooms {
		if r.Active {
			out = append(out, r)
		}
	}
	return out
}

// PairGroups returns active rooms grouped by pair group id. The returned slice
// lists group ids in catalog order; rooms within a group keep catalog order too.
func (s *Snapshot) PairGroups() (map[string][]Room, []string) {
	groups := make(map[string][]Room)
	var order []string
	for _, r := range s.Rooms {
		if !r.Active || r.PairGroupID == "" {
			continue
		}
		if _, seen := groups[r.PairGroupID]; !seen {
			order = append(order, r.PairGroupID)
		}
		groups[r.PairGroupID] = append(groups[r.PairGroupID], r)
	}
	return groups, order
}

// IntervalFor returns the interval rule applying to a menu, if any. Base menu
// rules win over category rules.
func (s *Snapshot) IntervalFor(m Menu) (IntervalRule, bool) {
	var byCategory IntervalRule
	var haveCategory bool
	for _, rule := range s.IntervalRules {
		if rule.BaseMenuID != "" && rule.BaseMenuID == m.BaseMenuID {
			return rule, true
		}
		if !haveCategory && rule.Category != "" && rule.Category == m.Category {
			byCategory = rule
			haveCategory = true
		}
	}
	return byCategory, haveCategory
}
