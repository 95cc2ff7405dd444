package availability

import (
	"strings"

	"github.com/clinicbook/reservation-platform/internal/catalog"
	"github.com/clinicbook/reservation-platform/pkg/logging"
)

// Menus whose category mentions an infusion treatment need an IV-capable room;
// everything else uses a standard treatment room.
const infusionKeyword = "infusion"

// RequirementFor maps a menu id to the room capability it needs. A menu
// missing from the catalog falls back to the treatment-room default: degraded
// data is logged, never surfaced as an error.
func RequirementFor(snap *catalog.Snapshot, menuID string, logger *logging.Logger) RoomRequirement {
	m, ok := snap.MenuByID(menuID)
	if !ok {
		if logger != nil {
			logger.Warn("menu missing from catalog, defaulting to treatment room", "menu_id", menuID)
		}
		return RoomRequirement{NeedsTreatmentRoom: true}
	}
	return requirementForMenu(m)
}

func requirementForMenu(m catalog.Menu) RoomRequirement {
	if strings.Contains(strings.ToLower(m.Category), infusionKeyword) {
		return RoomRequirement{NeedsIVRoom: true}
	}
	return RoomRequirement{NeedsTreatmentRoom: true}
}
