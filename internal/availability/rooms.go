package availability

import (
	"github.com/clinicbook/reservation-platform/internal/catalog"
)

// RoomResolver answers room-compatibility questions against one catalog
// snapshot. Assignment is greedy first-fit in catalog order; it never
// backtracks when an earlier pick blocks a later requirement.
type RoomResolver struct {
	rooms      []catalog.Room
	groups     map[string][]catalog.Room
	groupOrder []string
}

// NewRoomResolver builds a resolver over the snapshot's active rooms.
func NewRoomResolver(snap *catalog.Snapshot) *RoomResolver {
	groups, order := snap.PairGroups()
	return &RoomResolver{
		rooms:      snap.ActiveRooms(),
		groups:     groups,
		groupOrder: order,
	}
}

func satisfies(room catalog.Room, req RoomRequirement) bool {
	if req.NeedsTreatmentRoom && !room.CanTreatment {
		return false
	}
	if req.NeedsIVRoom && !room.CanIV {
		return false
	}
	return true
}

// FindCompatible returns the first active room in catalog order that satisfies
// the requirement and is not excluded.
func (r *RoomResolver) FindCompatible(req RoomRequirement, exclude map[string]bool) (catalog.Room, bool) {
	for _, room := range r.rooms {
		if exclude[room.ID] {
			continue
		}
		if satisfies(room, req) {
			return room, true
		}
	}
	return catalog.Room{}, false
}

// PairAssignment is a successful pair-group assignment. Rooms[i] is the room
// given to the participant with requirement i.
type PairAssignment struct {
	GroupID string
	Rooms   []catalog.Room
}

// AssignPairGroup finds the first pair-group, in catalog order, whose rooms
// can host every requirement without reuse. Within a group each requirement
// takes the first not-yet-used satisfying room. Group iteration order is
// catalog order, not best fit.
func (r *RoomResolver) AssignPairGroup(reqs []RoomRequirement) (PairAssignment, bool) {
	if len(reqs) == 0 {
		return PairAssignment{}, false
	}
	for _, groupID := range r.groupOrder {
		rooms := r.groups[groupID]
		if len(rooms) < len(reqs) {
			continue
		}
		assigned := make([]catalog.Room, 0, len(reqs))
		used := make(map[string]bool, len(reqs))
		ok := true
		for _, req := range reqs {
			found := false
			for _, room := range rooms {
				if used[room.ID] {
					continue
				}
				if satisfies(room, req) {
					assigned = append(assigned, room)
					used[room.ID] = true
					found = true
					break
				}
			}
			if !found {
				ok = false
				break
			}
		}
		if ok {
			return PairAssignment{GroupID: groupID, Rooms: assigned}, true
		}
	}
	return PairAssignment{}, false
}

// HasAggregateCapacity checks that room counts by capability cover the
// requirements of N independent participants. It reserves no specific rooms,
// so it is a strictly weaker guarantee than AssignPairGroup: concurrent
// multi-party requests can overcommit.
func (r *RoomResolver) HasAggregateCapacity(reqs []RoomRequirement) bool {
	if len(reqs) == 0 {
		return false
	}
	if len(reqs) > len(r.rooms) {
		return false
	}
	var needTreatment, needIV, haveTreatment, haveIV int
	for _, req := range reqs {
		if req.NeedsTreatmentRoom {
			needTreatment++
		}
		if req.NeedsIVRoom {
			needIV++
		}
	}
	for _, room := range r.rooms {
		if room.CanTreatment {
			haveTreatment++
		}
		if room.CanIV {
			haveIV++
		}
	}
	return needTreatment <= haveTreatment && needIV <= haveIV
}
