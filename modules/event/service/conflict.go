package service

import "go-huddle/modules/event/entity"

// HasConflict returns the first busy event starting exactly at t. Only the
// start label is compared; a long busy block does not cover later slots.
func HasConflict(t entity.TimeLabel, busy []entity.CalendarBusyEvent) (entity.CalendarBusyEvent, bool) {
	for _, b := range busy {
		if b.StartTime == t {
			return b, true
		}
	}
	return entity.CalendarBusyEvent{}, false
}

// FilterConflicts splits a batch into the updates that may be applied and
// the select updates that land on a busy time. Deselects always pass.
func FilterConflicts(updates []entity.SlotUpdate, busy []entity.CalendarBusyEvent) ([]entity.SlotUpdate, []entity.DroppedUpdate) {
	kept := make([]entity.SlotUpdate, 0, len(updates))
	var dropped []entity.DroppedUpdate
	for _, u := range updates {
		if u.Available {
			if b, ok := HasConflict(u.Time, busy); ok {
				dropped = append(dropped, entity.DroppedUpdate{Update: u, Conflict: b})
				continue
			}
		}
		kept = append(kept, u)
	}
	return kept, dropped
}
