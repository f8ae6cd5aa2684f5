package service

import (
	"sort"

	"go-huddle/modules/event/entity"
)

// Analyze ranks every slot: fully available slots first, then by available
// count, both descending. Input order breaks ties. Slots outside dates are
// skipped when dates is set. The result shares no slices with slots.
func Analyze(slots []entity.Slot, members []entity.Member, dates entity.DateRange) []entity.ProposedTimeSlot {
	total := len(members)
	out := make([]entity.ProposedTimeSlot, 0, len(slots))
	for _, s := range slots {
		if dates.Start != "" && !dates.Contains(s.Date) {
			continue
		}
		users := make([]string, len(s.AvailableUsers))
		copy(users, s.AvailableUsers)
		count := len(users)
		out = append(out, entity.ProposedTimeSlot{
			Date:           s.Date,
			Time:           s.Time,
			AvailableUsers: users,
			AvailableCount: count,
			TotalMembers:   total,
			IsAllAvailable: total > 0 && count == total,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsAllAvailable != out[j].IsAllAvailable {
			return out[i].IsAllAvailable
		}
		return out[i].AvailableCount > out[j].AvailableCount
	})
	return out
}

// TopProposals keeps proposals with at least one available member, capped at limit.
// A limit of zero or less means no cap.
func TopProposals(ranked []entity.ProposedTimeSlot, limit int) []entity.ProposedTimeSlot {
	out := make([]entity.ProposedTimeSlot, 0, len(ranked))
	for _, p := range ranked {
		if p.AvailableCount == 0 {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
