package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-huddle/modules/event/entity"
	"go-huddle/modules/event/service"
)

var busyDay = []entity.CalendarBusyEvent{
	{Title: "Team standup", StartTime: "10:00 AM", DurationMinutes: 30},
	{Title: "Offsite", StartTime: "01:00 PM", DurationMinutes: 240},
	{Title: "Second at ten", StartTime: "10:00 AM", DurationMinutes: 15},
}

func TestHasConflict_ReturnsFirstExactMatch(t *testing.T) {
	b, ok := service.HasConflict("10:00 AM", busyDay)

	require.True(t, ok)
	assert.Equal(t, "Team standup", b.Title)
}

func TestHasConflict_NoMatch(t *testing.T) {
	_, ok := service.HasConflict("09:30 AM", busyDay)
	assert.False(t, ok)

	_, ok = service.HasConflict("10:00 AM", nil)
	assert.False(t, ok)
}

// Only the start label is matched. A four hour block starting at 1 PM does
// not cover 1:30 PM. Kept as is; see the calendar module for how labels are
// produced.
func TestHasConflict_DurationIsIgnored(t *testing.T) {
	_, ok := service.HasConflict("01:30 PM", busyDay)

	assert.False(t, ok)
}

func TestFilterConflicts_DropsOnlySelects(t *testing.T) {
	updates := []entity.SlotUpdate{
		{Date: "2024-05-01", Time: "10:00 AM", Available: true},
		{Date: "2024-05-01", Time: "10:00 AM", Available: false},
		{Date: "2024-05-01", Time: "10:30 AM", Available: true},
		{Date: "2024-05-02", Time: "01:00 PM", Available: true},
	}

	kept, dropped := service.FilterConflicts(updates, busyDay)

	assert.Equal(t, []entity.SlotUpdate{updates[1], updates[2]}, kept)
	require.Len(t, dropped, 2)
	assert.Equal(t, updates[0], dropped[0].Update)
	assert.Equal(t, "Team standup", dropped[0].Conflict.Title)
	assert.Equal(t, "Offsite", dropped[1].Conflict.Title)
}
