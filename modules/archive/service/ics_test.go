package service_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-huddle/modules/archive/service"
	"go-huddle/modules/event/entity"
)

func lockedEvent(t *testing.T) *entity.Event {
	t.Helper()
	ev, err := entity.NewEvent(entity.EventParams{
		ID:          "ev123",
		Title:       "Dinner, drinks; fun",
		Description: "Bring\nsnacks",
		Creator:     entity.Identity{UserID: "alice", DisplayName: "Alice", Email: "alice@example.com"},
		Dates:       entity.DateRange{Start: "2024-05-01", End: "2024-05-02"},
		Times:       entity.TimeRange{Start: "06:00 PM", End: "08:00 PM"},
	})
	require.NoError(t, err)
	_, err = ev.AddMember(entity.Member{ID: "bob", Name: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)
	_, err = ev.AddMember(entity.Member{ID: "cy", Name: "Cy"})
	require.NoError(t, err)
	ev.UpdateLogistics(entity.Logistics{Location: "Luigi's"})
	require.NoError(t, ev.Lock(entity.SlotKey{Date: "2024-05-02", Time: "07:30 PM"}))
	return ev
}

func TestBuildICS_LockedSlot(t *testing.T) {
	stamp := time.Date(2024, 4, 30, 8, 0, 0, 0, time.UTC)

	body, err := service.BuildICS(lockedEvent(t), stamp)
	require.NoError(t, err)

	ics := string(body)
	lines := strings.Split(strings.TrimSuffix(ics, "\r\n"), "\r\n")
	assert.Equal(t, "BEGIN:VCALENDAR", lines[0])
	assert.Equal(t, "END:VCALENDAR", lines[len(lines)-1])
	assert.Contains(t, lines, "UID:ev123@huddle")
	assert.Contains(t, lines, "DTSTAMP:20240430T080000Z")
	assert.Contains(t, lines, "DTSTART:20240502T193000")
	assert.Contains(t, lines, "DTEND:20240502T200000")
	assert.Contains(t, lines, `SUMMARY:Dinner\, drinks\; fun`)
	assert.Contains(t, lines, `DESCRIPTION:Bring\nsnacks`)
	assert.Contains(t, lines, "LOCATION:Luigi's")
	assert.Contains(t, lines, "ORGANIZER;CN=Alice:mailto:alice@example.com")
	assert.Contains(t, lines, "ATTENDEE;CN=Bob:mailto:bob@example.com")
	assert.NotContains(t, ics, "Cy")
}

func TestBuildICS_MidnightRollsOver(t *testing.T) {
	ev := lockedEvent(t)
	ev.Slots = append(ev.Slots, entity.Slot{Date: "2024-05-02", Time: "11:30 PM"})
	require.NoError(t, ev.Lock(entity.SlotKey{Date: "2024-05-02", Time: "11:30 PM"}))

	body, err := service.BuildICS(ev, time.Now())

	require.NoError(t, err)
	assert.Contains(t, string(body), "DTSTART:20240502T233000\r\n")
	assert.Contains(t, string(body), "DTEND:20240503T000000\r\n")
}

func TestBuildICS_NotLocked(t *testing.T) {
	ev := lockedEvent(t)
	ev.Unlock()

	_, err := service.BuildICS(ev, time.Now())

	assert.ErrorIs(t, err, service.ErrNotLocked)
}
