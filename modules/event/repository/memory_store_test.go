package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-huddle/modules/event/entity"
	"go-huddle/modules/event/repository"
)

func newEvent(t *testing.T, id, creatorID string, updated time.Time) *entity.Event {
	t.Helper()
	ev, err := entity.NewEvent(entity.EventParams{
		ID:      id,
		Title:   "Event " + id,
		Creator: entity.Identity{UserID: creatorID, DisplayName: creatorID},
		Dates:   entity.DateRange{Start: "2024-05-01", End: "2024-05-02"},
		Times:   entity.TimeRange{Start: "09:00 AM", End: "10:00 AM"},
		Now:     updated,
	})
	require.NoError(t, err)
	return ev
}

func TestMemoryStore_LoadMissing(t *testing.T) {
	s := repository.NewMemoryStore()

	ev, err := s.Load(context.Background(), "nope")

	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestMemoryStore_SaveReplacesWholeDocument(t *testing.T) {
	s := repository.NewMemoryStore()
	ctx := context.Background()
	ev := newEvent(t, "e1", "alice", time.Now())
	require.NoError(t, s.Create(ctx, ev))

	other := ev.Clone()
	other.Title = "Renamed"
	require.NoError(t, s.Save(ctx, other))

	got, err := s.Load(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)

	// stored copy is isolated from the caller
	got.Title = "mutated"
	again, _ := s.Load(ctx, "e1")
	assert.Equal(t, "Renamed", again.Title)
}

func TestMemoryStore_SubscribeAndDelete(t *testing.T) {
	s := repository.NewMemoryStore()
	ctx := context.Background()
	ev := newEvent(t, "e1", "alice", time.Now())

	var got []*entity.Event
	unsubscribe, err := s.Subscribe(ctx, "e1", func(e *entity.Event) { got = append(got, e) })
	require.NoError(t, err)

	require.NoError(t, s.Create(ctx, ev))
	deleted, err := s.Delete(ctx, "e1")
	require.NoError(t, err)
	assert.True(t, deleted)

	require.Len(t, got, 2)
	assert.Equal(t, "e1", got[0].ID)
	assert.Nil(t, got[1])

	unsubscribe()
	assert.Equal(t, 0, s.Subscribers("e1"))
	require.NoError(t, s.Create(ctx, ev))
	assert.Len(t, got, 2)

	deleted, err = s.Delete(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestMemoryStore_SaveAfterDeleteFails(t *testing.T) {
	s := repository.NewMemoryStore()
	ctx := context.Background()
	ev := newEvent(t, "e1", "alice", time.Now())
	require.NoError(t, s.Create(ctx, ev))
	_, err := s.Delete(ctx, "e1")
	require.NoError(t, err)

	err = s.Save(ctx, ev)

	assert.ErrorIs(t, err, entity.ErrEventNotFound)
	got, err := s.Load(ctx, "e1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_ListByMember(t *testing.T) {
	s := repository.NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	older := newEvent(t, "e1", "alice", base)
	newer := newEvent(t, "e2", "bob", base.Add(time.Hour))
	_, err := newer.AddMember(entity.Member{ID: "alice", Name: "Alice"})
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, older))
	require.NoError(t, s.Create(ctx, newer))
	require.NoError(t, s.Create(ctx, newEvent(t, "e3", "carol", base)))

	got, err := s.ListByMember(ctx, "alice")

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e2", got[0].ID)
	assert.Equal(t, "e1", got[1].ID)
}
