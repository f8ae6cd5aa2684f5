package session_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-huddle/modules/event/entity"
	"go-huddle/modules/event/repository"
	"go-huddle/modules/event/session"
)

// ---- fake clock ------------------------------------------------------------

type fakeTimer struct {
	due     time.Time
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) session.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{due: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward, firing due timers in order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		sort.Slice(c.timers, func(i, j int) bool { return c.timers[i].due.Before(c.timers[j].due) })
		var next *fakeTimer
		for i, t := range c.timers {
			if !t.stopped && !t.due.After(target) {
				next = t
				c.timers = append(c.timers[:i], c.timers[i+1:]...)
				break
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = next.due
		c.mu.Unlock()
		next.fn()
	}
}

var _ session.Clock = (*fakeClock)(nil)

// ---- fake store ------------------------------------------------------------

type fakeStore struct {
	mu           sync.Mutex
	doc          *entity.Event
	saves        []*entity.Event
	saveErr      error
	onSave       func(ev *entity.Event)
	onLoad       func()
	onChange     func(*entity.Event)
	unsubscribed int
}

func (f *fakeStore) Load(_ context.Context, _ string) (*entity.Event, error) {
	f.mu.Lock()
	doc, hook := f.doc.Clone(), f.onLoad
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return doc, nil
}

func (f *fakeStore) Save(_ context.Context, ev *entity.Event) error {
	f.mu.Lock()
	f.saves = append(f.saves, ev)
	hook, err := f.onSave, f.saveErr
	if err == nil {
		f.doc = ev.Clone()
	}
	f.mu.Unlock()
	if hook != nil {
		hook(ev)
	}
	return err
}

func (f *fakeStore) Subscribe(_ context.Context, _ string, onChange func(*entity.Event)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onChange = onChange
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.unsubscribed++
	}, nil
}

func (f *fakeStore) push(ev *entity.Event) {
	f.mu.Lock()
	cb := f.onChange
	f.mu.Unlock()
	cb(ev)
}

func (f *fakeStore) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

var _ session.Store = (*fakeStore)(nil)

// ---- helpers ---------------------------------------------------------------

var (
	slotA = entity.SlotKey{Date: "2024-05-01", Time: "09:00 AM"}
	slotB = entity.SlotKey{Date: "2024-05-01", Time: "09:30 AM"}
)

func seedEvent(t *testing.T) *entity.Event {
	t.Helper()
	ev, err := entity.NewEvent(entity.EventParams{
		ID:      "ev1",
		Title:   "Offsite",
		Creator: entity.Identity{UserID: "alice", DisplayName: "Alice"},
		Dates:   entity.DateRange{Start: "2024-05-01", End: "2024-05-01"},
		Times:   entity.TimeRange{Start: "09:00 AM", End: "09:30 AM"},
	})
	require.NoError(t, err)
	_, err = ev.AddMember(entity.Member{ID: "bob", Name: "Bob"})
	require.NoError(t, err)
	return ev
}

func openSession(t *testing.T) (*session.Session, *fakeStore, *fakeClock) {
	t.Helper()
	store := &fakeStore{doc: seedEvent(t)}
	clock := newFakeClock()
	s, err := session.Open(context.Background(), store, "ev1", session.Options{
		SuppressionWindow: 1500 * time.Millisecond,
		SaveDebounce:      500 * time.Millisecond,
		Clock:             clock,
	})
	require.NoError(t, err)
	return s, store, clock
}

func toggle(key entity.SlotKey, user string, available bool) func(*entity.Event) error {
	return func(ev *entity.Event) error {
		_, err := ev.Toggle(key, user, available)
		return err
	}
}

func remoteWith(t *testing.T, user string) *entity.Event {
	t.Helper()
	ev := seedEvent(t)
	_, err := ev.Toggle(slotB, user, true)
	require.NoError(t, err)
	return ev
}

// ---- tests -----------------------------------------------------------------

func TestSession_Open_NotFound(t *testing.T) {
	_, err := session.Open(context.Background(), &fakeStore{}, "missing", session.Options{Clock: newFakeClock()})

	assert.ErrorIs(t, err, session.ErrEventNotFound)
}

func TestSession_RemoteSuppressedWithinWindow(t *testing.T) {
	s, store, clock := openSession(t)

	_, err := s.Mutate(toggle(slotA, "alice", true))
	require.NoError(t, err)

	clock.Advance(500 * time.Millisecond)
	assert.False(t, s.ApplyRemote(remoteWith(t, "bob")), "remote at 0.5s must be discarded")
	assert.Equal(t, 1, store.saveCount())

	clock.Advance(500 * time.Millisecond)
	assert.False(t, s.ApplyRemote(remoteWith(t, "bob")), "remote at 1.0s is still inside the window")

	clock.Advance(time.Second)
	assert.True(t, s.ApplyRemote(remoteWith(t, "bob")), "remote at 2.0s must be applied")

	ev, ok := s.Snapshot()
	require.True(t, ok)
	b, _ := ev.Slot(slotB)
	assert.Equal(t, []string{"bob"}, b.AvailableUsers)
	a, _ := ev.Slot(slotA)
	assert.Empty(t, a.AvailableUsers, "whole document replaced, no merge")
}

func TestSession_RemoteAppliedWithoutLocalEdits(t *testing.T) {
	s, store, _ := openSession(t)

	store.push(remoteWith(t, "bob"))

	ev, _ := s.Snapshot()
	b, _ := ev.Slot(slotB)
	assert.Equal(t, []string{"bob"}, b.AvailableUsers)
}

func TestSession_DebounceCoalescesSaves(t *testing.T) {
	s, store, clock := openSession(t)

	_, err := s.Mutate(toggle(slotA, "alice", true))
	require.NoError(t, err)
	clock.Advance(300 * time.Millisecond)
	_, err = s.Mutate(toggle(slotB, "alice", true))
	require.NoError(t, err)
	clock.Advance(300 * time.Millisecond)
	_, err = s.Mutate(toggle(slotA, "bob", true))
	require.NoError(t, err)

	clock.Advance(499 * time.Millisecond)
	assert.Equal(t, 0, store.saveCount())
	assert.True(t, s.Pending())

	clock.Advance(time.Millisecond)
	require.Equal(t, 1, store.saveCount())
	assert.False(t, s.Pending())

	saved := store.saves[0]
	a, _ := saved.Slot(slotA)
	b, _ := saved.Slot(slotB)
	assert.ElementsMatch(t, []string{"alice", "bob"}, a.AvailableUsers)
	assert.Equal(t, []string{"alice"}, b.AvailableUsers)
}

func TestSession_SaveFailureKeepsLocalState(t *testing.T) {
	s, store, clock := openSession(t)
	store.saveErr = errors.New("db down")

	_, err := s.Mutate(toggle(slotA, "alice", true))
	require.NoError(t, err)
	clock.Advance(500 * time.Millisecond)

	assert.Equal(t, 1, store.saveCount())
	ev, _ := s.Snapshot()
	a, _ := ev.Slot(slotA)
	assert.Equal(t, []string{"alice"}, a.AvailableUsers)
}

func TestSession_EditDuringSaveKeepsEditingFlag(t *testing.T) {
	s, store, clock := openSession(t)
	var once sync.Once
	store.onSave = func(*entity.Event) {
		once.Do(func() {
			_, err := s.Mutate(toggle(slotB, "bob", true))
			require.NoError(t, err)
		})
	}

	_, err := s.Mutate(toggle(slotA, "alice", true))
	require.NoError(t, err)
	clock.Advance(500 * time.Millisecond)

	assert.True(t, s.Pending(), "edit made while saving still needs a save")

	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, 2, store.saveCount())
	assert.False(t, s.Pending())
}

func TestSession_FailedMutationChangesNothing(t *testing.T) {
	s, store, clock := openSession(t)
	_, err := s.Mutate(func(ev *entity.Event) error { return ev.Lock(slotA) })
	require.NoError(t, err)
	clock.Advance(500 * time.Millisecond)
	require.Equal(t, 1, store.saveCount())

	_, err = s.Mutate(toggle(slotB, "alice", true))
	assert.ErrorIs(t, err, entity.ErrEventLocked)
	assert.False(t, s.Pending())

	clock.Advance(time.Second)
	assert.Equal(t, 1, store.saveCount())
}

func TestSession_MutateIsAtomic(t *testing.T) {
	s, _, _ := openSession(t)

	_, err := s.Mutate(func(ev *entity.Event) error {
		if _, err := ev.Toggle(slotA, "alice", true); err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)

	ev, _ := s.Snapshot()
	a, _ := ev.Slot(slotA)
	assert.Empty(t, a.AvailableUsers)
}

func TestSession_RemoteDeletionSurfacesAsAbsent(t *testing.T) {
	s, _, _ := openSession(t)

	assert.True(t, s.ApplyRemote(nil))

	_, ok := s.Snapshot()
	assert.False(t, ok)
	assert.True(t, s.Gone())
	_, err := s.Mutate(toggle(slotA, "alice", true))
	assert.ErrorIs(t, err, session.ErrEventNotFound)
}

func TestSession_DeletionDropsPendingEdit(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	require.NoError(t, store.Create(ctx, seedEvent(t)))
	clock := newFakeClock()
	s, err := session.Open(ctx, store, "ev1", session.Options{
		SuppressionWindow: 1500 * time.Millisecond,
		SaveDebounce:      500 * time.Millisecond,
		Clock:             clock,
	})
	require.NoError(t, err)

	_, err = s.Mutate(toggle(slotA, "alice", true))
	require.NoError(t, err)
	clock.Advance(100 * time.Millisecond)
	deleted, err := store.Delete(ctx, "ev1")
	require.NoError(t, err)
	require.True(t, deleted)

	clock.Advance(time.Second)

	stored, err := store.Load(ctx, "ev1")
	require.NoError(t, err)
	assert.Nil(t, stored, "deleted event must not be written back")
	assert.True(t, s.Gone())
	assert.False(t, s.Pending())
	_, err = s.Mutate(toggle(slotB, "alice", true))
	assert.ErrorIs(t, err, session.ErrEventNotFound)

	s.Close()
	stored, _ = store.Load(ctx, "ev1")
	assert.Nil(t, stored)
}

func TestSession_OpenKeepsNewerSnapshotFromLoad(t *testing.T) {
	store := &fakeStore{doc: seedEvent(t)}
	newer := remoteWith(t, "bob")
	newer.UpdatedAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store.onLoad = func() { store.push(newer) }

	s, err := session.Open(context.Background(), store, "ev1", session.Options{Clock: newFakeClock()})
	require.NoError(t, err)

	ev, ok := s.Snapshot()
	require.True(t, ok)
	b, _ := ev.Slot(slotB)
	assert.Equal(t, []string{"bob"}, b.AvailableUsers)
}

func TestSession_OpenPrefersNewerLoad(t *testing.T) {
	loaded := remoteWith(t, "alice")
	loaded.UpdatedAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store := &fakeStore{doc: loaded}
	store.onLoad = func() { store.push(remoteWith(t, "bob")) }

	s, err := session.Open(context.Background(), store, "ev1", session.Options{Clock: newFakeClock()})
	require.NoError(t, err)

	ev, _ := s.Snapshot()
	b, _ := ev.Slot(slotB)
	assert.Equal(t, []string{"alice"}, b.AvailableUsers)
}

func TestSession_OpenSeesDeletionWhileLoading(t *testing.T) {
	store := &fakeStore{doc: seedEvent(t)}
	store.onLoad = func() { store.push(nil) }

	_, err := session.Open(context.Background(), store, "ev1", session.Options{Clock: newFakeClock()})

	assert.ErrorIs(t, err, session.ErrEventNotFound)
	assert.Equal(t, 1, store.unsubscribed)
}

func TestSession_DiscardSkipsPendingSave(t *testing.T) {
	s, store, clock := openSession(t)
	_, err := s.Mutate(toggle(slotA, "alice", true))
	require.NoError(t, err)

	s.Discard()
	clock.Advance(time.Second)

	assert.Equal(t, 0, store.saveCount())
	assert.Equal(t, 1, store.unsubscribed)
	assert.True(t, s.Gone())
}

func TestSession_SaveOfDeletedEventMarksGone(t *testing.T) {
	s, store, clock := openSession(t)
	store.saveErr = fmt.Errorf("save event ev1: %w", entity.ErrEventNotFound)
	_, err := s.Mutate(toggle(slotA, "alice", true))
	require.NoError(t, err)

	clock.Advance(500 * time.Millisecond)

	assert.Equal(t, 1, store.saveCount())
	assert.True(t, s.Gone())
	assert.False(t, s.Pending())
	_, ok := s.Snapshot()
	assert.False(t, ok)
}

func TestSession_CloseFlushesAndUnsubscribes(t *testing.T) {
	s, store, clock := openSession(t)
	_, err := s.Mutate(toggle(slotA, "alice", true))
	require.NoError(t, err)

	s.Close()
	s.Close()

	assert.Equal(t, 1, store.saveCount())
	assert.Equal(t, 1, store.unsubscribed)
	assert.False(t, s.ApplyRemote(remoteWith(t, "bob")))
	_, err = s.Mutate(toggle(slotB, "alice", true))
	assert.ErrorIs(t, err, session.ErrClosed)

	// the cancelled debounce timer must not save again
	clock.Advance(time.Second)
	assert.Equal(t, 1, store.saveCount())
}

func TestManager_AcquireReusesSession(t *testing.T) {
	store := &fakeStore{doc: seedEvent(t)}
	m := session.NewManager(store, session.Options{Clock: newFakeClock()})

	s1, err := m.Acquire(context.Background(), "ev1")
	require.NoError(t, err)
	s2, err := m.Acquire(context.Background(), "ev1")
	require.NoError(t, err)

	assert.Same(t, s1, s2)
	assert.Equal(t, 1, m.Len())
}

func TestManager_AcquireAfterRemoteDeletion(t *testing.T) {
	store := &fakeStore{doc: seedEvent(t)}
	m := session.NewManager(store, session.Options{Clock: newFakeClock()})
	s, err := m.Acquire(context.Background(), "ev1")
	require.NoError(t, err)

	store.doc = nil
	s.ApplyRemote(nil)

	_, err = m.Acquire(context.Background(), "ev1")
	assert.ErrorIs(t, err, session.ErrEventNotFound)
	assert.Equal(t, 0, m.Len())
}

func TestManager_ShutdownFlushesPending(t *testing.T) {
	store := &fakeStore{doc: seedEvent(t)}
	m := session.NewManager(store, session.Options{Clock: newFakeClock()})
	s, err := m.Acquire(context.Background(), "ev1")
	require.NoError(t, err)
	_, err = s.Mutate(toggle(slotA, "bob", true))
	require.NoError(t, err)

	m.Shutdown()

	assert.Equal(t, 1, store.saveCount())
	assert.Equal(t, 0, m.Len())
	a, _ := store.doc.Slot(slotA)
	assert.Equal(t, []string{"bob"}, a.AvailableUsers)
}

func TestManager_SweepsIdleSessions(t *testing.T) {
	store := &fakeStore{doc: seedEvent(t)}
	clock := newFakeClock()
	m := session.NewManager(store, session.Options{IdleTimeout: time.Minute, Clock: clock})
	t.Cleanup(m.Shutdown)
	ctx := context.Background()

	_, err := m.Acquire(ctx, "ev1")
	require.NoError(t, err)

	clock.Advance(50 * time.Second)
	_, err = m.Acquire(ctx, "ev1")
	require.NoError(t, err)

	clock.Advance(30 * time.Second)
	assert.Equal(t, 1, m.Len(), "used 30s ago, kept by the sweep at 60s")
	assert.Equal(t, 0, store.unsubscribed)

	clock.Advance(time.Minute)
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 1, store.unsubscribed)

	s, err := m.Acquire(ctx, "ev1")
	require.NoError(t, err)
	assert.False(t, s.Gone())
}

func TestManager_SweepKeepsUnsavedEdits(t *testing.T) {
	store := &fakeStore{doc: seedEvent(t)}
	clock := newFakeClock()
	m := session.NewManager(store, session.Options{
		IdleTimeout:  time.Minute,
		SaveDebounce: 5 * time.Minute,
		Clock:        clock,
	})
	t.Cleanup(m.Shutdown)

	s, err := m.Acquire(context.Background(), "ev1")
	require.NoError(t, err)
	_, err = s.Mutate(toggle(slotA, "bob", true))
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 0, store.saveCount())

	clock.Advance(3 * time.Minute)
	require.Equal(t, 1, store.saveCount())

	// once saved, the session is idle and goes on a later sweep
	clock.Advance(time.Minute)
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 1, store.unsubscribed)
}

func TestManager_DiscardDropsPendingEdit(t *testing.T) {
	store := &fakeStore{doc: seedEvent(t)}
	m := session.NewManager(store, session.Options{Clock: newFakeClock()})
	s, err := m.Acquire(context.Background(), "ev1")
	require.NoError(t, err)
	_, err = s.Mutate(toggle(slotA, "bob", true))
	require.NoError(t, err)

	m.Discard("ev1")
	m.Shutdown()

	assert.Equal(t, 0, store.saveCount())
	assert.Equal(t, 0, m.Len())
}
