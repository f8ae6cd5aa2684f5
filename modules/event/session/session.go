// Package session reconciles local edits to an event with snapshots pushed
// by other replicas through the store's change feed.
//
// Local edits win for a fixed suppression window and are saved after a
// debounce. A save replaces the whole document, so the last save to land
// wins across replicas.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go-huddle/core/constants"
	"go-huddle/core/logger"
	"go-huddle/modules/event/entity"
)

var (
	ErrEventNotFound = entity.ErrEventNotFound
	ErrClosed        = errors.New("session closed")
)

// Store is the persistence collaborator. Load returns nil, nil when the
// event does not exist; onChange receives nil when it was deleted. Save
// only replaces an existing document and fails with ErrEventNotFound
// otherwise.
type Store interface {
	Load(ctx context.Context, id string) (*entity.Event, error)
	Save(ctx context.Context, ev *entity.Event) error
	Subscribe(ctx context.Context, id string, onChange func(*entity.Event)) (func(), error)
}

type Options struct {
	SuppressionWindow time.Duration
	SaveDebounce      time.Duration
	// IdleTimeout is how long a Manager keeps a session nobody touches.
	IdleTimeout time.Duration
	Clock       Clock
}

func (o Options) withDefaults() Options {
	if o.SuppressionWindow <= 0 {
		o.SuppressionWindow = constants.DefaultEditSuppressionWindow
	}
	if o.SaveDebounce <= 0 {
		o.SaveDebounce = constants.DefaultSaveDebounce
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = constants.DefaultSessionIdleTimeout
	}
	if o.Clock == nil {
		o.Clock = SystemClock()
	}
	return o
}

// Session owns the in-memory copy of one event. Store callbacks and timers
// run on their own goroutines, so state is guarded by mu.
type Session struct {
	mu    sync.Mutex
	id    string
	store Store
	opts  Options

	event         *entity.Event
	deleted       bool
	lastLocalEdit time.Time
	lastAccess    time.Time
	editing       bool
	generation    uint64
	timer         Timer
	closed        bool

	unsubscribe func()
	unsubOnce   sync.Once
}

// Open subscribes to the event's change feed and then loads it. A snapshot
// delivered while loading is kept when it is newer than the loaded copy.
func Open(ctx context.Context, store Store, id string, opts Options) (*Session, error) {
	opts = opts.withDefaults()
	s := &Session{
		id:         id,
		store:      store,
		opts:       opts,
		lastAccess: opts.Clock.Now(),
	}

	unsubscribe, err := store.Subscribe(ctx, id, func(remote *entity.Event) {
		s.ApplyRemote(remote)
	})
	if err != nil {
		return nil, err
	}
	s.unsubscribe = unsubscribe

	ev, err := store.Load(ctx, id)
	if err != nil {
		s.Discard()
		return nil, err
	}

	s.mu.Lock()
	if !s.deleted && ev != nil && (s.event == nil || ev.UpdatedAt.After(s.event.UpdatedAt)) {
		s.event = ev
	}
	found := s.event != nil
	s.mu.Unlock()

	if !found {
		s.Discard()
		return nil, ErrEventNotFound
	}
	return s, nil
}

func (s *Session) ID() string { return s.id }

// Snapshot returns a copy of the current event, or false once the event
// was deleted remotely.
func (s *Session) Snapshot() (*entity.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.event == nil {
		return nil, false
	}
	return s.event.Clone(), true
}

// Gone reports whether the event was deleted remotely or the session closed.
func (s *Session) Gone() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed || s.event == nil
}

// Mutate applies fn to a copy of the event and swaps it in only when fn
// succeeds, so observers never see a partial change. Each successful call
// stamps the edit time and restarts the save debounce.
func (s *Session) Mutate(fn func(ev *entity.Event) error) (*entity.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.event == nil {
		return nil, ErrEventNotFound
	}

	next := s.event.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}

	now := s.opts.Clock.Now()
	next.Touch(now)
	s.event = next
	s.lastLocalEdit = now
	s.editing = true
	s.generation++

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = s.opts.Clock.AfterFunc(s.opts.SaveDebounce, s.flush)

	return next.Clone(), nil
}

// ApplyRemote replaces the local copy with a snapshot from the store unless
// a local edit is pending or happened within the suppression window. A nil
// snapshot marks the event as deleted; that is final and drops any pending
// edit. Reports whether it was applied.
func (s *Session) ApplyRemote(remote *entity.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.deleted {
		return false
	}

	if remote == nil {
		logger.Info("Session:ApplyRemote:Deleted", "event_id", s.id, "dropped_edit", s.editing)
		s.markDeleted()
		return true
	}

	since := s.opts.Clock.Now().Sub(s.lastLocalEdit)
	if s.editing || since < s.opts.SuppressionWindow {
		logger.Debug("Session:ApplyRemote:Discarded",
			"event_id", s.id,
			"editing", s.editing,
			"since_last_edit", since,
		)
		return false
	}

	s.event = remote.Clone()
	return true
}

// markDeleted must be called with mu held.
func (s *Session) markDeleted() {
	s.deleted = true
	s.event = nil
	s.editing = false
	s.generation++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// touch records a use of the session for idle eviction.
func (s *Session) touch() {
	s.mu.Lock()
	s.lastAccess = s.opts.Clock.Now()
	s.mu.Unlock()
}

// idleFor reports how long the session has gone unused. A session with an
// unsaved edit is never idle.
func (s *Session) idleFor(now time.Time) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editing {
		return 0, false
	}
	last := s.lastAccess
	if s.lastLocalEdit.After(last) {
		last = s.lastLocalEdit
	}
	return now.Sub(last), true
}

// Pending reports whether a local edit has not been saved yet.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editing
}

// flush runs when the debounce timer fires. The save happens outside the
// lock; the editing flag is cleared only if no edit arrived meanwhile.
// Nothing is written once the event is gone.
func (s *Session) flush() {
	s.mu.Lock()
	if s.closed || s.deleted || s.event == nil || !s.editing {
		s.mu.Unlock()
		return
	}
	gen := s.generation
	snapshot := s.event.Clone()
	s.timer = nil
	s.mu.Unlock()

	s.save(snapshot)

	s.mu.Lock()
	if s.generation == gen {
		s.editing = false
	}
	s.mu.Unlock()
}

func (s *Session) save(ev *entity.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultTimeout)
	defer cancel()

	err := s.store.Save(ctx, ev)
	if errors.Is(err, ErrEventNotFound) {
		logger.Info("Session:save:Deleted", "event_id", s.id)
		s.mu.Lock()
		s.markDeleted()
		s.mu.Unlock()
		return
	}
	if err != nil {
		logger.Error("Session:save:Error", "event_id", s.id, "error", err)
		return
	}
	logger.Debug("Session:save:Saved", "event_id", s.id)
}

// Close cancels the debounce, writes any pending edit and drops the
// subscription. The subscription is released on every path.
func (s *Session) Close() {
	defer s.dropSubscription()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	var pending *entity.Event
	if s.editing && s.event != nil {
		pending = s.event.Clone()
	}
	s.editing = false
	s.mu.Unlock()

	if pending != nil {
		s.save(pending)
	}
}

// Discard closes the session without writing the pending edit. Used when the
// event is being deleted.
func (s *Session) Discard() {
	defer s.dropSubscription()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.markDeleted()
}

func (s *Session) dropSubscription() {
	s.unsubOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
	})
}
