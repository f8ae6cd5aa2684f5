package session

import (
	"context"
	"sync"

	"go-huddle/core/logger"
)

// Manager keeps one Session per event. Sessions left untouched for
// IdleTimeout are closed by a periodic sweep.
type Manager struct {
	mu       sync.Mutex
	store    Store
	opts     Options
	sessions map[string]*Session
	sweeper  Timer
	stopped  bool
}

func NewManager(store Store, opts Options) *Manager {
	m := &Manager{
		store:    store,
		opts:     opts.withDefaults(),
		sessions: make(map[string]*Session),
	}
	m.sweeper = m.opts.Clock.AfterFunc(m.opts.IdleTimeout, m.sweep)
	return m
}

// Acquire returns the live session for id, opening one if needed. A session
// whose event was deleted remotely is dropped and reopened, which surfaces
// ErrEventNotFound.
func (m *Manager) Acquire(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		if !s.Gone() {
			s.touch()
			return s, nil
		}
		delete(m.sessions, id)
		s.Close()
	}

	s, err := Open(ctx, m.store, id, m.opts)
	if err != nil {
		return nil, err
	}
	m.sessions[id] = s
	logger.Debug("SessionManager:Acquire:Opened", "event_id", id)
	return s, nil
}

// Release closes and forgets the session for id, if any.
func (m *Manager) Release(id string) {
	if s := m.forget(id); s != nil {
		s.Close()
	}
}

// Discard forgets the session for id and drops its pending edit.
func (m *Manager) Discard(id string) {
	if s := m.forget(id); s != nil {
		s.Discard()
	}
}

func (m *Manager) forget(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.sessions[id]
	delete(m.sessions, id)
	return s
}

// Sweep closes every session idle for at least IdleTimeout and returns how
// many were closed. Sessions with an unsaved edit are kept.
func (m *Manager) Sweep() int {
	now := m.opts.Clock.Now()

	m.mu.Lock()
	idle := make([]*Session, 0)
	for id, s := range m.sessions {
		d, ok := s.idleFor(now)
		if ok && d >= m.opts.IdleTimeout {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	if len(idle) > 0 {
		logger.Debug("SessionManager:Sweep:Closed", "closed", len(idle))
	}
	return len(idle)
}

func (m *Manager) sweep() {
	m.Sweep()

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.stopped {
		m.sweeper = m.opts.Clock.AfterFunc(m.opts.IdleTimeout, m.sweep)
	}
}

// Shutdown stops the sweep and closes every session, writing pending edits.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.stopped = true
	if m.sweeper != nil {
		m.sweeper.Stop()
	}
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	logger.Info("SessionManager:Shutdown:Done", "closed", len(sessions))
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
