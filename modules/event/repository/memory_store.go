package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go-huddle/modules/event/entity"
)

// MemoryStore is an in-process EventRepositoryInterface. Every write is
// delivered to subscribers synchronously, as a copy.
type MemoryStore struct {
	mu          sync.RWMutex
	events      map[string]*entity.Event
	subscribers map[string]map[int]func(*entity.Event)
	nextSub     int
}

var _ EventRepositoryInterface = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:      make(map[string]*entity.Event),
		subscribers: make(map[string]map[int]func(*entity.Event)),
	}
}

func (s *MemoryStore) Load(_ context.Context, id string) (*entity.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events[id].Clone(), nil
}

func (s *MemoryStore) Create(_ context.Context, ev *entity.Event) error {
	return s.write(ev, true)
}

func (s *MemoryStore) Save(_ context.Context, ev *entity.Event) error {
	return s.write(ev, false)
}

func (s *MemoryStore) write(ev *entity.Event, create bool) error {
	s.mu.Lock()
	if _, ok := s.events[ev.ID]; !ok && !create {
		s.mu.Unlock()
		return fmt.Errorf("save event %s: %w", ev.ID, entity.ErrEventNotFound)
	}
	s.events[ev.ID] = ev.Clone()
	subs := s.subscribersFor(ev.ID)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(ev.Clone())
	}
	return nil
}

func (s *MemoryStore) ListByMember(_ context.Context, userID string) ([]*entity.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entity.Event, 0)
	for _, ev := range s.events {
		if ev.IsMember(userID) {
			out = append(out, ev.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	_, ok := s.events[id]
	delete(s.events, id)
	subs := s.subscribersFor(id)
	s.mu.Unlock()

	if ok {
		for _, fn := range subs {
			fn(nil)
		}
	}
	return ok, nil
}

func (s *MemoryStore) Subscribe(_ context.Context, id string, onChange func(*entity.Event)) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subscribers[id] == nil {
		s.subscribers[id] = make(map[int]func(*entity.Event))
	}
	key := s.nextSub
	s.nextSub++
	s.subscribers[id][key] = onChange

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers[id], key)
	}, nil
}

// Subscribers reports how many listeners are attached to id.
func (s *MemoryStore) Subscribers(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers[id])
}

func (s *MemoryStore) subscribersFor(id string) []func(*entity.Event) {
	subs := make([]func(*entity.Event), 0, len(s.subscribers[id]))
	for _, fn := range s.subscribers[id] {
		subs = append(subs, fn)
	}
	return subs
}
