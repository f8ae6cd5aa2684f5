package entity

import (
	"strings"
	"time"
)

// Event is the aggregate root. It is persisted and replicated as one document;
// a save replaces the whole thing.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatorID   string    `json:"creator_id"`
	Dates       DateRange `json:"dates"`
	Times       TimeRange `json:"times"`
	Slots       []Slot    `json:"slots"`
	Members     []Member  `json:"members"`
	IsLocked    bool      `json:"is_locked"`
	LockedSlot  *SlotKey  `json:"locked_slot,omitempty"`
	Logistics   Logistics `json:"logistics"`
	Messages    []Message `json:"messages"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type EventParams struct {
	ID          string
	Title       string
	Description string
	Creator     Identity
	Dates       DateRange
	Times       TimeRange
	Now         time.Time
}

// NewEvent validates the ranges and pre-populates an empty slot for every
// (date, time) pair. The creator joins as Director.
func NewEvent(p EventParams) (*Event, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if p.Creator.UserID == "" || strings.TrimSpace(p.Creator.DisplayName) == "" {
		return nil, ErrInvalidMember
	}
	dates, err := GetDatesInRange(p.Dates.Start, p.Dates.End)
	if err != nil {
		return nil, err
	}
	if err := p.Times.Validate(); err != nil {
		return nil, err
	}
	times := GetTimesInRange(p.Times.Start, p.Times.End)

	slots := make([]Slot, 0, len(dates)*len(times))
	for _, d := range dates {
		for _, t := range times {
			slots = append(slots, Slot{Date: d, Time: t, AvailableUsers: []string{}})
		}
	}

	return &Event{
		ID:          p.ID,
		Title:       title,
		Description: strings.TrimSpace(p.Description),
		CreatorID:   p.Creator.UserID,
		Dates:       p.Dates,
		Times:       p.Times,
		Slots:       slots,
		Members:     []Member{p.Creator.AsMember(RoleDirector)},
		Logistics:   Logistics{Items: []LogisticsItem{}},
		Messages:    []Message{},
		CreatedAt:   p.Now,
		UpdatedAt:   p.Now,
	}, nil
}

func (e *Event) slotIndex(key SlotKey) int {
	for i := range e.Slots {
		if e.Slots[i].Date == key.Date && e.Slots[i].Time == key.Time {
			return i
		}
	}
	return -1
}

// Slot returns a copy of the slot at key.
func (e *Event) Slot(key SlotKey) (Slot, bool) {
	i := e.slotIndex(key)
	if i < 0 {
		return Slot{}, false
	}
	return e.Slots[i].clone(), true
}

// Toggle marks userID available or unavailable on one slot. It is idempotent
// and reports whether the slot changed.
func (e *Event) Toggle(key SlotKey, userID string, available bool) (bool, error) {
	if e.IsLocked {
		return false, ErrEventLocked
	}
	i := e.slotIndex(key)
	if i < 0 {
		return false, ErrSlotNotFound
	}
	return e.Slots[i].setAvailable(userID, available), nil
}

// BatchToggle applies every update for userID as one step. When two updates
// target the same slot the later one wins. An unknown slot fails the whole
// batch before anything is written. Returns the number of slots that changed.
func (e *Event) BatchToggle(userID string, updates []SlotUpdate) (int, error) {
	if e.IsLocked {
		return 0, ErrEventLocked
	}

	index := make(map[SlotKey]int, len(e.Slots))
	for i, s := range e.Slots {
		index[s.Key()] = i
	}

	final := make(map[SlotKey]bool, len(updates))
	order := make([]SlotKey, 0, len(updates))
	for _, u := range updates {
		k := u.Key()
		if _, ok := index[k]; !ok {
			return 0, ErrSlotNotFound
		}
		if _, seen := final[k]; !seen {
			order = append(order, k)
		}
		final[k] = u.Available
	}

	changed := 0
	for _, k := range order {
		if e.Slots[index[k]].setAvailable(userID, final[k]) {
			changed++
		}
	}
	return changed, nil
}

func (e *Event) Lock(key SlotKey) error {
	if e.slotIndex(key) < 0 {
		return ErrSlotNotFound
	}
	e.IsLocked = true
	e.LockedSlot = &SlotKey{Date: key.Date, Time: key.Time}
	return nil
}

func (e *Event) Unlock() {
	e.IsLocked = false
	e.LockedSlot = nil
}

func (e *Event) Member(id string) (Member, bool) {
	for _, m := range e.Members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

func (e *Event) IsMember(id string) bool {
	_, ok := e.Member(id)
	return ok
}

// AddMember appends m unless a member with the same id exists. It reports
// whether the member was added.
func (e *Event) AddMember(m Member) (bool, error) {
	if m.ID == "" || strings.TrimSpace(m.Name) == "" {
		return false, ErrInvalidMember
	}
	if !m.Role.Valid() {
		return false, ErrInvalidRole
	}
	if e.IsMember(m.ID) {
		return false, nil
	}
	e.Members = append(e.Members, m)
	return true, nil
}

// RemoveMember drops the member and purges their id from every slot.
// The creator cannot be removed. Allowed while locked.
func (e *Event) RemoveMember(id string) error {
	if id == e.CreatorID {
		return ErrCreatorProtected
	}
	idx := -1
	for i, m := range e.Members {
		if m.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrMemberNotFound
	}
	e.Members = append(e.Members[:idx], e.Members[idx+1:]...)
	for i := range e.Slots {
		e.Slots[i].remove(id)
	}
	for i := range e.Logistics.Items {
		if e.Logistics.Items[i].AssigneeID == id {
			e.Logistics.Items[i].AssigneeID = ""
		}
	}
	return nil
}

// UpdateMemberRole changes any member's role, the creator's included.
func (e *Event) UpdateMemberRole(id string, role Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	for i := range e.Members {
		if e.Members[i].ID == id {
			e.Members[i].Role = role
			return nil
		}
	}
	return ErrMemberNotFound
}

func (e *Event) UpdateLogistics(l Logistics) {
	if l.Items == nil {
		l.Items = []LogisticsItem{}
	}
	e.Logistics = l.clone()
}

// PostMessage appends to the chat log, trimming it to MaxMessages.
func (e *Event) PostMessage(m Message) error {
	m.Text = strings.TrimSpace(m.Text)
	if m.Text == "" {
		return ErrEmptyMessage
	}
	e.Messages = append(e.Messages, m)
	if over := len(e.Messages) - MaxMessages; over > 0 {
		e.Messages = append([]Message(nil), e.Messages[over:]...)
	}
	return nil
}

// MessagesAfter returns the messages posted after the one with id afterID.
// An empty or unknown id returns the whole log.
func (e *Event) MessagesAfter(afterID string) []Message {
	start := 0
	if afterID != "" {
		for i, m := range e.Messages {
			if m.ID == afterID {
				start = i + 1
				break
			}
		}
	}
	out := make([]Message, len(e.Messages)-start)
	copy(out, e.Messages[start:])
	return out
}

func (e *Event) Touch(now time.Time) {
	e.UpdatedAt = now
}

// Clone returns a deep copy sharing no slices with e.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	c := *e
	c.Slots = make([]Slot, len(e.Slots))
	for i, s := range e.Slots {
		c.Slots[i] = s.clone()
	}
	c.Members = make([]Member, len(e.Members))
	copy(c.Members, e.Members)
	c.Messages = make([]Message, len(e.Messages))
	copy(c.Messages, e.Messages)
	c.Logistics = e.Logistics.clone()
	if e.LockedSlot != nil {
		k := *e.LockedSlot
		c.LockedSlot = &k
	}
	return &c
}
