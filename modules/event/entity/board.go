package entity

import "time"

type LogisticsItem struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	AssigneeID string `json:"assignee_id,omitempty"`
	Done       bool   `json:"done"`
}

type Logistics struct {
	Location string          `json:"location"`
	Notes    string          `json:"notes"`
	Items    []LogisticsItem `json:"items"`
}

func (l Logistics) clone() Logistics {
	items := make([]LogisticsItem, len(l.Items))
	copy(items, l.Items)
	l.Items = items
	return l
}

type Message struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	UserName string    `json:"user_name"`
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sent_at"`
}

// MaxMessages caps the retained chat log; older entries are dropped first.
const MaxMessages = 500
