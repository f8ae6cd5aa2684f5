package dto

import (
	"time"

	"go-huddle/core/utils"
	"go-huddle/modules/event/entity"
)

// Calendar sources accepted on availability requests.
const (
	CalendarSourceNone   = ""
	CalendarSourceDemo   = "demo"
	CalendarSourceGoogle = "google"
)

// ===================== Request DTOs =====================

type CreateEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"` // YYYY-MM-DD
	EndDate     string `json:"end_date"`   // YYYY-MM-DD
	StartTime   string `json:"start_time"` // e.g. "09:00 AM"
	EndTime     string `json:"end_time"`
}

type ToggleRequest struct {
	Date           string `json:"date"`
	Time           string `json:"time"`
	Available      bool   `json:"available"`
	CalendarSource string `json:"calendar_source"`
}

type BatchToggleRequest struct {
	Updates        []entity.SlotUpdate `json:"updates"`
	CalendarSource string              `json:"calendar_source"`
}

type LockRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type UpdateRoleRequest struct {
	Role string `json:"role"`
}

type LogisticsItemRequest struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	AssigneeID string `json:"assignee_id"`
	Done       bool   `json:"done"`
}

type UpdateLogisticsRequest struct {
	Location string                 `json:"location"`
	Notes    string                 `json:"notes"`
	Items    []LogisticsItemRequest `json:"items"`
}

type PostMessageRequest struct {
	Text string `json:"text"`
}

// ===================== Response DTOs =====================

type EventResponse struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	CreatorID   string             `json:"creator_id"`
	StartDate   entity.DateKey     `json:"start_date"`
	EndDate     entity.DateKey     `json:"end_date"`
	StartTime   entity.TimeLabel   `json:"start_time"`
	EndTime     entity.TimeLabel   `json:"end_time"`
	Dates       []entity.DateKey   `json:"dates"`
	Times       []entity.TimeLabel `json:"times"`
	Slots       []entity.Slot      `json:"slots"`
	Members     []entity.Member    `json:"members"`
	IsLocked    bool               `json:"is_locked"`
	LockedSlot  *entity.SlotKey    `json:"locked_slot,omitempty"`
	Logistics   entity.Logistics   `json:"logistics"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// EventSummary is the list view of an event.
type EventSummary struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	CreatorID   string          `json:"creator_id"`
	StartDate   entity.DateKey  `json:"start_date"`
	EndDate     entity.DateKey  `json:"end_date"`
	MemberCount int             `json:"member_count"`
	IsLocked    bool            `json:"is_locked"`
	LockedSlot  *entity.SlotKey `json:"locked_slot,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type ToggleResponse struct {
	Applied  bool                      `json:"applied"`
	Changed  bool                      `json:"changed"`
	Conflict *entity.CalendarBusyEvent `json:"conflict,omitempty"`
	Event    *EventResponse            `json:"event"`
}

type BatchToggleResponse struct {
	Applied int                    `json:"applied"`
	Changed int                    `json:"changed"`
	Dropped []entity.DroppedUpdate `json:"dropped"`
	Event   *EventResponse         `json:"event"`
}

type ProposalsResponse struct {
	TotalMembers int                       `json:"total_members"`
	Proposals    []entity.ProposedTimeSlot `json:"proposals"`
}

type MessagesResponse struct {
	Messages []entity.Message `json:"messages"`
}

// NewEventResponse maps the aggregate, expanding the date and time axes.
func NewEventResponse(ev *entity.Event) *EventResponse {
	dates, _ := entity.GetDatesInRange(ev.Dates.Start, ev.Dates.End)
	return &EventResponse{
		ID:          ev.ID,
		Title:       ev.Title,
		Description: ev.Description,
		CreatorID:   ev.CreatorID,
		StartDate:   ev.Dates.Start,
		EndDate:     ev.Dates.End,
		StartTime:   ev.Times.Start,
		EndTime:     ev.Times.End,
		Dates:       dates,
		Times:       entity.GetTimesInRange(ev.Times.Start, ev.Times.End),
		Slots:       ev.Slots,
		Members:     ev.Members,
		IsLocked:    ev.IsLocked,
		LockedSlot:  ev.LockedSlot,
		Logistics:   ev.Logistics,
		CreatedAt:   ev.CreatedAt,
		UpdatedAt:   ev.UpdatedAt,
	}
}

func NewEventSummary(ev *entity.Event) EventSummary {
	return EventSummary{
		ID:          ev.ID,
		Title:       ev.Title,
		CreatorID:   ev.CreatorID,
		StartDate:   ev.Dates.Start,
		EndDate:     ev.Dates.End,
		MemberCount: len(ev.Members),
		IsLocked:    ev.IsLocked,
		LockedSlot:  ev.LockedSlot,
		UpdatedAt:   ev.UpdatedAt,
	}
}

// IdentityFromClaims turns the authenticated token into a member seed.
func IdentityFromClaims(claims *utils.TokenClaims) entity.Identity {
	name := claims.Name
	if name == "" {
		name = claims.Email
	}
	return entity.Identity{
		UserID:      claims.UserID,
		DisplayName: name,
		Email:       claims.Email,
		Avatar:      claims.Avatar,
	}
}
