package dto

import (
	"time"

	"go-huddle/modules/event/dto"
	eventEntity "go-huddle/modules/event/entity"
	"go-huddle/modules/invitation/entity"
)

type CreateInviteRequest struct {
	EventID string `json:"event_id"`
}

type InviteResponse struct {
	Token     string    `json:"token"`
	Link      string    `json:"link"`
	ExpiresAt time.Time `json:"expires_at"`
}

type JoinRequest struct {
	Token string `json:"token"`
}

type JoinResponse struct {
	Joined bool               `json:"joined"`
	Event  *dto.EventResponse `json:"event"`
}

// InvitePreview is what a link shows before the visitor joins.
type InvitePreview struct {
	EventID     string                `json:"event_id"`
	Title       string                `json:"title"`
	Description string                `json:"description,omitempty"`
	StartDate   eventEntity.DateKey   `json:"start_date"`
	EndDate     eventEntity.DateKey   `json:"end_date"`
	StartTime   eventEntity.TimeLabel `json:"start_time"`
	EndTime     eventEntity.TimeLabel `json:"end_time"`
	CreatorID   string                `json:"creator_id"`
	ExpiresAt   *time.Time            `json:"expires_at,omitempty"`
}

func NewInvitePreview(claims *entity.InviteClaims) *InvitePreview {
	p := &InvitePreview{
		EventID:     claims.EventID,
		Title:       claims.Title,
		Description: claims.Description,
		StartDate:   claims.StartDate,
		EndDate:     claims.EndDate,
		StartTime:   claims.StartTime,
		EndTime:     claims.EndTime,
		CreatorID:   claims.CreatorID,
	}
	if claims.ExpiresAt != nil {
		t := claims.ExpiresAt.Time
		p.ExpiresAt = &t
	}
	return p
}
