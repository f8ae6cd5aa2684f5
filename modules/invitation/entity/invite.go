package entity

import (
	eventEntity "go-huddle/modules/event/entity"

	"github.com/golang-jwt/jwt/v5"
)

// InviteClaims is the signed content of an invite link. It carries enough of
// the event to render a preview without loading it.
type InviteClaims struct {
	EventID     string                `json:"eid"`
	Title       string                `json:"title"`
	Description string                `json:"desc,omitempty"`
	StartDate   eventEntity.DateKey   `json:"sd"`
	EndDate     eventEntity.DateKey   `json:"ed"`
	StartTime   eventEntity.TimeLabel `json:"st"`
	EndTime     eventEntity.TimeLabel `json:"et"`
	CreatorID   string                `json:"cid"`
	Scope       string                `json:"scope"`
	jwt.RegisteredClaims
}
