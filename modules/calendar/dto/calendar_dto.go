package dto

import (
	"time"

	"go-huddle/modules/calendar/entity"
	eventEntity "go-huddle/modules/event/entity"
)

// ConnectRequest carries the OAuth tokens obtained by the client's Google
// consent flow.
type ConnectRequest struct {
	AccessToken   string    `json:"access_token"`
	RefreshToken  string    `json:"refresh_token"`
	ExpiresAt     time.Time `json:"expires_at"`
	CalendarEmail string    `json:"calendar_email"`
}

type AuthURLResponse struct {
	URL string `json:"url"`
}

type ConnectionResponse struct {
	Provider      string    `json:"provider"`
	CalendarEmail string    `json:"calendar_email"`
	IsActive      bool      `json:"is_active"`
	ExpiresAt     time.Time `json:"expires_at"`
}

func NewConnectionResponse(conn *entity.CalendarConnection) *ConnectionResponse {
	return &ConnectionResponse{
		Provider:      conn.Provider,
		CalendarEmail: conn.CalendarEmail,
		IsActive:      conn.IsActive,
		ExpiresAt:     conn.TokenExpiresAt,
	}
}

type BusyResponse struct {
	Source string                          `json:"source"`
	Events []eventEntity.CalendarBusyEvent `json:"events"`
}

// SyncPayload is the calendar:sync_busy task payload.
type SyncPayload struct {
	UserID string `json:"user_id"`
}

const (
	SourceDemo   = "demo"
	SourceGoogle = "google"
)
