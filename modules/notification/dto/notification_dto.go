package dto

import "go-huddle/modules/notification/entity"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type NotificationListResponse struct {
	Items       []entity.Notification `json:"items"`
	TotalItems  int                   `json:"total_items"`
	UnreadCount int                   `json:"unread_count"`
	PageNumber  int                   `json:"page_number"`
	PageSize    int                   `json:"page_size"`
}

// MarkAsReadRequest marks the listed ids, or every notification when IDs is empty.
type MarkAsReadRequest struct {
	IDs []string `json:"ids"`
}
