package entity

import "errors"

var (
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrInvalidTimeRange = errors.New("invalid time range")
	ErrEmptyTitle       = errors.New("title is required")
	ErrInvalidMember    = errors.New("member requires id and name")
	ErrInvalidRole      = errors.New("unknown role")

	ErrEventNotFound    = errors.New("event not found")
	ErrEventLocked      = errors.New("event is locked")
	ErrSlotNotFound     = errors.New("slot not found")
	ErrMemberNotFound   = errors.New("member not found")
	ErrCreatorProtected = errors.New("event creator cannot be removed")
	ErrEmptyMessage     = errors.New("message text is required")
)
