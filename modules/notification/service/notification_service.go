package service

import (
	"context"
	"time"

	"go-huddle/core/errors"
	"go-huddle/core/logger"
	"go-huddle/modules/notification/dto"
	"go-huddle/modules/notification/entity"
	"go-huddle/modules/notification/repository"

	"github.com/google/uuid"
)

type NotificationServiceInterface interface {
	// Notify stores one notification per recipient. Failures are logged.
	Notify(ctx context.Context, userIDs []string, eventID, kind, title, message string)
	GetMyNotifications(ctx context.Context, userID string, page, pageSize int) (*dto.NotificationListResponse, *errors.AppError)
	MarkAsRead(ctx context.Context, userID string, ids []string) *errors.AppError
}

type NotificationService struct {
	repo repository.NotificationRepositoryInterface
	now  func() time.Time
}

func NewNotificationService(repo repository.NotificationRepositoryInterface) NotificationServiceInterface {
	return &NotificationService{repo: repo, now: time.Now}
}

func (s *NotificationService) Notify(ctx context.Context, userIDs []string, eventID, kind, title, message string) {
	if len(userIDs) == 0 {
		return
	}

	now := s.now().UTC()
	notifications := make([]entity.Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		notifications = append(notifications, entity.Notification{
			ID:        uuid.New(),
			UserID:    userID,
			EventID:   eventID,
			Title:     title,
			Message:   message,
			Type:      kind,
			CreatedAt: now,
		})
	}

	if err := s.repo.CreateMany(ctx, notifications); err != nil {
		logger.Error("NotificationService:Notify:Error", "event_id", eventID, "type", kind, "error", err)
	}
}

func (s *NotificationService) GetMyNotifications(ctx context.Context, userID string, page, pageSize int) (*dto.NotificationListResponse, *errors.AppError) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = dto.DefaultPageSize
	}
	if pageSize > dto.MaxPageSize {
		pageSize = dto.MaxPageSize
	}

	items, total, err := s.repo.GetByUserID(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get notifications", err)
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to count notifications", err)
	}

	return &dto.NotificationListResponse{
		Items:       items,
		TotalItems:  total,
		UnreadCount: unread,
		PageNumber:  page,
		PageSize:    pageSize,
	}, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, userID string, ids []string) *errors.AppError {
	var err error
	if len(ids) == 0 {
		err = s.repo.MarkAllAsRead(ctx, userID)
	} else {
		for _, id := range ids {
			if _, parseErr := uuid.Parse(id); parseErr != nil {
				return errors.NewAppError(errors.ErrInvalidInput, "Invalid notification id", parseErr)
			}
		}
		err = s.repo.MarkAsRead(ctx, userID, ids)
	}
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to mark as read", err)
	}
	return nil
}
