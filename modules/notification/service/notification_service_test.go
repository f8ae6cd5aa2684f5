package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "go-huddle/core/errors"
	eventService "go-huddle/modules/event/service"
	"go-huddle/modules/notification/entity"
	"go-huddle/modules/notification/repository"
	"go-huddle/modules/notification/service"
)

type fakeRepo struct {
	created   []entity.Notification
	createErr error
	limit     int
	offset    int
	marked    []string
	markedAll bool
}

func (f *fakeRepo) CreateMany(_ context.Context, notifications []entity.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, notifications...)
	return nil
}

func (f *fakeRepo) GetByUserID(_ context.Context, userID string, limit, offset int) ([]entity.Notification, int, error) {
	f.limit, f.offset = limit, offset
	var items []entity.Notification
	for _, n := range f.created {
		if n.UserID == userID {
			items = append(items, n)
		}
	}
	return items, len(items), nil
}

func (f *fakeRepo) MarkAsRead(_ context.Context, _ string, ids []string) error {
	f.marked = ids
	return nil
}

func (f *fakeRepo) MarkAllAsRead(context.Context, string) error {
	f.markedAll = true
	return nil
}

func (f *fakeRepo) CountUnread(_ context.Context, userID string) (int, error) {
	count := 0
	for _, n := range f.created {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

var (
	_ repository.NotificationRepositoryInterface = (*fakeRepo)(nil)
	_ eventService.Notifier                      = (*service.NotificationService)(nil)
)

func TestNotificationService_NotifyCreatesOnePerRecipient(t *testing.T) {
	repo := &fakeRepo{}
	svc := service.NewNotificationService(repo)

	svc.Notify(context.Background(), []string{"bob", "cy"}, "ev1", eventService.NotifySlotLocked, "Slot locked", "Picnic is set")

	require.Len(t, repo.created, 2)
	assert.Equal(t, "bob", repo.created[0].UserID)
	assert.Equal(t, "cy", repo.created[1].UserID)
	assert.NotEqual(t, repo.created[0].ID, repo.created[1].ID)
	assert.Equal(t, "ev1", repo.created[0].EventID)
	assert.Equal(t, eventService.NotifySlotLocked, repo.created[0].Type)
	assert.False(t, repo.created[0].IsRead)
}

func TestNotificationService_NotifySwallowsErrors(t *testing.T) {
	repo := &fakeRepo{createErr: errors.New("db down")}
	svc := service.NewNotificationService(repo)

	assert.NotPanics(t, func() {
		svc.Notify(context.Background(), []string{"bob"}, "ev1", eventService.NotifyMemberRemoved, "t", "m")
	})
	svc.Notify(context.Background(), nil, "ev1", eventService.NotifyMemberRemoved, "t", "m")
}

func TestNotificationService_Paging(t *testing.T) {
	repo := &fakeRepo{}
	svc := service.NewNotificationService(repo)
	svc.Notify(context.Background(), []string{"bob"}, "ev1", eventService.NotifySlotUnlocked, "t", "m")

	result, appErr := svc.GetMyNotifications(context.Background(), "bob", 3, 500)
	require.Nil(t, appErr)
	assert.Equal(t, 100, result.PageSize)
	assert.Equal(t, 200, repo.offset)
	assert.Equal(t, 1, result.UnreadCount)

	result, appErr = svc.GetMyNotifications(context.Background(), "bob", 0, 0)
	require.Nil(t, appErr)
	assert.Equal(t, 1, result.PageNumber)
	assert.Equal(t, 20, repo.limit)
	assert.Len(t, result.Items, 1)
}

func TestNotificationService_MarkAsRead(t *testing.T) {
	repo := &fakeRepo{}
	svc := service.NewNotificationService(repo)

	require.Nil(t, svc.MarkAsRead(context.Background(), "bob", nil))
	assert.True(t, repo.markedAll)

	id := uuid.NewString()
	require.Nil(t, svc.MarkAsRead(context.Background(), "bob", []string{id}))
	assert.Equal(t, []string{id}, repo.marked)

	appErr := svc.MarkAsRead(context.Background(), "bob", []string{"nope"})
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrInvalidInput, appErr.Code)
}
