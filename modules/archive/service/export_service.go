package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-huddle/core/logger"
	"go-huddle/core/queue"
	"go-huddle/core/storage"
	"go-huddle/modules/archive/dto"
	"go-huddle/modules/event/entity"

	"github.com/hibiken/asynq"
)

// EventLoader is the read side of the event store.
type EventLoader interface {
	Load(ctx context.Context, id string) (*entity.Event, error)
}

type ExportServiceInterface interface {
	Export(ctx context.Context, eventID string) (string, error)
	HandleExportTask(ctx context.Context, task *asynq.Task) error
}

type ExportService struct {
	events  EventLoader
	storage storage.ObjectStorage
	now     func() time.Time
}

// NewExportService accepts a nil storage; exports are then skipped.
func NewExportService(events EventLoader, store storage.ObjectStorage) ExportServiceInterface {
	return &ExportService{events: events, storage: store, now: time.Now}
}

func ObjectKey(eventID string) string {
	return fmt.Sprintf("events/%s/final.ics", eventID)
}

// Export renders the stored event and uploads it. Returns the object URL.
func (s *ExportService) Export(ctx context.Context, eventID string) (string, error) {
	if s.storage == nil {
		logger.Warn("ExportService:Export:Skipped", "event_id", eventID, "reason", "storage disabled")
		return "", nil
	}

	ev, err := s.events.Load(ctx, eventID)
	if err != nil {
		return "", fmt.Errorf("load event %s: %w", eventID, err)
	}
	if ev == nil {
		return "", fmt.Errorf("event %s: %w", eventID, asynq.SkipRetry)
	}

	body, err := BuildICS(ev, s.now())
	if err != nil {
		return "", err
	}

	url, err := s.storage.Put(ctx, ObjectKey(eventID), body, "text/calendar; charset=utf-8")
	if err != nil {
		logger.Error("ExportService:Export:Put:Error", "event_id", eventID, "error", err)
		return "", err
	}

	logger.Info("ExportService:Export:Uploaded", "event_id", eventID, "url", url)
	return url, nil
}

// HandleExportTask processes event:export_ics. An event unlocked before the
// task ran is not an error.
func (s *ExportService) HandleExportTask(ctx context.Context, task *asynq.Task) error {
	var payload dto.ExportPayload
	if err := queue.DecodePayload(task, &payload); err != nil {
		return err
	}

	_, err := s.Export(ctx, payload.EventID)
	if errors.Is(err, ErrNotLocked) {
		logger.Info("ExportService:HandleExportTask:NotLocked", "event_id", payload.EventID)
		return nil
	}
	return err
}
