package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-huddle/core/constants"
	"go-huddle/core/storage"
	"go-huddle/modules/archive/dto"
	"go-huddle/modules/archive/service"
	"go-huddle/modules/event/entity"
)

type fakeLoader struct {
	events map[string]*entity.Event
	err    error
}

func (f *fakeLoader) Load(_ context.Context, id string) (*entity.Event, error) {
	return f.events[id], f.err
}

var _ service.EventLoader = (*fakeLoader)(nil)

type fakeStorage struct {
	keys        []string
	bodies      [][]byte
	contentType string
	err         error
}

func (f *fakeStorage) Put(_ context.Context, key string, body []byte, contentType string) (string, error) {
	f.keys = append(f.keys, key)
	f.bodies = append(f.bodies, body)
	f.contentType = contentType
	return "https://bucket.example.com/" + key, f.err
}

var _ storage.ObjectStorage = (*fakeStorage)(nil)

func exportTask(t *testing.T, eventID string) *asynq.Task {
	t.Helper()
	raw, err := json.Marshal(dto.ExportPayload{EventID: eventID})
	require.NoError(t, err)
	return asynq.NewTask(constants.TaskEventExportICS, raw)
}

func TestExportService_Export_Uploads(t *testing.T) {
	store := &fakeStorage{}
	svc := service.NewExportService(&fakeLoader{events: map[string]*entity.Event{"ev123": lockedEvent(t)}}, store)

	url, err := svc.Export(context.Background(), "ev123")

	require.NoError(t, err)
	assert.Equal(t, "https://bucket.example.com/events/ev123/final.ics", url)
	assert.Equal(t, []string{"events/ev123/final.ics"}, store.keys)
	assert.Contains(t, store.contentType, "text/calendar")
	assert.Contains(t, string(store.bodies[0]), "BEGIN:VEVENT")
}

func TestExportService_Export_StorageDisabled(t *testing.T) {
	svc := service.NewExportService(&fakeLoader{}, nil)

	url, err := svc.Export(context.Background(), "ev123")

	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestExportService_HandleExportTask_UnlockedIsNotAnError(t *testing.T) {
	ev := lockedEvent(t)
	ev.Unlock()
	store := &fakeStorage{}
	svc := service.NewExportService(&fakeLoader{events: map[string]*entity.Event{"ev123": ev}}, store)

	err := svc.HandleExportTask(context.Background(), exportTask(t, "ev123"))

	require.NoError(t, err)
	assert.Empty(t, store.keys)
}

func TestExportService_HandleExportTask_MissingEventSkipsRetry(t *testing.T) {
	svc := service.NewExportService(&fakeLoader{}, &fakeStorage{})

	err := svc.HandleExportTask(context.Background(), exportTask(t, "gone"))

	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestExportService_HandleExportTask_BadPayload(t *testing.T) {
	svc := service.NewExportService(&fakeLoader{}, &fakeStorage{})

	err := svc.HandleExportTask(context.Background(), asynq.NewTask(constants.TaskEventExportICS, []byte("{")))

	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestExportService_HandleExportTask_UploadErrorRetries(t *testing.T) {
	boom := errors.New("s3 down")
	svc := service.NewExportService(
		&fakeLoader{events: map[string]*entity.Event{"ev123": lockedEvent(t)}},
		&fakeStorage{err: boom},
	)

	err := svc.HandleExportTask(context.Background(), exportTask(t, "ev123"))

	assert.ErrorIs(t, err, boom)
}
