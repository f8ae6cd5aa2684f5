package archive

import (
	"go-huddle/core/constants"
	"go-huddle/core/queue"
	"go-huddle/core/storage"
	"go-huddle/modules/archive/service"
)

// Init registers the ICS export job on the worker.
func Init(worker *queue.Worker, events service.EventLoader, store storage.ObjectStorage) service.ExportServiceInterface {
	svc := service.NewExportService(events, store)
	worker.Handle(constants.TaskEventExportICS, svc.HandleExportTask)
	return svc
}
