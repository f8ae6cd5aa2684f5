package dto

// ExportPayload is the body of the event:export_ics task.
type ExportPayload struct {
	EventID string `json:"event_id"`
}
