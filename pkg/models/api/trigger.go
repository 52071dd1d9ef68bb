package api

// NotificationBody is the optional JSON body of an inbound drive
// change notification. The watched resource id itself arrives in the
// x-goog-resource-id header.
type NotificationBody struct {
	FileID string `json:"fileId"`
}

// TriggerResponse is the acknowledgement returned to the notification
// source. Per-step outcomes are never surfaced here.
type TriggerResponse struct {
	Message       string `json:"message"`
	FileProcessed bool   `json:"fileProcessed"`
}

// Workflow is the operator-facing listing of a stored workflow.
type Workflow struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	FlowPath  []string `json:"flowPath"`
	Resumable bool     `json:"resumable"`
}
