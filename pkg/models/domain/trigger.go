package domain

import "time"

// FilePayload is the optional resolved content of the file that caused
// the inbound notification. Resolution is best-effort: a run proceeds
// without it when the fetch fails.
type FilePayload struct {
	ID           string
	Name         string
	MimeType     string
	ModifiedTime time.Time
	Content      string
	DownloadURL  string
}

// TriggerEvent is the normalized form of an inbound provider
// notification. It is ephemeral and never persisted.
type TriggerEvent struct {
	ResourceID string
	AccountID  string
	Payload    *FilePayload
}
