package store

import "time"

// Workflow is the stored representation of a workflow record. FlowPath
// and ScheduledPath are JSON-encoded ordered step tag lists;
// SlackChannels is a JSON-encoded string list. ScheduledPath is only
// meaningful while Resumable is set.
type Workflow struct {
	ID            string
	AccountID     string
	Name          string
	FlowPath      string
	ScheduledPath string
	Resumable     bool

	DiscordWebhookURL string
	DiscordTemplate   string

	SlackAccessToken string
	SlackChannels    string
	SlackTemplate    string

	NotionAccessToken string
	NotionDatabaseID  string
	NotionTemplate    string

	EmailRecipient string
	EmailSubject   string
	EmailTemplate  string

	CreatedAt time.Time
	UpdatedAt time.Time
}
