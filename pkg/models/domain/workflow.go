package domain

import "time"

// DiscordConfig holds the webhook target and template for Discord
// message-post steps.
type DiscordConfig struct {
	WebhookURL string
	Template   string
}

// SlackConfig holds the bot token, target channels and template for
// Slack message-post steps.
type SlackConfig struct {
	AccessToken string
	Channels    []string
	Template    string
}

// NotionConfig holds the integration token and target database for
// Notion page-create steps.
type NotionConfig struct {
	AccessToken string
	DatabaseID  string
	Template    string
}

// EmailConfig holds the recipient and message fields for email-send
// steps. Attachments are base64-encoded payloads captured at edit time.
type EmailConfig struct {
	Recipient   string
	Subject     string
	Body        string
	Attachments []EmailAttachment
}

type EmailAttachment struct {
	Filename    string
	ContentType string
	Content     string // base64
}

// Workflow is a user-defined ordered action sequence. Steps is the live
// queue consumed from the front as steps terminally complete or fail.
// ScheduledSteps holds the remainder persisted by a wait step until the
// scheduled resumption callback picks it up.
type Workflow struct {
	ID        string
	AccountID string
	Name      string

	Steps          []StepKind
	ScheduledSteps []StepKind
	Resumable      bool

	Discord DiscordConfig
	Slack   SlackConfig
	Notion  NotionConfig
	Email   EmailConfig

	CreatedAt time.Time
	UpdatedAt time.Time
}
