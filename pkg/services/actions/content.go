package actions

import (
	"fmt"
	"strings"

	"github.com/fuzzie-io/flow-engine/pkg/models/domain"
)

const (
	// DiscordMaxContentLength leaves room under Discord's 2000-char
	// message ceiling for the truncation notice and the file link.
	DiscordMaxContentLength = 1900
	SlackMaxContentLength   = 2000
	notionContentPreviewLen = 500

	fallbackMessage = "File activity detected in Google Drive"
)

// RenderMessage builds the chat message for message-post steps. With a
// payload present it describes the changed file and embeds its content,
// truncated to the provider limit; otherwise it falls back to the
// step's stored template.
func RenderMessage(payload *domain.FilePayload, template string, maxContentLen int) string {
	if payload == nil {
		if template != "" {
			return template
		}
		return fallbackMessage
	}

	var b strings.Builder
	b.WriteString("📁 **File Update from Google Drive**\n\n")
	fmt.Fprintf(&b, "**File:** %s\n", payload.Name)
	fmt.Fprintf(&b, "**Type:** %s\n", payload.MimeType)
	fmt.Fprintf(&b, "**Modified:** %s\n\n", payload.ModifiedTime.Format("Jan 2, 2006 3:04 PM"))

	if payload.Content != "" {
		content := payload.Content
		if len(content) > maxContentLen {
			content = content[:maxContentLen] + "...\n\n[Content truncated]"
		}
		fmt.Fprintf(&b, "**Content:**\n```\n%s\n```", content)
	}

	if payload.DownloadURL != "" {
		fmt.Fprintf(&b, "\n\n🔗 **View File:** %s", payload.DownloadURL)
	}

	return b.String()
}

// RenderNotionContent builds the single-line page title for page-create
// steps: file metadata plus a bounded content preview, or the stored
// template when there is no payload.
func RenderNotionContent(payload *domain.FilePayload, template string) string {
	if payload == nil {
		if template != "" {
			return template
		}
		return "Google Drive file activity"
	}

	content := fmt.Sprintf("File: %s | Type: %s | Modified: %s",
		payload.Name, payload.MimeType, payload.ModifiedTime.Format("Jan 2, 2006 3:04 PM"))

	if payload.Content != "" {
		preview := payload.Content
		if len(preview) > notionContentPreviewLen {
			preview = preview[:notionContentPreviewLen] + "..."
		}
		content += " | Content: " + preview
	}
	return content
}
