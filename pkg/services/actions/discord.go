package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fuzzie-io/flow-engine/pkg/models/domain"
	"github.com/rs/zerolog"
)

const discordRequestTimeout = 15 * time.Second

// DiscordAdapter posts the rendered message to the workflow's stored
// webhook URL.
type DiscordAdapter struct {
	client *http.Client
}

func NewDiscordAdapter() *DiscordAdapter {
	return &DiscordAdapter{
		client: &http.Client{Timeout: discordRequestTimeout},
	}
}

// NewDiscordAdapterWithClient is used by tests to point the adapter at
// a local server.
func NewDiscordAdapterWithClient(client *http.Client) *DiscordAdapter {
	return &DiscordAdapter{client: client}
}

func (a *DiscordAdapter) Kind() domain.StepKind {
	return domain.StepDiscord
}

func (a *DiscordAdapter) Execute(ctx context.Context, req Request) domain.Outcome {
	cfg := req.Workflow.Discord
	if cfg.WebhookURL == "" {
		return domain.Failed("discord: no webhook configured")
	}

	content := RenderMessage(req.Payload, cfg.Template, DiscordMaxContentLength)
	if content == "" {
		return domain.Failed("discord: empty message content")
	}

	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return domain.Failed(fmt.Sprintf("discord: encode payload: %v", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return domain.Failed(fmt.Sprintf("discord: build request: %v", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return domain.Failed(fmt.Sprintf("discord: post webhook: %v", err))
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Failed(fmt.Sprintf("discord: webhook returned %d", resp.StatusCode))
	}

	zerolog.Ctx(ctx).Debug().
		Str("workflow", req.Workflow.ID).
		Int("content_len", len(content)).
		Msg("posted message to discord webhook")
	return domain.Completed()
}
