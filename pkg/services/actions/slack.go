package actions

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fuzzie-io/flow-engine/pkg/models/domain"
	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
)

const slackRequestTimeout = 15 * time.Second

// MessagePoster is the slice of the Slack client the adapter needs.
// *slack.Client satisfies it.
type MessagePoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackAdapter posts the rendered message to every channel stored on
// the workflow. The client is built per dispatch because the access
// token lives on the workflow record.
type SlackAdapter struct {
	newClient func(token string) MessagePoster
}

func NewSlackAdapter() *SlackAdapter {
	return &SlackAdapter{
		newClient: func(token string) MessagePoster {
			return slack.New(token, slack.OptionHTTPClient(&http.Client{Timeout: slackRequestTimeout}))
		},
	}
}

// NewSlackAdapterWithClient is used by tests to swap the client
// factory.
func NewSlackAdapterWithClient(newClient func(token string) MessagePoster) *SlackAdapter {
	return &SlackAdapter{newClient: newClient}
}

func (a *SlackAdapter) Kind() domain.StepKind {
	return domain.StepSlack
}

func (a *SlackAdapter) Execute(ctx context.Context, req Request) domain.Outcome {
	cfg := req.Workflow.Slack
	if cfg.AccessToken == "" {
		return domain.Failed("slack: no access token configured")
	}
	if len(cfg.Channels) == 0 {
		return domain.Failed("slack: no channels configured")
	}

	content := RenderMessage(req.Payload, cfg.Template, SlackMaxContentLength)
	client := a.newClient(cfg.AccessToken)
	logger := zerolog.Ctx(ctx)

	posted := 0
	var lastErr error
	for _, channel := range cfg.Channels {
		_, _, err := client.PostMessageContext(ctx, channel, slack.MsgOptionText(content, false))
		if err != nil {
			lastErr = err
			logger.Warn().
				Err(err).
				Str("workflow", req.Workflow.ID).
				Str("channel", channel).
				Msg("slack post failed")
			continue
		}
		posted++
	}

	if posted == 0 {
		return domain.Failed(fmt.Sprintf("slack: all %d channels failed: %v", len(cfg.Channels), lastErr))
	}
	return domain.Completed()
}
