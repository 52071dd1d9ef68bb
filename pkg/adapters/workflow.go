package adapters

import (
	"encoding/json"
	"fmt"

	"github.com/fuzzie-io/flow-engine/pkg/models/domain"
	"github.com/fuzzie-io/flow-engine/pkg/models/store"
)

// MapStoreWorkflowToDomain decodes a stored workflow record, parsing
// the JSON step sequences into typed step kinds. A corrupt sequence
// fails the whole mapping so the sequencer never runs a partial parse.
func MapStoreWorkflowToDomain(w *store.Workflow) (*domain.Workflow, error) {
	if w == nil {
		return nil, nil
	}

	steps, err := decodeSteps(w.FlowPath)
	if err != nil {
		return nil, fmt.Errorf("workflow %s: flow path: %w", w.ID, err)
	}
	scheduled, err := decodeSteps(w.ScheduledPath)
	if err != nil {
		return nil, fmt.Errorf("workflow %s: scheduled path: %w", w.ID, err)
	}

	var channels []string
	if w.SlackChannels != "" {
		if err := json.Unmarshal([]byte(w.SlackChannels), &channels); err != nil {
			return nil, fmt.Errorf("workflow %s: slack channels: %w", w.ID, err)
		}
	}

	return &domain.Workflow{
		ID:             w.ID,
		AccountID:      w.AccountID,
		Name:           w.Name,
		Steps:          steps,
		ScheduledSteps: scheduled,
		Resumable:      w.Resumable,
		Discord: domain.DiscordConfig{
			WebhookURL: w.DiscordWebhookURL,
			Template:   w.DiscordTemplate,
		},
		Slack: domain.SlackConfig{
			AccessToken: w.SlackAccessToken,
			Channels:    channels,
			Template:    w.SlackTemplate,
		},
		Notion: domain.NotionConfig{
			AccessToken: w.NotionAccessToken,
			DatabaseID:  w.NotionDatabaseID,
			Template:    w.NotionTemplate,
		},
		Email: domain.EmailConfig{
			Recipient: w.EmailRecipient,
			Subject:   w.EmailSubject,
			Body:      w.EmailTemplate,
		},
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}, nil
}

// EncodeSteps serializes a step sequence into the stored JSON form.
func EncodeSteps(steps []domain.StepKind) (string, error) {
	tags := make([]string, 0, len(steps))
	for _, s := range steps {
		tags = append(tags, string(s))
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode steps: %w", err)
	}
	return string(raw), nil
}

func decodeSteps(raw string) ([]domain.StepKind, error) {
	if raw == "" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("decode steps: %w", err)
	}
	return domain.ParseStepKinds(tags)
}
