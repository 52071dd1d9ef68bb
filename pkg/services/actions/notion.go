package actions

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fuzzie-io/flow-engine/pkg/models/domain"
	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"
)

const notionRequestTimeout = 15 * time.Second

// PageCreator is the slice of the Notion client the adapter needs.
// notionapi.Client.Page satisfies it.
type PageCreator interface {
	Create(ctx context.Context, request *notionapi.PageCreateRequest) (*notionapi.Page, error)
}

// NotionAdapter creates a page in the workflow's configured database.
// The client is built per dispatch from the stored integration token.
type NotionAdapter struct {
	newClient func(token string) PageCreator
}

func NewNotionAdapter() *NotionAdapter {
	return &NotionAdapter{
		newClient: func(token string) PageCreator {
			client := notionapi.NewClient(notionapi.Token(token),
				notionapi.WithHTTPClient(&http.Client{Timeout: notionRequestTimeout}))
			return client.Page
		},
	}
}

// NewNotionAdapterWithClient is used by tests to swap the client
// factory.
func NewNotionAdapterWithClient(newClient func(token string) PageCreator) *NotionAdapter {
	return &NotionAdapter{newClient: newClient}
}

func (a *NotionAdapter) Kind() domain.StepKind {
	return domain.StepNotion
}

func (a *NotionAdapter) Execute(ctx context.Context, req Request) domain.Outcome {
	cfg := req.Workflow.Notion
	if cfg.AccessToken == "" {
		return domain.Failed("notion: no access token configured")
	}
	if cfg.DatabaseID == "" {
		return domain.Failed("notion: no database configured")
	}

	content := RenderNotionContent(req.Payload, cfg.Template)
	client := a.newClient(cfg.AccessToken)

	_, err := client.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(cfg.DatabaseID),
		},
		Properties: notionapi.Properties{
			"name": notionapi.TitleProperty{
				Title: []notionapi.RichText{
					{Text: &notionapi.Text{Content: content}},
				},
			},
		},
	})
	if err != nil {
		return domain.Failed(fmt.Sprintf("notion: create page: %v", err))
	}

	zerolog.Ctx(ctx).Debug().
		Str("workflow", req.Workflow.ID).
		Str("database", cfg.DatabaseID).
		Msg("created notion page")
	return domain.Completed()
}
