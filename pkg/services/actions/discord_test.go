package actions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuzzie-io/flow-engine/pkg/models/domain"
)

func TestDiscordAdapter_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("posts rendered content to the webhook", func(t *testing.T) {
		var received map[string]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		adapter := NewDiscordAdapterWithClient(srv.Client())
		outcome := adapter.Execute(ctx, Request{
			Workflow: &domain.Workflow{
				ID:      "wf-1",
				Discord: domain.DiscordConfig{WebhookURL: srv.URL, Template: "deploy done"},
			},
		})

		assert.Equal(t, domain.OutcomeCompleted, outcome.Status)
		assert.Equal(t, "deploy done", received["content"])
	})

	t.Run("payload content is embedded", func(t *testing.T) {
		var received map[string]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		adapter := NewDiscordAdapterWithClient(srv.Client())
		outcome := adapter.Execute(ctx, Request{
			Workflow: &domain.Workflow{ID: "wf-1", Discord: domain.DiscordConfig{WebhookURL: srv.URL}},
			Payload:  payloadFixture(50),
		})

		assert.Equal(t, domain.OutcomeCompleted, outcome.Status)
		assert.Contains(t, received["content"], "notes.txt")
	})

	t.Run("provider rejection is a failed outcome", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad webhook", http.StatusUnauthorized)
		}))
		defer srv.Close()

		adapter := NewDiscordAdapterWithClient(srv.Client())
		outcome := adapter.Execute(ctx, Request{
			Workflow: &domain.Workflow{ID: "wf-1", Discord: domain.DiscordConfig{WebhookURL: srv.URL}},
		})

		assert.Equal(t, domain.OutcomeFailed, outcome.Status)
		assert.Contains(t, outcome.Reason, "401")
	})

	t.Run("unreachable webhook is a failed outcome", func(t *testing.T) {
		adapter := NewDiscordAdapter()
		outcome := adapter.Execute(ctx, Request{
			Workflow: &domain.Workflow{
				ID:      "wf-1",
				Discord: domain.DiscordConfig{WebhookURL: "http://127.0.0.1:1", Template: "x"},
			},
		})
		assert.Equal(t, domain.OutcomeFailed, outcome.Status)
	})

	t.Run("missing webhook fails without a request", func(t *testing.T) {
		adapter := NewDiscordAdapter()
		outcome := adapter.Execute(ctx, Request{Workflow: &domain.Workflow{ID: "wf-1"}})
		assert.Equal(t, domain.OutcomeFailed, outcome.Status)
		assert.Contains(t, outcome.Reason, "no webhook")
	})
}
