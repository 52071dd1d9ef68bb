package scheduler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronJobRegistrar_RegisterResumption(t *testing.T) {
	ctx := context.Background()

	t.Run("registers a one-shot job for the workflow", func(t *testing.T) {
		var (
			method string
			path   string
			auth   string
			body   registerRequest
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			method = r.Method
			path = r.URL.Path
			auth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		registrar := NewRegistrarWithClient(Config{
			APIBase:      srv.URL,
			APIKey:       "cron-key",
			CallbackBase: "https://engine.example.com",
			Timezone:     "Europe/Istanbul",
		}, srv.Client())

		before := time.Now()
		resumeAt, err := registrar.RegisterResumption(ctx, "wf-1")
		require.NoError(t, err)

		assert.Equal(t, http.MethodPut, method)
		assert.Equal(t, "/jobs", path)
		assert.Equal(t, "Bearer cron-key", auth)
		assert.Equal(t, "https://engine.example.com/api/flows/resume?flow_id=wf-1", body.Job.URL)
		assert.Equal(t, "true", body.Job.Enabled)
		assert.Equal(t, "Europe/Istanbul", body.Job.Schedule.Timezone)
		assert.Equal(t, []string{"*****"}, body.Job.Schedule.Minutes)
		assert.Equal(t, []int{-1}, body.Job.Schedule.Hours)
		assert.False(t, resumeAt.Before(before))
	})

	t.Run("workflow id is escaped in the callback", func(t *testing.T) {
		var body registerRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		registrar := NewRegistrarWithClient(Config{
			APIBase:      srv.URL,
			CallbackBase: "https://engine.example.com",
		}, srv.Client())

		_, err := registrar.RegisterResumption(ctx, "wf 1&x=y")
		require.NoError(t, err)
		assert.Equal(t, "https://engine.example.com/api/flows/resume?flow_id=wf+1%26x%3Dy", body.Job.URL)
	})

	t.Run("non-2xx response is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		}))
		defer srv.Close()

		registrar := NewRegistrarWithClient(Config{
			APIBase:      srv.URL,
			CallbackBase: "https://engine.example.com",
		}, srv.Client())

		_, err := registrar.RegisterResumption(ctx, "wf-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 401")
	})

	t.Run("unreachable scheduler is an error", func(t *testing.T) {
		registrar := NewRegistrar(Config{
			APIBase:      "http://127.0.0.1:1",
			CallbackBase: "https://engine.example.com",
		})
		_, err := registrar.RegisterResumption(ctx, "wf-1")
		require.Error(t, err)
	})
}
