// Package scheduler registers one-shot resumption callbacks with an
// external scheduling service. The engine is not a long-lived process:
// a wait step persists its remainder and asks the scheduler to call
// the engine back, instead of blocking in memory.
package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

const requestTimeout = 15 * time.Second

// Registrar schedules a future re-invocation of the engine for a
// deferred workflow and returns the earliest time it may fire.
type Registrar interface {
	RegisterResumption(ctx context.Context, workflowID string) (time.Time, error)
}

type cronJob struct {
	URL      string       `json:"url"`
	Enabled  string       `json:"enabled"`
	Schedule cronSchedule `json:"schedule"`
}

type cronSchedule struct {
	Timezone  string   `json:"timezone"`
	ExpiresAt int      `json:"expiresAt"`
	Hours     []int    `json:"hours"`
	MDays     []int    `json:"mdays"`
	Minutes   []string `json:"minutes"`
	Months    []int    `json:"months"`
	WDays     []int    `json:"wdays"`
}

type registerRequest struct {
	Job cronJob `json:"job"`
}

// CronJobRegistrar registers jobs against the cron-job.org API. Jobs
// fire on the next minute boundary; a fired callback clears the stored
// remainder, so repeat firings of the same job are no-ops.
type CronJobRegistrar struct {
	cfg    Config
	client *http.Client
}

func NewRegistrar(cfg Config) *CronJobRegistrar {
	return &CronJobRegistrar{
		cfg:    cfg,
		client: &http.Client{Timeout: requestTimeout},
	}
}

// NewRegistrarWithClient is used by tests to point at a local server.
func NewRegistrarWithClient(cfg Config, client *http.Client) *CronJobRegistrar {
	return &CronJobRegistrar{cfg: cfg, client: client}
}

func (r *CronJobRegistrar) RegisterResumption(ctx context.Context, workflowID string) (time.Time, error) {
	callback := fmt.Sprintf("%s/api/flows/resume?flow_id=%s", r.cfg.CallbackBase, url.QueryEscape(workflowID))

	body, err := json.Marshal(registerRequest{
		Job: cronJob{
			URL:     callback,
			Enabled: "true",
			Schedule: cronSchedule{
				Timezone:  r.cfg.Timezone,
				ExpiresAt: 0,
				Hours:     []int{-1},
				MDays:     []int{-1},
				Minutes:   []string{"*****"},
				Months:    []int{-1},
				WDays:     []int{-1},
			},
		},
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("scheduler: encode job: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, r.cfg.APIBase+"/jobs", bytes.NewReader(body))
	if err != nil {
		return time.Time{}, fmt.Errorf("scheduler: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return time.Time{}, fmt.Errorf("scheduler: register job: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return time.Time{}, fmt.Errorf("scheduler: register job: status %d", resp.StatusCode)
	}

	resumeAt := time.Now().Add(time.Minute)
	zerolog.Ctx(ctx).Info().
		Str("workflow", workflowID).
		Time("resume_at", resumeAt).
		Msg("registered resumption callback")
	return resumeAt, nil
}
