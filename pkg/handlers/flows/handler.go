package flows

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/fuzzie-io/flow-engine/pkg/adapters"
	"github.com/fuzzie-io/flow-engine/pkg/metrics"
	"github.com/fuzzie-io/flow-engine/pkg/models/api"
	"github.com/fuzzie-io/flow-engine/pkg/models/domain"
	"github.com/fuzzie-io/flow-engine/pkg/services/engine"
	"github.com/fuzzie-io/flow-engine/pkg/services/trigger"
	"github.com/fuzzie-io/flow-engine/pkg/store/duckdb/workflow"
)

const (
	msgCompleted = "Workflow completed successfully"
	msgRejected  = "No active workflows or insufficient credits"
	msgNoResume  = "Nothing to resume"
)

type Handler struct {
	ingestor  trigger.Ingestor
	sequencer engine.Sequencer
	workflows workflow.Store
}

func NewHandler(ingestor trigger.Ingestor, sequencer engine.Sequencer, workflows workflow.Store) *Handler {
	return &Handler{
		ingestor:  ingestor,
		sequencer: sequencer,
		workflows: workflows,
	}
}

// HandleNotification receives a drive change push notification. The
// notification source always gets a 200 acknowledgement whether or not
// a run happened; only persistence failures surface as 500.
func (h *Handler) HandleNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	notification := trigger.Notification{
		ResourceID: r.Header.Get("x-goog-resource-id"),
		FileID:     fileIDFrom(r),
	}

	event, _, err := h.ingestor.Ingest(ctx, notification)
	switch {
	case errors.Is(err, trigger.ErrNoCredit):
		metrics.CreditDenied()
		fallthrough
	case errors.Is(err, trigger.ErrNoAccount):
		writeJSON(ctx, w, http.StatusOK, api.TriggerResponse{Message: msgRejected})
		return
	case err != nil:
		logger.Error().Err(err).Msg("trigger ingestion failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	report, err := h.sequencer.Run(ctx, event)
	if err != nil {
		logger.Error().Err(err).Msg("workflow run failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(ctx, w, http.StatusOK, api.TriggerResponse{
		Message:       msgCompleted,
		FileProcessed: report.FileProcessed,
	})
}

// HandleResume is the scheduler's callback for a deferred workflow. A
// callback for a workflow with no stored remainder is acknowledged and
// ignored.
func (h *Handler) HandleResume(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	workflowID := r.URL.Query().Get("flow_id")
	if workflowID == "" {
		http.Error(w, "flow_id is required", http.StatusBadRequest)
		return
	}

	report, err := h.sequencer.Resume(ctx, workflowID)
	if errors.Is(err, workflow.ErrNotFound) {
		writeJSON(ctx, w, http.StatusOK, api.TriggerResponse{Message: msgNoResume})
		return
	}
	if err != nil {
		logger.Error().Err(err).Str("workflow", workflowID).Msg("workflow resumption failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	message := msgCompleted
	if len(report.Workflows) > 0 && report.Workflows[0].Status == domain.RunSkipped {
		message = msgNoResume
	}
	writeJSON(ctx, w, http.StatusOK, api.TriggerResponse{Message: message})
}

// ListWorkflows exposes an account's stored workflows for operators.
func (h *Handler) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	accountID := chi.URLParam(r, "account")

	records, err := h.workflows.ListByAccount(ctx, accountID)
	if err != nil {
		logger.Error().Err(err).Str("account", accountID).Msg("failed to list workflows")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	response := make([]api.Workflow, 0, len(records))
	for _, record := range records {
		wf, err := adapters.MapStoreWorkflowToDomain(record)
		if err != nil {
			logger.Error().Err(err).Str("account", accountID).Msg("corrupt workflow record")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		tags := make([]string, 0, len(wf.Steps))
		for _, s := range wf.Steps {
			tags = append(tags, string(s))
		}
		response = append(response, api.Workflow{
			ID:        wf.ID,
			Name:      wf.Name,
			FlowPath:  tags,
			Resumable: wf.Resumable,
		})
	}

	writeJSON(ctx, w, http.StatusOK, response)
}

// fileIDFrom reads the file reference from the JSON body, falling back
// to the fileId query param when the body is empty or not JSON.
func fileIDFrom(r *http.Request) string {
	var body api.NotificationBody
	if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.FileID != "" {
		return body.FileID
	}
	return r.URL.Query().Get("fileId")
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to encode response")
	}
}
