package flows

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fuzzie-io/flow-engine/pkg/models/api"
	"github.com/fuzzie-io/flow-engine/pkg/models/domain"
	"github.com/fuzzie-io/flow-engine/pkg/models/store"
	"github.com/fuzzie-io/flow-engine/pkg/services/trigger"
	"github.com/fuzzie-io/flow-engine/pkg/store/duckdb/workflow"
)

type mockIngestor struct {
	mock.Mock
}

func (m *mockIngestor) Ingest(ctx context.Context, n trigger.Notification) (*domain.TriggerEvent, *domain.Account, error) {
	args := m.Called(ctx, n)
	var event *domain.TriggerEvent
	if args.Get(0) != nil {
		event = args.Get(0).(*domain.TriggerEvent)
	}
	var acc *domain.Account
	if args.Get(1) != nil {
		acc = args.Get(1).(*domain.Account)
	}
	return event, acc, args.Error(2)
}

type mockSequencer struct {
	mock.Mock
}

func (m *mockSequencer) Run(ctx context.Context, event *domain.TriggerEvent) (*domain.RunReport, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RunReport), args.Error(1)
}

func (m *mockSequencer) Resume(ctx context.Context, workflowID string) (*domain.RunReport, error) {
	args := m.Called(ctx, workflowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RunReport), args.Error(1)
}

type mockWorkflowStore struct {
	mock.Mock
}

func (m *mockWorkflowStore) ListByAccount(ctx context.Context, accountID string) ([]*store.Workflow, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.Workflow), args.Error(1)
}

func (m *mockWorkflowStore) Get(ctx context.Context, workflowID string) (*store.Workflow, error) {
	args := m.Called(ctx, workflowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Workflow), args.Error(1)
}

func (m *mockWorkflowStore) UpdateSteps(ctx context.Context, workflowID string, flowPath string) error {
	return m.Called(ctx, workflowID, flowPath).Error(0)
}

func (m *mockWorkflowStore) SaveScheduledRemainder(ctx context.Context, workflowID string, remainder string) error {
	return m.Called(ctx, workflowID, remainder).Error(0)
}

func (m *mockWorkflowStore) TakeScheduledRemainder(ctx context.Context, workflowID string) (string, bool, error) {
	args := m.Called(ctx, workflowID)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockWorkflowStore) CreateWorkflow(ctx context.Context, wf *store.Workflow) error {
	return m.Called(ctx, wf).Error(0)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) api.TriggerResponse {
	t.Helper()
	var resp api.TriggerResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHandleNotification(t *testing.T) {
	t.Run("successful run is acknowledged with a summary", func(t *testing.T) {
		ingestor := new(mockIngestor)
		sequencer := new(mockSequencer)

		event := &domain.TriggerEvent{ResourceID: "res-1", AccountID: "acc-1", Payload: &domain.FilePayload{ID: "file-1"}}
		ingestor.On("Ingest", mock.Anything, trigger.Notification{ResourceID: "res-1", FileID: "file-1"}).
			Return(event, &domain.Account{ID: "acc-1"}, nil)
		sequencer.On("Run", mock.Anything, event).
			Return(&domain.RunReport{RunID: "run-1", AccountID: "acc-1", FileProcessed: true}, nil)

		handler := NewHandler(ingestor, sequencer, new(mockWorkflowStore))

		req := httptest.NewRequest(http.MethodPost, "/api/drive-activity/notification",
			strings.NewReader(`{"fileId":"file-1"}`))
		req.Header.Set("x-goog-resource-id", "res-1")
		rec := httptest.NewRecorder()

		handler.HandleNotification(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		resp := decodeResponse(t, rec)
		assert.Equal(t, "Workflow completed successfully", resp.Message)
		assert.True(t, resp.FileProcessed)
	})

	t.Run("file id falls back to the query param", func(t *testing.T) {
		ingestor := new(mockIngestor)
		sequencer := new(mockSequencer)

		event := &domain.TriggerEvent{ResourceID: "res-1", AccountID: "acc-1"}
		ingestor.On("Ingest", mock.Anything, trigger.Notification{ResourceID: "res-1", FileID: "file-2"}).
			Return(event, &domain.Account{ID: "acc-1"}, nil)
		sequencer.On("Run", mock.Anything, event).
			Return(&domain.RunReport{RunID: "run-1"}, nil)

		handler := NewHandler(ingestor, sequencer, new(mockWorkflowStore))

		req := httptest.NewRequest(http.MethodPost, "/api/drive-activity/notification?fileId=file-2", nil)
		req.Header.Set("x-goog-resource-id", "res-1")
		rec := httptest.NewRecorder()

		handler.HandleNotification(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		ingestor.AssertExpectations(t)
	})

	t.Run("unknown resource is acknowledged without a run", func(t *testing.T) {
		ingestor := new(mockIngestor)
		sequencer := new(mockSequencer)

		ingestor.On("Ingest", mock.Anything, mock.Anything).
			Return(nil, nil, trigger.ErrNoAccount)

		handler := NewHandler(ingestor, sequencer, new(mockWorkflowStore))

		req := httptest.NewRequest(http.MethodPost, "/api/drive-activity/notification", nil)
		rec := httptest.NewRecorder()

		handler.HandleNotification(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "No active workflows or insufficient credits", decodeResponse(t, rec).Message)
		sequencer.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
	})

	t.Run("drained balance is acknowledged without a run", func(t *testing.T) {
		ingestor := new(mockIngestor)
		sequencer := new(mockSequencer)

		ingestor.On("Ingest", mock.Anything, mock.Anything).
			Return(nil, nil, trigger.ErrNoCredit)

		handler := NewHandler(ingestor, sequencer, new(mockWorkflowStore))

		req := httptest.NewRequest(http.MethodPost, "/api/drive-activity/notification", nil)
		req.Header.Set("x-goog-resource-id", "res-1")
		rec := httptest.NewRecorder()

		handler.HandleNotification(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "No active workflows or insufficient credits", decodeResponse(t, rec).Message)
		sequencer.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
	})

	t.Run("ingestion failure is a 500", func(t *testing.T) {
		ingestor := new(mockIngestor)
		sequencer := new(mockSequencer)

		ingestor.On("Ingest", mock.Anything, mock.Anything).
			Return(nil, nil, errors.New("database is locked"))

		handler := NewHandler(ingestor, sequencer, new(mockWorkflowStore))

		req := httptest.NewRequest(http.MethodPost, "/api/drive-activity/notification", nil)
		rec := httptest.NewRecorder()

		handler.HandleNotification(rec, req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("run failure is a 500", func(t *testing.T) {
		ingestor := new(mockIngestor)
		sequencer := new(mockSequencer)

		event := &domain.TriggerEvent{ResourceID: "res-1", AccountID: "acc-1"}
		ingestor.On("Ingest", mock.Anything, mock.Anything).
			Return(event, &domain.Account{ID: "acc-1"}, nil)
		sequencer.On("Run", mock.Anything, event).
			Return(nil, errors.New("persist step consumption for workflow wf-1: disk full"))

		handler := NewHandler(ingestor, sequencer, new(mockWorkflowStore))

		req := httptest.NewRequest(http.MethodPost, "/api/drive-activity/notification", nil)
		req.Header.Set("x-goog-resource-id", "res-1")
		rec := httptest.NewRecorder()

		handler.HandleNotification(rec, req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHandleResume(t *testing.T) {
	t.Run("resumes the deferred workflow", func(t *testing.T) {
		sequencer := new(mockSequencer)
		sequencer.On("Resume", mock.Anything, "wf-1").
			Return(&domain.RunReport{
				RunID:     "run-1",
				Workflows: []domain.WorkflowResult{{WorkflowID: "wf-1", Status: domain.RunCompleted}},
			}, nil)

		handler := NewHandler(new(mockIngestor), sequencer, new(mockWorkflowStore))

		req := httptest.NewRequest(http.MethodGet, "/api/flows/resume?flow_id=wf-1", nil)
		rec := httptest.NewRecorder()

		handler.HandleResume(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Workflow completed successfully", decodeResponse(t, rec).Message)
	})

	t.Run("missing flow_id is a 400", func(t *testing.T) {
		sequencer := new(mockSequencer)
		handler := NewHandler(new(mockIngestor), sequencer, new(mockWorkflowStore))

		req := httptest.NewRequest(http.MethodGet, "/api/flows/resume", nil)
		rec := httptest.NewRecorder()

		handler.HandleResume(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		sequencer.AssertNotCalled(t, "Resume", mock.Anything, mock.Anything)
	})

	t.Run("unknown workflow is acknowledged and ignored", func(t *testing.T) {
		sequencer := new(mockSequencer)
		sequencer.On("Resume", mock.Anything, "wf-9").
			Return(nil, workflow.ErrNotFound)

		handler := NewHandler(new(mockIngestor), sequencer, new(mockWorkflowStore))

		req := httptest.NewRequest(http.MethodGet, "/api/flows/resume?flow_id=wf-9", nil)
		rec := httptest.NewRecorder()

		handler.HandleResume(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Nothing to resume", decodeResponse(t, rec).Message)
	})

	t.Run("a skipped pass reports nothing to resume", func(t *testing.T) {
		sequencer := new(mockSequencer)
		sequencer.On("Resume", mock.Anything, "wf-1").
			Return(&domain.RunReport{
				Workflows: []domain.WorkflowResult{{WorkflowID: "wf-1", Status: domain.RunSkipped}},
			}, nil)

		handler := NewHandler(new(mockIngestor), sequencer, new(mockWorkflowStore))

		req := httptest.NewRequest(http.MethodGet, "/api/flows/resume?flow_id=wf-1", nil)
		rec := httptest.NewRecorder()

		handler.HandleResume(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Nothing to resume", decodeResponse(t, rec).Message)
	})

	t.Run("resumption failure is a 500", func(t *testing.T) {
		sequencer := new(mockSequencer)
		sequencer.On("Resume", mock.Anything, "wf-1").
			Return(nil, errors.New("take remainder for workflow wf-1: disk full"))

		handler := NewHandler(new(mockIngestor), sequencer, new(mockWorkflowStore))

		req := httptest.NewRequest(http.MethodGet, "/api/flows/resume?flow_id=wf-1", nil)
		rec := httptest.NewRecorder()

		handler.HandleResume(rec, req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestListWorkflows(t *testing.T) {
	t.Run("lists an account's workflows with their step tags", func(t *testing.T) {
		workflows := new(mockWorkflowStore)
		workflows.On("ListByAccount", mock.Anything, "acc-1").
			Return([]*store.Workflow{
				{ID: "wf-1", AccountID: "acc-1", Name: "drive-to-chat", FlowPath: `["Discord","Slack"]`, ScheduledPath: "[]"},
				{ID: "wf-2", AccountID: "acc-1", Name: "archive", FlowPath: "[]", ScheduledPath: `["Notion"]`, Resumable: true},
			}, nil)

		handler := NewHandler(new(mockIngestor), new(mockSequencer), workflows)

		router := chi.NewRouter()
		router.Get("/api/v1/workflows/{account}", handler.ListWorkflows)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/workflows/acc-1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var listed []api.Workflow
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&listed))
		require.Len(t, listed, 2)
		assert.Equal(t, []string{"Discord", "Slack"}, listed[0].FlowPath)
		assert.True(t, listed[1].Resumable)
	})

	t.Run("store failure is a 500", func(t *testing.T) {
		workflows := new(mockWorkflowStore)
		workflows.On("ListByAccount", mock.Anything, "acc-1").
			Return(nil, errors.New("database is locked"))

		handler := NewHandler(new(mockIngestor), new(mockSequencer), workflows)

		router := chi.NewRouter()
		router.Get("/api/v1/workflows/{account}", handler.ListWorkflows)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/workflows/acc-1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
