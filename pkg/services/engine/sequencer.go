// Package engine walks a workflow's stored step sequence, dispatching
// each step to its action adapter and consuming the sequence as a
// strict prefix queue.
package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fuzzie-io/flow-engine/pkg/adapters"
	"github.com/fuzzie-io/flow-engine/pkg/metrics"
	"github.com/fuzzie-io/flow-engine/pkg/models/domain"
	"github.com/fuzzie-io/flow-engine/pkg/services/actions"
	"github.com/fuzzie-io/flow-engine/pkg/services/credit"
	"github.com/fuzzie-io/flow-engine/pkg/store/duckdb/account"
	"github.com/fuzzie-io/flow-engine/pkg/store/duckdb/workflow"
)

// Sequencer runs all of an account's workflows for one trigger event,
// and resumes a single deferred workflow when the scheduled callback
// fires. Errors it returns are persistence failures: losing a step
// consumption or a remainder write would duplicate or drop steps on
// the next trigger, so the caller must surface them as 5xx. Provider
// failures never surface here; they are recorded per step.
type Sequencer interface {
	Run(ctx context.Context, event *domain.TriggerEvent) (*domain.RunReport, error)
	Resume(ctx context.Context, workflowID string) (*domain.RunReport, error)
}

type defaultSequencer struct {
	workflows workflow.Store
	accounts  account.Store
	ledger    credit.Ledger
	registry  actions.Registry
}

func NewSequencer(
	workflows workflow.Store,
	accounts account.Store,
	ledger credit.Ledger,
	registry actions.Registry,
) (Sequencer, error) {
	if workflows == nil || accounts == nil || ledger == nil || registry == nil {
		return nil, fmt.Errorf("sequencer dependencies must not be nil")
	}
	return &defaultSequencer{
		workflows: workflows,
		accounts:  accounts,
		ledger:    ledger,
		registry:  registry,
	}, nil
}

func (s *defaultSequencer) Run(ctx context.Context, event *domain.TriggerEvent) (*domain.RunReport, error) {
	accRecord, err := s.accounts.GetByID(ctx, event.AccountID)
	if err != nil {
		return nil, fmt.Errorf("load account %s: %w", event.AccountID, err)
	}
	acc := adapters.MapStoreAccountToDomain(accRecord)

	records, err := s.workflows.ListByAccount(ctx, acc.ID)
	if err != nil {
		return nil, fmt.Errorf("list workflows for account %s: %w", acc.ID, err)
	}

	report := &domain.RunReport{
		RunID:         uuid.NewString(),
		AccountID:     acc.ID,
		FileProcessed: event.Payload != nil,
	}

	logger := zerolog.Ctx(ctx).With().
		Str("run", report.RunID).
		Str("account", acc.ID).
		Logger()
	ctx = logger.WithContext(ctx)

	// Workflows are processed sequentially; the stored step order per
	// workflow is the only ordering guarantee the engine makes.
	for _, record := range records {
		wf, err := adapters.MapStoreWorkflowToDomain(record)
		if err != nil {
			return nil, err
		}

		result, err := s.runWorkflow(ctx, wf, *acc, event.Payload)
		if err != nil {
			return nil, err
		}
		report.Workflows = append(report.Workflows, result)
	}

	return report, nil
}

func (s *defaultSequencer) Resume(ctx context.Context, workflowID string) (*domain.RunReport, error) {
	record, err := s.workflows.Get(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("load workflow %s: %w", workflowID, err)
	}

	wf, err := adapters.MapStoreWorkflowToDomain(record)
	if err != nil {
		return nil, err
	}

	accRecord, err := s.accounts.GetByID(ctx, wf.AccountID)
	if err != nil {
		return nil, fmt.Errorf("load account %s: %w", wf.AccountID, err)
	}
	acc := adapters.MapStoreAccountToDomain(accRecord)

	report := &domain.RunReport{
		RunID:     uuid.NewString(),
		AccountID: acc.ID,
	}

	logger := zerolog.Ctx(ctx).With().
		Str("run", report.RunID).
		Str("workflow", wf.ID).
		Logger()
	ctx = logger.WithContext(ctx)

	remainder, ok, err := s.workflows.TakeScheduledRemainder(ctx, wf.ID)
	if err != nil {
		return nil, fmt.Errorf("take remainder for workflow %s: %w", wf.ID, err)
	}
	if !ok {
		// Duplicate or stale callback; nothing to resume.
		logger.Info().Msg("resumption callback with no stored remainder")
		result := domain.WorkflowResult{WorkflowID: wf.ID, Status: domain.RunSkipped}
		metrics.ObserveRun(result.Status)
		report.Workflows = append(report.Workflows, result)
		return report, nil
	}

	steps, err := decodeRemainder(remainder)
	if err != nil {
		return nil, fmt.Errorf("workflow %s: %w", wf.ID, err)
	}
	wf.Steps = steps

	result, err := s.runWorkflow(ctx, wf, *acc, nil)
	if err != nil {
		return nil, err
	}
	report.Workflows = append(report.Workflows, result)
	return report, nil
}

// runWorkflow walks one workflow's queue from the head. Each terminal
// step is popped and the shortened sequence persisted before the walk
// moves on, so a crash re-attempts at most the steps of the current
// pass. A deferred step persists the remainder and ends the pass.
func (s *defaultSequencer) runWorkflow(
	ctx context.Context,
	wf *domain.Workflow,
	acc domain.Account,
	payload *domain.FilePayload,
) (domain.WorkflowResult, error) {
	logger := zerolog.Ctx(ctx).With().Str("workflow", wf.ID).Logger()

	result := domain.WorkflowResult{WorkflowID: wf.ID, Status: domain.RunEligible}

	if len(wf.Steps) == 0 {
		// Replayed trigger for a drained workflow: nothing to dispatch,
		// nothing to charge.
		result.Status = domain.RunSkipped
		metrics.ObserveRun(result.Status)
		return result, nil
	}

	result.Status = domain.RunDispatching
	deferred := false

	for len(wf.Steps) > 0 && !deferred {
		head := wf.Steps[0]

		outcome := s.dispatch(ctx, head, actions.Request{Workflow: wf, Payload: payload})
		metrics.ObserveStep(head, outcome.Status)
		result.Steps = append(result.Steps, domain.StepResult{Kind: head, Outcome: outcome})

		switch outcome.Status {
		case domain.OutcomeCompleted, domain.OutcomeFailed:
			if outcome.Status == domain.OutcomeFailed {
				logger.Warn().
					Str("step", string(head)).
					Str("reason", outcome.Reason).
					Msg("step failed, continuing")
			}
			wf.Steps = wf.Steps[1:]
			encoded, err := adapters.EncodeSteps(wf.Steps)
			if err != nil {
				return result, err
			}
			if err := s.workflows.UpdateSteps(ctx, wf.ID, encoded); err != nil {
				return result, fmt.Errorf("persist step consumption for workflow %s: %w", wf.ID, err)
			}

		case domain.OutcomeDeferred:
			// The wait step itself is consumed; the remainder is stored
			// under the resumable marker in a single write.
			remainder, err := adapters.EncodeSteps(wf.Steps[1:])
			if err != nil {
				return result, err
			}
			if err := s.workflows.SaveScheduledRemainder(ctx, wf.ID, remainder); err != nil {
				return result, fmt.Errorf("persist remainder for workflow %s: %w", wf.ID, err)
			}
			deferred = true
		}
	}

	switch {
	case deferred:
		result.Status = domain.RunDeferred
	case result.Failed():
		result.Status = domain.RunPartiallyCompleted
	default:
		result.Status = domain.RunCompleted
	}
	metrics.ObserveRun(result.Status)

	// One credit per pass, deferred or not. The store's conditional
	// update keeps concurrent passes from driving the balance negative.
	if _, err := s.ledger.Deduct(ctx, acc); err != nil {
		return result, err
	}
	if !acc.Unlimited {
		metrics.CreditDeducted()
	}

	logger.Info().
		Str("status", string(result.Status)).
		Int("steps_dispatched", len(result.Steps)).
		Msg("workflow pass finished")
	return result, nil
}

// dispatch resolves and executes one step. A kind with no registered
// adapter is a failed step, not a failed run.
func (s *defaultSequencer) dispatch(ctx context.Context, kind domain.StepKind, req actions.Request) domain.Outcome {
	adapter, err := s.registry.Resolve(kind)
	if err != nil {
		return domain.Failed(err.Error())
	}
	return adapter.Execute(ctx, req)
}

func decodeRemainder(raw string) ([]domain.StepKind, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("decode remainder: %w", err)
	}
	return domain.ParseStepKinds(tags)
}
