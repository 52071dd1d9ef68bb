package actions

import (
	"context"
	"fmt"

	"github.com/fuzzie-io/flow-engine/pkg/models/domain"
	"github.com/fuzzie-io/flow-engine/pkg/services/scheduler"
)

// WaitAdapter handles the only suspension point in a workflow. It has
// no side effect on a user-facing provider; it registers a one-shot
// callback with the external scheduler and reports Deferred. When
// registration fails the step reports Failed instead, because a
// remainder with no registered callback would stall the workflow
// forever.
type WaitAdapter struct {
	registrar scheduler.Registrar
}

func NewWaitAdapter(registrar scheduler.Registrar) *WaitAdapter {
	return &WaitAdapter{registrar: registrar}
}

func (a *WaitAdapter) Kind() domain.StepKind {
	return domain.StepWait
}

func (a *WaitAdapter) Execute(ctx context.Context, req Request) domain.Outcome {
	resumeAt, err := a.registrar.RegisterResumption(ctx, req.Workflow.ID)
	if err != nil {
		return domain.Failed(fmt.Sprintf("wait: %v", err))
	}
	return domain.Deferred(resumeAt)
}
