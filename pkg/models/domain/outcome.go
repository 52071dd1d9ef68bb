package domain

import "time"

// OutcomeStatus is the terminal result of dispatching one step.
type OutcomeStatus string

const (
	OutcomeCompleted OutcomeStatus = "completed"
	OutcomeFailed    OutcomeStatus = "failed"
	OutcomeDeferred  OutcomeStatus = "deferred"
)

// Outcome is returned by every action adapter. Failed carries the
// reason; Deferred carries the earliest time the scheduled resumption
// may fire.
type Outcome struct {
	Status   OutcomeStatus
	Reason   string
	ResumeAt time.Time
}

func Completed() Outcome {
	return Outcome{Status: OutcomeCompleted}
}

func Failed(reason string) Outcome {
	return Outcome{Status: OutcomeFailed, Reason: reason}
}

func Deferred(resumeAt time.Time) Outcome {
	return Outcome{Status: OutcomeDeferred, ResumeAt: resumeAt}
}

// RunStatus tracks a single workflow pass through the sequencer.
type RunStatus string

const (
	RunEligible           RunStatus = "eligible"
	RunDispatching        RunStatus = "dispatching"
	RunCompleted          RunStatus = "completed"
	RunPartiallyCompleted RunStatus = "partially_completed"
	RunDeferred           RunStatus = "deferred"
	// RunSkipped marks a workflow whose step queue was already empty
	// when the trigger arrived, e.g. a replayed notification.
	RunSkipped RunStatus = "skipped"
)

// StepResult records the outcome of one dispatched step.
type StepResult struct {
	Kind    StepKind
	Outcome Outcome
}

// WorkflowResult aggregates one workflow's pass.
type WorkflowResult struct {
	WorkflowID string
	Status     RunStatus
	Steps      []StepResult
}

// Failed reports whether any step in the pass failed.
func (r WorkflowResult) Failed() bool {
	for _, s := range r.Steps {
		if s.Outcome.Status == OutcomeFailed {
			return true
		}
	}
	return false
}

// RunReport is returned to the HTTP boundary after one engine
// invocation. Per-step failures live inside; the trigger source only
// ever sees the summary.
type RunReport struct {
	RunID         string
	AccountID     string
	Workflows     []WorkflowResult
	FileProcessed bool
}
