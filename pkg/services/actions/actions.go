package actions

import (
	"context"
	"fmt"
	"sync"

	"github.com/fuzzie-io/flow-engine/pkg/models/domain"
	"golang.org/x/exp/maps"
)

// Request carries everything an adapter may need at dispatch time: the
// workflow holding the per-kind stored configuration, and the optional
// trigger payload.
type Request struct {
	Workflow *domain.Workflow
	Payload  *domain.FilePayload
}

// Adapter executes one step kind against its external provider. An
// adapter never returns an error: provider-side failures (non-2xx,
// timeout, bad credentials) are reported as a Failed outcome so the
// sequencer can continue past them.
type Adapter interface {
	Kind() domain.StepKind
	Execute(ctx context.Context, req Request) domain.Outcome
}

// Registry maps step kinds to their adapters.
type Registry interface {
	Register(adapter Adapter) error
	Resolve(kind domain.StepKind) (Adapter, error)
	ListKinds() []domain.StepKind
}

type registry struct {
	mu       sync.RWMutex
	adapters map[domain.StepKind]Adapter
}

func NewRegistry() Registry {
	return &registry{
		adapters: make(map[domain.StepKind]Adapter),
	}
}

func (r *registry) Register(adapter Adapter) error {
	if adapter == nil {
		return fmt.Errorf("adapter cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[adapter.Kind()]; exists {
		return fmt.Errorf("step kind %q is already registered", adapter.Kind())
	}

	r.adapters[adapter.Kind()] = adapter
	return nil
}

func (r *registry) Resolve(kind domain.StepKind) (Adapter, error) {
	r.mu.RLock()
	adapter, exists := r.adapters[kind]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("step kind %q is not registered", kind)
	}
	return adapter, nil
}

func (r *registry) ListKinds() []domain.StepKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Keys(r.adapters)
}
