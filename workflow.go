package pdftoolkit

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// State is a workflow lifecycle state.
type State int

// Workflow states.
const (
	StateIdle State = iota
	StateLoaded
	StateProcessing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoaded:
		return "loaded"
	case StateProcessing:
		return "processing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// JobFunc produces artifacts from a snapshot of the page sequence.
type JobFunc func(ctx context.Context, refs []PageRef, res HandleResolver) ([]Artifact, error)

// Workflow is the state of one tool instance:
// Idle -> Loaded -> Processing -> Ready | Failed. At most one job runs at
// a time, and it runs on a snapshot, so edits made while it runs do not
// affect it.
type Workflow struct {
	id       string
	registry *Registry
	seq      *Sequence
	slot     *Slot

	mu         sync.Mutex
	state      State
	generation uint64
	artifacts  []Artifact
	err        error
}

// NewWorkflow creates an idle workflow publishing through p (nil selects
// TempPublisher).
func NewWorkflow(p Publisher) *Workflow {
	return &Workflow{
		id:       uuid.NewString(),
		registry: NewRegistry(),
		seq:      &Sequence{},
		slot:     NewSlot(p),
	}
}

// ID identifies the workflow.
func (w *Workflow) ID() string { return w.id }

// State returns the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Sequence returns the editable page sequence.
func (w *Workflow) Sequence() *Sequence { return w.seq }

// Resolver returns the registry resolving the sequence's handles.
func (w *Workflow) Resolver() HandleResolver { return w.registry }

// Load registers handles and appends all their pages. Results of a
// previous job are released.
func (w *Workflow) Load(handles ...DocumentHandle) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StateProcessing {
		return ErrJobInProgress
	}
	if len(handles) == 0 {
		return ErrNotLoaded
	}

	releaseErr := w.slot.Release()
	w.artifacts, w.err = nil, nil
	for _, h := range handles {
		w.registry.Add(h)
		w.seq.Append(h)
	}
	w.state = StateLoaded
	return releaseErr
}

// Run executes fn on a snapshot of the sequence. On success the artifacts
// are published in the workflow's slot and their leases returned; on
// failure nothing stays published.
func (w *Workflow) Run(ctx context.Context, fn JobFunc) (leases []Lease, err error) {
	w.mu.Lock()
	switch w.state {
	case StateIdle:
		w.mu.Unlock()
		return nil, ErrNotLoaded
	case StateProcessing:
		w.mu.Unlock()
		return nil, ErrJobInProgress
	}
	releaseErr := w.slot.Release()
	w.artifacts, w.err = nil, nil
	w.state = StateProcessing
	gen := w.generation
	snapshot := w.seq.Snapshot()
	w.mu.Unlock()

	arts, err := runJob(ctx, fn, snapshot, w.registry)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.generation != gen {
		// Cleared while running: results belong to nobody.
		return nil, ErrCanceled
	}
	if err == nil {
		leases, err = w.slot.Replace(arts...)
	}
	if err != nil {
		_ = w.slot.Release()
		w.state = StateFailed
		w.err = err
		return nil, err
	}
	w.state = StateReady
	w.artifacts = slices.Clone(arts)
	return leases, releaseErr
}

// runJob calls fn, turning a panic into an error.
func runJob(ctx context.Context, fn JobFunc, refs []PageRef, res HandleResolver) (arts []Artifact, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()
	return fn(ctx, refs, res)
}

// Clear returns to Idle, releasing artifacts and document handles. A job
// still running completes with ErrCanceled and publishes nothing.
func (w *Workflow) Clear() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.generation++
	err := w.slot.Release()
	w.registry.Clear()
	w.seq.Reset()
	w.artifacts, w.err = nil, nil
	w.state = StateIdle
	return err
}

// Artifacts returns the artifacts of the last successful job.
func (w *Workflow) Artifacts() []Artifact {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.artifacts)
}

// Leases returns the live leases of the last successful job.
func (w *Workflow) Leases() []Lease {
	return w.slot.Leases()
}

// Err returns the error of the last failed job.
func (w *Workflow) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}
