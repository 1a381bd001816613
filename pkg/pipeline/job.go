package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/trazo/pkg/diagram"
	"github.com/matzehuels/trazo/pkg/outline"
)

// Job is one run of the pipeline. Jobs are never persisted.
type Job struct {
	ID          string
	WorkspaceID string
	InputText   string
	Hint        string
	StartedAt   time.Time

	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	stage   Stage
	err     error
	outline outline.Outline
	diagram *diagram.Diagram
	reused  bool
}

func newJob(req Request) *Job {
	return &Job{
		ID:          uuid.NewString(),
		WorkspaceID: req.WorkspaceID,
		InputText:   req.Text,
		Hint:        req.Hint,
		StartedAt:   time.Now(),
		stage:       StageIdle,
		done:        make(chan struct{}),
	}
}

// Stage returns the current stage.
func (j *Job) Stage() Stage {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.stage
}

// Err returns the failure of a failed or cancelled job.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Diagram returns the diagram produced by a finished job, or nil.
func (j *Job) Diagram() *diagram.Diagram {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.diagram
}

// Outline returns the outline the job laid out.
func (j *Job) Outline() outline.Outline {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.outline
}

// ReusedOutline reports whether analysis was skipped because the source
// text was unchanged.
func (j *Job) ReusedOutline() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.reused
}

// Done is closed when the job reaches a terminal stage.
func (j *Job) Done() <-chan struct{} { return j.done }

// Cancel requests cancellation. It has no effect once rendering started.
func (j *Job) Cancel() {
	if j.cancel != nil {
		j.cancel()
	}
}

// Wait blocks until the job finishes or ctx is done.
func (j *Job) Wait(ctx context.Context) (*diagram.Diagram, error) {
	select {
	case <-j.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.diagram, j.err
}

// transition moves the job to next. Illegal transitions are ignored and
// reported as false.
func (j *Job) transition(next Stage) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.stage.CanTransition(next) {
		return false
	}
	j.stage = next
	return true
}
