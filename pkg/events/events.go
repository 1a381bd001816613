// Package events defines the notifications raised to the UI layer.
//
// Components receive an [Emitter] instead of a concrete transport, which
// keeps the pipeline and the store independent of the CLI, HTTP or MCP
// front ends and testable with a [Recorder].
package events

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/matzehuels/trazo/pkg/diagram"
	errs "github.com/matzehuels/trazo/pkg/errors"
)

// Name identifies the kind of event.
type Name string

const (
	// StageChanged is raised once per pipeline stage boundary.
	StageChanged Name = "stage-changed"
	// DiagramReplaced is raised when a generated diagram is committed.
	DiagramReplaced Name = "diagram-replaced"
	// NodeUpdated is raised when a node edit or move is committed.
	NodeUpdated Name = "node-updated"
	// JobFailed is raised once when a generation job fails.
	JobFailed Name = "job-failed"
)

// Event is a single notification. Only the fields relevant to Name are set.
type Event struct {
	Name        Name      `json:"name"`
	WorkspaceID string    `json:"workspace_id"`
	Time        time.Time `json:"time"`

	// StageChanged, JobFailed
	JobID string `json:"job_id,omitempty"`
	Stage string `json:"stage,omitempty"`

	// DiagramReplaced
	Diagram *diagram.Diagram `json:"-"`

	// NodeUpdated
	NodeID   string             `json:"node_id,omitempty"`
	Patch    *diagram.NodePatch `json:"patch,omitempty"`
	Position *diagram.Point     `json:"position,omitempty"`

	// JobFailed
	Reason string    `json:"reason,omitempty"`
	Code   errs.Code `json:"code,omitempty"`
}

// Emitter delivers events to the UI layer. Implementations must not block
// for long; the pipeline and the store emit while holding no locks, but
// they do emit synchronously.
type Emitter interface {
	Emit(ctx context.Context, e Event)
}

// Nop discards every event.
type Nop struct{}

// Emit implements [Emitter].
func (Nop) Emit(context.Context, Event) {}

// Func adapts a function to the [Emitter] interface.
type Func func(ctx context.Context, e Event)

// Emit implements [Emitter].
func (f Func) Emit(ctx context.Context, e Event) { f(ctx, e) }

// Multi fans an event out to several emitters in order.
type Multi []Emitter

// Emit implements [Emitter].
func (m Multi) Emit(ctx context.Context, e Event) {
	for _, em := range m {
		if em != nil {
			em.Emit(ctx, e)
		}
	}
}

// Recorder is an [Emitter] that records every event. It is safe for
// concurrent use and intended for tests and for the CLI's summary output.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements [Emitter].
func (r *Recorder) Emit(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of all recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Named returns the recorded events with the given name.
func (r *Recorder) Named(name Name) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// Stages returns the stages of all recorded StageChanged events in order.
func (r *Recorder) Stages() []string {
	var out []string
	for _, e := range r.Named(StageChanged) {
		out = append(out, e.Stage)
	}
	return out
}

// Reset discards all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Chan is an [Emitter] that forwards events to a buffered channel. Events
// are dropped when the buffer is full so emitters never block.
type Chan struct {
	c chan Event
}

// NewChan creates a channel emitter with the given buffer size.
func NewChan(size int) *Chan {
	return &Chan{c: make(chan Event, size)}
}

// Emit implements [Emitter].
func (c *Chan) Emit(_ context.Context, e Event) {
	select {
	case c.c <- e:
	default:
	}
}

// C returns the receive side of the channel.
func (c *Chan) C() <-chan Event { return c.c }
