// Package store holds the current diagram of one workspace and persists it
// to a [blob.Store].
//
// The store is the single arbiter of mutation. Canvas edits go through
// [Store.ApplyNodeEdit] and [Store.ApplyNodePosition]; the generation
// pipeline goes through [Store.ReplaceDiagram]. Every committed mutation
// schedules a debounced write. Writes are retried with backoff and logged
// on failure; they never block or fail an edit.
//
// While an edit session is open (a drag or an inline edit in progress),
// ReplaceDiagram is queued and applied when the session ends, so a
// regeneration never stomps on a node being dragged.
package store

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/trazo/pkg/blob"
	"github.com/matzehuels/trazo/pkg/cache"
	"github.com/matzehuels/trazo/pkg/diagram"
	errs "github.com/matzehuels/trazo/pkg/errors"
	"github.com/matzehuels/trazo/pkg/events"
	"github.com/matzehuels/trazo/pkg/observability"
)

const (
	DefaultDebounce     = 500 * time.Millisecond
	DefaultSaveAttempts = 3
	DefaultRetryDelay   = 100 * time.Millisecond
)

// Options configures a [Store].
type Options struct {
	// Debounce coalesces writes issued within this window.
	Debounce time.Duration
	// Compress wraps blobs in a snappy stream.
	Compress bool
	// SaveAttempts and RetryDelay control retries of failed writes.
	SaveAttempts int
	RetryDelay   time.Duration

	Emitter events.Emitter
	Logger  *log.Logger
}

// SetDefaults fills zero fields.
func (o *Options) SetDefaults() {
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.SaveAttempts <= 0 {
		o.SaveAttempts = DefaultSaveAttempts
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.Emitter == nil {
		o.Emitter = events.Nop{}
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// Store is the diagram store of a single workspace. It is safe for
// concurrent use.
type Store struct {
	workspaceID string
	blobs       blob.Store
	opts        Options
	debounced   func(func())

	mu         sync.Mutex
	current    *diagram.Diagram
	editorText string
	sessions   int
	queued     *diagram.Diagram
	dirty      bool
	closed     bool

	// writeMu serializes blob writes so an older snapshot never lands
	// after a newer one.
	writeMu sync.Mutex
}

// New returns a store for the workspace. The workspace ID must be valid.
func New(workspaceID string, blobs blob.Store, opts Options) (*Store, error) {
	if err := errs.ValidateWorkspaceID(workspaceID); err != nil {
		return nil, err
	}
	opts.SetDefaults()
	return &Store{
		workspaceID: workspaceID,
		blobs:       blobs,
		opts:        opts,
		debounced:   debounce.New(opts.Debounce),
	}, nil
}

// WorkspaceID returns the workspace the store belongs to.
func (s *Store) WorkspaceID() string { return s.workspaceID }

func (s *Store) key() string { return blob.Key(s.workspaceID) }

// =============================================================================
// Reading
// =============================================================================

// Load reads the persisted diagram and makes it current. A missing or
// corrupt blob yields (nil, nil): the workspace has no diagram yet. Only a
// backend failure is returned as a PERSISTENCE error.
func (s *Store) Load(ctx context.Context) (*diagram.Diagram, error) {
	data, err := s.blobs.Get(ctx, s.key())
	if errors.Is(err, blob.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodePersistence, err, "load diagram")
	}

	d, text, err := Decode(data)
	if err != nil {
		s.opts.Logger.Warn("discarding corrupt diagram blob", "workspace", s.workspaceID, "err", err)
		return nil, nil
	}
	d.WorkspaceID = s.workspaceID

	s.mu.Lock()
	s.current = d
	s.editorText = text
	s.dirty = false
	s.mu.Unlock()
	return d.Clone(), nil
}

// Current returns a copy of the committed diagram, or nil.
func (s *Store) Current() *diagram.Diagram {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	return s.current.Clone()
}

// EditorText returns the editor document text stored with the diagram.
func (s *Store) EditorText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editorText
}

// =============================================================================
// Mutation
// =============================================================================

// Save makes d current and writes it synchronously, retrying transient
// failures.
func (s *Store) Save(ctx context.Context, d *diagram.Diagram) error {
	if d == nil {
		return errs.New(errs.ErrCodeInvalidInput, "nil diagram")
	}
	s.mu.Lock()
	s.current = d.Clone()
	s.current.WorkspaceID = s.workspaceID
	s.dirty = true
	s.mu.Unlock()
	return s.Flush(ctx)
}

// SetEditorText stores the editor document text alongside the diagram.
func (s *Store) SetEditorText(text string) {
	s.mu.Lock()
	s.editorText = text
	s.mu.Unlock()
	s.schedule()
}

// ApplyNodeEdit applies a label or style patch. Malformed fields are
// dropped. It returns false when nothing changed.
func (s *Store) ApplyNodeEdit(nodeID string, p diagram.NodePatch) bool {
	p = p.Sanitize()
	s.mu.Lock()
	if s.current == nil || !s.current.ApplyPatch(nodeID, p) {
		s.mu.Unlock()
		return false
	}
	s.current.UpdatedAt = time.Now().UTC()
	s.mu.Unlock()

	s.schedule()
	s.emit(events.Event{Name: events.NodeUpdated, NodeID: nodeID, Patch: &p})
	return true
}

// ApplyNodePosition moves a node. Non-finite coordinates are ignored and
// distant ones are clamped to [diagram.MaxCoordinate].
func (s *Store) ApplyNodePosition(nodeID string, p diagram.Point) bool {
	s.mu.Lock()
	if s.current == nil || !s.current.SetPosition(nodeID, p) {
		s.mu.Unlock()
		return false
	}
	p = p.Clamp()
	s.current.UpdatedAt = time.Now().UTC()
	s.mu.Unlock()

	s.schedule()
	s.emit(events.Event{Name: events.NodeUpdated, NodeID: nodeID, Position: &p})
	return true
}

// ReplaceDiagram swaps in a generated diagram. It returns true when the
// diagram was applied now and false when it was queued behind an open
// edit session or rejected as invalid. A later call replaces an earlier
// queued diagram.
//
// Labels and styles the user edited in the current diagram are carried
// onto d when it is applied, so edits committed while the diagram was
// being generated or while it waited in the queue survive.
func (s *Store) ReplaceDiagram(d *diagram.Diagram) bool {
	if d == nil {
		return false
	}
	if err := d.Validate(); err != nil {
		s.opts.Logger.Error("rejecting invalid diagram", "workspace", s.workspaceID, "err", err)
		return false
	}
	d = d.Clone()
	d.WorkspaceID = s.workspaceID

	s.mu.Lock()
	if s.sessions > 0 {
		s.queued = d
		s.mu.Unlock()
		s.opts.Logger.Debug("diagram replacement queued behind edit session", "workspace", s.workspaceID)
		return false
	}
	d.KeepEdits(s.current)
	s.current = d
	emitted := d.Clone()
	s.mu.Unlock()

	s.schedule()
	s.emit(events.Event{Name: events.DiagramReplaced, Diagram: emitted})
	return true
}

// BeginSession opens an edit session. Sessions nest.
func (s *Store) BeginSession() {
	s.mu.Lock()
	s.sessions++
	s.mu.Unlock()
}

// EndSession closes an edit session. When the last session closes, a
// queued replacement is applied.
func (s *Store) EndSession() {
	s.mu.Lock()
	if s.sessions > 0 {
		s.sessions--
	}
	var d *diagram.Diagram
	if s.sessions == 0 && s.queued != nil {
		d, s.queued = s.queued, nil
	}
	s.mu.Unlock()

	if d != nil {
		s.ReplaceDiagram(d)
	}
}

// InSession reports whether an edit session is open.
func (s *Store) InSession() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions > 0
}

// Delete removes the diagram from memory and from the blob store.
func (s *Store) Delete(ctx context.Context) error {
	s.mu.Lock()
	s.current = nil
	s.queued = nil
	s.editorText = ""
	s.dirty = false
	s.mu.Unlock()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.blobs.Delete(ctx, s.key()); err != nil {
		return errs.Wrap(errs.ErrCodePersistence, err, "delete diagram")
	}
	return nil
}

// =============================================================================
// Persistence
// =============================================================================

func (s *Store) schedule() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.dirty = true
	s.mu.Unlock()

	s.debounced(func() {
		if err := s.Flush(context.Background()); err != nil {
			s.opts.Logger.Error("persisting diagram failed", "workspace", s.workspaceID, "err", err)
		}
	})
}

// Flush writes pending changes now. It is a no-op when nothing is dirty.
func (s *Store) Flush(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if !s.dirty || s.current == nil {
		s.dirty = false
		s.mu.Unlock()
		return nil
	}
	data, err := Encode(s.current, s.editorText, s.opts.Compress)
	s.dirty = false
	s.mu.Unlock()
	if err != nil {
		return errs.Wrap(errs.ErrCodePersistence, err, "encode diagram")
	}

	start := time.Now()
	err = cache.RetryWithBackoffN(ctx, s.opts.SaveAttempts, s.opts.RetryDelay, func() error {
		if err := s.blobs.Put(ctx, s.key(), data); err != nil {
			if ctx.Err() != nil {
				return err
			}
			s.opts.Logger.Warn("blob write failed", "workspace", s.workspaceID, "err", err)
			return cache.Retryable(err)
		}
		return nil
	})
	observability.Store().OnPersist(ctx, s.workspaceID, len(data), time.Since(start), err)
	if err != nil {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
		return errs.Wrap(errs.ErrCodePersistence, err, "save diagram")
	}
	s.opts.Logger.Debug("diagram persisted", "workspace", s.workspaceID, "bytes", len(data))
	return nil
}

// Close flushes pending changes and stops scheduling writes. The blob
// store is not closed; it may be shared between workspaces.
func (s *Store) Close(ctx context.Context) error {
	err := s.Flush(ctx)
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return err
}

func (s *Store) emit(e events.Event) {
	e.WorkspaceID = s.workspaceID
	e.Time = time.Now().UTC()
	s.opts.Emitter.Emit(context.Background(), e)
}
