// Package workspace wires the per-workspace components together.
//
// A [Manager] owns the shared pieces (blob store, generation runner,
// exporter) and hands out one [Workspace] per workspace ID. A workspace
// bundles the diagram store, the interactive canvas and access to the
// pipeline and exporter, so callers never reach for global state:
//
//	m, _ := workspace.NewManager(workspace.Options{Blobs: blob.NewMemory()})
//	defer m.Close(ctx)
//
//	ws, _ := m.Open(ctx, "notes")
//	d, err := ws.Generate(ctx, "Planificación.\nDesarrollo.", "flow")
//	png, err := ws.Export(ctx, export.Options{Format: export.FormatPNG})
package workspace

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/trazo/pkg/blob"
	"github.com/matzehuels/trazo/pkg/cache"
	"github.com/matzehuels/trazo/pkg/canvas"
	"github.com/matzehuels/trazo/pkg/diagram"
	errs "github.com/matzehuels/trazo/pkg/errors"
	"github.com/matzehuels/trazo/pkg/events"
	"github.com/matzehuels/trazo/pkg/export"
	"github.com/matzehuels/trazo/pkg/pipeline"
	"github.com/matzehuels/trazo/pkg/store"
)

// Options configures a [Manager]. Zero values select defaults.
type Options struct {
	// Blobs persists diagrams. Defaults to an in-memory store.
	Blobs blob.Store

	Store    store.Options
	Pipeline pipeline.Options

	// Cache and Keyer back both the pipeline and the exporter unless the
	// pipeline options set their own.
	Cache cache.Cache
	Keyer cache.Keyer

	Emitter events.Emitter
	Logger  *log.Logger
}

// SetDefaults fills zero fields.
func (o *Options) SetDefaults() {
	if o.Blobs == nil {
		o.Blobs = blob.NewMemory()
	}
	if o.Cache == nil {
		o.Cache = cache.NewNullCache()
	}
	if o.Keyer == nil {
		o.Keyer = cache.NewDefaultKeyer()
	}
	if o.Emitter == nil {
		o.Emitter = events.Nop{}
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	if o.Store.Emitter == nil {
		o.Store.Emitter = o.Emitter
	}
	if o.Store.Logger == nil {
		o.Store.Logger = o.Logger
	}
	if o.Pipeline.Emitter == nil {
		o.Pipeline.Emitter = o.Emitter
	}
	if o.Pipeline.Logger == nil {
		o.Pipeline.Logger = o.Logger
	}
	if o.Pipeline.Cache == nil {
		o.Pipeline.Cache = o.Cache
	}
	if o.Pipeline.Keyer == nil {
		o.Pipeline.Keyer = o.Keyer
	}
}

// =============================================================================
// Manager
// =============================================================================

// Manager hands out workspaces. It is safe for concurrent use.
type Manager struct {
	opts     Options
	runner   *pipeline.Runner
	exporter *export.Exporter

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

// NewManager creates a manager.
func NewManager(opts Options) *Manager {
	opts.SetDefaults()
	return &Manager{
		opts:       opts,
		runner:     pipeline.NewRunner(opts.Pipeline),
		exporter:   export.NewExporter(opts.Cache, opts.Keyer, opts.Logger),
		workspaces: make(map[string]*Workspace),
	}
}

// Runner returns the shared generation runner.
func (m *Manager) Runner() *pipeline.Runner { return m.runner }

// Exporter returns the shared exporter.
func (m *Manager) Exporter() *export.Exporter { return m.exporter }

// Open returns the workspace with the given ID, loading its persisted
// diagram on first use.
func (m *Manager) Open(ctx context.Context, id string) (*Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ws, ok := m.workspaces[id]; ok {
		return ws, nil
	}

	s, err := store.New(id, m.opts.Blobs, m.opts.Store)
	if err != nil {
		return nil, err
	}
	d, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	ws := &Workspace{
		id:       id,
		store:    s,
		canvas:   canvas.New(s, m.opts.Logger),
		runner:   m.runner,
		exporter: m.exporter,
		logger:   m.opts.Logger.With("workspace", id),
	}
	m.workspaces[id] = ws
	ws.logger.Debug("opened workspace", "diagram", d != nil)
	return ws, nil
}

// Get returns an already open workspace.
func (m *Manager) Get(id string) (*Workspace, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.workspaces[id]
	return ws, ok
}

// IDs returns the open workspace IDs in sorted order.
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.workspaces))
	for id := range m.workspaces {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Delete cancels any running job of the workspace, removes its persisted
// diagram and forgets it. Deleting an unknown workspace is not an error.
func (m *Manager) Delete(ctx context.Context, id string) error {
	ws, err := m.Open(ctx, id)
	if err != nil {
		return err
	}
	if j := m.runner.Active(id); j != nil {
		j.Cancel()
		<-j.Done()
	}
	if err := ws.store.Delete(ctx); err != nil {
		return err
	}
	m.runner.Forget(id)

	m.mu.Lock()
	delete(m.workspaces, id)
	m.mu.Unlock()
	ws.logger.Info("deleted workspace")
	return nil
}

// Close flushes every open workspace and closes the blob store.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	open := make([]*Workspace, 0, len(m.workspaces))
	for _, ws := range m.workspaces {
		open = append(open, ws)
	}
	m.workspaces = make(map[string]*Workspace)
	m.mu.Unlock()

	var first error
	for _, ws := range open {
		if err := ws.Close(ctx); err != nil && first == nil {
			first = err
		}
	}
	if err := m.opts.Blobs.Close(); err != nil && first == nil {
		first = errs.Wrap(errs.ErrCodePersistence, err, "close blob store")
	}
	return first
}

// =============================================================================
// Workspace
// =============================================================================

// Workspace is one workspace's diagram context.
type Workspace struct {
	id       string
	store    *store.Store
	canvas   *canvas.Canvas
	runner   *pipeline.Runner
	exporter *export.Exporter
	logger   *log.Logger
}

// ID returns the workspace ID.
func (w *Workspace) ID() string { return w.id }

// Store returns the workspace's diagram store.
func (w *Workspace) Store() *store.Store { return w.store }

// Canvas returns the workspace's interactive canvas.
func (w *Workspace) Canvas() *canvas.Canvas { return w.canvas }

// Diagram returns a copy of the committed diagram, or nil.
func (w *Workspace) Diagram() *diagram.Diagram { return w.store.Current() }

// Start launches a generation job for text. Any job already running for the
// workspace is cancelled first.
func (w *Workspace) Start(ctx context.Context, text, hint string) *pipeline.Job {
	return w.runner.Start(ctx, pipeline.Request{
		WorkspaceID: w.id,
		Text:        text,
		Hint:        hint,
		Target:      w.store,
	})
}

// Generate runs a generation job to completion.
func (w *Workspace) Generate(ctx context.Context, text, hint string) (*diagram.Diagram, error) {
	return w.Start(ctx, text, hint).Wait(ctx)
}

// Restyle regenerates the committed diagram with another variant. The
// source text is unchanged, so analysis is skipped and node identities,
// edited labels and picked styles carry over.
func (w *Workspace) Restyle(ctx context.Context, hint string) (*diagram.Diagram, error) {
	d := w.store.Current()
	if d == nil {
		return nil, errs.New(errs.ErrCodeNotFound, "workspace %q has no diagram", w.id)
	}
	return w.Generate(ctx, d.SourceText, hint)
}

// MoveNode commits a new node position. It reports false for an unknown node.
func (w *Workspace) MoveNode(nodeID string, p diagram.Point) bool {
	return w.store.ApplyNodePosition(nodeID, p)
}

// EditNode applies a label or style patch. It reports false for an unknown
// node or an empty patch.
func (w *Workspace) EditNode(nodeID string, p diagram.NodePatch) bool {
	return w.store.ApplyNodeEdit(nodeID, p)
}

// Export flushes pending writes and renders the committed diagram.
// A failed flush is logged; the export still reflects the committed state.
func (w *Workspace) Export(ctx context.Context, opts export.Options) ([]byte, error) {
	w.flush(ctx)
	return w.exporter.Export(ctx, w.store.Current(), opts)
}

// ExportFile flushes pending writes and writes the committed diagram to path.
func (w *Workspace) ExportFile(ctx context.Context, opts export.Options, path string) error {
	w.flush(ctx)
	return w.exporter.WriteFile(ctx, w.store.Current(), opts, path)
}

func (w *Workspace) flush(ctx context.Context) {
	if err := w.store.Flush(ctx); err != nil {
		w.logger.Warn("flush before export failed", "err", err)
	}
}

// Close cancels the running job and flushes pending writes.
func (w *Workspace) Close(ctx context.Context) error {
	if j := w.runner.Active(w.id); j != nil {
		j.Cancel()
		<-j.Done()
	}
	return w.store.Close(ctx)
}
