// Package pipeline turns selected text into a committed diagram.
//
// A generation job runs three stages:
//
//  1. Analyze: segment the text into a content outline ([analyzer])
//  2. Lay out: position the outline for the chosen variant ([layout])
//  3. Render: assemble the diagram, merge it with the previous one and
//     commit it to the workspace's [Target]
//
// Each stage boundary raises one stage-changed event. A stage that exceeds
// the stage budget fails the job with PIPELINE_TIMEOUT. Jobs can be
// cancelled while analyzing or laying out; rendering is not preemptible.
// A failed or cancelled job never touches the committed diagram.
//
// # Usage
//
//	runner := pipeline.NewRunner(pipeline.Options{Emitter: emitter})
//	job := runner.Start(ctx, pipeline.Request{
//	    WorkspaceID: "notes",
//	    Text:        selected,
//	    Hint:        "Diagrama de Flujo",
//	    Target:      store,
//	})
//	d, err := job.Wait(ctx)
//
// Re-running a job on a diagram whose source text is unchanged skips
// analysis and re-runs layout only. Node IDs derive from outline item IDs,
// so a style switch keeps node identities, edited labels and picked styles.
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/trazo/pkg/analyzer"
	"github.com/matzehuels/trazo/pkg/cache"
	"github.com/matzehuels/trazo/pkg/diagram"
	"github.com/matzehuels/trazo/pkg/events"
	"github.com/matzehuels/trazo/pkg/layout"
)

// =============================================================================
// Default Values
// =============================================================================

// DefaultStageBudget is the maximum time a single stage may take.
const DefaultStageBudget = 5 * time.Second

// =============================================================================
// Options - Runner Configuration
// =============================================================================

// Options configures a [Runner]. Zero values select defaults.
type Options struct {
	// Analyzer replaces the default analyzer built from AnalyzerOptions.
	Analyzer        Analyzer
	AnalyzerOptions analyzer.Options

	Layout layout.Options

	// StageBudget bounds each stage; see [DefaultStageBudget].
	StageBudget time.Duration

	Cache   cache.Cache
	Keyer   cache.Keyer
	Emitter events.Emitter
	Logger  *log.Logger
}

// SetDefaults fills zero fields.
func (o *Options) SetDefaults() {
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	if o.Analyzer == nil {
		ao := o.AnalyzerOptions
		if ao.Logger == nil {
			ao.Logger = o.Logger
		}
		o.Analyzer = analyzer.New(ao)
	}
	o.Layout.SetDefaults()
	if o.StageBudget <= 0 {
		o.StageBudget = DefaultStageBudget
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
}

// =============================================================================
// Request
// =============================================================================

// Target receives the diagram produced by a job. The workspace diagram store
// implements it.
type Target interface {
	// Current returns the committed diagram, or nil.
	Current() *diagram.Diagram
	// ReplaceDiagram commits d, or queues it behind an open edit session.
	ReplaceDiagram(d *diagram.Diagram) bool
}

// Request describes one generation job.
type Request struct {
	WorkspaceID string
	Text        string
	// Hint is a variant name or menu label. Empty means auto.
	Hint string

	// Target is committed to in the render stage. When nil the job only
	// produces a diagram and Previous is used for merging.
	Target   Target
	Previous *diagram.Diagram
}

func (r Request) previous() *diagram.Diagram {
	if r.Target != nil {
		return r.Target.Current()
	}
	if r.Previous != nil {
		return r.Previous.Clone()
	}
	return nil
}
