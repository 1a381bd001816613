package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/trazo/pkg/cache"
	"github.com/matzehuels/trazo/pkg/diagram"
	errs "github.com/matzehuels/trazo/pkg/errors"
	"github.com/matzehuels/trazo/pkg/events"
	"github.com/matzehuels/trazo/pkg/layout"
	"github.com/matzehuels/trazo/pkg/observability"
	"github.com/matzehuels/trazo/pkg/outline"
)

// Analyzer produces outlines from text. [analyzer.Analyzer] implements it.
type Analyzer interface {
	Analyze(ctx context.Context, text, hint string) (outline.Outline, error)
}

// fingerprinter is implemented by analyzers whose options affect the
// outline; the fingerprint becomes part of the outline cache key.
type fingerprinter interface {
	Fingerprint() string
}

// Runner executes generation jobs with caching. At most one job runs per
// workspace: starting a job cancels the in-flight one and waits for it to
// finish first.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	opts Options

	mu       sync.Mutex
	active   map[string]*Job
	last     map[string]*Job
	outlines map[string]analyzed
}

// analyzed is the last outline computed for a workspace.
type analyzed struct {
	text    string
	outline outline.Outline
}

// NewRunner creates a runner. Nil cache, keyer, emitter and logger select
// no caching, the default keyer, no events and a discard logger.
func NewRunner(opts Options) *Runner {
	opts.SetDefaults()
	return &Runner{
		Cache:    opts.Cache,
		Keyer:    opts.Keyer,
		Logger:   opts.Logger,
		opts:     opts,
		active:   make(map[string]*Job),
		last:     make(map[string]*Job),
		outlines: make(map[string]analyzed),
	}
}

// StageBudget returns the per-stage time budget.
func (r *Runner) StageBudget() time.Duration { return r.opts.StageBudget }

// Start launches a job and returns immediately. An in-flight job for the
// same workspace is cancelled and awaited before the new job runs.
func (r *Runner) Start(ctx context.Context, req Request) *Job {
	j := newJob(req)
	jctx, cancel := context.WithCancel(ctx)
	j.cancel = cancel

	r.mu.Lock()
	prev := r.active[req.WorkspaceID]
	r.active[req.WorkspaceID] = j
	r.last[req.WorkspaceID] = j
	r.mu.Unlock()

	go func() {
		defer cancel()
		if prev != nil {
			prev.Cancel()
			<-prev.Done()
		}
		r.run(jctx, j, req)
	}()
	return j
}

func (r *Runner) release(j *Job) {
	r.mu.Lock()
	if r.active[j.WorkspaceID] == j {
		delete(r.active, j.WorkspaceID)
	}
	r.mu.Unlock()
}

// Run starts a job and waits for it.
func (r *Runner) Run(ctx context.Context, req Request) (*diagram.Diagram, error) {
	return r.Start(ctx, req).Wait(ctx)
}

// Active returns the in-flight job of a workspace, or nil.
func (r *Runner) Active(workspaceID string) *Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active[workspaceID]
}

// Last returns the most recently started job of a workspace, finished or
// not, or nil if none was started since the last [Runner.Forget].
func (r *Runner) Last(workspaceID string) *Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last[workspaceID]
}

// Forget drops the remembered outline and last job of a workspace.
func (r *Runner) Forget(workspaceID string) {
	r.mu.Lock()
	delete(r.outlines, workspaceID)
	delete(r.last, workspaceID)
	r.mu.Unlock()
}

// =============================================================================
// Job execution
// =============================================================================

func (r *Runner) run(ctx context.Context, j *Job, req Request) {
	defer close(j.done)
	defer r.release(j)
	defer func() {
		observability.Pipeline().OnJobComplete(ctx, string(j.Stage()), time.Since(j.StartedAt))
	}()
	logger := r.Logger.With("job", j.ID[:8], "workspace", req.WorkspaceID)

	hint, err := diagram.ParseVariant(req.Hint)
	if err != nil {
		r.fail(ctx, j, err)
		return
	}
	prev := req.previous()

	// Stage 1: Analyze
	r.enter(ctx, j, StageAnalyzing)
	var o outline.Outline
	start := time.Now()
	observability.Pipeline().OnAnalyzeStart(ctx, req.WorkspaceID, len([]rune(req.Text)))
	reused, ok := r.reusable(ctx, req, prev)
	if ok {
		o = reused
		j.mu.Lock()
		j.reused = true
		j.mu.Unlock()
		observability.Pipeline().OnAnalyzeComplete(ctx, req.WorkspaceID, len(o.Items), true, 0, nil)
		logger.Debug("source text unchanged, reusing outline")
	} else {
		err = r.stage(ctx, StageAnalyzing, func(sctx context.Context) error {
			var err error
			o, err = r.Analyze(sctx, req.Text)
			return err
		})
		observability.Pipeline().OnAnalyzeComplete(ctx, req.WorkspaceID, len(o.Items), false, time.Since(start), err)
		if err != nil {
			r.abort(ctx, j, err)
			return
		}
		logger.Info("analyzed text", "items", len(o.Items), "expanded", o.Expanded, "duration", time.Since(start))
	}
	r.remember(req.WorkspaceID, req.Text, o)
	j.mu.Lock()
	j.outline = o
	j.mu.Unlock()

	// Stage 2: Lay out
	if err := ctx.Err(); err != nil {
		r.abort(ctx, j, err)
		return
	}
	r.enter(ctx, j, StageLayingOut)
	variant := layout.Resolve(o, hint)
	var res layout.Result
	start = time.Now()
	observability.Pipeline().OnLayoutStart(ctx, string(variant), len(o.Items))
	err = r.stage(ctx, StageLayingOut, func(sctx context.Context) error {
		var err error
		res, err = r.Layout(sctx, o, variant)
		return err
	})
	observability.Pipeline().OnLayoutComplete(ctx, string(variant), time.Since(start), err)
	if err != nil {
		r.abort(ctx, j, err)
		return
	}
	logger.Info("computed layout", "variant", res.Variant, "nodes", len(res.Nodes), "duration", time.Since(start))

	// Stage 3: Render. Not preemptible once entered.
	if err := ctx.Err(); err != nil {
		r.abort(ctx, j, err)
		return
	}
	r.enter(ctx, j, StageRendering)
	rctx := context.WithoutCancel(ctx)
	var d *diagram.Diagram
	start = time.Now()
	observability.Pipeline().OnRenderStart(rctx, string(res.Variant))
	err = r.stage(rctx, StageRendering, func(context.Context) error {
		var err error
		d, err = Build(req.WorkspaceID, req.Text, prev, o, res)
		return err
	})
	nodes := 0
	if d != nil && err == nil {
		nodes = d.NodeCount()
	}
	observability.Pipeline().OnRenderComplete(rctx, string(res.Variant), nodes, time.Since(start), err)
	if err != nil {
		r.fail(rctx, j, err)
		return
	}
	if req.Target != nil && !req.Target.ReplaceDiagram(d) {
		logger.Debug("diagram queued behind edit session")
	}

	j.mu.Lock()
	j.diagram = d
	j.mu.Unlock()
	r.enter(rctx, j, StageDone)
	logger.Info("diagram generated", "nodes", d.NodeCount(), "edges", d.EdgeCount(), "duration", time.Since(j.StartedAt))
}

// stage runs fn under the stage budget. It returns as soon as the budget
// expires or ctx is cancelled, even if fn is still running.
func (r *Runner) stage(ctx context.Context, s Stage, fn func(context.Context) error) error {
	sctx, cancel := context.WithTimeout(ctx, r.opts.StageBudget)
	defer cancel()

	ch := make(chan error, 1)
	go func() { ch <- fn(sctx) }()

	var err error
	select {
	case err = <-ch:
		if err == nil || sctx.Err() == nil {
			return err
		}
	case <-sctx.Done():
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(sctx.Err(), context.DeadlineExceeded) {
		budget := r.opts.StageBudget
		return errs.Wrap(errs.ErrCodePipelineTimeout,
			&errs.TimeoutError{Stage: string(s), Budget: budget.Milliseconds()},
			"stage %s exceeded its %s budget", s, budget)
	}
	return err
}

func (r *Runner) enter(ctx context.Context, j *Job, s Stage) {
	if !j.transition(s) {
		r.Logger.Warn("illegal stage transition", "job", j.ID, "from", j.Stage(), "to", s)
		return
	}
	r.emit(ctx, j, events.Event{Name: events.StageChanged, Stage: string(s)})
}

// abort ends the job as cancelled when ctx was cancelled and as failed
// otherwise.
func (r *Runner) abort(ctx context.Context, j *Job, err error) {
	if ctx.Err() != nil {
		if j.transition(StageCancelled) {
			j.mu.Lock()
			j.err = errs.Wrap(errs.ErrCodeCancelled, err, "generation cancelled")
			j.mu.Unlock()
			r.Logger.Debug("job cancelled", "job", j.ID)
			r.emit(ctx, j, events.Event{Name: events.StageChanged, Stage: string(StageCancelled)})
			return
		}
	}
	r.fail(ctx, j, err)
}

func (r *Runner) fail(ctx context.Context, j *Job, err error) {
	if errs.GetCode(err) == "" {
		err = errs.Wrap(errs.ErrCodeInternal, err, "generation failed")
	}
	if !j.transition(StageFailed) {
		return
	}
	j.mu.Lock()
	j.err = err
	j.mu.Unlock()
	r.Logger.Warn("job failed", "job", j.ID, "err", err)
	r.emit(ctx, j, events.Event{Name: events.StageChanged, Stage: string(StageFailed)})
	r.emit(ctx, j, events.Event{
		Name:   events.JobFailed,
		Reason: errs.UserMessage(err),
		Code:   errs.GetCode(err),
	})
}

func (r *Runner) emit(ctx context.Context, j *Job, e events.Event) {
	e.WorkspaceID = j.WorkspaceID
	e.JobID = j.ID
	e.Time = time.Now().UTC()
	r.opts.Emitter.Emit(context.WithoutCancel(ctx), e)
}

// =============================================================================
// Cached stages
// =============================================================================

// reusable returns the outline of the previous run when the diagram's
// source text is unchanged.
func (r *Runner) reusable(ctx context.Context, req Request, prev *diagram.Diagram) (outline.Outline, bool) {
	if prev == nil || prev.SourceText != req.Text {
		return outline.Outline{}, false
	}
	r.mu.Lock()
	a, ok := r.outlines[req.WorkspaceID]
	r.mu.Unlock()
	if ok && a.text == req.Text {
		return a.outline, true
	}
	if data, hit, err := r.Cache.Get(ctx, r.outlineKey(req.Text)); err == nil && hit {
		var o outline.Outline
		if json.Unmarshal(data, &o) == nil && o.Validate() == nil {
			return o, true
		}
	}
	return outline.Outline{}, false
}

func (r *Runner) remember(workspaceID, text string, o outline.Outline) {
	r.mu.Lock()
	r.outlines[workspaceID] = analyzed{text: text, outline: o}
	r.mu.Unlock()
}

func (r *Runner) outlineKey(text string) string {
	fp := "custom"
	if f, ok := r.opts.Analyzer.(fingerprinter); ok {
		fp = f.Fingerprint()
	}
	return r.Keyer.OutlineKey(cache.HashString(text), cache.OutlineKeyOpts{
		Hint:     string(diagram.VariantAuto),
		Analyzer: fp,
	})
}

// Analyze runs the analyzer with caching. Outlines are always computed
// with an auto hint so one cached outline serves every variant.
func (r *Runner) Analyze(ctx context.Context, text string) (outline.Outline, error) {
	key := r.outlineKey(text)
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		var o outline.Outline
		if json.Unmarshal(data, &o) == nil && o.Validate() == nil {
			observability.Cache().OnCacheHit(ctx, "outline")
			return o, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "outline")

	o, err := r.opts.Analyzer.Analyze(ctx, text, string(diagram.VariantAuto))
	if err != nil {
		return outline.Outline{}, err
	}
	if data, err := json.Marshal(o); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.OutlineTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "outline", len(data))
		}
	}
	return o, nil
}

// Layout runs the layout engine with caching.
func (r *Runner) Layout(ctx context.Context, o outline.Outline, v diagram.Variant) (layout.Result, error) {
	if err := ctx.Err(); err != nil {
		return layout.Result{}, err
	}
	v = layout.Resolve(o, v)
	key := r.Keyer.LayoutKey(o.Hash(), cache.LayoutKeyOpts{
		Variant: string(v),
		Canvas:  r.opts.Layout.Fingerprint(),
	})
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		var res layout.Result
		if json.Unmarshal(data, &res) == nil && res.Variant == v {
			observability.Cache().OnCacheHit(ctx, "layout")
			return res, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "layout")

	res, err := layout.Layout(o, v, r.opts.Layout)
	if err != nil {
		return layout.Result{}, err
	}
	if data, err := json.Marshal(res); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.LayoutTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return res, nil
}
