package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bep/debounce"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/matzehuels/trazo/pkg/diagram"
	errs "github.com/matzehuels/trazo/pkg/errors"
	"github.com/matzehuels/trazo/pkg/events"
	"github.com/matzehuels/trazo/pkg/pipeline"
	"github.com/matzehuels/trazo/pkg/workspace"
)

// defaultWatchDelay is how long the file must be quiet before a new job starts.
const defaultWatchDelay = 300 * time.Millisecond

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		variant string
		delay   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Regenerate the diagram whenever a text file changes",
		Long: `Watch a text file and regenerate the workspace's diagram each time it is
saved. A save while a job is running cancels that job; the last committed
diagram stays in place until a newer one is ready.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := diagram.ParseVariant(variant); err != nil {
				return err
			}
			return c.runWatch(cmd.Context(), args[0], variant, delay)
		},
	}

	cmd.Flags().StringVar(&variant, "variant", "auto", "diagram variant: auto, flow, cycle, infographic, mindmap")
	cmd.Flags().DurationVar(&delay, "delay", defaultWatchDelay, "quiet period before regenerating")
	return cmd
}

func (c *CLI) runWatch(ctx context.Context, path, variant string, delay time.Duration) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "resolve %s", path)
	}
	if _, err := os.Stat(abs); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "watch %s", path)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stages := events.NewChan(64)
	ws, closeWS, err := c.openWorkspace(ctx, stages)
	if err != nil {
		return err
	}
	defer closeWS()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "create watcher")
	}
	defer watcher.Close()
	// Editors often replace the file on save, so watch the directory.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "watch %s", filepath.Dir(abs))
	}

	// Log lines would tear the TUI.
	level := c.Logger.GetLevel()
	c.Logger.SetLevel(LogError)
	defer c.Logger.SetLevel(level)

	p := tea.NewProgram(NewWatchModel(abs, ws.ID(), ws.Diagram()), tea.WithContext(ctx))
	w := &watchLoop{ctx: ctx, ws: ws, path: abs, variant: variant, send: p.Send}

	go w.forwardStages(stages.C())
	go w.run(watcher, debounce.New(delay))
	go w.regenerate()

	_, err = p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// watchLoop connects file events and pipeline jobs to the TUI.
type watchLoop struct {
	ctx     context.Context
	ws      *workspace.Workspace
	path    string
	variant string
	send    func(tea.Msg)
}

func (w *watchLoop) run(watcher *fsnotify.Watcher, debounced func(func())) {
	for {
		select {
		case <-w.ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				debounced(w.regenerate)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.send(watchErrMsg{err: err})
		}
	}
}

func (w *watchLoop) regenerate() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.send(watchErrMsg{err: errs.Wrap(errs.ErrCodeInvalidInput, err, "read %s", w.path)})
		return
	}
	text := strings.TrimRight(string(data), "\n")
	w.ws.Store().SetEditorText(text)

	job := w.ws.Start(w.ctx, text, w.variant)
	w.send(fileMsg{jobID: job.ID, chars: len(text)})
	go func() {
		d, err := job.Wait(w.ctx)
		if w.ctx.Err() != nil {
			return
		}
		w.send(resultMsg{jobID: job.ID, diagram: d, reused: job.ReusedOutline(), err: err})
	}()
}

func (w *watchLoop) forwardStages(c <-chan events.Event) {
	for {
		select {
		case <-w.ctx.Done():
			return
		case e := <-c:
			if e.Name == events.StageChanged {
				w.send(stageMsg{jobID: e.JobID, stage: pipeline.Stage(e.Stage)})
			}
		}
	}
}
