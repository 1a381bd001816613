package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/trazo/pkg/diagram"
	errs "github.com/matzehuels/trazo/pkg/errors"
	"github.com/matzehuels/trazo/pkg/pipeline"
)

var (
	watchHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	watchBoxStyle    = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).
				Padding(0, 1)
	watchDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

var watchFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// =============================================================================
// Messages
// =============================================================================

// stageMsg reports a pipeline stage transition.
type stageMsg struct {
	jobID string
	stage pipeline.Stage
}

// resultMsg reports a finished generation.
type resultMsg struct {
	jobID   string
	diagram *diagram.Diagram
	reused  bool
	err     error
}

// fileMsg reports that the watched file was read and a job started.
type fileMsg struct {
	jobID string
	chars int
}

// watchErrMsg reports a watcher or read failure that does not end the session.
type watchErrMsg struct{ err error }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// =============================================================================
// WatchModel - live regeneration status
// =============================================================================

// WatchModel is the bubbletea model for the watch command. It shows the
// stage of the latest job and a summary of the last committed diagram.
type WatchModel struct {
	Path      string
	Workspace string

	job     string
	stage   pipeline.Stage
	diagram *diagram.Diagram
	reused  bool
	err     error
	runs    int
	updated time.Time
	frame   int
}

// NewWatchModel creates a watch model for path in the given workspace.
func NewWatchModel(path, workspace string, current *diagram.Diagram) WatchModel {
	return WatchModel{
		Path:      path,
		Workspace: workspace,
		stage:     pipeline.StageIdle,
		diagram:   current,
	}
}

func (m WatchModel) Init() tea.Cmd {
	return tick()
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tickMsg:
		m.frame++
		return m, tick()
	case fileMsg:
		m.job = msg.jobID
		m.stage = pipeline.StageIdle
		m.runs++
	case stageMsg:
		// Stages of superseded jobs arrive late; ignore them.
		if msg.jobID == m.job {
			m.stage = msg.stage
		}
	case resultMsg:
		if msg.jobID != m.job {
			return m, nil
		}
		m.err = msg.err
		if msg.err == nil {
			m.diagram = msg.diagram
			m.reused = msg.reused
			m.updated = time.Now()
			m.stage = pipeline.StageDone
		} else if errs.Is(msg.err, errs.ErrCodeCancelled) {
			m.stage = pipeline.StageCancelled
		} else {
			m.stage = pipeline.StageFailed
		}
	case watchErrMsg:
		m.err = msg.err
	}
	return m, nil
}

func (m WatchModel) View() string {
	var b strings.Builder

	b.WriteString(watchHeaderStyle.Render("Watching " + filepath.Base(m.Path)))
	b.WriteString(watchDimStyle.Render(fmt.Sprintf("  workspace %s · %d runs", m.Workspace, m.runs)))
	b.WriteString("\n\n")

	switch {
	case m.stage == pipeline.StageIdle && m.runs == 0:
		b.WriteString(watchDimStyle.Render("Waiting for changes..."))
	case !m.stage.Terminal():
		frame := watchFrames[m.frame%len(watchFrames)]
		b.WriteString(styleIconSpinner.Render(frame) + " " + m.stage.Label())
	case m.stage == pipeline.StageDone:
		b.WriteString(StyleSuccess.Render(iconSuccess) + " " + m.stage.Label())
	default:
		b.WriteString(styleIconError.Render(iconError) + " " + m.stage.Label())
	}
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(styleIconError.Render(errs.UserMessage(m.err)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.diagram != nil {
		b.WriteString(watchBoxStyle.Render(summarize(m.diagram, m.reused, m.updated)))
		b.WriteString("\n")
	}
	b.WriteString(watchDimStyle.Render("q quit"))
	return b.String()
}

func summarize(d *diagram.Diagram, reused bool, updated time.Time) string {
	var b strings.Builder
	title := d.Title
	if title == "" {
		title = "(untitled)"
	}
	b.WriteString(StyleValue.Render(title))
	fmt.Fprintf(&b, "\n%s · %d nodes · %d edges", d.Variant.Label(), d.NodeCount(), d.EdgeCount())
	if reused {
		b.WriteString(" · " + iconReused)
	}
	for _, n := range d.Nodes() {
		fmt.Fprintf(&b, "\n  %s %s", watchDimStyle.Render("•"), n.Label)
	}
	if !updated.IsZero() {
		b.WriteString("\n" + watchDimStyle.Render("updated "+updated.Format("15:04:05")))
	}
	return b.String()
}
