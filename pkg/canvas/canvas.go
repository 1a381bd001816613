// Package canvas implements the interactive canvas runtime: node drag,
// the quick-style menu and inline label editing.
//
// Every interaction keeps a pending overlay that is visible through
// [Canvas.Scene] but does not touch the diagram until it is committed.
// Commits go through the [Editor] (the workspace diagram store), which
// persists them with a debounced write. Drags and inline edits hold an edit
// session open on the editor so a regeneration cannot replace the diagram
// mid-gesture.
//
// Canvas operations never return errors: unknown nodes, non-finite pointer
// coordinates and empty labels are ignored and reported as false.
package canvas

import (
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/trazo/pkg/diagram"
)

// Editor is the mutation surface of the diagram store.
type Editor interface {
	Current() *diagram.Diagram
	ApplyNodeEdit(nodeID string, p diagram.NodePatch) bool
	ApplyNodePosition(nodeID string, p diagram.Point) bool
	BeginSession()
	EndSession()
}

// Mode is the interaction in progress.
type Mode string

const (
	ModeIdle    Mode = "idle"
	ModeDrag    Mode = "drag"
	ModeMenu    Mode = "menu"
	ModeEditing Mode = "editing"
)

// StyleOption is one entry of the quick-style menu.
type StyleOption struct {
	Label string         `json:"label"`
	Color string         `json:"color,omitempty"`
	Shape *diagram.Shape `json:"shape,omitempty"`
}

// Patch returns the node patch the option applies.
func (o StyleOption) Patch() diagram.NodePatch {
	var p diagram.NodePatch
	if o.Color != "" {
		p.Color = diagram.StringPtr(o.Color)
	}
	if o.Shape != nil {
		p.Shape = diagram.ShapePtr(*o.Shape)
	}
	return p
}

// StyleOptions lists the quick-style menu: every palette color, then every
// shape.
func StyleOptions() []StyleOption {
	opts := make([]StyleOption, 0, len(diagram.Palette)+len(diagram.Shapes))
	for _, c := range diagram.Palette {
		opts = append(opts, StyleOption{Label: c, Color: c})
	}
	for _, s := range diagram.Shapes {
		opts = append(opts, StyleOption{Label: string(s), Shape: diagram.ShapePtr(s)})
	}
	return opts
}

type dragState struct {
	nodeID   string
	pointer  diagram.Point
	initial  diagram.Point
	proposed diagram.Point
}

type editState struct {
	nodeID string
	buffer string
}

// Canvas is the interaction state of one workspace's canvas. It is safe
// for concurrent use, though a single consumer is expected.
type Canvas struct {
	editor Editor
	logger *log.Logger

	mu   sync.Mutex
	drag *dragState
	menu string
	edit *editState
}

// New returns a canvas editing through e. A nil logger discards output.
func New(e Editor, logger *log.Logger) *Canvas {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Canvas{editor: e, logger: logger}
}

// Mode returns the interaction in progress.
func (c *Canvas) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.drag != nil:
		return ModeDrag
	case c.edit != nil:
		return ModeEditing
	case c.menu != "":
		return ModeMenu
	}
	return ModeIdle
}

func (c *Canvas) node(id string) (diagram.Node, bool) {
	d := c.editor.Current()
	if d == nil {
		return diagram.Node{}, false
	}
	return d.Node(id)
}

// reset discards any interaction in progress and reports whether an edit
// session must be ended. Callers hold c.mu and end the session after
// unlocking, since ending it may apply a queued replacement.
func (c *Canvas) reset() bool {
	open := c.drag != nil || c.edit != nil
	c.drag = nil
	c.edit = nil
	c.menu = ""
	return open
}

func (c *Canvas) endIf(open bool) {
	if open {
		c.editor.EndSession()
	}
}

// =============================================================================
// Drag
// =============================================================================

// DragStart begins dragging a node from the given pointer position. Any
// other interaction in progress is discarded.
func (c *Canvas) DragStart(nodeID string, pointer diagram.Point) bool {
	if !pointer.Finite() {
		return false
	}
	n, ok := c.node(nodeID)
	if !ok {
		return false
	}
	c.mu.Lock()
	open := c.reset()
	c.drag = &dragState{nodeID: nodeID, pointer: pointer, initial: n.Position, proposed: n.Position}
	c.mu.Unlock()
	c.endIf(open)
	c.editor.BeginSession()
	return true
}

// DragMove proposes initial + (pointer - start) as the dragged node's
// position and returns it.
func (c *Canvas) DragMove(pointer diagram.Point) (diagram.Point, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.drag == nil || !pointer.Finite() {
		return diagram.Point{}, false
	}
	c.drag.proposed = c.drag.initial.Add(pointer.Sub(c.drag.pointer))
	return c.drag.proposed, true
}

// DragEnd commits the drag at the given pointer position.
func (c *Canvas) DragEnd(pointer diagram.Point) bool {
	c.mu.Lock()
	d := c.drag
	if d == nil {
		c.mu.Unlock()
		return false
	}
	if pointer.Finite() {
		d.proposed = d.initial.Add(pointer.Sub(d.pointer))
	}
	c.drag = nil
	c.mu.Unlock()

	ok := c.editor.ApplyNodePosition(d.nodeID, d.proposed)
	c.editor.EndSession()
	c.logger.Debug("drag committed", "node", d.nodeID, "x", d.proposed.X, "y", d.proposed.Y, "ok", ok)
	return ok
}

// DragCancel discards the drag.
func (c *Canvas) DragCancel() {
	c.mu.Lock()
	open := c.drag != nil
	c.drag = nil
	c.mu.Unlock()
	c.endIf(open)
}

// =============================================================================
// Quick-style menu
// =============================================================================

// Click opens the quick-style menu for a node.
func (c *Canvas) Click(nodeID string) bool {
	if _, ok := c.node(nodeID); !ok {
		return false
	}
	c.mu.Lock()
	open := c.reset()
	c.menu = nodeID
	c.mu.Unlock()
	c.endIf(open)
	return true
}

// Menu returns the node whose menu is open and the menu options.
func (c *Canvas) Menu() (string, []StyleOption) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.menu == "" {
		return "", nil
	}
	return c.menu, StyleOptions()
}

// PickStyle commits the i-th menu option and closes the menu.
func (c *Canvas) PickStyle(i int) bool {
	opts := StyleOptions()
	c.mu.Lock()
	nodeID := c.menu
	c.menu = ""
	c.mu.Unlock()
	if nodeID == "" || i < 0 || i >= len(opts) {
		return false
	}
	return c.editor.ApplyNodeEdit(nodeID, opts[i].Patch())
}

// CloseMenu closes the menu without changes.
func (c *Canvas) CloseMenu() {
	c.mu.Lock()
	c.menu = ""
	c.mu.Unlock()
}

// =============================================================================
// Inline edit
// =============================================================================

// DoubleClick enters inline edit on a node, seeding the buffer with its
// label.
func (c *Canvas) DoubleClick(nodeID string) bool {
	n, ok := c.node(nodeID)
	if !ok {
		return false
	}
	c.mu.Lock()
	open := c.reset()
	c.edit = &editState{nodeID: nodeID, buffer: n.Label}
	c.mu.Unlock()
	c.endIf(open)
	c.editor.BeginSession()
	return true
}

// SetBuffer replaces the inline edit buffer.
func (c *Canvas) SetBuffer(text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.edit == nil {
		return false
	}
	c.edit.buffer = text
	return true
}

// Buffer returns the inline edit buffer.
func (c *Canvas) Buffer() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.edit == nil {
		return "", false
	}
	return c.edit.buffer, true
}

// HandleKey handles a key during inline edit: "Enter" commits and "Escape"
// discards. Other keys are ignored.
func (c *Canvas) HandleKey(key string) bool {
	switch key {
	case "Enter":
		return c.commitEdit()
	case "Escape":
		c.mu.Lock()
		open := c.edit != nil
		c.edit = nil
		c.mu.Unlock()
		c.endIf(open)
		return open
	}
	return false
}

// Blur commits the inline edit, as when focus leaves the editor.
func (c *Canvas) Blur() bool { return c.commitEdit() }

func (c *Canvas) commitEdit() bool {
	c.mu.Lock()
	e := c.edit
	c.edit = nil
	c.mu.Unlock()
	if e == nil {
		return false
	}
	ok := c.editor.ApplyNodeEdit(e.nodeID, diagram.NodePatch{Label: diagram.StringPtr(e.buffer)})
	c.editor.EndSession()
	return ok
}

// =============================================================================
// Scene
// =============================================================================

// Scene returns the committed diagram's scene with pending overlays: a
// dragged node at its proposed position, an edited node showing its buffer
// and the node whose menu is open marked selected. Edges are routed against
// the overlaid positions.
func (c *Canvas) Scene() Scene {
	d := c.editor.Current()
	if d == nil {
		return Scene{}
	}
	c.mu.Lock()
	menu := c.menu
	var dragCopy *dragState
	var editCopy *editState
	if c.drag != nil {
		cp := *c.drag
		dragCopy = &cp
	}
	if c.edit != nil {
		cp := *c.edit
		editCopy = &cp
	}
	c.mu.Unlock()

	if dragCopy != nil {
		d.SetPosition(dragCopy.nodeID, dragCopy.proposed)
	}
	s := BuildScene(d)
	for i := range s.Nodes {
		n := &s.Nodes[i]
		switch {
		case dragCopy != nil && n.ID == dragCopy.nodeID:
			n.Dragging = true
		case editCopy != nil && n.ID == editCopy.nodeID:
			n.Editing = true
			n.Label = editCopy.buffer
		case n.ID == menu:
			n.Selected = true
		}
	}
	return s
}
