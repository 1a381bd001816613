package diagram

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidNodeID is returned by [Diagram.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Diagram.AddNode] when a node with the
	// same ID already exists.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrDuplicateEdgeID is returned by [Diagram.AddEdge] when an edge with the
	// same ID already exists.
	ErrDuplicateEdgeID = errors.New("duplicate edge ID")

	// ErrUnknownSourceNode is returned by [Diagram.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Diagram.AddEdge] when the To node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrSelfLoop is returned by [Diagram.AddEdge] when From equals To.
	ErrSelfLoop = errors.New("edge must join two distinct nodes")

	// ErrCentralCount is returned by [Diagram.Validate] when the number of
	// central nodes does not match the variant.
	ErrCentralCount = errors.New("wrong number of central nodes")

	// ErrUnknownNode is returned by operations addressing a missing node.
	ErrUnknownNode = errors.New("unknown node")
)

// Node is a positioned, styled concept on the canvas.
//
// Position is the top-left corner of the node's bounding box.
type Node struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Kind        NodeKind `json:"kind"`
	Position    Point    `json:"position"`
	Size        Size     `json:"size"`
	Style       Style    `json:"style"`
	Icon        string   `json:"icon,omitempty"`

	// CreatedFrom is the outline item ID this node was generated from.
	CreatedFrom string `json:"created_from"`
	// Order is the node's index in outline order.
	Order int `json:"order"`

	// Edited is set once the user has edited the label.
	Edited bool `json:"edited,omitempty"`
	// Styled is set once the user has picked a color or shape.
	Styled bool `json:"styled,omitempty"`
}

// Bounds returns the node's bounding box.
func (n Node) Bounds() Rect {
	return Rect{n.Position.X, n.Position.Y, n.Size.W, n.Size.H}
}

// Center returns the center of the node's bounding box.
func (n Node) Center() Point { return n.Bounds().Center() }

// Edge is a typed connection between two nodes.
type Edge struct {
	ID   string   `json:"id"`
	From string   `json:"from"`
	To   string   `json:"to"`
	Kind EdgeKind `json:"kind"`
}

// EdgeID returns the canonical ID for an edge joining from and to.
func EdgeID(from, to string) string { return "e-" + from + "-" + to }

// Diagram is the committed, persisted state of one workspace's diagram.
//
// The zero value is not usable; use [New].
type Diagram struct {
	ID          string
	WorkspaceID string
	Title       string
	Variant     Variant
	SourceText  string
	UpdatedAt   time.Time

	nodes map[string]*Node
	edges map[string]*Edge
}

// New creates an empty diagram for the given workspace with a fresh ID.
func New(workspaceID string, variant Variant) *Diagram {
	return &Diagram{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		Variant:     variant,
		nodes:       make(map[string]*Node),
		edges:       make(map[string]*Edge),
	}
}

// AddNode adds a node to the diagram.
// Returns [ErrInvalidNodeID] for an empty ID and [ErrDuplicateNodeID] if the
// ID is already in use.
func (d *Diagram) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, ok := d.nodes[n.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNodeID, n.ID)
	}
	d.nodes[n.ID] = &n
	return nil
}

// AddEdge adds an edge to the diagram. Both endpoints must exist and differ.
// An empty edge ID is replaced with [EdgeID].
func (d *Diagram) AddEdge(e Edge) error {
	if e.From == e.To {
		return fmt.Errorf("%w: %s", ErrSelfLoop, e.From)
	}
	if _, ok := d.nodes[e.From]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSourceNode, e.From)
	}
	if _, ok := d.nodes[e.To]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTargetNode, e.To)
	}
	if e.ID == "" {
		e.ID = EdgeID(e.From, e.To)
	}
	if _, ok := d.edges[e.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEdgeID, e.ID)
	}
	d.edges[e.ID] = &e
	return nil
}

// Node returns a copy of the node with the given ID.
func (d *Diagram) Node(id string) (Node, bool) {
	n, ok := d.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Nodes returns copies of all nodes sorted by Order, then ID.
func (d *Diagram) Nodes() []Node {
	out := make([]Node, 0, len(d.nodes))
	for _, n := range d.nodes {
		out = append(out, *n)
	}
	slices.SortFunc(out, func(a, b Node) int {
		if a.Order != b.Order {
			return a.Order - b.Order
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Edges returns copies of all edges sorted by ID.
func (d *Diagram) Edges() []Edge {
	out := make([]Edge, 0, len(d.edges))
	for _, e := range d.edges {
		out = append(out, *e)
	}
	slices.SortFunc(out, func(a, b Edge) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// NodeCount returns the number of nodes.
func (d *Diagram) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges.
func (d *Diagram) EdgeCount() int { return len(d.edges) }

// Central returns the central node, if any.
func (d *Diagram) Central() (Node, bool) {
	for _, n := range d.Nodes() {
		if n.Kind == NodeKindCentral {
			return n, true
		}
	}
	return Node{}, false
}

// SetPosition moves a node. It returns false if the node does not exist or
// the position is not finite. Coordinates beyond [MaxCoordinate] are clamped.
func (d *Diagram) SetPosition(id string, p Point) bool {
	n, ok := d.nodes[id]
	if !ok || !p.Finite() {
		return false
	}
	n.Position = p.Clamp()
	return true
}

// Bounds returns the bounding box of all nodes. An empty diagram has a
// zero rectangle.
func (d *Diagram) Bounds() Rect {
	var r Rect
	for _, n := range d.Nodes() {
		r = r.Union(n.Bounds())
	}
	return r
}

// Validate checks the structural invariants of the diagram: every edge
// references existing, distinct nodes, and the number of central nodes is
// exactly one for a non-empty infographic and at most one otherwise.
func (d *Diagram) Validate() error {
	for _, e := range d.Edges() {
		if e.From == e.To {
			return fmt.Errorf("%w: %s", ErrSelfLoop, e.ID)
		}
		if _, ok := d.nodes[e.From]; !ok {
			return fmt.Errorf("edge %s: %w: %s", e.ID, ErrUnknownSourceNode, e.From)
		}
		if _, ok := d.nodes[e.To]; !ok {
			return fmt.Errorf("edge %s: %w: %s", e.ID, ErrUnknownTargetNode, e.To)
		}
	}
	central := 0
	for _, n := range d.nodes {
		if n.Kind == NodeKindCentral {
			central++
		}
	}
	switch {
	case d.Variant == VariantInfographic && len(d.nodes) > 0 && central != 1:
		return fmt.Errorf("%w: infographic has %d", ErrCentralCount, central)
	case central > 1:
		return fmt.Errorf("%w: %s has %d", ErrCentralCount, d.Variant, central)
	}
	return nil
}

// Clone returns a deep copy of the diagram.
func (d *Diagram) Clone() *Diagram {
	c := *d
	c.nodes = make(map[string]*Node, len(d.nodes))
	for id, n := range d.nodes {
		cp := *n
		c.nodes[id] = &cp
	}
	c.edges = make(map[string]*Edge, len(d.edges))
	for id, e := range d.edges {
		cp := *e
		c.edges[id] = &cp
	}
	return &c
}

// Equal reports whether two diagrams are structurally identical: same
// identity, variant and source text, and equal node and edge sets.
// UpdatedAt is ignored.
func (d *Diagram) Equal(o *Diagram) bool {
	if d == nil || o == nil {
		return d == o
	}
	if d.ID != o.ID || d.WorkspaceID != o.WorkspaceID || d.Title != o.Title ||
		d.Variant != o.Variant || d.SourceText != o.SourceText {
		return false
	}
	eqNode := func(a, b *Node) bool { return *a == *b }
	eqEdge := func(a, b *Edge) bool { return *a == *b }
	return maps.EqualFunc(d.nodes, o.nodes, eqNode) && maps.EqualFunc(d.edges, o.edges, eqEdge)
}

// NodeIDs returns all node IDs in node order.
func (d *Diagram) NodeIDs() []string {
	nodes := d.Nodes()
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
