package canvas

import (
	"github.com/matzehuels/trazo/pkg/diagram"
	"github.com/matzehuels/trazo/pkg/layout"
)

// Margin is the padding added around the nodes' bounding box.
const Margin = 40.0

// Scene is the renderable form of a diagram: node boxes with their styles
// and routed edges. Exporters and front ends draw scenes, not diagrams.
type Scene struct {
	Title   string          `json:"title,omitempty"`
	Variant diagram.Variant `json:"variant"`
	Bounds  diagram.Rect    `json:"bounds"`
	Nodes   []SceneNode     `json:"nodes"`
	Edges   []SceneEdge     `json:"edges"`
}

// SceneNode is one drawable node.
type SceneNode struct {
	ID          string           `json:"id"`
	Label       string           `json:"label"`
	Description string           `json:"description,omitempty"`
	Icon        string           `json:"icon,omitempty"`
	Kind        diagram.NodeKind `json:"kind"`
	Rect        diagram.Rect     `json:"rect"`
	Style       diagram.Style    `json:"style"`

	// Overlay state, never set by BuildScene.
	Dragging bool `json:"dragging,omitempty"`
	Editing  bool `json:"editing,omitempty"`
	Selected bool `json:"selected,omitempty"`
}

// SceneEdge is one drawable edge.
type SceneEdge struct {
	ID   string           `json:"id"`
	From string           `json:"from"`
	To   string           `json:"to"`
	Kind diagram.EdgeKind `json:"kind"`
	Path layout.Path      `json:"path"`
}

// Empty reports whether the scene has no nodes.
func (s Scene) Empty() bool { return len(s.Nodes) == 0 }

// Node returns the scene node with the given ID.
func (s Scene) Node(id string) (SceneNode, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return SceneNode{}, false
}

// BuildScene returns the scene of the committed diagram d. A nil or empty
// diagram yields an empty scene with zero bounds.
func BuildScene(d *diagram.Diagram) Scene {
	if d == nil {
		return Scene{}
	}
	s := Scene{Title: d.Title, Variant: d.Variant}
	if d.NodeCount() == 0 {
		return s
	}
	s.Bounds = d.Bounds().Inflate(Margin)

	for _, n := range d.Nodes() {
		s.Nodes = append(s.Nodes, SceneNode{
			ID:          n.ID,
			Label:       n.Label,
			Description: n.Description,
			Icon:        n.Icon,
			Kind:        n.Kind,
			Rect:        n.Bounds(),
			Style:       n.Style,
		})
	}
	paths := layout.RouteDiagram(d)
	for _, e := range d.Edges() {
		s.Edges = append(s.Edges, SceneEdge{
			ID:   e.ID,
			From: e.From,
			To:   e.To,
			Kind: e.Kind,
			Path: paths[e.ID],
		})
	}
	return s
}
