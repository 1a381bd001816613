package layout

import (
	"math"

	"github.com/matzehuels/trazo/pkg/diagram"
	"github.com/matzehuels/trazo/pkg/outline"
)

func mindmap(o outline.Outline, opts Options) Result {
	c := opts.Center()
	nodes := make([]diagram.Node, len(o.Items))
	for i, it := range o.Items {
		nodes[i] = newNode(it, i)
		if it.Level >= 2 {
			nodes[i].Kind = diagram.NodeKindSupporting
		}
	}

	var place func(i, depth int, a0, a1 float64)
	place = func(i, depth int, a0, a1 float64) {
		if depth == 0 {
			placeCenter(&nodes[i], c)
		} else {
			placeCenter(&nodes[i], polar(c, float64(depth)*opts.LevelGap, (a0+a1)/2))
		}
		leaves := float64(o.Leaves(i))
		a := a0
		for _, k := range o.Children(i) {
			w := (a1 - a0) * float64(o.Leaves(k)) / leaves
			place(k, depth+1, a, a+w)
			a += w
		}
	}

	start := -math.Pi / 2
	roots := o.Roots()
	if len(roots) == 1 {
		root := &nodes[roots[0]]
		root.Kind = diagram.NodeKindCentral
		root.Size = square(root.Size, centralDiameter)
		root.Style = diagram.Style{Color: ColorAccent, Shape: diagram.ShapeCircle}
		place(roots[0], 0, start, start+2*math.Pi)
	} else {
		// No single topic: roots share an unseen center.
		total := 0
		for _, r := range roots {
			total += o.Leaves(r)
		}
		a := start
		for _, r := range roots {
			nodes[r].Style = diagram.Style{Color: ColorTerminal, Shape: diagram.ShapeRectangle}
			w := 2 * math.Pi * float64(o.Leaves(r)) / float64(total)
			place(r, 1, a, a+w)
			a += w
		}
	}

	edges := make([]diagram.Edge, 0, len(nodes))
	seen := make(map[string]bool)
	add := func(e diagram.Edge) {
		if !seen[e.ID] && !seen[diagram.EdgeID(e.To, e.From)] {
			seen[e.ID] = true
			edges = append(edges, e)
		}
	}
	for i := range o.Items {
		if p := o.Parent(i); p >= 0 {
			add(edge(nodes[p], nodes[i], diagram.EdgeKindHierarchy))
		}
	}
	for i, it := range o.Items {
		for _, r := range it.Related {
			if j := o.Index(r); j >= 0 {
				add(edge(nodes[j], nodes[i], diagram.EdgeKindAssociation))
			}
		}
	}
	return Result{Nodes: nodes, Edges: edges}
}
