package layout

import (
	"math"

	"github.com/matzehuels/trazo/pkg/diagram"
)

// PathKind is the drawing style of a routed edge.
type PathKind string

const (
	PathStraight   PathKind = "straight"
	PathCurved     PathKind = "curved"
	PathOrthogonal PathKind = "orthogonal"
)

const (
	// obstaclePadding is the clearance a straight edge must keep from other nodes.
	obstaclePadding = 10.0

	// curveOffset is the perpendicular distance of a curve's control point.
	curveOffset = 100.0
)

// Path is the drawable geometry of one edge. A curved path has exactly three
// points: start, control point and end.
type Path struct {
	Kind   PathKind        `json:"kind"`
	Points []diagram.Point `json:"points"`
}

// Start returns the first point of the path.
func (p Path) Start() diagram.Point { return p.Points[0] }

// End returns the last point of the path.
func (p Path) End() diagram.Point { return p.Points[len(p.Points)-1] }

// Route computes the path of an edge from one node to another.
//
// The straight segment between the two centers is clipped to both borders.
// If it passes within a small clearance of any obstacle, the edge is routed
// orthogonally around obstacles instead. Otherwise, when curved is set, a
// single-control-point curve is returned.
func Route(from, to diagram.Node, obstacles []diagram.Node, curved bool) Path {
	fc, tc := from.Center(), to.Center()
	start := clipToBorder(tc, from.Bounds())
	end := clipToBorder(fc, to.Bounds())

	var blocking []diagram.Rect
	for _, n := range obstacles {
		if n.ID == from.ID || n.ID == to.ID {
			continue
		}
		blocking = append(blocking, n.Bounds())
	}
	for _, r := range blocking {
		if segmentHitsRect(start, end, r.Inflate(obstaclePadding)) {
			pts := findOrthogonalPath(fc, tc, blocking)
			if len(pts) >= 2 {
				pts[0] = clipToBorder(pts[1], from.Bounds())
				pts[len(pts)-1] = clipToBorder(pts[len(pts)-2], to.Bounds())
			}
			return Path{Kind: PathOrthogonal, Points: pts}
		}
	}

	if curved {
		dx, dy := end.X-start.X, end.Y-start.Y
		l := math.Hypot(dx, dy)
		if l == 0 {
			l = 1
		}
		mid := diagram.Point{X: (start.X + end.X) / 2, Y: (start.Y + end.Y) / 2}
		ctrl := diagram.Point{X: mid.X - dy/l*curveOffset, Y: mid.Y + dx/l*curveOffset}
		return Path{Kind: PathCurved, Points: []diagram.Point{start, ctrl, end}}
	}
	return Path{Kind: PathStraight, Points: []diagram.Point{start, end}}
}

// RouteDiagram routes every edge of d, keyed by edge ID. Edges leaving the
// central node of an infographic are curved.
func RouteDiagram(d *diagram.Diagram) map[string]Path {
	nodes := d.Nodes()
	byID := make(map[string]diagram.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	out := make(map[string]Path, d.EdgeCount())
	for _, e := range d.Edges() {
		from, to := byID[e.From], byID[e.To]
		curved := d.Variant == diagram.VariantInfographic && from.Kind == diagram.NodeKindCentral
		out[e.ID] = Route(from, to, nodes, curved)
	}
	return out
}

// clipToBorder returns the point where the segment from the rectangle's
// center towards p leaves the rectangle.
func clipToBorder(p diagram.Point, r diagram.Rect) diagram.Point {
	c := r.Center()
	dx, dy := p.X-c.X, p.Y-c.Y
	if dx == 0 && dy == 0 {
		return c
	}
	if r.W == 0 || r.H == 0 {
		return c
	}
	// Scale the direction vector until it touches a vertical or horizontal side.
	sx, sy := math.Inf(1), math.Inf(1)
	if dx != 0 {
		sx = (r.W / 2) / math.Abs(dx)
	}
	if dy != 0 {
		sy = (r.H / 2) / math.Abs(dy)
	}
	s := math.Min(sx, sy)
	return diagram.Point{X: c.X + dx*s, Y: c.Y + dy*s}
}

// segmentHitsRect reports whether segment ab intersects rectangle r, using
// Liang-Barsky clipping.
func segmentHitsRect(a, b diagram.Point, r diagram.Rect) bool {
	dx, dy := b.X-a.X, b.Y-a.Y
	t0, t1 := 0.0, 1.0
	clip := func(p, q float64) bool {
		if p == 0 {
			return q >= 0
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return false
			}
			t0 = math.Max(t0, t)
		} else {
			if t < t0 {
				return false
			}
			t1 = math.Min(t1, t)
		}
		return true
	}
	return clip(-dx, a.X-r.X) && clip(dx, r.X+r.W-a.X) &&
		clip(-dy, a.Y-r.Y) && clip(dy, r.Y+r.H-a.Y) && t0 <= t1
}
