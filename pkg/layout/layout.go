package layout

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/matzehuels/trazo/pkg/diagram"
	errs "github.com/matzehuels/trazo/pkg/errors"
	"github.com/matzehuels/trazo/pkg/outline"
)

const (
	// DefaultWidth is the default canvas width in canvas units.
	DefaultWidth = 800.0

	// DefaultHeight is the default canvas height in canvas units.
	DefaultHeight = 600.0

	// DefaultMinGap is the flow gap between two nodes with empty labels.
	DefaultMinGap = 40.0

	// DefaultMaxGap caps the flow gap between neighbors.
	DefaultMaxGap = 120.0

	// DefaultGapPerRune is the flow gap added per rune of neighboring labels.
	DefaultGapPerRune = 2.0

	// DefaultLevelGap is the radial distance between mindmap levels.
	DefaultLevelGap = 240.0

	minCycleRadius = 250.0
	cycleRadiusPer = 60.0
	minRingRadius  = 300.0
	ringRadiusPer  = 40.0
)

// Node colors.
const (
	ColorWhite    = "#FFFFFF"
	ColorAccent   = "#FDE68A"
	ColorTerminal = "#BFDBFE"
	ColorDecision = "#FECACA"
	ColorCycle    = "#E9D5FF"
)

// Options configures the canvas the layout is computed for.
// Zero values select the defaults.
type Options struct {
	Width      float64 `json:"width,omitempty"`
	Height     float64 `json:"height,omitempty"`
	MinGap     float64 `json:"min_gap,omitempty"`
	MaxGap     float64 `json:"max_gap,omitempty"`
	GapPerRune float64 `json:"gap_per_rune,omitempty"`
	LevelGap   float64 `json:"level_gap,omitempty"`
}

// SetDefaults fills zero-valued fields with defaults.
func (o *Options) SetDefaults() {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.MinGap <= 0 {
		o.MinGap = DefaultMinGap
	}
	if o.MaxGap <= 0 {
		o.MaxGap = DefaultMaxGap
	}
	if o.MaxGap < o.MinGap {
		o.MaxGap = o.MinGap
	}
	if o.GapPerRune <= 0 {
		o.GapPerRune = DefaultGapPerRune
	}
	if o.LevelGap <= 0 {
		o.LevelGap = DefaultLevelGap
	}
}

// Fingerprint identifies the options for use in cache keys.
func (o Options) Fingerprint() string {
	return fmt.Sprintf("%gx%g-g%g-%g-%g-l%g", o.Width, o.Height, o.MinGap, o.MaxGap, o.GapPerRune, o.LevelGap)
}

// Center returns the canvas centroid.
func (o Options) Center() diagram.Point {
	return diagram.Point{X: o.Width / 2, Y: o.Height / 2}
}

// Result is the output of [Layout].
type Result struct {
	Variant diagram.Variant `json:"variant"`
	Nodes   []diagram.Node  `json:"nodes"`
	Edges   []diagram.Edge  `json:"edges"`
}

// NodeID returns the diagram node ID for an outline item ID.
func NodeID(itemID string) string { return "n-" + itemID }

// Layout positions the outline items for the given variant.
//
// VariantAuto resolves to the outline's suggested variant, or flow if none.
// An empty or invalid outline is rejected with an INVALID_INPUT error and
// an unknown variant with INVALID_VARIANT.
func Layout(o outline.Outline, v diagram.Variant, opts Options) (Result, error) {
	opts.SetDefaults()
	if len(o.Items) == 0 {
		return Result{}, errs.New(errs.ErrCodeInvalidInput, "nothing to lay out")
	}
	if err := o.Validate(); err != nil {
		return Result{}, errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid outline")
	}
	v = Resolve(o, v)
	if !v.IsConcrete() {
		return Result{}, errs.New(errs.ErrCodeInvalidVariant, "unknown diagram type %q", v)
	}

	var r Result
	switch {
	case len(o.Items) == 1:
		r = single(o, v, opts)
	case v == diagram.VariantFlow:
		r = flow(o, opts)
	case v == diagram.VariantCycle:
		r = cycle(o, opts)
	case v == diagram.VariantInfographic:
		r = infographic(o, opts)
	case v == diagram.VariantMindmap:
		r = mindmap(o, opts)
	}
	r.Variant = v
	return r, nil
}

// Resolve returns v, or the outline's suggestion when v is auto.
func Resolve(o outline.Outline, v diagram.Variant) diagram.Variant {
	if v == "" || v == diagram.VariantAuto {
		if o.Suggested.IsConcrete() {
			return o.Suggested
		}
		return diagram.VariantFlow
	}
	return v
}

// Apply adds the result's nodes and edges to an empty diagram.
func (r Result) Apply(d *diagram.Diagram) error {
	for _, n := range r.Nodes {
		if err := d.AddNode(n); err != nil {
			return err
		}
	}
	for _, e := range r.Edges {
		if err := d.AddEdge(e); err != nil {
			return err
		}
	}
	return nil
}

func newNode(it outline.Item, order int) diagram.Node {
	return diagram.Node{
		ID:          NodeID(it.ID),
		Label:       it.Text,
		Description: it.Description,
		Kind:        diagram.NodeKindConcept,
		Size:        EstimateSize(it.Text, it.Description),
		Style:       diagram.Style{Color: ColorWhite, Shape: diagram.ShapeRectangle},
		Icon:        it.Icon,
		CreatedFrom: it.ID,
		Order:       order,
	}
}

// placeCenter positions n so its center lies on c.
func placeCenter(n *diagram.Node, c diagram.Point) {
	n.Position = diagram.Point{X: round(c.X - n.Size.W/2), Y: round(c.Y - n.Size.H/2)}
}

// round snaps coordinates to 1/100 of a unit so results are stable across
// platforms and survive a JSON round trip unchanged.
func round(f float64) float64 { return math.Round(f*100) / 100 }

func edge(from, to diagram.Node, kind diagram.EdgeKind) diagram.Edge {
	return diagram.Edge{ID: diagram.EdgeID(from.ID, to.ID), From: from.ID, To: to.ID, Kind: kind}
}

func single(o outline.Outline, v diagram.Variant, opts Options) Result {
	n := newNode(o.Items[0], 0)
	switch v {
	case diagram.VariantInfographic, diagram.VariantMindmap:
		n.Kind = diagram.NodeKindCentral
		n.Size = square(n.Size, centralDiameter)
		n.Style = diagram.Style{Color: ColorAccent, Shape: diagram.ShapeCircle}
	case diagram.VariantCycle:
		n.Style = diagram.Style{Color: ColorCycle, Shape: diagram.ShapeEllipse}
	default:
		n.Style = diagram.Style{Color: ColorTerminal, Shape: diagram.ShapeCircle}
	}
	placeCenter(&n, opts.Center())
	return Result{Nodes: []diagram.Node{n}, Edges: []diagram.Edge{}}
}

func flow(o outline.Outline, opts Options) Result {
	nodes := make([]diagram.Node, len(o.Items))
	last := len(o.Items) - 1
	for i, it := range o.Items {
		n := newNode(it, i)
		switch {
		case i == 0 || i == last:
			n.Style = diagram.Style{Color: ColorTerminal, Shape: diagram.ShapeCircle}
		case strings.Contains(it.Text, "?"):
			n.Style = diagram.Style{Color: ColorDecision, Shape: diagram.ShapeDiamond}
		}
		nodes[i] = n
	}

	// Lay the row out from x=0, then shift it so it is centered on the canvas.
	xs := make([]float64, len(nodes))
	x := 0.0
	for i := range nodes {
		xs[i] = x
		x += nodes[i].Size.W
		if i < last {
			x += gap(nodes[i].Label, nodes[i+1].Label, opts)
		}
	}
	c := opts.Center()
	shift := c.X - x/2
	edges := make([]diagram.Edge, 0, last)
	for i := range nodes {
		nodes[i].Position = diagram.Point{X: round(xs[i] + shift), Y: round(c.Y - nodes[i].Size.H/2)}
		if i > 0 {
			edges = append(edges, edge(nodes[i-1], nodes[i], diagram.EdgeKindSequence))
		}
	}
	return Result{Nodes: nodes, Edges: edges}
}

// gap returns the flow spacing between two neighbors: proportional to the
// mean label length and capped at MaxGap.
func gap(a, b string, opts Options) float64 {
	runes := float64(utf8.RuneCountInString(a)+utf8.RuneCountInString(b)) / 2
	return math.Min(opts.MaxGap, opts.MinGap+runes*opts.GapPerRune)
}

func cycle(o outline.Outline, opts Options) Result {
	count := len(o.Items)
	radius := math.Max(minCycleRadius, float64(count)*cycleRadiusPer)
	step := 2 * math.Pi / float64(count)
	c := opts.Center()

	nodes := make([]diagram.Node, count)
	for i, it := range o.Items {
		n := newNode(it, i)
		n.Style = diagram.Style{Color: ColorCycle, Shape: diagram.ShapeEllipse}
		angle := float64(i)*step - math.Pi/2
		placeCenter(&n, polar(c, radius, angle))
		nodes[i] = n
	}
	edges := make([]diagram.Edge, count)
	for i := range nodes {
		edges[i] = edge(nodes[i], nodes[(i+1)%count], diagram.EdgeKindSequence)
	}
	return Result{Nodes: nodes, Edges: edges}
}

func polar(c diagram.Point, r, angle float64) diagram.Point {
	return diagram.Point{X: c.X + r*math.Cos(angle), Y: c.Y + r*math.Sin(angle)}
}

func infographic(o outline.Outline, opts Options) Result {
	c := opts.Center()
	center := newNode(o.Items[0], 0)
	center.Kind = diagram.NodeKindCentral
	center.Size = square(center.Size, centralDiameter)
	center.Style = diagram.Style{Color: ColorAccent, Shape: diagram.ShapeCircle}
	placeCenter(&center, c)

	rest := o.Items[1:]
	radius := math.Max(minRingRadius, float64(len(rest))*ringRadiusPer+centralDiameter)
	step := 2 * math.Pi / float64(len(rest))

	nodes := []diagram.Node{center}
	edges := make([]diagram.Edge, 0, len(rest))
	for i, it := range rest {
		n := newNode(it, i+1)
		n.Kind = diagram.NodeKindSupporting
		n.Size = square(n.Size, ringDiameter)
		n.Style = diagram.Style{Color: ColorWhite, Shape: diagram.ShapeCircle}
		placeCenter(&n, polar(c, radius, float64(i)*step-math.Pi/2))
		nodes = append(nodes, n)
		edges = append(edges, edge(center, n, diagram.EdgeKindHierarchy))
	}
	return Result{Nodes: nodes, Edges: edges}
}
