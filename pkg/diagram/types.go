package diagram

import (
	"math"
	"strings"

	errs "github.com/matzehuels/trazo/pkg/errors"
)

// Variant selects the geometry used to lay out a diagram.
type Variant string

const (
	// VariantAuto lets the analyzer pick the variant from the text.
	VariantAuto        Variant = "auto"
	VariantFlow        Variant = "flow"
	VariantCycle       Variant = "cycle"
	VariantInfographic Variant = "infographic"
	VariantMindmap     Variant = "mindmap"
)

// Variants lists the concrete variants in menu order.
var Variants = []Variant{VariantFlow, VariantCycle, VariantInfographic, VariantMindmap}

var variantAliases = map[string]Variant{
	"":                  VariantAuto,
	"auto":              VariantAuto,
	"automatico":        VariantAuto,
	"automático":        VariantAuto,
	"flow":              VariantFlow,
	"flujo":             VariantFlow,
	"diagrama de flujo": VariantFlow,
	"flowchart":         VariantFlow,
	"cycle":             VariantCycle,
	"ciclo":             VariantCycle,
	"infographic":       VariantInfographic,
	"infografia":        VariantInfographic,
	"infografía":        VariantInfographic,
	"mindmap":           VariantMindmap,
	"mind map":          VariantMindmap,
	"mapa mental":       VariantMindmap,
}

// ParseVariant converts a variant name or a UI menu label into a Variant.
// Matching is case-insensitive. Unknown names return an INVALID_VARIANT error.
func ParseVariant(s string) (Variant, error) {
	if v, ok := variantAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return v, nil
	}
	return "", errs.New(errs.ErrCodeInvalidVariant, "unknown diagram type %q", s)
}

// IsConcrete reports whether v names an actual geometry (not auto).
func (v Variant) IsConcrete() bool {
	switch v {
	case VariantFlow, VariantCycle, VariantInfographic, VariantMindmap:
		return true
	}
	return false
}

// Label returns the menu label shown to users.
func (v Variant) Label() string {
	switch v {
	case VariantFlow:
		return "Diagrama de Flujo"
	case VariantCycle:
		return "Ciclo"
	case VariantInfographic:
		return "Infografía"
	case VariantMindmap:
		return "Mapa Mental"
	default:
		return "Automático"
	}
}

// NodeKind is the semantic role of a node.
type NodeKind string

const (
	NodeKindConcept    NodeKind = "concept"
	NodeKindCentral    NodeKind = "central"
	NodeKindSupporting NodeKind = "supporting"
)

// EdgeKind is the semantic role of an edge.
type EdgeKind string

const (
	// EdgeKindSequence joins consecutive steps of a flow or cycle.
	EdgeKindSequence EdgeKind = "sequence"
	// EdgeKindHierarchy joins a parent concept to a child.
	EdgeKindHierarchy EdgeKind = "hierarchy"
	// EdgeKindAssociation joins two related concepts with no ordering.
	EdgeKindAssociation EdgeKind = "association"
)

// Shape is the outline drawn around a node.
type Shape string

const (
	ShapeRectangle Shape = "rectangle"
	ShapeCircle    Shape = "circle"
	ShapeEllipse   Shape = "ellipse"
	ShapeDiamond   Shape = "diamond"
)

// Shapes lists every supported shape.
var Shapes = []Shape{ShapeRectangle, ShapeCircle, ShapeEllipse, ShapeDiamond}

// Valid reports whether s is a known shape.
func (s Shape) Valid() bool {
	switch s {
	case ShapeRectangle, ShapeCircle, ShapeEllipse, ShapeDiamond:
		return true
	}
	return false
}

// Point is a position on the canvas, in canvas units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Finite reports whether both coordinates are finite numbers.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// MaxCoordinate bounds node coordinates on both axes.
const MaxCoordinate = 1e6

// Clamp returns p with each coordinate limited to ±MaxCoordinate.
func (p Point) Clamp() Point {
	return Point{
		X: math.Max(-MaxCoordinate, math.Min(MaxCoordinate, p.X)),
		Y: math.Max(-MaxCoordinate, math.Min(MaxCoordinate, p.Y)),
	}
}

// Size is the width and height of a node's bounding box.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Rect is an axis-aligned rectangle given by its top-left corner and size.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Center returns the rectangle's center point.
func (r Rect) Center() Point { return Point{r.X + r.W/2, r.Y + r.H/2} }

// Contains reports whether p lies inside r (borders included).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Inflate returns r grown by pad on every side.
func (r Rect) Inflate(pad float64) Rect {
	return Rect{r.X - pad, r.Y - pad, r.W + 2*pad, r.H + 2*pad}
}

// Union returns the smallest rectangle containing r and o.
func (r Rect) Union(o Rect) Rect {
	if r.W == 0 && r.H == 0 {
		return o
	}
	x0, y0 := math.Min(r.X, o.X), math.Min(r.Y, o.Y)
	x1, y1 := math.Max(r.X+r.W, o.X+o.W), math.Max(r.Y+r.H, o.Y+o.H)
	return Rect{x0, y0, x1 - x0, y1 - y0}
}

// Style is the visual style of a node.
type Style struct {
	Color string `json:"color"`
	Shape Shape  `json:"shape"`
}

// Palette is the set of colors offered by the quick-style menu.
var Palette = []string{
	"#FFFFFF", // white
	"#FDE68A", // amber
	"#BFDBFE", // blue
	"#BBF7D0", // green
	"#FECACA", // red
	"#E9D5FF", // purple
	"#FED7AA", // orange
	"#E5E7EB", // gray
}

// ValidColor reports whether c is a "#RRGGBB" hex color.
func ValidColor(c string) bool {
	if len(c) != 7 || c[0] != '#' {
		return false
	}
	for _, r := range c[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
