package export

import (
	"bytes"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/matzehuels/trazo/pkg/canvas"
	"github.com/matzehuels/trazo/pkg/diagram"
	"github.com/matzehuels/trazo/pkg/layout"
)

const (
	strokeColor = "#1F2937"
	textColor   = "#111827"
	edgeColor   = "#4B5563"

	strokeWidth  = 2.0
	cornerRadius = 10.0
	arrowLen     = 12.0
	arrowWidth   = 6.0
	labelPadding = 16.0
)

// RenderPNG draws a scene as a PNG image.
func RenderPNG(s canvas.Scene, opts Options) ([]byte, error) {
	opts.SetDefaults()
	f := frame(s, opts)
	scale := fitScale(f, opts.Scale)
	w, h := math.Ceil(f.W*scale), math.Ceil(f.H*scale)
	if err := checkSize(w, h); err != nil {
		return nil, err
	}

	dc := gg.NewContext(int(w), int(h))
	dc.SetHexColor(opts.Background)
	dc.Clear()

	dc.Scale(scale, scale)
	dc.Translate(-f.X, -f.Y)
	dc.SetFontFace(basicfont.Face7x13)

	for _, e := range s.Edges {
		drawEdge(dc, e)
	}
	for _, n := range s.Nodes {
		drawNode(dc, n)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fitScale shrinks scale so that the frame stays within MaxPixels.
func fitScale(f diagram.Rect, scale float64) float64 {
	area := math.Ceil(f.W*scale) * math.Ceil(f.H*scale)
	if area <= MaxPixels || f.W <= 0 || f.H <= 0 {
		return scale
	}
	// headroom for the ceil on each side
	return math.Sqrt(MaxPixels/(f.W*f.H)) * 0.99
}

func drawEdge(dc *gg.Context, e canvas.SceneEdge) {
	pts := e.Path.Points
	if len(pts) < 2 {
		return
	}
	dc.SetHexColor(edgeColor)
	dc.SetLineWidth(strokeWidth)
	if e.Kind == diagram.EdgeKindAssociation {
		dc.SetDash(6, 4)
	}

	dc.MoveTo(pts[0].X, pts[0].Y)
	// tail is the point the arrowhead points away from
	tail := pts[len(pts)-2]
	if e.Path.Kind == layout.PathCurved && len(pts) == 3 {
		dc.QuadraticTo(pts[1].X, pts[1].Y, pts[2].X, pts[2].Y)
	} else {
		for _, p := range pts[1:] {
			dc.LineTo(p.X, p.Y)
		}
	}
	dc.Stroke()
	dc.SetDash()

	if e.Kind != diagram.EdgeKindAssociation {
		drawArrowHead(dc, tail, pts[len(pts)-1])
	}
}

func drawArrowHead(dc *gg.Context, from, tip diagram.Point) {
	dx, dy := tip.X-from.X, tip.Y-from.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	dx, dy = dx/l, dy/l
	px, py := -dy, dx

	dc.MoveTo(tip.X, tip.Y)
	dc.LineTo(tip.X-dx*arrowLen+px*arrowWidth, tip.Y-dy*arrowLen+py*arrowWidth)
	dc.LineTo(tip.X-dx*arrowLen-px*arrowWidth, tip.Y-dy*arrowLen-py*arrowWidth)
	dc.ClosePath()
	dc.Fill()
}

func drawNode(dc *gg.Context, n canvas.SceneNode) {
	r := n.Rect
	c := r.Center()
	switch n.Style.Shape {
	case diagram.ShapeCircle, diagram.ShapeEllipse:
		dc.DrawEllipse(c.X, c.Y, r.W/2, r.H/2)
	case diagram.ShapeDiamond:
		dc.MoveTo(c.X, r.Y)
		dc.LineTo(r.X+r.W, c.Y)
		dc.LineTo(c.X, r.Y+r.H)
		dc.LineTo(r.X, c.Y)
		dc.ClosePath()
	default:
		dc.DrawRoundedRectangle(r.X, r.Y, r.W, r.H, cornerRadius)
	}
	color := n.Style.Color
	if !diagram.ValidColor(color) {
		color = DefaultBackground
	}
	dc.SetHexColor(color)
	dc.FillPreserve()
	dc.SetHexColor(strokeColor)
	dc.SetLineWidth(strokeWidth)
	if n.Kind == diagram.NodeKindCentral {
		dc.SetLineWidth(2 * strokeWidth)
	}
	dc.Stroke()

	width := r.W - 2*labelPadding
	if n.Style.Shape == diagram.ShapeDiamond || n.Style.Shape == diagram.ShapeCircle {
		// keep text inside the inscribed area
		width = r.W/math.Sqrt2 - labelPadding
	}
	if width < 20 {
		width = 20
	}
	dc.SetHexColor(textColor)
	dc.DrawStringWrapped(n.Label, c.X, c.Y, 0.5, 0.5, width, 1.3, gg.AlignCenter)
}
