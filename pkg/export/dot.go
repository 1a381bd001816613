package export

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/trazo/pkg/canvas"
	"github.com/matzehuels/trazo/pkg/diagram"
)

// pointsPerInch converts canvas units to Graphviz inches.
const pointsPerInch = 72.0

// ToDOT converts a scene to Graphviz DOT source. Node positions are pinned
// ("pos=x,y!") so neato keeps the layout engine's geometry; the y axis is
// flipped because Graphviz grows upwards.
func ToDOT(s canvas.Scene, opts Options) string {
	opts.SetDefaults()
	f := frame(s, opts)

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  graph [layout=neato, splines=true, overlap=true, bgcolor=%q, pad=0, bb=\"0,0,%s,%s\"];\n",
		opts.Background, ftoa(f.W), ftoa(f.H))
	buf.WriteString("  node [style=filled, fontname=\"Helvetica\", fontsize=14, fixedsize=true, penwidth=2, color=\"" + strokeColor + "\"];\n")
	buf.WriteString("  edge [color=\"" + edgeColor + "\", penwidth=2];\n")
	if s.Title != "" {
		fmt.Fprintf(&buf, "  label=%q;\n", s.Title)
	}

	if s.Empty() {
		// Two invisible pinned corners give the blank canvas its size.
		fmt.Fprintf(&buf, "  \"_tl\" [style=invis, label=\"\", width=0, height=0, pos=\"0,%s!\"];\n", ftoa(f.H/pointsPerInch))
		fmt.Fprintf(&buf, "  \"_br\" [style=invis, label=\"\", width=0, height=0, pos=\"%s,0!\"];\n", ftoa(f.W/pointsPerInch))
	}

	buf.WriteString("\n")
	for _, n := range s.Nodes {
		c := n.Rect.Center()
		x := (c.X - f.X) / pointsPerInch
		y := (f.Y + f.H - c.Y) / pointsPerInch
		attrs := []string{
			fmt.Sprintf("label=%q", n.Label),
			fmt.Sprintf("shape=%s", dotShape(n.Style.Shape)),
			fmt.Sprintf("fillcolor=%q", n.Style.Color),
			fmt.Sprintf("width=%s", ftoa(n.Rect.W/pointsPerInch)),
			fmt.Sprintf("height=%s", ftoa(n.Rect.H/pointsPerInch)),
			fmt.Sprintf("pos=\"%s,%s!\"", ftoa(x), ftoa(y)),
		}
		if n.Style.Shape == diagram.ShapeRectangle {
			attrs = append(attrs, "style=\"rounded,filled\"")
		}
		if n.Kind == diagram.NodeKindCentral {
			attrs = append(attrs, "penwidth=4")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range s.Edges {
		attrs := []string{}
		if e.Kind == diagram.EdgeKindAssociation {
			attrs = append(attrs, "style=dashed", "dir=none")
		}
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func dotShape(s diagram.Shape) string {
	switch s {
	case diagram.ShapeCircle:
		return "circle"
	case diagram.ShapeEllipse:
		return "ellipse"
	case diagram.ShapeDiamond:
		return "diamond"
	default:
		return "box"
	}
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// RenderSVG renders a scene to SVG using Graphviz neato.
func RenderSVG(ctx context.Context, s canvas.Scene, opts Options) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(ToDOT(s, opts)))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's svg tag with one whose width and
// height match the viewBox, so the image scales predictably.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
