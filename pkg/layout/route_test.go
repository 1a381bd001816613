package layout

import (
	"math"
	"testing"

	"github.com/matzehuels/trazo/pkg/diagram"
)

func box(id string, x, y, w, h float64) diagram.Node {
	return diagram.Node{ID: id, Position: diagram.Point{X: x, Y: y}, Size: diagram.Size{W: w, H: h}}
}

func onBorder(p diagram.Point, r diagram.Rect) bool {
	const eps = 1e-6
	inX := p.X >= r.X-eps && p.X <= r.X+r.W+eps
	inY := p.Y >= r.Y-eps && p.Y <= r.Y+r.H+eps
	edgeX := math.Abs(p.X-r.X) < eps || math.Abs(p.X-r.X-r.W) < eps
	edgeY := math.Abs(p.Y-r.Y) < eps || math.Abs(p.Y-r.Y-r.H) < eps
	return inX && inY && (edgeX || edgeY)
}

func TestRouteStraight(t *testing.T) {
	a := box("a", 0, 0, 100, 50)
	b := box("b", 300, 0, 100, 50)
	p := Route(a, b, []diagram.Node{a, b}, false)
	if p.Kind != PathStraight || len(p.Points) != 2 {
		t.Fatalf("Route() = %+v, want straight with 2 points", p)
	}
	if want := (diagram.Point{X: 100, Y: 25}); p.Start() != want {
		t.Errorf("Start() = %v, want %v", p.Start(), want)
	}
	if want := (diagram.Point{X: 300, Y: 25}); p.End() != want {
		t.Errorf("End() = %v, want %v", p.End(), want)
	}
}

func TestRouteCurved(t *testing.T) {
	a := box("a", 0, 0, 100, 100)
	b := box("b", 400, 0, 100, 100)
	p := Route(a, b, nil, true)
	if p.Kind != PathCurved || len(p.Points) != 3 {
		t.Fatalf("Route() = %+v, want curved with 3 points", p)
	}
	ctrl := p.Points[1]
	if math.Abs(ctrl.X-250) > 1e-9 || math.Abs(ctrl.Y-(50+curveOffset)) > 1e-9 {
		t.Errorf("control point = %v, want {250 %v}", ctrl, 50+curveOffset)
	}
}

func TestRouteAroundObstacle(t *testing.T) {
	a := box("a", 0, 0, 100, 60)
	wall := box("wall", 200, -40, 60, 140)
	b := box("b", 400, 0, 100, 60)
	p := Route(a, b, []diagram.Node{a, wall, b}, true)
	if p.Kind != PathOrthogonal {
		t.Fatalf("Kind = %v, want orthogonal", p.Kind)
	}
	if len(p.Points) < 3 {
		t.Fatalf("Points = %v, want a path with elbows", p.Points)
	}
	for i := 1; i < len(p.Points); i++ {
		s, e := p.Points[i-1], p.Points[i]
		if s.X != e.X && s.Y != e.Y {
			t.Errorf("segment %v -> %v is not axis aligned", s, e)
		}
		if segmentHitsRect(s, e, wall.Bounds()) {
			t.Errorf("segment %v -> %v crosses the obstacle", s, e)
		}
	}
	if !onBorder(p.Start(), a.Bounds()) {
		t.Errorf("Start() = %v not on source border", p.Start())
	}
	if !onBorder(p.End(), b.Bounds()) {
		t.Errorf("End() = %v not on target border", p.End())
	}
}

func TestClipToBorder(t *testing.T) {
	r := diagram.Rect{X: 0, Y: 0, W: 100, H: 50}
	tests := []struct {
		toward diagram.Point
		want   diagram.Point
	}{
		{diagram.Point{X: 500, Y: 25}, diagram.Point{X: 100, Y: 25}},
		{diagram.Point{X: 50, Y: -500}, diagram.Point{X: 50, Y: 0}},
		{diagram.Point{X: 50, Y: 25}, diagram.Point{X: 50, Y: 25}},
		{diagram.Point{X: 150, Y: 75}, diagram.Point{X: 100, Y: 50}},
	}
	for _, tt := range tests {
		if got := clipToBorder(tt.toward, r); got != tt.want {
			t.Errorf("clipToBorder(%v) = %v, want %v", tt.toward, got, tt.want)
		}
	}
}

func TestSegmentHitsRect(t *testing.T) {
	r := diagram.Rect{X: 10, Y: 10, W: 10, H: 10}
	tests := []struct {
		name string
		a, b diagram.Point
		want bool
	}{
		{"through", diagram.Point{X: 0, Y: 15}, diagram.Point{X: 30, Y: 15}, true},
		{"above", diagram.Point{X: 0, Y: 5}, diagram.Point{X: 30, Y: 5}, false},
		{"stops short", diagram.Point{X: 0, Y: 15}, diagram.Point{X: 5, Y: 15}, false},
		{"inside", diagram.Point{X: 12, Y: 12}, diagram.Point{X: 14, Y: 14}, true},
		{"diagonal miss", diagram.Point{X: 0, Y: 30}, diagram.Point{X: 30, Y: 25}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := segmentHitsRect(tt.a, tt.b, r); got != tt.want {
				t.Errorf("segmentHitsRect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRouteDiagram(t *testing.T) {
	o := flat("a", "b", "c", "d")
	r := mustLayout(t, o, diagram.VariantInfographic)
	d := diagram.New("ws", diagram.VariantInfographic)
	if err := r.Apply(d); err != nil {
		t.Fatal(err)
	}
	paths := RouteDiagram(d)
	if len(paths) != 3 {
		t.Fatalf("len(paths) = %d, want 3", len(paths))
	}
	for id, p := range paths {
		if p.Kind == PathStraight {
			t.Errorf("edge %s is straight, want curved or orthogonal", id)
		}
	}
}
