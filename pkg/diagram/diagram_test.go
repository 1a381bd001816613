package diagram

import (
	"errors"
	"math"
	"testing"

	errs "github.com/matzehuels/trazo/pkg/errors"
)

func threeStep(t *testing.T) *Diagram {
	t.Helper()
	d := New("ws", VariantFlow)
	for i, id := range []string{"a", "b", "c"} {
		if err := d.AddNode(Node{ID: id, Label: id, Order: i, Size: Size{W: 100, H: 50}}); err != nil {
			t.Fatalf("AddNode(%s) error: %v", id, err)
		}
	}
	for _, e := range []Edge{{From: "a", To: "b"}, {From: "b", To: "c"}} {
		e.Kind = EdgeKindSequence
		if err := d.AddEdge(e); err != nil {
			t.Fatalf("AddEdge error: %v", err)
		}
	}
	return d
}

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in   string
		want Variant
		err  bool
	}{
		{"flow", VariantFlow, false},
		{"Diagrama de Flujo", VariantFlow, false},
		{"Cycle", VariantCycle, false},
		{"Ciclo", VariantCycle, false},
		{"Infografía", VariantInfographic, false},
		{"Mapa Mental", VariantMindmap, false},
		{"Automático", VariantAuto, false},
		{"", VariantAuto, false},
		{"sankey", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVariant(tt.in)
			if (err != nil) != tt.err {
				t.Fatalf("ParseVariant(%q) error = %v, wantErr %v", tt.in, err, tt.err)
			}
			if err != nil && !errs.Is(err, errs.ErrCodeInvalidVariant) {
				t.Errorf("ParseVariant(%q) code = %v, want %v", tt.in, errs.GetCode(err), errs.ErrCodeInvalidVariant)
			}
			if got != tt.want {
				t.Errorf("ParseVariant(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestAddNodeErrors(t *testing.T) {
	d := New("ws", VariantFlow)
	if err := d.AddNode(Node{}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddNode(empty) = %v, want %v", err, ErrInvalidNodeID)
	}
	_ = d.AddNode(Node{ID: "a"})
	if err := d.AddNode(Node{ID: "a"}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddNode(dup) = %v, want %v", err, ErrDuplicateNodeID)
	}
}

func TestAddEdgeErrors(t *testing.T) {
	d := threeStep(t)
	tests := []struct {
		name string
		edge Edge
		want error
	}{
		{"self loop", Edge{From: "a", To: "a"}, ErrSelfLoop},
		{"unknown source", Edge{From: "x", To: "a"}, ErrUnknownSourceNode},
		{"unknown target", Edge{From: "a", To: "x"}, ErrUnknownTargetNode},
		{"duplicate", Edge{From: "a", To: "b"}, ErrDuplicateEdgeID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := d.AddEdge(tt.edge); !errors.Is(err, tt.want) {
				t.Errorf("AddEdge() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNodesOrdered(t *testing.T) {
	d := threeStep(t)
	ids := d.NodeIDs()
	want := []string{"a", "b", "c"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("NodeIDs() = %v, want %v", ids, want)
		}
	}
	if got := d.Edges()[0].ID; got != "e-a-b" {
		t.Errorf("Edges()[0].ID = %v, want e-a-b", got)
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	d := threeStep(t)
	n, _ := d.Node("a")
	n.Label = "changed"
	if got, _ := d.Node("a"); got.Label != "a" {
		t.Errorf("Label = %v, want a", got.Label)
	}
}

func TestValidateCentral(t *testing.T) {
	d := New("ws", VariantInfographic)
	_ = d.AddNode(Node{ID: "a"})
	if err := d.Validate(); !errors.Is(err, ErrCentralCount) {
		t.Errorf("Validate() = %v, want %v", err, ErrCentralCount)
	}
	d = New("ws", VariantInfographic)
	_ = d.AddNode(Node{ID: "a", Kind: NodeKindCentral})
	if err := d.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
	d = New("ws", VariantMindmap)
	_ = d.AddNode(Node{ID: "a", Kind: NodeKindCentral})
	_ = d.AddNode(Node{ID: "b", Kind: NodeKindCentral})
	if err := d.Validate(); !errors.Is(err, ErrCentralCount) {
		t.Errorf("Validate() = %v, want %v", err, ErrCentralCount)
	}
	if err := New("ws", VariantInfographic).Validate(); err != nil {
		t.Errorf("empty infographic Validate() = %v, want nil", err)
	}
}

func TestSetPosition(t *testing.T) {
	d := threeStep(t)
	tests := []struct {
		name string
		id   string
		p    Point
		want bool
	}{
		{"ok", "a", Point{10, 20}, true},
		{"unknown", "zz", Point{1, 1}, false},
		{"nan", "a", Point{math.NaN(), 0}, false},
		{"inf", "a", Point{0, math.Inf(1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.SetPosition(tt.id, tt.p); got != tt.want {
				t.Errorf("SetPosition() = %v, want %v", got, tt.want)
			}
		})
	}
	if n, _ := d.Node("a"); n.Position != (Point{10, 20}) {
		t.Errorf("Position = %v, want {10 20}", n.Position)
	}

	if !d.SetPosition("b", Point{1e9, -1e9}) {
		t.Fatal("SetPosition(far) = false")
	}
	if n, _ := d.Node("b"); n.Position != (Point{MaxCoordinate, -MaxCoordinate}) {
		t.Errorf("far Position = %v, want clamped to ±%g", n.Position, MaxCoordinate)
	}
}

func TestApplyPatch(t *testing.T) {
	d := threeStep(t)
	tests := []struct {
		name  string
		patch NodePatch
		want  bool
	}{
		{"label", NodePatch{Label: StringPtr("Inicio")}, true},
		{"empty label ignored", NodePatch{Label: StringPtr("   ")}, false},
		{"bad color ignored", NodePatch{Color: StringPtr("red")}, false},
		{"color", NodePatch{Color: StringPtr("#bfdbfe")}, true},
		{"shape", NodePatch{Shape: ShapePtr(ShapeDiamond)}, true},
		{"unknown shape", NodePatch{Shape: ShapePtr(Shape("star"))}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.ApplyPatch("a", tt.patch); got != tt.want {
				t.Errorf("ApplyPatch() = %v, want %v", got, tt.want)
			}
		})
	}
	n, _ := d.Node("a")
	if n.Label != "Inicio" || !n.Edited {
		t.Errorf("Label = %q Edited = %v, want Inicio true", n.Label, n.Edited)
	}
	if n.Style.Color != "#BFDBFE" || n.Style.Shape != ShapeDiamond || !n.Styled {
		t.Errorf("Style = %+v Styled = %v", n.Style, n.Styled)
	}
}

func TestKeepEdits(t *testing.T) {
	prev := threeStep(t)
	prev.ApplyPatch("b", NodePatch{Label: StringPtr("Editado")})
	prev.ApplyPatch("c", NodePatch{Shape: ShapePtr(ShapeDiamond)})
	prev.SetPosition("b", Point{X: 999, Y: 999})

	d := threeStep(t)
	d.KeepEdits(prev)
	d.KeepEdits(nil)

	b, _ := d.Node("b")
	if b.Label != "Editado" || !b.Edited {
		t.Errorf("b = %q edited=%v, want Editado", b.Label, b.Edited)
	}
	if b.Position == (Point{X: 999, Y: 999}) {
		t.Error("KeepEdits copied a position")
	}
	c, _ := d.Node("c")
	if c.Style.Shape != ShapeDiamond || !c.Styled {
		t.Errorf("c style = %+v styled=%v, want diamond", c.Style, c.Styled)
	}
	a, _ := d.Node("a")
	if a.Edited || a.Styled {
		t.Errorf("unedited node a marked edited=%v styled=%v", a.Edited, a.Styled)
	}
}

func TestCloneEqual(t *testing.T) {
	d := threeStep(t)
	c := d.Clone()
	if !d.Equal(c) {
		t.Fatal("Clone() not Equal to original")
	}
	c.SetPosition("a", Point{99, 99})
	if d.Equal(c) {
		t.Error("Equal() = true after mutating clone")
	}
	if n, _ := d.Node("a"); n.Position != (Point{}) {
		t.Errorf("original mutated: %v", n.Position)
	}
}

func TestBounds(t *testing.T) {
	d := threeStep(t)
	d.SetPosition("a", Point{0, 0})
	d.SetPosition("b", Point{200, 100})
	d.SetPosition("c", Point{50, 300})
	want := Rect{0, 0, 300, 350}
	if got := d.Bounds(); got != want {
		t.Errorf("Bounds() = %v, want %v", got, want)
	}
}
