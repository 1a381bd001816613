package analyzer

import (
	"context"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/matzehuels/trazo/pkg/diagram"
	errs "github.com/matzehuels/trazo/pkg/errors"
	"github.com/matzehuels/trazo/pkg/outline"
)

func analyze(t *testing.T, text, hint string) outline.Outline {
	t.Helper()
	o, err := New(Options{}).Analyze(context.Background(), text, hint)
	if err != nil {
		t.Fatalf("Analyze(%q) error: %v", text, err)
	}
	return o
}

func texts(o outline.Outline) []string {
	out := make([]string, len(o.Items))
	for i, it := range o.Items {
		out[i] = it.Text
	}
	return out
}

func levels(o outline.Outline) []int {
	out := make([]int, len(o.Items))
	for i, it := range o.Items {
		out[i] = it.Level
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAnalyzeEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n\t", "...\n!!"} {
		_, err := New(Options{}).Analyze(context.Background(), in, "auto")
		if !errs.Is(err, errs.ErrCodeEmptyInput) {
			t.Errorf("Analyze(%q) error = %v, want %v", in, err, errs.ErrCodeEmptyInput)
		}
	}
}

func TestAnalyzeFlowExample(t *testing.T) {
	o := analyze(t, "Planificación.\nDesarrollo.\nLanzamiento.", "auto")
	want := []string{"Planificación", "Desarrollo", "Lanzamiento"}
	got := texts(o)
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("items = %v, want %v", got, want)
	}
	if !o.Flat() {
		t.Errorf("levels = %v, want flat", levels(o))
	}
	if o.Expanded {
		t.Error("Expanded = true, want false")
	}
	if o.Suggested != diagram.VariantFlow {
		t.Errorf("Suggested = %v, want %v", o.Suggested, diagram.VariantFlow)
	}
}

func TestAnalyzeExpansion(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantFirst string
		wantChild string
	}{
		{"known topic", "Guerra Mundial", "Guerra Mundial", "Naciones Unidas"},
		{"case insensitive", "guerra MUNDIAL", "guerra MUNDIAL", "Guerra Fría"},
		{"generic", "Energía solar", "Energía solar", "Contexto"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := analyze(t, tt.in, "Infografía")
			if !o.Expanded {
				t.Fatal("Expanded = false, want true")
			}
			if len(o.Items) < 4 {
				t.Fatalf("len(Items) = %d, want >= 4", len(o.Items))
			}
			if o.Items[0].Text != tt.wantFirst || o.Items[0].Level != 0 {
				t.Errorf("central = %+v, want %q at level 0", o.Items[0], tt.wantFirst)
			}
			for _, it := range o.Items[1:] {
				if it.Level != 1 || it.Description == "" {
					t.Errorf("child %+v, want level 1 with description", it)
				}
			}
			if !strings.Contains(strings.Join(texts(o), "|"), tt.wantChild) {
				t.Errorf("items = %v, want %q among them", texts(o), tt.wantChild)
			}
			if o.Suggested != diagram.VariantInfographic {
				t.Errorf("Suggested = %v, want infographic", o.Suggested)
			}
		})
	}
}

func TestAnalyzeNoExpansion(t *testing.T) {
	a := New(Options{DisableExpansion: true})
	o, err := a.Analyze(context.Background(), "Guerra Mundial", "")
	if err != nil {
		t.Fatal(err)
	}
	if o.Expanded || len(o.Items) != 1 {
		t.Errorf("items = %v expanded = %v, want single literal item", texts(o), o.Expanded)
	}

	o = analyze(t, "La versión 3.5 ya está lista", "")
	if o.Expanded || len(o.Items) != 1 {
		t.Errorf("items = %v, want one unexpanded item", texts(o))
	}
}

func TestAnalyzeHierarchy(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		levels []int
	}{
		{"headings and lists", "# Energía\nTipos de energía:\n- Solar\n- Eólica", []int{0, 1, 2, 2}},
		{"plain with list", "Componentes del sistema\n- Servidor\n  - Disco\n- Cliente", []int{0, 1, 2, 1}},
		{"nested headings", "# A\n## B\n## C\n### D", []int{0, 1, 1, 2}},
		{"jump clamped", "# A\n### B", []int{0, 1}},
		{"bare list", "- Uno\n- Dos\n- Tres", []int{0, 0, 0}},
		{"numbered", "Pasos del plan\n1. Uno\n2. Dos", []int{0, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := analyze(t, tt.in, "auto")
			if got := levels(o); !equalInts(got, tt.levels) {
				t.Errorf("levels = %v (%v), want %v", got, texts(o), tt.levels)
			}
			if o.Suggested != diagram.VariantMindmap {
				t.Errorf("Suggested = %v, want mindmap", o.Suggested)
			}
		})
	}
	if got := analyze(t, "# Energía\nTipos:\n- Solar", "").Title; got != "Energía" {
		t.Errorf("Title = %q, want Energía", got)
	}
}

func TestAnalyzePatterns(t *testing.T) {
	tests := []struct {
		in   string
		hint string
		want diagram.Variant
	}{
		{"El agua se evapora.\nSe condensa en nubes.\nEl ciclo se repite.", "auto", diagram.VariantCycle},
		{"El sistema consiste en tres partes.\nMotor.\nChasis.", "auto", diagram.VariantMindmap},
		{"Abrir la puerta.\nEntrar en casa.", "auto", diagram.VariantFlow},
		{"Abrir la puerta.\nEntrar en casa.", "Ciclo", diagram.VariantCycle},
	}
	for _, tt := range tests {
		t.Run(tt.want.Label()+"/"+tt.hint, func(t *testing.T) {
			if got := analyze(t, tt.in, tt.hint).Suggested; got != tt.want {
				t.Errorf("Suggested = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnalyzeInvalidHint(t *testing.T) {
	_, err := New(Options{}).Analyze(context.Background(), "hola mundo", "gantt")
	if !errs.Is(err, errs.ErrCodeInvalidVariant) {
		t.Errorf("Analyze() error = %v, want %v", err, errs.ErrCodeInvalidVariant)
	}
}

func TestAnalyzeSentences(t *testing.T) {
	o := analyze(t, "Primero se planifica. Luego se ejecuta! ¿Funcionó bien?", "")
	if len(o.Items) != 3 {
		t.Errorf("items = %v, want 3", texts(o))
	}
}

func TestAnalyzeTruncation(t *testing.T) {
	long := "Esta es una frase muy larga que claramente supera el límite de cuarenta caracteres"
	o := analyze(t, long+"\nCorta pero suficiente aquí", "")
	it := o.Items[0]
	if !strings.HasSuffix(it.Text, "...") || len([]rune(it.Text)) != DefaultMaxLabelRunes+3 {
		t.Errorf("Text = %q, want truncated to %d runes + ...", it.Text, DefaultMaxLabelRunes)
	}
	if it.Description != long {
		t.Errorf("Description = %q, want full text", it.Description)
	}
}

func TestAnalyzeMaxItems(t *testing.T) {
	var lines []string
	for i := 0; i < 20; i++ {
		lines = append(lines, "Paso número "+strings.Repeat("x", i+1))
	}
	o := analyze(t, strings.Join(lines, "\n"), "")
	if len(o.Items) != DefaultMaxItems {
		t.Errorf("len(Items) = %d, want %d", len(o.Items), DefaultMaxItems)
	}
}

func TestAnalyzeIDs(t *testing.T) {
	a := analyze(t, "Diseñar la base.\nConstruir muros.", "")
	b := analyze(t, "Diseñar la base.\nPintar fachada.", "")
	if a.Items[0].ID != b.Items[0].ID {
		t.Errorf("unchanged line ID changed: %s vs %s", a.Items[0].ID, b.Items[0].ID)
	}
	if a.Items[1].ID == b.Items[1].ID {
		t.Error("changed line kept its ID")
	}
	if a.Items[0].ID != ItemID("diseñar  la base") {
		t.Errorf("ID = %s, want %s", a.Items[0].ID, ItemID("diseñar la base"))
	}

	dup := analyze(t, "Revisar.\nRevisar.\nRevisar.", "")
	if dup.Items[1].ID != dup.Items[0].ID+"-2" || dup.Items[2].ID != dup.Items[0].ID+"-3" {
		t.Errorf("duplicate IDs = %s %s %s", dup.Items[0].ID, dup.Items[1].ID, dup.Items[2].ID)
	}
}

func TestAnalyzeIconsAndRelations(t *testing.T) {
	o := analyze(t, "Definir el objetivo.\nInstalar el servidor principal.\nMonitorear el servidor.", "")
	if o.Items[0].Icon != "flag" {
		t.Errorf("Icon = %q, want flag", o.Items[0].Icon)
	}
	if o.Items[1].Icon != "dns" {
		t.Errorf("Icon = %q, want dns", o.Items[1].Icon)
	}
	if len(o.Items[2].Related) != 1 || o.Items[2].Related[0] != o.Items[1].ID {
		t.Errorf("Related = %v, want [%s]", o.Items[2].Related, o.Items[1].ID)
	}
	if len(o.Items[1].Related) != 0 {
		t.Errorf("Related = %v, want none", o.Items[1].Related)
	}
}

func TestAnalyzeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(Options{}).Analyze(ctx, "texto válido aquí presente", ""); err == nil {
		t.Error("Analyze() with cancelled context = nil error")
	}
}

func TestAnalyzeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)
	a := New(Options{})

	properties.Property("non-empty text yields a valid outline with unique IDs", prop.ForAll(
		func(lines []string) bool {
			text := strings.Join(lines, "\n")
			o, err := a.Analyze(context.Background(), text, "auto")
			if err != nil {
				return errs.Is(err, errs.ErrCodeEmptyInput)
			}
			if len(o.Items) == 0 {
				return false
			}
			seen := map[string]bool{}
			for _, it := range o.Items {
				if seen[it.ID] {
					return false
				}
				seen[it.ID] = true
			}
			return o.Validate() == nil
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("analysis is deterministic", prop.ForAll(
		func(lines []string) bool {
			text := strings.Join(lines, ". ")
			o1, err1 := a.Analyze(context.Background(), text, "")
			o2, err2 := a.Analyze(context.Background(), text, "")
			if err1 != nil || err2 != nil {
				return (err1 == nil) == (err2 == nil)
			}
			return o1.Hash() == o2.Hash()
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
