package store

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/trazo/pkg/blob"
	"github.com/matzehuels/trazo/pkg/diagram"
	errs "github.com/matzehuels/trazo/pkg/errors"
	"github.com/matzehuels/trazo/pkg/events"
)

func sample(t *testing.T) *diagram.Diagram {
	t.Helper()
	d := diagram.New("ws1", diagram.VariantFlow)
	d.SourceText = "Planificación.\nDesarrollo.\nLanzamiento."
	for i, id := range []string{"n-a", "n-b", "n-c"} {
		require.NoError(t, d.AddNode(diagram.Node{
			ID:       id,
			Label:    id,
			Kind:     diagram.NodeKindConcept,
			Position: diagram.Point{X: float64(100 * i), Y: 300},
			Size:     diagram.Size{W: 140, H: 80},
			Style:    diagram.Style{Color: diagram.Palette[0], Shape: diagram.ShapeRectangle},
			Order:    i,
		}))
	}
	require.NoError(t, d.AddEdge(diagram.Edge{From: "n-a", To: "n-b", Kind: diagram.EdgeKindSequence}))
	require.NoError(t, d.AddEdge(diagram.Edge{From: "n-b", To: "n-c", Kind: diagram.EdgeKindSequence}))
	return d
}

func newStore(t *testing.T, blobs blob.Store, opts Options) *Store {
	t.Helper()
	if opts.Debounce == 0 {
		opts.Debounce = time.Hour
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = time.Millisecond
	}
	s, err := New("ws1", blobs, opts)
	require.NoError(t, err)
	return s
}

// flaky fails the first n Puts.
type flaky struct {
	blob.Store
	failures atomic.Int32
	puts     atomic.Int32
}

func (f *flaky) Put(ctx context.Context, key string, data []byte) error {
	f.puts.Add(1)
	if f.failures.Add(-1) >= 0 {
		return errors.New("connection reset")
	}
	return f.Store.Put(ctx, key, data)
}

func TestNewRejectsBadWorkspace(t *testing.T) {
	_, err := New("../etc", blob.NewMemory(), Options{})
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidWorkspace))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		ctx := context.Background()
		blobs := blob.NewMemory()
		s := newStore(t, blobs, Options{Compress: compress})

		d := sample(t)
		d.UpdatedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		require.NoError(t, s.Save(ctx, d))

		fresh := newStore(t, blobs, Options{})
		got, err := fresh.Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, d.Equal(got), "compress=%v", compress)
		assert.Equal(t, d.ID, got.ID)
		assert.Equal(t, d.Variant, got.Variant)
		assert.Equal(t, d.SourceText, got.SourceText)
	}
}

func TestLoadMissingAndCorrupt(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewMemory()
	s := newStore(t, blobs, Options{})

	got, err := s.Load(ctx)
	assert.NoError(t, err)
	assert.Nil(t, got)

	for _, data := range [][]byte{
		[]byte("{not json"),
		[]byte(`{"version":99,"diagram":{}}`),
		[]byte(`{"version":1}`),
		[]byte(`{"version":1,"diagram":{"id":"x","variant":"flow","nodes":[{"id":"a"}],"edges":[{"id":"e","from":"a","to":"zz"}]}}`),
		append(append([]byte{}, snappyMagic...), 0x01, 0x02),
	} {
		require.NoError(t, blobs.Put(ctx, blob.Key("ws1"), data))
		got, err := s.Load(ctx)
		assert.NoError(t, err, "data %q", data)
		assert.Nil(t, got, "data %q", data)
	}
}

type brokenGet struct{ blob.Store }

func (brokenGet) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func TestLoadBackendFailure(t *testing.T) {
	s := newStore(t, brokenGet{blob.NewMemory()}, Options{})
	_, err := s.Load(context.Background())
	assert.True(t, errs.Is(err, errs.ErrCodePersistence))
}

func TestEditorTextPersisted(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewMemory()
	s := newStore(t, blobs, Options{})
	require.NoError(t, s.Save(ctx, sample(t)))
	s.SetEditorText("# Notes\nsome text")
	require.NoError(t, s.Flush(ctx))

	fresh := newStore(t, blobs, Options{})
	_, err := fresh.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "# Notes\nsome text", fresh.EditorText())
}

func TestApplyNodeEdit(t *testing.T) {
	rec := &events.Recorder{}
	s := newStore(t, blob.NewMemory(), Options{Emitter: rec})

	assert.False(t, s.ApplyNodeEdit("n-a", diagram.NodePatch{Label: diagram.StringPtr("x")}), "no diagram yet")

	require.True(t, s.ReplaceDiagram(sample(t)))
	assert.True(t, s.ApplyNodeEdit("n-a", diagram.NodePatch{Label: diagram.StringPtr("  Plan  ")}))
	assert.False(t, s.ApplyNodeEdit("missing", diagram.NodePatch{Label: diagram.StringPtr("x")}))
	assert.False(t, s.ApplyNodeEdit("n-a", diagram.NodePatch{Label: diagram.StringPtr("   ")}), "empty label ignored")
	assert.False(t, s.ApplyNodeEdit("n-a", diagram.NodePatch{Color: diagram.StringPtr("red")}), "unknown color ignored")

	n, ok := s.Current().Node("n-a")
	require.True(t, ok)
	assert.Equal(t, "Plan", n.Label)
	assert.True(t, n.Edited)

	// Last writer wins per field
	assert.True(t, s.ApplyNodeEdit("n-a", diagram.NodePatch{Color: diagram.StringPtr("#bfdbfe")}))
	assert.True(t, s.ApplyNodeEdit("n-a", diagram.NodePatch{Shape: diagram.ShapePtr(diagram.ShapeDiamond)}))
	n, _ = s.Current().Node("n-a")
	assert.Equal(t, "Plan", n.Label)
	assert.Equal(t, "#BFDBFE", n.Style.Color)
	assert.Equal(t, diagram.ShapeDiamond, n.Style.Shape)

	updates := rec.Named(events.NodeUpdated)
	require.Len(t, updates, 3)
	assert.Equal(t, "n-a", updates[0].NodeID)
	assert.Equal(t, "ws1", updates[0].WorkspaceID)
}

func TestApplyNodePosition(t *testing.T) {
	s := newStore(t, blob.NewMemory(), Options{})
	require.True(t, s.ReplaceDiagram(sample(t)))

	assert.True(t, s.ApplyNodePosition("n-b", diagram.Point{X: -50, Y: 1e6}))
	assert.False(t, s.ApplyNodePosition("n-b", diagram.Point{X: math.NaN(), Y: 0}))
	assert.False(t, s.ApplyNodePosition("n-b", diagram.Point{X: 0, Y: math.Inf(1)}))
	assert.False(t, s.ApplyNodePosition("nope", diagram.Point{}))

	n, _ := s.Current().Node("n-b")
	assert.Equal(t, diagram.Point{X: -50, Y: 1e6}, n.Position)
}

func TestApplyNodePositionClamps(t *testing.T) {
	rec := &events.Recorder{}
	s := newStore(t, blob.NewMemory(), Options{Emitter: rec})
	require.True(t, s.ReplaceDiagram(sample(t)))

	require.True(t, s.ApplyNodePosition("n-a", diagram.Point{X: 5e9, Y: -5e9}))
	want := diagram.Point{X: diagram.MaxCoordinate, Y: -diagram.MaxCoordinate}
	n, _ := s.Current().Node("n-a")
	assert.Equal(t, want, n.Position)

	updates := rec.Named(events.NodeUpdated)
	require.Len(t, updates, 1)
	require.NotNil(t, updates[0].Position)
	assert.Equal(t, want, *updates[0].Position)
}

func TestReplaceQueuedBehindSession(t *testing.T) {
	rec := &events.Recorder{}
	s := newStore(t, blob.NewMemory(), Options{Emitter: rec})
	first := sample(t)
	require.True(t, s.ReplaceDiagram(first))

	s.BeginSession()
	assert.True(t, s.InSession())
	assert.True(t, s.ApplyNodePosition("n-a", diagram.Point{X: 7, Y: 7}))

	second := sample(t)
	second.Variant = diagram.VariantCycle
	assert.False(t, s.ReplaceDiagram(second), "queued while session open")
	assert.Equal(t, first.ID, s.Current().ID)
	n, _ := s.Current().Node("n-a")
	assert.Equal(t, diagram.Point{X: 7, Y: 7}, n.Position)

	s.EndSession()
	assert.False(t, s.InSession())
	assert.Equal(t, second.ID, s.Current().ID)
	assert.Equal(t, diagram.VariantCycle, s.Current().Variant)
	assert.Len(t, rec.Named(events.DiagramReplaced), 2)
}

func TestReplaceKeepsEditCommittedInSession(t *testing.T) {
	s := newStore(t, blob.NewMemory(), Options{})
	require.True(t, s.ReplaceDiagram(sample(t)))

	s.BeginSession()
	switched := sample(t)
	switched.Variant = diagram.VariantCycle
	require.False(t, s.ReplaceDiagram(switched))

	// The edit lands before the session closes and releases the queue.
	require.True(t, s.ApplyNodeEdit("n-b", diagram.NodePatch{Label: diagram.StringPtr("Editado")}))
	s.EndSession()

	cur := s.Current()
	assert.Equal(t, diagram.VariantCycle, cur.Variant)
	n, _ := cur.Node("n-b")
	assert.Equal(t, "Editado", n.Label)
	assert.True(t, n.Edited)
}

func TestReplaceKeepsEditsMadeDuringGeneration(t *testing.T) {
	s := newStore(t, blob.NewMemory(), Options{})
	require.True(t, s.ReplaceDiagram(sample(t)))

	// A job built its diagram from this snapshot.
	generated := sample(t)
	generated.Variant = diagram.VariantCycle

	color := diagram.Palette[2]
	require.True(t, s.ApplyNodeEdit("n-a", diagram.NodePatch{Label: diagram.StringPtr("Plan")}))
	require.True(t, s.ApplyNodeEdit("n-c", diagram.NodePatch{Color: &color, Shape: diagram.ShapePtr(diagram.ShapeDiamond)}))
	require.True(t, s.ReplaceDiagram(generated))

	cur := s.Current()
	a, _ := cur.Node("n-a")
	assert.Equal(t, "Plan", a.Label)
	c, _ := cur.Node("n-c")
	assert.Equal(t, diagram.Style{Color: color, Shape: diagram.ShapeDiamond}, c.Style)
	b, _ := cur.Node("n-b")
	assert.Equal(t, "n-b", b.Label)
	assert.False(t, b.Edited)
}

func TestReplaceRejectsInvalid(t *testing.T) {
	s := newStore(t, blob.NewMemory(), Options{})
	assert.False(t, s.ReplaceDiagram(nil))

	d := diagram.New("ws1", diagram.VariantInfographic)
	require.NoError(t, d.AddNode(diagram.Node{ID: "n-a", Label: "a"}))
	assert.False(t, s.ReplaceDiagram(d), "infographic without central node")
	assert.Nil(t, s.Current())
}

func TestSaveRetries(t *testing.T) {
	ctx := context.Background()
	f := &flaky{Store: blob.NewMemory()}
	f.failures.Store(2)
	s := newStore(t, f, Options{SaveAttempts: 3})

	require.NoError(t, s.Save(ctx, sample(t)))
	assert.EqualValues(t, 3, f.puts.Load())
}

func TestSaveFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	f := &flaky{Store: blob.NewMemory()}
	f.failures.Store(100)
	s := newStore(t, f, Options{SaveAttempts: 2})

	err := s.Save(ctx, sample(t))
	assert.True(t, errs.Is(err, errs.ErrCodePersistence))
	// Edits keep working
	assert.True(t, s.ApplyNodePosition("n-a", diagram.Point{X: 1, Y: 1}))

	f.failures.Store(0)
	require.NoError(t, s.Flush(ctx))
	_, err = f.Get(ctx, blob.Key("ws1"))
	assert.NoError(t, err)
}

func TestDebouncedWrite(t *testing.T) {
	blobs := blob.NewMemory()
	s := newStore(t, blobs, Options{Debounce: 10 * time.Millisecond})
	require.True(t, s.ReplaceDiagram(sample(t)))
	assert.True(t, s.ApplyNodePosition("n-c", diagram.Point{X: 9, Y: 9}))

	assert.Eventually(t, func() bool {
		data, err := blobs.Get(context.Background(), blob.Key("ws1"))
		if err != nil {
			return false
		}
		d, _, err := Decode(data)
		if err != nil {
			return false
		}
		n, _ := d.Node("n-c")
		return n.Position == diagram.Point{X: 9, Y: 9}
	}, 2*time.Second, 5*time.Millisecond)
}

func TestFlushBeforeDebounce(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewMemory()
	s := newStore(t, blobs, Options{})
	require.True(t, s.ReplaceDiagram(sample(t)))
	assert.Equal(t, 0, blobs.Len(), "write is debounced")

	require.NoError(t, s.Flush(ctx))
	assert.Equal(t, 1, blobs.Len())
	require.NoError(t, s.Close(ctx))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewMemory()
	s := newStore(t, blobs, Options{})
	require.NoError(t, s.Save(ctx, sample(t)))

	require.NoError(t, s.Delete(ctx))
	assert.Nil(t, s.Current())
	assert.Equal(t, 0, blobs.Len())
	got, err := s.Load(ctx)
	assert.NoError(t, err)
	assert.Nil(t, got)
}
