// Package pkg provides the core libraries for Trazo text-to-diagram generation.
//
// # Overview
//
// Trazo turns a fragment of free-form text into an editable, auto-laid-out
// diagram: a flow, a cycle, an infographic or a mind map. The pkg directory
// is organized into three areas:
//
//  1. Domain logic: [analyzer], [outline], [layout], [diagram], [canvas]
//  2. Orchestration and state: [pipeline], [store], [workspace], [events]
//  3. Infrastructure: [blob], [cache], [export], [io], [observability], [errors]
//
// # Architecture
//
// The typical data flow through Trazo:
//
//	Selected text + variant hint
//	         ↓
//	    [analyzer] (segment, classify, pick a variant)
//	         ↓
//	    [outline] (ordered items, relations, title)
//	         ↓
//	    [layout] (positions, sizes, edge routes)
//	         ↓
//	    [pipeline] (merge into the committed diagram, keep user edits)
//	         ↓
//	    [store] → [blob] (debounced, compressed persistence)
//	         ↓
//	    [export] (PNG, SVG, DOT, JSON)
//
// Every stage runs under a [pipeline.Job] whose progress is reported through
// [events] as idle → analyzing → laying_out → rendering → done.
//
// # Quick Start
//
// Generate and export a diagram in an in-memory workspace:
//
//	m := workspace.NewManager(workspace.Options{})
//	defer m.Close(ctx)
//
//	ws, _ := m.Open(ctx, "notes")
//	d, _ := ws.Generate(ctx, "Planificación. Desarrollo. Lanzamiento.", "flow")
//	fmt.Println(d.Variant, d.NodeCount()) // flow 3
//
//	png, _ := ws.Export(ctx, export.Options{Format: export.FormatPNG, Scale: 2})
//
// # Main Packages
//
// [analyzer] - Semantic analysis. Splits text into concepts, expands a lone
// long item into children and suggests the variant that fits the text.
//
// [layout] - Per-variant geometry: left-to-right flows, circular cycles,
// radial infographics and balanced mind maps, with curved, straight and
// orthogonal edge routing.
//
// [canvas] - Interactive editing: drag sessions, inline label edits and the
// render scene consumed by exporters.
//
// [store] - Per-workspace persistence with debounced writes and retries over
// any [blob] backend (memory, file, SQLite, Redis, MongoDB).
//
// [cache] - Content-addressed caching of outlines, layouts and exported
// artifacts, on disk or in Redis.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...              # All tests
//	go test ./pkg/layout/...       # Specific package
//	go test -run Properties ./pkg/...
//
// [analyzer]: https://pkg.go.dev/github.com/matzehuels/trazo/pkg/analyzer
// [outline]: https://pkg.go.dev/github.com/matzehuels/trazo/pkg/outline
// [layout]: https://pkg.go.dev/github.com/matzehuels/trazo/pkg/layout
// [diagram]: https://pkg.go.dev/github.com/matzehuels/trazo/pkg/diagram
// [canvas]: https://pkg.go.dev/github.com/matzehuels/trazo/pkg/canvas
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/trazo/pkg/pipeline
// [pipeline.Job]: https://pkg.go.dev/github.com/matzehuels/trazo/pkg/pipeline#Job
// [store]: https://pkg.go.dev/github.com/matzehuels/trazo/pkg/store
// [workspace]: https://pkg.go.dev/github.com/matzehuels/trazo/pkg/workspace
// [events]: https://pkg.go.dev/github.com/matzehuels/trazo/pkg/events
// [blob]: https://pkg.go.dev/github.com/matzehuels/trazo/pkg/blob
// [cache]: https://pkg.go.dev/github.com/matzehuels/trazo/pkg/cache
// [export]: https://pkg.go.dev/github.com/matzehuels/trazo/pkg/export
// [io]: https://pkg.go.dev/github.com/matzehuels/trazo/pkg/io
// [observability]: https://pkg.go.dev/github.com/matzehuels/trazo/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/trazo/pkg/errors
package pkg
