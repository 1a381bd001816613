package layout_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/trazo/pkg/analyzer"
	"github.com/matzehuels/trazo/pkg/diagram"
	"github.com/matzehuels/trazo/pkg/layout"
)

func ExampleLayout_flow() {
	// Three sentences become a left-to-right flow.
	o, _ := analyzer.New(analyzer.Options{}).Analyze(context.Background(), "Planificación. Desarrollo. Lanzamiento.", "flow")
	r, _ := layout.Layout(o, diagram.VariantFlow, layout.Options{})

	fmt.Println("Nodes:", len(r.Nodes))
	for _, e := range r.Edges {
		fmt.Println(e.Kind)
	}
	fmt.Println("Left to right:", r.Nodes[0].Position.X < r.Nodes[1].Position.X && r.Nodes[1].Position.X < r.Nodes[2].Position.X)
	// Output:
	// Nodes: 3
	// sequence
	// sequence
	// Left to right: true
}

func ExampleLayout_cycle() {
	o, _ := analyzer.New(analyzer.Options{}).Analyze(context.Background(), "Planificación. Desarrollo. Lanzamiento.", "cycle")
	r, _ := layout.Layout(o, diagram.VariantCycle, layout.Options{})

	// The last edge closes the ring.
	last := r.Edges[len(r.Edges)-1]
	fmt.Println("Edges:", len(r.Edges))
	fmt.Println("Closes ring:", last.From == r.Nodes[2].ID && last.To == r.Nodes[0].ID)
	// Output:
	// Edges: 3
	// Closes ring: true
}
