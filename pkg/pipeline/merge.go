package pipeline

import (
	"time"

	"github.com/matzehuels/trazo/pkg/diagram"
	errs "github.com/matzehuels/trazo/pkg/errors"
	"github.com/matzehuels/trazo/pkg/layout"
	"github.com/matzehuels/trazo/pkg/outline"
)

// Build assembles the diagram for a layout result.
//
// When prev is non-nil the new diagram keeps prev's ID. A node whose
// outline item is unchanged (same node ID) keeps a label the user edited
// and a style the user picked; positions always come from the new layout.
func Build(workspaceID, text string, prev *diagram.Diagram, o outline.Outline, res layout.Result) (*diagram.Diagram, error) {
	d := diagram.New(workspaceID, res.Variant)
	if prev != nil {
		d.ID = prev.ID
	}
	d.Title = o.Title
	d.SourceText = text
	d.UpdatedAt = time.Now().UTC()

	for _, n := range res.Nodes {
		if err := d.AddNode(n); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInternal, err, "assemble diagram")
		}
	}
	d.KeepEdits(prev)
	for _, e := range res.Edges {
		if err := d.AddEdge(e); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInternal, err, "assemble diagram")
		}
	}
	if err := d.Validate(); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "assemble diagram")
	}
	return d, nil
}
