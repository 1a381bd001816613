package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/trazo/pkg/diagram"
)

// Unmarshal decodes a diagram from JSON produced by [Marshal] or [WriteJSON].
func Unmarshal(data []byte) (*diagram.Diagram, error) {
	return ReadJSON(bytes.NewReader(data))
}

// ReadJSON decodes a JSON diagram from r.
//
// ReadJSON returns an error if the JSON is malformed, a node ID is empty or
// duplicated, or an edge references an unknown node or loops onto itself.
// Errors wrap the [diagram] sentinels, so errors.Is works on them.
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*diagram.Diagram, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	d := diagram.New(doc.WorkspaceID, doc.Variant)
	d.ID = doc.ID
	d.Title = doc.Title
	d.SourceText = doc.SourceText
	if doc.UpdatedAt != nil {
		d.UpdatedAt = *doc.UpdatedAt
	}
	for _, n := range doc.Nodes {
		if err := d.AddNode(n); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	for _, e := range doc.Edges {
		if err := d.AddEdge(e); err != nil {
			return nil, fmt.Errorf("edge %s->%s: %w", e.From, e.To, err)
		}
	}
	return d, nil
}

// ImportJSON reads a JSON file at path and returns the decoded diagram.
func ImportJSON(path string) (*diagram.Diagram, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
