package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/matzehuels/trazo/pkg/diagram"
)

type document struct {
	ID          string          `json:"id"`
	WorkspaceID string          `json:"workspace_id"`
	Title       string          `json:"title,omitempty"`
	Variant     diagram.Variant `json:"variant"`
	SourceText  string          `json:"source_text"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
	Nodes       []diagram.Node  `json:"nodes"`
	Edges       []diagram.Edge  `json:"edges"`
}

// Marshal encodes a diagram as compact JSON.
func Marshal(d *diagram.Diagram) ([]byte, error) {
	data, err := json.Marshal(toDocument(d))
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return data, nil
}

// WriteJSON encodes a diagram as indented JSON and writes it to w.
// The output can be re-imported with [ReadJSON].
func WriteJSON(d *diagram.Diagram, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toDocument(d)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes a diagram to a JSON file at path.
func ExportJSON(d *diagram.Diagram, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(d, f)
}

func toDocument(d *diagram.Diagram) document {
	doc := document{
		ID:          d.ID,
		WorkspaceID: d.WorkspaceID,
		Title:       d.Title,
		Variant:     d.Variant,
		SourceText:  d.SourceText,
		Nodes:       d.Nodes(),
		Edges:       d.Edges(),
	}
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt.UTC()
		doc.UpdatedAt = &t
	}
	return doc
}
