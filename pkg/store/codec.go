package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/golang/snappy"

	"github.com/matzehuels/trazo/pkg/diagram"
	dio "github.com/matzehuels/trazo/pkg/io"
)

// DocumentVersion is the blob document version written by [Encode].
const DocumentVersion = 1

// snappyMagic is the stream identifier chunk of the snappy framing format.
var snappyMagic = []byte("\xff\x06\x00\x00sNaPpY")

type document struct {
	Version    int             `json:"version"`
	Diagram    json.RawMessage `json:"diagram"`
	EditorText string          `json:"editor_text,omitempty"`
}

// Encode serializes a diagram and the editor text into a blob. When
// compress is set the JSON is wrapped in a snappy stream.
func Encode(d *diagram.Diagram, editorText string, compress bool) ([]byte, error) {
	raw, err := dio.Marshal(d)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(document{Version: DocumentVersion, Diagram: raw, EditorText: editorText})
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	if !compress {
		return data, nil
	}

	var buf bytes.Buffer
	w := snappy.NewBufferedWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a blob written by [Encode], compressed or not. The decoded
// diagram is validated.
func Decode(data []byte) (*diagram.Diagram, string, error) {
	if bytes.HasPrefix(data, snappyMagic) {
		plain, err := io.ReadAll(snappy.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, "", fmt.Errorf("decompress: %w", err)
		}
		data = plain
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, "", fmt.Errorf("decode document: %w", err)
	}
	if doc.Version < 1 || doc.Version > DocumentVersion {
		return nil, "", fmt.Errorf("unsupported document version %d", doc.Version)
	}
	if len(doc.Diagram) == 0 || string(doc.Diagram) == "null" {
		return nil, "", fmt.Errorf("document has no diagram")
	}
	d, err := dio.Unmarshal(doc.Diagram)
	if err != nil {
		return nil, "", err
	}
	if err := d.Validate(); err != nil {
		return nil, "", err
	}
	return d, doc.EditorText, nil
}
