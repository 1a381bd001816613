package export

import (
	"encoding/json"

	"github.com/matzehuels/trazo/pkg/canvas"
)

// RenderJSON encodes a scene as indented JSON. Empty node and edge lists
// are encoded as [] rather than null.
func RenderJSON(s canvas.Scene) ([]byte, error) {
	if s.Nodes == nil {
		s.Nodes = []canvas.SceneNode{}
	}
	if s.Edges == nil {
		s.Edges = []canvas.SceneEdge{}
	}
	return json.MarshalIndent(s, "", "  ")
}
