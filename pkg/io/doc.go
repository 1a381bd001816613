// Package io provides JSON import and export for diagrams.
//
// # Overview
//
// This package defines the wire format used for persisted diagrams, the
// HTTP API and the "json" export format. The format is designed for:
//
//   - Deterministic output: nodes sorted by order, edges by ID
//   - Round-trip preservation: import, edit, export and re-import identically
//   - Integration with external tools that consume positioned graphs
//
// # JSON Format
//
//	{
//	  "id": "6f1c...",
//	  "workspace_id": "notes",
//	  "variant": "flow",
//	  "source_text": "Planificación.\nDesarrollo.",
//	  "nodes": [
//	    {"id": "n-it-1a2b", "label": "Planificación", "kind": "concept",
//	     "position": {"x": 40, "y": 260}, "size": {"w": 140, "h": 80},
//	     "style": {"color": "#BFDBFE", "shape": "circle"},
//	     "created_from": "it-1a2b", "order": 0}
//	  ],
//	  "edges": [
//	    {"id": "e-n-it-1a2b-n-it-3c4d", "from": "n-it-1a2b", "to": "n-it-3c4d", "kind": "sequence"}
//	  ]
//	}
//
// # Import
//
// Use [ReadJSON] to read from any io.Reader, or [ImportJSON] for a file path.
// Both validate the structure: duplicate node IDs, dangling edges and self
// loops are rejected with the [diagram] sentinel errors wrapped with context.
//
// # Export
//
// Use [WriteJSON] to write to any io.Writer, or [ExportJSON] for a file path.
package io
