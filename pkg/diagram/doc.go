// Package diagram defines the canonical diagram state produced by the
// generation pipeline and mutated by the interactive canvas.
//
// # Overview
//
// A [Diagram] is a small positioned graph: a set of [Node] values, each
// placed on a 2D canvas with a size and style, joined by typed [Edge] values.
// The geometry of a diagram is determined by its [Variant]:
//
//   - [VariantFlow]: left-to-right sequence of steps
//   - [VariantCycle]: steps placed on a ring, the last one leading back to the first
//   - [VariantInfographic]: one central node surrounded by supporting nodes
//   - [VariantMindmap]: radial tree rooted at a central topic
//
// # Identity
//
// Node IDs are derived from the outline item they were created from
// (see [Node.CreatedFrom]). Re-generating a diagram from unchanged text
// reproduces the same node IDs, which lets user edits survive a variant
// switch or a re-layout.
//
// # Ownership
//
// A Diagram owns its nodes and edges. Accessors return copies, so callers
// cannot mutate the diagram behind the owner's back. Mutation goes through
// [Diagram.SetPosition], [Diagram.ApplyPatch] or by building a new diagram.
//
// A Diagram is not safe for concurrent use. The store serializes access.
package diagram
