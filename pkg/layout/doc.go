// Package layout computes node positions and edges for a content outline.
//
// # Overview
//
// [Layout] is a pure function: the same outline, variant and options always
// produce the same nodes, sizes, positions and edges. Node IDs are "n-"
// followed by the outline item ID, and edge IDs are built with
// [diagram.EdgeID], so identity follows the outline rather than the
// geometry. Switching variants on the same outline keeps every node ID.
//
// # Variants
//
//   - flow: one horizontal row in outline order. The gap between neighbors
//     grows with their label length up to [Options.MaxGap]. Consecutive
//     nodes are joined by sequence edges.
//   - cycle: nodes on a circle starting at 12 o'clock, radius max(250, 60n).
//     Edge i joins node i to node (i+1) mod n.
//   - infographic: the first item is the central node at the canvas
//     centroid, larger and accent colored. The rest sit on a ring at equal
//     angles, each joined to the center by a hierarchy edge.
//   - mindmap: a radial tree. Depth follows the outline level and every
//     subtree gets an angular wedge proportional to its leaf count.
//     Related items not already joined get association edges.
//
// A single-item outline always yields one centered node and no edges.
//
// # Routing
//
// [Route] turns an edge into drawable geometry: a straight segment clipped
// to both node borders, a curve for edges leaving an infographic center, or
// an orthogonal path found with A* on a coarse grid when the straight
// segment would cross another node.
package layout
