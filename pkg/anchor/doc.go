// Package anchor tracks the dynamic connection points of canvas nodes.
//
// Every node on the canvas owns two ordered anchor sequences: inputs (where
// incoming edges terminate) and outputs (where outgoing edges start). Anchors
// are created as edges are drawn and removed as edges are deleted, so a node
// always shows exactly as many connection points as it has connections, plus
// at most a transient one while the user is dragging.
//
// # Store
//
// [Store] is an explicitly constructed instance owned by one canvas. It is not
// safe for concurrent use; hosts serialize access the same way a UI thread
// would.
//
//	store := anchor.NewStore()
//	id, change := store.CreateOutput("node-a", "")
//	store.AttachEdge("node-a", id, "edge-1")
//
// # Change Descriptors
//
// Mutations that alter anchor geometry return a [Change] listing the node ids
// whose anchors moved. Callers forward it to the render-sync bridge; the store
// itself never notifies anybody.
//
// # Positions
//
// After every structural mutation (create, remove, prune) the affected node's
// sequences are re-spaced with [layout.Spacer]. Attribute updates such as
// [Store.AttachEdge] never move anchors.
//
// # Unknown Ids
//
// Lookups against an unknown node or handle are silent no-ops. Deletes that
// race with node removal are normal UI behavior, not programming errors.
package anchor
