// Package flow defines the node palette of a task canvas: data sources that
// feed privacy-preserving compute tasks.
//
// # Node Kinds
//
// A canvas holds two kinds of node:
//
//   - [DataSource]: a database, file, API or stream that provides input
//   - [ComputeTask]: a PSI, PIR, MPC or FL job that consumes and produces data
//
// Each kind has fixed [Dimensions] used to register hit-test bounds when a
// node is placed.
//
// # Palette Payloads
//
// Dragging an entry from the palette carries a [DragItem] encoded as JSON.
// [ParseDragItem] decodes it and [Place] turns it into a [Node] centered on
// the drop point:
//
//	item, err := flow.ParseDragItem(payload)
//	if err != nil {
//	    return err
//	}
//	node := flow.Place(flow.NewNodeID(item.Type), item, x, y)
//	c.RegisterBounds(node.ID, node.Bounds)
package flow
