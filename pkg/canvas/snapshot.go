package canvas

import (
	"github.com/matzehuels/taskcanvas/pkg/anchor"
	"github.com/matzehuels/taskcanvas/pkg/hittest"
	"github.com/matzehuels/taskcanvas/pkg/session"
)

// NodeView is the render state of one node.
type NodeView struct {
	ID      string          `json:"id"`
	Bounds  *hittest.Rect   `json:"bounds,omitempty"`
	Inputs  []anchor.Anchor `json:"inputs"`
	Outputs []anchor.Anchor `json:"outputs"`
}

// Snapshot is a serializable view of a whole canvas.
type Snapshot struct {
	Nodes   []NodeView       `json:"nodes"`
	Edges   []Connection     `json:"edges"`
	Session session.Snapshot `json:"session"`
}

// Node returns the view of id, if present.
func (s Snapshot) Node(id string) (NodeView, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeView{}, false
}

// Snapshot captures every known node, the edges implied by connected anchors
// and the session state. Provisional handles are included in node inputs.
func (c *Controller) Snapshot() Snapshot {
	snap := Snapshot{
		Nodes:   []NodeView{},
		Edges:   []Connection{},
		Session: c.session.Snapshot(),
	}

	ids := c.store.Nodes()
	for _, id := range c.index.Nodes() {
		if !c.store.Known(id) {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		set := c.View(id)
		view := NodeView{ID: id, Inputs: set.Inputs, Outputs: set.Outputs}
		if view.Inputs == nil {
			view.Inputs = []anchor.Anchor{}
		}
		if view.Outputs == nil {
			view.Outputs = []anchor.Anchor{}
		}
		if r, ok := c.index.Bounds(id); ok {
			view.Bounds = &r
		}
		snap.Nodes = append(snap.Nodes, view)
	}
	snap.Edges = edges(c.store)
	return snap
}

// edges pairs output and input anchors that carry the same edge id. Edges
// with only one connected end are omitted.
func edges(store *anchor.Store) []Connection {
	targets := make(map[string]session.Endpoint)
	for _, id := range store.Nodes() {
		for _, a := range store.Inputs(id) {
			if a.Connected() {
				if _, dup := targets[a.EdgeID]; !dup {
					targets[a.EdgeID] = session.Endpoint{NodeID: id, HandleID: a.ID}
				}
			}
		}
	}

	out := []Connection{}
	for _, id := range store.Nodes() {
		for _, a := range store.Outputs(id) {
			if !a.Connected() {
				continue
			}
			to, ok := targets[a.EdgeID]
			if !ok {
				continue
			}
			delete(targets, a.EdgeID)
			out = append(out, Connection{
				EdgeID: a.EdgeID,
				Source: session.Endpoint{NodeID: id, HandleID: a.ID},
				Target: to,
			})
		}
	}
	return out
}
