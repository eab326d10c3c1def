package anchor

import (
	"fmt"
	"slices"

	"github.com/matzehuels/taskcanvas/pkg/layout"
)

// =============================================================================
// Role
// =============================================================================

// Role distinguishes incoming from outgoing anchors.
type Role int

const (
	Input Role = iota
	Output
)

// String returns "input" or "output".
func (r Role) String() string {
	if r == Output {
		return "output"
	}
	return "input"
}

// ParseRole converts "input" or "output" to a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "input":
		return Input, nil
	case "output":
		return Output, nil
	}
	return Input, fmt.Errorf("unknown anchor role %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// =============================================================================
// Anchor
// =============================================================================

// Anchor is a single connection point on a node edge.
type Anchor struct {
	ID       string            `json:"id"`
	Role     Role              `json:"role"`
	Position layout.Percentage `json:"position"`
	EdgeID   string            `json:"connectedEdgeId,omitempty"` // empty while unconfirmed
}

// Connected reports whether the anchor carries an edge id.
// Anchors without one are dangling and removed by pruning.
func (a Anchor) Connected() bool { return a.EdgeID != "" }

// Set holds the anchors of a single node in placement order.
type Set struct {
	Inputs  []Anchor `json:"inputs"`
	Outputs []Anchor `json:"outputs"`
}

func (s *Set) seq(r Role) *[]Anchor {
	if r == Output {
		return &s.Outputs
	}
	return &s.Inputs
}

// Clone returns a deep copy of the set.
func (s *Set) Clone() Set {
	return Set{
		Inputs:  slices.Clone(s.Inputs),
		Outputs: slices.Clone(s.Outputs),
	}
}

// =============================================================================
// Change
// =============================================================================

// Change lists the nodes whose anchor geometry moved during a mutation.
// Node ids appear once, in the order they were first touched.
type Change struct {
	Nodes []string
}

// Empty reports whether nothing moved.
func (c Change) Empty() bool { return len(c.Nodes) == 0 }

// Merge returns the union of c and o, preserving first-touch order.
func (c Change) Merge(o Change) Change {
	out := Change{Nodes: slices.Clone(c.Nodes)}
	for _, id := range o.Nodes {
		out.add(id)
	}
	return out
}

func (c *Change) add(nodeID string) {
	if !slices.Contains(c.Nodes, nodeID) {
		c.Nodes = append(c.Nodes, nodeID)
	}
}

func changed(nodeID string) Change {
	return Change{Nodes: []string{nodeID}}
}
