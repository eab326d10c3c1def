package session

import (
	"fmt"

	"github.com/matzehuels/taskcanvas/pkg/anchor"
	"github.com/matzehuels/taskcanvas/pkg/observability"
)

// State is the phase of the connection gesture.
type State int

const (
	Idle State = iota
	Connecting
)

// String returns "idle" or "connecting".
func (s State) String() string {
	if s == Connecting {
		return "connecting"
	}
	return "idle"
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*s = Idle
	case "connecting":
		*s = Connecting
	default:
		return fmt.Errorf("unknown session state %q", b)
	}
	return nil
}

// Endpoint identifies an anchor (or a node body when HandleID is empty).
type Endpoint struct {
	NodeID   string `json:"nodeId"`
	HandleID string `json:"handleId,omitempty"`
}

// Session is the state of the connection being drawn on one canvas.
// The zero value is not usable; create sessions with [New].
type Session struct {
	store       *anchor.Store
	state       State
	source      Endpoint
	hovered     string
	provisional *Endpoint
}

// New creates an idle session that promotes handles into store.
func New(store *anchor.Store) *Session {
	return &Session{store: store}
}

// Start begins a connection from sourceNodeID. An empty sourceHandleID means
// the drag started on the node body; the caller creates an output anchor
// lazily when the connection commits. Starting while already connecting
// restarts the gesture.
func (s *Session) Start(sourceNodeID, sourceHandleID string) {
	s.reset()
	s.state = Connecting
	s.source = Endpoint{NodeID: sourceNodeID, HandleID: sourceHandleID}
	observability.Session().OnConnectStart(sourceNodeID, sourceHandleID)
}

// SetHoveringTarget records the node under the pointer; "" means empty canvas.
// The call is ignored while idle, when nodeID is the source node, or when the
// hovered node did not change.
func (s *Session) SetHoveringTarget(nodeID string) {
	if s.state != Connecting || nodeID == s.source.NodeID || nodeID == s.hovered {
		return
	}
	prev := s.hovered
	s.provisional = nil
	s.hovered = nodeID
	if nodeID != "" {
		s.provisional = &Endpoint{NodeID: nodeID, HandleID: s.store.NewTempID(anchor.Input)}
	}
	observability.Session().OnHoverChange(prev, nodeID)
}

// ConfirmTempHandle promotes the provisional handle on nodeID into a
// permanent input anchor carrying edgeID and returns its id. ok is false when
// nodeID does not hold the provisional handle (a stale or racing release);
// the caller then falls back to a plain anchor or aborts.
func (s *Session) ConfirmTempHandle(nodeID, edgeID string) (handleID string, change anchor.Change, ok bool) {
	if s.provisional == nil || s.provisional.NodeID != nodeID {
		observability.Session().OnConfirm(nodeID, "", edgeID, false)
		return "", anchor.Change{}, false
	}
	handleID, change = s.store.CreateAnchor(nodeID, anchor.Input, edgeID)
	s.provisional = nil
	observability.Session().OnConfirm(nodeID, handleID, edgeID, true)
	return handleID, change, true
}

// End returns to Idle and clears source, hover and provisional handle.
// It is safe to call at any time, any number of times.
func (s *Session) End() {
	wasActive := s.state == Connecting
	s.reset()
	if wasActive {
		observability.Session().OnConnectEnd()
	}
}

func (s *Session) reset() {
	s.state = Idle
	s.source = Endpoint{}
	s.hovered = ""
	s.provisional = nil
}

// State returns the current phase.
func (s *Session) State() State { return s.state }

// Active reports whether a connection is being drawn.
func (s *Session) Active() bool { return s.state == Connecting }

// Source returns where the current drag started.
func (s *Session) Source() Endpoint { return s.source }

// Hovered returns the hovered target node, or "" when none.
func (s *Session) Hovered() string { return s.hovered }

// Provisional returns the provisional target handle, if any.
func (s *Session) Provisional() (Endpoint, bool) {
	if s.provisional == nil {
		return Endpoint{}, false
	}
	return *s.provisional, true
}

// Snapshot is a serializable view of the session.
type Snapshot struct {
	State       State     `json:"state"`
	Source      *Endpoint `json:"source,omitempty"`
	Hovered     string    `json:"hoveredTargetNodeId,omitempty"`
	Provisional *Endpoint `json:"provisionalTargetHandle,omitempty"`
}

// Snapshot returns the current session state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{State: s.state, Hovered: s.hovered}
	if s.state == Connecting {
		src := s.source
		snap.Source = &src
	}
	if p, ok := s.Provisional(); ok {
		snap.Provisional = &p
	}
	return snap
}
