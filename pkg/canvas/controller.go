package canvas

import (
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/taskcanvas/pkg/anchor"
	"github.com/matzehuels/taskcanvas/pkg/hittest"
	"github.com/matzehuels/taskcanvas/pkg/layout"
	"github.com/matzehuels/taskcanvas/pkg/rendersync"
	"github.com/matzehuels/taskcanvas/pkg/session"
)

// Options configures a Controller. Zero values select the defaults.
type Options struct {
	// Padding is the layout margin in percent (default 20).
	Padding float64
	// Tolerance widens node bounds during hit testing (default 20).
	Tolerance float64
	// Sampler re-reads node bounds before each hit test. Optional: hosts
	// that push bounds through RegisterBounds leave it nil.
	Sampler hittest.Sampler
	// Clock is used for anchor ids. Defaults to time.Now.
	Clock  func() time.Time
	Logger *log.Logger
}

// Controller is the per-canvas entry point for host events.
type Controller struct {
	store   *anchor.Store
	session *session.Session
	index   *hittest.Index
	bridge  *rendersync.Bridge
	padding float64
	logger  *log.Logger

	// committed is set once Drop succeeds and cleared when a drag starts or ends.
	committed bool
}

// New creates a controller with fresh state.
func New(opts Options) *Controller {
	if opts.Padding <= 0 {
		opts.Padding = layout.DefaultPadding
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = hittest.DefaultTolerance
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	store := anchor.NewStore(anchor.WithPadding(opts.Padding), anchor.WithClock(opts.Clock))
	index := hittest.New()
	index.Tolerance = opts.Tolerance
	index.SetSampler(opts.Sampler)

	return &Controller{
		store:   store,
		session: session.New(store),
		index:   index,
		bridge:  rendersync.NewBridge(),
		padding: opts.Padding,
		logger:  opts.Logger,
	}
}

// Store returns the anchor store.
func (c *Controller) Store() *anchor.Store { return c.store }

// Session returns the connection session.
func (c *Controller) Session() *session.Session { return c.session }

// Index returns the hit-test index.
func (c *Controller) Index() *hittest.Index { return c.index }

// RegisterSync installs the render-sync callback. See [rendersync.Bridge.Register].
func (c *Controller) RegisterSync(fn rendersync.SyncFunc) error {
	return c.bridge.Register(fn)
}

// Flush delivers the nodes changed since the last flush to the sync callback.
func (c *Controller) Flush() []string {
	return c.bridge.Flush()
}

// Pending returns the nodes waiting for the next flush.
func (c *Controller) Pending() []string {
	return c.bridge.Pending()
}

func (c *Controller) mark(ch anchor.Change) {
	c.bridge.Mark(ch.Nodes...)
}

// =============================================================================
// Node Lifecycle
// =============================================================================

// RegisterBounds records the viewport bounds of a mounted node.
func (c *Controller) RegisterBounds(nodeID string, r hittest.Rect) {
	c.index.Register(nodeID, r)
	c.store.EnsureNode(nodeID)
}

// DestroyNode forgets an unmounted node. A drag from the node is cancelled;
// a drag hovering it loses its target.
func (c *Controller) DestroyNode(nodeID string) {
	c.index.Remove(nodeID)
	c.store.DestroyNode(nodeID)

	switch {
	case c.session.Active() && c.session.Source().NodeID == nodeID:
		c.logger.Debug("source node destroyed mid-drag", "node", nodeID)
		c.EndConnecting()
	case c.session.Hovered() == nodeID:
		c.session.SetHoveringTarget("")
	}
}

// RemoveNode deletes a node together with its edges: the peer end of every
// edge touching nodeID loses its anchor, then the node is destroyed. It
// returns the removed edges.
func (c *Controller) RemoveNode(nodeID string) []Connection {
	var removed []Connection
	for _, e := range edges(c.store) {
		switch nodeID {
		case e.Source.NodeID:
			c.RemoveEdge(e.Target.NodeID, e.EdgeID)
		case e.Target.NodeID:
			c.RemoveEdge(e.Source.NodeID, e.EdgeID)
		default:
			continue
		}
		removed = append(removed, e)
	}
	c.DestroyNode(nodeID)
	return removed
}

// CreateAnchor adds an anchor outside of a drag, for hosts that restore or
// script connections.
func (c *Controller) CreateAnchor(nodeID string, r anchor.Role, edgeID string) (string, anchor.Change) {
	id, ch := c.store.CreateAnchor(nodeID, r, edgeID)
	c.mark(ch)
	return id, ch
}

// RemoveAnchor deletes one anchor.
func (c *Controller) RemoveAnchor(nodeID, handleID string) anchor.Change {
	ch := c.store.RemoveAnchor(nodeID, handleID)
	c.mark(ch)
	return ch
}

// PruneDangling drops the anchors of nodeID that carry no edge.
func (c *Controller) PruneDangling(nodeID string) anchor.Change {
	ch := c.store.PruneDangling(nodeID)
	c.mark(ch)
	return ch
}

// RemoveEdge drops the anchors of nodeID that carry edgeID.
func (c *Controller) RemoveEdge(nodeID, edgeID string) {
	c.mark(c.store.RemoveAnchorByEdge(nodeID, edgeID))
}

// Disconnect removes both ends of conn.
func (c *Controller) Disconnect(conn Connection) {
	c.RemoveEdge(conn.Source.NodeID, conn.EdgeID)
	c.RemoveEdge(conn.Target.NodeID, conn.EdgeID)
}

// =============================================================================
// Drag To Connect
// =============================================================================

// Connection is a committed edge between two anchors.
type Connection struct {
	EdgeID string           `json:"edgeId"`
	Source session.Endpoint `json:"source"`
	Target session.Endpoint `json:"target"`
}

// StartConnecting begins a drag from handleID on nodeID, or from the node
// body when handleID is empty.
func (c *Controller) StartConnecting(nodeID, handleID string) {
	c.committed = false
	c.session.Start(nodeID, handleID)
	c.logger.Debug("connect start", "node", nodeID, "handle", handleID)
}

// HandleMove resolves the pointer to a target node and updates the hover
// when it changed. It returns the hovered node ("" for none).
func (c *Controller) HandleMove(x, y float64) string {
	if !c.session.Active() {
		return ""
	}
	target, _ := c.index.HitTest(x, y, c.session.Source().NodeID)
	if prev := c.session.Hovered(); target != prev {
		c.session.SetHoveringTarget(target)
		// The provisional handle appears on the new target and leaves the old one.
		c.bridge.Mark(nonEmpty(prev, target)...)
	}
	return c.session.Hovered()
}

// Drop commits the connection being drawn as edgeID. nodeID is the node under
// the pointer at release; empty means the hovered node. The target receives
// the promoted provisional handle, or a fresh input anchor when the
// provisional handle belongs elsewhere. The source end either gains edgeID on
// its dangling handle or, for a body drag or an already connected handle, a
// new output anchor.
//
// ok is false when nothing is being drawn, the drag already committed, no
// target is known, the target is the source node or an unknown node, or
// either end already carries edgeID. Drop does not end the session; call
// EndConnecting.
func (c *Controller) Drop(nodeID, edgeID string) (Connection, bool) {
	if !c.session.Active() || c.committed || edgeID == "" {
		return Connection{}, false
	}
	if nodeID == "" {
		nodeID = c.session.Hovered()
	}
	src := c.session.Source()
	if nodeID == "" || nodeID == src.NodeID {
		return Connection{}, false
	}
	if c.carries(nodeID, anchor.Input, edgeID) || c.carries(src.NodeID, anchor.Output, edgeID) {
		c.logger.Debug("edge already attached", "edge", edgeID, "from", src.NodeID, "to", nodeID)
		return Connection{}, false
	}

	targetHandle, ch, ok := c.session.ConfirmTempHandle(nodeID, edgeID)
	if !ok {
		if !c.known(nodeID) {
			c.logger.Debug("drop on unknown node", "node", nodeID, "edge", edgeID)
			return Connection{}, false
		}
		c.logger.Debug("provisional handle stale, creating input", "node", nodeID, "edge", edgeID)
		targetHandle, ch = c.store.CreateInput(nodeID, edgeID)
	}
	c.mark(ch)

	// An anchor carries one edge; dragging again from a connected handle
	// fans out through a new output anchor.
	sourceHandle := src.HandleID
	if a, exists := c.store.Anchor(src.NodeID, sourceHandle); exists && a.EdgeID == "" {
		c.store.AttachEdge(src.NodeID, sourceHandle, edgeID)
	} else {
		sourceHandle, ch = c.store.CreateOutput(src.NodeID, edgeID)
		c.mark(ch)
	}

	conn := Connection{
		EdgeID: edgeID,
		Source: session.Endpoint{NodeID: src.NodeID, HandleID: sourceHandle},
		Target: session.Endpoint{NodeID: nodeID, HandleID: targetHandle},
	}
	c.committed = true
	c.logger.Debug("connected", "edge", edgeID, "from", src.NodeID, "to", nodeID)
	return conn, true
}

// carries reports whether an anchor of role r on nodeID holds edgeID.
func (c *Controller) carries(nodeID string, r anchor.Role, edgeID string) bool {
	seq := c.store.Inputs(nodeID)
	if r == anchor.Output {
		seq = c.store.Outputs(nodeID)
	}
	return slices.ContainsFunc(seq, func(a anchor.Anchor) bool { return a.EdgeID == edgeID })
}

// known reports whether nodeID is mounted or holds anchors.
func (c *Controller) known(nodeID string) bool {
	if c.store.Known(nodeID) {
		return true
	}
	_, ok := c.index.Bounds(nodeID)
	return ok
}

// EndConnecting returns the session to idle and prunes anchors left without
// an edge. Call it after every drag, whether or not Drop succeeded.
func (c *Controller) EndConnecting() {
	hovered := c.session.Hovered()
	c.committed = false
	c.session.End()
	if hovered != "" {
		c.bridge.Mark(hovered)
	}
	c.mark(c.store.PruneDanglingAll())
}

// Reset clears all canvas state but keeps the sync callback.
func (c *Controller) Reset() {
	c.committed = false
	c.session.End()
	c.store.DestroyAll()
	c.index.Clear()
	c.bridge.Discard()
}

// Close resets the canvas and releases the sync callback.
func (c *Controller) Close() {
	c.Reset()
	c.bridge.Unregister()
}

// =============================================================================
// Views
// =============================================================================

// View returns the anchors a renderer should draw for nodeID: the stored
// anchors plus the provisional input while the node is the drag target,
// spaced as if the provisional input were already stored.
func (c *Controller) View(nodeID string) anchor.Set {
	set, _ := c.store.Set(nodeID)
	p, ok := c.session.Provisional()
	if !ok || p.NodeID != nodeID {
		return set
	}
	set.Inputs = append(set.Inputs, anchor.Anchor{ID: p.HandleID, Role: anchor.Input})
	for i, pos := range layout.PositionsWithPadding(len(set.Inputs), c.padding) {
		set.Inputs[i].Position = pos
	}
	return set
}

func nonEmpty(ids ...string) []string {
	out := ids[:0:0]
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}
