package canvas

import (
	"encoding/json"
	"io"
	"slices"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/taskcanvas/pkg/anchor"
	"github.com/matzehuels/taskcanvas/pkg/hittest"
	"github.com/matzehuels/taskcanvas/pkg/observability"
)

type hoverCounter struct {
	observability.NoopSessionHooks
	changes int
}

func (h *hoverCounter) OnHoverChange(string, string) { h.changes++ }

// newTestCanvas lays out three nodes in a row: A, B and C.
func newTestCanvas(t *testing.T) *Controller {
	t.Helper()
	epoch := time.UnixMilli(1700000000000)
	c := New(Options{
		Clock:  func() time.Time { return epoch },
		Logger: log.New(io.Discard),
	})
	c.RegisterBounds("A", hittest.Rect{X: 0, Y: 0, Width: 120, Height: 56})
	c.RegisterBounds("B", hittest.Rect{X: 300, Y: 0, Width: 120, Height: 64})
	c.RegisterBounds("C", hittest.Rect{X: 600, Y: 0, Width: 120, Height: 64})
	return c
}

func TestHandleMoveCoalescesHover(t *testing.T) {
	hooks := &hoverCounter{}
	observability.SetSessionHooks(hooks)
	defer observability.Reset()

	c := newTestCanvas(t)
	c.StartConnecting("A", "")

	var first string
	for i, pt := range [][2]float64{{310, 10}, {350, 30}, {400, 50}, {420, 64}, {430, 70}} {
		if got := c.HandleMove(pt[0], pt[1]); got != "B" {
			t.Fatalf("move %d hovered %q, want B", i, got)
		}
		p, ok := c.Session().Provisional()
		if !ok {
			t.Fatalf("move %d: no provisional handle", i)
		}
		if i == 0 {
			first = p.HandleID
		} else if p.HandleID != first {
			t.Errorf("move %d minted a new provisional handle", i)
		}
	}
	if hooks.changes != 1 {
		t.Errorf("hover changes = %d, want 1", hooks.changes)
	}

	if got := c.HandleMove(1000, 1000); got != "" {
		t.Errorf("empty canvas hovered %q", got)
	}
	c.HandleMove(1001, 1001)
	c.HandleMove(650, 20)
	if hooks.changes != 3 {
		t.Errorf("hover changes = %d, want 3", hooks.changes)
	}
}

func TestHandleMoveIgnoresSourceAndIdle(t *testing.T) {
	c := newTestCanvas(t)
	if got := c.HandleMove(350, 30); got != "" {
		t.Errorf("idle move hovered %q", got)
	}

	c.StartConnecting("A", "")
	if got := c.HandleMove(50, 20); got != "" {
		t.Errorf("moving over the source hovered %q", got)
	}
}

func TestDropFromNodeBody(t *testing.T) {
	c := newTestCanvas(t)
	var synced [][]string
	if err := c.RegisterSync(func(ids []string) { synced = append(synced, ids) }); err != nil {
		t.Fatal(err)
	}

	c.StartConnecting("A", "")
	c.HandleMove(350, 30)
	conn, ok := c.Drop("", "edge-1")
	if !ok {
		t.Fatal("Drop failed")
	}
	c.EndConnecting()

	if conn.Source.NodeID != "A" || conn.Target.NodeID != "B" || conn.EdgeID != "edge-1" {
		t.Errorf("connection = %+v", conn)
	}
	out := c.Store().Outputs("A")
	if len(out) != 1 || out[0].ID != conn.Source.HandleID || out[0].EdgeID != "edge-1" {
		t.Errorf("A outputs = %+v", out)
	}
	in := c.Store().Inputs("B")
	if len(in) != 1 || in[0].ID != conn.Target.HandleID || in[0].EdgeID != "edge-1" {
		t.Errorf("B inputs = %+v", in)
	}

	if len(synced) != 0 {
		t.Fatal("sync ran before Flush")
	}
	got := c.Flush()
	if len(synced) != 1 || !slices.Equal(got, []string{"B", "A"}) {
		t.Errorf("flushed %v (%d calls), want [B A] once", got, len(synced))
	}
	if c.Flush() != nil {
		t.Error("second flush should be empty")
	}
}

func TestDropFromExistingHandle(t *testing.T) {
	c := newTestCanvas(t)
	o1, _ := c.Store().CreateOutput("A", "")

	c.StartConnecting("A", o1)
	c.HandleMove(350, 30)
	conn, ok := c.Drop("", "edge-1")
	c.EndConnecting()

	if !ok || conn.Source.HandleID != o1 {
		t.Fatalf("connection = %+v, %v", conn, ok)
	}
	out := c.Store().Outputs("A")
	if len(out) != 1 || out[0].EdgeID != "edge-1" {
		t.Errorf("A outputs = %+v, want o1 carrying edge-1", out)
	}
}

func TestDropOnOtherNodeFallsBack(t *testing.T) {
	c := newTestCanvas(t)
	c.StartConnecting("A", "")
	c.HandleMove(350, 30)

	conn, ok := c.Drop("C", "edge-2")
	c.EndConnecting()
	if !ok || conn.Target.NodeID != "C" {
		t.Fatalf("connection = %+v, %v", conn, ok)
	}
	if c.Store().InputCount("C") != 1 {
		t.Error("C should gain an input through the fallback path")
	}
	if c.Store().HasConnections("B") {
		t.Error("B kept an anchor from the abandoned hover")
	}
}

func TestDropRejected(t *testing.T) {
	c := newTestCanvas(t)
	if _, ok := c.Drop("B", "e"); ok {
		t.Error("Drop while idle should fail")
	}

	c.StartConnecting("A", "")
	if _, ok := c.Drop("", "e"); ok {
		t.Error("Drop without a target should fail")
	}
	if _, ok := c.Drop("A", "e"); ok {
		t.Error("Drop on the source node should fail")
	}
	c.HandleMove(350, 30)
	if _, ok := c.Drop("", ""); ok {
		t.Error("Drop without an edge id should fail")
	}
	c.EndConnecting()

	for _, n := range []string{"A", "B", "C"} {
		if c.Store().HasConnections(n) {
			t.Errorf("node %s gained anchors", n)
		}
	}
}

func TestReleaseOverEmptyCanvasLeavesNoAnchors(t *testing.T) {
	c := newTestCanvas(t)
	c.StartConnecting("A", "")
	c.HandleMove(350, 30)
	c.HandleMove(1000, 1000)
	c.EndConnecting()

	for _, n := range []string{"A", "B", "C"} {
		if c.Store().HasConnections(n) {
			t.Errorf("node %s gained anchors", n)
		}
	}
	if c.Session().Active() {
		t.Error("session still active")
	}
}

func TestEndConnectingPrunesDangling(t *testing.T) {
	c := newTestCanvas(t)
	c.Store().CreateOutput("A", "kept")
	o2, _ := c.Store().CreateOutput("A", "")

	c.StartConnecting("A", o2)
	c.HandleMove(1000, 1000)
	c.EndConnecting()

	out := c.Store().Outputs("A")
	if len(out) != 1 || out[0].EdgeID != "kept" || out[0].Position != 50 {
		t.Errorf("A outputs = %+v", out)
	}
	if !slices.Contains(c.Pending(), "A") {
		t.Error("pruned node not marked for sync")
	}
}

func TestViewIncludesProvisional(t *testing.T) {
	c := newTestCanvas(t)
	c.Store().CreateInput("B", "e0")

	c.StartConnecting("A", "")
	c.HandleMove(350, 30)

	view := c.View("B")
	if len(view.Inputs) != 2 || view.Inputs[0].Position != 20 || view.Inputs[1].Position != 80 {
		t.Errorf("view inputs = %+v", view.Inputs)
	}
	if c.Store().InputCount("B") != 1 {
		t.Error("View must not modify the store")
	}
	if stored := c.Store().Inputs("B"); stored[0].Position != 50 {
		t.Errorf("stored position = %v", stored[0].Position)
	}
	if !slices.Contains(c.Pending(), "B") {
		t.Error("hover change should mark the target for sync")
	}
}

func TestDestroyNodeMidDrag(t *testing.T) {
	c := newTestCanvas(t)
	c.StartConnecting("A", "")
	c.HandleMove(350, 30)

	c.DestroyNode("B")
	if c.Session().Hovered() != "" {
		t.Error("destroying the hovered node should clear the hover")
	}
	if got := c.HandleMove(350, 30); got != "" {
		t.Errorf("destroyed node still hit: %q", got)
	}

	c.DestroyNode("A")
	if c.Session().Active() {
		t.Error("destroying the source should end the drag")
	}
}

func TestDisconnect(t *testing.T) {
	c := newTestCanvas(t)
	c.StartConnecting("A", "")
	c.HandleMove(350, 30)
	conn, _ := c.Drop("", "edge-1")
	c.EndConnecting()
	c.Flush()

	c.Disconnect(conn)
	if c.Store().HasConnections("A") || c.Store().HasConnections("B") {
		t.Error("Disconnect left anchors behind")
	}
	if got := c.Flush(); !slices.Equal(got, []string{"A", "B"}) {
		t.Errorf("flushed %v", got)
	}
}

func TestSnapshot(t *testing.T) {
	c := newTestCanvas(t)
	c.StartConnecting("A", "")
	c.HandleMove(350, 30)
	c.Drop("", "edge-1")
	c.EndConnecting()

	snap := c.Snapshot()
	if len(snap.Nodes) != 3 {
		t.Fatalf("nodes = %d", len(snap.Nodes))
	}
	if len(snap.Edges) != 1 || snap.Edges[0].Source.NodeID != "A" || snap.Edges[0].Target.NodeID != "B" {
		t.Errorf("edges = %+v", snap.Edges)
	}
	b, ok := snap.Node("B")
	if !ok || b.Bounds == nil || b.Bounds.X != 300 || len(b.Inputs) != 1 {
		t.Errorf("node B = %+v", b)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	var back map[string]any
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back["session"].(map[string]any)["state"] != "idle" {
		t.Errorf("session json = %v", back["session"])
	}
}

func TestResetAndClose(t *testing.T) {
	c := newTestCanvas(t)
	calls := 0
	c.RegisterSync(func([]string) { calls++ })
	c.Store().CreateInput("B", "e")
	c.Reset()

	if len(c.Snapshot().Nodes) != 0 || c.Index().Len() != 0 {
		t.Error("Reset left state behind")
	}
	if c.Flush() != nil || calls != 0 {
		t.Error("Reset should discard pending changes")
	}

	c.Close()
	if err := c.RegisterSync(func([]string) {}); err != nil {
		t.Errorf("Close should release the sync slot: %v", err)
	}
}

func TestDirectAnchorEditsMark(t *testing.T) {
	c := newTestCanvas(t)
	id, _ := c.CreateAnchor("C", anchor.Output, "")
	c.CreateAnchor("C", anchor.Input, "e9")
	if got := c.Flush(); !slices.Equal(got, []string{"C"}) {
		t.Errorf("flushed %v", got)
	}

	c.RemoveAnchor("C", id)
	c.PruneDangling("C")
	if got := c.Flush(); !slices.Equal(got, []string{"C"}) {
		t.Errorf("flushed %v", got)
	}
	if c.Store().InputCount("C") != 1 || c.Store().OutputCount("C") != 0 {
		t.Error("unexpected anchors on C")
	}
}

func TestRemoveNodeDropsPeerAnchors(t *testing.T) {
	c := newTestCanvas(t)
	for _, target := range []float64{350, 650} {
		c.StartConnecting("A", "")
		c.HandleMove(target, 30)
		c.Drop("", "to-"+c.Session().Hovered())
		c.EndConnecting()
	}
	c.Flush()

	removed := c.RemoveNode("B")
	if len(removed) != 1 || removed[0].EdgeID != "to-B" {
		t.Fatalf("removed = %+v", removed)
	}
	out := c.Store().Outputs("A")
	if len(out) != 1 || out[0].EdgeID != "to-C" || out[0].Position != 50 {
		t.Errorf("A outputs = %+v", out)
	}
	if c.Store().Known("B") || c.Index().Len() != 2 {
		t.Error("B still registered")
	}
	if got := c.Flush(); !slices.Equal(got, []string{"A"}) {
		t.Errorf("flushed %v", got)
	}
}

func TestDropFromConnectedHandleFansOut(t *testing.T) {
	c := newTestCanvas(t)
	c.StartConnecting("A", "")
	c.HandleMove(350, 30)
	first, _ := c.Drop("", "edge-1")
	c.EndConnecting()

	c.StartConnecting("A", first.Source.HandleID)
	c.HandleMove(650, 30)
	second, ok := c.Drop("", "edge-2")
	c.EndConnecting()

	if !ok || second.Source.HandleID == first.Source.HandleID {
		t.Fatalf("second connection = %+v, %v", second, ok)
	}
	out := c.Store().Outputs("A")
	if len(out) != 2 || out[0].EdgeID != "edge-1" || out[1].EdgeID != "edge-2" {
		t.Errorf("A outputs = %+v", out)
	}
	if n := len(c.Snapshot().Edges); n != 2 {
		t.Errorf("edges = %d, want 2", n)
	}
}

func TestDropCommitsOncePerDrag(t *testing.T) {
	c := newTestCanvas(t)
	c.StartConnecting("A", "")
	c.HandleMove(350, 30)

	if _, ok := c.Drop("", "edge-1"); !ok {
		t.Fatal("first drop should commit")
	}
	if _, ok := c.Drop("", "edge-1"); ok {
		t.Error("second drop in the same drag should fail")
	}
	if _, ok := c.Drop("C", "edge-2"); ok {
		t.Error("drop after commit should fail for any target")
	}
	c.EndConnecting()

	if c.Store().InputCount("B") != 1 || c.Store().OutputCount("A") != 1 || c.Store().HasConnections("C") {
		t.Fatalf("anchors after repeated drop: A out=%d B in=%d", c.Store().OutputCount("A"), c.Store().InputCount("B"))
	}
	c.RemoveEdge("B", "edge-1")
	c.RemoveEdge("A", "edge-1")
	if c.Store().HasConnections("A") || c.Store().HasConnections("B") {
		t.Error("removing the edge left anchors behind")
	}
}

func TestDropRejectsDuplicateEdge(t *testing.T) {
	tests := []struct {
		name   string
		from   string
		target float64
	}{
		{"same target", "A", 350},
		{"same source", "A", 650},
		{"target already holds edge", "C", 350},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCanvas(t)
			c.StartConnecting("A", "")
			c.HandleMove(350, 30)
			c.Drop("", "edge-1")
			c.EndConnecting()

			c.StartConnecting(tt.from, "")
			c.HandleMove(tt.target, 30)
			if _, ok := c.Drop("", "edge-1"); ok {
				t.Fatal("reusing edge-1 should fail")
			}
			c.EndConnecting()

			if n := len(c.Snapshot().Edges); n != 1 {
				t.Errorf("edges = %d, want 1", n)
			}
			if c.Store().InputCount("B") != 1 || c.Store().OutputCount("A") != 1 {
				t.Errorf("A out=%d B in=%d", c.Store().OutputCount("A"), c.Store().InputCount("B"))
			}
		})
	}
}

func TestDropOnUnknownNode(t *testing.T) {
	c := newTestCanvas(t)
	c.StartConnecting("A", "")

	if _, ok := c.Drop("ghost", "edge-1"); ok {
		t.Error("drop on an unknown node should fail")
	}
	if c.Store().Known("ghost") {
		t.Error("failed drop created the node")
	}
	c.HandleMove(350, 30)
	if _, ok := c.Drop("", "edge-1"); !ok {
		t.Error("a rejected drop should not block the real target")
	}
	c.EndConnecting()
	if n := len(c.Snapshot().Nodes); n != 3 {
		t.Errorf("nodes = %d, want 3", n)
	}
}
