package cli

import (
	"io"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/taskcanvas/pkg/canvas"
	"github.com/matzehuels/taskcanvas/pkg/flow"
)

func newTestPlay(t *testing.T) *playModel {
	t.Helper()
	return newPlayModel(canvas.Options{Logger: log.New(io.Discard)}, filepath.Join(t.TempDir(), "canvas.json"))
}

func mouse(action tea.MouseAction, x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft}
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// drag presses at from, moves to and releases at to, all in cells.
func drag(m *playModel, from, to [2]int) {
	m.Update(mouse(tea.MouseActionPress, from[0], from[1]))
	m.Update(mouse(tea.MouseActionMotion, to[0], to[1]))
	m.Update(mouse(tea.MouseActionRelease, to[0], to[1]))
}

func TestPlaySlots(t *testing.T) {
	m := newTestPlay(t)
	src := m.place(flow.DataSourceItem(flow.Database))
	psi := m.place(flow.ComputeTaskItem(flow.PSI))
	fl := m.place(flow.ComputeTaskItem(flow.FL))
	mpc := m.place(flow.ComputeTaskItem(flow.MPC))

	tests := []struct {
		name   string
		node   flow.Node
		cx, cy float64
	}{
		{"source", src, 90, 48},
		{"first task", psi, 390, 48},
		{"second task", fl, 690, 48},
		{"third task", mpc, 390, 144},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if x, y := tt.node.Bounds.Center(); x != tt.cx || y != tt.cy {
				t.Errorf("center = (%v, %v), want (%v, %v)", x, y, tt.cx, tt.cy)
			}
		})
	}
	if m.ctrl.Index().Len() != 4 {
		t.Errorf("registered %d nodes, want 4", m.ctrl.Index().Len())
	}
}

func TestBoxOf(t *testing.T) {
	b := boxOf(flow.Place("n", flow.DataSourceItem(flow.Database), 90, 48).Bounds)
	if b != (box{c0: 3, r0: 1, c1: 18, r1: 4}) {
		t.Errorf("box = %+v", b)
	}
	if got := b.anchorRow(50); got != 3 {
		t.Errorf("anchorRow(50) = %d, want 3", got)
	}
	if got := b.anchorRow(20); got != 2 {
		t.Errorf("anchorRow(20) = %d, want 2", got)
	}
}

func TestPlayDragConnects(t *testing.T) {
	m := newTestPlay(t)
	src := m.place(flow.DataSourceItem(flow.Database))
	task := m.place(flow.ComputeTaskItem(flow.PSI))
	m.ctrl.Flush()

	m.Update(mouse(tea.MouseActionPress, 10, 2))
	if !m.dragging || m.ctrl.Session().Source().NodeID != src.ID {
		t.Fatal("press on the source body should start connecting")
	}
	m.Update(mouse(tea.MouseActionMotion, 48, 3))
	if m.ctrl.Session().Hovered() != task.ID {
		t.Fatalf("hovered = %q, want task", m.ctrl.Session().Hovered())
	}
	if !strings.ContainsRune(m.View(), glyphProvisional) {
		t.Error("view should show the provisional anchor while hovering")
	}

	m.Update(mouse(tea.MouseActionRelease, 48, 3))
	if m.dragging || m.ctrl.Session().Active() {
		t.Error("release should end the drag")
	}
	snap := m.ctrl.Snapshot()
	if len(snap.Edges) != 1 || snap.Edges[0].Source.NodeID != src.ID || snap.Edges[0].Target.NodeID != task.ID {
		t.Fatalf("edges = %+v", snap.Edges)
	}
	if len(m.synced) != 2 {
		t.Errorf("synced = %v, want both nodes", m.synced)
	}
	view := m.View()
	if !strings.ContainsRune(view, glyphConnected) || strings.ContainsRune(view, glyphProvisional) {
		t.Error("view should show connected anchors only")
	}
}

func TestPlayDragFromOutputAnchor(t *testing.T) {
	m := newTestPlay(t)
	m.place(flow.DataSourceItem(flow.Database))
	m.place(flow.ComputeTaskItem(flow.PSI))
	m.place(flow.ComputeTaskItem(flow.FL))
	drag(m, [2]int{10, 2}, [2]int{48, 3})

	out := m.ctrl.Store().Outputs(m.nodes[0].ID)
	if len(out) != 1 {
		t.Fatalf("outputs = %+v", out)
	}
	nodeID, handleID, ok := m.grab(18, 3)
	if !ok || nodeID != m.nodes[0].ID || handleID != out[0].ID {
		t.Fatalf("grab = %q %q %v", nodeID, handleID, ok)
	}

	// The FL task sits at x 630..750.
	drag(m, [2]int{18, 3}, [2]int{86, 3})
	if n := len(m.ctrl.Store().Outputs(m.nodes[0].ID)); n != 2 {
		t.Errorf("source has %d outputs, want 2", n)
	}
	if n := len(m.ctrl.Snapshot().Edges); n != 2 {
		t.Errorf("edges = %d, want 2", n)
	}
}

func TestPlayReleaseOverEmptyCanvas(t *testing.T) {
	m := newTestPlay(t)
	m.place(flow.DataSourceItem(flow.Database))
	m.place(flow.ComputeTaskItem(flow.PSI))

	drag(m, [2]int{10, 2}, [2]int{30, 20})
	if m.message != "connection cancelled" {
		t.Errorf("message = %q", m.message)
	}
	for _, n := range m.nodes {
		if m.ctrl.Store().HasConnections(n.ID) {
			t.Errorf("node %s gained anchors", n.Data.Label)
		}
	}
}

func TestPlayKeys(t *testing.T) {
	m := newTestPlay(t)
	m.seed()
	if len(m.nodes) != 4 {
		t.Fatalf("seeded %d nodes", len(m.nodes))
	}

	m.Update(key('3'))
	last := m.nodes[len(m.nodes)-1]
	if last.Kind != flow.ComputeTask || last.Data.TaskType != flow.MPC {
		t.Errorf("key 3 added %+v", last.Data)
	}
	m.Update(key('8'))
	last = m.nodes[len(m.nodes)-1]
	if last.Kind != flow.DataSource || last.Data.SourceType != flow.Stream {
		t.Errorf("key 8 added %+v", last.Data)
	}

	m.Update(key('x'))
	if len(m.nodes) != 5 || m.ctrl.Store().Known(last.ID) {
		t.Error("x should remove the last node")
	}

	m.Update(mouse(tea.MouseActionPress, 10, 2))
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.dragging || m.ctrl.Session().Active() {
		t.Error("esc should cancel the drag")
	}

	m.Update(key('r'))
	if len(m.nodes) != 0 || m.ctrl.Index().Len() != 0 {
		t.Error("r should clear the canvas")
	}

	if _, cmd := m.Update(key('q')); cmd == nil {
		t.Error("q should quit")
	}
}

func TestPlaySaveIsExportable(t *testing.T) {
	m := newTestPlay(t)
	src := m.place(flow.DataSourceItem(flow.Database))
	m.place(flow.ComputeTaskItem(flow.PSI))
	drag(m, [2]int{10, 2}, [2]int{48, 3})

	m.Update(key('w'))
	if !strings.HasPrefix(m.message, "saved") {
		t.Fatalf("message = %q", m.message)
	}

	snap, labels, err := readSnapshot(m.savePath)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Edges) != 1 || len(snap.Nodes) != 2 {
		t.Errorf("snapshot = %+v", snap)
	}
	if labels[src.ID] != "Database" {
		t.Errorf("labels = %v", labels)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"PSI", 5, "PSI"},
		{"Private Set Intersection", 8, "Private…"},
		{"abc", 1, "…"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestPlayHitTestFollowsNodeList(t *testing.T) {
	m := newTestPlay(t)
	src := m.place(flow.DataSourceItem(flow.Database))
	psi := m.place(flow.ComputeTaskItem(flow.PSI))

	m.nodes[1].Bounds.X += slotColumn
	m.ctrl.StartConnecting(src.ID, "")
	if got := m.ctrl.HandleMove(690, 48); got != psi.ID {
		t.Errorf("hover at moved position = %q, want %q", got, psi.ID)
	}
	if got := m.ctrl.HandleMove(390, 48); got != "" {
		t.Errorf("hover at old position = %q", got)
	}

	m.nodes = m.nodes[:1]
	m.ctrl.HandleMove(0, 0)
	if m.ctrl.Index().Len() != 1 {
		t.Errorf("index kept %d nodes, want 1", m.ctrl.Index().Len())
	}
	m.ctrl.EndConnecting()
}
