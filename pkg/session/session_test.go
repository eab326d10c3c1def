package session

import (
	"testing"

	"github.com/matzehuels/taskcanvas/pkg/anchor"
)

func TestStartAndEnd(t *testing.T) {
	s := New(anchor.NewStore())
	if s.State() != Idle || s.Active() {
		t.Fatal("new session should be idle")
	}

	s.Start("A", "o1")
	if !s.Active() || s.Source() != (Endpoint{NodeID: "A", HandleID: "o1"}) {
		t.Errorf("after Start: state=%v source=%+v", s.State(), s.Source())
	}

	s.End()
	s.End()
	if s.Active() || s.Source() != (Endpoint{}) || s.Hovered() != "" {
		t.Error("End should fully reset the session")
	}
	if _, ok := s.Provisional(); ok {
		t.Error("End should drop the provisional handle")
	}
}

func TestHoverIgnoredWhileIdle(t *testing.T) {
	s := New(anchor.NewStore())
	s.SetHoveringTarget("B")
	if s.Hovered() != "" {
		t.Error("hover must be ignored while idle")
	}
}

func TestNoSelfConnection(t *testing.T) {
	s := New(anchor.NewStore())
	s.Start("A", "")

	s.SetHoveringTarget("A")
	if s.Hovered() != "" {
		t.Errorf("hovered = %q after hovering source", s.Hovered())
	}

	s.SetHoveringTarget("B")
	s.SetHoveringTarget("A")
	if s.Hovered() != "B" {
		t.Errorf("hovering the source changed hover to %q", s.Hovered())
	}
	if p, _ := s.Provisional(); p.NodeID != "B" {
		t.Error("hovering the source discarded B's provisional handle")
	}
}

func TestHoverChangeReplacesProvisional(t *testing.T) {
	store := anchor.NewStore()
	s := New(store)
	s.Start("A", "")

	s.SetHoveringTarget("B")
	first, ok := s.Provisional()
	if !ok || first.NodeID != "B" || first.HandleID == "" {
		t.Fatalf("provisional = %+v, %v", first, ok)
	}

	s.SetHoveringTarget("B")
	same, _ := s.Provisional()
	if same != first {
		t.Error("re-hovering the same node minted a new provisional handle")
	}

	s.SetHoveringTarget("C")
	second, _ := s.Provisional()
	if second.NodeID != "C" || second.HandleID == first.HandleID {
		t.Errorf("provisional after change = %+v", second)
	}
	if store.HasConnections("B") || store.HasConnections("C") {
		t.Error("provisional handles must not enter the store")
	}

	s.SetHoveringTarget("")
	if _, ok := s.Provisional(); ok || s.Hovered() != "" {
		t.Error("hovering empty canvas should clear the target")
	}
}

func TestConfirmScenario(t *testing.T) {
	store := anchor.NewStore()
	o1, _ := store.CreateOutput("A", "")
	s := New(store)

	s.Start("A", o1)
	s.SetHoveringTarget("B")
	if s.Hovered() != "B" {
		t.Fatalf("hovered = %q", s.Hovered())
	}
	if _, ok := s.Provisional(); !ok {
		t.Fatal("expected provisional handle for B")
	}

	id, change, ok := s.ConfirmTempHandle("B", "edge-1")
	if !ok || id == "" {
		t.Fatal("ConfirmTempHandle failed")
	}
	if len(change.Nodes) != 1 || change.Nodes[0] != "B" {
		t.Errorf("change = %v", change.Nodes)
	}
	in := store.Inputs("B")
	if len(in) != 1 || in[0].ID != id || in[0].EdgeID != "edge-1" {
		t.Fatalf("B inputs = %+v", in)
	}
	if _, ok := s.Provisional(); ok {
		t.Error("provisional slot should be cleared after confirm")
	}

	s.End()
	if s.Active() {
		t.Error("session still active after End")
	}
	if after := store.Inputs("B"); len(after) != 1 || after[0] != in[0] {
		t.Error("End altered B's anchors")
	}
}

func TestConfirmStale(t *testing.T) {
	store := anchor.NewStore()
	s := New(store)

	if _, _, ok := s.ConfirmTempHandle("B", "e"); ok {
		t.Error("confirm without a provisional handle should fail")
	}

	s.Start("A", "")
	s.SetHoveringTarget("B")
	if _, _, ok := s.ConfirmTempHandle("C", "e"); ok {
		t.Error("confirm on a node without the provisional handle should fail")
	}
	if store.Known("C") {
		t.Error("failed confirm must not touch the store")
	}

	if _, _, ok := s.ConfirmTempHandle("B", "e"); !ok {
		t.Fatal("confirm on B should succeed")
	}
	if _, _, ok := s.ConfirmTempHandle("B", "e2"); ok {
		t.Error("second confirm should fail: provisional slot already consumed")
	}
}

func TestReleaseOverEmptyCanvas(t *testing.T) {
	store := anchor.NewStore()
	s := New(store)

	s.Start("A", "")
	s.SetHoveringTarget("B")
	s.SetHoveringTarget("")
	s.End()

	for _, n := range []string{"A", "B"} {
		if store.HasConnections(n) {
			t.Errorf("node %s gained anchors", n)
		}
	}
}

func TestRestartWhileConnecting(t *testing.T) {
	s := New(anchor.NewStore())
	s.Start("A", "")
	s.SetHoveringTarget("B")
	s.Start("C", "h")

	if s.Hovered() != "" || s.Source().NodeID != "C" {
		t.Errorf("restart kept stale state: %+v", s.Snapshot())
	}
}

func TestSnapshot(t *testing.T) {
	s := New(anchor.NewStore())
	if snap := s.Snapshot(); snap.Source != nil || snap.State != Idle {
		t.Errorf("idle snapshot = %+v", snap)
	}
	s.Start("A", "")
	s.SetHoveringTarget("B")
	snap := s.Snapshot()
	if snap.State != Connecting || snap.Source.NodeID != "A" || snap.Provisional == nil || snap.Hovered != "B" {
		t.Errorf("connecting snapshot = %+v", snap)
	}
}

func TestStateText(t *testing.T) {
	for _, st := range []State{Idle, Connecting} {
		b, _ := st.MarshalText()
		var back State
		if err := back.UnmarshalText(b); err != nil || back != st {
			t.Errorf("state %v did not survive text encoding", st)
		}
	}
	var s State
	if err := s.UnmarshalText([]byte("dragging")); err == nil {
		t.Error("unknown state should fail")
	}
}
