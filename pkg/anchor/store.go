package anchor

import (
	"fmt"
	"slices"
	"time"

	"github.com/matzehuels/taskcanvas/pkg/layout"
	"github.com/matzehuels/taskcanvas/pkg/observability"
)

// Store owns the anchor sets of every node on one canvas.
type Store struct {
	sets    map[string]*Set
	order   []string // node ids in first-reference order
	spacer  layout.Spacer
	counter uint64
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithPadding overrides the layout padding (default [layout.DefaultPadding]).
func WithPadding(p float64) Option {
	return func(s *Store) { s.spacer.Padding = p }
}

// WithClock overrides the clock used in generated ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sets:   make(map[string]*Set),
		spacer: layout.NewSpacer(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// Ids
// =============================================================================

// nextID combines a per-store counter with the wall clock so ids stay unique
// across page reloads and store instances.
func (s *Store) nextID(prefix string) string {
	s.counter++
	return fmt.Sprintf("%s-%d-%d", prefix, s.counter, s.now().UnixMilli())
}

// NewTempID mints an id for a provisional anchor. The anchor is not inserted
// anywhere; the id only identifies what the renderer shows during a drag.
func (s *Store) NewTempID(r Role) string {
	return s.nextID("temp-" + r.String())
}

// =============================================================================
// Node Lifecycle
// =============================================================================

// EnsureNode creates an empty anchor set for nodeID if none exists.
func (s *Store) EnsureNode(nodeID string) {
	s.ensure(nodeID)
}

func (s *Store) ensure(nodeID string) *Set {
	if set, ok := s.sets[nodeID]; ok {
		return set
	}
	set := &Set{Inputs: []Anchor{}, Outputs: []Anchor{}}
	s.sets[nodeID] = set
	s.order = append(s.order, nodeID)
	return set
}

// DestroyNode drops every anchor of nodeID.
func (s *Store) DestroyNode(nodeID string) {
	if _, ok := s.sets[nodeID]; !ok {
		return
	}
	delete(s.sets, nodeID)
	if i := slices.Index(s.order, nodeID); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	observability.Anchors().OnNodeDestroyed(nodeID)
}

// DestroyAll clears the store. The id counter keeps running.
func (s *Store) DestroyAll() {
	clear(s.sets)
	s.order = s.order[:0]
}

// =============================================================================
// Mutations
// =============================================================================

// CreateAnchor appends a new anchor to the role's sequence of nodeID and
// re-spaces that node. edgeID may be empty for an unconfirmed anchor.
func (s *Store) CreateAnchor(nodeID string, r Role, edgeID string) (string, Change) {
	set := s.ensure(nodeID)
	id := s.nextID(r.String() + "-dynamic")
	seq := set.seq(r)
	*seq = append(*seq, Anchor{ID: id, Role: r, Position: layout.Center, EdgeID: edgeID})
	s.relayout(set)
	observability.Anchors().OnAnchorCreated(nodeID, id, r.String(), edgeID)
	return id, changed(nodeID)
}

// CreateInput is CreateAnchor with [Input].
func (s *Store) CreateInput(nodeID, edgeID string) (string, Change) {
	return s.CreateAnchor(nodeID, Input, edgeID)
}

// CreateOutput is CreateAnchor with [Output].
func (s *Store) CreateOutput(nodeID, edgeID string) (string, Change) {
	return s.CreateAnchor(nodeID, Output, edgeID)
}

// AttachEdge records edgeID on the anchor handleID. Inputs are searched before
// outputs. Positions are left untouched.
func (s *Store) AttachEdge(nodeID, handleID, edgeID string) {
	set, ok := s.sets[nodeID]
	if !ok {
		return
	}
	for _, r := range []Role{Input, Output} {
		seq := set.seq(r)
		if i := indexByID(*seq, handleID); i >= 0 {
			(*seq)[i].EdgeID = edgeID
			return
		}
	}
}

// RemoveAnchor deletes the anchor handleID from whichever sequence holds it.
func (s *Store) RemoveAnchor(nodeID, handleID string) Change {
	set, ok := s.sets[nodeID]
	if !ok {
		return Change{}
	}
	for _, r := range []Role{Input, Output} {
		seq := set.seq(r)
		if i := indexByID(*seq, handleID); i >= 0 {
			*seq = slices.Delete(*seq, i, i+1)
			s.relayout(set)
			observability.Anchors().OnAnchorRemoved(nodeID, handleID)
			return changed(nodeID)
		}
	}
	return Change{}
}

// RemoveAnchorByEdge deletes the first anchor of each role whose edge id is
// edgeID. An empty edgeID never matches.
func (s *Store) RemoveAnchorByEdge(nodeID, edgeID string) Change {
	set, ok := s.sets[nodeID]
	if !ok || edgeID == "" {
		return Change{}
	}
	removed := false
	for _, r := range []Role{Input, Output} {
		seq := set.seq(r)
		i := slices.IndexFunc(*seq, func(a Anchor) bool { return a.EdgeID == edgeID })
		if i < 0 {
			continue
		}
		id := (*seq)[i].ID
		*seq = slices.Delete(*seq, i, i+1)
		removed = true
		observability.Anchors().OnAnchorRemoved(nodeID, id)
	}
	if !removed {
		return Change{}
	}
	s.relayout(set)
	return changed(nodeID)
}

// PruneDangling removes every anchor of nodeID that has no edge id.
func (s *Store) PruneDangling(nodeID string) Change {
	set, ok := s.sets[nodeID]
	if !ok {
		return Change{}
	}
	n := len(set.Inputs) + len(set.Outputs)
	set.Inputs = slices.DeleteFunc(set.Inputs, dangling)
	set.Outputs = slices.DeleteFunc(set.Outputs, dangling)
	s.relayout(set)

	pruned := n - len(set.Inputs) - len(set.Outputs)
	if pruned == 0 {
		return Change{}
	}
	observability.Anchors().OnPruned(nodeID, pruned)
	return changed(nodeID)
}

// PruneDanglingAll applies PruneDangling to every known node. It is used
// after an abandoned connection attempt so orphan anchors never accumulate.
func (s *Store) PruneDanglingAll() Change {
	var out Change
	for _, nodeID := range s.order {
		for _, id := range s.PruneDangling(nodeID).Nodes {
			out.add(id)
		}
	}
	return out
}

func (s *Store) relayout(set *Set) {
	s.spacer.Apply(len(set.Inputs), func(i int, p layout.Percentage) { set.Inputs[i].Position = p })
	s.spacer.Apply(len(set.Outputs), func(i int, p layout.Percentage) { set.Outputs[i].Position = p })
}

// =============================================================================
// Reads
// =============================================================================

// Inputs returns a copy of the input anchors of nodeID.
func (s *Store) Inputs(nodeID string) []Anchor {
	if set, ok := s.sets[nodeID]; ok {
		return slices.Clone(set.Inputs)
	}
	return nil
}

// Outputs returns a copy of the output anchors of nodeID.
func (s *Store) Outputs(nodeID string) []Anchor {
	if set, ok := s.sets[nodeID]; ok {
		return slices.Clone(set.Outputs)
	}
	return nil
}

// Set returns a copy of the whole anchor set of nodeID.
func (s *Store) Set(nodeID string) (Set, bool) {
	set, ok := s.sets[nodeID]
	if !ok {
		return Set{}, false
	}
	return set.Clone(), true
}

// Anchor looks up a single anchor by id.
func (s *Store) Anchor(nodeID, handleID string) (Anchor, bool) {
	set, ok := s.sets[nodeID]
	if !ok {
		return Anchor{}, false
	}
	for _, seq := range [][]Anchor{set.Inputs, set.Outputs} {
		if i := indexByID(seq, handleID); i >= 0 {
			return seq[i], true
		}
	}
	return Anchor{}, false
}

// Known reports whether nodeID has an anchor set.
func (s *Store) Known(nodeID string) bool {
	_, ok := s.sets[nodeID]
	return ok
}

// Nodes returns the ids of all known nodes in first-reference order.
func (s *Store) Nodes() []string {
	return slices.Clone(s.order)
}

// HasConnections reports whether nodeID has any anchor at all.
func (s *Store) HasConnections(nodeID string) bool {
	return s.InputCount(nodeID)+s.OutputCount(nodeID) > 0
}

// InputCount returns the number of input anchors of nodeID.
func (s *Store) InputCount(nodeID string) int {
	if set, ok := s.sets[nodeID]; ok {
		return len(set.Inputs)
	}
	return 0
}

// OutputCount returns the number of output anchors of nodeID.
func (s *Store) OutputCount(nodeID string) int {
	if set, ok := s.sets[nodeID]; ok {
		return len(set.Outputs)
	}
	return 0
}

func indexByID(seq []Anchor, id string) int {
	return slices.IndexFunc(seq, func(a Anchor) bool { return a.ID == id })
}

func dangling(a Anchor) bool { return !a.Connected() }
