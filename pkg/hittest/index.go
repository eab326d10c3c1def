package hittest

import "slices"

// DefaultTolerance is the margin added around every node when hit testing.
const DefaultTolerance = 20

// Rect is an axis-aligned rectangle in viewport coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Expand grows r by m on every side.
func (r Rect) Expand(m float64) Rect {
	return Rect{X: r.X - m, Y: r.Y - m, Width: r.Width + 2*m, Height: r.Height + 2*m}
}

// Contains reports whether (x, y) lies inside r, edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Center returns the midpoint of r.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Sampler reports the current bounds of a rendered node.
// ok is false once the node is no longer rendered.
type Sampler interface {
	SampleBounds(nodeID string) (r Rect, ok bool)
}

// SamplerFunc adapts a function to [Sampler].
type SamplerFunc func(nodeID string) (Rect, bool)

// SampleBounds calls f.
func (f SamplerFunc) SampleBounds(nodeID string) (Rect, bool) { return f(nodeID) }

// Index is the bounds cache used for pointer-to-node resolution.
type Index struct {
	// Tolerance is the expansion margin applied in HitTest.
	Tolerance float64

	order   []string
	bounds  map[string]Rect
	sampler Sampler
}

// New creates an empty index with [DefaultTolerance].
func New() *Index {
	return &Index{Tolerance: DefaultTolerance, bounds: make(map[string]Rect)}
}

// SetSampler installs the source used by Refresh. A nil sampler disables
// refreshing; registered bounds are then used as-is.
func (ix *Index) SetSampler(s Sampler) {
	ix.sampler = s
}

// Register records (or overwrites) the bounds of nodeID. New nodes are
// appended to the iteration order.
func (ix *Index) Register(nodeID string, r Rect) {
	if _, ok := ix.bounds[nodeID]; !ok {
		ix.order = append(ix.order, nodeID)
	}
	ix.bounds[nodeID] = r
}

// Remove forgets nodeID.
func (ix *Index) Remove(nodeID string) {
	if _, ok := ix.bounds[nodeID]; !ok {
		return
	}
	delete(ix.bounds, nodeID)
	if i := slices.Index(ix.order, nodeID); i >= 0 {
		ix.order = slices.Delete(ix.order, i, i+1)
	}
}

// Clear forgets every node.
func (ix *Index) Clear() {
	clear(ix.bounds)
	ix.order = ix.order[:0]
}

// Bounds returns the cached rectangle of nodeID.
func (ix *Index) Bounds(nodeID string) (Rect, bool) {
	r, ok := ix.bounds[nodeID]
	return r, ok
}

// Nodes returns the cached node ids in iteration order.
func (ix *Index) Nodes() []string {
	return slices.Clone(ix.order)
}

// Len returns the number of cached nodes.
func (ix *Index) Len() int { return len(ix.order) }

// Refresh re-samples every cached node, overwriting prior values and dropping
// nodes the sampler no longer reports.
func (ix *Index) Refresh() {
	if ix.sampler == nil {
		return
	}
	for _, id := range slices.Clone(ix.order) {
		r, ok := ix.sampler.SampleBounds(id)
		if !ok {
			ix.Remove(id)
			continue
		}
		ix.bounds[id] = r
	}
}

// HitTest refreshes the cache and returns the first node, other than
// exclude, whose expanded bounds contain (x, y).
func (ix *Index) HitTest(x, y float64, exclude string) (string, bool) {
	ix.Refresh()
	for _, id := range ix.order {
		if id == exclude {
			continue
		}
		if ix.bounds[id].Expand(ix.Tolerance).Contains(x, y) {
			return id, true
		}
	}
	return "", false
}
