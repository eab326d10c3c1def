package rendersync

import (
	"errors"
	"slices"
	"time"

	"github.com/matzehuels/taskcanvas/pkg/observability"
)

// ErrAlreadyRegistered is returned when a second callback is registered.
var ErrAlreadyRegistered = errors.New("render sync callback already registered")

// SyncFunc receives the ids of nodes whose anchor geometry changed.
type SyncFunc func(nodeIDs []string)

// Bridge batches geometry changes until the host flushes them.
type Bridge struct {
	fn      SyncFunc
	pending []string
	seen    map[string]struct{}
}

// NewBridge creates a bridge with no callback registered.
func NewBridge() *Bridge {
	return &Bridge{seen: make(map[string]struct{})}
}

// Register installs fn. Only the first registration takes effect.
func (b *Bridge) Register(fn SyncFunc) error {
	if fn == nil {
		return errors.New("nil render sync callback")
	}
	if b.fn != nil {
		return ErrAlreadyRegistered
	}
	b.fn = fn
	return nil
}

// Registered reports whether a callback is installed.
func (b *Bridge) Registered() bool { return b.fn != nil }

// Unregister clears the callback slot (canvas unmount).
func (b *Bridge) Unregister() {
	b.fn = nil
}

// Mark queues node ids for the next flush. Duplicates collapse.
func (b *Bridge) Mark(nodeIDs ...string) {
	for _, id := range nodeIDs {
		if _, ok := b.seen[id]; ok {
			continue
		}
		b.seen[id] = struct{}{}
		b.pending = append(b.pending, id)
	}
}

// Pending returns the ids queued for the next flush.
func (b *Bridge) Pending() []string {
	return slices.Clone(b.pending)
}

// Discard drops the pending batch without notifying anyone.
func (b *Bridge) Discard() {
	b.pending = nil
	clear(b.seen)
}

// Flush delivers the pending batch to the callback and returns it. Nothing is
// delivered when the batch is empty.
func (b *Bridge) Flush() []string {
	if len(b.pending) == 0 {
		return nil
	}
	batch := b.pending
	b.Discard()

	if b.fn != nil {
		start := time.Now()
		b.fn(batch)
		observability.Sync().OnFlush(batch, time.Since(start))
	}
	return batch
}

// Fanout combines several callbacks into one. Nil entries are skipped.
func Fanout(fns ...SyncFunc) SyncFunc {
	return func(nodeIDs []string) {
		for _, fn := range fns {
			if fn != nil {
				fn(slices.Clone(nodeIDs))
			}
		}
	}
}
