// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about anchor bookkeeping, connection sessions, and render
// synchronization.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are invoked synchronously from UI event handlers, so they carry no
// context and must return quickly.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetAnchorHooks(&myAnchorHooks{})
//	    observability.SetSessionHooks(&mySessionHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Session().OnHoverChange(prev, next)
package observability

import (
	"sync"
	"time"
)

// =============================================================================
// Anchor Hooks
// =============================================================================

// AnchorHooks receives events from anchor store mutations.
type AnchorHooks interface {
	OnAnchorCreated(nodeID, handleID, role, edgeID string)
	OnAnchorRemoved(nodeID, handleID string)
	// OnPruned reports how many dangling anchors were dropped from a node.
	OnPruned(nodeID string, count int)
	OnNodeDestroyed(nodeID string)
}

// =============================================================================
// Session Hooks
// =============================================================================

// SessionHooks receives events from the drag-to-connect state machine.
type SessionHooks interface {
	OnConnectStart(nodeID, handleID string)
	// OnHoverChange fires once per genuine change of the hovered target.
	OnHoverChange(prev, next string)
	OnConfirm(nodeID, handleID, edgeID string, ok bool)
	OnConnectEnd()
}

// =============================================================================
// Sync Hooks
// =============================================================================

// SyncHooks receives events from the render-sync bridge.
type SyncHooks interface {
	OnFlush(nodeIDs []string, duration time.Duration)
	OnSyncError(err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopAnchorHooks is a no-op implementation of AnchorHooks.
type NoopAnchorHooks struct{}

func (NoopAnchorHooks) OnAnchorCreated(string, string, string, string) {}
func (NoopAnchorHooks) OnAnchorRemoved(string, string)                 {}
func (NoopAnchorHooks) OnPruned(string, int)                           {}
func (NoopAnchorHooks) OnNodeDestroyed(string)                         {}

// NoopSessionHooks is a no-op implementation of SessionHooks.
type NoopSessionHooks struct{}

func (NoopSessionHooks) OnConnectStart(string, string)          {}
func (NoopSessionHooks) OnHoverChange(string, string)           {}
func (NoopSessionHooks) OnConfirm(string, string, string, bool) {}
func (NoopSessionHooks) OnConnectEnd()                          {}

// NoopSyncHooks is a no-op implementation of SyncHooks.
type NoopSyncHooks struct{}

func (NoopSyncHooks) OnFlush([]string, time.Duration) {}
func (NoopSyncHooks) OnSyncError(error)               {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	anchorHooks  AnchorHooks  = NoopAnchorHooks{}
	sessionHooks SessionHooks = NoopSessionHooks{}
	syncHooks    SyncHooks    = NoopSyncHooks{}
	hooksMu      sync.RWMutex
)

// SetAnchorHooks registers custom anchor hooks.
// This should be called once at application startup before any canvas is created.
func SetAnchorHooks(h AnchorHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		anchorHooks = h
	}
}

// SetSessionHooks registers custom session hooks.
func SetSessionHooks(h SessionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		sessionHooks = h
	}
}

// SetSyncHooks registers custom render-sync hooks.
func SetSyncHooks(h SyncHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		syncHooks = h
	}
}

// Anchors returns the registered anchor hooks.
func Anchors() AnchorHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return anchorHooks
}

// Session returns the registered session hooks.
func Session() SessionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return sessionHooks
}

// Sync returns the registered render-sync hooks.
func Sync() SyncHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return syncHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	anchorHooks = NoopAnchorHooks{}
	sessionHooks = NoopSessionHooks{}
	syncHooks = NoopSyncHooks{}
}
