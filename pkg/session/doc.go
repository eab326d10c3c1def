// Package session implements the drag-to-connect state machine.
//
// A canvas has at most one connection being drawn at a time. The session
// records where the drag started, which node the pointer is currently over
// and the provisional input anchor shown on that node:
//
//	Idle ──Start──▶ Connecting ──End──▶ Idle
//	                   │  ▲
//	                   └──┘ SetHoveringTarget / ConfirmTempHandle
//
// Both a successful drop and a cancel return to Idle through [Session.End];
// no committed or aborted state survives the gesture.
//
// # Provisional Handles
//
// When the hovered node genuinely changes, the previous provisional handle is
// discarded and a fresh id is minted for the new target. The provisional
// handle lives only in the session until [Session.ConfirmTempHandle] promotes
// it into a permanent input anchor of the [anchor.Store].
//
// # Self Connections
//
// Hovering the source node is ignored, so a node can never become its own
// target.
package session
