// Package canvas wires the anchor store, connection session, hit-test index
// and render-sync bridge into the controller a canvas host talks to.
//
// # Lifecycle
//
// A [Controller] is created when a canvas mounts and torn down with
// [Controller.Close] when it unmounts. Nothing is shared between canvases.
//
// # Event Flow
//
//	host event ──▶ Controller ──▶ Session ──▶ anchor.Store ──▶ layout
//	                    │                          │
//	                    └────── hittest.Index      └──▶ rendersync.Bridge.Mark
//
// Every mutation marks the nodes whose anchor geometry changed. The host calls
// [Controller.Flush] once per frame, after it has applied all events of that
// frame, and only then does the registered sync callback run.
//
// # Drag To Connect
//
//	c.StartConnecting("a", "")        // pointer down on node body
//	c.HandleMove(x, y)                // every pointer move
//	c.Drop("", "edge-1")              // pointer up over the hovered node
//	c.EndConnecting()                 // always, success or cancel
//	c.Flush()
//
// [Controller.HandleMove] only forwards a hover change to the session when the
// hit-test result differs from the recorded hover, so a pointer that wiggles
// inside one node mints a single provisional handle.
package canvas
