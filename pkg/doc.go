// Package pkg provides the libraries behind taskcanvas, a canvas on which data
// sources are wired to privacy-preserving compute tasks (PSI, PIR, MPC, FL).
//
// # Overview
//
// Nodes on the canvas carry connection anchors on their sides. Anchors are not
// declared up front: they appear while a connection is drawn and stay only if
// the connection commits. Every side keeps its anchors evenly spaced, so adding
// or removing one re-spaces its siblings.
//
// The packages split that behavior into small, separately testable parts:
//
//  1. [anchor] - Per-node ordered input and output anchors
//  2. [layout] - Evenly spaced positions along a node side
//  3. [session] - The drag-to-connect state machine
//  4. [hittest] - Which node lies under the pointer
//  5. [rendersync] - Batching changed nodes into one render per frame
//  6. [canvas] - The controller composing all of the above
//
// # Architecture
//
// A pointer gesture flows through the packages like this:
//
//	pointer down / move / up
//	         ↓
//	    [canvas] Controller (host event entry point)
//	         ↓
//	    [session] transitions, [hittest] lookups
//	         ↓
//	    [anchor] Store mutations, re-spaced by [layout]
//	         ↓
//	    [rendersync] Bridge.Mark, then Flush once per frame
//
// Nothing in the core is global: every canvas owns its store, session, index
// and bridge, and none of them lock. Hosts that share a canvas between
// goroutines serialize access themselves, as [server] does per canvas.
//
// # Quick Start
//
//	c := canvas.New(canvas.Options{})
//	c.RegisterSync(func(ids []string) { redraw(ids) })
//
//	c.RegisterBounds("db", hittest.Rect{X: 0, Y: 0, Width: 120, Height: 56})
//	c.RegisterBounds("psi", hittest.Rect{X: 300, Y: 0, Width: 120, Height: 64})
//
//	c.StartConnecting("db", "")
//	c.HandleMove(350, 30)     // hovering psi: provisional input appears
//	c.Drop("", "edge-1")      // commit on the hovered node
//	c.EndConnecting()         // prune anything left dangling
//	c.Flush()                 // redraw(["psi", "db"])
//
// # Supporting Packages
//
// [flow] - The palette: data source and compute task types, drag payloads,
// node placement.
//
// [server] - HTTP host for many canvases; each request is one frame.
//
// [render/nodelink] - Graphviz export of a canvas snapshot. [render] converts
// the SVG to PDF or PNG, and [cache] keeps rendered SVG by content hash.
//
// [config] - TOML configuration file. [errors] - Error codes shared by the
// CLI and the HTTP API. [observability] - Hooks for logging and metrics.
// [buildinfo] - Version information.
//
// [anchor]: https://pkg.go.dev/github.com/matzehuels/taskcanvas/pkg/anchor
// [layout]: https://pkg.go.dev/github.com/matzehuels/taskcanvas/pkg/layout
// [session]: https://pkg.go.dev/github.com/matzehuels/taskcanvas/pkg/session
// [hittest]: https://pkg.go.dev/github.com/matzehuels/taskcanvas/pkg/hittest
// [rendersync]: https://pkg.go.dev/github.com/matzehuels/taskcanvas/pkg/rendersync
// [canvas]: https://pkg.go.dev/github.com/matzehuels/taskcanvas/pkg/canvas
// [flow]: https://pkg.go.dev/github.com/matzehuels/taskcanvas/pkg/flow
// [server]: https://pkg.go.dev/github.com/matzehuels/taskcanvas/pkg/server
// [render]: https://pkg.go.dev/github.com/matzehuels/taskcanvas/pkg/render
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/taskcanvas/pkg/render/nodelink
// [cache]: https://pkg.go.dev/github.com/matzehuels/taskcanvas/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/taskcanvas/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/taskcanvas/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/taskcanvas/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/taskcanvas/pkg/buildinfo
package pkg
