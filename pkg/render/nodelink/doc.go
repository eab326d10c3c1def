// Package nodelink exports a canvas as a Graphviz node-link diagram.
//
// The export is a diagnostic view of anchor bookkeeping: every node is a
// record with one port per anchor, so the diagram shows exactly which anchors
// exist, in which order, and which edges they carry.
//
//	dot := nodelink.ToDOT(c.Snapshot(), nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering; no Graphviz installation is needed.
package nodelink
