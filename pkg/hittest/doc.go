// Package hittest resolves pointer coordinates to canvas nodes.
//
// An [Index] caches one axis-aligned rectangle per rendered node. Sampling
// every node's geometry is comparatively expensive, so the cache is refreshed
// on demand: once per [Index.HitTest] call rather than on every frame. This
// keeps results correct after the viewport scrolls or zooms without polling.
//
// Rectangles are widened by a tolerance margin on all four sides before the
// containment check so the user does not have to land precisely on the node.
// When expanded rectangles overlap, the node registered first wins. This is
// not z-order correct; it matches how the canvas registers nodes on mount.
package hittest
