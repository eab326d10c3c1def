// Package server exposes canvases over HTTP.
//
// Each canvas is an independent [canvas.Controller] addressed by a UUID.
// Requests against one canvas are serialized, and every request is treated as
// one render frame: the handler applies its mutation, flushes the render-sync
// bridge, and reports the node ids that were synced.
//
// # Routes
//
//	GET    /healthz
//	POST   /canvases                                   create a canvas
//	GET    /canvases                                   list canvas ids
//	GET    /canvases/{canvas}                          snapshot
//	DELETE /canvases/{canvas}                          close and forget
//	POST   /canvases/{canvas}/reset
//	GET    /canvases/{canvas}/export.dot               Graphviz source
//	GET    /canvases/{canvas}/export.svg               rendered diagram (cached)
//
//	POST   /canvases/{canvas}/nodes                    place a palette item
//	PUT    /canvases/{canvas}/nodes/{node}/bounds      register bounds
//	DELETE /canvases/{canvas}/nodes/{node}             remove node and its edges
//	GET    /canvases/{canvas}/nodes/{node}/anchors     anchors incl. provisional
//	POST   /canvases/{canvas}/nodes/{node}/anchors     create anchor
//	DELETE /canvases/{canvas}/nodes/{node}/anchors/{handle}
//	DELETE /canvases/{canvas}/nodes/{node}/edges/{edge}
//	POST   /canvases/{canvas}/nodes/{node}/prune
//
//	POST   /canvases/{canvas}/connect/start            {"nodeId", "handleId"}
//	POST   /canvases/{canvas}/connect/move             {"x", "y"}
//	POST   /canvases/{canvas}/connect/drop             {"nodeId", "edgeId"}
//	POST   /canvases/{canvas}/connect/end
//
// # Render Sync
//
// When [Options.Redis] is set, every canvas publishes its flushed batches to
// "<channel>:<canvas>" so a renderer in another process can recompute edge
// paths.
//
// # Export Cache
//
// Rendered SVG is stored in [Options.Cache] under the hash of its DOT source,
// so repeated exports of an unchanged canvas skip Graphviz.
//
// # Errors
//
// Failures are returned as {"error": {"code", "message"}} with the status
// given by [errors.Code.HTTPStatus].
package server
