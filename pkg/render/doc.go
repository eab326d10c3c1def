// Package render converts rendered canvas diagrams between output formats.
//
// The node-link diagram itself lives in [nodelink], which turns a canvas
// snapshot into Graphviz DOT and SVG. This package converts that SVG to PDF
// or PNG with the external rsvg-convert tool from librsvg:
//
//	svg, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(snap, opts))
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2) // 2x scale
//
// Without rsvg-convert on PATH the conversions fail with an UNSUPPORTED error.
package render
