// Package render provides visualization output for transition graphs.
//
// # Overview
//
// The [nodelink] subpackage draws the neighborhood of one node as a
// Graphviz diagram: the node, its observed next steps, and how a strategy
// ranks them against the empirical distribution.
//
//	nb, err := nodelink.FromNode(model, id, predicted)
//	dot := nodelink.ToDOT(nb, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
package render
