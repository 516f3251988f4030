// Package nodelink renders the neighborhood of a node as a node-link
// diagram.
//
// # Overview
//
// A [Neighborhood] pairs every observed next step of a node with its
// empirical probability and, optionally, the probability a strategy
// predicts for it. [ToDOT] turns it into Graphviz source with the source
// node on the left and one edge per neighbor:
//
//   - Edge thickness follows the empirical probability.
//   - The empirical top neighbor is drawn bold.
//   - When predictions are present the predicted top neighbor is filled,
//     green if it matches the empirical top and orange otherwise.
//
// # Usage
//
//	nb, err := nodelink.FromNode(model, id, weights)
//	dot := nodelink.ToDOT(nb, nodelink.Options{Detailed: true, MaxNeighbors: 20})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
