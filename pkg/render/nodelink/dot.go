package nodelink

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/graph"
	"github.com/matzehuels/nextstep/pkg/rank"
	"github.com/matzehuels/nextstep/pkg/render"
	"github.com/matzehuels/nextstep/pkg/sequence"
)

// Options configures neighborhood rendering.
type Options struct {
	// Detailed adds transition counts and ranks to the edge labels.
	Detailed bool
	// MaxNeighbors keeps only the empirically most likely neighbors.
	// Zero keeps all.
	MaxNeighbors int
}

// Neighbor is one observed next step of the rendered node.
type Neighbor struct {
	Label     string
	Count     int
	Empirical float64
	// EmpiricalRank is 1 for the most frequent next step.
	EmpiricalRank int
	// Predicted and PredictedRank are zero when no prediction was given
	// or the prediction leaves the neighbor unranked.
	Predicted     float64
	PredictedRank int
}

// Neighborhood is a node and its observed next steps in slot order.
type Neighborhood struct {
	Node        string
	Volume      int
	HasForecast bool
	Neighbors   []Neighbor
}

// FromNode builds the neighborhood of id from model. predicted may be nil;
// otherwise it must hold one weight per neighbor slot.
func FromNode(model *sequence.Model, id graph.NodeID, predicted []float64) (Neighborhood, error) {
	empirical, err := model.Distribution(id)
	if err != nil {
		return Neighborhood{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "node %q", model.Interner().Label(id))
	}
	if predicted != nil && len(predicted) != len(empirical) {
		return Neighborhood{}, errors.New(errors.ErrCodeInvalidInput,
			"predicted has %d entries, node has %d neighbors", len(predicted), len(empirical))
	}

	emp := rank.Rank(empirical)
	var pred rank.Ranking
	if predicted != nil {
		pred = rank.Rank(rank.Normalize(predicted))
	}

	adj := model.Graph().Adjacency(id)
	nb := Neighborhood{
		Node:        model.Interner().Label(id),
		Volume:      model.Volume(id),
		HasForecast: predicted != nil,
		Neighbors:   make([]Neighbor, len(adj)),
	}
	for i, e := range adj {
		n := Neighbor{
			Label:         model.Interner().Label(e.To),
			Count:         e.Count,
			Empirical:     empirical[i],
			EmpiricalRank: emp.Ranks[i],
		}
		if predicted != nil {
			n.Predicted = pred.Probs[i]
			n.PredictedRank = pred.Ranks[i]
		}
		nb.Neighbors[i] = n
	}
	return nb, nil
}

// ToDOT converts a neighborhood to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
func ToDOT(nb Neighborhood, opts Options) string {
	neighbors := visible(nb.Neighbors, opts.MaxNeighbors)

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=18, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=12];\n")
	buf.WriteString("  ranksep=1.2;\n")
	buf.WriteString("  nodesep=0.2;\n")
	buf.WriteString("\n")

	src := "n:" + nb.Node
	fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=lightblue];\n", src, fmt.Sprintf("%s\n%d transitions", nb.Node, nb.Volume))
	for _, n := range neighbors {
		fmt.Fprintf(&buf, "  %q [%s];\n", neighborID(n), nodeAttrs(nb, n))
	}

	buf.WriteString("\n")
	for _, n := range neighbors {
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", src, neighborID(n), edgeAttrs(nb, n, opts.Detailed))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func visible(ns []Neighbor, limit int) []Neighbor {
	if limit <= 0 || limit >= len(ns) {
		return ns
	}
	out := slices.Clone(ns)
	slices.SortStableFunc(out, func(a, b Neighbor) int {
		return cmp.Compare(a.EmpiricalRank, b.EmpiricalRank)
	})
	return out[:limit]
}

// neighborID keeps a self-loop target distinct from the source node.
func neighborID(n Neighbor) string { return "t:" + n.Label }

func nodeAttrs(nb Neighborhood, n Neighbor) string {
	attrs := fmt.Sprintf("label=%q", n.Label)
	if nb.HasForecast && n.PredictedRank == 1 {
		color := "orange"
		if n.EmpiricalRank == 1 {
			color = "palegreen"
		}
		attrs += ", fillcolor=" + color
	}
	if n.EmpiricalRank == 1 {
		attrs += ", penwidth=2"
	}
	return attrs
}

func edgeAttrs(nb Neighborhood, n Neighbor, detailed bool) string {
	label := fmt.Sprintf("p=%.2f", n.Empirical)
	if nb.HasForecast {
		label += fmt.Sprintf(" q=%.2f", n.Predicted)
	}
	if detailed {
		label += fmt.Sprintf("\nn=%d rank=%d", n.Count, n.EmpiricalRank)
		if nb.HasForecast {
			label += "/" + predictedRank(n)
		}
	}
	return fmt.Sprintf("label=%q, penwidth=%.2f", label, 0.5+4*n.Empirical)
}

func predictedRank(n Neighbor) string {
	if n.PredictedRank == 0 {
		return "-"
	}
	return strconv.Itoa(n.PredictedRank)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the root svg tag with one whose viewBox starts
// at the origin and whose width and height match it.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion at the given scale.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
