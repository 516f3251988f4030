package importance

import (
	"context"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/graph"
)

// Defaults for PowerIteration.
const (
	DefaultEpsilon       = 1e-10
	DefaultMaxIterations = 1000
)

// Method names accepted by New.
const (
	MethodWeighted = "weighted"
	MethodGonum    = "gonum"
)

// Calculator computes one importance score per node id.
type Calculator interface {
	Calculate(ctx context.Context, g *graph.Store) ([]float64, error)
}

// Stats describes how a power iteration terminated.
type Stats struct {
	Iterations int
	Residual   float64
	Converged  bool
}

// PowerIteration is weighted PageRank by power iteration.
type PowerIteration struct {
	// Teleport is the probability of jumping to a uniformly random node.
	Teleport float64
	// Epsilon is the L1 change below which iteration stops.
	Epsilon float64
	// MaxIterations caps the number of iterations.
	MaxIterations int
	// Weighted follows edges in proportion to their weight. When false,
	// every distinct neighbor is equally likely.
	Weighted bool
}

// New returns a calculator for method with the given teleport probability.
// An empty method selects the weighted power iteration.
func New(method string, teleport float64) (Calculator, error) {
	if err := errors.ValidateProbability("teleport", teleport); err != nil {
		return nil, err
	}
	switch strings.ToLower(method) {
	case "", MethodWeighted:
		return &PowerIteration{Teleport: teleport, Weighted: true}, nil
	case MethodGonum:
		return &Network{Damping: 1 - teleport}, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown importance method %q (want %s or %s)",
			method, MethodWeighted, MethodGonum)
	}
}

// Calculate runs the iteration from the uniform vector.
func (p *PowerIteration) Calculate(ctx context.Context, g *graph.Store) ([]float64, error) {
	v, _, err := p.CalculateFrom(ctx, g, nil)
	return v, err
}

// CalculateFrom runs the iteration from start, which is copied. A nil or
// wrongly sized start is replaced by the uniform vector. The result sums
// to 1 over all nodes.
func (p *PowerIteration) CalculateFrom(ctx context.Context, g *graph.Store, start []float64) ([]float64, Stats, error) {
	n := g.NumNodes()
	if n == 0 {
		return nil, Stats{Converged: true}, nil
	}
	eps := p.Epsilon
	if eps <= 0 {
		eps = DefaultEpsilon
	}
	maxIter := p.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	cur := make([]float64, n)
	if len(start) == n && floats.Sum(start) > 0 {
		copy(cur, start)
		floats.Scale(1/floats.Sum(cur), cur)
	} else {
		floats.AddConst(1/float64(n), cur)
	}

	totals := make([]float64, n)
	for u := range totals {
		for _, e := range g.Adjacency(graph.NodeID(u)) {
			totals[u] += p.edgeWeight(e)
		}
	}

	next := make([]float64, n)
	follow := 1 - p.Teleport
	var st Stats
	for st.Iterations < maxIter {
		if err := ctx.Err(); err != nil {
			return nil, st, err
		}
		st.Iterations++

		dangling := 0.0
		for u, t := range totals {
			if t == 0 {
				dangling += cur[u]
			}
		}
		base := (p.Teleport + follow*dangling) / float64(n)
		for i := range next {
			next[i] = base
		}
		for u, t := range totals {
			if t == 0 || cur[u] == 0 {
				continue
			}
			share := follow * cur[u] / t
			for _, e := range g.Adjacency(graph.NodeID(u)) {
				next[e.To] += share * p.edgeWeight(e)
			}
		}

		st.Residual = floats.Distance(next, cur, 1)
		cur, next = next, cur
		if st.Residual < eps {
			st.Converged = true
			break
		}
	}
	return cur, st, nil
}

func (p *PowerIteration) edgeWeight(e graph.Edge) float64 {
	if p.Weighted {
		return e.Weight
	}
	return 1
}

// Network is an adapter over gonum's network.PageRank. Edge weights and
// self-loops are ignored.
type Network struct {
	// Damping is the probability of following an out-link.
	Damping float64
	// Tolerance is the convergence tolerance. Zero means 1e-8.
	Tolerance float64
}

// Calculate builds a simple directed graph from g and ranks it.
func (nw *Network) Calculate(ctx context.Context, g *graph.Store) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := g.NumNodes()
	if n == 0 {
		return nil, nil
	}
	tol := nw.Tolerance
	if tol <= 0 {
		tol = 1e-8
	}

	dg := simple.NewDirectedGraph()
	for i := 0; i < n; i++ {
		dg.AddNode(simple.Node(i))
	}
	for u := 0; u < n; u++ {
		for _, to := range g.OutLinks(graph.NodeID(u)) {
			if int(to) == u {
				continue
			}
			dg.SetEdge(simple.Edge{F: simple.Node(u), T: simple.Node(to)})
		}
	}

	ranks := network.PageRank(dg, nw.Damping, tol)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for id, r := range ranks {
		if math.IsNaN(r) {
			return nil, errors.New(errors.ErrCodeInternal, "pagerank diverged at node %d", id)
		}
		out[id] = r
	}
	return out, nil
}
