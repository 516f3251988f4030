// Package learn fits edge weights so that the stationary distribution of the
// weighted transition graph approaches a target distribution.
//
// The [Learner] owns a mutable handle to the weight slots of a live
// [graph.Store]. Each call to [Learner.Learn] runs several independently
// seeded replications, averages their weights slot by slot, writes the
// average back through [graph.Store.SetWeight] and returns a frozen
// snapshot. Evaluation only ever sees that snapshot.
//
// A replication alternates two steps until the residual between the
// stationary vector and the target drops below the tolerance or the
// iteration budget runs out:
//
//  1. Compute the weighted PageRank with the configured teleport.
//  2. Scale every edge u→v by (target[v] / pr[v])^rate, then apply the
//     regularisation policy.
package learn

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/floats"

	"github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/graph"
	"github.com/matzehuels/nextstep/pkg/importance"
)

// Defaults for Learner fields left at zero.
const (
	DefaultRate       = 0.5
	DefaultIterations = 50
	DefaultTolerance  = 1e-9
)

const (
	minWeight = 1e-12
	maxWeight = 1e12
)

// Policy selects how weights are regularised after each update.
type Policy int

const (
	// None applies no regularisation.
	None Policy = iota
	// L2 pulls every weight toward 1.
	L2
	// Oracle pulls every weight toward its observed transition count.
	Oracle
)

var policyNames = [...]string{None: "none", L2: "l2", Oracle: "oracle"}

func (p Policy) String() string {
	if p < 0 || int(p) >= len(policyNames) {
		return fmt.Sprintf("Policy(%d)", int(p))
	}
	return policyNames[p]
}

// ParsePolicy parses a policy name as produced by String.
func ParsePolicy(s string) (Policy, error) {
	for i, name := range policyNames {
		if strings.EqualFold(s, name) {
			return Policy(i), nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidConfig, "unknown regularization policy %q (want none, l2 or oracle)", s)
}

func (p Policy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Policy) UnmarshalText(text []byte) error {
	v, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Learner fits the weights of a live store.
type Learner struct {
	// Teleport is the PageRank teleport probability used while fitting.
	Teleport float64
	// Rate is the exponent of the multiplicative update.
	Rate float64
	// Iterations caps the updates per replication.
	Iterations int
	// Tolerance stops a replication once the L1 residual drops below it.
	Tolerance float64
	// Seed drives the random initial weights.
	Seed uint64
	// Logger receives progress. Defaults to a discard logger.
	Logger *log.Logger

	store    *graph.Store
	target   []float64
	strength float64
	policy   Policy
}

// New creates a learner over store. target is indexed by node id and
// must cover every node of the store.
func New(store *graph.Store, target []float64, teleport float64) (*Learner, error) {
	if store == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "learner needs a store")
	}
	if store.Frozen() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "learner needs a live store, got a frozen snapshot")
	}
	if len(target) != store.NumNodes() {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"target has %d entries, store has %d nodes", len(target), store.NumNodes())
	}
	if err := errors.ValidateProbability("teleport", teleport); err != nil {
		return nil, err
	}
	return &Learner{
		Teleport: teleport,
		store:    store,
		target:   target,
	}, nil
}

// SetRegularization configures the regularisation strength and policy.
// A strength of zero disables regularisation regardless of policy.
func (l *Learner) SetRegularization(strength float64, policy Policy) {
	l.strength = max(0, strength)
	l.policy = policy
}

// Regularization returns the configured strength and policy.
func (l *Learner) Regularization() (float64, Policy) {
	return l.strength, l.policy
}

// Learn runs replications and returns a frozen snapshot of the averaged
// weights. When verbose is set, per-iteration residuals are logged at debug
// level.
func (l *Learner) Learn(ctx context.Context, replications int, verbose bool) (*graph.Store, error) {
	if replications < 1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "replications must be at least 1, got %d", replications)
	}
	l.setDefaults()

	sum := make([][]float64, l.store.NumNodes())
	for u := range sum {
		sum[u] = make([]float64, l.store.NumNeighbors(graph.NodeID(u)))
	}

	start := time.Now()
	for r := 0; r < replications; r++ {
		weights, residual, err := l.replicate(ctx, r, verbose)
		if err != nil {
			return nil, err
		}
		for u := range sum {
			floats.Add(sum[u], weights[u])
		}
		l.Logger.Debug("replication done", "replication", r+1, "residual", residual)
	}

	for u, ws := range sum {
		floats.Scale(1/float64(replications), ws)
		for slot, w := range ws {
			if err := l.store.SetWeight(graph.NodeID(u), slot, w); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "write weight %d/%d", u, slot)
			}
		}
	}

	snap := l.store.Freeze()
	l.Logger.Info("learned weights",
		"replications", replications,
		"edges", snap.NumEdges(),
		"version", snap.Version(),
		"duration", time.Since(start))
	return snap, nil
}

func (l *Learner) setDefaults() {
	if l.Rate <= 0 {
		l.Rate = DefaultRate
	}
	if l.Iterations <= 0 {
		l.Iterations = DefaultIterations
	}
	if l.Tolerance <= 0 {
		l.Tolerance = DefaultTolerance
	}
	if l.Logger == nil {
		l.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// replicate fits one seeded replication on a private clone and returns its
// weights indexed [node][slot] together with the final residual.
func (l *Learner) replicate(ctx context.Context, r int, verbose bool) ([][]float64, float64, error) {
	work := l.store.Clone()
	rng := rand.New(rand.NewPCG(l.Seed, uint64(r)))
	n := work.NumNodes()

	weights := make([][]float64, n)
	counts := make([][]float64, n)
	for u := 0; u < n; u++ {
		adj := work.Adjacency(graph.NodeID(u))
		weights[u] = make([]float64, len(adj))
		counts[u] = make([]float64, len(adj))
		for slot, e := range adj {
			weights[u][slot] = 0.5 + rng.Float64()
			counts[u][slot] = float64(e.Count)
		}
	}
	if err := apply(work, weights); err != nil {
		return nil, 0, err
	}

	pi := &importance.PowerIteration{Teleport: l.Teleport, Weighted: true}
	var pr []float64
	residual := math.Inf(1)
	for it := 1; it <= l.Iterations; it++ {
		var err error
		pr, _, err = pi.CalculateFrom(ctx, work, pr)
		if err != nil {
			return nil, 0, err
		}
		residual = floats.Distance(pr, l.target, 1)
		if verbose {
			l.Logger.Debug("learn iteration", "replication", r+1, "iteration", it, "residual", residual)
		}
		if residual < l.Tolerance {
			break
		}

		for u := range weights {
			adj := work.Adjacency(graph.NodeID(u))
			for slot, e := range adj {
				w := weights[u][slot] * l.factor(e.To, pr)
				weights[u][slot] = clamp(l.regularize(w, counts[u][slot]))
			}
		}
		if err := apply(work, weights); err != nil {
			return nil, 0, err
		}
	}
	return weights, residual, nil
}

func (l *Learner) factor(v graph.NodeID, pr []float64) float64 {
	t, p := l.target[v], pr[v]
	switch {
	case p <= 0:
		return 1
	case t <= 0:
		return math.Pow(minWeight, l.Rate)
	}
	return math.Pow(t/p, l.Rate)
}

func (l *Learner) regularize(w, count float64) float64 {
	if l.strength == 0 {
		return w
	}
	switch l.policy {
	case L2:
		return w - l.strength*(w-1)
	case Oracle:
		return w + l.strength*(count-w)
	}
	return w
}

func clamp(w float64) float64 {
	if math.IsNaN(w) {
		return minWeight
	}
	return math.Min(maxWeight, math.Max(minWeight, w))
}

func apply(s *graph.Store, weights [][]float64) error {
	for u, ws := range weights {
		for slot, w := range ws {
			if err := s.SetWeight(graph.NodeID(u), slot, w); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "set weight %d/%d", u, slot)
			}
		}
	}
	return nil
}
