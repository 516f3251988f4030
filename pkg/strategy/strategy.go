// Package strategy generates predicted edge weights for a node's neighbors.
//
// Every strategy is a pure function of the node, its neighbor list and an
// [Env]. The returned slice is aligned with the neighbor order of the
// evaluated graph, so it can be handed straight to the metrics evaluator
// together with the empirical distribution of the same node.
package strategy

import (
	"math/rand/v2"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/graph"
	"github.com/matzehuels/nextstep/pkg/sequence"
)

// DefaultNeighborCacheSize bounds the number of memoised neighbor sets.
const DefaultNeighborCacheSize = 1 << 16

// Env carries the inputs strategies read from.
//
// An Env is safe for concurrent use by multiple goroutines once its fields
// are set, provided Graph is a frozen snapshot. It must not be copied after
// first use.
type Env struct {
	// Graph is the snapshot under evaluation. Learned reads its weights.
	Graph *graph.Store
	// Model provides popularity.
	Model *sequence.Model
	// Importance is indexed by node id.
	Importance []float64
	// External is indexed by node id. Nodes past its end weigh 0.
	External []float64
	// Seed drives Uniform.
	Seed uint64
	// NeighborCacheSize bounds the Jaccard neighbor-set memo.
	// Zero means DefaultNeighborCacheSize.
	NeighborCacheSize int

	once sync.Once
	sets *lru.Cache[graph.NodeID, *roaring.Bitmap]
}

// Generate returns the predicted weights of node's neighbors under kind.
// A node without neighbors yields an empty slice.
func Generate(kind Kind, env *Env, node graph.NodeID) ([]float64, error) {
	if env == nil || env.Graph == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "strategy %s: no graph", kind)
	}
	adj := env.Graph.Adjacency(node)
	ws := make([]float64, len(adj))

	switch kind {
	case Uniform:
		rng := rand.New(rand.NewPCG(env.Seed, uint64(node)))
		for i := range adj {
			ws[i] = rng.Float64()
		}
	case InDegree:
		for i, e := range adj {
			ws[i] = float64(env.Graph.InDegree(e.To))
		}
	case Jaccard:
		own := env.neighborSet(node)
		for i, e := range adj {
			ws[i] = jaccard(own, env.neighborSet(e.To))
		}
	case Popularity:
		if env.Model == nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "strategy %s: no model", kind)
		}
		for i, e := range adj {
			ws[i] = env.Model.Popularity(e.To)
		}
	case Importance:
		for i, e := range adj {
			if int(e.To) >= len(env.Importance) {
				return nil, errors.New(errors.ErrCodeInvalidInput,
					"strategy %s: no importance score for node %d (have %d)", kind, e.To, len(env.Importance))
			}
			ws[i] = env.Importance[e.To]
		}
	case Learned:
		for i, e := range adj {
			ws[i] = e.Weight
		}
	case External:
		for i, e := range adj {
			if int(e.To) < len(env.External) {
				ws[i] = env.External[e.To]
			}
		}
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown strategy %d", int(kind))
	}
	return ws, nil
}

func (env *Env) neighborSet(id graph.NodeID) *roaring.Bitmap {
	env.once.Do(func() {
		size := env.NeighborCacheSize
		if size <= 0 {
			size = DefaultNeighborCacheSize
		}
		env.sets, _ = lru.New[graph.NodeID, *roaring.Bitmap](size)
	})
	if bm, ok := env.sets.Get(id); ok {
		return bm
	}
	bm := roaring.New()
	for _, to := range env.Graph.OutLinks(id) {
		bm.Add(uint32(to))
	}
	bm.RunOptimize()
	env.sets.Add(id, bm)
	return bm
}

// jaccard returns |a∩b| / |a∪b|, or 0 when both sets are empty.
func jaccard(a, b *roaring.Bitmap) float64 {
	inter := a.AndCardinality(b)
	union := a.GetCardinality() + b.GetCardinality() - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
