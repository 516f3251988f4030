package importance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/graph"
)

func store(t *testing.T, edges ...[3]float64) *graph.Store {
	t.Helper()
	s := graph.New(0)
	for _, e := range edges {
		require.NoError(t, s.AddEdge(graph.NodeID(e[0]), graph.NodeID(e[1]), e[2]))
	}
	return s
}

func TestPowerIterationCycle(t *testing.T) {
	g := store(t, [3]float64{0, 1, 1}, [3]float64{1, 2, 1}, [3]float64{2, 0, 1})
	pr, err := (&PowerIteration{Teleport: 0.15, Weighted: true}).Calculate(context.Background(), g)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}, pr, 1e-9)
}

func TestPowerIterationDangling(t *testing.T) {
	// Star into node 0, which has no out-links.
	g := store(t, [3]float64{1, 0, 1}, [3]float64{2, 0, 1}, [3]float64{3, 0, 1})
	pi := &PowerIteration{Teleport: 0.2, Weighted: true}
	pr, stats, err := pi.CalculateFrom(context.Background(), g, nil)
	require.NoError(t, err)
	assert.True(t, stats.Converged)
	assert.InDelta(t, 1.0, floats.Sum(pr), 1e-9)
	assert.Equal(t, 0, floats.MaxIdx(pr))
	assert.InDelta(t, pr[1], pr[2], 1e-12)
}

func TestPowerIterationWeighted(t *testing.T) {
	g := store(t,
		[3]float64{0, 1, 3}, [3]float64{0, 2, 1},
		[3]float64{1, 0, 1}, [3]float64{2, 0, 1},
	)
	ctx := context.Background()

	weighted, err := (&PowerIteration{Teleport: 0.1, Weighted: true}).Calculate(ctx, g)
	require.NoError(t, err)
	assert.Greater(t, weighted[1], weighted[2])

	plain, err := (&PowerIteration{Teleport: 0.1}).Calculate(ctx, g)
	require.NoError(t, err)
	assert.InDelta(t, plain[1], plain[2], 1e-12)
}

func TestPowerIterationWarmStart(t *testing.T) {
	g := store(t, [3]float64{0, 1, 1}, [3]float64{1, 0, 1}, [3]float64{1, 2, 1})
	pi := &PowerIteration{Teleport: 0.1, Weighted: true}
	ctx := context.Background()

	cold, coldStats, err := pi.CalculateFrom(ctx, g, nil)
	require.NoError(t, err)
	warm, warmStats, err := pi.CalculateFrom(ctx, g, cold)
	require.NoError(t, err)
	assert.InDeltaSlice(t, cold, warm, 1e-9)
	assert.LessOrEqual(t, warmStats.Iterations, coldStats.Iterations)
}

func TestPowerIterationMaxIterations(t *testing.T) {
	g := store(t, [3]float64{0, 1, 1}, [3]float64{1, 2, 1})
	_, stats, err := (&PowerIteration{Teleport: 0.01, MaxIterations: 1}).CalculateFrom(context.Background(), g, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Iterations)
}

func TestPowerIterationEmpty(t *testing.T) {
	pr, err := (&PowerIteration{Teleport: 0.1}).Calculate(context.Background(), graph.New(0))
	require.NoError(t, err)
	assert.Empty(t, pr)
}

func TestPowerIterationCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := store(t, [3]float64{0, 1, 1})
	_, err := (&PowerIteration{Teleport: 0.1}).Calculate(ctx, g)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNetworkCycle(t *testing.T) {
	g := store(t, [3]float64{0, 1, 1}, [3]float64{1, 2, 1}, [3]float64{2, 0, 1}, [3]float64{2, 2, 1})
	pr, err := (&Network{Damping: 0.85}).Calculate(context.Background(), g)
	require.NoError(t, err)
	require.Len(t, pr, 3)
	assert.InDeltaSlice(t, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}, pr, 1e-4)
}

func TestNew(t *testing.T) {
	c, err := New("", 0.2)
	require.NoError(t, err)
	assert.IsType(t, &PowerIteration{}, c)

	c, err = New("GONUM", 0.2)
	require.NoError(t, err)
	nw := c.(*Network)
	assert.InDelta(t, 0.8, nw.Damping, 1e-12)

	_, err = New("hits", 0.2)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))

	_, err = New(MethodWeighted, 1.5)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}
