package learn

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/graph"
)

// hub 0 fans out to 1 (twice) and 2; both return to 0.
func hub(t *testing.T) *graph.Store {
	t.Helper()
	s := graph.New(3)
	for _, e := range [][2]graph.NodeID{{0, 1}, {0, 1}, {0, 2}, {1, 0}, {2, 0}} {
		require.NoError(t, s.AddEdge(e[0], e[1], 1))
	}
	return s
}

func TestNewValidates(t *testing.T) {
	s := hub(t)
	_, err := New(nil, nil, 0.1)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	_, err = New(s.Freeze(), []float64{1, 0, 0}, 0.1)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	_, err = New(s, []float64{1}, 0.1)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	_, err = New(s, []float64{1, 0, 0}, 0)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}

func TestLearnMovesTowardTarget(t *testing.T) {
	s := hub(t)
	l, err := New(s, []float64{0.5, 0.3, 0.2}, 0.1)
	require.NoError(t, err)
	l.Seed = 7

	snap, err := l.Learn(context.Background(), 3, true)
	require.NoError(t, err)
	require.True(t, snap.Frozen())

	assert.Equal(t, []graph.NodeID{1, 2}, snap.OutLinks(0))
	ws := snap.Weights(0)
	assert.Greater(t, ws[0], ws[1])
	for u := 0; u < snap.NumNodes(); u++ {
		for _, w := range snap.Weights(graph.NodeID(u)) {
			assert.False(t, math.IsNaN(w) || math.IsInf(w, 0))
			assert.Greater(t, w, 0.0)
		}
	}
	assert.Equal(t, snap.Version(), s.Version())
	assert.Equal(t, s.Weights(0), snap.Weights(0))
}

func TestLearnDeterministic(t *testing.T) {
	target := []float64{0.5, 0.3, 0.2}
	run := func() []float64 {
		l, err := New(hub(t), target, 0.2)
		require.NoError(t, err)
		l.Seed = 11
		snap, err := l.Learn(context.Background(), 2, false)
		require.NoError(t, err)
		return snap.Weights(0)
	}
	assert.Equal(t, run(), run())
}

func TestLearnRegularization(t *testing.T) {
	target := []float64{0.5, 0.3, 0.2}

	l, err := New(hub(t), target, 0.1)
	require.NoError(t, err)
	l.SetRegularization(1, Oracle)
	snap, err := l.Learn(context.Background(), 2, false)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2, 1}, snap.Weights(0), 1e-12)

	l, err = New(hub(t), target, 0.1)
	require.NoError(t, err)
	l.SetRegularization(1, L2)
	snap, err = l.Learn(context.Background(), 1, false)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 1}, snap.Weights(0), 1e-12)

	strength, policy := l.Regularization()
	assert.Equal(t, 1.0, strength)
	assert.Equal(t, L2, policy)
}

func TestLearnErrors(t *testing.T) {
	l, err := New(hub(t), []float64{0.5, 0.3, 0.2}, 0.1)
	require.NoError(t, err)

	_, err = l.Learn(context.Background(), 0, false)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Learn(ctx, 1, false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPolicyText(t *testing.T) {
	for _, p := range []Policy{None, L2, Oracle} {
		text, err := p.MarshalText()
		require.NoError(t, err)
		var got Policy
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, p, got)
	}
	_, err := ParsePolicy("l1")
	assert.Error(t, err)
	assert.Equal(t, "Policy(7)", Policy(7).String())
}
