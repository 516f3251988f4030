package graph

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddEdge(t *testing.T) {
	s := New(0)
	require.NoError(t, s.AddEdge(0, 1, 1))
	require.NoError(t, s.AddEdge(0, 2, 1))
	require.NoError(t, s.AddEdge(2, 1, 1))

	assert.Equal(t, 3, s.NumNodes())
	assert.Equal(t, 3, s.NumEdges())
	assert.Equal(t, 3, s.TotalTransitions())
	assert.Equal(t, []NodeID{1, 2}, s.OutLinks(0))
	assert.Equal(t, []float64{1, 1}, s.Weights(0))
	assert.Equal(t, 2, s.InDegree(1))
	assert.Equal(t, 1, s.InDegree(2))
	assert.Equal(t, 0, s.InDegree(0))
}

func TestAddEdgeGrowsIDSpace(t *testing.T) {
	s := New(0)
	require.NoError(t, s.AddEdge(5, 2, 1))
	assert.Equal(t, 6, s.NumNodes())
	assert.Nil(t, s.OutLinks(4))
	assert.Equal(t, 1, s.OutDegree(5))
}

func TestAddEdgeDuplicatesCollapse(t *testing.T) {
	s := New(0)
	require.NoError(t, s.AddEdge(0, 1, 1))
	require.NoError(t, s.AddEdge(0, 2, 1))
	require.NoError(t, s.AddEdge(0, 1, 1))

	adj := s.Adjacency(0)
	require.Len(t, adj, 2)
	assert.Equal(t, Edge{To: 1, Weight: 2, Count: 2}, adj[0])
	assert.Equal(t, Edge{To: 2, Weight: 1, Count: 1}, adj[1])

	assert.Equal(t, 3, s.OutDegree(0))
	assert.Equal(t, 2, s.NumNeighbors(0))
	assert.Equal(t, 2, s.NumEdges())
	assert.Equal(t, 3, s.TotalTransitions())
	assert.Equal(t, 2, s.InDegree(1))
}

func TestAddEdgeSelfLoop(t *testing.T) {
	s := New(0)
	require.NoError(t, s.AddEdge(0, 0, 1))
	assert.Equal(t, []NodeID{0}, s.OutLinks(0))
	assert.Equal(t, 1, s.InDegree(0))
	assert.Equal(t, 1, s.OutDegree(0))
}

func TestAddEdgeRejects(t *testing.T) {
	s := New(0)
	assert.ErrorIs(t, s.AddEdge(-1, 0, 1), ErrNegativeNodeID)
	assert.ErrorIs(t, s.AddEdge(0, -1, 1), ErrNegativeNodeID)
	assert.ErrorIs(t, s.AddEdge(0, 1, -1), ErrInvalidWeight)
	assert.ErrorIs(t, s.AddEdge(0, 1, math.NaN()), ErrInvalidWeight)
	assert.ErrorIs(t, s.AddEdge(0, 1, math.Inf(1)), ErrInvalidWeight)
	assert.Zero(t, s.NumNodes())
}

func TestSlotIndexPreservesOrder(t *testing.T) {
	s := New(0)
	const n = 3 * indexThreshold
	for i := 1; i <= n; i++ {
		require.NoError(t, s.AddEdge(0, NodeID(i), 1))
	}
	for i := n; i >= 1; i-- {
		require.NoError(t, s.AddEdge(0, NodeID(i), 1))
	}

	links := s.OutLinks(0)
	require.Len(t, links, n)
	for i, to := range links {
		assert.Equal(t, NodeID(i+1), to)
		slot, ok := s.Slot(0, to)
		require.True(t, ok)
		assert.Equal(t, i, slot)
	}
	for _, e := range s.Adjacency(0) {
		assert.Equal(t, 2, e.Count)
	}
}

func TestEnsureNode(t *testing.T) {
	s := New(0)
	require.NoError(t, s.EnsureNode(3))
	assert.Equal(t, 4, s.NumNodes())
	assert.Zero(t, s.NumEdges())
	assert.ErrorIs(t, s.EnsureNode(-2), ErrNegativeNodeID)
}

func TestOutOfRangeReads(t *testing.T) {
	s := New(0)
	require.NoError(t, s.AddEdge(0, 1, 1))

	assert.Nil(t, s.OutLinks(99))
	assert.Nil(t, s.Weights(-1))
	assert.Nil(t, s.Adjacency(99))
	assert.Zero(t, s.InDegree(99))
	assert.Zero(t, s.OutDegree(-3))
	assert.Zero(t, s.NumNeighbors(99))
	_, ok := s.Slot(99, 0)
	assert.False(t, ok)
	_, ok = s.Slot(0, 7)
	assert.False(t, ok)
}

func TestSetWeight(t *testing.T) {
	s := New(0)
	require.NoError(t, s.AddEdge(0, 1, 1))
	require.NoError(t, s.AddEdge(0, 2, 1))
	v := s.Version()

	require.NoError(t, s.SetWeight(0, 1, 0.25))
	assert.Equal(t, []float64{1, 0.25}, s.Weights(0))
	assert.Equal(t, []NodeID{1, 2}, s.OutLinks(0))
	assert.Greater(t, s.Version(), v)

	assert.ErrorIs(t, s.SetWeight(9, 0, 1), ErrNodeOutOfRange)
	assert.ErrorIs(t, s.SetWeight(0, 2, 1), ErrSlotOutOfRange)
	assert.ErrorIs(t, s.SetWeight(0, -1, 1), ErrSlotOutOfRange)
	assert.ErrorIs(t, s.SetWeight(0, 0, -1), ErrInvalidWeight)
}

func TestFreeze(t *testing.T) {
	s := New(0)
	require.NoError(t, s.AddEdge(0, 1, 1))
	require.NoError(t, s.SetWeight(0, 0, 4))

	snap := s.Freeze()
	assert.True(t, snap.Frozen())
	assert.False(t, s.Frozen())
	assert.Equal(t, s.Version(), snap.Version())

	assert.ErrorIs(t, snap.SetWeight(0, 0, 1), ErrFrozen)
	assert.ErrorIs(t, snap.AddEdge(0, 1, 1), ErrFrozen)
	assert.ErrorIs(t, snap.EnsureNode(5), ErrFrozen)

	// Mutating the live store must not leak into the snapshot.
	require.NoError(t, s.SetWeight(0, 0, 9))
	require.NoError(t, s.AddEdge(0, 2, 1))
	assert.Equal(t, []float64{4}, snap.Weights(0))
	assert.Equal(t, 1, snap.NumNeighbors(0))
}

func TestCloneIsMutable(t *testing.T) {
	s := New(0)
	for i := 1; i <= indexThreshold+1; i++ {
		require.NoError(t, s.AddEdge(0, NodeID(i), 1))
	}
	c := s.Freeze().Clone()
	assert.False(t, c.Frozen())
	require.NoError(t, c.AddEdge(0, 1, 1))
	assert.Equal(t, 2, c.Adjacency(0)[0].Count)
	assert.Equal(t, 1, s.Adjacency(0)[0].Count)
}

func TestAdjacencyReturnsCopy(t *testing.T) {
	s := New(0)
	require.NoError(t, s.AddEdge(0, 1, 1))
	adj := s.Adjacency(0)
	adj[0].Weight = 100
	assert.Equal(t, []float64{1}, s.Weights(0))
}

func TestSources(t *testing.T) {
	s := New(0)
	require.NoError(t, s.AddEdge(2, 0, 1))
	require.NoError(t, s.AddEdge(0, 1, 1))
	assert.Equal(t, []NodeID{0, 2}, s.Sources())
}

func TestFrozenConcurrentReads(t *testing.T) {
	s := New(0)
	for i := 0; i < 50; i++ {
		require.NoError(t, s.AddEdge(NodeID(i%5), NodeID(i), 1))
	}
	snap := s.Freeze()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := 0; id < 5; id++ {
				_ = snap.Adjacency(NodeID(id))
				_ = snap.OutDegree(NodeID(id))
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, snap.TotalTransitions())
}
