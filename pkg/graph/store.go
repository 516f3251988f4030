package graph

import (
	"errors"
	"math"
	"slices"
)

var (
	// ErrNegativeNodeID is returned when a node identifier is below zero.
	ErrNegativeNodeID = errors.New("node ID must not be negative")

	// ErrNodeOutOfRange is returned by [Store.SetWeight] when the source node
	// does not exist in the id space.
	ErrNodeOutOfRange = errors.New("node out of range")

	// ErrSlotOutOfRange is returned by [Store.SetWeight] when the slot index is
	// not a valid position in the node's adjacency.
	ErrSlotOutOfRange = errors.New("edge slot out of range")

	// ErrInvalidWeight is returned when a weight is negative, NaN or infinite.
	ErrInvalidWeight = errors.New("weight must be finite and non-negative")

	// ErrFrozen is returned when a frozen snapshot is asked to mutate.
	ErrFrozen = errors.New("store is frozen")
)

// indexThreshold is the adjacency length from which a node gets a hash index
// for slot lookup. Shorter lists are scanned linearly.
const indexThreshold = 8

// NodeID is a dense, interned node identifier.
type NodeID int

// Edge is one out-edge slot: the neighbor, its current weight, and the number
// of transitions recorded between the pair.
type Edge struct {
	To     NodeID
	Weight float64
	Count  int
}

type adjacency struct {
	edges  []Edge
	index  map[NodeID]int
	volume int
}

func (a *adjacency) slot(to NodeID) (int, bool) {
	if a.index != nil {
		i, ok := a.index[to]
		return i, ok
	}
	for i := range a.edges {
		if a.edges[i].To == to {
			return i, true
		}
	}
	return 0, false
}

func (a *adjacency) append(e Edge) {
	a.edges = append(a.edges, e)
	switch {
	case a.index != nil:
		a.index[e.To] = len(a.edges) - 1
	case len(a.edges) >= indexThreshold:
		a.index = make(map[NodeID]int, len(a.edges)*2)
		for i, x := range a.edges {
			a.index[x.To] = i
		}
	}
}

// Store is a directed multigraph keyed by dense integer node ids.
//
// The zero value is an empty, usable store.
type Store struct {
	adj         []adjacency
	indegree    []int
	slots       int
	transitions int
	version     uint64
	frozen      bool
}

// New creates an empty store with room for capacity nodes.
func New(capacity int) *Store {
	if capacity < 0 {
		capacity = 0
	}
	return &Store{
		adj:      make([]adjacency, 0, capacity),
		indegree: make([]int, 0, capacity),
	}
}

// EnsureNode grows the id space so that id is addressable.
// Nodes created this way have no edges.
func (s *Store) EnsureNode(id NodeID) error {
	if id < 0 {
		return ErrNegativeNodeID
	}
	if s.frozen {
		return ErrFrozen
	}
	s.grow(int(id) + 1)
	return nil
}

func (s *Store) grow(n int) {
	for len(s.adj) < n {
		s.adj = append(s.adj, adjacency{})
		s.indegree = append(s.indegree, 0)
	}
}

// AddEdge records one transition from→to carrying weight.
//
// If from already has a slot for to, the slot's count is incremented and the
// weight is added to it; otherwise a new slot is appended. The in-degree of
// to is incremented either way. Amortized O(1).
func (s *Store) AddEdge(from, to NodeID, weight float64) error {
	if from < 0 || to < 0 {
		return ErrNegativeNodeID
	}
	if !validWeight(weight) {
		return ErrInvalidWeight
	}
	if s.frozen {
		return ErrFrozen
	}
	s.grow(int(max(from, to)) + 1)

	a := &s.adj[from]
	if i, ok := a.slot(to); ok {
		a.edges[i].Count++
		a.edges[i].Weight += weight
	} else {
		a.append(Edge{To: to, Weight: weight, Count: 1})
		s.slots++
	}
	a.volume++
	s.indegree[to]++
	s.transitions++
	return nil
}

// SetWeight overwrites the weight of one edge slot without reordering or
// resizing the adjacency. It bumps the store version.
func (s *Store) SetWeight(from NodeID, slot int, weight float64) error {
	if s.frozen {
		return ErrFrozen
	}
	if !s.has(from) {
		return ErrNodeOutOfRange
	}
	edges := s.adj[from].edges
	if slot < 0 || slot >= len(edges) {
		return ErrSlotOutOfRange
	}
	if !validWeight(weight) {
		return ErrInvalidWeight
	}
	edges[slot].Weight = weight
	s.version++
	return nil
}

// NumNodes returns the size of the id space.
func (s *Store) NumNodes() int { return len(s.adj) }

// NumEdges returns the number of distinct edge slots across all nodes.
func (s *Store) NumEdges() int { return s.slots }

// TotalTransitions returns the number of AddEdge calls recorded.
func (s *Store) TotalTransitions() int { return s.transitions }

// OutLinks returns the out-neighbors of id in insertion order.
// Returns nil if the node has no edges or doesn't exist.
func (s *Store) OutLinks(id NodeID) []NodeID {
	if !s.has(id) || len(s.adj[id].edges) == 0 {
		return nil
	}
	edges := s.adj[id].edges
	out := make([]NodeID, len(edges))
	for i, e := range edges {
		out[i] = e.To
	}
	return out
}

// Weights returns the current weight slots of id, positionally aligned with
// OutLinks. Returns nil if the node has no edges or doesn't exist.
func (s *Store) Weights(id NodeID) []float64 {
	if !s.has(id) || len(s.adj[id].edges) == 0 {
		return nil
	}
	edges := s.adj[id].edges
	out := make([]float64, len(edges))
	for i, e := range edges {
		out[i] = e.Weight
	}
	return out
}

// Adjacency returns a copy of the edge slots of id in insertion order.
// Returns nil if the node has no edges or doesn't exist.
func (s *Store) Adjacency(id NodeID) []Edge {
	if !s.has(id) {
		return nil
	}
	return slices.Clone(s.adj[id].edges)
}

// Edge returns the edge stored at slot of from.
func (s *Store) Edge(from NodeID, slot int) (Edge, bool) {
	if !s.has(from) || slot < 0 || slot >= len(s.adj[from].edges) {
		return Edge{}, false
	}
	return s.adj[from].edges[slot], true
}

// Slot returns the slot index of the edge from→to.
func (s *Store) Slot(from, to NodeID) (int, bool) {
	if !s.has(from) {
		return 0, false
	}
	return s.adj[from].slot(to)
}

// InDegree returns the number of transitions terminating at id.
// Returns 0 if the node doesn't exist.
func (s *Store) InDegree(id NodeID) int {
	if !s.has(id) {
		return 0
	}
	return s.indegree[id]
}

// OutDegree returns the number of transitions leaving id.
// Returns 0 if the node doesn't exist.
func (s *Store) OutDegree(id NodeID) int {
	if !s.has(id) {
		return 0
	}
	return s.adj[id].volume
}

// NumNeighbors returns the number of distinct out-neighbors of id.
func (s *Store) NumNeighbors(id NodeID) int {
	if !s.has(id) {
		return 0
	}
	return len(s.adj[id].edges)
}

// Version returns a counter that increases with every weight mutation.
func (s *Store) Version() uint64 { return s.version }

// Frozen reports whether the store is a read-only snapshot.
func (s *Store) Frozen() bool { return s.frozen }

// Freeze returns a deep, read-only copy of the store tagged with the
// current version.
func (s *Store) Freeze() *Store {
	c := s.Clone()
	c.frozen = true
	return c
}

// Clone returns a deep, mutable copy of the store. The copy keeps the
// version of the original.
func (s *Store) Clone() *Store {
	c := &Store{
		adj:         make([]adjacency, len(s.adj)),
		indegree:    slices.Clone(s.indegree),
		slots:       s.slots,
		transitions: s.transitions,
		version:     s.version,
	}
	for i, a := range s.adj {
		na := adjacency{edges: slices.Clone(a.edges), volume: a.volume}
		if a.index != nil {
			na.index = make(map[NodeID]int, len(a.index))
			for k, v := range a.index {
				na.index[k] = v
			}
		}
		c.adj[i] = na
	}
	return c
}

// Sources returns the ids of all nodes with at least one out-edge,
// in ascending order.
func (s *Store) Sources() []NodeID {
	var out []NodeID
	for i, a := range s.adj {
		if a.volume > 0 {
			out = append(out, NodeID(i))
		}
	}
	return out
}

func (s *Store) has(id NodeID) bool {
	return id >= 0 && int(id) < len(s.adj)
}

func validWeight(w float64) bool {
	return w >= 0 && !math.IsNaN(w) && !math.IsInf(w, 0)
}
