package sequence

import (
	"errors"
	"fmt"

	"github.com/matzehuels/nextstep/pkg/graph"
)

// ErrNoTransitions is returned by [Model.Distribution] for a node that was
// never observed as the source of a transition.
var ErrNoTransitions = errors.New("node has no outgoing transitions")

// Model is the empirical transition model built from observed lines.
//
// A Model owns its interner and writes every observed transition into the
// store it was created with, using a unit weight per transition.
type Model struct {
	interner *Interner
	store    *graph.Store
	lines    int
}

// NewModel creates a model that records transitions into store.
// A nil store is replaced by an empty one.
func NewModel(store *graph.Store) *Model {
	if store == nil {
		store = graph.New(0)
	}
	return &Model{interner: NewInterner(), store: store}
}

// Observe records one line of tokens.
//
// Lines with fewer than two tokens are ignored. Otherwise all tokens are
// interned first, in order, and then each consecutive pair is added as a
// transition. Repeated tokens within a line produce self-loops and are
// counted like any other pair.
func (m *Model) Observe(tokens []string) error {
	if len(tokens) < 2 {
		return nil
	}
	ids := make([]graph.NodeID, len(tokens))
	for i, tok := range tokens {
		id, _ := m.interner.Intern(tok)
		if err := m.store.EnsureNode(id); err != nil {
			return fmt.Errorf("register %q: %w", tok, err)
		}
		ids[i] = id
	}
	for i := 1; i < len(ids); i++ {
		if err := m.store.AddEdge(ids[i-1], ids[i], 1); err != nil {
			return fmt.Errorf("transition %q -> %q: %w", tokens[i-1], tokens[i], err)
		}
	}
	m.lines++
	return nil
}

// Interner returns the label interner.
func (m *Model) Interner() *Interner { return m.interner }

// Graph returns the store the model records into.
func (m *Model) Graph() *graph.Store { return m.store }

// Lines returns the number of lines that contributed transitions.
func (m *Model) Lines() int { return m.lines }

// Count returns how many times the transition from→to was observed.
func (m *Model) Count(from, to graph.NodeID) int {
	slot, ok := m.store.Slot(from, to)
	if !ok {
		return 0
	}
	e, _ := m.store.Edge(from, slot)
	return e.Count
}

// Volume returns the total number of transitions leaving id.
func (m *Model) Volume(id graph.NodeID) int {
	return m.store.OutDegree(id)
}

// Distribution returns the empirical next-step distribution of id,
// positionally aligned with the store's OutLinks(id).
func (m *Model) Distribution(id graph.NodeID) ([]float64, error) {
	volume := m.store.OutDegree(id)
	if volume == 0 {
		return nil, ErrNoTransitions
	}
	adj := m.store.Adjacency(id)
	dist := make([]float64, len(adj))
	for i, e := range adj {
		dist[i] = float64(e.Count) / float64(volume)
	}
	return dist, nil
}

// Popularity returns the share of all observed transitions that end at id.
// Returns 0 when nothing has been observed.
func (m *Model) Popularity(id graph.NodeID) float64 {
	total := m.store.TotalTransitions()
	if total == 0 {
		return 0
	}
	return float64(m.store.InDegree(id)) / float64(total)
}

// PopularityVector returns Popularity for every node id.
func (m *Model) PopularityVector() []float64 {
	out := make([]float64, m.store.NumNodes())
	for i := range out {
		out[i] = m.Popularity(graph.NodeID(i))
	}
	return out
}

// Sources returns the number of nodes with at least one outgoing transition.
func (m *Model) Sources() int {
	return len(m.store.Sources())
}
