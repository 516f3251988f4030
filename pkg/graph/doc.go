// Package graph provides the directed transition multigraph that backs every
// evaluation run.
//
// # Overview
//
// Nodes are dense, non-negative integer identifiers ([NodeID]) assigned by
// the interner in package sequence. For each node the [Store] keeps an
// ordered list of edge slots, one per distinct out-neighbor, in first-insertion
// order. Observing the same transition twice does not create a second slot:
// the slot's [Edge.Count] is incremented and the unit weight is added to its
// [Edge.Weight]. The neighbor order of a node never changes once a slot has
// been created, so positional alignment between [Store.OutLinks] and
// [Store.Weights] holds for the lifetime of the store.
//
// Prefer [Store.Adjacency], which returns neighbor and weight together in one
// [Edge] value, over reading the two parallel slices separately.
//
// # Degrees
//
// Three degree notions are tracked:
//
//   - [Store.OutDegree]: total transition events leaving a node (Σ Count).
//     This is the normalizer of the empirical distribution.
//   - [Store.NumNeighbors]: number of distinct out-neighbors (slots).
//   - [Store.InDegree]: number of AddEdge calls terminating at a node.
//
// # Snapshots
//
// Weight slots are mutable in place through [Store.SetWeight]; every mutation
// bumps [Store.Version]. Evaluation must never observe a store that is being
// written, so callers hand evaluators a frozen copy obtained from
// [Store.Freeze]. A frozen store rejects SetWeight and AddEdge with
// [ErrFrozen] and carries the version it was frozen at.
//
// # Concurrency
//
// A live Store is not safe for concurrent use. A frozen Store is immutable
// and may be read from any number of goroutines.
package graph
