// Package sequence turns raw session lines into an empirical next-step model.
//
// Each observed line is a sequence of opaque labels. Labels are interned to
// dense [graph.NodeID] values in first-seen order, and every consecutive pair
// in a line is recorded as one transition in a [graph.Store]. The resulting
// [Model] answers "given the user is at node u, how often did they move to
// each neighbor next?" through [Model.Distribution].
//
// Lines with fewer than two tokens carry no transition and are ignored
// entirely, including for interning. A label that only ever appears alone on
// a line is therefore never addressable.
//
// Distributions are computed from transition counts, never from edge
// weights, so they stay stable while a learner rewrites the weights of a
// cloned store.
package sequence
