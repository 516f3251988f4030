// Package importance computes stationary node importance over a transition
// graph.
//
// Two calculators are provided. [PowerIteration] runs weighted PageRank
// directly on the edge weights of a [graph.Store], with a teleport
// probability, uniform redistribution of dangling mass and an L1 convergence
// test. [Network] builds an unweighted gonum graph and delegates to
// gonum's network.PageRank; it exists mainly as a cross-check.
package importance
