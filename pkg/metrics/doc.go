// Package metrics scores a predicted next-step distribution against the
// empirical one for a single node, and aggregates per-node scores.
//
// For a node with k distinct neighbors, [Evaluator.Evaluate] computes five
// numbers:
//
//   - KL: Kullback-Leibler divergence Σ p·ln(p/q) over entries with p > 0.
//   - RMSE: sqrt(Σ (p−q)² / k).
//   - Accuracy: 1 if the empirical top neighbor is also the predicted top.
//   - ReciprocalRank: 1 / predicted rank of the empirical top neighbor.
//   - Displacement: Σ |rank_emp − rank_pred| / k².
//
// # Singularities
//
// When the prediction assigns zero probability to a neighbor that was
// actually observed, the KL term is infinite. [KLPolicy] decides what
// happens: [KLFloor] (the default) substitutes a small floor and flags the
// result as singular, [KLSkip] reports a DIVERGENCE_SINGULARITY error, and
// [KLInfinite] keeps +Inf and flags the result.
//
// A node whose empirical top neighbor is not ranked by the prediction has no
// reciprocal rank; Evaluate returns a RANKING_UNDEFINED error for it. Both
// conditions are recoverable: the caller skips the node and records it in
// the [Aggregator].
package metrics
