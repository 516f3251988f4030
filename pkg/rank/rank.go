// Package rank converts weight vectors into probability distributions and
// ranks them.
//
// Ranking is a stable descending sort: the highest probability gets rank 1,
// equal probabilities keep their original relative order (the earlier
// position gets the better rank), and entries with probability exactly zero
// receive no rank at all. Rank 0 in [Ranking.Ranks] means "unranked".
package rank

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/matzehuels/nextstep/pkg/errors"
)

// Ranking is a ranked probability distribution.
type Ranking struct {
	// Probs is the ranked distribution, in original position order.
	Probs []float64
	// Ranks holds the 1-based rank of each position, or 0 if unranked.
	Ranks []int
	// Order lists the ranked positions from rank 1 to rank m.
	Order []int
}

// Normalize scales weights to sum to 1. A vector whose weights sum to zero
// yields an all-zero vector of the same length. Negative and NaN weights are
// treated as zero. If any weight is +Inf, the +Inf entries share the whole
// mass equally and every finite entry gets zero.
func Normalize(weights []float64) []float64 {
	out := make([]float64, len(weights))
	inf := 0
	for _, w := range weights {
		if math.IsInf(w, 1) {
			inf++
		}
	}
	if inf > 0 {
		for i, w := range weights {
			if math.IsInf(w, 1) {
				out[i] = 1 / float64(inf)
			}
		}
		return out
	}
	for i, w := range weights {
		if w > 0 {
			out[i] = w
		}
	}
	sum := floats.Sum(out)
	if sum == 0 {
		return out
	}
	if math.IsInf(sum, 1) {
		// Finite weights near MaxFloat64 can overflow the sum.
		floats.Scale(1/floats.Max(out), out)
		sum = floats.Sum(out)
	}
	floats.Scale(1/sum, out)
	return out
}

// NormalizeChecked is Normalize with input validation. Negative or NaN
// weights are rejected with an INVALID_INPUT error. A vector that sums to
// zero is returned as all zeros together with a NORMALIZATION_DEGENERATE
// error; the vector is still usable.
func NormalizeChecked(weights []float64) ([]float64, error) {
	for i, w := range weights {
		if math.IsNaN(w) || w < 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "weight %d is negative or NaN: %v", i, w)
		}
	}
	out := Normalize(weights)
	if len(out) > 0 && floats.Sum(out) == 0 {
		return out, errors.New(errors.ErrCodeNormalizationDegenerate, "weights sum to zero over %d entries", len(out))
	}
	return out, nil
}

// Rank ranks probs in descending order. Entries that are not strictly
// positive are left unranked.
func Rank(probs []float64) Ranking {
	n := len(probs)
	r := Ranking{
		Probs: probs,
		Ranks: make([]int, n),
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(probs[b], probs[a])
	})

	for _, i := range idx {
		if !(probs[i] > 0) {
			continue
		}
		r.Order = append(r.Order, i)
		r.Ranks[i] = len(r.Order)
	}
	return r
}

// Top returns the position holding rank 1. It reports false when no entry
// is ranked.
func (r Ranking) Top() (int, bool) {
	if len(r.Order) == 0 {
		return 0, false
	}
	return r.Order[0], true
}

// Ranked returns the number of ranked entries.
func (r Ranking) Ranked() int { return len(r.Order) }
