package metrics

import (
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/rank"
)

// DefaultFloor is the probability substituted for a zero prediction under
// the [KLFloor] policy.
const DefaultFloor = 1e-10

// KLPolicy selects how a zero predicted probability is handled in KL.
type KLPolicy int

const (
	KLFloor KLPolicy = iota
	KLSkip
	KLInfinite
)

var klPolicyNames = [...]string{
	KLFloor:    "floor",
	KLSkip:     "skip",
	KLInfinite: "infinite",
}

func (p KLPolicy) String() string {
	if p < 0 || int(p) >= len(klPolicyNames) {
		return fmt.Sprintf("KLPolicy(%d)", int(p))
	}
	return klPolicyNames[p]
}

// ParseKLPolicy parses a policy name as produced by String.
func ParseKLPolicy(s string) (KLPolicy, error) {
	for i, name := range klPolicyNames {
		if strings.EqualFold(s, name) {
			return KLPolicy(i), nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidConfig, "unknown KL policy %q (want floor, skip or infinite)", s)
}

func (p KLPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *KLPolicy) UnmarshalText(text []byte) error {
	v, err := ParseKLPolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Result holds the scores for one node.
type Result struct {
	KL             float64
	RMSE           float64
	Accuracy       float64
	ReciprocalRank float64
	Displacement   float64

	// Neighbors is k, the number of distinct neighbors scored.
	Neighbors int
	// Singular is set when at least one observed neighbor had zero
	// predicted probability.
	Singular bool
	// Unranked counts observed neighbors the prediction left unranked.
	Unranked int
}

// Values returns the five scores in reporting order.
func (r Result) Values() [5]float64 {
	return [5]float64{r.KL, r.RMSE, r.Accuracy, r.ReciprocalRank, r.Displacement}
}

// Evaluator compares empirical and predicted distributions.
// The zero value uses the floor policy with [DefaultFloor].
type Evaluator struct {
	KL    KLPolicy
	Floor float64
}

// Evaluate scores predictedWeights against empirical. Both slices are
// indexed by neighbor slot and must have the same length. The predicted
// weights are normalized before comparison; empirical is used as given.
func (e Evaluator) Evaluate(empirical, predictedWeights []float64) (Result, error) {
	k := len(empirical)
	if len(predictedWeights) != k {
		return Result{}, errors.New(errors.ErrCodeInvalidInput,
			"predicted has %d entries, empirical has %d", len(predictedWeights), k)
	}

	emp := rank.Rank(empirical)
	truth, ok := emp.Top()
	if !ok {
		return Result{}, errors.New(errors.ErrCodeRankingUndefined, "empirical distribution has no top neighbor")
	}

	q, err := rank.NormalizeChecked(predictedWeights)
	if err != nil {
		if !errors.Is(err, errors.ErrCodeNormalizationDegenerate) {
			return Result{}, err
		}
		return Result{}, errors.Wrap(errors.ErrCodeRankingUndefined, err, "predicted weights give no ranking")
	}
	pred := rank.Rank(q)
	if pred.Ranks[truth] == 0 {
		return Result{}, errors.New(errors.ErrCodeRankingUndefined,
			"empirical top neighbor at slot %d has no predicted rank", truth)
	}

	res := Result{Neighbors: k}
	floor := e.Floor
	if floor <= 0 {
		floor = DefaultFloor
	}

	var sq, disp float64
	for i, p := range empirical {
		if !(p > 0) {
			continue
		}
		qi := q[i]
		if qi == 0 {
			res.Singular = true
			switch e.KL {
			case KLSkip:
				return Result{}, errors.New(errors.ErrCodeDivergenceSingularity,
					"observed neighbor at slot %d has zero predicted probability", i)
			case KLInfinite:
				res.KL = math.Inf(1)
			default:
				res.KL += p * math.Log(p/floor)
			}
		} else if !math.IsInf(res.KL, 1) {
			res.KL += p * math.Log(p/qi)
		}

		d := p - qi
		sq += d * d

		rp := pred.Ranks[i]
		if rp == 0 {
			rp = k
			res.Unranked++
		}
		disp += math.Abs(float64(emp.Ranks[i] - rp))
	}

	res.RMSE = math.Sqrt(sq / float64(k))
	res.Displacement = disp / float64(k*k)
	r := pred.Ranks[truth]
	res.ReciprocalRank = 1 / float64(r)
	if r == 1 {
		res.Accuracy = 1
	}
	return res, nil
}
