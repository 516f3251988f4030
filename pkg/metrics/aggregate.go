package metrics

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/matzehuels/nextstep/pkg/errors"
)

// Summary is the mean of each score over the evaluated nodes of one run.
type Summary struct {
	KL             float64
	RMSE           float64
	Accuracy       float64
	ReciprocalRank float64
	Displacement   float64

	// Evaluated is the number of nodes that produced a Result.
	Evaluated int
	// Skipped is the number of nodes dropped for a recoverable error.
	Skipped int
	// Singular is the number of evaluated nodes flagged singular.
	Singular int
	// TotalNodes is the size of the node id space of the graph.
	TotalNodes int
	// Reasons counts skipped nodes by error code.
	Reasons map[errors.Code]int
}

// Values returns the five means in reporting order.
func (s Summary) Values() [5]float64 {
	return [5]float64{s.KL, s.RMSE, s.Accuracy, s.ReciprocalRank, s.Displacement}
}

// FormatValues renders the five means as a bracketed, comma separated list.
func (s Summary) FormatValues() string {
	v := s.Values()
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprint(x)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Aggregator accumulates per-node results. It is not safe for concurrent use.
type Aggregator struct {
	kl, rmse, acc, rr, disp []float64
	singular                int
	skipped                 int
	reasons                 map[errors.Code]int
}

// Add records one evaluated node.
func (a *Aggregator) Add(r Result) {
	if r.Singular {
		a.singular++
	}
	if !math.IsInf(r.KL, 0) && !math.IsNaN(r.KL) {
		a.kl = append(a.kl, r.KL)
	}
	a.rmse = append(a.rmse, r.RMSE)
	a.acc = append(a.acc, r.Accuracy)
	a.rr = append(a.rr, r.ReciprocalRank)
	a.disp = append(a.disp, r.Displacement)
}

// Skip records a node that could not be evaluated.
func (a *Aggregator) Skip(reason error) {
	a.skipped++
	if a.reasons == nil {
		a.reasons = make(map[errors.Code]int)
	}
	code := errors.GetCode(reason)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	a.reasons[code]++
}

// Evaluated returns the number of results added so far.
func (a *Aggregator) Evaluated() int { return len(a.rmse) }

// Summary computes the means. KL is averaged over finite values only.
func (a *Aggregator) Summary(totalNodes int) Summary {
	s := Summary{
		Evaluated:  len(a.rmse),
		Skipped:    a.skipped,
		Singular:   a.singular,
		TotalNodes: totalNodes,
		Reasons:    make(map[errors.Code]int, len(a.reasons)),
	}
	for k, v := range a.reasons {
		s.Reasons[k] = v
	}
	s.KL = mean(a.kl)
	s.RMSE = mean(a.rmse)
	s.Accuracy = mean(a.acc)
	s.ReciprocalRank = mean(a.rr)
	s.Displacement = mean(a.disp)
	return s
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}
