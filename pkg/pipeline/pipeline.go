// Package pipeline runs evaluation sweeps end to end.
//
// A sweep loads a session dataset once, then for every teleport probability
// and replication count of the grid it computes node importance, learns
// edge weights on a private copy of the graph, freezes the result, and scores
// every configured strategy against the empirical next-step distribution of
// every node:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	defer runner.Close()
//
//	results, err := io.CreateResults("kosarak.results")
//	if err != nil {
//	    return err
//	}
//	defer results.Close()
//
//	res, err := runner.Sweep(ctx, opts, pipeline.Sink{Rows: results, Diagnostics: os.Stderr})
//
// Stages can also be run individually: [Runner.Load], [Runner.Importance],
// [Runner.Learn] and [Runner.Evaluate]. Importance vectors and learned
// weights are cached by dataset fingerprint and options.
package pipeline

import (
	"time"

	"github.com/matzehuels/nextstep/pkg/buildinfo"
	"github.com/matzehuels/nextstep/pkg/graph"
	"github.com/matzehuels/nextstep/pkg/io"
	"github.com/matzehuels/nextstep/pkg/metrics"
	"github.com/matzehuels/nextstep/pkg/sequence"
	"github.com/matzehuels/nextstep/pkg/strategy"
)

// Dataset is a loaded session dataset.
//
// Graph holds the transition counts with unit weights and is never mutated
// after Load returns; learners work on clones of it.
type Dataset struct {
	Path       string
	Digest     string
	Model      *sequence.Model
	Graph      *graph.Store
	Stats      io.LineStats
	Popularity []float64
	// External holds exponentiated per-node parameters, or nil when no
	// params file was configured.
	External []float64
	LoadTime time.Duration
}

// Labels returns the node labels indexed by id.
func (d *Dataset) Labels() []string { return d.Model.Interner().Labels() }

// NodeResult is the outcome of scoring one node.
type NodeResult struct {
	Node   graph.NodeID
	Result metrics.Result
	// Err is set when the node was skipped for a recoverable reason.
	Err error
}

// StrategyRun holds the per-node results and summary of one strategy.
// Nodes are ordered by id.
type StrategyRun struct {
	Kind     strategy.Kind
	Nodes    []NodeResult
	Summary  metrics.Summary
	Duration time.Duration
}

// Record is one summary line of a sweep.
type Record struct {
	Strategy    string          `json:"strategy"`
	Teleport    float64         `json:"teleport"`
	Replication int             `json:"replication"`
	Summary     metrics.Summary `json:"summary"`
}

// SweepResult describes a finished sweep.
type SweepResult struct {
	RunID    string         `json:"run_id"`
	Dataset  string         `json:"dataset"`
	Digest   string         `json:"digest"`
	Nodes    int            `json:"nodes"`
	Edges    int            `json:"edges"`
	Records  []Record       `json:"records"`
	Rows     int            `json:"rows"`
	Duration time.Duration  `json:"duration"`
	Build    buildinfo.Info `json:"build"`
}
