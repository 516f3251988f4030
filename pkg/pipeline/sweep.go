package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/nextstep/pkg/buildinfo"
	nsio "github.com/matzehuels/nextstep/pkg/io"
	"github.com/matzehuels/nextstep/pkg/strategy"
)

// RowWriter receives per-node result rows. *io.ResultWriter implements it.
type RowWriter interface {
	WriteRow(nsio.Row) error
}

// Sink collects sweep output. Either field may be nil.
type Sink struct {
	// Rows receives one row per evaluated node and reported strategy.
	Rows RowWriter
	// Diagnostics receives a header per grid position and one summary
	// line per reported strategy.
	Diagnostics io.Writer
}

// Sweep loads opts.Input and evaluates every configured strategy over the
// grid of opts.Teleports × 1..opts.Replications.
//
// In the default "last" report mode only the learned strategy is scored at
// every grid position; the remaining strategies are scored once, at the
// final teleport and replication count.
func (r *Runner) Sweep(ctx context.Context, opts Options, sink Sink) (*SweepResult, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	start := time.Now()
	runID := uuid.NewString()
	logger := r.Logger.With("run", runID[:8])

	ds, err := r.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	if opts.Edges != "" {
		if err := nsio.ExportEdges(opts.Edges, ds.Graph, ds.Popularity); err != nil {
			return nil, err
		}
		logger.Info("wrote edges", "path", opts.Edges)
	}

	res := &SweepResult{
		RunID:   runID,
		Dataset: ds.Path,
		Digest:  ds.Digest,
		Nodes:   ds.Graph.NumNodes(),
		Edges:   ds.Graph.NumEdges(),
		Build:   buildinfo.Current(),
	}
	env := &strategy.Env{
		Model:    ds.Model,
		External: ds.External,
		Seed:     opts.Seed,
	}

	for _, teleport := range opts.Teleports {
		imp, hit, err := r.Importance(ctx, ds, opts, teleport)
		if err != nil {
			return nil, err
		}
		logger.Info("importance ready", "teleport", teleport, "cached", hit)
		env.Importance = imp

		for ri := 1; ri <= opts.Replications; ri++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			kinds := reportedKinds(&opts, teleport, ri)
			if len(kinds) == 0 {
				continue
			}

			snap, hit, err := r.Learn(ctx, ds, opts, teleport, ri)
			if err != nil {
				return nil, err
			}
			logger.Debug("weights ready", "teleport", teleport, "replications", ri, "cached", hit)

			if sink.Diagnostics != nil {
				fmt.Fprintf(sink.Diagnostics, "==========%v %d\n", teleport, ri)
			}
			runs, err := r.Evaluate(ctx, snap, env, kinds, opts)
			if err != nil {
				return nil, err
			}
			for _, run := range runs {
				n, err := sink.Write(run, teleport, ri)
				if err != nil {
					return nil, err
				}
				res.Rows += n
				res.Records = append(res.Records, Record{
					Strategy:    run.Kind.String(),
					Teleport:    teleport,
					Replication: ri,
					Summary:     run.Summary,
				})
			}
		}
	}

	res.Duration = time.Since(start)
	if opts.Summary != "" {
		if err := nsio.ExportJSON(opts.Summary, res); err != nil {
			return nil, err
		}
	}
	logger.Info("sweep complete", "records", len(res.Records), "rows", res.Rows, "duration", res.Duration)
	return res, nil
}

func reportedKinds(opts *Options, teleport float64, replication int) []strategy.Kind {
	var out []strategy.Kind
	for _, k := range opts.Kinds() {
		if opts.Reported(k, teleport, replication) {
			out = append(out, k)
		}
	}
	return out
}

// Write emits the rows and the diagnostics line of one strategy run and
// returns the number of rows written. Skipped nodes produce no row.
//
// The diagnostics line is
//
//	strategy teleport replication [means] evaluated total skipped singular
//
// so nodes dropped for an undefined ranking and nodes whose KL used the
// floor stay visible next to the means.
func (s Sink) Write(run StrategyRun, teleport float64, replication int) (int, error) {
	rows := 0
	if s.Rows != nil {
		for _, nr := range run.Nodes {
			if nr.Err != nil {
				continue
			}
			row := nsio.Row{
				Values:      nr.Result.Values(),
				Neighbors:   nr.Result.Neighbors,
				Mode:        run.Kind.String(),
				Teleport:    teleport,
				Replication: replication,
			}
			if err := s.Rows.WriteRow(row); err != nil {
				return rows, err
			}
			rows++
		}
	}
	if s.Diagnostics != nil {
		sum := run.Summary
		fmt.Fprintf(s.Diagnostics, "%s\t%.2f\t%d\t%s\t%d\t%d\t%d\t%d\n",
			run.Kind, teleport, replication, sum.FormatValues(), sum.Evaluated, sum.TotalNodes,
			sum.Skipped, sum.Singular)
	}
	return rows, nil
}
