package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nextstep/pkg/errors"
	nsio "github.com/matzehuels/nextstep/pkg/io"
	"github.com/matzehuels/nextstep/pkg/pipeline"
)

// sweepCommand creates the sweep command, which runs the full experiment
// grid and writes the results table.
func (c *CLI) sweepCommand() *cobra.Command {
	var (
		flags      optionFlags
		configPath string
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "sweep [sessions]",
		Short: "Run the teleport × replication experiment grid",
		Long: `Run the teleport × replication experiment grid.

For each teleport probability and each replication count from 1 up to
--replications, weights are learned and the strategies are scored on every
item. One row per scored item is written to the results file:

  KL RMSE accuracy MRR displacement N mode teleport num_models

A summary line per strategy and grid position goes to stderr. With the
default --report=last only the learned strategy is reported at every grid
position; the others are reported once, at the last one.

Settings can be read from a TOML or YAML file with --config; flags given on
the command line override it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			final := opts
			if configPath != "" {
				loaded, err := pipeline.LoadOptions(configPath)
				if err != nil {
					return err
				}
				overlaySweep(cmd, &loaded, opts)
				flags.overlay(cmd.Flags(), &loaded, opts)
				final = loaded
			} else {
				flags.apply(&final)
			}
			if len(args) == 1 {
				final.Input = args[0]
			}
			if final.Input == "" {
				return errors.New(errors.ErrCodeInvalidConfig, "no session file given (argument or config input)")
			}
			if final.Results == "" {
				final.Results = defaultResultsPath(final.Input)
			}
			final.Verbose = c.Logger.GetLevel() <= LogDebug
			final.Logger = c.Logger
			return c.runSweep(cmd.Context(), final)
		},
	}

	flags.bind(cmd.Flags(), &opts)
	flags.bindStrategies(cmd.Flags())
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML or YAML sweep configuration")
	cmd.Flags().StringVarP(&opts.Results, "results", "o", "", "results file (default <sessions>.results)")
	cmd.Flags().Float64SliceVar(&opts.Teleports, "teleports", nil, "teleport probabilities (default 0.2,0.1,0.05,0.01)")
	cmd.Flags().IntVar(&opts.Replications, "replications", 0, "largest replication count (default 5)")
	cmd.Flags().StringVar(&opts.Report, "report", "", "rows to report: last (default) or all")
	cmd.Flags().StringVar(&opts.Edges, "edges", "", "also write the edge list to this file")
	cmd.Flags().StringVar(&opts.Summary, "summary", "", "also write a JSON summary to this file")

	return cmd
}

// overlaySweep copies sweep flags the user set onto options loaded from a
// config file.
func overlaySweep(cmd *cobra.Command, dst *pipeline.Options, src pipeline.Options) {
	fs := cmd.Flags()
	if fs.Changed("results") {
		dst.Results = src.Results
	}
	if fs.Changed("teleports") {
		dst.Teleports = src.Teleports
	}
	if fs.Changed("replications") {
		dst.Replications = src.Replications
	}
	if fs.Changed("report") {
		dst.Report = src.Report
	}
	if fs.Changed("edges") {
		dst.Edges = src.Edges
	}
	if fs.Changed("summary") {
		dst.Summary = src.Summary
	}
}

// defaultResultsPath derives "<dir>/<name>.results" from a session file,
// dropping a .gz suffix and the data extension.
func defaultResultsPath(input string) string {
	base := strings.TrimSuffix(input, ".gz")
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + ".results"
}

func (c *CLI) runSweep(ctx context.Context, opts pipeline.Options) (err error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	results, err := nsio.CreateResults(opts.Results)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := results.Close(); err == nil {
			err = cerr
		}
	}()

	printInfo("Sweeping %d teleports × %d replications over %s",
		len(opts.Teleports), opts.Replications, strings.Join(opts.Strategies, ", "))
	res, err := runner.Sweep(ctx, opts, pipeline.Sink{Rows: results, Diagnostics: os.Stderr})
	if err != nil {
		return err
	}

	printSuccess("Sweep %s finished in %s", res.RunID[:8], res.Duration.Round(time.Millisecond))
	printStats([]string{
		fmt.Sprintf("%d nodes", res.Nodes),
		fmt.Sprintf("%d edges", res.Edges),
		fmt.Sprintf("%d rows", res.Rows),
	}, false)
	warnSkipped(reportRows(res.Records, nil, false))
	printFile(opts.Results)
	if opts.Edges != "" {
		printFile(opts.Edges)
	}
	if opts.Summary != "" {
		printFile(opts.Summary)
		printNewline()
		printNextStep("Compare strategies", fmt.Sprintf("%s report %s", appName, opts.Summary))
	}
	return nil
}
