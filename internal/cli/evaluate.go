package cli

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	nsio "github.com/matzehuels/nextstep/pkg/io"
	"github.com/matzehuels/nextstep/pkg/pipeline"
)

const (
	defaultTeleport     = 0.01
	defaultReplications = pipeline.DefaultReplications
)

// evaluateCommand creates the evaluate command, which scores every strategy
// at a single teleport probability and replication count.
func (c *CLI) evaluateCommand() *cobra.Command {
	var (
		flags        optionFlags
		teleport     float64
		replications int
		jsonOut      bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "evaluate [sessions]",
		Short: "Compare next-step strategies at one configuration",
		Long: `Compare next-step strategies at one configuration.

For every item with at least one observed successor, each strategy predicts
weights for the item's successors. The prediction is scored against the
empirical next-step distribution with KL divergence, RMSE, top-1 accuracy,
reciprocal rank of the true top successor, and normalized rank displacement.
The table shows the means over all scored items.

Importance vectors and learned weights are cached locally, or in Redis when
--redis is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Input = args[0]
			opts.Teleports = []float64{teleport}
			opts.Replications = replications
			opts.Verbose = c.Logger.GetLevel() <= LogDebug
			opts.Logger = c.Logger
			flags.apply(&opts)
			return c.runEvaluate(cmd.Context(), opts, jsonOut)
		},
	}

	flags.bind(cmd.Flags(), &opts)
	flags.bindStrategies(cmd.Flags())
	cmd.Flags().Float64Var(&teleport, "teleport", defaultTeleport, "teleport probability of the importance computation")
	cmd.Flags().IntVar(&replications, "replications", defaultReplications, "random initializations averaged by the learner")
	cmd.Flags().StringVarP(&opts.Results, "results", "o", "", "also write per-item rows to this file")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print summaries as JSON instead of a table")

	return cmd
}

func (c *CLI) runEvaluate(ctx context.Context, opts pipeline.Options, jsonOut bool) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	ds, err := runner.Load(ctx, opts)
	if err != nil {
		return err
	}

	teleport := opts.Teleports[0]
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Evaluating %s...", strings.Join(opts.Strategies, ", ")))
	spinner.Start()
	runs, err := runner.EvaluateAt(ctx, ds, opts, teleport, opts.Replications)
	if err != nil {
		spinner.StopWithError("Evaluation failed")
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Evaluated %d strategies", len(runs)))

	if opts.Results != "" {
		if err := writeResults(opts.Results, runs, teleport, opts.Replications); err != nil {
			return err
		}
	}

	rows := make([]summaryRow, len(runs))
	for i, run := range runs {
		rows[i] = summaryRow{
			Strategy:    run.Kind.String(),
			Teleport:    teleport,
			Replication: opts.Replications,
			Summary:     run.Summary,
		}
	}
	if jsonOut {
		return nsio.WriteJSON(os.Stdout, rows)
	}

	fmt.Println(renderSummaryTable(rows))
	warnSkipped(rows)
	if opts.Results != "" {
		printFile(opts.Results)
	}
	return nil
}

func writeResults(path string, runs []pipeline.StrategyRun, teleport float64, replications int) (err error) {
	rw, err := nsio.CreateResults(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rw.Close(); err == nil {
			err = cerr
		}
	}()
	sink := pipeline.Sink{Rows: rw}
	for _, run := range runs {
		if _, err := sink.Write(run, teleport, replications); err != nil {
			return err
		}
	}
	return nil
}

// warnSkipped reports strategies that left items unscored or whose KL
// needed the floor for a zero predicted probability.
func warnSkipped(rows []summaryRow) {
	for _, w := range skipWarnings(rows) {
		printWarning("%s", w)
	}
}

func skipWarnings(rows []summaryRow) []string {
	var out []string
	for _, r := range rows {
		if r.Summary.Skipped > 0 {
			var reasons []string
			for _, code := range slices.Sorted(maps.Keys(r.Summary.Reasons)) {
				reasons = append(reasons, fmt.Sprintf("%d %s", r.Summary.Reasons[code], strings.ToLower(string(code))))
			}
			out = append(out, fmt.Sprintf("%s%s skipped %d items (%s)",
				r.Strategy, gridSuffix(r), r.Summary.Skipped, strings.Join(reasons, ", ")))
		}
		if r.Summary.Singular > 0 {
			out = append(out, fmt.Sprintf("%s%s: %d items predicted zero for an observed successor",
				r.Strategy, gridSuffix(r), r.Summary.Singular))
		}
	}
	return out
}

func gridSuffix(r summaryRow) string {
	if r.Teleport == 0 {
		return ""
	}
	return fmt.Sprintf(" at %.2f/%d", r.Teleport, r.Replication)
}
