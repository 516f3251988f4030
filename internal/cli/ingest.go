package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	nsio "github.com/matzehuels/nextstep/pkg/io"
	"github.com/matzehuels/nextstep/pkg/pipeline"
)

// ingestCommand creates the ingest command, which loads a dataset and
// reports its shape.
func (c *CLI) ingestCommand() *cobra.Command {
	var opts pipeline.Options

	cmd := &cobra.Command{
		Use:   "ingest [sessions]",
		Short: "Load a session file and print transition graph statistics",
		Long: `Load a session file and print transition graph statistics.

Each line of the input is one session: whitespace-separated item labels in
the order they were visited. Gzip-compressed input is detected automatically.
Sessions with fewer than two items contribute no transitions.

With --edges the edge list is written as "from<TAB>to<TAB>popularity".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Input = args[0]
			return c.runIngest(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Params, "params", "", "also load a parameter file and report its size")
	cmd.Flags().StringVar(&opts.Edges, "edges", "", "write the edge list to this file")

	return cmd
}

func (c *CLI) runIngest(ctx context.Context, opts pipeline.Options) error {
	runner := pipeline.NewRunner(nil, nil, c.Logger)
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Reading %s...", opts.Input))
	spinner.Start()
	ds, err := runner.Load(ctx, opts)
	if err != nil {
		spinner.StopWithError("Ingestion failed")
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Loaded %s", opts.Input))

	g := ds.Graph
	printKeyValue("sessions", strconv.Itoa(ds.Stats.Lines))
	printKeyValue("short", strconv.Itoa(ds.Stats.Short))
	printKeyValue("nodes", strconv.Itoa(g.NumNodes()))
	printKeyValue("sources", strconv.Itoa(ds.Model.Sources()))
	printKeyValue("edges", strconv.Itoa(g.NumEdges()))
	printKeyValue("transitions", strconv.Itoa(g.TotalTransitions()))
	printKeyValue("digest", ds.Digest[:16])
	if ds.External != nil {
		printKeyValue("parameters", strconv.Itoa(len(ds.External)))
	}

	if opts.Edges != "" {
		if err := nsio.ExportEdges(opts.Edges, g, ds.Popularity); err != nil {
			return err
		}
		printFile(opts.Edges)
	}

	printNewline()
	printNextStep("Evaluate all strategies", fmt.Sprintf("%s evaluate %s", appName, opts.Input))
	return nil
}
