package cli

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nextstep/pkg/graph"
	"github.com/matzehuels/nextstep/pkg/pipeline"
	"github.com/matzehuels/nextstep/pkg/render/nodelink"
	"github.com/matzehuels/nextstep/pkg/strategy"
)

// predictionFlags select the strategy whose predictions inspect and viz
// show next to the observed distribution.
type predictionFlags struct {
	strategy     string
	teleport     float64
	replications int
}

func (f *predictionFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.strategy, "strategy", "s", strategy.InDegree.String(), "strategy whose predictions are shown")
	cmd.Flags().Float64Var(&f.teleport, "teleport", defaultTeleport, "teleport probability (importance, learned)")
	cmd.Flags().IntVar(&f.replications, "replications", 1, "learner replications (learned)")
}

// predictor loads the dataset and prepares the selected strategy. The
// returned function builds the neighborhood of a node with predictions.
func (c *CLI) predictor(ctx context.Context, opts pipeline.Options, pf predictionFlags) (*pipeline.Dataset, neighborhoodFunc, error) {
	kind, err := strategy.ParseKind(pf.strategy)
	if err != nil {
		return nil, nil, err
	}
	opts.Strategies = []string{kind.String()}
	opts.Teleports = []float64{pf.teleport}
	opts.Replications = pf.replications
	opts.Logger = c.Logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, nil, err
	}

	runner, err := c.newRunner(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Reading %s...", opts.Input))
	spinner.Start()
	ds, err := runner.Load(ctx, opts)
	if err != nil {
		spinner.StopWithError("Ingestion failed")
		return nil, nil, err
	}
	spinner.SetMessage(fmt.Sprintf("Preparing %s...", kind))
	_, env, err := runner.Prepare(ctx, ds, opts, opts.Kinds(), pf.teleport, pf.replications)
	if err != nil {
		spinner.StopWithError("Preparation failed")
		return nil, nil, err
	}
	spinner.Stop()

	open := func(id graph.NodeID) (nodelink.Neighborhood, error) {
		ws, err := strategy.Generate(kind, env, id)
		if err != nil {
			return nodelink.Neighborhood{}, err
		}
		return nodelink.FromNode(ds.Model, id, ws)
	}
	return ds, open, nil
}

// inspectCommand creates the inspect command, an interactive browser of
// items and their successors.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		flags optionFlags
		pf    predictionFlags
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "inspect [sessions]",
		Short: "Browse items and compare observed and predicted successors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Input = args[0]
			ds, open, err := c.predictor(cmd.Context(), opts, pf)
			if err != nil {
				return err
			}

			model := newNodeListModel(nodeItems(ds), pf.strategy, open)
			p := tea.NewProgram(model, tea.WithContext(cmd.Context()), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}

	flags.bind(cmd.Flags(), &opts)
	pf.bind(cmd)

	return cmd
}

// nodeItems lists the nodes with successors, most transitions first.
func nodeItems(ds *pipeline.Dataset) []nodeItem {
	g := ds.Graph
	in := ds.Model.Interner()
	var items []nodeItem
	for _, id := range g.Sources() {
		items = append(items, nodeItem{
			ID:        id,
			Label:     in.Label(id),
			Volume:    g.OutDegree(id),
			Neighbors: g.NumNeighbors(id),
		})
	}
	slices.SortStableFunc(items, func(a, b nodeItem) int {
		return cmp.Compare(b.Volume, a.Volume)
	})
	return items
}
