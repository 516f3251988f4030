package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/pipeline"
	"github.com/matzehuels/nextstep/pkg/render/nodelink"
)

const (
	formatDOT = "dot"
	formatSVG = "svg"
	formatPDF = "pdf"
	formatPNG = "png"
)

// vizOpts holds the command-line flags of the viz command.
type vizOpts struct {
	node         string
	output       string
	format       string
	detailed     bool
	maxNeighbors int
	scale        float64
}

// vizCommand creates the viz command, which draws the neighborhood of one
// item.
func (c *CLI) vizCommand() *cobra.Command {
	var (
		flags optionFlags
		pf    predictionFlags
		vo    vizOpts
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "viz [sessions]",
		Short: "Draw the successors of one item as a node-link diagram",
		Long: `Draw the successors of one item as a node-link diagram.

Edge thickness shows the observed next-step probability. The observed top
successor is outlined; the predicted top successor is filled green when it
matches and orange when it does not.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if vo.node == "" {
				return errors.New(errors.ErrCodeInvalidInput, "--node is required")
			}
			switch vo.format {
			case formatDOT, formatSVG, formatPDF, formatPNG:
			default:
				return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want dot, svg, pdf or png)", vo.format)
			}
			opts.Input = args[0]
			return c.runViz(cmd.Context(), opts, pf, vo)
		},
	}

	flags.bind(cmd.Flags(), &opts)
	pf.bind(cmd)
	cmd.Flags().StringVarP(&vo.node, "node", "n", "", "item label to draw")
	cmd.Flags().StringVarP(&vo.output, "output", "o", "", "output file (default <node>.<format>)")
	cmd.Flags().StringVarP(&vo.format, "format", "f", formatSVG, "output format: dot, svg (default), pdf, png")
	cmd.Flags().BoolVar(&vo.detailed, "detailed", false, "label edges with counts and ranks")
	cmd.Flags().IntVar(&vo.maxNeighbors, "max-neighbors", 25, "draw at most this many successors (0 for all)")
	cmd.Flags().Float64Var(&vo.scale, "scale", 2, "PNG scale factor")

	return cmd
}

func (c *CLI) runViz(ctx context.Context, opts pipeline.Options, pf predictionFlags, vo vizOpts) error {
	ds, open, err := c.predictor(ctx, opts, pf)
	if err != nil {
		return err
	}
	id, ok := ds.Model.Interner().Lookup(vo.node)
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "item %q does not occur in a multi-item session", vo.node)
	}
	nb, err := open(id)
	if err != nil {
		return err
	}

	data, err := renderNeighborhood(ctx, nb, vo)
	if err != nil {
		return err
	}

	output := vo.output
	if output == "" {
		output = fmt.Sprintf("%s.%s", vo.node, vo.format)
	}
	if err := errors.ValidatePath(output); err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	printSuccess("Rendered %s (%d successors)", vo.node, len(nb.Neighbors))
	printFile(output)
	return nil
}

func renderNeighborhood(ctx context.Context, nb nodelink.Neighborhood, vo vizOpts) ([]byte, error) {
	dot := nodelink.ToDOT(nb, nodelink.Options{Detailed: vo.detailed, MaxNeighbors: vo.maxNeighbors})
	switch vo.format {
	case formatDOT:
		return []byte(dot), nil
	case formatPDF:
		return nodelink.RenderPDF(ctx, dot)
	case formatPNG:
		return nodelink.RenderPNG(ctx, dot, vo.scale)
	default:
		return nodelink.RenderSVG(ctx, dot)
	}
}
