package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	nsio "github.com/matzehuels/nextstep/pkg/io"
	"github.com/matzehuels/nextstep/pkg/pipeline"
	"github.com/matzehuels/nextstep/pkg/strategy"
)

// reportCommand creates the report command, which renders the JSON summary
// written by "sweep --summary".
func (c *CLI) reportCommand() *cobra.Command {
	var (
		strategies string
		lastOnly   bool
	)

	cmd := &cobra.Command{
		Use:   "report [summary.json]",
		Short: "Show the strategy comparison of a finished sweep",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res pipeline.SweepResult
			if err := nsio.ImportJSON(args[0], &res); err != nil {
				return err
			}
			kinds, err := strategy.ParseKinds(splitList(strategies))
			if err != nil {
				return err
			}
			rows := reportRows(res.Records, kinds, lastOnly)
			if len(rows) == 0 {
				printWarning("No records match")
				return nil
			}

			printKeyValue("run", res.RunID)
			printKeyValue("dataset", res.Dataset)
			printKeyValue("built by", res.Build.Version)
			printNewline()
			c.Logger.Debug("loaded summary", "records", len(res.Records), "shown", len(rows))
			fmt.Println(renderSummaryTable(rows))
			warnSkipped(rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&strategies, "strategies", "", "only show these strategies (comma-separated)")
	cmd.Flags().BoolVar(&lastOnly, "last", false, "only show the last grid position of each strategy")

	return cmd
}

func reportRows(records []pipeline.Record, kinds []strategy.Kind, lastOnly bool) []summaryRow {
	var rows []summaryRow
	for _, rec := range records {
		if len(kinds) > 0 && !slices.ContainsFunc(kinds, func(k strategy.Kind) bool { return k.String() == rec.Strategy }) {
			continue
		}
		rows = append(rows, summaryRow{
			Strategy:    rec.Strategy,
			Teleport:    rec.Teleport,
			Replication: rec.Replication,
			Summary:     rec.Summary,
		})
	}
	if !lastOnly {
		return rows
	}

	last := make(map[string]int)
	for i, r := range rows {
		last[r.Strategy] = i
	}
	var out []summaryRow
	for i, r := range rows {
		if last[r.Strategy] == i {
			out = append(out, r)
		}
	}
	return out
}
