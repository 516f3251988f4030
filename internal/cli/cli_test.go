package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/metrics"
	"github.com/matzehuels/nextstep/pkg/pipeline"
	"github.com/matzehuels/nextstep/pkg/strategy"
)

const testSessions = "home item cart\nhome item\nhome cart\nitem cart\ncart home\n"

func writeSessions(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.dat")
	require.NoError(t, os.WriteFile(path, []byte(testSessions), 0o644))
	return path
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(append(args, "--no-cache"))
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"ingest", "evaluate", "sweep", "report", "inspect", "viz", "cache", "completion"} {
		assert.Contains(t, names, want)
	}
}

func TestIngestCommandWritesEdges(t *testing.T) {
	input := writeSessions(t)
	edges := filepath.Join(t.TempDir(), "edges.tsv")

	require.NoError(t, execute(t, "ingest", input, "--edges", edges))

	data, err := os.ReadFile(edges)
	require.NoError(t, err)
	// home→item, home→cart, item→cart, cart→home
	assert.Equal(t, 4, strings.Count(string(data), "\n"))
}

func TestEvaluateCommandWritesResults(t *testing.T) {
	input := writeSessions(t)
	results := filepath.Join(t.TempDir(), "out.results")

	require.NoError(t, execute(t, "evaluate", input,
		"--strategies", "indegree,popularity",
		"--results", results,
		"--workers", "2"))

	data, err := os.ReadFile(results)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	// header plus three source items per strategy
	require.Len(t, lines, 7)
	assert.True(t, strings.HasPrefix(lines[0], "KL\tRMSE\taccuracy\tMRR\tdisplacement"))
	assert.Contains(t, lines[1], "\tindegree\t0.01\t5")
	assert.Contains(t, lines[6], "\tpopularity\t0.01\t5")
}

func TestEvaluateCommandRejectsUnknownStrategy(t *testing.T) {
	err := execute(t, "evaluate", writeSessions(t), "--strategies", "magic")
	assert.ErrorContains(t, err, "unknown strategy")
}

func TestSweepCommandWithConfig(t *testing.T) {
	input := writeSessions(t)
	dir := filepath.Dir(input)
	config := filepath.Join(dir, "sweep.toml")
	require.NoError(t, os.WriteFile(config, []byte(`
input = "sessions.dat"
teleports = [0.2]
replications = 1
strategies = ["uniform", "learned"]
report = "all"
summary = "summary.json"
`), 0o644))

	results := filepath.Join(dir, "grid.results")
	require.NoError(t, execute(t, "sweep", "--config", config, "--results", results))

	data, err := os.ReadFile(results)
	require.NoError(t, err)
	// header plus three source items for each of two strategies
	assert.Equal(t, 7, strings.Count(string(data), "\n"))

	require.NoError(t, execute(t, "report", filepath.Join(dir, "summary.json"), "--strategies", "prlearn"))
}

func TestVizCommandDOT(t *testing.T) {
	input := writeSessions(t)
	out := filepath.Join(t.TempDir(), "home.dot")

	require.NoError(t, execute(t, "viz", input, "--node", "home", "--format", "dot", "-o", out, "--detailed"))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"n:home" -> "t:item"`)
	assert.Contains(t, string(data), `"n:home" -> "t:cart"`)
}

func TestVizCommandErrors(t *testing.T) {
	input := writeSessions(t)
	assert.ErrorContains(t, execute(t, "viz", input), "--node is required")
	assert.ErrorContains(t, execute(t, "viz", input, "--node", "home", "--format", "gif"), "unknown format")
	assert.ErrorContains(t, execute(t, "viz", input, "--node", "nowhere", "--format", "dot"), "does not occur")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b,"))
	assert.Nil(t, splitList(""))
}

func TestOverlayKeepsUnsetValues(t *testing.T) {
	cmd := New(io.Discard, LogInfo).sweepCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--replications", "2", "--policy", "l2"}))

	loaded := pipeline.Options{Input: "x", Replications: 4, Report: "all", Policy: "none", Seed: 7}
	flagOpts := pipeline.Options{Replications: 2, Policy: "l2"}
	overlaySweep(cmd, &loaded, flagOpts)
	var f optionFlags
	f.overlay(cmd.Flags(), &loaded, flagOpts)

	assert.Equal(t, 2, loaded.Replications)
	assert.Equal(t, "l2", loaded.Policy)
	assert.Equal(t, "all", loaded.Report)
	assert.Equal(t, uint64(7), loaded.Seed)
}

func TestReportRows(t *testing.T) {
	records := []pipeline.Record{
		{Strategy: "learned", Teleport: 0.2, Replication: 1},
		{Strategy: "learned", Teleport: 0.1, Replication: 1},
		{Strategy: "uniform", Teleport: 0.1, Replication: 1},
	}
	assert.Len(t, reportRows(records, nil, false), 3)

	last := reportRows(records, nil, true)
	require.Len(t, last, 2)
	assert.Equal(t, 0.1, last[0].Teleport)

	only := reportRows(records, []strategy.Kind{strategy.Uniform}, false)
	require.Len(t, only, 1)
	assert.Equal(t, "uniform", only[0].Strategy)
}

func TestBestRows(t *testing.T) {
	rows := []summaryRow{
		{Strategy: "a", Summary: metrics.Summary{KL: 0.5, RMSE: 0.1, Accuracy: 0.2, ReciprocalRank: 0.4, Displacement: 0.3, Evaluated: 3}},
		{Strategy: "b", Summary: metrics.Summary{KL: 0.2, RMSE: 0.3, Accuracy: 0.6, ReciprocalRank: 0.7, Displacement: 0.1, Evaluated: 3}},
		{Strategy: "empty"},
	}
	assert.Equal(t, [5]int{1, 0, 1, 1, 1}, bestRows(rows))

	out := renderSummaryTable(rows)
	assert.Contains(t, out, "strategy")
	assert.Contains(t, out, "0.5000")
}

func TestSkipWarnings(t *testing.T) {
	rows := []summaryRow{
		{Strategy: "indegree", Teleport: 0.1, Replication: 2, Summary: metrics.Summary{Evaluated: 3}},
		{Strategy: "jaccard", Teleport: 0.1, Replication: 2, Summary: metrics.Summary{
			Evaluated: 1,
			Skipped:   2,
			Singular:  1,
			Reasons:   map[errors.Code]int{errors.ErrCodeRankingUndefined: 2},
		}},
	}
	assert.Equal(t, []string{
		"jaccard at 0.10/2 skipped 2 items (2 ranking_undefined)",
		"jaccard at 0.10/2: 1 items predicted zero for an observed successor",
	}, skipWarnings(rows))
}
