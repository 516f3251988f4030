package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/learn"
	"github.com/matzehuels/nextstep/pkg/metrics"
	"github.com/matzehuels/nextstep/pkg/strategy"
)

func TestValidateAndSetDefaults(t *testing.T) {
	opts := Options{Input: "kosarak.dat.gz"}
	require.NoError(t, opts.ValidateAndSetDefaults())

	assert.Equal(t, DefaultTeleports, opts.Teleports)
	assert.Equal(t, DefaultReplications, opts.Replications)
	assert.Equal(t, DefaultSeed, opts.Seed)
	assert.Equal(t, ReportLast, opts.Report)
	assert.Equal(t, "weighted", opts.Importance)
	assert.Equal(t, learn.Oracle, opts.LearnPolicy())
	assert.Equal(t, metrics.Evaluator{KL: metrics.KLFloor, Floor: metrics.DefaultFloor}, opts.Evaluator())
	assert.Positive(t, opts.Workers)
	assert.NotNil(t, opts.Logger)

	assert.Equal(t, []strategy.Kind{
		strategy.Uniform, strategy.InDegree, strategy.Jaccard,
		strategy.Popularity, strategy.Importance, strategy.Learned,
	}, opts.Kinds())
	assert.NotContains(t, opts.Strategies, "external")
}

func TestValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Input: "in.dat", Params: "in.params"}
	require.NoError(t, opts.ValidateAndSetDefaults())
	first := len(opts.Strategies)
	require.NoError(t, opts.ValidateAndSetDefaults())
	assert.Len(t, opts.Strategies, first)
	assert.Contains(t, opts.Kinds(), strategy.External)
}

func TestValidateAndSetDefaultsAliases(t *testing.T) {
	opts := Options{Input: "in.dat", Strategies: []string{"pagerank", "prlearn"}}
	require.NoError(t, opts.ValidateAndSetDefaults())
	assert.Equal(t, []strategy.Kind{strategy.Importance, strategy.Learned}, opts.Kinds())
}

func TestValidateAndSetDefaultsRejects(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"no input", Options{}},
		{"teleport zero", Options{Input: "x", Teleports: []float64{0.1, 0}}},
		{"teleport one", Options{Input: "x", Teleports: []float64{1}}},
		{"negative replications", Options{Input: "x", Replications: -1}},
		{"bad report", Options{Input: "x", Report: "some"}},
		{"unknown strategy", Options{Input: "x", Strategies: []string{"magic"}}},
		{"duplicate strategy", Options{Input: "x", Strategies: []string{"learned", "prlearn"}}},
		{"external without params", Options{Input: "x", Strategies: []string{"external"}}},
		{"unknown importance", Options{Input: "x", Importance: "hits"}},
		{"negative regularization", Options{Input: "x", Regularization: -0.5}},
		{"unknown policy", Options{Input: "x", Policy: "l1"}},
		{"unknown kl policy", Options{Input: "x", KLPolicy: "ignore"}},
		{"kl floor too large", Options{Input: "x", KLFloor: 2}},
		{"negative workers", Options{Input: "x", Workers: -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig), "got %v", err)
		})
	}
}

func TestReported(t *testing.T) {
	opts := Options{Input: "x", Teleports: []float64{0.2, 0.01}, Replications: 3}
	require.NoError(t, opts.ValidateAndSetDefaults())

	assert.True(t, opts.Reported(strategy.Learned, 0.2, 1))
	assert.False(t, opts.Reported(strategy.Uniform, 0.2, 3))
	assert.False(t, opts.Reported(strategy.Uniform, 0.01, 2))
	assert.True(t, opts.Reported(strategy.Uniform, 0.01, 3))

	opts.Report = ReportAll
	assert.True(t, opts.Reported(strategy.Jaccard, 0.2, 1))
}

func TestLoadOptionsTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sweep.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
input = "data/kosarak.dat.gz"
results = "/tmp/out.results"
teleports = [0.2, 0.05]
replications = 2
strategies = ["uniform", "pagerank", "prlearn"]
regularization = 0.1
policy = "l2"
kl_policy = "skip"
`), 0o644))

	opts, err := LoadOptions(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data", "kosarak.dat.gz"), opts.Input)
	assert.Equal(t, "/tmp/out.results", opts.Results)
	assert.Equal(t, []float64{0.2, 0.05}, opts.Teleports)
	assert.Equal(t, 2, opts.Replications)

	require.NoError(t, opts.ValidateAndSetDefaults())
	assert.Equal(t, learn.L2, opts.LearnPolicy())
	assert.Equal(t, metrics.KLSkip, opts.Evaluator().KL)
	assert.Equal(t, []strategy.Kind{strategy.Uniform, strategy.Importance, strategy.Learned}, opts.Kinds())
}

func TestLoadOptionsYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sweep.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
input: kosarak.dat
params: kosarak.params
report: all
workers: 2
`), 0o644))

	opts, err := LoadOptions(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "kosarak.dat"), opts.Input)
	assert.Equal(t, filepath.Join(dir, "kosarak.params"), opts.Params)
	assert.Equal(t, ReportAll, opts.Report)
	assert.Equal(t, 2, opts.Workers)
}

func TestLoadOptionsErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadOptions(filepath.Join(dir, "missing.toml"))
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound), "got %v", err)

	_, err = LoadOptions(filepath.Join(dir, "sweep.ini"))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig), "got %v", err)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("teleports = [0.2,"), 0o644))
	_, err = LoadOptions(bad)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig), "got %v", err)

	_, err = LoadOptions("")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidPath), "got %v", err)
}
