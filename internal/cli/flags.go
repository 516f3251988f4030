package cli

import (
	"strings"

	"github.com/spf13/pflag"

	"github.com/matzehuels/nextstep/pkg/pipeline"
)

// optionFlags binds the learner and evaluation options shared by the
// evaluate, sweep, inspect and viz commands. Only evaluate and sweep take a
// strategy list.
type optionFlags struct {
	strategies string
}

func (f *optionFlags) bind(fs *pflag.FlagSet, opts *pipeline.Options) {
	fs.StringVar(&opts.Params, "params", opts.Params, "file with one log-scale parameter per node, enables the external strategy")
	fs.Uint64Var(&opts.Seed, "seed", opts.Seed, "seed for the uniform strategy and learner initialization")
	fs.StringVar(&opts.Importance, "importance", opts.Importance, "importance method: weighted (default), gonum")
	fs.Float64Var(&opts.Regularization, "regularization", opts.Regularization, "learner regularization strength")
	fs.StringVar(&opts.Policy, "policy", opts.Policy, "learner regularization policy: none, l2, oracle (default)")
	fs.StringVar(&opts.KLPolicy, "kl-policy", opts.KLPolicy, "zero-probability handling in KL: floor (default), skip, infinite")
	fs.IntVar(&opts.Workers, "workers", opts.Workers, "evaluation workers (default GOMAXPROCS)")
	fs.BoolVar(&opts.Refresh, "refresh", opts.Refresh, "recompute cached importance vectors and weights")
}

// bindStrategies adds the --strategies list flag.
func (f *optionFlags) bindStrategies(fs *pflag.FlagSet) {
	fs.StringVar(&f.strategies, "strategies", "", "comma-separated strategies: uniform, indegree, jaccard, popularity, importance, learned, external")
}

// apply copies flag values that need parsing into opts. Only flags the user
// set override values already present.
func (f *optionFlags) apply(opts *pipeline.Options) {
	if f.strategies != "" {
		opts.Strategies = splitList(f.strategies)
	}
}

// splitList splits a comma-separated flag value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// overlay copies the shared options the user set on the command line from
// src onto dst, leaving values loaded from a config file in place otherwise.
func (f *optionFlags) overlay(fs *pflag.FlagSet, dst *pipeline.Options, src pipeline.Options) {
	changed := func(name string, copyFn func()) {
		if fs.Changed(name) {
			copyFn()
		}
	}
	changed("strategies", func() { dst.Strategies = splitList(f.strategies) })
	changed("params", func() { dst.Params = src.Params })
	changed("seed", func() { dst.Seed = src.Seed })
	changed("importance", func() { dst.Importance = src.Importance })
	changed("regularization", func() { dst.Regularization = src.Regularization })
	changed("policy", func() { dst.Policy = src.Policy })
	changed("kl-policy", func() { dst.KLPolicy = src.KLPolicy })
	changed("workers", func() { dst.Workers = src.Workers })
	changed("refresh", func() { dst.Refresh = src.Refresh })
}
