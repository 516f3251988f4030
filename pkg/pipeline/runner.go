package pipeline

import (
	"context"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/nextstep/pkg/cache"
	"github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/graph"
	"github.com/matzehuels/nextstep/pkg/importance"
	"github.com/matzehuels/nextstep/pkg/io"
	"github.com/matzehuels/nextstep/pkg/learn"
	"github.com/matzehuels/nextstep/pkg/metrics"
	"github.com/matzehuels/nextstep/pkg/observability"
	"github.com/matzehuels/nextstep/pkg/sequence"
	"github.com/matzehuels/nextstep/pkg/strategy"
)

// Runner executes pipeline stages with caching.
//
// A Runner holds no per-run state, so one Runner may serve several
// concurrent runs with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// uses the DefaultKeyer, and a nil logger uses the default charm logger.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// Load reads the dataset and, if configured, the external parameters.
// Read failures are reported as INGESTION_FAILED unless they carry a more
// specific code.
func (r *Runner) Load(ctx context.Context, opts Options) (ds *Dataset, err error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	start := time.Now()
	hooks := observability.Ingest()
	hooks.OnIngestStart(ctx, opts.Input)
	defer func() {
		var lines, nodes int
		if ds != nil {
			lines, nodes = ds.Stats.Lines, ds.Graph.NumNodes()
		}
		hooks.OnIngestComplete(ctx, opts.Input, lines, nodes, time.Since(start), err)
	}()

	src, err := io.OpenSequences(opts.Input)
	if err != nil {
		return nil, ingestion(ctx, err, "open %s", opts.Input)
	}
	defer src.Close()

	model := sequence.NewModel(nil)
	stats, err := io.ReadSequences(ctx, src, model.Observe)
	if err != nil {
		return nil, ingestion(ctx, err, "read %s", opts.Input)
	}

	ds = &Dataset{
		Path:       opts.Input,
		Digest:     src.Digest(),
		Model:      model,
		Graph:      model.Graph(),
		Stats:      stats,
		Popularity: model.PopularityVector(),
	}
	if opts.Params != "" {
		ds.External, err = io.LoadParams(opts.Params, ds.Graph.NumNodes())
		if err != nil {
			return nil, ingestion(ctx, err, "params %s", opts.Params)
		}
	}
	ds.LoadTime = time.Since(start)

	r.Logger.Info("loaded dataset",
		"lines", stats.Lines,
		"nodes", ds.Graph.NumNodes(),
		"edges", ds.Graph.NumEdges(),
		"transitions", ds.Graph.TotalTransitions(),
		"duration", ds.LoadTime)
	return ds, nil
}

// ingestion wraps err as INGESTION_FAILED unless it already carries a code
// or stems from cancellation.
func ingestion(ctx context.Context, err error, format string, args ...any) error {
	if errors.GetCode(err) != "" || ctx.Err() != nil {
		return err
	}
	return errors.Wrap(errors.ErrCodeIngestion, err, format, args...)
}

// Importance returns the importance vector of ds at teleport, from cache
// when available. The second result reports a cache hit.
func (r *Runner) Importance(ctx context.Context, ds *Dataset, opts Options, teleport float64) ([]float64, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	key := r.Keyer.ImportanceKey(ds.Digest, opts.ImportanceKeyOpts(teleport))
	if v, ok := r.cachedVector(ctx, "importance", key, ds.Graph.NumNodes(), opts.Refresh); ok {
		return v, true, nil
	}

	calc, err := importance.New(opts.Importance, teleport)
	if err != nil {
		return nil, false, err
	}
	if pi, ok := calc.(*importance.PowerIteration); ok {
		pi.Epsilon = opts.Epsilon
		pi.MaxIterations = opts.MaxIterations
	}

	start := time.Now()
	v, err := calc.Calculate(ctx, ds.Graph)
	if err != nil {
		return nil, false, err
	}
	r.Logger.Debug("computed importance", "teleport", teleport, "method", opts.Importance, "duration", time.Since(start))

	r.storeVector(ctx, "importance", key, v, cache.TTLImportance)
	return v, false, nil
}

// Learn returns a frozen snapshot of ds's graph with learned weights. The
// dataset's own graph is left untouched. The second result reports a cache
// hit.
func (r *Runner) Learn(ctx context.Context, ds *Dataset, opts Options, teleport float64, replications int) (*graph.Store, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	key := r.Keyer.WeightsKey(ds.Digest, opts.WeightsKeyOpts(teleport, replications))
	if v, ok := r.cachedVector(ctx, "weights", key, ds.Graph.NumEdges(), opts.Refresh); ok {
		snap, err := applyWeights(ds.Graph, v)
		if err == nil {
			return snap, true, nil
		}
		r.Logger.Warn("discarding cached weights", "err", err)
	}

	hooks := observability.Evaluation()
	hooks.OnLearnStart(ctx, teleport, replications)
	start := time.Now()

	l, err := learn.New(ds.Graph.Clone(), ds.Popularity, teleport)
	if err != nil {
		hooks.OnLearnComplete(ctx, teleport, replications, time.Since(start), err)
		return nil, false, err
	}
	l.Rate = opts.LearnRate
	l.Iterations = opts.LearnIterations
	l.Seed = opts.Seed
	l.Logger = r.Logger
	l.SetRegularization(opts.Regularization, opts.LearnPolicy())

	snap, err := l.Learn(ctx, replications, opts.Verbose)
	hooks.OnLearnComplete(ctx, teleport, replications, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	r.storeVector(ctx, "weights", key, flattenWeights(snap), cache.TTLWeights)
	return snap, false, nil
}

// Evaluate scores every kind on every node of snap that has outgoing
// transitions. Nodes are processed by opts.Workers goroutines; the results
// are ordered by node id regardless of scheduling.
func (r *Runner) Evaluate(ctx context.Context, snap *graph.Store, env *strategy.Env, kinds []strategy.Kind, opts Options) ([]StrategyRun, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if !snap.Frozen() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "evaluation needs a frozen snapshot")
	}
	if env.Model == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "evaluation needs an empirical model")
	}
	env.Graph = snap

	sources := snap.Sources()
	evaluator := opts.Evaluator()
	hooks := observability.Evaluation()
	runs := make([]StrategyRun, 0, len(kinds))

	for _, kind := range kinds {
		hooks.OnEvaluateStart(ctx, kind.String(), len(sources))
		start := time.Now()

		results := make([]NodeResult, len(sources))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Workers)
		for i, u := range sources {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				res, err := evaluateNode(kind, env, evaluator, u)
				if err != nil && !errors.Recoverable(err) {
					return err
				}
				results[i] = NodeResult{Node: u, Result: res, Err: err}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			hooks.OnEvaluateComplete(ctx, kind.String(), 0, 0, time.Since(start), err)
			return nil, err
		}

		var agg metrics.Aggregator
		for _, nr := range results {
			if nr.Err != nil {
				agg.Skip(nr.Err)
				continue
			}
			agg.Add(nr.Result)
		}
		run := StrategyRun{
			Kind:     kind,
			Nodes:    results,
			Summary:  agg.Summary(snap.NumNodes()),
			Duration: time.Since(start),
		}
		hooks.OnEvaluateComplete(ctx, kind.String(), run.Summary.Evaluated, run.Summary.Skipped, run.Duration, nil)
		r.Logger.Debug("evaluated strategy",
			"strategy", kind,
			"nodes", run.Summary.Evaluated,
			"skipped", run.Summary.Skipped,
			"duration", run.Duration)
		if run.Summary.Skipped > 0 || run.Summary.Singular > 0 {
			r.Logger.Warn("strategy left nodes unscored or singular",
				"strategy", kind,
				"skipped", run.Summary.Skipped,
				"singular", run.Summary.Singular,
				"evaluated", run.Summary.Evaluated)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// Prepare builds the snapshot and strategy environment for one grid
// position. Importance is computed only when kinds include it, and weights
// are learned only when kinds include the learned strategy; otherwise the
// snapshot carries the transition counts.
func (r *Runner) Prepare(ctx context.Context, ds *Dataset, opts Options, kinds []strategy.Kind, teleport float64, replications int) (*graph.Store, *strategy.Env, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, nil, err
	}
	env := &strategy.Env{
		Model:    ds.Model,
		External: ds.External,
		Seed:     opts.Seed,
	}
	if slices.Contains(kinds, strategy.Importance) {
		imp, _, err := r.Importance(ctx, ds, opts, teleport)
		if err != nil {
			return nil, nil, err
		}
		env.Importance = imp
	}
	if !slices.Contains(kinds, strategy.Learned) {
		snap := ds.Graph.Freeze()
		env.Graph = snap
		return snap, env, nil
	}
	snap, _, err := r.Learn(ctx, ds, opts, teleport, replications)
	if err != nil {
		return nil, nil, err
	}
	env.Graph = snap
	return snap, env, nil
}

// EvaluateAt scores opts.Kinds() at a single teleport and replication count.
func (r *Runner) EvaluateAt(ctx context.Context, ds *Dataset, opts Options, teleport float64, replications int) ([]StrategyRun, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	snap, env, err := r.Prepare(ctx, ds, opts, opts.Kinds(), teleport, replications)
	if err != nil {
		return nil, err
	}
	return r.Evaluate(ctx, snap, env, opts.Kinds(), opts)
}

func evaluateNode(kind strategy.Kind, env *strategy.Env, ev metrics.Evaluator, u graph.NodeID) (metrics.Result, error) {
	empirical, err := env.Model.Distribution(u)
	if err != nil {
		return metrics.Result{}, errors.Wrap(errors.ErrCodeInternal, err, "node %d", u)
	}
	ws, err := strategy.Generate(kind, env, u)
	if err != nil {
		return metrics.Result{}, err
	}
	return ev.Evaluate(empirical, ws)
}

func (r *Runner) cachedVector(ctx context.Context, keyType, key string, want int, refresh bool) ([]float64, bool) {
	if refresh {
		return nil, false
	}
	hooks := observability.Cache()
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		if err != nil {
			r.Logger.Warn("cache read failed", "type", keyType, "err", err)
		}
		hooks.OnCacheMiss(ctx, keyType)
		return nil, false
	}
	v, err := cache.DecodeVector(data)
	if err != nil || len(v) != want {
		hooks.OnCacheMiss(ctx, keyType)
		return nil, false
	}
	hooks.OnCacheHit(ctx, keyType)
	return v, true
}

func (r *Runner) storeVector(ctx context.Context, keyType, key string, v []float64, ttl time.Duration) {
	data := cache.EncodeVector(v)
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "type", keyType, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// flattenWeights lists the weights of snap in node, then slot order.
func flattenWeights(snap *graph.Store) []float64 {
	out := make([]float64, 0, snap.NumEdges())
	for u := 0; u < snap.NumNodes(); u++ {
		out = append(out, snap.Weights(graph.NodeID(u))...)
	}
	return out
}

// applyWeights writes a flattened weight vector onto a clone of base and
// freezes it.
func applyWeights(base *graph.Store, v []float64) (*graph.Store, error) {
	if len(v) != base.NumEdges() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "weight vector has %d entries, graph has %d slots", len(v), base.NumEdges())
	}
	work := base.Clone()
	i := 0
	for u := 0; u < work.NumNodes(); u++ {
		for slot := 0; slot < work.NumNeighbors(graph.NodeID(u)); slot++ {
			if err := work.SetWeight(graph.NodeID(u), slot, v[i]); err != nil {
				return nil, err
			}
			i++
		}
	}
	return work.Freeze(), nil
}
