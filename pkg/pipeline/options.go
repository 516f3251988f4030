package pipeline

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/nextstep/pkg/cache"
	"github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/importance"
	"github.com/matzehuels/nextstep/pkg/learn"
	"github.com/matzehuels/nextstep/pkg/metrics"
	"github.com/matzehuels/nextstep/pkg/strategy"
)

const (
	// DefaultReplications is the largest replication count of a sweep.
	DefaultReplications = 5

	// DefaultSeed seeds the uniform strategy and the learner.
	DefaultSeed = uint64(1)

	// DefaultLearnIterations caps learner updates per replication.
	DefaultLearnIterations = learn.DefaultIterations

	// DefaultLearnRate is the exponent of the learner's update.
	DefaultLearnRate = learn.DefaultRate
)

// Report modes.
const (
	// ReportAll writes rows for every strategy at every configuration.
	ReportAll = "all"
	// ReportLast writes learned rows at every configuration and rows for
	// all strategies only at the final configuration of the sweep.
	ReportLast = "last"
)

// DefaultTeleports is the default teleport grid, highest first.
var DefaultTeleports = []float64{0.2, 0.1, 0.05, 0.01}

// Options configures loading, learning and evaluation.
// It can be decoded from TOML or YAML with LoadOptions.
type Options struct {
	// Inputs and outputs
	Input   string `toml:"input" yaml:"input" json:"input"`
	Params  string `toml:"params" yaml:"params" json:"params,omitempty"`
	Results string `toml:"results" yaml:"results" json:"results,omitempty"`
	Edges   string `toml:"edges" yaml:"edges" json:"edges,omitempty"`
	Summary string `toml:"summary" yaml:"summary" json:"summary,omitempty"`

	// Sweep grid
	Teleports    []float64 `toml:"teleports" yaml:"teleports" json:"teleports,omitempty"`
	Replications int       `toml:"replications" yaml:"replications" json:"replications,omitempty"`
	Strategies   []string  `toml:"strategies" yaml:"strategies" json:"strategies,omitempty"`
	Seed         uint64    `toml:"seed" yaml:"seed" json:"seed,omitempty"`
	Report       string    `toml:"report" yaml:"report" json:"report,omitempty"`

	// Importance
	Importance    string  `toml:"importance" yaml:"importance" json:"importance,omitempty"`
	Epsilon       float64 `toml:"epsilon" yaml:"epsilon" json:"epsilon,omitempty"`
	MaxIterations int     `toml:"max_iterations" yaml:"max_iterations" json:"max_iterations,omitempty"`

	// Learner
	Regularization  float64 `toml:"regularization" yaml:"regularization" json:"regularization,omitempty"`
	Policy          string  `toml:"policy" yaml:"policy" json:"policy,omitempty"`
	LearnRate       float64 `toml:"learn_rate" yaml:"learn_rate" json:"learn_rate,omitempty"`
	LearnIterations int     `toml:"learn_iterations" yaml:"learn_iterations" json:"learn_iterations,omitempty"`

	// Evaluation
	KLPolicy string  `toml:"kl_policy" yaml:"kl_policy" json:"kl_policy,omitempty"`
	KLFloor  float64 `toml:"kl_floor" yaml:"kl_floor" json:"kl_floor,omitempty"`
	Workers  int     `toml:"workers" yaml:"workers" json:"workers,omitempty"`

	// Caching
	Refresh bool `toml:"refresh" yaml:"refresh" json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Verbose bool        `toml:"-" yaml:"-" json:"-"`
	Logger  *log.Logger `toml:"-" yaml:"-" json:"-"`

	kinds     []strategy.Kind
	policy    learn.Policy
	klPolicy  metrics.KLPolicy
	validated bool
}

// LoadOptions decodes a sweep configuration from a .toml, .yaml or .yml
// file. Relative paths inside the file are resolved against its directory.
func LoadOptions(path string) (Options, error) {
	var opts Options
	if err := errors.ValidatePath(path); err != nil {
		return opts, err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.DecodeFile(path, &opts); err != nil {
			return opts, decodeError(path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return opts, decodeError(path, err)
		}
		if err := yaml.Unmarshal(data, &opts); err != nil {
			return opts, decodeError(path, err)
		}
	default:
		return opts, errors.New(errors.ErrCodeInvalidConfig, "unsupported config format %q (want .toml, .yaml or .yml)", ext)
	}

	base := filepath.Dir(path)
	for _, p := range []*string{&opts.Input, &opts.Params, &opts.Results, &opts.Edges, &opts.Summary} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	return opts, nil
}

func decodeError(path string, err error) error {
	if os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
	}
	return errors.Wrap(errors.ErrCodeInvalidConfig, err, "config %s", path)
}

// ValidateAndSetDefaults checks the options and fills in defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := errors.ValidatePath(o.Input); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "input")
	}
	if err := o.validateSweep(); err != nil {
		return err
	}
	if err := o.validateLearner(); err != nil {
		return err
	}
	if err := o.validateEvaluation(); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

func (o *Options) validateSweep() error {
	if len(o.Teleports) == 0 {
		o.Teleports = slices.Clone(DefaultTeleports)
	}
	for _, t := range o.Teleports {
		if err := errors.ValidateProbability("teleport", t); err != nil {
			return err
		}
	}
	if o.Replications == 0 {
		o.Replications = DefaultReplications
	}
	if o.Replications < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "replications must be positive, got %d", o.Replications)
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	switch o.Report {
	case "":
		o.Report = ReportLast
	case ReportAll, ReportLast:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "report must be %q or %q, got %q", ReportAll, ReportLast, o.Report)
	}

	if len(o.Strategies) == 0 {
		for _, k := range strategy.All() {
			if k == strategy.External && o.Params == "" {
				continue
			}
			o.kinds = append(o.kinds, k)
			o.Strategies = append(o.Strategies, k.String())
		}
		return nil
	}
	kinds, err := strategy.ParseKinds(o.Strategies)
	if err != nil {
		return err
	}
	if slices.Contains(kinds, strategy.External) && o.Params == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "strategy %q needs a params file", strategy.External)
	}
	o.kinds = kinds
	return nil
}

func (o *Options) validateLearner() error {
	if o.Importance == "" {
		o.Importance = importance.MethodWeighted
	}
	if o.Importance != importance.MethodWeighted && o.Importance != importance.MethodGonum {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown importance method %q", o.Importance)
	}
	if o.Epsilon == 0 {
		o.Epsilon = importance.DefaultEpsilon
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = importance.DefaultMaxIterations
	}
	if o.Epsilon < 0 || o.MaxIterations < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "epsilon and max_iterations must be positive")
	}
	if o.Regularization < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "regularization must not be negative, got %v", o.Regularization)
	}
	if o.Policy == "" {
		o.Policy = learn.Oracle.String()
	}
	p, err := learn.ParsePolicy(o.Policy)
	if err != nil {
		return err
	}
	o.policy = p
	if o.LearnRate == 0 {
		o.LearnRate = DefaultLearnRate
	}
	if o.LearnIterations == 0 {
		o.LearnIterations = DefaultLearnIterations
	}
	if o.LearnRate < 0 || o.LearnIterations < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "learn_rate and learn_iterations must be positive")
	}
	return nil
}

func (o *Options) validateEvaluation() error {
	if o.KLPolicy == "" {
		o.KLPolicy = metrics.KLFloor.String()
	}
	p, err := metrics.ParseKLPolicy(o.KLPolicy)
	if err != nil {
		return err
	}
	o.klPolicy = p
	if o.KLFloor == 0 {
		o.KLFloor = metrics.DefaultFloor
	}
	if o.KLFloor < 0 || o.KLFloor >= 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "kl_floor must be in (0, 1), got %v", o.KLFloor)
	}
	if o.Workers == 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "workers must be positive, got %d", o.Workers)
	}
	return nil
}

// Kinds returns the parsed strategies. Valid after ValidateAndSetDefaults.
func (o *Options) Kinds() []strategy.Kind { return o.kinds }

// LearnPolicy returns the parsed regularisation policy.
func (o *Options) LearnPolicy() learn.Policy { return o.policy }

// Evaluator returns the metrics evaluator configured by the options.
func (o *Options) Evaluator() metrics.Evaluator {
	return metrics.Evaluator{KL: o.klPolicy, Floor: o.KLFloor}
}

// Reported reports whether rows of kind at the given grid position are
// written in the configured report mode.
func (o *Options) Reported(kind strategy.Kind, teleport float64, replication int) bool {
	if o.Report == ReportAll || kind == strategy.Learned {
		return true
	}
	return teleport == o.Teleports[len(o.Teleports)-1] && replication == o.Replications
}

// ImportanceKeyOpts returns the cache key options of an importance vector.
func (o *Options) ImportanceKeyOpts(teleport float64) cache.ImportanceKeyOpts {
	return cache.ImportanceKeyOpts{
		Method:        o.Importance,
		Teleport:      teleport,
		Epsilon:       o.Epsilon,
		MaxIterations: o.MaxIterations,
	}
}

// WeightsKeyOpts returns the cache key options of a learned weight vector.
func (o *Options) WeightsKeyOpts(teleport float64, replications int) cache.WeightsKeyOpts {
	return cache.WeightsKeyOpts{
		Teleport:     teleport,
		Replications: replications,
		Seed:         o.Seed,
		Rate:         o.LearnRate,
		Iterations:   o.LearnIterations,
		Strength:     o.Regularization,
		Policy:       o.Policy,
	}
}
