// Package cli implements the nextstep command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nextstep/pkg/buildinfo"
	"github.com/matzehuels/nextstep/pkg/cache"
	"github.com/matzehuels/nextstep/pkg/observability"
	"github.com/matzehuels/nextstep/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "nextstep"

	// redisURLEnv selects a shared Redis cache instead of the local one.
	redisURLEnv = "NEXTSTEP_REDIS_URL"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	noCache        bool
	redisURL       string
	cacheNamespace string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level. At debug level the pipeline's
// observability hooks are routed to the logger as well.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		observability.NewLogHooks(c.Logger).Install()
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "nextstep evaluates next-step predictors on session data",
		Long: `nextstep builds a transition graph from session sequences and measures how
well different weighting strategies predict the observed next step of every
item: uniform, in-degree, Jaccard, popularity, importance, learned weights,
and externally supplied parameters.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.BoolVar(&c.noCache, "no-cache", false, "disable caching of importance vectors and learned weights")
	pf.StringVar(&c.redisURL, "redis", os.Getenv(redisURLEnv), "Redis URL for a shared cache (env "+redisURLEnv+")")
	pf.StringVar(&c.cacheNamespace, "cache-namespace", "", "prefix cache keys to keep experiments apart")

	root.AddCommand(c.ingestCommand())
	root.AddCommand(c.evaluateCommand())
	root.AddCommand(c.sweepCommand())
	root.AddCommand(c.reportCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.vizCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if c.cacheNamespace != "" {
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), c.cacheNamespace)
	}
	return pipeline.NewRunner(cc, keyer, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	if c.redisURL != "" {
		rc, err := cache.NewRedisCache(ctx, c.redisURL, appName+":")
		if err != nil {
			return nil, err
		}
		c.Logger.Debug("using redis cache")
		return rc, nil
	}
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/nextstep/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
