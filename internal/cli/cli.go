// Package cli implements the trsolver command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/WalterStager/thaumcraft-research-solver/pkg/aspect"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/buildinfo"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/cache"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/config"
	boardio "github.com/WalterStager/thaumcraft-research-solver/pkg/io"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "trsolver"
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

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "trsolver links Thaumcraft research aspects on a hex board",
		Long: `trsolver fills the empty cells of a Thaumcraft research board so that every
placed aspect is connected through a chain of related aspects, either with a
fast heuristic or with an exact minimum-cost solve.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/trsolver/config.toml)")

	root.AddCommand(c.gridCommand())
	root.AddCommand(c.aspectsCommand())
	root.AddCommand(c.solveCommand())
	root.AddCommand(c.exactCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// config returns the loaded settings, or the defaults when the root
// pre-run has not happened.
func (c *CLI) config() *config.Config {
	if c.cfg == nil {
		c.cfg = config.Default()
	}
	return c.cfg
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, nil, c.Logger), nil
}

func (c *CLI) newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.Disabled(), nil
	}
	opts := c.config().CacheOptions()
	if opts.Backend == cache.BackendFile || opts.Backend == "" {
		if opts.Dir == "" {
			dir, err := cacheDir()
			if err != nil {
				return cache.Disabled(), nil
			}
			opts.Dir = dir
		}
	}
	return cache.Open(opts)
}

// loadAspects reads the recipe book named by path, the config, or the
// built-in book, in that order.
func (c *CLI) loadAspects(path string) (*aspect.Graph, error) {
	if path == "" {
		path = c.config().Recipes.Path
	}
	return boardio.LoadRecipes(path)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/trsolver/).
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

// =============================================================================
// Options Helpers
// =============================================================================

// solveFlags are shared by solve and exact.
type solveFlags struct {
	recipes  string
	output   string
	noCache  bool
	refresh  bool
	jsonOut  bool
	strategy string
	mode     string
	seed     uint64
	protect  bool
	maxTime  int
	workers  int
	stacking bool
}

func (f *solveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.recipes, "recipes", "", "recipe book (.json or .toml; default built-in)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write the solved board to this file")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached results but store the new one")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "print the full result as JSON")
}

// options builds pipeline options from the config, then any flag the user
// set explicitly.
func (c *CLI) options(cmd *cobra.Command, f *solveFlags, board *boardio.Board) pipeline.Options {
	cfg := c.config()
	opts := pipeline.Options{
		Board:         board,
		Strategy:      cfg.Solver.Strategy,
		Mode:          cfg.Solver.Mode,
		Seed:          cfg.Solver.Seed,
		ProtectSeeds:  cfg.Solver.ProtectSeeds,
		MaxTimeSecs:   cfg.Exact.MaxTimeSeconds,
		NumWorkers:    cfg.Exact.NumWorkers,
		AllowStacking: !cfg.Exact.OneAspectPerCell,
		Refresh:       f.refresh,
		Logger:        c.Logger,
	}
	set := cmd.Flags().Changed
	if set("strategy") {
		opts.Strategy = f.strategy
	}
	if set("mode") {
		opts.Mode = f.mode
	}
	if set("seed") {
		opts.Seed = f.seed
	}
	if set("protect-seeds") {
		opts.ProtectSeeds = f.protect
	}
	if set("max-time") {
		opts.MaxTimeSecs = f.maxTime
	}
	if set("workers") {
		opts.NumWorkers = f.workers
	}
	if set("allow-stacking") {
		opts.AllowStacking = f.stacking
	}
	return opts
}
