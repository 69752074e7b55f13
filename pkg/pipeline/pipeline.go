// Package pipeline runs board solves for the CLI and the API server.
//
// Both entry points describe a request as [Options] and hand it to a
// [Runner], which loads the recipe book, builds the grid, runs the
// heuristic synthesizer or the exact model and caches the result under a
// content hash of every input.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Solve(ctx, pipeline.Options{
//	    Board:    board,
//	    Strategy: "pairwise",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	io.WriteBoard(res.Board, os.Stdout)
//
// The exact model runs through [Runner.Exact] with the same options plus
// MaxTimeSecs and NumWorkers.
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/WalterStager/thaumcraft-research-solver/pkg/aspect"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/cache"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/errors"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/exact"
	boardio "github.com/WalterStager/thaumcraft-research-solver/pkg/io"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/placement"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultSeed seeds component selection in the contiguous strategy.
	DefaultSeed = placement.DefaultSeed

	// DefaultStrategy is the heuristic used when none is named.
	DefaultStrategy = string(placement.StrategyPairwise)

	// DefaultMode is the contiguous search effort.
	DefaultMode = "fast"

	// DefaultExactTime bounds an exact solve when MaxTimeSecs is zero.
	DefaultExactTime = 60 * time.Second

	// TTLSolve and TTLExact are the cache lifetimes of results.
	TTLSolve = 7 * 24 * time.Hour
	TTLExact = 30 * 24 * time.Hour
)

// =============================================================================
// Options - Solve Configuration
// =============================================================================

// Options describes one solve. It doubles as the JSON body of the API's
// solve endpoints.
type Options struct {
	Board *boardio.Board `json:"board"`

	// Heuristic options
	Strategy     string `json:"strategy,omitempty"`
	Mode         string `json:"mode,omitempty"`
	Seed         uint64 `json:"seed,omitempty"`
	ProtectSeeds bool   `json:"protect_seeds,omitempty"`

	// Exact options
	MaxTimeSecs   int  `json:"max_time_seconds,omitempty"`
	NumWorkers    int  `json:"num_workers,omitempty"`
	AllowStacking bool `json:"allow_stacking,omitempty"`

	// Refresh skips the cache lookup but still stores the result.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Aspects *aspect.Graph `json:"-"`
	Logger  *log.Logger   `json:"-"`

	strategy placement.Strategy
	mode     placement.Mode
}

// SolveResult is the outcome of a heuristic solve.
type SolveResult struct {
	// Board is the solved board: input placements plus every linking cell.
	Board     *boardio.Board      `json:"board"`
	Placement placement.Placement `json:"placement"`
	Report    *placement.Report   `json:"report"`
	Stats     Stats               `json:"stats"`
	CacheHit  bool                `json:"cache_hit"`
}

// ExactResult is the outcome of an exact solve. Board is nil unless the
// status carries a solution.
type ExactResult struct {
	Board       *boardio.Board `json:"board,omitempty"`
	Result      *exact.Result  `json:"result"`
	Vars        int            `json:"vars"`
	Constraints int            `json:"constraints"`
	Stats       Stats          `json:"stats"`
	CacheHit    bool           `json:"cache_hit"`
}

// Stats contains execution statistics.
type Stats struct {
	Seeds    int           `json:"seeds"`
	Placed   int           `json:"placed"`
	Duration time.Duration `json:"duration"`
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateForSolve checks the board and heuristic options and applies
// defaults.
func (o *Options) ValidateForSolve() error {
	if err := o.validateBoard(); err != nil {
		return err
	}
	if o.Strategy == "" {
		o.Strategy = DefaultStrategy
	}
	if o.Mode == "" {
		o.Mode = DefaultMode
	}
	s, err := placement.ParseStrategy(o.Strategy)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid strategy")
	}
	m, err := placement.ParseMode(o.Mode)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid mode")
	}
	o.strategy, o.mode = s, m
	o.Strategy, o.Mode = string(s), m.String()
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	o.setRuntimeDefaults()
	return nil
}

// ValidateForExact checks the board and the exact limits and applies
// defaults.
func (o *Options) ValidateForExact() error {
	if err := o.validateBoard(); err != nil {
		return err
	}
	if len(o.Board.Placements) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "exact solve needs at least one placement")
	}
	if err := errors.ValidateExactLimits(o.MaxTime(), o.NumWorkers); err != nil {
		return err
	}
	if o.MaxTimeSecs == 0 {
		o.MaxTimeSecs = int(DefaultExactTime / time.Second)
	}
	o.setRuntimeDefaults()
	return nil
}

// MaxTime is MaxTimeSecs as a duration.
func (o *Options) MaxTime() time.Duration {
	return time.Duration(o.MaxTimeSecs) * time.Second
}

func (o *Options) validateBoard() error {
	if o.Board == nil {
		return errors.New(errors.ErrCodeInvalidInput, "board is required")
	}
	return o.Board.Validate()
}

func (o *Options) setRuntimeDefaults() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SolveKeyOpts returns cache key options for a heuristic solve.
func (o *Options) SolveKeyOpts(recipes string) cache.SolveKeyOpts {
	return cache.SolveKeyOpts{
		Recipes:      recipes,
		Strategy:     o.Strategy,
		Mode:         o.Mode,
		Seed:         o.Seed,
		ProtectSeeds: o.ProtectSeeds,
	}
}

// ExactKeyOpts returns cache key options for an exact solve.
func (o *Options) ExactKeyOpts(recipes string) cache.ExactKeyOpts {
	return cache.ExactKeyOpts{
		Recipes:       recipes,
		MaxTimeSecs:   o.MaxTimeSecs,
		AllowStacking: o.AllowStacking,
	}
}
