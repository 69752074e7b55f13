package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/WalterStager/thaumcraft-research-solver/pkg/aspect"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/cache"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/exact"
	boardio "github.com/WalterStager/thaumcraft-research-solver/pkg/io"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/milp"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/observability"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/placement"
)

// Runner encapsulates solve execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can use the same Runner with different options; each solve
// builds its own grid and synthesizer.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, results are not cached.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.Disabled()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Solve runs a heuristic solve of opts.Board with caching.
func (r *Runner) Solve(ctx context.Context, opts Options) (*SolveResult, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForSolve(); err != nil {
		return nil, err
	}
	aspects, recipes, err := r.aspects(opts)
	if err != nil {
		return nil, err
	}
	boardHash, err := cache.HashJSON(opts.Board)
	if err != nil {
		return nil, fmt.Errorf("hash board: %w", err)
	}
	key := r.Keyer.SolveKey(boardHash, opts.SolveKeyOpts(recipes))

	var cached SolveResult
	if r.lookup(ctx, key, "solve", opts.Refresh, &cached) {
		cached.CacheHit = true
		return &cached, nil
	}

	g, err := opts.Board.Grid()
	if err != nil {
		return nil, err
	}
	seeds, err := opts.Board.Seeds(g)
	if err != nil {
		return nil, err
	}

	syn := placement.NewSynthesizer(g, aspects,
		placement.WithLogger(opts.Logger),
		placement.WithMode(opts.mode),
		placement.WithSeed(opts.Seed),
		placement.WithProtectSeeds(opts.ProtectSeeds),
	)

	hooks := observability.Solver()
	hooks.OnSolveStart(ctx, opts.Strategy, len(seeds))
	start := time.Now()
	p, report, err := syn.Run(ctx, opts.strategy, seeds)
	elapsed := time.Since(start)
	hooks.OnSolveComplete(ctx, opts.Strategy, len(p), elapsed, err)
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}

	board, err := boardio.BoardFromPlacement(g, p)
	if err != nil {
		return nil, err
	}
	res := &SolveResult{
		Board:     board,
		Placement: p,
		Report:    report,
		Stats:     Stats{Seeds: len(seeds), Placed: len(p), Duration: elapsed},
	}
	r.Logger.Info("solved board",
		"strategy", opts.Strategy,
		"seeds", len(seeds),
		"placed", len(p),
		"cost", report.Cost(),
		"duration", elapsed.Round(time.Millisecond))

	r.store(ctx, key, "solve", res, TTLSolve)
	return res, nil
}

// Exact runs the exact model over opts.Board with caching. A solve that
// times out without an incumbent is a result, not an error.
func (r *Runner) Exact(ctx context.Context, opts Options) (*ExactResult, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForExact(); err != nil {
		return nil, err
	}
	aspects, recipes, err := r.aspects(opts)
	if err != nil {
		return nil, err
	}
	boardHash, err := cache.HashJSON(opts.Board)
	if err != nil {
		return nil, fmt.Errorf("hash board: %w", err)
	}
	key := r.Keyer.ExactKey(boardHash, opts.ExactKeyOpts(recipes))

	var cached ExactResult
	if r.lookup(ctx, key, "exact", opts.Refresh, &cached) {
		cached.CacheHit = true
		return &cached, nil
	}

	g, err := opts.Board.Grid()
	if err != nil {
		return nil, err
	}
	terminals, err := opts.Board.Terminals(g)
	if err != nil {
		return nil, err
	}
	model, err := exact.NewModel(g, aspects, terminals, exact.Options{
		MaxTime:       opts.MaxTime(),
		NumWorkers:    opts.NumWorkers,
		AllowStacking: opts.AllowStacking,
		Logger:        opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	vars, cons := model.Size()
	r.Logger.Debug("built exact model",
		"product_nodes", model.Graph().Len(),
		"vars", vars,
		"constraints", cons)

	hooks := observability.Solver()
	hooks.OnExactStart(ctx, vars, cons)
	start := time.Now()
	out, err := model.Solve(ctx)
	elapsed := time.Since(start)
	if err != nil {
		hooks.OnExactComplete(ctx, "error", 0, elapsed, err)
		return nil, fmt.Errorf("exact: %w", err)
	}
	hooks.OnExactComplete(ctx, out.Status.String(), out.Objective, elapsed, nil)

	res := &ExactResult{
		Result:      out,
		Vars:        vars,
		Constraints: cons,
		Stats:       Stats{Seeds: len(terminals), Placed: len(out.Placement), Duration: elapsed},
	}
	if out.Status.HasSolution() {
		if res.Board, err = boardio.BoardFromPlacement(g, out.Placement); err != nil {
			return nil, err
		}
	}
	r.Logger.Info("exact solve",
		"status", out.Status,
		"objective", out.Objective,
		"placed", len(out.Placement),
		"duration", elapsed.Round(time.Millisecond))

	// A timed-out search may improve with another run.
	if out.Status == milp.StatusOptimal || out.Status == milp.StatusInfeasible {
		r.store(ctx, key, "exact", res, TTLExact)
	}
	return res, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) aspects(opts Options) (*aspect.Graph, string, error) {
	g := opts.Aspects
	if g == nil {
		var err error
		if g, err = aspect.Builtin(); err != nil {
			return nil, "", err
		}
	}
	h, err := cache.HashJSON(g.Spec())
	if err != nil {
		return nil, "", fmt.Errorf("hash recipes: %w", err)
	}
	return g, h, nil
}

func (r *Runner) lookup(ctx context.Context, key, keyType string, refresh bool, v any) bool {
	if refresh {
		return false
	}
	hooks := observability.Cache()
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key_type", keyType, "err", err)
		return false
	}
	if !hit || json.Unmarshal(data, v) != nil {
		hooks.OnCacheMiss(ctx, keyType)
		return false
	}
	hooks.OnCacheHit(ctx, keyType)
	r.Logger.Debug("cache hit", "key_type", keyType)
	return true
}

func (r *Runner) store(ctx context.Context, key, keyType string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key_type", keyType, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
