package pipeline

import (
	"context"
	"io"
	"math"
	"reflect"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/WalterStager/thaumcraft-research-solver/pkg/aspect"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/cache"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/errors"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/hexgrid"
	boardio "github.com/WalterStager/thaumcraft-research-solver/pkg/io"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/milp"
)

func tinyAspects(t *testing.T) *aspect.Graph {
	t.Helper()
	g, err := aspect.New(aspect.Spec{"lux": {"aer"}})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

// Two aer cells on opposite sides of the center; lux is the only link.
func tinyBoard() *boardio.Board {
	return &boardio.Board{
		Radius: 1,
		Placements: []boardio.Cell{
			{Q: -1, R: 0, Aspect: "aer"},
			{Q: 1, R: 0, Aspect: "aer"},
		},
	}
}

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, log.New(io.Discard))
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func centerAspect(t *testing.T, b *boardio.Board) string {
	t.Helper()
	for _, c := range b.Placements {
		if c.Coord() == (hexgrid.Coord{}) {
			return c.Aspect
		}
	}
	return ""
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	if r.Cache == nil || r.Keyer == nil || r.Logger == nil {
		t.Errorf("NewRunner(nil, nil, nil) left a nil field: %+v", r)
	}
}

func TestOptionsValidateForSolve(t *testing.T) {
	opts := Options{Board: tinyBoard(), Mode: "SLOW"}
	if err := opts.ValidateForSolve(); err != nil {
		t.Fatalf("ValidateForSolve() error: %v", err)
	}
	if opts.Strategy != DefaultStrategy {
		t.Errorf("Strategy = %q, want %q", opts.Strategy, DefaultStrategy)
	}
	if opts.Mode != "slow" {
		t.Errorf("Mode = %q, want normalized slow", opts.Mode)
	}
	if opts.Seed != DefaultSeed {
		t.Errorf("Seed = %d, want %d", opts.Seed, DefaultSeed)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
}

func TestOptionsValidate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		opts  Options
		exact bool
		code  errors.Code
	}{
		{"no board", Options{}, false, errors.ErrCodeInvalidInput},
		{"bad strategy", Options{Board: tinyBoard(), Strategy: "greedy"}, false, errors.ErrCodeInvalidInput},
		{"bad mode", Options{Board: tinyBoard(), Mode: "medium"}, false, errors.ErrCodeInvalidInput},
		{"bad radius", Options{Board: &boardio.Board{Radius: 12}}, false, errors.ErrCodeInvalidBoard},
		{"exact empty", Options{Board: &boardio.Board{Radius: 1}}, true, errors.ErrCodeInvalidInput},
		{"exact time", Options{Board: tinyBoard(), MaxTimeSecs: 7200}, true, errors.ErrCodeInvalidInput},
		{"exact workers", Options{Board: tinyBoard(), NumWorkers: 100}, true, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.exact {
				err = tt.opts.ValidateForExact()
			} else {
				err = tt.opts.ValidateForSolve()
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("validate error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestOptionsValidateForExactDefaults(t *testing.T) {
	opts := Options{Board: tinyBoard()}
	if err := opts.ValidateForExact(); err != nil {
		t.Fatal(err)
	}
	if opts.MaxTime() != DefaultExactTime {
		t.Errorf("MaxTime() = %s, want %s", opts.MaxTime(), DefaultExactTime)
	}
}

func TestRunnerSolve(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()
	opts := Options{Board: tinyBoard(), Aspects: tinyAspects(t)}

	res, err := r.Solve(ctx, opts)
	if err != nil {
		t.Fatalf("Solve() error: %v", err)
	}
	if res.CacheHit {
		t.Error("first Solve() should miss the cache")
	}
	if res.Stats.Seeds != 2 || res.Stats.Placed != 3 {
		t.Errorf("Stats = %+v, want 2 seeds and 3 placed", res.Stats)
	}
	if got := centerAspect(t, res.Board); got != "lux" {
		t.Errorf("center = %q, want lux", got)
	}
	if len(res.Report.Links) != 1 || res.Report.Links[0].Steps != 2 {
		t.Errorf("Report.Links = %+v, want one 2-step link", res.Report.Links)
	}

	again, err := r.Solve(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !again.CacheHit {
		t.Error("second Solve() should hit the cache")
	}
	if !reflect.DeepEqual(again.Placement, res.Placement) {
		t.Errorf("cached Placement = %v, want %v", again.Placement, res.Placement)
	}

	opts.Refresh = true
	fresh, err := r.Solve(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.CacheHit {
		t.Error("Solve() with Refresh should not read the cache")
	}
}

func TestRunnerSolve_Contiguous(t *testing.T) {
	r := NewRunner(nil, nil, log.New(io.Discard))
	res, err := r.Solve(context.Background(), Options{
		Board:    tinyBoard(),
		Aspects:  tinyAspects(t),
		Strategy: "contiguous",
		Mode:     "slow",
	})
	if err != nil {
		t.Fatalf("Solve() error: %v", err)
	}
	if got := centerAspect(t, res.Board); got != "lux" {
		t.Errorf("center = %q, want lux", got)
	}
}

func TestRunnerSolve_UnknownAspect(t *testing.T) {
	r := NewRunner(nil, nil, log.New(io.Discard))
	b := tinyBoard()
	b.Placements[1].Aspect = "ignis"
	_, err := r.Solve(context.Background(), Options{Board: b, Aspects: tinyAspects(t)})
	if errors.Classify(err) != errors.ErrCodeAspectNotFound {
		t.Errorf("Solve() error = %v, want %s", err, errors.ErrCodeAspectNotFound)
	}
}

func TestRunnerExact(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()
	opts := Options{Board: tinyBoard(), Aspects: tinyAspects(t), MaxTimeSecs: 10, NumWorkers: 2}

	res, err := r.Exact(ctx, opts)
	if err != nil {
		t.Fatalf("Exact() error: %v", err)
	}
	if res.Result.Status != milp.StatusOptimal || math.Abs(res.Result.Objective-1) > 1e-6 {
		t.Fatalf("Exact() = %s objective %v, want optimal 1", res.Result.Status, res.Result.Objective)
	}
	if res.Board == nil || centerAspect(t, res.Board) != "lux" {
		t.Errorf("Exact() board = %+v, want lux at the center", res.Board)
	}
	if res.Vars == 0 || res.Constraints == 0 {
		t.Errorf("model size = %d vars, %d constraints", res.Vars, res.Constraints)
	}

	again, err := r.Exact(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !again.CacheHit || again.Result.Status != milp.StatusOptimal {
		t.Errorf("second Exact() = hit %v status %s, want a cached optimal result", again.CacheHit, again.Result.Status)
	}
}

func TestRunnerExact_Infeasible(t *testing.T) {
	spec := aspect.Spec{"lux": {"aer"}, "vacuos": nil}
	g, err := aspect.New(spec)
	if err != nil {
		t.Fatal(err)
	}
	b := tinyBoard()
	b.Placements[1].Aspect = "vacuos"

	r := NewRunner(nil, nil, log.New(io.Discard))
	res, err := r.Exact(context.Background(), Options{Board: b, Aspects: g, MaxTimeSecs: 10})
	if err != nil {
		t.Fatalf("Exact() error: %v", err)
	}
	if res.Result.Status != milp.StatusInfeasible || res.Board != nil {
		t.Errorf("Exact() = %s board %v, want infeasible without a board", res.Result.Status, res.Board)
	}
}
