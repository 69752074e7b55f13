package placement

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/WalterStager/thaumcraft-research-solver/pkg/aspect"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/hexgrid"
)

// DefaultSeed seeds the component shuffle of the contiguous strategy.
const DefaultSeed = uint64(42)

// Option configures a [Synthesizer].
type Option func(*Synthesizer)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(s *Synthesizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithProtectSeeds blocks the cells of not-yet-processed seeds from being
// used as intermediate cells. Off by default, in which case later seeds can
// be overwritten and are reported in [Report.Overwritten].
func WithProtectSeeds(on bool) Option {
	return func(s *Synthesizer) { s.protect = on }
}

// WithMode sets the contiguous strategy mode.
func WithMode(m Mode) Option {
	return func(s *Synthesizer) { s.mode = m }
}

// WithSeed sets the random seed of the contiguous strategy.
func WithSeed(seed uint64) Option {
	return func(s *Synthesizer) { s.seed = seed }
}

// Synthesizer extends a sparse set of seeds into a placement that is
// connected on the grid and consistent with the aspect relation graph.
//
// It reads the grid and aspect graph but never mutates them. Solves must not
// run concurrently on the same grid if another goroutine mutates it.
type Synthesizer struct {
	grid    *hexgrid.Grid
	aspects *aspect.Graph
	logger  *log.Logger
	protect bool
	mode    Mode
	seed    uint64
}

// NewSynthesizer returns a synthesizer over grid and aspects.
func NewSynthesizer(grid *hexgrid.Grid, aspects *aspect.Graph, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		grid:    grid,
		aspects: aspects,
		logger:  log.NewWithOptions(io.Discard, log.Options{}),
		mode:    ModeFast,
		seed:    DefaultSeed,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve runs [Synthesizer.SolveSeeds] with the seeds in ascending cell order.
func (s *Synthesizer) Solve(ctx context.Context, seeds Placement) (Placement, *Report, error) {
	return s.SolveSeeds(ctx, seeds.Seeds())
}

// SolveSeeds connects seeds in the given order. The first seed anchors the
// placed set; every later seed is linked to whichever placed cell gives the
// fewest steps, then the lowest aspect path cost. Seeds with no possible
// link stay isolated. Unknown cells or aspects fail the solve.
func (s *Synthesizer) SolveSeeds(ctx context.Context, seeds []Seed) (Placement, *Report, error) {
	if err := s.validate(seeds); err != nil {
		return nil, nil, err
	}
	out := make(Placement, len(seeds))
	report := &Report{}
	if len(seeds) == 0 {
		return out, report, nil
	}

	pending := make(map[hexgrid.NodeID]string, len(seeds))
	for _, sd := range seeds[1:] {
		pending[sd.Node] = sd.Aspect
	}
	out[seeds[0].Node] = seeds[0].Aspect

	for _, sd := range seeds[1:] {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		delete(pending, sd.Node)
		if label, ok := out[sd.Node]; ok && label != sd.Aspect {
			report.Overwritten = append(report.Overwritten, sd.Node)
		}
		out[sd.Node] = sd.Aspect

		best, err := s.bestLink(ctx, out, sd, pending)
		if err != nil {
			return nil, nil, err
		}
		if best == nil {
			s.logger.Debug("seed left isolated", "cell", sd.Node, "aspect", sd.Aspect)
			report.Isolated = append(report.Isolated, sd.Node)
			continue
		}
		for i, cell := range best.Cells {
			out[cell] = best.Aspects[i]
		}
		s.logger.Debug("linked seed",
			"cell", sd.Node,
			"target", best.To,
			"steps", best.Steps,
			"cost", best.Cost)
		report.Links = append(report.Links, *best)
	}

	s.logger.Info("solved placement",
		"seeds", len(seeds),
		"placed", len(out),
		"links", len(report.Links),
		"isolated", len(report.Isolated))
	return out, report, nil
}

// bestLink scans every placed cell as a target and returns the link with the
// smallest (steps, cost), or nil.
func (s *Synthesizer) bestLink(ctx context.Context, out Placement, sd Seed, pending map[hexgrid.NodeID]string) (*Link, error) {
	maxSteps := s.grid.NodeCount() - 1
	var best *Link

	for _, target := range out.Nodes() {
		if target == sd.Node {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		shortest, err := s.grid.ShortestPath(sd.Node, target)
		if err != nil {
			return nil, err
		}
		if shortest == nil {
			continue
		}

		blocked := make([]hexgrid.NodeID, 0, len(out)+len(pending))
		for _, n := range out.Nodes() {
			if n != target && n != sd.Node {
				blocked = append(blocked, n)
			}
		}
		if s.protect {
			for n := range pending {
				blocked = append(blocked, n)
			}
		}

		for steps := len(shortest) - 1; steps <= maxSteps; steps++ {
			if best != nil && steps > best.Steps {
				break
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			chain, err := s.aspects.FixedStepPath(sd.Aspect, out[target], steps)
			if err != nil {
				return nil, err
			}
			if chain == nil {
				continue
			}
			cells, err := s.grid.PathWithExactLengthContext(ctx, sd.Node, target, steps, blocked)
			if err != nil {
				return nil, err
			}
			if cells == nil {
				continue
			}
			cost, err := s.aspects.PathCost(chain)
			if err != nil {
				return nil, err
			}
			if best == nil || steps < best.Steps || (steps == best.Steps && cost < best.Cost) {
				best = &Link{From: sd.Node, To: target, Steps: steps, Cost: cost, Cells: cells, Aspects: chain}
			}
			break
		}
	}
	return best, nil
}

// SolveContiguous grows a placement by repeatedly joining one connected group
// of placed cells to the others. Groups are picked in a seeded random order.
// The loop stops when everything is connected or after twice as many rounds
// as there were groups at the start.
func (s *Synthesizer) SolveContiguous(ctx context.Context, p Placement) (Placement, *Report, error) {
	if err := s.validate(p.Seeds()); err != nil {
		return nil, nil, err
	}
	out := p.Clone()
	report := &Report{}

	comps, err := s.grid.Components(out.Nodes())
	if err != nil {
		return nil, nil, err
	}
	rng := rand.New(rand.NewPCG(s.seed, s.seed))
	maxLength := 2 * (s.grid.Radius() + 1)
	budget := 2 * len(comps)

	for len(comps) > 1 && report.Iterations < budget {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		rng.Shuffle(len(comps), func(i, j int) { comps[i], comps[j] = comps[j], comps[i] })

		var others []hexgrid.NodeID
		for _, c := range comps[1:] {
			others = append(others, c...)
		}
		best, err := s.joinComponent(ctx, out, comps[0], others, maxLength)
		if err != nil {
			return nil, nil, err
		}
		if best != nil {
			for i := 1; i < len(best.Cells)-1; i++ {
				out[best.Cells[i]] = best.Aspects[i]
			}
			report.Links = append(report.Links, *best)
			s.logger.Debug("joined components",
				"from", best.From,
				"to", best.To,
				"steps", best.Steps,
				"cost", best.Cost)
		}

		if comps, err = s.grid.Components(out.Nodes()); err != nil {
			return nil, nil, err
		}
		report.Iterations++
	}

	report.Components = len(comps)
	s.logger.Info("solved contiguous placement",
		"placed", len(out),
		"components", len(comps),
		"iterations", report.Iterations)
	return out, report, nil
}

// joinComponent tries the cells of comp in order and returns the cheapest
// link to any cell of others. Fast mode returns the first link found.
func (s *Synthesizer) joinComponent(ctx context.Context, out Placement, comp, others []hexgrid.NodeID, maxLength int) (*Link, error) {
	placed := out.Nodes()
	var best *Link

	for _, node := range comp {
		for length := 0; length < maxLength; {
			cells, err := s.grid.FindPathMinimumLengthContext(ctx, node, others, length, placed)
			if err != nil {
				return nil, err
			}
			if cells == nil {
				length++
				continue
			}
			steps := len(cells) - 1
			chain, err := s.aspects.FixedStepPath(out[node], out[cells[steps]], steps)
			if err != nil {
				return nil, err
			}
			if chain == nil {
				length = steps + 1
				continue
			}
			cost, err := s.aspects.IntermediateCost(chain)
			if err != nil {
				return nil, err
			}
			if best == nil || cost <= best.Cost {
				best = &Link{From: node, To: cells[steps], Steps: steps, Cost: cost, Cells: cells, Aspects: chain}
			}
			break
		}
		if best != nil && s.mode == ModeFast {
			break
		}
	}
	return best, nil
}

func (s *Synthesizer) validate(seeds []Seed) error {
	seen := make(map[hexgrid.NodeID]bool, len(seeds))
	for _, sd := range seeds {
		if _, err := s.grid.Coord(sd.Node); err != nil {
			return err
		}
		if !s.aspects.Has(sd.Aspect) {
			return fmt.Errorf("%w: %q at cell %d", aspect.ErrAspectNotFound, sd.Aspect, sd.Node)
		}
		if seen[sd.Node] {
			return fmt.Errorf("%w: %d", ErrDuplicateSeed, sd.Node)
		}
		seen[sd.Node] = true
	}
	return nil
}

// Run dispatches to the solve routine of strategy.
func (s *Synthesizer) Run(ctx context.Context, strategy Strategy, seeds []Seed) (Placement, *Report, error) {
	switch strategy {
	case StrategyContiguous:
		p := make(Placement, len(seeds))
		for _, sd := range seeds {
			p[sd.Node] = sd.Aspect
		}
		if len(p) != len(seeds) {
			return nil, nil, fmt.Errorf("%w: seeds overlap", ErrDuplicateSeed)
		}
		return s.SolveContiguous(ctx, p)
	case StrategyPairwise, "":
		return s.SolveSeeds(ctx, slices.Clone(seeds))
	}
	return nil, nil, fmt.Errorf("%w: strategy %q", ErrUnknownMode, strategy)
}
