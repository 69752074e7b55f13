package placement

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/WalterStager/thaumcraft-research-solver/pkg/hexgrid"
)

var (
	// ErrDuplicateSeed is returned when two seeds name the same grid cell.
	ErrDuplicateSeed = errors.New("placement: duplicate seed cell")

	// ErrUnknownMode is returned by [ParseMode] and [ParseStrategy] for
	// unrecognized names.
	ErrUnknownMode = errors.New("placement: unknown mode")
)

// Placement assigns aspects to grid cells.
type Placement map[hexgrid.NodeID]string

// Clone returns an independent copy.
func (p Placement) Clone() Placement { return maps.Clone(p) }

// Nodes returns the placed cells in ascending order.
func (p Placement) Nodes() []hexgrid.NodeID {
	return slices.Sorted(maps.Keys(p))
}

// Seeds returns the placement as seeds in ascending cell order.
func (p Placement) Seeds() []Seed {
	out := make([]Seed, 0, len(p))
	for _, n := range p.Nodes() {
		out = append(out, Seed{Node: n, Aspect: p[n]})
	}
	return out
}

// Seed is a fixed (cell, aspect) pair the solver must keep connected.
type Seed struct {
	Node   hexgrid.NodeID `json:"node"`
	Aspect string         `json:"aspect"`
}

// Mode trades search effort for solution quality in [Synthesizer.SolveContiguous].
type Mode int

const (
	// ModeFast accepts the first cell of a component that yields a link.
	ModeFast Mode = iota
	// ModeSlow tries every cell of the component and keeps the cheapest link.
	ModeSlow
)

func (m Mode) String() string {
	switch m {
	case ModeFast:
		return "fast"
	case ModeSlow:
		return "slow"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps "fast" or "slow" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "fast", "":
		return ModeFast, nil
	case "slow":
		return ModeSlow, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Strategy selects the solve algorithm.
type Strategy string

const (
	// StrategyPairwise connects seeds one at a time to the placed set.
	StrategyPairwise Strategy = "pairwise"
	// StrategyContiguous merges connected groups of placed cells.
	StrategyContiguous Strategy = "contiguous"
)

// ParseStrategy maps a name to a Strategy. Empty means pairwise.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(s)) {
	case StrategyPairwise, "":
		return StrategyPairwise, nil
	case StrategyContiguous:
		return StrategyContiguous, nil
	}
	return "", fmt.Errorf("%w: strategy %q", ErrUnknownMode, s)
}

// Link records one merge performed by a solve.
type Link struct {
	From    hexgrid.NodeID   `json:"from"`
	To      hexgrid.NodeID   `json:"to"`
	Steps   int              `json:"steps"`
	Cost    int              `json:"cost"`
	Cells   []hexgrid.NodeID `json:"cells"`
	Aspects []string         `json:"aspects"`
}

// Report describes how a solve went. Nothing in it is an error.
type Report struct {
	Links []Link `json:"links"`

	// Isolated lists seeds that could not be linked to anything.
	Isolated []hexgrid.NodeID `json:"isolated,omitempty"`

	// Overwritten lists seed cells that a merge relabeled before the seed
	// itself was processed.
	Overwritten []hexgrid.NodeID `json:"overwritten,omitempty"`

	// Iterations and Components are set by the contiguous strategy only.
	Iterations int `json:"iterations,omitempty"`
	Components int `json:"components,omitempty"`
}

// Cost sums the link costs.
func (r *Report) Cost() int {
	total := 0
	for _, l := range r.Links {
		total += l.Cost
	}
	return total
}
