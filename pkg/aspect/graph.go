package aspect

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/katalvlaran/lvlath/core"
)

var (
	// ErrAspectNotFound is returned by queries naming an aspect that is not
	// part of the recipe book.
	ErrAspectNotFound = errors.New("aspect: aspect not found")

	// ErrCycleDetected is wrapped by [CycleError]. Match it with errors.Is
	// when the offending aspect is not needed.
	ErrCycleDetected = errors.New("aspect: recipe cycle detected")

	// ErrEmptyName is returned by [New] when the spec contains an empty
	// aspect or component name.
	ErrEmptyName = errors.New("aspect: empty aspect name")
)

// Infinite is the cost reported by [Graph.MinCost] for unreachable pairs.
const Infinite = math.MaxInt

// CycleError reports a recipe that (transitively) requires itself.
type CycleError struct {
	Aspect string   // aspect whose resolution was re-entered
	Path   []string // resolution chain, starting and ending with Aspect
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %s (%s)", ErrCycleDetected, e.Aspect, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycleDetected }

// Spec maps an aspect name to its ordered component list. A nil or empty
// list marks a primal aspect. Components without their own entry are added
// implicitly as primals.
type Spec map[string][]string

// Graph is the aspect relation graph with precomputed costs.
//
// The zero value is not usable - use New.
type Graph struct {
	names      []string // sorted
	components map[string][]string
	parents    map[string][]string
	relations  map[string][]string
	cost       map[string]int
	table      map[string]map[string]int
	links      *core.Graph // undirected, unweighted relation graph
}

// New builds a Graph from spec. It fails with a [*CycleError] if the recipe
// relation is cyclic.
func New(spec Spec) (*Graph, error) {
	g := &Graph{
		components: make(map[string][]string),
		parents:    make(map[string][]string),
		relations:  make(map[string][]string),
		cost:       make(map[string]int),
	}

	related := make(map[string]map[string]struct{})
	link := func(a, b string) {
		if related[a] == nil {
			related[a] = make(map[string]struct{})
		}
		related[a][b] = struct{}{}
	}

	for name, comps := range spec {
		if name == "" {
			return nil, ErrEmptyName
		}
		if _, ok := g.components[name]; !ok {
			g.components[name] = nil
		}
		for _, c := range comps {
			if c == "" {
				return nil, fmt.Errorf("%w: component of %s", ErrEmptyName, name)
			}
			if _, ok := g.components[c]; !ok {
				g.components[c] = nil
			}
		}
		g.components[name] = slices.Clone(comps)
	}

	for name, comps := range g.components {
		for _, c := range comps {
			if c == name {
				continue
			}
			link(name, c)
			link(c, name)
			if !slices.Contains(g.parents[c], name) {
				g.parents[c] = append(g.parents[c], name)
			}
		}
	}

	g.names = slices.Sorted(maps.Keys(g.components))
	for _, name := range g.names {
		g.relations[name] = slices.Sorted(maps.Keys(related[name]))
		slices.Sort(g.parents[name])
	}

	if err := g.resolveCosts(); err != nil {
		return nil, err
	}
	if err := g.index(); err != nil {
		return nil, err
	}
	return g, nil
}

// resolveCosts computes every intrinsic cost over the directed recipe
// relation, memoized, with white/gray/black cycle detection.
func (g *Graph) resolveCosts() error {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(g.names))
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		switch color[name] {
		case black:
			return nil
		case gray:
			start := slices.Index(stack, name)
			path := append(slices.Clone(stack[start:]), name)
			return &CycleError{Aspect: name, Path: path}
		}
		color[name] = gray
		stack = append(stack, name)

		total := 1
		for _, c := range g.components[name] {
			if err := visit(c); err != nil {
				return err
			}
			total += g.cost[c]
		}

		stack = stack[:len(stack)-1]
		color[name] = black
		g.cost[name] = total
		return nil
	}

	for _, name := range g.names {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

// Aspects returns every aspect name in ascending order.
func (g *Graph) Aspects() []string { return slices.Clone(g.names) }

// Len returns the number of aspects.
func (g *Graph) Len() int { return len(g.names) }

// Has reports whether name is part of the recipe book.
func (g *Graph) Has(name string) bool {
	_, ok := g.components[name]
	return ok
}

// Cost returns the intrinsic cost of an aspect.
func (g *Graph) Cost(name string) (int, error) {
	if err := g.check(name); err != nil {
		return 0, err
	}
	return g.cost[name], nil
}

// Components returns the recipe of an aspect in spec order. Primals return
// an empty slice.
func (g *Graph) Components(name string) ([]string, error) {
	if err := g.check(name); err != nil {
		return nil, err
	}
	return slices.Clone(g.components[name]), nil
}

// Parents returns the aspects that list name as a direct component, sorted.
func (g *Graph) Parents(name string) ([]string, error) {
	if err := g.check(name); err != nil {
		return nil, err
	}
	return slices.Clone(g.parents[name]), nil
}

// IsPrimal reports whether name has no components. Unknown names are not
// primal.
func (g *Graph) IsPrimal(name string) bool {
	comps, ok := g.components[name]
	return ok && len(comps) == 0
}

// Neighbors returns the aspects related to name, sorted.
func (g *Graph) Neighbors(name string) ([]string, error) {
	if err := g.check(name); err != nil {
		return nil, err
	}
	return slices.Clone(g.relations[name]), nil
}

// Related reports whether a and b are adjacent in the relation graph.
func (g *Graph) Related(a, b string) bool {
	_, found := slices.BinarySearch(g.relations[a], b)
	return found
}

// TransitionCost returns the cost of stepping from one aspect to another,
// which is always the intrinsic cost of the destination.
func (g *Graph) TransitionCost(from, to string) (int, error) {
	if err := g.check(from, to); err != nil {
		return 0, err
	}
	return g.cost[to], nil
}

// MinCost returns the cheapest cumulative transition cost from a to b, or
// [Infinite] if b is unreachable. MinCost(x, x) is 0.
func (g *Graph) MinCost(a, b string) (int, error) {
	if err := g.check(a, b); err != nil {
		return 0, err
	}
	return g.minCost(a, b), nil
}

func (g *Graph) minCost(a, b string) int {
	if d, ok := g.table[a][b]; ok {
		return d
	}
	return Infinite
}

// PathCost sums the transition costs along path. Paths with fewer than two
// elements cost 0.
func (g *Graph) PathCost(path []string) (int, error) {
	if err := g.check(path...); err != nil {
		return 0, err
	}
	total := 0
	for i := 1; i < len(path); i++ {
		total += g.cost[path[i]]
	}
	return total, nil
}

// IntermediateCost sums the intrinsic costs of path elements excluding both
// ends.
func (g *Graph) IntermediateCost(path []string) (int, error) {
	if err := g.check(path...); err != nil {
		return 0, err
	}
	total := 0
	for i := 1; i < len(path)-1; i++ {
		total += g.cost[path[i]]
	}
	return total, nil
}

// Spec returns the normalized recipe book, including implicit primals.
func (g *Graph) Spec() Spec {
	out := make(Spec, len(g.names))
	for _, name := range g.names {
		out[name] = slices.Clone(g.components[name])
	}
	return out
}

func (g *Graph) check(names ...string) error {
	for _, n := range names {
		if _, ok := g.components[n]; !ok {
			return fmt.Errorf("%w: %q", ErrAspectNotFound, n)
		}
	}
	return nil
}
