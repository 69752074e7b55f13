package exact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/WalterStager/thaumcraft-research-solver/pkg/aspect"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/hexgrid"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/milp"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/placement"
)

var (
	// ErrNoTerminals is returned by [NewModel] without any terminal.
	ErrNoTerminals = errors.New("exact: at least one terminal is required")

	// ErrDuplicateTerminal is returned when the same (cell, aspect) pair is
	// listed twice.
	ErrDuplicateTerminal = errors.New("exact: duplicate terminal")

	// ErrDisabledCell is returned for a terminal on a disabled cell.
	ErrDisabledCell = errors.New("exact: terminal on a disabled cell")
)

// Terminal is a (cell, aspect) pair that must be part of the connected set.
type Terminal = Node

// Options configures model construction and solving.
type Options struct {
	// MaxTime bounds the solve; zero means [milp.DefaultMaxTime].
	MaxTime time.Duration
	// NumWorkers is the number of parallel search workers; zero means
	// [milp.DefaultNumWorkers].
	NumWorkers int
	// AllowStacking lifts the at-most-one-aspect-per-cell constraint.
	AllowStacking bool
	// MaxDenseEntries is passed to the backend; zero keeps its default.
	MaxDenseEntries int
	// Solver is the backend; nil means [milp.BranchAndBound].
	Solver milp.Solver
	Logger *log.Logger
}

func (o Options) withDefaults() Options {
	if o.Solver == nil {
		o.Solver = milp.BranchAndBound{}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}

// Model is the flow formulation over a product graph. Terminal[0] is the
// flow root: it emits one unit for every other selected node, and each
// selected node consumes one unit, so the selected nodes form one connected
// subgraph.
type Model struct {
	graph     *ProductGraph
	terminals []int
	opts      Options

	lp    *milp.Model
	cells []milp.Var
	edges []milp.Var
	flows [][2]milp.Var // forward, backward per edge
}

// NewModel builds the flow model connecting terminals on grid.
func NewModel(grid *hexgrid.Grid, aspects *aspect.Graph, terminals []Terminal, opts Options) (*Model, error) {
	if len(terminals) == 0 {
		return nil, ErrNoTerminals
	}
	seen := make(map[Node]bool, len(terminals))
	for _, t := range terminals {
		if !grid.Has(t.Cell) {
			return nil, fmt.Errorf("%w: terminal %v", hexgrid.ErrNodeNotFound, t)
		}
		if grid.IsDisabled(t.Cell) {
			return nil, fmt.Errorf("%w: %v", ErrDisabledCell, t)
		}
		if !aspects.Has(t.Aspect) {
			return nil, fmt.Errorf("%w: %q", aspect.ErrAspectNotFound, t.Aspect)
		}
		if seen[t] {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateTerminal, t)
		}
		seen[t] = true
	}

	m := &Model{
		graph: BuildProductGraph(grid, aspects, terminals...),
		opts:  opts.withDefaults(),
		lp:    milp.NewModel(),
	}
	for _, t := range terminals {
		i, _ := m.graph.Index(t)
		m.terminals = append(m.terminals, i)
	}
	if err := m.build(); err != nil {
		return nil, err
	}
	m.opts.Logger.Debug("built exact model",
		"nodes", m.graph.Len(),
		"edges", len(m.edges),
		"vars", m.lp.NumVars(),
		"constraints", m.lp.NumConstraints())
	return m, nil
}

func (m *Model) build() error {
	g, lp := m.graph, m.lp
	bigM := float64(g.Len())

	for _, n := range g.nodes {
		m.cells = append(m.cells, lp.AddBinary("cell_"+n.String()))
	}
	for _, e := range g.edges {
		name := g.nodes[e[0]].String() + "_" + g.nodes[e[1]].String()
		m.edges = append(m.edges, lp.AddBinary("edge_"+name))
		fwd, err := lp.AddContinuous("flow_"+name, 0)
		if err != nil {
			return err
		}
		bwd, err := lp.AddContinuous("flow_"+g.nodes[e[1]].String()+"_"+g.nodes[e[0]].String(), 0)
		if err != nil {
			return err
		}
		m.flows = append(m.flows, [2]milp.Var{fwd, bwd})
	}

	var errs []error
	add := func(name string, terms []milp.Term, sense milp.Sense, rhs float64) {
		errs = append(errs, lp.AddConstraint(name, terms, sense, rhs))
	}

	for _, t := range m.terminals {
		add("terminal_"+g.nodes[t].String(), []milp.Term{{Var: m.cells[t], Coef: 1}}, milp.Equal, 1)
	}
	for k, e := range g.edges {
		edge := m.edges[k]
		add(fmt.Sprintf("edge_%d_tail", k), []milp.Term{{Var: edge, Coef: 1}, {Var: m.cells[e[0]], Coef: -1}}, milp.LessEq, 0)
		add(fmt.Sprintf("edge_%d_head", k), []milp.Term{{Var: edge, Coef: 1}, {Var: m.cells[e[1]], Coef: -1}}, milp.LessEq, 0)
		for _, f := range m.flows[k] {
			add(fmt.Sprintf("flow_%d_cap", k), []milp.Term{{Var: f, Coef: 1}, {Var: edge, Coef: -bigM}}, milp.LessEq, 0)
		}
	}

	// outgoing minus incoming flow per node
	net := make([][]milp.Term, g.Len())
	for k, e := range g.edges {
		fwd, bwd := m.flows[k][0], m.flows[k][1]
		net[e[0]] = append(net[e[0]], milp.Term{Var: fwd, Coef: 1}, milp.Term{Var: bwd, Coef: -1})
		net[e[1]] = append(net[e[1]], milp.Term{Var: bwd, Coef: 1}, milp.Term{Var: fwd, Coef: -1})
	}
	root := m.terminals[0]
	for i := range g.Len() {
		if i == root {
			terms := slices.Clone(net[i])
			for _, c := range m.cells {
				terms = append(terms, milp.Term{Var: c, Coef: -1})
			}
			add("supply", terms, milp.Equal, -1)
			continue
		}
		terms := make([]milp.Term, 0, len(net[i])+1)
		for _, t := range net[i] {
			terms = append(terms, milp.Term{Var: t.Var, Coef: -t.Coef})
		}
		terms = append(terms, milp.Term{Var: m.cells[i], Coef: -1})
		add("demand_"+g.nodes[i].String(), terms, milp.Equal, 0)
	}

	if !m.opts.AllowStacking {
		perCell := make(map[hexgrid.NodeID][]milp.Term)
		var order []hexgrid.NodeID
		for i, n := range g.nodes {
			if _, ok := perCell[n.Cell]; !ok {
				order = append(order, n.Cell)
			}
			perCell[n.Cell] = append(perCell[n.Cell], milp.Term{Var: m.cells[i], Coef: 1})
		}
		for _, cell := range order {
			if terms := perCell[cell]; len(terms) > 1 {
				add(fmt.Sprintf("cell_%d_single", cell), terms, milp.LessEq, 1)
			}
		}
	}

	terminal := make(map[int]bool, len(m.terminals))
	for _, t := range m.terminals {
		terminal[t] = true
	}
	var objective []milp.Term
	for i, c := range m.cells {
		if !terminal[i] {
			objective = append(objective, milp.Term{Var: c, Coef: 1})
		}
	}
	errs = append(errs, lp.Minimize(objective))
	return errors.Join(errs...)
}

// Graph returns the product graph the model was built on.
func (m *Model) Graph() *ProductGraph { return m.graph }

// Size returns the variable and constraint counts.
func (m *Model) Size() (vars, constraints int) {
	return m.lp.NumVars(), m.lp.NumConstraints()
}

// Result is the outcome of [Model.Solve]. Selected and Placement are empty
// unless Status.HasSolution.
type Result struct {
	Status    milp.Status         `json:"status"`
	Objective float64             `json:"objective"`
	Selected  []Node              `json:"selected,omitempty"`
	Placement placement.Placement `json:"placement,omitempty"`
	Nodes     int64               `json:"nodes"`
	Elapsed   time.Duration       `json:"elapsed"`
}

// Solve runs the backend. Hitting the time limit is reported through the
// status; errors come only from malformed models.
func (m *Model) Solve(ctx context.Context) (*Result, error) {
	sol, err := m.opts.Solver.Solve(ctx, m.lp, milp.Options{
		MaxTime:         m.opts.MaxTime,
		NumWorkers:      m.opts.NumWorkers,
		MaxDenseEntries: m.opts.MaxDenseEntries,
		Logger:          m.opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		Status:  sol.Status,
		Nodes:   sol.Nodes,
		Elapsed: sol.Elapsed,
	}
	if !sol.Status.HasSolution() {
		return res, nil
	}
	res.Objective = sol.Objective
	res.Placement = make(placement.Placement)
	for i, c := range m.cells {
		if sol.Value(c) > 0.5 {
			n := m.graph.nodes[i]
			res.Selected = append(res.Selected, n)
			res.Placement[n.Cell] = n.Aspect
		}
	}
	m.opts.Logger.Info("exact solve finished",
		"status", res.Status,
		"objective", res.Objective,
		"selected", len(res.Selected),
		"elapsed", res.Elapsed)
	return res, nil
}
