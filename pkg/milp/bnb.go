package milp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

const (
	intTol   = 1e-6
	pruneTol = 1e-9
)

// errNodeInfeasible marks a subproblem whose bounds or rows cannot hold.
var errNodeInfeasible = errors.New("milp: node infeasible")

// BranchAndBound is a depth-first branch-and-bound solver. LP relaxations
// are solved with a dense bounded-variable simplex that keeps variable bounds
// out of the rows; NumWorkers goroutines share one pool of open subproblems.
// The zero value is ready to use.
type BranchAndBound struct{}

var _ Solver = BranchAndBound{}

// subproblem is a node of the search tree: the model with tightened bounds.
type subproblem struct {
	lo, hi []float64
	bound  float64 // parent relaxation objective
	depth  int
}

type search struct {
	m    *Model
	opts Options

	integral bool      // objective takes integer values on every solution
	obj      []float64 // dense objective

	mu        sync.Mutex
	cond      *sync.Cond
	open      []*subproblem
	active    int
	best      float64
	incumbent []float64
	partial   bool // some subproblem was abandoned

	nodes atomic.Int64
}

// Solve runs branch and bound until the tree is exhausted, MaxTime passes or
// ctx is done, whichever comes first.
func (BranchAndBound) Solve(ctx context.Context, m *Model, opts Options) (*Solution, error) {
	opts = opts.WithDefaults()
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, opts.MaxTime)
	defer cancel()

	s := &search{
		m:        m,
		opts:     opts,
		integral: integralObjective(m),
		best:     math.Inf(1),
		open: []*subproblem{{
			lo:    append([]float64(nil), m.lower...),
			hi:    append([]float64(nil), m.upper...),
			bound: math.Inf(-1),
		}},
	}
	s.cond = sync.NewCond(&s.mu)
	s.obj = make([]float64, m.NumVars())
	for _, t := range m.objective {
		s.obj[t.Var] += t.Coef
	}

	// oversized models fail before any worker starts
	if _, err := s.relax(s.open[0].lo, s.open[0].hi); errors.Is(err, ErrModelTooLarge) {
		return nil, err
	}

	stop := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	for range opts.NumWorkers {
		g.Go(func() error {
			for {
				p, ok := s.next(gctx)
				if !ok {
					return nil
				}
				err := s.process(gctx, p)
				s.done()
				if err != nil {
					return err
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sol := s.solution(ctx.Err() != nil)
	sol.Elapsed = time.Since(start)
	opts.Logger.Debug("branch and bound finished",
		"status", sol.Status,
		"objective", sol.Objective,
		"nodes", sol.Nodes,
		"elapsed", sol.Elapsed)
	return sol, nil
}

func (s *search) solution(interrupted bool) *Solution {
	s.mu.Lock()
	defer s.mu.Unlock()

	exhausted := !interrupted && !s.partial && len(s.open) == 0
	sol := &Solution{Nodes: s.nodes.Load()}
	switch {
	case s.incumbent != nil && exhausted:
		sol.Status = StatusOptimal
	case s.incumbent != nil:
		sol.Status = StatusFeasible
	case exhausted:
		sol.Status = StatusInfeasible
	default:
		sol.Status = StatusUnknown
	}
	if s.incumbent != nil {
		sol.Values = s.incumbent
		sol.Objective = s.best
	}
	return sol
}

// next pops the most recent open subproblem, waiting while other workers may
// still add children. It returns false once the tree is exhausted or ctx ends.
func (s *search) next(ctx context.Context) (*subproblem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.open) == 0 && s.active > 0 && ctx.Err() == nil {
		s.cond.Wait()
	}
	if ctx.Err() != nil || len(s.open) == 0 {
		return nil, false
	}
	p := s.open[len(s.open)-1]
	s.open = s.open[:len(s.open)-1]
	s.active++
	return p, true
}

func (s *search) done() {
	s.mu.Lock()
	s.active--
	s.cond.Broadcast()
	s.mu.Unlock()
}

func (s *search) cutoff() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.best
}

// process solves one subproblem and either prunes it, records an incumbent
// or pushes two children. Only an unbounded relaxation is returned as an
// error; other failures mark the search as partial.
func (s *search) process(ctx context.Context, p *subproblem) error {
	if p.bound >= s.cutoff()-pruneTol {
		return nil
	}
	s.nodes.Add(1)

	obj, x, err := s.solveRelaxation(ctx, p.lo, p.hi)
	switch {
	case errors.Is(err, errNodeInfeasible), errors.Is(err, errLPInfeasible):
		return nil
	case errors.Is(err, ErrUnbounded):
		return err
	case ctx.Err() != nil:
		return nil
	case err != nil:
		s.opts.Logger.Debug("abandoned subproblem", "depth", p.depth, "err", err)
		s.mu.Lock()
		s.partial = true
		s.mu.Unlock()
		return nil
	}

	bound := obj
	if s.integral {
		bound = math.Ceil(obj - intTol)
	}
	if bound >= s.cutoff()-pruneTol {
		return nil
	}

	// most fractional integer variable, objective variables first
	branch, frac, priced := -1, 0.0, false
	for j, kind := range s.m.kinds {
		if kind == Continuous {
			continue
		}
		f := x[j] - math.Floor(x[j])
		if f <= intTol || f >= 1-intTol {
			continue
		}
		score, inObj := math.Min(f, 1-f), s.obj[j] != 0
		switch {
		case branch < 0, inObj && !priced, inObj == priced && score > frac:
			branch, frac, priced = j, score, inObj
		}
	}

	if branch < 0 {
		for j, kind := range s.m.kinds {
			if kind != Continuous {
				x[j] = math.Round(x[j])
			}
		}
		value := s.m.Evaluate(x)
		s.mu.Lock()
		if value < s.best-pruneTol {
			s.best = value
			s.incumbent = x
			s.opts.Logger.Debug("new incumbent", "objective", value, "depth", p.depth)
		}
		s.mu.Unlock()
		return nil
	}

	down := &subproblem{lo: clone(p.lo), hi: clone(p.hi), bound: bound, depth: p.depth + 1}
	down.hi[branch] = math.Floor(x[branch])
	up := &subproblem{lo: clone(p.lo), hi: clone(p.hi), bound: bound, depth: p.depth + 1}
	up.lo[branch] = math.Ceil(x[branch])

	// the child nearer the relaxed value is explored first; until an
	// incumbent exists, costed variables are rounded up to dive to one
	first, second := up, down
	if x[branch]-math.Floor(x[branch]) < 0.5 {
		first, second = down, up
	}
	s.mu.Lock()
	if s.incumbent == nil && s.obj[branch] > 0 {
		first, second = up, down
	}
	s.open = append(s.open, second, first)
	s.cond.Broadcast()
	s.mu.Unlock()
	return nil
}

// relaxation is the LP of one subproblem over y = x - lo, so every column
// has a zero lower bound and the upper bound hi - lo.
type relaxation struct {
	p      *lp // nil when no row constrains anything
	offset float64
}

func (s *search) solveRelaxation(ctx context.Context, lo, hi []float64) (float64, []float64, error) {
	r, err := s.relax(lo, hi)
	if err != nil {
		return 0, nil, err
	}
	x := clone(lo)
	if r.p == nil {
		obj := r.offset
		for j, c := range s.obj {
			if c < 0 {
				if math.IsInf(hi[j], 1) {
					return 0, nil, fmt.Errorf("%w: %s", ErrUnbounded, s.m.names[j])
				}
				x[j] = hi[j]
				obj += c * (hi[j] - lo[j])
			}
		}
		return obj, x, nil
	}
	y, err := solveLP(ctx, r.p)
	if err != nil {
		return 0, nil, err
	}
	obj := r.offset
	for j := range y {
		x[j] += y[j]
		obj += s.obj[j] * y[j]
	}
	return obj, x, nil
}

func (s *search) relax(lo, hi []float64) (*relaxation, error) {
	m := s.m
	n := m.NumVars()
	for j := range n {
		if lo[j] > hi[j]+intTol {
			return nil, errNodeInfeasible
		}
	}

	rel := &relaxation{}
	for j := range n {
		rel.offset += s.obj[j] * lo[j]
	}

	var rows []map[int]float64
	var rhs []float64
	var senses []Sense
	for _, c := range m.cons {
		coef := make(map[int]float64, len(c.Terms))
		b := c.RHS
		for _, t := range c.Terms {
			b -= t.Coef * lo[t.Var]
			if t.Coef != 0 {
				coef[int(t.Var)] += t.Coef
			}
		}
		for j, v := range coef {
			if v == 0 {
				delete(coef, j)
			}
		}
		// rows without coefficients reduce to 0 sense b
		if len(coef) == 0 {
			if (c.Sense == LessEq && b < -intTol) ||
				(c.Sense == GreaterEq && b > intTol) ||
				(c.Sense == Equal && math.Abs(b) > intTol) {
				return nil, errNodeInfeasible
			}
			continue
		}
		rows = append(rows, coef)
		rhs = append(rhs, b)
		senses = append(senses, c.Sense)
	}
	if len(rows) == 0 {
		return rel, nil
	}

	p := &lp{
		c:     clone(s.obj),
		u:     make([]float64, n),
		a:     mat.NewDense(len(rows), n, nil),
		sense: senses,
		b:     rhs,
	}
	for j := range n {
		p.u[j] = hi[j] - lo[j]
	}
	if width := p.columns(); len(rows)*width > s.opts.MaxDenseEntries {
		return nil, fmt.Errorf("%w: %d rows x %d columns", ErrModelTooLarge, len(rows), width)
	}
	for i, row := range rows {
		for j, v := range row {
			p.a.Set(i, j, v)
		}
	}
	rel.p = p
	return rel, nil
}

func integralObjective(m *Model) bool {
	for _, t := range m.objective {
		if m.kinds[t.Var] == Continuous || t.Coef != math.Trunc(t.Coef) {
			return false
		}
	}
	return true
}

func clone(xs []float64) []float64 { return append([]float64(nil), xs...) }
