package milp

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	pivotTol = 1e-9
	optTol   = 1e-9
	feasTol  = 1e-7

	// consecutive degenerate pivots tolerated before switching to Bland's rule
	blandAfter = 50
)

var (
	// ErrUnbounded is returned when the relaxation can decrease without limit.
	ErrUnbounded = errors.New("milp: relaxation is unbounded")

	errLPInfeasible   = errors.New("milp: relaxation infeasible")
	errIterationLimit = errors.New("milp: simplex iteration limit")
	errNumerical      = errors.New("milp: simplex lost feasibility")
)

// lp is one relaxation in bounded form: min cᵀy subject to the rows of a
// with senses and right-hand sides b, and 0 <= y <= u.
type lp struct {
	c     []float64
	u     []float64
	a     *mat.Dense
	sense []Sense
	b     []float64
}

// tableau is a dense bounded-variable simplex tableau. Columns are the
// structural variables, then one slack per inequality row, then one
// artificial per row that has no usable slack. Nonbasic columns sit at zero
// or at their upper bound.
type tableau struct {
	rows, cols int
	structural int
	artificial int // first artificial column

	t       *mat.Dense // B⁻¹A
	d       []float64  // reduced costs
	upper   []float64
	basis   []int
	value   []float64 // value of the basic column of each row
	row     []int     // row of each basic column, -1 when nonbasic
	atUpper []bool
}

// columns returns the tableau width for p, used for size checks.
func (p *lp) columns() int {
	nr, nc := p.a.Dims()
	width := nc
	for i := range nr {
		if p.sense[i] != Equal {
			width++
		}
		if p.needsArtificial(i) {
			width++
		}
	}
	return width
}

// needsArtificial reports whether row i lacks a slack that can start basic
// once the row is scaled to a non-negative right-hand side.
func (p *lp) needsArtificial(i int) bool {
	switch p.sense[i] {
	case LessEq:
		return p.b[i] < 0
	case GreaterEq:
		return p.b[i] > 0
	}
	return true
}

func newTableau(p *lp) *tableau {
	nr, nc := p.a.Dims()
	width := p.columns()
	slacks := 0
	for i := range nr {
		if p.sense[i] != Equal {
			slacks++
		}
	}

	tb := &tableau{
		rows:       nr,
		cols:       width,
		structural: nc,
		artificial: nc + slacks,
		t:          mat.NewDense(nr, width, nil),
		d:          make([]float64, width),
		upper:      make([]float64, width),
		basis:      make([]int, nr),
		value:      make([]float64, nr),
		row:        make([]int, width),
		atUpper:    make([]bool, width),
	}
	copy(tb.upper, p.u)
	for j := nc; j < width; j++ {
		tb.upper[j] = math.Inf(1)
	}
	for j := range tb.row {
		tb.row[j] = -1
	}

	slack, art := nc, tb.artificial
	for i := range nr {
		r := tb.t.RawRowView(i)
		copy(r, p.a.RawRowView(i))
		b := p.b[i]
		sign := 1.0
		if b < 0 {
			sign = -1
			floats.Scale(-1, r[:nc])
			b = -b
		}
		basic := -1
		switch p.sense[i] {
		case LessEq:
			r[slack] = sign
		case GreaterEq:
			r[slack] = -sign
		}
		if p.sense[i] != Equal {
			if r[slack] > 0 {
				basic = slack
			}
			slack++
		}
		if basic < 0 {
			r[art] = 1
			basic = art
			art++
		}
		tb.basis[i] = basic
		tb.row[basic] = i
		tb.value[i] = b
	}
	return tb
}

// solve runs both phases and returns y.
func (tb *tableau) solve(ctx context.Context, c []float64, bland bool) ([]float64, error) {
	limit := 50 * (tb.rows + tb.cols)

	if tb.artificial < tb.cols {
		phase1 := make([]float64, tb.cols)
		for j := tb.artificial; j < tb.cols; j++ {
			phase1[j] = 1
		}
		if err := tb.optimize(ctx, phase1, bland, limit); err != nil {
			return nil, err
		}
		infeasibility := 0.0
		for i, j := range tb.basis {
			if j >= tb.artificial {
				infeasibility += tb.value[i]
			}
		}
		if infeasibility > feasTol {
			return nil, errLPInfeasible
		}
		// artificials stay in the tableau fixed at zero
		for j := tb.artificial; j < tb.cols; j++ {
			tb.upper[j] = 0
			if r := tb.row[j]; r >= 0 {
				tb.value[r] = 0
			}
		}
	}

	cost := make([]float64, tb.cols)
	copy(cost, c)
	if err := tb.optimize(ctx, cost, bland, limit); err != nil {
		return nil, err
	}

	y := make([]float64, tb.structural)
	for j := range y {
		switch {
		case tb.row[j] >= 0:
			y[j] = tb.value[tb.row[j]]
		case tb.atUpper[j]:
			y[j] = tb.upper[j]
		}
		y[j] = math.Min(math.Max(y[j], 0), tb.upper[j])
	}
	return y, nil
}

func (tb *tableau) price(cost []float64) {
	copy(tb.d, cost)
	for i, j := range tb.basis {
		if cb := cost[j]; cb != 0 {
			floats.AddScaled(tb.d, -cb, tb.t.RawRowView(i))
		}
	}
}

func (tb *tableau) optimize(ctx context.Context, cost []float64, bland bool, limit int) error {
	tb.price(cost)
	degenerate := 0
	for iter := 0; ; iter++ {
		if iter >= limit {
			return errIterationLimit
		}
		if iter%64 == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		useBland := bland || degenerate > blandAfter

		j, dir := tb.entering(useBland)
		if j < 0 {
			return nil
		}
		r, step, toUpper := tb.ratio(j, dir, useBland)
		if math.IsInf(step, 1) {
			return ErrUnbounded
		}
		if step <= feasTol {
			degenerate++
		} else {
			degenerate = 0
		}

		enter := step
		if tb.atUpper[j] {
			enter = tb.upper[j] - step
		}
		if step > 0 {
			for i := range tb.rows {
				if a := tb.t.At(i, j); a != 0 {
					tb.value[i] -= a * dir * step
				}
			}
		}
		if r < 0 {
			tb.atUpper[j] = !tb.atUpper[j]
			continue
		}
		tb.pivot(r, j, enter, toUpper)
	}
}

// entering picks an improving nonbasic column and the direction it moves:
// +1 up from zero, -1 down from its upper bound.
func (tb *tableau) entering(bland bool) (int, float64) {
	best, dir, score := -1, 0.0, 0.0
	for j := range tb.cols {
		if tb.row[j] >= 0 || tb.upper[j] <= pivotTol {
			continue
		}
		var s, dj float64
		switch {
		case !tb.atUpper[j] && tb.d[j] < -optTol:
			s, dj = -tb.d[j], 1
		case tb.atUpper[j] && tb.d[j] > optTol:
			s, dj = tb.d[j], -1
		default:
			continue
		}
		if bland {
			return j, dj
		}
		if s > score {
			best, dir, score = j, dj, s
		}
	}
	return best, dir
}

// ratio finds how far column j can move in direction dir. It returns the
// blocking row, or -1 when j reaches its own opposite bound first, and
// whether the leaving column stops at its upper bound.
func (tb *tableau) ratio(j int, dir float64, bland bool) (int, float64, bool) {
	best, leave, toUpper := tb.upper[j], -1, false
	bestAlpha := 0.0
	for i := range tb.rows {
		alpha := tb.t.At(i, j) * dir
		var lim float64
		hitsUpper := false
		switch {
		case alpha > pivotTol:
			lim = tb.value[i] / alpha
		case alpha < -pivotTol:
			ub := tb.upper[tb.basis[i]]
			if math.IsInf(ub, 1) {
				continue
			}
			lim, hitsUpper = (ub-tb.value[i])/-alpha, true
		default:
			continue
		}
		lim = math.Max(lim, 0)

		switch {
		case lim < best-feasTol:
		case leave >= 0 && lim <= best+feasTol:
			if bland {
				if tb.basis[i] > tb.basis[leave] {
					continue
				}
			} else if math.Abs(alpha) <= bestAlpha {
				continue
			}
		default:
			continue
		}
		best, leave, toUpper, bestAlpha = lim, i, hitsUpper, math.Abs(alpha)
	}
	return leave, best, toUpper
}

func (tb *tableau) pivot(r, j int, enter float64, leavingToUpper bool) {
	leaving := tb.basis[r]
	tb.row[leaving] = -1
	tb.atUpper[leaving] = leavingToUpper

	pr := tb.t.RawRowView(r)
	floats.Scale(1/pr[j], pr)
	for i := range tb.rows {
		if i == r {
			continue
		}
		ri := tb.t.RawRowView(i)
		if f := ri[j]; f != 0 {
			floats.AddScaled(ri, -f, pr)
			ri[j] = 0
		}
	}
	if f := tb.d[j]; f != 0 {
		floats.AddScaled(tb.d, -f, pr)
		tb.d[j] = 0
	}

	tb.basis[r] = j
	tb.row[j] = r
	tb.atUpper[j] = false
	tb.value[r] = enter
}

// solveLP solves p, retrying once with Bland's rule when the first pass
// stalls or drifts.
func solveLP(ctx context.Context, p *lp) ([]float64, error) {
	var err error
	for _, bland := range []bool{false, true} {
		var y []float64
		y, err = newTableau(p).solve(ctx, p.c, bland)
		if err == nil {
			if err = p.check(y); err == nil {
				return y, nil
			}
		}
		if !errors.Is(err, errIterationLimit) && !errors.Is(err, errNumerical) {
			return nil, err
		}
	}
	return nil, err
}

// check verifies y against the rows of p.
func (p *lp) check(y []float64) error {
	nr, _ := p.a.Dims()
	for i := range nr {
		lhs := floats.Dot(p.a.RawRowView(i), y)
		tol := feasTol * 100 * (1 + math.Abs(p.b[i]))
		var ok bool
		switch p.sense[i] {
		case LessEq:
			ok = lhs <= p.b[i]+tol
		case GreaterEq:
			ok = lhs >= p.b[i]-tol
		default:
			ok = math.Abs(lhs-p.b[i]) <= tol
		}
		if !ok {
			return errNumerical
		}
	}
	return nil
}
