package milp

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func knapsack(t *testing.T) (*Model, []Var) {
	t.Helper()
	m := NewModel()
	a, b, c := m.AddBinary("a"), m.AddBinary("b"), m.AddBinary("c")
	if err := m.AddConstraint("weight", []Term{{a, 2}, {b, 3}, {c, 1}}, LessEq, 5); err != nil {
		t.Fatal(err)
	}
	if err := m.Minimize([]Term{{a, -5}, {b, -4}, {c, -3}}); err != nil {
		t.Fatal(err)
	}
	return m, []Var{a, b, c}
}

func TestBranchAndBound_Knapsack(t *testing.T) {
	for _, workers := range []int{1, 4} {
		m, vars := knapsack(t)
		sol, err := BranchAndBound{}.Solve(context.Background(), m, Options{NumWorkers: workers, MaxTime: time.Minute})
		if err != nil {
			t.Fatalf("workers=%d: Solve() error: %v", workers, err)
		}
		if sol.Status != StatusOptimal {
			t.Fatalf("workers=%d: Status = %v, want optimal", workers, sol.Status)
		}
		if math.Abs(sol.Objective+9) > 1e-6 {
			t.Errorf("workers=%d: Objective = %g, want -9", workers, sol.Objective)
		}
		want := []float64{1, 1, 0}
		for i, v := range vars {
			if sol.Value(v) != want[i] {
				t.Errorf("workers=%d: %s = %g, want %g", workers, m.Name(v), sol.Value(v), want[i])
			}
		}
		if err := m.Check(sol.Values, 1e-6); err != nil {
			t.Errorf("workers=%d: solution violates model: %v", workers, err)
		}
	}
}

func TestBranchAndBound_GeneralInteger(t *testing.T) {
	m := NewModel()
	x, _ := m.AddVar("x", Integer, 0, 10)
	y, _ := m.AddVar("y", Integer, 0, 10)
	_ = m.AddConstraint("cap", []Term{{x, 2}, {y, 2}}, LessEq, 7)
	_ = m.Minimize([]Term{{x, -1}, {y, -1}})

	sol, err := BranchAndBound{}.Solve(context.Background(), m, Options{NumWorkers: 2})
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != StatusOptimal || math.Abs(sol.Objective+3) > 1e-6 {
		t.Errorf("Solve() = %v %g, want optimal -3", sol.Status, sol.Objective)
	}
}

func TestBranchAndBound_Continuous(t *testing.T) {
	m := NewModel()
	x, _ := m.AddContinuous("x", 0)
	_ = m.AddConstraint("floor", []Term{{x, 1}}, GreaterEq, 1.5)
	_ = m.Minimize([]Term{{x, 1}})

	sol, err := BranchAndBound{}.Solve(context.Background(), m, Options{NumWorkers: 1})
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != StatusOptimal || math.Abs(sol.Value(x)-1.5) > 1e-6 {
		t.Errorf("Solve() = %v x=%g, want optimal 1.5", sol.Status, sol.Value(x))
	}
	if sol.Nodes != 1 {
		t.Errorf("Nodes = %d, want 1 (no branching)", sol.Nodes)
	}
}

func TestBranchAndBound_Equality(t *testing.T) {
	m := NewModel()
	x := m.AddBinary("x")
	y := m.AddBinary("y")
	f, _ := m.AddContinuous("f", 0)
	_ = m.AddConstraint("pick", []Term{{x, 1}, {y, 1}}, Equal, 1)
	_ = m.AddConstraint("flow", []Term{{f, 1}, {y, -3}}, LessEq, 0)
	_ = m.AddConstraint("demand", []Term{{f, 1}}, GreaterEq, 2)
	_ = m.Minimize([]Term{{x, 1}, {y, 2}})

	sol, err := BranchAndBound{}.Solve(context.Background(), m, Options{NumWorkers: 2})
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != StatusOptimal || sol.Value(y) != 1 || sol.Value(x) != 0 {
		t.Errorf("Solve() = %v x=%g y=%g, want optimal with y=1", sol.Status, sol.Value(x), sol.Value(y))
	}
	if err := m.Check(sol.Values, 1e-6); err != nil {
		t.Error(err)
	}
}

func TestBranchAndBound_Infeasible(t *testing.T) {
	m := NewModel()
	x := m.AddBinary("x")
	_ = m.AddConstraint("impossible", []Term{{x, 1}}, GreaterEq, 2)
	_ = m.Minimize([]Term{{x, 1}})

	sol, err := BranchAndBound{}.Solve(context.Background(), m, Options{NumWorkers: 3})
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != StatusInfeasible || sol.Values != nil {
		t.Errorf("Solve() = %v %v, want infeasible without values", sol.Status, sol.Values)
	}
}

func TestBranchAndBound_Cancelled(t *testing.T) {
	m, _ := knapsack(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sol, err := BranchAndBound{}.Solve(ctx, m, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != StatusUnknown {
		t.Errorf("Status = %v, want unknown", sol.Status)
	}
}

func TestBranchAndBound_TooLarge(t *testing.T) {
	m, _ := knapsack(t)
	_, err := BranchAndBound{}.Solve(context.Background(), m, Options{MaxDenseEntries: 1})
	if !errors.Is(err, ErrModelTooLarge) {
		t.Errorf("error = %v, want ErrModelTooLarge", err)
	}
}

func TestModel_Errors(t *testing.T) {
	m := NewModel()
	x := m.AddBinary("x")
	if err := m.AddConstraint("bad", []Term{{Var(7), 1}}, LessEq, 1); !errors.Is(err, ErrUnknownVar) {
		t.Errorf("AddConstraint error = %v, want ErrUnknownVar", err)
	}
	if _, err := m.AddVar("y", Integer, 3, 1); !errors.Is(err, ErrInvalidBounds) {
		t.Errorf("AddVar error = %v, want ErrInvalidBounds", err)
	}
	_ = m.AddConstraint("cap", []Term{{x, 1}}, LessEq, 0)
	if err := m.Check([]float64{1}, 1e-9); !errors.Is(err, ErrViolated) {
		t.Errorf("Check error = %v, want ErrViolated", err)
	}
	if err := m.Check([]float64{0.5}, 1e-9); !errors.Is(err, ErrViolated) {
		t.Errorf("Check fractional error = %v, want ErrViolated", err)
	}
}

func TestStatusString(t *testing.T) {
	tests := map[Status]string{
		StatusUnknown:    "unknown",
		StatusOptimal:    "optimal",
		StatusFeasible:   "feasible",
		StatusInfeasible: "infeasible",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(s), s.String(), want)
		}
		var back Status
		if err := back.UnmarshalText([]byte(want)); err != nil || back != s {
			t.Errorf("UnmarshalText(%q) = %v, %v", want, back, err)
		}
	}
	var bad Status
	if err := bad.UnmarshalText([]byte("solved")); err == nil {
		t.Error("UnmarshalText(solved) should fail")
	}
	if !StatusFeasible.HasSolution() || StatusUnknown.HasSolution() {
		t.Error("HasSolution() mismatch")
	}
}

// Conservation rows on a small network sum to zero, so one row is always
// redundant. The relaxation must still solve to the cheapest s-t path.
func TestBranchAndBound_RedundantConservation(t *testing.T) {
	m := NewModel()
	type arc struct {
		from, to string
		cost     float64
	}
	arcs := []arc{{"s", "a", 1}, {"s", "b", 2}, {"a", "t", 3}, {"b", "t", 1}, {"a", "b", 0.5}}
	net := map[string][]Term{}
	var obj []Term
	vars := make([]Var, len(arcs))
	for i, a := range arcs {
		v := m.AddBinary(a.from + a.to)
		vars[i] = v
		net[a.from] = append(net[a.from], Term{v, 1})
		net[a.to] = append(net[a.to], Term{v, -1})
		obj = append(obj, Term{v, a.cost})
	}
	supply := map[string]float64{"s": 1, "a": 0, "b": 0, "t": -1}
	for _, n := range []string{"s", "a", "b", "t"} {
		if err := m.AddConstraint("balance_"+n, net[n], Equal, supply[n]); err != nil {
			t.Fatal(err)
		}
	}
	_ = m.Minimize(obj)

	sol, err := BranchAndBound{}.Solve(context.Background(), m, Options{NumWorkers: 2, MaxTime: time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != StatusOptimal || math.Abs(sol.Objective-2.5) > 1e-6 {
		t.Fatalf("Solve() = %v %g, want optimal 2.5", sol.Status, sol.Objective)
	}
	want := []float64{1, 0, 0, 1, 1}
	for i, v := range vars {
		if sol.Value(v) != want[i] {
			t.Errorf("%s = %g, want %g", m.Name(v), sol.Value(v), want[i])
		}
	}
	if err := m.Check(sol.Values, 1e-6); err != nil {
		t.Error(err)
	}
}

func TestBranchAndBound_DuplicateEquality(t *testing.T) {
	m := NewModel()
	x, y := m.AddBinary("x"), m.AddBinary("y")
	_ = m.AddConstraint("one", []Term{{x, 1}, {y, 1}}, Equal, 1)
	_ = m.AddConstraint("two", []Term{{x, 2}, {y, 2}}, Equal, 2)
	_ = m.Minimize([]Term{{x, 2}, {y, 3}})

	sol, err := BranchAndBound{}.Solve(context.Background(), m, Options{NumWorkers: 1})
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != StatusOptimal || sol.Value(x) != 1 || sol.Value(y) != 0 {
		t.Errorf("Solve() = %v x=%g y=%g, want optimal x=1", sol.Status, sol.Value(x), sol.Value(y))
	}
}

func TestBranchAndBound_Bounds(t *testing.T) {
	m := NewModel()
	x, _ := m.AddVar("x", Integer, 2, 5)
	y, _ := m.AddVar("y", Continuous, -1, 4)
	_ = m.AddConstraint("floor", []Term{{x, 1}}, GreaterEq, 2.5)
	_ = m.AddConstraint("cap", []Term{{x, 1}, {y, 1}}, LessEq, 10)
	_ = m.Minimize([]Term{{x, 1}, {y, -1}})

	sol, err := BranchAndBound{}.Solve(context.Background(), m, Options{NumWorkers: 2})
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != StatusOptimal || math.Abs(sol.Objective+1) > 1e-6 {
		t.Fatalf("Solve() = %v %g, want optimal -1", sol.Status, sol.Objective)
	}
	if math.Abs(sol.Value(x)-3) > 1e-6 || math.Abs(sol.Value(y)-4) > 1e-6 {
		t.Errorf("x=%g y=%g, want 3 and 4", sol.Value(x), sol.Value(y))
	}
}

func TestBranchAndBound_Unbounded(t *testing.T) {
	m := NewModel()
	x, _ := m.AddContinuous("x", 0)
	_ = m.AddConstraint("floor", []Term{{x, 1}}, GreaterEq, 1)
	_ = m.Minimize([]Term{{x, -1}})

	if _, err := (BranchAndBound{}).Solve(context.Background(), m, Options{NumWorkers: 1}); !errors.Is(err, ErrUnbounded) {
		t.Errorf("Solve() error = %v, want ErrUnbounded", err)
	}
}

func TestSimplex_BlandAgrees(t *testing.T) {
	// degenerate at the origin: several rows are tight with zero slack
	p := &lp{
		c: []float64{-10, 57, 9, 24},
		u: []float64{math.Inf(1), math.Inf(1), math.Inf(1), math.Inf(1)},
		a: mat.NewDense(3, 4, []float64{
			0.5, -5.5, -2.5, 9,
			0.5, -1.5, -0.5, 1,
			1, 0, 0, 0,
		}),
		sense: []Sense{LessEq, LessEq, LessEq},
		b:     []float64{0, 0, 1},
	}
	for _, bland := range []bool{false, true} {
		y, err := newTableau(p).solve(context.Background(), p.c, bland)
		if err != nil {
			t.Fatalf("bland=%v: solve() error: %v", bland, err)
		}
		if err := p.check(y); err != nil {
			t.Fatalf("bland=%v: %v", bland, err)
		}
		if obj := floats.Dot(p.c, y); math.Abs(obj+1) > 1e-6 {
			t.Errorf("bland=%v: objective = %g, want -1", bland, obj)
		}
	}
}
