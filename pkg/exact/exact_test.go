package exact

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/WalterStager/thaumcraft-research-solver/pkg/aspect"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/hexgrid"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/milp"
)

// Radius-1 ids: 0 (-1,0) west, 3 (0,0) center, 6 (1,0) east.
const (
	west   hexgrid.NodeID = 0
	center hexgrid.NodeID = 3
	east   hexgrid.NodeID = 6
)

func fixture(t *testing.T, spec aspect.Spec) (*hexgrid.Grid, *aspect.Graph) {
	t.Helper()
	grid, err := hexgrid.New(1)
	if err != nil {
		t.Fatal(err)
	}
	aspects, err := aspect.New(spec)
	if err != nil {
		t.Fatal(err)
	}
	return grid, aspects
}

func tinyBook() aspect.Spec {
	return aspect.Spec{"lux": {"aer"}, "vacuos": nil}
}

func TestBuildProductGraph(t *testing.T) {
	grid, aspects := fixture(t, tinyBook())
	g := BuildProductGraph(grid, aspects)

	// vacuos has no relations, so only aer and lux appear
	if g.Len() != 14 {
		t.Errorf("Len() = %d, want 14", g.Len())
	}
	if got := len(g.Edges()); got != 24 {
		t.Errorf("len(Edges()) = %d, want 24", got)
	}
	if _, ok := g.Index(Node{center, "vacuos"}); ok {
		t.Error("edgeless node was kept")
	}

	i, ok := g.Index(Node{center, "aer"})
	if !ok {
		t.Fatal("Index(center aer) missing")
	}
	for _, j := range g.Neighbors(i) {
		if n := g.Node(j); n.Aspect != "lux" || n.Cell == center {
			t.Errorf("neighbor %v of center aer is not lux on an adjacent cell", n)
		}
	}
	if got := len(g.Neighbors(i)); got != 6 {
		t.Errorf("len(Neighbors(center aer)) = %d, want 6", got)
	}
}

func TestBuildProductGraph_KeepAndDisabled(t *testing.T) {
	grid, aspects := fixture(t, tinyBook())
	if err := grid.Disable(center); err != nil {
		t.Fatal(err)
	}
	g := BuildProductGraph(grid, aspects, Node{east, "vacuos"})

	if _, ok := g.Index(Node{east, "vacuos"}); !ok {
		t.Error("kept node missing")
	}
	for _, n := range g.Nodes() {
		if n.Cell == center {
			t.Errorf("disabled cell appears as %v", n)
		}
	}
	// six ring edges remain, two aspect orientations each
	if got := len(g.Edges()); got != 12 {
		t.Errorf("len(Edges()) = %d, want 12", got)
	}
}

func TestSolve_AdjacentTerminals(t *testing.T) {
	grid, aspects := fixture(t, tinyBook())
	m, err := NewModel(grid, aspects, []Terminal{{center, "aer"}, {east, "lux"}}, Options{NumWorkers: 2, MaxTime: time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	res, err := m.Solve(context.Background())
	if err != nil {
		t.Fatalf("Solve() error: %v", err)
	}
	if !res.Status.HasSolution() {
		t.Fatalf("Status = %v, want a solution", res.Status)
	}
	if math.Abs(res.Objective) > 1e-6 {
		t.Errorf("Objective = %g, want 0", res.Objective)
	}
	if len(res.Placement) != 2 || res.Placement[center] != "aer" || res.Placement[east] != "lux" {
		t.Errorf("Placement = %v, want only the terminals", res.Placement)
	}
}

func TestSolve_OneIntermediate(t *testing.T) {
	grid, aspects := fixture(t, tinyBook())
	m, err := NewModel(grid, aspects, []Terminal{{west, "aer"}, {east, "aer"}}, Options{NumWorkers: 2, MaxTime: time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	res, err := m.Solve(context.Background())
	if err != nil {
		t.Fatalf("Solve() error: %v", err)
	}
	if !res.Status.HasSolution() {
		t.Fatalf("Status = %v, want a solution", res.Status)
	}
	if math.Abs(res.Objective-1) > 1e-6 {
		t.Fatalf("Objective = %g, want 1", res.Objective)
	}
	// (0,0) is the only cell adjacent to both terminals
	if res.Placement[center] != "lux" || len(res.Selected) != 3 {
		t.Errorf("Placement = %v, want lux in the center", res.Placement)
	}
}

// Linking aer to ordo needs lux, ignis and potentia in a row, so the three
// cells must wind around the center. Flow rows here are linearly dependent.
func TestSolve_ThreeIntermediates(t *testing.T) {
	grid, aspects := fixture(t, aspect.Spec{"lux": {"aer", "ignis"}, "potentia": {"ordo", "ignis"}})
	m, err := NewModel(grid, aspects, []Terminal{{west, "aer"}, {east, "ordo"}}, Options{NumWorkers: 4, MaxTime: 30 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	res, err := m.Solve(context.Background())
	if err != nil {
		t.Fatalf("Solve() error: %v", err)
	}
	if !res.Status.HasSolution() {
		t.Fatalf("Status = %v, want a solution", res.Status)
	}
	if res.Objective < 3-1e-6 || (res.Status == milp.StatusOptimal && math.Abs(res.Objective-3) > 1e-6) {
		t.Errorf("%v objective = %g, want 3", res.Status, res.Objective)
	}
	if len(res.Selected) != 2+int(math.Round(res.Objective)) {
		t.Errorf("Selected = %v, want terminals plus %g cells", res.Selected, res.Objective)
	}
	if res.Placement[west] != "aer" || res.Placement[east] != "ordo" {
		t.Errorf("Placement = %v, want the terminals kept", res.Placement)
	}
}

func TestSolve_Infeasible(t *testing.T) {
	grid, aspects := fixture(t, tinyBook())
	m, err := NewModel(grid, aspects, []Terminal{{center, "aer"}, {east, "vacuos"}}, Options{NumWorkers: 1, MaxTime: time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	res, err := m.Solve(context.Background())
	if err != nil {
		t.Fatalf("Solve() error: %v", err)
	}
	if res.Status != milp.StatusInfeasible {
		t.Errorf("Status = %v, want infeasible", res.Status)
	}
	if res.Placement != nil || res.Selected != nil {
		t.Errorf("infeasible result carries a placement: %v", res.Placement)
	}
}

func TestSolve_SingleTerminal(t *testing.T) {
	grid, aspects := fixture(t, tinyBook())
	m, err := NewModel(grid, aspects, []Terminal{{center, "vacuos"}}, Options{NumWorkers: 1})
	if err != nil {
		t.Fatal(err)
	}
	res, err := m.Solve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Status.HasSolution() || len(res.Selected) != 1 {
		t.Errorf("Solve() = %v %v, want the lone terminal", res.Status, res.Selected)
	}
}

func TestNewModel_Errors(t *testing.T) {
	grid, aspects := fixture(t, tinyBook())
	_ = grid.Disable(west)

	tests := []struct {
		name      string
		terminals []Terminal
		want      error
	}{
		{"none", nil, ErrNoTerminals},
		{"unknown cell", []Terminal{{hexgrid.NodeID(99), "aer"}}, hexgrid.ErrNodeNotFound},
		{"unknown aspect", []Terminal{{center, "nope"}}, aspect.ErrAspectNotFound},
		{"disabled", []Terminal{{west, "aer"}}, ErrDisabledCell},
		{"duplicate", []Terminal{{center, "aer"}, {center, "aer"}}, ErrDuplicateTerminal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewModel(grid, aspects, tt.terminals, Options{})
			if !errors.Is(err, tt.want) {
				t.Errorf("NewModel() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestModel_Size(t *testing.T) {
	grid, aspects := fixture(t, tinyBook())
	m, err := NewModel(grid, aspects, []Terminal{{center, "aer"}, {east, "lux"}}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	vars, cons := m.Size()
	// 14 cells, 24 edges, 48 flows
	if vars != 86 {
		t.Errorf("vars = %d, want 86", vars)
	}
	// 2 terminals, 48 edge links, 48 flow caps, 14 balances, 7 cell limits
	if cons != 119 {
		t.Errorf("constraints = %d, want 119", cons)
	}
}
