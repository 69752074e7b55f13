package hexgrid

import (
	"errors"
	"slices"
	"testing"
)

func mustGrid(t *testing.T, radius int) *Grid {
	t.Helper()
	g, err := New(radius)
	if err != nil {
		t.Fatalf("New(%d) error: %v", radius, err)
	}
	return g
}

func TestNew_NodeCount(t *testing.T) {
	for r := 0; r <= 6; r++ {
		g := mustGrid(t, r)
		want := 1 + 3*r*(r+1)
		if got := g.NodeCount(); got != want {
			t.Errorf("New(%d).NodeCount() = %d, want %d", r, got, want)
		}
		if got := len(g.AllNodes()); got != want {
			t.Errorf("New(%d) AllNodes len = %d, want %d", r, got, want)
		}
		if Size(r) != want {
			t.Errorf("Size(%d) = %d, want %d", r, Size(r), want)
		}
	}
}

func TestNew_NegativeRadius(t *testing.T) {
	if _, err := New(-1); !errors.Is(err, ErrInvalidRadius) {
		t.Errorf("New(-1) error = %v, want ErrInvalidRadius", err)
	}
}

func TestNew_HexagonalRegion(t *testing.T) {
	g := mustGrid(t, 3)
	for _, id := range g.AllNodes() {
		c, _ := g.Coord(id)
		if abs(c.Q) > 3 || abs(c.R) > 3 || abs(c.S()) > 3 {
			t.Errorf("coord %v lies outside radius 3", c)
		}
		back, err := g.ID(c)
		if err != nil || back != id {
			t.Errorf("ID(%v) = %d, %v; want %d", c, back, err, id)
		}
	}
}

func TestNeighbors_SymmetricAndBounded(t *testing.T) {
	for r := 1; r <= 4; r++ {
		g := mustGrid(t, r)
		for _, a := range g.AllNodes() {
			ns, err := g.Neighbors(a)
			if err != nil {
				t.Fatalf("Neighbors(%d) error: %v", a, err)
			}
			if len(ns) < 2 || len(ns) > 6 {
				t.Errorf("radius %d: node %d has %d neighbors", r, a, len(ns))
			}
			for _, b := range ns {
				back, _ := g.Neighbors(b)
				if !slices.Contains(back, a) {
					t.Errorf("radius %d: %d->%d not symmetric", r, a, b)
				}
				ca, _ := g.Coord(a)
				cb, _ := g.Coord(b)
				if ca.Distance(cb) != 1 {
					t.Errorf("neighbors %v and %v are not at distance 1", ca, cb)
				}
			}
		}
	}
}

func TestNeighbors_Unknown(t *testing.T) {
	g := mustGrid(t, 1)
	if _, err := g.Neighbors(99); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("Neighbors(99) error = %v, want ErrNodeNotFound", err)
	}
}

func TestDisableEnable(t *testing.T) {
	g := mustGrid(t, 2)
	center, _ := g.ID(Coord{0, 0})
	around, _ := g.Neighbors(center)

	if err := g.Disable(center); err != nil {
		t.Fatalf("Disable error: %v", err)
	}
	if slices.Contains(g.AllNodes(), center) {
		t.Error("disabled node still listed by AllNodes")
	}
	if g.NodeCount() != 18 {
		t.Errorf("NodeCount() = %d, want 18", g.NodeCount())
	}
	for _, n := range around {
		ns, _ := g.Neighbors(n)
		if slices.Contains(ns, center) {
			t.Errorf("Neighbors(%d) still contains disabled %d", n, center)
		}
	}
	if c, err := g.Coord(center); err != nil || c != (Coord{0, 0}) {
		t.Errorf("Coord of disabled node = %v, %v", c, err)
	}
	if !g.IsDisabled(center) {
		t.Error("IsDisabled() = false after Disable")
	}

	if err := g.Enable(center); err != nil {
		t.Fatalf("Enable error: %v", err)
	}
	if !slices.Contains(g.AllNodes(), center) || g.NodeCount() != 19 {
		t.Error("Enable did not restore the node")
	}
	for _, n := range around {
		ns, _ := g.Neighbors(n)
		if !slices.Contains(ns, center) {
			t.Errorf("Neighbors(%d) missing re-enabled %d", n, center)
		}
	}
}

func TestRemove(t *testing.T) {
	g := mustGrid(t, 1)
	center, _ := g.ID(Coord{0, 0})
	if err := g.Remove(center); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if g.Has(center) {
		t.Error("Has() = true after Remove")
	}
	if _, err := g.ID(Coord{0, 0}); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("ID of removed coord error = %v, want ErrNodeNotFound", err)
	}
	if _, err := g.Coord(center); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("Coord of removed id error = %v, want ErrNodeNotFound", err)
	}
	for _, n := range g.AllNodes() {
		ns, _ := g.Neighbors(n)
		if slices.Contains(ns, center) {
			t.Errorf("node %d still adjacent to removed node", n)
		}
		if len(ns) != 2 {
			t.Errorf("ring node %d has %d neighbors, want 2", n, len(ns))
		}
	}
	if err := g.Remove(center); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("second Remove error = %v, want ErrNodeNotFound", err)
	}
}

func TestEdges(t *testing.T) {
	g := mustGrid(t, 1)
	// 6 spokes + 6 ring edges
	if got := len(g.Edges()); got != 12 {
		t.Errorf("len(Edges()) = %d, want 12", got)
	}
	for _, e := range g.Edges() {
		if e[0] >= e[1] {
			t.Errorf("edge %v not ordered", e)
		}
	}
}

func TestClone_Independent(t *testing.T) {
	g := mustGrid(t, 1)
	c := g.Clone()
	_ = c.Disable(0)
	_ = c.Remove(1)
	if g.IsDisabled(0) || !g.Has(1) {
		t.Error("mutating the clone changed the original")
	}
}

func TestCoordDistance(t *testing.T) {
	tests := []struct {
		a, b Coord
		want int
	}{
		{Coord{0, 0}, Coord{0, 0}, 0},
		{Coord{0, 0}, Coord{1, -1}, 1},
		{Coord{-2, 0}, Coord{2, 0}, 4},
		{Coord{-1, 2}, Coord{2, -1}, 3},
	}
	for _, tt := range tests {
		if got := tt.a.Distance(tt.b); got != tt.want {
			t.Errorf("%v.Distance(%v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
