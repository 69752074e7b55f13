package hexgrid

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	// ErrInvalidRadius is returned by [New] for a negative radius.
	ErrInvalidRadius = errors.New("hexgrid: radius must not be negative")

	// ErrNodeNotFound is returned when an id or coordinate was never part of
	// the grid or has been removed. Disabled cells do not trigger it.
	ErrNodeNotFound = errors.New("hexgrid: node not found")
)

// NodeID identifies a grid cell. Ids are assigned sequentially at
// construction and never reused.
type NodeID int

// Coord is an axial hex coordinate.
type Coord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// S returns the third cube coordinate, -q-r.
func (c Coord) S() int { return -c.Q - c.R }

// Add returns the component-wise sum of two coordinates.
func (c Coord) Add(o Coord) Coord { return Coord{Q: c.Q + o.Q, R: c.R + o.R} }

// Distance returns the hex distance between two coordinates.
func (c Coord) Distance(o Coord) int {
	dq, dr, ds := abs(c.Q-o.Q), abs(c.R-o.R), abs(c.S()-o.S())
	return max(dq, dr, ds)
}

func (c Coord) String() string { return fmt.Sprintf("(%d,%d)", c.Q, c.R) }

// Directions lists the six axial unit offsets in neighbor enumeration order.
var Directions = [6]Coord{
	{Q: 1, R: 0}, {Q: 1, R: -1}, {Q: 0, R: -1},
	{Q: -1, R: 0}, {Q: -1, R: 1}, {Q: 0, R: 1},
}

// Grid is an undirected graph over the cells of a hexagonal board.
//
// The zero value is not usable - use New.
type Grid struct {
	radius   int
	coords   map[NodeID]Coord
	ids      map[Coord]NodeID
	adj      map[NodeID][]NodeID
	disabled map[NodeID]struct{}
}

// New builds a hexagonal grid of the given radius. Radius 0 is a single
// cell, radius 1 has 7 cells, radius 2 has 19.
func New(radius int) (*Grid, error) {
	if radius < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRadius, radius)
	}
	g := &Grid{
		radius:   radius,
		coords:   make(map[NodeID]Coord),
		ids:      make(map[Coord]NodeID),
		adj:      make(map[NodeID][]NodeID),
		disabled: make(map[NodeID]struct{}),
	}

	var next NodeID
	for q := -radius; q <= radius; q++ {
		lo := max(-radius, -q-radius)
		hi := min(radius, -q+radius)
		for r := lo; r <= hi; r++ {
			c := Coord{Q: q, R: r}
			g.coords[next] = c
			g.ids[c] = next
			next++
		}
	}

	for id := NodeID(0); id < next; id++ {
		c := g.coords[id]
		for _, d := range Directions {
			if nid, ok := g.ids[c.Add(d)]; ok {
				g.adj[id] = append(g.adj[id], nid)
			}
		}
	}
	return g, nil
}

// Size returns the number of cells in a full grid of the given radius.
func Size(radius int) int {
	if radius < 0 {
		return 0
	}
	return 1 + 3*radius*(radius+1)
}

// Radius returns the radius the grid was built with.
func (g *Grid) Radius() int { return g.radius }

// Has reports whether id is a live (not removed) cell, disabled or not.
func (g *Grid) Has(id NodeID) bool {
	_, ok := g.coords[id]
	return ok
}

// Coord returns the coordinate of a live cell, including disabled ones.
func (g *Grid) Coord(id NodeID) (Coord, error) {
	c, ok := g.coords[id]
	if !ok {
		return Coord{}, fmt.Errorf("%w: id %d", ErrNodeNotFound, id)
	}
	return c, nil
}

// ID returns the id of the cell at c.
func (g *Grid) ID(c Coord) (NodeID, error) {
	id, ok := g.ids[c]
	if !ok {
		return 0, fmt.Errorf("%w: coord %s", ErrNodeNotFound, c)
	}
	return id, nil
}

// Neighbors returns the enabled cells adjacent to id in [Directions] order.
func (g *Grid) Neighbors(id NodeID) ([]NodeID, error) {
	if err := g.check(id); err != nil {
		return nil, err
	}
	return g.neighbors(id), nil
}

func (g *Grid) neighbors(id NodeID) []NodeID {
	out := make([]NodeID, 0, len(g.adj[id]))
	for _, n := range g.adj[id] {
		if _, off := g.disabled[n]; !off {
			out = append(out, n)
		}
	}
	return out
}

// AllNodes returns the enabled cells in ascending id order.
func (g *Grid) AllNodes() []NodeID {
	out := make([]NodeID, 0, len(g.coords))
	for _, id := range slices.Sorted(maps.Keys(g.coords)) {
		if _, off := g.disabled[id]; !off {
			out = append(out, id)
		}
	}
	return out
}

// NodeCount returns the number of enabled cells.
func (g *Grid) NodeCount() int { return len(g.coords) - len(g.disabled) }

// Edges returns every undirected edge between enabled cells once, as
// (lower id, higher id) pairs in ascending order.
func (g *Grid) Edges() [][2]NodeID {
	var edges [][2]NodeID
	for _, a := range g.AllNodes() {
		for _, b := range g.neighbors(a) {
			if a < b {
				edges = append(edges, [2]NodeID{a, b})
			}
		}
	}
	return edges
}

// Disable hides a cell from traversal. Disabling twice is a no-op.
func (g *Grid) Disable(id NodeID) error {
	if err := g.check(id); err != nil {
		return err
	}
	g.disabled[id] = struct{}{}
	return nil
}

// Enable reverses [Grid.Disable].
func (g *Grid) Enable(id NodeID) error {
	if err := g.check(id); err != nil {
		return err
	}
	delete(g.disabled, id)
	return nil
}

// IsDisabled reports whether id is currently disabled.
func (g *Grid) IsDisabled(id NodeID) bool {
	_, off := g.disabled[id]
	return off
}

// Remove permanently deletes a cell and strips it from its neighbors.
func (g *Grid) Remove(id NodeID) error {
	if err := g.check(id); err != nil {
		return err
	}
	for _, n := range g.adj[id] {
		g.adj[n] = slices.DeleteFunc(g.adj[n], func(x NodeID) bool { return x == id })
	}
	delete(g.ids, g.coords[id])
	delete(g.coords, id)
	delete(g.adj, id)
	delete(g.disabled, id)
	return nil
}

// Clone returns an independent copy, including disabled state.
func (g *Grid) Clone() *Grid {
	c := &Grid{
		radius:   g.radius,
		coords:   maps.Clone(g.coords),
		ids:      maps.Clone(g.ids),
		adj:      make(map[NodeID][]NodeID, len(g.adj)),
		disabled: maps.Clone(g.disabled),
	}
	for id, ns := range g.adj {
		c.adj[id] = slices.Clone(ns)
	}
	return c
}

func (g *Grid) check(ids ...NodeID) error {
	for _, id := range ids {
		if _, ok := g.coords[id]; !ok {
			return fmt.Errorf("%w: id %d", ErrNodeNotFound, id)
		}
	}
	return nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
