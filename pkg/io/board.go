package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/WalterStager/thaumcraft-research-solver/pkg/errors"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/exact"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/hexgrid"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/placement"
)

// Board is the on-disk and over-the-wire form of a research board.
type Board struct {
	Radius     int             `json:"radius"`
	Disabled   []hexgrid.Coord `json:"disabled,omitempty"`
	Placements []Cell          `json:"placements"`
}

// Cell is an aspect at an axial coordinate.
type Cell struct {
	Q      int    `json:"q"`
	R      int    `json:"r"`
	Aspect string `json:"aspect"`
}

// Coord returns the cell coordinate.
func (c Cell) Coord() hexgrid.Coord { return hexgrid.Coord{Q: c.Q, R: c.R} }

// Validate checks the radius and that every coordinate lies on the board.
func (b *Board) Validate() error {
	if err := errors.ValidateRadius(b.Radius); err != nil {
		return err
	}
	outside := func(c hexgrid.Coord) bool {
		return c.Distance(hexgrid.Coord{}) > b.Radius
	}
	for _, c := range b.Disabled {
		if outside(c) {
			return errors.New(errors.ErrCodeInvalidBoard, "disabled cell %s is outside radius %d", c, b.Radius)
		}
	}
	seen := make(map[hexgrid.Coord]bool, len(b.Placements))
	for _, p := range b.Placements {
		c := p.Coord()
		if outside(c) {
			return errors.New(errors.ErrCodeInvalidBoard, "placement %s is outside radius %d", c, b.Radius)
		}
		if seen[c] {
			return errors.New(errors.ErrCodeInvalidBoard, "cell %s is placed twice", c)
		}
		seen[c] = true
		if err := errors.ValidateAspectName(p.Aspect); err != nil {
			return err
		}
	}
	return nil
}

// Grid builds the hexagon with the disabled cells switched off.
func (b *Board) Grid() (*hexgrid.Grid, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	g, err := hexgrid.New(b.Radius)
	if err != nil {
		return nil, err
	}
	for _, c := range b.Disabled {
		id, err := g.ID(c)
		if err != nil {
			return nil, err
		}
		if err := g.Disable(id); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Seeds converts the placements to seeds on grid, in file order.
func (b *Board) Seeds(g *hexgrid.Grid) ([]placement.Seed, error) {
	seeds := make([]placement.Seed, 0, len(b.Placements))
	for _, p := range b.Placements {
		id, err := g.ID(p.Coord())
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, placement.Seed{Node: id, Aspect: p.Aspect})
	}
	return seeds, nil
}

// Terminals converts the placements to exact-model terminals, in file order.
func (b *Board) Terminals(g *hexgrid.Grid) ([]exact.Terminal, error) {
	seeds, err := b.Seeds(g)
	if err != nil {
		return nil, err
	}
	out := make([]exact.Terminal, len(seeds))
	for i, s := range seeds {
		out[i] = exact.Terminal{Cell: s.Node, Aspect: s.Aspect}
	}
	return out, nil
}

// BoardFromPlacement describes a solved grid. Placements are in cell order;
// disabled cells are listed in cell order as well.
func BoardFromPlacement(g *hexgrid.Grid, p placement.Placement) (*Board, error) {
	b := &Board{Radius: g.Radius(), Placements: make([]Cell, 0, len(p))}
	for _, id := range p.Nodes() {
		c, err := g.Coord(id)
		if err != nil {
			return nil, err
		}
		b.Placements = append(b.Placements, Cell{Q: c.Q, R: c.R, Aspect: p[id]})
	}
	for id := range hexgrid.NodeID(hexgrid.Size(g.Radius())) {
		if g.Has(id) && g.IsDisabled(id) {
			c, _ := g.Coord(id)
			b.Disabled = append(b.Disabled, c)
		}
	}
	return b, nil
}

// ReadBoard decodes and validates a board from r.
func ReadBoard(r io.Reader) (*Board, error) {
	var b Board
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidBoard, err, "decode board")
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// ImportBoard reads the board file at path.
func ImportBoard(path string) (*Board, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadBoard(f)
}
