package exact

import (
	"fmt"
	"slices"

	"github.com/WalterStager/thaumcraft-research-solver/pkg/aspect"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/hexgrid"
)

// Node is a (cell, aspect) pair of the product graph.
type Node struct {
	Cell   hexgrid.NodeID `json:"cell"`
	Aspect string         `json:"aspect"`
}

func (n Node) String() string { return fmt.Sprintf("%d:%s", n.Cell, n.Aspect) }

// ProductGraph joins the grid and the aspect relation graph: (c1, a) and
// (c2, b) are adjacent iff c1-c2 are grid neighbors and a-b are related.
// Nodes without any edge are left out unless explicitly kept.
type ProductGraph struct {
	nodes []Node
	index map[Node]int
	edges [][2]int
	adj   [][]int
}

// BuildProductGraph builds the product of the enabled grid cells and every
// aspect. Nodes in keep are included even when they have no edges.
func BuildProductGraph(grid *hexgrid.Grid, aspects *aspect.Graph, keep ...Node) *ProductGraph {
	type pair struct{ a, b Node }
	var pairs []pair
	linked := make(map[Node]bool)

	names := aspects.Aspects()
	for _, e := range grid.Edges() {
		for _, a := range names {
			related, _ := aspects.Neighbors(a)
			for _, b := range related {
				p := pair{Node{e[0], a}, Node{e[1], b}}
				pairs = append(pairs, p)
				linked[p.a], linked[p.b] = true, true
			}
		}
	}
	for _, k := range keep {
		linked[k] = true
	}

	g := &ProductGraph{index: make(map[Node]int)}
	for _, cell := range grid.AllNodes() {
		for _, a := range names {
			n := Node{cell, a}
			if linked[n] {
				g.index[n] = len(g.nodes)
				g.nodes = append(g.nodes, n)
			}
		}
	}
	for _, k := range keep {
		if _, ok := g.index[k]; !ok {
			g.index[k] = len(g.nodes)
			g.nodes = append(g.nodes, k)
		}
	}

	g.adj = make([][]int, len(g.nodes))
	for _, p := range pairs {
		i, j := g.index[p.a], g.index[p.b]
		g.edges = append(g.edges, [2]int{i, j})
		g.adj[i] = append(g.adj[i], j)
		g.adj[j] = append(g.adj[j], i)
	}
	for _, ns := range g.adj {
		slices.Sort(ns)
	}
	return g
}

// Len returns the node count.
func (g *ProductGraph) Len() int { return len(g.nodes) }

// Nodes returns the nodes in index order.
func (g *ProductGraph) Nodes() []Node { return slices.Clone(g.nodes) }

// Node returns the node at index i.
func (g *ProductGraph) Node(i int) Node { return g.nodes[i] }

// Index returns the index of n.
func (g *ProductGraph) Index(n Node) (int, bool) {
	i, ok := g.index[n]
	return i, ok
}

// Edges returns every undirected edge once as an index pair.
func (g *ProductGraph) Edges() [][2]int { return slices.Clone(g.edges) }

// Neighbors returns the indices adjacent to i, ascending.
func (g *ProductGraph) Neighbors(i int) []int { return slices.Clone(g.adj[i]) }
