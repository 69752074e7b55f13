package hexgrid_test

import (
	"fmt"

	"github.com/WalterStager/thaumcraft-research-solver/pkg/hexgrid"
)

func ExampleGrid_ShortestPath() {
	g, _ := hexgrid.New(2)
	from, _ := g.ID(hexgrid.Coord{Q: -2, R: 0})
	to, _ := g.ID(hexgrid.Coord{Q: 2, R: 0})

	path, _ := g.ShortestPath(from, to)
	fmt.Println("hops:", len(path)-1)
	// Output:
	// hops: 4
}

func ExampleGrid_PathWithExactLength() {
	g, _ := hexgrid.New(1)
	a, _ := g.ID(hexgrid.Coord{Q: 1, R: 0})
	b, _ := g.ID(hexgrid.Coord{Q: -1, R: 0})

	path, _ := g.PathWithExactLength(a, b, 4, nil)
	fmt.Println("cells:", len(path))
	// Output:
	// cells: 5
}

func ExampleSize() {
	for r := range 4 {
		fmt.Print(hexgrid.Size(r), " ")
	}
	fmt.Println()
	// Output:
	// 1 7 19 37
}
