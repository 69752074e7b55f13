// Package hexgrid provides a hexagonal board addressed by axial coordinates
// and the path searches the placement solver runs over it.
//
// # Overview
//
// A [Grid] of radius r contains every axial coordinate (q, r) whose cube
// coordinate s = -q-r also lies in [-radius, radius], i.e. a hexagon of
// 1 + 3·r·(r+1) cells. Each cell gets a sequential [NodeID] and is linked to
// the cells at the six axial unit offsets in [Directions].
//
//	g, _ := hexgrid.New(2)
//	id, _ := g.ID(hexgrid.Coord{Q: 0, R: 0})
//	path, _ := g.ShortestPath(id, 0)
//
// # Disabled and Removed Cells
//
// A cell can be disabled with [Grid.Disable]: it keeps its coordinate and id,
// but it is skipped by [Grid.Neighbors], [Grid.AllNodes] and [Grid.NodeCount]
// and therefore by every search. [Grid.Enable] restores it. [Grid.Remove]
// deletes a cell for good; afterwards lookups of that id fail with
// [ErrNodeNotFound] just like ids that never existed.
//
// # Searches
//
//   - [Grid.ShortestPath]: breadth-first, minimum hop count to any goal.
//   - [Grid.PathWithExactLength]: depth-first backtracking for a simple path of
//     an exact edge count, avoiding blocked cells.
//   - [Grid.FindPathMinimumLength]: breadth-first, first target whose path is
//     at least a minimum length.
//   - [Grid.Components]: connected components of an arbitrary cell subset.
//
// "Nothing found" is always an empty slice, never an error. Errors are
// reserved for ids the grid has never heard of.
//
// # Concurrency
//
// Grid is not safe for concurrent mutation. Read-only searches may run in
// parallel as long as no goroutine disables, enables or removes cells.
package hexgrid
