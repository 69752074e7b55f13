// Package exact finds a globally cheapest connected placement with an
// integer program.
//
// The search space is the product of the grid and the aspect relation
// graph: a node is a (cell, aspect) pair and two nodes are adjacent when
// their cells are neighbors and their aspects are related. A connected set
// of selected nodes that contains every terminal is exactly a valid board.
//
// Connectivity is enforced with single-commodity flow. The first terminal
// is the root and supplies one unit for every other selected node; every
// selected node consumes one unit; flow may only cross selected edges. The
// objective counts selected non-terminal nodes.
//
// Models are solved through the [milp.Solver] interface, so the backend can
// be swapped. The default backend is [milp.BranchAndBound]:
//
//	m, err := exact.NewModel(grid, aspects, terminals, exact.Options{MaxTime: time.Minute})
//	if err != nil {
//	    return err
//	}
//	res, err := m.Solve(ctx)
//
// Hitting MaxTime is not an error; inspect Result.Status.
package exact
