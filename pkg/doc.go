// Package pkg provides the libraries behind trsolver, a solver for
// Thaumcraft research boards.
//
// # Overview
//
// A research board is a hexagon of cells. The player places a few aspects
// and must connect them through chains of related aspects, where two
// aspects are related when one is a direct component of the other. The
// pkg directory is organized into four areas:
//
//  1. Domain: [hexgrid], [aspect], [placement], [exact] and [milp]
//  2. Orchestration: [pipeline] and the board and recipe files in [io]
//  3. Infrastructure: [cache], [history], [config], [observability] and [errors]
//  4. Surfaces: the HTTP API in [api] and graph export in [render/nodelink]
//
// # Architecture
//
// A solve flows through the packages like this:
//
//	board file / API request
//	         ↓
//	    [io] package (board → grid + seeds)
//	         ↓
//	    [pipeline] package (cache lookup, options, hooks)
//	         ↓
//	    [placement] heuristic   or   [exact] model → [milp] search
//	         ↓
//	    [io] package (placement → solved board)
//
// # Quick Start
//
//	import (
//	    "context"
//
//	    boardio "github.com/WalterStager/thaumcraft-research-solver/pkg/io"
//	    "github.com/WalterStager/thaumcraft-research-solver/pkg/pipeline"
//	)
//
//	board, _ := boardio.ImportBoard("board.json")
//	runner := pipeline.NewRunner(nil, nil, nil)
//	res, _ := runner.Solve(context.Background(), pipeline.Options{Board: board})
//	_ = boardio.ExportBoard(res.Board, "solved.json")
//
// # Main Packages
//
//   - [hexgrid]: axial hex grid, neighbor queries and cell path search
//   - [aspect]: recipe graph, intrinsic costs and aspect chain search
//   - [placement]: heuristic strategies that link seeds cell by cell
//   - [exact]: fewest-cell linking as a mixed-integer program
//   - [milp]: branch-and-bound over bounded-simplex LP relaxations
//   - [pipeline]: the Runner shared by the CLI and the API
//
// [hexgrid]: github.com/WalterStager/thaumcraft-research-solver/pkg/hexgrid
// [aspect]: github.com/WalterStager/thaumcraft-research-solver/pkg/aspect
// [placement]: github.com/WalterStager/thaumcraft-research-solver/pkg/placement
// [exact]: github.com/WalterStager/thaumcraft-research-solver/pkg/exact
// [milp]: github.com/WalterStager/thaumcraft-research-solver/pkg/milp
// [pipeline]: github.com/WalterStager/thaumcraft-research-solver/pkg/pipeline
// [io]: github.com/WalterStager/thaumcraft-research-solver/pkg/io
// [cache]: github.com/WalterStager/thaumcraft-research-solver/pkg/cache
// [history]: github.com/WalterStager/thaumcraft-research-solver/pkg/history
// [config]: github.com/WalterStager/thaumcraft-research-solver/pkg/config
// [observability]: github.com/WalterStager/thaumcraft-research-solver/pkg/observability
// [errors]: github.com/WalterStager/thaumcraft-research-solver/pkg/errors
// [api]: github.com/WalterStager/thaumcraft-research-solver/pkg/api
// [render/nodelink]: github.com/WalterStager/thaumcraft-research-solver/pkg/render/nodelink
package pkg
