package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/WalterStager/thaumcraft-research-solver/pkg/hexgrid"
	boardio "github.com/WalterStager/thaumcraft-research-solver/pkg/io"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/milp"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/pipeline"
)

// solveCommand creates the heuristic solve command.
func (c *CLI) solveCommand() *cobra.Command {
	var f solveFlags

	cmd := &cobra.Command{
		Use:   "solve <board.json>",
		Short: "Link the placed aspects of a board",
		Long: `Link the placed aspects of a board by filling empty cells with chains of
related aspects.

The pairwise strategy links each placement to the nearest already linked
cell. The contiguous strategy grows connected groups until one remains.`,
		Example: `  trsolver solve board.json
  trsolver solve board.json --strategy contiguous --mode slow -o solved.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSolve(cmd, &f, args[0])
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&f.strategy, "strategy", pipeline.DefaultStrategy, "placement strategy: pairwise or contiguous")
	cmd.Flags().StringVar(&f.mode, "mode", pipeline.DefaultMode, "search mode: fast or slow")
	cmd.Flags().Uint64Var(&f.seed, "seed", pipeline.DefaultSeed, "random seed for the contiguous strategy")
	cmd.Flags().BoolVar(&f.protect, "protect-seeds", false, "never route a link through another placement")

	return cmd
}

func (c *CLI) runSolve(cmd *cobra.Command, f *solveFlags, path string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	board, err := boardio.ImportBoard(path)
	if err != nil {
		return err
	}
	g, err := c.loadAspects(f.recipes)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(f.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	opts := c.options(cmd, f, board)
	opts.Aspects = g

	prog := newProgress(logger)
	res, err := runner.Solve(ctx, opts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Solved %d placements", res.Stats.Seeds))

	out := cmd.OutOrStdout()
	if f.jsonOut {
		if err := writeJSON(out, res); err != nil {
			return err
		}
	} else {
		fmt.Fprint(out, renderBoard(res.Board, seedCoords(board)))
		printStats(res.CacheHit,
			fmt.Sprintf("%d placements", res.Stats.Seeds),
			fmt.Sprintf("%d cells filled", res.Stats.Placed-res.Stats.Seeds),
			fmt.Sprintf("%d links", len(res.Report.Links)),
			fmt.Sprintf("cost %d", res.Report.Cost()),
		)
		if n := len(res.Report.Isolated); n > 0 {
			printWarning("%d placements could not be linked", n)
		}
		if n := len(res.Report.Overwritten); n > 0 {
			printWarning("%d placements were overwritten by links", n)
		}
	}
	return exportResult(f.output, res.Board)
}

// exactCommand creates the exact solve command.
func (c *CLI) exactCommand() *cobra.Command {
	var f solveFlags

	cmd := &cobra.Command{
		Use:   "exact <board.json>",
		Short: "Find a minimum-cost linking of a board",
		Long: `Find a minimum-cost linking of a board with a mixed-integer program.

The search stops at --max-time. A run that hits the limit reports the best
linking found so far, which may not be optimal.`,
		Example: `  trsolver exact board.json --max-time 120 --workers 4`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExact(cmd, &f, args[0])
		},
	}

	f.register(cmd)
	cmd.Flags().IntVar(&f.maxTime, "max-time", int(pipeline.DefaultExactTime.Seconds()), "time limit in seconds")
	cmd.Flags().IntVar(&f.workers, "workers", 8, "parallel search workers")
	cmd.Flags().BoolVar(&f.stacking, "allow-stacking", false, "allow more than one aspect per cell")

	return cmd
}

func (c *CLI) runExact(cmd *cobra.Command, f *solveFlags, path string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	board, err := boardio.ImportBoard(path)
	if err != nil {
		return err
	}
	g, err := c.loadAspects(f.recipes)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(f.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	opts := c.options(cmd, f, board)
	opts.Aspects = g

	spinner := newSpinner(ctx, "Searching", opts.MaxTime())
	if !f.jsonOut {
		spinner.Start()
	}
	prog := newProgress(logger)
	res, err := runner.Exact(ctx, opts)
	if err != nil {
		spinner.StopWithError("Exact solve failed")
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Exact solve %s", res.Result.Status))

	out := cmd.OutOrStdout()
	if f.jsonOut {
		if err := writeJSON(out, res); err != nil {
			return err
		}
		return exportResult(f.output, res.Board)
	}

	switch res.Result.Status {
	case milp.StatusInfeasible:
		printWarning("No linking exists for these placements")
		return nil
	case milp.StatusUnknown:
		printWarning("Time limit reached before any linking was found")
		return nil
	case milp.StatusFeasible:
		printWarning("Time limit reached; the linking may not be optimal")
	}
	fmt.Fprint(out, renderBoard(res.Board, seedCoords(board)))
	printStats(res.CacheHit,
		res.Result.Status.String(),
		fmt.Sprintf("cost %g", res.Result.Objective),
		fmt.Sprintf("%d vars", res.Vars),
		fmt.Sprintf("%d constraints", res.Constraints),
		fmt.Sprintf("%d nodes", res.Result.Nodes),
	)
	return exportResult(f.output, res.Board)
}

func seedCoords(b *boardio.Board) map[hexgrid.Coord]bool {
	out := make(map[hexgrid.Coord]bool, len(b.Placements))
	for _, p := range b.Placements {
		out[p.Coord()] = true
	}
	return out
}

func exportResult(path string, b *boardio.Board) error {
	if path == "" || b == nil {
		return nil
	}
	if err := boardio.ExportBoard(b, path); err != nil {
		return err
	}
	printFile(path)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
