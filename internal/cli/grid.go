package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	boardio "github.com/WalterStager/thaumcraft-research-solver/pkg/io"
)

// gridCommand creates the grid command.
func (c *CLI) gridCommand() *cobra.Command {
	var (
		radius int
		output string
	)

	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Draw an empty research board",
		Long: `Draw an empty research board and report its size.

With --output the board is written as a JSON board file, ready to have
placements added and be passed to solve or exact.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("radius") {
				radius = c.config().Grid.Radius
			}
			b := &boardio.Board{Radius: radius, Placements: []boardio.Cell{}}
			g, err := b.Grid()
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), renderBoard(b, nil))
			printKeyValue("Radius", strconv.Itoa(g.Radius()))
			printKeyValue("Cells", strconv.Itoa(g.NodeCount()))
			printKeyValue("Edges", strconv.Itoa(len(g.Edges())))

			if output != "" {
				if err := boardio.ExportBoard(b, output); err != nil {
					return err
				}
				printSuccess("Wrote empty board")
				printFile(output)
				printNextStep("Add placements, then solve", appName+" solve "+output)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&radius, "radius", "r", 3, "board radius (1-9)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the empty board to this file")

	return cmd
}
