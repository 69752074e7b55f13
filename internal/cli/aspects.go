package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/WalterStager/thaumcraft-research-solver/pkg/aspect"
	boardio "github.com/WalterStager/thaumcraft-research-solver/pkg/io"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/render/nodelink"
)

// aspectsCommand creates the aspects command and its subcommands.
func (c *CLI) aspectsCommand() *cobra.Command {
	var recipes string

	cmd := &cobra.Command{
		Use:   "aspects",
		Short: "Inspect the recipe book",
	}
	cmd.PersistentFlags().StringVar(&recipes, "recipes", "", "recipe book (.json or .toml; default built-in)")

	load := func() (*aspect.Graph, error) { return c.loadAspects(recipes) }

	cmd.AddCommand(c.aspectsListCommand(load))
	cmd.AddCommand(c.aspectsShowCommand(load))
	cmd.AddCommand(c.aspectsPathCommand(load))
	cmd.AddCommand(c.aspectsExportCommand(load))
	cmd.AddCommand(c.aspectsBrowseCommand(load))

	return cmd
}

type loadFunc func() (*aspect.Graph, error)

type aspectRow struct {
	Name       string   `json:"name"`
	Cost       int      `json:"cost"`
	Primal     bool     `json:"primal"`
	Components []string `json:"components"`
}

func (c *CLI) aspectsListCommand(load loadFunc) *cobra.Command {
	var (
		primal  bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every aspect with its cost and components",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := load()
			if err != nil {
				return err
			}
			var names []string
			for _, name := range g.Aspects() {
				if !primal || g.IsPrimal(name) {
					names = append(names, name)
				}
			}

			if jsonOut {
				rows := make([]aspectRow, 0, len(names))
				for _, name := range names {
					cost, _ := g.Cost(name)
					comps, _ := g.Components(name)
					if comps == nil {
						comps = []string{}
					}
					rows = append(rows, aspectRow{Name: name, Cost: cost, Primal: g.IsPrimal(name), Components: comps})
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			fmt.Fprintln(cmd.OutOrStdout(), aspectTable(g, names))
			return nil
		},
	}

	cmd.Flags().BoolVar(&primal, "primal", false, "only list primal aspects")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print as JSON")

	return cmd
}

func (c *CLI) aspectsShowCommand(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "show <aspect>",
		Short: "Show an aspect's recipe and relations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := load()
			if err != nil {
				return err
			}
			name := strings.ToLower(args[0])
			cost, err := g.Cost(name)
			if err != nil {
				return err
			}
			comps, _ := g.Components(name)
			parents, _ := g.Parents(name)
			neighbors, _ := g.Neighbors(name)

			kind := "compound"
			if g.IsPrimal(name) {
				kind = "primal"
			}
			fmt.Println(StyleTitle.Render(name))
			printKeyValue("Kind", kind)
			printKeyValue("Cost", strconv.Itoa(cost))
			printKeyValue("Components", joinOrDash(comps, " + "))
			printKeyValue("Used in", joinOrDash(parents, ", "))
			printKeyValue("Links to", joinOrDash(neighbors, ", "))
			return nil
		},
	}
}

func (c *CLI) aspectsPathCommand(load loadFunc) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "path <from> <to>",
		Short: "Find the cheapest chain of related aspects between two aspects",
		Long: `Find the cheapest chain of related aspects between two aspects.

Without --steps the chain may have any length. With --steps it has exactly
that many links, which is what a fixed-length path of board cells needs.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := load()
			if err != nil {
				return err
			}
			from, to := strings.ToLower(args[0]), strings.ToLower(args[1])

			var path []string
			if cmd.Flags().Changed("steps") {
				path, err = g.FixedStepPath(from, to, steps)
			} else {
				path, err = g.ShortestCostPath(from, to)
			}
			if err != nil {
				return err
			}
			if len(path) == 0 {
				printWarning("No chain from %s to %s", from, to)
				return nil
			}

			cost, err := g.PathCost(path)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(path, " "+iconArrow+" "))
			printDetail("%d steps · cost %d", len(path)-1, cost)
			return nil
		},
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 0, "exact number of links in the chain")

	return cmd
}

func (c *CLI) aspectsExportCommand(load loadFunc) *cobra.Command {
	var (
		output   string
		detailed bool
		path     []string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the recipe graph or book",
		Long: `Export the recipe graph or book. The output format follows the file extension:

  .svg         rendered recipe graph
  .dot         Graphviz source (also the default on stdout)
  .json .toml  recipe book`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := load()
			if err != nil {
				return err
			}
			opts := nodelink.Options{Detailed: detailed, Path: path}

			switch strings.ToLower(filepath.Ext(output)) {
			case "":
				if output != "" {
					return fmt.Errorf("output %q has no extension", output)
				}
				fmt.Fprint(cmd.OutOrStdout(), nodelink.ToDOT(g, opts))
				return nil
			case ".dot":
				if err := os.WriteFile(output, []byte(nodelink.ToDOT(g, opts)), 0o644); err != nil {
					return err
				}
			case ".svg":
				prog := newProgress(loggerFromContext(cmd.Context()))
				svg, err := nodelink.RenderSVG(cmd.Context(), nodelink.ToDOT(g, opts))
				if err != nil {
					return err
				}
				if err := os.WriteFile(output, svg, 0o644); err != nil {
					return err
				}
				prog.done("Rendered recipe graph")
			case ".json", ".toml":
				if err := boardio.ExportRecipes(g.Spec(), output); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unsupported export format %q", filepath.Ext(output))
			}
			printSuccess("Exported %d aspects", g.Len())
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (.svg, .dot, .json or .toml)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "label aspects with their cost")
	cmd.Flags().StringSliceVar(&path, "path", nil, "highlight a chain of aspects (comma-separated)")

	return cmd
}

func (c *CLI) aspectsBrowseCommand(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the recipe book interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := load()
			if err != nil {
				return err
			}
			p := tea.NewProgram(newBrowserModel(g), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}
}

func joinOrDash(names []string, sep string) string {
	if len(names) == 0 {
		return "—"
	}
	return strings.Join(names, sep)
}
