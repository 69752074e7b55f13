package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/WalterStager/thaumcraft-research-solver/pkg/aspect"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/hexgrid"
	boardio "github.com/WalterStager/thaumcraft-research-solver/pkg/io"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)

	styleHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// Board cell styles.
var (
	styleCellSeed     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleCellLinked   = lipgloss.NewStyle().Foreground(colorGreen)
	styleCellEmpty    = lipgloss.NewStyle().Foreground(colorDim)
	styleCellDisabled = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"

	glyphEmpty    = "·"
	glyphDisabled = "×"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// printStats prints solve statistics on a single line, ending with whether
// the result came from the cache.
func printStats(cached bool, parts ...string) {
	status := iconFresh
	statusStyle := styleComputed
	if cached {
		status = iconCached
		statusStyle = styleCached
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	if len(parts) > 0 {
		line += StyleDim.Render(" · ")
	}
	fmt.Println(line + statusStyle.Render(status))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Board Drawing
// =============================================================================

// cellWidth is the printed width of one hex cell. Odd rows shift by half.
const cellWidth = 6

// renderBoard draws b row by row as a hexagon. Cells in seeds are
// highlighted as the player's placements; other filled cells are links.
func renderBoard(b *boardio.Board, seeds map[hexgrid.Coord]bool) string {
	filled := make(map[hexgrid.Coord]string, len(b.Placements))
	for _, p := range b.Placements {
		filled[p.Coord()] = p.Aspect
	}
	disabled := make(map[hexgrid.Coord]bool, len(b.Disabled))
	for _, c := range b.Disabled {
		disabled[c] = true
	}

	cell := lipgloss.NewStyle().Width(cellWidth).Align(lipgloss.Center)
	var sb strings.Builder
	n := b.Radius
	for r := -n; r <= n; r++ {
		sb.WriteString(strings.Repeat(" ", abs(r)*cellWidth/2))
		for q := max(-n, -r-n); q <= min(n, -r+n); q++ {
			c := hexgrid.Coord{Q: q, R: r}
			label, style := glyphEmpty, styleCellEmpty
			switch a, ok := filled[c]; {
			case disabled[c]:
				label, style = glyphDisabled, styleCellDisabled
			case ok && seeds[c]:
				label, style = abbrev(a), styleCellSeed
			case ok:
				label, style = abbrev(a), styleCellLinked
			}
			sb.WriteString(cell.Inherit(style).Render(label))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// abbrev shortens an aspect name to fit a cell.
func abbrev(name string) string {
	r := []rune(name)
	if len(r) > cellWidth-1 {
		r = r[:cellWidth-1]
	}
	return string(r)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// =============================================================================
// Tables
// =============================================================================

// aspectTable lists names with their cost and components.
func aspectTable(g *aspect.Graph, names []string) string {
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		cost, _ := g.Cost(name)
		comps, _ := g.Components(name)
		kind := "compound"
		if g.IsPrimal(name) {
			kind = "primal"
		}
		rows = append(rows, []string{name, strconv.Itoa(cost), kind, strings.Join(comps, " + ")})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Aspect", "Cost", "Kind", "Components").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if col == 1 {
				return StyleHighlight
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}
