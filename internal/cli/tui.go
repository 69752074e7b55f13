package cli

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/WalterStager/thaumcraft-research-solver/pkg/aspect"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)

	detailPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).
				Padding(0, 1).
				MarginLeft(2)
)

// =============================================================================
// BrowserModel - Interactive recipe browser
// =============================================================================

// BrowserModel is the bubbletea model behind "aspects browse". The left
// column lists every aspect; the right panel shows the one under the cursor
// and lets the user follow its relations.
type BrowserModel struct {
	graph *aspect.Graph
	names []string

	Cursor int
	Offset int
	Height int

	// Focus indexes the related aspects of the current one; -1 means the
	// list has focus.
	Focus int

	back []int
}

// newBrowserModel creates a browser over every aspect in g.
func newBrowserModel(g *aspect.Graph) BrowserModel {
	return BrowserModel{
		graph:  g,
		names:  g.Aspects(),
		Height: 15,
		Focus:  -1,
	}
}

// Current returns the aspect under the cursor.
func (m BrowserModel) Current() string {
	if len(m.names) == 0 {
		return ""
	}
	return m.names[m.Cursor]
}

func (m BrowserModel) related() []string {
	n, _ := m.graph.Neighbors(m.Current())
	return n
}

func (m BrowserModel) Init() tea.Cmd {
	return nil
}

func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m = m.moveTo(m.Cursor - 1)
			}
		case "down", "j":
			if m.Cursor < len(m.names)-1 {
				m = m.moveTo(m.Cursor + 1)
			}
		case "tab":
			if rel := m.related(); len(rel) > 0 {
				m.Focus = (m.Focus + 1) % len(rel)
			}
		case "shift+tab":
			if rel := m.related(); len(rel) > 0 {
				m.Focus = (m.Focus - 1 + len(rel)) % len(rel)
			}
		case "enter":
			rel := m.related()
			if m.Focus < 0 || m.Focus >= len(rel) {
				return m, nil
			}
			i, ok := slices.BinarySearch(m.names, rel[m.Focus])
			if !ok {
				return m, nil
			}
			m.back = append(m.back, m.Cursor)
			m = m.moveTo(i)
		case "backspace", "b":
			if n := len(m.back); n > 0 {
				prev := m.back[n-1]
				m.back = m.back[:n-1]
				m = m.moveTo(prev)
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
		m = m.moveTo(m.Cursor)
	}
	return m, nil
}

// moveTo puts the cursor on i, scrolls it into view and returns focus to
// the list.
func (m BrowserModel) moveTo(i int) BrowserModel {
	m.Cursor = i
	m.Focus = -1
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
	return m
}

func (m BrowserModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Recipe Book"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  tab relations  ⏎ follow  ⌫ back  q quit"))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.listView(), m.detailView()))
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.names))))

	return b.String()
}

func (m BrowserModel) listView() string {
	var b strings.Builder
	end := min(m.Offset+m.Height, len(m.names))
	for i := m.Offset; i < end; i++ {
		name := m.names[i]
		cost, _ := m.graph.Cost(name)
		line := fmt.Sprintf("%-14s %4d", name, cost)
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render("▸ " + line))
		} else {
			b.WriteString(listNormalStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m BrowserModel) detailView() string {
	name := m.Current()
	if name == "" {
		return ""
	}
	cost, _ := m.graph.Cost(name)
	comps, _ := m.graph.Components(name)
	parents, _ := m.graph.Parents(name)

	kind := "compound"
	if m.graph.IsPrimal(name) {
		kind = "primal"
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render(name))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%s · cost %d", kind, cost)))
	b.WriteString("\n\n")
	b.WriteString(styleHeader.Render("Components"))
	b.WriteString("\n" + listNormalStyle.Render(joinOrDash(comps, " + ")) + "\n\n")
	b.WriteString(styleHeader.Render("Used in"))
	b.WriteString("\n" + listNormalStyle.Render(joinOrDash(parents, ", ")) + "\n\n")

	b.WriteString(styleHeader.Render("Relations"))
	b.WriteString("\n")
	for i, r := range m.related() {
		if i == m.Focus {
			b.WriteString(listSelectedStyle.Render("▸ " + r))
		} else {
			b.WriteString(listDimStyle.Render("  " + r))
		}
		b.WriteString("\n")
	}
	return detailPanelStyle.Render(strings.TrimRight(b.String(), "\n"))
}
