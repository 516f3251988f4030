package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/nextstep/pkg/graph"
	"github.com/matzehuels/nextstep/pkg/render/nodelink"
)

// List styles
var (
	listDimStyle   = lipgloss.NewStyle().Foreground(colorDim)
	listErrorStyle = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// NodeListModel - Interactive node browser
// =============================================================================

// nodeItem is one row of the node browser.
type nodeItem struct {
	ID        graph.NodeID
	Label     string
	Volume    int
	Neighbors int
}

// neighborhoodFunc builds the neighborhood shown when a node is opened.
type neighborhoodFunc func(graph.NodeID) (nodelink.Neighborhood, error)

// NodeListModel is the bubbletea model for browsing nodes and their
// next-step distributions.
type NodeListModel struct {
	Items    []nodeItem
	Strategy string
	Cursor   int
	Offset   int
	Height   int

	// Detail is the open neighborhood, nil while the list is shown.
	Detail *nodelink.Neighborhood
	Err    error

	open neighborhoodFunc
}

// newNodeListModel creates a node browser. open is called when a node is
// selected.
func newNodeListModel(items []nodeItem, strategy string, open neighborhoodFunc) NodeListModel {
	return NodeListModel{
		Items:    items,
		Strategy: strategy,
		Height:   15,
		open:     open,
	}
}

func (m NodeListModel) Init() tea.Cmd {
	return nil
}

func (m NodeListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.Detail != nil || m.Err != nil {
			switch msg.String() {
			case "q", "ctrl+c":
				return m, tea.Quit
			case "esc", "backspace", "h", "left":
				m.Detail, m.Err = nil, nil
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Items)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter", "l", "right":
			if len(m.Items) == 0 {
				return m, nil
			}
			nb, err := m.open(m.Items[m.Cursor].ID)
			if err != nil {
				m.Err = err
				return m, nil
			}
			m.Detail = &nb
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m NodeListModel) View() string {
	switch {
	case m.Err != nil:
		return listErrorStyle.Render(m.Err.Error()) + "\n\n" + listDimStyle.Render("esc back  q quit")
	case m.Detail != nil:
		return m.detailView()
	}
	return m.listView()
}

func (m NodeListModel) listView() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Items by outgoing transitions"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ open  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Items))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		it := m.Items[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, it.Label, strconv.Itoa(it.Volume), strconv.Itoa(it.Neighbors)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Item", "Transitions", "Successors").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Items))))
	return b.String()
}

func (m NodeListModel) detailView() string {
	nb := m.Detail
	var b strings.Builder

	b.WriteString(StyleTitle.Render(nb.Node))
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d transitions · predicted by %s", nb.Volume, m.Strategy)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("esc back  q quit"))
	b.WriteString("\n\n")

	rows := make([][]string, len(nb.Neighbors))
	for i, n := range nb.Neighbors {
		rows[i] = []string{
			n.Label,
			strconv.Itoa(n.Count),
			fmt.Sprintf("%.4f", n.Empirical),
			strconv.Itoa(n.EmpiricalRank),
			fmt.Sprintf("%.4f", n.Predicted),
			rankString(n.PredictedRank),
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Successor", "Count", "Observed", "Rank", "Predicted", "Rank").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			n := nb.Neighbors[row]
			switch {
			case n.EmpiricalRank == 1 && n.PredictedRank == 1:
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			case n.EmpiricalRank == 1:
				return lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	return b.String()
}

func rankString(r int) string {
	if r == 0 {
		return "—"
	}
	return strconv.Itoa(r)
}
