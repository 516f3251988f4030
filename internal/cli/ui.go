package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/nextstep/pkg/metrics"
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

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

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

	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
	styleTableHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
	styleTableCell   = lipgloss.NewStyle().Padding(0, 1)
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
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(14)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// printStats prints stage statistics on a single line.
func printStats(parts []string, cached bool) {
	status := iconFresh
	statusStyle := styleComputed
	if cached {
		status = iconCached
		statusStyle = styleCached
	}

	line := "  "
	for _, part := range parts {
		line += StyleDim.Render(part) + StyleDim.Render(" · ")
	}
	fmt.Println(line + statusStyle.Render(status))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Println()
}

// =============================================================================
// Summary Table
// =============================================================================

// summaryRow is one line of the strategy comparison table.
type summaryRow struct {
	Strategy    string          `json:"strategy"`
	Teleport    float64         `json:"teleport"`
	Replication int             `json:"replication"`
	Summary     metrics.Summary `json:"summary"`
}

var summaryHeaders = []string{"strategy", "teleport", "models", "KL", "RMSE", "accuracy", "MRR", "displacement", "nodes", "skipped"}

// renderSummaryTable renders rows as a bordered table. The best value of
// each score column is highlighted.
func renderSummaryTable(rows []summaryRow) string {
	best := bestRows(rows)
	cells := make([][]string, len(rows))
	for i, r := range rows {
		v := r.Summary.Values()
		cells[i] = []string{
			r.Strategy,
			strconv.FormatFloat(r.Teleport, 'f', 2, 64),
			strconv.Itoa(r.Replication),
			fmt.Sprintf("%.4f", v[0]),
			fmt.Sprintf("%.4f", v[1]),
			fmt.Sprintf("%.4f", v[2]),
			fmt.Sprintf("%.4f", v[3]),
			fmt.Sprintf("%.4f", v[4]),
			strconv.Itoa(r.Summary.Evaluated),
			strconv.Itoa(r.Summary.Skipped),
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(summaryHeaders...).
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleTableHeader
			}
			if col >= 3 && col <= 7 && best[col-3] == row {
				return styleTableCell.Foreground(colorGreen).Bold(true)
			}
			if col == 0 {
				return styleTableCell.Foreground(colorCyan)
			}
			return styleTableCell
		})
	return t.Render()
}

// bestRows returns, per score, the index of the best row. KL, RMSE and
// displacement are minimized; accuracy and MRR are maximized.
func bestRows(rows []summaryRow) [5]int {
	best := [5]int{-1, -1, -1, -1, -1}
	minimize := [5]bool{true, true, false, false, true}
	for i, r := range rows {
		if r.Summary.Evaluated == 0 {
			continue
		}
		v := r.Summary.Values()
		for m := range v {
			if best[m] < 0 {
				best[m] = i
				continue
			}
			cur := rows[best[m]].Summary.Values()[m]
			if (minimize[m] && v[m] < cur) || (!minimize[m] && v[m] > cur) {
				best[m] = i
			}
		}
	}
	return best
}
