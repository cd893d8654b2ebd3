package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/spikesim/internal/equiv"
)

var (
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
	headerCell  = cellStyle.Bold(true).Foreground(lipgloss.Color("#ffffff"))
	highlighted = cellStyle.Foreground(lipgloss.Color("#ff4444"))
)

// RenderReport draws the verdict, a per-group table, and the first divergence.
func RenderReport(r *equiv.Report) string {
	var b strings.Builder

	verdict := Pass.Render("EQUIVALENT")
	if !r.Equivalent() {
		verdict = Fail.Render("DIVERGENT")
	}
	b.WriteString(Title.Render(fmt.Sprintf("%s vs %s", r.BackendA, r.BackendB)) + "  " + verdict + "\n\n")

	rows := [][]string{{"group", "n", "spikes " + r.BackendA, "spikes " + r.BackendB, "max|Δ|", "max drift"}}
	for _, g := range r.Groups {
		drift := "-"
		if g.Traced {
			drift = fmt.Sprintf("%.3g", g.MaxStateDrift)
		}
		rows = append(rows, []string{
			g.Group,
			fmt.Sprint(g.Size),
			fmt.Sprint(g.TotalA),
			fmt.Sprint(g.TotalB),
			fmt.Sprint(g.MaxAbsDelta),
			drift,
		})
	}
	b.WriteString(table(rows, func(row int) bool {
		return row > 0 && r.Groups[row-1].MaxAbsDelta > r.Tolerance.MaxCountDelta
	}))

	b.WriteString(Separator(lipgloss.Width(strings.SplitN(b.String(), "\n", 2)[0])) + "\n")
	b.WriteString(Metric("tolerance", fmt.Sprintf("count %d, drift %g", r.Tolerance.MaxCountDelta, r.Tolerance.MaxStateDrift)) + "\n")
	if r.Divergence != nil {
		b.WriteString(Metric("first diverge", r.Divergence.String()) + "\n")
	}
	return Panel.Render(strings.TrimRight(b.String(), "\n"))
}

// table pads every column to its widest cell. hot marks rows to highlight.
func table(rows [][]string, hot func(row int) bool) string {
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	for r, row := range rows {
		style := cellStyle
		switch {
		case r == 0:
			style = headerCell
		case hot(r):
			style = highlighted
		}
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = style.Width(widths[i] + 2).Render(cell)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...) + "\n")
	}
	return b.String()
}
