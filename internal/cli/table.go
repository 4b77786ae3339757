package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/ansi"

	"github.com/regtime/regtime/internal/tui/theme"
)

// Table renders rows with rounded box-drawing borders.
type Table struct {
	headers []string
	rows    [][]string
	widths  []int
	title   string
	footer  string
}

// NewTable creates a table with the given headers.
func NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = cellWidth(h)
	}
	return &Table{headers: headers, widths: widths}
}

// WithTitle sets a line printed above the table.
func (t *Table) WithTitle(title string) *Table {
	t.title = title
	return t
}

// WithFooter sets a line printed below the table.
func (t *Table) WithFooter(footer string) *Table {
	t.footer = footer
	return t
}

// AddRow appends a row. Extra cells are dropped.
func (t *Table) AddRow(cols ...string) {
	for i, c := range cols {
		if i < len(t.widths) {
			t.widths[i] = max(t.widths[i], cellWidth(c))
		}
	}
	t.rows = append(t.rows, cols)
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int { return len(t.rows) }

// Render returns the table as a string.
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	th := theme.Current()
	border := lipgloss.NewStyle().Foreground(th.Fog)
	header := lipgloss.NewStyle().Foreground(th.Slate).Bold(true)
	text := lipgloss.NewStyle().Foreground(th.Ink)
	subtle := lipgloss.NewStyle().Foreground(th.Graphite)

	hline := func(left, mid, right string) string {
		var b strings.Builder
		b.WriteString(left)
		for i, w := range t.widths {
			b.WriteString(strings.Repeat("─", w+2))
			if i < len(t.widths)-1 {
				b.WriteString(mid)
			}
		}
		b.WriteString(right)
		return border.Render(b.String())
	}
	row := func(cells []string, style lipgloss.Style) string {
		var b strings.Builder
		b.WriteString(border.Render("│"))
		for i := range t.headers {
			var cell string
			if i < len(cells) {
				cell = cells[i]
			}
			b.WriteString(" ")
			b.WriteString(style.Render(padRight(cell, t.widths[i])))
			b.WriteString(" ")
			b.WriteString(border.Render("│"))
		}
		return b.String()
	}

	var sb strings.Builder
	if t.title != "" {
		sb.WriteString(header.Render(t.title))
		sb.WriteString("\n")
	}
	sb.WriteString(hline("╭", "┬", "╮") + "\n")
	sb.WriteString(row(t.headers, header) + "\n")
	sb.WriteString(hline("├", "┼", "┤") + "\n")
	for _, r := range t.rows {
		sb.WriteString(row(r, text) + "\n")
	}
	sb.WriteString(hline("╰", "┴", "╯") + "\n")
	if t.footer != "" {
		sb.WriteString(subtle.Render(t.footer))
		sb.WriteString("\n")
	}
	return sb.String()
}

// String implements fmt.Stringer.
func (t *Table) String() string { return t.Render() }

// cellWidth is the printed width of s, ignoring escape sequences.
func cellWidth(s string) int {
	if strings.ContainsRune(s, '\x1b') {
		return ansi.PrintableRuneWidth(s)
	}
	return runewidth.StringWidth(s)
}

func padRight(s string, width int) string {
	if w := cellWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// successMessage renders a success line.
func successMessage(msg string) string {
	return lipgloss.NewStyle().Foreground(theme.Current().Success).Render("✓ " + msg)
}

// warningMessage renders a warning line.
func warningMessage(msg string) string {
	return lipgloss.NewStyle().Foreground(theme.Current().Error).Render("⚠ " + msg)
}
