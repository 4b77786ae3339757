// Package palette renders the command palette overlay.
package palette

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	core "github.com/regtime/regtime/internal/palette"
	"github.com/regtime/regtime/internal/tui/icons"
	"github.com/regtime/regtime/internal/tui/layout"
	"github.com/regtime/regtime/internal/tui/theme"
)

// ExecutedMsg reports a confirmed command. Err is the handler's error; the
// palette stays open when it is non-nil.
type ExecutedMsg struct {
	Command core.Command
	Err     error
}

// ClosedMsg is sent when the palette is dismissed without running anything.
type ClosedMsg struct{}

const (
	// Placeholder is shown in the empty search input.
	Placeholder = "Search commands…"
	// EmptyText is shown when a query matches nothing.
	EmptyText = "No commands found. Try different keywords."

	maxRows = 8
)

// Model is the palette overlay. It drives a core.Controller and renders its
// state; all selection logic lives in the controller.
type Model struct {
	ctrl   *core.Controller
	input  textinput.Model
	keys   KeyMap
	help   help.Model
	styles theme.Styles
	icons  icons.IconSet

	width        int
	reduceMotion bool
}

// Option configures a Model.
type Option func(*Model)

// WithStyles overrides the theme styles.
func WithStyles(s theme.Styles) Option { return func(m *Model) { m.styles = s } }

// WithIcons overrides the icon set.
func WithIcons(ic icons.IconSet) Option { return func(m *Model) { m.icons = ic } }

// WithKeyMap overrides the key bindings.
func WithKeyMap(k KeyMap) Option { return func(m *Model) { m.keys = k } }

// WithReducedMotion disables the blinking cursor.
func WithReducedMotion(on bool) Option { return func(m *Model) { m.reduceMotion = on } }

// New creates a palette model around ctrl.
func New(ctrl *core.Controller, opts ...Option) Model {
	input := textinput.New()
	input.Placeholder = Placeholder
	input.Prompt = "> "
	input.CharLimit = core.MaxQueryLength

	m := Model{
		ctrl:   ctrl,
		input:  input,
		keys:   DefaultKeyMap,
		help:   help.New(),
		styles: theme.DefaultStyles(),
		icons:  icons.Current(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.input.PromptStyle = m.styles.Prompt
	m.SetSize(80, 24)
	return m
}

// Controller returns the controller the model drives.
func (m Model) Controller() *core.Controller { return m.ctrl }

// IsOpen reports whether the overlay is showing.
func (m Model) IsOpen() bool { return m.ctrl.IsOpen() }

// Query returns the current input text.
func (m Model) Query() string { return m.input.Value() }

// Open shows the palette with an empty query and focuses the input.
func (m *Model) Open() tea.Cmd {
	m.ctrl.Open()
	m.input.SetValue("")
	focus := m.input.Focus()
	if m.reduceMotion {
		return m.input.Cursor.SetMode(cursor.CursorStatic)
	}
	return tea.Batch(focus, m.input.Cursor.SetMode(cursor.CursorBlink))
}

// Close hides the palette without running anything.
func (m *Model) Close() {
	m.ctrl.Cancel()
	m.input.Blur()
}

// SetReducedMotion switches the cursor between blinking and static.
func (m *Model) SetReducedMotion(on bool) tea.Cmd {
	m.reduceMotion = on
	if !m.ctrl.IsOpen() {
		return nil
	}
	if on {
		return m.input.Cursor.SetMode(cursor.CursorStatic)
	}
	return m.input.Cursor.SetMode(cursor.CursorBlink)
}

// SetSize fits the overlay to a terminal of the given size.
func (m *Model) SetSize(width, height int) {
	m.width = layout.OverlayWidth(width)
	m.input.Width = m.width - 6
	m.help.Width = m.width - 4

	// Box border, input, separator and help take six lines.
	rows := height - 6
	if rows > maxRows {
		rows = maxRows
	}
	if rows < 1 {
		rows = 1
	}
	m.ctrl.SetViewportHeight(rows)
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update handles keys while the palette is open. Closed palettes ignore
// every message.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.ctrl.IsOpen() {
		return m, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Close):
			m.Close()
			return m, func() tea.Msg { return ClosedMsg{} }
		case key.Matches(msg, m.keys.Up):
			m.ctrl.MoveUp()
			return m, nil
		case key.Matches(msg, m.keys.Down):
			m.ctrl.MoveDown()
			return m, nil
		case key.Matches(msg, m.keys.Confirm):
			cmd, ok, err := m.ctrl.Confirm()
			if !ok {
				return m, nil
			}
			if err == nil {
				m.input.Blur()
			}
			return m, func() tea.Msg { return ExecutedMsg{Command: cmd, Err: err} }
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != before {
		m.ctrl.SetQuery(v)
	}
	return m, cmd
}

// View renders the overlay, or nothing when closed.
func (m Model) View() string {
	if !m.ctrl.IsOpen() {
		return ""
	}

	inner := m.width - 4
	var b strings.Builder
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.styles.Description.Render(strings.Repeat("─", inner)))
	b.WriteString("\n")

	results := m.ctrl.Results()
	if len(results) == 0 {
		b.WriteString(m.styles.Empty.Render(layout.TruncateWidthDefault(EmptyText, inner)))
	} else {
		offset, index := m.ctrl.Offset(), m.ctrl.Index()
		visible := m.ctrl.Visible()
		for i, r := range visible {
			b.WriteString(m.renderRow(r, offset+i == index, inner))
			if i < len(visible)-1 {
				b.WriteString("\n")
			}
		}
		if len(results) > len(visible) {
			b.WriteString("\n")
			b.WriteString(m.styles.Status.Render(fmt.Sprintf("%d/%d", index+1, len(results))))
		}
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return m.styles.Box.Width(m.width - 2).Render(b.String())
}

func (m Model) renderRow(r core.Result, selected bool, width int) string {
	c := r.Command
	marker := "  "
	if selected {
		marker = m.icons.Pointer + " "
		if lipgloss.Width(marker) > 2 {
			marker = "> "
		}
	}
	icon := c.Icon
	if icon == "" {
		icon = m.icons.CategoryIcon(string(c.Category))
	}

	right := ""
	if r.Recent {
		right = m.styles.Recent.Render("recent")
	}
	if c.Shortcut != "" {
		if right != "" {
			right += " "
		}
		right += m.styles.Shortcut.Render(strings.ToUpper(c.Shortcut))
	}

	left := marker + icon + " "
	avail := width - lipgloss.Width(left) - lipgloss.Width(right) - 1
	if avail < 4 {
		avail = 4
	}

	title := layout.TruncateMiddle(c.Title, avail)
	line := title
	if rest := avail - lipgloss.Width(title) - 2; rest > 3 && c.Description != "" {
		line += "  " + m.styles.Description.Render(layout.TruncateWidthDefault(c.Description, rest))
	}

	style := m.styles.Item
	if selected {
		style = m.styles.Selected
	}
	body := style.Render(left) + style.Render(title) + strings.TrimPrefix(line, title)
	gap := width - lipgloss.Width(body) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return body + strings.Repeat(" ", gap) + right
}
