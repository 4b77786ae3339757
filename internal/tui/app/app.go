// Package app is the root model of the interactive palette shell.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/regtime/regtime/internal/localstore"
	core "github.com/regtime/regtime/internal/palette"
	"github.com/regtime/regtime/internal/prefs"
	"github.com/regtime/regtime/internal/tui/icons"
	"github.com/regtime/regtime/internal/tui/layout"
	tuipalette "github.com/regtime/regtime/internal/tui/palette"
	"github.com/regtime/regtime/internal/tui/theme"
	"github.com/regtime/regtime/internal/watcher"
)

// ToastDuration is how long a toast stays on screen.
const ToastDuration = 4 * time.Second

// Config holds what the shell needs to start.
type Config struct {
	Store        localstore.Store
	Threshold    float64
	RecentLimit  int
	TailLimit    int
	CommandsFile string
	Development  bool
	ContactEmail string
	ContactPhone string
	Clipboard    core.Clipboard
	Icons        icons.IconSet
	Styles       *theme.Styles
	Logger       *slog.Logger
	// Now is the sequencer clock; tests pin it.
	Now func() time.Time
}

type toastExpiredMsg struct{ id int }

type commandsChangedMsg struct{}

// shell holds state mutated by command handlers while Update runs. Handlers
// are closures built once per registry, so they reach it through a pointer.
type shell struct {
	route   string
	toast   *core.Toast
	toastID int

	prefs        *prefs.Preferences
	motionChange bool
}

func (s *shell) Navigate(route string) error {
	s.route = route
	return nil
}

func (s *shell) Notify(t core.Toast) {
	s.toast = &t
	s.toastID++
}

func (s *shell) ReducedMotion() prefs.ReducedMotion { return s.prefs.ReducedMotion() }

func (s *shell) SetReducedMotion(m prefs.ReducedMotion) error {
	if err := s.prefs.SetReducedMotion(m); err != nil {
		return err
	}
	s.motionChange = true
	return nil
}

// Model is the root bubbletea model.
type Model struct {
	cfg     Config
	sh      *shell
	ctrl    *core.Controller
	seq     *core.Sequencer
	palette tuipalette.Model
	custom  []core.CustomCommand
	watch   *watcher.FileWatcher

	keys   KeyMap
	help   help.Model
	styles theme.Styles
	logger *slog.Logger

	width  int
	height int
}

// New builds the shell. The commands file, when set, is loaded now and
// watched until Close.
func New(ctx context.Context, cfg Config) (Model, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Icons == (icons.IconSet{}) {
		cfg.Icons = icons.Current()
	}
	styles := theme.DefaultStyles()
	if cfg.Styles != nil {
		styles = *cfg.Styles
	}

	m := Model{
		cfg:    cfg,
		sh:     &shell{route: core.RouteHome, prefs: prefs.Load(cfg.Store)},
		keys:   DefaultKeyMap,
		help:   help.New(),
		styles: styles,
		logger: cfg.Logger,
	}

	if cfg.CommandsFile != "" {
		m.custom = m.loadCustom()
		w, err := watcher.NewFileWatcher(cfg.CommandsFile, watcher.WithLogger(cfg.Logger))
		if err != nil {
			cfg.Logger.Warn("commands file not watched", "path", cfg.CommandsFile, "error", err)
		} else {
			w.Start(ctx)
			m.watch = w
		}
	}

	reg, err := m.buildRegistry()
	if err != nil && len(m.custom) > 0 {
		cfg.Logger.Warn("custom commands ignored", "path", cfg.CommandsFile, "error", err)
		m.custom = nil
		reg, err = m.buildRegistry()
	}
	if err != nil {
		m.Close()
		return Model{}, err
	}

	matcher := core.NewMatcher()
	if cfg.Threshold > 0 {
		matcher.Threshold = cfg.Threshold
	}
	opts := []core.ControllerOption{core.WithMatcher(matcher)}
	if cfg.TailLimit > 0 {
		opts = append(opts, core.WithTailLimit(cfg.TailLimit))
	}
	m.ctrl = core.NewController(reg, core.NewRecencyTracker(cfg.Store, cfg.RecentLimit), opts...)
	m.seq = core.NewSequencer(reg.Shortcuts(), core.DefaultSequenceTimeout)
	m.palette = tuipalette.New(m.ctrl,
		tuipalette.WithStyles(styles),
		tuipalette.WithIcons(cfg.Icons),
		tuipalette.WithReducedMotion(m.sh.prefs.ShouldReduceMotion()),
	)
	return m, nil
}

// Close stops the commands file watcher.
func (m Model) Close() {
	if m.watch != nil {
		m.watch.Stop()
	}
}

func (m Model) actions() core.Actions {
	return core.Actions{
		Navigator: m.sh,
		Clipboard: m.cfg.Clipboard,
		Motion:    m.sh,
		Notifier:  m.sh,
	}
}

func (m Model) buildRegistry() (*core.Registry, error) {
	a := m.actions()
	opts := core.Options{
		ContactEmail: m.cfg.ContactEmail,
		ContactPhone: m.cfg.ContactPhone,
		Development:  m.cfg.Development,
		Icons:        m.cfg.Icons,
		DesignTokens: theme.Current().Tokens(),
	}
	reg, err := core.DefaultRegistry(a, opts, core.CustomCommands(m.custom, a, m.cfg.Icons.Link)...)
	if err != nil {
		return nil, fmt.Errorf("build command registry: %w", err)
	}
	return reg, nil
}

func (m Model) loadCustom() []core.CustomCommand {
	custom, err := core.LoadCustomCommands(m.cfg.CommandsFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			m.logger.Warn("commands file unreadable", "path", m.cfg.CommandsFile, "error", err)
		}
		return nil
	}
	return custom
}

// rebuild swaps in a fresh registry. A registry error keeps the old one.
func (m *Model) rebuild() {
	reg, err := m.buildRegistry()
	if err != nil {
		m.logger.Warn("commands not reloaded", "error", err)
		m.sh.Notify(core.Toast{Level: core.ToastError, Title: "Commands not reloaded", Body: err.Error()})
		return
	}
	m.ctrl.SetRegistry(reg)
	m.seq = core.NewSequencer(reg.Shortcuts(), core.DefaultSequenceTimeout)
}

func (m Model) waitForChange() tea.Cmd {
	if m.watch == nil {
		return nil
	}
	ch := m.watch.Changes()
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return commandsChangedMsg{}
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.waitForChange()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	toastBefore := m.sh.toastID
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.palette.SetSize(msg.Width, msg.Height-3)
		return m, nil

	case toastExpiredMsg:
		if msg.id == m.sh.toastID {
			m.sh.toast = nil
		}
		return m, nil

	case commandsChangedMsg:
		m.custom = m.loadCustom()
		m.rebuild()
		m.logger.Info("commands reloaded", "path", m.cfg.CommandsFile, "commands", m.ctrl.Registry().Len())
		cmds = append(cmds, m.waitForChange())

	case tuipalette.ExecutedMsg:
		if msg.Err != nil {
			m.logger.Warn("command failed", "id", msg.Command.ID, "error", msg.Err)
			m.sh.Notify(core.Toast{Level: core.ToastError, Title: msg.Command.Title + " failed", Body: msg.Err.Error()})
		}

	case tuipalette.ClosedMsg:
		m.seq.Reset()

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg))

	default:
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.sh.motionChange {
		m.sh.motionChange = false
		m.rebuild()
		cmds = append(cmds, m.palette.SetReducedMotion(m.sh.prefs.ShouldReduceMotion()))
	}
	if m.sh.toastID != toastBefore {
		id := m.sh.toastID
		cmds = append(cmds, tea.Tick(ToastDuration, func(time.Time) tea.Msg {
			return toastExpiredMsg{id: id}
		}))
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return tea.Quit
	}
	if key.Matches(msg, m.keys.Palette) {
		if m.palette.IsOpen() {
			m.palette.Close()
			return nil
		}
		m.seq.Reset()
		return m.palette.Open()
	}

	// The palette input owns the keyboard while it is open.
	if m.palette.IsOpen() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.seq.Reset()
		m.run("help-shortcuts")
		return nil
	}

	if msg.Type != tea.KeyRunes || msg.Alt {
		m.seq.Reset()
		return nil
	}
	if id, ok := m.seq.Feed(string(msg.Runes), m.cfg.Now()); ok {
		m.run(id)
	}
	return nil
}

func (m *Model) run(id string) {
	cmd, err := m.ctrl.Run(id)
	if err != nil {
		m.logger.Warn("command failed", "id", id, "error", err)
		m.sh.Notify(core.Toast{Level: core.ToastError, Title: "Command failed", Body: err.Error()})
		return
	}
	m.logger.Debug("command run", "id", cmd.ID)
}

// Route returns the current route.
func (m Model) Route() string { return m.sh.route }

// Toast returns the toast on screen, if any.
func (m Model) Toast() (core.Toast, bool) {
	if m.sh.toast == nil {
		return core.Toast{}, false
	}
	return *m.sh.toast, true
}

// Controller exposes the palette controller.
func (m Model) Controller() *core.Controller { return m.ctrl }

// Preferences exposes the loaded preferences.
func (m Model) Preferences() *prefs.Preferences { return m.sh.prefs }

// PaletteOpen reports whether the palette overlay is showing.
func (m Model) PaletteOpen() bool { return m.palette.IsOpen() }

var pageTitles = map[string]string{
	core.RouteHome:     "Home",
	core.RouteAbout:    "About",
	core.RouteServices: "Services",
	core.RouteContact:  "Contact",
	core.RoutePrivacy:  "Privacy Policy",
}

// View implements tea.Model.
func (m Model) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	title, ok := pageTitles[m.sh.route]
	if !ok {
		title = m.sh.route
	}
	b.WriteString(m.styles.Route.Render("Regtime") + "  " + m.styles.Description.Render(layout.TruncateMiddle(m.sh.route, width/2)))
	b.WriteString("\n\n")

	if m.palette.IsOpen() {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, m.palette.View()))
	} else {
		b.WriteString(m.styles.Category.Render(title))
		b.WriteString("\n")
		b.WriteString(m.styles.Status.Render(fmt.Sprintf("motion: %s", m.sh.prefs.ReducedMotion())))
		if p := m.seq.Pending(); p != "" {
			b.WriteString("  " + m.styles.Shortcut.Render(strings.Join(strings.Split(p, ""), " ")+" …"))
		}
	}
	b.WriteString("\n")

	if t, ok := m.Toast(); ok {
		b.WriteString("\n")
		b.WriteString(m.renderToast(t, width))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderToast(t core.Toast, width int) string {
	style := m.styles.ToastInfo
	mark := m.cfg.Icons.Info
	switch t.Level {
	case core.ToastSuccess:
		style, mark = m.styles.ToastOK, m.cfg.Icons.Check
	case core.ToastError:
		style, mark = m.styles.ToastError, m.cfg.Icons.Cross
	}
	line := mark + " " + t.Title
	if t.Body != "" {
		line += ": " + t.Body
	}
	return style.Render(layout.Wrap(line, width))
}
