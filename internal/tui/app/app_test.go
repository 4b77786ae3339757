package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/regtime/regtime/internal/localstore"
	core "github.com/regtime/regtime/internal/palette"
	"github.com/regtime/regtime/internal/prefs"
	"github.com/regtime/regtime/internal/tui/icons"
	tuipalette "github.com/regtime/regtime/internal/tui/palette"
)

type fakeClipboard struct{ text string }

func (c *fakeClipboard) WriteAll(text string) error {
	c.text = text
	return nil
}

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T, cfg Config) Model {
	t.Helper()
	t.Setenv("REGTIME_REDUCED_MOTION", "0")
	if cfg.Store == nil {
		cfg.Store = localstore.NewMemory()
	}
	cfg.Icons = icons.ASCII
	cfg.Now = func() time.Time { return fixedNow }
	m, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return out, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestStartsHome(t *testing.T) {
	m := newTestApp(t, Config{})
	if m.Route() != core.RouteHome {
		t.Errorf("Route() = %q, want %q", m.Route(), core.RouteHome)
	}
	if m.PaletteOpen() {
		t.Error("palette open at start")
	}
	if m.Init() != nil {
		t.Error("Init() returned a command without a commands file")
	}
}

func TestKeySequenceNavigates(t *testing.T) {
	m := newTestApp(t, Config{})
	m, _ = send(t, m, runes("g"))
	m, _ = send(t, m, runes("a"))

	if m.Route() != core.RouteAbout {
		t.Errorf("Route() = %q, want %q", m.Route(), core.RouteAbout)
	}
	if got := m.Controller().Recent().List(); len(got) != 1 || got[0] != "nav-about" {
		t.Errorf("recent = %v, want [nav-about]", got)
	}
}

func TestNonRuneKeyResetsSequence(t *testing.T) {
	m := newTestApp(t, Config{})
	m, _ = send(t, m, runes("g"))
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = send(t, m, runes("a"))

	if m.Route() != core.RouteHome {
		t.Errorf("Route() = %q, want sequence reset", m.Route())
	}
}

func TestCtrlKTogglesPalette(t *testing.T) {
	m := newTestApp(t, Config{})
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyCtrlK})
	if !m.PaletteOpen() {
		t.Fatal("ctrl+k did not open the palette")
	}
	if cmd == nil {
		t.Error("opening returned no focus command")
	}
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlK})
	if m.PaletteOpen() {
		t.Error("second ctrl+k did not close the palette")
	}
}

func TestSequencesIgnoredWhilePaletteOpen(t *testing.T) {
	m := newTestApp(t, Config{})
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlK})
	m, _ = send(t, m, runes("g"))
	m, _ = send(t, m, runes("s"))

	if m.Route() != core.RouteHome {
		t.Errorf("Route() = %q, sequence ran while typing", m.Route())
	}
	if q := m.Controller().Query(); q != "gs" {
		t.Errorf("query = %q, want gs", q)
	}
}

func TestPaletteConfirmNavigates(t *testing.T) {
	m := newTestApp(t, Config{})
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlK})
	m, _ = send(t, m, runes("privacy"))
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.Route() != core.RoutePrivacy {
		t.Errorf("Route() = %q, want %q", m.Route(), core.RoutePrivacy)
	}
	if m.PaletteOpen() {
		t.Error("palette still open after confirm")
	}
}

func TestHelpKeyShowsToastUntilExpiry(t *testing.T) {
	m := newTestApp(t, Config{})
	m, cmd := send(t, m, runes("?"))

	toast, ok := m.Toast()
	if !ok {
		t.Fatal("no toast after ?")
	}
	if toast.Title != "Keyboard Shortcuts" || toast.Body != core.ShortcutHelp {
		t.Errorf("toast = %+v", toast)
	}
	if cmd == nil {
		t.Error("no expiry tick scheduled")
	}

	m, _ = send(t, m, toastExpiredMsg{id: m.sh.toastID - 1})
	if _, ok := m.Toast(); !ok {
		t.Error("stale expiry cleared the toast")
	}
	m, _ = send(t, m, toastExpiredMsg{id: m.sh.toastID})
	if _, ok := m.Toast(); ok {
		t.Error("toast not cleared on expiry")
	}
}

func TestMotionCommandPersistsAndRebuilds(t *testing.T) {
	store := localstore.NewMemory()
	m := newTestApp(t, Config{Store: store})

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlK})
	m, _ = send(t, m, runes("disable"))
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if got := m.Preferences().ReducedMotion(); got != prefs.MotionReduce {
		t.Errorf("ReducedMotion() = %q, want %q", got, prefs.MotionReduce)
	}
	raw, err := store.Get(prefs.ReducedMotionKey)
	if err != nil || string(raw) != "on" {
		t.Errorf("stored = %q, %v; want on", raw, err)
	}
	cmd, ok := m.Controller().Registry().Lookup("motion-off")
	if !ok || cmd.Icon != icons.ASCII.Active {
		t.Errorf("motion-off icon = %q, want active marker", cmd.Icon)
	}
}

func TestCopyEmailUsesClipboard(t *testing.T) {
	clip := &fakeClipboard{}
	m := newTestApp(t, Config{Clipboard: clip, ContactEmail: "team@example.com"})

	if _, err := m.Controller().Run("action-copy-email"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if clip.text != "team@example.com" {
		t.Errorf("clipboard = %q", clip.text)
	}
	if toast, ok := m.Toast(); !ok || toast.Level != core.ToastSuccess {
		t.Errorf("toast = %+v, %v; want success", toast, ok)
	}
}

func TestFailedCommandShowsErrorToast(t *testing.T) {
	m := newTestApp(t, Config{})
	m, cmd := send(t, m, tuipalette.ExecutedMsg{
		Command: core.Command{ID: "action-copy-email", Title: "Copy Email"},
		Err:     errors.New("clipboard unavailable"),
	})

	toast, ok := m.Toast()
	if !ok || toast.Level != core.ToastError {
		t.Fatalf("toast = %+v, %v; want error", toast, ok)
	}
	if toast.Title != "Copy Email failed" {
		t.Errorf("title = %q", toast.Title)
	}
	if cmd == nil {
		t.Error("no expiry tick scheduled")
	}
}

func writeCommands(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCommandsFileLoadedAndReloaded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.yaml")
	writeCommands(t, path, `commands:
  - id: dash-projects
    title: Projects
    route: /dashboard/projects
    shortcut: g p
`)
	m := newTestApp(t, Config{CommandsFile: path})
	if _, ok := m.Controller().Registry().Lookup("dash-projects"); !ok {
		t.Fatal("custom command not loaded")
	}
	if m.Init() == nil {
		t.Error("Init() did not subscribe to file changes")
	}

	m, _ = send(t, m, runes("g"))
	m, _ = send(t, m, runes("p"))
	if m.Route() != "/dashboard/projects" {
		t.Errorf("Route() = %q, want /dashboard/projects", m.Route())
	}

	writeCommands(t, path, `commands:
  - id: dash-help
    title: Help Center
    route: /dashboard/help
`)
	m, cmd := send(t, m, commandsChangedMsg{})
	reg := m.Controller().Registry()
	if _, ok := reg.Lookup("dash-projects"); ok {
		t.Error("removed command still registered")
	}
	if _, ok := reg.Lookup("dash-help"); !ok {
		t.Error("new command not registered")
	}
	if cmd == nil {
		t.Error("reload did not resubscribe")
	}
}

func TestDuplicateCustomIDsFallBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.yaml")
	writeCommands(t, path, `commands:
  - id: nav-home
    title: Another Home
    route: /elsewhere
`)
	m := newTestApp(t, Config{CommandsFile: path})
	cmd, ok := m.Controller().Registry().Lookup("nav-home")
	if !ok || cmd.Title != "Home" {
		t.Errorf("nav-home = %+v, want built-in", cmd)
	}
}

func TestCloseEndsChangeSubscription(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.yaml")
	writeCommands(t, path, "commands: []\n")
	m := newTestApp(t, Config{CommandsFile: path})
	cmd := m.Init()
	if cmd == nil {
		t.Fatal("Init() did not subscribe to file changes")
	}
	m.Close()

	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		if msg != nil {
			t.Errorf("msg after Close = %T, want nil", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("subscription still blocked after Close")
	}
}

func TestViewShowsRouteAndPalette(t *testing.T) {
	m := newTestApp(t, Config{})
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = send(t, m, runes("g"))
	m, _ = send(t, m, runes("c"))

	if v := m.View(); !strings.Contains(v, "Contact") {
		t.Errorf("view missing page title:\n%s", v)
	}
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlK})
	if v := m.View(); !strings.Contains(v, "Privacy Policy") {
		t.Errorf("view missing palette rows:\n%s", v)
	}
}

