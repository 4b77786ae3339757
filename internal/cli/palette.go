package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/regtime/regtime/internal/localstore"
	"github.com/regtime/regtime/internal/palette"
	"github.com/regtime/regtime/internal/tui/app"
	"github.com/regtime/regtime/internal/tui/icons"
	"github.com/regtime/regtime/internal/tui/theme"
)

// ErrNotInteractive is returned when the palette is started without a TTY.
var ErrNotInteractive = errors.New("palette needs an interactive terminal (try `regtime search`)")

func newPaletteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "palette",
		Short: "Open the interactive command palette",
		Long: `Open the Regtime shell. Ctrl+K toggles the command palette, ? shows
the shortcut list, and g h / g a / g s / g c jump between pages.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPalette(cmd)
		},
	}
}

func isInteractive() bool {
	out := os.Stdout.Fd()
	if !isatty.IsTerminal(out) && !isatty.IsCygwinTerminal(out) {
		return false
	}
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// paletteLogPath is where the shell logs while it owns the screen.
func paletteLogPath() string {
	return filepath.Join(filepath.Dir(localstore.DefaultFilePath()), "palette.log")
}

func runPalette(cmd *cobra.Command) error {
	if !isInteractive() {
		return ErrNotInteractive
	}

	store := openStore(cmd.ErrOrStderr())
	defer store.Close()

	logFile, err := os.OpenFile(paletteLogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err == nil {
		defer logFile.Close()
		setupLogging(logFile, cfg.LogLevel, jsonOutput)
	} else {
		setupLogging(io.Discard, cfg.LogLevel, false)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	styles := theme.DefaultStyles()
	model, err := app.New(ctx, app.Config{
		Store:        store,
		Threshold:    cfg.Palette.Threshold,
		RecentLimit:  cfg.Palette.RecentLimit,
		TailLimit:    cfg.Palette.TailLimit,
		CommandsFile: cfg.Palette.CommandsFile,
		Development:  cfg.Palette.Development,
		ContactEmail: cfg.Contact.Email,
		ContactPhone: cfg.Contact.Phone,
		Clipboard:    app.SystemClipboard{},
		Icons:        icons.Current(),
		Styles:       &styles,
		Logger:       slog.Default(),
	})
	if err != nil {
		return err
	}
	defer model.Close()

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("palette: %w", err)
	}
	return nil
}

// commandRegistry builds the non-interactive registry: built-in commands
// plus the configured commands file. Handlers are inert outside the shell.
func commandRegistry() (*palette.Registry, error) {
	opts := palette.Options{
		ContactEmail: cfg.Contact.Email,
		ContactPhone: cfg.Contact.Phone,
		Development:  cfg.Palette.Development,
		Icons:        icons.Current(),
		DesignTokens: theme.Current().Tokens(),
	}
	var extra []palette.Command
	if cfg.Palette.CommandsFile != "" {
		custom, err := palette.LoadCustomCommands(cfg.Palette.CommandsFile)
		switch {
		case err == nil:
			extra = palette.CustomCommands(custom, palette.Actions{}, opts.Icons.Link)
		case !errors.Is(err, os.ErrNotExist):
			slog.Warn("commands file unreadable", "path", cfg.Palette.CommandsFile, "error", err)
		}
	}
	return palette.DefaultRegistry(palette.Actions{}, opts, extra...)
}
