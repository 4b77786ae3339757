// Package cli implements the regtime command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/regtime/regtime/internal/config"
	"github.com/regtime/regtime/internal/tui/theme"
)

var (
	cfgFile string
	cfg     *config.Config

	// Global JSON output flag, inherited by all subcommands.
	jsonOutput bool
	noColor    bool
	logLevel   string

	// Build information, set via ldflags.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCmd builds the command tree. Flags bound here reset the package
// level flag variables, so each call starts clean.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "regtime",
		Short: "Regtime console: command palette and session-gated web server",
		Long: `Regtime hosts the marketing site and the gated /dashboard, and ships
a keyboard-first command palette for the terminal.

Quick Start:
  regtime serve                    # Start the web server on 127.0.0.1:7337
  regtime palette                  # Open the command palette (TUI)
  regtime search motion            # Rank commands without the TUI
  regtime gate check /dashboard --cookie sb-access-token=$TOKEN`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			theme.ConfigureColor(noColor)

			loaded, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if logLevel != "" {
				loaded.LogLevel = logLevel
			}
			cfg = loaded
			setupLogging(cmd.ErrOrStderr(), cfg.LogLevel, jsonOutput)

			if skipsValidation(cmd) {
				return nil
			}
			if errs := config.Validate(cfg); len(errs) > 0 {
				return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $REGTIME_CONFIG or ~/.config/regtime/config.toml)")
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON (and JSON logs)")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newServeCmd(),
		newPaletteCmd(),
		newSearchCmd(),
		newRecentCmd(),
		newGateCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// config subcommands and version must work with a broken config file.
func skipsValidation(cmd *cobra.Command) bool {
	if cmd.Name() == "version" {
		return true
	}
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "config" {
			return true
		}
	}
	return false
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setupLogging(w io.Writer, level string, asJSON bool) {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var h slog.Handler = slog.NewTextHandler(w, opts)
	if asJSON {
		h = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
}
