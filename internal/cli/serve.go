package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/regtime/regtime/internal/gate"
	"github.com/regtime/regtime/internal/identity"
	"github.com/regtime/regtime/internal/palette"
	"github.com/regtime/regtime/internal/serve"
)

type serveOptions struct {
	Host             string
	Port             int
	Policy           string
	IdentityMode     string
	CORSAllowOrigins []string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Regtime web server",
		Long: `Start the HTTP server for the public site, the gated dashboard and
the JSON API.

Routes:
  GET  /health                     Health check
  GET  /auth/login                 Login page (redirectedFrom, error=config)
  GET  /dashboard[/{page}]         Protected by the session gate
  GET  /api/auth/user              Identity provider user record
  GET  /api/dashboard/metrics      Dashboard metrics
  POST /api/properties/search-bbl  Property lookup by BBL
  GET  /api/palette?q=             Ranked palette commands

Examples:
  regtime serve                         # Start on 127.0.0.1:7337
  regtime serve --port 8080 --policy shallow
  regtime serve --host 0.0.0.0 --cors-allow-origin https://regtime.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Host, "host", "", "HTTP bind host (default from config)")
	cmd.Flags().IntVar(&opts.Port, "port", 0, "HTTP server port (default from config)")
	cmd.Flags().StringVar(&opts.Policy, "policy", "", "gate policy: shallow|verified")
	cmd.Flags().StringVar(&opts.IdentityMode, "identity-mode", "", "identity validation: remote|jwt")
	cmd.Flags().StringArrayVar(&opts.CORSAllowOrigins, "cors-allow-origin", nil, "allowed CORS origins (repeatable)")
	return cmd
}

func (o serveOptions) apply() {
	if o.Host != "" {
		cfg.Server.Host = o.Host
	}
	if o.Port != 0 {
		cfg.Server.Port = o.Port
	}
	if o.Policy != "" {
		cfg.Gate.Policy = o.Policy
	}
	if o.IdentityMode != "" {
		cfg.Identity.Mode = o.IdentityMode
	}
	if len(o.CORSAllowOrigins) > 0 {
		cfg.Server.AllowedOrigins = o.CORSAllowOrigins
	}
}

// buildGate wires the identity provider and session gate from cfg.
func buildGate() (identity.Provider, *gate.Gate, error) {
	mode, err := identity.ParseMode(cfg.Identity.Mode)
	if err != nil {
		return nil, nil, err
	}
	provider, err := identity.New(identity.Settings{
		Mode:        mode,
		URL:         cfg.Identity.URL,
		AnonKey:     cfg.Identity.AnonKey,
		JWTSecret:   cfg.Identity.JWTSecret,
		JWTAudience: cfg.Identity.JWTAudience,
		Timeout:     cfg.Gate.ProviderTimeout,
	})
	if err != nil {
		return nil, nil, err
	}
	policy, err := gate.ParsePolicy(cfg.Gate.Policy)
	if err != nil {
		return nil, nil, err
	}
	g, err := gate.New(gate.Config{
		Policy:          policy,
		ProtectedPrefix: cfg.Gate.ProtectedPrefix,
		LoginPath:       cfg.Gate.LoginPath,
		CookieNames:     cfg.Gate.CookieNames,
		ProviderTimeout: cfg.Gate.ProviderTimeout,
		Validator:       provider,
		Logger:          slog.Default(),
	})
	if err != nil {
		return nil, nil, err
	}
	return provider, g, nil
}

func runServe(cmd *cobra.Command, opts serveOptions) error {
	opts.apply()

	provider, g, err := buildGate()
	if err != nil {
		return err
	}
	reg, err := palette.DefaultRegistry(palette.Actions{}, palette.Options{
		ContactEmail: cfg.Contact.Email,
		ContactPhone: cfg.Contact.Phone,
	})
	if err != nil {
		return err
	}
	matcher := palette.NewMatcher()
	matcher.Threshold = cfg.Palette.Threshold

	srv, err := serve.New(serve.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		Gate:            g,
		Identity:        provider,
		ProviderTimeout: cfg.Gate.ProviderTimeout,
		Registry:        reg,
		Matcher:         matcher,
		TailLimit:       cfg.Palette.TailLimit,
		Logger:          slog.Default(),
	})
	if err != nil {
		return err
	}

	if !cfg.Identity.Configured() {
		slog.Warn("identity provider not configured; API calls will fail", "mode", cfg.Identity.Mode)
		if g.Policy() == gate.PolicyVerified {
			slog.Warn("verified gate has no provider; dashboard requests redirect with error=config")
		}
	}
	if g.Policy() == gate.PolicyShallow {
		slog.Warn("shallow gate policy: dashboard trusts any session cookie")
	}
	if !serve.IsLoopbackHost(cfg.Server.Host) {
		slog.Warn("listening on a non-loopback address", "host", cfg.Server.Host)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("server starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"policy", string(g.Policy()),
		"identity_mode", cfg.Identity.Mode,
		"allowed_origins", len(cfg.Server.AllowedOrigins),
	)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Starting Regtime server on http://%s\n", srv.Addr())
	fmt.Fprintln(out, "Press Ctrl+C to stop")
	return srv.Start(ctx)
}
