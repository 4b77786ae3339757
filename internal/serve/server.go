// Package serve runs the regtime HTTP server: site pages, the gated
// dashboard and the small JSON API.
package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/regtime/regtime/internal/gate"
	"github.com/regtime/regtime/internal/identity"
	"github.com/regtime/regtime/internal/palette"
)

const (
	defaultPort            = 7337
	defaultHost            = "127.0.0.1"
	defaultProviderTimeout = 3 * time.Second
	shutdownTimeout        = 5 * time.Second
)

const requestIDHeader = "X-Request-Id"

type ctxKey string

const requestIDKey ctxKey = "request_id"

// Config holds server configuration.
type Config struct {
	Host           string
	Port           int
	AllowedOrigins []string

	// Gate guards the dashboard. Nil builds a verified gate on Identity.
	Gate *gate.Gate
	// Identity validates API tokens. Nil answers API calls with a
	// configuration error.
	Identity        identity.Provider
	ProviderTimeout time.Duration

	// Registry backs /api/palette. Nil uses the built-in commands.
	Registry  *palette.Registry
	Matcher   *palette.Matcher
	TailLimit int

	Logger *slog.Logger
	Now    func() time.Time
}

// Server is the regtime HTTP server.
type Server struct {
	host               string
	port               int
	corsAllowedOrigins []string

	gate            *gate.Gate
	identity        identity.Provider
	providerTimeout time.Duration

	registry  *palette.Registry
	matcher   *palette.Matcher
	tailLimit int

	logger *slog.Logger
	now    func() time.Time

	router chi.Router
	server *http.Server
}

func defaultLocalOrigins() []string {
	return []string{
		"http://localhost",
		"http://127.0.0.1",
		"http://[::1]",
		"https://localhost",
		"https://127.0.0.1",
		"https://[::1]",
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Host == "" {
		cfg.Host = defaultHost
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = defaultLocalOrigins()
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = defaultProviderTimeout
	}
	if cfg.Matcher == nil {
		cfg.Matcher = palette.NewMatcher()
	}
	if cfg.TailLimit <= 0 {
		cfg.TailLimit = palette.DefaultTailLimit
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
}

// ValidateConfig checks server configuration for completeness.
func ValidateConfig(cfg Config) error {
	applyDefaults(&cfg)
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d", cfg.Port)
	}
	for _, origin := range cfg.AllowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "*" || !strings.Contains(origin, "://") {
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid allowed origin %q", origin)
		}
	}
	return nil
}

// New creates a new HTTP server.
func New(cfg Config) (*Server, error) {
	applyDefaults(&cfg)
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	g := cfg.Gate
	if g == nil {
		var v identity.Validator
		if cfg.Identity != nil {
			v = cfg.Identity
		}
		var err error
		g, err = gate.New(gate.Config{
			Validator:       v,
			ProviderTimeout: cfg.ProviderTimeout,
			Logger:          cfg.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("build session gate: %w", err)
		}
	}

	reg := cfg.Registry
	if reg == nil {
		var err error
		reg, err = palette.DefaultRegistry(palette.Actions{}, palette.Options{})
		if err != nil {
			return nil, fmt.Errorf("build command registry: %w", err)
		}
	}

	s := &Server{
		host:               cfg.Host,
		port:               cfg.Port,
		corsAllowedOrigins: cfg.AllowedOrigins,
		gate:               g,
		identity:           cfg.Identity,
		providerTimeout:    cfg.ProviderTimeout,
		registry:           reg,
		matcher:            cfg.Matcher,
		tailLimit:          cfg.TailLimit,
		logger:             cfg.Logger,
		now:                cfg.Now,
	}
	s.router = s.buildRouter()
	return s, nil
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(s.withRequestID)
	r.Use(s.withRecovery)
	r.Use(s.withAccessLog)
	r.Use(s.withCORS)
	// The gate passes unprotected paths through but always strips inbound
	// identity headers, so it wraps every route.
	r.Use(s.gate.Middleware)

	r.Get("/health", s.handleHealth)

	for _, p := range sitePages {
		r.Get(p.Path, s.handleSitePage(p))
	}
	r.Get(s.gate.LoginPath(), s.handleLogin)
	r.Post(s.gate.LoginPath(), s.handleLoginSubmit)
	r.Post("/auth/logout", s.handleLogout)

	prefix := s.gate.Prefix()
	r.Get(prefix, s.handleDashboard)
	r.Get(prefix+"/", s.handleDashboard)
	r.Get(prefix+"/{page}", s.handleDashboard)

	r.Route("/api", func(r chi.Router) {
		r.Get("/auth/user", s.handleAuthUser)
		r.Get("/dashboard/metrics", s.handleDashboardMetrics)
		r.Post("/properties/search-bbl", s.handleSearchBBL)
		r.Get("/palette", s.handlePaletteSearch)
	})

	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed", r.URL.Path)
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              net.JoinHostPort(s.host, fmt.Sprint(s.port)),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("starting regtime server",
		"addr", s.server.Addr,
		"policy", string(s.gate.Policy()),
		"protected_prefix", s.gate.Prefix(),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}

// Addr returns host:port.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.host, fmt.Sprint(s.port))
}
