// Package config loads the regtime configuration from TOML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/regtime/regtime/internal/util"
)

// Config is the full regtime configuration.
type Config struct {
	LogLevel string `toml:"log_level" env:"REGTIME_LOG_LEVEL"`

	Server   ServerConfig   `toml:"server"`
	Gate     GateConfig     `toml:"gate"`
	Identity IdentityConfig `toml:"identity"`
	Palette  PaletteConfig  `toml:"palette"`
	Store    StoreConfig    `toml:"store"`
	Contact  ContactConfig  `toml:"contact"`
}

// ServerConfig configures `regtime serve`.
type ServerConfig struct {
	Host           string   `toml:"host" env:"REGTIME_HOST"`
	Port           int      `toml:"port" env:"REGTIME_PORT"`
	AllowedOrigins []string `toml:"allowed_origins" env:"REGTIME_ALLOWED_ORIGINS"`
}

// GateConfig configures the session gate.
type GateConfig struct {
	Policy          string        `toml:"policy" env:"REGTIME_GATE_POLICY"`
	ProtectedPrefix string        `toml:"protected_prefix" env:"REGTIME_GATE_PREFIX"`
	LoginPath       string        `toml:"login_path" env:"REGTIME_GATE_LOGIN_PATH"`
	CookieNames     []string      `toml:"cookie_names" env:"REGTIME_GATE_COOKIES"`
	ProviderTimeout time.Duration `toml:"provider_timeout" env:"REGTIME_GATE_TIMEOUT"`
}

// IdentityConfig holds the hosted auth credentials.
type IdentityConfig struct {
	Mode        string `toml:"mode" env:"REGTIME_IDENTITY_MODE"`
	URL         string `toml:"url" env:"SUPABASE_URL"`
	AnonKey     string `toml:"anon_key" env:"SUPABASE_ANON_KEY"`
	JWTSecret   string `toml:"jwt_secret" env:"SUPABASE_JWT_SECRET"`
	JWTAudience string `toml:"jwt_audience" env:"REGTIME_IDENTITY_JWT_AUDIENCE"`
}

// Configured reports whether remote validation has what it needs.
func (c IdentityConfig) Configured() bool {
	if strings.EqualFold(c.Mode, "jwt") {
		return c.JWTSecret != ""
	}
	return c.URL != "" && c.AnonKey != ""
}

// PaletteConfig tunes the command palette.
type PaletteConfig struct {
	Threshold    float64 `toml:"threshold" env:"REGTIME_PALETTE_THRESHOLD"`
	RecentLimit  int     `toml:"recent_limit" env:"REGTIME_PALETTE_RECENT_LIMIT"`
	TailLimit    int     `toml:"tail_limit" env:"REGTIME_PALETTE_TAIL_LIMIT"`
	CommandsFile string  `toml:"commands_file" env:"REGTIME_PALETTE_COMMANDS"`
	Development  bool    `toml:"development" env:"REGTIME_DEV"`
}

// StoreConfig selects the local store backend.
type StoreConfig struct {
	Backend string `toml:"backend" env:"REGTIME_STORE_BACKEND"`
	Path    string `toml:"path" env:"REGTIME_STORE_PATH"`
}

// ContactConfig feeds the contact commands.
type ContactConfig struct {
	Email string `toml:"email" env:"REGTIME_CONTACT_EMAIL"`
	Phone string `toml:"phone" env:"REGTIME_CONTACT_PHONE"`
}

// Defaults.
const (
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 7337
	DefaultPolicy          = "verified"
	DefaultProtectedPrefix = "/dashboard"
	DefaultLoginPath       = "/auth/login"
	DefaultProviderTimeout = 3 * time.Second
	DefaultIdentityMode    = "remote"
	DefaultJWTAudience     = "authenticated"
	DefaultThreshold       = 0.3
	DefaultRecentLimit     = 7
	DefaultTailLimit       = 12
	DefaultStoreBackend    = "file"
	DefaultContactEmail    = "info@regtime.com"
	DefaultContactPhone    = "+1 (555) 123-4567"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Gate: GateConfig{
			Policy:          DefaultPolicy,
			ProtectedPrefix: DefaultProtectedPrefix,
			LoginPath:       DefaultLoginPath,
			CookieNames:     []string{"sb-access-token", "supabase-auth-token"},
			ProviderTimeout: DefaultProviderTimeout,
		},
		Identity: IdentityConfig{Mode: DefaultIdentityMode, JWTAudience: DefaultJWTAudience},
		Palette: PaletteConfig{
			Threshold:   DefaultThreshold,
			RecentLimit: DefaultRecentLimit,
			TailLimit:   DefaultTailLimit,
		},
		Store:   StoreConfig{Backend: DefaultStoreBackend},
		Contact: ContactConfig{Email: DefaultContactEmail, Phone: DefaultContactPhone},
	}
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	if p := os.Getenv("REGTIME_CONFIG"); p != "" {
		return ExpandHome(p)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "regtime", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = os.TempDir()
	}
	return filepath.Join(home, ".config", "regtime", "config.toml")
}

// Load reads path (DefaultPath when empty) over the defaults and then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.Palette.CommandsFile = ExpandHome(cfg.Palette.CommandsFile)
	cfg.Store.Path = ExpandHome(cfg.Store.Path)
	return cfg, nil
}

// ApplyEnv overlays environment variables on cfg. Unset variables leave the
// current values alone.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	// The web build exposes the public credentials under NEXT_PUBLIC_ names.
	if cfg.Identity.URL == "" {
		cfg.Identity.URL = os.Getenv("NEXT_PUBLIC_SUPABASE_URL")
	}
	if cfg.Identity.AnonKey == "" {
		cfg.Identity.AnonKey = os.Getenv("NEXT_PUBLIC_SUPABASE_ANON_KEY")
	}
	return nil
}

// Validate returns every problem found in cfg.
func Validate(cfg *Config) []error {
	var errs []error
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", cfg.Server.Port))
	}

	switch strings.ToLower(cfg.Gate.Policy) {
	case "", "shallow", "verified":
	default:
		errs = append(errs, fmt.Errorf("gate.policy %q must be shallow or verified", cfg.Gate.Policy))
	}
	prefix := strings.Trim(cfg.Gate.ProtectedPrefix, "/")
	if cfg.Gate.ProtectedPrefix != "" && prefix == "" {
		errs = append(errs, errors.New("gate.protected_prefix must not be the site root"))
	}
	if cfg.Gate.LoginPath != "" && !strings.HasPrefix(cfg.Gate.LoginPath, "/") {
		errs = append(errs, fmt.Errorf("gate.login_path %q must start with /", cfg.Gate.LoginPath))
	}
	if cfg.Gate.ProviderTimeout < 0 {
		errs = append(errs, errors.New("gate.provider_timeout must not be negative"))
	}

	switch strings.ToLower(cfg.Identity.Mode) {
	case "", "remote", "jwt":
	default:
		errs = append(errs, fmt.Errorf("identity.mode %q must be remote or jwt", cfg.Identity.Mode))
	}

	if cfg.Palette.Threshold <= 0 || cfg.Palette.Threshold > 1 {
		errs = append(errs, fmt.Errorf("palette.threshold %.2f must be in (0, 1]", cfg.Palette.Threshold))
	}
	if cfg.Palette.RecentLimit < 1 {
		errs = append(errs, fmt.Errorf("palette.recent_limit %d must be at least 1", cfg.Palette.RecentLimit))
	}
	if cfg.Palette.TailLimit < 0 {
		errs = append(errs, fmt.Errorf("palette.tail_limit %d must not be negative", cfg.Palette.TailLimit))
	}

	switch strings.ToLower(cfg.Store.Backend) {
	case "", "file", "sqlite", "memory":
	default:
		errs = append(errs, fmt.Errorf("store.backend %q must be file, sqlite or memory", cfg.Store.Backend))
	}
	return errs
}

// Print writes cfg in TOML form. Secrets are masked.
func Print(cfg *Config, w io.Writer) error {
	fmt.Fprintln(w, "# regtime configuration")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "log_level = %q\n", cfg.LogLevel)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[server]")
	fmt.Fprintf(w, "host = %q\n", cfg.Server.Host)
	fmt.Fprintf(w, "port = %d\n", cfg.Server.Port)
	if len(cfg.Server.AllowedOrigins) > 0 {
		fmt.Fprintf(w, "allowed_origins = %s\n", renderTOMLStringArray(cfg.Server.AllowedOrigins))
	} else {
		fmt.Fprintln(w, "# allowed_origins = [\"https://regtime.com\"]")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[gate]")
	fmt.Fprintln(w, "# shallow: a session cookie is enough; verified: ask the identity provider")
	fmt.Fprintf(w, "policy = %q\n", cfg.Gate.Policy)
	fmt.Fprintf(w, "protected_prefix = %q\n", cfg.Gate.ProtectedPrefix)
	fmt.Fprintf(w, "login_path = %q\n", cfg.Gate.LoginPath)
	fmt.Fprintf(w, "cookie_names = %s\n", renderTOMLStringArray(cfg.Gate.CookieNames))
	fmt.Fprintf(w, "provider_timeout = %q\n", cfg.Gate.ProviderTimeout.String())
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[identity]")
	fmt.Fprintln(w, "# remote: GET {url}/auth/v1/user; jwt: verify HS256 with jwt_secret")
	fmt.Fprintf(w, "mode = %q\n", cfg.Identity.Mode)
	printOptional(w, "url", cfg.Identity.URL, "https://project.supabase.co")
	printOptional(w, "anon_key", mask(cfg.Identity.AnonKey), "")
	printOptional(w, "jwt_secret", mask(cfg.Identity.JWTSecret), "")
	fmt.Fprintf(w, "jwt_audience = %q\n", cfg.Identity.JWTAudience)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[palette]")
	fmt.Fprintf(w, "threshold = %g\n", cfg.Palette.Threshold)
	fmt.Fprintf(w, "recent_limit = %d\n", cfg.Palette.RecentLimit)
	fmt.Fprintf(w, "tail_limit = %d\n", cfg.Palette.TailLimit)
	printOptional(w, "commands_file", cfg.Palette.CommandsFile, "~/.config/regtime/commands.yaml")
	fmt.Fprintf(w, "development = %t\n", cfg.Palette.Development)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[store]")
	fmt.Fprintln(w, "# file, sqlite or memory")
	fmt.Fprintf(w, "backend = %q\n", cfg.Store.Backend)
	printOptional(w, "path", cfg.Store.Path, "~/.local/state/regtime/store.json")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[contact]")
	fmt.Fprintf(w, "email = %q\n", cfg.Contact.Email)
	fmt.Fprintf(w, "phone = %q\n", cfg.Contact.Phone)
	return nil
}

func printOptional(w io.Writer, key, value, example string) {
	if value != "" {
		fmt.Fprintf(w, "%s = %q\n", key, value)
		return
	}
	fmt.Fprintf(w, "# %s = %q\n", key, example)
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "********"
	}
	return secret[:4] + "****" + secret[len(secret)-4:]
}

func renderTOMLStringArray(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%q", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// CreateDefault writes the default config to path (DefaultPath when empty)
// and returns where it went. An existing file is left untouched.
func CreateDefault(path string) (string, error) {
	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config file already exists: %s", path)
	}
	if err := util.EnsureParentDir(path); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	var buf strings.Builder
	if err := Print(Default(), &buf); err != nil {
		return "", err
	}
	if err := util.AtomicWriteFile(path, []byte(buf.String()), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// ExpandHome expands a leading ~ to the user's home directory.
func ExpandHome(path string) string {
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
