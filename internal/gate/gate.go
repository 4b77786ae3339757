// Package gate decides whether a request may reach a protected route and
// redirects unauthenticated callers to the login page.
package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/regtime/regtime/internal/identity"
)

// Policy selects how a found session token is checked.
type Policy string

const (
	// PolicyShallow trusts the presence of a session cookie.
	PolicyShallow Policy = "shallow"
	// PolicyVerified validates the token with the identity provider.
	PolicyVerified Policy = "verified"
)

// ParsePolicy accepts shallow or verified; empty means verified.
func ParsePolicy(raw string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return PolicyVerified, nil
	case PolicyShallow, PolicyVerified:
		return p, nil
	}
	return "", fmt.Errorf("invalid gate policy %q (valid: shallow, verified)", raw)
}

// Outcome is the decision for one request.
type Outcome int

const (
	Allow Outcome = iota
	Unauthenticated
	ConfigurationError
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Unauthenticated:
		return "unauthenticated"
	case ConfigurationError:
		return "config_error"
	default:
		return "unknown"
	}
}

// Reason explains a decision for logs.
type Reason string

const (
	ReasonUnprotected         Reason = "unprotected"
	ReasonNoToken             Reason = "no_token"
	ReasonTokenPresent        Reason = "token_present"
	ReasonVerified            Reason = "verified"
	ReasonInvalidToken        Reason = "invalid_token"
	ReasonProviderUnavailable Reason = "provider_unavailable"
	ReasonNotConfigured       Reason = "not_configured"
)

// ErrorCodeConfig is the error query value for configuration failures.
const ErrorCodeConfig = "config"

// Identity headers set on forwarded requests. Inbound copies are removed.
const (
	HeaderUserID   = "X-Regtime-User-Id"
	HeaderUserHint = "X-Regtime-User-Hint"
)

// Default settings.
const (
	DefaultProtectedPrefix = "/dashboard"
	DefaultLoginPath       = "/auth/login"
	DefaultProviderTimeout = 3 * time.Second
)

// DefaultCookieNames are checked in order; the first present one wins.
var DefaultCookieNames = []string{"sb-access-token", "supabase-auth-token"}

// Config configures a Gate.
type Config struct {
	Policy          Policy
	ProtectedPrefix string
	LoginPath       string
	CookieNames     []string
	ProviderTimeout time.Duration
	// Validator is required by the verified policy.
	Validator identity.Validator
	Logger    *slog.Logger
}

// Decision is the result of evaluating one request.
type Decision struct {
	Outcome  Outcome
	Reason   Reason
	Identity *identity.Identity
	// Hint is the unverified subject under the shallow policy.
	Hint string
	// Redirect is the login URL for a denied request.
	Redirect string
	Err      error
}

// Gate applies one policy uniformly to every protected request. It keeps no
// state between requests.
type Gate struct {
	policy    Policy
	prefix    string
	loginPath string
	cookies   []string
	timeout   time.Duration
	validator identity.Validator
	logger    *slog.Logger
}

func applyDefaults(cfg *Config) {
	if cfg.Policy == "" {
		cfg.Policy = PolicyVerified
	}
	if cfg.ProtectedPrefix == "" {
		cfg.ProtectedPrefix = DefaultProtectedPrefix
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = DefaultLoginPath
	}
	if len(cfg.CookieNames) == 0 {
		cfg.CookieNames = DefaultCookieNames
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = DefaultProviderTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
}

// New validates cfg and returns a Gate. A verified gate without a validator
// is allowed; every protected request then fails as a configuration error.
func New(cfg Config) (*Gate, error) {
	applyDefaults(&cfg)
	policy, err := ParsePolicy(string(cfg.Policy))
	if err != nil {
		return nil, err
	}
	prefix := "/" + strings.Trim(cfg.ProtectedPrefix, "/")
	if prefix == "/" {
		return nil, errors.New("protected prefix must not be the site root")
	}
	if !strings.HasPrefix(cfg.LoginPath, "/") {
		return nil, fmt.Errorf("login path %q must be absolute", cfg.LoginPath)
	}
	if isProtected(cfg.LoginPath, prefix) {
		return nil, fmt.Errorf("login path %q is inside protected prefix %q", cfg.LoginPath, prefix)
	}
	return &Gate{
		policy:    policy,
		prefix:    prefix,
		loginPath: cfg.LoginPath,
		cookies:   append([]string(nil), cfg.CookieNames...),
		timeout:   cfg.ProviderTimeout,
		validator: cfg.Validator,
		logger:    cfg.Logger,
	}, nil
}

// Policy returns the configured policy.
func (g *Gate) Policy() Policy { return g.policy }

// Prefix returns the protected prefix.
func (g *Gate) Prefix() string { return g.prefix }

// LoginPath returns the login page path.
func (g *Gate) LoginPath() string { return g.loginPath }

// CookieNames returns the session cookie names in lookup order.
func (g *Gate) CookieNames() []string { return append([]string(nil), g.cookies...) }

// Protects reports whether path is under the protected prefix, matched on
// whole path segments.
func (g *Gate) Protects(path string) bool { return isProtected(path, g.prefix) }

func isProtected(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// Token returns the session token from the first configured cookie that is
// present and non-empty.
func (g *Gate) Token(r *http.Request) (string, bool) {
	return TokenFromCookies(r, g.cookies)
}

// TokenFromCookies checks names in order and returns the first non-empty value.
func TokenFromCookies(r *http.Request, names []string) (string, bool) {
	for _, name := range names {
		c, err := r.Cookie(name)
		if err != nil {
			continue
		}
		if v := strings.TrimSpace(c.Value); v != "" {
			return v, true
		}
	}
	return "", false
}

// Decide evaluates r without writing anything.
func (g *Gate) Decide(r *http.Request) Decision {
	if !g.Protects(r.URL.Path) {
		return Decision{Outcome: Allow, Reason: ReasonUnprotected}
	}

	token, ok := g.Token(r)
	if !ok {
		return g.deny(r, Unauthenticated, ReasonNoToken, nil)
	}

	if g.policy == PolicyShallow {
		d := Decision{Outcome: Allow, Reason: ReasonTokenPresent}
		if sub, ok := identity.UnverifiedSubject(token); ok {
			d.Hint = sub
		}
		return d
	}

	if g.validator == nil {
		return g.deny(r, ConfigurationError, ReasonNotConfigured, identity.ErrNotConfigured)
	}

	ctx, cancel := context.WithTimeout(r.Context(), g.timeout)
	defer cancel()
	id, err := g.validator.Validate(ctx, token)
	switch {
	case err == nil && id != nil:
		return Decision{Outcome: Allow, Reason: ReasonVerified, Identity: id}
	case errors.Is(err, identity.ErrNotConfigured):
		return g.deny(r, ConfigurationError, ReasonNotConfigured, err)
	case errors.Is(err, identity.ErrInvalidToken):
		return g.deny(r, Unauthenticated, ReasonInvalidToken, err)
	case err == nil:
		return g.deny(r, Unauthenticated, ReasonInvalidToken, identity.ErrInvalidToken)
	default:
		// Unreachable providers and timeouts deny like a bad token.
		return g.deny(r, Unauthenticated, ReasonProviderUnavailable, err)
	}
}

func (g *Gate) deny(r *http.Request, o Outcome, reason Reason, err error) Decision {
	return Decision{
		Outcome:  o,
		Reason:   reason,
		Redirect: g.LoginURL(r.URL, o == ConfigurationError),
		Err:      err,
	}
}

// LoginURL builds the login redirect carrying the original path (and query)
// in redirectedFrom, plus error=config for configuration failures.
func (g *Gate) LoginURL(from *url.URL, configError bool) string {
	q := url.Values{}
	if from != nil {
		target := from.Path
		if from.RawQuery != "" {
			target += "?" + from.RawQuery
		}
		q.Set("redirectedFrom", target)
	}
	if configError {
		q.Set("error", ErrorCodeConfig)
	}
	u := url.URL{Path: g.loginPath, RawQuery: q.Encode()}
	return u.String()
}
