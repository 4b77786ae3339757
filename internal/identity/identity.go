// Package identity talks to the hosted identity provider that issues the
// session tokens carried in the site's auth cookies.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNotConfigured means the provider credentials are missing.
	ErrNotConfigured = errors.New("identity provider not configured")
	// ErrInvalidToken means the provider rejected the token.
	ErrInvalidToken = errors.New("invalid or expired session token")
	// ErrUnavailable means the provider could not be reached or failed.
	ErrUnavailable = errors.New("identity provider unavailable")
)

// Identity is the resolved user behind a session token.
type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// Validator resolves a token to an identity.
type Validator interface {
	Validate(ctx context.Context, token string) (*Identity, error)
}

// UserFetcher returns the provider's user record for a token, verbatim.
type UserFetcher interface {
	CurrentUser(ctx context.Context, token string) (json.RawMessage, error)
}

// Session is a freshly issued token pair.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// Authenticator exchanges credentials for a session.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
}

// ErrBadCredentials means the provider rejected the email or password.
var ErrBadCredentials = errors.New("invalid login credentials")

// Provider is the full identity provider surface.
type Provider interface {
	Validator
	UserFetcher
}

// Mode selects how tokens are validated.
type Mode string

const (
	// ModeRemote asks the hosted auth API for every token.
	ModeRemote Mode = "remote"
	// ModeJWT verifies the token signature locally with the project secret.
	ModeJWT Mode = "jwt"
)

// ParseMode accepts remote or jwt; empty means remote.
func ParseMode(raw string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(raw))); m {
	case "":
		return ModeRemote, nil
	case ModeRemote, ModeJWT:
		return m, nil
	}
	return "", fmt.Errorf("invalid identity mode %q (valid: remote, jwt)", raw)
}

// Settings carries the provider credentials. JWTAudience is the aud claim
// jwt mode requires; empty accepts any.
type Settings struct {
	Mode        Mode
	URL         string
	AnonKey     string
	JWTSecret   string
	JWTAudience string
	Timeout     time.Duration
}

// DefaultJWTAudience is the audience the provider stamps on user sessions.
const DefaultJWTAudience = "authenticated"

// New builds the provider for s.Mode. Missing credentials are not an error
// here; the provider reports ErrNotConfigured per call.
func New(s Settings) (Provider, error) {
	mode, err := ParseMode(string(s.Mode))
	if err != nil {
		return nil, err
	}
	var opts []ClientOption
	if s.Timeout > 0 {
		opts = append(opts, WithTimeout(s.Timeout))
	}
	client := NewClient(s.URL, s.AnonKey, opts...)
	if mode == ModeJWT {
		var jopts []JWTOption
		if s.JWTAudience != "" {
			jopts = append(jopts, WithAudience(s.JWTAudience))
		}
		return &LocalProvider{JWTVerifier: NewJWTVerifier(s.JWTSecret, jopts...), client: client}, nil
	}
	return client, nil
}

// LocalProvider validates tokens with the JWT secret and still talks to the
// hosted API for user records and sign-in.
type LocalProvider struct {
	*JWTVerifier
	client *Client
}

// CurrentUser verifies token locally, then returns the provider's user record
// verbatim. Without a URL and anon key it falls back to a record built from
// the verified claims.
func (p *LocalProvider) CurrentUser(ctx context.Context, token string) (json.RawMessage, error) {
	if !p.client.Configured() {
		return p.JWTVerifier.CurrentUser(ctx, token)
	}
	if _, err := p.Validate(ctx, token); err != nil {
		return nil, err
	}
	return p.client.CurrentUser(ctx, token)
}

// SignIn delegates to the hosted API.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	return p.client.SignIn(ctx, email, password)
}

// UnverifiedSubject reads the sub claim without checking the signature. It is
// only good for hints, never for access decisions.
func UnverifiedSubject(token string) (string, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", false
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", false
	}
	return sub, true
}
