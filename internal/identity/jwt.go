package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTVerifier validates HS256 access tokens with the project's JWT secret,
// without a network round trip.
type JWTVerifier struct {
	secret   []byte
	audience string
	now      func() time.Time
}

// JWTOption configures a JWTVerifier.
type JWTOption func(*JWTVerifier)

// WithAudience requires the aud claim to contain aud.
func WithAudience(aud string) JWTOption {
	return func(v *JWTVerifier) { v.audience = aud }
}

// WithClock overrides the time source used for exp/nbf checks.
func WithClock(now func() time.Time) JWTOption {
	return func(v *JWTVerifier) { v.now = now }
}

// NewJWTVerifier returns a verifier for secret. An empty secret yields
// ErrNotConfigured from every call.
func NewJWTVerifier(secret string, opts ...JWTOption) *JWTVerifier {
	v := &JWTVerifier{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type sessionClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (v *JWTVerifier) parse(token string) (*sessionClaims, error) {
	if len(v.secret) == 0 {
		return nil, ErrNotConfigured
	}
	if token == "" {
		return nil, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

// Validate checks signature, expiry and subject.
func (v *JWTVerifier) Validate(_ context.Context, token string) (*Identity, error) {
	claims, err := v.parse(token)
	if err != nil {
		return nil, err
	}
	id := &Identity{ID: claims.Subject, Email: claims.Email, Role: claims.Role}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

// CurrentUser returns a user record built from the verified claims.
func (v *JWTVerifier) CurrentUser(ctx context.Context, token string) (json.RawMessage, error) {
	id, err := v.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(id)
	if err != nil {
		return nil, fmt.Errorf("encode user: %w", err)
	}
	return raw, nil
}
