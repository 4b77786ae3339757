package gate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/regtime/regtime/internal/identity"
)

type fakeValidator struct {
	id     *identity.Identity
	err    error
	calls  int
	tokens []string
}

func (f *fakeValidator) Validate(_ context.Context, token string) (*identity.Identity, error) {
	f.calls++
	f.tokens = append(f.tokens, token)
	return f.id, f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGate(t *testing.T, cfg Config) *Gate {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = quietLogger()
	}
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

// echoHandler reports what the downstream handler saw.
func echoHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFromContext(r.Context())
		uid := ""
		if id != nil {
			uid = id.ID
		}
		w.Header().Set("X-Seen-User", r.Header.Get(HeaderUserID))
		w.Header().Set("X-Seen-Hint", r.Header.Get(HeaderUserHint))
		w.Header().Set("X-Seen-Ctx", uid)
		w.WriteHeader(http.StatusOK)
	})
}

func serve(g *Gate, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	g.Middleware(echoHandler()).ServeHTTP(rec, r)
	return rec
}

func withCookie(r *http.Request, name, value string) *http.Request {
	r.AddCookie(&http.Cookie{Name: name, Value: value})
	return r
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", PolicyVerified, false},
		{"verified", PolicyVerified, false},
		{" Shallow ", PolicyShallow, false},
		{"strict", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePolicy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewDefaults(t *testing.T) {
	g := newTestGate(t, Config{})
	if g.Policy() != PolicyVerified {
		t.Errorf("default policy = %q", g.Policy())
	}
	if g.Prefix() != "/dashboard" {
		t.Errorf("default prefix = %q", g.Prefix())
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cases := []Config{
		{Policy: "nope"},
		{ProtectedPrefix: "/"},
		{LoginPath: "auth/login"},
		{ProtectedPrefix: "/auth", LoginPath: "/auth/login"},
	}
	for i, cfg := range cases {
		cfg.Logger = quietLogger()
		if _, err := New(cfg); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestProtectsSegmentAware(t *testing.T) {
	g := newTestGate(t, Config{})
	tests := map[string]bool{
		"/dashboard":          true,
		"/dashboard/":         true,
		"/dashboard/projects": true,
		"/dashboards":         false,
		"/dashboard-old":      false,
		"/":                   false,
		"/auth/login":         false,
	}
	for path, want := range tests {
		if got := g.Protects(path); got != want {
			t.Errorf("Protects(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestUnprotectedPassThrough(t *testing.T) {
	v := &fakeValidator{}
	g := newTestGate(t, Config{Validator: v})

	rec := serve(g, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if v.calls != 0 {
		t.Errorf("validator called %d times for unprotected path", v.calls)
	}
}

func TestNoTokenRedirects(t *testing.T) {
	g := newTestGate(t, Config{Validator: &fakeValidator{}})

	rec := serve(g, httptest.NewRequest(http.MethodGet, "/dashboard/projects", nil))
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/auth/login?redirectedFrom=%2Fdashboard%2Fprojects" {
		t.Errorf("Location = %q", got)
	}
}

func TestRedirectKeepsQuery(t *testing.T) {
	g := newTestGate(t, Config{Validator: &fakeValidator{}})

	rec := serve(g, httptest.NewRequest(http.MethodGet, "/dashboard/reports?year=2024", nil))
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	if got := loc.Query().Get("redirectedFrom"); got != "/dashboard/reports?year=2024" {
		t.Errorf("redirectedFrom = %q", got)
	}
	if loc.Query().Has("error") {
		t.Error("unexpected error parameter")
	}
}

func TestVerifiedValidToken(t *testing.T) {
	v := &fakeValidator{id: &identity.Identity{ID: "user-1", Email: "a@example.com"}}
	g := newTestGate(t, Config{Validator: v})

	r := withCookie(httptest.NewRequest(http.MethodGet, "/dashboard", nil), "sb-access-token", "tok")
	rec := serve(g, r)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("X-Seen-User"); got != "user-1" {
		t.Errorf("forwarded user id = %q", got)
	}
	if got := rec.Header().Get("X-Seen-Ctx"); got != "user-1" {
		t.Errorf("context identity = %q", got)
	}
	if len(v.tokens) != 1 || v.tokens[0] != "tok" {
		t.Errorf("validator tokens = %v", v.tokens)
	}
}

func TestVerifiedInvalidToken(t *testing.T) {
	v := &fakeValidator{err: fmt.Errorf("%w: expired", identity.ErrInvalidToken)}
	g := newTestGate(t, Config{Validator: v})

	r := withCookie(httptest.NewRequest(http.MethodGet, "/dashboard", nil), "sb-access-token", "tok")
	d := g.Decide(r)
	if d.Outcome != Unauthenticated || d.Reason != ReasonInvalidToken {
		t.Fatalf("decision = %v/%s", d.Outcome, d.Reason)
	}
	if d.Redirect != "/auth/login?redirectedFrom=%2Fdashboard" {
		t.Errorf("redirect = %q", d.Redirect)
	}

	rec := serve(g, withCookie(httptest.NewRequest(http.MethodGet, "/dashboard", nil), "sb-access-token", "tok"))
	if rec.Code != http.StatusTemporaryRedirect {
		t.Errorf("status = %d, want 307", rec.Code)
	}
}

func TestVerifiedProviderUnavailable(t *testing.T) {
	v := &fakeValidator{err: fmt.Errorf("%w: %w", identity.ErrUnavailable, context.DeadlineExceeded)}
	g := newTestGate(t, Config{Validator: v})

	r := withCookie(httptest.NewRequest(http.MethodGet, "/dashboard", nil), "sb-access-token", "tok")
	d := g.Decide(r)
	if d.Outcome != Unauthenticated || d.Reason != ReasonProviderUnavailable {
		t.Fatalf("decision = %v/%s", d.Outcome, d.Reason)
	}
	if !errors.Is(d.Err, identity.ErrUnavailable) {
		t.Errorf("err = %v", d.Err)
	}
}

func TestNotConfigured(t *testing.T) {
	tests := []struct {
		name string
		v    identity.Validator
	}{
		{"nil validator", nil},
		{"unconfigured client", identity.NewClient("", "")},
		{"unconfigured jwt", identity.NewJWTVerifier("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGate(t, Config{Validator: tt.v})
			r := withCookie(httptest.NewRequest(http.MethodGet, "/dashboard/settings", nil), "sb-access-token", "tok")
			rec := serve(g, r)
			if rec.Code != http.StatusTemporaryRedirect {
				t.Fatalf("status = %d, want 307", rec.Code)
			}
			loc, _ := url.Parse(rec.Header().Get("Location"))
			if loc.Path != "/auth/login" {
				t.Errorf("path = %q", loc.Path)
			}
			if got := loc.Query().Get("error"); got != "config" {
				t.Errorf("error = %q, want config", got)
			}
			if got := loc.Query().Get("redirectedFrom"); got != "/dashboard/settings" {
				t.Errorf("redirectedFrom = %q", got)
			}
		})
	}
}

func TestNoTokenWithoutValidatorIsUnauthenticated(t *testing.T) {
	g := newTestGate(t, Config{})
	d := g.Decide(httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if d.Outcome != Unauthenticated {
		t.Errorf("outcome = %v, want unauthenticated", d.Outcome)
	}
}

func TestCookieOrder(t *testing.T) {
	v := &fakeValidator{id: &identity.Identity{ID: "u"}}
	g := newTestGate(t, Config{Validator: v})

	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	r = withCookie(r, "sb-access-token", "")
	r = withCookie(r, "supabase-auth-token", "second")
	if d := g.Decide(r); d.Outcome != Allow {
		t.Fatalf("outcome = %v", d.Outcome)
	}
	if v.tokens[0] != "second" {
		t.Errorf("token = %q, want fallback cookie", v.tokens[0])
	}

	r = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	r = withCookie(r, "supabase-auth-token", "second")
	r = withCookie(r, "sb-access-token", "first")
	g.Decide(r)
	if v.tokens[1] != "first" {
		t.Errorf("token = %q, want first cookie", v.tokens[1])
	}
}

func TestShallowPolicy(t *testing.T) {
	v := &fakeValidator{err: identity.ErrInvalidToken}
	g := newTestGate(t, Config{Policy: PolicyShallow, Validator: v})

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-9",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	signed, err := tok.SignedString([]byte("anything"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	rec := serve(g, withCookie(httptest.NewRequest(http.MethodGet, "/dashboard", nil), "sb-access-token", signed))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if v.calls != 0 {
		t.Errorf("shallow policy called validator")
	}
	if got := rec.Header().Get("X-Seen-Hint"); got != "user-9" {
		t.Errorf("hint = %q", got)
	}
	if got := rec.Header().Get("X-Seen-User"); got != "" {
		t.Errorf("shallow policy set verified user id %q", got)
	}

	rec = serve(g, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if rec.Code != http.StatusTemporaryRedirect {
		t.Errorf("no token status = %d, want 307", rec.Code)
	}
}

func TestInboundIdentityHeadersStripped(t *testing.T) {
	g := newTestGate(t, Config{Policy: PolicyShallow})

	r := withCookie(httptest.NewRequest(http.MethodGet, "/dashboard", nil), "sb-access-token", "opaque")
	r.Header.Set(HeaderUserID, "forged")
	r.Header.Set(HeaderUserHint, "forged")
	rec := serve(g, r)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("X-Seen-User"); got != "" {
		t.Errorf("forged user id forwarded: %q", got)
	}
	if got := rec.Header().Get("X-Seen-Hint"); got != "" {
		t.Errorf("forged hint forwarded: %q", got)
	}

	r = httptest.NewRequest(http.MethodGet, "/public", nil)
	r.Header.Set(HeaderUserID, "forged")
	rec = serve(g, r)
	if got := rec.Header().Get("X-Seen-User"); got != "" {
		t.Errorf("forged user id forwarded on public route: %q", got)
	}
}

func TestValidatorGetsDeadline(t *testing.T) {
	var deadline time.Time
	var ok bool
	v := validatorFunc(func(ctx context.Context, _ string) (*identity.Identity, error) {
		deadline, ok = ctx.Deadline()
		return &identity.Identity{ID: "u"}, nil
	})
	g := newTestGate(t, Config{Validator: v, ProviderTimeout: time.Second})

	start := time.Now()
	g.Decide(withCookie(httptest.NewRequest(http.MethodGet, "/dashboard", nil), "sb-access-token", "t"))
	if !ok {
		t.Fatal("validator context has no deadline")
	}
	if deadline.Sub(start) > 2*time.Second {
		t.Errorf("deadline too far: %v", deadline.Sub(start))
	}
}

type validatorFunc func(ctx context.Context, token string) (*identity.Identity, error)

func (f validatorFunc) Validate(ctx context.Context, token string) (*identity.Identity, error) {
	return f(ctx, token)
}

func TestOutcomeString(t *testing.T) {
	if Allow.String() != "allow" || Unauthenticated.String() != "unauthenticated" || ConfigurationError.String() != "config_error" {
		t.Error("unexpected outcome names")
	}
}
