package gate

import (
	"context"
	"net/http"

	"github.com/regtime/regtime/internal/identity"
)

type ctxKey string

const identityKey ctxKey = "identity"

// IdentityFromContext returns the identity attached by the verified policy.
func IdentityFromContext(ctx context.Context) (*identity.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*identity.Identity)
	return id, ok && id != nil
}

// ContextWithIdentity attaches id to ctx.
func ContextWithIdentity(ctx context.Context, id *identity.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// Middleware enforces the gate. Denied requests get a 307 to the login page;
// allowed ones are forwarded with identity headers set by the gate alone.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Header.Del(HeaderUserID)
		r.Header.Del(HeaderUserHint)

		d := g.Decide(r)
		if d.Reason == ReasonUnprotected {
			next.ServeHTTP(w, r)
			return
		}

		g.log(r, d)
		if d.Outcome != Allow {
			w.Header().Set("Cache-Control", "no-store")
			http.Redirect(w, r, d.Redirect, http.StatusTemporaryRedirect)
			return
		}

		if d.Identity != nil {
			r.Header.Set(HeaderUserID, d.Identity.ID)
			r = r.WithContext(ContextWithIdentity(r.Context(), d.Identity))
		}
		if d.Hint != "" {
			r.Header.Set(HeaderUserHint, d.Hint)
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Gate) log(r *http.Request, d Decision) {
	attrs := []any{
		"outcome", d.Outcome.String(),
		"reason", string(d.Reason),
		"policy", string(g.policy),
		"path", r.URL.Path,
	}
	if d.Err != nil {
		attrs = append(attrs, "error", d.Err)
	}
	if d.Identity != nil {
		attrs = append(attrs, "user_id", d.Identity.ID)
	}

	switch d.Reason {
	case ReasonNotConfigured:
		g.logger.Error("session gate misconfigured", attrs...)
	case ReasonProviderUnavailable:
		attrs = append(attrs, "timeout", identity.IsTimeout(d.Err))
		g.logger.Warn("identity provider unavailable", attrs...)
	case ReasonVerified, ReasonTokenPresent:
		g.logger.Debug("session gate allow", attrs...)
	default:
		g.logger.Info("session gate deny", attrs...)
	}
}
