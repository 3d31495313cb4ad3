package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/fernwebstudio/siteadmin/pkg/jwtx"
	"github.com/fernwebstudio/siteadmin/pkg/slogx"
)

// Identify verifies a bearer session token when one is present and injects
// the claims into the request context. It never rejects: the management
// endpoint serves both privileged actions (which require a session) and the
// public reset actions (where the emailed token is the credential), so the
// handler decides per action whether an identity is required.
func Identify(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := v.Verify(raw)
			if err != nil {
				// An invalid token is treated the same as no token;
				// the handler rejects privileged actions downstream.
				log.Warn("session verify failed", "err", err)
				next.ServeHTTP(w, r)
				return
			}

			if err := claims.ValidateExpiry(); err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx = contextWithSession(ctx, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func contextWithSession(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, c.Subject)
	ctx = context.WithValue(ctx, CtxKeyUsername, c.Username)
	ctx = context.WithValue(ctx, CtxKeyRole, c.Role)
	return ctx
}
