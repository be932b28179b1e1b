package middleware

import (
	"context"
	"net"
	"net/http"

	"github.com/feldspar-io/authgate"
	"github.com/feldspar-io/authgate/transport"
)

type authResultContextKey struct{}

// AuthResultFromContext extracts the resolve result injected by a guard.
func AuthResultFromContext(ctx context.Context) (*authgate.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*authgate.AuthResult)
	return res, ok
}

// Resolve returns middleware that resolves the caller's session on every
// request and injects the result into the request context. It never
// rejects: downstream handlers inspect the result state themselves, so
// public and protected routes can share the chain.
func Resolve(engine *authgate.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, ctx, ok := resolve(engine, w, r)
			if !ok {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}

			ctx = context.WithValue(ctx, authResultContextKey{}, &res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth returns middleware that rejects any request without a fully
// authenticated session. Pending second-factor sessions are rejected too.
func RequireAuth(engine *authgate.Engine) func(http.Handler) http.Handler {
	return requireState(engine, func(res authgate.AuthResult) bool {
		return res.Authenticated()
	})
}

// RequireIdentity returns middleware that admits authenticated sessions
// and sessions awaiting their second factor. The second-factor challenge
// endpoint itself sits behind this guard.
func RequireIdentity(engine *authgate.Engine) func(http.Handler) http.Handler {
	return requireState(engine, func(res authgate.AuthResult) bool {
		return res.State != authgate.StateUnauthenticated
	})
}

func requireState(engine *authgate.Engine, admit func(authgate.AuthResult) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, ctx, ok := resolve(engine, w, r)
			if !ok {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}
			if !admit(res) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx = context.WithValue(ctx, authResultContextKey{}, &res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolve(engine *authgate.Engine, w http.ResponseWriter, r *http.Request) (authgate.AuthResult, context.Context, bool) {
	ctx := r.Context()
	if engine == nil {
		return authgate.AuthResult{}, ctx, false
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ctx = authgate.WithClientIP(ctx, host)
	}

	res, err := engine.ResolveSession(ctx, transport.NewHTTPCarrier(w, r))
	if err != nil {
		return authgate.AuthResult{}, ctx, false
	}

	return res, ctx, true
}
