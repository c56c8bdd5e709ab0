package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ayo6706/mobile-money-ledger/internal/api/problem"
	"github.com/ayo6706/mobile-money-ledger/internal/auth"
	"github.com/ayo6706/mobile-money-ledger/internal/domain"
	"go.uber.org/zap"
)

type contextKey string

const (
	identityContextKey contextKey = "identity"
	traceContextKey    contextKey = "trace_id"
)

// Authenticate validates the bearer token and injects the caller identity into the context.
func Authenticate(tokens *auth.Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				problem.Write(w, r, http.StatusUnauthorized, problem.Type("auth/authorization-header-required"), http.StatusText(http.StatusUnauthorized), "Authorization header required")
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				problem.Write(w, r, http.StatusUnauthorized, problem.Type("auth/invalid-token-format"), http.StatusText(http.StatusUnauthorized), "Invalid token format")
				return
			}

			identity, err := tokens.Authenticate(strings.TrimSpace(tokenString))
			if err != nil {
				if !errors.Is(err, domain.ErrUnauthorized) {
					zap.L().Error("token verification failed", zap.Error(err))
				}
				problem.Write(w, r, http.StatusUnauthorized, problem.Type("auth/invalid-token"), http.StatusText(http.StatusUnauthorized), "Invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
		})
	}
}

// RequireRole ensures the authenticated caller holds one of roles.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				problem.Write(w, r, http.StatusUnauthorized, problem.Type("auth/unauthorized"), http.StatusText(http.StatusUnauthorized), "authentication required")
				return
			}
			if err := auth.Authorize(identity.Role, roles...); err != nil {
				problem.Write(w, r, http.StatusForbidden, problem.Type("auth/insufficient-permissions"), http.StatusText(http.StatusForbidden), "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func ContextWithIdentity(ctx context.Context, identity auth.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext returns the authenticated caller.
func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	if ctx == nil {
		return auth.Identity{}, false
	}
	identity, ok := ctx.Value(identityContextKey).(auth.Identity)
	return identity, ok
}

// UserIDFromContext returns the authenticated account id, or "".
func UserIDFromContext(ctx context.Context) string {
	if identity, ok := IdentityFromContext(ctx); ok {
		return identity.AccountID.String()
	}
	return ""
}

// TraceIDFromContext returns the trace id for the request.
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(traceContextKey).(string); ok {
		return v
	}
	return ""
}
