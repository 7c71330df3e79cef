package auth

import (
	"context"
	"net/http"
	"strings"

	pkghttp "github.com/kritsw/telemed/pkg/http"
)

type contextKey string

const userContextKey contextKey = "user"

// Identity is the authenticated caller as seen by handlers.
type Identity struct {
	UserID string
	Role   string
}

// RequireAuth validates the Bearer token and injects the caller identity into
// the request context. When roles are given, the token's role must be one of
// them (403 on mismatch).
func RequireAuth(tm *TokenManager, roles ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				pkghttp.WriteUnauthorized(w, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				pkghttp.WriteUnauthorized(w, "invalid authorization header format")
				return
			}

			claims, err := tm.Validate(parts[1])
			if err != nil {
				pkghttp.WriteUnauthorized(w, "invalid or expired token")
				return
			}

			if len(roles) > 0 && !containsRole(roles, claims.Role) {
				pkghttp.WriteForbidden(w, "insufficient permissions")
				return
			}

			identity := &Identity{UserID: claims.Subject, Role: claims.Role}
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
		})
	}
}

// ContextWithIdentity injects the caller identity; RequireAuth uses it and
// tests can too.
func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, userContextKey, identity)
}

// IdentityFromContext returns the authenticated caller, or nil outside
// RequireAuth.
func IdentityFromContext(ctx context.Context) *Identity {
	identity, _ := ctx.Value(userContextKey).(*Identity)
	return identity
}

func containsRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
