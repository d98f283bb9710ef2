package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/minecloud/backend/internal/roles"
)

type contextKey string

const ctxPrincipalKey contextKey = "principal"

// Principal is the authenticated caller: id plus the authority resolved
// from the backend columns at request time. The role is re-resolved on
// every request so a privilege change takes effect immediately.
type Principal struct {
	ID    uuid.UUID
	Email string
	Role  string
}

// TokenValidator checks a bearer token and returns the principal id.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (uuid.UUID, error)
}

// AuthorityStore returns the backend-controlled authority columns for a
// principal. The client-writable role label inside the account document is
// never consulted here.
type AuthorityStore interface {
	GetAuthority(ctx context.Context, id uuid.UUID) (email string, isAdmin bool, role string, err error)
}

// Auth authenticates requests by validating the Bearer JWT and resolving
// the caller's effective role from the store's authority columns. On
// success the principal is set into request context.
func Auth(tokens TokenValidator, authority AuthorityStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearer(r)
			if raw == "" {
				http.Error(w, `{"error":"missing or malformed Authorization header"}`, http.StatusUnauthorized)
				return
			}
			id, err := tokens.ValidateToken(r.Context(), raw)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}
			email, isAdmin, role, err := authority.GetAuthority(r.Context(), id)
			if err != nil {
				http.Error(w, `{"error":"unknown principal"}`, http.StatusUnauthorized)
				return
			}
			p := &Principal{ID: id, Email: email, Role: roles.Resolve(isAdmin, role)}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireAdmin rejects callers whose resolved role is not elevated, before
// any target record is touched.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := PrincipalFromCtx(r.Context())
		if p == nil || p.Role != roles.Admin {
			http.Error(w, `{"error":"admin privileges required"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PrincipalFromCtx returns the authenticated principal or nil.
func PrincipalFromCtx(ctx context.Context) *Principal {
	p, _ := ctx.Value(ctxPrincipalKey).(*Principal)
	return p
}

// WithPrincipal returns a context carrying the given principal.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxPrincipalKey, p)
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
