package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/phrazzld/natours-api/internal/api/shared"
	"github.com/phrazzld/natours-api/internal/domain"
)

// Authenticator resolves login tokens to users and checks their roles.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	Authorize(user *domain.User, roles ...domain.Role) error
}

// AuthMiddleware provides JWT authentication for routes.
type AuthMiddleware struct {
	auth    Authenticator
	respond shared.ErrorResponder
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(auth Authenticator, respond shared.ErrorResponder) *AuthMiddleware {
	return &AuthMiddleware{
		auth:    auth,
		respond: respond,
	}
}

// Protect authenticates the token of the request and adds its user to the
// request context. Requests without a valid token are rejected.
func (m *AuthMiddleware) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.auth.Authenticate(r.Context(), TokenFromRequest(r))
		if err != nil {
			m.respond(w, r, err)
			return
		}

		ctx := shared.WithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RestrictTo only lets through users holding one of roles. It must run
// after Protect.
func (m *AuthMiddleware) RestrictTo(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, _ := shared.GetUser(r.Context())
			if err := m.auth.Authorize(user, roles...); err != nil {
				m.respond(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TokenFromRequest returns the bearer token of the Authorization header,
// falling back to the token cookie. It returns "" when there is neither.
func TokenFromRequest(r *http.Request) string {
	if scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " "); ok && scheme == "Bearer" {
		return strings.TrimSpace(token)
	}
	if cookie, err := r.Cookie(shared.TokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}
