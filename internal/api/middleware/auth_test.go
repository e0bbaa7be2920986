package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/phrazzld/natours-api/internal/api"
	"github.com/phrazzld/natours-api/internal/api/middleware"
	"github.com/phrazzld/natours-api/internal/api/shared"
	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/mocks"
	"github.com/phrazzld/natours-api/internal/platform/logger"
	"github.com/phrazzld/natours-api/internal/service"
	"github.com/phrazzld/natours-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var issuedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newAuthMiddleware(t *testing.T) (*middleware.AuthMiddleware, *mocks.MockJWTService, *domain.User, *domain.User) {
	t.Helper()

	users := mocks.NewUserStore()
	alice := &domain.User{ID: primitive.NewObjectID(), Name: "Alice", Email: "alice@example.com", Role: domain.RoleUser}
	admin := &domain.User{ID: primitive.NewObjectID(), Name: "Root", Email: "root@example.com", Role: domain.RoleAdmin}
	alice.BeforeSave(issuedAt)
	admin.BeforeSave(issuedAt)
	require.NoError(t, users.Insert(alice, admin))

	jwt := mocks.NewMockJWTService(issuedAt)
	svc := service.NewAuthService(users, jwt, &mocks.MockPasswordHasher{}, &mocks.Mailer{}, logger.Discard())
	errs := api.NewErrorHandler(true)
	return middleware.NewAuthMiddleware(svc, errs.Respond), jwt, alice, admin
}

// echoUser answers 200 with the name of the authenticated user.
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.GetUser(r.Context())
	if !ok {
		http.Error(w, "no user", http.StatusTeapot)
		return
	}
	_, _ = w.Write([]byte(user.Name))
})

func errorMessage(t *testing.T, body []byte) string {
	t.Helper()
	var resp shared.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp.Message
}

func TestAuthMiddlewareProtect(t *testing.T) {
	m, jwt, alice, _ := newAuthMiddleware(t)
	aliceToken, err := jwt.GenerateToken(context.Background(), alice.ID)
	require.NoError(t, err)
	ghostToken, err := jwt.GenerateToken(context.Background(), primitive.NewObjectID())
	require.NoError(t, err)

	tests := []struct {
		name        string
		header      string
		cookie      string
		validateErr error
		wantStatus  int
		wantBody    string
		wantMessage string
	}{
		{
			name:       "bearer token",
			header:     "Bearer " + aliceToken,
			wantStatus: http.StatusOK,
			wantBody:   "Alice",
		},
		{
			name:       "cookie token",
			cookie:     aliceToken,
			wantStatus: http.StatusOK,
			wantBody:   "Alice",
		},
		{
			name:        "no token",
			wantStatus:  http.StatusUnauthorized,
			wantMessage: service.ErrNotLoggedIn.Error(),
		},
		{
			name:        "not a bearer header",
			header:      "Basic " + aliceToken,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: service.ErrNotLoggedIn.Error(),
		},
		{
			name:        "logged out cookie",
			cookie:      "loggedout",
			wantStatus:  http.StatusUnauthorized,
			wantMessage: api.MsgInvalidToken,
		},
		{
			name:        "expired token",
			header:      "Bearer " + aliceToken,
			validateErr: auth.ErrExpiredToken,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: api.MsgExpiredToken,
		},
		{
			name:        "deleted user",
			header:      "Bearer " + ghostToken,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: service.ErrUserGone.Error(),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.validateErr != nil {
				validate := jwt.ValidateTokenFn
				jwt.ValidateTokenFn = func(context.Context, string) (*auth.Claims, error) {
					return nil, tc.validateErr
				}
				t.Cleanup(func() { jwt.ValidateTokenFn = validate })
			}

			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: shared.TokenCookie, Value: tc.cookie})
			}
			w := httptest.NewRecorder()

			m.Protect(echoUser).ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantMessage != "" {
				assert.Equal(t, tc.wantMessage, errorMessage(t, w.Body.Bytes()))
				return
			}
			assert.Equal(t, tc.wantBody, w.Body.String())
		})
	}
}

func TestAuthMiddlewareRestrictTo(t *testing.T) {
	m, jwt, alice, admin := newAuthMiddleware(t)

	tests := []struct {
		name       string
		user       *domain.User
		wantStatus int
	}{
		{name: "admin allowed", user: admin, wantStatus: http.StatusOK},
		{name: "user forbidden", user: alice, wantStatus: http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			token, err := jwt.GenerateToken(context.Background(), tc.user.ID)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodDelete, "/api/v1/tours/1", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()

			h := m.Protect(m.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide)(echoUser))
			h.ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantStatus == http.StatusForbidden {
				assert.Equal(t, service.ErrForbidden.Error(), errorMessage(t, w.Body.Bytes()))
			}
		})
	}

	t.Run("without protect", func(t *testing.T) {
		w := httptest.NewRecorder()
		m.RestrictTo(domain.RoleAdmin)(echoUser).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{name: "nothing", want: ""},
		{name: "bearer", header: "Bearer abc", want: "abc"},
		{name: "bearer wins over cookie", header: "Bearer abc", cookie: "def", want: "abc"},
		{name: "cookie", cookie: "def", want: "def"},
		{name: "other scheme falls back to cookie", header: "Token abc", cookie: "def", want: "def"},
		{name: "bare bearer", header: "Bearer", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: shared.TokenCookie, Value: tc.cookie})
			}
			assert.Equal(t, tc.want, middleware.TokenFromRequest(req))
		})
	}
}
