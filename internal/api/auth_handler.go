package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/natours-api/internal/api/shared"
	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/query"
	"github.com/phrazzld/natours-api/internal/service"
)

// loggedOutLifetime is how long the placeholder cookie set by logout lives.
const loggedOutLifetime = 10 * time.Second

// CookieConfig controls the token cookie set on login.
type CookieConfig struct {
	Lifetime time.Duration
	Secure   bool
}

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	auth    *service.AuthService
	cookie  CookieConfig
	baseURL string
	now     func() time.Time
}

// NewAuthHandler creates a new AuthHandler. baseURL prefixes the links sent
// by email.
func NewAuthHandler(auth *service.AuthService, cookie CookieConfig, baseURL string, now func() time.Time) *AuthHandler {
	if now == nil {
		now = time.Now
	}
	return &AuthHandler{
		auth:    auth,
		cookie:  cookie,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     now,
	}
}

// Signup handles POST /users/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) error {
	var in service.SignupInput
	if err := shared.DecodeJSON(r, &in); err != nil {
		return err
	}

	user, token, err := h.auth.Signup(r.Context(), in, h.baseURL+"/me")
	if err != nil {
		return err
	}
	return h.sendToken(w, r, http.StatusCreated, user, token)
}

// Login handles POST /users/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) error {
	var in service.LoginInput
	if err := shared.DecodeJSON(r, &in); err != nil {
		return err
	}

	user, token, err := h.auth.Login(r.Context(), in)
	if err != nil {
		return err
	}
	return h.sendToken(w, r, http.StatusOK, user, token)
}

// Logout handles GET /users/logout by overwriting the token cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, &http.Cookie{
		Name:     shared.TokenCookie,
		Value:    "loggedout",
		Path:     "/",
		Expires:  h.now().Add(loggedOutLifetime),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	shared.RespondWithJSON(w, r, http.StatusOK, shared.Response{Status: shared.StatusSuccess})
	return nil
}

// ForgotPassword handles POST /users/forgotPassword.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) error {
	var in struct {
		Email string `json:"email"`
	}
	if err := shared.DecodeJSON(r, &in); err != nil {
		return err
	}

	resetURL := func(token string) string {
		return h.baseURL + "/api/v1/users/resetPassword/" + token
	}
	if err := h.auth.ForgotPassword(r.Context(), in.Email, resetURL); err != nil {
		return err
	}
	shared.RespondWithJSON(w, r, http.StatusOK, shared.Response{
		Status:  shared.StatusSuccess,
		Message: "Token sent to email!",
	})
	return nil
}

// ResetPassword handles PATCH /users/resetPassword/{token}.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) error {
	var in domain.PasswordInput
	if err := shared.DecodeJSON(r, &in); err != nil {
		return err
	}

	user, token, err := h.auth.ResetPassword(r.Context(), chi.URLParam(r, "token"), in)
	if err != nil {
		return err
	}
	return h.sendToken(w, r, http.StatusOK, user, token)
}

// UpdatePassword handles PATCH /users/updateMyPassword.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) error {
	current, err := currentUser(r)
	if err != nil {
		return err
	}
	var in service.UpdatePasswordInput
	if err := shared.DecodeJSON(r, &in); err != nil {
		return err
	}

	user, token, err := h.auth.UpdatePassword(r.Context(), current.ID, in)
	if err != nil {
		return err
	}
	return h.sendToken(w, r, http.StatusOK, user, token)
}

// sendToken sets the token cookie and answers with the token and the user.
func (h *AuthHandler) sendToken(w http.ResponseWriter, r *http.Request, status int, user *domain.User, token string) error {
	http.SetCookie(w, &http.Cookie{
		Name:     shared.TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  h.now().Add(h.cookie.Lifetime),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	shaped, err := shapeUser(user)
	if err != nil {
		return err
	}
	shared.RespondWithJSON(w, r, status, shared.Response{
		Status: shared.StatusSuccess,
		Token:  token,
		Data:   map[string]any{"user": shaped},
	})
	return nil
}

// currentUser returns the user authenticated by the protect middleware.
func currentUser(r *http.Request) (*domain.User, error) {
	user, ok := shared.GetUser(r.Context())
	if !ok {
		return nil, service.ErrNotLoggedIn
	}
	return user, nil
}

func shapeUser(user *domain.User) (map[string]any, error) {
	return query.Shape(user, query.New(domain.UserSchema))
}
