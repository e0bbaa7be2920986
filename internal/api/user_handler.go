package api

import (
	"net/http"
	"time"

	"github.com/phrazzld/natours-api/internal/api/shared"
	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/service"
	"github.com/phrazzld/natours-api/internal/store"
)

// UserHandler serves the account routes of the logged in user and the
// admin user routes.
type UserHandler struct {
	Resource[domain.User, *domain.User]
	auth *service.AuthService
}

// NewUserHandler creates a UserHandler. Passwords are never changed through
// the generic update.
func NewUserHandler(repo store.UserStore, auth *service.AuthService, now func() time.Time) *UserHandler {
	return &UserHandler{
		Resource: Resource[domain.User, *domain.User]{
			Name:   "user",
			Repo:   repo,
			Schema: domain.UserSchema,
			Preserve: func(stored, updated *domain.User) {
				updated.Password = stored.Password
				updated.PasswordChangedAt = stored.PasswordChangedAt
				updated.PasswordResetToken = stored.PasswordResetToken
				updated.PasswordResetExpires = stored.PasswordResetExpires
				updated.Active = stored.Active
				updated.Version = stored.Version
			},
			Now: now,
		},
		auth: auth,
	}
}

// CreateUser answers POST /users, which is not a route: accounts are
// created by signing up.
func (h *UserHandler) CreateUser(http.ResponseWriter, *http.Request) error {
	return NewAppError(http.StatusInternalServerError, "This route is not defined! Please use /signup instead")
}

// GetMe returns the logged in user.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	me := h.Resource
	me.ID = func(*http.Request) string { return user.ID.Hex() }
	return me.GetOne()(w, r)
}

// UpdateMe changes the name and email of the logged in user.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) error {
	current, err := currentUser(r)
	if err != nil {
		return err
	}
	var in service.UpdateMeInput
	if err := shared.DecodeJSON(r, &in); err != nil {
		return err
	}

	user, err := h.auth.UpdateMe(r.Context(), current.ID, in)
	if err != nil {
		return err
	}
	shaped, err := shapeUser(user)
	if err != nil {
		return err
	}
	shared.RespondWithJSON(w, r, http.StatusOK, shared.Response{
		Status: shared.StatusSuccess,
		Data:   map[string]any{"user": shaped},
	})
	return nil
}

// DeleteMe deactivates the logged in user.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) error {
	current, err := currentUser(r)
	if err != nil {
		return err
	}
	if err := h.auth.DeleteMe(r.Context(), current.ID); err != nil {
		return err
	}
	shared.RespondWithNoContent(w)
	return nil
}
