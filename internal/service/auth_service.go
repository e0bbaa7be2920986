package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/platform/logger"
	"github.com/phrazzld/natours-api/internal/platform/mailer"
	"github.com/phrazzld/natours-api/internal/service/auth"
	"github.com/phrazzld/natours-api/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SignupInput is the body of a signup request. The role is never taken from
// the request: new accounts are plain users.
type SignupInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	domain.PasswordInput
}

// LoginInput is the body of a login request.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdatePasswordInput is the body of an update password request.
type UpdatePasswordInput struct {
	PasswordCurrent string `json:"passwordCurrent"`
	domain.PasswordInput
}

// UpdateMeInput is the body of an updateMe request. Only name and email are
// applied; password fields are rejected.
type UpdateMeInput struct {
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	Password        *string `json:"password"`
	PasswordConfirm *string `json:"passwordConfirm"`
}

// AuthService implements authentication and account management.
type AuthService struct {
	users   store.UserStore
	tokens  auth.JWTService
	hasher  auth.PasswordHasher
	mailer  mailer.Mailer
	// welcome sends the signup email; it defaults to mailer.
	welcome mailer.Mailer
	logger  *slog.Logger
	now     func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	users store.UserStore,
	tokens auth.JWTService,
	hasher auth.PasswordHasher,
	mail mailer.Mailer,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:   users,
		tokens:  tokens,
		hasher:  hasher,
		mailer:  mail,
		welcome: mail,
		logger:  logger.With("component", "auth_service"),
		now:     time.Now,
	}
}

// WithWelcomeMailer returns a copy of the service sending welcome emails
// through m. Password reset emails keep the original mailer because their
// failure is reported to the client.
func (s *AuthService) WithWelcomeMailer(m mailer.Mailer) *AuthService {
	clone := *s
	clone.welcome = m
	return &clone
}

// WithClock returns a copy of the service reading the time from now.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	clone := *s
	clone.now = now
	return &clone
}

func (s *AuthService) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

// Signup creates a user account and returns it with a login token.
// welcomeURL is linked from the welcome email.
func (s *AuthService) Signup(ctx context.Context, in SignupInput, welcomeURL string) (*domain.User, string, error) {
	now := s.now()
	user := &domain.User{
		Name:  in.Name,
		Email: in.Email,
		Role:  domain.RoleUser,
	}
	user.BeforeSave(now)

	if err := validateAll(user, in.PasswordInput); err != nil {
		return nil, "", err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, "", err
	}
	user.Password = hash

	if err := s.users.Create(ctx, user); err != nil {
		if !errors.Is(err, store.ErrDuplicate) {
			s.log(ctx).Error("failed to create user", "error", err)
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.welcome.Send(ctx, mailer.Welcome(user.Email, user.Name, welcomeURL)); err != nil {
		s.log(ctx).Warn("failed to send welcome email", "error", err, "user_id", user.ID.Hex())
	}

	s.log(ctx).Info("user signed up", "user_id", user.ID.Hex())
	return s.withToken(ctx, user)
}

// Login checks the credentials and returns the user with a login token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*domain.User, string, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, "", ErrMissingCredentials
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, "", ErrIncorrectCredentials
		}
		return nil, "", fmt.Errorf("failed to load user: %w", err)
	}
	if err := s.hasher.Compare(user.Password, in.Password); err != nil {
		s.log(ctx).Debug("login with wrong password", "user_id", user.ID.Hex())
		return nil, "", ErrIncorrectCredentials
	}

	return s.withToken(ctx, user)
}

// Authenticate resolves a login token to its user. It fails when the token
// is missing or invalid, when the user no longer exists, and when the
// password changed after the token was issued.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrNotLoggedIn
	}

	claims, err := s.tokens.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrUserGone
		}
		return nil, fmt.Errorf("failed to load token user: %w", err)
	}
	if user.ChangedPasswordAfter(claims.IssuedAt) {
		return nil, ErrPasswordChanged
	}
	return user, nil
}

// Authorize fails with ErrForbidden unless user holds one of roles.
func (s *AuthService) Authorize(user *domain.User, roles ...domain.Role) error {
	if user == nil || !user.HasRole(roles...) {
		return ErrForbidden
	}
	return nil
}

// ForgotPassword emails a password reset link to the user. resetURL builds
// the link from the plain token.
func (s *AuthService) ForgotPassword(ctx context.Context, email string, resetURL func(token string) string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if store.IsNotFoundError(err) {
			return ErrNoUserWithEmail
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	token, err := user.CreatePasswordResetToken(s.now())
	if err != nil {
		return err
	}
	if err := s.users.Replace(ctx, user); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.mailer.Send(ctx, mailer.PasswordReset(user.Email, resetURL(token))); err != nil {
		s.log(ctx).Error("failed to send password reset email", "error", err, "user_id", user.ID.Hex())
		user.ClearPasswordResetToken()
		if err := s.users.Replace(ctx, user); err != nil {
			s.log(ctx).Error("failed to clear reset token", "error", err, "user_id", user.ID.Hex())
		}
		return ErrEmailFailed
	}

	s.log(ctx).Info("password reset token sent", "user_id", user.ID.Hex())
	return nil
}

// ResetPassword sets a new password for the holder of an unexpired reset
// token and logs the user in.
func (s *AuthService) ResetPassword(ctx context.Context, token string, in domain.PasswordInput) (*domain.User, string, error) {
	now := s.now()
	user, err := s.users.GetByResetToken(ctx, domain.HashResetToken(token), now)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, "", ErrResetTokenInvalid
		}
		return nil, "", fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.setPassword(ctx, user, in, now); err != nil {
		return nil, "", err
	}
	return s.withToken(ctx, user)
}

// UpdatePassword changes the password of a logged in user after checking the
// current one, and returns a fresh token.
func (s *AuthService) UpdatePassword(
	ctx context.Context,
	userID primitive.ObjectID,
	in UpdatePasswordInput,
) (*domain.User, string, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load user: %w", err)
	}
	if err := s.hasher.Compare(user.Password, in.PasswordCurrent); err != nil {
		return nil, "", ErrIncorrectCurrentPassword
	}

	if err := s.setPassword(ctx, user, in.PasswordInput, s.now()); err != nil {
		return nil, "", err
	}
	return s.withToken(ctx, user)
}

// UpdateMe changes the name and email of a logged in user.
func (s *AuthService) UpdateMe(ctx context.Context, userID primitive.ObjectID, in UpdateMeInput) (*domain.User, error) {
	if in.Password != nil || in.PasswordConfirm != nil {
		return nil, ErrPasswordUpdateNotAllowed
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
	user.BeforeSave(s.now())

	if err := domain.Validate(user); err != nil {
		return nil, err
	}
	if err := s.users.Replace(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// DeleteMe deactivates the account of a logged in user. Deactivated users
// are hidden from every read and can no longer log in.
func (s *AuthService) DeleteMe(ctx context.Context, userID primitive.ObjectID) error {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	user.Deactivate()
	if err := s.users.Replace(ctx, user); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	s.log(ctx).Info("user deactivated", "user_id", userID.Hex())
	return nil
}

func (s *AuthService) setPassword(ctx context.Context, user *domain.User, in domain.PasswordInput, now time.Time) error {
	if err := in.Validate(); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return err
	}
	user.SetPassword(hash, now)
	if err := s.users.Replace(ctx, user); err != nil {
		return fmt.Errorf("failed to store password: %w", err)
	}
	s.log(ctx).Info("password changed", "user_id", user.ID.Hex())
	return nil
}

func (s *AuthService) withToken(ctx context.Context, user *domain.User) (*domain.User, string, error) {
	token, err := s.tokens.GenerateToken(ctx, user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}
	return user, token, nil
}

// validateAll validates every value and merges their messages.
func validateAll(values ...any) error {
	var msgs domain.ValidationErrors
	for _, v := range values {
		err := domain.Validate(v)
		if err == nil {
			continue
		}
		var ve domain.ValidationErrors
		if !errors.As(err, &ve) {
			return err
		}
		msgs = append(msgs, ve...)
	}
	if len(msgs) > 0 {
		return msgs
	}
	return nil
}
