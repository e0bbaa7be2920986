package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/mocks"
	"github.com/phrazzld/natours-api/internal/platform/logger"
	"github.com/phrazzld/natours-api/internal/platform/mailer"
	"github.com/phrazzld/natours-api/internal/service"
	"github.com/phrazzld/natours-api/internal/service/auth"
	"github.com/phrazzld/natours-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type authFixture struct {
	svc    *service.AuthService
	users  *mocks.UserStore
	mailer *mocks.Mailer
	jwt    *mocks.MockJWTService
	alice  *domain.User
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	users := mocks.NewUserStore()
	alice := &domain.User{
		ID:       primitive.NewObjectID(),
		Name:     "Alice Liddell",
		Email:    "alice@example.com",
		Role:     domain.RoleUser,
		Password: mocks.HashPrefix + "pass1234",
	}
	alice.BeforeSave(fixedNow)
	require.NoError(t, users.Insert(alice))

	m := &mocks.Mailer{}
	jwt := mocks.NewMockJWTService(fixedNow)
	svc := service.NewAuthService(users, jwt, &mocks.MockPasswordHasher{}, m, logger.Discard()).
		WithClock(func() time.Time { return fixedNow })

	return &authFixture{svc: svc, users: users, mailer: m, jwt: jwt, alice: alice}
}

func password(pw string) domain.PasswordInput {
	return domain.PasswordInput{Password: pw, PasswordConfirm: pw}
}

func TestAuthServiceSignup(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a plain user", func(t *testing.T) {
		f := newAuthFixture(t)
		f.mailer.On("Send", mock.Anything, mock.MatchedBy(func(m mailer.Message) bool {
			return m.To == "bob@example.com"
		})).Return(nil).Once()

		user, token, err := f.svc.Signup(ctx, service.SignupInput{
			Name:          " Bob ",
			Email:         "Bob@Example.com",
			PasswordInput: password("pass1234"),
		}, "http://localhost/me")

		require.NoError(t, err)
		assert.Equal(t, "Bob", user.Name)
		assert.Equal(t, "bob@example.com", user.Email)
		assert.Equal(t, domain.RoleUser, user.Role)
		assert.Equal(t, domain.DefaultPhoto, user.Photo)
		assert.Equal(t, mocks.HashPrefix+"pass1234", user.Password)
		assert.Nil(t, user.PasswordChangedAt)
		assert.Equal(t, "token-"+user.ID.Hex(), token)
		f.mailer.AssertExpectations(t)

		stored, err := f.users.GetByEmail(ctx, "bob@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, stored.ID)
	})

	t.Run("welcome email failures do not fail signup", func(t *testing.T) {
		f := newAuthFixture(t)
		f.mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

		_, _, err := f.svc.Signup(ctx, service.SignupInput{
			Name: "Bob", Email: "bob@example.com", PasswordInput: password("pass1234"),
		}, "")
		assert.NoError(t, err)
	})

	t.Run("welcome mailer replaces the default for signup only", func(t *testing.T) {
		f := newAuthFixture(t)
		welcome := &mocks.Mailer{}
		welcome.On("Send", mock.Anything, mock.Anything).Return(nil).Once()

		_, _, err := f.svc.WithWelcomeMailer(welcome).Signup(ctx, service.SignupInput{
			Name: "Bob", Email: "bob@example.com", PasswordInput: password("pass1234"),
		}, "")

		require.NoError(t, err)
		welcome.AssertExpectations(t)
		f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("validation messages are merged", func(t *testing.T) {
		f := newAuthFixture(t)

		_, _, err := f.svc.Signup(ctx, service.SignupInput{
			Email:         "not-an-email",
			PasswordInput: domain.PasswordInput{Password: "short", PasswordConfirm: "other"},
		}, "")

		var ve domain.ValidationErrors
		require.ErrorAs(t, err, &ve)
		assert.ElementsMatch(t, domain.ValidationErrors{
			"Please tell us your name!",
			"Please provide a valid email",
			"A password must have at least 8 characters",
			"Passwords are not the same!",
		}, ve)
		f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newAuthFixture(t)

		_, _, err := f.svc.Signup(ctx, service.SignupInput{
			Name: "Alice", Email: "ALICE@example.com", PasswordInput: password("pass1234"),
		}, "")

		var dup *store.DuplicateError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "alice@example.com", dup.Value)
	})
}

func TestAuthServiceLogin(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	tests := []struct {
		name    string
		input   service.LoginInput
		wantErr error
	}{
		{"valid credentials", service.LoginInput{Email: "alice@example.com", Password: "pass1234"}, nil},
		{"email is case insensitive", service.LoginInput{Email: "Alice@Example.com", Password: "pass1234"}, nil},
		{"missing password", service.LoginInput{Email: "alice@example.com"}, service.ErrMissingCredentials},
		{"missing email", service.LoginInput{Password: "pass1234"}, service.ErrMissingCredentials},
		{"wrong password", service.LoginInput{Email: "alice@example.com", Password: "nope-nope"}, service.ErrIncorrectCredentials},
		{"unknown email", service.LoginInput{Email: "who@example.com", Password: "pass1234"}, service.ErrIncorrectCredentials},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			user, token, err := f.svc.Login(ctx, tc.input)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, user)
				assert.Empty(t, token)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, f.alice.ID, user.ID)
			assert.Equal(t, "token-"+f.alice.ID.Hex(), token)
		})
	}
}

func TestAuthServiceAuthenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid token", func(t *testing.T) {
		f := newAuthFixture(t)
		user, err := f.svc.Authenticate(ctx, "token-"+f.alice.ID.Hex())
		require.NoError(t, err)
		assert.Equal(t, f.alice.Email, user.Email)
	})

	t.Run("missing token", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := f.svc.Authenticate(ctx, "")
		assert.ErrorIs(t, err, service.ErrNotLoggedIn)
	})

	t.Run("token errors pass through", func(t *testing.T) {
		f := newAuthFixture(t)
		f.jwt.ValidateTokenFn = nil
		f.jwt.ValidateErr = auth.ErrExpiredToken

		_, err := f.svc.Authenticate(ctx, "anything")
		assert.ErrorIs(t, err, auth.ErrExpiredToken)
	})

	t.Run("deleted user", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := f.svc.Authenticate(ctx, "token-"+primitive.NewObjectID().Hex())
		assert.ErrorIs(t, err, service.ErrUserGone)
	})

	t.Run("deactivated user", func(t *testing.T) {
		f := newAuthFixture(t)
		require.NoError(t, f.svc.DeleteMe(ctx, f.alice.ID))

		_, err := f.svc.Authenticate(ctx, "token-"+f.alice.ID.Hex())
		assert.ErrorIs(t, err, service.ErrUserGone)
	})

	t.Run("password changed after the token was issued", func(t *testing.T) {
		f := newAuthFixture(t)
		changed := fixedNow.Add(time.Hour)
		f.alice.PasswordChangedAt = &changed
		require.NoError(t, f.users.Replace(ctx, f.alice))

		_, err := f.svc.Authenticate(ctx, "token-"+f.alice.ID.Hex())
		assert.ErrorIs(t, err, service.ErrPasswordChanged)
	})
}

func TestAuthServiceAuthorize(t *testing.T) {
	f := newAuthFixture(t)

	assert.NoError(t, f.svc.Authorize(&domain.User{Role: domain.RoleAdmin}, domain.RoleAdmin, domain.RoleLeadGuide))
	assert.ErrorIs(t, f.svc.Authorize(&domain.User{Role: domain.RoleGuide}, domain.RoleAdmin), service.ErrForbidden)
	assert.ErrorIs(t, f.svc.Authorize(nil, domain.RoleAdmin), service.ErrForbidden)
}

func TestAuthServicePasswordReset(t *testing.T) {
	ctx := context.Background()

	requestReset := func(t *testing.T, f *authFixture) string {
		t.Helper()
		var link string
		f.mailer.On("Send", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
			link = args.Get(1).(mailer.Message).Text
		}).Once()

		var token string
		err := f.svc.ForgotPassword(ctx, "alice@example.com", func(tok string) string {
			token = tok
			return "http://localhost/resetPassword/" + tok
		})
		require.NoError(t, err)
		assert.Contains(t, link, "/resetPassword/"+token)
		return token
	}

	t.Run("reset with a valid token", func(t *testing.T) {
		f := newAuthFixture(t)
		token := requestReset(t, f)

		stored, err := f.users.Get(ctx, f.alice.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.HashResetToken(token), stored.PasswordResetToken, "only the hash is stored")

		user, jwt, err := f.svc.ResetPassword(ctx, token, password("newpass123"))
		require.NoError(t, err)
		assert.Equal(t, "token-"+f.alice.ID.Hex(), jwt)
		assert.Equal(t, mocks.HashPrefix+"newpass123", user.Password)
		assert.Empty(t, user.PasswordResetToken)
		require.NotNil(t, user.PasswordChangedAt)
		assert.True(t, user.PasswordChangedAt.Before(fixedNow))

		_, _, err = f.svc.ResetPassword(ctx, token, password("again1234"))
		assert.ErrorIs(t, err, service.ErrResetTokenInvalid, "tokens are single use")
	})

	t.Run("expired token", func(t *testing.T) {
		f := newAuthFixture(t)
		token := requestReset(t, f)

		later := f.svc.WithClock(func() time.Time { return fixedNow.Add(domain.ResetTokenTTL + time.Second) })
		_, _, err := later.ResetPassword(ctx, token, password("newpass123"))
		assert.ErrorIs(t, err, service.ErrResetTokenInvalid)
	})

	t.Run("invalid new password", func(t *testing.T) {
		f := newAuthFixture(t)
		token := requestReset(t, f)

		_, _, err := f.svc.ResetPassword(ctx, token, domain.PasswordInput{Password: "newpass123", PasswordConfirm: "x"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("unknown email", func(t *testing.T) {
		f := newAuthFixture(t)
		err := f.svc.ForgotPassword(ctx, "who@example.com", func(string) string { return "" })
		assert.ErrorIs(t, err, service.ErrNoUserWithEmail)
	})

	t.Run("email failure clears the token", func(t *testing.T) {
		f := newAuthFixture(t)
		f.mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

		err := f.svc.ForgotPassword(ctx, "alice@example.com", func(tok string) string { return tok })
		assert.ErrorIs(t, err, service.ErrEmailFailed)

		stored, err := f.users.Get(ctx, f.alice.ID)
		require.NoError(t, err)
		assert.Empty(t, stored.PasswordResetToken)
		assert.Nil(t, stored.PasswordResetExpires)
	})
}

func TestAuthServiceUpdatePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong current password", func(t *testing.T) {
		f := newAuthFixture(t)
		_, _, err := f.svc.UpdatePassword(ctx, f.alice.ID, service.UpdatePasswordInput{
			PasswordCurrent: "wrong", PasswordInput: password("newpass123"),
		})
		assert.ErrorIs(t, err, service.ErrIncorrectCurrentPassword)
	})

	t.Run("changes the password", func(t *testing.T) {
		f := newAuthFixture(t)
		_, token, err := f.svc.UpdatePassword(ctx, f.alice.ID, service.UpdatePasswordInput{
			PasswordCurrent: "pass1234", PasswordInput: password("newpass123"),
		})
		require.NoError(t, err)
		assert.NotEmpty(t, token)

		_, _, err = f.svc.Login(ctx, service.LoginInput{Email: "alice@example.com", Password: "newpass123"})
		assert.NoError(t, err)
		_, _, err = f.svc.Login(ctx, service.LoginInput{Email: "alice@example.com", Password: "pass1234"})
		assert.ErrorIs(t, err, service.ErrIncorrectCredentials)
	})
}

func TestAuthServiceUpdateMe(t *testing.T) {
	ctx := context.Background()
	str := func(s string) *string { return &s }

	tests := []struct {
		name      string
		input     service.UpdateMeInput
		wantErr   error
		wantName  string
		wantEmail string
	}{
		{
			name:      "name and email",
			input:     service.UpdateMeInput{Name: str("Alice L."), Email: str("ALICE.L@example.com")},
			wantName:  "Alice L.",
			wantEmail: "alice.l@example.com",
		},
		{
			name:      "name only",
			input:     service.UpdateMeInput{Name: str("Alice L.")},
			wantName:  "Alice L.",
			wantEmail: "alice@example.com",
		},
		{
			name:    "password fields are rejected",
			input:   service.UpdateMeInput{Name: str("x"), Password: str("newpass123")},
			wantErr: service.ErrPasswordUpdateNotAllowed,
		},
		{
			name:    "invalid email",
			input:   service.UpdateMeInput{Email: str("nope")},
			wantErr: domain.ErrValidation,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newAuthFixture(t)
			user, err := f.svc.UpdateMe(ctx, f.alice.ID, tc.input)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantName, user.Name)
			assert.Equal(t, tc.wantEmail, user.Email)
			assert.Equal(t, f.alice.Password, user.Password, "password is untouched")
			assert.Equal(t, domain.RoleUser, user.Role)
		})
	}
}

func TestAuthServiceDeleteMe(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	require.NoError(t, f.svc.DeleteMe(ctx, f.alice.ID))

	_, _, err := f.svc.Login(ctx, service.LoginInput{Email: "alice@example.com", Password: "pass1234"})
	assert.ErrorIs(t, err, service.ErrIncorrectCredentials, "deactivated users cannot log in")
	assert.Equal(t, 1, f.users.Len(), "the document is kept")

	err = f.svc.DeleteMe(ctx, f.alice.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
