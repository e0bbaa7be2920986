package domain

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role grants access to restricted routes.
type Role string

// User roles.
const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

// DefaultPhoto is assigned to users who have not uploaded a photo.
const DefaultPhoto = "default.jpg"

// ResetTokenTTL is how long a password reset token stays valid.
const ResetTokenTTL = 10 * time.Minute

// User is a registered account.
type User struct {
	ID                   primitive.ObjectID `json:"_id" bson:"_id"`
	Name                 string             `json:"name" bson:"name" validate:"required"`
	Email                string             `json:"email" bson:"email" validate:"required,email"`
	Photo                string             `json:"photo" bson:"photo"`
	Role                 Role               `json:"role" bson:"role" validate:"oneof=user guide lead-guide admin"`
	Password             string             `json:"-" bson:"password"` // bcrypt hash
	PasswordChangedAt    *time.Time         `json:"passwordChangedAt,omitempty" bson:"passwordChangedAt,omitempty"`
	PasswordResetToken   string             `json:"-" bson:"passwordResetToken,omitempty"`
	PasswordResetExpires *time.Time         `json:"-" bson:"passwordResetExpires,omitempty"`
	Active               *bool              `json:"active,omitempty" bson:"active,omitempty"`
	Version              int                `json:"__v" bson:"__v"`
}

// GetID returns the user's id.
func (u *User) GetID() primitive.ObjectID { return u.ID }

// SetID sets the user's id.
func (u *User) SetID(id primitive.ObjectID) { u.ID = id }

// BeforeSave normalizes the user before validation and writes.
func (u *User) BeforeSave(time.Time) {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Photo == "" {
		u.Photo = DefaultPhoto
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
}

// IsActive reports whether the account has not been deactivated.
func (u *User) IsActive() bool {
	return u.Active == nil || *u.Active
}

// Deactivate marks the account as deleted by its owner.
func (u *User) Deactivate() {
	inactive := false
	u.Active = &inactive
}

// HasRole reports whether the user holds one of roles.
func (u *User) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// SetPassword stores a new password hash. The change time is set one second
// in the past so that a token issued right after the change stays valid.
func (u *User) SetPassword(hash string, now time.Time) {
	u.Password = hash
	changed := now.Add(-time.Second).UTC().Truncate(time.Millisecond)
	u.PasswordChangedAt = &changed
	u.PasswordResetToken = ""
	u.PasswordResetExpires = nil
}

// ChangedPasswordAfter reports whether the password changed after a token
// issued at issuedAt. Comparison is at second precision, matching token
// timestamps.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Unix() > issuedAt.Unix()
}

// CreatePasswordResetToken generates a reset token, stores its hash on the
// user and returns the plain token to be sent to the user.
func (u *User) CreatePasswordResetToken(now time.Time) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	token := hex.EncodeToString(b)

	expires := now.Add(ResetTokenTTL).UTC().Truncate(time.Millisecond)
	u.PasswordResetToken = HashResetToken(token)
	u.PasswordResetExpires = &expires
	return token, nil
}

// ClearPasswordResetToken discards a pending reset token.
func (u *User) ClearPasswordResetToken() {
	u.PasswordResetToken = ""
	u.PasswordResetExpires = nil
}

// HashResetToken returns the stored form of a plain reset token.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// PasswordInput is a new password with its confirmation.
type PasswordInput struct {
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// Validate checks the password rules.
func (p PasswordInput) Validate() error {
	return Validate(p)
}
