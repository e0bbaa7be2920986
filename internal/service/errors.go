package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// Their messages are safe to show to clients; the API layer maps each one to
// an HTTP status code.
var (
	// ErrMissingCredentials indicates a login without email or password (400).
	ErrMissingCredentials = errors.New("Please provide email and password!")

	// ErrIncorrectCredentials indicates an unknown email or a wrong password (401).
	ErrIncorrectCredentials = errors.New("Incorrect email or password")

	// ErrIncorrectCurrentPassword indicates a failed current password check (401).
	ErrIncorrectCurrentPassword = errors.New("Your current password is wrong.")

	// ErrNotLoggedIn indicates a protected route was called without a token (401).
	ErrNotLoggedIn = errors.New("You are not logged in! Please log in to get access.")

	// ErrUserGone indicates the token's user was deleted or deactivated (401).
	ErrUserGone = errors.New("The user belonging to this token does no longer exist.")

	// ErrPasswordChanged indicates the password changed after the token was issued (401).
	ErrPasswordChanged = errors.New("User recently changed password! Please log in again.")

	// ErrForbidden indicates the user's role may not perform the action (403).
	ErrForbidden = errors.New("You do not have permission to perform this action")

	// ErrNotOwned indicates a resource is owned by a different user than the one making the request (403).
	ErrNotOwned = errors.New("You can only change your own reviews")

	// ErrNoUserWithEmail indicates a password reset for an unknown email (404).
	ErrNoUserWithEmail = errors.New("There is no user with email address.")

	// ErrResetTokenInvalid indicates an unknown or expired reset token (400).
	ErrResetTokenInvalid = errors.New("Token is invalid or has expired")

	// ErrPasswordUpdateNotAllowed indicates password fields sent to updateMe (400).
	ErrPasswordUpdateNotAllowed = errors.New(
		"This route is not for password updates. Please use /updateMyPassword.",
	)

	// ErrEmailFailed indicates the reset email could not be sent (500).
	ErrEmailFailed = errors.New("There was an error sending the email. Try again later!")
)
