package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/phrazzld/natours-api/internal/api/middleware"
	"github.com/phrazzld/natours-api/internal/api/shared"
	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/query"
	"github.com/phrazzld/natours-api/internal/service"
	"github.com/phrazzld/natours-api/internal/service/auth"
	"github.com/phrazzld/natours-api/internal/store"
)

// Client messages for errors whose text is not itself safe to show.
const (
	MsgNotFound       = "No document found with that ID"
	MsgInvalidToken   = "Invalid token. Please log in again!"
	MsgExpiredToken   = "Your token has expired! Please log in again."
	MsgInvalidBody    = "Invalid JSON in request body."
	MsgBodyTooLarge   = "Request body is too large."
	MsgNotImplemented = "This route is not yet implemented."
	MsgInternal       = "Something went very wrong!"
)

// AppError is an error raised deliberately by a handler, carrying the status
// and the message sent to the client.
type AppError struct {
	StatusCode int
	Message    string
}

// NewAppError creates an AppError.
func NewAppError(status int, message string) *AppError {
	return &AppError{StatusCode: status, Message: message}
}

func (e *AppError) Error() string {
	return e.Message
}

// clientErrors are sentinels whose own message is shown to the client.
var clientErrors = []struct {
	err    error
	status int
}{
	{service.ErrMissingCredentials, http.StatusBadRequest},
	{service.ErrIncorrectCredentials, http.StatusUnauthorized},
	{service.ErrIncorrectCurrentPassword, http.StatusUnauthorized},
	{service.ErrNotLoggedIn, http.StatusUnauthorized},
	{service.ErrUserGone, http.StatusUnauthorized},
	{service.ErrPasswordChanged, http.StatusUnauthorized},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrNotOwned, http.StatusForbidden},
	{service.ErrNoUserWithEmail, http.StatusNotFound},
	{service.ErrResetTokenInvalid, http.StatusBadRequest},
	{service.ErrPasswordUpdateNotAllowed, http.StatusBadRequest},
	{service.ErrEmailFailed, http.StatusInternalServerError},
	{domain.ErrInvalidCoordinates, http.StatusBadRequest},
	{domain.ErrInvalidUnit, http.StatusBadRequest},
	{domain.ErrInvalidYear, http.StatusBadRequest},
	{middleware.ErrRateLimited, http.StatusTooManyRequests},
}

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	for _, ce := range clientErrors {
		if errors.Is(err, ce.err) {
			return ce.status
		}
	}

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Bad request errors
	case errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrDuplicate),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, query.ErrInvalidQuery),
		errors.Is(err, shared.ErrInvalidBody):
		return http.StatusBadRequest

	case errors.Is(err, shared.ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge

	case errors.Is(err, store.ErrNotImplemented):
		return http.StatusNotImplemented

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return MsgInternal
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}

	for _, ce := range clientErrors {
		if errors.Is(err, ce.err) {
			return ce.err.Error()
		}
	}

	var (
		idErr    *domain.InvalidIDError
		valErrs  domain.ValidationErrors
		dupErr   *store.DuplicateError
		queryErr *query.Error
	)

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return MsgExpiredToken
	case errors.Is(err, auth.ErrInvalidToken):
		return MsgInvalidToken

	case errors.As(err, &idErr):
		return idErr.Error()
	case errors.As(err, &valErrs):
		return valErrs.Error()
	case errors.As(err, &dupErr):
		return fmt.Sprintf("Duplicate field value: %s. Please use another value!", dupErr.Value)
	case errors.Is(err, store.ErrDuplicate):
		return "Duplicate field value. Please use another value!"
	case errors.As(err, &queryErr):
		return queryErr.Error()

	case errors.Is(err, store.ErrNotFound):
		return MsgNotFound
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid input data."
	case errors.Is(err, shared.ErrInvalidBody):
		return MsgInvalidBody
	case errors.Is(err, shared.ErrBodyTooLarge):
		return MsgBodyTooLarge
	case errors.Is(err, store.ErrNotImplemented):
		return MsgNotImplemented

	default:
		return MsgInternal
	}
}

// IsOperational reports whether err is an expected failure whose message is
// meant for the client. Anything else is a programming or infrastructure
// error and is reported as MsgInternal in production.
func IsOperational(err error) bool {
	if err == nil {
		return false
	}
	return MapErrorToStatusCode(err) != http.StatusInternalServerError ||
		errors.Is(err, service.ErrEmailFailed) ||
		errors.As(err, new(*AppError))
}
