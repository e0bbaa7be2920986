package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// TokenCookie is the cookie carrying the login token.
const TokenCookie = "jwt"

// DefaultBodyLimit is the largest request body accepted when no limit is
// configured.
const DefaultBodyLimit int64 = 10 * 1024

var (
	// ErrInvalidBody indicates a request body that is not valid JSON.
	ErrInvalidBody = errors.New("invalid request body")

	// ErrBodyTooLarge indicates a request body over the configured limit.
	ErrBodyTooLarge = errors.New("request body too large")
)

// DecodeJSON decodes the request body into v. Bodies read through
// http.MaxBytesReader that exceed the limit yield ErrBodyTooLarge; any other
// decoding failure wraps ErrInvalidBody.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("%w: empty body", ErrInvalidBody)
	}

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, tooLarge.Limit)
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty body", ErrInvalidBody)
		default:
			return fmt.Errorf("%w: %v", ErrInvalidBody, err)
		}
	}
	return nil
}

// LimitBody caps the number of bytes read from the request body.
func LimitBody(w http.ResponseWriter, r *http.Request, limit int64) {
	if limit <= 0 {
		limit = DefaultBodyLimit
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
}
