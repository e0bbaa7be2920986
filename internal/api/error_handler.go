package api

import (
	"net/http"

	"github.com/phrazzld/natours-api/internal/api/shared"
)

// HandlerFunc is an HTTP handler that reports failure by returning an error
// instead of writing the error response itself.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// ErrorHandler turns errors returned by handlers into JSON error responses.
type ErrorHandler struct {
	production bool
}

// NewErrorHandler creates an ErrorHandler. In production, messages of
// non-operational errors are replaced by a generic one and no error detail
// is sent.
func NewErrorHandler(production bool) *ErrorHandler {
	return &ErrorHandler{production: production}
}

// Wrap adapts fn to an http.HandlerFunc, responding with the mapped error
// when fn fails.
func (h *ErrorHandler) Wrap(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			h.Respond(w, r, err)
		}
	}
}

// Respond writes the error response for err.
func (h *ErrorHandler) Respond(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)

	var opts []shared.ResponseOption
	switch {
	case !h.production:
		opts = append(opts, shared.WithErrorDetail())
	case !IsOperational(err):
		message = MsgInternal
	}
	if status == http.StatusUnauthorized {
		opts = append(opts, shared.WithElevatedLogLevel())
	}

	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}

// NotFound answers requests for routes that do not exist.
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.Respond(w, r, NewAppError(http.StatusNotFound, "Can't find "+r.URL.RequestURI()+" on this server!"))
}

// MethodNotAllowed answers requests using a method the route does not serve.
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.Respond(w, r, NewAppError(http.StatusMethodNotAllowed, "Method "+r.Method+" is not allowed on "+r.URL.Path))
}
