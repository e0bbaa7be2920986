package shared

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/natours-api/internal/platform/logger"
	"github.com/phrazzld/natours-api/internal/redact"
)

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// Response is the envelope wrapping every successful response.
type Response struct {
	Status      string     `json:"status"`
	RequestedAt *time.Time `json:"requestedAt,omitempty"`
	Results     *int       `json:"results,omitempty"`
	Token       string     `json:"token,omitempty"`
	Message     string     `json:"message,omitempty"`
	Data        any        `json:"data,omitempty"`
}

// ErrorResponse defines the standard error response structure.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"` // redacted detail, development only
	Code    int    `json:"-"`               // Not serialized to JSON, used for logging
	TraceID string `json:"trace_id,omitempty"`
}

// ErrorResponder writes err to the client. Middleware takes one so it can
// report failures the same way handlers do.
type ErrorResponder func(w http.ResponseWriter, r *http.Request, err error)

// StatusFor returns the envelope status for an HTTP error status code.
func StatusFor(code int) string {
	if code >= http.StatusInternalServerError {
		return StatusError
	}
	return StatusFail
}

// ResponseOption defines a function to customize response behavior.
type ResponseOption func(*responseOptions)

// responseOptions holds configurable options for error responses.
type responseOptions struct {
	elevateLogLevel bool
	includeDetail   bool
}

// WithElevatedLogLevel returns a ResponseOption that raises 4xx errors to WARN level
// instead of the default DEBUG level. Use for important operational issues like
// repeated auth failures.
func WithElevatedLogLevel() ResponseOption {
	return func(opts *responseOptions) {
		opts.elevateLogLevel = true
	}
}

// WithErrorDetail returns a ResponseOption that adds the redacted error to
// the response body. Only used outside production.
func WithErrorDetail() ResponseOption {
	return func(opts *responseOptions) {
		opts.includeDetail = true
	}
}

// RespondWithJSON writes a JSON response with the given status code and data.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode JSON response", "error", err)
	}
}

// RespondWithData writes {status: "success", data: {data: doc}}.
func RespondWithData(w http.ResponseWriter, r *http.Request, status int, doc any) {
	RespondWithJSON(w, r, status, Response{
		Status: StatusSuccess,
		Data:   map[string]any{"data": doc},
	})
}

// RespondWithList writes {status: "success", results: n, data: {data: docs}}.
// requestedAt is added when the request was stamped with its arrival time.
func RespondWithList(w http.ResponseWriter, r *http.Request, docs any, n int) {
	resp := Response{
		Status:  StatusSuccess,
		Results: &n,
		Data:    map[string]any{"data": docs},
	}
	if at := GetRequestTime(r.Context()); !at.IsZero() {
		resp.RequestedAt = &at
	}
	RespondWithJSON(w, r, http.StatusOK, resp)
}

// RespondWithNoContent writes an empty 204 response.
func RespondWithNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// RespondWithError writes a JSON error response with the given status code and message.
// It also sets the TraceID from the request context if available.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	traceID := GetTraceID(r.Context())

	errorResponse := ErrorResponse{
		Status:  StatusFor(status),
		Message: message,
		Code:    status,
		TraceID: traceID,
	}

	logger.FromContext(r.Context()).Debug("sending error response",
		"status_code", status,
		"message", message,
		"trace_id", traceID,
		"path", r.URL.Path,
		"method", r.Method)

	RespondWithJSON(w, r, status, errorResponse)
}

// RespondWithErrorAndLog writes a JSON error response and also logs the detailed error.
// This is useful for handling errors where you want to log the full error but only
// expose a sanitized version to the client.
//
// Log level strategy:
// - 5xx errors: Always logged at ERROR level
// - 4xx errors: By default logged at DEBUG level
// - 429 Too Many Requests: Logged at WARN level (operational concern)
//
// For special cases where 4xx errors need higher visibility (e.g., repeated auth failures),
// use the WithElevatedLogLevel() option to elevate to WARN level.
func RespondWithErrorAndLog(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	userMessage string,
	err error,
	opts ...ResponseOption,
) {
	traceID := GetTraceID(r.Context())

	responseOpts := responseOptions{}
	for _, opt := range opts {
		opt(&responseOpts)
	}

	errorResponse := ErrorResponse{
		Status:  StatusFor(status),
		Message: userMessage,
		Code:    status,
		TraceID: traceID,
	}

	logAttrs := []slog.Attr{
		slog.String("trace_id", traceID),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.Int("status_code", status),
		slog.String("user_message", userMessage),
	}

	// Error details only ever leave the process redacted.
	if err != nil {
		redactedError := redact.Error(err)
		logAttrs = append(logAttrs,
			slog.String("error", redactedError),
			slog.String("error_type", fmt.Sprintf("%T", err)))
		if responseOpts.includeDetail {
			errorResponse.Error = redactedError
		}
	}

	logLevel := slog.LevelDebug
	switch {
	case status >= http.StatusInternalServerError:
		logLevel = slog.LevelError
	case status == http.StatusTooManyRequests:
		logLevel = slog.LevelWarn
	case responseOpts.elevateLogLevel && status >= http.StatusBadRequest:
		logLevel = slog.LevelWarn
	}

	logger.FromContext(r.Context()).LogAttrs(r.Context(), logLevel, "API error response", logAttrs...)

	RespondWithJSON(w, r, status, errorResponse)
}
