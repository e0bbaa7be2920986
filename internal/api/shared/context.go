package shared

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/natours-api/internal/domain"
)

// Key type for context values
type ContextKey string

// Context keys for various values
const (
	// UserContextKey is the context key for the authenticated user
	UserContextKey ContextKey = "user"

	// TraceIDKey is the key for the trace ID in the request context
	TraceIDKey ContextKey = "traceID"

	// RequestTimeKey is the key for the time the request was received
	RequestTimeKey ContextKey = "requestTime"

	// TraceIDLength is the number of hex characters of a trace ID
	TraceIDLength = 32
)

// SetTraceID adds a new trace ID to the context.
// This is useful for correlating logs and error responses.
func SetTraceID(ctx context.Context) context.Context {
	return WithTraceID(ctx, generateTraceID())
}

// WithTraceID adds the given trace ID to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// generateTraceID returns a random 32 character hex string.
func generateTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// WithUser adds the authenticated user to the context.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// GetUser returns the authenticated user, if any.
func GetUser(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*domain.User)
	return user, ok && user != nil
}

// WithRequestTime stamps the context with the time the request arrived.
func WithRequestTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, RequestTimeKey, t)
}

// GetRequestTime returns the time the request arrived, or the zero time.
func GetRequestTime(ctx context.Context) time.Time {
	t, _ := ctx.Value(RequestTimeKey).(time.Time)
	return t
}
