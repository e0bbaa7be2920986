package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/phrazzld/natours-api/internal/api/middleware"
	"github.com/phrazzld/natours-api/internal/api/shared"
	"github.com/phrazzld/natours-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceMiddleware(t *testing.T) {
	base, logBuf := logger.GetTestLogger(t)

	var traceID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
		logger.FromContext(r.Context()).Info("inside handler")
	})

	w := httptest.NewRecorder()
	middleware.TraceMiddleware(base)(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil))

	require.Len(t, traceID, shared.TraceIDLength)
	assert.Equal(t, traceID, w.Header().Get(middleware.TraceHeader))

	entries, err := logBuf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, traceID, entry["trace_id"])
	}
	assert.Equal(t, "request started", entries[0]["msg"])
	assert.Equal(t, "/api/v1/tours", entries[0]["path"])
}

func TestRequestTime(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	var got time.Time
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = shared.GetRequestTime(r.Context())
	})

	middleware.RequestTime(func() time.Time { return now })(next).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, now, got)
}
