package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/phrazzld/natours-api/internal/api"
	"github.com/phrazzld/natours-api/internal/api/middleware"
	"github.com/phrazzld/natours-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimiter(t *testing.T) {
	rl, err := middleware.NewRateLimiter(
		config.RateLimitConfig{Requests: 3, Window: time.Hour},
		api.NewErrorHandler(true).Respond,
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rl.Close() })

	h := rl.Handler(okHandler)
	call := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil)
		req.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 3; i++ {
		w := call("10.0.0.1:1234")
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
	}

	w := call("10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, middleware.ErrRateLimited.Error(), errorMessage(t, w.Body.Bytes()))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, call("10.0.0.2:1234").Code, "limits are per client IP")
}

func TestRateLimiterInvalidRedisURL(t *testing.T) {
	_, err := middleware.NewRateLimiter(
		config.RateLimitConfig{Requests: 3, Window: time.Hour, RedisURL: "not-a-url://"},
		api.NewErrorHandler(true).Respond,
	)
	assert.ErrorContains(t, err, "invalid rate limit redis url")
}
