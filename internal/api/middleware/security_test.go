package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/natours-api/internal/api/middleware"
	"github.com/stretchr/testify/assert"
)

func TestSecurityHeaders(t *testing.T) {
	tests := []struct {
		name     string
		hsts     bool
		wantHSTS bool
	}{
		{name: "development", hsts: false, wantHSTS: false},
		{name: "production", hsts: true, wantHSTS: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			middleware.SecurityHeaders(tc.hsts)(okHandler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
			assert.Equal(t, "SAMEORIGIN", w.Header().Get("X-Frame-Options"))
			assert.Contains(t, w.Header().Get("Content-Security-Policy"), "default-src 'self'")
			assert.Equal(t, tc.wantHSTS, w.Header().Get("Strict-Transport-Security") != "")
		})
	}
}
