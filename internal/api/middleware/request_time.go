package middleware

import (
	"net/http"
	"time"

	"github.com/phrazzld/natours-api/internal/api/shared"
)

// RequestTime stamps each request's context with the time it arrived.
func RequestTime(now func() time.Time) func(http.Handler) http.Handler {
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.WithRequestTime(r.Context(), now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
