package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/phrazzld/natours-api/internal/api/shared"
	"github.com/phrazzld/natours-api/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

// ErrRateLimited is reported when a client exceeds the request rate.
var ErrRateLimited = errors.New("Too many requests from this IP, please try again in an hour!")

// rateLimitPrefix namespaces the limiter's keys in a shared store.
const rateLimitPrefix = "natours:ratelimit"

// RateLimiter limits the requests per client IP over a window. Counters live
// in memory, or in redis when several instances share the limit.
type RateLimiter struct {
	middleware *stdlib.Middleware
	client     *redis.Client
}

// NewRateLimiter creates a RateLimiter from cfg. Failures are reported
// through respond: store errors as they are, an exceeded limit as
// ErrRateLimited.
func NewRateLimiter(cfg config.RateLimitConfig, respond shared.ErrorResponder) (*RateLimiter, error) {
	rl := &RateLimiter{}

	store := memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          rateLimitPrefix,
		CleanUpInterval: limiter.DefaultCleanUpInterval,
	})
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid rate limit redis url: %w", err)
		}
		rl.client = redis.NewClient(opts)
		store, err = redisstore.NewStoreWithOptions(rl.client, limiter.StoreOptions{Prefix: rateLimitPrefix})
		if err != nil {
			_ = rl.client.Close()
			return nil, fmt.Errorf("failed to create redis rate limit store: %w", err)
		}
	}

	rate := limiter.Rate{Period: cfg.Window, Limit: cfg.Requests}
	rl.middleware = stdlib.NewMiddleware(
		limiter.New(store, rate),
		stdlib.WithErrorHandler(stdlib.ErrorHandler(respond)),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			respond(w, r, ErrRateLimited)
		}),
	)
	return rl, nil
}

// Handler wraps next with the rate limit.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return rl.middleware.Handler(next)
}

// Close releases the redis connection, if any.
func (rl *RateLimiter) Close() error {
	if rl.client == nil {
		return nil
	}
	return rl.client.Close()
}
