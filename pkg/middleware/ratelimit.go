package middleware

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/hopeworks/smile/pkg/httputil"
	"github.com/hopeworks/smile/pkg/observability"
)

// LoginRateLimiter throttles login attempts per client IP using a
// Redis fixed window, so the limit holds across instances. Without a
// Redis client it is a no-op, and on Redis errors it fails open: a
// broken limiter must not lock everyone out.
type LoginRateLimiter struct {
	redis  *redis.Client
	logger *observability.Logger
	limit  int
	window time.Duration
}

// NewLoginRateLimiter creates a login rate limiter. redisClient may be
// nil to disable limiting.
func NewLoginRateLimiter(redisClient *redis.Client, logger *observability.Logger, limit int, window time.Duration) *LoginRateLimiter {
	return &LoginRateLimiter{
		redis:  redisClient,
		logger: logger,
		limit:  limit,
		window: window,
	}
}

// Handler wraps the login endpoint with rate limiting.
func (rl *LoginRateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.redis == nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		key := fmt.Sprintf("ratelimit:login:%s", clientIP(r))

		pipe := rl.redis.Pipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, rl.window)
		if _, err := pipe.Exec(ctx); err != nil {
			rl.logger.WithError(err).Warn("login rate limiter unavailable, failing open")
			next.ServeHTTP(w, r)
			return
		}

		if incr.Val() > int64(rl.limit) {
			ttl, err := rl.redis.TTL(ctx, key).Result()
			retryAfter := rl.window
			if err == nil && ttl > 0 {
				retryAfter = ttl
			}
			w.Header().Set("Retry-After", fmt.Sprintf("%.0f", retryAfter.Seconds()))
			httputil.WriteTooManyRequests(w, "too many login attempts, try again later")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client address, honoring X-Forwarded-For from
// a fronting proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
