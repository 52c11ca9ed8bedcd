package middleware

import (
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/tcec-chess/livefeed/internal/server/response"
)

// RateLimiter gives each caller address a fixed budget per window. Counters
// live in a go-cache keyed by address and expire with their window, so idle
// callers cost nothing.
type RateLimiter struct {
	counters *gocache.Cache
	limit    int
	window   time.Duration
	logger   *zerolog.Logger
}

// NewRateLimiter allows limit requests per window per address.
func NewRateLimiter(limit int, window time.Duration, logger *zerolog.Logger) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		counters: gocache.New(window, 2*window),
		limit:    limit,
		window:   window,
		logger:   logger,
	}
}

// Allow spends one request from addr's budget.
func (rl *RateLimiter) Allow(addr string) bool {
	if rl.counters.Add(addr, 1, rl.window) == nil {
		return rl.limit > 0
	}
	n, err := rl.counters.IncrementInt(addr, 1)
	if err != nil {
		// window expired between Add and Increment
		rl.counters.Set(addr, 1, rl.window)
		return rl.limit > 0
	}
	return n <= rl.limit
}

// Tracked returns the number of addresses with an open window.
func (rl *RateLimiter) Tracked() int {
	return rl.counters.ItemCount()
}

// RateLimit rejects callers that spent their budget with 429.
func RateLimit(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr := ClientIP(r)
			if !rl.Allow(addr) {
				rl.logger.Warn().Str("addr", addr).Str("path", r.URL.Path).Msg("Rate limit exceeded")
				response.RateLimited(w, "Too many requests. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
