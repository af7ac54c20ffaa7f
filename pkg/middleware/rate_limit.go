package middleware

import (
	"net/http"
	"sync"

	"servicehub/pkg/errors"

	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	limiters sync.Map
	rps      rate.Limit
	burst    int
}

// NewRateLimiter builds a per-IP limiter. Burst defaults to 5.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 5
	}
	return &RateLimiter{
		rps:   rate.Limit(rps),
		burst: burst,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	if v, ok := rl.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	lim := rate.NewLimiter(rl.rps, rl.burst)
	actual, loaded := rl.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}

// Middleware rejects requests over the per-IP budget with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.getLimiter(clientIP(r)).Allow() {
			appErr := errors.NewTooManyRequestsError("rate limit exceeded")
			sendApiErrorResponse(w, GetRequestID(r.Context()), appErr.Status, appErr.Code, appErr.Message)
			return
		}
		next.ServeHTTP(w, r)
	})
}
