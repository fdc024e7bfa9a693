package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/illustrationsapp/illustrations-server/internal/ratelimit"
)

// codeRateLimited has no domain error counterpart; only this middleware produces it.
const codeRateLimited = "RATE_LIMITED"

// RateLimitMiddleware limits requests per owner, or per client IP before authentication.
// Must run after authMiddleware. Returns 429 Too Many Requests when the limit is exceeded.
func RateLimitMiddleware(limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rateLimitKey(r)
			if !limiter.Allow(key) {
				logger.Warn("Rate limit exceeded", "key", key, "path", r.URL.Path)
				writeTooManyRequests(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitKey(r *http.Request) string {
	if ownerID, err := GetOwnerID(r.Context()); err == nil {
		return "owner:" + strconv.FormatInt(ownerID, 10)
	}
	return "ip:" + clientIP(r)
}

// clientIP strips the port from RemoteAddr. middleware.RealIP has already applied proxy headers.
func clientIP(r *http.Request) string {
	ip := r.RemoteAddr
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == ':' {
			return ip[:i]
		}
	}
	return ip
}

func writeTooManyRequests(w http.ResponseWriter) {
	const msg = "Too many requests. Please try again later."
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "1")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(Envelope{
		V:       envelopeVersion,
		Success: false,
		Error:   msg,
		Code:    codeRateLimited,
		Message: msg,
	})
}
