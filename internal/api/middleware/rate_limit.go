package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ayo6706/mobile-money-ledger/internal/api/problem"
	"github.com/go-chi/httprate"
)

// PublicRateLimiter limits requests per IP for unauthenticated routes.
func PublicRateLimiter(rps int) func(http.Handler) http.Handler {
	return rateLimiter(rps, "IP", httprate.KeyByIP)
}

// AuthRateLimiter limits authenticated callers by account id, falling back to IP.
func AuthRateLimiter(rps int) func(http.Handler) http.Handler {
	return rateLimiter(rps, "user", func(r *http.Request) (string, error) {
		if userID := UserIDFromContext(r.Context()); userID != "" {
			return userID, nil
		}
		return httprate.KeyByIP(r)
	})
}

func rateLimiter(rps int, scope string, key httprate.KeyFunc) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(rps, time.Second,
		httprate.WithKeyFuncs(key),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			problem.Write(
				w,
				r,
				http.StatusTooManyRequests,
				problem.Type("rate-limit-exceeded"),
				http.StatusText(http.StatusTooManyRequests),
				fmt.Sprintf("Rate limit of %d req/s exceeded for this %s", rps, scope),
			)
		}),
	)
}
