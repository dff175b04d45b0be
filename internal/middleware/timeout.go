package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds each request with a deadline so store calls are cancelled
// rather than hanging; a request that runs out of time surfaces as a
// transient failure, never a silent drop.
func Timeout(limit time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), limit)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
