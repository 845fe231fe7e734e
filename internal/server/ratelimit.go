package server

import (
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimit answers 429 once limiter has no tokens left. A nil limiter lets
// every request through.
func RateLimit(logger *zap.Logger, limiter *rate.Limiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			logger.Warn("rate limit exceeded",
				zap.String("op", "server.RateLimit"),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remoteAddr", r.RemoteAddr),
			)
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
