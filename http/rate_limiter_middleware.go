package http

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"loan-predictor/logger"
	"loan-predictor/metrics"
)

// RateLimitMiddleware rejects clients that have used up their bucket with 429
// and a Retry-After header. Clients are keyed by remote IP.
func RateLimitMiddleware(limiter *RateLimiter, log logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := clientIP(r)

			allowed, retryAfter := limiter.Allow(client)
			if !allowed {
				metrics.RateLimited.Inc()
				log.Warn("rate limit exceeded", map[string]interface{}{
					"client":    client,
					"path":      r.URL.Path,
					"requestId": RequestIDFrom(r.Context()),
				})
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
