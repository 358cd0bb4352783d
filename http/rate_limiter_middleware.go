package http

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"roi-widget/metrics"
)

func clientAddr(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func RateLimitMiddleware(
	limiter *RateLimiter,
	rec metrics.Recorder,
	logger *zap.Logger,
	next http.Handler,
) http.Handler {

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientAddr(r)

		ok, wait := limiter.Allow(client)
		if !ok {
			rec.IncThrottled(r.URL.Path)
			logger.Debug("request throttled", zap.String("client", client), zap.String("path", r.URL.Path))
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
