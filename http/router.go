package http

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"roi-widget/metrics"
)

type RouterDeps struct {
	Roi      *RoiHandler
	Leads    *LeadHandler
	Limiter  *RateLimiter
	Metrics  metrics.Recorder
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

func NewRouter(d RouterDeps) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/roi/estimate", d.Roi.Estimate)
	mux.HandleFunc("/roi/copy", d.Roi.Copy)
	mux.Handle(
		"/leads",
		RateLimitMiddleware(
			d.Limiter,
			d.Metrics,
			d.Logger,
			http.HandlerFunc(d.Leads.Submit),
		),
	)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if d.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}
	return logRequests(d.Logger, mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func logRequests(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}
