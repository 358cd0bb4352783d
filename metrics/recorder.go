// Package metrics records calculator and lead submission activity.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is what services depend on; Nop discards everything.
type Recorder interface {
	ObserveEstimate(outcome string, cached bool)
	ObserveSubmission(outcome string, duration time.Duration)
	IncIgnored()
	IncThrottled(route string)
}

type PrometheusRecorder struct {
	estimatesTotal     *prometheus.CounterVec
	submissionsTotal   *prometheus.CounterVec
	submissionDuration *prometheus.HistogramVec
	ignoredTotal       prometheus.Counter
	throttledTotal     *prometheus.CounterVec
}

// NewPrometheusRecorder registers the widget metrics on reg.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		estimatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roi_estimates_total",
				Help: "ROI estimates rendered, by outcome and cache hit",
			},
			[]string{"outcome", "cached"},
		),
		submissionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_submissions_total",
				Help: "Lead submission attempts by terminal outcome",
			},
			[]string{"outcome"},
		),
		submissionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lead_submission_duration_seconds",
				Help:    "Time from submit to terminal outcome",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		ignoredTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "lead_submissions_ignored_total",
				Help: "Submit events dropped because one was already in flight",
			},
		),
		throttledTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_throttled_total",
				Help: "Requests rejected by the rate limiter",
			},
			[]string{"route"},
		),
	}
}

func (p *PrometheusRecorder) ObserveEstimate(outcome string, cached bool) {
	c := "false"
	if cached {
		c = "true"
	}
	p.estimatesTotal.WithLabelValues(outcome, c).Inc()
}

func (p *PrometheusRecorder) ObserveSubmission(outcome string, duration time.Duration) {
	p.submissionsTotal.WithLabelValues(outcome).Inc()
	p.submissionDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (p *PrometheusRecorder) IncIgnored() {
	p.ignoredTotal.Inc()
}

func (p *PrometheusRecorder) IncThrottled(route string) {
	p.throttledTotal.WithLabelValues(route).Inc()
}

type Nop struct{}

func (Nop) ObserveEstimate(string, bool)            {}
func (Nop) ObserveSubmission(string, time.Duration) {}
func (Nop) IncIgnored()                             {}
func (Nop) IncThrottled(string)                     {}
