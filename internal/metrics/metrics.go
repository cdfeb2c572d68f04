// Package metrics provides Prometheus metric collection for the application
// tracker and saved-job flows.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the service layer records into.
type Recorder interface {
	RecordApplicationSubmitted()
	RecordApplicationCancelled()
	RecordApplicationConflict()
	RecordApplyLatency(duration time.Duration)
	RecordSavedJobOp(op string)
	RecordAuthorizationDenied(reason string)
}

// Collector implements Recorder on top of a Prometheus registry.
type Collector struct {
	appsSubmitted prometheus.Counter
	appsCancelled prometheus.Counter
	appsConflict  prometheus.Counter
	applyLatency  prometheus.Histogram
	savedJobOps   *prometheus.CounterVec
	authDenied    *prometheus.CounterVec
}

// NewCollector constructs a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		appsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobcore_applications_submitted_total",
			Help: "Total applications submitted.",
		}),
		appsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobcore_applications_cancelled_total",
			Help: "Total applications cancelled.",
		}),
		appsConflict: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobcore_applications_conflict_total",
			Help: "Total duplicate-application conflicts.",
		}),
		applyLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "jobcore_apply_latency_seconds",
			Help:    "Latency of the apply transaction in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		savedJobOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobcore_saved_job_ops_total",
			Help: "Saved-job operations by kind.",
		}, []string{"op"}),
		authDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobcore_authorization_denied_total",
			Help: "Authorization denials by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		c.appsSubmitted,
		c.appsCancelled,
		c.appsConflict,
		c.applyLatency,
		c.savedJobOps,
		c.authDenied,
	)

	return c
}

// RecordApplicationSubmitted counts a successful apply.
func (c *Collector) RecordApplicationSubmitted() {
	c.appsSubmitted.Inc()
}

// RecordApplicationCancelled counts a successful cancel.
func (c *Collector) RecordApplicationCancelled() {
	c.appsCancelled.Inc()
}

// RecordApplicationConflict counts a duplicate-application rejection.
func (c *Collector) RecordApplicationConflict() {
	c.appsConflict.Inc()
}

// RecordApplyLatency records how long an apply transaction took.
func (c *Collector) RecordApplyLatency(duration time.Duration) {
	c.applyLatency.Observe(duration.Seconds())
}

// RecordSavedJobOp counts a saved-job operation ("save" or "unsave").
func (c *Collector) RecordSavedJobOp(op string) {
	c.savedJobOps.WithLabelValues(op).Inc()
}

// RecordAuthorizationDenied counts a gate denial by reason.
func (c *Collector) RecordAuthorizationDenied(reason string) {
	c.authDenied.WithLabelValues(reason).Inc()
}

// Noop is a Recorder that drops everything. Useful in tests and for callers
// that do not wire a registry.
type Noop struct{}

func (Noop) RecordApplicationSubmitted()      {}
func (Noop) RecordApplicationCancelled()      {}
func (Noop) RecordApplicationConflict()       {}
func (Noop) RecordApplyLatency(time.Duration) {}
func (Noop) RecordSavedJobOp(string)          {}
func (Noop) RecordAuthorizationDenied(string) {}

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
