// Package metrics exposes Prometheus counters for token endpoint traffic.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "oauth_facade"

// OutcomeOK labels successful grants. Failures are labelled with their
// OAuth error code.
const OutcomeOK = "ok"

type Metrics struct {
	registry *prometheus.Registry
	grants   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	authz    *prometheus.CounterVec
}

// New registers the collectors on a private registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		grants: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_requests_total",
			Help:      "Token endpoint requests by grant type and outcome.",
		}, []string{"grant_type", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "token_request_duration_seconds",
			Help:      "Time spent in grant handlers.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"grant_type"}),
		authz: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authorization_requests_total",
			Help:      "Authorization endpoint requests by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		m.grants,
		m.duration,
		m.authz,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveGrant records one token request. grantType is "unknown" when the
// request could not be decoded.
func (m *Metrics) ObserveGrant(grantType, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.grants.WithLabelValues(grantType, outcome).Inc()
	m.duration.WithLabelValues(grantType).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveAuthorization(outcome string) {
	if m == nil {
		return
	}
	m.authz.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
