// Package metrics exposes authentication outcomes to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jrsteele09/go-identity-server/auth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "identity"

var _ auth.Metrics = (*Collector)(nil)

// Collector implements auth.Metrics with Prometheus counters
type Collector struct {
	logins             *prometheus.CounterVec
	registrations      *prometheus.CounterVec
	federatedLogins    *prometheus.CounterVec
	tokenVerifications *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
}

// NewCollector creates the collector and registers its metrics on reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Local login attempts by outcome.",
		}, []string{"outcome"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Local registrations by outcome.",
		}, []string{"outcome"}),
		federatedLogins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "federated_logins_total",
			Help:      "Federated login callbacks by provider and outcome.",
		}, []string{"provider", "outcome"}),
		tokenVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_verifications_total",
			Help:      "Bearer token verifications by outcome.",
		}, []string{"outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}

	reg.MustRegister(
		c.logins,
		c.registrations,
		c.federatedLogins,
		c.tokenVerifications,
		c.requestDuration,
	)
	return c
}

func (c *Collector) LoginAttempt(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

func (c *Collector) Registration(outcome string) {
	c.registrations.WithLabelValues(outcome).Inc()
}

func (c *Collector) FederatedLogin(provider, outcome string) {
	c.federatedLogins.WithLabelValues(provider, outcome).Inc()
}

func (c *Collector) TokenVerification(outcome string) {
	c.tokenVerifications.WithLabelValues(outcome).Inc()
}

// ObserveRequest records how long a request to route took
func (c *Collector) ObserveRequest(route string, status int, d time.Duration) {
	c.requestDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(d.Seconds())
}

// Handler returns the scrape handler for gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
