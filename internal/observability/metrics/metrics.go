// Package metrics registers the Prometheus instruments shared across the
// billing and reconciliation paths.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ChargeOutcomeAllowance    = "allowance"
	ChargeOutcomeCredits      = "credits"
	ChargeOutcomeInsufficient = "insufficient"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	charges          *prometheus.CounterVec
	creditsGranted   prometheus.Counter
	unknownReference prometheus.Counter
}

// New builds the instrument set on its own registry so multiple instances
// can coexist in one process.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		charges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_charges_total",
			Help: "Charge attempts by outcome.",
		}, []string{"outcome"}),
		creditsGranted: factory.NewCounter(prometheus.CounterOpts{
			Name: "billing_credits_granted_total",
			Help: "Credits granted through completed payments.",
		}),
		unknownReference: factory.NewCounter(prometheus.CounterOpts{
			Name: "reconcile_unknown_reference_total",
			Help: "Payment confirmations that matched no intent.",
		}),
	}
}

// Registry exposes the backing registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveCharge(outcome string) {
	m.charges.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveCreditsGranted(credits int64) {
	m.creditsGranted.Add(float64(credits))
}

func (m *Metrics) ObserveUnknownReference() {
	m.unknownReference.Inc()
}

// Handler is the gin middleware recording request counts and latency.
func (m *Metrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
