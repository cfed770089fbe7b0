// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	requests       *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	invitations    *prometheus.CounterVec
	accessDenied   *prometheus.CounterVec
	storageHealthy prometheus.Gauge
}

// NewCollector registers all collectors with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wishkeeper_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wishkeeper_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		invitations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wishkeeper_invitations_total",
			Help: "Invitation attempts by outcome.",
		}, []string{"outcome"}),
		accessDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wishkeeper_authorization_denied_total",
			Help: "Wishlist actions denied by the authorization gate.",
		}, []string{"action"}),
		storageHealthy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wishkeeper_storage_up",
			Help: "1 when the record store answered the last health probe.",
		}),
	}

	reg.MustRegister(c.requests, c.latency, c.invitations, c.accessDenied, c.storageHealthy)
	return c
}

func (c *Collector) RecordRequest(method, route string, status int, d time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.latency.WithLabelValues(method, route).Observe(d.Seconds())
}

func (c *Collector) RecordInvitation(outcome string) {
	c.invitations.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordDenied(action string) {
	c.accessDenied.WithLabelValues(action).Inc()
}

func (c *Collector) SetStorageUp(up bool) {
	if up {
		c.storageHealthy.Set(1)
		return
	}
	c.storageHealthy.Set(0)
}

// Handler serves the registry in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
