// Package metrics exposes Prometheus instrumentation for the daemon.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once     sync.Once
	registry *Registry
)

// Registry holds all daemon metrics.
type Registry struct {
	// Netlink metrics
	NetlinkRequests  *prometheus.CounterVec // op
	NetlinkErrors    *prometheus.CounterVec // op, errno
	NetlinkTimeouts  *prometheus.CounterVec // op
	NetlinkLatency   *prometheus.HistogramVec
	NamespaceSockets prometheus.Gauge

	// API metrics
	APIRequests *prometheus.CounterVec // method, path, code
	APILatency  *prometheus.HistogramVec

	// Event stream metrics
	EventsPublished  prometheus.Counter
	EventSubscribers prometheus.Gauge
}

// Get returns the global metrics registry, creating it if necessary.
func Get() *Registry {
	once.Do(func() {
		registry = newRegistry()
	})
	return registry
}

func newRegistry() *Registry {
	r := &Registry{}

	r.NetlinkRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "burrow_netlink_requests_total",
		Help: "Netlink requests issued to the kernel, by operation",
	}, []string{"op"})

	r.NetlinkErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "burrow_netlink_errors_total",
		Help: "Netlink requests rejected by the kernel, by operation and errno",
	}, []string{"op", "errno"})

	r.NetlinkTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "burrow_netlink_timeouts_total",
		Help: "Netlink requests that timed out waiting for a reply",
	}, []string{"op"})

	r.NetlinkLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "burrow_netlink_request_seconds",
		Help:    "Netlink request/reply round-trip latency",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	}, []string{"op"})

	r.NamespaceSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "burrow_namespace_sockets",
		Help: "Currently open namespace-bound netlink sockets",
	})

	r.APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "burrow_api_requests_total",
		Help: "API requests, by method, path pattern, and status code",
	}, []string{"method", "path", "code"})

	r.APILatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "burrow_api_request_seconds",
		Help:    "API request handling latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	r.EventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "burrow_events_published_total",
		Help: "Interface and address events fanned out to subscribers",
	})

	r.EventSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "burrow_event_subscribers",
		Help: "Currently connected websocket event subscribers",
	})

	return r
}
