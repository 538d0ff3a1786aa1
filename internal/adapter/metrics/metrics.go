package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the server.
type Metrics struct {
	HTTPRequestsTotal *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec

	LogEntriesTotal *prometheus.CounterVec
	BufferSize      prometheus.Gauge
	BufferEvicted   prometheus.Gauge

	LoginsTotal    *prometheus.CounterVec
	FlagCacheHits  prometheus.Counter
	FlagCacheMiss  prometheus.Counter
	MailTotal      *prometheus.CounterVec
	StreamClients  prometheus.Gauge
	ShippedTotal   prometheus.Counter
	ShipperDropped prometheus.Counter
}

// New initializes and registers the Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sunrise",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sunrise",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		LogEntriesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sunrise",
			Subsystem: "logs",
			Name:      "entries_total",
			Help:      "Total number of entries accepted by the log store, by level.",
		}, []string{"level"}),
		BufferSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "sunrise",
			Subsystem: "logs",
			Name:      "buffer_size",
			Help:      "Entries currently held by the log store.",
		}),
		BufferEvicted: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "sunrise",
			Subsystem: "logs",
			Name:      "buffer_evicted",
			Help:      "Entries dropped by overflow since the last clear.",
		}),
		LoginsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sunrise",
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}), // result: success, invalid, rate_limited
		FlagCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "sunrise",
			Subsystem: "flags",
			Name:      "cache_hits_total",
			Help:      "Total number of feature flag cache hits.",
		}),
		FlagCacheMiss: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "sunrise",
			Subsystem: "flags",
			Name:      "cache_misses_total",
			Help:      "Total number of feature flag cache misses.",
		}),
		MailTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sunrise",
			Subsystem: "mail",
			Name:      "sent_total",
			Help:      "Outbound emails by delivery status.",
		}, []string{"status"}), // status: sent, error
		StreamClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "sunrise",
			Subsystem: "stream",
			Name:      "clients",
			Help:      "Connected live tail clients.",
		}),
		ShippedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "sunrise",
			Subsystem: "shipper",
			Name:      "entries_total",
			Help:      "Log entries delivered to the downstream broker.",
		}),
		ShipperDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "sunrise",
			Subsystem: "shipper",
			Name:      "dropped_total",
			Help:      "Log entries dropped because the shipping queue was full.",
		}),
	}
}
