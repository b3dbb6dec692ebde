// Package metrics exposes Prometheus metrics for the feed session.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// Repository metrics
	StoreOperations *prometheus.CounterVec
	StoreDuration   *prometheus.HistogramVec

	// Network metrics
	FetchRequests    *prometheus.CounterVec
	NetworkReachable prometheus.Gauge
}

// NewCollector creates a collector with its own registry
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	storeOperations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Total number of post record store operations",
		},
		[]string{"operation", "status"},
	)

	storeDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Post record store operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	fetchRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_fetch_requests_total",
			Help:      "Total number of remote feed fetches",
		},
		[]string{"status"},
	)

	networkReachable := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "network_reachable",
			Help:      "1 when the last reachability probe succeeded",
		},
	)

	registry.MustRegister(storeOperations, storeDuration, fetchRequests, networkReachable)

	return &Collector{
		registry:         registry,
		StoreOperations:  storeOperations,
		StoreDuration:    storeDuration,
		FetchRequests:    fetchRequests,
		NetworkReachable: networkReachable,
	}
}

// ObserveStore records one store operation
func (c *Collector) ObserveStore(operation string, started time.Time, err error) {
	c.StoreOperations.WithLabelValues(operation, status(err)).Inc()
	c.StoreDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// ObserveFetch records one remote feed fetch
func (c *Collector) ObserveFetch(err error) {
	c.FetchRequests.WithLabelValues(status(err)).Inc()
}

// SetReachable records the latest probe result
func (c *Collector) SetReachable(reachable bool) {
	if reachable {
		c.NetworkReachable.Set(1)
		return
	}
	c.NetworkReachable.Set(0)
}

// Registry returns the Prometheus registry for this collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
