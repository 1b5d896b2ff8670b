// Package metrics holds the Prometheus collectors of the storefront.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

type Metrics struct {
	// cart mutations by operation: add, remove, increment, decrement, clear
	CartMutations *prometheus.CounterVec
	// failed loads and saves of the cart document
	PersistenceFailures *prometheus.CounterVec

	// order submissions by outcome: success, failure, rejected
	Submissions        *prometheus.CounterVec
	SubmissionDuration prometheus.Histogram

	NotificationFailures prometheus.Counter

	registry *prometheus.Registry
}

func New() *Metrics {
	m := &Metrics{
		CartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "mutations_total",
			Help:      "Cart mutations by operation",
		}, []string{"op"}),
		PersistenceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "persistence_failures_total",
			Help:      "Failed cart document loads and saves",
		}, []string{"op"}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "submissions_total",
			Help:      "Order submissions by outcome",
		}, []string{"outcome"}),
		SubmissionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "submission_duration_seconds",
			Help:      "Order backend call latency",
			Buckets:   prometheus.DefBuckets,
		}),
		NotificationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "notification_failures_total",
			Help:      "Order confirmations that could not be delivered",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.CartMutations,
		m.PersistenceFailures,
		m.Submissions,
		m.SubmissionDuration,
		m.NotificationFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
