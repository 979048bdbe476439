// Package metrics exposes pulse loop counters for Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tweetpulse"

// Metrics holds the collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	cycles          prometheus.Counter
	fetched         *prometheus.CounterVec
	fetchErrors     *prometheus.CounterVec
	newItems        prometheus.Counter
	notifyFallbacks prometheus.Counter
	cycleDuration   prometheus.Histogram
	seenItems       prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "cycles_total",
			Help: "Completed pulse cycles.",
		}),
		fetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "items_fetched_total",
			Help: "Candidate items returned by the upstream search, by query.",
		}, []string{"query"}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "fetch_errors_total",
			Help: "Failed upstream searches, by query.",
		}, []string{"query"}),
		newItems: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "items_new_total",
			Help: "Novel items recorded and delivered.",
		}),
		notifyFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "notify_fallbacks_total",
			Help: "Deliveries that fell back to console output.",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "cycle_duration_seconds",
			Help:    "Wall time of one pulse cycle.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		seenItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "seen_items",
			Help: "Records in the seen-item store.",
		}),
	}
	reg.MustRegister(
		m.cycles, m.fetched, m.fetchErrors, m.newItems,
		m.notifyFallbacks, m.cycleDuration, m.seenItems,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

func (m *Metrics) ObserveCycle(seconds float64, newItems int) {
	if m == nil {
		return
	}
	m.cycles.Inc()
	m.cycleDuration.Observe(seconds)
	m.newItems.Add(float64(newItems))
}

func (m *Metrics) Fetched(query string, n int) {
	if m == nil {
		return
	}
	m.fetched.WithLabelValues(query).Add(float64(n))
}

func (m *Metrics) FetchFailed(query string) {
	if m == nil {
		return
	}
	m.fetchErrors.WithLabelValues(query).Inc()
}

func (m *Metrics) NotifyFallback() {
	if m == nil {
		return
	}
	m.notifyFallbacks.Inc()
}

func (m *Metrics) SetSeen(n int) {
	if m == nil {
		return
	}
	m.seenItems.Set(float64(n))
}
