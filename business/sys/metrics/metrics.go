// Package metrics constructs the metrics the application will track.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ledger represents the ledger values exported as gauges.
type Ledger interface {
	Height() uint64
	PendingCount() int
}

// Metrics represents the set of metrics we gather. Each value owns its
// registry so more than one can exist in a process.
type Metrics struct {
	registry   *prometheus.Registry
	requests   *prometheus.CounterVec
	errors     prometheus.Counter
	panics     prometheus.Counter
	duration   *prometheus.HistogramVec
	blocks     prometheus.Counter
	sealErrors prometheus.Counter
}

// New constructs the metrics and registers them with a new registry.
func New(namespace string) *Metrics {
	m := Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Number of requests handled.",
		}, []string{"method", "status"}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Number of requests that returned an error.",
		}),
		panics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "panics_total",
			Help:      "Number of requests that panicked.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of the requests handled.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		blocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_sealed_total",
			Help:      "Number of blocks sealed by this node.",
		}),
		sealErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seal_errors_total",
			Help:      "Number of seals that failed.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.errors,
		m.panics,
		m.duration,
		m.blocks,
		m.sealErrors,
	)

	return &m
}

// RegisterLedger exports the ledger height and pending pool size.
func (m *Metrics) RegisterLedger(namespace string, ledger Ledger) {
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_height",
			Help:      "Number of blocks in the chain.",
		}, func() float64 { return float64(ledger.Height()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_pending",
			Help:      "Number of transactions waiting to be sealed.",
		}, func() float64 { return float64(ledger.PendingCount()) }),
	)
}

// Handler returns the handler that serves the registered metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Request records a handled request.
func (m *Metrics) Request(method string, status string, seconds float64) {
	m.requests.WithLabelValues(method, status).Inc()
	m.duration.WithLabelValues(method).Observe(seconds)
}

// Error records a request that returned an error.
func (m *Metrics) Error() {
	m.errors.Inc()
}

// Panic records a request that panicked.
func (m *Metrics) Panic() {
	m.panics.Inc()
}

// Sealed records the outcome of a seal.
func (m *Metrics) Sealed(err error) {
	if err != nil {
		m.sealErrors.Inc()
		return
	}
	m.blocks.Inc()
}
