// Package observability provides Prometheus metrics for the simulator.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "rugsim"

// Metrics holds the simulator's collectors on a private registry so several
// sessions can live in one process (tests) without colliding.
type Metrics struct {
	registry *prometheus.Registry

	// Operation metrics
	OperationsTotal   *prometheus.CounterVec
	OperationFailures *prometheus.CounterVec
	PriceImpact       prometheus.Histogram
	BaseVolume        prometheus.Counter

	// Rug pull metrics
	RugPullsTotal   prometheus.Counter
	StolenLiquidity prometheus.Counter

	// Pool state
	PoolsActive prometheus.Gauge
	PoolsRugged prometheus.Gauge

	// Persistence
	StorageLatency *prometheus.HistogramVec
}

// NewMetrics creates a Metrics instance registered on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = defaultNamespace
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		OperationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ops",
			Name:      "operations_total",
			Help:      "Total number of committed operations by transaction type",
		}, []string{"type"}),
		OperationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ops",
			Name:      "operation_failures_total",
			Help:      "Total number of rejected or failed operations by reason",
		}, []string{"operation", "reason"}),
		PriceImpact: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ops",
			Name:      "swap_price_impact_percent",
			Help:      "Absolute price impact of committed swaps in percent",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100},
		}),
		BaseVolume: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ops",
			Name:      "base_volume_total",
			Help:      "Total swap input volume",
		}),

		RugPullsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rugpull",
			Name:      "executed_total",
			Help:      "Total number of rug pulls executed",
		}),
		StolenLiquidity: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rugpull",
			Name:      "stolen_liquidity_total",
			Help:      "Total liquidity removed by rug pulls",
		}),

		PoolsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pools",
			Name:      "active",
			Help:      "Current number of tradable pools",
		}),
		PoolsRugged: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pools",
			Name:      "rugged",
			Help:      "Current number of rugged pools",
		}),

		StorageLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "commit_duration_seconds",
			Help:      "Duration of storage commits",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordOperation counts a committed operation.
func (m *Metrics) RecordOperation(txType string) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(txType).Inc()
}

// RecordFailure counts a rejected operation.
func (m *Metrics) RecordFailure(operation, reason string) {
	if m == nil {
		return
	}
	m.OperationFailures.WithLabelValues(operation, reason).Inc()
}

// RecordSwap records the input volume and absolute price impact of a swap.
func (m *Metrics) RecordSwap(amountIn, impactPercent float64) {
	if m == nil {
		return
	}
	if impactPercent < 0 {
		impactPercent = -impactPercent
	}
	m.BaseVolume.Add(amountIn)
	m.PriceImpact.Observe(impactPercent)
}

// RecordRugPull counts a rug pull and the liquidity it took.
func (m *Metrics) RecordRugPull(stolen float64) {
	if m == nil {
		return
	}
	m.RugPullsTotal.Inc()
	if stolen > 0 {
		m.StolenLiquidity.Add(stolen)
	}
}

// SetPoolCounts updates the pool state gauges.
func (m *Metrics) SetPoolCounts(active, rugged int) {
	if m == nil {
		return
	}
	m.PoolsActive.Set(float64(active))
	m.PoolsRugged.Set(float64(rugged))
}

// ObserveCommit records how long a storage commit took.
func (m *Metrics) ObserveCommit(seconds float64, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.StorageLatency.WithLabelValues(status).Observe(seconds)
}
