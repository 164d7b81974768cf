package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReserveMetrics tracks the reserve engine's balances and operation outcomes.
type ReserveMetrics struct {
	stablecoinReserves prometheus.Gauge
	crossChainReserves prometheus.Gauge
	crossChainDeficit  prometheus.Gauge
	accumulatedFees    prometheus.Gauge
	operations         *prometheus.CounterVec
	latency            *prometheus.HistogramVec
}

var (
	reserveMetricsOnce sync.Once
	reserveRegistry    *ReserveMetrics
)

// Reserve returns the lazily-initialised reserve metrics registry.
func Reserve() *ReserveMetrics {
	reserveMetricsOnce.Do(func() {
		reserveRegistry = &ReserveMetrics{
			stablecoinReserves: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "weusd",
				Subsystem: "reserve",
				Name:      "stablecoin_reserves",
				Help:      "Collateral available for local redemption, in stablecoin base units.",
			}),
			crossChainReserves: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "weusd",
				Subsystem: "reserve",
				Name:      "cross_chain_reserves",
				Help:      "Collateral earmarked for in-flight cross-chain settlement.",
			}),
			crossChainDeficit: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "weusd",
				Subsystem: "reserve",
				Name:      "cross_chain_deficit",
				Help:      "Cross-chain returns not yet covered by earmarked reserves.",
			}),
			accumulatedFees: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "weusd",
				Subsystem: "reserve",
				Name:      "accumulated_fees",
				Help:      "Cumulative redemption fees collected, in stablecoin base units.",
			}),
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "weusd",
				Subsystem: "engine",
				Name:      "operations_total",
				Help:      "Engine operations segmented by operation and outcome.",
			}, []string{"op", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "weusd",
				Subsystem: "engine",
				Name:      "operation_duration_seconds",
				Help:      "Latency distribution for engine operations.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"op"}),
		}
		prometheus.MustRegister(
			reserveRegistry.stablecoinReserves,
			reserveRegistry.crossChainReserves,
			reserveRegistry.crossChainDeficit,
			reserveRegistry.accumulatedFees,
			reserveRegistry.operations,
			reserveRegistry.latency,
		)
	})
	return reserveRegistry
}

// Observe records one operation's outcome and latency.
func (m *ReserveMetrics) Observe(op string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(op, outcome).Inc()
	m.latency.WithLabelValues(op).Observe(duration.Seconds())
}

// SetBalances refreshes the reserve gauges from a ledger snapshot.
func (m *ReserveMetrics) SetBalances(stablecoin, crossChain, deficit, fees uint64) {
	if m == nil {
		return
	}
	m.stablecoinReserves.Set(float64(stablecoin))
	m.crossChainReserves.Set(float64(crossChain))
	m.crossChainDeficit.Set(float64(deficit))
	m.accumulatedFees.Set(float64(fees))
}
