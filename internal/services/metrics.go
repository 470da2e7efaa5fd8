package services

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// SettlementMetrics exposes settlement counters.
type SettlementMetrics struct {
	settlements       *prometheus.CounterVec
	pointsDistributed *prometheus.CounterVec
	rateFetches       *prometheus.CounterVec
}

var (
	metricsOnce     sync.Once
	metricsRegistry *SettlementMetrics
)

// Metrics returns the process-wide settlement metrics.
func Metrics() *SettlementMetrics {
	metricsOnce.Do(func() {
		metricsRegistry = &SettlementMetrics{
			settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "referdby_settlements_total",
				Help: "Settlement attempts by kind and outcome.",
			}, []string{"kind", "outcome"}),
			pointsDistributed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "referdby_points_distributed_total",
				Help: "Points credited by settlement role.",
			}, []string{"role"}),
			rateFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "referdby_exchange_rate_fetches_total",
				Help: "Exchange rate provider calls by outcome.",
			}, []string{"outcome"}),
		}
		prometheus.MustRegister(
			metricsRegistry.settlements,
			metricsRegistry.pointsDistributed,
			metricsRegistry.rateFetches,
		)
	})
	return metricsRegistry
}

func (m *SettlementMetrics) ObserveSettlement(kind string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = ClassifyError(err).Name
	}
	m.settlements.WithLabelValues(kind, outcome).Inc()
}

func (m *SettlementMetrics) ObservePoints(role DistributionRole, points decimal.Decimal) {
	if m == nil || !points.IsPositive() {
		return
	}
	m.pointsDistributed.WithLabelValues(string(role)).Add(points.InexactFloat64())
}

func (m *SettlementMetrics) ObserveRateFetch(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.rateFetches.WithLabelValues(outcome).Inc()
}
