package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "distro"

// StockMetrics counts stock ledger movements.
type StockMetrics struct {
	movements *prometheus.CounterVec
	units     *prometheus.CounterVec
	drift     *prometheus.GaugeVec
}

// NewStockMetrics registers the stock metrics on the provided registerer.
func NewStockMetrics(reg prometheus.Registerer) *StockMetrics {
	if reg == nil {
		return &StockMetrics{}
	}
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stock_movements_total",
		Help:      "Stock adjustments applied, by reason and direction.",
	}, []string{"reason", "direction"})
	units := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stock_units_total",
		Help:      "Absolute units moved by stock adjustments.",
	}, []string{"reason", "direction"})
	drift := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stock_reconcile_drift",
		Help:      "Difference between stored and recomputed stock found by the last reconcile.",
	}, []string{"product"})
	reg.MustRegister(movements, units, drift)
	return &StockMetrics{movements: movements, units: units, drift: drift}
}

// ObserveMovement records a single applied delta.
func (m *StockMetrics) ObserveMovement(reason string, delta int64) {
	if m == nil || m.movements == nil || delta == 0 {
		return
	}
	direction := "in"
	amount := delta
	if delta < 0 {
		direction = "out"
		amount = -delta
	}
	reason = normalizeLabel(reason)
	m.movements.WithLabelValues(reason, direction).Inc()
	m.units.WithLabelValues(reason, direction).Add(float64(amount))
}

// SetDrift records the drift found for a product during reconciliation.
func (m *StockMetrics) SetDrift(productKey string, drift int64) {
	if m == nil || m.drift == nil {
		return
	}
	m.drift.WithLabelValues(normalizeLabel(productKey)).Set(float64(drift))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
