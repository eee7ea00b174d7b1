package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ledger operations tracked by InventoryMetrics.
const (
	OpReserve  = "reserve"
	OpRelease  = "release"
	OpWriteOff = "write_off"
)

// InventoryMetrics counts stock ledger movements and rejections.
type InventoryMetrics struct {
	units    *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

// NewInventoryMetrics registers the ledger counters. A nil registerer yields
// a no-op recorder.
func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	units := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "inventory",
		Name:      "units_total",
		Help:      "Part units moved through the stock ledger.",
	}, []string{"op"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "inventory",
		Name:      "insufficient_stock_total",
		Help:      "Ledger operations rejected for lack of stock.",
	}, []string{"op"})
	reg.MustRegister(units, rejected)
	return &InventoryMetrics{units: units, rejected: rejected}
}

// AddUnits records qty units moved by op.
func (m *InventoryMetrics) AddUnits(op string, qty int) {
	if m == nil || m.units == nil || qty <= 0 {
		return
	}
	m.units.WithLabelValues(normalizeLabel(op)).Add(float64(qty))
}

// IncRejected records a rejected ledger operation.
func (m *InventoryMetrics) IncRejected(op string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(op)).Inc()
}
