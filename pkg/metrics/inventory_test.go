package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInventoryMetricsCountsUnits(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewInventoryMetrics(reg)

	m.AddUnits(OpReserve, 3)
	m.AddUnits(OpReserve, 2)
	m.AddUnits(OpWriteOff, 0)
	m.IncRejected(OpReserve)

	assert.Equal(t, float64(5), testutil.ToFloat64(m.units.WithLabelValues(OpReserve)))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.units.WithLabelValues(OpWriteOff)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.rejected.WithLabelValues(OpReserve)))
}

func TestInventoryMetricsNilSafe(t *testing.T) {
	var m *InventoryMetrics
	m.AddUnits(OpRelease, 1)
	m.IncRejected(OpRelease)
	NewInventoryMetrics(nil).AddUnits(OpRelease, 1)
}
