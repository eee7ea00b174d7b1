package inventory

import (
	"context"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/workshop-backend/pkg/db"
	"github.com/angelmondragon/workshop-backend/pkg/db/dbtest"
	"github.com/angelmondragon/workshop-backend/pkg/db/models"
	"github.com/angelmondragon/workshop-backend/pkg/logger"
	"github.com/angelmondragon/workshop-backend/pkg/metrics"
)

type fixture struct {
	client  *db.Client
	repo    *Repository
	ledger  *Ledger
	metrics *metrics.InventoryMetrics
	reg     *prometheus.Registry
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	reg := prometheus.NewRegistry()
	m := metrics.NewInventoryMetrics(reg)
	ledger, err := NewLedger(repo, m, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	return fixture{client: client, repo: repo, ledger: ledger, metrics: m, reg: reg}
}

func (f fixture) seedPart(t *testing.T, code string, current, reserved int) *models.Part {
	t.Helper()
	part := &models.Part{Code: code, Name: code + " part", CurrentStock: current, Reserved: reserved}
	require.NoError(t, f.repo.Create(context.Background(), part))
	return part
}

func (f fixture) reload(t *testing.T, part *models.Part) *models.Part {
	t.Helper()
	fresh, err := f.repo.FindByID(context.Background(), part.ID)
	require.NoError(t, err)
	return fresh
}

func (f fixture) counter(t *testing.T, name, op string) float64 {
	t.Helper()
	families, err := f.reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "op" && label.GetValue() == op {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
