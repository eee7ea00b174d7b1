package repairs

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/workshop-backend/internal/inventory"
	"github.com/angelmondragon/workshop-backend/internal/usages"
	"github.com/angelmondragon/workshop-backend/pkg/db"
	"github.com/angelmondragon/workshop-backend/pkg/db/dbtest"
	"github.com/angelmondragon/workshop-backend/pkg/db/models"
	"github.com/angelmondragon/workshop-backend/pkg/enums"
	"github.com/angelmondragon/workshop-backend/pkg/logger"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

type testEnv struct {
	client   *db.Client
	svc      Service
	usages   usages.Service
	notifier *recordingNotifier
	device   *models.Device
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	client := dbtest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	ledger, err := inventory.NewLedger(inventory.NewRepository(client.DB()), nil, logg)
	require.NoError(t, err)
	repo := NewRepository(client.DB())
	lifecycle, err := NewLifecycle(repo, ledger)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	svc, err := NewService(ServiceParams{
		Repo:      repo,
		Lifecycle: lifecycle,
		Tx:        client,
		Notifier:  notifier,
		Logger:    logg,
	})
	require.NoError(t, err)

	usageSvc, err := usages.NewService(usages.NewRepository(client.DB()), ledger, client, logg)
	require.NoError(t, err)

	device := &models.Device{Name: "CashCode Bill", IsActive: true}
	require.NoError(t, client.DB().Create(device).Error)

	return testEnv{client: client, svc: svc, usages: usageSvc, notifier: notifier, device: device}
}

func (e testEnv) seedPart(t *testing.T, code string, current int) *models.Part {
	t.Helper()
	part := &models.Part{Code: code, Name: code, CurrentStock: current}
	require.NoError(t, e.client.DB().Create(part).Error)
	return part
}

func (e testEnv) createRepair(t *testing.T, serial string) *RepairDTO {
	t.Helper()
	dto, err := e.svc.Create(context.Background(), CreateInput{
		CreatedBy:    uuid.New(),
		DeviceID:     e.device.ID,
		SerialNumber: serial,
		Defect:       "Does not accept bills",
	})
	require.NoError(t, err)
	return dto
}

func (e testEnv) addUsage(t *testing.T, repairID, partID uuid.UUID, qty int) *usages.UsageDTO {
	t.Helper()
	dto, err := e.usages.Create(context.Background(), usages.CreateInput{RepairID: repairID, PartID: partID, Quantity: qty})
	require.NoError(t, err)
	return dto
}

func (e testEnv) part(t *testing.T, id uuid.UUID) models.Part {
	t.Helper()
	var part models.Part
	require.NoError(t, e.client.DB().First(&part, "id = ?", id).Error)
	return part
}

func (e testEnv) usage(t *testing.T, id uuid.UUID) models.RepairPartUsage {
	t.Helper()
	var usage models.RepairPartUsage
	require.NoError(t, e.client.DB().First(&usage, "id = ?", id).Error)
	return usage
}

func (e testEnv) status(t *testing.T, id uuid.UUID) enums.RepairStatus {
	t.Helper()
	var repair models.Repair
	require.NoError(t, e.client.DB().Select("status").First(&repair, "id = ?", id).Error)
	return repair.Status
}
