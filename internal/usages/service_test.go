package usages

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/workshop-backend/internal/inventory"
	"github.com/angelmondragon/workshop-backend/pkg/db"
	"github.com/angelmondragon/workshop-backend/pkg/db/dbtest"
	"github.com/angelmondragon/workshop-backend/pkg/db/models"
	"github.com/angelmondragon/workshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/workshop-backend/pkg/errors"
	"github.com/angelmondragon/workshop-backend/pkg/logger"
)

type testEnv struct {
	client *db.Client
	svc    Service
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	client := dbtest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	ledger, err := inventory.NewLedger(inventory.NewRepository(client.DB()), nil, logg)
	require.NoError(t, err)
	svc, err := NewService(NewRepository(client.DB()), ledger, client, logg)
	require.NoError(t, err)
	return testEnv{client: client, svc: svc}
}

func (e testEnv) seedPart(t *testing.T, code string, current int) *models.Part {
	t.Helper()
	part := &models.Part{Code: code, Name: code, CurrentStock: current}
	require.NoError(t, e.client.DB().Create(part).Error)
	return part
}

func (e testEnv) seedRepair(t *testing.T) *models.Repair {
	t.Helper()
	device := &models.Device{Name: "CashCode Bill " + uuid.NewString()[:8], IsActive: true}
	require.NoError(t, e.client.DB().Create(device).Error)
	repair := &models.Repair{
		DeviceID:     device.ID,
		CreatedBy:    uuid.New(),
		SerialNumber: "SN123",
		Defect:       "Does not accept bills",
		Difficulty:   enums.RepairDifficultyNormal,
		Status:       enums.RepairStatusNew,
	}
	require.NoError(t, e.client.DB().Omit("Device", "Usages").Create(repair).Error)
	return repair
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

func TestCreateReservesStock(t *testing.T) {
	env := newTestEnv(t)
	part := env.seedPart(t, "BELT-320", 5)
	other := env.seedPart(t, "ROLLER-12", 5)
	repair := env.seedRepair(t)

	dto, err := env.svc.Create(context.Background(), CreateInput{RepairID: repair.ID, PartID: part.ID, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, "BELT-320", dto.PartCode)
	assert.False(t, dto.WrittenOff)

	stored := env.part(t, part.ID)
	assert.Equal(t, 2, stored.Reserved)
	assert.Equal(t, 3, stored.AvailableStock())

	untouched := env.part(t, other.ID)
	assert.Equal(t, 0, untouched.Reserved)
	assert.Equal(t, 5, untouched.CurrentStock)
}

func TestCreateConcurrentReservationsNeverOversell(t *testing.T) {
	env := newTestEnv(t)
	part := env.seedPart(t, "BELT-320", 10)

	const workers = 30
	repairs := make([]*models.Repair, workers)
	for i := range repairs {
		repairs[i] = env.seedRepair(t)
	}

	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.Create(context.Background(), CreateInput{RepairID: repairs[i].ID, PartID: part.ID, Quantity: 1})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, inventory.ErrInsufficientStock), "unexpected error: %v", err)
	}
	assert.Equal(t, 10, succeeded)

	stored := env.part(t, part.ID)
	assert.Equal(t, 10, stored.CurrentStock)
	assert.Equal(t, stored.CurrentStock, stored.Reserved)

	var usageCount int64
	require.NoError(t, env.client.DB().Model(&models.RepairPartUsage{}).Where("part_id = ?", part.ID).Count(&usageCount).Error)
	assert.Equal(t, int64(succeeded), usageCount)
}

func TestCreateBeyondAvailableLeavesNothingBehind(t *testing.T) {
	env := newTestEnv(t)
	part := env.seedPart(t, "BELT-320", 5)
	repair := env.seedRepair(t)

	_, err := env.svc.Create(context.Background(), CreateInput{RepairID: repair.ID, PartID: part.ID, Quantity: 8})
	require.Error(t, err)
	assert.True(t, errors.Is(err, inventory.ErrInsufficientStock))

	assert.Equal(t, 0, env.part(t, part.ID).Reserved)
	rows, err := env.svc.ListByRepair(context.Background(), repair.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCreateRejectsDuplicatePart(t *testing.T) {
	env := newTestEnv(t)
	part := env.seedPart(t, "BELT-320", 5)
	repair := env.seedRepair(t)

	_, err := env.svc.Create(context.Background(), CreateInput{RepairID: repair.ID, PartID: part.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = env.svc.Create(context.Background(), CreateInput{RepairID: repair.ID, PartID: part.ID, Quantity: 1})
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
	assert.Equal(t, 1, env.part(t, part.ID).Reserved)
}

func TestCreateValidatesInput(t *testing.T) {
	env := newTestEnv(t)
	part := env.seedPart(t, "BELT-320", 5)
	repair := env.seedRepair(t)

	_, err := env.svc.Create(context.Background(), CreateInput{RepairID: repair.ID, PartID: part.ID, Quantity: 0})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = env.svc.Create(context.Background(), CreateInput{RepairID: uuid.New(), PartID: part.ID, Quantity: 1})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	_, err = env.svc.Create(context.Background(), CreateInput{RepairID: repair.ID, PartID: uuid.New(), Quantity: 1})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestUpdateQuantityAppliesDelta(t *testing.T) {
	env := newTestEnv(t)
	part := env.seedPart(t, "BELT-320", 5)
	repair := env.seedRepair(t)
	ctx := context.Background()

	dto, err := env.svc.Create(ctx, CreateInput{RepairID: repair.ID, PartID: part.ID, Quantity: 2})
	require.NoError(t, err)

	_, err = env.svc.UpdateQuantity(ctx, dto.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, env.part(t, part.ID).Reserved)

	_, err = env.svc.UpdateQuantity(ctx, dto.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, env.part(t, part.ID).Reserved)

	_, err = env.svc.UpdateQuantity(ctx, dto.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, env.part(t, part.ID).Reserved)
}

func TestUpdateQuantityBeyondAvailableKeepsPrevious(t *testing.T) {
	env := newTestEnv(t)
	part := env.seedPart(t, "BELT-320", 5)
	repair := env.seedRepair(t)
	ctx := context.Background()

	dto, err := env.svc.Create(ctx, CreateInput{RepairID: repair.ID, PartID: part.ID, Quantity: 2})
	require.NoError(t, err)

	_, err = env.svc.UpdateQuantity(ctx, dto.ID, 6)
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)
	assert.Equal(t, 2, env.part(t, part.ID).Reserved)
	assert.Equal(t, 2, env.usage(t, dto.ID).Quantity)
}

func TestUpdateQuantityRejectsWrittenOff(t *testing.T) {
	env := newTestEnv(t)
	part := env.seedPart(t, "BELT-320", 5)
	repair := env.seedRepair(t)
	ctx := context.Background()

	dto, err := env.svc.Create(ctx, CreateInput{RepairID: repair.ID, PartID: part.ID, Quantity: 2})
	require.NoError(t, err)
	require.NoError(t, env.client.DB().Model(&models.RepairPartUsage{}).Where("id = ?", dto.ID).Update("written_off", true).Error)

	_, err = env.svc.UpdateQuantity(ctx, dto.ID, 3)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
	assert.Equal(t, 2, env.part(t, part.ID).Reserved)
}

func TestUpdateQuantityAfterReleaseReservesFully(t *testing.T) {
	env := newTestEnv(t)
	part := env.seedPart(t, "BELT-320", 5)
	repair := env.seedRepair(t)
	ctx := context.Background()

	dto, err := env.svc.Create(ctx, CreateInput{RepairID: repair.ID, PartID: part.ID, Quantity: 2})
	require.NoError(t, err)
	require.NoError(t, env.client.DB().Model(&models.Part{}).Where("id = ?", part.ID).Update("reserved", 0).Error)
	require.NoError(t, env.client.DB().Model(&models.RepairPartUsage{}).Where("id = ?", dto.ID).Update("reservation_released", true).Error)

	updated, err := env.svc.UpdateQuantity(ctx, dto.ID, 3)
	require.NoError(t, err)
	assert.False(t, updated.ReservationReleased)
	assert.Equal(t, 3, env.part(t, part.ID).Reserved)
	assert.False(t, env.usage(t, dto.ID).ReservationReleased)
}

func TestDeleteReleasesHeldReservation(t *testing.T) {
	env := newTestEnv(t)
	part := env.seedPart(t, "BELT-320", 5)
	repair := env.seedRepair(t)
	ctx := context.Background()

	dto, err := env.svc.Create(ctx, CreateInput{RepairID: repair.ID, PartID: part.ID, Quantity: 3})
	require.NoError(t, err)

	require.NoError(t, env.svc.Delete(ctx, dto.ID))
	assert.Equal(t, 0, env.part(t, part.ID).Reserved)

	_, err = env.svc.Get(ctx, dto.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestDeleteWrittenOffUsageKeepsLedger(t *testing.T) {
	env := newTestEnv(t)
	part := env.seedPart(t, "BELT-320", 5)
	repair := env.seedRepair(t)
	ctx := context.Background()

	dto, err := env.svc.Create(ctx, CreateInput{RepairID: repair.ID, PartID: part.ID, Quantity: 2})
	require.NoError(t, err)
	other := env.seedRepair(t)
	_, err = env.svc.Create(ctx, CreateInput{RepairID: other.ID, PartID: part.ID, Quantity: 1})
	require.NoError(t, err)
	require.NoError(t, env.client.DB().Model(&models.RepairPartUsage{}).Where("id = ?", dto.ID).Update("written_off", true).Error)

	require.NoError(t, env.svc.Delete(ctx, dto.ID))
	assert.Equal(t, 3, env.part(t, part.ID).Reserved)
}

func TestListByRepairUnknownRepair(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.ListByRepair(context.Background(), uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}
