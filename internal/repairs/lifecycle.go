package repairs

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/workshop-backend/internal/inventory"
	"github.com/angelmondragon/workshop-backend/pkg/db/models"
	"github.com/angelmondragon/workshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/workshop-backend/pkg/errors"
)

type stockLedger interface {
	Lock(ctx context.Context, tx *gorm.DB, partID uuid.UUID) (*models.Part, error)
	Reserve(ctx context.Context, tx *gorm.DB, partID uuid.UUID, delta int) (*models.Part, error)
	WriteOff(ctx context.Context, tx *gorm.DB, partID uuid.UUID, qty int) (*models.Part, error)
}

// Lifecycle moves repairs between statuses and converts usage reservations
// into stock deductions. Every method runs inside the caller's transaction
// and expects the repair row to be locked already.
type Lifecycle struct {
	repo   *Repository
	ledger stockLedger
}

func NewLifecycle(repo *Repository, ledger stockLedger) (*Lifecycle, error) {
	if repo == nil {
		return nil, fmt.Errorf("repair repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	return &Lifecycle{repo: repo, ledger: ledger}, nil
}

// Transition persists next as the repair's status. Entering Completed or
// Closed from any other status writes off every open usage first; when any
// part is short nothing is written and the status stays put. Returns false
// when the status did not change.
func (l *Lifecycle) Transition(ctx context.Context, tx *gorm.DB, repair *models.Repair, next enums.RepairStatus) (bool, error) {
	if !next.IsValid() {
		return false, pkgerrors.Field("status", fmt.Sprintf("unknown status %q", next))
	}
	if repair.Status == next {
		return false, nil
	}
	if next.IsTerminal() {
		if _, err := l.WriteOff(ctx, tx, repair.ID); err != nil {
			return false, err
		}
	}
	if err := l.repo.WithTx(tx).UpdateStatus(ctx, repair.ID, next); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update repair status")
	}
	repair.Status = next
	return true, nil
}

// WriteOff deducts every usage not yet written off from stock and flags it.
// All parts are checked before the first ledger write. A usage whose
// reservation was released is reserved again before it is consumed.
func (l *Lifecycle) WriteOff(ctx context.Context, tx *gorm.DB, repairID uuid.UUID) (int, error) {
	repo := l.repo.WithTx(tx)
	open, err := repo.LockOpenUsages(ctx, repairID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock repair usages")
	}
	if err := l.checkStock(ctx, tx, open); err != nil {
		return 0, err
	}

	for _, usage := range open {
		if usage.ReservationReleased {
			if _, err := l.ledger.Reserve(ctx, tx, usage.PartID, usage.Quantity); err != nil {
				return 0, err
			}
		}
		if _, err := l.ledger.WriteOff(ctx, tx, usage.PartID, usage.Quantity); err != nil {
			return 0, err
		}
		if err := repo.MarkWrittenOff(ctx, usage.ID); err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark usage written off")
		}
	}
	return len(open), nil
}

// Release returns the reservation of every usage that still holds one and
// marks it released, so a repeated call releases nothing.
func (l *Lifecycle) Release(ctx context.Context, tx *gorm.DB, repairID uuid.UUID) (int, error) {
	repo := l.repo.WithTx(tx)
	open, err := repo.LockOpenUsages(ctx, repairID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock repair usages")
	}

	released := 0
	for _, usage := range open {
		if !usage.Holding() {
			continue
		}
		if _, err := l.ledger.Reserve(ctx, tx, usage.PartID, -usage.Quantity); err != nil {
			return 0, err
		}
		if err := repo.MarkReleased(ctx, usage.ID); err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark usage released")
		}
		released++
	}
	return released, nil
}

// Validate reports whether the repair may enter status: for Completed and
// Closed every open usage's part must cover its quantity.
func (l *Lifecycle) Validate(ctx context.Context, tx *gorm.DB, repair *models.Repair, status enums.RepairStatus) error {
	if !status.IsValid() {
		return pkgerrors.Field("status", fmt.Sprintf("unknown status %q", status))
	}
	if !status.IsTerminal() || repair.Status == status {
		return nil
	}
	open, err := l.repo.WithTx(tx).LockOpenUsages(ctx, repair.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load repair usages")
	}
	return l.checkStock(ctx, tx, open)
}

// checkStock locks each part and verifies it can absorb its usage. Held
// quantities need current stock; released ones compete for available stock.
func (l *Lifecycle) checkStock(ctx context.Context, tx *gorm.DB, open []models.RepairPartUsage) error {
	for _, usage := range open {
		part, err := l.ledger.Lock(ctx, tx, usage.PartID)
		if err != nil {
			return err
		}
		field, have := inventory.FieldCurrentStock, part.CurrentStock
		if usage.ReservationReleased {
			field, have = inventory.FieldAvailableStock, part.AvailableStock()
		}
		if have < usage.Quantity {
			return inventory.NewInsufficientStock(part, field, usage.Quantity, have)
		}
	}
	return nil
}
