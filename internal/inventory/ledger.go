package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/workshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/workshop-backend/pkg/errors"
	"github.com/angelmondragon/workshop-backend/pkg/logger"
	"github.com/angelmondragon/workshop-backend/pkg/metrics"
)

// Ledger applies reservation and write-off movements to part rows. Every
// method runs inside the caller's transaction and locks the part row first,
// so concurrent movements on one part serialize.
type Ledger struct {
	repo    *Repository
	metrics *metrics.InventoryMetrics
	logg    *logger.Logger
}

func NewLedger(repo *Repository, m *metrics.InventoryMetrics, logg *logger.Logger) (*Ledger, error) {
	if repo == nil {
		return nil, fmt.Errorf("part repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Ledger{repo: repo, metrics: m, logg: logg}, nil
}

// Lock loads the part and holds its row lock until tx ends.
func (l *Ledger) Lock(ctx context.Context, tx *gorm.DB, partID uuid.UUID) (*models.Part, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stock ledger requires a transaction")
	}
	part, err := l.repo.WithTx(tx).LockByID(ctx, partID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "part not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock part")
	}
	return part, nil
}

// Reserve moves delta units into (positive) or out of (negative) the part's
// reserved counter. Growth requires available stock; shrinking floors at zero.
func (l *Ledger) Reserve(ctx context.Context, tx *gorm.DB, partID uuid.UUID, delta int) (*models.Part, error) {
	part, err := l.Lock(ctx, tx, partID)
	if err != nil {
		return nil, err
	}
	if delta == 0 {
		return part, nil
	}

	op, units := metrics.OpReserve, delta
	if delta > 0 {
		if available := part.AvailableStock(); available < delta {
			l.metrics.IncRejected(metrics.OpReserve)
			return nil, NewInsufficientStock(part, FieldAvailableStock, delta, available)
		}
		part.Reserved += delta
	} else {
		op, units = metrics.OpRelease, min(-delta, part.Reserved)
		part.Reserved = max(part.Reserved+delta, 0)
	}

	if err := l.persist(ctx, tx, part); err != nil {
		return nil, err
	}
	l.metrics.AddUnits(op, units)
	return part, nil
}

// Release returns qty reserved units to available stock.
func (l *Ledger) Release(ctx context.Context, tx *gorm.DB, partID uuid.UUID, qty int) (*models.Part, error) {
	if qty < 0 {
		return nil, pkgerrors.Field("quantity", "release quantity cannot be negative")
	}
	return l.Reserve(ctx, tx, partID, -qty)
}

// WriteOff consumes qty units: current_stock drops by qty and reserved drops
// by qty floored at zero.
func (l *Ledger) WriteOff(ctx context.Context, tx *gorm.DB, partID uuid.UUID, qty int) (*models.Part, error) {
	if qty < 1 {
		return nil, pkgerrors.Field("quantity", "quantity must be at least 1")
	}
	part, err := l.Lock(ctx, tx, partID)
	if err != nil {
		return nil, err
	}
	if part.CurrentStock < qty {
		l.metrics.IncRejected(metrics.OpWriteOff)
		return nil, NewInsufficientStock(part, FieldCurrentStock, qty, part.CurrentStock)
	}

	part.CurrentStock -= qty
	part.Reserved = max(part.Reserved-qty, 0)

	if err := l.persist(ctx, tx, part); err != nil {
		return nil, err
	}
	l.metrics.AddUnits(metrics.OpWriteOff, qty)
	return part, nil
}

func (l *Ledger) persist(ctx context.Context, tx *gorm.DB, part *models.Part) error {
	if err := CheckInvariant(part); err != nil {
		l.logg.Error(l.logg.WithField(ctx, "part_id", part.ID.String()), "refusing ledger write", err)
		return err
	}
	if err := l.repo.WithTx(tx).UpdateStock(ctx, part); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update part stock")
	}
	return nil
}
