package usages

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/workshop-backend/pkg/db"
	"github.com/angelmondragon/workshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/workshop-backend/pkg/errors"
	"github.com/angelmondragon/workshop-backend/pkg/logger"
)

const usageRepairPartIndex = "idx_usages_repair_part"

// Service records the parts consumed by repairs. Every mutation adjusts the
// part's reservation in the same transaction.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*UsageDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*UsageDTO, error)
	ListByRepair(ctx context.Context, repairID uuid.UUID) ([]UsageDTO, error)
	UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) (*UsageDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CreateInput struct {
	RepairID uuid.UUID
	PartID   uuid.UUID
	Quantity int
}

type stockLedger interface {
	Reserve(ctx context.Context, tx *gorm.DB, partID uuid.UUID, delta int) (*models.Part, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo   *Repository
	ledger stockLedger
	tx     txRunner
	logg   *logger.Logger
}

func NewService(repo *Repository, ledger stockLedger, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("usage repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, ledger: ledger, tx: tx, logg: logg}, nil
}

// Create reserves quantity on the part and records the usage.
func (s *service) Create(ctx context.Context, input CreateInput) (*UsageDTO, error) {
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, err
	}

	var created *models.RepairPartUsage
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		exists, err := repo.LockRepair(ctx, input.RepairID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load repair")
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeNotFound, "repair not found")
		}

		if _, err := repo.FindByRepairAndPart(ctx, input.RepairID, input.PartID); err == nil {
			return duplicateUsage(nil)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing usage")
		}

		part, err := s.ledger.Reserve(ctx, tx, input.PartID, input.Quantity)
		if err != nil {
			return err
		}

		usage := &models.RepairPartUsage{
			RepairID: input.RepairID,
			PartID:   input.PartID,
			Quantity: input.Quantity,
		}
		if err := repo.Create(ctx, usage); err != nil {
			if db.IsUniqueViolation(err, usageRepairPartIndex) || db.IsUniqueViolation(err, "repair_part_usages.repair_id") {
				return duplicateUsage(err)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create usage")
		}
		usage.Part = part
		created = usage
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.usageContext(ctx, created), "usage recorded")
	return NewUsageDTO(created), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UsageDTO, error) {
	usage, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLoadErr(err)
	}
	return NewUsageDTO(usage), nil
}

func (s *service) ListByRepair(ctx context.Context, repairID uuid.UUID) ([]UsageDTO, error) {
	exists, err := s.repo.RepairExists(ctx, repairID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load repair")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "repair not found")
	}
	rows, err := s.repo.ListByRepair(ctx, repairID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list usages")
	}
	return NewUsageDTOs(rows), nil
}

// UpdateQuantity moves the difference between the new and the previously
// reserved quantity through the ledger. A usage whose reservation was
// released counts as holding nothing, so the full new quantity is reserved.
func (s *service) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) (*UsageDTO, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	var updated *models.RepairPartUsage
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		usage, err := repo.LockByID(ctx, id)
		if err != nil {
			return mapLoadErr(err)
		}
		if usage.WrittenOff {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "usage is already written off").
				WithDetails(map[string]string{"quantity": "written off usages cannot change quantity"})
		}

		held := usage.Quantity
		if usage.ReservationReleased {
			held = 0
		}
		part, err := s.ledger.Reserve(ctx, tx, usage.PartID, quantity-held)
		if err != nil {
			return err
		}
		if err := repo.UpdateQuantity(ctx, usage.ID, quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update usage")
		}

		usage.Quantity = quantity
		usage.ReservationReleased = false
		usage.Part = part
		updated = usage
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewUsageDTO(updated), nil
}

// Delete removes the usage and returns any reservation it still holds.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		usage, err := repo.LockByID(ctx, id)
		if err != nil {
			return mapLoadErr(err)
		}
		if usage.Holding() {
			if _, err := s.ledger.Reserve(ctx, tx, usage.PartID, -usage.Quantity); err != nil {
				return err
			}
		}
		if err := repo.Delete(ctx, usage.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete usage")
		}
		return nil
	})
}

func (s *service) usageContext(ctx context.Context, usage *models.RepairPartUsage) context.Context {
	return s.logg.WithFields(ctx, map[string]any{
		"usage_id":  usage.ID.String(),
		"repair_id": usage.RepairID.String(),
		"part_id":   usage.PartID.String(),
		"quantity":  usage.Quantity,
	})
}

func validateQuantity(quantity int) error {
	if quantity < 1 {
		return pkgerrors.Field("quantity", "quantity must be at least 1")
	}
	return nil
}

func duplicateUsage(cause error) error {
	return pkgerrors.Wrap(pkgerrors.CodeConflict, cause, "part already recorded on this repair; edit the existing usage").
		WithDetails(map[string]string{"part_id": "part already recorded on this repair"})
}

func mapLoadErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "usage not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load usage")
}
