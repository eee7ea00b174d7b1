package usages

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/workshop-backend/pkg/db/models"
)

// Repository persists repair part usages.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the usage together with its part.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.RepairPartUsage, error) {
	var usage models.RepairPartUsage
	if err := r.db.WithContext(ctx).Preload("Part").First(&usage, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &usage, nil
}

// LockByID loads the usage row with SELECT ... FOR UPDATE.
func (r *Repository) LockByID(ctx context.Context, id uuid.UUID) (*models.RepairPartUsage, error) {
	var usage models.RepairPartUsage
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&usage, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &usage, nil
}

func (r *Repository) FindByRepairAndPart(ctx context.Context, repairID, partID uuid.UUID) (*models.RepairPartUsage, error) {
	var usage models.RepairPartUsage
	err := r.db.WithContext(ctx).
		Where("repair_id = ? AND part_id = ?", repairID, partID).
		First(&usage).
		Error
	if err != nil {
		return nil, err
	}
	return &usage, nil
}

func (r *Repository) ListByRepair(ctx context.Context, repairID uuid.UUID) ([]models.RepairPartUsage, error) {
	var rows []models.RepairPartUsage
	err := r.db.WithContext(ctx).
		Preload("Part").
		Where("repair_id = ?", repairID).
		Order("date_used ASC, id ASC").
		Find(&rows).
		Error
	return rows, err
}

// RepairExists reports whether the repair row is present.
func (r *Repository) RepairExists(ctx context.Context, repairID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Repair{}).
		Where("id = ?", repairID).
		Count(&count).
		Error
	return count > 0, err
}

// LockRepair takes the repair row lock so usages cannot be added while the
// repair is being written off. Reports false when the repair does not exist.
func (r *Repository) LockRepair(ctx context.Context, repairID uuid.UUID) (bool, error) {
	var rows []models.Repair
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", repairID).
		Limit(1).
		Find(&rows).
		Error
	return len(rows) > 0, err
}

func (r *Repository) Create(ctx context.Context, usage *models.RepairPartUsage) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(usage).Error
}

// UpdateQuantity stores the new quantity and marks the usage as holding its
// reservation again.
func (r *Repository) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.RepairPartUsage{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"quantity":             quantity,
			"reservation_released": false,
		}).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.RepairPartUsage{}, "id = ?", id).Error
}
