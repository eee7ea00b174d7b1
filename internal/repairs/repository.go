package repairs

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/workshop-backend/pkg/db/models"
	"github.com/angelmondragon/workshop-backend/pkg/enums"
	"github.com/angelmondragon/workshop-backend/pkg/pagination"
)

// Repository persists repairs and the usage flags the lifecycle flips.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func preloadUsages(db *gorm.DB) *gorm.DB {
	return db.Order("date_used ASC, id ASC")
}

// FindByID loads the repair with its device and usages (parts preloaded).
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Repair, error) {
	var repair models.Repair
	err := r.db.WithContext(ctx).
		Preload("Device").
		Preload("Usages", preloadUsages).
		Preload("Usages.Part").
		First(&repair, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &repair, nil
}

// LockByID loads the bare repair row with SELECT ... FOR UPDATE.
func (r *Repository) LockByID(ctx context.Context, id uuid.UUID) (*models.Repair, error) {
	var repair models.Repair
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&repair, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &repair, nil
}

func (r *Repository) DeviceExists(ctx context.Context, deviceID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Device{}).
		Where("id = ?", deviceID).
		Count(&count).
		Error
	return count > 0, err
}

func (r *Repository) Create(ctx context.Context, repair *models.Repair) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(repair).Error
}

// Update writes the mutable ticket fields. Status is written separately by
// the lifecycle.
func (r *Repository) Update(ctx context.Context, repair *models.Repair) error {
	return r.db.WithContext(ctx).
		Model(&models.Repair{}).
		Where("id = ?", repair.ID).
		Updates(map[string]any{
			"device_id":         repair.DeviceID,
			"serial_number":     repair.SerialNumber,
			"defect":            repair.Defect,
			"repair_difficulty": repair.Difficulty,
			"repair_type":       repair.RepairType,
			"note":              repair.Note,
		}).Error
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.RepairStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Repair{}).
		Where("id = ?", id).
		Update("status", status).
		Error
}

// Delete removes the repair and its usages.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&models.RepairPartUsage{}, "repair_id = ?", id).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&models.Repair{}, "id = ?", id).Error
}

// LockOpenUsages locks every usage of the repair that is not written off,
// ordered by part so concurrent repairs lock shared parts in the same order.
func (r *Repository) LockOpenUsages(ctx context.Context, repairID uuid.UUID) ([]models.RepairPartUsage, error) {
	var rows []models.RepairPartUsage
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("repair_id = ? AND written_off = ?", repairID, false).
		Order("part_id ASC").
		Find(&rows).
		Error
	return rows, err
}

func (r *Repository) MarkWrittenOff(ctx context.Context, usageID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.RepairPartUsage{}).
		Where("id = ?", usageID).
		Updates(map[string]any{
			"written_off":          true,
			"reservation_released": false,
		}).Error
}

func (r *Repository) MarkReleased(ctx context.Context, usageID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.RepairPartUsage{}).
		Where("id = ?", usageID).
		Update("reservation_released", true).
		Error
}

// ListFilter narrows repair listings. Zero values mean no filter.
type ListFilter struct {
	Status            enums.RepairStatus
	Difficulty        enums.RepairDifficulty
	DeviceID          uuid.UUID
	CreatedBy         uuid.UUID
	CreatedWithinDays int
	Search            string
}

// List returns repairs newest first, one row beyond the page size so the
// caller can detect the next page.
func (r *Repository) List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int, now time.Time) ([]models.Repair, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Repair{}).
		Preload("Device").
		Preload("Usages", preloadUsages).
		Preload("Usages.Part")

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Difficulty != "" {
		query = query.Where("repair_difficulty = ?", filter.Difficulty)
	}
	if filter.DeviceID != uuid.Nil {
		query = query.Where("device_id = ?", filter.DeviceID)
	}
	if filter.CreatedBy != uuid.Nil {
		query = query.Where("created_by = ?", filter.CreatedBy)
	}
	if filter.CreatedWithinDays > 0 {
		query = query.Where("created_at >= ?", now.UTC().AddDate(0, 0, -filter.CreatedWithinDays))
	}
	if term := strings.ToLower(strings.TrimSpace(filter.Search)); term != "" {
		like := "%" + term + "%"
		query = query.Where("LOWER(serial_number) LIKE ? OR LOWER(defect) LIKE ? OR LOWER(note) LIKE ?", like, like, like)
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Repair
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).
		Error
	return rows, err
}
