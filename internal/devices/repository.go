package devices

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/workshop-backend/pkg/db/models"
)

// Repository persists the device catalogue.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Device, error) {
	var device models.Device
	if err := r.db.WithContext(ctx).First(&device, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *Repository) Create(ctx context.Context, device *models.Device) error {
	return r.db.WithContext(ctx).Create(device).Error
}

func (r *Repository) Update(ctx context.Context, device *models.Device) error {
	return r.db.WithContext(ctx).
		Model(&models.Device{}).
		Where("id = ?", device.ID).
		Updates(map[string]any{
			"name":        device.Name,
			"description": device.Description,
			"is_active":   device.IsActive,
		}).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Device{}, "id = ?", id).Error
}

// CountRepairs returns how many repairs reference the device.
func (r *Repository) CountRepairs(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Repair{}).
		Where("device_id = ?", id).
		Count(&count).
		Error
	return count, err
}

type ListFilter struct {
	Search     string
	ActiveOnly bool
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Device, error) {
	query := r.db.WithContext(ctx).Model(&models.Device{})
	if term := strings.ToLower(strings.TrimSpace(filter.Search)); term != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+term+"%")
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	var devices []models.Device
	if err := query.Order("name ASC").Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}
