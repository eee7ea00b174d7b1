package inventory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/workshop-backend/pkg/db/models"
)

// Repository persists parts and their stock counters.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Part, error) {
	var part models.Part
	if err := r.db.WithContext(ctx).First(&part, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &part, nil
}

// LockByID loads the part with SELECT ... FOR UPDATE.
func (r *Repository) LockByID(ctx context.Context, id uuid.UUID) (*models.Part, error) {
	var part models.Part
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&part, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &part, nil
}

func (r *Repository) Create(ctx context.Context, part *models.Part) error {
	return r.db.WithContext(ctx).Create(part).Error
}

// Update writes the editable catalogue fields and both counters.
func (r *Repository) Update(ctx context.Context, part *models.Part) error {
	return r.db.WithContext(ctx).
		Model(&models.Part{}).
		Where("id = ?", part.ID).
		Updates(map[string]any{
			"code":          part.Code,
			"name":          part.Name,
			"description":   part.Description,
			"current_stock": part.CurrentStock,
			"reserved":      part.Reserved,
			"min_stock":     part.MinStock,
			"price":         part.Price,
			"supplier":      part.Supplier,
		}).Error
}

// UpdateStock persists only the ledger counters.
func (r *Repository) UpdateStock(ctx context.Context, part *models.Part) error {
	return r.db.WithContext(ctx).
		Model(&models.Part{}).
		Where("id = ?", part.ID).
		Updates(map[string]any{
			"current_stock": part.CurrentStock,
			"reserved":      part.Reserved,
		}).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Part{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

// CountUsages returns how many repair usages reference the part.
func (r *Repository) CountUsages(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.RepairPartUsage{}).
		Where("part_id = ?", id).
		Count(&count).
		Error
	return count, err
}

// ListFilter narrows part listings.
type ListFilter struct {
	Search   string
	Supplier string
	LowStock *bool
}

const lowStockCondition = "current_stock - reserved < min_stock"

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Part, error) {
	query := r.db.WithContext(ctx).Model(&models.Part{})
	if term := strings.ToLower(strings.TrimSpace(filter.Search)); term != "" {
		like := "%" + term + "%"
		query = query.Where("LOWER(code) LIKE ? OR LOWER(name) LIKE ? OR LOWER(supplier) LIKE ?", like, like, like)
	}
	if supplier := strings.TrimSpace(filter.Supplier); supplier != "" {
		query = query.Where("supplier = ?", supplier)
	}
	if filter.LowStock != nil {
		if *filter.LowStock {
			query = query.Where(lowStockCondition)
		} else {
			query = query.Where("NOT (" + lowStockCondition + ")")
		}
	}

	var parts []models.Part
	if err := query.Order("code ASC").Find(&parts).Error; err != nil {
		return nil, err
	}
	return parts, nil
}

// ListLowStock returns parts whose available quantity is below min_stock.
func (r *Repository) ListLowStock(ctx context.Context) ([]models.Part, error) {
	low := true
	return r.List(ctx, ListFilter{LowStock: &low})
}
