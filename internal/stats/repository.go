package stats

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/workshop-backend/pkg/db/models"
	"github.com/angelmondragon/workshop-backend/pkg/enums"
)

// Repository runs the read-only reporting queries.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type countRow struct {
	Name  string
	Total int64
}

// CompletedCreatedAt returns the creation time of every completed repair.
func (r *Repository) CompletedCreatedAt(ctx context.Context) ([]time.Time, error) {
	var stamps []time.Time
	err := r.db.WithContext(ctx).
		Model(&models.Repair{}).
		Where("status = ?", enums.RepairStatusCompleted).
		Pluck("created_at", &stamps).
		Error
	return stamps, err
}

func (r *Repository) TopDevices(ctx context.Context, limit int) ([]countRow, error) {
	var rows []countRow
	err := r.db.WithContext(ctx).
		Table("repairs").
		Select("devices.name AS name, COUNT(repairs.id) AS total").
		Joins("JOIN devices ON devices.id = repairs.device_id").
		Group("devices.name").
		Order("total DESC, name ASC").
		Limit(limit).
		Scan(&rows).
		Error
	return rows, err
}

func (r *Repository) TopDefects(ctx context.Context, limit int) ([]countRow, error) {
	var rows []countRow
	err := r.db.WithContext(ctx).
		Table("repairs").
		Select("defect AS name, COUNT(id) AS total").
		Group("defect").
		Order("total DESC, name ASC").
		Limit(limit).
		Scan(&rows).
		Error
	return rows, err
}

func (r *Repository) CountByDifficulty(ctx context.Context) ([]countRow, error) {
	var rows []countRow
	err := r.db.WithContext(ctx).
		Table("repairs").
		Select("repair_difficulty AS name, COUNT(id) AS total").
		Group("repair_difficulty").
		Order("total DESC, name ASC").
		Scan(&rows).
		Error
	return rows, err
}

type costRow struct {
	RepairID     uuid.UUID
	SerialNumber string
	Total        decimal.Decimal
}

// PartsCostByRepair sums price * quantity over priced parts, most expensive
// repairs first.
func (r *Repository) PartsCostByRepair(ctx context.Context, limit int) ([]costRow, error) {
	var rows []costRow
	err := r.db.WithContext(ctx).
		Table("repair_part_usages AS u").
		Select("u.repair_id AS repair_id, repairs.serial_number AS serial_number, SUM(parts.price * u.quantity) AS total").
		Joins("JOIN parts ON parts.id = u.part_id").
		Joins("JOIN repairs ON repairs.id = u.repair_id").
		Where("parts.price IS NOT NULL").
		Group("u.repair_id, repairs.serial_number").
		Order("total DESC").
		Limit(limit).
		Scan(&rows).
		Error
	return rows, err
}
