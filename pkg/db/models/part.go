package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Part is a stock-keeping unit together with its ledger counters.
type Part struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Code         string              `gorm:"column:code;size:50;not null;uniqueIndex:idx_parts_code"`
	Name         string              `gorm:"column:name;size:200;not null"`
	Description  string              `gorm:"column:description;not null"`
	CurrentStock int                 `gorm:"column:current_stock;not null;check:chk_parts_current_stock,current_stock >= 0"`
	Reserved     int                 `gorm:"column:reserved;not null;check:chk_parts_reserved,reserved >= 0"`
	MinStock     int                 `gorm:"column:min_stock;not null;check:chk_parts_min_stock,min_stock >= 0"`
	Price        decimal.NullDecimal `gorm:"column:price;type:numeric(10,2)"`
	Supplier     string              `gorm:"column:supplier;size:200;not null"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Part) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// AvailableStock is the quantity that can still be promised to repairs.
func (p Part) AvailableStock() int {
	return p.CurrentStock - p.Reserved
}

// IsLowStock reports whether the available quantity fell below the threshold.
func (p Part) IsLowStock() bool {
	return p.AvailableStock() < p.MinStock
}
