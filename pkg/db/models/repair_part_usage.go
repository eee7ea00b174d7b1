package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RepairPartUsage records a quantity of a part consumed by a repair.
// While neither WrittenOff nor ReservationReleased is set, Quantity is held in
// the part's reserved counter.
type RepairPartUsage struct {
	ID                  uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	RepairID            uuid.UUID `gorm:"column:repair_id;type:uuid;not null;uniqueIndex:idx_usages_repair_part"`
	PartID              uuid.UUID `gorm:"column:part_id;type:uuid;not null;uniqueIndex:idx_usages_repair_part;index:idx_usages_part"`
	Part                *Part     `gorm:"foreignKey:PartID;constraint:OnDelete:RESTRICT"`
	Quantity            int       `gorm:"column:quantity;not null;check:chk_usages_quantity,quantity >= 1"`
	WrittenOff          bool      `gorm:"column:written_off;not null"`
	ReservationReleased bool      `gorm:"column:reservation_released;not null"`
	UsedAt              time.Time `gorm:"column:date_used;autoCreateTime"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *RepairPartUsage) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Holding reports whether the usage still occupies part reservations.
func (u RepairPartUsage) Holding() bool {
	return !u.WrittenOff && !u.ReservationReleased
}

// Cost is price times quantity, or zero when the part has no price.
func (u RepairPartUsage) Cost() decimal.Decimal {
	if u.Part == nil || !u.Part.Price.Valid {
		return decimal.Zero
	}
	return u.Part.Price.Decimal.Mul(decimal.NewFromInt(int64(u.Quantity)))
}
