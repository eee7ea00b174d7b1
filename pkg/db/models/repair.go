package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/workshop-backend/pkg/enums"
)

// Repair is a single workshop ticket.
type Repair struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	DeviceID     uuid.UUID              `gorm:"column:device_id;type:uuid;not null;index:idx_repairs_device"`
	Device       *Device                `gorm:"foreignKey:DeviceID;constraint:OnDelete:RESTRICT"`
	CreatedBy    uuid.UUID              `gorm:"column:created_by;type:uuid;not null;index:idx_repairs_created_by"`
	SerialNumber string                 `gorm:"column:serial_number;size:50;not null;index:idx_repairs_serial"`
	Defect       string                 `gorm:"column:defect;not null"`
	Difficulty   enums.RepairDifficulty `gorm:"column:repair_difficulty;size:20;not null"`
	Status       enums.RepairStatus     `gorm:"column:status;size:20;not null;index:idx_repairs_status"`
	RepairType   *enums.RepairType      `gorm:"column:repair_type;size:20"`
	Note         string                 `gorm:"column:note;not null"`
	Usages       []RepairPartUsage      `gorm:"foreignKey:RepairID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime;index:idx_repairs_created_at"`
	UpdatedAt    time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Repair) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
