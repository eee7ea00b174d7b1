package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Device is a catalogue entry for the hardware the workshop services.
type Device struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;size:100;not null;uniqueIndex:idx_devices_name"`
	Description string    `gorm:"column:description;not null"`
	IsActive    bool      `gorm:"column:is_active;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (d *Device) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// DefaultDeviceNames are seeded into fresh databases.
var DefaultDeviceNames = []string{
	"Advance Mei Bill",
	"Bill UBAPRO",
	"CashCode Bill",
	"Counter Board",
}
