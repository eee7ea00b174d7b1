package devices

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/workshop-backend/pkg/db/models"
)

type DeviceDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewDeviceDTO(device *models.Device) *DeviceDTO {
	if device == nil {
		return nil
	}
	return &DeviceDTO{
		ID:          device.ID,
		Name:        device.Name,
		Description: device.Description,
		IsActive:    device.IsActive,
		CreatedAt:   device.CreatedAt,
		UpdatedAt:   device.UpdatedAt,
	}
}

func newDeviceDTOs(devices []models.Device) []DeviceDTO {
	out := make([]DeviceDTO, 0, len(devices))
	for i := range devices {
		out = append(out, *NewDeviceDTO(&devices[i]))
	}
	return out
}
