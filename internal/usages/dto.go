package usages

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/workshop-backend/pkg/db/models"
)

// UsageDTO is the API view of a repair part usage.
type UsageDTO struct {
	ID                  uuid.UUID       `json:"id"`
	RepairID            uuid.UUID       `json:"repair_id"`
	PartID              uuid.UUID       `json:"part_id"`
	PartCode            string          `json:"part_code"`
	PartName            string          `json:"part_name"`
	Quantity            int             `json:"quantity"`
	WrittenOff          bool            `json:"written_off"`
	ReservationReleased bool            `json:"reservation_released"`
	Cost                decimal.Decimal `json:"cost"`
	UsedAt              time.Time       `json:"date_used"`
}

func NewUsageDTO(usage *models.RepairPartUsage) *UsageDTO {
	if usage == nil {
		return nil
	}
	dto := &UsageDTO{
		ID:                  usage.ID,
		RepairID:            usage.RepairID,
		PartID:              usage.PartID,
		Quantity:            usage.Quantity,
		WrittenOff:          usage.WrittenOff,
		ReservationReleased: usage.ReservationReleased,
		Cost:                usage.Cost(),
		UsedAt:              usage.UsedAt,
	}
	if usage.Part != nil {
		dto.PartCode = usage.Part.Code
		dto.PartName = usage.Part.Name
	}
	return dto
}

// NewUsageDTOs maps usages in order.
func NewUsageDTOs(rows []models.RepairPartUsage) []UsageDTO {
	out := make([]UsageDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewUsageDTO(&rows[i]))
	}
	return out
}
