package repairs

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/workshop-backend/internal/usages"
	"github.com/angelmondragon/workshop-backend/pkg/db/models"
	"github.com/angelmondragon/workshop-backend/pkg/enums"
)

// RepairDTO is the API view of a repair with its usages and parts cost.
type RepairDTO struct {
	ID           uuid.UUID              `json:"id"`
	DeviceID     uuid.UUID              `json:"device_id"`
	DeviceName   string                 `json:"device_name,omitempty"`
	CreatedBy    uuid.UUID              `json:"created_by"`
	SerialNumber string                 `json:"serial_number"`
	Defect       string                 `json:"defect"`
	Difficulty   enums.RepairDifficulty `json:"repair_difficulty"`
	Status       enums.RepairStatus     `json:"status"`
	StatusLabel  string                 `json:"status_label"`
	RepairType   *enums.RepairType      `json:"repair_type"`
	Note         string                 `json:"note"`
	Usages       []usages.UsageDTO      `json:"usages"`
	PartsCost    decimal.Decimal        `json:"parts_cost"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

type ListResult struct {
	Items      []RepairDTO `json:"items"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// ActionResult reports how many usages a write-off or release touched.
type ActionResult struct {
	RepairID uuid.UUID          `json:"repair_id"`
	Status   enums.RepairStatus `json:"status"`
	Affected int                `json:"affected"`
}

// TotalPartsCost sums price times quantity over usages whose part is priced.
func TotalPartsCost(repair *models.Repair) decimal.Decimal {
	total := decimal.Zero
	for _, usage := range repair.Usages {
		total = total.Add(usage.Cost())
	}
	return total
}

func NewRepairDTO(repair *models.Repair) *RepairDTO {
	if repair == nil {
		return nil
	}
	dto := &RepairDTO{
		ID:           repair.ID,
		DeviceID:     repair.DeviceID,
		CreatedBy:    repair.CreatedBy,
		SerialNumber: repair.SerialNumber,
		Defect:       repair.Defect,
		Difficulty:   repair.Difficulty,
		Status:       repair.Status,
		StatusLabel:  repair.Status.Label(),
		RepairType:   repair.RepairType,
		Note:         repair.Note,
		Usages:       usages.NewUsageDTOs(repair.Usages),
		PartsCost:    TotalPartsCost(repair),
		CreatedAt:    repair.CreatedAt,
		UpdatedAt:    repair.UpdatedAt,
	}
	if repair.Device != nil {
		dto.DeviceName = repair.Device.Name
	}
	return dto
}
