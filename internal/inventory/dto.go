package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/workshop-backend/pkg/db/models"
)

// PartDTO is the API view of a part including derived stock figures.
type PartDTO struct {
	ID             uuid.UUID           `json:"id"`
	Code           string              `json:"code"`
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	CurrentStock   int                 `json:"current_stock"`
	Reserved       int                 `json:"reserved"`
	AvailableStock int                 `json:"available_stock"`
	MinStock       int                 `json:"min_stock"`
	IsLowStock     bool                `json:"is_low_stock"`
	Price          decimal.NullDecimal `json:"price"`
	Supplier       string              `json:"supplier"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func NewPartDTO(part *models.Part) *PartDTO {
	if part == nil {
		return nil
	}
	return &PartDTO{
		ID:             part.ID,
		Code:           part.Code,
		Name:           part.Name,
		Description:    part.Description,
		CurrentStock:   part.CurrentStock,
		Reserved:       part.Reserved,
		AvailableStock: part.AvailableStock(),
		MinStock:       part.MinStock,
		IsLowStock:     part.IsLowStock(),
		Price:          part.Price,
		Supplier:       part.Supplier,
		CreatedAt:      part.CreatedAt,
		UpdatedAt:      part.UpdatedAt,
	}
}

func newPartDTOs(parts []models.Part) []PartDTO {
	out := make([]PartDTO, 0, len(parts))
	for i := range parts {
		out = append(out, *NewPartDTO(&parts[i]))
	}
	return out
}
