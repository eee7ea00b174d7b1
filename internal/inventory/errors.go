package inventory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/workshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/workshop-backend/pkg/errors"
)

var (
	// ErrInsufficientStock matches every shortage raised by the ledger.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvariantViolation matches ledger writes that would break 0 <= reserved <= current_stock.
	ErrInvariantViolation = errors.New("part stock invariant violated")
)

// Stock counters named by InsufficientStockError.Field.
const (
	FieldAvailableStock = "available_stock"
	FieldCurrentStock   = "current_stock"
)

// InsufficientStockError describes which part ran short and by how much.
type InsufficientStockError struct {
	PartID    uuid.UUID
	PartCode  string
	Field     string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for part %s: requested %d, %s %d",
		e.PartCode, e.Requested, strings.ReplaceAll(e.Field, "_", " "), e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// AsInsufficientStock extracts the structured shortage from err.
func AsInsufficientStock(err error) (*InsufficientStockError, bool) {
	var target *InsufficientStockError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// NewInsufficientStock builds the INSUFFICIENT_STOCK error naming part.
func NewInsufficientStock(part *models.Part, field string, requested, available int) error {
	cause := &InsufficientStockError{
		PartID:    part.ID,
		PartCode:  part.Code,
		Field:     field,
		Requested: requested,
		Available: available,
	}
	return pkgerrors.Wrap(pkgerrors.CodeInsufficientStock, cause, cause.Error()).WithDetails(map[string]any{
		"part_id":   part.ID,
		"part_code": part.Code,
		"field":     field,
		"requested": requested,
		"available": available,
	})
}

// CheckInvariant verifies 0 <= reserved <= current_stock for part.
func CheckInvariant(part *models.Part) error {
	if part.CurrentStock >= 0 && part.Reserved >= 0 && part.Reserved <= part.CurrentStock {
		return nil
	}
	cause := fmt.Errorf("%w: part %s current_stock=%d reserved=%d",
		ErrInvariantViolation, part.Code, part.CurrentStock, part.Reserved)
	return pkgerrors.Wrap(pkgerrors.CodeInvariantViolation, cause, "part stock invariant violated")
}
