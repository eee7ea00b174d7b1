package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/workshop-backend/pkg/db"
	"github.com/angelmondragon/workshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/workshop-backend/pkg/errors"
)

const partCodeIndex = "idx_parts_code"

// Service manages the parts catalogue.
type Service interface {
	CreatePart(ctx context.Context, input CreatePartInput) (*PartDTO, error)
	GetPart(ctx context.Context, id uuid.UUID) (*PartDTO, error)
	ListParts(ctx context.Context, filter ListFilter) ([]PartDTO, error)
	UpdatePart(ctx context.Context, id uuid.UUID, input UpdatePartInput) (*PartDTO, error)
	DeletePart(ctx context.Context, id uuid.UUID) error
}

type CreatePartInput struct {
	Code         string
	Name         string
	Description  string
	CurrentStock int
	Reserved     int
	MinStock     int
	Price        *decimal.Decimal
	Supplier     string
}

// UpdatePartInput carries optional changes. ClearPrice removes the price.
type UpdatePartInput struct {
	Code         *string
	Name         *string
	Description  *string
	CurrentStock *int
	Reserved     *int
	MinStock     *int
	Price        *decimal.Decimal
	ClearPrice   bool
	Supplier     *string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("part repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) CreatePart(ctx context.Context, input CreatePartInput) (*PartDTO, error) {
	part := &models.Part{
		Code:         strings.TrimSpace(input.Code),
		Name:         strings.TrimSpace(input.Name),
		Description:  strings.TrimSpace(input.Description),
		CurrentStock: input.CurrentStock,
		Reserved:     input.Reserved,
		MinStock:     input.MinStock,
		Supplier:     strings.TrimSpace(input.Supplier),
	}
	if input.Price != nil {
		part.Price = decimal.NewNullDecimal(input.Price.Round(2))
	}
	if err := validatePart(part); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, part); err != nil {
		return nil, mapWriteErr(err, "create part")
	}
	return NewPartDTO(part), nil
}

func (s *service) GetPart(ctx context.Context, id uuid.UUID) (*PartDTO, error) {
	part, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLoadErr(err)
	}
	return NewPartDTO(part), nil
}

func (s *service) ListParts(ctx context.Context, filter ListFilter) ([]PartDTO, error) {
	parts, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list parts")
	}
	return newPartDTOs(parts), nil
}

// UpdatePart edits the catalogue entry under the part row lock so manual
// counter corrections cannot interleave with ledger movements.
func (s *service) UpdatePart(ctx context.Context, id uuid.UUID, input UpdatePartInput) (*PartDTO, error) {
	var updated *models.Part
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		part, err := repo.LockByID(ctx, id)
		if err != nil {
			return mapLoadErr(err)
		}

		applyPartUpdate(part, input)
		if err := validatePart(part); err != nil {
			return err
		}
		if err := repo.Update(ctx, part); err != nil {
			return mapWriteErr(err, "update part")
		}
		updated = part
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewPartDTO(updated), nil
}

func (s *service) DeletePart(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.LockByID(ctx, id); err != nil {
			return mapLoadErr(err)
		}
		refs, err := repo.CountUsages(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count part usages")
		}
		if refs > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "part is used by repairs and cannot be deleted").
				WithDetails(map[string]any{"usages": refs})
		}
		if _, err := repo.Delete(ctx, id); err != nil {
			return mapWriteErr(err, "delete part")
		}
		return nil
	})
}

func applyPartUpdate(part *models.Part, input UpdatePartInput) {
	if input.Code != nil {
		part.Code = strings.TrimSpace(*input.Code)
	}
	if input.Name != nil {
		part.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		part.Description = strings.TrimSpace(*input.Description)
	}
	if input.CurrentStock != nil {
		part.CurrentStock = *input.CurrentStock
	}
	if input.Reserved != nil {
		part.Reserved = *input.Reserved
	}
	if input.MinStock != nil {
		part.MinStock = *input.MinStock
	}
	if input.Supplier != nil {
		part.Supplier = strings.TrimSpace(*input.Supplier)
	}
	switch {
	case input.ClearPrice:
		part.Price = decimal.NullDecimal{}
	case input.Price != nil:
		part.Price = decimal.NewNullDecimal(input.Price.Round(2))
	}
}

func validatePart(part *models.Part) error {
	fields := map[string]string{}
	if part.Code == "" {
		fields["code"] = "code is required"
	}
	if part.Name == "" {
		fields["name"] = "name is required"
	}
	if part.CurrentStock < 0 {
		fields["current_stock"] = "current_stock cannot be negative"
	}
	if part.Reserved < 0 {
		fields["reserved"] = "reserved cannot be negative"
	} else if part.Reserved > part.CurrentStock {
		fields["reserved"] = "reserved cannot exceed current stock"
	}
	if part.MinStock < 0 {
		fields["min_stock"] = "min_stock cannot be negative"
	}
	if part.Price.Valid && part.Price.Decimal.IsNegative() {
		fields["price"] = "price cannot be negative"
	}
	if len(fields) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid part").WithDetails(fields)
}

func mapLoadErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "part not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load part")
}

func mapWriteErr(err error, action string) error {
	switch {
	case db.IsUniqueViolation(err, partCodeIndex), db.IsUniqueViolation(err, "parts.code"):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "part code already exists").
			WithDetails(map[string]string{"code": "part code already exists"})
	case db.IsForeignKeyViolation(err):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "part is used by repairs")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
	}
}
