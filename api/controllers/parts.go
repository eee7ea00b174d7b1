package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/workshop-backend/api/responses"
	"github.com/angelmondragon/workshop-backend/api/validators"
	"github.com/angelmondragon/workshop-backend/internal/inventory"
	pkgerrors "github.com/angelmondragon/workshop-backend/pkg/errors"
	"github.com/angelmondragon/workshop-backend/pkg/logger"
)

type partCreateRequest struct {
	Code         string           `json:"code" validate:"required,max=50"`
	Name         string           `json:"name" validate:"required,max=200"`
	Description  string           `json:"description"`
	CurrentStock int              `json:"current_stock" validate:"gte=0"`
	Reserved     int              `json:"reserved" validate:"gte=0"`
	MinStock     int              `json:"min_stock" validate:"gte=0"`
	Price        *decimal.Decimal `json:"price"`
	Supplier     string           `json:"supplier" validate:"max=200"`
}

func (r partCreateRequest) toInput() (inventory.CreatePartInput, error) {
	if r.Price != nil && r.Price.IsNegative() {
		return inventory.CreatePartInput{}, pkgerrors.Field("price", "price must not be negative")
	}
	return inventory.CreatePartInput{
		Code:         r.Code,
		Name:         r.Name,
		Description:  r.Description,
		CurrentStock: r.CurrentStock,
		Reserved:     r.Reserved,
		MinStock:     r.MinStock,
		Price:        r.Price,
		Supplier:     r.Supplier,
	}, nil
}

// Stock fields here are an administrative correction, not a usage.
type partUpdateRequest struct {
	Code         *string          `json:"code" validate:"omitempty,max=50"`
	Name         *string          `json:"name" validate:"omitempty,max=200"`
	Description  *string          `json:"description"`
	CurrentStock *int             `json:"current_stock" validate:"omitempty,gte=0"`
	Reserved     *int             `json:"reserved" validate:"omitempty,gte=0"`
	MinStock     *int             `json:"min_stock" validate:"omitempty,gte=0"`
	Price        *decimal.Decimal `json:"price"`
	ClearPrice   bool             `json:"clear_price"`
	Supplier     *string          `json:"supplier" validate:"omitempty,max=200"`
}

func (r partUpdateRequest) toInput() (inventory.UpdatePartInput, error) {
	if r.Price != nil && r.Price.IsNegative() {
		return inventory.UpdatePartInput{}, pkgerrors.Field("price", "price must not be negative")
	}
	return inventory.UpdatePartInput{
		Code:         r.Code,
		Name:         r.Name,
		Description:  r.Description,
		CurrentStock: r.CurrentStock,
		Reserved:     r.Reserved,
		MinStock:     r.MinStock,
		Price:        r.Price,
		ClearPrice:   r.ClearPrice,
		Supplier:     r.Supplier,
	}, nil
}

func PartList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "part service unavailable"))
			return
		}
		lowStock, err := validators.ParseQueryBool(r, "low_stock")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query := r.URL.Query()
		parts, err := svc.ListParts(r.Context(), inventory.ListFilter{
			Search:   validators.SanitizeString(query.Get("search"), 100),
			Supplier: validators.SanitizeString(query.Get("supplier"), 200),
			LowStock: lowStock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, parts)
	}
}

func PartCreate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "part service unavailable"))
			return
		}
		var payload partCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		part, err := svc.CreatePart(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, part)
	}
}

func PartGet(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "part service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "partID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		part, err := svc.GetPart(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, part)
	}
}

func PartUpdate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "part service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "partID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload partUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		part, err := svc.UpdatePart(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, part)
	}
}

func PartDelete(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "part service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "partID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeletePart(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
