package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/workshop-backend/api/middleware"
	"github.com/angelmondragon/workshop-backend/api/responses"
	"github.com/angelmondragon/workshop-backend/api/validators"
	"github.com/angelmondragon/workshop-backend/internal/repairs"
	"github.com/angelmondragon/workshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/workshop-backend/pkg/errors"
	"github.com/angelmondragon/workshop-backend/pkg/logger"
	"github.com/angelmondragon/workshop-backend/pkg/pagination"
)

const maxBulkRepairs = 200

type repairCreateRequest struct {
	DeviceID     string  `json:"device_id" validate:"required,uuid"`
	SerialNumber string  `json:"serial_number" validate:"required,max=50"`
	Defect       string  `json:"defect" validate:"required"`
	Difficulty   string  `json:"repair_difficulty" validate:"omitempty,oneof=test simple normal difficult very_difficult"`
	Status       string  `json:"status" validate:"omitempty,oneof=new awaiting_parts in_progress completed closed"`
	RepairType   *string `json:"repair_type" validate:"omitempty,oneof=replacement cleaning diagnostics firmware"`
	Note         string  `json:"note"`
}

func (r repairCreateRequest) toInput(actorID uuid.UUID) (repairs.CreateInput, error) {
	deviceID, err := uuid.Parse(strings.TrimSpace(r.DeviceID))
	if err != nil {
		return repairs.CreateInput{}, pkgerrors.Field("device_id", "must be a valid UUID")
	}
	input := repairs.CreateInput{
		CreatedBy:    actorID,
		DeviceID:     deviceID,
		SerialNumber: r.SerialNumber,
		Defect:       r.Defect,
		Difficulty:   enums.RepairDifficulty(r.Difficulty),
		Status:       enums.RepairStatus(r.Status),
		Note:         r.Note,
	}
	if r.RepairType != nil {
		repairType := enums.RepairType(*r.RepairType)
		input.RepairType = &repairType
	}
	return input, nil
}

type repairUpdateRequest struct {
	DeviceID        *string `json:"device_id" validate:"omitempty,uuid"`
	SerialNumber    *string `json:"serial_number" validate:"omitempty,max=50"`
	Defect          *string `json:"defect"`
	Difficulty      *string `json:"repair_difficulty" validate:"omitempty,oneof=test simple normal difficult very_difficult"`
	Status          *string `json:"status" validate:"omitempty,oneof=new awaiting_parts in_progress completed closed"`
	RepairType      *string `json:"repair_type" validate:"omitempty,oneof=replacement cleaning diagnostics firmware"`
	ClearRepairType bool    `json:"clear_repair_type"`
	Note            *string `json:"note"`
}

func (r repairUpdateRequest) toInput() (repairs.UpdateInput, error) {
	input := repairs.UpdateInput{
		SerialNumber:    r.SerialNumber,
		Defect:          r.Defect,
		ClearRepairType: r.ClearRepairType,
		Note:            r.Note,
	}
	if r.DeviceID != nil {
		deviceID, err := uuid.Parse(strings.TrimSpace(*r.DeviceID))
		if err != nil {
			return repairs.UpdateInput{}, pkgerrors.Field("device_id", "must be a valid UUID")
		}
		input.DeviceID = &deviceID
	}
	if r.Difficulty != nil {
		difficulty := enums.RepairDifficulty(*r.Difficulty)
		input.Difficulty = &difficulty
	}
	if r.Status != nil {
		status := enums.RepairStatus(*r.Status)
		input.Status = &status
	}
	if r.RepairType != nil {
		repairType := enums.RepairType(*r.RepairType)
		input.RepairType = &repairType
	}
	return input, nil
}

type repairStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type bulkRepairsRequest struct {
	RepairIDs []string `json:"repair_ids" validate:"required,min=1,max=200,dive,uuid"`
}

func (r bulkRepairsRequest) ids() ([]uuid.UUID, error) {
	if len(r.RepairIDs) > maxBulkRepairs {
		return nil, pkgerrors.Field("repair_ids", "too many repairs")
	}
	ids := make([]uuid.UUID, 0, len(r.RepairIDs))
	for _, raw := range r.RepairIDs {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, pkgerrors.Field("repair_ids", "must contain valid UUIDs")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func RepairList(svc repairs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "repair service unavailable"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		days, err := validators.ParseQueryInt(r, "days", 0, 0, 365)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		deviceID, err := validators.ParseQueryUUID(r, "device_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		createdBy, err := validators.ParseQueryUUID(r, "created_by")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := r.URL.Query()
		filter := repairs.ListFilter{
			Status:            enums.RepairStatus(strings.TrimSpace(query.Get("status"))),
			Difficulty:        enums.RepairDifficulty(strings.TrimSpace(query.Get("repair_difficulty"))),
			DeviceID:          deviceID,
			CreatedBy:         createdBy,
			CreatedWithinDays: days,
			Search:            validators.SanitizeString(query.Get("search"), 100),
		}
		result, err := svc.List(r.Context(), filter, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(query.Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// RepairCreate requires the acting technician from the X-Actor-Id header.
func RepairCreate(svc repairs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "repair service unavailable"))
			return
		}
		actorID := middleware.ActorIDFromContext(r.Context())
		if actorID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Field(middleware.ActorHeader, "acting technician is required"))
			return
		}
		var payload repairCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput(actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		created, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func RepairGet(svc repairs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "repair service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "repairID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		repair, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, repair)
	}
}

func RepairUpdate(svc repairs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "repair service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "repairID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload repairUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updated, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func RepairDelete(svc repairs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "repair service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "repairID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func RepairTransitionStatus(svc repairs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "repair service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "repairID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload repairStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		repair, err := svc.TransitionStatus(r.Context(), id, enums.RepairStatus(strings.TrimSpace(payload.Status)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, repair)
	}
}

// RepairValidate reports whether the repair could move to ?status= right now.
func RepairValidate(svc repairs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "repair service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "repairID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := enums.RepairStatus(strings.TrimSpace(r.URL.Query().Get("status")))
		if status == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Field("status", "status is required"))
			return
		}
		if err := svc.Validate(r.Context(), id, status); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"repair_id": id, "status": status, "valid": true})
	}
}

func RepairWriteOff(svc repairs.Service, logg *logger.Logger) http.HandlerFunc {
	return repairAction(logg, svc, func(svc repairs.Service, r *http.Request, id uuid.UUID) (*repairs.ActionResult, error) {
		return svc.WriteOffParts(r.Context(), id)
	})
}

func RepairRelease(svc repairs.Service, logg *logger.Logger) http.HandlerFunc {
	return repairAction(logg, svc, func(svc repairs.Service, r *http.Request, id uuid.UUID) (*repairs.ActionResult, error) {
		return svc.ReleaseReservedParts(r.Context(), id)
	})
}

func repairAction(logg *logger.Logger, svc repairs.Service, run func(repairs.Service, *http.Request, uuid.UUID) (*repairs.ActionResult, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "repair service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "repairID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := run(svc, r, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func RepairBulkComplete(svc repairs.Service, logg *logger.Logger) http.HandlerFunc {
	return repairBulk(logg, svc, repairs.Service.MarkCompleted)
}

func RepairBulkWriteOff(svc repairs.Service, logg *logger.Logger) http.HandlerFunc {
	return repairBulk(logg, svc, repairs.Service.BulkWriteOff)
}

func RepairBulkRelease(svc repairs.Service, logg *logger.Logger) http.HandlerFunc {
	return repairBulk(logg, svc, repairs.Service.BulkRelease)
}

// Bulk endpoints answer 200 with per-repair outcomes even when some fail.
func repairBulk(logg *logger.Logger, svc repairs.Service, run func(repairs.Service, context.Context, []uuid.UUID) *repairs.BulkResult) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "repair service unavailable"))
			return
		}
		var payload bulkRepairsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ids, err := payload.ids()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, run(svc, r.Context(), ids))
	}
}
