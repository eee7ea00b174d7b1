package repairs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/workshop-backend/internal/notifications"
	"github.com/angelmondragon/workshop-backend/pkg/db"
	"github.com/angelmondragon/workshop-backend/pkg/db/models"
	"github.com/angelmondragon/workshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/workshop-backend/pkg/errors"
	"github.com/angelmondragon/workshop-backend/pkg/logger"
	"github.com/angelmondragon/workshop-backend/pkg/pagination"
)

const maxSerialLength = 50

// CreatedWithinDays values accepted by list filters.
var allowedWindows = map[int]bool{7: true, 30: true, 365: true}

// Service exposes the repair ticket lifecycle.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*RepairDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*RepairDTO, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) (*ListResult, error)
	// Update edits ticket fields; a status change runs through TransitionStatus
	// in the same transaction.
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*RepairDTO, error)
	// Delete returns held reservations and removes the repair with its usages.
	Delete(ctx context.Context, id uuid.UUID) error

	TransitionStatus(ctx context.Context, id uuid.UUID, status enums.RepairStatus) (*RepairDTO, error)
	// Validate checks whether the repair could enter status right now.
	Validate(ctx context.Context, id uuid.UUID, status enums.RepairStatus) error
	WriteOffParts(ctx context.Context, id uuid.UUID) (*ActionResult, error)
	ReleaseReservedParts(ctx context.Context, id uuid.UUID) (*ActionResult, error)

	MarkCompleted(ctx context.Context, ids []uuid.UUID) *BulkResult
	BulkWriteOff(ctx context.Context, ids []uuid.UUID) *BulkResult
	BulkRelease(ctx context.Context, ids []uuid.UUID) *BulkResult
}

type CreateInput struct {
	CreatedBy    uuid.UUID
	DeviceID     uuid.UUID
	SerialNumber string
	Defect       string
	Difficulty   enums.RepairDifficulty
	Status       enums.RepairStatus
	RepairType   *enums.RepairType
	Note         string
}

// UpdateInput carries optional changes. ClearRepairType removes the type.
type UpdateInput struct {
	DeviceID        *uuid.UUID
	SerialNumber    *string
	Defect          *string
	Difficulty      *enums.RepairDifficulty
	Status          *enums.RepairStatus
	RepairType      *enums.RepairType
	ClearRepairType bool
	Note            *string
}

type notifier interface {
	Notify(ctx context.Context, message string)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Repo      *Repository
	Lifecycle *Lifecycle
	Tx        txRunner
	Notifier  notifier
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	repo      *Repository
	lifecycle *Lifecycle
	tx        txRunner
	notifier  notifier
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("repair repository required")
	}
	if params.Lifecycle == nil {
		return nil, fmt.Errorf("repair lifecycle required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:      params.Repo,
		lifecycle: params.Lifecycle,
		tx:        params.Tx,
		notifier:  params.Notifier,
		logg:      params.Logger,
		now:       now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*RepairDTO, error) {
	if input.CreatedBy == uuid.Nil {
		return nil, pkgerrors.Field("created_by", "acting technician is required")
	}
	repair := &models.Repair{
		DeviceID:     input.DeviceID,
		CreatedBy:    input.CreatedBy,
		SerialNumber: strings.TrimSpace(input.SerialNumber),
		Defect:       strings.TrimSpace(input.Defect),
		Difficulty:   input.Difficulty,
		Status:       input.Status,
		RepairType:   input.RepairType,
		Note:         strings.TrimSpace(input.Note),
	}
	if repair.Difficulty == "" {
		repair.Difficulty = enums.RepairDifficultyNormal
	}
	if repair.Status == "" {
		repair.Status = enums.RepairStatusNew
	}
	if err := validateRepair(repair); err != nil {
		return nil, err
	}
	// A new repair has no usages, so a terminal initial status writes nothing off.

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := ensureDevice(ctx, repo, repair.DeviceID); err != nil {
			return err
		}
		if err := repo.Create(ctx, repair); err != nil {
			return mapWriteErr(err, "create repair")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithRepairID(ctx, repair.ID.String()), "repair created")
	return s.Get(ctx, repair.ID)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*RepairDTO, error) {
	repair, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLoadErr(err)
	}
	return NewRepairDTO(repair), nil
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) (*ListResult, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, pkgerrors.Field("status", "unknown status")
	}
	if filter.Difficulty != "" && !filter.Difficulty.IsValid() {
		return nil, pkgerrors.Field("repair_difficulty", "unknown difficulty")
	}
	if filter.CreatedWithinDays != 0 && !allowedWindows[filter.CreatedWithinDays] {
		return nil, pkgerrors.Field("days", "days must be one of 7, 30, 365")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Field("cursor", "invalid cursor")
	}

	rows, err := s.repo.List(ctx, filter, cursor, pagination.LimitWithBuffer(params.Limit), s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list repairs")
	}
	rows, next := pagination.Trim(rows, params.Limit, func(r models.Repair) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})

	items := make([]RepairDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *NewRepairDTO(&rows[i]))
	}
	return &ListResult{Items: items, NextCursor: next}, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*RepairDTO, error) {
	if input.Status != nil {
		if err := s.Validate(ctx, id, *input.Status); err != nil {
			return nil, err
		}
	}

	var (
		previous enums.RepairStatus
		changed  bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		repair, err := repo.LockByID(ctx, id)
		if err != nil {
			return mapLoadErr(err)
		}
		previous = repair.Status

		deviceChanged := input.DeviceID != nil && *input.DeviceID != repair.DeviceID
		applyUpdate(repair, input)
		if err := validateRepair(repair); err != nil {
			return err
		}
		if deviceChanged {
			if err := ensureDevice(ctx, repo, repair.DeviceID); err != nil {
				return err
			}
		}
		if err := repo.Update(ctx, repair); err != nil {
			return mapWriteErr(err, "update repair")
		}

		if input.Status != nil {
			// applyUpdate leaves Status alone so the lifecycle sees the persisted value.
			changed, err = s.lifecycle.Transition(ctx, tx, repair, *input.Status)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.afterStatusChange(ctx, id, previous, changed)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	var released int
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.LockByID(ctx, id); err != nil {
			return mapLoadErr(err)
		}
		n, err := s.lifecycle.Release(ctx, tx, id)
		if err != nil {
			return err
		}
		released = n
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete repair")
		}
		return nil
	})
	if err != nil {
		return err
	}

	logCtx := s.logg.WithFields(s.logg.WithRepairID(ctx, id.String()), map[string]any{"released_usages": released})
	s.logg.Info(logCtx, "repair deleted")
	return nil
}

func (s *service) TransitionStatus(ctx context.Context, id uuid.UUID, status enums.RepairStatus) (*RepairDTO, error) {
	var (
		previous enums.RepairStatus
		changed  bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repair, err := s.repo.WithTx(tx).LockByID(ctx, id)
		if err != nil {
			return mapLoadErr(err)
		}
		previous = repair.Status
		changed, err = s.lifecycle.Transition(ctx, tx, repair, status)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.afterStatusChange(ctx, id, previous, changed)
}

func (s *service) Validate(ctx context.Context, id uuid.UUID, status enums.RepairStatus) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repair, err := s.repo.WithTx(tx).LockByID(ctx, id)
		if err != nil {
			return mapLoadErr(err)
		}
		return s.lifecycle.Validate(ctx, tx, repair, status)
	})
}

func (s *service) WriteOffParts(ctx context.Context, id uuid.UUID) (*ActionResult, error) {
	result, err := s.runAction(ctx, id, s.lifecycle.WriteOff)
	if err != nil {
		return nil, err
	}
	s.logAction(ctx, result, "repair parts written off")
	return result, nil
}

func (s *service) ReleaseReservedParts(ctx context.Context, id uuid.UUID) (*ActionResult, error) {
	result, err := s.runAction(ctx, id, s.lifecycle.Release)
	if err != nil {
		return nil, err
	}
	s.logAction(ctx, result, "repair reservations released")
	return result, nil
}

func (s *service) MarkCompleted(ctx context.Context, ids []uuid.UUID) *BulkResult {
	return s.bulk(ctx, "mark_completed", ids, func(ctx context.Context, id uuid.UUID) error {
		_, err := s.TransitionStatus(ctx, id, enums.RepairStatusCompleted)
		return err
	})
}

func (s *service) BulkWriteOff(ctx context.Context, ids []uuid.UUID) *BulkResult {
	return s.bulk(ctx, "write_off", ids, func(ctx context.Context, id uuid.UUID) error {
		_, err := s.WriteOffParts(ctx, id)
		return err
	})
}

func (s *service) BulkRelease(ctx context.Context, ids []uuid.UUID) *BulkResult {
	return s.bulk(ctx, "release", ids, func(ctx context.Context, id uuid.UUID) error {
		_, err := s.ReleaseReservedParts(ctx, id)
		return err
	})
}

type usageAction func(ctx context.Context, tx *gorm.DB, repairID uuid.UUID) (int, error)

func (s *service) runAction(ctx context.Context, id uuid.UUID, action usageAction) (*ActionResult, error) {
	result := &ActionResult{RepairID: id}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repair, err := s.repo.WithTx(tx).LockByID(ctx, id)
		if err != nil {
			return mapLoadErr(err)
		}
		result.Status = repair.Status
		result.Affected, err = action(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) logAction(ctx context.Context, result *ActionResult, msg string) {
	logCtx := s.logg.WithFields(s.logg.WithRepairID(ctx, result.RepairID.String()), map[string]any{
		"usages": result.Affected,
	})
	s.logg.Info(logCtx, msg)
}

// afterStatusChange runs once the transaction committed: it reloads the repair
// and queues the status notification when one is due.
func (s *service) afterStatusChange(ctx context.Context, id uuid.UUID, previous enums.RepairStatus, changed bool) (*RepairDTO, error) {
	repair, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLoadErr(err)
	}
	if !changed {
		return NewRepairDTO(repair), nil
	}

	logCtx := s.logg.WithFields(s.logg.WithRepairID(ctx, id.String()), map[string]any{
		"from": previous.String(),
		"to":   repair.Status.String(),
	})
	s.logg.Info(logCtx, "repair status changed")

	if s.notifier != nil && notifications.ShouldNotify(repair.Status) {
		s.notifier.Notify(logCtx, notifications.StatusChangeMessage(repair))
	}
	return NewRepairDTO(repair), nil
}

func applyUpdate(repair *models.Repair, input UpdateInput) {
	if input.DeviceID != nil {
		repair.DeviceID = *input.DeviceID
	}
	if input.SerialNumber != nil {
		repair.SerialNumber = strings.TrimSpace(*input.SerialNumber)
	}
	if input.Defect != nil {
		repair.Defect = strings.TrimSpace(*input.Defect)
	}
	if input.Difficulty != nil {
		repair.Difficulty = *input.Difficulty
	}
	if input.Note != nil {
		repair.Note = strings.TrimSpace(*input.Note)
	}
	switch {
	case input.ClearRepairType:
		repair.RepairType = nil
	case input.RepairType != nil:
		rt := *input.RepairType
		repair.RepairType = &rt
	}
}

func validateRepair(repair *models.Repair) error {
	fields := map[string]string{}
	if repair.DeviceID == uuid.Nil {
		fields["device_id"] = "device is required"
	}
	if repair.SerialNumber == "" {
		fields["serial_number"] = "serial number is required"
	} else if len(repair.SerialNumber) > maxSerialLength {
		fields["serial_number"] = fmt.Sprintf("serial number must be at most %d characters", maxSerialLength)
	}
	if repair.Defect == "" {
		fields["defect"] = "defect is required"
	}
	if !repair.Difficulty.IsValid() {
		fields["repair_difficulty"] = "unknown difficulty"
	}
	if !repair.Status.IsValid() {
		fields["status"] = "unknown status"
	}
	if repair.RepairType != nil && !repair.RepairType.IsValid() {
		fields["repair_type"] = "unknown repair type"
	}
	if len(fields) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid repair").WithDetails(fields)
}

func ensureDevice(ctx context.Context, repo *Repository, deviceID uuid.UUID) error {
	exists, err := repo.DeviceExists(ctx, deviceID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load device")
	}
	if !exists {
		return pkgerrors.Field("device_id", "device not found")
	}
	return nil
}

func mapLoadErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "repair not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load repair")
}

func mapWriteErr(err error, action string) error {
	if db.IsForeignKeyViolation(err) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "device not found").
			WithDetails(map[string]string{"device_id": "device not found"})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
