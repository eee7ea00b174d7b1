package devices

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/workshop-backend/pkg/db"
	"github.com/angelmondragon/workshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/workshop-backend/pkg/errors"
)

const (
	deviceNameIndex = "idx_devices_name"
	maxNameLength   = 100
)

// Service manages the device catalogue.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*DeviceDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*DeviceDTO, error)
	List(ctx context.Context, filter ListFilter) ([]DeviceDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*DeviceDTO, error)
	// Delete fails with CONFLICT while any repair references the device.
	Delete(ctx context.Context, id uuid.UUID) error
}

type CreateInput struct {
	Name        string
	Description string
	IsActive    *bool
}

type UpdateInput struct {
	Name        *string
	Description *string
	IsActive    *bool
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
		return nil, fmt.Errorf("device repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*DeviceDTO, error) {
	device := &models.Device{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		IsActive:    true,
	}
	if input.IsActive != nil {
		device.IsActive = *input.IsActive
	}
	if err := validateDevice(device); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, device); err != nil {
		return nil, mapWriteErr(err, "create device")
	}
	return NewDeviceDTO(device), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*DeviceDTO, error) {
	device, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLoadErr(err)
	}
	return NewDeviceDTO(device), nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]DeviceDTO, error) {
	devices, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list devices")
	}
	return newDeviceDTOs(devices), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*DeviceDTO, error) {
	var updated *models.Device
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		device, err := repo.FindByID(ctx, id)
		if err != nil {
			return mapLoadErr(err)
		}
		if input.Name != nil {
			device.Name = strings.TrimSpace(*input.Name)
		}
		if input.Description != nil {
			device.Description = strings.TrimSpace(*input.Description)
		}
		if input.IsActive != nil {
			device.IsActive = *input.IsActive
		}
		if err := validateDevice(device); err != nil {
			return err
		}
		if err := repo.Update(ctx, device); err != nil {
			return mapWriteErr(err, "update device")
		}
		updated = device
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewDeviceDTO(updated), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, id); err != nil {
			return mapLoadErr(err)
		}
		refs, err := repo.CountRepairs(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count device repairs")
		}
		if refs > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "device is referenced by repairs and cannot be deleted").
				WithDetails(map[string]any{"repairs": refs})
		}
		if err := repo.Delete(ctx, id); err != nil {
			return mapWriteErr(err, "delete device")
		}
		return nil
	})
}

func validateDevice(device *models.Device) error {
	switch {
	case device.Name == "":
		return pkgerrors.Field("name", "name is required")
	case len(device.Name) > maxNameLength:
		return pkgerrors.Field("name", fmt.Sprintf("name must be at most %d characters", maxNameLength))
	}
	return nil
}

func mapLoadErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "device not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load device")
}

func mapWriteErr(err error, action string) error {
	switch {
	case db.IsUniqueViolation(err, deviceNameIndex), db.IsUniqueViolation(err, "devices.name"):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "device name already exists").
			WithDetails(map[string]string{"name": "device name already exists"})
	case db.IsForeignKeyViolation(err):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "device is referenced by repairs")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
	}
}
