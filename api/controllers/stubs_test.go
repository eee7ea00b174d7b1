package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/workshop-backend/internal/devices"
	"github.com/angelmondragon/workshop-backend/internal/inventory"
	"github.com/angelmondragon/workshop-backend/internal/repairs"
	"github.com/angelmondragon/workshop-backend/internal/usages"
	"github.com/angelmondragon/workshop-backend/pkg/enums"
	"github.com/angelmondragon/workshop-backend/pkg/pagination"
)

func withRouteParam(req *http.Request, key, value string) *http.Request {
	rc := chi.RouteContext(req.Context())
	if rc == nil {
		rc = chi.NewRouteContext()
	}
	rc.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

type stubRepairService struct {
	repairs.Service

	dto          *repairs.RepairDTO
	list         *repairs.ListResult
	action       *repairs.ActionResult
	bulk         *repairs.BulkResult
	err          error
	createInput  repairs.CreateInput
	updateInput  repairs.UpdateInput
	listFilter   repairs.ListFilter
	listParams   pagination.Params
	status       enums.RepairStatus
	bulkIDs      []uuid.UUID
	bulkAction   string
	validateCall bool
}

func (s *stubRepairService) Create(_ context.Context, input repairs.CreateInput) (*repairs.RepairDTO, error) {
	s.createInput = input
	return s.dto, s.err
}

func (s *stubRepairService) Get(_ context.Context, _ uuid.UUID) (*repairs.RepairDTO, error) {
	return s.dto, s.err
}

func (s *stubRepairService) List(_ context.Context, filter repairs.ListFilter, params pagination.Params) (*repairs.ListResult, error) {
	s.listFilter = filter
	s.listParams = params
	return s.list, s.err
}

func (s *stubRepairService) Update(_ context.Context, _ uuid.UUID, input repairs.UpdateInput) (*repairs.RepairDTO, error) {
	s.updateInput = input
	return s.dto, s.err
}

func (s *stubRepairService) TransitionStatus(_ context.Context, _ uuid.UUID, status enums.RepairStatus) (*repairs.RepairDTO, error) {
	s.status = status
	return s.dto, s.err
}

func (s *stubRepairService) Validate(_ context.Context, _ uuid.UUID, status enums.RepairStatus) error {
	s.validateCall = true
	s.status = status
	return s.err
}

func (s *stubRepairService) WriteOffParts(_ context.Context, _ uuid.UUID) (*repairs.ActionResult, error) {
	return s.action, s.err
}

func (s *stubRepairService) MarkCompleted(_ context.Context, ids []uuid.UUID) *repairs.BulkResult {
	s.bulkIDs = ids
	s.bulkAction = "complete"
	return s.bulk
}

func (s *stubRepairService) BulkRelease(_ context.Context, ids []uuid.UUID) *repairs.BulkResult {
	s.bulkIDs = ids
	s.bulkAction = "release"
	return s.bulk
}

type stubPartService struct {
	inventory.Service

	dto         *inventory.PartDTO
	list        []inventory.PartDTO
	err         error
	createInput inventory.CreatePartInput
	updateInput inventory.UpdatePartInput
	filter      inventory.ListFilter
	deleted     uuid.UUID
}

func (s *stubPartService) CreatePart(_ context.Context, input inventory.CreatePartInput) (*inventory.PartDTO, error) {
	s.createInput = input
	return s.dto, s.err
}

func (s *stubPartService) ListParts(_ context.Context, filter inventory.ListFilter) ([]inventory.PartDTO, error) {
	s.filter = filter
	return s.list, s.err
}

func (s *stubPartService) UpdatePart(_ context.Context, _ uuid.UUID, input inventory.UpdatePartInput) (*inventory.PartDTO, error) {
	s.updateInput = input
	return s.dto, s.err
}

func (s *stubPartService) DeletePart(_ context.Context, id uuid.UUID) error {
	s.deleted = id
	return s.err
}

type stubUsageService struct {
	usages.Service

	dto         *usages.UsageDTO
	err         error
	createInput usages.CreateInput
	quantity    int
}

func (s *stubUsageService) Create(_ context.Context, input usages.CreateInput) (*usages.UsageDTO, error) {
	s.createInput = input
	return s.dto, s.err
}

func (s *stubUsageService) UpdateQuantity(_ context.Context, _ uuid.UUID, quantity int) (*usages.UsageDTO, error) {
	s.quantity = quantity
	return s.dto, s.err
}

type stubDeviceService struct {
	devices.Service

	dto    *devices.DeviceDTO
	list   []devices.DeviceDTO
	err    error
	filter devices.ListFilter
}

func (s *stubDeviceService) List(_ context.Context, filter devices.ListFilter) ([]devices.DeviceDTO, error) {
	s.filter = filter
	return s.list, s.err
}

func (s *stubDeviceService) Delete(_ context.Context, _ uuid.UUID) error {
	return s.err
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}
