package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/workshop-backend/internal/devices"
	"github.com/angelmondragon/workshop-backend/internal/inventory"
	"github.com/angelmondragon/workshop-backend/internal/usages"
	pkgerrors "github.com/angelmondragon/workshop-backend/pkg/errors"
)

func TestPartCreateParsesPrice(t *testing.T) {
	svc := &stubPartService{dto: &inventory.PartDTO{ID: uuid.New(), Code: "BELT"}}
	body := `{"code":"BELT","name":"Drive belt","current_stock":3,"min_stock":1,"price":"12.50"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/parts", strings.NewReader(body))
	rec := httptest.NewRecorder()

	PartCreate(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.createInput.Price)
	assert.True(t, decimal.RequireFromString("12.50").Equal(*svc.createInput.Price))
	assert.Equal(t, 3, svc.createInput.CurrentStock)
}

func TestPartCreateRejectsNegativeValues(t *testing.T) {
	cases := []string{
		`{"code":"BELT","name":"Drive belt","current_stock":-1}`,
		`{"code":"BELT","name":"Drive belt","price":"-1"}`,
		`{"name":"Drive belt"}`,
	}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/parts", strings.NewReader(body))
		rec := httptest.NewRecorder()
		PartCreate(&stubPartService{}, nil).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestPartUpdateClearPrice(t *testing.T) {
	svc := &stubPartService{dto: &inventory.PartDTO{}}
	partID := uuid.New()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/parts/"+partID.String(), strings.NewReader(`{"clear_price":true,"reserved":2}`))
	req = withRouteParam(req, "partID", partID.String())
	rec := httptest.NewRecorder()

	PartUpdate(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.updateInput.ClearPrice)
	require.NotNil(t, svc.updateInput.Reserved)
	assert.Equal(t, 2, *svc.updateInput.Reserved)
	assert.Nil(t, svc.updateInput.CurrentStock)
}

func TestPartListLowStockFilter(t *testing.T) {
	svc := &stubPartService{list: []inventory.PartDTO{}}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/parts?low_stock=true&supplier=Acme", nil)
	rec := httptest.NewRecorder()

	PartList(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.filter.LowStock)
	assert.True(t, *svc.filter.LowStock)
	assert.Equal(t, "Acme", svc.filter.Supplier)
}

func TestPartDeleteReferenced(t *testing.T) {
	svc := &stubPartService{err: pkgerrors.New(pkgerrors.CodeConflict, "part is used by repairs")}
	partID := uuid.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/parts/"+partID.String(), nil)
	req = withRouteParam(req, "partID", partID.String())
	rec := httptest.NewRecorder()

	PartDelete(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, partID, svc.deleted)
}

func TestUsageCreateUsesRepairFromPath(t *testing.T) {
	svc := &stubUsageService{dto: &usages.UsageDTO{ID: uuid.New()}}
	repairID, partID := uuid.New(), uuid.New()
	body := `{"part_id":"` + partID.String() + `","quantity":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/repairs/"+repairID.String()+"/usages", strings.NewReader(body))
	req = withRouteParam(req, "repairID", repairID.String())
	rec := httptest.NewRecorder()

	UsageCreate(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, usages.CreateInput{RepairID: repairID, PartID: partID, Quantity: 2}, svc.createInput)
}

func TestUsageUpdateRejectsZeroQuantity(t *testing.T) {
	svc := &stubUsageService{}
	usageID := uuid.New()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/usages/"+usageID.String(), strings.NewReader(`{"quantity":0}`))
	req = withRouteParam(req, "usageID", usageID.String())
	rec := httptest.NewRecorder()

	UsageUpdate(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.quantity)
}

func TestUsageUpdateWrittenOff(t *testing.T) {
	svc := &stubUsageService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "usage already written off")}
	usageID := uuid.New()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/usages/"+usageID.String(), strings.NewReader(`{"quantity":3}`))
	req = withRouteParam(req, "usageID", usageID.String())
	rec := httptest.NewRecorder()

	UsageUpdate(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 3, svc.quantity)
}

func TestDeviceListActiveOnly(t *testing.T) {
	svc := &stubDeviceService{list: []devices.DeviceDTO{{Name: "CashCode Bill"}}}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/devices?active=true&search=cash", nil)
	rec := httptest.NewRecorder()

	DeviceList(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.filter.ActiveOnly)
	assert.Equal(t, "cash", svc.filter.Search)
	assert.Contains(t, rec.Body.String(), "CashCode Bill")
}

func TestDeviceDeleteInUse(t *testing.T) {
	svc := &stubDeviceService{err: pkgerrors.New(pkgerrors.CodeConflict, "device has repairs")}
	deviceID := uuid.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/devices/"+deviceID.String(), nil)
	req = withRouteParam(req, "deviceID", deviceID.String())
	rec := httptest.NewRecorder()

	DeviceDelete(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}
